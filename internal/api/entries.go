package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"linewaste/internal/model"
	"linewaste/internal/service/entry"
)

// DefectEntryRequest 缺陷明细录入请求；日期为 YYYY-MM-DD 文本
type DefectEntryRequest struct {
	Date    string              `json:"date"`
	Shift   string              `json:"shift"`
	Machine string              `json:"machine"`
	Variant string              `json:"variant"`
	Defects []entry.DefectInput `json:"defects"`
}

// OutputEntryRequest 产量录入请求
type OutputEntryRequest struct {
	Date           string  `json:"date"`
	Shift          string  `json:"shift"`
	Variant        string  `json:"variant"`
	AuditedWasteKg float64 `json:"auditedWasteKg"`
	OutputPcs      float64 `json:"outputPcs"`
}

func parseBodyDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		// 交给表单校验统一报告
		return time.Time{}, nil
	}
	return model.ParseDate(v)
}

// GetDefectEntries 表单预填：当前已保存的缺陷明细
// GET /api/entries/defects?date&shift&machine&variant
func (h *Handler) GetDefectEntries(c *gin.Context) {
	date, err := parseRequiredDate(c, "date")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := h.repo.Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	current := entry.CurrentDefects(snap.Rows, date, c.Query("shift"), c.Query("machine"), c.Query("variant"))
	defects := make([]entry.DefectInput, 0, len(h.entries.Catalog().DefectTypes))
	for _, dt := range h.entries.Catalog().DefectTypes {
		in, ok := current[dt]
		if !ok {
			in = entry.DefectInput{DefectType: dt}
		}
		defects = append(defects, in)
	}
	c.JSON(http.StatusOK, gin.H{"defects": defects})
}

// SaveDefects 保存缺陷明细（覆盖该机台该品种的旧明细）
// POST /api/entries/defects
func (h *Handler) SaveDefects(c *gin.Context) {
	var req DefectEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	date, err := parseBodyDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.entries.SaveDefects(c.Request.Context(), entry.DefectForm{
		Date:    date,
		Shift:   req.Shift,
		Machine: req.Machine,
		Variant: req.Variant,
		Defects: req.Defects,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetOutputEntry 表单预填：当前已保存的产量与审计废料
// GET /api/entries/output?date&shift&variant
func (h *Handler) GetOutputEntry(c *gin.Context) {
	date, err := parseRequiredDate(c, "date")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := h.repo.Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	form, found := entry.CurrentOutput(snap.Rows, date, c.Query("shift"), c.Query("variant"))
	c.JSON(http.StatusOK, gin.H{
		"found":          found,
		"auditedWasteKg": form.AuditedWasteKg,
		"outputPcs":      form.OutputPcs,
	})
}

// SaveOutput 保存产量与审计废料；两个值都为 0 时删除
// POST /api/entries/output
func (h *Handler) SaveOutput(c *gin.Context) {
	var req OutputEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	date, err := parseBodyDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.entries.SaveOutput(c.Request.Context(), entry.OutputForm{
		Date:           date,
		Shift:          req.Shift,
		Variant:        req.Variant,
		AuditedWasteKg: req.AuditedWasteKg,
		OutputPcs:      req.OutputPcs,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PurgeCorrupt 清除塌缩的哨兵行
// POST /api/maintenance/purge
func (h *Handler) PurgeCorrupt(c *gin.Context) {
	removed, err := h.entries.PurgeCorrupt(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// Sync 丢弃缓存，下次读取时重新加载
// POST /api/sync
func (h *Handler) Sync(c *gin.Context) {
	h.repo.Invalidate()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
