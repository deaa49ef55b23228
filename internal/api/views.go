package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"linewaste/internal/model"
	"linewaste/internal/service/calculator"
)

// parseScope 解析 from/to/shift 查询参数；日期为空表示不限
func parseScope(c *gin.Context) (calculator.Scope, error) {
	var scope calculator.Scope
	if v := strings.TrimSpace(c.Query("from")); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			return scope, fmt.Errorf("invalid from: %w", err)
		}
		scope.From = d
	}
	if v := strings.TrimSpace(c.Query("to")); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			return scope, fmt.Errorf("invalid to: %w", err)
		}
		scope.To = d
	}
	if !scope.From.IsZero() && !scope.To.IsZero() && scope.To.Before(scope.From) {
		return scope, fmt.Errorf("to must not be before from")
	}
	scope.Shift = c.Query("shift")
	scope.Variant = strings.TrimSpace(c.Query("variant"))
	return scope, nil
}

func parseRequiredDate(c *gin.Context, key string) (time.Time, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return time.Time{}, fmt.Errorf("%s is required", key)
	}
	return model.ParseDate(v)
}

// GetCatalog 主数据
// GET /api/catalog
func (h *Handler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, h.entries.Catalog())
}

// DashboardResponse 仪表盘响应
type DashboardResponse struct {
	Empty bool `json:"empty"`
	calculator.Dashboard
}

// GetDashboard 仪表盘 KPI 与各维度分解
// GET /api/dashboard?from&to&shift
func (h *Handler) GetDashboard(c *gin.Context) {
	scope, err := parseScope(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := h.repo.Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	d := h.engine.Dashboard(snap.Rows, scope)
	c.JSON(http.StatusOK, DashboardResponse{
		Empty:     d.Summary.Empty,
		Dashboard: d,
	})
}

// ReportResponse 日期×班次报表响应
type ReportResponse struct {
	Empty  bool                       `json:"empty"`
	Rows   []calculator.ReportRow     `json:"rows"`
	Shifts calculator.ShiftComparison `json:"shifts"`
}

// GetReport 日期×班次报表与班次对比
// GET /api/report?from&to&shift
func (h *Handler) GetReport(c *gin.Context) {
	scope, err := parseScope(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := h.repo.Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	rows := h.engine.Report(snap.Rows, scope)
	c.JSON(http.StatusOK, ReportResponse{
		Empty:  len(rows) == 0,
		Rows:   rows,
		Shifts: h.engine.CompareShifts(rows),
	})
}

// GetPreview 单个日期×班次按品种的预览
// GET /api/preview?date&shift
func (h *Handler) GetPreview(c *gin.Context) {
	date, err := parseRequiredDate(c, "date")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	shift := strings.TrimSpace(c.Query("shift"))
	if shift == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shift is required"})
		return
	}
	snap, err := h.repo.Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.engine.Preview(snap.Rows, date, shift))
}
