package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"linewaste/internal/model"
	"linewaste/internal/parser"
	"linewaste/internal/service/calculator"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized bool               `json:"initialized"` // 是否已有数据
	Backend     string             `json:"backend"`
	Location    string             `json:"location"`
	Rows        int                `json:"rows"`
	OutputRows  int                `json:"outputRows"`
	DetailRows  int                `json:"detailRows"`
	FirstDate   string             `json:"firstDate,omitempty"`
	LastDate    string             `json:"lastDate,omitempty"`
	LoadedAt    time.Time          `json:"loadedAt"`
	Diagnostics parser.Diagnostics `json:"diagnostics"`
	Error       string             `json:"error,omitempty"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		Backend:  h.backend,
		Location: h.repo.Store().Location(),
	}

	snap, err := h.repo.Snapshot(c.Request.Context())
	if err != nil {
		// 状态接口本身不失败，只报告存储不可读
		resp.Error = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}

	output, detail := calculator.Partition(snap.Rows)
	resp.Initialized = len(snap.Rows) > 0
	resp.Rows = len(snap.Rows)
	resp.OutputRows = len(output)
	resp.DetailRows = len(detail)
	resp.LoadedAt = snap.LoadedAt
	resp.Diagnostics = snap.Diagnostics
	if minDate, maxDate, ok := calculator.DateRange(snap.Rows); ok {
		resp.FirstDate = minDate.Format(model.DateLayout)
		resp.LastDate = maxDate.Format(model.DateLayout)
	}
	c.JSON(http.StatusOK, resp)
}
