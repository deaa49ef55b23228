package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"linewaste/internal/exporter"
	"linewaste/internal/service/calculator"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	downloadTTL     = 10 * time.Minute
)

type exportProgressEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// ExportResponse 导出结果
type ExportResponse struct {
	FileName    string `json:"fileName"`
	DownloadURL string `json:"downloadUrl"`
}

// buildExport 生成工作簿并落盘，返回下载令牌
func (h *Handler) buildExport(c *gin.Context, scope calculator.Scope, progress func(exporter.ProgressEvent)) (ExportResponse, error) {
	snap, err := h.repo.Snapshot(c.Request.Context())
	if err != nil {
		return ExportResponse{}, err
	}

	file, err := h.exporter.Export(snap.Rows, exporter.ExportOptions{Scope: scope}, progress)
	if err != nil {
		return ExportResponse{}, err
	}
	defer file.Close()

	if err := os.MkdirAll(h.exportDir, 0755); err != nil {
		return ExportResponse{}, fmt.Errorf("failed to create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(h.exportDir, "linewaste_export_*.xlsx")
	if err != nil {
		return ExportResponse{}, fmt.Errorf("failed to create export file: %w", err)
	}
	tempPath := tmp.Name()
	if err := file.Write(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tempPath)
		return ExportResponse{}, fmt.Errorf("failed to write export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return ExportResponse{}, fmt.Errorf("failed to close export file: %w", err)
	}

	name := exporter.FileName(snap.Rows, scope)
	token := h.downloads.put(tempPath, name, downloadTTL)
	h.logger.Info("export prepared", zap.String("file", name), zap.String("path", tempPath))
	return ExportResponse{
		FileName:    name,
		DownloadURL: "/api/export/download/" + token,
	}, nil
}

// Export 导出 Excel，返回一次性下载地址
// POST /api/export?from&to&shift
func (h *Handler) Export(c *gin.Context) {
	scope, err := parseScope(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.buildExport(c, scope, nil)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportStream 导出 Excel（SSE 进度 + 完成后提供下载地址）
// POST /api/export/stream?from&to&shift
func (h *Handler) ExportStream(c *gin.Context) {
	scope, err := parseScope(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	send := func(event exportProgressEvent) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	send(exportProgressEvent{
		Type:      "start",
		Message:   "export started",
		Data:      scope,
		Timestamp: time.Now(),
	})

	lastPercent := -1
	progressFn := func(p exporter.ProgressEvent) {
		if p.Percent == lastPercent {
			return
		}
		lastPercent = p.Percent
		send(exportProgressEvent{
			Type:      "progress",
			Message:   p.Stage,
			Data:      map[string]any{"percent": p.Percent},
			Timestamp: time.Now(),
		})
	}

	resp, err := h.buildExport(c, scope, progressFn)
	if err != nil {
		send(exportProgressEvent{
			Type:      "error",
			Message:   "export failed: " + err.Error(),
			Data:      map[string]any{},
			Timestamp: time.Now(),
		})
		return
	}

	send(exportProgressEvent{
		Type:    "done",
		Message: "export finished",
		Data: map[string]any{
			"percent":     100,
			"fileName":    resp.FileName,
			"downloadUrl": resp.DownloadURL,
		},
		Timestamp: time.Now(),
	})
}

// DownloadExport 下载导出的 Excel 文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}

	item, ok := h.downloads.get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "download link expired"})
		return
	}

	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		c.JSON(http.StatusNotFound, gin.H{"error": "export file missing"})
		return
	}

	c.Header("Content-Disposition", buildContentDisposition(item.fileName))
	c.Header("Content-Type", xlsxContentType)
	c.File(item.filePath)

	h.downloads.delete(token)
	_ = os.Remove(item.filePath)
}

func buildContentDisposition(name string) string {
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", name, url.PathEscape(name))
}
