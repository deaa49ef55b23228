package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"linewaste/internal/importer"
	"linewaste/internal/service/entry"
)

// respondError 校验错误返回 400 并带上全部问题，无法读取的工作簿返回 400，其余按存储故障返回 500
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *entry.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "validation failed",
			"messages": verr.Messages,
		})
		return
	}
	if errors.Is(err, importer.ErrInvalidWorkbook) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
