package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"linewaste/internal/importer"
)

// Import 上传工作簿并合并进记录存储
// POST /api/import (multipart: file, clearExisting)
func (h *Handler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .xlsx workbooks are supported"})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		h.respondError(c, fmt.Errorf("failed to create upload dir: %w", err))
		return
	}
	dst := filepath.Join(h.uploadDir, uuid.NewString()+".xlsx")
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		h.respondError(c, fmt.Errorf("failed to save upload: %w", err))
		return
	}
	defer os.Remove(dst)

	coord := importer.NewCoordinator(h.repo, h.logger.Named("import"))
	report, err := importer.Drain(coord.Import(c.Request.Context(), importer.ImportOptions{
		FilePath:         dst,
		OriginalFilename: fh.Filename,
		ClearExisting:    c.PostForm("clearExisting") == "true",
	}), nil)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
