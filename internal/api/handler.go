package api

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"linewaste/internal/config"
	"linewaste/internal/exporter"
	"linewaste/internal/service/calculator"
	"linewaste/internal/service/entry"
	"linewaste/internal/service/repository"
)

// Handler API 处理器
type Handler struct {
	repo      *repository.Repository
	entries   *entry.Service
	engine    *calculator.Engine
	exporter  *exporter.Exporter
	auth      config.AuthConfig
	backend   string
	exportDir string
	uploadDir string
	logger    *zap.Logger

	sessions  *sessionStore
	downloads *exportDownloadStore
}

// Deps 处理器依赖
type Deps struct {
	Repo      *repository.Repository
	Entries   *entry.Service
	Engine    *calculator.Engine
	Auth      config.AuthConfig
	Backend   string
	ExportDir string // 导出文件临时目录，为空时使用系统临时目录
	UploadDir string // 上传文件暂存目录，为空时使用系统临时目录
	Logger    *zap.Logger
}

// NewHandler 创建 API 处理器
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	exportDir := d.ExportDir
	if exportDir == "" {
		exportDir = filepath.Join(os.TempDir(), "linewaste-exports")
	}
	uploadDir := d.UploadDir
	if uploadDir == "" {
		uploadDir = filepath.Join(os.TempDir(), "linewaste-uploads")
	}
	return &Handler{
		repo:      d.Repo,
		entries:   d.Entries,
		engine:    d.Engine,
		exporter:  exporter.NewExporter(d.Engine),
		auth:      d.Auth,
		backend:   d.Backend,
		exportDir: exportDir,
		uploadDir: uploadDir,
		logger:    logger,
		sessions:  newSessionStore(12 * time.Hour),
		downloads: newExportDownloadStore(),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 无需登录
	router.GET("/status", h.GetStatus)
	router.POST("/login", h.Login)
	// 下载链接本身就是一次性凭据
	router.GET("/export/download/:token", h.DownloadExport)

	authed := router.Group("")
	authed.Use(h.RequireAuth())
	{
		authed.POST("/logout", h.Logout)

		// 主数据
		authed.GET("/catalog", h.GetCatalog)

		// 分析视图
		authed.GET("/dashboard", h.GetDashboard)
		authed.GET("/report", h.GetReport)
		authed.GET("/preview", h.GetPreview)

		// 数据录入
		authed.GET("/entries/defects", h.GetDefectEntries)
		authed.POST("/entries/defects", h.SaveDefects)
		authed.GET("/entries/output", h.GetOutputEntry)
		authed.POST("/entries/output", h.SaveOutput)

		// 维护
		authed.POST("/maintenance/purge", h.PurgeCorrupt)
		authed.POST("/sync", h.Sync)

		// 数据导入
		authed.POST("/import", h.Import)

		// 数据导出
		authed.POST("/export", h.Export)
		authed.POST("/export/stream", h.ExportStream)
	}
}
