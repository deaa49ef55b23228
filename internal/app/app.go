package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"linewaste/internal/catalog"
	"linewaste/internal/config"
	"linewaste/internal/service/calculator"
	"linewaste/internal/service/entry"
	"linewaste/internal/service/repository"
	"linewaste/internal/store"
)

// App 进程内共享的组件
type App struct {
	Config  *config.AppConfig
	Logger  *zap.Logger
	DataDir string
	Store   store.RecordStore
	Repo    *repository.Repository
	Catalog *catalog.Catalog
	Engine  *calculator.Engine
	Entries *entry.Service
}

// Open 按配置组装存储、缓存、计算引擎与录入服务
func Open(cfg *config.AppConfig, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare data dir: %w", err)
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	opts := config.StoreOptions(cfg)
	st, err := store.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	logger.Info("record store opened",
		zap.String("backend", cfg.Data.Backend),
		zap.String("location", st.Location()),
	)

	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	repo := repository.New(st, ttl, logger.Named("repository"))

	return &App{
		Config:  cfg,
		Logger:  logger,
		DataDir: dataDir,
		Store:   st,
		Repo:    repo,
		Catalog: cat,
		Engine:  calculator.NewEngine(cfg.Params()),
		Entries: entry.NewService(repo, cat, logger.Named("entry")),
	}, nil
}

// WatchData 配置开启时监听数据文件的外部修改
func (a *App) WatchData(ctx context.Context) {
	if !a.Config.Cache.WatchFile {
		return
	}
	if err := a.Repo.Watch(ctx); err != nil {
		a.Logger.Warn("data file watch disabled", zap.Error(err))
	}
}

// Close 释放存储
func (a *App) Close() error {
	return a.Store.Close()
}
