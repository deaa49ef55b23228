package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"linewaste/internal/model"
)

// Backend 存储后端类型
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// ErrUnknownBackend 未知的存储后端
var ErrUnknownBackend = errors.New("unknown store backend")

// RecordStore 观测表的存储契约
//   - ReadAll 返回全部已持久化的原始行，不会返回截断的数据
//   - ReplaceAll 原子地整表覆盖；失败时旧数据保持不变
// 两个方向都使用原始行，无法解析的旧数据在回写时原样保留
type RecordStore interface {
	ReadAll(ctx context.Context) ([]model.RawRow, error)
	ReplaceAll(ctx context.Context, rows []model.RawRow) error
	// Location 数据文件路径（用于日志与文件监听）
	Location() string
	Close() error
}

// Options 打开存储的参数
type Options struct {
	Backend   string
	Path      string
	BackupDir string // 仅 CSV：覆盖写前备份旧文件，为空则不备份
	// MaxBackups 仅 CSV：保留的备份份数，<=0 不清理
	MaxBackups int
}

// Open 按后端类型打开存储
func Open(opts Options) (RecordStore, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendCSV:
		return NewCSVStore(opts.Path, opts.BackupDir).WithMaxBackups(opts.MaxBackups), nil
	case BackendSQLite:
		return NewSQLiteStore(opts.Path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, opts.Backend)
	}
}
