package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"linewaste/internal/model"
	"linewaste/internal/parser"
	"linewaste/internal/store"
)

// Snapshot 某一时刻规范化后的全部观测，只读
type Snapshot struct {
	Rows        []model.Observation
	Diagnostics parser.Diagnostics
	LoadedAt    time.Time
	Version     uint64
}

// Repository 在存储之上提供带时效的快照缓存；任何写入都会使缓存失效
type Repository struct {
	store  store.RecordStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	cached  *Snapshot
	expires time.Time
	version uint64

	loads   singleflight.Group
	writeMu sync.Mutex
}

// New 创建仓库；ttl<=0 表示不缓存
func New(st store.RecordStore, ttl time.Duration, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		store:  st,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Store 底层存储
func (r *Repository) Store() store.RecordStore {
	return r.store
}

// Snapshot 返回缓存的快照，过期或失效时重新读取
// 并发调用共享同一次读取；某个调用方取消不影响其他调用方
func (r *Repository) Snapshot(ctx context.Context) (*Snapshot, error) {
	r.mu.RLock()
	if r.cached != nil && r.now().Before(r.expires) {
		snap := r.cached
		r.mu.RUnlock()
		return snap, nil
	}
	version := r.version
	r.mu.RUnlock()

	// 共享的读取不跟随某一个调用方取消，各调用方只等待自己的 ctx
	loadCtx := context.WithoutCancel(ctx)
	ch := r.loads.DoChan(fmt.Sprintf("snapshot-%d", version), func() (any, error) {
		return r.load(loadCtx, version)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (r *Repository) load(ctx context.Context, version uint64) (*Snapshot, error) {
	raw, err := r.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read records failed: %w", err)
	}
	res := parser.Normalize(raw)
	snap := &Snapshot{
		Rows:        res.Rows,
		Diagnostics: res.Diagnostics,
		LoadedAt:    r.now(),
		Version:     version,
	}

	if res.Diagnostics.HasIssues() {
		r.logger.Warn("normalizer dropped or defaulted data",
			zap.Int("total", res.Diagnostics.TotalRows),
			zap.Int("dropped_bad_date", res.Diagnostics.DroppedBadDate),
			zap.Int("dropped_corrupt", res.Diagnostics.DroppedCorrupt),
			zap.Int("unparseable_cells", res.Diagnostics.UnparseableCells),
		)
	}
	r.logger.Debug("snapshot loaded",
		zap.String("location", r.store.Location()),
		zap.Int("rows", len(res.Rows)),
		zap.Uint64("version", version),
	)

	r.mu.Lock()
	// 读取期间发生了写入则不缓存这份旧数据
	if r.version == version && r.ttl > 0 {
		r.cached = snap
		r.expires = r.now().Add(r.ttl)
	}
	r.mu.Unlock()
	return snap, nil
}

// Invalidate 丢弃缓存
func (r *Repository) Invalidate() {
	r.mu.Lock()
	r.cached = nil
	r.version++
	r.mu.Unlock()
}

// Mutation 对原始行做一次修改；changed=false 时不写入
type Mutation func(raw []model.RawRow) (next []model.RawRow, changed bool, err error)

// Update 读取原始行、应用修改、整表写回并使缓存失效
// 存储失败原样返回，不重试
func (r *Repository) Update(ctx context.Context, fn Mutation) (bool, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	raw, err := r.store.ReadAll(ctx)
	if err != nil {
		return false, fmt.Errorf("read records failed: %w", err)
	}
	next, changed, err := fn(raw)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	if err := r.store.ReplaceAll(ctx, next); err != nil {
		return false, fmt.Errorf("write records failed: %w", err)
	}
	r.Invalidate()
	r.logger.Info("records replaced",
		zap.String("location", r.store.Location()),
		zap.Int("rows", len(next)),
	)
	return true, nil
}
