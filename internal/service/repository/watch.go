package repository

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch 监听数据文件所在目录，文件被外部修改时使缓存失效
// ctx 结束后停止监听
func (r *Repository) Watch(ctx context.Context) error {
	target := filepath.Clean(r.store.Location())
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// 原子写是“临时文件 + 重命名”，只能监听目录
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != target {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					r.Invalidate()
					r.logger.Debug("data file changed, cache invalidated",
						zap.String("file", evt.Name),
						zap.String("op", evt.Op.String()),
					)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Warn("watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
