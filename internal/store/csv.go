package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"linewaste/internal/model"
	"linewaste/internal/parser"
)

// CSVStore 以分隔文本文件保存整张观测表，写入采用整文件重写
type CSVStore struct {
	path       string
	backupDir  string
	maxBackups int // <=0 表示不清理
}

// NewCSVStore 创建 CSV 存储
func NewCSVStore(path, backupDir string) *CSVStore {
	return &CSVStore{path: path, backupDir: backupDir}
}

// WithMaxBackups 只保留最近 n 份备份；n<=0 全部保留
func (s *CSVStore) WithMaxBackups(n int) *CSVStore {
	s.maxBackups = n
	return s
}

// Location 实现 RecordStore
func (s *CSVStore) Location() string {
	return s.path
}

// Close 实现 RecordStore
func (s *CSVStore) Close() error {
	return nil
}

// ReadAll 读取全部行；文件不存在视为空表
// 完全相同的行只保留一份，空行跳过
func (s *CSVStore) ReadAll(ctx context.Context) ([]model.RawRow, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.RawRow{}, nil
		}
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []model.RawRow{}, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	mapping := parser.MapHeader(header)

	var rows []model.RawRow
	seen := make(map[string]bool)
	for line := 2; ; line++ {
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		if isBlankRecord(rec) {
			continue
		}
		sig := strings.Join(rec, "\x1f")
		if seen[sig] {
			continue
		}
		seen[sig] = true

		row := make(model.RawRow, len(mapping))
		for idx, col := range mapping {
			if idx < len(rec) {
				row[col] = rec[idx]
			}
		}
		rows = append(rows, row)
	}
	if rows == nil {
		rows = []model.RawRow{}
	}
	return rows, nil
}

// ReplaceAll 写临时文件后重命名，保证读者看不到写了一半的文件
func (s *CSVStore) ReplaceAll(ctx context.Context, rows []model.RawRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(model.Columns); err != nil {
		cleanup()
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(parser.Records(rows)); err != nil {
		cleanup()
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := s.backup(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}

// backup 覆盖前把旧文件复制到备份目录，然后清理多余的旧备份
func (s *CSVStore) backup() error {
	if s.backupDir == "" {
		return nil
	}
	src, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open data file for backup: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	// 时间戳便于排序，随机后缀保证同一时刻的备份不互相覆盖
	pattern := fmt.Sprintf("%s.%s.*%s", filepath.Base(s.path), time.Now().Format("20060102T150405.000000000"), backupSuffix)
	dst, err := os.CreateTemp(s.backupDir, pattern)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return fmt.Errorf("failed to copy backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close backup: %w", err)
	}
	return s.pruneBackups()
}

const backupSuffix = ".bak"

// Backups 按从旧到新的顺序列出本文件的备份
func (s *CSVStore) Backups() ([]string, error) {
	if s.backupDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	prefix := filepath.Base(s.path) + "."
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		names = append(names, filepath.Join(s.backupDir, name))
	}
	sort.Strings(names)
	return names, nil
}

func (s *CSVStore) pruneBackups() error {
	if s.maxBackups <= 0 {
		return nil
	}
	names, err := s.Backups()
	if err != nil {
		return err
	}
	for len(names) > s.maxBackups {
		if err := os.Remove(names[0]); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove old backup: %w", err)
		}
		names = names[1:]
	}
	return nil
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
