package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"linewaste/internal/model"
	"linewaste/internal/parser"
	"linewaste/internal/service/entry"
	"linewaste/internal/service/repository"
)

// ErrInvalidWorkbook 上传的文件无法作为工作簿读取
var ErrInvalidWorkbook = errors.New("invalid workbook")

// Coordinator 导入协调器：把工作簿中的观测行合并进记录存储
type Coordinator struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCoordinator 创建导入协调器
func NewCoordinator(repo *repository.Repository, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{repo: repo, logger: logger}
}

// ImportOptions 导入选项
type ImportOptions struct {
	FilePath         string
	OriginalFilename string // 上传时的原始文件名，仅用于报告
	ClearExisting    bool   // 是否清空现有数据
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string    `json:"type"`    // start/sheet_start/sheet_done/sheet_skipped/done/error
	Message   string    `json:"message"` // 事件消息
	Data      any       `json:"data"`    // 附加数据
	Timestamp time.Time `json:"timestamp"`
}

// SheetReport 单个工作表的导入结果
type SheetReport struct {
	Name     string `json:"name"`
	Rows     int    `json:"rows"`
	Imported int    `json:"imported"`
	Skipped  bool   `json:"skipped"`
	Reason   string `json:"reason,omitempty"`
}

// ImportReport 导入汇总
type ImportReport struct {
	Filename    string             `json:"filename"`
	Sheets      []SheetReport      `json:"sheets"`
	Imported    int                `json:"imported"`
	StoreRows   int                `json:"storeRows"` // 合并去重后存储中的行数
	Diagnostics parser.Diagnostics `json:"diagnostics"`
	Duration    time.Duration      `json:"duration"`
}

// Import 执行导入，返回进度通道；最后一个事件为 done 或 error
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.doImport(ctx, opts, progressChan)
	}()

	return progressChan
}

func (c *Coordinator) doImport(ctx context.Context, opts ImportOptions, progressChan chan<- ProgressEvent) {
	startTime := time.Now()
	name := opts.OriginalFilename
	if name == "" {
		name = filepath.Base(opts.FilePath)
	}

	c.sendProgress(progressChan, "start", "import started", map[string]string{"filename": name})

	file, err := excelize.OpenFile(opts.FilePath)
	if err != nil {
		c.sendError(progressChan, fmt.Errorf("%w: failed to open %s: %w", ErrInvalidWorkbook, name, err))
		return
	}
	defer file.Close()

	report := &ImportReport{Filename: name}
	var rows []model.RawRow
	for _, sheet := range file.GetSheetList() {
		c.sendProgress(progressChan, "sheet_start", sheet, nil)
		sr, sheetRows, err := readSheet(file, sheet)
		if err != nil {
			c.sendError(progressChan, fmt.Errorf("%w: failed to read sheet %s: %w", ErrInvalidWorkbook, sheet, err))
			return
		}
		report.Sheets = append(report.Sheets, sr)
		if sr.Skipped {
			c.sendProgress(progressChan, "sheet_skipped", sheet, sr)
			continue
		}
		rows = append(rows, sheetRows...)
		c.sendProgress(progressChan, "sheet_done", sheet, sr)
	}

	// 只统计诊断，原始文本原样写入存储
	report.Diagnostics = parser.Normalize(rows).Diagnostics
	report.Imported = len(rows)

	_, err = c.repo.Update(ctx, func(existing []model.RawRow) ([]model.RawRow, bool, error) {
		merged := make([]model.RawRow, 0, len(existing)+len(rows))
		if !opts.ClearExisting {
			merged = append(merged, existing...)
		}
		merged = entry.DedupeDetailKey(append(merged, rows...))
		report.StoreRows = len(merged)
		return merged, len(rows) > 0 || opts.ClearExisting, nil
	})
	if err != nil {
		c.sendError(progressChan, err)
		return
	}

	report.Duration = time.Since(startTime)
	c.logger.Info("workbook imported",
		zap.String("file", name),
		zap.Int("imported", report.Imported),
		zap.Int("store_rows", report.StoreRows),
	)
	c.sendProgress(progressChan, "done", "import finished", report)
}

// readSheet 识别表头并读取数据行；没有日期列的工作表跳过
func readSheet(f *excelize.File, sheet string) (SheetReport, []model.RawRow, error) {
	sr := SheetReport{Name: sheet}
	grid, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return sr, nil, err
	}
	if len(grid) == 0 {
		sr.Skipped = true
		sr.Reason = "empty sheet"
		return sr, nil, nil
	}

	header := parser.MapHeader(grid[0])
	if !hasColumn(header, model.ColDate) || !hasColumn(header, model.ColDefectType) {
		sr.Skipped = true
		sr.Reason = "no observation header"
		return sr, nil, nil
	}

	out := make([]model.RawRow, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		sr.Rows++
		row := make(model.RawRow, len(header))
		blank := true
		for i, col := range header {
			if i >= len(cells) {
				continue
			}
			v := strings.TrimSpace(cells[i])
			if v != "" {
				blank = false
			}
			if col == model.ColDate {
				v = normalizeDateCell(v)
			}
			row[col] = v
		}
		if blank {
			continue
		}
		out = append(out, row)
	}
	sr.Imported = len(out)
	return sr, out, nil
}

func hasColumn(header map[int]string, col string) bool {
	for _, c := range header {
		if c == col {
			return true
		}
	}
	return false
}

// normalizeDateCell 日期格式的单元格原始值是 Excel 序列号
func normalizeDateCell(v string) string {
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return v
	}
	return model.Day(t).Format(model.DateLayout)
}

func (c *Coordinator) sendProgress(ch chan<- ProgressEvent, typ, msg string, data any) {
	ch <- ProgressEvent{
		Type:      typ,
		Message:   msg,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// sendError 错误事件的 Data 携带原始错误，Drain 原样返回以便调用方区分
func (c *Coordinator) sendError(ch chan<- ProgressEvent, err error) {
	c.sendProgress(ch, "error", err.Error(), err)
}

// Drain 读完进度通道，返回最终报告或错误
func Drain(ch <-chan ProgressEvent, onEvent func(ProgressEvent)) (*ImportReport, error) {
	var report *ImportReport
	var lastErr error
	for evt := range ch {
		if onEvent != nil {
			onEvent(evt)
		}
		switch evt.Type {
		case "error":
			if err, ok := evt.Data.(error); ok {
				lastErr = err
			} else {
				lastErr = errors.New(evt.Message)
			}
		case "done":
			if r, ok := evt.Data.(*ImportReport); ok {
				report = r
			}
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return report, nil
}
