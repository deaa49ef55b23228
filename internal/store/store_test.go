package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"linewaste/internal/model"
	"linewaste/internal/parser"
)

func sampleRows() []model.RawRow {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	detail := model.DefectDetail{
		Date:       day,
		Shift:      "Shift 1",
		Machine:    "Mesin A1",
		Variant:    "Wow Pasta Carbonara",
		DefectType: "Kodefikasi",
		Hours:      [model.HourCount]float64{1, 2, 0, 0, 0, 0, 0, 0.5},
		Correction: -0.5,
	}
	output := model.OutputAggregate{
		Date:           day,
		Shift:          "Shift 1",
		Variant:        "Wow Pasta Carbonara",
		AuditedWasteKg: 4.25,
		OutputPcs:      1000,
	}
	return parser.ToRawRows([]model.Observation{detail.Observation(), output.Observation()})
}

func TestCSVStore_MissingFileIsEmpty(t *testing.T) {
	s := NewCSVStore(filepath.Join(t.TempDir(), "data.csv"), "")
	rows, err := s.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty table, got %d rows", len(rows))
	}
}

func TestCSVStore_ReplaceAllRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	s := NewCSVStore(path, filepath.Join(dir, "backups"))
	ctx := context.Background()

	if err := s.ReplaceAll(ctx, sampleRows()); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	firstLine := strings.SplitN(string(data), "\n", 2)[0]
	if firstLine != strings.Join(model.Columns, ",") {
		t.Fatalf("unexpected header: %s", firstLine)
	}

	rows, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][model.ColTotalReject] != "3" || rows[0][model.HourColumn(8)] != "0.5" {
		t.Fatalf("unexpected detail row: %v", rows[0])
	}
	if rows[1][model.ColDefectType] != model.SentinelDefectType || rows[1][model.ColMachine] != "Wow Pasta Carbonara" {
		t.Fatalf("unexpected sentinel row: %v", rows[1])
	}

	// 第二次写入前应备份旧文件
	if err := s.ReplaceAll(ctx, sampleRows()[:1]); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	backups, _ := filepath.Glob(filepath.Join(dir, "backups", "data.csv.*.bak"))
	if len(backups) != 1 {
		t.Fatalf("expected 1 backup, got %d", len(backups))
	}
	rows, _ = s.ReadAll(ctx)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row after replace, got %d", len(rows))
	}

	tmps, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(tmps) != 0 {
		t.Fatalf("temp files left behind: %v", tmps)
	}
}

func TestCSVStore_ReadsLegacyFileAndCollapsesDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data_produksi.csv")
	content := "Tanggal,Shift,Mesin,Varian,Jenis Reject,Jam 1,Koreksi,Total Reject,STT Waste (Kg),Output (pcs)\n" +
		"2025-03-01,Shift 1,Mesin A1,Wow Pasta Carbonara,Kodefikasi,2,0,2,0,0\n" +
		"2025-03-01,Shift 1,Mesin A1,Wow Pasta Carbonara,Kodefikasi,2,0,2,0,0\n" +
		",,,,,,,,,\n" +
		"2025-03-01,Shift 1,Wow Pasta Carbonara,Wow Pasta Carbonara,STT_DUMMY_OUTPUT,0,0,0,5,900\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rows, err := NewCSVStore(path, "").ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
	if rows[0][model.ColDate] != "2025-03-01" || rows[0][model.HourColumn(1)] != "2" {
		t.Fatalf("legacy header not mapped: %v", rows[0])
	}
	if rows[1][model.ColOutputPcs] != "900" {
		t.Fatalf("unexpected sentinel row: %v", rows[1])
	}
}

func TestCSVStore_FailedWriteKeepsPriorData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	s := NewCSVStore(path, "")
	ctx := context.Background()
	if err := s.ReplaceAll(ctx, sampleRows()); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.ReplaceAll(cancelled, nil); err == nil {
		t.Fatalf("expected error for cancelled context")
	}

	rows, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("prior data should remain intact, got %d rows", len(rows))
	}
}

func TestSQLiteStore_ReplaceAllRoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "linewaste.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	if err := s.ReplaceAll(ctx, sampleRows()); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if err := s.ReplaceAll(ctx, sampleRows()); err != nil {
		t.Fatalf("ReplaceAll again: %v", err)
	}

	rows, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows after replace, got %d", len(rows))
	}
	if rows[0][model.ColDate] != "2025-03-01" || rows[0][model.ColDefectType] != "Kodefikasi" {
		t.Fatalf("unexpected first row: %v", rows[0])
	}
	if rows[1][model.ColAuditedWasteKg] != "4.25" || rows[1][model.ColOutputPcs] != "1000" {
		t.Fatalf("unexpected sentinel row: %v", rows[1])
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open(Options{Backend: "parquet", Path: "x"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestReplaceAll_PreservesUnparseableCells(t *testing.T) {
	dir := t.TempDir()
	sqliteStore, err := NewSQLiteStore(filepath.Join(dir, "linewaste.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = sqliteStore.Close() })

	stores := map[string]RecordStore{
		"csv":    NewCSVStore(filepath.Join(dir, "data.csv"), ""),
		"sqlite": sqliteStore,
	}
	raw := []model.RawRow{{
		model.ColDate:        "01-03-2025??",
		model.ColShift:       "Shift 1",
		model.ColTotalReject: "abc",
	}}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.ReplaceAll(ctx, raw); err != nil {
				t.Fatalf("ReplaceAll: %v", err)
			}
			rows, err := s.ReadAll(ctx)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if len(rows) != 1 {
				t.Fatalf("expected 1 row, got %d", len(rows))
			}
			if rows[0][model.ColDate] != "01-03-2025??" || rows[0][model.ColTotalReject] != "abc" {
				t.Fatalf("raw cells not preserved: %v", rows[0])
			}
		})
	}
}

func TestCSVStore_BackupsAreUniquePerWrite(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVStore(filepath.Join(dir, "data.csv"), filepath.Join(dir, "backups"))
	ctx := context.Background()

	const writes = 30
	for i := 0; i < writes; i++ {
		if err := s.ReplaceAll(ctx, sampleRows()); err != nil {
			t.Fatalf("ReplaceAll #%d: %v", i, err)
		}
	}
	backups, err := s.Backups()
	if err != nil {
		t.Fatalf("Backups: %v", err)
	}
	// 第一次写入时还没有旧文件
	if len(backups) != writes-1 {
		t.Fatalf("expected %d backups, got %d", writes-1, len(backups))
	}
}

func TestCSVStore_PrunesOldBackups(t *testing.T) {
	dir := t.TempDir()
	backupDir := filepath.Join(dir, "backups")
	s, err := Open(Options{
		Backend:    BackendCSV,
		Path:       filepath.Join(dir, "data.csv"),
		BackupDir:  backupDir,
		MaxBackups: 3,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// 不属于本数据文件的备份不受影响
	foreign := filepath.Join(backupDir, "other.csv.20250101T000000.000000000.1.bak")
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(foreign, []byte("x"), 0644); err != nil {
		t.Fatalf("write foreign backup: %v", err)
	}

	ctx := context.Background()
	var last []model.RawRow
	for i := 0; i < 10; i++ {
		last = sampleRows()[:1+i%2]
		if err := s.ReplaceAll(ctx, last); err != nil {
			t.Fatalf("ReplaceAll #%d: %v", i, err)
		}
	}

	backups, err := s.(*CSVStore).Backups()
	if err != nil {
		t.Fatalf("Backups: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups kept, got %d: %v", len(backups), backups)
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Fatalf("foreign backup should remain: %v", err)
	}
	rows, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != len(last) {
		t.Fatalf("expected %d rows after writes, got %d", len(last), len(rows))
	}
}
