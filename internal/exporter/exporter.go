package exporter

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/xuri/excelize/v2"

	"linewaste/internal/model"
	"linewaste/internal/service/calculator"
)

// 工作表名称
const (
	SheetSummary = "Ringkasan"
	SheetDetail  = "Detail_Reject"
	SheetPareto  = "Pareto"
	SheetKPI     = "KPI"
)

// Exporter 生产报表导出器
type Exporter struct {
	engine *calculator.Engine
}

// NewExporter 创建导出器
func NewExporter(engine *calculator.Engine) *Exporter {
	return &Exporter{engine: engine}
}

// ExportOptions 导出选项
type ExportOptions struct {
	Scope calculator.Scope
}

// FileName 下载文件名：Laporan_Produksi_<起始日期>.xlsx
// 未指定起始日期时取数据中的最早日期
func FileName(rows []model.Observation, scope calculator.Scope) string {
	from := scope.From
	if from.IsZero() {
		if minDate, _, ok := calculator.DateRange(calculator.Filter(rows, scope)); ok {
			from = minDate
		}
	}
	if from.IsZero() {
		return "Laporan_Produksi.xlsx"
	}
	return fmt.Sprintf("Laporan_Produksi_%s.xlsx", model.Day(from).Format(model.DateLayout))
}

// Export 生成工作簿；调用方负责 Close
func (e *Exporter) Export(rows []model.Observation, opts ExportOptions, progress func(ProgressEvent)) (*excelize.File, error) {
	reportProgress(progress, 5, "prepare")

	scoped := calculator.Filter(rows, opts.Scope)
	_, detail := calculator.Partition(scoped)
	report := e.engine.Report(rows, opts.Scope)
	dash := e.engine.Dashboard(rows, opts.Scope)

	f := excelize.NewFile()
	styles, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetDetail, SheetPareto, SheetKPI} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	steps := []struct {
		percent int
		stage   string
		fill    func() error
	}{
		{30, SheetSummary, func() error { return fillSummarySheet(f, styles, report) }},
		{60, SheetDetail, func() error { return fillDetailSheet(f, styles, detail) }},
		{80, SheetPareto, func() error { return fillParetoSheet(f, styles, dash.Pareto) }},
		{95, SheetKPI, func() error {
			return fillKPISheet(f, styles, dash, e.engine.CompareShifts(report))
		}},
	}
	for _, step := range steps {
		if err := step.fill(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to fill %s: %w", step.stage, err)
		}
		reportProgress(progress, step.percent, step.stage)
	}

	f.SetActiveSheet(0)
	reportProgress(progress, 100, "done")
	return f, nil
}

// styles 各工作表共用的单元格样式
type styles struct {
	header  int
	integer int
	decimal int
	percent int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error
	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return s, fmt.Errorf("failed to create header style: %w", err)
	}
	intFmt := "#,##0"
	if s.integer, err = f.NewStyle(&excelize.Style{CustomNumFmt: &intFmt}); err != nil {
		return s, err
	}
	decFmt := "#,##0.00"
	if s.decimal, err = f.NewStyle(&excelize.Style{CustomNumFmt: &decFmt}); err != nil {
		return s, err
	}
	pctFmt := `0.00"%"`
	if s.percent, err = f.NewStyle(&excelize.Style{CustomNumFmt: &pctFmt}); err != nil {
		return s, err
	}
	return s, nil
}

// writeHeader 写表头并冻结首行
func writeHeader(f *excelize.File, st styles, sheet string, headers []string) error {
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, st.header); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetColWidth(sheet, "A", lastCol, 14); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// styleColumn 给某列第 2..lastRow 行设置样式
func styleColumn(f *excelize.File, sheet string, col, lastRow, style int) error {
	if lastRow < 2 {
		return nil
	}
	top, err := excelize.CoordinatesToCellName(col, 2)
	if err != nil {
		return err
	}
	bottom, err := excelize.CoordinatesToCellName(col, lastRow)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, top, bottom, style)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func fillSummarySheet(f *excelize.File, st styles, report []calculator.ReportRow) error {
	headers := []string{"Tanggal", "Shift", "Output (pcs)", "STT Waste (Kg)", "Total Reject", "Selisih (Kg)", "Waste (%)"}
	if err := writeHeader(f, st, SheetSummary, headers); err != nil {
		return err
	}
	for i, r := range report {
		if err := setRow(f, SheetSummary, i+2, []any{
			r.Date, r.Shift, r.OutputPcs, r.AuditedWasteKg, r.FieldRejectKg, r.DiscrepancyKg, r.WasteRatePct,
		}); err != nil {
			return err
		}
	}
	last := len(report) + 1
	for col, style := range map[int]int{3: st.integer, 4: st.decimal, 5: st.decimal, 6: st.decimal, 7: st.percent} {
		if err := styleColumn(f, SheetSummary, col, last, style); err != nil {
			return err
		}
	}
	return nil
}

func fillDetailSheet(f *excelize.File, st styles, detail []model.Observation) error {
	headers := []string{"Tanggal", "Shift", "Mesin", "Varian", "Jenis Reject"}
	for h := 1; h <= model.HourCount; h++ {
		headers = append(headers, fmt.Sprintf("Jam %d", h))
	}
	headers = append(headers, "Koreksi", "Total Reject")
	if err := writeHeader(f, st, SheetDetail, headers); err != nil {
		return err
	}

	for i, o := range detail {
		values := []any{o.DateString(), o.Shift, o.Machine, o.Variant, o.DefectType}
		for _, v := range o.Hours {
			values = append(values, v)
		}
		values = append(values, o.Correction, o.TotalReject)
		if err := setRow(f, SheetDetail, i+2, values); err != nil {
			return err
		}
	}
	last := len(detail) + 1
	for col := 6; col <= len(headers); col++ {
		if err := styleColumn(f, SheetDetail, col, last, st.decimal); err != nil {
			return err
		}
	}
	return nil
}

func fillParetoSheet(f *excelize.File, st styles, items []calculator.ParetoItem) error {
	headers := []string{"Jenis Reject", "Reject (Kg)", "Kontribusi (%)", "Kumulatif (%)", "Vital Few"}
	if err := writeHeader(f, st, SheetPareto, headers); err != nil {
		return err
	}
	for i, it := range items {
		vital := ""
		if it.VitalFew {
			vital = "Ya"
		}
		if err := setRow(f, SheetPareto, i+2, []any{
			it.Category, it.RejectKg, it.SharePct, it.CumulativePct, vital,
		}); err != nil {
			return err
		}
	}
	last := len(items) + 1
	if err := styleColumn(f, SheetPareto, 2, last, st.decimal); err != nil {
		return err
	}
	for _, col := range []int{3, 4} {
		if err := styleColumn(f, SheetPareto, col, last, st.percent); err != nil {
			return err
		}
	}
	return nil
}

func fillKPISheet(f *excelize.File, st styles, dash calculator.Dashboard, shifts calculator.ShiftComparison) error {
	if err := writeHeader(f, st, SheetKPI, []string{"Indikator", "Nilai", "Tampilan"}); err != nil {
		return err
	}
	s := dash.Summary
	rows := []struct {
		name    string
		value   float64
		display string
	}{
		{"Total Output (pcs)", s.OutputPcs, humanize.Comma(int64(math.Round(s.OutputPcs))) + " pcs"},
		{"Berat Output (Kg)", s.OutputWeightKg, kg(s.OutputWeightKg)},
		{"STT Waste (Kg)", s.AuditedWasteKg, kg(s.AuditedWasteKg)},
		{"Total Reject Lapangan (Kg)", s.FieldRejectKg, kg(s.FieldRejectKg)},
		{"Selisih (Kg)", s.DiscrepancyKg, kg(s.DiscrepancyKg)},
		{"Total Produksi (Kg)", s.TotalProductionKg, kg(s.TotalProductionKg)},
		{"Waste Rate (%)", s.WasteRatePct, pct(s.WasteRatePct)},
		{"Pencapaian Target (%)", s.AchievementPct, pct(s.AchievementPct) + " " + s.StatusLabel},
		{"Rata-rata Waste per Shift (%)", shifts.MeanWastePct, pct(shifts.MeanWastePct)},
	}
	for i, r := range rows {
		if err := setRow(f, SheetKPI, i+2, []any{r.name, r.value, r.display}); err != nil {
			return err
		}
	}
	if err := styleColumn(f, SheetKPI, 2, len(rows)+1, st.decimal); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetKPI, "A", "A", 30); err != nil {
		return err
	}
	return f.SetColWidth(SheetKPI, "C", "C", 24)
}

func kg(v float64) string {
	return humanize.CommafWithDigits(v, 2) + " kg"
}

func pct(v float64) string {
	return humanize.FtoaWithDigits(v, 2) + "%"
}
