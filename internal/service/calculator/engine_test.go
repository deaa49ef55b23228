package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"linewaste/internal/model"
)

var testDay = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func outputRow(day time.Time, shift, variant string, wasteKg, pcs float64) model.Observation {
	return model.OutputAggregate{
		Date:           day,
		Shift:          shift,
		Variant:        variant,
		AuditedWasteKg: wasteKg,
		OutputPcs:      pcs,
	}.Observation()
}

func detailRow(day time.Time, shift, machine, variant, defect string, totalKg float64) model.Observation {
	d := model.DefectDetail{
		Date:       day,
		Shift:      shift,
		Machine:    machine,
		Variant:    variant,
		DefectType: defect,
	}
	d.Hours[0] = totalKg
	return d.Observation()
}

// floatEquals 浮点数近似相等判断
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestSummarize_ScenarioA 产量 1000 件、审计废料 50kg、现场废品 45kg
func TestSummarize_ScenarioA(t *testing.T) {
	e := NewEngine(DefaultParams())
	rows := []model.Observation{
		outputRow(testDay, "Shift 1", "Wow Pasta Carbonara", 50, 1000),
		detailRow(testDay, "Shift 1", "Mesin A1", "Wow Pasta Carbonara", "Kodefikasi", 45),
	}

	s := e.Summarize(rows)

	checks := []struct {
		name      string
		got, want float64
	}{
		{"OutputPcs", s.OutputPcs, 1000},
		{"AuditedWasteKg", s.AuditedWasteKg, 50},
		{"FieldRejectKg", s.FieldRejectKg, 45},
		{"DiscrepancyKg", s.DiscrepancyKg, 5},
		{"OutputWeightKg", s.OutputWeightKg, 75},
		{"TotalProductionKg", s.TotalProductionKg, 125},
		{"WasteRatePct", s.WasteRatePct, 40},
	}
	for _, c := range checks {
		if !floatEquals(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if !s.NeedsReview {
		t.Errorf("discrepancy of 5kg should need review")
	}
	if s.OutputRows != 1 || s.DetailRows != 1 || s.Empty {
		t.Errorf("unexpected row counts: %+v", s)
	}
	if s.WasteBand != WasteAlert {
		t.Errorf("WasteBand = %v, want %v", s.WasteBand, WasteAlert)
	}
}

// TestSummarize_Empty 空输入得到全零结果
func TestSummarize_Empty(t *testing.T) {
	e := NewEngine(DefaultParams())

	for _, rows := range [][]model.Observation{nil, {}} {
		s := e.Summarize(rows)
		if !s.Empty {
			t.Errorf("empty input should be flagged Empty")
		}
		if s.OutputPcs != 0 || s.AuditedWasteKg != 0 || s.FieldRejectKg != 0 || s.DiscrepancyKg != 0 {
			t.Errorf("expected zero totals, got %+v", s.Totals)
		}
		if s.WasteRatePct != 0 || math.IsNaN(s.WasteRatePct) {
			t.Errorf("WasteRatePct = %v, want 0", s.WasteRatePct)
		}
		if s.NeedsReview {
			t.Errorf("empty scope should not need review")
		}
		if s.Status != StatusLowOutput {
			t.Errorf("Status = %v, want %v", s.Status, StatusLowOutput)
		}
	}
}

// TestSummarize_ZeroProductionWasteRate 无产量无废料时废料率为 0
func TestSummarize_ZeroProductionWasteRate(t *testing.T) {
	e := NewEngine(DefaultParams())
	rows := []model.Observation{
		detailRow(testDay, "Shift 2", "Mesin A2", "Wow Pasta Bolognese", "Ganti Cello", 3),
	}
	s := e.Summarize(rows)
	if s.WasteRatePct != 0 || math.IsNaN(s.WasteRatePct) {
		t.Fatalf("WasteRatePct = %v, want 0", s.WasteRatePct)
	}
	if !floatEquals(s.DiscrepancyKg, -3) {
		t.Fatalf("DiscrepancyKg = %v, want -3", s.DiscrepancyKg)
	}
}

// TestSummarize_Idempotent 同一输入两次计算结果一致
func TestSummarize_Idempotent(t *testing.T) {
	e := NewEngine(DefaultParams())
	rows := []model.Observation{
		outputRow(testDay, "Shift 1", "Wow Pasta Carbonara", 12.5, 3100),
		outputRow(testDay, "Shift 1", "Wow Pasta Bolognese", 7.25, 2900),
		detailRow(testDay, "Shift 1", "Mesin A1", "Wow Pasta Carbonara", "Kodefikasi", 4),
		detailRow(testDay, "Shift 1", "Mesin A2", "Wow Pasta Bolognese", "Kemasan Jebol", 6),
	}
	scope := Scope{From: testDay, To: testDay}

	first := e.Dashboard(rows, scope)
	second := e.Dashboard(rows, scope)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("dashboard not idempotent (-first +second):\n%s", diff)
	}
}

// TestDiscrepancy_Symmetry 差异对调参数取反，相等时为 0
func TestDiscrepancy_Symmetry(t *testing.T) {
	pairs := [][2]float64{{50, 45}, {0, 3.2}, {7.5, 7.5}, {-1, 2}}
	for _, p := range pairs {
		if Discrepancy(p[0], p[1]) != -Discrepancy(p[1], p[0]) {
			t.Errorf("Discrepancy not antisymmetric for %v", p)
		}
	}
	if Discrepancy(12.34, 12.34) != 0 {
		t.Errorf("equal measurements should reconcile to 0")
	}
}

// TestTotals_Tolerance 容忍度以内不需要复核
func TestTotals_Tolerance(t *testing.T) {
	e := NewEngine(DefaultParams())
	rows := []model.Observation{
		outputRow(testDay, "Shift 1", "Wow Pasta Carbonara", 10.05, 100),
		detailRow(testDay, "Shift 1", "Mesin A1", "Wow Pasta Carbonara", "Kodefikasi", 10),
	}
	if got := e.Totals(rows); got.NeedsReview {
		t.Fatalf("0.05kg discrepancy should be within tolerance: %+v", got)
	}
}

// TestClassifyAchievement 达成率分档，含端点
func TestClassifyAchievement(t *testing.T) {
	tests := []struct {
		pct   float64
		want  Status
		inGap bool
	}{
		{120, StatusExcellent, false},
		{92.5, StatusExcellent, false},
		{92.4, StatusLowOutput, true},
		{92.0, StatusLowOutput, true},
		{91.9, StatusStandard, false},
		{87.5, StatusStandard, false},
		{87.2, StatusLowOutput, true},
		{86.9, StatusWarning, false},
		{10, StatusWarning, false},
		{9.99, StatusLowOutput, false},
		{0, StatusLowOutput, false},
	}
	for _, tt := range tests {
		got, inGap := ClassifyAchievement(tt.pct)
		if got != tt.want || inGap != tt.inGap {
			t.Errorf("ClassifyAchievement(%v) = (%v, %v), want (%v, %v)", tt.pct, got, inGap, tt.want, tt.inGap)
		}
	}
}

// TestSummarize_ScenarioB 达成率恰好 92.5% 判为 Excellent
func TestSummarize_ScenarioB(t *testing.T) {
	params := DefaultParams()
	params.ShiftTargetPcs = 1000
	e := NewEngine(params)

	s := e.Summarize([]model.Observation{
		outputRow(testDay, "Shift 1", "Wow Pasta Carbonara", 1, 925),
	})
	if !floatEquals(s.AchievementPct, 92.5) {
		t.Fatalf("AchievementPct = %v, want 92.5", s.AchievementPct)
	}
	if s.Status != StatusExcellent || s.StatusLabel != "Excellent" {
		t.Fatalf("Status = %v (%s), want excellent", s.Status, s.StatusLabel)
	}
}

// TestClassifyWasteRate 废料率分段
func TestClassifyWasteRate(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		pct  float64
		want WasteBand
	}{
		{0, WasteGood},
		{2.0, WasteGood},
		{2.01, WasteNeutral},
		{3.5, WasteNeutral},
		{3.51, WasteAlert},
	}
	for _, tt := range tests {
		if got := ClassifyWasteRate(tt.pct, p); got != tt.want {
			t.Errorf("ClassifyWasteRate(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}

// TestPareto_ScenarioE 三类废品 10/30/60，累计占比 60/90/100
func TestPareto_ScenarioE(t *testing.T) {
	e := NewEngine(DefaultParams())
	rows := []model.Observation{
		detailRow(testDay, "Shift 1", "Mesin A1", "Wow Pasta Carbonara", "Kodefikasi", 10),
		detailRow(testDay, "Shift 1", "Mesin A1", "Wow Pasta Carbonara", "Ganti Cello", 30),
		detailRow(testDay, "Shift 1", "Mesin A2", "Wow Pasta Carbonara", "Kemasan Jebol", 60),
	}

	items := Pareto(e.ByDefectType(rows))
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	wantOrder := []string{"Kemasan Jebol", "Ganti Cello", "Kodefikasi"}
	wantCum := []float64{60, 90, 100}
	wantVital := []bool{true, true, false}
	for i := range items {
		if items[i].Category != wantOrder[i] {
			t.Errorf("item %d category = %s, want %s", i, items[i].Category, wantOrder[i])
		}
		if !floatEquals(items[i].CumulativePct, wantCum[i]) {
			t.Errorf("item %d cumulative = %v, want %v", i, items[i].CumulativePct, wantCum[i])
		}
		if items[i].VitalFew != wantVital[i] {
			t.Errorf("item %d vitalFew = %v, want %v", i, items[i].VitalFew, wantVital[i])
		}
	}
}

// TestPareto_ZeroTotal 总量为 0 时不排序
func TestPareto_ZeroTotal(t *testing.T) {
	if got := Pareto([]GroupTotals{{Key: "a"}, {Key: "b"}}); len(got) != 0 {
		t.Fatalf("expected empty pareto, got %v", got)
	}
	if got := Pareto(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected non-nil empty pareto, got %v", got)
	}
}

// TestDashboard_ScopeFilter 日期与班次筛选
func TestDashboard_ScopeFilter(t *testing.T) {
	e := NewEngine(DefaultParams())
	nextDay := testDay.AddDate(0, 0, 1)
	rows := []model.Observation{
		outputRow(testDay, "Shift 1", "Wow Pasta Carbonara", 5, 1000),
		outputRow(testDay, "Shift 2", "Wow Pasta Carbonara", 6, 2000),
		outputRow(nextDay, "Shift 1", "Wow Pasta Carbonara", 7, 4000),
		detailRow(testDay, "", "Mesin A1", "Wow Pasta Carbonara", "Kodefikasi", 2),
	}

	d := e.Dashboard(rows, Scope{From: testDay, To: testDay, Shift: "Shift 1"})
	if d.Summary.OutputPcs != 1000 {
		t.Fatalf("OutputPcs = %v, want 1000", d.Summary.OutputPcs)
	}

	d = e.Dashboard(rows, Scope{Shift: ShiftAll})
	if d.Summary.OutputPcs != 7000 || d.Summary.FieldRejectKg != 2 {
		t.Fatalf("unexpected totals for all shifts: %+v", d.Summary.Totals)
	}

	d = e.Dashboard(rows, Scope{Shift: "Shift Tidak Tercatat"})
	if d.Summary.OutputPcs != 0 || d.Summary.FieldRejectKg != 2 {
		t.Fatalf("unrecorded shift should match empty shift rows: %+v", d.Summary.Totals)
	}

	d = e.Dashboard(rows, Scope{From: nextDay})
	if d.Summary.OutputPcs != 4000 || d.From == nil || d.To != nil {
		t.Fatalf("unexpected open-ended scope result: %+v", d)
	}
}

// TestDashboard_Breakdowns 各维度分组
func TestDashboard_Breakdowns(t *testing.T) {
	e := NewEngine(DefaultParams())
	rows := []model.Observation{
		outputRow(testDay, "Shift 1", "Wow Pasta Carbonara", 5, 1000),
		outputRow(testDay, "Shift 1", "Wow Pasta Bolognese", 3, 500),
		detailRow(testDay, "Shift 1", "Mesin A1", "Wow Pasta Carbonara", "Kodefikasi", 2),
		detailRow(testDay, "Shift 1", "Mesin A1", "Wow Pasta Carbonara", "Ganti Cello", 1),
		detailRow(testDay, "Shift 1", "Mesin A2", "Wow Pasta Bolognese", "Kodefikasi", 4),
	}

	d := e.Dashboard(rows, Scope{})

	want := []GroupTotals{
		{Key: "Wow Pasta Bolognese", Variant: "Wow Pasta Bolognese", Totals: Totals{
			OutputPcs: 500, AuditedWasteKg: 3, FieldRejectKg: 4, DiscrepancyKg: -1, NeedsReview: true,
		}},
		{Key: "Wow Pasta Carbonara", Variant: "Wow Pasta Carbonara", Totals: Totals{
			OutputPcs: 1000, AuditedWasteKg: 5, FieldRejectKg: 3, DiscrepancyKg: 2, NeedsReview: true,
		}},
	}
	if diff := cmp.Diff(want, d.ByVariant); diff != "" {
		t.Fatalf("ByVariant mismatch (-want +got):\n%s", diff)
	}

	if len(d.ByMachineVariant) != 2 || d.ByMachineVariant[0].Machine != "Mesin A2" {
		t.Fatalf("ByMachineVariant should be sorted by reject desc: %+v", d.ByMachineVariant)
	}
	if len(d.ByDefectType) != 2 || d.ByDefectType[0].DefectType != "Kodefikasi" || d.ByDefectType[0].FieldRejectKg != 6 {
		t.Fatalf("unexpected ByDefectType: %+v", d.ByDefectType)
	}
	for _, g := range d.ByDefectType {
		if g.DefectType == model.SentinelDefectType {
			t.Fatalf("sentinel rows must not appear as a defect category")
		}
	}
	if len(d.RejectByVariant) != 2 || d.RejectByVariant[0].Variant != "Wow Pasta Carbonara" {
		t.Fatalf("RejectByVariant should be ascending: %+v", d.RejectByVariant)
	}
	if len(d.OutputByVariant) != 2 || d.OutputByVariant[1].OutputPcs != 1000 {
		t.Fatalf("unexpected OutputByVariant: %+v", d.OutputByVariant)
	}
	if !floatEquals(d.Weight.FinishedKg, 112.5) || d.Weight.WasteKg != 8 {
		t.Fatalf("unexpected weight proportion: %+v", d.Weight)
	}
	if d.Gauge.Threshold != 3.5 || d.Gauge.GoodMax != 2 {
		t.Fatalf("unexpected gauge: %+v", d.Gauge)
	}
}
