package calculator

import (
	"math"
	"sort"

	"linewaste/internal/model"
)

// Engine 对账与汇总引擎；无内部状态，同一输入总是得到同一结果
type Engine struct {
	params Params
}

// NewEngine 创建计算引擎
func NewEngine(params Params) *Engine {
	return &Engine{params: params}
}

// Params 当前使用的业务参数
func (e *Engine) Params() Params {
	return e.params
}

// Totals 汇总四项基础数值
func (e *Engine) Totals(rows []model.Observation) Totals {
	var t Totals
	for _, o := range rows {
		if o.IsSentinel() {
			t.OutputPcs += o.OutputPcs
			t.AuditedWasteKg += o.AuditedWasteKg
		} else {
			t.FieldRejectKg += o.TotalReject
		}
	}
	t.DiscrepancyKg = Discrepancy(t.AuditedWasteKg, t.FieldRejectKg)
	t.NeedsReview = math.Abs(t.DiscrepancyKg) > e.params.ReconcileToleranceKg
	return t
}

// Summarize 计算范围内的 KPI；空输入得到全零结果
func (e *Engine) Summarize(rows []model.Observation) Summary {
	s := Summary{Totals: e.Totals(rows)}
	for _, o := range rows {
		if o.IsSentinel() {
			s.OutputRows++
		} else {
			s.DetailRows++
		}
	}
	s.Empty = len(rows) == 0

	s.OutputWeightKg = s.OutputPcs * e.params.UnitWeightKg
	s.TotalProductionKg = s.OutputWeightKg + s.AuditedWasteKg
	s.WasteRatePct = WasteRate(s.AuditedWasteKg, s.TotalProductionKg)
	if e.params.ShiftTargetPcs > 0 {
		s.AchievementPct = s.OutputPcs / e.params.ShiftTargetPcs * 100
	}
	s.Status, s.StatusInGap = ClassifyAchievement(s.AchievementPct)
	s.StatusLabel = s.Status.Label()
	s.WasteBand = ClassifyWasteRate(s.WasteRatePct, e.params)
	return s
}

// Gauge 废料率仪表数据
func (e *Engine) Gauge(s Summary) WasteGauge {
	return WasteGauge{
		Value:     s.WasteRatePct,
		Band:      s.WasteBand,
		GoodMax:   e.params.WasteGoodPct,
		Threshold: e.params.WasteAlertPct,
	}
}

// Dashboard 计算仪表盘全部视图
func (e *Engine) Dashboard(rows []model.Observation, scope Scope) Dashboard {
	scoped := Filter(rows, scope)
	summary := e.Summarize(scoped)
	_, detail := Partition(scoped)

	d := Dashboard{
		Shift:            scope.Shift,
		Summary:          summary,
		Gauge:            e.Gauge(summary),
		OutputByVariant:  e.OutputByVariant(scoped),
		RejectByVariant:  e.RejectByVariant(scoped),
		ByVariant:        e.ByVariant(scoped),
		ByMachineVariant: e.ByMachineVariant(detail),
		ByDefectType:     e.ByDefectType(detail),
		Pareto:           Pareto(e.ByDefectType(detail)),
		Weight: WeightProportion{
			FinishedKg: summary.OutputWeightKg,
			WasteKg:    summary.AuditedWasteKg,
		},
	}
	if !scope.From.IsZero() {
		from := model.Day(scope.From)
		d.From = &from
	}
	if !scope.To.IsZero() {
		to := model.Day(scope.To)
		d.To = &to
	}
	return d
}

// Discrepancy 审计废料与现场废品之差
func Discrepancy(auditedKg, fieldKg float64) float64 {
	return auditedKg - fieldKg
}

// WasteRate 废料占总投入的百分比；分母为 0 时按 0 处理
func WasteRate(wasteKg, totalKg float64) float64 {
	if totalKg <= 0 {
		return 0
	}
	return wasteKg / totalKg * 100
}

// Pareto 按现场废品降序并计算累计占比；总量为 0 时没有排序意义，返回空
func Pareto(groups []GroupTotals) []ParetoItem {
	items := make([]ParetoItem, 0, len(groups))
	var total float64
	for _, g := range groups {
		items = append(items, ParetoItem{Category: g.Key, RejectKg: g.FieldRejectKg})
		total += g.FieldRejectKg
	}
	if total == 0 {
		return []ParetoItem{}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].RejectKg != items[j].RejectKg {
			return items[i].RejectKg > items[j].RejectKg
		}
		return items[i].Category < items[j].Category
	})

	var running float64
	prev := 0.0
	for i := range items {
		running += items[i].RejectKg
		items[i].SharePct = items[i].RejectKg / total * 100
		items[i].CumulativePct = running / total * 100
		// 前一项累计还没到 80% 的，都算关键少数
		items[i].VitalFew = prev < 80
		prev = items[i].CumulativePct
	}
	return items
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
