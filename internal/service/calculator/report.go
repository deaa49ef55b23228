package calculator

import (
	"sort"
	"time"

	"linewaste/internal/model"
)

// Report 日期×班次报表：两侧任一有数据的范围都会出现，日期倒序
func (e *Engine) Report(rows []model.Observation, scope Scope) []ReportRow {
	groups := e.ByDateShift(Filter(rows, scope))
	out := make([]ReportRow, 0, len(groups))
	for _, g := range groups {
		outputKg := g.OutputPcs * e.params.UnitWeightKg
		out = append(out, ReportRow{
			Date:           g.Date,
			Shift:          g.Shift,
			OutputPcs:      g.OutputPcs,
			AuditedWasteKg: g.AuditedWasteKg,
			FieldRejectKg:  g.FieldRejectKg,
			DiscrepancyKg:  g.DiscrepancyKg,
			WasteRatePct:   round2(WasteRate(g.AuditedWasteKg, outputKg+g.AuditedWasteKg)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Shift < out[j].Shift
	})
	return out
}

// CompareShifts 按班次汇总报表行，找出产量最高的班次，并用平均废料率对照上限
func (e *Engine) CompareShifts(report []ReportRow) ShiftComparison {
	cmp := ShiftComparison{
		Rows:     []ShiftRow{},
		LimitPct: e.params.ReportWasteLimitPct,
	}
	if len(report) == 0 {
		return cmp
	}

	index := make(map[string]int)
	counts := make(map[string]int)
	var wasteSum float64
	for _, r := range report {
		i, ok := index[r.Shift]
		if !ok {
			i = len(cmp.Rows)
			index[r.Shift] = i
			cmp.Rows = append(cmp.Rows, ShiftRow{Shift: r.Shift})
		}
		cmp.Rows[i].OutputPcs += r.OutputPcs
		cmp.Rows[i].WasteRatePct += r.WasteRatePct
		counts[r.Shift]++
		wasteSum += r.WasteRatePct
	}
	for i := range cmp.Rows {
		cmp.Rows[i].WasteRatePct = round2(cmp.Rows[i].WasteRatePct / float64(counts[cmp.Rows[i].Shift]))
	}
	sort.SliceStable(cmp.Rows, func(i, j int) bool { return cmp.Rows[i].Shift < cmp.Rows[j].Shift })

	// 产量最高的单条报表行
	best := report[0]
	for _, r := range report[1:] {
		if r.OutputPcs > best.OutputPcs {
			best = r
		}
	}
	cmp.BestShift = best.Shift
	cmp.BestOutputPcs = best.OutputPcs
	cmp.MeanWastePct = round2(wasteSum / float64(len(report)))
	cmp.ExceedsLimit = cmp.MeanWastePct > cmp.LimitPct
	return cmp
}

// Preview 单日单班预览：总量、品种明细与缺陷明细
func (e *Engine) Preview(rows []model.Observation, date time.Time, shift string) Preview {
	date = model.Day(date)
	p := Preview{
		Date:     date.Format(model.DateLayout),
		Shift:    shift,
		Variants: []VariantPreviewRow{},
		Details:  []DetailLine{},
	}
	var scoped []model.Observation
	for _, o := range rows {
		if o.Date.Equal(date) && o.Shift == shift {
			scoped = append(scoped, o)
		}
	}
	if len(scoped) == 0 {
		p.Empty = true
		return p
	}

	output, detail := Partition(scoped)
	totals := e.Totals(scoped)
	p.FieldRejectKg = totals.FieldRejectKg
	p.AuditedWasteKg = totals.AuditedWasteKg
	p.OutputPcs = totals.OutputPcs
	totalWaste := totals.AuditedWasteKg + totals.FieldRejectKg
	p.TotalWastePct = WasteRate(totalWaste, totals.OutputPcs*e.params.UnitWeightKg+totalWaste)

	rejectByVariant := make(map[string]float64)
	for _, o := range detail {
		rejectByVariant[o.Variant] += o.TotalReject
	}
	for _, o := range output {
		row := VariantPreviewRow{
			Variant:        o.Variant,
			AuditedWasteKg: o.AuditedWasteKg,
			FieldRejectKg:  rejectByVariant[o.Variant],
			OutputPcs:      o.OutputPcs,
			OutputKg:       o.OutputPcs * e.params.UnitWeightKg,
		}
		row.TotalWasteKg = row.AuditedWasteKg + row.FieldRejectKg
		row.TotalInputKg = row.OutputKg + row.TotalWasteKg
		row.WastePct = round2(WasteRate(row.TotalWasteKg, row.TotalInputKg))
		if row.TotalWasteKg > 0 || row.OutputPcs > 0 {
			p.Variants = append(p.Variants, row)
		}
	}
	sort.SliceStable(p.Variants, func(i, j int) bool {
		return p.Variants[i].WastePct > p.Variants[j].WastePct
	})

	for _, o := range detail {
		p.Details = append(p.Details, DetailLine{
			Machine:    o.Machine,
			Variant:    o.Variant,
			DefectType: o.DefectType,
			Hours:      o.Hours,
			Correction: o.Correction,
			TotalKg:    o.TotalReject,
		})
	}
	return p
}
