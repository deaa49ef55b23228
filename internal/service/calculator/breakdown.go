package calculator

import (
	"math"
	"sort"

	"linewaste/internal/model"
)

// groupBy 按 key 分组，组内用与整体相同的四项汇总；保持首次出现顺序
func (e *Engine) groupBy(rows []model.Observation, key func(o model.Observation) GroupTotals) []GroupTotals {
	index := make(map[string]int)
	var groups []GroupTotals
	for _, o := range rows {
		g := key(o)
		i, ok := index[g.Key]
		if !ok {
			i = len(groups)
			index[g.Key] = i
			groups = append(groups, g)
		}
		if o.IsSentinel() {
			groups[i].OutputPcs += o.OutputPcs
			groups[i].AuditedWasteKg += o.AuditedWasteKg
		} else {
			groups[i].FieldRejectKg += o.TotalReject
		}
	}
	for i := range groups {
		groups[i].DiscrepancyKg = Discrepancy(groups[i].AuditedWasteKg, groups[i].FieldRejectKg)
		groups[i].NeedsReview = math.Abs(groups[i].DiscrepancyKg) > e.params.ReconcileToleranceKg
	}
	if groups == nil {
		groups = []GroupTotals{}
	}
	return groups
}

// ByDefectType 按缺陷类型分组（仅缺陷明细行）
func (e *Engine) ByDefectType(rows []model.Observation) []GroupTotals {
	_, detail := Partition(rows)
	groups := e.groupBy(detail, func(o model.Observation) GroupTotals {
		return GroupTotals{Key: o.DefectType, DefectType: o.DefectType}
	})
	sortByReject(groups)
	return groups
}

// ByMachineVariant 按机台×品种分组（仅缺陷明细行），现场废品降序
func (e *Engine) ByMachineVariant(rows []model.Observation) []GroupTotals {
	_, detail := Partition(rows)
	groups := e.groupBy(detail, func(o model.Observation) GroupTotals {
		return GroupTotals{
			Key:     o.Machine + " / " + o.Variant,
			Machine: o.Machine,
			Variant: o.Variant,
		}
	})
	sortByReject(groups)
	return groups
}

// ByVariant 按品种对账：同一品种的产量、审计废料、现场废品
func (e *Engine) ByVariant(rows []model.Observation) []GroupTotals {
	groups := e.groupBy(rows, func(o model.Observation) GroupTotals {
		return GroupTotals{Key: o.Variant, Variant: o.Variant}
	})
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// OutputByVariant 各品种产量（仅汇总行）
func (e *Engine) OutputByVariant(rows []model.Observation) []GroupTotals {
	output, _ := Partition(rows)
	groups := e.groupBy(output, func(o model.Observation) GroupTotals {
		return GroupTotals{Key: o.Variant, Variant: o.Variant}
	})
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// RejectByVariant 各品种现场废品，升序（条形图自下而上）
func (e *Engine) RejectByVariant(rows []model.Observation) []GroupTotals {
	_, detail := Partition(rows)
	groups := e.groupBy(detail, func(o model.Observation) GroupTotals {
		return GroupTotals{Key: o.Variant, Variant: o.Variant}
	})
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].FieldRejectKg < groups[j].FieldRejectKg
	})
	return groups
}

// ByDateShift 按日期×班次分组
func (e *Engine) ByDateShift(rows []model.Observation) []GroupTotals {
	return e.groupBy(rows, func(o model.Observation) GroupTotals {
		d := o.DateString()
		return GroupTotals{Key: d + "|" + o.Shift, Date: d, Shift: o.Shift}
	})
}

func sortByReject(groups []GroupTotals) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].FieldRejectKg != groups[j].FieldRejectKg {
			return groups[i].FieldRejectKg > groups[j].FieldRejectKg
		}
		return groups[i].Key < groups[j].Key
	})
}
