package entry

import (
	"slices"

	"linewaste/internal/model"
	"linewaste/internal/parser"
)

// 原始行的比较都基于去空白后的文本，日期按解析结果比较
// 这样旧文件中格式不规范的行也能被正确覆盖

func cell(row model.RawRow, col string) string {
	return parser.CleanText(row[col])
}

// detailKey 原始行的五元键；日期无法解析时退回原文，不会与任何表单日期相等
func detailKey(row model.RawRow) model.DetailKey {
	date := cell(row, model.ColDate)
	if d, err := model.ParseDate(date); err == nil {
		date = d.Format(model.DateLayout)
	}
	return model.DetailKey{
		Date:       date,
		Shift:      cell(row, model.ColShift),
		Machine:    cell(row, model.ColMachine),
		Variant:    cell(row, model.ColVariant),
		DefectType: cell(row, model.ColDefectType),
	}
}

// DedupeDetailKey 按五元组去重，保留最后出现的行，其余行顺序不变
func DedupeDetailKey(rows []model.RawRow) []model.RawRow {
	seen := make(map[model.DetailKey]bool, len(rows))
	out := make([]model.RawRow, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		k := detailKey(rows[i])
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, rows[i])
	}
	slices.Reverse(out)
	return out
}

// ApplyDefects 用表单覆盖 (日期, 班次, 机台, 品种) 下全部目录内缺陷类型的旧明细
// 只追加总量>0 或修正不为 0 的条目；既没删除也没追加时不产生变化
func ApplyDefects(raw []model.RawRow, form DefectForm, defectTypes []string) ([]model.RawRow, Result) {
	slot := form.Slot()

	var res Result
	next := make([]model.RawRow, 0, len(raw)+len(form.Defects))
	for _, row := range raw {
		k := detailKey(row)
		if k.Slot() == slot && slices.Contains(defectTypes, k.DefectType) {
			res.Deleted++
			continue
		}
		next = append(next, row)
	}

	for _, d := range form.Details() {
		if d.IsEmpty() {
			continue
		}
		next = append(next, parser.ToRaw(d.Observation()))
		res.Added++
	}

	if res.Deleted == 0 && res.Added == 0 {
		return raw, res
	}
	res.Changed = true
	return DedupeDetailKey(next), res
}

// ApplyOutput 替换 (日期, 班次, 品种) 的哨兵行；两个值都为 0 表示删除
func ApplyOutput(raw []model.RawRow, form OutputForm) ([]model.RawRow, Result) {
	agg := form.Aggregate()
	target := agg.Key()

	var res Result
	next := make([]model.RawRow, 0, len(raw)+1)
	for _, row := range raw {
		k := detailKey(row)
		if k.DefectType == model.SentinelDefectType &&
			k.Machine == k.Variant &&
			k.OutputKey() == target {
			res.Deleted++
			continue
		}
		next = append(next, row)
	}

	if !agg.IsEmpty() {
		next = append(next, parser.ToRaw(agg.Observation()))
		res.Added++
	}

	if res.Deleted == 0 && res.Added == 0 {
		return raw, res
	}
	res.Changed = true
	return DedupeDetailKey(next), res
}

// PurgeCorrupt 移除塌缩的哨兵行（缺陷类型、品种、机台都是哨兵值）
func PurgeCorrupt(raw []model.RawRow) ([]model.RawRow, int) {
	next := make([]model.RawRow, 0, len(raw))
	removed := 0
	for _, row := range raw {
		if cell(row, model.ColDefectType) == model.SentinelDefectType &&
			cell(row, model.ColVariant) == model.SentinelDefectType &&
			cell(row, model.ColMachine) == model.SentinelDefectType {
			removed++
			continue
		}
		next = append(next, row)
	}
	if removed == 0 {
		return raw, 0
	}
	return next, removed
}
