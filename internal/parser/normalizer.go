package parser

import (
	"linewaste/internal/model"
)

// Result 规范化结果
type Result struct {
	Rows        []model.Observation `json:"rows"`
	Diagnostics Diagnostics         `json:"diagnostics"`
}

// Normalize 把原始行转为类型化的观测
//   - 缺失的文本列为空串，缺失的数值列为 0
//   - 日期无法解析的行丢弃，不会被默认成当天
//   - 文本字段去首尾空白
//   - 数值无法解析时按 0 处理，并计入诊断
//   - 塌缩的哨兵行整行过滤
func Normalize(raw []model.RawRow) Result {
	res := Result{
		Rows: make([]model.Observation, 0, len(raw)),
	}
	res.Diagnostics.TotalRows = len(raw)

	for i, r := range raw {
		row := CanonicalizeRow(r)

		date, err := model.ParseDate(CleanText(row[model.ColDate]))
		if err != nil {
			res.Diagnostics.DroppedBadDate++
			continue
		}

		obs := model.Observation{
			Date:       date,
			Shift:      CleanText(row[model.ColShift]),
			Machine:    CleanText(row[model.ColMachine]),
			Variant:    CleanText(row[model.ColVariant]),
			DefectType: CleanText(row[model.ColDefectType]),
		}

		num := func(col string) float64 {
			v, ok := ParseNumber(row[col])
			if !ok {
				res.Diagnostics.addIssue(CellIssue{Row: i, Column: col, Value: row[col]})
			}
			return v
		}
		for h := 0; h < model.HourCount; h++ {
			obs.Hours[h] = num(model.HourColumn(h + 1))
		}
		obs.Correction = num(model.ColCorrection)
		obs.TotalReject = num(model.ColTotalReject)
		obs.AuditedWasteKg = num(model.ColAuditedWasteKg)
		obs.OutputPcs = num(model.ColOutputPcs)

		if obs.IsCorrupt() {
			res.Diagnostics.DroppedCorrupt++
			continue
		}
		res.Rows = append(res.Rows, obs)
	}

	res.Diagnostics.KeptRows = len(res.Rows)
	return res
}

// ToRaw 把观测转为标准列名的原始行
func ToRaw(o model.Observation) model.RawRow {
	rec := Record(o)
	row := make(model.RawRow, len(rec))
	for i, col := range model.Columns {
		row[col] = rec[i]
	}
	return row
}

// ToRawRows 批量转换
func ToRawRows(rows []model.Observation) []model.RawRow {
	out := make([]model.RawRow, 0, len(rows))
	for _, o := range rows {
		out = append(out, ToRaw(o))
	}
	return out
}

// Records 原始行按 model.Columns 顺序输出，缺失列写空串
func Records(rows []model.RawRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		rec := make([]string, len(model.Columns))
		for i, col := range model.Columns {
			rec[i] = row[col]
		}
		out = append(out, rec)
	}
	return out
}

// Record 单行按 model.Columns 顺序输出
func Record(o model.Observation) []string {
	rec := make([]string, 0, len(model.Columns))
	rec = append(rec, o.DateString(), o.Shift, o.Machine, o.Variant, o.DefectType)
	for _, h := range o.Hours {
		rec = append(rec, FormatNumber(h))
	}
	return append(rec,
		FormatNumber(o.Correction),
		FormatNumber(o.TotalReject),
		FormatNumber(o.AuditedWasteKg),
		FormatNumber(o.OutputPcs),
	)
}
