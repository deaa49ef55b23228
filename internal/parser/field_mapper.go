package parser

import "linewaste/internal/model"

// 列名别名：标准列名以及早期版本使用的印尼语表头
var columnAliases = map[string]string{
	"date":           model.ColDate,
	"tanggal":        model.ColDate,
	"shift":          model.ColShift,
	"machine":        model.ColMachine,
	"mesin":          model.ColMachine,
	"variant":        model.ColVariant,
	"varian":         model.ColVariant,
	"defecttype":     model.ColDefectType,
	"jenisreject":    model.ColDefectType,
	"correction":     model.ColCorrection,
	"koreksi":        model.ColCorrection,
	"totalreject":    model.ColTotalReject,
	"auditedwastekg": model.ColAuditedWasteKg,
	"sttwaste(kg)":   model.ColAuditedWasteKg,
	"outputpcs":      model.ColOutputPcs,
	"output(pcs)":    model.ColOutputPcs,
}

func init() {
	for i := 1; i <= model.HourCount; i++ {
		canonical := model.HourColumn(i)
		columnAliases[NormalizeColumnName(canonical)] = canonical
		columnAliases[NormalizeColumnName("Jam "+string(rune('0'+i)))] = canonical
	}
}

// CanonicalColumn 把表头映射到标准列名
func CanonicalColumn(name string) (string, bool) {
	col, ok := columnAliases[NormalizeColumnName(name)]
	return col, ok
}

// MapHeader 映射表头：列索引 -> 标准列名；无法识别的列忽略
func MapHeader(header []string) map[int]string {
	mappings := make(map[int]string, len(header))
	seen := make(map[string]bool, len(header))
	for idx, name := range header {
		col, ok := CanonicalColumn(name)
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		mappings[idx] = col
	}
	return mappings
}

// CanonicalizeRow 把任意表头的原始行转为标准列名
func CanonicalizeRow(row model.RawRow) model.RawRow {
	out := make(model.RawRow, len(row))
	for k, v := range row {
		if col, ok := CanonicalColumn(k); ok {
			if _, exists := out[col]; !exists || out[col] == "" {
				out[col] = v
			}
		}
	}
	return out
}
