package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var spaceRe = regexp.MustCompile(`\s+`)

// NormalizeColumnName 规范化列名，去除空格和特殊字符
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ReplaceAll(name, "\n", "")
	name = strings.ReplaceAll(name, "\r", "")
	name = strings.ReplaceAll(name, "\t", "")
	name = spaceRe.ReplaceAllString(name, "")
	return strings.ToLower(name)
}

// CleanText 文本字段去首尾空白；pandas 风格的缺失值标记视为空
func CleanText(v string) string {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "nan", "none", "null", "<na>", "nat":
		return ""
	}
	return v
}

// ParseNumber 解析数值单元格
// ok=false 表示单元格非空但无法解析（调用方按 0 处理并记录）
func ParseNumber(v string) (value float64, ok bool) {
	v = CleanText(v)
	if v == "" {
		return 0, true
	}
	v = strings.ReplaceAll(v, " ", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		// 千分位写法 "1,234.5"
		if strings.Count(v, ",") > 0 && strings.Count(v, ".") <= 1 {
			if f2, err2 := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64); err2 == nil {
				f, err = f2, nil
			}
		}
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatNumber 数值写回文本，保持最短表示
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
