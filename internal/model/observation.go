package model

import (
	"fmt"
	"time"
)

// SentinelDefectType 保留的缺陷类型值：该行携带的是产量/审计废料汇总，而不是缺陷明细
const SentinelDefectType = "STT_DUMMY_OUTPUT"

// HourCount 每班的生产小时数
const HourCount = 8

// DateLayout 存储层使用的日期格式
const DateLayout = "2006-01-02"

// 物理表列名（顺序即存储顺序，与既有数据保持兼容）
const (
	ColDate           = "Date"
	ColShift          = "Shift"
	ColMachine        = "Machine"
	ColVariant        = "Variant"
	ColDefectType     = "DefectType"
	ColCorrection     = "Correction"
	ColTotalReject    = "TotalReject"
	ColAuditedWasteKg = "AuditedWasteKg"
	ColOutputPcs      = "OutputPcs"
)

// HourColumn 返回第 i 小时（1..8）的列名
func HourColumn(i int) string {
	return fmt.Sprintf("Hour%d", i)
}

// Columns 物理列顺序
var Columns = func() []string {
	cols := []string{ColDate, ColShift, ColMachine, ColVariant, ColDefectType}
	for i := 1; i <= HourCount; i++ {
		cols = append(cols, HourColumn(i))
	}
	return append(cols, ColCorrection, ColTotalReject, ColAuditedWasteKg, ColOutputPcs)
}()

// Observation 扁平表中的一行
type Observation struct {
	Date           time.Time          `json:"date"`
	Shift          string             `json:"shift"`
	Machine        string             `json:"machine"`
	Variant        string             `json:"variant"`
	DefectType     string             `json:"defectType"`
	Hours          [HourCount]float64 `json:"hours"`
	Correction     float64            `json:"correction"`
	TotalReject    float64            `json:"totalReject"`
	AuditedWasteKg float64            `json:"auditedWasteKg"`
	OutputPcs      float64            `json:"outputPcs"`
}

// IsSentinel 是否为产量/废料汇总行
func (o Observation) IsSentinel() bool {
	return o.DefectType == SentinelDefectType
}

// IsCorrupt 哨兵约定塌缩：缺陷类型、机台、品种三者都等于哨兵值，不携带品种信息
func (o Observation) IsCorrupt() bool {
	return o.DefectType == SentinelDefectType &&
		o.Machine == SentinelDefectType &&
		o.Variant == SentinelDefectType
}

// DateString 存储格式的日期
func (o Observation) DateString() string {
	return o.Date.Format(DateLayout)
}

// DetailKey 缺陷明细行的自然键
type DetailKey struct {
	Date       string
	Shift      string
	Machine    string
	Variant    string
	DefectType string
}

// OutputKey 汇总行的自然键（机台由品种派生，不参与）
type OutputKey struct {
	Date    string
	Shift   string
	Variant string
}

// DetailKey 返回该行的五元键
func (o Observation) DetailKey() DetailKey {
	return DetailKey{
		Date:       o.DateString(),
		Shift:      o.Shift,
		Machine:    o.Machine,
		Variant:    o.Variant,
		DefectType: o.DefectType,
	}
}

// OutputKey 返回该行的三元键
func (o Observation) OutputKey() OutputKey {
	return o.DetailKey().OutputKey()
}

// Slot 去掉缺陷类型，即一张缺陷表单覆盖的范围
func (k DetailKey) Slot() DetailKey {
	k.DefectType = ""
	return k
}

// OutputKey 五元键对应的汇总行键
func (k DetailKey) OutputKey() OutputKey {
	return OutputKey{
		Date:    k.Date,
		Shift:   k.Shift,
		Variant: k.Variant,
	}
}

// ParseDate 解析日期，兼容带时间部分的写法
// 斜杠日期按月在前解析，首段大于 12 时才按日在前
func ParseDate(s string) (time.Time, error) {
	layouts := []string{
		DateLayout,
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006/01/02",
		"1/2/2006",
		"2/1/2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date: %q", s)
}

// Day 截断到 UTC 日期
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RawRow 存储层读出的原始行：列名 -> 单元格文本，类型化交给 parser
type RawRow map[string]string
