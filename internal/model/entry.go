package model

import (
	"errors"
	"time"
)

// EntryKind 条目种类
type EntryKind string

const (
	KindDefectDetail    EntryKind = "defect_detail"
	KindOutputAggregate EntryKind = "output_aggregate"
)

// Entry 一行观测的逻辑形态：缺陷明细或品种汇总，只在存储边界与 Observation 互转
type Entry interface {
	Kind() EntryKind
	Observation() Observation
}

// DefectDetail 某机台某品种某缺陷类型的逐小时废品重量
type DefectDetail struct {
	Date       time.Time          `json:"date"`
	Shift      string             `json:"shift"`
	Machine    string             `json:"machine"`
	Variant    string             `json:"variant"`
	DefectType string             `json:"defectType"`
	Hours      [HourCount]float64 `json:"hours"`
	Correction float64            `json:"correction"`
}

// Kind 实现 Entry
func (d DefectDetail) Kind() EntryKind { return KindDefectDetail }

// Total 逐小时之和加修正
func (d DefectDetail) Total() float64 {
	var sum float64
	for _, v := range d.Hours {
		sum += v
	}
	return sum + d.Correction
}

// IsEmpty 总量为 0 且无修正，不需要落盘
func (d DefectDetail) IsEmpty() bool {
	return d.Total() <= 0 && d.Correction == 0
}

// Key 五元键
func (d DefectDetail) Key() DetailKey {
	return d.Observation().DetailKey()
}

// Observation 转为物理行
func (d DefectDetail) Observation() Observation {
	return Observation{
		Date:        Day(d.Date),
		Shift:       d.Shift,
		Machine:     d.Machine,
		Variant:     d.Variant,
		DefectType:  d.DefectType,
		Hours:       d.Hours,
		Correction:  d.Correction,
		TotalReject: d.Total(),
	}
}

// OutputAggregate 某日某班某品种的产量与审计废料
type OutputAggregate struct {
	Date           time.Time `json:"date"`
	Shift          string    `json:"shift"`
	Variant        string    `json:"variant"`
	AuditedWasteKg float64   `json:"auditedWasteKg"`
	OutputPcs      float64   `json:"outputPcs"`
}

// Kind 实现 Entry
func (a OutputAggregate) Kind() EntryKind { return KindOutputAggregate }

// IsEmpty 未录入任何值，视为该行不存在
func (a OutputAggregate) IsEmpty() bool {
	return a.AuditedWasteKg == 0 && a.OutputPcs == 0
}

// Key 三元键
func (a OutputAggregate) Key() OutputKey {
	return a.Observation().OutputKey()
}

// Observation 按哨兵约定编码：机台=品种，缺陷类型=哨兵值，小时与修正为 0
func (a OutputAggregate) Observation() Observation {
	return Observation{
		Date:           Day(a.Date),
		Shift:          a.Shift,
		Machine:        a.Variant,
		Variant:        a.Variant,
		DefectType:     SentinelDefectType,
		AuditedWasteKg: a.AuditedWasteKg,
		OutputPcs:      a.OutputPcs,
	}
}

// ErrCorruptRow 哨兵行塌缩，无法还原为任何条目
var ErrCorruptRow = errors.New("corrupt sentinel row")

// EntryFromObservation 从物理行还原逻辑条目
// 塌缩的哨兵行返回 ErrCorruptRow
func EntryFromObservation(o Observation) (Entry, error) {
	if o.IsCorrupt() {
		return nil, ErrCorruptRow
	}
	if o.IsSentinel() {
		return OutputAggregate{
			Date:           o.Date,
			Shift:          o.Shift,
			Variant:        o.Variant,
			AuditedWasteKg: o.AuditedWasteKg,
			OutputPcs:      o.OutputPcs,
		}, nil
	}
	return DefectDetail{
		Date:       o.Date,
		Shift:      o.Shift,
		Machine:    o.Machine,
		Variant:    o.Variant,
		DefectType: o.DefectType,
		Hours:      o.Hours,
		Correction: o.Correction,
	}, nil
}
