package calculator

import (
	"strings"
	"time"

	"linewaste/internal/catalog"
	"linewaste/internal/model"
)

// ShiftAll 不按班次筛选
const ShiftAll = "Semua Shift"

// Scope 计算范围：日期区间（含端点，零值表示不限）、班次、可选品种
type Scope struct {
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Shift   string    `json:"shift"`
	Variant string    `json:"variant,omitempty"`
}

// AllShifts 是否不限班次
func (s Scope) AllShifts() bool {
	switch strings.ToLower(strings.TrimSpace(s.Shift)) {
	case "", "all", strings.ToLower(ShiftAll):
		return true
	}
	return false
}

// Match 判断一行是否落在范围内
func (s Scope) Match(o model.Observation) bool {
	if !s.From.IsZero() && o.Date.Before(model.Day(s.From)) {
		return false
	}
	if !s.To.IsZero() && o.Date.After(model.Day(s.To)) {
		return false
	}
	if !s.AllShifts() && !matchShift(strings.TrimSpace(s.Shift), o.Shift) {
		return false
	}
	if s.Variant != "" && o.Variant != s.Variant {
		return false
	}
	return true
}

func matchShift(want, got string) bool {
	if want == catalog.ShiftUnrecorded {
		return got == "" || got == catalog.ShiftUnrecorded
	}
	return got == want
}

// Filter 返回落在范围内的行（不修改输入）
func Filter(rows []model.Observation, scope Scope) []model.Observation {
	out := make([]model.Observation, 0, len(rows))
	for _, o := range rows {
		if scope.Match(o) {
			out = append(out, o)
		}
	}
	return out
}

// Partition 拆分为汇总行与缺陷明细行
func Partition(rows []model.Observation) (output, detail []model.Observation) {
	for _, o := range rows {
		if o.IsSentinel() {
			output = append(output, o)
		} else {
			detail = append(detail, o)
		}
	}
	return output, detail
}

// DateRange 数据中最早与最晚的日期
func DateRange(rows []model.Observation) (minDate, maxDate time.Time, ok bool) {
	for i, o := range rows {
		if i == 0 || o.Date.Before(minDate) {
			minDate = o.Date
		}
		if i == 0 || o.Date.After(maxDate) {
			maxDate = o.Date
		}
	}
	return minDate, maxDate, len(rows) > 0
}
