package entry

import (
	"fmt"
	"strings"
	"time"

	"linewaste/internal/model"
)

// DefectInput 表单中的一种缺陷类型
type DefectInput struct {
	DefectType string                   `json:"defectType"`
	Hours      [model.HourCount]float64 `json:"hours"`
	Correction float64                  `json:"correction"`
}

// DefectForm 某日某班某机台某品种的缺陷明细表单，整体覆盖旧明细
type DefectForm struct {
	Date    time.Time     `json:"date"`
	Shift   string        `json:"shift"`
	Machine string        `json:"machine"`
	Variant string        `json:"variant"`
	Defects []DefectInput `json:"defects"`
}

// Details 转为明细条目
func (f DefectForm) Details() []model.DefectDetail {
	out := make([]model.DefectDetail, 0, len(f.Defects))
	for _, d := range f.Defects {
		out = append(out, model.DefectDetail{
			Date:       model.Day(f.Date),
			Shift:      strings.TrimSpace(f.Shift),
			Machine:    strings.TrimSpace(f.Machine),
			Variant:    strings.TrimSpace(f.Variant),
			DefectType: strings.TrimSpace(d.DefectType),
			Hours:      d.Hours,
			Correction: d.Correction,
		})
	}
	return out
}

// Slot 表单覆盖的 (日期, 班次, 机台, 品种)
func (f DefectForm) Slot() model.DetailKey {
	return model.DefectDetail{
		Date:    model.Day(f.Date),
		Shift:   strings.TrimSpace(f.Shift),
		Machine: strings.TrimSpace(f.Machine),
		Variant: strings.TrimSpace(f.Variant),
	}.Key()
}

// OutputForm 某日某班某品种的产量与审计废料
type OutputForm struct {
	Date           time.Time `json:"date"`
	Shift          string    `json:"shift"`
	Variant        string    `json:"variant"`
	AuditedWasteKg float64   `json:"auditedWasteKg"`
	OutputPcs      float64   `json:"outputPcs"`
}

// Aggregate 转为汇总条目
func (f OutputForm) Aggregate() model.OutputAggregate {
	return model.OutputAggregate{
		Date:           model.Day(f.Date),
		Shift:          strings.TrimSpace(f.Shift),
		Variant:        strings.TrimSpace(f.Variant),
		AuditedWasteKg: f.AuditedWasteKg,
		OutputPcs:      f.OutputPcs,
	}
}

// Result 一次写入的结果
type Result struct {
	Changed bool `json:"changed"`
	Deleted int  `json:"deleted"`
	Added   int  `json:"added"`
}

// ValidationError 表单校验失败，包含全部问题
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) addf(format string, args ...any) {
	e.Messages = append(e.Messages, fmt.Sprintf(format, args...))
}

func (e *ValidationError) orNil() error {
	if len(e.Messages) == 0 {
		return nil
	}
	return e
}
