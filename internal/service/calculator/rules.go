package calculator

// Status 达成率分档
type Status string

const (
	StatusExcellent Status = "excellent"
	StatusStandard  Status = "standard"
	StatusWarning   Status = "warning"
	StatusLowOutput Status = "low_output"
)

// Label 展示文本
func (s Status) Label() string {
	switch s {
	case StatusExcellent:
		return "Excellent"
	case StatusStandard:
		return "Standard"
	case StatusWarning:
		return "Warning (under target)"
	default:
		return "Low output"
	}
}

// 达成率分档断点（含端点）
const (
	excellentMin = 92.5
	standardMin  = 87.5
	standardMax  = 91.9
	warningMin   = 10
	warningMax   = 86.9
)

// ClassifyAchievement 按顺序匹配，先命中先得
// (86.9, 87.5) 与 (91.9, 92.5) 两个空隙不属于任何分档，落到 Low output，inGap 标记出来
func ClassifyAchievement(pct float64) (status Status, inGap bool) {
	switch {
	case pct >= excellentMin:
		return StatusExcellent, false
	case pct >= standardMin && pct <= standardMax:
		return StatusStandard, false
	case pct >= warningMin && pct <= warningMax:
		return StatusWarning, false
	}
	inGap = (pct > warningMax && pct < standardMin) || (pct > standardMax && pct < excellentMin)
	return StatusLowOutput, inGap
}

// WasteBand 废料率分段
type WasteBand string

const (
	WasteGood    WasteBand = "good"
	WasteNeutral WasteBand = "neutral"
	WasteAlert   WasteBand = "alert"
)

// ClassifyWasteRate ≤good 为良好，>alert 为告警，其间为过渡
func ClassifyWasteRate(pct float64, p Params) WasteBand {
	switch {
	case pct <= p.WasteGoodPct:
		return WasteGood
	case pct > p.WasteAlertPct:
		return WasteAlert
	default:
		return WasteNeutral
	}
}
