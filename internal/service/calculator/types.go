package calculator

import (
	"time"

	"linewaste/internal/model"
)

// Params 业务参数，每次计算显式传入
type Params struct {
	UnitWeightKg         float64 `json:"unitWeightKg"`         // 每件成品重量
	ShiftTargetPcs       float64 `json:"shiftTargetPcs"`       // 每班目标产量
	ReconcileToleranceKg float64 `json:"reconcileToleranceKg"` // 对账差异容忍度
	WasteGoodPct         float64 `json:"wasteGoodPct"`         // 废料率良好上限
	WasteAlertPct        float64 `json:"wasteAlertPct"`        // 废料率告警阈值
	ReportWasteLimitPct  float64 `json:"reportWasteLimitPct"`  // 报表废料率上限
}

// DefaultParams 默认业务参数
func DefaultParams() Params {
	return Params{
		UnitWeightKg:         0.075,
		ShiftTargetPcs:       6746,
		ReconcileToleranceKg: 0.1,
		WasteGoodPct:         2.0,
		WasteAlertPct:        3.5,
		ReportWasteLimitPct:  2.0,
	}
}

// Totals 四项基础汇总
type Totals struct {
	OutputPcs      float64 `json:"outputPcs"`
	AuditedWasteKg float64 `json:"auditedWasteKg"`
	FieldRejectKg  float64 `json:"fieldRejectKg"`
	DiscrepancyKg  float64 `json:"discrepancyKg"` // 审计废料 - 现场废品
	NeedsReview    bool    `json:"needsReview"`   // |差异| 超过容忍度
}

// Summary 某个范围的 KPI
type Summary struct {
	Totals
	OutputWeightKg    float64   `json:"outputWeightKg"`
	TotalProductionKg float64   `json:"totalProductionKg"`
	WasteRatePct      float64   `json:"wasteRatePct"`
	AchievementPct    float64   `json:"achievementPct"`
	Status            Status    `json:"status"`
	StatusLabel       string    `json:"statusLabel"`
	StatusInGap       bool      `json:"statusInGap"` // 达成率落在分档之间的空隙
	WasteBand         WasteBand `json:"wasteBand"`
	OutputRows        int       `json:"outputRows"`
	DetailRows        int       `json:"detailRows"`
	Empty             bool      `json:"empty"`
}

// GroupTotals 按附加维度分组后的汇总
type GroupTotals struct {
	Key        string `json:"key"`
	Date       string `json:"date,omitempty"`
	Shift      string `json:"shift,omitempty"`
	Machine    string `json:"machine,omitempty"`
	Variant    string `json:"variant,omitempty"`
	DefectType string `json:"defectType,omitempty"`
	Totals
}

// ParetoItem 帕累托排序中的一项
type ParetoItem struct {
	Category      string  `json:"category"`
	RejectKg      float64 `json:"rejectKg"`
	SharePct      float64 `json:"sharePct"`
	CumulativePct float64 `json:"cumulativePct"`
	VitalFew      bool    `json:"vitalFew"` // 累计到 80% 为止的关键少数
}

// ReportRow 日期×班次报表行
type ReportRow struct {
	Date           string  `json:"date"`
	Shift          string  `json:"shift"`
	OutputPcs      float64 `json:"outputPcs"`
	AuditedWasteKg float64 `json:"auditedWasteKg"`
	FieldRejectKg  float64 `json:"fieldRejectKg"`
	DiscrepancyKg  float64 `json:"discrepancyKg"`
	WasteRatePct   float64 `json:"wasteRatePct"`
}

// ShiftRow 班次对比行
type ShiftRow struct {
	Shift        string  `json:"shift"`
	OutputPcs    float64 `json:"outputPcs"`
	WasteRatePct float64 `json:"wasteRatePct"`
}

// ShiftComparison 班次对比与结论
type ShiftComparison struct {
	Rows          []ShiftRow `json:"rows"`
	BestShift     string     `json:"bestShift"`
	BestOutputPcs float64    `json:"bestOutputPcs"`
	MeanWastePct  float64    `json:"meanWastePct"`
	LimitPct      float64    `json:"limitPct"`
	ExceedsLimit  bool       `json:"exceedsLimit"`
}

// VariantPreviewRow 单班次按品种的预览
// 该视图把审计废料与现场废品相加作为总废料
type VariantPreviewRow struct {
	Variant        string  `json:"variant"`
	AuditedWasteKg float64 `json:"auditedWasteKg"`
	FieldRejectKg  float64 `json:"fieldRejectKg"`
	TotalWasteKg   float64 `json:"totalWasteKg"`
	OutputPcs      float64 `json:"outputPcs"`
	OutputKg       float64 `json:"outputKg"`
	TotalInputKg   float64 `json:"totalInputKg"`
	WastePct       float64 `json:"wastePct"`
}

// Preview 单日单班预览
type Preview struct {
	Date           string              `json:"date"`
	Shift          string              `json:"shift"`
	FieldRejectKg  float64             `json:"fieldRejectKg"`
	AuditedWasteKg float64             `json:"auditedWasteKg"`
	OutputPcs      float64             `json:"outputPcs"`
	TotalWastePct  float64             `json:"totalWastePct"`
	Variants       []VariantPreviewRow `json:"variants"`
	Details        []DetailLine        `json:"details"`
	Empty          bool                `json:"empty"`
}

// DetailLine 预览中的缺陷明细行
type DetailLine struct {
	Machine    string                   `json:"machine"`
	Variant    string                   `json:"variant"`
	DefectType string                   `json:"defectType"`
	Hours      [model.HourCount]float64 `json:"hours"`
	Correction float64                  `json:"correction"`
	TotalKg    float64                  `json:"totalKg"`
}

// WeightProportion 成品与废料的重量构成
type WeightProportion struct {
	FinishedKg float64 `json:"finishedKg"`
	WasteKg    float64 `json:"wasteKg"`
}

// WasteGauge 废料率仪表
type WasteGauge struct {
	Value     float64   `json:"value"`
	Band      WasteBand `json:"band"`
	GoodMax   float64   `json:"goodMax"`
	Threshold float64   `json:"threshold"`
}

// Dashboard 仪表盘全部数据
type Dashboard struct {
	From             *time.Time       `json:"from,omitempty"`
	To               *time.Time       `json:"to,omitempty"`
	Shift            string           `json:"shift"`
	Summary          Summary          `json:"summary"`
	Gauge            WasteGauge       `json:"gauge"`
	OutputByVariant  []GroupTotals    `json:"outputByVariant"`
	RejectByVariant  []GroupTotals    `json:"rejectByVariant"`
	ByVariant        []GroupTotals    `json:"byVariant"`
	ByMachineVariant []GroupTotals    `json:"byMachineVariant"`
	ByDefectType     []GroupTotals    `json:"byDefectType"`
	Pareto           []ParetoItem     `json:"pareto"`
	Weight           WeightProportion `json:"weight"`
}
