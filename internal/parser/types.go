package parser

// maxIssueSamples 诊断信息中保留的问题单元格样本数
const maxIssueSamples = 20

// CellIssue 无法解析的数值单元格（按 0 处理）
type CellIssue struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Diagnostics 规范化过程的诊断统计
type Diagnostics struct {
	TotalRows        int         `json:"totalRows"`
	KeptRows         int         `json:"keptRows"`
	DroppedBadDate   int         `json:"droppedBadDate"`
	DroppedCorrupt   int         `json:"droppedCorrupt"`
	UnparseableCells int         `json:"unparseableCells"`
	Samples          []CellIssue `json:"samples,omitempty"`
}

// HasIssues 是否有需要关注的数据问题
func (d Diagnostics) HasIssues() bool {
	return d.DroppedBadDate > 0 || d.DroppedCorrupt > 0 || d.UnparseableCells > 0
}

func (d *Diagnostics) addIssue(issue CellIssue) {
	d.UnparseableCells++
	if len(d.Samples) < maxIssueSamples {
		d.Samples = append(d.Samples, issue)
	}
}
