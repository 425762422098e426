package model

// Status 求解状态
type Status string

const (
	StatusOptimal    Status = "Optimal"
	StatusInfeasible Status = "Infeasible"
	StatusUnbounded  Status = "Unbounded"
	StatusUndefined  Status = "Undefined"
	StatusNotSolved  Status = "Not Solved"
)

// Label returns the Spanish display label used by the web UI.
func (s Status) Label() string {
	switch s {
	case StatusOptimal:
		return "Óptimo"
	case StatusInfeasible:
		return "Inviable"
	case StatusUnbounded:
		return "Sin acotar"
	case StatusUndefined:
		return "Indefinido"
	case StatusNotSolved:
		return "No resuelto"
	default:
		return string(s)
	}
}

// Allocation 单个批次的分配吨数
type Allocation struct {
	Supplier       string         `json:"supplier"`
	Mine           string         `json:"mine"`
	Type           string         `json:"type"`
	Tons           float64        `json:"tons"`
	Classification Classification `json:"classification"`
	Price          float64        `json:"price"`
}

// Summary 混合结果汇总（数值）
type Summary struct {
	TotalTons      float64 `json:"totalTons"`
	Sulfur         float64 `json:"sulfur"`
	FSI            float64 `json:"fsi"`
	Ash            float64 `json:"ash"`
	VolatileMatter float64 `json:"volatileMatter"`
	TotalCost      float64 `json:"totalCost"`
	CokeYield      float64 `json:"cokeYield"`
	CokeProduced   float64 `json:"cokeProduced"`
	UnitCost       float64 `json:"unitCost"`
}

// SummaryRow 汇总表（格式化字符串，两位小数）
type SummaryRow struct {
	SulfurPct         string `json:"S (%)"`
	FSI               string `json:"FSI"`
	AshPct            string `json:"CZ (%)"`
	VolatileMatterPct string `json:"MV (%)"`
	TotalCost         string `json:"Costo Total ($)"`
	CokeYieldPct      string `json:"Rendimiento Coque Bruto (%)"`
	CokeProduced      string `json:"Total Coque Bruto Producido"`
	UnitCost          string `json:"Costo Unitario Coque Bruto ($/t)"`
}

// TypeShare 按类型的吨数占比（饼图）
type TypeShare struct {
	Type  string  `json:"type"`
	Tons  float64 `json:"tons"`
	Share float64 `json:"share"`
}

// MineStack 按矿的分类型吨数（堆叠柱状图）
type MineStack struct {
	Mine  string    `json:"mine"`
	Total float64   `json:"total"`
	Tons  []float64 `json:"tons"` // aligned with Result.Types
}

// Result 优化结果
type Result struct {
	Status         Status        `json:"status"`
	StatusLabel    string        `json:"statusLabel"`
	Objective      ObjectiveMode `json:"objective"`
	ObjectiveValue float64       `json:"objectiveValue"`

	Allocations []Allocation `json:"allocations"`
	Summary     *Summary     `json:"summary,omitempty"`
	SummaryRow  *SummaryRow  `json:"summaryRow,omitempty"`

	Types      []string    `json:"types"`
	TypeShares []TypeShare `json:"typeShares"`
	MineStacks []MineStack `json:"mineStacks"`

	// Degenerate is set when the solver reports Optimal with no positive allocation.
	Degenerate bool `json:"degenerate,omitempty"`
}

// NewEmptyResult 返回不含分配的结果（非最优状态使用）
func NewEmptyResult(status Status, objective ObjectiveMode) *Result {
	return &Result{
		Status:      status,
		StatusLabel: status.Label(),
		Objective:   objective,
		Allocations: []Allocation{},
		Types:       []string{},
		TypeShares:  []TypeShare{},
		MineStacks:  []MineStack{},
	}
}
