package model

// Classification 供应商分类
type Classification string

const (
	ClassificationMinero          Classification = "Minero"          // direct mine operator
	ClassificationComercializador Classification = "Comercializador" // trader / broker
)

// DefaultCokeLoss is the processing loss used in the coke yield formula.
const DefaultCokeLoss = 0.012

// LotKey identifies a lot by mine and coal type.
type LotKey struct {
	Mine string `json:"mine"`
	Type string `json:"type"`
}

// Lot 可采购的煤炭批次（矿 + 类型）
type Lot struct {
	RowNo int `json:"rowNo"` // source worksheet row, 1-based

	Supplier       string         `json:"supplier"`
	Mine           string         `json:"mine"`
	Type           string         `json:"type"`
	Classification Classification `json:"classification"`

	Availability float64 `json:"availability"` // tons
	Price        float64 `json:"price"`        // currency per ton

	HT             *float64 `json:"ht,omitempty"`
	Ash            float64  `json:"ash"`            // CZ, fraction
	VolatileMatter float64  `json:"volatileMatter"` // MV, fraction
	Sulfur         float64  `json:"sulfur"`         // S, fraction
	FSI            float64  `json:"fsi"`
}

// Key returns the (Mine, Type) identity of the lot.
func (l *Lot) Key() LotKey {
	return LotKey{Mine: l.Mine, Type: l.Type}
}

// IsComercializador reports whether the lot is sold by a trader.
func (l *Lot) IsComercializador() bool {
	return l.Classification == ClassificationComercializador
}

// AdjustedCost 按挥发分折算的单位成本
// Price / ((1 - MV) / (1 - loss))
func (l *Lot) AdjustedCost(loss float64) float64 {
	return l.Price / ((1 - l.VolatileMatter) / (1 - loss))
}

// QualityTargets 混合煤质目标（加权平均上下限）
type QualityTargets struct {
	MaxSulfur         float64 `json:"maxSulfur"`
	MinFSI            float64 `json:"minFsi"`
	MaxAsh            float64 `json:"maxAsh"`
	MaxVolatileMatter float64 `json:"maxVolatileMatter"`

	// Labels as they appear in the workbook, in column order.
	Labels []string `json:"labels"`
}

// RequirementSpec 采购需求
type RequirementSpec struct {
	Total      float64            `json:"total"` // tons
	Quality    QualityTargets     `json:"quality"`
	TypeLimits map[string]float64 `json:"typeLimits"` // type -> max share of Total
}

// TypeLimit returns the max share for a coal type, 1.0 when undeclared.
func (r *RequirementSpec) TypeLimit(coalType string) float64 {
	if v, ok := r.TypeLimits[coalType]; ok {
		return v
	}
	return 1
}

// SkippedRow 解析时被剔除的行
type SkippedRow struct {
	RowNo  int    `json:"rowNo"`
	Reason string `json:"reason"`
}

// BlendInput 一次优化所需的全部输入
type BlendInput struct {
	Lots        []*Lot          `json:"lots"`
	Requirement RequirementSpec `json:"requirement"`
	SkippedRows []SkippedRow    `json:"skippedRows,omitempty"`
}
