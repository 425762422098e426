package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Layout 配煤工作簿的声明式布局
//
// 默认值对应现行模板：第 2 行为表头，第 3 行起为数据；A..M 为批次表，
// O3 为总需求量，Q..T 为质量目标（标签 + 数值），V..W 为类型上限表。
type Layout struct {
	Sheet        string // empty: recognized by lot headers
	HeaderRow    int
	DataStartRow int
	LotColumns   int

	RequirementCell string

	QualityFirstCol string
	QualityLastCol  string

	LimitFirstCol    string
	LimitLastCol     string
	LimitTypeHeader  string
	LimitValueHeader string
}

// Lot table headers.
const (
	HeaderSupplier       = "Proveedor"
	HeaderMine           = "Mina"
	HeaderType           = "Tipo"
	HeaderClassification = "Clasificación"
	HeaderAvailability   = "Disponible"
	HeaderPrice          = "Precio"
	HeaderHT             = "HT"
	HeaderAsh            = "CZ"
	HeaderVolatileMatter = "MV"
	HeaderSulfur         = "S"
	HeaderFSI            = "FSI"
)

// RequiredLotHeaders 批次表必需列
var RequiredLotHeaders = []string{
	HeaderSupplier, HeaderMine, HeaderType, HeaderClassification,
	HeaderAvailability, HeaderPrice,
	HeaderHT, HeaderAsh, HeaderVolatileMatter, HeaderSulfur, HeaderFSI,
}

// QualityLabels 质量目标标签（出现在 Q..T 区域的表头行）
var QualityLabels = []string{HeaderSulfur, HeaderFSI, HeaderAsh, HeaderVolatileMatter}

// DefaultLayout 现行模板布局
func DefaultLayout() Layout {
	return Layout{
		HeaderRow:        2,
		DataStartRow:     3,
		LotColumns:       13,
		RequirementCell:  "O3",
		QualityFirstCol:  "Q",
		QualityLastCol:   "T",
		LimitFirstCol:    "V",
		LimitLastCol:     "W",
		LimitTypeHeader:  "TIPO",
		LimitValueHeader: "LIMITE",
	}
}

// resolvedLayout holds 1-based column numbers derived from a Layout.
type resolvedLayout struct {
	Layout
	reqCol, reqRow         int
	qualityFrom, qualityTo int
	limitFrom, limitTo     int
}

func (l Layout) resolve() (*resolvedLayout, error) {
	if l.HeaderRow < 1 || l.DataStartRow <= l.HeaderRow {
		return nil, fmt.Errorf("invalid layout rows: header=%d data=%d", l.HeaderRow, l.DataStartRow)
	}
	if l.LotColumns < len(RequiredLotHeaders) {
		return nil, fmt.Errorf("invalid layout: lot table narrower than %d columns", len(RequiredLotHeaders))
	}

	r := &resolvedLayout{Layout: l}
	var err error
	if r.reqCol, r.reqRow, err = excelize.CellNameToCoordinates(l.RequirementCell); err != nil {
		return nil, fmt.Errorf("invalid requirement cell %q: %w", l.RequirementCell, err)
	}
	if r.qualityFrom, r.qualityTo, err = columnRange(l.QualityFirstCol, l.QualityLastCol); err != nil {
		return nil, fmt.Errorf("invalid quality range: %w", err)
	}
	if r.limitFrom, r.limitTo, err = columnRange(l.LimitFirstCol, l.LimitLastCol); err != nil {
		return nil, fmt.Errorf("invalid limit range: %w", err)
	}
	return r, nil
}

func columnRange(from, to string) (int, int, error) {
	a, err := excelize.ColumnNameToNumber(from)
	if err != nil {
		return 0, 0, err
	}
	b, err := excelize.ColumnNameToNumber(to)
	if err != nil {
		return 0, 0, err
	}
	if b < a {
		return 0, 0, fmt.Errorf("column %s before %s", to, from)
	}
	return a, b, nil
}
