package excel

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/elkindavid/soluciones-inteligentes/internal/model"
)

// ErrDataFormat 工作簿结构不符合布局（缺列、缺单元格、无法解析的数值）
var ErrDataFormat = errors.New("excel: malformed blend workbook")

func formatErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDataFormat, fmt.Sprintf(format, args...))
}

// ParseFile 打开并解析配煤工作簿
func ParseFile(path string, layout Layout) (*model.BlendInput, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, formatErr("open workbook: %v", err)
	}
	defer f.Close()
	return ParseWorkbook(f, layout)
}

// ParseReader 从流解析配煤工作簿
func ParseReader(r io.Reader, layout Layout) (*model.BlendInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, formatErr("open workbook: %v", err)
	}
	defer f.Close()
	return ParseWorkbook(f, layout)
}

// ParseWorkbook 按布局读取批次表、总需求、质量目标与类型上限
func ParseWorkbook(f *excelize.File, layout Layout) (*model.BlendInput, error) {
	if f == nil {
		return nil, formatErr("no workbook")
	}
	lay, err := layout.resolve()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataFormat, err)
	}

	sheet := lay.Sheet
	if sheet == "" {
		var ok bool
		if sheet, ok = NewRecognizer(layout).BestSheet(f); !ok {
			return nil, formatErr("workbook has no sheets")
		}
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, formatErr("read sheet %q: %v", sheet, err)
	}
	if len(rows) < lay.HeaderRow {
		return nil, formatErr("sheet %q has no header row %d", sheet, lay.HeaderRow)
	}
	header := rows[lay.HeaderRow-1]

	cols, err := lotColumns(header, lay.LotColumns)
	if err != nil {
		return nil, err
	}

	input := &model.BlendInput{}
	input.Lots, input.SkippedRows = readLots(rows, lay, cols)

	if input.Requirement.Total, err = readRequirement(rows, lay); err != nil {
		return nil, err
	}
	if input.Requirement.Quality, err = readQuality(rows, lay); err != nil {
		return nil, err
	}
	if input.Requirement.TypeLimits, err = readLimits(rows, lay); err != nil {
		return nil, err
	}
	return input, nil
}

func cell(rows [][]string, row, col int) string {
	if row < 1 || row > len(rows) {
		return ""
	}
	r := rows[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return strings.TrimSpace(r[col-1])
}

// lotColumns 在批次表范围内按表头名定位各列（0-based）
func lotColumns(header []string, width int) (map[string]int, error) {
	index := make(map[string]int)
	for i := 0; i < width && i < len(header); i++ {
		key := normalizeHeader(header[i])
		if key == "" {
			continue
		}
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	cols := make(map[string]int, len(RequiredLotHeaders))
	var missing []string
	for _, h := range RequiredLotHeaders {
		i, ok := index[normalizeHeader(h)]
		if !ok {
			missing = append(missing, h)
			continue
		}
		cols[h] = i
	}
	if len(missing) > 0 {
		return nil, formatErr("missing lot columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func readLots(rows [][]string, lay *resolvedLayout, cols map[string]int) ([]*model.Lot, []model.SkippedRow) {
	var lots []*model.Lot
	var skipped []model.SkippedRow
	seen := make(map[model.LotKey]bool)

	for rowNo := lay.DataStartRow; rowNo <= len(rows); rowNo++ {
		get := func(h string) string { return cell(rows, rowNo, cols[h]+1) }
		num := func(h string) (float64, bool) { return parseNumber(get(h)) }

		avail, okAvail := num(HeaderAvailability)
		price, okPrice := num(HeaderPrice)
		if !okAvail || !okPrice {
			if !lotRowEmpty(rows, rowNo, cols) {
				skipped = append(skipped, model.SkippedRow{RowNo: rowNo, Reason: "missing Disponible or Precio"})
			}
			continue
		}
		if avail <= 0 {
			skipped = append(skipped, model.SkippedRow{RowNo: rowNo, Reason: "Disponible <= 0"})
			continue
		}

		lot := &model.Lot{
			RowNo:          rowNo,
			Supplier:       get(HeaderSupplier),
			Mine:           get(HeaderMine),
			Type:           get(HeaderType),
			Classification: model.Classification(get(HeaderClassification)),
			Availability:   avail,
			Price:          price,
		}
		if lot.Mine == "" || lot.Type == "" {
			skipped = append(skipped, model.SkippedRow{RowNo: rowNo, Reason: "missing Mina or Tipo"})
			continue
		}
		if ht, ok := num(HeaderHT); ok {
			lot.HT = &ht
		}

		var missing []string
		assign := func(h string, dst *float64) {
			v, ok := num(h)
			if !ok {
				missing = append(missing, h)
				return
			}
			*dst = v
		}
		assign(HeaderAsh, &lot.Ash)
		assign(HeaderVolatileMatter, &lot.VolatileMatter)
		assign(HeaderSulfur, &lot.Sulfur)
		assign(HeaderFSI, &lot.FSI)
		if len(missing) > 0 {
			skipped = append(skipped, model.SkippedRow{RowNo: rowNo, Reason: "missing quality " + strings.Join(missing, ", ")})
			continue
		}
		if lot.VolatileMatter >= 1 {
			skipped = append(skipped, model.SkippedRow{RowNo: rowNo, Reason: "MV >= 1"})
			continue
		}

		if seen[lot.Key()] {
			skipped = append(skipped, model.SkippedRow{RowNo: rowNo, Reason: "duplicate Mina/Tipo"})
			continue
		}
		seen[lot.Key()] = true
		lots = append(lots, lot)
	}

	sort.SliceStable(lots, func(i, j int) bool {
		if lots[i].Mine != lots[j].Mine {
			return lots[i].Mine < lots[j].Mine
		}
		return lots[i].Type < lots[j].Type
	})
	return lots, skipped
}

func lotRowEmpty(rows [][]string, rowNo int, cols map[string]int) bool {
	for _, c := range cols {
		if cell(rows, rowNo, c+1) != "" {
			return false
		}
	}
	return true
}

func readRequirement(rows [][]string, lay *resolvedLayout) (float64, error) {
	raw := cell(rows, lay.reqRow, lay.reqCol)
	if raw == "" {
		return 0, formatErr("requirement cell %s is empty", lay.RequirementCell)
	}
	v, ok := parseNumber(raw)
	if !ok {
		return 0, formatErr("requirement cell %s is not a number: %q", lay.RequirementCell, raw)
	}
	if v < 0 {
		return 0, formatErr("requirement cell %s is negative: %v", lay.RequirementCell, v)
	}
	return v, nil
}

// readQuality 在 Q..T 区域按标签读取 S/FSI/CZ/MV 目标值
func readQuality(rows [][]string, lay *resolvedLayout) (model.QualityTargets, error) {
	q := model.QualityTargets{}
	values := make(map[string]float64)

	for col := lay.qualityFrom; col <= lay.qualityTo; col++ {
		label := cell(rows, lay.HeaderRow, col)
		if label == "" {
			continue
		}
		q.Labels = append(q.Labels, label)
		key := normalizeHeader(label)
		raw := cell(rows, lay.DataStartRow, col)
		v, ok := parseNumber(raw)
		if !ok {
			return q, formatErr("quality target %s is not a number: %q", label, raw)
		}
		values[key] = v
	}

	var missing []string
	for _, l := range QualityLabels {
		if _, ok := values[normalizeHeader(l)]; !ok {
			missing = append(missing, l)
		}
	}
	if len(missing) > 0 {
		return q, formatErr("missing quality targets: %s", strings.Join(missing, ", "))
	}

	q.MaxSulfur = values[normalizeHeader(HeaderSulfur)]
	q.MinFSI = values[normalizeHeader(HeaderFSI)]
	q.MaxAsh = values[normalizeHeader(HeaderAsh)]
	q.MaxVolatileMatter = values[normalizeHeader(HeaderVolatileMatter)]
	return q, nil
}

// readLimits 读取 TIPO -> LIMITE 表，不完整的行跳过
func readLimits(rows [][]string, lay *resolvedLayout) (map[string]float64, error) {
	typeCol, valueCol := 0, 0
	for col := lay.limitFrom; col <= lay.limitTo; col++ {
		switch normalizeHeader(cell(rows, lay.HeaderRow, col)) {
		case normalizeHeader(lay.LimitTypeHeader):
			typeCol = col
		case normalizeHeader(lay.LimitValueHeader):
			valueCol = col
		}
	}
	if typeCol == 0 || valueCol == 0 {
		return nil, formatErr("missing type limit headers %s/%s in %s..%s",
			lay.LimitTypeHeader, lay.LimitValueHeader, lay.LimitFirstCol, lay.LimitLastCol)
	}

	limits := make(map[string]float64)
	for rowNo := lay.DataStartRow; rowNo <= len(rows); rowNo++ {
		t := cell(rows, rowNo, typeCol)
		raw := cell(rows, rowNo, valueCol)
		if t == "" || raw == "" {
			continue
		}
		v, ok := parseNumber(raw)
		if !ok {
			return nil, formatErr("limit for type %s is not a number: %q", t, raw)
		}
		if v < 0 {
			return nil, formatErr("limit for type %s is negative: %v", t, v)
		}
		limits[t] = v
	}
	return limits, nil
}
