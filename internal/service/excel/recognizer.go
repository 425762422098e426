package excel

import (
	"github.com/xuri/excelize/v2"
)

// minSheetScore 低于该命中率的 sheet 不视为批次表
const minSheetScore = 0.5

// SheetRecognition 单个 sheet 的识别结果
type SheetRecognition struct {
	SheetName     string
	Score         float64 // 命中的批次表头比例
	MissingFields []string
}

// Recognizer 按表头识别批次表所在的 sheet
type Recognizer struct {
	headerRow int
	width     int
}

// NewRecognizer 创建识别器
func NewRecognizer(layout Layout) *Recognizer {
	return &Recognizer{headerRow: layout.HeaderRow, width: layout.LotColumns}
}

// RecognizeWorkbook 识别每个 sheet，按工作簿顺序返回
func (r *Recognizer) RecognizeWorkbook(wb *excelize.File) []SheetRecognition {
	if wb == nil {
		return nil
	}
	var out []SheetRecognition
	for _, name := range wb.GetSheetList() {
		out = append(out, r.recognize(wb, name))
	}
	return out
}

// BestSheet 命中率最高的 sheet；并列时取靠前者，全部不达标时返回第一个 sheet
func (r *Recognizer) BestSheet(wb *excelize.File) (string, bool) {
	results := r.RecognizeWorkbook(wb)
	if len(results) == 0 {
		return "", false
	}
	best := results[0]
	for _, res := range results[1:] {
		if res.Score > best.Score {
			best = res
		}
	}
	if best.Score < minSheetScore {
		return results[0].SheetName, true
	}
	return best.SheetName, true
}

func (r *Recognizer) recognize(wb *excelize.File, sheet string) SheetRecognition {
	res := SheetRecognition{SheetName: sheet}

	header := readHeaderRow(wb, sheet, r.headerRow)
	present := make(map[string]bool)
	for i := 0; i < r.width && i < len(header); i++ {
		if key := normalizeHeader(header[i]); key != "" {
			present[key] = true
		}
	}

	hit := 0
	for _, h := range RequiredLotHeaders {
		if present[normalizeHeader(h)] {
			hit++
			continue
		}
		res.MissingFields = append(res.MissingFields, h)
	}
	res.Score = float64(hit) / float64(len(RequiredLotHeaders))
	return res
}

func readHeaderRow(wb *excelize.File, sheet string, row int) []string {
	rows, err := wb.GetRows(sheet)
	if err != nil || row < 1 || len(rows) < row {
		return nil
	}
	return rows[row-1]
}
