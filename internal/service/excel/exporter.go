package excel

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/elkindavid/soluciones-inteligentes/internal/model"
)

// Result workbook sheet names.
const (
	SheetResults = "Resultados"
	SheetSummary = "Resumen"
	SheetCharts  = "Graficos"
)

// ResultHeaders 分配表表头
var ResultHeaders = []string{"Proveedor", "Mina", "Tipo", "Toneladas", "Clasificación"}

// Exporter 优化结果导出器
type Exporter struct{}

// NewExporter 创建导出器
func NewExporter() *Exporter {
	return &Exporter{}
}

// ExportResult 导出分配表、汇总表与图表数据（含原生 Excel 图表）
func (e *Exporter) ExportResult(res *model.Result) (*excelize.File, error) {
	if res == nil {
		return nil, errors.New("excel: nil result")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetResults); err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := e.writeResults(f, res); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write %s: %w", SheetResults, err)
	}
	if err := e.writeSummary(f, res); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write %s: %w", SheetSummary, err)
	}
	if len(res.Allocations) > 0 {
		if err := e.writeCharts(f, res); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write %s: %w", SheetCharts, err)
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func (e *Exporter) headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}

func (e *Exporter) writeResults(f *excelize.File, res *model.Result) error {
	header := make([]interface{}, len(ResultHeaders))
	for i, h := range ResultHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetResults, "A1", &header); err != nil {
		return err
	}
	style, err := e.headerStyle(f)
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetResults, 1, 1, style); err != nil {
		return err
	}

	for i, a := range res.Allocations {
		row := []interface{}{a.Supplier, a.Mine, a.Type, a.Tons, string(a.Classification)}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetResults, cell, &row); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(SheetResults, "A", "B", 28)
	_ = f.SetColWidth(SheetResults, "C", "E", 16)
	return nil
}

func (e *Exporter) writeSummary(f *excelize.File, res *model.Result) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}

	data := [][]interface{}{
		{"Indicador", "Valor"},
		{"Estado", res.StatusLabel},
		{"Modelo", string(res.Objective)},
	}
	if s := res.SummaryRow; s != nil {
		data = append(data,
			[]interface{}{"S (%)", s.SulfurPct},
			[]interface{}{"FSI", s.FSI},
			[]interface{}{"CZ (%)", s.AshPct},
			[]interface{}{"MV (%)", s.VolatileMatterPct},
			[]interface{}{"Costo Total ($)", s.TotalCost},
			[]interface{}{"Rendimiento Coque Bruto (%)", s.CokeYieldPct},
			[]interface{}{"Total Coque Bruto Producido", s.CokeProduced},
			[]interface{}{"Costo Unitario Coque Bruto ($/t)", s.UnitCost},
		)
	}

	for i := range data {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &data[i]); err != nil {
			return err
		}
	}
	style, err := e.headerStyle(f)
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetSummary, 1, 1, style); err != nil {
		return err
	}
	_ = f.SetColWidth(SheetSummary, "A", "A", 36)
	_ = f.SetColWidth(SheetSummary, "B", "B", 20)
	return nil
}

// writeCharts 写入图表数据：A..B 为类型汇总（饼图），D.. 为矿 x 类型透视（堆叠柱状图）
func (e *Exporter) writeCharts(f *excelize.File, res *model.Result) error {
	if _, err := f.NewSheet(SheetCharts); err != nil {
		return err
	}

	shareHeader := []interface{}{"Tipo", "Toneladas"}
	if err := f.SetSheetRow(SheetCharts, "A1", &shareHeader); err != nil {
		return err
	}
	for i, ts := range res.TypeShares {
		row := []interface{}{ts.Type, ts.Tons}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetCharts, cell, &row); err != nil {
			return err
		}
	}

	pivotHeader := []interface{}{"Mina"}
	for _, t := range res.Types {
		pivotHeader = append(pivotHeader, t)
	}
	if err := f.SetSheetRow(SheetCharts, "D1", &pivotHeader); err != nil {
		return err
	}
	for i, st := range res.MineStacks {
		row := []interface{}{st.Mine}
		for _, v := range st.Tons {
			row = append(row, v)
		}
		cell, _ := excelize.CoordinatesToCellName(4, i+2)
		if err := f.SetSheetRow(SheetCharts, cell, &row); err != nil {
			return err
		}
	}

	lastShare := len(res.TypeShares) + 1
	pie := &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", SheetCharts),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", SheetCharts, lastShare),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", SheetCharts, lastShare),
		}},
		Title:    []excelize.RichTextRun{{Text: "Toneladas por tipo"}},
		Legend:   excelize.ChartLegend{Position: "right"},
		PlotArea: excelize.ChartPlotArea{ShowPercent: true},
	}
	chartRow := len(res.MineStacks) + 3
	if lastShare+2 > chartRow {
		chartRow = lastShare + 2
	}
	if err := f.AddChart(SheetCharts, fmt.Sprintf("A%d", chartRow), pie); err != nil {
		return err
	}

	lastMine := len(res.MineStacks) + 1
	stacked := &excelize.Chart{
		Type:   excelize.ColStacked,
		Title:  []excelize.RichTextRun{{Text: "Toneladas por mina y tipo"}},
		Legend: excelize.ChartLegend{Position: "right"},
	}
	for i := range res.Types {
		col, err := excelize.ColumnNumberToName(5 + i)
		if err != nil {
			return err
		}
		stacked.Series = append(stacked.Series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", SheetCharts, col),
			Categories: fmt.Sprintf("%s!$D$2:$D$%d", SheetCharts, lastMine),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", SheetCharts, col, col, lastMine),
		})
	}
	return f.AddChart(SheetCharts, fmt.Sprintf("J%d", chartRow), stacked)
}
