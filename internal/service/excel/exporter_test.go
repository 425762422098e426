package excel_test

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/elkindavid/soluciones-inteligentes/internal/model"
	"github.com/elkindavid/soluciones-inteligentes/internal/service/excel"
)

func sampleResult() *model.Result {
	res := model.NewEmptyResult(model.StatusOptimal, model.ObjectivePrice)
	res.ObjectiveValue = 450
	res.Allocations = []model.Allocation{
		{Supplier: "P1", Mine: "Mina A", Type: "Coque", Tons: 25, Classification: model.ClassificationMinero, Price: 10},
		{Supplier: "P2", Mine: "Mina B", Type: "Térmico", Tons: 25, Classification: model.ClassificationComercializador, Price: 8},
	}
	res.SummaryRow = &model.SummaryRow{
		SulfurPct:         "1.50",
		FSI:               "6.00",
		AshPct:            "10.00",
		VolatileMatterPct: "23.00",
		TotalCost:         "450.00",
		CokeYieldPct:      "77.94",
		CokeProduced:      "38.97",
		UnitCost:          "11.55",
	}
	res.Types = []string{"Coque", "Térmico"}
	res.TypeShares = []model.TypeShare{
		{Type: "Coque", Tons: 25, Share: 0.5},
		{Type: "Térmico", Tons: 25, Share: 0.5},
	}
	res.MineStacks = []model.MineStack{
		{Mine: "Mina A", Total: 25, Tons: []float64{25, 0}},
		{Mine: "Mina B", Total: 25, Tons: []float64{0, 25}},
	}
	return res
}

func TestExportResult_Sheets(t *testing.T) {
	f, err := excel.NewExporter().ExportResult(sampleResult())
	if err != nil {
		t.Fatalf("ExportResult failed: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{excel.SheetResults, excel.SheetSummary, excel.SheetCharts}
	if len(sheets) != len(want) {
		t.Fatalf("sheets=%v, want %v", sheets, want)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Fatalf("sheets=%v, want %v", sheets, want)
		}
	}

	rows, err := f.GetRows(excel.SheetResults)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("result rows=%d, want 3", len(rows))
	}
	if rows[0][4] != "Clasificación" || rows[2][1] != "Mina B" || rows[2][3] != "25" || rows[2][4] != "Comercializador" {
		t.Fatalf("unexpected result rows: %v", rows)
	}

	status, _ := f.GetCellValue(excel.SheetSummary, "B2")
	if status != "Óptimo" {
		t.Fatalf("status cell=%q", status)
	}
	cost, _ := f.GetCellValue(excel.SheetSummary, "B8")
	if cost != "450.00" {
		t.Fatalf("total cost cell=%q", cost)
	}

	pivot, _ := f.GetCellValue(excel.SheetCharts, "F1")
	if pivot != "Térmico" {
		t.Fatalf("pivot header=%q", pivot)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	reopened, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen exported workbook: %v", err)
	}
	_ = reopened.Close()
}

func TestExportResult_NonOptimalHasNoCharts(t *testing.T) {
	res := model.NewEmptyResult(model.StatusInfeasible, model.ObjectiveAdjustedCost)

	f, err := excel.NewExporter().ExportResult(res)
	if err != nil {
		t.Fatalf("ExportResult failed: %v", err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(excel.SheetCharts); idx != -1 {
		t.Fatalf("charts sheet should be absent for empty result")
	}
	status, _ := f.GetCellValue(excel.SheetSummary, "B2")
	if status != "Inviable" {
		t.Fatalf("status cell=%q", status)
	}
	mode, _ := f.GetCellValue(excel.SheetSummary, "B3")
	if mode != string(model.ObjectiveAdjustedCost) {
		t.Fatalf("mode cell=%q", mode)
	}
}

func TestExportResult_Nil(t *testing.T) {
	if _, err := excel.NewExporter().ExportResult(nil); err == nil {
		t.Fatal("expected error for nil result")
	}
}
