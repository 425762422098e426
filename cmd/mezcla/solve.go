package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/elkindavid/soluciones-inteligentes/internal/config"
	"github.com/elkindavid/soluciones-inteligentes/internal/model"
	"github.com/elkindavid/soluciones-inteligentes/internal/service/blend"
	"github.com/elkindavid/soluciones-inteligentes/internal/service/excel"
)

type solveOptions struct {
	path       string
	out        string
	minersOnly bool
	limit      int
	mode       string
}

// runSolve 命令行模式：解析、求解、打印并导出结果工作簿
func runSolve(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger, opts solveOptions, w io.Writer) error {
	if opts.limit < 0 || opts.limit > 100 {
		return fmt.Errorf("limite must be between 0 and 100, got %d", opts.limit)
	}
	mode, err := model.ParseObjectiveMode(opts.mode)
	if err != nil {
		return err
	}

	input, err := excel.ParseFile(opts.path, excel.DefaultLayout())
	if err != nil {
		return err
	}
	for _, s := range input.SkippedRows {
		logger.Debug("row skipped", zap.String("op", "main.solve"), zap.Int("row", s.RowNo), zap.String("reason", s.Reason))
	}

	params := model.Params{
		MinersOnly:              opts.minersOnly,
		MaxComercializadorShare: float64(opts.limit) / 100,
		Objective:               mode,
		CokeLoss:                cfg.Optimizer.CokeLoss,
		SolveTimeout:            cfg.SolveTimeout(),
	}
	res, err := blend.NewOptimizer(logger, cfg.Optimizer.Tolerance).Optimize(ctx, input, params)
	if err != nil {
		return err
	}

	printResult(w, res)

	if opts.out == "" {
		return nil
	}
	f, err := excel.NewExporter().ExportResult(res)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(opts.out); err != nil {
		return fmt.Errorf("save %s: %w", opts.out, err)
	}
	fmt.Fprintf(w, "\nResultados: %s\n", opts.out)
	return nil
}

func printResult(w io.Writer, res *model.Result) {
	fmt.Fprintf(w, "Estado: %s\n", res.StatusLabel)
	if len(res.Allocations) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Proveedor\tMina\tTipo\tToneladas\tClasificación")
	for _, a := range res.Allocations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n", a.Supplier, a.Mine, a.Type, a.Tons, a.Classification)
	}
	_ = tw.Flush()

	if s := res.SummaryRow; s != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "S (%%): %s  FSI: %s  CZ (%%): %s  MV (%%): %s\n", s.SulfurPct, s.FSI, s.AshPct, s.VolatileMatterPct)
		fmt.Fprintf(w, "Costo Total ($): %s\n", s.TotalCost)
		fmt.Fprintf(w, "Rendimiento Coque Bruto (%%): %s\n", s.CokeYieldPct)
		fmt.Fprintf(w, "Total Coque Bruto Producido: %s\n", s.CokeProduced)
		fmt.Fprintf(w, "Costo Unitario Coque Bruto ($/t): %s\n", s.UnitCost)
	}
}
