package blend

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/elkindavid/soluciones-inteligentes/internal/model"
)

const tol = 1e-6

func newLot(mine, coalType string, class model.Classification, avail, price, mv, s, fsi, cz float64) *model.Lot {
	return &model.Lot{
		Supplier:       "Proveedor " + mine,
		Mine:           mine,
		Type:           coalType,
		Classification: class,
		Availability:   avail,
		Price:          price,
		VolatileMatter: mv,
		Sulfur:         s,
		FSI:            fsi,
		Ash:            cz,
	}
}

func looseTargets() model.QualityTargets {
	return model.QualityTargets{MaxSulfur: 1, MinFSI: 0, MaxAsh: 1, MaxVolatileMatter: 1}
}

func tonsByMine(res *model.Result) map[string]float64 {
	out := map[string]float64{}
	for _, a := range res.Allocations {
		out[a.Mine] += a.Tons
	}
	return out
}

func TestOptimize_TwoLotBlend(t *testing.T) {
	t.Parallel()

	input := &model.BlendInput{
		Lots: []*model.Lot{
			newLot("A", "X", model.ClassificationMinero, 100, 10, 0.20, 0.01, 6, 0),
			newLot("B", "Y", model.ClassificationMinero, 100, 8, 0.25, 0.02, 5, 0),
		},
		Requirement: model.RequirementSpec{
			Total: 50,
			Quality: model.QualityTargets{
				MaxSulfur: 0.015, MinFSI: 5.5, MaxAsh: 1, MaxVolatileMatter: 1,
			},
			TypeLimits: map[string]float64{"X": 1, "Y": 1},
		},
	}

	res, err := NewOptimizer(nil, 0).Optimize(context.Background(), input, model.DefaultParams())
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.Status != model.StatusOptimal {
		t.Fatalf("status=%s, want Optimal", res.Status)
	}
	if res.StatusLabel != "Óptimo" {
		t.Fatalf("label=%q", res.StatusLabel)
	}

	tons := tonsByMine(res)
	if math.Abs(tons["A"]-25) > 0.01 || math.Abs(tons["B"]-25) > 0.01 {
		t.Fatalf("allocation A=%v B=%v, want 25/25", tons["A"], tons["B"])
	}
	if res.Summary.TotalCost < 400 || res.Summary.TotalCost > 500 {
		t.Fatalf("total cost %v outside [400,500]", res.Summary.TotalCost)
	}
	if math.Abs(res.Summary.TotalCost-450) > tol {
		t.Fatalf("total cost=%v, want 450", res.Summary.TotalCost)
	}
	if res.Summary.Sulfur > 0.015+tol || res.Summary.FSI < 5.5-tol {
		t.Fatalf("quality violated: S=%v FSI=%v", res.Summary.Sulfur, res.Summary.FSI)
	}
	if res.SummaryRow == nil || res.SummaryRow.TotalCost != "450.00" || res.SummaryRow.SulfurPct != "1.50" {
		t.Fatalf("summary row=%+v", res.SummaryRow)
	}

	// MV = 0.225 -> yield = 0.775 / 0.988
	wantYield := 0.775 / 0.988
	if math.Abs(res.Summary.CokeYield-wantYield) > tol {
		t.Fatalf("yield=%v, want %v", res.Summary.CokeYield, wantYield)
	}
	if math.Abs(res.Summary.UnitCost-450/(50*wantYield)) > tol {
		t.Fatalf("unit cost=%v", res.Summary.UnitCost)
	}
	if res.Objective != model.ObjectivePrice {
		t.Fatalf("objective echo=%s", res.Objective)
	}
}

func TestOptimize_ObjectiveModeSwitch(t *testing.T) {
	t.Parallel()

	// Price favours B (9.5 < 10); adjusted cost favours A:
	// A: 10 * 0.988 / 0.8 = 12.35, B: 9.5 * 0.988 / 0.7 = 13.409
	input := &model.BlendInput{
		Lots: []*model.Lot{
			newLot("A", "X", model.ClassificationMinero, 100, 10, 0.20, 0.01, 6, 0.05),
			newLot("B", "X", model.ClassificationMinero, 100, 9.5, 0.30, 0.01, 6, 0.05),
		},
		Requirement: model.RequirementSpec{Total: 50, Quality: looseTargets()},
	}
	opt := NewOptimizer(nil, 0)

	byPrice, err := opt.Optimize(context.Background(), input, model.DefaultParams())
	if err != nil {
		t.Fatalf("price mode: %v", err)
	}
	if got := tonsByMine(byPrice); math.Abs(got["B"]-50) > 0.01 || got["A"] > 0.01 {
		t.Fatalf("price mode allocation=%v, want all B", got)
	}
	if math.Abs(byPrice.Summary.TotalCost-475) > tol {
		t.Fatalf("price mode cost=%v, want 475", byPrice.Summary.TotalCost)
	}

	params := model.DefaultParams()
	params.Objective = model.ObjectiveAdjustedCost
	byAdjusted, err := opt.Optimize(context.Background(), input, params)
	if err != nil {
		t.Fatalf("adjusted mode: %v", err)
	}
	if got := tonsByMine(byAdjusted); math.Abs(got["A"]-50) > 0.01 || got["B"] > 0.01 {
		t.Fatalf("adjusted mode allocation=%v, want all A", got)
	}
	if math.Abs(byAdjusted.Summary.TotalCost-500) > tol {
		t.Fatalf("adjusted mode cost=%v, want 500", byAdjusted.Summary.TotalCost)
	}
	if math.Abs(byAdjusted.ObjectiveValue-50*12.35) > 1e-4 {
		t.Fatalf("adjusted objective=%v, want %v", byAdjusted.ObjectiveValue, 50*12.35)
	}
	if byAdjusted.Objective != model.ObjectiveAdjustedCost {
		t.Fatalf("objective echo=%s", byAdjusted.Objective)
	}
}

func propertyFixture() *model.BlendInput {
	return &model.BlendInput{
		Lots: []*model.Lot{
			newLot("M1", "T1", model.ClassificationMinero, 40, 100, 0.22, 0.008, 7, 0.08),
			newLot("M2", "T1", model.ClassificationComercializador, 60, 80, 0.26, 0.012, 6, 0.09),
			newLot("M3", "T2", model.ClassificationMinero, 50, 90, 0.24, 0.010, 5, 0.07),
			newLot("M4", "T2", model.ClassificationComercializador, 50, 70, 0.30, 0.018, 4, 0.11),
			newLot("M5", "T3", model.ClassificationMinero, 30, 85, 0.25, 0.009, 6.5, 0.085),
		},
		Requirement: model.RequirementSpec{
			Total: 100,
			Quality: model.QualityTargets{
				MaxSulfur: 0.012, MinFSI: 5.5, MaxAsh: 0.09, MaxVolatileMatter: 0.26,
			},
			TypeLimits: map[string]float64{"T1": 0.5, "T2": 0.4},
		},
	}
}

func TestOptimize_FeasibleSolutionProperties(t *testing.T) {
	t.Parallel()

	input := propertyFixture()
	params := model.DefaultParams()
	params.MaxComercializadorShare = 0.3

	res, err := NewOptimizer(nil, 0).Optimize(context.Background(), input, params)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.Status != model.StatusOptimal {
		t.Fatalf("status=%s", res.Status)
	}

	lots := map[string]*model.Lot{}
	for _, l := range input.Lots {
		lots[l.Mine] = l
	}

	// allocations are rounded to 2 decimals
	const roundTol = 0.01 * 5
	var total, com float64
	byType := map[string]float64{}
	for _, a := range res.Allocations {
		l := lots[a.Mine]
		if a.Tons <= 0 {
			t.Fatalf("non-positive allocation kept: %+v", a)
		}
		if a.Tons > l.Availability+roundTol {
			t.Fatalf("%s allocation %v exceeds availability %v", a.Mine, a.Tons, l.Availability)
		}
		if a.Supplier != l.Supplier || a.Classification != l.Classification {
			t.Fatalf("join mismatch: %+v", a)
		}
		total += a.Tons
		byType[a.Type] += a.Tons
		if a.Classification == model.ClassificationComercializador {
			com += a.Tons
		}
	}
	req := input.Requirement
	if math.Abs(total-req.Total) > roundTol {
		t.Fatalf("total=%v, want %v", total, req.Total)
	}
	for typ, sum := range byType {
		if sum > req.TypeLimit(typ)*req.Total+roundTol {
			t.Fatalf("type %s sum %v exceeds cap", typ, sum)
		}
	}
	if com > params.MaxComercializadorShare*req.Total+roundTol {
		t.Fatalf("comercializador sum %v exceeds cap", com)
	}

	s := res.Summary
	if s.Sulfur > req.Quality.MaxSulfur+tol ||
		s.FSI < req.Quality.MinFSI-tol ||
		s.Ash > req.Quality.MaxAsh+tol ||
		s.VolatileMatter > req.Quality.MaxVolatileMatter+tol {
		t.Fatalf("blend quality violated: %+v", s)
	}

	var shareSum float64
	for _, ts := range res.TypeShares {
		shareSum += ts.Share
	}
	if math.Abs(shareSum-1) > 1e-9 {
		t.Fatalf("type shares sum=%v", shareSum)
	}
	for i := 1; i < len(res.MineStacks); i++ {
		if res.MineStacks[i-1].Total < res.MineStacks[i].Total {
			t.Fatalf("mine stacks not descending: %+v", res.MineStacks)
		}
	}
}

func TestOptimize_Idempotent(t *testing.T) {
	t.Parallel()

	params := model.DefaultParams()
	params.MaxComercializadorShare = 0.3
	opt := NewOptimizer(nil, 0)

	first, err := opt.Optimize(context.Background(), propertyFixture(), params)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := opt.Optimize(context.Background(), propertyFixture(), params)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if math.Abs(first.ObjectiveValue-second.ObjectiveValue) > 1e-9 {
		t.Fatalf("objective differs: %v vs %v", first.ObjectiveValue, second.ObjectiveValue)
	}
}

func TestOptimize_MinersOnly(t *testing.T) {
	t.Parallel()

	params := model.DefaultParams()
	params.MinersOnly = true

	res, err := NewOptimizer(nil, 0).Optimize(context.Background(), propertyFixture(), params)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.Status != model.StatusOptimal {
		t.Fatalf("status=%s", res.Status)
	}
	for _, a := range res.Allocations {
		if a.Classification != model.ClassificationMinero {
			t.Fatalf("non-miner allocation with minersOnly: %+v", a)
		}
	}
}

func TestOptimize_RequirementAboveAvailabilityIsInfeasible(t *testing.T) {
	t.Parallel()

	input := &model.BlendInput{
		Lots: []*model.Lot{
			newLot("A", "X", model.ClassificationMinero, 100, 10, 0.20, 0.01, 6, 0),
			newLot("B", "Y", model.ClassificationMinero, 100, 8, 0.25, 0.02, 5, 0),
		},
		Requirement: model.RequirementSpec{Total: 250, Quality: looseTargets()},
	}

	res, err := NewOptimizer(nil, 0).Optimize(context.Background(), input, model.DefaultParams())
	if err != nil {
		t.Fatalf("infeasible must not be an error: %v", err)
	}
	if res.Status != model.StatusInfeasible {
		t.Fatalf("status=%s, want Infeasible", res.Status)
	}
	if len(res.Allocations) != 0 || res.Summary != nil {
		t.Fatalf("infeasible result should be empty: %+v", res)
	}
	if res.StatusLabel != "Inviable" {
		t.Fatalf("label=%q", res.StatusLabel)
	}
}

func TestOptimize_NoEligibleLots(t *testing.T) {
	t.Parallel()

	input := &model.BlendInput{
		Lots: []*model.Lot{
			newLot("C", "X", model.ClassificationComercializador, 100, 10, 0.20, 0.01, 6, 0),
		},
		Requirement: model.RequirementSpec{Total: 10, Quality: looseTargets()},
	}
	params := model.DefaultParams()
	params.MinersOnly = true

	res, err := NewOptimizer(nil, 0).Optimize(context.Background(), input, params)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.Status != model.StatusInfeasible {
		t.Fatalf("status=%s, want Infeasible", res.Status)
	}

	input.Requirement.Total = 0
	res, err = NewOptimizer(nil, 0).Optimize(context.Background(), input, params)
	if !errors.Is(err, ErrNoPositiveAllocation) {
		t.Fatalf("err=%v, want ErrNoPositiveAllocation", err)
	}
	if res == nil || !res.Degenerate {
		t.Fatalf("expected degenerate result, got %+v", res)
	}
}

func TestOptimize_InvalidParams(t *testing.T) {
	t.Parallel()

	input := propertyFixture()
	opt := NewOptimizer(nil, 0)

	params := model.DefaultParams()
	params.MaxComercializadorShare = 1.5
	if _, err := opt.Optimize(context.Background(), input, params); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("share 1.5: err=%v", err)
	}

	params = model.DefaultParams()
	params.Objective = "cheapest"
	if _, err := opt.Optimize(context.Background(), input, params); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("unknown mode: err=%v", err)
	}

	if _, err := opt.Optimize(context.Background(), nil, model.DefaultParams()); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("nil input: err=%v", err)
	}
}

func TestOptimize_CancelledContextIsNotSolved(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewOptimizer(nil, 0).Optimize(ctx, propertyFixture(), model.DefaultParams())
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.Status != model.StatusNotSolved {
		t.Fatalf("status=%s, want Not Solved", res.Status)
	}
}

func TestSummarize_ZeroTonsIsDegenerate(t *testing.T) {
	t.Parallel()

	lot := newLot("A", "X", model.ClassificationMinero, 10, 10, 0.2, 0.01, 6, 0)
	if _, err := summarize([]chosenLot{{lot: lot, tons: 0}}, model.DefaultCokeLoss); !errors.Is(err, ErrNoPositiveAllocation) {
		t.Fatalf("err=%v, want ErrNoPositiveAllocation", err)
	}
}

func TestFormatSummary_Grouping(t *testing.T) {
	t.Parallel()

	row := FormatSummary(&model.Summary{
		Sulfur:         0.01234,
		FSI:            5.5,
		Ash:            0.0856,
		VolatileMatter: 0.2,
		TotalCost:      1234567.891,
		CokeYield:      0.8097,
		CokeProduced:   40485.5,
		UnitCost:       30.5,
	})
	if row.TotalCost != "1,234,567.89" {
		t.Fatalf("TotalCost=%q", row.TotalCost)
	}
	if row.CokeProduced != "40,485.50" {
		t.Fatalf("CokeProduced=%q", row.CokeProduced)
	}
	if row.SulfurPct != "1.23" || row.FSI != "5.50" || row.AshPct != "8.56" || row.VolatileMatterPct != "20.00" {
		t.Fatalf("quality row=%+v", row)
	}
	if row.CokeYieldPct != "80.97" || row.UnitCost != "30.50" {
		t.Fatalf("yield/unit row=%+v", row)
	}
}

func TestChartData_OrdersMinesByTotal(t *testing.T) {
	t.Parallel()

	types, shares, stacks := chartData([]model.Allocation{
		{Mine: "Z", Type: "B", Tons: 10},
		{Mine: "A", Type: "A", Tons: 5},
		{Mine: "Z", Type: "A", Tons: 20},
		{Mine: "M", Type: "B", Tons: 65},
	})
	if len(types) != 2 || types[0] != "A" || types[1] != "B" {
		t.Fatalf("types=%v", types)
	}
	if shares[0].Tons != 25 || math.Abs(shares[0].Share-0.25) > 1e-12 {
		t.Fatalf("share A=%+v", shares[0])
	}
	if stacks[0].Mine != "M" || stacks[1].Mine != "Z" || stacks[2].Mine != "A" {
		t.Fatalf("stack order=%+v", stacks)
	}
	if stacks[1].Tons[0] != 20 || stacks[1].Tons[1] != 10 || stacks[1].Total != 30 {
		t.Fatalf("stack Z=%+v", stacks[1])
	}
}
