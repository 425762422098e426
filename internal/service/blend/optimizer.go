package blend

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/elkindavid/soluciones-inteligentes/internal/model"
)

var (
	// ErrInvalidParams 参数非法（份额超出 0..1、未知目标函数等）
	ErrInvalidParams = errors.New("blend: invalid parameters")
	// ErrNoPositiveAllocation 最优解中没有正的分配量，无法计算单位成本
	ErrNoPositiveAllocation = errors.New("blend: optimal solution has no positive allocation")
)

// positiveEps: solver values at or below this are treated as zero.
const positiveEps = 1e-9

// Optimizer 配煤优化器。无共享可变状态，可并发调用。
type Optimizer struct {
	logger    *zap.Logger
	tolerance float64
}

// NewOptimizer 创建优化器；tolerance 为 0 时使用 DefaultTolerance
func NewOptimizer(logger *zap.Logger, tolerance float64) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{logger: logger, tolerance: tolerance}
}

type chosenLot struct {
	lot  *model.Lot
	tons float64
}

// Optimize builds the blend LP from scratch, solves it and assembles the result.
//
// Non-optimal statuses come back as a Result with empty tables and a nil error.
// An optimal solution without any positive allocation returns the Result flagged
// Degenerate together with ErrNoPositiveAllocation.
func (o *Optimizer) Optimize(ctx context.Context, input *model.BlendInput, params model.Params) (*model.Result, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: nil input", ErrInvalidParams)
	}
	params, err := normalizeParams(params)
	if err != nil {
		return nil, err
	}

	req := input.Requirement
	lots := selectLots(input.Lots, params.MinersOnly)

	if len(lots) == 0 {
		if req.Total > 0 {
			o.logger.Info("no eligible lots for a positive requirement",
				zap.String("op", "blend.Optimize"),
				zap.Float64("requirement", req.Total),
				zap.Bool("minersOnly", params.MinersOnly),
			)
			return model.NewEmptyResult(model.StatusInfeasible, params.Objective), nil
		}
		res := model.NewEmptyResult(model.StatusOptimal, params.Objective)
		res.Degenerate = true
		return res, ErrNoPositiveAllocation
	}

	prob, vars := buildModel(lots, &req, params)
	sol := prob.Solve(ctx, SolveOptions{Tolerance: o.tolerance, Timeout: params.SolveTimeout})

	fields := []zap.Field{
		zap.String("op", "blend.Optimize"),
		zap.String("status", string(sol.Status)),
		zap.String("objective", string(params.Objective)),
		zap.Int("lots", len(lots)),
		zap.Int("constraints", prob.NumConstraints()),
		zap.Duration("duration", sol.Duration),
	}
	if sol.Status != model.StatusOptimal {
		if sol.Err != nil {
			fields = append(fields, zap.Error(sol.Err))
		}
		o.logger.Info("blend model not optimal", fields...)
		return model.NewEmptyResult(sol.Status, params.Objective), nil
	}
	o.logger.Info("blend model solved", append(fields, zap.Float64("objectiveValue", sol.Objective))...)

	res := model.NewEmptyResult(model.StatusOptimal, params.Objective)
	res.ObjectiveValue = sol.Objective

	chosen := make([]chosenLot, 0, len(lots))
	for i, lot := range lots {
		if x := sol.Value(vars[i]); x > positiveEps {
			chosen = append(chosen, chosenLot{lot: lot, tons: x})
		}
	}
	if len(chosen) == 0 {
		res.Degenerate = true
		return res, ErrNoPositiveAllocation
	}

	for _, c := range chosen {
		res.Allocations = append(res.Allocations, model.Allocation{
			Supplier:       c.lot.Supplier,
			Mine:           c.lot.Mine,
			Type:           c.lot.Type,
			Tons:           round2(c.tons),
			Classification: c.lot.Classification,
			Price:          c.lot.Price,
		})
	}

	summary, err := summarize(chosen, params.CokeLoss)
	if err != nil {
		res.Degenerate = true
		return res, err
	}
	res.Summary = summary
	row := FormatSummary(summary)
	res.SummaryRow = &row

	res.Types, res.TypeShares, res.MineStacks = chartData(res.Allocations)
	return res, nil
}

func normalizeParams(p model.Params) (model.Params, error) {
	if p.Objective == "" {
		p.Objective = model.ObjectivePrice
	}
	if p.Objective != model.ObjectivePrice && p.Objective != model.ObjectiveAdjustedCost {
		return p, fmt.Errorf("%w: objective %q", ErrInvalidParams, p.Objective)
	}
	if math.IsNaN(p.MaxComercializadorShare) || p.MaxComercializadorShare < 0 || p.MaxComercializadorShare > 1 {
		return p, fmt.Errorf("%w: comercializador share %v outside [0,1]", ErrInvalidParams, p.MaxComercializadorShare)
	}
	if p.CokeLoss == 0 {
		p.CokeLoss = model.DefaultCokeLoss
	}
	if p.CokeLoss < 0 || p.CokeLoss >= 1 {
		return p, fmt.Errorf("%w: coke loss %v outside [0,1)", ErrInvalidParams, p.CokeLoss)
	}
	if p.SolveTimeout < 0 {
		p.SolveTimeout = 0
	}
	return p, nil
}

func selectLots(lots []*model.Lot, minersOnly bool) []*model.Lot {
	out := make([]*model.Lot, 0, len(lots))
	seen := make(map[model.LotKey]bool, len(lots))
	for _, l := range lots {
		if l == nil || l.Availability <= 0 {
			continue
		}
		if minersOnly && l.Classification != model.ClassificationMinero {
			continue
		}
		if seen[l.Key()] {
			continue
		}
		seen[l.Key()] = true
		out = append(out, l)
	}
	return out
}

// buildModel 构造线性规划：
//
//	min  sum(cost_i * x_i)
//	s.t. sum(x_i) == R
//	     x_i <= avail_i
//	     sum(x_i, type t) <= limit_t * R
//	     sum((S_i - S*) x_i) <= 0,  sum((FSI_i - FSI*) x_i) >= 0
//	     sum((CZ_i - CZ*) x_i) <= 0, sum((MV_i - MV*) x_i) <= 0
//	     sum(x_i, comercializador) <= share * R
func buildModel(lots []*model.Lot, req *model.RequirementSpec, params model.Params) (*Problem, []Variable) {
	p := NewProblem()
	vars := make([]Variable, len(lots))
	for i, l := range lots {
		cost := l.Price
		if params.Objective == model.ObjectiveAdjustedCost {
			cost = l.AdjustedCost(params.CokeLoss)
		}
		vars[i] = p.AddVariable(fmt.Sprintf("Pedido[%s|%s]", l.Mine, l.Type), cost)
	}

	total := p.AddConstraint("total", Equal, req.Total)
	for i := range lots {
		total.AddTerm(1, vars[i])
	}

	for i, l := range lots {
		p.AddConstraint("avail["+l.Mine+"|"+l.Type+"]", LessEq, l.Availability).AddTerm(1, vars[i])
	}

	var types []string
	byType := make(map[string][]int)
	for i, l := range lots {
		if _, ok := byType[l.Type]; !ok {
			types = append(types, l.Type)
		}
		byType[l.Type] = append(byType[l.Type], i)
	}
	for _, t := range types {
		c := p.AddConstraint("type["+t+"]", LessEq, req.TypeLimit(t)*req.Total)
		for _, i := range byType[t] {
			c.AddTerm(1, vars[i])
		}
	}

	q := req.Quality
	sulfur := p.AddConstraint("sulfur", LessEq, 0)
	fsi := p.AddConstraint("fsi", GreaterEq, 0)
	ash := p.AddConstraint("ash", LessEq, 0)
	mv := p.AddConstraint("mv", LessEq, 0)
	for i, l := range lots {
		sulfur.AddTerm(l.Sulfur-q.MaxSulfur, vars[i])
		fsi.AddTerm(l.FSI-q.MinFSI, vars[i])
		ash.AddTerm(l.Ash-q.MaxAsh, vars[i])
		mv.AddTerm(l.VolatileMatter-q.MaxVolatileMatter, vars[i])
	}

	com := p.AddConstraint("comercializador", LessEq, params.MaxComercializadorShare*req.Total)
	for i, l := range lots {
		if l.IsComercializador() {
			com.AddTerm(1, vars[i])
		}
	}

	return p, vars
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
