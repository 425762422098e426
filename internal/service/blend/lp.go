package blend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/elkindavid/soluciones-inteligentes/internal/model"
)

// DefaultTolerance 单纯形法默认容差
const DefaultTolerance = 1e-10

// Sense 约束方向
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "=="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Variable 连续非负决策变量
type Variable struct {
	index int
	name  string
}

// Index returns the column of the variable in the model.
func (v Variable) Index() int { return v.index }

// Name returns the variable name.
func (v Variable) Name() string { return v.name }

// Constraint 线性约束：sum(coef * x) sense rhs
type Constraint struct {
	name  string
	sense Sense
	rhs   float64
	terms map[int]float64
}

// AddTerm adds coef*v to the left-hand side. Repeated variables accumulate.
func (c *Constraint) AddTerm(coef float64, v Variable) *Constraint {
	c.terms[v.index] += coef
	return c
}

// Name returns the constraint name.
func (c *Constraint) Name() string { return c.name }

// Problem 最小化线性规划模型（所有变量 >= 0）
type Problem struct {
	names       []string
	costs       []float64
	constraints []*Constraint
}

// NewProblem 创建空模型
func NewProblem() *Problem {
	return &Problem{}
}

// AddVariable adds a non-negative variable with the given objective coefficient.
func (p *Problem) AddVariable(name string, cost float64) Variable {
	v := Variable{index: len(p.costs), name: name}
	p.names = append(p.names, name)
	p.costs = append(p.costs, cost)
	return v
}

// AddConstraint adds an empty constraint; fill it with AddTerm.
func (p *Problem) AddConstraint(name string, sense Sense, rhs float64) *Constraint {
	c := &Constraint{name: name, sense: sense, rhs: rhs, terms: make(map[int]float64)}
	p.constraints = append(p.constraints, c)
	return c
}

// NumVariables 变量数
func (p *Problem) NumVariables() int { return len(p.costs) }

// NumConstraints 约束数
func (p *Problem) NumConstraints() int { return len(p.constraints) }

// SolveOptions 求解选项
type SolveOptions struct {
	Tolerance float64       // 0 means DefaultTolerance
	Timeout   time.Duration // 0 means no budget beyond ctx
}

// Solution 求解结果；Status 总是有值
type Solution struct {
	Status    model.Status
	Objective float64
	Values    []float64
	Duration  time.Duration
	Err       error // underlying solver error for non-optimal statuses
}

// Value returns the solved value of v, 0 when there is no solution.
func (s *Solution) Value(v Variable) float64 {
	if v.index < 0 || v.index >= len(s.Values) {
		return 0
	}
	return s.Values[v.index]
}

// Solve converts the model to standard form and runs the simplex method.
// It never panics; failures are reported through Solution.Status.
func (p *Problem) Solve(ctx context.Context, opts SolveOptions) *Solution {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return &Solution{Status: model.StatusNotSolved, Err: err}
	}
	if len(p.costs) == 0 {
		return &Solution{Status: model.StatusUndefined, Err: errors.New("lp: model has no variables")}
	}
	if len(p.constraints) == 0 {
		return p.solveUnconstrained(start)
	}

	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	c, a, b := p.standardForm()

	type outcome struct {
		f   float64
		x   []float64
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("lp: simplex panic: %v", r)}
			}
		}()
		f, x, err := lp.Simplex(c, a, b, tol, nil)
		done <- outcome{f: f, x: x, err: err}
	}()

	select {
	case <-ctx.Done():
		// the simplex goroutine finishes on its own and its result is dropped
		return &Solution{Status: model.StatusNotSolved, Err: ctx.Err(), Duration: time.Since(start)}
	case out := <-done:
		sol := &Solution{
			Status:   statusFromError(out.err),
			Err:      out.err,
			Duration: time.Since(start),
		}
		if out.err == nil {
			sol.Objective = out.f
			sol.Values = append([]float64(nil), out.x[:len(p.costs)]...)
		}
		return sol
	}
}

// solveUnconstrained: min c^T x, x >= 0
func (p *Problem) solveUnconstrained(start time.Time) *Solution {
	for _, c := range p.costs {
		if c < 0 {
			return &Solution{Status: model.StatusUnbounded, Err: lp.ErrUnbounded, Duration: time.Since(start)}
		}
	}
	return &Solution{
		Status:   model.StatusOptimal,
		Values:   make([]float64, len(p.costs)),
		Duration: time.Since(start),
	}
}

// standardForm 构造 min c^T x, A x = b, x >= 0
// 每个不等式约束引入一个松弛变量，右端项为负的行整体取负。
func (p *Problem) standardForm() (c []float64, a *mat.Dense, b []float64) {
	n := len(p.costs)
	slacks := 0
	for _, con := range p.constraints {
		if con.sense != Equal {
			slacks++
		}
	}

	m := len(p.constraints)
	cols := n + slacks
	c = make([]float64, cols)
	copy(c, p.costs)
	a = mat.NewDense(m, cols, nil)
	b = make([]float64, m)

	slack := n
	for i, con := range p.constraints {
		sign := 1.0
		if con.rhs < 0 {
			sign = -1
		}
		for j, coef := range con.terms {
			a.Set(i, j, sign*coef)
		}
		switch con.sense {
		case LessEq:
			a.Set(i, slack, sign)
			slack++
		case GreaterEq:
			a.Set(i, slack, -sign)
			slack++
		}
		b[i] = sign * con.rhs
	}
	return c, a, b
}

func statusFromError(err error) model.Status {
	switch {
	case err == nil:
		return model.StatusOptimal
	case errors.Is(err, lp.ErrInfeasible):
		return model.StatusInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return model.StatusUnbounded
	default:
		return model.StatusUndefined
	}
}
