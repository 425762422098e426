// Package chart 渲染优化结果图表（PNG）
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/elkindavid/soluciones-inteligentes/internal/model"
)

// ErrNoChartData 没有可绘制的正吨数
var ErrNoChartData = errors.New("chart: no data to plot")

const (
	pieWidth    = 6 * vg.Inch
	pieHeight   = 6 * vg.Inch
	stackWidth  = 10 * vg.Inch
	stackHeight = 6 * vg.Inch
)

// Images 一次结果的两张图
type Images struct {
	TypePie   []byte
	MineStack []byte
}

// RenderResult 渲染饼图与堆叠柱状图
func RenderResult(res *model.Result) (*Images, error) {
	if res == nil {
		return nil, ErrNoChartData
	}
	pie, err := RenderTypePie(res.TypeShares)
	if err != nil {
		return nil, err
	}
	stack, err := RenderMineStack(res.Types, res.MineStacks)
	if err != nil {
		return nil, err
	}
	return &Images{TypePie: pie, MineStack: stack}, nil
}

// RenderTypePie 按类型的吨数饼图，标注百分比
func RenderTypePie(shares []model.TypeShare) ([]byte, error) {
	var total float64
	for _, s := range shares {
		if s.Tons > 0 {
			total += s.Tons
		}
	}
	if total <= 0 {
		return nil, ErrNoChartData
	}

	p := plot.New()
	p.Title.Text = "Distribución de Toneladas por Tipo de Carbón"
	p.HideAxes()
	p.Legend.Top = true

	pie := &pieChart{}
	for i, s := range shares {
		if s.Tons <= 0 {
			continue
		}
		sl := slice{label: s.Type, value: s.Tons / total, color: plotutil.Color(i)}
		pie.slices = append(pie.slices, sl)
		p.Legend.Add(s.Type, swatch{color: sl.color})
	}
	p.Add(pie)

	return render(p, pieWidth, pieHeight)
}

// RenderMineStack 按矿堆叠（每个类型一层）的柱状图
func RenderMineStack(types []string, stacks []model.MineStack) ([]byte, error) {
	if len(types) == 0 || len(stacks) == 0 {
		return nil, ErrNoChartData
	}

	p := plot.New()
	p.Title.Text = "Toneladas por Mina y Tipo de Carbón"
	p.X.Label.Text = "Mina"
	p.Y.Label.Text = "Toneladas"
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.Legend.Top = true

	mines := make([]string, len(stacks))
	for j, st := range stacks {
		mines[j] = st.Mine
	}

	var below *plotter.BarChart
	for i, t := range types {
		vals := make(plotter.Values, len(stacks))
		for j, st := range stacks {
			if i < len(st.Tons) {
				vals[j] = st.Tons[i]
			}
		}
		bar, err := plotter.NewBarChart(vals, vg.Points(24))
		if err != nil {
			return nil, fmt.Errorf("bar chart %s: %w", t, err)
		}
		bar.Color = plotutil.Color(i)
		bar.LineStyle.Width = 0
		if below != nil {
			bar.StackOn(below)
		}
		p.Add(bar)
		p.Legend.Add(t, bar)
		below = bar
	}
	p.NominalX(mines...)

	return render(p, stackWidth, stackHeight)
}

func render(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	return buf.Bytes(), nil
}
