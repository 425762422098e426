package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

type slice struct {
	label string
	value float64 // fraction of the whole
	color color.Color
}

// pieChart 实现 plot.Plotter；半径按画布短边计算，保持正圆
type pieChart struct {
	slices []slice
}

const arcStep = math.Pi / 90

func (pc *pieChart) Plot(c draw.Canvas, plt *plot.Plot) {
	w := c.Max.X - c.Min.X
	h := c.Max.Y - c.Min.Y
	r := w
	if h < r {
		r = h
	}
	r = r / 2 * 0.9
	center := vg.Point{X: c.Min.X + w/2, Y: c.Min.Y + h/2}

	style := plt.Legend.TextStyle
	style.XAlign = draw.XCenter
	style.YAlign = draw.YCenter

	start := math.Pi / 2
	for _, s := range pc.slices {
		sweep := 2 * math.Pi * s.value
		pts := []vg.Point{center}
		for a := 0.0; a < sweep; a += arcStep {
			pts = append(pts, polar(center, r, start-a))
		}
		pts = append(pts, polar(center, r, start-sweep))
		c.FillPolygon(s.color, pts)

		mid := start - sweep/2
		c.FillText(style, polar(center, r*0.65, mid), fmt.Sprintf("%.1f%%", s.value*100))
		start -= sweep
	}
}

func polar(center vg.Point, r vg.Length, angle float64) vg.Point {
	return vg.Point{
		X: center.X + vg.Length(math.Cos(angle))*r,
		Y: center.Y + vg.Length(math.Sin(angle))*r,
	}
}

// swatch 图例色块
type swatch struct {
	color color.Color
}

func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.color, pts)
}
