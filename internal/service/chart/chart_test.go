package chart

import (
	"bytes"
	"errors"
	"testing"

	"github.com/elkindavid/soluciones-inteligentes/internal/model"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestRenderTypePie(t *testing.T) {
	img, err := RenderTypePie([]model.TypeShare{
		{Type: "Coque", Tons: 60, Share: 0.6},
		{Type: "Térmico", Tons: 40, Share: 0.4},
	})
	if err != nil {
		t.Fatalf("RenderTypePie failed: %v", err)
	}
	if !bytes.HasPrefix(img, pngMagic) {
		t.Fatalf("output is not a PNG (%d bytes)", len(img))
	}
}

func TestRenderMineStack(t *testing.T) {
	img, err := RenderMineStack([]string{"Coque", "Térmico"}, []model.MineStack{
		{Mine: "Mina B", Total: 70, Tons: []float64{50, 20}},
		{Mine: "Mina A", Total: 30, Tons: []float64{10, 20}},
	})
	if err != nil {
		t.Fatalf("RenderMineStack failed: %v", err)
	}
	if !bytes.HasPrefix(img, pngMagic) {
		t.Fatalf("output is not a PNG (%d bytes)", len(img))
	}
}

func TestRenderNoData(t *testing.T) {
	if _, err := RenderTypePie(nil); !errors.Is(err, ErrNoChartData) {
		t.Fatalf("pie err=%v, want ErrNoChartData", err)
	}
	if _, err := RenderTypePie([]model.TypeShare{{Type: "Coque"}}); !errors.Is(err, ErrNoChartData) {
		t.Fatalf("zero-ton pie err=%v, want ErrNoChartData", err)
	}
	if _, err := RenderMineStack([]string{"Coque"}, nil); !errors.Is(err, ErrNoChartData) {
		t.Fatalf("stack err=%v, want ErrNoChartData", err)
	}
	if _, err := RenderResult(model.NewEmptyResult(model.StatusInfeasible, model.ObjectivePrice)); !errors.Is(err, ErrNoChartData) {
		t.Fatalf("empty result err=%v, want ErrNoChartData", err)
	}
}
