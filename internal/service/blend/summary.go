package blend

import (
	"fmt"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/elkindavid/soluciones-inteligentes/internal/model"
)

// summarize 计算加权煤质、总成本与焦炭产出
func summarize(chosen []chosenLot, cokeLoss float64) (*model.Summary, error) {
	s := &model.Summary{}
	for _, c := range chosen {
		s.TotalTons += c.tons
		s.Sulfur += c.lot.Sulfur * c.tons
		s.FSI += c.lot.FSI * c.tons
		s.Ash += c.lot.Ash * c.tons
		s.VolatileMatter += c.lot.VolatileMatter * c.tons
		s.TotalCost += c.lot.Price * c.tons
	}
	if s.TotalTons <= positiveEps {
		return nil, ErrNoPositiveAllocation
	}

	s.Sulfur /= s.TotalTons
	s.FSI /= s.TotalTons
	s.Ash /= s.TotalTons
	s.VolatileMatter /= s.TotalTons

	s.CokeYield = (1 - s.VolatileMatter) / (1 - cokeLoss)
	s.CokeProduced = s.TotalTons * s.CokeYield
	if s.CokeProduced <= positiveEps {
		return nil, fmt.Errorf("%w: coke produced is zero", ErrNoPositiveAllocation)
	}
	s.UnitCost = s.TotalCost / s.CokeProduced
	return s, nil
}

// FormatSummary renders the summary with two decimals and English digit
// grouping, regardless of the host locale.
func FormatSummary(s *model.Summary) model.SummaryRow {
	p := message.NewPrinter(language.English)
	return model.SummaryRow{
		SulfurPct:         fmt.Sprintf("%.2f", s.Sulfur*100),
		FSI:               fmt.Sprintf("%.2f", s.FSI),
		AshPct:            fmt.Sprintf("%.2f", s.Ash*100),
		VolatileMatterPct: fmt.Sprintf("%.2f", s.VolatileMatter*100),
		TotalCost:         p.Sprintf("%.2f", s.TotalCost),
		CokeYieldPct:      fmt.Sprintf("%.2f", s.CokeYield*100),
		CokeProduced:      p.Sprintf("%.2f", s.CokeProduced),
		UnitCost:          p.Sprintf("%.2f", s.UnitCost),
	}
}

// chartData 饼图（按类型）与堆叠柱状图（按矿，按总吨数降序）的数据
func chartData(allocs []model.Allocation) ([]string, []model.TypeShare, []model.MineStack) {
	typeTons := make(map[string]float64)
	mineTons := make(map[string]map[string]float64)
	var grand float64
	for _, a := range allocs {
		typeTons[a.Type] += a.Tons
		if mineTons[a.Mine] == nil {
			mineTons[a.Mine] = make(map[string]float64)
		}
		mineTons[a.Mine][a.Type] += a.Tons
		grand += a.Tons
	}

	types := make([]string, 0, len(typeTons))
	for t := range typeTons {
		types = append(types, t)
	}
	sort.Strings(types)

	shares := make([]model.TypeShare, 0, len(types))
	for _, t := range types {
		share := 0.0
		if grand > 0 {
			share = typeTons[t] / grand
		}
		shares = append(shares, model.TypeShare{Type: t, Tons: typeTons[t], Share: share})
	}

	stacks := make([]model.MineStack, 0, len(mineTons))
	for mine, byType := range mineTons {
		st := model.MineStack{Mine: mine, Tons: make([]float64, len(types))}
		for i, t := range types {
			st.Tons[i] = byType[t]
			st.Total += byType[t]
		}
		stacks = append(stacks, st)
	}
	sort.Slice(stacks, func(i, j int) bool {
		if stacks[i].Total != stacks[j].Total {
			return stacks[i].Total > stacks[j].Total
		}
		return stacks[i].Mine < stacks[j].Mine
	})

	return types, shares, stacks
}
