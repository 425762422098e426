package model

import (
	"fmt"
	"strings"
	"time"
)

// ObjectiveMode 目标函数
type ObjectiveMode string

const (
	ObjectivePrice        ObjectiveMode = "price"
	ObjectiveAdjustedCost ObjectiveMode = "adjusted_cost"
)

// ParseObjectiveMode accepts the API names and the legacy form values
// ("precio", "costo_ccb"). Empty input means price.
func ParseObjectiveMode(s string) (ObjectiveMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "price", "precio":
		return ObjectivePrice, nil
	case "adjusted_cost", "costo_ccb":
		return ObjectiveAdjustedCost, nil
	default:
		return "", fmt.Errorf("unknown objective mode: %q", s)
	}
}

// Params 优化参数
type Params struct {
	MinersOnly              bool          `json:"minersOnly"`
	MaxComercializadorShare float64       `json:"maxComercializadorShare"` // 0..1
	Objective               ObjectiveMode `json:"objective"`

	CokeLoss     float64       `json:"cokeLoss"`     // 0 means DefaultCokeLoss
	SolveTimeout time.Duration `json:"solveTimeout"` // 0 means no budget
}

// DefaultParams 默认参数
func DefaultParams() Params {
	return Params{
		MaxComercializadorShare: 1,
		Objective:               ObjectivePrice,
		CokeLoss:                DefaultCokeLoss,
	}
}
