package models

import "strings"

// CalculationMode selects how the profit engine interprets its parameter.
type CalculationMode string

const (
	// ModePercentage takes a desired net-profit percentage and solves for the target price.
	ModePercentage CalculationMode = "percentage"
	// ModeTargetPrice takes a sell price and reports the resulting profit.
	ModeTargetPrice CalculationMode = "targetPrice"
)

// ParseCalculationMode accepts the canonical tags and a few short aliases.
func ParseCalculationMode(s string) (CalculationMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "percentage", "percent", "pct", "%":
		return ModePercentage, true
	case "targetprice", "target", "price":
		return ModeTargetPrice, true
	}
	return "", false
}

// LastCalculation is the snapshot of the most recent profit calculation,
// stored so a reload can redisplay it without recomputing.
type LastCalculation struct {
	Mode             CalculationMode `json:"mode"`
	InputValue       float64         `json:"inputValue"`
	ResultText       string          `json:"resultText"`
	GrossProfit      float64         `json:"grossProfit"`
	NetProfit        float64         `json:"netProfit"`
	TargetPrice      float64         `json:"targetPrice"`
	TotalFees        float64         `json:"totalFees"` // buy-side fees at snapshot time
	ProfitPercentage float64         `json:"profitPercentage"`
}
