package profit

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"trade-profit-calculator-go/internal/models"
)

// Totals are the aggregate metrics of a ledger.
type Totals struct {
	TotalCost    float64 `json:"totalCost"`
	TotalFees    float64 `json:"totalFees"` // buy-side fees
	TotalAmount  float64 `json:"totalAmount"`
	AveragePrice float64 `json:"averagePrice"` // includes buy fees
}

// Result is the full outcome of one profit calculation.
type Result struct {
	Mode      models.CalculationMode `json:"mode"`
	Parameter float64                `json:"parameter"`
	Totals

	DesiredNetProfit float64 `json:"desiredNetProfit,omitempty"` // percentage mode only
	TargetPrice      float64 `json:"targetPrice"`
	Revenue          float64 `json:"revenue"`
	SellFees         float64 `json:"sellFees"`
	NetRevenue       float64 `json:"netRevenue"`
	GrossProfit      float64 `json:"grossProfit"`
	NetProfit        float64 `json:"netProfit"`
	ProfitPercentage float64 `json:"profitPercentage"`

	// PercentageDefined is false when the total cost is zero and the
	// percentage could not be computed; ProfitPercentage is then 0.
	PercentageDefined bool `json:"percentageDefined"`
}

// Aggregate sums the ledger. The sums are exact decimals so the totals do
// not depend on ledger order; they are converted to float64 at the end.
func Aggregate(trades []models.Trade) Totals {
	cost, fees, amount := decimal.Zero, decimal.Zero, decimal.Zero
	for _, t := range trades {
		notional := dec(t.Amount).Mul(dec(t.Price))
		cost = cost.Add(notional)
		fees = fees.Add(notional.Mul(dec(t.Fee)))
		amount = amount.Add(dec(t.Amount))
	}

	totals := Totals{
		TotalCost:   cost.InexactFloat64(),
		TotalFees:   fees.InexactFloat64(),
		TotalAmount: amount.InexactFloat64(),
	}
	if amount.Sign() > 0 {
		totals.AveragePrice = cost.Add(fees).Div(amount).InexactFloat64()
	}
	return totals
}

// Calculate runs the profit engine over a ledger. sellFeeRate is fractional
// (0.001 for 0.1%). The parameter is a net-profit percentage in
// ModePercentage and a sell price in ModeTargetPrice.
func Calculate(trades []models.Trade, sellFeeRate float64, mode models.CalculationMode, parameter float64) (Result, error) {
	res := Result{
		Mode:      mode,
		Parameter: parameter,
		Totals:    Aggregate(trades),
	}

	switch mode {
	case models.ModePercentage:
		res.DesiredNetProfit = res.TotalCost * (parameter / 100)
		// Solve for the price whose revenue, after the sell fee, covers cost,
		// buy fees and the desired profit.
		if denom := res.TotalAmount * (1 - sellFeeRate); denom > 0 {
			res.TargetPrice = (res.TotalCost + res.DesiredNetProfit + res.TotalFees) / denom
		}
		res.Revenue = res.TargetPrice * res.TotalAmount
		res.SellFees = res.Revenue * sellFeeRate
		res.NetRevenue = res.Revenue - res.SellFees
		res.NetProfit = res.NetRevenue - res.TotalCost - res.TotalFees
		res.GrossProfit = res.Revenue - res.TotalCost - res.TotalFees
		if res.TotalCost != 0 {
			res.ProfitPercentage = (res.DesiredNetProfit / res.TotalCost) * 100
			res.PercentageDefined = true
		}

	case models.ModeTargetPrice:
		res.TargetPrice = parameter
		res.Revenue = parameter * res.TotalAmount
		res.SellFees = res.Revenue * sellFeeRate
		res.NetRevenue = res.Revenue - res.SellFees
		res.NetProfit = res.Revenue - res.TotalCost - res.TotalFees - res.SellFees
		res.GrossProfit = res.Revenue - res.TotalCost - res.TotalFees
		if res.TotalCost != 0 {
			res.ProfitPercentage = (res.NetProfit / res.TotalCost) * 100
			res.PercentageDefined = true
		}

	default:
		return Result{}, fmt.Errorf("unknown calculation mode %q", mode)
	}

	if !res.finite() {
		return Result{}, ErrOutOfRange
	}
	return res, nil
}

// ErrOutOfRange is returned when a calculation overflows to Inf or NaN.
var ErrOutOfRange = errors.New("calculation result is out of range")

// Finite reports whether every total is a finite number.
func (t Totals) Finite() bool {
	return allFinite(t.TotalCost, t.TotalFees, t.TotalAmount, t.AveragePrice)
}

func (r Result) finite() bool {
	return r.Totals.Finite() && allFinite(
		r.Parameter, r.DesiredNetProfit, r.TargetPrice, r.Revenue, r.SellFees,
		r.NetRevenue, r.GrossProfit, r.NetProfit, r.ProfitPercentage,
	)
}

func allFinite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Text renders the one-line summary shown after a calculation.
func (r Result) Text() string {
	if r.Mode == models.ModePercentage {
		return fmt.Sprintf("Target Price: %s %s, Profit: %s %s",
			FormatPrice(r.TargetPrice), QuoteCurrency, FormatFixed(r.NetProfit, 2), QuoteCurrency)
	}
	return fmt.Sprintf("Profit: %s %s, Profit Percentage: %s",
		FormatFixed(r.NetProfit, 2), QuoteCurrency, FormatPercent(r.ProfitPercentage))
}

// Snapshot converts the result into the persisted form, rounded the way it
// was displayed.
func (r Result) Snapshot() models.LastCalculation {
	return models.LastCalculation{
		Mode:             r.Mode,
		InputValue:       r.Parameter,
		ResultText:       r.Text(),
		GrossProfit:      RoundFixed(r.GrossProfit, 2),
		NetProfit:        RoundFixed(r.NetProfit, 2),
		TargetPrice:      RoundFixed(r.TargetPrice, PriceDecimals(r.TargetPrice)),
		TotalFees:        RoundFixed(r.TotalFees, 2),
		ProfitPercentage: RoundFixed(r.ProfitPercentage, 2),
	}
}

func dec(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
