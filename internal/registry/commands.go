package registry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"trade-profit-calculator-go/internal/ledger"
	"trade-profit-calculator-go/internal/models"
	"trade-profit-calculator-go/internal/profit"
)

// Command is one user action mapped to a state transition.
type Command interface {
	// Name identifies the command in logs.
	Name() string
	apply(r *Registry) (Outcome, error)
}

// CreateCalculator appends a calculator. A nil Data gives a fresh calculator
// with the default fee and an empty ledger.
type CreateCalculator struct {
	ID   string
	Data *models.CalculatorData
}

func (CreateCalculator) Name() string { return "create_calculator" }

func (c CreateCalculator) apply(r *Registry) (Outcome, error) {
	if c.ID == "" {
		return Outcome{}, ErrMissingID
	}
	if r.index(c.ID) >= 0 {
		return Outcome{}, fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
	}
	data := models.NewCalculatorData()
	if c.Data != nil {
		data = c.Data.Clone()
		data.Ticker = NormalizeTicker(data.Ticker)
	}
	r.calculators = append(r.calculators, models.Calculator{ID: c.ID, Data: data})
	summary := profit.Summarize(data.Trades)
	return Outcome{CalculatorID: c.ID, Changed: true, Summary: &summary}, nil
}

// DeleteCalculator removes a calculator. Confirmation is the caller's job.
// Removing the last calculator leaves the registry empty.
type DeleteCalculator struct {
	ID string
}

func (DeleteCalculator) Name() string { return "delete_calculator" }

func (c DeleteCalculator) apply(r *Registry) (Outcome, error) {
	if _, err := r.lookup(c.ID); err != nil {
		return Outcome{}, err
	}
	i := r.index(c.ID)
	r.calculators = append(r.calculators[:i], r.calculators[i+1:]...)
	return Outcome{CalculatorID: c.ID, Changed: true}, nil
}

// SetTicker stores the trimmed, upper-cased ticker. Empty is allowed.
type SetTicker struct {
	ID  string
	Raw string
}

func (SetTicker) Name() string { return "set_ticker" }

func (c SetTicker) apply(r *Registry) (Outcome, error) {
	calc, err := r.lookup(c.ID)
	if err != nil {
		return Outcome{}, err
	}
	calc.Data.Ticker = NormalizeTicker(c.Raw)
	return Outcome{CalculatorID: c.ID, Changed: true}, nil
}

// SetFee changes the calculator's fee percentage. Accepts 0 <= fee < 100.
type SetFee struct {
	ID  string
	Raw string
}

func (SetFee) Name() string { return "set_fee" }

func (c SetFee) apply(r *Registry) (Outcome, error) {
	calc, err := r.lookup(c.ID)
	if err != nil {
		return Outcome{}, err
	}
	fee, ok := parseNumber(c.Raw)
	if !ok || !validFeePercent(fee) {
		return Outcome{}, invalid("fee", "Please enter a fee between 0 and 100 percent.")
	}
	calc.Data.Fee = fee
	return Outcome{CalculatorID: c.ID, Changed: true}, nil
}

// AddTrade validates and appends a buy trade. Inputs are raw strings from
// the input surface. An empty FeePercent uses the calculator's fee.
type AddTrade struct {
	ID         string
	Amount     string
	Price      string
	FeePercent string
}

func (AddTrade) Name() string { return "add_trade" }

func (c AddTrade) apply(r *Registry) (Outcome, error) {
	calc, err := r.lookup(c.ID)
	if err != nil {
		return Outcome{}, err
	}

	amount, okAmount := parseNumber(c.Amount)
	price, okPrice := parseNumber(c.Price)
	if !okAmount || amount <= 0 {
		return Outcome{}, invalid("amount", invalidTradeMessage)
	}
	if !okPrice || price <= 0 {
		return Outcome{}, invalid("price", invalidTradeMessage)
	}

	feePercent := calc.Data.Fee
	if strings.TrimSpace(c.FeePercent) != "" {
		f, ok := parseNumber(c.FeePercent)
		if !ok || !validFeePercent(f) {
			return Outcome{}, invalid("fee", "Please enter a fee between 0 and 100 percent.")
		}
		feePercent = f
	}

	l := ledger.New(calc.Data.Trades)
	l.Append(models.Trade{Amount: amount, Price: price, Fee: feePercent / 100})
	if !profit.Aggregate(l.Trades()).Finite() {
		return Outcome{}, invalid("price", invalidTradeMessage)
	}
	calc.Data.Trades = l.Trades()

	summary := profit.Summarize(calc.Data.Trades)
	return Outcome{CalculatorID: c.ID, Changed: true, Summary: &summary}, nil
}

// DeleteTrade removes the trade at a 0-based ledger position. A stale index
// is not an error: nothing changes and Outcome.Changed is false.
type DeleteTrade struct {
	ID    string
	Index int
}

func (DeleteTrade) Name() string { return "delete_trade" }

func (c DeleteTrade) apply(r *Registry) (Outcome, error) {
	calc, err := r.lookup(c.ID)
	if err != nil {
		return Outcome{}, err
	}
	l := ledger.New(calc.Data.Trades)
	removed, ok := l.RemoveAt(c.Index)
	if !ok {
		return Outcome{CalculatorID: c.ID}, nil
	}
	calc.Data.Trades = l.Trades()

	summary := profit.Summarize(calc.Data.Trades)
	return Outcome{CalculatorID: c.ID, Changed: true, Summary: &summary, RemovedTrade: &removed}, nil
}

// SortTrades reorders the ledger by amount.
type SortTrades struct {
	ID        string
	Direction ledger.Direction
}

func (SortTrades) Name() string { return "sort_trades" }

func (c SortTrades) apply(r *Registry) (Outcome, error) {
	calc, err := r.lookup(c.ID)
	if err != nil {
		return Outcome{}, err
	}
	l := ledger.New(calc.Data.Trades)
	l.Sort(c.Direction)
	calc.Data.Trades = l.Trades()

	summary := profit.Summarize(calc.Data.Trades)
	return Outcome{CalculatorID: c.ID, Changed: true, Summary: &summary}, nil
}

// SetCollapsed sets the display collapse flag.
type SetCollapsed struct {
	ID        string
	Collapsed bool
}

func (SetCollapsed) Name() string { return "set_collapsed" }

func (c SetCollapsed) apply(r *Registry) (Outcome, error) {
	calc, err := r.lookup(c.ID)
	if err != nil {
		return Outcome{}, err
	}
	calc.Data.IsCollapsed = c.Collapsed
	return Outcome{CalculatorID: c.ID, Changed: true}, nil
}

// ToggleCollapsed flips the display collapse flag.
type ToggleCollapsed struct {
	ID string
}

func (ToggleCollapsed) Name() string { return "toggle_collapsed" }

func (c ToggleCollapsed) apply(r *Registry) (Outcome, error) {
	calc, err := r.lookup(c.ID)
	if err != nil {
		return Outcome{}, err
	}
	calc.Data.IsCollapsed = !calc.Data.IsCollapsed
	return Outcome{CalculatorID: c.ID, Changed: true}, nil
}

// RunCalculation runs the profit engine and stores the snapshot on the
// calculator. An unparsable Parameter counts as 0.
type RunCalculation struct {
	ID        string
	Mode      models.CalculationMode
	Parameter string
}

func (RunCalculation) Name() string { return "run_calculation" }

func (c RunCalculation) apply(r *Registry) (Outcome, error) {
	calc, err := r.lookup(c.ID)
	if err != nil {
		return Outcome{}, err
	}
	param, ok := parseNumber(c.Parameter)
	if !ok {
		param = 0
	}
	res, err := profit.Calculate(calc.Data.Trades, calc.Data.SellFeeRate(), c.Mode, param)
	if errors.Is(err, profit.ErrOutOfRange) {
		return Outcome{}, invalid("parameter", outOfRangeMessage)
	}
	if err != nil {
		return Outcome{}, invalid("mode", err.Error())
	}
	snap := res.Snapshot()
	calc.Data.LastCalculation = &snap
	return Outcome{CalculatorID: c.ID, Changed: true, Calculation: &res}, nil
}

// NormalizeTicker trims and upper-cases a ticker symbol.
func NormalizeTicker(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// parseNumber parses a raw numeric string. Non-finite values are rejected.
func parseNumber(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func validFeePercent(fee float64) bool {
	return fee >= 0 && fee < 100
}
