package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-profit-calculator-go/internal/ledger"
	"trade-profit-calculator-go/internal/models"
)

// apply runs cmd and fails the test on error.
func apply(t *testing.T, r Registry, cmd Command) (Registry, Outcome) {
	t.Helper()
	next, out, err := r.Apply(cmd)
	require.NoError(t, err, cmd.Name())
	return next, out
}

func newRegistryWithCalculator(t *testing.T, id string) Registry {
	t.Helper()
	r, _ := apply(t, Registry{}, CreateCalculator{ID: id})
	return r
}

func TestCreateCalculator_Defaults(t *testing.T) {
	r, out := apply(t, Registry{}, CreateCalculator{ID: "calc-1"})

	assert.True(t, out.Changed)
	assert.Equal(t, "calc-1", out.CalculatorID)
	require.NotNil(t, out.Summary)

	calc, ok := r.Get("calc-1")
	require.True(t, ok)
	assert.Equal(t, "", calc.Data.Ticker)
	assert.Equal(t, models.DefaultFee, calc.Data.Fee)
	assert.NotNil(t, calc.Data.Trades)
	assert.Empty(t, calc.Data.Trades)
	assert.Nil(t, calc.Data.LastCalculation)
	assert.False(t, calc.Data.IsCollapsed)
}

func TestCreateCalculator_WithData(t *testing.T) {
	data := models.CalculatorData{
		Ticker: " btc ",
		Fee:    0.2,
		Trades: []models.Trade{{Amount: 1, Price: 2, Fee: 0.001}},
	}
	r, _ := apply(t, Registry{}, CreateCalculator{ID: "calc-1", Data: &data})

	calc, _ := r.Get("calc-1")
	assert.Equal(t, "BTC", calc.Data.Ticker)
	assert.Equal(t, 0.2, calc.Data.Fee)
	assert.Len(t, calc.Data.Trades, 1)

	// The registry owns its own copy of the ledger.
	data.Trades[0].Amount = 42
	calc, _ = r.Get("calc-1")
	assert.Equal(t, float64(1), calc.Data.Trades[0].Amount)
}

func TestCreateCalculator_Errors(t *testing.T) {
	r := newRegistryWithCalculator(t, "calc-1")

	_, _, err := r.Apply(CreateCalculator{ID: "calc-1"})
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, _, err = r.Apply(CreateCalculator{})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestApply_DoesNotMutateReceiver(t *testing.T) {
	r := newRegistryWithCalculator(t, "calc-1")

	next, _ := apply(t, r, AddTrade{ID: "calc-1", Amount: "1", Price: "100"})
	next, _ = apply(t, next, SetTicker{ID: "calc-1", Raw: "eth"})

	before, _ := r.Get("calc-1")
	after, _ := next.Get("calc-1")
	assert.Empty(t, before.Data.Trades)
	assert.Equal(t, "", before.Data.Ticker)
	assert.Len(t, after.Data.Trades, 1)
	assert.Equal(t, "ETH", after.Data.Ticker)
}

func TestDeleteCalculator(t *testing.T) {
	r := newRegistryWithCalculator(t, "calc-1")
	r, _ = apply(t, r, CreateCalculator{ID: "calc-2"})

	r, out := apply(t, r, DeleteCalculator{ID: "calc-1"})
	assert.True(t, out.Changed)
	assert.Equal(t, []string{"calc-2"}, r.IDs())

	r, _ = apply(t, r, DeleteCalculator{ID: "calc-2"})
	assert.Equal(t, 0, r.Len())

	_, _, err := r.Apply(DeleteCalculator{ID: "calc-2"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetTicker(t *testing.T) {
	r := newRegistryWithCalculator(t, "calc-1")

	r, _ = apply(t, r, SetTicker{ID: "calc-1", Raw: "  sol  "})
	calc, _ := r.Get("calc-1")
	assert.Equal(t, "SOL", calc.Data.Ticker)

	r, _ = apply(t, r, SetTicker{ID: "calc-1", Raw: "   "})
	calc, _ = r.Get("calc-1")
	assert.Equal(t, "", calc.Data.Ticker)
}

func TestSetFee(t *testing.T) {
	r := newRegistryWithCalculator(t, "calc-1")

	r, _ = apply(t, r, SetFee{ID: "calc-1", Raw: "0.075"})
	calc, _ := r.Get("calc-1")
	assert.Equal(t, 0.075, calc.Data.Fee)

	for _, raw := range []string{"-1", "100", "abc", ""} {
		_, _, err := r.Apply(SetFee{ID: "calc-1", Raw: raw})
		assert.ErrorIs(t, err, ErrValidation, raw)
	}
}

func TestAddTrade(t *testing.T) {
	r := newRegistryWithCalculator(t, "calc-1")

	r, out := apply(t, r, AddTrade{ID: "calc-1", Amount: "1", Price: "100", FeePercent: "0.1"})
	require.NotNil(t, out.Summary)
	assert.Equal(t, "100.10", out.Summary.AveragePrice)
	assert.Nil(t, out.Calculation, "adding a trade must not run the target calculation")

	calc, _ := r.Get("calc-1")
	require.Len(t, calc.Data.Trades, 1)
	assert.Equal(t, models.Trade{Amount: 1, Price: 100, Fee: 0.001}, calc.Data.Trades[0])
}

func TestAddTrade_DefaultsToCalculatorFee(t *testing.T) {
	r := newRegistryWithCalculator(t, "calc-1")
	r, _ = apply(t, r, SetFee{ID: "calc-1", Raw: "0.2"})
	r, _ = apply(t, r, AddTrade{ID: "calc-1", Amount: "2", Price: "3"})

	calc, _ := r.Get("calc-1")
	assert.InDelta(t, 0.002, calc.Data.Trades[0].Fee, 1e-12)
}

func TestAddTrade_Validation(t *testing.T) {
	testCases := []struct {
		name   string
		amount string
		price  string
		fee    string
	}{
		{name: "Zero amount", amount: "0", price: "100"},
		{name: "Negative price", amount: "1", price: "-5"},
		{name: "Non-numeric amount", amount: "abc", price: "100"},
		{name: "Empty price", amount: "1", price: ""},
		{name: "Infinite amount", amount: "Inf", price: "1"},
		{name: "Bad fee", amount: "1", price: "1", fee: "lots"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRegistryWithCalculator(t, "calc-1")
			next, out, err := r.Apply(AddTrade{ID: "calc-1", Amount: tc.amount, Price: tc.price, FeePercent: tc.fee})

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.NotEmpty(t, verr.Message)
			assert.False(t, out.Changed)

			calc, _ := next.Get("calc-1")
			assert.Empty(t, calc.Data.Trades)
		})
	}
}

func TestAddTrade_ValidationMessage(t *testing.T) {
	r := newRegistryWithCalculator(t, "calc-1")
	_, _, err := r.Apply(AddTrade{ID: "calc-1", Amount: "0", Price: "1"})
	assert.EqualError(t, err, "Please enter valid positive numbers for Amount and Price.")
}

func TestAddTrade_UnknownCalculator(t *testing.T) {
	_, _, err := Registry{}.Apply(AddTrade{ID: "gone", Amount: "1", Price: "1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTrade(t *testing.T) {
	r := newRegistryWithCalculator(t, "calc-1")
	r, _ = apply(t, r, AddTrade{ID: "calc-1", Amount: "1", Price: "10"})
	r, _ = apply(t, r, AddTrade{ID: "calc-1", Amount: "2", Price: "20"})

	r, out := apply(t, r, DeleteTrade{ID: "calc-1", Index: 0})
	assert.True(t, out.Changed)
	require.NotNil(t, out.RemovedTrade)
	assert.Equal(t, float64(1), out.RemovedTrade.Amount)

	calc, _ := r.Get("calc-1")
	require.Len(t, calc.Data.Trades, 1)
	assert.Equal(t, float64(2), calc.Data.Trades[0].Amount)
}

func TestDeleteTrade_StaleIndexIsNoOp(t *testing.T) {
	r := newRegistryWithCalculator(t, "calc-1")
	r, _ = apply(t, r, AddTrade{ID: "calc-1", Amount: "1", Price: "10"})

	next, out, err := r.Apply(DeleteTrade{ID: "calc-1", Index: 5})
	require.NoError(t, err)
	assert.False(t, out.Changed)

	calc, _ := next.Get("calc-1")
	assert.Len(t, calc.Data.Trades, 1)
}

func TestSortTrades(t *testing.T) {
	r := newRegistryWithCalculator(t, "calc-1")
	for _, amount := range []string{"3", "1", "2"} {
		r, _ = apply(t, r, AddTrade{ID: "calc-1", Amount: amount, Price: "1"})
	}

	r, _ = apply(t, r, SortTrades{ID: "calc-1", Direction: ledger.Ascending})
	calc, _ := r.Get("calc-1")
	assert.Equal(t, []float64{1, 2, 3}, tradeAmounts(calc))

	r, _ = apply(t, r, SortTrades{ID: "calc-1", Direction: ledger.Descending})
	calc, _ = r.Get("calc-1")
	assert.Equal(t, []float64{3, 2, 1}, tradeAmounts(calc))
}

func TestCollapse(t *testing.T) {
	r := newRegistryWithCalculator(t, "calc-1")

	r, _ = apply(t, r, SetCollapsed{ID: "calc-1", Collapsed: true})
	calc, _ := r.Get("calc-1")
	assert.True(t, calc.Data.IsCollapsed)

	r, _ = apply(t, r, ToggleCollapsed{ID: "calc-1"})
	calc, _ = r.Get("calc-1")
	assert.False(t, calc.Data.IsCollapsed)
}

func TestRunCalculation(t *testing.T) {
	r := newRegistryWithCalculator(t, "calc-1")
	r, _ = apply(t, r, AddTrade{ID: "calc-1", Amount: "1", Price: "100", FeePercent: "0.1"})

	r, out := apply(t, r, RunCalculation{ID: "calc-1", Mode: models.ModeTargetPrice, Parameter: "120"})
	require.NotNil(t, out.Calculation)
	assert.InDelta(t, 19.78, out.Calculation.NetProfit, 1e-9)

	calc, _ := r.Get("calc-1")
	require.NotNil(t, calc.Data.LastCalculation)
	assert.Equal(t, models.LastCalculation{
		Mode:             models.ModeTargetPrice,
		InputValue:       120,
		ResultText:       "Profit: 19.78 USD, Profit Percentage: 19.78%",
		GrossProfit:      19.9,
		NetProfit:        19.78,
		TargetPrice:      120,
		TotalFees:        0.1,
		ProfitPercentage: 19.78,
	}, *calc.Data.LastCalculation)
}

func TestRunCalculation_UnparsableParameterIsZero(t *testing.T) {
	r := newRegistryWithCalculator(t, "calc-1")
	r, _ = apply(t, r, AddTrade{ID: "calc-1", Amount: "1", Price: "100", FeePercent: "0"})

	_, out := apply(t, r, RunCalculation{ID: "calc-1", Mode: models.ModePercentage, Parameter: "ten"})
	assert.Equal(t, float64(0), out.Calculation.Parameter)
	assert.InDelta(t, 100.1, out.Calculation.TargetPrice, 0.01)
}

func TestRunCalculation_UnknownMode(t *testing.T) {
	r := newRegistryWithCalculator(t, "calc-1")
	_, _, err := r.Apply(RunCalculation{ID: "calc-1", Mode: "sideways"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRunCalculation_OverflowKeepsPreviousSnapshot(t *testing.T) {
	r := newRegistryWithCalculator(t, "calc-1")
	r, _ = apply(t, r, AddTrade{ID: "calc-1", Amount: "10", Price: "1e307"})
	r, _ = apply(t, r, RunCalculation{ID: "calc-1", Mode: models.ModeTargetPrice, Parameter: "1"})

	next, _, err := r.Apply(RunCalculation{ID: "calc-1", Mode: models.ModeTargetPrice, Parameter: "1e308"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "parameter", verr.Field)
	calc, _ := next.Get("calc-1")
	require.NotNil(t, calc.Data.LastCalculation)
	assert.Equal(t, float64(1), calc.Data.LastCalculation.InputValue)
	assert.NotContains(t, calc.Data.LastCalculation.ResultText, "NaN")
}

func TestAddTrade_RejectsOverflowingLedger(t *testing.T) {
	r := newRegistryWithCalculator(t, "calc-1")
	r, _ = apply(t, r, AddTrade{ID: "calc-1", Amount: "1e200", Price: "1e100"})

	next, _, err := r.Apply(AddTrade{ID: "calc-1", Amount: "1e200", Price: "1e200"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, invalidTradeMessage, verr.Error())
	calc, _ := next.Get("calc-1")
	assert.Len(t, calc.Data.Trades, 1)
}

func TestNew_RejectsDuplicateIDs(t *testing.T) {
	_, err := New(models.Calculator{ID: "a"}, models.Calculator{ID: "a"})
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = New(models.Calculator{})
	assert.ErrorIs(t, err, ErrMissingID)
}

func tradeAmounts(c models.Calculator) []float64 {
	var out []float64
	for _, t := range c.Data.Trades {
		out = append(out, t.Amount)
	}
	return out
}
