package models

// DefaultFee is the sell-side fee, in percent, given to new calculators.
const DefaultFee = 0.1

// CalculatorData is the persisted state of one calculator.
type CalculatorData struct {
	Ticker          string           `json:"ticker"`
	Fee             float64          `json:"fee"` // percent, e.g. 0.1 for 0.1%
	Trades          []Trade          `json:"trades"`
	LastCalculation *LastCalculation `json:"lastCalculation"`
	IsCollapsed     bool             `json:"isCollapsed"`
}

// NewCalculatorData returns the state of a freshly created calculator.
func NewCalculatorData() CalculatorData {
	return CalculatorData{
		Fee:    DefaultFee,
		Trades: []Trade{},
	}
}

// SellFeeRate converts the percentage fee into a fractional rate.
func (d CalculatorData) SellFeeRate() float64 {
	return d.Fee / 100
}

// Clone returns a deep copy. The trades slice of the copy is never nil.
func (d CalculatorData) Clone() CalculatorData {
	out := d
	out.Trades = make([]Trade, len(d.Trades))
	copy(out.Trades, d.Trades)
	if d.LastCalculation != nil {
		lc := *d.LastCalculation
		out.LastCalculation = &lc
	}
	return out
}

// Calculator is one independent tracking instance, addressed by a stable id.
type Calculator struct {
	ID   string         `json:"id"`
	Data CalculatorData `json:"data"`
}

// Clone returns a deep copy of the calculator.
func (c Calculator) Clone() Calculator {
	return Calculator{ID: c.ID, Data: c.Data.Clone()}
}
