package models

// Trade is a single buy entry in a calculator's ledger.
// Fee is a fractional rate (0.001 for 0.1%) applied to the trade notional at buy time.
type Trade struct {
	Amount float64 `json:"amount"`
	Price  float64 `json:"price"`
	Fee    float64 `json:"fee"`
}
