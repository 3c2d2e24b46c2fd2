package profit

import "trade-profit-calculator-go/internal/models"

// TradeRow is the display form of one ledger entry.
type TradeRow struct {
	Position int    `json:"position"` // 1-based, ledger order
	Amount   string `json:"amount"`
	Price    string `json:"price"`
	Fee      string `json:"fee"`
}

// Summary holds the aggregate metrics shown under a calculator's trades.
// It is refreshed after every ledger change.
type Summary struct {
	AveragePrice string     `json:"averagePrice"`
	TotalAmount  string     `json:"totalAmount"`
	TotalCost    string     `json:"totalCost"`
	TotalFees    string     `json:"totalFees"`
	Trades       []TradeRow `json:"trades"`
}

// Summarize builds the display metrics for a ledger.
func Summarize(trades []models.Trade) Summary {
	totals := Aggregate(trades)
	s := Summary{
		AveragePrice: FormatPrice(totals.AveragePrice),
		TotalAmount:  FormatFixed(totals.TotalAmount, 2),
		TotalCost:    FormatFixed(totals.TotalCost, 2),
		TotalFees:    FormatFixed(totals.TotalFees, 2),
		Trades:       make([]TradeRow, 0, len(trades)),
	}
	for i, t := range trades {
		s.Trades = append(s.Trades, TradeRow{
			Position: i + 1,
			Amount:   FormatAmount(t.Amount),
			Price:    FormatPrice(t.Price),
			Fee:      FormatRate(t.Fee),
		})
	}
	return s
}
