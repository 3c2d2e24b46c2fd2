package tracker

import (
	"net/url"
	"strings"

	"trade-profit-calculator-go/internal/models"
	"trade-profit-calculator-go/internal/profit"
)

// View is the display payload of one calculator.
type View struct {
	ID              string                  `json:"id"`
	Ticker          string                  `json:"ticker"`
	ChartURL        string                  `json:"chartUrl,omitempty"`
	Fee             float64                 `json:"fee"`
	IsCollapsed     bool                    `json:"isCollapsed"`
	Summary         profit.Summary          `json:"summary"`
	LastCalculation *models.LastCalculation `json:"lastCalculation"`
}

func (e *Engine) view(c models.Calculator) View {
	return View{
		ID:              c.ID,
		Ticker:          c.Data.Ticker,
		ChartURL:        chartURL(e.chartURL, c.Data.Ticker),
		Fee:             c.Data.Fee,
		IsCollapsed:     c.Data.IsCollapsed,
		Summary:         profit.Summarize(c.Data.Trades),
		LastCalculation: c.Data.LastCalculation,
	}
}

// TickerPlaceholder marks where the ticker goes in a chart URL template.
const TickerPlaceholder = "{ticker}"

// chartURL fills the ticker into the template. No ticker, no link.
func chartURL(template, ticker string) string {
	if ticker == "" || template == "" {
		return ""
	}
	return strings.ReplaceAll(template, TickerPlaceholder, url.QueryEscape(ticker))
}
