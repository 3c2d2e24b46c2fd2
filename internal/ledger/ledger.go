package ledger

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"trade-profit-calculator-go/internal/models"
)

// Direction is the order used by Sort.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts "asc"/"desc" and their long forms.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending", "up":
		return Ascending, nil
	case "desc", "descending", "down":
		return Descending, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// Ledger is the ordered list of trades owned by one calculator.
// Insertion order is kept until Sort is called explicitly.
type Ledger struct {
	trades []models.Trade
}

// New returns a ledger holding a copy of trades.
func New(trades []models.Trade) *Ledger {
	l := &Ledger{trades: make([]models.Trade, len(trades))}
	copy(l.trades, trades)
	return l
}

// Append adds a trade at the end. Validation is the caller's job.
func (l *Ledger) Append(t models.Trade) {
	l.trades = append(l.trades, t)
}

// RemoveAt deletes the trade at index and returns it. An invalid ledger or
// index is a no-op and reports false.
func (l *Ledger) RemoveAt(index int) (models.Trade, bool) {
	if l == nil || index < 0 || index >= len(l.trades) {
		return models.Trade{}, false
	}
	removed := l.trades[index]
	l.trades = slices.Delete(l.trades, index, index+1)
	return removed, true
}

// Sort reorders the trades in place by amount. Ties keep no particular order.
// An unknown direction leaves the ledger untouched.
func (l *Ledger) Sort(dir Direction) {
	if l == nil {
		return
	}
	switch dir {
	case Ascending:
		slices.SortFunc(l.trades, func(a, b models.Trade) int { return cmp.Compare(a.Amount, b.Amount) })
	case Descending:
		slices.SortFunc(l.trades, func(a, b models.Trade) int { return cmp.Compare(b.Amount, a.Amount) })
	}
}

// Len returns the number of trades.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.trades)
}

// Trades returns a copy of the trades in ledger order. Never nil.
func (l *Ledger) Trades() []models.Trade {
	if l == nil {
		return []models.Trade{}
	}
	out := make([]models.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}
