package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-profit-calculator-go/internal/models"
)

func amounts(l *Ledger) []float64 {
	var out []float64
	for _, t := range l.Trades() {
		out = append(out, t.Amount)
	}
	return out
}

func TestLedger_AppendKeepsInsertionOrder(t *testing.T) {
	l := New(nil)
	l.Append(models.Trade{Amount: 3, Price: 10, Fee: 0.001})
	l.Append(models.Trade{Amount: 1, Price: 20, Fee: 0.001})
	l.Append(models.Trade{Amount: 2, Price: 30, Fee: 0.001})

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []float64{3, 1, 2}, amounts(l))
}

func TestLedger_NewCopiesInput(t *testing.T) {
	in := []models.Trade{{Amount: 1, Price: 1}}
	l := New(in)
	in[0].Amount = 99

	assert.Equal(t, []float64{1}, amounts(l))
}

func TestLedger_RemoveAt(t *testing.T) {
	testCases := []struct {
		name        string
		index       int
		wantRemoved bool
		wantAmounts []float64
	}{
		{name: "First", index: 0, wantRemoved: true, wantAmounts: []float64{2, 3}},
		{name: "Middle", index: 1, wantRemoved: true, wantAmounts: []float64{1, 3}},
		{name: "Last", index: 2, wantRemoved: true, wantAmounts: []float64{1, 2}},
		{name: "Negative index is a no-op", index: -1, wantAmounts: []float64{1, 2, 3}},
		{name: "Out of range is a no-op", index: 3, wantAmounts: []float64{1, 2, 3}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := New([]models.Trade{{Amount: 1}, {Amount: 2}, {Amount: 3}})
			removed, ok := l.RemoveAt(tc.index)

			assert.Equal(t, tc.wantRemoved, ok)
			if ok {
				assert.Equal(t, float64(tc.index+1), removed.Amount)
			}
			assert.Equal(t, tc.wantAmounts, amounts(l))
		})
	}
}

func TestLedger_NilIsSafe(t *testing.T) {
	var l *Ledger
	_, ok := l.RemoveAt(0)
	assert.False(t, ok)
	assert.Equal(t, 0, l.Len())
	assert.NotNil(t, l.Trades())
	l.Sort(Ascending)
}

func TestLedger_Sort(t *testing.T) {
	l := New([]models.Trade{{Amount: 2.5}, {Amount: 0.1}, {Amount: 10}, {Amount: 1}})

	l.Sort(Ascending)
	asc := amounts(l)
	assert.Equal(t, []float64{0.1, 1, 2.5, 10}, asc)

	l.Sort(Descending)
	desc := amounts(l)
	assert.Equal(t, []float64{10, 2.5, 1, 0.1}, desc)

	for i := range asc {
		assert.Equal(t, asc[i], desc[len(desc)-1-i])
	}
}

func TestLedger_SortUnknownDirectionIsNoOp(t *testing.T) {
	l := New([]models.Trade{{Amount: 2}, {Amount: 1}})
	l.Sort(Direction("sideways"))
	assert.Equal(t, []float64{2, 1}, amounts(l))
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection(" ASC ")
	require.NoError(t, err)
	assert.Equal(t, Ascending, d)

	d, err = ParseDirection("descending")
	require.NoError(t, err)
	assert.Equal(t, Descending, d)

	_, err = ParseDirection("random")
	assert.Error(t, err)
}
