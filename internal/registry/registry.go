package registry

import (
	"fmt"

	"trade-profit-calculator-go/internal/models"
	"trade-profit-calculator-go/internal/profit"
)

// Registry is the ordered set of calculators. Order is creation order.
//
// A Registry value is never mutated in place: Apply returns the next state
// and leaves the receiver untouched.
type Registry struct {
	calculators []models.Calculator
}

// New builds a registry from calculators, in order. Ids must be unique.
func New(calculators ...models.Calculator) (Registry, error) {
	r := Registry{calculators: make([]models.Calculator, 0, len(calculators))}
	seen := make(map[string]struct{}, len(calculators))
	for _, c := range calculators {
		if c.ID == "" {
			return Registry{}, ErrMissingID
		}
		if _, dup := seen[c.ID]; dup {
			return Registry{}, fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
		}
		seen[c.ID] = struct{}{}
		r.calculators = append(r.calculators, c.Clone())
	}
	return r, nil
}

// Len returns the number of calculators.
func (r Registry) Len() int {
	return len(r.calculators)
}

// Calculators returns deep copies of all calculators, in order.
func (r Registry) Calculators() []models.Calculator {
	out := make([]models.Calculator, len(r.calculators))
	for i, c := range r.calculators {
		out[i] = c.Clone()
	}
	return out
}

// Get returns a copy of the calculator with the given id.
func (r Registry) Get(id string) (models.Calculator, bool) {
	i := r.index(id)
	if i < 0 {
		return models.Calculator{}, false
	}
	return r.calculators[i].Clone(), true
}

// IDs returns the calculator ids in order.
func (r Registry) IDs() []string {
	ids := make([]string, len(r.calculators))
	for i, c := range r.calculators {
		ids[i] = c.ID
	}
	return ids
}

// Outcome describes what a command did, for the display layer and for the
// caller deciding whether to persist.
type Outcome struct {
	CalculatorID string
	// Changed is true when the registry was mutated and must be saved.
	Changed bool
	// Summary is set when the calculator's ledger changed.
	Summary *profit.Summary
	// Calculation is set by RunCalculation.
	Calculation *profit.Result
	// RemovedTrade is set by DeleteTrade.
	RemovedTrade *models.Trade
}

// Apply runs cmd against a copy of the registry. On error the returned
// registry is r itself.
func (r Registry) Apply(cmd Command) (Registry, Outcome, error) {
	next := r.clone()
	out, err := cmd.apply(&next)
	if err != nil {
		return r, Outcome{}, err
	}
	return next, out, nil
}

func (r Registry) clone() Registry {
	return Registry{calculators: r.Calculators()}
}

func (r Registry) index(id string) int {
	for i, c := range r.calculators {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// lookup returns a pointer into r for in-place edits during apply.
func (r *Registry) lookup(id string) (*models.Calculator, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	i := r.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &r.calculators[i], nil
}
