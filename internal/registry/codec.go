package registry

import (
	"encoding/json"
	"fmt"

	"trade-profit-calculator-go/internal/models"
)

// Encode serializes the whole registry as an ordered array of
// {id, data} documents.
func Encode(r Registry) ([]byte, error) {
	calcs := r.calculators
	if calcs == nil {
		calcs = []models.Calculator{}
	}
	b, err := json.Marshal(calcs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode registry: %w", err)
	}
	return b, nil
}

// Decode parses a stored registry. Each entry is reconstructed field by
// field; entries without a usable id get one from newID. The returned
// recoveries list every entry that needed defaults.
//
// An error means the document as a whole could not be parsed.
func Decode(blob []byte, newID func() string) (Registry, []Recovery, error) {
	var raw []any
	if err := json.Unmarshal(blob, &raw); err != nil {
		return Registry{}, nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	if raw == nil {
		return Registry{}, nil, fmt.Errorf("failed to parse registry: document is not an array")
	}

	r := Registry{calculators: make([]models.Calculator, 0, len(raw))}
	var recoveries []Recovery
	for i, entry := range raw {
		calc, rec := Reconstruct(entry)
		if calc.ID == "" || r.index(calc.ID) >= 0 {
			if calc.ID != "" {
				rec.Fields = append(rec.Fields, "id (duplicate "+calc.ID+")")
			} else {
				rec.Fields = append(rec.Fields, "id")
			}
			calc.ID = newID()
		}
		rec.ID = calc.ID
		rec.Position = i
		if rec.Recovered() {
			recoveries = append(recoveries, rec)
		}
		r.calculators = append(r.calculators, calc)
	}
	return r, recoveries, nil
}
