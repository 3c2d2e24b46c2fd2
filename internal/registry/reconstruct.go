package registry

import (
	"math"

	"github.com/spf13/cast"

	"trade-profit-calculator-go/internal/models"
)

// Recovery reports the fields of one stored calculator that were missing or
// unusable and were replaced by defaults.
type Recovery struct {
	ID            string
	Position      int
	Fields        []string
	DroppedTrades int
}

// Recovered reports whether anything was defaulted.
func (r Recovery) Recovered() bool {
	return len(r.Fields) > 0 || r.DroppedTrades > 0
}

// Reconstruct turns one loosely-typed stored entry into a fully typed
// calculator. Each field is coerced independently; whatever cannot be
// coerced takes its default (ticker "", fee 0.1, no trades, no last
// calculation, expanded). The id is returned as found, possibly empty.
func Reconstruct(entry any) (models.Calculator, Recovery) {
	var rec Recovery
	obj, ok := entry.(map[string]any)
	if !ok {
		rec.Fields = append(rec.Fields, "entry")
		return models.Calculator{Data: models.NewCalculatorData()}, rec
	}

	id, _ := cast.ToStringE(obj["id"])
	data, ok := obj["data"].(map[string]any)
	if !ok {
		if _, present := obj["data"]; present {
			rec.Fields = append(rec.Fields, "data")
		}
		data = map[string]any{}
	}

	calc := models.Calculator{ID: id, Data: ReconstructData(data, &rec)}
	return calc, rec
}

// ReconstructData coerces the data object of a stored calculator.
func ReconstructData(data map[string]any, rec *Recovery) models.CalculatorData {
	out := models.NewCalculatorData()
	note := func(field string) {
		if rec != nil {
			rec.Fields = append(rec.Fields, field)
		}
	}

	if v, present := data["ticker"]; present && v != nil {
		if s, err := cast.ToStringE(v); err == nil {
			out.Ticker = NormalizeTicker(s)
		} else {
			note("ticker")
		}
	}

	if v, present := data["fee"]; !present || v == nil {
		note("fee")
	} else if fee, ok := toFinite(v); ok && validFeePercent(fee) {
		out.Fee = fee
	} else {
		note("fee")
	}

	switch trades := data["trades"].(type) {
	case []any:
		for _, t := range trades {
			trade, ok := reconstructTrade(t)
			if !ok {
				if rec != nil {
					rec.DroppedTrades++
				}
				continue
			}
			out.Trades = append(out.Trades, trade)
		}
	default:
		note("trades")
	}

	if v, present := data["lastCalculation"]; present && v != nil {
		if lc, ok := reconstructLastCalculation(v); ok {
			out.LastCalculation = &lc
		} else {
			note("lastCalculation")
		}
	}

	if v, present := data["isCollapsed"]; present && v != nil {
		if b, err := cast.ToBoolE(v); err == nil {
			out.IsCollapsed = b
		} else {
			note("isCollapsed")
		}
	}

	return out
}

func reconstructTrade(v any) (models.Trade, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return models.Trade{}, false
	}
	amount, okAmount := toFinite(obj["amount"])
	price, okPrice := toFinite(obj["price"])
	if !okAmount || !okPrice || amount <= 0 || price <= 0 {
		return models.Trade{}, false
	}
	fee, ok := toFinite(obj["fee"])
	if !ok || fee < 0 {
		fee = 0
	}
	return models.Trade{Amount: amount, Price: price, Fee: fee}, true
}

// reconstructLastCalculation also reads the older key names
// type/value/result/profit.
func reconstructLastCalculation(v any) (models.LastCalculation, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return models.LastCalculation{}, false
	}
	rawMode, _ := cast.ToStringE(first(obj, "mode", "type"))
	mode, ok := models.ParseCalculationMode(rawMode)
	if !ok {
		return models.LastCalculation{}, false
	}

	lc := models.LastCalculation{Mode: mode}
	lc.InputValue, _ = toFinite(first(obj, "inputValue", "value"))
	lc.ResultText, _ = cast.ToStringE(first(obj, "resultText", "result"))
	lc.GrossProfit, _ = toFinite(first(obj, "grossProfit", "profit"))
	lc.NetProfit, _ = toFinite(obj["netProfit"])
	lc.TargetPrice, _ = toFinite(obj["targetPrice"])
	lc.TotalFees, _ = toFinite(obj["totalFees"])
	lc.ProfitPercentage, _ = toFinite(obj["profitPercentage"])
	return lc, true
}

func first(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// toFinite coerces numbers and numeric strings. nil, NaN and Inf fail.
func toFinite(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
