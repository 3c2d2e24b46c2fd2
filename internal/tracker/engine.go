// Package tracker owns the live calculator registry: it hydrates it from the
// blob store, applies commands one at a time and writes the whole registry
// back after every change.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"trade-profit-calculator-go/internal/binance"
	"trade-profit-calculator-go/internal/config"
	"trade-profit-calculator-go/internal/models"
	"trade-profit-calculator-go/internal/registry"
	"trade-profit-calculator-go/internal/store"
)

var (
	// ErrMarketDisabled is returned by CalculateAtMarket without a price client.
	ErrMarketDisabled = errors.New("market prices are disabled")
	// ErrNoTicker is returned by CalculateAtMarket for a calculator without a ticker.
	ErrNoTicker = errors.New("calculator has no ticker")
)

// Engine serializes access to the registry. Commands run one at a time.
type Engine struct {
	mu         sync.Mutex
	logger     *zap.Logger
	store      store.BlobStore
	key        string
	ids        IDGenerator
	prices     binance.PriceClient
	quoteAsset string
	chartURL   string

	reg registry.Registry
}

// NewEngine creates an engine with an empty registry; call Load before use.
// prices may be nil, which disables CalculateAtMarket.
func NewEngine(logger *zap.Logger, cfg *config.Config, st store.BlobStore, prices binance.PriceClient) *Engine {
	key := cfg.Storage.Key
	if key == "" {
		key = store.DefaultKey
	}
	log := logger.Named("tracker")
	chart := cfg.Calculator.ChartURL
	if chart != "" && !strings.Contains(chart, TickerPlaceholder) {
		log.Warn("Chart URL template has no ticker placeholder, chart links are disabled",
			zap.String("chart_url", chart),
			zap.String("placeholder", TickerPlaceholder),
		)
		chart = ""
	}
	return &Engine{
		logger:     log,
		store:      st,
		key:        key,
		ids:        UUIDGenerator{},
		prices:     prices,
		quoteAsset: strings.ToUpper(cfg.Market.QuoteAsset),
		chartURL:   chart,
	}
}

// Load hydrates the registry from the store. It never fails: an unreadable
// store gives an empty registry, and an absent or unparsable document gives
// one default calculator which is written back. Recovered entries are
// returned for display.
func (e *Engine) Load(ctx context.Context) []registry.Recovery {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := e.logger.With(zap.String("key", e.key))

	blob, ok, err := e.store.Get(ctx, e.key)
	if err != nil {
		log.Error("Failed to read calculators, starting empty", zap.Error(err))
		e.reg = registry.Registry{}
		return nil
	}

	if ok && len(blob) > 0 {
		reg, recoveries, err := registry.Decode(blob, e.ids.NewID)
		if err == nil {
			e.reg = reg
			for _, rec := range recoveries {
				log.Warn("Recovered calculator with defaults",
					zap.String("calculator_id", rec.ID),
					zap.Int("position", rec.Position),
					zap.Strings("fields", rec.Fields),
					zap.Int("dropped_trades", rec.DroppedTrades),
				)
			}
			if len(recoveries) > 0 {
				e.persist(ctx)
			}
			log.Info("Loaded calculators", zap.Int("count", e.reg.Len()))
			return recoveries
		}
		log.Warn("Stored calculators are unreadable, seeding a default", zap.Error(err))
	} else {
		log.Info("No stored calculators, seeding a default")
	}

	reg, _, err := registry.Registry{}.Apply(registry.CreateCalculator{ID: e.ids.NewID()})
	if err != nil {
		// Only reachable with a broken id generator.
		log.Error("Failed to seed default calculator", zap.Error(err))
		e.reg = registry.Registry{}
		return nil
	}
	e.reg = reg
	e.persist(ctx)
	return nil
}

// Dispatch applies cmd and persists the registry when it changed. A
// CreateCalculator without an id gets a fresh one. Validation and
// not-found errors are returned for the caller to report; store write
// failures are only logged and the in-memory state is kept.
func (e *Engine) Dispatch(ctx context.Context, cmd registry.Command) (registry.Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := cmd.(registry.CreateCalculator); ok && c.ID == "" {
		c.ID = e.ids.NewID()
		cmd = c
	}

	log := e.logger.With(zap.String("command", cmd.Name()))

	next, out, err := e.reg.Apply(cmd)
	if err != nil {
		var verr *registry.ValidationError
		switch {
		case errors.As(err, &verr):
			log.Info("Rejected input", zap.String("field", verr.Field), zap.Error(err))
		case errors.Is(err, registry.ErrNotFound), errors.Is(err, registry.ErrMissingID):
			log.Warn("Command references a missing calculator", zap.Error(err))
		default:
			log.Error("Command failed", zap.Error(err))
		}
		return out, err
	}

	e.reg = next
	if !out.Changed {
		if d, ok := cmd.(registry.DeleteTrade); ok {
			log.Warn("Ignoring stale trade index",
				zap.String("calculator_id", d.ID),
				zap.Int("index", d.Index),
			)
		}
		return out, nil
	}

	log.Debug("Applied command", zap.String("calculator_id", out.CalculatorID))
	e.persist(ctx)
	return out, nil
}

// CalculateAtMarket runs target-price mode at the current market price of
// the calculator's ticker against the configured quote asset.
func (e *Engine) CalculateAtMarket(ctx context.Context, id string) (registry.Outcome, float64, error) {
	if e.prices == nil {
		return registry.Outcome{}, 0, ErrMarketDisabled
	}

	e.mu.Lock()
	calc, ok := e.reg.Get(id)
	e.mu.Unlock()
	if !ok {
		return registry.Outcome{}, 0, fmt.Errorf("%w: %s", registry.ErrNotFound, id)
	}
	if calc.Data.Ticker == "" {
		return registry.Outcome{}, 0, ErrNoTicker
	}

	// The lock is not held across the network call.
	symbol := e.marketSymbol(calc.Data.Ticker)
	price, err := e.prices.GetTickerPrice(ctx, symbol)
	if err != nil {
		e.logger.Warn("Failed to fetch market price",
			zap.String("calculator_id", id),
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return registry.Outcome{}, 0, fmt.Errorf("failed to fetch price for %s: %w", symbol, err)
	}

	out, err := e.Dispatch(ctx, registry.RunCalculation{
		ID:        id,
		Mode:      models.ModeTargetPrice,
		Parameter: strconv.FormatFloat(price, 'f', -1, 64),
	})
	return out, price, err
}

func (e *Engine) marketSymbol(ticker string) string {
	if e.quoteAsset == "" || strings.HasSuffix(ticker, e.quoteAsset) {
		return ticker
	}
	return ticker + e.quoteAsset
}

// Registry returns the current registry value.
func (e *Engine) Registry() registry.Registry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg
}

// Views returns the display payload of every calculator, in order.
func (e *Engine) Views() []View {
	e.mu.Lock()
	defer e.mu.Unlock()
	calcs := e.reg.Calculators()
	views := make([]View, len(calcs))
	for i, c := range calcs {
		views[i] = e.view(c)
	}
	return views
}

// View returns the display payload of one calculator.
func (e *Engine) View(id string) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.reg.Get(id)
	if !ok {
		return View{}, fmt.Errorf("%w: %s", registry.ErrNotFound, id)
	}
	return e.view(c), nil
}

// persist writes the whole registry. Failures leave memory as the source of
// truth until the next successful write.
func (e *Engine) persist(ctx context.Context) {
	blob, err := registry.Encode(e.reg)
	if err != nil {
		e.logger.Error("Failed to encode calculators", zap.Error(err))
		return
	}
	if err := e.store.Put(ctx, e.key, blob); err != nil {
		e.logger.Error("Failed to save calculators, keeping them in memory",
			zap.String("key", e.key),
			zap.Error(err),
		)
	}
}
