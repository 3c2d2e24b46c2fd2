package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"trade-profit-calculator-go/internal/binance"
	"trade-profit-calculator-go/internal/ledger"
	"trade-profit-calculator-go/internal/models"
	"trade-profit-calculator-go/internal/profit"
	"trade-profit-calculator-go/internal/registry"
	"trade-profit-calculator-go/internal/tracker"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log    *zap.Logger
	engine *tracker.Engine
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, engine *tracker.Engine) *APIHandler {
	return &APIHandler{log: log, engine: engine}
}

// RegisterRoutes mounts the calculator endpoints.
func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthHandler)

	r.Route("/api/calculators", func(r chi.Router) {
		r.Get("/", h.ListHandler)
		r.Post("/", h.CreateHandler)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetHandler)
			r.Delete("/", h.DeleteHandler)
			r.Put("/ticker", h.TickerHandler)
			r.Put("/fee", h.FeeHandler)
			r.Put("/collapsed", h.CollapsedHandler)
			r.Post("/trades", h.AddTradeHandler)
			r.Delete("/trades/{index}", h.DeleteTradeHandler)
			r.Post("/trades/sort", h.SortHandler)
			r.Post("/calculation", h.CalculationHandler)
			r.Post("/calculation/market", h.MarketCalculationHandler)
		})
	})
}

// CalculationResponse is a profit projection with its display text.
type CalculationResponse struct {
	profit.Result
	Text        string  `json:"text"`
	MarketPrice float64 `json:"marketPrice,omitempty"`
}

// MutationResponse is returned by every endpoint that changes a calculator.
type MutationResponse struct {
	Changed     bool                 `json:"changed"`
	Calculator  *tracker.View        `json:"calculator,omitempty"`
	Calculation *CalculationResponse `json:"calculation,omitempty"`
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"calculators": h.engine.Registry().Len(),
		"time":        time.Now().UTC(),
	})
}

func (h *APIHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Views())
}

func (h *APIHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	v, err := h.engine.View(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *APIHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ticker string `json:"ticker"`
	}
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	data := models.NewCalculatorData()
	data.Ticker = req.Ticker
	out, err := h.engine.Dispatch(r.Context(), registry.CreateCalculator{Data: &data})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, out, nil)
}

func (h *APIHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.engine.Dispatch(r.Context(), registry.DeleteCalculator{ID: id}); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) TickerHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ticker string `json:"ticker"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.dispatch(w, r, registry.SetTicker{ID: chi.URLParam(r, "id"), Raw: req.Ticker})
}

func (h *APIHandler) FeeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Fee any `json:"fee"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.dispatch(w, r, registry.SetFee{ID: chi.URLParam(r, "id"), Raw: cast.ToString(req.Fee)})
}

func (h *APIHandler) CollapsedHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collapsed *bool `json:"collapsed"`
	}
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if req.Collapsed == nil {
		h.dispatch(w, r, registry.ToggleCollapsed{ID: id})
		return
	}
	h.dispatch(w, r, registry.SetCollapsed{ID: id, Collapsed: *req.Collapsed})
}

// AddTradeHandler accepts numbers or numeric strings. Fee is a percentage;
// when omitted the calculator's fee applies.
func (h *APIHandler) AddTradeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount any `json:"amount"`
		Price  any `json:"price"`
		Fee    any `json:"fee"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.dispatch(w, r, registry.AddTrade{
		ID:         chi.URLParam(r, "id"),
		Amount:     cast.ToString(req.Amount),
		Price:      cast.ToString(req.Price),
		FeePercent: cast.ToString(req.Fee),
	})
}

// DeleteTradeHandler removes the trade at a 0-based index. A stale index
// answers 200 with changed=false.
func (h *APIHandler) DeleteTradeHandler(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "trade index must be an integer")
		return
	}
	h.dispatch(w, r, registry.DeleteTrade{ID: chi.URLParam(r, "id"), Index: index})
}

func (h *APIHandler) SortHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string `json:"direction"`
	}
	if !decode(w, r, &req) {
		return
	}
	dir, err := ledger.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.dispatch(w, r, registry.SortTrades{ID: chi.URLParam(r, "id"), Direction: dir})
}

func (h *APIHandler) CalculationHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode  string `json:"mode"`
		Value any    `json:"value"`
	}
	if !decode(w, r, &req) {
		return
	}
	mode, ok := models.ParseCalculationMode(req.Mode)
	if !ok {
		writeError(w, http.StatusBadRequest, "mode must be percentage or targetPrice")
		return
	}
	h.dispatch(w, r, registry.RunCalculation{
		ID:        chi.URLParam(r, "id"),
		Mode:      mode,
		Parameter: cast.ToString(req.Value),
	})
}

func (h *APIHandler) MarketCalculationHandler(w http.ResponseWriter, r *http.Request) {
	out, price, err := h.engine.CalculateAtMarket(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, out, &price)
}

func (h *APIHandler) dispatch(w http.ResponseWriter, r *http.Request, cmd registry.Command) {
	out, err := h.engine.Dispatch(r.Context(), cmd)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, out, nil)
}

func (h *APIHandler) respond(w http.ResponseWriter, status int, out registry.Outcome, marketPrice *float64) {
	resp := MutationResponse{Changed: out.Changed}
	if v, err := h.engine.View(out.CalculatorID); err == nil {
		resp.Calculator = &v
	}
	if out.Calculation != nil {
		resp.Calculation = &CalculationResponse{Result: *out.Calculation, Text: out.Calculation.Text()}
		if marketPrice != nil {
			resp.Calculation.MarketPrice = *marketPrice
		}
	}
	writeJSON(w, status, resp)
}

// writeError maps engine errors onto status codes.
func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	var verr *registry.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, registry.ErrMissingID):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, registry.ErrDuplicateID):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, tracker.ErrNoTicker), errors.Is(err, binance.ErrUnknownSymbol):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, tracker.ErrMarketDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error("Request failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// writeJSON marshals v before writing the header so an encoding failure
// still reaches the client as a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": "failed to encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
