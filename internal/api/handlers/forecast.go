package handlers

import (
	"net/http"
	"strings"

	"github.com/wonny/niftyquant/internal/contracts"
	"github.com/wonny/niftyquant/pkg/logger"
)

// ForecastHandler handles price forecasts
type ForecastHandler struct {
	service Analytics
	logger  *logger.Logger
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(service Analytics, log *logger.Logger) *ForecastHandler {
	return &ForecastHandler{
		service: service,
		logger:  log,
	}
}

// PredictRequest request body
type PredictRequest struct {
	Symbol string `json:"symbol"`
	Days   int    `json:"days"`
	Plot   bool   `json:"plot"`
}

// Predict returns a multi-day forecast path
// POST /api/predict
func (h *ForecastHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Symbol = strings.TrimSpace(req.Symbol)
	if req.Symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required", contracts.KindInvalidInput)
		return
	}

	report, err := h.service.Forecast(r.Context(), req.Symbol, req.Days, req.Plot)
	if err != nil {
		respondFailure(w, h.logger, "prediction", err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
