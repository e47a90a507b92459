package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/niftyquant/pkg/logger"
)

// MarketHandler handles index/stock/sector overviews
type MarketHandler struct {
	service Analytics
	logger  *logger.Logger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(service Analytics, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		service: service,
		logger:  log,
	}
}

// IndexOverview GET /api/index/overview
func (h *MarketHandler) IndexOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Index(r.Context())
	if err != nil {
		respondFailure(w, h.logger, "index overview", err)
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

// Stock GET /api/stock/{symbol}
func (h *MarketHandler) Stock(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	analysis, err := h.service.Stock(r.Context(), symbol)
	if err != nil {
		respondFailure(w, h.logger, "stock analysis", err)
		return
	}
	respondJSON(w, http.StatusOK, analysis)
}

// StockList GET /api/stocks/list
func (h *MarketHandler) StockList(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.service.Universe(r.Context())
	if err != nil {
		respondFailure(w, h.logger, "stock list", err)
		return
	}
	respondJSON(w, http.StatusOK, stocks)
}

// SectorOverview GET /api/sector/overview
func (h *MarketHandler) SectorOverview(w http.ResponseWriter, r *http.Request) {
	perf, err := h.service.Sector(r.Context())
	if err != nil {
		respondFailure(w, h.logger, "sector overview", err)
		return
	}
	respondJSON(w, http.StatusOK, perf)
}
