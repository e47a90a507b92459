package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/wonny/niftyquant/internal/analytics"
	"github.com/wonny/niftyquant/internal/artifact"
	"github.com/wonny/niftyquant/internal/auth"
	"github.com/wonny/niftyquant/internal/contracts"
	"github.com/wonny/niftyquant/internal/dataset"
	"github.com/wonny/niftyquant/pkg/logger"
)

// Analytics is the analytics facade the handlers call
type Analytics interface {
	Optimize(ctx context.Context, symbols []string, targetReturn float64) (*analytics.PortfolioReport, error)
	Network(ctx context.Context, symbols []string, threshold *float64) (*analytics.NetworkReport, error)
	Plot(ctx context.Context, key string) ([]byte, error)
	Forecast(ctx context.Context, symbol string, horizon int, plot bool) (*analytics.ForecastReport, error)
	Sector(ctx context.Context) (contracts.SectorPerformance, error)
	Index(ctx context.Context) (*contracts.IndexOverview, error)
	Stock(ctx context.Context, symbol string) (*contracts.StockAnalysis, error)
	Universe(ctx context.Context) ([]contracts.StockInfo, error)
}

// Transport-only error kinds
const (
	KindNotFound     = "NOT_FOUND"
	KindUnavailable  = "UNAVAILABLE"
	KindUnauthorized = "UNAUTHORIZED"
	KindConflict     = "CONFLICT"
)

// ErrorResponse {"error": ..., "kind": ...}
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message, kind string) {
	respondJSON(w, status, ErrorResponse{Error: message, Kind: kind})
}

// classify maps an analytics error to (HTTP status, kind)
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, artifact.ErrNotFound):
		return http.StatusNotFound, KindNotFound
	case errors.Is(err, dataset.ErrNotLoaded):
		return http.StatusServiceUnavailable, KindUnavailable
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, KindUnauthorized
	case errors.Is(err, auth.ErrEmailExists):
		return http.StatusConflict, KindConflict
	}

	kind := contracts.ErrorKind(err)
	switch kind {
	case contracts.KindSymbolNotFound, contracts.KindModelNotAvailable:
		return http.StatusNotFound, kind
	case contracts.KindInvalidInput, contracts.KindEmptyPriceData, contracts.KindInsufficientData:
		return http.StatusBadRequest, kind
	case contracts.KindConvergence, contracts.KindInsufficientHistory:
		return http.StatusUnprocessableEntity, kind
	default:
		return http.StatusInternalServerError, kind
	}
}

// respondFailure logs and writes an analytics error
func respondFailure(w http.ResponseWriter, log *logger.Logger, op string, err error) {
	status, kind := classify(err)

	entry := log.WithError(err).WithFields(map[string]interface{}{
		"op":     op,
		"kind":   kind,
		"status": status,
	})
	message := err.Error()
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
		if status == http.StatusInternalServerError {
			message = fmt.Sprintf("%s failed", op)
		}
	} else {
		entry.Debug("Request rejected")
	}

	respondError(w, status, message, kind)
}

// decodeJSON decodes the request body into dst (400 on failure)
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), contracts.KindInvalidInput)
		return false
	}
	return true
}
