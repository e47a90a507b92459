package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wonny/niftyquant/internal/api/handlers"
	"github.com/wonny/niftyquant/internal/contracts"
	"github.com/wonny/niftyquant/pkg/logger"
)

// RequestIDHeader request correlation header
const RequestIDHeader = "X-Request-ID"

// Handlers bundles the route handlers
type Handlers struct {
	Portfolio *handlers.PortfolioHandler
	Network   *handlers.NetworkHandler
	Forecast  *handlers.ForecastHandler
	Market    *handlers.MarketHandler
	Auth      *handlers.AuthHandler
}

// NewHandlers builds every handler over one analytics facade and one account service
func NewHandlers(service handlers.Analytics, accounts handlers.Authenticator, log *logger.Logger, secureCookies bool) Handlers {
	return Handlers{
		Portfolio: handlers.NewPortfolioHandler(service, log),
		Network:   handlers.NewNetworkHandler(service, log),
		Forecast:  handlers.NewForecastHandler(service, log),
		Market:    handlers.NewMarketHandler(service, log),
		Auth:      handlers.NewAuthHandler(accounts, log, secureCookies),
	}
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Accounts
	api.HandleFunc("/auth/signup", h.Auth.Signup).Methods("POST")
	api.HandleFunc("/auth/login", h.Auth.Login).Methods("POST")
	api.HandleFunc("/auth/logout", h.Auth.Logout).Methods("POST")
	api.Handle("/dashboard", h.Auth.Require(http.HandlerFunc(h.Auth.Dashboard))).Methods("GET")

	// Analytics
	api.HandleFunc("/portfolio/optimize", h.Portfolio.Optimize).Methods("POST")
	api.HandleFunc("/correlation/network", h.Network.Build).Methods("POST")
	api.HandleFunc("/correlation/plot/{key}", h.Network.Plot).Methods("GET")
	api.Handle("/predict", h.Auth.Require(http.HandlerFunc(h.Forecast.Predict))).Methods("POST") // 로그인 필요

	// Overviews
	api.HandleFunc("/index/overview", h.Market.IndexOverview).Methods("GET")
	api.HandleFunc("/stock/{symbol}", h.Market.Stock).Methods("GET")
	api.HandleFunc("/stocks/list", h.Market.StockList).Methods("GET")
	api.HandleFunc("/sector/overview", h.Market.SectorOverview).Methods("GET")

	// Apply middleware to matched routes (outermost first)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	// CORS and request ids wrap the whole router:
	// preflight, 404 and 405 replies never reach mux middleware
	withCORS := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	})(r)
	return requestIDMiddleware(withCORS)
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"service": "niftyquant-api",
	})
}

// requestIDMiddleware propagates or assigns X-Request-ID
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"request_id": r.Header.Get(RequestIDHeader),
				"duration":   time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error":      err,
						"path":       r.URL.Path,
						"request_id": r.Header.Get(RequestIDHeader),
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(handlers.ErrorResponse{
						Error: "Internal server error",
						Kind:  contracts.KindInternal,
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
