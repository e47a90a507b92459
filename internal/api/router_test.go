package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wonny/niftyquant/internal/analytics"
	"github.com/wonny/niftyquant/internal/api/handlers"
	"github.com/wonny/niftyquant/internal/artifact"
	"github.com/wonny/niftyquant/internal/auth"
	"github.com/wonny/niftyquant/internal/contracts"
	"github.com/wonny/niftyquant/internal/dataset"
	"github.com/wonny/niftyquant/pkg/config"
	"github.com/wonny/niftyquant/pkg/logger"
)

// fakeAnalytics 요청 인자를 기록하고 고정 응답 / 에러 반환
type fakeAnalytics struct {
	err        error
	panic      bool
	symbols    []string
	threshold  *float64
	horizon    int
	plot       bool
	lastSymbol string
}

func (f *fakeAnalytics) Optimize(_ context.Context, symbols []string, target float64) (*analytics.PortfolioReport, error) {
	if f.panic {
		panic("boom")
	}
	f.symbols = symbols
	if f.err != nil {
		return nil, f.err
	}
	return &analytics.PortfolioReport{
		Symbols:        symbols,
		TargetReturn:   target,
		WeightsPercent: map[string]float64{"TCS": 60, "INFY": 40},
		MetricsPercent: map[string]float64{"volatility": 18.5},
	}, nil
}

func (f *fakeAnalytics) Network(_ context.Context, symbols []string, threshold *float64) (*analytics.NetworkReport, error) {
	f.symbols, f.threshold = symbols, threshold
	if f.err != nil {
		return nil, f.err
	}
	return &analytics.NetworkReport{
		NetworkResult: &contracts.NetworkResult{
			Graph: contracts.CorrelationGraph{Threshold: 0.6},
			Centrality: map[string]map[string]float64{
				contracts.CentralityDegree: {"TCS": 1},
			},
		},
		PlotKey: "network-abc",
	}, nil
}

func (f *fakeAnalytics) Plot(_ context.Context, key string) ([]byte, error) {
	if key != "network-abc" {
		return nil, fmt.Errorf("%w: %s", artifact.ErrNotFound, key)
	}
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func (f *fakeAnalytics) Forecast(_ context.Context, symbol string, horizon int, plot bool) (*analytics.ForecastReport, error) {
	f.lastSymbol, f.horizon, f.plot = symbol, horizon, plot
	if f.err != nil {
		return nil, f.err
	}
	return &analytics.ForecastReport{
		Symbol:      symbol,
		Horizon:     horizon,
		Predictions: []contracts.HistoryPoint{{Date: "2024-01-08", Price: 3712.5}},
	}, nil
}

func (f *fakeAnalytics) Sector(context.Context) (contracts.SectorPerformance, error) {
	return contracts.SectorPerformance{"Information Technology": 12.34}, f.err
}

func (f *fakeAnalytics) Index(context.Context) (*contracts.IndexOverview, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &contracts.IndexOverview{Stats: contracts.IndexStats{LastClose: 21517.35}}, nil
}

func (f *fakeAnalytics) Stock(_ context.Context, symbol string) (*contracts.StockAnalysis, error) {
	f.lastSymbol = symbol
	if f.err != nil {
		return nil, f.err
	}
	return &contracts.StockAnalysis{Symbol: symbol}, nil
}

func (f *fakeAnalytics) Universe(context.Context) ([]contracts.StockInfo, error) {
	return []contracts.StockInfo{{Symbol: "TCS", Company: "Tata Consultancy Services", Sector: "Information Technology"}}, f.err
}

func newTestRouter(f *fakeAnalytics) http.Handler {
	log := logger.Nop()
	accounts, err := auth.NewService(auth.Config{
		Secret:     []byte("router-test-secret"),
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, auth.NewMemoryUserStore(), zerolog.Nop())
	if err != nil {
		panic(err)
	}
	return NewRouter(NewHandlers(f, accounts, log, false), log)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return doAs(t, h, "", method, path, body)
}

// doAs sends the request with a bearer token (empty = anonymous)
func doAs(t *testing.T, h http.Handler, token, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// loginToken signs up a fixed account and returns its bearer token
func loginToken(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/auth/signup",
		`{"name":"Asha","email":"asha@example.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/auth/login", `{"email":"asha@example.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token, _ := decode(t, rec)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRouter_Health(t *testing.T) {
	rec := do(t, newTestRouter(&fakeAnalytics{}), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRouter_RequestIDPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	newTestRouter(&fakeAnalytics{}).ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRouter_RequestIDOnUnmatchedRoutes(t *testing.T) {
	router := newTestRouter(&fakeAnalytics{})

	notFound := do(t, router, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, notFound.Code)
	assert.NotEmpty(t, notFound.Header().Get(RequestIDHeader))

	notAllowed := do(t, router, http.MethodGet, "/api/predict", "")
	assert.Equal(t, http.StatusMethodNotAllowed, notAllowed.Code)
	assert.NotEmpty(t, notAllowed.Header().Get(RequestIDHeader))
}

func TestRouter_CORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/portfolio/optimize", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	newTestRouter(&fakeAnalytics{}).ServeHTTP(rec, req)

	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Optimize(t *testing.T) {
	f := &fakeAnalytics{}
	router := newTestRouter(f)

	rec := do(t, router, http.MethodPost, "/api/portfolio/optimize", `{"symbols":["TCS","INFY"],"target_return":0.12}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 60.0, body["weights_percent"].(map[string]interface{})["TCS"])
	assert.Contains(t, body, "metrics_percent")
	assert.Equal(t, []string{"TCS", "INFY"}, f.symbols)

	rec = do(t, router, http.MethodPost, "/api/portfolio/optimize", `{"symbols":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, contracts.KindInvalidInput, decode(t, rec)["kind"])

	rec = do(t, router, http.MethodPost, "/api/portfolio/optimize", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/portfolio/optimize", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   string
	}{
		{fmt.Errorf("%w: WIPRO", contracts.ErrSymbolNotFound), http.StatusNotFound, contracts.KindSymbolNotFound},
		{fmt.Errorf("%w: x", contracts.ErrEmptyPriceData), http.StatusBadRequest, contracts.KindEmptyPriceData},
		{fmt.Errorf("%w: x", contracts.ErrInsufficientData), http.StatusBadRequest, contracts.KindInsufficientData},
		{fmt.Errorf("%w: x", contracts.ErrConvergence), http.StatusUnprocessableEntity, contracts.KindConvergence},
		{dataset.ErrNotLoaded, http.StatusServiceUnavailable, handlers.KindUnavailable},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError, contracts.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			rec := do(t, newTestRouter(&fakeAnalytics{err: tt.err}),
				http.MethodPost, "/api/portfolio/optimize", `{"symbols":["TCS"]}`)

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.kind, body["kind"])
			assert.NotEmpty(t, body["error"])
		})
	}

	rec := do(t, newTestRouter(&fakeAnalytics{err: fmt.Errorf("secret dsn leaked")}),
		http.MethodPost, "/api/portfolio/optimize", `{"symbols":["TCS"]}`)
	assert.NotContains(t, rec.Body.String(), "secret", "internal errors are not echoed")
}

func TestRouter_NetworkAndPlot(t *testing.T) {
	f := &fakeAnalytics{}
	router := newTestRouter(f)

	rec := do(t, router, http.MethodPost, "/api/correlation/network", `{"symbols":["TCS","INFY"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "network-abc", body["plot_key"])
	assert.Contains(t, body, "graph")
	assert.Contains(t, body, "centrality")
	assert.Nil(t, f.threshold, "omitted threshold uses the default")

	rec = do(t, router, http.MethodPost, "/api/correlation/network", `{"symbols":["TCS","INFY"],"threshold":0.8}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.threshold)
	assert.Equal(t, 0.8, *f.threshold)

	rec = do(t, router, http.MethodGet, "/api/correlation/plot/network-abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte{0x89, 'P', 'N', 'G'}))

	rec = do(t, router, http.MethodGet, "/api/correlation/plot/network-zzz", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, handlers.KindNotFound, decode(t, rec)["kind"])
}

func TestRouter_Predict(t *testing.T) {
	f := &fakeAnalytics{}
	router := newTestRouter(f)
	token := loginToken(t, router)

	rec := doAs(t, router, token, http.MethodPost, "/api/predict", `{"symbol":" TCS ","days":5,"plot":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 5.0, body["forecast_days"])
	assert.Len(t, body["predictions"], 1)
	assert.Equal(t, "TCS", f.lastSymbol)
	assert.True(t, f.plot)

	rec = doAs(t, router, token, http.MethodPost, "/api/predict", `{"days":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.err = fmt.Errorf("%w: TCS", contracts.ErrModelNotAvailable)
	rec = doAs(t, router, token, http.MethodPost, "/api/predict", `{"symbol":"TCS","days":5}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, contracts.KindModelNotAvailable, decode(t, rec)["kind"])

	f.err = fmt.Errorf("%w: need 60", contracts.ErrInsufficientHistory)
	rec = doAs(t, router, token, http.MethodPost, "/api/predict", `{"symbol":"TCS","days":5}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRouter_PredictRequiresLogin(t *testing.T) {
	f := &fakeAnalytics{}
	router := newTestRouter(f)

	rec := do(t, router, http.MethodPost, "/api/predict", `{"symbol":"TCS","days":5}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, handlers.KindUnauthorized, decode(t, rec)["kind"])
	assert.Empty(t, f.lastSymbol, "forecast must not run for anonymous callers")

	rec = doAs(t, router, "garbage", http.MethodPost, "/api/predict", `{"symbol":"TCS","days":5}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.lastSymbol)

	// 세션 쿠키로도 인증
	token := loginToken(t, router)
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{"symbol":"TCS","days":5}`))
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	cookieRec := httptest.NewRecorder()
	router.ServeHTTP(cookieRec, req)
	assert.Equal(t, http.StatusOK, cookieRec.Code)
	assert.Equal(t, "TCS", f.lastSymbol)
}

func TestRouter_AuthFlow(t *testing.T) {
	router := newTestRouter(&fakeAnalytics{})

	rec := do(t, router, http.MethodPost, "/api/auth/signup", `{"name":"Asha","email":"asha@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, contracts.KindInvalidInput, decode(t, rec)["kind"])

	token := loginToken(t, router)

	rec = do(t, router, http.MethodPost, "/api/auth/signup",
		`{"name":"Asha","email":"ASHA@example.com","password":"another"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, handlers.KindConflict, decode(t, rec)["kind"])

	rec = do(t, router, http.MethodPost, "/api/auth/login", `{"email":"asha@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, handlers.KindUnauthorized, decode(t, rec)["kind"])

	// 로그인 응답은 HttpOnly 세션 쿠키도 설정
	rec = do(t, router, http.MethodPost, "/api/auth/login", `{"email":"asha@example.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = doAs(t, router, token, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "asha@example.com", user["email"])

	rec = do(t, router, http.MethodGet, "/api/dashboard", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// 로그아웃 후 같은 토큰 거부
	rec = doAs(t, router, token, http.MethodPost, "/api/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logout successful", decode(t, rec)["message"])
	rec = doAs(t, router, token, http.MethodGet, "/api/dashboard", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// 토큰 없는 로그아웃도 성공
	rec = do(t, router, http.MethodPost, "/api/auth/logout", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Overviews(t *testing.T) {
	f := &fakeAnalytics{}
	router := newTestRouter(f)

	rec := do(t, router, http.MethodGet, "/api/index/overview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"last_close":21517.35`)

	rec = do(t, router, http.MethodGet, "/api/stock/TCS", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "TCS", f.lastSymbol)

	rec = do(t, router, http.MethodGet, "/api/stocks/list", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stocks []contracts.StockInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stocks))
	assert.Equal(t, "Tata Consultancy Services", stocks[0].Company)

	rec = do(t, router, http.MethodGet, "/api/sector/overview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "Information Technology"))
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	rec := do(t, newTestRouter(&fakeAnalytics{panic: true}),
		http.MethodPost, "/api/portfolio/optimize", `{"symbols":["TCS"]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, contracts.KindInternal, decode(t, rec)["kind"])
}

func TestServer_StartShutdown(t *testing.T) {
	cfg := &config.Config{Port: "0", Env: "development"}
	srv := New(cfg, logger.Nop(), newTestRouter(&fakeAnalytics{}))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}
