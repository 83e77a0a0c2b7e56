package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TejasShirsath/stocky-assignment/internal/apperr"
	"github.com/TejasShirsath/stocky-assignment/internal/domain"
	"github.com/TejasShirsath/stocky-assignment/internal/query"
	"github.com/TejasShirsath/stocky-assignment/internal/refresh"
	"github.com/TejasShirsath/stocky-assignment/internal/storage/memory"
	"github.com/TejasShirsath/stocky-assignment/internal/valuation"
)

var quiet = log.New(io.Discard, "", 0)

type apiHarness struct {
	handler     http.Handler
	prices      *memory.PriceStore
	instruments *memory.InstrumentStore
	now         time.Time
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	users := memory.NewUserStore()
	instruments := memory.NewInstrumentStore()
	ledger := memory.NewLedgerStore(users, instruments)
	prices := memory.NewPriceStore(instruments)

	h := &apiHarness{prices: prices, instruments: instruments, now: time.Date(2025, 9, 3, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return h.now }

	engine := valuation.NewEngine(ledger, prices, instruments, valuation.Options{
		Now:       clock,
		Location:  time.UTC,
		Lookahead: valuation.DefaultLookahead,
	})
	svc := query.New(query.Options{
		Users:       users,
		Instruments: instruments,
		Ledger:      ledger,
		Valuer:      engine,
		Now:         clock,
		Logger:      quiet,
	})
	_, err := svc.SeedInstruments(context.Background(), []string{"RELIANCE", "TCS"})
	require.NoError(t, err)

	h.handler = NewRouter(Options{
		Service: svc,
		RefreshStatus: func() refresh.Status {
			return refresh.Status{Interval: "24h0m0s", Cycles: 3}
		},
		Logger: quiet,
	})
	return h
}

func (h *apiHarness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, HealthMessage, rec.Body.String())
}

func TestCreateUser(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, http.MethodPost, "/api/user", `{"name":"Asha","email":"asha@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "asha@example.com", body["email"])
	assert.EqualValues(t, 1, body["id"])

	rec = h.do(t, http.MethodPost, "/api/user", `{"name":"Other","email":"asha@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email already exists", decodeBody(t, rec)["error"])

	rec = h.do(t, http.MethodPost, "/api/user", `{"email":"x@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Name and email are required", decodeBody(t, rec)["error"])

	rec = h.do(t, http.MethodPost, "/api/user", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReward_StatusMapping(t *testing.T) {
	h := newAPIHarness(t)
	require.Equal(t, http.StatusCreated,
		h.do(t, http.MethodPost, "/api/user", `{"name":"Asha","email":"asha@example.com"}`).Code)

	tests := []struct {
		name string
		body string
		code int
		msg  string
	}{
		{"created", `{"userId":1,"stockSymbol":"TCS","shares":2.5}`, http.StatusCreated, ""},
		{"string shares", `{"userId":1,"stockSymbol":"TCS","shares":"1.25"}`, http.StatusCreated, ""},
		{"unknown stock", `{"userId":1,"stockSymbol":"NOPE","shares":1}`, http.StatusNotFound, "stock not found"},
		{"unknown user", `{"userId":42,"stockSymbol":"TCS","shares":1}`, http.StatusNotFound, "user not found"},
		{"zero shares", `{"userId":1,"stockSymbol":"TCS","shares":0}`, http.StatusBadRequest, ""},
		{"missing symbol", `{"userId":1,"shares":1}`, http.StatusBadRequest, "userId, stockSymbol and shares are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(t, http.MethodPost, "/api/reward", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.msg != "" {
				assert.Equal(t, tt.msg, decodeBody(t, rec)["error"])
			}
		})
	}
}

func TestReadEndpoints(t *testing.T) {
	h := newAPIHarness(t)
	ctx := context.Background()

	require.Equal(t, http.StatusCreated,
		h.do(t, http.MethodPost, "/api/user", `{"name":"Asha","email":"asha@example.com"}`).Code)
	require.Equal(t, http.StatusCreated,
		h.do(t, http.MethodPost, "/api/reward", `{"userId":1,"stockSymbol":"TCS","shares":2}`).Code)

	tcs, err := h.instruments.GetBySymbol(ctx, "TCS")
	require.NoError(t, err)
	_, err = h.prices.AppendObservation(ctx, tcs.ID, decimal.RequireFromString("1500"), h.now)
	require.NoError(t, err)
	h.now = h.now.Add(time.Minute)

	rec := h.do(t, http.MethodGet, "/api/today-stocks/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stocks := decodeBody(t, rec)["stocks"].([]any)
	require.Len(t, stocks, 1)
	assert.Equal(t, "TCS", stocks[0].(map[string]any)["stockSymbol"])

	rec = h.do(t, http.MethodGet, "/api/historical-inr/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	hist := decodeBody(t, rec)
	assert.EqualValues(t, 1, hist["userId"])
	assert.Empty(t, hist["historicalRewards"])

	rec = h.do(t, http.MethodGet, "/api/stats/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody(t, rec)
	assert.Len(t, stats["totalSharesToday"], 1)

	rec = h.do(t, http.MethodGet, "/api/portfolio/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	portfolio := decodeBody(t, rec)
	assert.Equal(t, "3000.00", portfolio["totalPortfolioValue"])
	assert.Len(t, portfolio["portfolio"], 1)
}

func TestReadEndpoints_BadUserID(t *testing.T) {
	h := newAPIHarness(t)

	for _, path := range []string{"/api/stats/abc", "/api/portfolio/0", "/api/today-stocks/-3"} {
		rec := h.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

type failingService struct{ Service }

func (failingService) PortfolioSnapshot(context.Context, int64) (*domain.Portfolio, error) {
	return nil, apperr.Store("portfolio", errors.New("dial tcp: connection refused"))
}

func TestStoreErrorIsGeneric(t *testing.T) {
	handler := NewRouter(Options{Service: failingService{}, Logger: quiet})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio/1", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"something went wrong"}`, rec.Body.String())
}

func TestStatusAndMetrics(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "running", status.Status)
	require.NotNil(t, status.Refresh)
	assert.Equal(t, 3, status.Refresh.Cycles)

	h.do(t, http.MethodGet, "/api/health", "")
	rec = h.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `stocky_http_requests_total{code="200",route="/api/health"}`)
}

func TestUnknownRoute(t *testing.T) {
	h := newAPIHarness(t)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/nope", "").Code)
}
