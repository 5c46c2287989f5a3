package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atom19-i/superannuation/internal/config"
	"github.com/atom19-i/superannuation/internal/projection"
	"github.com/atom19-i/superannuation/internal/services"
)

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *Server {
	t.Helper()
	cfg := &config.Config{
		Port:               "8086",
		MaxRecords:         1000,
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 1000,
		CacheSize:          10,
		CacheTTL:           time.Minute,
	}
	for _, m := range mutate {
		m(cfg)
	}
	s := NewServer(cfg, services.NewRunService(nil, nil))
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

const referenceBody = `{
	"transactions": [
		{"timestamp": "2023-12-21 19:45:00", "amount": "480.00"},
		{"timestamp": "2023-02-14 10:00:00", "amount": "375.00"},
		{"timestamp": "2023-07-05 12:00:00", "amount": 620},
		{"timestamp": "2023-10-09 09:30:00", "amount": "250.00"}
	],
	"overrides": [
		{"id": "july-freeze", "fixed": "0", "start": "2023-07-01 00:00:00", "end": "2023-07-31 23:59:59"}
	],
	"extras": [
		{"id": "festive-boost", "extra": "25.00", "start": "2023-10-01 00:00:00", "end": "2023-12-31 23:59:59"}
	],
	"windows": [
		{"id": "mar-nov", "start": "2023-03-01 00:00:00", "end": "2023-11-30 23:59:59"},
		{"id": "full-year", "start": "2023-01-01 00:00:00", "end": "2023-12-31 23:59:59"}
	]
}`

func TestRoundup_ReferenceScenario(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/roundup", referenceBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp roundupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "OK", resp.Status)
	assert.Zero(t, resp.RunID, "no storage configured")
	require.Len(t, resp.Transactions, 4)
	assert.Equal(t, "2023-02-14 10:00:00", resp.Transactions[0].Timestamp, "instant order")
	assert.Equal(t, 25.0, resp.Transactions[0].RemanentBase)
	assert.Equal(t, 0.0, resp.Transactions[1].RemanentFinal, "override freezes July")
	assert.Equal(t, 75.0, resp.Transactions[2].RemanentFinal, "extra stacks in October")

	require.Len(t, resp.Windows, 2)
	assert.Equal(t, "mar-nov", resp.Windows[0].ID)
	assert.Equal(t, 75.0, resp.Windows[0].Amount)
	assert.Equal(t, "full-year", resp.Windows[1].ID)
	assert.Equal(t, 145.0, resp.Windows[1].Amount)

	assert.Equal(t, 1725.0, resp.Totals.Amount)
	assert.Equal(t, 1900.0, resp.Totals.Ceiling)
	assert.Equal(t, 145.0, resp.Totals.Remanent)
}

func TestRoundup_RejectionsContinueBatch(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/roundup", `{
		"transactions": [
			{"timestamp": "2023-02-14 10:00:00", "amount": "375.00"},
			{"timestamp": "2023-2-14 10:00:00", "amount": "100.00"},
			{"timestamp": "2023-02-14 10:00:00", "amount": "375.00"}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp roundupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Transactions, 1)
	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, 1, resp.Rejected[0].Transaction)
	assert.Contains(t, resp.Rejected[0].Message, "transactions[1].timestamp")
	assert.Contains(t, resp.Rejected[0].Message, "YYYY-MM-DD HH:mm:ss")
	require.Len(t, resp.Duplicates, 1)
	assert.Contains(t, resp.Duplicates[0].Message, "transactions[0]")
}

func TestRoundup_InvalidJSON(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/roundup", `{not json`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), statusInvalidInput)
}

func TestRoundup_MalformedOverride(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/roundup", `{
		"transactions": [{"timestamp": "2023-02-14 10:00:00", "amount": "375.00"}],
		"overrides": [{"id": "p", "fixed": "0", "start": "2023-07-99 00:00:00", "end": "2023-07-31 23:59:59"}]
	}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "overrides[0].start")
}

func TestRoundup_RecordCap(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.MaxRecords = 2 })
	rec := doJSON(t, s, http.MethodPost, "/api/v1/roundup", `{
		"transactions": [
			{"timestamp": "2023-02-14 10:00:00", "amount": "1"},
			{"timestamp": "2023-02-14 10:00:01", "amount": "1"},
			{"timestamp": "2023-02-14 10:00:02", "amount": "1"}
		]
	}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), statusPayloadTooLarge)
}

func TestRoundup_BodyTooLarge(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.MaxBodyBytes = 1024 })
	rec := doJSON(t, s, http.MethodPost, "/api/v1/roundup",
		`{"transactions": [{"timestamp": "`+strings.Repeat("x", 2048)+`"}]}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), statusPayloadTooLarge)
}

func TestRoundup_RateLimited(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.RateLimitPerMinute = 2 })
	body := `{"transactions": []}`

	for i := 0; i < 2; i++ {
		rec := doJSON(t, s, http.MethodPost, "/api/v1/roundup", body)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, s, http.MethodPost, "/api/v1/roundup", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// GET traffic is not throttled.
	rec = doJSON(t, s, http.MethodGet, "/api/v1/runs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoundup_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v1/roundup", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestValidate_StrictProfile(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/validate", `{
		"transactions": [
			{"timestamp": "2023-10-09 09:30:00", "amount": "250.00", "remanent": "50.00"},
			{"timestamp": "2023-10-09 09:31:00", "amount": "250.00", "remanent": "49.00"}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp validateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Valid, 1)
	assert.Equal(t, "2023-10-09 09:30:00", resp.Valid[0].Timestamp)
	assert.Equal(t, 250.0, resp.Valid[0].Amount)
	assert.Equal(t, 50.0, resp.Valid[0].Remanent)
	require.Len(t, resp.Invalid, 1)
	assert.Equal(t, "REMANENT_MISMATCH", resp.Invalid[0].Code)
	assert.Empty(t, resp.Duplicates)
}

func TestProjection_PPFAndCache(t *testing.T) {
	s := newTestServer(t)
	body := `{
		"transactions": [
			{"timestamp": "2023-10-09 09:30:00", "amount": "250.00"},
			{"timestamp": "2023-12-21 19:45:00", "amount": "480.00"}
		],
		"windows": [
			{"id": "full-year", "start": "2023-01-01 00:00:00", "end": "2023-12-31 23:59:59"}
		],
		"instrument": "ppf",
		"age": 30,
		"monthlyWage": 50000,
		"inflation": 6
	}`

	rec := doJSON(t, s, http.MethodPost, "/api/v1/projection", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	var resp projectionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 30, resp.HorizonYears)
	require.Len(t, resp.Windows, 1)
	assert.Equal(t, 70.0, resp.Windows[0].Amount)

	want, err := projection.Project(70.0, projection.Params{
		Instrument:  projection.InstrumentPPF,
		Age:         30,
		MonthlyWage: 50000,
		Inflation:   6,
	})
	require.NoError(t, err)
	assert.Equal(t, want.Profit, resp.Windows[0].Profits)
	assert.Equal(t, want.Real, resp.Windows[0].RealValue)
	assert.Equal(t, want.TaxBenefit, resp.Windows[0].TaxBenefit)

	// Same bytes hit the cache.
	rec2 := doJSON(t, s, http.MethodPost, "/api/v1/projection", body)
	require.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, "HIT", rec2.Header().Get("X-Cache"))
	assert.JSONEq(t, rec.Body.String(), rec2.Body.String())
}

func TestProjection_UnknownInstrument(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/projection", `{
		"transactions": [],
		"instrument": "crypto",
		"age": 30
	}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "instrument")
}

func TestRuns_EmptyWithoutStorage(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v1/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"runs":[]`)
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = doJSON(t, s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", rec.Body.String())
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodGet, "/healthz", "")

	rec := doJSON(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var m metricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.GreaterOrEqual(t, m.TotalRequests, int64(1))
}
