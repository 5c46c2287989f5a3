package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/atom19-i/superannuation/internal/engine"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ready(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

type metricsResponse struct {
	UptimeSeconds     int64 `json:"uptimeSeconds"`
	TotalRequests     int64 `json:"totalRequests"`
	LastDurationMic   int64 `json:"lastRequestMicros"`
	RateLimitHits     int64 `json:"rateLimitHits"`
	OversizedRequests int64 `json:"oversizedRequests"`
	CachedProjections int   `json:"cachedProjections"`
	CachedBytes       int64 `json:"cachedProjectionBytes"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.tracer.GetMetrics()
	NewResponse().JSON(metricsResponse{
		UptimeSeconds:     int64(time.Since(s.startTime).Seconds()),
		TotalRequests:     m.TotalRequests,
		LastDurationMic:   m.LastDurationMic,
		RateLimitHits:     atomic.LoadInt64(&s.secMetrics.rateLimitHits),
		OversizedRequests: atomic.LoadInt64(&s.secMetrics.oversizedRequests),
		CachedProjections: s.projCache.Len(),
		CachedBytes:       s.projCache.SizeBytes(),
	}).Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("no such route").Write(w)
		return
	}
	http.Redirect(w, r, "/static/index.html", http.StatusFound)
}

// handleRoundup runs the full rule pipeline under the filter profile and
// records the run summary.
func (s *Server) handleRoundup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError(http.MethodPost).Write(w)
		return
	}

	body, rerr := s.readBody(w, r)
	if rerr != nil {
		rerr.response().Write(w)
		return
	}

	var req roundupRequest
	if err := json.Unmarshal(body, &req); err != nil {
		InvalidInputError("request body must be valid JSON").Write(w)
		return
	}

	in, rerr := buildInput(req, s.maxRecords, engine.ProfileFilter)
	if rerr != nil {
		rerr.response().Write(w)
		return
	}

	result, runID := s.service.ComputeRun(r.Context(), in, digestOf(body), "")
	NewResponse().JSON(buildRoundupResponse(result, runID)).Write(w)
}

// handleValidate screens a batch under the strict profile without running the
// rule steps or recording anything.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError(http.MethodPost).Write(w)
		return
	}

	body, rerr := s.readBody(w, r)
	if rerr != nil {
		rerr.response().Write(w)
		return
	}

	var req roundupRequest
	if err := json.Unmarshal(body, &req); err != nil {
		InvalidInputError("request body must be valid JSON").Write(w)
		return
	}
	if len(req.Transactions) > s.maxRecords {
		payloadTooLarge("transactions exceeds the %d record limit", s.maxRecords).response().Write(w)
		return
	}

	records := make([]engine.RawTransaction, 0, len(req.Transactions))
	for i, rec := range req.Transactions {
		records = append(records, engine.RawTransaction{
			Timestamp: rec.Timestamp,
			Amount:    rec.Amount,
			Remanent:  rec.Remanent,
			Pos:       i,
		})
	}

	out := s.service.ValidateBatch(records)
	NewResponse().JSON(buildValidateResponse(out)).Write(w)
}

// handleProjection runs the pipeline and projects each window sum for the
// requested instrument. Responses are cached by request digest.
func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError(http.MethodPost).Write(w)
		return
	}

	body, rerr := s.readBody(w, r)
	if rerr != nil {
		rerr.response().Write(w)
		return
	}

	var req projectionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		InvalidInputError("request body must be valid JSON").Write(w)
		return
	}

	params, rerr := parseProjectionParams(req)
	if rerr != nil {
		rerr.response().Write(w)
		return
	}

	in, rerr := buildInput(req.roundupRequest, s.maxRecords, engine.ProfileFilter)
	if rerr != nil {
		rerr.response().Write(w)
		return
	}

	digest := digestOf(body)
	if cached, found := s.projCache.Get(digest); found {
		slog.DebugContext(r.Context(), "Projection cache hit", "digest", digest)
		w.Header().Set("X-Cache", "HIT")
		writeJSONBytes(w, http.StatusOK, cached)
		return
	}

	result, runID := s.service.ComputeRun(r.Context(), in, digest, string(params.Instrument))
	resp, err := buildProjectionResponse(result, params, runID)
	if err != nil {
		// Instrument was validated above; reaching this is a bug.
		slog.ErrorContext(r.Context(), "Projection failed", "error", err)
		InternalError("projection failed").Write(w)
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		InternalError("response encoding failed").Write(w)
		return
	}
	s.projCache.Set(digest, payload)
	w.Header().Set("X-Cache", "MISS")
	writeJSONBytes(w, http.StatusOK, payload)
}

// handleRuns lists recently recorded run summaries.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError(http.MethodGet).Write(w)
		return
	}

	limit := 20
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 100 {
		limit = 100
	}

	runs, err := s.service.ListRecentRuns(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list runs", "error", err)
		InternalError("could not list runs").Write(w)
		return
	}

	NewResponse().JSON(struct {
		Status string   `json:"status"`
		Runs   []runDTO `json:"runs"`
	}{Status: "OK", Runs: buildRunDTOs(runs)}).Write(w)
}
