// Package http is the service boundary: it decodes wire requests, enforces
// size and rate limits, and maps pipeline results onto the JSON contract.
package http

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/atom19-i/superannuation/internal/cache"
	"github.com/atom19-i/superannuation/internal/config"
	"github.com/atom19-i/superannuation/internal/middleware/trace"
	"github.com/atom19-i/superannuation/internal/services"
	appweb "github.com/atom19-i/superannuation/web"
)

type Server struct {
	http.Server
	service     *services.RunService
	rateLimiter *rateLimiter
	tracer      *trace.Middleware
	secMetrics  *securityMetrics

	// Projection responses are cached as marshaled bytes keyed by request
	// digest.
	projCache    *cache.ResponseCache
	cacheManager *cache.Manager

	maxRecords   int
	maxBodyBytes int64
	startTime    time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and limits, returning a ready-to-run server.
func NewServer(cfg *config.Config, service *services.RunService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		service:      service,
		rateLimiter:  newRateLimiter(cfg.RateLimitPerMinute, time.Minute),
		tracer:       trace.NewMiddleware(extractClientIP),
		secMetrics:   &securityMetrics{},
		projCache:    cache.NewResponseCache(cfg.CacheSize, cfg.CacheTTL),
		cacheManager: cache.NewManager(),
		maxRecords:   cfg.MaxRecords,
		maxBodyBytes: cfg.MaxBodyBytes,
		startTime:    time.Now(),
	}

	s.cacheManager.Register(s.projCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withBoundary(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/api/v1/roundup", s.withBoundary(s.handleRoundup))
	mux.HandleFunc("/api/v1/validate", s.withBoundary(s.handleValidate))
	mux.HandleFunc("/api/v1/projection", s.withBoundary(s.handleProjection))
	mux.HandleFunc("/api/v1/runs", s.withBoundary(s.handleRuns))

	s.Server = http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        s.tracer.Middleware(mux),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	return s
}

// withBoundary adds security headers and rate limiting to a handler.
func (s *Server) withBoundary(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			s.secMetrics.recordRateLimited()
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "path", r.URL.Path)
			w.Header().Set("Retry-After", s.rateLimiter.retryAfterSeconds())
			ErrorResponse(http.StatusTooManyRequests, statusInvalidInput,
				"rate limit exceeded, retry later").Write(w)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")

		next(w, r)
	}
}

// Shutdown stops the cleanup goroutines and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
