package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/recruit-grader/internal/admin"
	"github.com/jonathan/recruit-grader/internal/config"
	"github.com/jonathan/recruit-grader/internal/logging"
	"github.com/jonathan/recruit-grader/internal/metrics"
	"github.com/jonathan/recruit-grader/internal/server/middleware"
	"github.com/jonathan/recruit-grader/internal/server/ratelimit"
)

// Server represents the HTTP server
type Server struct {
	httpServer    *http.Server
	admin         *admin.Service
	logger        *slog.Logger
	metrics       *metrics.Manager
	rateLimiter   *ratelimit.Limiter
	jwtService    *JWTService
	shutdownGrace time.Duration
}

// Config holds server configuration
type Config struct {
	Addr          string
	ShutdownGrace time.Duration
	JWT           *config.JWTConfig
	RateLimit     *ratelimit.Config // nil disables rate limiting
	Metrics       *metrics.Manager  // nil disables /metrics
	Logger        *slog.Logger
}

// New creates a new server instance serving svc.
func New(svc *admin.Service, cfg Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("admin service is required")
	}
	if cfg.JWT == nil {
		return nil, fmt.Errorf("JWT configuration is required")
	}

	s := &Server{
		admin:         svc,
		logger:        logging.Component(cfg.Logger, "server"),
		metrics:       cfg.Metrics,
		rateLimiter:   ratelimit.NewLimiter(cfg.RateLimit),
		jwtService:    NewJWTService(cfg.JWT),
		shutdownGrace: cfg.ShutdownGrace,
	}
	if s.shutdownGrace <= 0 {
		s.shutdownGrace = 10 * time.Second
	}

	// Authenticated admin API
	api := http.NewServeMux()
	s.routes(api)
	authed := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(s.withRateLimit(api))

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	mux.Handle("/", authed)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for cycle-wide batch operations
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens for requests until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownGrace)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	s.rateLimiter.Stop()
	s.logger.Info("server stopped")
	return nil
}

// handle registers h under pattern and counts its responses by pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.ObserveResponse(pattern, rec.status)
	}))
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit limits requests per authenticated administrator.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		decision := s.rateLimiter.Allow(clientID, r.Method, r.URL.Path)
		s.setRateLimitHeaders(w, decision)
		if !decision.Allowed {
			s.rateLimitResponse(w, clientID, decision)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request completed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("elapsed", time.Since(start)))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// respond writes result, or the error mapped by HTTPStatus. A partial write
// returns the result alongside the error.
func (s *Server) respond(w http.ResponseWriter, result any, err error) {
	status := HTTPStatus(err)
	switch {
	case err == nil:
		s.jsonResponse(w, status, result)
	case status == http.StatusMultiStatus:
		s.jsonResponse(w, status, map[string]any{"error": err.Error(), "result": result})
	default:
		s.errorResponse(w, status, err.Error())
	}
}

// extractClientID identifies the rate limit client: the authenticated
// administrator, or the remote IP when there is none.
func (s *Server) extractClientID(r *http.Request) string {
	if actor, ok := middleware.GetActorID(r); ok {
		return "actor:" + string(actor)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return "ip:" + ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Decision) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, clientID string, info ratelimit.Decision) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("rate limit exceeded",
		slog.String("client", clientID),
		slog.String("tier", string(info.Tier)),
		slog.Int("limit", info.Limit),
		slog.Time("reset_at", info.ResetTime))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
