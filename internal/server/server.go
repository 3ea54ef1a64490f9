// Package server exposes the BB84 simulator over HTTP and a websocket batch
// stream.
package server

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/alan-christopher/qkdsim/internal/config"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/kaptinlin/jsonschema"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 1 << 20

// A Server holds the shared state of the HTTP handlers. Sessions themselves
// share nothing.
type Server struct {
	cfg      *config.Config
	log      *log.Logger
	limiter  *rate.Limiter
	schemas  map[string]*jsonschema.Schema
	upgrader websocket.Upgrader

	now  func() time.Time
	seed func() int64
}

// New returns a Server configured by cfg, logging to logger.
func New(cfg *config.Config, logger *log.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("missing config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		return nil, fmt.Errorf("missing logger")
	}
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:     cfg,
		log:     logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit.PerSecond), cfg.RateLimit.Burst),
		schemas: schemas,
		now:     time.Now,
	}
	s.seed = func() int64 {
		// Keep generated seeds exactly representable as JSON numbers.
		return s.now().UnixNano() & (1<<53 - 1)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s, nil
}

// Handler returns the root handler, with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/protocol/info", s.handleInfo)
	mux.HandleFunc("/api/security/threshold", s.handleThreshold)
	mux.HandleFunc("/api/protocol/execute", s.handleExecute)
	mux.HandleFunc("/api/protocol/batch", s.limited(s.handleBatch))
	mux.HandleFunc("/api/analyze/eavesdropper", s.handleAnalyze)
	mux.HandleFunc("/ws/batch", s.limited(s.handleStream))
	return s.logged(mux)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	allowed := s.cfg.Server.AllowOrigins
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}

func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many batch requests; retry later")
			return
		}
		next(w, r)
	}
}

func (s *Server) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// A statusRecorder remembers the status code written through it. It stays
// hijackable so websocket upgrades pass through.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer cannot be hijacked")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
