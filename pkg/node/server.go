package node

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/Layr-Labs/hww-signer-go/pkg/config"
)

/*
Server is the device's transport. It carries opaque request frames to the
commander and reply frames back; it never interprets them.

  POST /api:
    - Body: one encoded request (application/cbor), at most codec.MaxMessageSize bytes
    - Response: one encoded response, always 200 once the frame reached the device
    - Protocol errors travel inside the response, never as HTTP status codes

  GET /healthz:
    - Storage health, seed state and the signing session phase as JSON

  GET /metrics:
    - Prometheus metrics of the device registry

Requests are rate limited (429 when the bucket is empty) and processed one
at a time by the commander.
*/
type Server struct {
	node       *Node
	limiter    *rate.Limiter
	httpServer *http.Server
}

// NewServer creates a new server instance
func NewServer(node *Node, port int, limits config.RateLimitConfig) *Server {
	s := &Server{
		node:    node,
		limiter: newLimiter(limits),
	}

	mux := http.NewServeMux()
	mux.Handle("/api", s.limit(http.HandlerFunc(s.handleAPI)))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(node.registry, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func newLimiter(cfg config.RateLimitConfig) *rate.Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
}

func (s *Server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.node.logger.Sugar().Warnw("Rate limit exceeded", "remote", r.RemoteAddr)
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go func() {
		s.node.logger.Sugar().Infow("Starting HTTP server", "device", s.node.DeviceName, "port", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.node.logger.Sugar().Errorw("HTTP server error", "device", s.node.DeviceName, "error", err)
		}
	}()
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	return s.httpServer.Close()
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}

func newRequestID() string {
	return uuid.NewString()
}
