package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/printkit/internal/batch"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	corsOrigin   string
	maxBatchSize int
	maxBodyBytes int64
	batchConfig  batch.Config
	rateLimiter  *RateLimiter
}

// RateLimitConfig holds per-client limits. Zero values disable a limit.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64
}

// Config holds server configuration.
type Config struct {
	Host         string
	Port         int
	CORSOrigin   string
	TimeoutSec   int // read/write timeout of the http.Server wrapping the routes
	MaxBatchSize int
	MaxBodyKB    int64
	Batch        batch.Config
	RateLimit    RateLimitConfig
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// EAN13Request is the JSON body accepted by POST /ean13.
type EAN13Request struct {
	Code string `json:"code"`
}

// EAN13Result describes one encoded code.
type EAN13Result struct {
	Input    string `json:"input"`
	Payload  string `json:"payload"`
	Checksum int    `json:"checksum"`
	Pattern  string `json:"pattern"`
	Code     string `json:"code"`
	Symbols  string `json:"symbols"`
	Mismatch bool   `json:"check_digit_mismatch"`
}

// EAN13Response wraps an EAN13Result or an error message.
type EAN13Response struct {
	Success bool         `json:"success"`
	Result  *EAN13Result `json:"result,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// BatchRequest is the JSON body accepted by POST /ean13/batch.
type BatchRequest struct {
	Codes  []string `json:"codes"`
	Format string   `json:"format,omitempty"`
}

// NumberingResponse is returned by POST /numbering?format=json.
type NumberingResponse struct {
	Sheets   int        `json:"sheets"`
	Final    int        `json:"final_quantity"`
	End      int        `json:"end"`
	Blocks   int        `json:"blocks"`
	Adjusted bool       `json:"adjusted"`
	Summary  string     `json:"summary"`
	Header   []string   `json:"header,omitempty"`
	Rows     [][]string `json:"rows"`
}

// ToneResponse is returned by POST /tone.
type ToneResponse struct {
	Expression string   `json:"expression"`
	Command    string   `json:"command"`
	Args       []string `json:"args"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewServer creates a new server instance.
func NewServer(config Config) (*Server, error) {
	if config.MaxBatchSize <= 0 {
		return nil, errors.New("server: max batch size must be positive")
	}
	if config.MaxBodyKB <= 0 {
		return nil, errors.New("server: max body size must be positive")
	}

	s := &Server{
		corsOrigin:   config.CORSOrigin,
		maxBatchSize: config.MaxBatchSize,
		maxBodyBytes: config.MaxBodyKB * 1024,
		batchConfig:  config.Batch,
	}
	if config.RateLimit.Enabled {
		s.rateLimiter = NewRateLimiter(
			config.RateLimit.RequestsPerMinute,
			config.RateLimit.RequestsPerHour,
			config.RateLimit.MaxRequestsPerDay,
			config.RateLimit.MaxDataPerDay,
		)
	}
	return s, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/ean13", s.corsMiddleware(s.rateLimitMiddleware(s.ean13Handler)))
	mux.HandleFunc("/ean13/batch", s.corsMiddleware(s.rateLimitMiddleware(s.batchHandler)))
	mux.HandleFunc("/numbering", s.corsMiddleware(s.rateLimitMiddleware(s.numberingHandler)))
	mux.HandleFunc("/tone", s.corsMiddleware(s.rateLimitMiddleware(s.toneHandler)))
	mux.HandleFunc("/ws", s.corsMiddleware(s.rateLimitMiddleware(s.webSocketHandler)))
	mux.Handle("/metrics", promhttp.Handler())
}

// PruneClients drops rate-limit state for clients idle longer than maxIdle,
// checking every interval until ctx is done. It returns immediately when rate
// limiting is disabled.
func (s *Server) PruneClients(ctx context.Context, interval, maxIdle time.Duration) {
	if s.rateLimiter == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.rateLimiter.Prune(maxIdle); n > 0 {
				slog.Debug("Pruned idle rate limit clients", "removed", n)
			}
		}
	}
}
