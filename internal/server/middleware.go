package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// responseWriter records the status a handler wrote, for the request metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrader take over the wrapped connection.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("server: response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// corsMiddleware answers preflight requests itself and records request count
// and latency for everything else.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.corsOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		next(rw, r)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, http.StatusText(rw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	}
}

// rateLimitMiddleware rejects clients over their request rate or daily quota
// with 429 before the handler runs.
func (s *Server) rateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.rateLimiter == nil {
			next(w, r)
			return
		}

		client := getClientIP(r)
		err := s.rateLimiter.CheckRateLimit(client, max(r.ContentLength, 0))
		if err == nil {
			next(w, r)
			return
		}

		slog.Warn("Request rejected by rate limiter", "client", client, "path", r.URL.Path, "error", err)
		rej, ok := limitRejectionFor(err)
		if !ok {
			writeJSONBody(w, http.StatusInternalServerError, map[string]any{
				"error":   "internal_error",
				"message": "Rate limiting check failed",
			})
			return
		}
		rateLimitHits.WithLabelValues(rej.kind).Inc()
		for k, v := range rej.headers {
			w.Header().Set(k, v)
		}
		writeJSONBody(w, http.StatusTooManyRequests, rej.body)
	}
}

// limitRejection is the 429 response for one limiter error. kind labels the
// rate_limit_hits metric.
type limitRejection struct {
	kind    string
	headers map[string]string
	body    map[string]any
}

// limitRejectionFor maps a RateLimitError or QuotaExceededError (possibly
// wrapped) to its response. ok is false for any other error.
func limitRejectionFor(err error) (rej limitRejection, ok bool) {
	var rate *RateLimitError
	if errors.As(err, &rate) {
		return limitRejection{
			kind: rate.Type,
			headers: map[string]string{
				"X-RateLimit-Type":  rate.Type,
				"X-RateLimit-Limit": strconv.Itoa(rate.Limit),
				"Retry-After":       fmt.Sprintf("%.0f", rate.RetryAfter.Seconds()),
			},
			body: map[string]any{
				"error":       "rate_limit_exceeded",
				"type":        rate.Type,
				"limit":       rate.Limit,
				"retry_after": rate.RetryAfter.Seconds(),
				"message":     rate.Error(),
			},
		}, true
	}

	var quota *QuotaExceededError
	if errors.As(err, &quota) {
		return limitRejection{
			kind: quota.Type,
			headers: map[string]string{
				"X-Quota-Type":   quota.Type,
				"X-Quota-Limit":  strconv.FormatInt(quota.Limit, 10),
				"X-Quota-Used":   strconv.FormatInt(quota.Used, 10),
				"X-Quota-Resets": quota.Resets.Format(http.TimeFormat),
			},
			body: map[string]any{
				"error":   "quota_exceeded",
				"type":    quota.Type,
				"limit":   quota.Limit,
				"used":    quota.Used,
				"resets":  quota.Resets.Format(time.RFC3339),
				"message": quota.Error(),
			},
		}, true
	}

	return limitRejection{}, false
}

func writeJSONBody(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode rate limiter response", "status", status, "error", err)
	}
}

// getClientIP keys the rate limiter: the first X-Forwarded-For hop, then
// X-Real-IP, then the host part of RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
