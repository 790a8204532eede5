package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter counts requests and request-body bytes per client. A zero limit
// disables that check.
type RateLimiter struct {
	mu sync.RWMutex

	perMinute   int
	perHour     int
	perDay      int
	bytesPerDay int64

	clients map[string]*clientUsage

	now func() time.Time
}

// clientUsage is one client's counters. minute and hour are fixed windows
// anchored on the client's last accepted request.
type clientUsage struct {
	minuteCount int
	hourCount   int
	dayCount    int
	dayBytes    int64

	lastSeen time.Time
	dayStart time.Time
}

// NewRateLimiter returns a limiter using the wall clock.
func NewRateLimiter(perMinute, perHour, perDay int, bytesPerDay int64) *RateLimiter {
	return &RateLimiter{
		perMinute:   perMinute,
		perHour:     perHour,
		perDay:      perDay,
		bytesPerDay: bytesPerDay,
		clients:     make(map[string]*clientUsage),
		now:         time.Now,
	}
}

// CheckRateLimit admits one request of bodySize bytes from client, or returns
// a *RateLimitError or *QuotaExceededError. Rejected requests are not counted.
func (rl *RateLimiter) CheckRateLimit(client string, bodySize int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	u, ok := rl.clients[client]
	if !ok {
		u = &clientUsage{lastSeen: now, dayStart: now}
		rl.clients[client] = u
	}
	u.roll(now)

	if err := rl.admit(u, bodySize, now); err != nil {
		return err
	}

	u.minuteCount++
	u.hourCount++
	u.dayCount++
	u.dayBytes += bodySize
	u.lastSeen = now
	return nil
}

// roll clears the counters whose window has passed.
func (u *clientUsage) roll(now time.Time) {
	if y1, d1 := now.Year(), now.YearDay(); y1 != u.dayStart.Year() || d1 != u.dayStart.YearDay() {
		u.dayCount = 0
		u.dayBytes = 0
		u.dayStart = now
	}

	idle := now.Sub(u.lastSeen)
	if idle >= time.Minute {
		u.minuteCount = 0
	}
	if idle >= time.Hour {
		u.hourCount = 0
	}
}

// admit checks the rate windows before the daily quotas.
func (rl *RateLimiter) admit(u *clientUsage, bodySize int64, now time.Time) error {
	idle := now.Sub(u.lastSeen)
	switch {
	case rl.perMinute > 0 && u.minuteCount >= rl.perMinute:
		return &RateLimitError{Type: "minute", Limit: rl.perMinute, RetryAfter: time.Minute - idle}
	case rl.perHour > 0 && u.hourCount >= rl.perHour:
		return &RateLimitError{Type: "hour", Limit: rl.perHour, RetryAfter: time.Hour - idle}
	case rl.perDay > 0 && u.dayCount >= rl.perDay:
		return &QuotaExceededError{Type: "requests", Limit: int64(rl.perDay), Used: int64(u.dayCount), Resets: nextMidnight(now)}
	case rl.bytesPerDay > 0 && u.dayBytes+bodySize > rl.bytesPerDay:
		return &QuotaExceededError{Type: "data", Limit: rl.bytesPerDay, Used: u.dayBytes, Resets: nextMidnight(now)}
	}
	return nil
}

func nextMidnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.clients)
}

// Prune drops clients idle for longer than maxIdle and returns how many were removed.
func (rl *RateLimiter) Prune(maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for id, u := range rl.clients {
		if now.Sub(u.lastSeen) > maxIdle {
			delete(rl.clients, id)
			removed++
		}
	}
	return removed
}

// usage returns a copy of client's counters; unknown clients get zero values.
func (rl *RateLimiter) usage(client string) clientUsage {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	if u, ok := rl.clients[client]; ok {
		return *u
	}
	return clientUsage{}
}

// RateLimitError is returned when a client exceeds its per-minute or per-hour window.
type RateLimitError struct {
	Type       string // "minute" or "hour"
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}

// QuotaExceededError is returned when a client exhausts a daily quota.
type QuotaExceededError struct {
	Type   string // "requests" or "data"
	Limit  int64
	Used   int64
	Resets time.Time // next local midnight
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s (used: %d, limit: %d, resets: %s)",
		e.Type, e.Used, e.Limit, e.Resets.Format(time.RFC3339))
}
