package server

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source for the rate limiter.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRateLimiter(perMinute, perHour, perDay int, bytesPerDay int64) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(perMinute, perHour, perDay, bytesPerDay)
	rl.now = clock.now
	return rl, clock
}

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(10, 100, 1000, 1024*1024)

	assert.NotNil(t, rl)
	assert.Equal(t, 10, rl.perMinute)
	assert.Equal(t, 100, rl.perHour)
	assert.Equal(t, 1000, rl.perDay)
	assert.Equal(t, int64(1024*1024), rl.bytesPerDay)
	assert.NotNil(t, rl.clients)
	assert.NotNil(t, rl.now)
}

func TestRateLimiter_NoLimits(t *testing.T) {
	rl, _ := newTestRateLimiter(0, 0, 0, 0)

	require.NoError(t, rl.CheckRateLimit("client1", 100))

	usage := rl.usage("client1")
	assert.Equal(t, 1, usage.dayCount)
	assert.Equal(t, int64(100), usage.dayBytes)
}

func TestRateLimiter_RequestsPerMinute(t *testing.T) {
	rl, clock := newTestRateLimiter(2, 0, 0, 0)

	require.NoError(t, rl.CheckRateLimit("client1", 0))
	clock.advance(10 * time.Second)
	require.NoError(t, rl.CheckRateLimit("client1", 0))

	err := rl.CheckRateLimit("client1", 0)
	require.Error(t, err)

	var rateLimitErr *RateLimitError
	require.True(t, errors.As(err, &rateLimitErr))
	assert.Equal(t, "minute", rateLimitErr.Type)
	assert.Equal(t, 2, rateLimitErr.Limit)
	assert.Equal(t, time.Minute, rateLimitErr.RetryAfter)

	clock.advance(time.Minute)
	assert.NoError(t, rl.CheckRateLimit("client1", 0))
}

func TestRateLimiter_RequestsPerHour(t *testing.T) {
	rl, clock := newTestRateLimiter(0, 3, 0, 0)

	for range 3 {
		require.NoError(t, rl.CheckRateLimit("client1", 0))
		clock.advance(2 * time.Minute)
	}

	err := rl.CheckRateLimit("client1", 0)
	var rateLimitErr *RateLimitError
	require.True(t, errors.As(err, &rateLimitErr))
	assert.Equal(t, "hour", rateLimitErr.Type)
	assert.Equal(t, 3, rateLimitErr.Limit)

	clock.advance(time.Hour)
	assert.NoError(t, rl.CheckRateLimit("client1", 0))
}

func TestRateLimiter_RejectedRequestNotCounted(t *testing.T) {
	rl, _ := newTestRateLimiter(0, 0, 0, 1000)

	require.NoError(t, rl.CheckRateLimit("client1", 600))
	require.Error(t, rl.CheckRateLimit("client1", 600))

	u := rl.usage("client1")
	assert.Equal(t, 1, u.dayCount)
	assert.Equal(t, int64(600), u.dayBytes)
	assert.NoError(t, rl.CheckRateLimit("client1", 400))
}

func TestRateLimiter_MaxRequestsPerDay(t *testing.T) {
	rl, clock := newTestRateLimiter(0, 0, 2, 0)

	require.NoError(t, rl.CheckRateLimit("client1", 0))
	require.NoError(t, rl.CheckRateLimit("client1", 0))

	err := rl.CheckRateLimit("client1", 0)
	var quotaErr *QuotaExceededError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, "requests", quotaErr.Type)
	assert.Equal(t, int64(2), quotaErr.Limit)
	assert.Equal(t, int64(2), quotaErr.Used)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), quotaErr.Resets)

	clock.advance(12 * time.Hour)
	assert.NoError(t, rl.CheckRateLimit("client1", 0))
}

func TestRateLimiter_MaxDataPerDay(t *testing.T) {
	rl, _ := newTestRateLimiter(0, 0, 0, 1000)

	require.NoError(t, rl.CheckRateLimit("client1", 500))
	require.NoError(t, rl.CheckRateLimit("client1", 400))

	err := rl.CheckRateLimit("client1", 200)
	var quotaErr *QuotaExceededError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, "data", quotaErr.Type)
	assert.Equal(t, int64(1000), quotaErr.Limit)
	assert.Equal(t, int64(900), quotaErr.Used)
}

func TestRateLimiter_DayResetAcrossYears(t *testing.T) {
	rl := NewRateLimiter(0, 0, 1, 0)
	clock := &fakeClock{t: time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)}
	rl.now = clock.now

	require.NoError(t, rl.CheckRateLimit("client1", 0))
	require.Error(t, rl.CheckRateLimit("client1", 0))

	// Same calendar day number one year later must still reset.
	clock.t = time.Date(2026, 12, 31, 8, 0, 0, 0, time.UTC)
	assert.NoError(t, rl.CheckRateLimit("client1", 0))
}

func TestRateLimiter_MultipleClients(t *testing.T) {
	rl, _ := newTestRateLimiter(2, 0, 0, 0)

	require.NoError(t, rl.CheckRateLimit("client1", 0))
	require.NoError(t, rl.CheckRateLimit("client1", 0))
	require.Error(t, rl.CheckRateLimit("client1", 0))

	require.NoError(t, rl.CheckRateLimit("client2", 0))
	require.NoError(t, rl.CheckRateLimit("client2", 0))
	require.Error(t, rl.CheckRateLimit("client2", 0))

	assert.Equal(t, 2, rl.Clients())
}

func TestRateLimiter_Usage(t *testing.T) {
	rl, clock := newTestRateLimiter(10, 100, 1000, 10000)

	usage := rl.usage("client1")
	assert.Equal(t, 0, usage.dayCount)
	assert.True(t, usage.lastSeen.IsZero())

	require.NoError(t, rl.CheckRateLimit("client1", 500))
	require.NoError(t, rl.CheckRateLimit("client1", 300))

	usage = rl.usage("client1")
	assert.Equal(t, 2, usage.minuteCount)
	assert.Equal(t, 2, usage.hourCount)
	assert.Equal(t, 2, usage.dayCount)
	assert.Equal(t, int64(800), usage.dayBytes)
	assert.Equal(t, clock.t, usage.lastSeen)
}

func TestRateLimiter_Prune(t *testing.T) {
	rl, clock := newTestRateLimiter(0, 0, 0, 0)

	require.NoError(t, rl.CheckRateLimit("old", 0))
	clock.advance(2 * time.Hour)
	require.NoError(t, rl.CheckRateLimit("fresh", 0))

	assert.Equal(t, 1, rl.Prune(time.Hour))
	assert.Equal(t, 1, rl.Clients())
	assert.Equal(t, 1, rl.usage("fresh").dayCount)
	assert.Equal(t, 0, rl.usage("old").dayCount)
}

func TestRateLimitError_Error(t *testing.T) {
	err := &RateLimitError{Type: "minute", Limit: 10, RetryAfter: 5 * time.Minute}
	assert.Equal(t, "rate limit exceeded for minute (limit: 10, retry after: 5m0s)", err.Error())
}

func TestQuotaExceededError_Error(t *testing.T) {
	err := &QuotaExceededError{
		Type:   "data",
		Limit:  1000,
		Used:   950,
		Resets: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "quota exceeded for data (used: 950, limit: 1000, resets: 2024-01-02T00:00:00Z)", err.Error())
}

func BenchmarkRateLimiter_CheckRateLimit(b *testing.B) {
	rl := NewRateLimiter(0, 0, 0, 0)
	for b.Loop() {
		_ = rl.CheckRateLimit("benchclient", 100)
	}
}
