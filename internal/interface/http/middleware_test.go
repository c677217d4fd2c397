package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/aqi-advisor/internal/infra/config"
)

func TestIPRateLimiterRefills(t *testing.T) {
	limiter := newIPRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 2})
	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	require.True(t, limiter.allow("1.1.1.1"))
	require.True(t, limiter.allow("1.1.1.1"))
	require.False(t, limiter.allow("1.1.1.1"))
	require.True(t, limiter.allow("2.2.2.2"))

	now = now.Add(time.Second)
	require.True(t, limiter.allow("1.1.1.1"))
	require.False(t, limiter.allow("1.1.1.1"))

	now = now.Add(10 * time.Minute)
	require.True(t, limiter.allow("3.3.3.3"))
	limiter.mu.Lock()
	_, kept := limiter.visitors["2.2.2.2"]
	limiter.mu.Unlock()
	require.False(t, kept)
}

func TestWithRetryReplaysServerErrors(t *testing.T) {
	calls := 0
	var bodies []string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		payload, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(payload))
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("X-Attempt", "2")
		_, _ = w.Write([]byte("ok"))
	})
	handler := withRetry(inner, config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}, newTestLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/aqi/ai-recommendation", strings.NewReader(`{"aqi":10}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
	require.Equal(t, "2", rec.Header().Get("X-Attempt"))
	require.Equal(t, 2, calls)
	require.Equal(t, []string{`{"aqi":10}`, `{"aqi":10}`}, bodies)
}

func TestWithRetrySkipsExcludedPaths(t *testing.T) {
	calls := 0
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})
	cfg := config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond, Exclude: []string{"/api/live-tracker/*", "/exact"}}
	handler := withRetry(inner, cfg, newTestLogger())

	for _, path := range []string{"/api/live-tracker/alert", "/exact"} {
		calls = 0
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader("{}")))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, 1, calls, path)
	}

	calls = 0
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/aqi/city/x", nil))
	require.Equal(t, 1, calls)

	calls = 0
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{}")))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 3, calls)
}
