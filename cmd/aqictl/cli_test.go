package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/aqi-advisor/internal/domain/advisor"
	"github.com/yanqian/aqi-advisor/internal/domain/livetrack"
)

const singaporeFeed = `{"aqi":52,"city":{"name":"Singapore"},"dominentpol":"pm25","iaqi":{"pm25":{"v":52},"t":{"v":30}},"time":{"s":"2024-07-01 09:00:00"}}`

// fakeBackend mimics the advisor API. Handlers only record what they saw.
type fakeBackend struct {
	mu          sync.Mutex
	adviceBody  *advisor.AdviceRequest
	alertBodies []livetrack.AlertRequest
	cleared     bool
	failAdvice  bool
	failAlerts  int
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/aqi/city/", func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimPrefix(r.URL.Path, "/api/aqi/city/") != "Singapore" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"data_unavailable","message":"City not found"}}`))
			return
		}
		_, _ = w.Write([]byte(singaporeFeed))
	})
	mux.HandleFunc("/api/aqi/geo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(singaporeFeed))
	})
	mux.HandleFunc("/api/aqi/search/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"stations":[{"uid":"5508","name":"Singapore Central","aqi":"48"}]}`))
	})
	mux.HandleFunc("/api/aqi/ai-recommendation", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		fail := b.failAdvice
		b.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":{"code":"llm_error","message":"advisor down"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"recommendation":"Limit long runs outdoors today.","aqi":160,"severity":"unhealthy"}`))
	})
	mux.HandleFunc("/api/aqi/ai-personalized-advice", func(w http.ResponseWriter, r *http.Request) {
		var body advisor.AdviceRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.adviceBody = &body
		b.mu.Unlock()
		_, _ = w.Write([]byte(`{"advice":"Keep your inhaler close and wear a mask outdoors.","aqi":52,"category":"Moderate","location":"Singapore"}`))
	})
	mux.HandleFunc("/api/user/check", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			_, _ = w.Write([]byte(`{"logged_in":false}`))
			return
		}
		_, _ = w.Write([]byte(`{"logged_in":true,"name":"Ann","city":"Singapore","age":34,"gender":"female","health_conditions":["asthma"]}`))
	})
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Email != "ann@example.com" || body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"invalid_credentials","message":"invalid email or password"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok-1","refreshToken":"ref-1","user":{"id":1,"email":"ann@example.com","name":"Ann"}}`))
	})
	mux.HandleFunc("/api/live-tracker/alert", func(w http.ResponseWriter, r *http.Request) {
		var body livetrack.AlertRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.alertBodies = append(b.alertBodies, body)
		reject := b.failAlerts > 0
		if reject {
			b.failAlerts--
		}
		b.mu.Unlock()
		if reject {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"code":"data_unavailable","message":"alert store unavailable"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(livetrack.Alert{
			ID:              "a-1",
			Type:            body.Type,
			Timestamp:       time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC),
			Location:        "Singapore",
			AQI:             body.AQI,
			AQICategory:     body.AQICategory,
			Message:         "Live tracking started in Singapore.",
			Recommendations: []string{"Enjoy the outdoors", "Stay hydrated", "Check again later"},
		})
	})
	mux.HandleFunc("/api/live-tracker/alerts", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"alerts":[{"id":"a-9","type":"aqi_change","timestamp":"2024-07-01T08:00:00Z","location":"Delhi","aqi":180,"message":"Significant air quality change detected in Delhi.","recommendations":["Wear an N95 mask"]}]}`))
	})
	mux.HandleFunc("/api/live-tracker/alerts/clear", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.cleared = true
		b.mu.Unlock()
		_, _ = w.Write([]byte(`{"message":"Alerts cleared"}`))
	})
	return mux
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

type cliHarness struct {
	backend   *fakeBackend
	url       string
	tokenFile string
}

func newHarness(t *testing.T) *cliHarness {
	t.Helper()
	t.Setenv(envToken, "")
	t.Setenv(envAPIURL, "")
	t.Setenv(envTokenFile, "")
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	return &cliHarness{backend: backend, url: srv.URL, tokenFile: filepath.Join(t.TempDir(), "token")}
}

func (h *cliHarness) run(ctx context.Context, stdin string, args ...string) (string, error) {
	out := &lockedBuffer{}
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--api-url", h.url, "--token-file", h.tokenFile, "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestCheckCity(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(context.Background(), "", "check", "city", "Singapore")
	require.NoError(t, err)
	require.Contains(t, out, "Singapore")
	require.Contains(t, out, "AQI: 52 (Moderate)")
	require.Contains(t, out, "Dominant pollutant: PM25")
	require.Contains(t, out, "What to do:")
	require.Contains(t, out, "Acceptable Air Quality: Air quality is acceptable for most people.")

	_, err = h.run(context.Background(), "", "check", "city", "Atlantis")
	require.Error(t, err)
	require.Equal(t, "City not found", userMessage(err))
}

func TestCheckGeoRejectsBadCoordinates(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(context.Background(), "", "check", "geo", "north", "1")
	require.EqualError(t, err, `invalid latitude "north"`)

	out, err := h.run(context.Background(), "", "--json", "check", "geo", "1.35", "103.82")
	require.NoError(t, err)
	var reading struct {
		AQI      int    `json:"aqi"`
		CityName string `json:"city_name"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &reading))
	require.Equal(t, 52, reading.AQI)
	require.Equal(t, "Singapore", reading.CityName)
}

func TestSearch(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(context.Background(), "", "search", "Singapore")
	require.NoError(t, err)
	require.Contains(t, out, "@5508")
	require.Contains(t, out, "Singapore Central")
}

func TestAdviceGeneral(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(context.Background(), "", "advice", "--aqi", "160")
	require.NoError(t, err)
	require.Contains(t, out, "AQI 160 (Unhealthy)")
	require.Contains(t, out, "Limit long runs outdoors today.")
	require.NotContains(t, out, "general guidance")

	h.backend.mu.Lock()
	h.backend.failAdvice = true
	h.backend.mu.Unlock()
	out, err = h.run(context.Background(), "", "advice", "--aqi", "160")
	require.NoError(t, err)
	require.Contains(t, out, "general guidance")

	_, err = h.run(context.Background(), "", "advice")
	require.Error(t, err)
}

func TestAdvicePersonalizedUsesSessionProfile(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, saveToken(h.tokenFile, "tok-1"))

	out, err := h.run(context.Background(), "", "advice", "--city", "Singapore", "--time-outside", "1-2h")
	require.NoError(t, err)
	require.Contains(t, out, "Keep your inhaler close")

	h.backend.mu.Lock()
	body := h.backend.adviceBody
	h.backend.mu.Unlock()
	require.NotNil(t, body)
	require.Equal(t, "Singapore", body.Location)
	require.Equal(t, 34, body.Age)
	require.Equal(t, "1-2h", body.TimeOutside)
	require.Equal(t, []string{"asthma"}, body.Conditions)
	require.Equal(t, 52, body.AQI)
}

func TestAdvicePersonalizedRequiresLogin(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(context.Background(), "", "advice", "--city", "Singapore", "--personal")
	require.Error(t, err)
	require.Equal(t, "Please log in to get personalized advice", userMessage(err))
}

func TestLoginSavesTokenAndWhoami(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(context.Background(), "wrong\n", "login", "--email", "ann@example.com")
	require.Error(t, err)

	out, err := h.run(context.Background(), "secret\n", "login", "--email", "ann@example.com")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as Ann")

	saved, err := os.ReadFile(h.tokenFile)
	require.NoError(t, err)
	require.Equal(t, "tok-1\n", string(saved))

	out, err = h.run(context.Background(), "", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Name: Ann")
	require.Contains(t, out, "Health conditions: asthma")

	_, err = h.run(context.Background(), "", "logout")
	require.NoError(t, err)
	out, err = h.run(context.Background(), "", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Not logged in")
}

func TestLoginPrintToken(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(context.Background(), "ann@example.com\nsecret\n", "login", "--print")
	require.NoError(t, err)
	require.Contains(t, out, "tok-1")
	_, err = os.Stat(h.tokenFile)
	require.True(t, os.IsNotExist(err))
}

func TestAlertsListAndClear(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, saveToken(h.tokenFile, "tok-1"))

	out, err := h.run(context.Background(), "", "alerts", "list")
	require.NoError(t, err)
	require.Contains(t, out, "aqi_change at Delhi, AQI 180 (Unhealthy)")
	require.Contains(t, out, "- Wear an N95 mask")

	out, err = h.run(context.Background(), "", "alerts", "clear")
	require.NoError(t, err)
	require.Contains(t, out, "Alerts cleared")
	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	require.True(t, h.backend.cleared)
}

func TestTrackRequiresLogin(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(context.Background(), "", "track", "--lat", "1.35", "--lon", "103.82")
	require.Error(t, err)
	require.Contains(t, out, "aqictl login")
}

func TestTrackStaticPositionUntilInterrupted(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, saveToken(h.tokenFile, "tok-1"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := h.run(ctx, "", "track", "--lat", "1.35", "--lon", "103.82")
		done <- result{out, err}
	}()

	require.Eventually(t, func() bool {
		h.backend.mu.Lock()
		defer h.backend.mu.Unlock()
		return len(h.backend.alertBodies) == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	var res result
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("track did not stop after interrupt")
	}
	require.NoError(t, res.err)
	require.Contains(t, res.out, "initial at Singapore, AQI 52 (Moderate)")
	require.Contains(t, res.out, "Live tracking stopped after 1 alerts")

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	require.Equal(t, "initial", h.backend.alertBodies[0].Type)
	require.Equal(t, "Moderate", h.backend.alertBodies[0].AQICategory)
	require.True(t, h.backend.alertBodies[0].SendEmail)
}

func TestTrackStopsWhenLocationIsDenied(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, saveToken(h.tokenFile, "tok-1"))

	route := filepath.Join(t.TempDir(), "route.jsonl")
	require.NoError(t, os.WriteFile(route, []byte("{\"lat\":1.35,\"lon\":103.82}\n{\"error\":\"denied\"}\n"), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := h.run(ctx, "", "track", "--positions", route, "--interval", "10ms")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Please allow location access")
	require.Contains(t, out, "Live tracking stopped after 1 alerts")
}

func TestTrackContinuesAfterRejectedAlert(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, saveToken(h.tokenFile, "tok-1"))
	h.backend.mu.Lock()
	h.backend.failAlerts = 1
	h.backend.mu.Unlock()

	route := filepath.Join(t.TempDir(), "route.jsonl")
	require.NoError(t, os.WriteFile(route, []byte("{\"lat\":1.35,\"lon\":103.82}\n{\"lat\":1.36,\"lon\":103.82}\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := h.run(ctx, "", "track", "--positions", route, "--interval", "10ms")
		done <- result{out, err}
	}()

	require.Eventually(t, func() bool {
		h.backend.mu.Lock()
		defer h.backend.mu.Unlock()
		return len(h.backend.alertBodies) == 2
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	var res result
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("track did not stop after interrupt")
	}
	require.NoError(t, res.err)
	require.Contains(t, res.out, "Alert could not be sent: alert store unavailable")
	require.Contains(t, res.out, "Live tracking stopped after 1 alerts")

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	require.Equal(t, "initial", h.backend.alertBodies[0].Type)
	require.Equal(t, "initial", h.backend.alertBodies[1].Type)
}
