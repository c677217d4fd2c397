package advice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

func TestRecommendFallbackOnFailure(t *testing.T) {
	backend := &stubBackend{err: apperrors.Wrap(apperrors.CodeDataUnavailable, "status 500", nil)}
	svc := NewRecommender(backend, newTestLogger())

	got, err := svc.Recommend(context.Background(), aqi.Reading{AQI: 420}, nil)
	require.NoError(t, err)
	require.Equal(t, SourceFallback, got.Source)
	require.Equal(t, aqi.CategoryHazardous, got.Category)
	require.Equal(t, aqi.FallbackRecommendation(aqi.CategoryHazardous), got.Text)
	require.Equal(t, 1, backend.generalCalls)
}

func TestRecommendUsesBackendText(t *testing.T) {
	backend := &stubBackend{text: "1. **Masks** Wear one."}
	svc := NewRecommender(backend, newTestLogger())

	got, err := svc.Recommend(context.Background(), aqi.Reading{AQI: 75}, nil)
	require.NoError(t, err)
	require.Equal(t, SourceAI, got.Source)
	require.Equal(t, "Masks", got.Document.Sections[0].Title)
}

func TestRecommendEmptyTextFallsBack(t *testing.T) {
	svc := NewRecommender(&stubBackend{text: "  "}, newTestLogger())
	got, err := svc.Recommend(context.Background(), aqi.Reading{AQI: 30}, nil)
	require.NoError(t, err)
	require.Equal(t, aqi.FallbackRecommendation(aqi.CategoryGood), got.Text)
}

func TestRecommendPersonalizedUnauthenticated(t *testing.T) {
	backend := &stubBackend{err: apperrors.Wrap(apperrors.CodeUnauthenticated, "login required", nil)}
	svc := NewRecommender(backend, newTestLogger())

	_, err := svc.Recommend(context.Background(), aqi.Reading{AQI: 160}, &Profile{Location: "Delhi", Age: 30})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUnauthenticated))
	require.Equal(t, 1, backend.personalCalls)
}

func TestRecommendPersonalizedFallbackOnNetworkError(t *testing.T) {
	backend := &stubBackend{err: errors.New("connection refused")}
	svc := NewRecommender(backend, newTestLogger())

	got, err := svc.Recommend(context.Background(), aqi.Reading{AQI: 160}, &Profile{Location: "Delhi", Gender: "female"})
	require.NoError(t, err)
	require.Equal(t, aqi.FallbackRecommendation(aqi.CategoryUnhealthy), got.Text)
}

func TestRecommendPersonalizedInvalidProfile(t *testing.T) {
	backend := &stubBackend{}
	svc := NewRecommender(backend, newTestLogger())

	_, err := svc.Recommend(context.Background(), aqi.Reading{AQI: 160}, &Profile{Location: "Delhi"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Zero(t, backend.personalCalls)
}

func TestRecommendPersonalizedSendsNormalizedProfile(t *testing.T) {
	backend := &stubBackend{text: "stay in"}
	svc := NewRecommender(backend, newTestLogger())

	_, err := svc.Recommend(context.Background(), aqi.Reading{AQI: 160}, &Profile{Location: " Delhi ", Conditions: []string{"Asthma"}})
	require.NoError(t, err)
	require.Equal(t, "Delhi", backend.lastPersonal.Profile.Location)
	require.Equal(t, []string{"asthma"}, backend.lastPersonal.Profile.Conditions)
}

type stubBackend struct {
	text          string
	err           error
	generalCalls  int
	personalCalls int
	lastPersonal  PersonalizedRequest
}

func (s *stubBackend) AIRecommendation(ctx context.Context, aqiValue int, conditions []string) (string, error) {
	s.generalCalls++
	return s.text, s.err
}

func (s *stubBackend) PersonalizedAdvice(ctx context.Context, req PersonalizedRequest) (string, error) {
	s.personalCalls++
	s.lastPersonal = req
	return s.text, s.err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
