package advice

import (
	"context"
	"log/slog"
	"strings"

	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

// Advice sources.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Advice is the text shown to the user plus its structured form.
type Advice struct {
	Text     string       `json:"text"`
	Source   string       `json:"source"`
	Category aqi.Category `json:"category"`
	Document Document     `json:"document"`
}

// PersonalizedRequest pairs a reading with the user's profile.
type PersonalizedRequest struct {
	Reading aqi.Reading
	Profile Profile
}

// Backend performs the advice requests against the application server.
type Backend interface {
	AIRecommendation(ctx context.Context, aqiValue int, conditions []string) (string, error)
	PersonalizedAdvice(ctx context.Context, req PersonalizedRequest) (string, error)
}

// Recommender fetches health advice for a reading.
type Recommender interface {
	Recommend(ctx context.Context, reading aqi.Reading, profile *Profile) (Advice, error)
}

type recommender struct {
	backend Backend
	logger  *slog.Logger
}

// NewRecommender builds a Recommender on top of the backend client.
func NewRecommender(backend Backend, logger *slog.Logger) Recommender {
	return &recommender{backend: backend, logger: logger.With("component", "advice.recommender")}
}

// Recommend returns generated advice, or the fixed text for the reading's
// category when the backend fails. Only an invalid profile or a rejected
// session on the personalized path is returned as an error.
func (r *recommender) Recommend(ctx context.Context, reading aqi.Reading, profile *Profile) (Advice, error) {
	category := aqi.Classify(reading.AQI).Category

	var (
		text string
		err  error
	)
	if profile != nil {
		normalized := profile.Normalize()
		if vErr := normalized.Validate(); vErr != nil {
			return Advice{}, vErr
		}
		text, err = r.backend.PersonalizedAdvice(ctx, PersonalizedRequest{Reading: reading, Profile: normalized})
		if apperrors.IsCode(err, apperrors.CodeUnauthenticated) {
			return Advice{}, err
		}
	} else {
		text, err = r.backend.AIRecommendation(ctx, reading.AQI, nil)
	}

	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			r.logger.Warn("recommendation request failed, using fallback", "category", category, "error", err)
		}
		return newAdvice(aqi.FallbackRecommendation(category), SourceFallback, category), nil
	}
	return newAdvice(text, SourceAI, category), nil
}

func newAdvice(text, source string, category aqi.Category) Advice {
	return Advice{Text: text, Source: source, Category: category, Document: FormatAdvice(text)}
}
