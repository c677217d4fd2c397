package advisor

import (
	"time"

	"github.com/yanqian/aqi-advisor/internal/domain/advice"
	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
)

// Advice sources reported to clients.
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// Config wires runtime dependencies for the advisor domain.
type Config struct {
	Model       string
	Temperature float32
	MaxTokens   int
	Prompt      string
}

// RecommendationRequest asks for the quick, rule based recommendation.
type RecommendationRequest struct {
	AQI        int      `json:"aqi" binding:"gte=0"`
	Conditions []string `json:"conditions"`
}

// RecommendationResponse is the quick recommendation.
type RecommendationResponse struct {
	Recommendation string       `json:"recommendation"`
	AQI            int          `json:"aqi"`
	Severity       aqi.Category `json:"severity"`
}

// AirContext describes the air at the user's location.
type AirContext struct {
	AQI               int                 `json:"aqi" binding:"gte=0"`
	AQICategory       string              `json:"aqi_category,omitempty"`
	Pollutants        map[string]*float64 `json:"pollutants,omitempty"`
	DominantPollutant string              `json:"dominant_pollutant,omitempty"`
	Weather           aqi.Weather         `json:"weather"`
	CityName          string              `json:"city_name,omitempty"`
}

// AdviceRequest is the personalized advice form: the air conditions plus
// the profile the user filled in.
type AdviceRequest struct {
	AirContext
	advice.Profile
}

// AdviceResponse carries advice text in numbered sections.
type AdviceResponse struct {
	Advice   string `json:"advice"`
	AQI      int    `json:"aqi"`
	Category string `json:"category"`
	Location string `json:"location"`
	Fallback bool   `json:"fallback,omitempty"`
}

// UserContext is the stored profile of a logged in user.
type UserContext struct {
	Name       string
	Age        int
	Gender     string
	City       string
	Conditions []string
}

// PersonalizedRequest asks for advice for the stored profile.
type PersonalizedRequest struct {
	AirContext
	Location string `json:"location"`
}

// PersonalizedResponse is the stored-profile recommendation.
type PersonalizedResponse struct {
	Recommendation   string    `json:"recommendation"`
	Personalized     bool      `json:"personalized"`
	HasHealthProfile bool      `json:"has_health_profile"`
	Source           string    `json:"source"`
	Timestamp        time.Time `json:"timestamp"`
}

func (r RecommendationRequest) classification() aqi.Classification {
	return aqi.Classify(r.AQI)
}

func (c AirContext) classification() aqi.Classification {
	return aqi.Classify(c.AQI)
}

func (c AirContext) pollutant(code string) (float64, bool) {
	v, ok := c.Pollutants[code]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}
