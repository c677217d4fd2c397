package advisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/aqi-advisor/internal/domain/advice"
	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
	"github.com/yanqian/aqi-advisor/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

func TestRecommendQuick(t *testing.T) {
	svc := newTestService(nil, nil)

	resp, err := svc.Recommend(context.Background(), RecommendationRequest{AQI: 120, Conditions: []string{"Asthma", "children"}})
	require.NoError(t, err)
	require.Equal(t, aqi.CategoryUnhealthySensitive, resp.Severity)
	require.Equal(t, quickRecommendations[aqi.CategoryUnhealthySensitive]+respiratoryNote+vulnerableNote, resp.Recommendation)

	resp, err = svc.Recommend(context.Background(), RecommendationRequest{AQI: 20})
	require.NoError(t, err)
	require.Equal(t, quickRecommendations[aqi.CategoryGood], resp.Recommendation)

	_, err = svc.Recommend(context.Background(), RecommendationRequest{AQI: -1})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestPersonalizedAdviceUsesModel(t *testing.T) {
	chat := &stubChatClient{responses: []chatgpt.ChatCompletionResponse{completion("1. **Current Air Quality Assessment** Fine.")}}
	svc := newTestService(chat, &stubVerifier{canonical: "Delhi"})
	svc.cfg.Prompt = "Answer in English."

	pm := 88.2
	resp, err := svc.PersonalizedAdvice(context.Background(), AdviceRequest{
		AirContext: AirContext{AQI: 160, Pollutants: map[string]*float64{aqi.PollutantPM25: &pm}},
		Profile:    advice.Profile{Location: " delhi ", Age: 70, Conditions: []string{"Asthma"}, Question: "I have to work outside"},
	})
	require.NoError(t, err)
	require.False(t, resp.Fallback)
	require.Equal(t, "Delhi", resp.Location)
	require.Equal(t, "Unhealthy", resp.Category)
	require.Equal(t, "1. **Current Air Quality Assessment** Fine.", resp.Advice)

	require.Equal(t, 1, chat.calls)
	require.Equal(t, "gpt-test", chat.last.Model)
	require.Len(t, chat.last.Messages, 2)
	require.True(t, strings.HasSuffix(chat.last.Messages[0].Content, "Answer in English."))
	user := chat.last.Messages[1].Content
	require.Contains(t, user, "- Location: Delhi")
	require.Contains(t, user, "- Age: 70 years old")
	require.Contains(t, user, "- PM2.5: 88.2 µg/m³")
	require.Contains(t, user, "- Health Conditions: asthma")
	require.Contains(t, user, "IMPORTANT: The user must be outside.")
}

func TestPersonalizedAdviceFallsBack(t *testing.T) {
	chat := &stubChatClient{err: errors.New("boom")}
	svc := newTestService(chat, nil)

	resp, err := svc.PersonalizedAdvice(context.Background(), AdviceRequest{
		AirContext: AirContext{AQI: 160, CityName: "Lahore"},
		Profile:    advice.Profile{Question: "I must work outside today"},
	})
	require.NoError(t, err)
	require.True(t, resp.Fallback)
	require.Equal(t, "Lahore", resp.Location)
	require.Contains(t, resp.Advice, "1. **Current Air Quality Assessment** The air quality in Lahore is unhealthy with an AQI of 160.")
	require.Contains(t, resp.Advice, "3. **Recommended Actions**\n- Wear an N95 or N99 respirator while outside")

	// no chat client configured
	svc = newTestService(nil, nil)
	resp, err = svc.PersonalizedAdvice(context.Background(), AdviceRequest{
		AirContext: AirContext{AQI: 30},
		Profile:    advice.Profile{Location: "Oslo", AgeGroup: "child"},
	})
	require.NoError(t, err)
	require.True(t, resp.Fallback)
	require.Contains(t, resp.Advice, "With child, monitor for symptoms")
}

func TestPersonalizedAdviceValidation(t *testing.T) {
	chat := &stubChatClient{}
	svc := newTestService(chat, &stubVerifier{err: ErrLocationNotFound})

	_, err := svc.PersonalizedAdvice(context.Background(), AdviceRequest{
		AirContext: AirContext{AQI: 50},
		Profile:    advice.Profile{Location: "Oslo"},
	})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = svc.PersonalizedAdvice(context.Background(), AdviceRequest{
		AirContext: AirContext{AQI: 50},
		Profile:    advice.Profile{Location: "Atlantis", Age: 30},
	})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Equal(t, `Location "Atlantis" not found`, apperrors.MessageOf(err))
	require.Zero(t, chat.calls)
}

func TestPersonalizedAdviceVerifierOutage(t *testing.T) {
	chat := &stubChatClient{responses: []chatgpt.ChatCompletionResponse{completion("advice")}}
	svc := newTestService(chat, &stubVerifier{err: errors.New("geocoder down")})

	resp, err := svc.PersonalizedAdvice(context.Background(), AdviceRequest{
		AirContext: AirContext{AQI: 50},
		Profile:    advice.Profile{Location: "Oslo", Gender: "female"},
	})
	require.NoError(t, err)
	require.Equal(t, "Oslo", resp.Location)
	require.Equal(t, "advice", resp.Advice)
}

func TestPersonalizedRecommendation(t *testing.T) {
	chat := &stubChatClient{responses: []chatgpt.ChatCompletionResponse{completion("**🌍 Current Situation** ok")}}
	svc := newTestService(chat, nil)

	user := &UserContext{Name: "Sam", Age: 8, City: "Paris", Conditions: []string{"asthma"}}
	resp, err := svc.PersonalizedRecommendation(context.Background(), user, PersonalizedRequest{AirContext: AirContext{AQI: 90}})
	require.NoError(t, err)
	require.Equal(t, SourceLLM, resp.Source)
	require.True(t, resp.Personalized)
	require.True(t, resp.HasHealthProfile)
	require.Equal(t, "**🌍 Current Situation** ok", resp.Recommendation)
	require.Equal(t, time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC), resp.Timestamp)

	prompt := chat.last.Messages[1].Content
	require.Contains(t, prompt, "📍 Location: Paris")
	require.Contains(t, prompt, "User: Sam | Age: 8 years | (Child/Teen - high sensitivity, developing lungs)")
}

func TestPersonalizedRecommendationFallback(t *testing.T) {
	svc := newTestService(&stubChatClient{err: errors.New("timeout")}, nil)

	resp, err := svc.PersonalizedRecommendation(context.Background(), nil, PersonalizedRequest{AirContext: AirContext{AQI: 160}})
	require.NoError(t, err)
	require.Equal(t, SourceFallback, resp.Source)
	require.False(t, resp.Personalized)
	require.False(t, resp.HasHealthProfile)
	require.Equal(t, aqi.FallbackRecommendation(aqi.CategoryUnhealthy), resp.Recommendation)

	user := &UserContext{Age: 72, Conditions: []string{"none"}}
	resp, err = svc.PersonalizedRecommendation(context.Background(), user, PersonalizedRequest{AirContext: AirContext{AQI: 160}})
	require.NoError(t, err)
	require.False(t, resp.HasHealthProfile)
	require.Contains(t, resp.Recommendation, "Your age group is more sensitive to pollution")
}

func newTestService(client ChatClient, verifier LocationVerifier) *service {
	s := &service{
		cfg:    Config{Model: "gpt-test", Temperature: 0.2, MaxTokens: 700},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now: func() time.Time {
			return time.Date(2024, 7, 1, 17, 0, 0, 0, time.FixedZone("SGT", 8*60*60))
		},
	}
	if client != nil {
		s.client = client
	}
	if verifier != nil {
		s.locations = verifier
	}
	return s
}

func completion(content string) chatgpt.ChatCompletionResponse {
	return chatgpt.ChatCompletionResponse{
		Choices: []chatgpt.Choice{{Message: chatgpt.Message{Role: "assistant", Content: content}}},
	}
}

type stubChatClient struct {
	responses []chatgpt.ChatCompletionResponse
	err       error
	calls     int
	last      chatgpt.ChatCompletionRequest
}

func (s *stubChatClient) CreateChatCompletion(_ context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return chatgpt.ChatCompletionResponse{}, s.err
	}
	if len(s.responses) == 0 {
		return chatgpt.ChatCompletionResponse{}, nil
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

type stubVerifier struct {
	canonical string
	err       error
}

func (s *stubVerifier) VerifyCity(_ context.Context, name string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.canonical, nil
}
