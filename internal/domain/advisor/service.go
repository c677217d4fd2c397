package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/aqi-advisor/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

// ErrLocationNotFound is returned by a LocationVerifier for unknown places.
var ErrLocationNotFound = errors.New("location not found")

// Service exposes AQI based health recommendation capabilities.
type Service interface {
	Recommend(ctx context.Context, req RecommendationRequest) (RecommendationResponse, error)
	PersonalizedAdvice(ctx context.Context, req AdviceRequest) (AdviceResponse, error)
	PersonalizedRecommendation(ctx context.Context, user *UserContext, req PersonalizedRequest) (PersonalizedResponse, error)
}

type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// LocationVerifier resolves a user typed place to its canonical city name.
type LocationVerifier interface {
	VerifyCity(ctx context.Context, name string) (string, error)
}

type service struct {
	cfg       Config
	client    ChatClient
	locations LocationVerifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires up the advisor domain. client and locations are optional;
// without a client every answer comes from the rule based fallback.
func NewService(cfg Config, client ChatClient, locations LocationVerifier, logger *slog.Logger) Service {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 700
	}
	return &service{
		cfg:       cfg,
		client:    client,
		locations: locations,
		logger:    logger.With("component", "advisor.service"),
		now:       time.Now,
	}
}

func (s *service) Recommend(ctx context.Context, req RecommendationRequest) (RecommendationResponse, error) {
	if req.AQI < 0 {
		return RecommendationResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "aqi cannot be negative", nil)
	}
	return RecommendationResponse{
		Recommendation: quickRecommendation(req.AQI, req.Conditions),
		AQI:            req.AQI,
		Severity:       req.classification().Category,
	}, nil
}

func (s *service) PersonalizedAdvice(ctx context.Context, req AdviceRequest) (AdviceResponse, error) {
	profile := req.Profile
	if strings.TrimSpace(profile.Location) == "" {
		profile.Location = req.CityName
	}
	profile = profile.Normalize()
	if err := profile.Validate(); err != nil {
		return AdviceResponse{}, err
	}
	req.Profile = profile

	location, err := s.verifyLocation(ctx, profile.Location)
	if err != nil {
		return AdviceResponse{}, err
	}

	resp := AdviceResponse{
		AQI:      req.AQI,
		Category: req.classification().Label,
		Location: location,
	}
	text, err := s.complete(ctx, s.systemPrompt(adviceSystemPrompt), buildAdvicePrompt(location, req))
	if err != nil {
		s.logger.Warn("personalized advice generation failed, using fallback", "location", location, "error", err)
		resp.Advice = fallbackAdvice(location, req)
		resp.Fallback = true
		return resp, nil
	}
	resp.Advice = text
	return resp, nil
}

func (s *service) PersonalizedRecommendation(ctx context.Context, user *UserContext, req PersonalizedRequest) (PersonalizedResponse, error) {
	if req.AQI < 0 {
		return PersonalizedResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "aqi cannot be negative", nil)
	}
	city := ""
	if user != nil {
		city = user.City
	}
	location := firstNonEmpty(req.Location, req.CityName, city, "your area")

	resp := PersonalizedResponse{
		Personalized:     user != nil,
		HasHealthProfile: user != nil && len(reportedConditions(user.Conditions)) > 0,
		Timestamp:        s.now().UTC(),
	}
	text, err := s.complete(ctx, s.systemPrompt(personalizedSystemPrompt), buildPersonalizedPrompt(location, user, req))
	if err != nil {
		s.logger.Warn("personalized recommendation failed, using fallback", "aqi", req.AQI, "error", err)
		resp.Recommendation = personalizedFallback(user, req.AQI)
		resp.Source = SourceFallback
		return resp, nil
	}
	resp.Recommendation = text
	resp.Source = SourceLLM
	return resp, nil
}

func (s *service) verifyLocation(ctx context.Context, name string) (string, error) {
	if s.locations == nil {
		return name, nil
	}
	verified, err := s.locations.VerifyCity(ctx, name)
	switch {
	case errors.Is(err, ErrLocationNotFound):
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("Location %q not found", name), err)
	case err != nil:
		s.logger.Warn("location verification unavailable, using input", "location", name, "error", err)
		return name, nil
	case strings.TrimSpace(verified) == "":
		return name, nil
	}
	return verified, nil
}

func (s *service) complete(ctx context.Context, system, user string) (string, error) {
	if s.client == nil {
		return "", errors.New("no chat client configured")
	}
	completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []chatgpt.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeLLM, "chatgpt request failed", err)
	}
	s.logger.Debug("chat completion finished", "model", s.cfg.Model, "total_tokens", completion.Usage.TotalTokens)
	text, err := completion.Content()
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeLLM, "chatgpt response malformed", err)
	}
	if text == "" {
		return "", apperrors.Wrap(apperrors.CodeLLM, "chatgpt returned empty advice", nil)
	}
	return text, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
