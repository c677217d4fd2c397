package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

// Service exposes authentication workflows.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (UserView, error)
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
	Refresh(ctx context.Context, refreshToken string) (LoginResponse, error)
	Profile(ctx context.Context, userID int64) (UserView, error)
	UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) (UserView, error)
}

type service struct {
	cfg    Config
	repo   Repository
	logger *slog.Logger
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// NewService constructs a Service instance.
func NewService(cfg Config, repo Repository, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		repo:   repo,
		logger: logger.With("component", "auth.service"),
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (UserView, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid email address", err)
	}
	name, err := normalizeName(req.Name)
	if err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	city, err := normalizeCity(req.City)
	if err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	if err := validatePassword(req.Password); err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	_, exists, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeAuth, "failed to check user", err)
	}
	if exists {
		return UserView{}, apperrors.Wrap(apperrors.CodeEmailExists, "email already registered", nil)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeAuth, "failed to hash password", err)
	}
	user, err := s.repo.Create(ctx, User{Email: email, Name: name, City: city, PasswordHash: string(hashed)})
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return UserView{}, apperrors.Wrap(apperrors.CodeEmailExists, "email already registered", err)
		}
		return UserView{}, apperrors.Wrap(apperrors.CodeAuth, "failed to create user", err)
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return toView(user), nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid email address", err)
	}
	if strings.TrimSpace(req.Password) == "" {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "password cannot be empty", nil)
	}
	user, found, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeAuth, "failed to fetch user", err)
	}
	if !found {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidCredentials, "invalid email or password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidCredentials, "invalid email or password", nil)
	}
	return s.buildLoginResponse(user)
}

func (s *service) ValidateToken(ctx context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token missing", nil)
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != tokenTypeAccess {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token type mismatch", nil)
	}
	return claims, nil
}

func (s *service) Profile(ctx context.Context, userID int64) (UserView, error) {
	user, found, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeAuth, "failed to load profile", err)
	}
	if !found {
		return UserView{}, apperrors.Wrap(apperrors.CodeUserNotFound, "user not found", nil)
	}
	return toView(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) (UserView, error) {
	user, found, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeAuth, "failed to load profile", err)
	}
	if !found {
		return UserView{}, apperrors.Wrap(apperrors.CodeUserNotFound, "user not found", nil)
	}
	if update.Name != nil {
		if user.Name, err = normalizeName(*update.Name); err != nil {
			return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
		}
	}
	if update.City != nil {
		if user.City, err = normalizeCity(*update.City); err != nil {
			return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
		}
	}
	if update.Age != nil {
		if *update.Age != 0 && (*update.Age < 1 || *update.Age > 120) {
			return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, "age must be between 1 and 120", nil)
		}
		user.Age = *update.Age
	}
	if update.Gender != nil {
		gender := strings.ToLower(strings.TrimSpace(*update.Gender))
		if len(gender) > 32 {
			return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, "gender is invalid", nil)
		}
		user.Gender = gender
	}
	if update.HealthConditions != nil {
		if user.HealthConditions, err = normalizeConditions(*update.HealthConditions); err != nil {
			return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
		}
	}
	if update.TelegramChatID != nil {
		user.TelegramChatID = *update.TelegramChatID
	}
	updated, err := s.repo.UpdateProfile(ctx, user)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return UserView{}, apperrors.Wrap(apperrors.CodeUserNotFound, "user not found", err)
		}
		return UserView{}, apperrors.Wrap(apperrors.CodeAuth, "failed to update profile", err)
	}
	s.logger.Info("user profile updated", "user_id", userID)
	return toView(updated), nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (LoginResponse, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return LoginResponse{}, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token type mismatch", nil)
	}
	user, found, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeAuth, "failed to load user", err)
	}
	if !found {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeUserNotFound, "user not found", nil)
	}
	return s.buildLoginResponse(user)
}

func (s *service) buildLoginResponse(user User) (LoginResponse, error) {
	access, err := s.generateToken(user, tokenTypeAccess, s.cfg.TokenTTL)
	if err != nil {
		return LoginResponse{}, err
	}
	refresh, err := s.generateToken(user, tokenTypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{
		Token:        access,
		RefreshToken: refresh,
		User:         toView(user),
	}, nil
}

func (s *service) generateToken(user User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        newTokenID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeAuth, "failed to sign token", err)
	}
	return signed, nil
}

func (s *service) parseToken(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token invalid", nil)
	}
	if claims.ExpiresAt == nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token missing expiry", nil)
	}
	if claims.ExpiresAt.Time.Before(time.Now()) {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token expired", nil)
	}
	return Claims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		TokenType: claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func toView(user User) UserView {
	return UserView{
		ID:               user.ID,
		Email:            user.Email,
		Name:             user.Name,
		City:             user.City,
		Age:              user.Age,
		Gender:           user.Gender,
		HealthConditions: user.HealthConditions,
		TelegramChatID:   user.TelegramChatID,
		CreatedAt:        user.CreatedAt,
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if email == "" {
		return "", errors.New("email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", err
	}
	return email, nil
}

func normalizeName(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return "", errors.New("name cannot be empty")
	}
	if len([]rune(name)) > 50 {
		return "", errors.New("name cannot exceed 50 characters")
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' && r != '\'' {
			return "", errors.New("name must contain only letters")
		}
	}
	return name, nil
}

func normalizeCity(raw string) (string, error) {
	city := strings.Join(strings.Fields(raw), " ")
	if len([]rune(city)) > 100 {
		return "", errors.New("city cannot exceed 100 characters")
	}
	return city, nil
}

// normalizeConditions lowercases and dedupes; "none" cannot be combined
// with other conditions.
func normalizeConditions(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, c := range raw {
		clean := strings.ToLower(strings.TrimSpace(c))
		if clean == "" {
			continue
		}
		if len(clean) > 64 {
			return nil, errors.New("health condition is too long")
		}
		if _, dup := seen[clean]; dup {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	if len(out) > 1 {
		for _, c := range out {
			if c == "none" {
				return nil, errors.New(`"none" cannot be combined with other health conditions`)
			}
		}
	}
	return out, nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"userId"`
	Email     string `json:"email"`
	TokenType string `json:"type"`
}

func newTokenID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(buf)
}
