package auth

import "time"

// Config drives authentication behavior.
type Config struct {
	Secret          string
	TokenTTL        time.Duration
	RefreshTokenTTL time.Duration
}

// User represents a persisted account together with its health profile.
type User struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	PasswordHash     string    `json:"-"`
	City             string    `json:"city,omitempty"`
	Age              int       `json:"age,omitempty"`
	Gender           string    `json:"gender,omitempty"`
	HealthConditions []string  `json:"healthConditions,omitempty"`
	TelegramChatID   int64     `json:"telegramChatId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// RegisterRequest captures the registration payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	City     string `json:"city"`
}

// LoginRequest captures login details.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the signed token.
type LoginResponse struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	User         UserView `json:"user"`
}

// UserView trims sensitive fields.
type UserView struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	City             string    `json:"city,omitempty"`
	Age              int       `json:"age,omitempty"`
	Gender           string    `json:"gender,omitempty"`
	HealthConditions []string  `json:"healthConditions,omitempty"`
	TelegramChatID   int64     `json:"telegramChatId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ProfileUpdate replaces the editable profile fields. Nil fields are left
// unchanged.
type ProfileUpdate struct {
	Name             *string   `json:"name"`
	City             *string   `json:"city"`
	Age              *int      `json:"age"`
	Gender           *string   `json:"gender"`
	HealthConditions *[]string `json:"healthConditions"`
	TelegramChatID   *int64    `json:"telegramChatId"`
}

// Claims are extracted from the JWT token.
type Claims struct {
	UserID    int64
	Email     string
	TokenType string
	ExpiresAt time.Time
}

// RefreshRequest encapsulates refresh token payload.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}
