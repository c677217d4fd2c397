package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Auth        AuthConfig        `yaml:"auth"`
	WAQI        WAQIConfig        `yaml:"waqi"`
	OpenWeather OpenWeatherConfig `yaml:"openWeather"`
	Nominatim   NominatimConfig   `yaml:"nominatim"`
	LLM         LLMConfig         `yaml:"llm"`
	Advisor     AdvisorConfig     `yaml:"advisor"`
	LiveTrack   LiveTrackConfig   `yaml:"liveTrack"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Valkey      ValkeyConfig      `yaml:"valkey"`
	SMTP        SMTPConfig        `yaml:"smtp"`
	Telegram    TelegramConfig    `yaml:"telegram"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// AuthConfig signs and validates session tokens.
type AuthConfig struct {
	Secret          string        `yaml:"secret"`
	TokenTTL        time.Duration `yaml:"tokenTtl"`
	RefreshTokenTTL time.Duration `yaml:"refreshTokenTtl"`
}

// WAQIConfig points at the World Air Quality Index API.
type WAQIConfig struct {
	BaseURL      string        `yaml:"baseUrl"`
	Token        string        `yaml:"token"`
	Timeout      time.Duration `yaml:"timeout"`
	Alternatives int           `yaml:"alternatives"`
}

// OpenWeatherConfig enables weather enhancement and the geo fallback.
type OpenWeatherConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	APIKey  string        `yaml:"apiKey"`
	Timeout time.Duration `yaml:"timeout"`
}

// NominatimConfig drives place name lookups.
type NominatimConfig struct {
	BaseURL   string        `yaml:"baseUrl"`
	UserAgent string        `yaml:"userAgent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// LLMConfig contains ChatGPT/OpenAI settings.
type LLMConfig struct {
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseUrl"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// AdvisorConfig tunes the health advice prompts.
type AdvisorConfig struct {
	Prompt    string `yaml:"prompt"`
	MaxTokens int    `yaml:"maxTokens"`
}

// LiveTrackConfig controls the alert history kept per user.
type LiveTrackConfig struct {
	AlertTTL     time.Duration `yaml:"alertTtl"`
	HistoryLimit int           `yaml:"historyLimit"`
	MaxTokens    int           `yaml:"maxTokens"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ValkeyConfig contains connection information for the alert cache.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// SMTPConfig configures alert emails. Emails are disabled without a host.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// TelegramConfig configures chat alerts. Disabled without a token.
type TelegramConfig struct {
	Token         string `yaml:"token"`
	RatePerSecond int    `yaml:"ratePerSecond"`
}

// Load reads configuration from a YAML file and environment variables.
// Variables from a .env file (ENV_FILE or ./.env) are loaded first and never
// replace variables already present in the environment.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func loadDotEnv() error {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString("HTTP_ADDRESS", &cfg.HTTP.Address)
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	setBool("HTTP_RATE_LIMIT_ENABLED", &cfg.HTTP.RateLimit.Enabled)
	setInt("HTTP_RATE_LIMIT_RPM", &cfg.HTTP.RateLimit.RequestsPerMinute)
	setInt("HTTP_RATE_LIMIT_BURST", &cfg.HTTP.RateLimit.Burst)
	setBool("HTTP_RETRY_ENABLED", &cfg.HTTP.Retry.Enabled)
	setInt("HTTP_RETRY_MAX_ATTEMPTS", &cfg.HTTP.Retry.MaxAttempts)
	setDuration("HTTP_RETRY_BASE_BACKOFF", &cfg.HTTP.Retry.BaseBackoff)

	setString("AUTH_SECRET", &cfg.Auth.Secret)
	setDuration("AUTH_TOKEN_TTL", &cfg.Auth.TokenTTL)
	setDuration("AUTH_REFRESH_TOKEN_TTL", &cfg.Auth.RefreshTokenTTL)

	setString("WAQI_BASE_URL", &cfg.WAQI.BaseURL)
	setString("WAQI_API_TOKEN", &cfg.WAQI.Token)
	setDuration("WAQI_TIMEOUT", &cfg.WAQI.Timeout)
	setString("OPENWEATHER_BASE_URL", &cfg.OpenWeather.BaseURL)
	setString("OPENWEATHER_API_KEY", &cfg.OpenWeather.APIKey)
	setString("NOMINATIM_BASE_URL", &cfg.Nominatim.BaseURL)
	setString("NOMINATIM_USER_AGENT", &cfg.Nominatim.UserAgent)

	setString("LLM_API_KEY", &cfg.LLM.APIKey)
	setString("LLM_BASE_URL", &cfg.LLM.BaseURL)
	setString("LLM_MODEL", &cfg.LLM.Model)
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	setDuration("LLM_TIMEOUT", &cfg.LLM.Timeout)
	setString("ADVISOR_PROMPT", &cfg.Advisor.Prompt)

	setDuration("LIVE_TRACK_ALERT_TTL", &cfg.LiveTrack.AlertTTL)
	setInt("LIVE_TRACK_HISTORY_LIMIT", &cfg.LiveTrack.HistoryLimit)

	setString("POSTGRES_DSN", &cfg.Postgres.DSN)
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}
	setBool("VALKEY_ENABLED", &cfg.Valkey.Enabled)
	setString("VALKEY_ADDR", &cfg.Valkey.Addr)

	setString("SMTP_HOST", &cfg.SMTP.Host)
	setInt("SMTP_PORT", &cfg.SMTP.Port)
	setString("SMTP_USERNAME", &cfg.SMTP.Username)
	setString("SMTP_PASSWORD", &cfg.SMTP.Password)
	setString("SMTP_FROM", &cfg.SMTP.From)
	setString("TELEGRAM_BOT_TOKEN", &cfg.Telegram.Token)
	setInt("TELEGRAM_RATE_PER_SECOND", &cfg.Telegram.RatePerSecond)
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
			},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/live-tracker/*",
				},
			},
		},
		Auth: AuthConfig{
			TokenTTL:        24 * time.Hour,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		WAQI: WAQIConfig{
			BaseURL:      "https://api.waqi.info",
			Timeout:      10 * time.Second,
			Alternatives: 3,
		},
		OpenWeather: OpenWeatherConfig{
			BaseURL: "https://api.openweathermap.org",
			Timeout: 5 * time.Second,
		},
		Nominatim: NominatimConfig{
			BaseURL:   "https://nominatim.openstreetmap.org",
			UserAgent: "aqi-advisor",
			Timeout:   10 * time.Second,
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			Timeout:     30 * time.Second,
		},
		Advisor: AdvisorConfig{
			MaxTokens: 700,
		},
		LiveTrack: LiveTrackConfig{
			AlertTTL:     30 * time.Minute,
			HistoryLimit: 50,
			MaxTokens:    250,
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
		Valkey: ValkeyConfig{
			Prefix: "alerts",
		},
		SMTP: SMTPConfig{
			Port: 587,
		},
		Telegram: TelegramConfig{
			RatePerSecond: 25,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("auth.secret cannot be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.tokenTtl must be positive")
	}
	if c.Auth.RefreshTokenTTL < c.Auth.TokenTTL {
		return errors.New("auth.refreshTokenTtl must not be shorter than auth.tokenTtl")
	}
	if strings.TrimSpace(c.WAQI.BaseURL) == "" {
		return errors.New("waqi.baseUrl cannot be empty")
	}
	if strings.TrimSpace(c.WAQI.Token) == "" {
		return errors.New("waqi.token cannot be empty")
	}
	if c.LiveTrack.AlertTTL <= 0 {
		return errors.New("liveTrack.alertTtl must be positive")
	}
	if c.LiveTrack.HistoryLimit <= 0 {
		return errors.New("liveTrack.historyLimit must be positive")
	}
	if c.Valkey.Enabled && strings.TrimSpace(c.Valkey.Addr) == "" {
		return errors.New("valkey.addr cannot be empty when valkey is enabled")
	}
	if c.SMTP.Host != "" && (c.SMTP.Port <= 0 || c.SMTP.Port > 65535) {
		return errors.New("smtp.port must be a valid port")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}
