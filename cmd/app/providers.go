package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/aqi-advisor/internal/domain/advisor"
	"github.com/yanqian/aqi-advisor/internal/domain/airquality"
	"github.com/yanqian/aqi-advisor/internal/domain/auth"
	"github.com/yanqian/aqi-advisor/internal/domain/livetrack"
	"github.com/yanqian/aqi-advisor/internal/infra/alertstore"
	"github.com/yanqian/aqi-advisor/internal/infra/config"
	"github.com/yanqian/aqi-advisor/internal/infra/geocode/nominatim"
	"github.com/yanqian/aqi-advisor/internal/infra/llm/chatgpt"
	"github.com/yanqian/aqi-advisor/internal/infra/notify"
	"github.com/yanqian/aqi-advisor/internal/infra/openweather"
	"github.com/yanqian/aqi-advisor/internal/infra/userrepo"
	"github.com/yanqian/aqi-advisor/internal/infra/waqi"
)

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:          cfg.Auth.Secret,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	}
}

func provideAirQualityConfig(cfg *config.Config) airquality.Config {
	return airquality.Config{
		WeatherTimeout: cfg.OpenWeather.Timeout,
		Alternatives:   cfg.WAQI.Alternatives,
	}
}

func provideAdvisorConfig(cfg *config.Config) advisor.Config {
	return advisor.Config{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.Advisor.MaxTokens,
		Prompt:      cfg.Advisor.Prompt,
	}
}

func provideLiveTrackConfig(cfg *config.Config) livetrack.Config {
	return livetrack.Config{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LiveTrack.MaxTokens,
	}
}

func provideWAQIClient(cfg *config.Config) (*waqi.Client, error) {
	return waqi.NewClient(cfg.WAQI.BaseURL, cfg.WAQI.Token, cfg.WAQI.Timeout)
}

// provideWeatherSource returns nil without an API key; feeds are then served
// without weather enhancement.
func provideWeatherSource(cfg *config.Config, logger *slog.Logger) airquality.WeatherSource {
	if strings.TrimSpace(cfg.OpenWeather.APIKey) == "" {
		logger.Info("openweather api key not set, weather enhancement disabled")
		return nil
	}
	client, err := openweather.NewClient(cfg.OpenWeather.BaseURL, cfg.OpenWeather.APIKey, cfg.OpenWeather.Timeout)
	if err != nil {
		logger.Error("invalid openweather configuration, weather enhancement disabled", "error", err)
		return nil
	}
	return client
}

func provideGeocoder(cfg *config.Config) *nominatim.Client {
	return nominatim.NewClient(cfg.Nominatim.BaseURL, cfg.Nominatim.UserAgent, cfg.Nominatim.Timeout)
}

// provideChatGPTClient returns nil without an API key so the advice services
// run on their rule based fallbacks.
func provideChatGPTClient(cfg *config.Config, logger *slog.Logger) *chatgpt.Client {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logger.Info("llm api key not set, using fallback recommendations")
		return nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
	if err != nil {
		logger.Error("invalid llm configuration, using fallback recommendations", "error", err)
		return nil
	}
	return client
}

func provideAdvisorChat(client *chatgpt.Client) advisor.ChatClient {
	if client == nil {
		return nil
	}
	return client
}

func provideLiveTrackChat(client *chatgpt.Client) livetrack.ChatClient {
	if client == nil {
		return nil
	}
	return client
}

func providePostgresPool(cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, func()) {
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil, func() {}
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repositories", "error", err)
		return nil, func() {}
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
		return nil, func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repositories", "error", err)
		pool.Close()
		return nil, func() {}
	}
	logger.Info("postgres enabled")
	return pool, pool.Close
}

func provideUserRepository(pool *pgxpool.Pool) auth.Repository {
	if pool == nil {
		return userrepo.NewMemoryRepository()
	}
	return userrepo.NewPostgresRepository(pool)
}

func provideValkeyClient(cfg *config.Config, logger *slog.Logger) (valkey.Client, func()) {
	if !cfg.Valkey.Enabled {
		return nil, func() {}
	}
	opt, err := buildValkeyOptions(cfg.Valkey.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return nil, func() {}
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return nil, func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		client.Close()
		return nil, func() {}
	}
	logger.Info("valkey enabled", "addr", cfg.Valkey.Addr)
	return client, client.Close
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideAlertStore(cfg *config.Config, client valkey.Client) livetrack.Store {
	if client == nil {
		return alertstore.NewMemoryStore(cfg.LiveTrack.AlertTTL, cfg.LiveTrack.HistoryLimit)
	}
	return alertstore.NewValkeyStore(client, cfg.Valkey.Prefix, cfg.LiveTrack.AlertTTL, cfg.LiveTrack.HistoryLimit)
}

// provideNotifier combines the configured channels. It returns nil when no
// channel is configured, which disables alert notifications.
func provideNotifier(cfg *config.Config, logger *slog.Logger) livetrack.Notifier {
	var channels notify.Multi
	smtpCfg := notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}
	if smtpCfg.Configured() {
		channels = append(channels, notify.NewEmailNotifier(smtpCfg, logger))
	} else {
		logger.Info("smtp not configured, alert emails disabled")
	}
	if token := strings.TrimSpace(cfg.Telegram.Token); token != "" {
		tg, err := notify.NewTelegramNotifier(token, cfg.Telegram.RatePerSecond, logger)
		if err != nil {
			logger.Error("failed to create telegram notifier", "error", err)
		} else {
			channels = append(channels, tg)
		}
	}
	if len(channels) == 0 {
		return nil
	}
	return channels
}
