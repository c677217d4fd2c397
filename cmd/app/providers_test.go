package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/aqi-advisor/internal/infra/alertstore"
	"github.com/yanqian/aqi-advisor/internal/infra/config"
	"github.com/yanqian/aqi-advisor/internal/infra/notify"
	"github.com/yanqian/aqi-advisor/internal/infra/userrepo"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOptionalClientsAreUntypedNil(t *testing.T) {
	cfg := &config.Config{}
	logger := discardLogger()

	client := provideChatGPTClient(cfg, logger)
	require.Nil(t, client)
	require.True(t, provideAdvisorChat(client) == nil)
	require.True(t, provideLiveTrackChat(client) == nil)
	require.True(t, provideWeatherSource(cfg, logger) == nil)
	require.True(t, provideNotifier(cfg, logger) == nil)
}

func TestProvideNotifierCombinesChannels(t *testing.T) {
	cfg := &config.Config{
		SMTP:     config.SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "alerts", Password: "pw", From: "alerts@example.com"},
		Telegram: config.TelegramConfig{Token: "123:abc", RatePerSecond: 5},
	}
	notifier := provideNotifier(cfg, discardLogger())
	multi, ok := notifier.(notify.Multi)
	require.True(t, ok)
	require.Len(t, multi, 2)
}

func TestStorageFallsBackToMemory(t *testing.T) {
	cfg := &config.Config{LiveTrack: config.LiveTrackConfig{AlertTTL: 0, HistoryLimit: 50}}
	logger := discardLogger()

	pool, cleanup := providePostgresPool(cfg, logger)
	defer cleanup()
	require.Nil(t, pool)
	_, ok := provideUserRepository(pool).(*userrepo.MemoryRepository)
	require.True(t, ok)

	client, closeClient := provideValkeyClient(cfg, logger)
	defer closeClient()
	require.Nil(t, client)
	_, ok = provideAlertStore(cfg, client).(*alertstore.MemoryStore)
	require.True(t, ok)
}

func TestBuildValkeyOptions(t *testing.T) {
	opt, err := buildValkeyOptions("localhost:6379")
	require.NoError(t, err)
	require.Equal(t, []string{"localhost:6379"}, opt.InitAddress)

	opt, err = buildValkeyOptions("redis://cache.internal:6380/2")
	require.NoError(t, err)
	require.Equal(t, []string{"cache.internal:6380"}, opt.InitAddress)
	require.Equal(t, 2, opt.SelectDB)
}
