package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"

	"github.com/yanqian/aqi-advisor/internal/domain/livetrack"
)

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier posts alerts to the chat a user linked to their profile.
type TelegramNotifier struct {
	sender  messageSender
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewTelegramNotifier creates a bot client; messages are throttled to
// ratePerSecond across all chats.
func NewTelegramNotifier(token string, ratePerSecond int, logger *slog.Logger) (*TelegramNotifier, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
	}
	return newTelegramNotifier(b, ratePerSecond, logger), nil
}

func newTelegramNotifier(sender messageSender, ratePerSecond int, logger *slog.Logger) *TelegramNotifier {
	if ratePerSecond <= 0 {
		ratePerSecond = 25
	}
	return &TelegramNotifier{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Limit(float64(ratePerSecond)), ratePerSecond),
		logger:  logger.With("component", "notify.telegram"),
	}
}

// NotifyAlert implements livetrack.Notifier.
func (t *TelegramNotifier) NotifyAlert(ctx context.Context, to livetrack.Recipient, alert livetrack.Alert) error {
	if to.TelegramChatID == 0 {
		return ErrNoAddress
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit exceeded: %w", err)
	}
	params := &bot.SendMessageParams{
		ChatID:    to.TelegramChatID,
		Text:      telegramText(alert),
		ParseMode: models.ParseModeHTML,
	}
	if _, err := t.sender.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send telegram message to chat_id %d: %w", to.TelegramChatID, err)
	}
	t.logger.Info("alert telegram message sent", "user_id", to.UserID, "aqi", alert.AQI)
	return nil
}

func telegramText(alert livetrack.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n%s\n\n", html.EscapeString(Subject(alert)), html.EscapeString(alert.Message))
	fmt.Fprintf(&b, "<b>AQI:</b> %d (%s)\n", alert.AQI, html.EscapeString(alert.AQICategory))
	for i, rec := range alert.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, html.EscapeString(rec))
	}
	return strings.TrimRight(b.String(), "\n")
}

var _ livetrack.Notifier = (*TelegramNotifier)(nil)
