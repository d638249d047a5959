package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"

	"sensor-alert-service/internal/logging"
	"sensor-alert-service/internal/models"
	"sensor-alert-service/internal/utils"
)

// messageSender is the part of *bot.Bot the sink needs.
type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)
}

// TelegramSink posts alerts to a fixed set of Telegram chats.
type TelegramSink struct {
	sender   messageSender
	chatIDs  []int64
	limiter  *rate.Limiter
	logger   *logging.Logger
	attempts int
	delay    time.Duration
}

func NewTelegramSink(token string, chatIDs []int64, ratePerSecond int, logger *logging.Logger) (*TelegramSink, error) {
	if token == "" {
		return nil, errors.New("missing telegram bot token")
	}
	if len(chatIDs) == 0 {
		return nil, errors.New("no telegram chat ids configured")
	}
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	return newTelegramSink(b, chatIDs, ratePerSecond, logger), nil
}

func newTelegramSink(sender messageSender, chatIDs []int64, ratePerSecond int, logger *logging.Logger) *TelegramSink {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	return &TelegramSink{
		sender:   sender,
		chatIDs:  chatIDs,
		limiter:  rate.NewLimiter(rate.Limit(float64(ratePerSecond)), ratePerSecond),
		logger:   logger,
		attempts: 3,
		delay:    time.Second,
	}
}

func (s *TelegramSink) Name() string { return "telegram" }

// Send delivers the alert to every chat. All chats are attempted; the first
// error is returned.
func (s *TelegramSink) Send(ctx context.Context, alert models.Alert) error {
	text := FormatAlert(alert)

	var firstErr error
	for _, chatID := range s.chatIDs {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("telegram rate limit wait: %w", err)
		}

		params := &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      text,
			ParseMode: "Markdown",
		}
		err := utils.Retry(ctx, s.logger, s.attempts, s.delay, func() error {
			if _, err := s.sender.SendMessage(ctx, params); err != nil {
				return fmt.Errorf("failed to send Telegram message to chat_id %d: %w", chatID, err)
			}
			return nil
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// FormatAlert renders an alert as a Markdown message.
func FormatAlert(alert models.Alert) string {
	unit := "°C"
	if alert.Type == models.SensorHumidity {
		unit = "%"
	}
	return fmt.Sprintf(
		"*%s alert #%d*\n"+
			"*Value:* %.2f%s\n"+
			"*Threshold:* %.2f%s\n"+
			"*Status:* %s\n"+
			"*At:* %s",
		alert.Type, alert.ID,
		alert.Value, unit,
		alert.Threshold, unit,
		alert.Status,
		alert.CreatedAt.UTC().Format(time.RFC3339),
	)
}
