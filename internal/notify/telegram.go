package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// telegramMaxMessage is the Bot API limit for a single text message
const telegramMaxMessage = 4096

// TelegramNotifier posts the plain-text report to one chat
type TelegramNotifier struct {
	token    string
	chatID   int64
	endpoint string
	client   *http.Client
	logger   zerolog.Logger
}

func NewTelegramNotifier(token string, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{
		token:    token,
		chatID:   chatID,
		endpoint: tgbotapi.APIEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   log.With().Str("component", "telegram_notifier").Logger(),
	}
}

// WithEndpoint points the notifier at another Bot API host (format "<base>/bot%s/%s")
func (n *TelegramNotifier) WithEndpoint(endpoint string) *TelegramNotifier {
	n.endpoint = endpoint
	return n
}

func (n *TelegramNotifier) Name() string { return "telegram" }

// Notify sends text to the configured chat. The bot is created per call since
// the program sends at most one message per run.
func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bot, err := tgbotapi.NewBotAPIWithClient(n.token, n.endpoint, n.clientFor(ctx))
	if err != nil {
		return fmt.Errorf("initializing telegram bot: %w", err)
	}

	msg := tgbotapi.NewMessage(n.chatID, truncateRunes(text, telegramMaxMessage))
	msg.DisableWebPagePreview = true
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}

	n.logger.Info().Int64("chat_id", n.chatID).Msg("Telegram message sent")
	return nil
}

// clientFor caps the client timeout at the context deadline, since tgbotapi
// requests do not take a context.
func (n *TelegramNotifier) clientFor(ctx context.Context) *http.Client {
	deadline, ok := ctx.Deadline()
	if !ok {
		return n.client
	}
	remaining := time.Until(deadline)
	if n.client.Timeout > 0 && n.client.Timeout <= remaining {
		return n.client
	}
	if remaining <= 0 {
		remaining = time.Millisecond
	}
	c := *n.client
	c.Timeout = remaining
	return &c
}

// truncateRunes keeps at most limit characters without splitting a UTF-8 sequence
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
