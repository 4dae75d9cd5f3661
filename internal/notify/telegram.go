// Package notify delivers formatted alerts to the configured Telegram chat.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Min interval between two messages to the same chat to stay clear of
// Telegram's ~30/min rate limit.
const sendInterval = 2 * time.Second

// Notifier is the outbound sink boundary. Delivery failure is the caller's
// signal not to mark the match as notified.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// TelegramNotifier sends messages to one chat with a minimum spacing
// between sends. Sends are synchronous: the caller learns whether delivery
// succeeded.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64

	mu       sync.Mutex
	lastSend time.Time
}

func NewTelegramNotifier(bot *tgbotapi.BotAPI, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	if n == nil || n.bot == nil {
		return fmt.Errorf("telegram notifier not initialized")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if wait := sendInterval - time.Since(n.lastSend); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	n.lastSend = time.Now()
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	slog.Info("telegram send: success", "chat_id", n.chatID, "length", len(text))
	return nil
}

// EscapeMarkdown escapes Telegram markdown metacharacters in dynamic text
// (team and competition names frequently contain them).
func EscapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
