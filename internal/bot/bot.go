// Package bot is the interactive command surface. It is a thin adapter over
// the core state: it only calls exported accessors on the watch-list store,
// the ledger and the runtime stats.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/azeta/zerozerobot/internal/leagues"
	"github.com/azeta/zerozerobot/internal/ledger"
	"github.com/azeta/zerozerobot/internal/monitor"
)

const toggleLeaguePrefix = "toggle_league:"
const confirmLeagues = "confirm_leagues"

type Bot struct {
	api    *tgbotapi.BotAPI
	store  *leagues.Store
	ledger *ledger.Ledger
	stats  *monitor.RuntimeStats
	chatID int64 // when set, only this chat may issue commands
}

func New(api *tgbotapi.BotAPI, store *leagues.Store, led *ledger.Ledger, stats *monitor.RuntimeStats, chatID int64) *Bot {
	return &Bot{api: api, store: store, ledger: led, stats: stats, chatID: chatID}
}

// Run consumes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	slog.Info("command listener started", "account", b.api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			slog.Info("command listener stopped")
			return
		case update := <-updates:
			switch {
			case update.CallbackQuery != nil:
				b.handleCallback(update.CallbackQuery)
			case update.Message != nil:
				b.handleMessage(update.Message)
			}
		}
	}
}

func (b *Bot) allowed(chatID int64) bool {
	return b.chatID == 0 || chatID == b.chatID
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if !b.allowed(message.Chat.ID) {
		return
	}
	text := strings.TrimSpace(message.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}

	command := strings.ToLower(strings.Fields(text)[0])
	switch command {
	case "/start":
		b.reply(message.Chat.ID,
			"👋 Welcome to the 0-0 monitor!\n\n"+
				"I watch live matches and send an alert when a watched league's match "+
				"is still 0-0 at the end of the first half.\n\n"+
				"Use /help for the command list.")
	case "/help":
		b.reply(message.Chat.ID,
			"📖 Commands:\n\n"+
				"/start - welcome message\n"+
				"/help - this guide\n"+
				"/leagues - pick the leagues to watch\n"+
				"/stats - runtime counters\n\n"+
				"Matches are checked once a minute; each qualifying match is reported exactly once.")
	case "/stats":
		b.sendStats(message.Chat.ID)
	case "/leagues", "/addleague":
		b.sendLeagueMenu(message.Chat.ID)
	default:
		b.reply(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) sendStats(chatID int64) {
	summary := b.stats.Summary()
	tracked, notified := b.ledger.Counts()

	lastCycle := "never"
	if !summary.LastCycleAt.IsZero() {
		lastCycle = fmt.Sprintf("%ds ago", int(time.Since(summary.LastCycleAt).Seconds()))
	}
	b.reply(chatID, fmt.Sprintf(
		"📊 Runtime stats\n\n"+
			"Uptime: %s\n"+
			"Last cycle: %s (%d live matches)\n"+
			"Alerts sent: %d\n"+
			"Tracked now: %d\n"+
			"Notified total: %d\n"+
			"Watched leagues: %d",
		time.Since(summary.StartedAt).Round(time.Second),
		lastCycle, summary.LastLiveCount,
		summary.SentTotal, tracked, notified, len(b.store.All())))
}

// sendLeagueMenu shows the checkbox keyboard over the built-in league list,
// one button per row for readability.
func (b *Bot) sendLeagueMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, leagueMenuText)
	msg.ReplyMarkup = b.leagueKeyboard()
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("failed to send league menu", "error", err)
	}
}

const leagueMenuText = "📋 Select the leagues to watch:\n\nTap a league to add or remove it."

func (b *Bot) leagueKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, league := range leagues.DefaultLeagues() {
		mark := "☐"
		if b.store.Contains(league.ID) {
			mark = "✅"
		}
		label := fmt.Sprintf("%s %s %s", mark, league.Country, league.League)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, toggleLeaguePrefix+league.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Done", confirmLeagues),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) handleCallback(query *tgbotapi.CallbackQuery) {
	if query.Message == nil || !b.allowed(query.Message.Chat.ID) {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		slog.Warn("failed to ack callback", "error", err)
	}

	switch {
	case strings.HasPrefix(query.Data, toggleLeaguePrefix):
		id := strings.TrimPrefix(query.Data, toggleLeaguePrefix)
		league, ok := findDefaultLeague(id)
		if !ok {
			return
		}
		if _, err := b.store.Toggle(league); err != nil {
			slog.Error("failed to toggle league", "league", id, "error", err)
		}

		edit := tgbotapi.NewEditMessageTextAndMarkup(
			query.Message.Chat.ID, query.Message.MessageID, leagueMenuText, b.leagueKeyboard())
		if _, err := b.api.Send(edit); err != nil {
			slog.Warn("failed to refresh league menu", "error", err)
		}

	case query.Data == confirmLeagues:
		edit := tgbotapi.NewEditMessageText(
			query.Message.Chat.ID, query.Message.MessageID,
			fmt.Sprintf("✅ Saved!\n\nWatching %d leagues for first-half 0-0 matches.", len(b.store.All())))
		if _, err := b.api.Send(edit); err != nil {
			slog.Warn("failed to confirm league menu", "error", err)
		}
	}
}

func findDefaultLeague(id string) (leagues.WatchedLeague, bool) {
	for _, league := range leagues.DefaultLeagues() {
		if league.ID == id {
			return league, true
		}
	}
	return leagues.WatchedLeague{}, false
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("failed to send reply", "error", err)
	}
}
