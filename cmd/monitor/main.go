package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/azeta/zerozerobot/internal/bot"
	"github.com/azeta/zerozerobot/internal/classify"
	"github.com/azeta/zerozerobot/internal/leagues"
	"github.com/azeta/zerozerobot/internal/ledger"
	"github.com/azeta/zerozerobot/internal/monitor"
	"github.com/azeta/zerozerobot/internal/notify"
	"github.com/azeta/zerozerobot/internal/pkg/config"
	"github.com/azeta/zerozerobot/internal/pkg/health"
	"github.com/azeta/zerozerobot/internal/upstream"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to config file")
	flag.Parse()

	// Local .env is optional; the platform usually injects the environment.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Telegram.Token == "" {
		slog.Error("TELEGRAM_TOKEN is not configured")
		os.Exit(1)
	}
	if cfg.Telegram.ChatID == 0 {
		slog.Error("CHAT_ID is not configured")
		os.Exit(1)
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		slog.Error("failed to create telegram bot", "error", err)
		os.Exit(1)
	}
	slog.Info("authorized on telegram", "account", api.Self.UserName)

	led, err := ledger.Open(cfg.Ledger.File)
	if err != nil {
		slog.Error("failed to open ledger", "error", err)
		os.Exit(1)
	}
	store, err := leagues.Open(cfg.Leagues.File)
	if err != nil {
		slog.Error("failed to open watch-list", "error", err)
		os.Exit(1)
	}

	stats := monitor.NewRuntimeStats()
	client := upstream.NewClient(cfg.Upstream)
	client.OnFallback(stats.RecordProxyFallback)

	thresholds := classify.Thresholds{
		BreakMinute:     cfg.Classifier.BreakMinute,
		FirstHalfFrom:   cfg.Classifier.FirstHalfFrom,
		SecondHalfUntil: cfg.Classifier.SecondHalfUntil,
	}
	filter := leagues.NewFilter(store, cfg.Leagues.WatchAll)
	notifier := notify.NewTelegramNotifier(api, cfg.Telegram.ChatID)
	scheduler := monitor.NewScheduler(
		cfg.Monitor, client, filter, thresholds, led, notifier, stats, cfg.Upstream.EventURLBase)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("received shutdown signal, stopping")
		cancel()
	}()

	health.Run(ctx, health.AddrFor(cfg.Health.Port), stats, cfg.Health.ReadHeaderTimeout.Std())

	commands := bot.New(api, store, led, stats, cfg.Telegram.ChatID)
	go commands.Run(ctx)

	scheduler.Run(ctx)

	// One last flush so state written mid-cycle is not lost on shutdown.
	if err := led.Flush(); err != nil {
		slog.Error("final ledger flush failed", "error", err)
	}
	slog.Info("bot stopped")
}
