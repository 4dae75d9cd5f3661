// Package monitor runs the poll loop: fetch live matches, filter to watched
// leagues, classify, admit through the ledger, notify, persist.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/azeta/zerozerobot/internal/classify"
	"github.com/azeta/zerozerobot/internal/ledger"
	"github.com/azeta/zerozerobot/internal/notify"
	"github.com/azeta/zerozerobot/internal/pkg/config"
	"github.com/azeta/zerozerobot/internal/upstream"
)

// Fetcher is what the scheduler needs from the upstream client.
type Fetcher interface {
	FetchLive(ctx context.Context) ([]upstream.RawMatch, error)
}

// LeagueFilter decides whether a match's competition is watched.
type LeagueFilter interface {
	IsWatched(snap classify.MatchSnapshot) bool
}

// Scheduler drives the pipeline at a fixed interval. One cycle is strictly
// sequential; there is no queue, each tick re-derives its candidates from
// the live feed.
type Scheduler struct {
	cfg        config.MonitorConfig
	fetcher    Fetcher
	filter     LeagueFilter
	thresholds classify.Thresholds
	ledger     *ledger.Ledger
	notifier   notify.Notifier
	stats      *RuntimeStats

	eventURLBase string
	now          func() time.Time
}

func NewScheduler(
	cfg config.MonitorConfig,
	fetcher Fetcher,
	filter LeagueFilter,
	thresholds classify.Thresholds,
	led *ledger.Ledger,
	notifier notify.Notifier,
	stats *RuntimeStats,
	eventURLBase string,
) *Scheduler {
	return &Scheduler{
		cfg:          cfg,
		fetcher:      fetcher,
		filter:       filter,
		thresholds:   thresholds,
		ledger:       led,
		notifier:     notifier,
		stats:        stats,
		eventURLBase: eventURLBase,
		now:          time.Now,
	}
}

// Run blocks until ctx is cancelled. The first cycle fires after a short
// initial delay, then every interval.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("monitor started", "interval", s.cfg.Interval.Std(), "initial_delay", s.cfg.InitialDelay.Std())

	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.InitialDelay.Std()):
	}

	ticker := time.NewTicker(s.cfg.Interval.Std())
	defer ticker.Stop()

	s.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("monitor stopped")
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

// cycle runs one pass, recovering from any panic so a bad payload cannot
// kill the schedule.
func (s *Scheduler) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("cycle panicked", "panic", r)
		}
	}()

	raws, err := s.fetcher.FetchLive(ctx)
	if err != nil {
		s.stats.fetchFailures.Inc()
		slog.Warn("live fetch failed, skipping cycle", "error", err)
		return
	}
	s.stats.recordCycle(len(raws))
	slog.Info("live matches fetched", "count", len(raws))

	now := s.now()
	live := make(map[string]bool, len(raws))
	for _, raw := range raws {
		snap := classify.Classify(raw, now)
		if snap.ID == "" {
			continue
		}
		live[snap.ID] = true
		s.evaluate(ctx, snap, now)
	}

	s.ledger.PruneAbsent(live)
	if err := s.ledger.Flush(); err != nil {
		s.stats.persistFailures.Inc()
		slog.Error("ledger flush failed, duplicates possible after restart", "error", err)
	}
}

// evaluate runs admission for one match. Notification failures are isolated
// here: the match stays unnotified (retried next qualifying cycle) and the
// rest of the cycle proceeds.
func (s *Scheduler) evaluate(ctx context.Context, snap classify.MatchSnapshot, now time.Time) {
	if !s.filter.IsWatched(snap) {
		return
	}

	if !s.thresholds.ScorelessAtBreak(snap) {
		s.ledger.Forget(snap.ID)
		return
	}

	s.ledger.RecordTracking(snap.ID, summarize(snap), now)
	if !s.ledger.ShouldNotify(snap.ID) {
		return
	}

	if err := s.notifier.Notify(ctx, s.formatAlert(snap)); err != nil {
		s.stats.notifyFailures.Inc()
		slog.Error("notification delivery failed", "match_id", snap.ID, "error", err)
		return
	}
	s.ledger.RecordNotified(snap.ID, now)
	s.stats.recordSent()
	slog.Info("notification sent",
		"match_id", snap.ID, "home", snap.Home, "away", snap.Away,
		"competition", snap.Competition, "minute", snap.Minute, "confidence", snap.Confidence)
}

func summarize(snap classify.MatchSnapshot) ledger.StateSummary {
	return ledger.StateSummary{
		Home:        snap.Home,
		Away:        snap.Away,
		Competition: snap.Competition,
		ScoreHome:   snap.ScoreHome,
		ScoreAway:   snap.ScoreAway,
		Minute:      snap.Minute,
		Period:      snap.Period.String(),
	}
}

func (s *Scheduler) formatAlert(snap classify.MatchSnapshot) string {
	minute := "HT"
	if snap.Period != classify.HalfTimeBreak && snap.Minute != classify.MinuteUnknown {
		minute = fmt.Sprintf("%d'", snap.Minute)
	}
	competition := notify.EscapeMarkdown(snap.Competition)
	if snap.Country != "" {
		competition = fmt.Sprintf("%s (%s)", competition, notify.EscapeMarkdown(snap.Country))
	}
	text := fmt.Sprintf("⚽ *0-0 at the break!*\n\n🏠 %s - %s\n📊 %s\n⏱ %s",
		notify.EscapeMarkdown(snap.Home), notify.EscapeMarkdown(snap.Away), competition, minute)
	if s.eventURLBase != "" {
		text += fmt.Sprintf("\n🔗 %s%s", s.eventURLBase, snap.ID)
	}
	return text
}
