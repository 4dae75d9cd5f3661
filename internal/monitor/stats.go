package monitor

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RuntimeStats owns every counter the process exposes: prometheus metrics
// for scraping plus a plain snapshot for the chat command surface. It
// replaces what would otherwise be free-floating package globals.
type RuntimeStats struct {
	registry *prometheus.Registry

	cyclesTotal       prometheus.Counter
	fetchFailures     prometheus.Counter
	proxyFallbacks    prometheus.Counter
	matchesSeen       prometheus.Counter
	notificationsSent prometheus.Counter
	notifyFailures    prometheus.Counter
	persistFailures   prometheus.Counter

	mu            sync.Mutex
	startedAt     time.Time
	lastCycleAt   time.Time
	lastLiveCount int
	sentTotal     int64
}

func NewRuntimeStats() *RuntimeStats {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &RuntimeStats{
		registry:  registry,
		startedAt: time.Now(),
		cyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zerozero", Name: "cycles_total",
			Help: "Poll cycles completed.",
		}),
		fetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zerozero", Name: "fetch_failures_total",
			Help: "Cycles where every upstream endpoint failed.",
		}),
		proxyFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zerozero", Name: "proxy_fallbacks_total",
			Help: "Fetch attempts retried through the read-through proxy.",
		}),
		matchesSeen: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zerozero", Name: "matches_seen_total",
			Help: "Live matches received from upstream.",
		}),
		notificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zerozero", Name: "notifications_sent_total",
			Help: "Alerts delivered to the notification sink.",
		}),
		notifyFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zerozero", Name: "notify_failures_total",
			Help: "Alert deliveries that failed (retried next qualifying cycle).",
		}),
		persistFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zerozero", Name: "persist_failures_total",
			Help: "Ledger or watch-list writes that failed.",
		}),
	}
}

// Registry exposes the metrics registry for the /metrics endpoint.
func (s *RuntimeStats) Registry() *prometheus.Registry { return s.registry }

// RecordProxyFallback is wired as the upstream client's fallback hook.
func (s *RuntimeStats) RecordProxyFallback() { s.proxyFallbacks.Inc() }

func (s *RuntimeStats) recordCycle(liveCount int) {
	s.cyclesTotal.Inc()
	s.matchesSeen.Add(float64(liveCount))
	s.mu.Lock()
	s.lastCycleAt = time.Now()
	s.lastLiveCount = liveCount
	s.mu.Unlock()
}

func (s *RuntimeStats) recordSent() {
	s.notificationsSent.Inc()
	s.mu.Lock()
	s.sentTotal++
	s.mu.Unlock()
}

// Summary is the command-surface view of the stats.
type Summary struct {
	StartedAt     time.Time
	LastCycleAt   time.Time
	LastLiveCount int
	SentTotal     int64
}

func (s *RuntimeStats) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		StartedAt:     s.startedAt,
		LastCycleAt:   s.lastCycleAt,
		LastLiveCount: s.lastLiveCount,
		SentTotal:     s.sentTotal,
	}
}
