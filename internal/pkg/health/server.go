// Package health runs the keep-alive HTTP server: hosting platforms ping it
// to keep the process warm, and it doubles as the metrics endpoint.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/azeta/zerozerobot/internal/monitor"
)

func Run(ctx context.Context, addr string, stats *monitor.RuntimeStats, readHeaderTimeout time.Duration) {
	mux := http.NewServeMux()

	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "Bot is alive!")
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		summary := stats.Summary()
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":          "ok",
			"uptime_seconds":  int(time.Since(summary.StartedAt).Seconds()),
			"last_cycle_at":   summary.LastCycleAt,
			"last_live_count": summary.LastLiveCount,
			"sent_total":      summary.SentTotal,
		})
	})

	mux.Handle("/metrics", promhttp.HandlerFor(stats.Registry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("keep-alive server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("keep-alive server error", "error", err)
		}
	}()
}

func AddrFor(port int) string {
	return fmt.Sprintf(":%d", port)
}
