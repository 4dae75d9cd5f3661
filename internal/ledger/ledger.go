// Package ledger is the durable at-most-once bookkeeping for notifications.
// It is the only component with state that must survive restarts: an entry
// whose NotifiedAt is set must never fire again, no matter how many times
// the process restarts or how the match is reclassified.
package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"
)

// StateSummary is the small slice of a match snapshot worth persisting with
// a tracked entry, for the command surface and post-hoc debugging.
type StateSummary struct {
	Home        string `json:"home"`
	Away        string `json:"away"`
	Competition string `json:"competition"`
	ScoreHome   int    `json:"score_home"`
	ScoreAway   int    `json:"score_away"`
	Minute      int    `json:"minute"`
	Period      string `json:"period"`
}

// Entry is one match the ledger knows about. NotifiedAt absent means
// "tracked, not yet fired".
type Entry struct {
	MatchID     string       `json:"match_id"`
	FirstSeenAt time.Time    `json:"first_seen_at"`
	LastState   StateSummary `json:"last_state"`
	NotifiedAt  *time.Time   `json:"notified_at,omitempty"`
}

// ledgerFile is the canonical on-disk shape. Version 0 (a bare JSON array
// of notified ids) is still accepted on read and upgraded in memory; the
// file is always written back in this shape.
type ledgerFile struct {
	Version int               `json:"version"`
	Entries map[string]*Entry `json:"entries"`
}

const currentVersion = 1

type Ledger struct {
	path string

	mu      sync.RWMutex
	entries map[string]*Entry
}

// Open loads the ledger from disk, migrating the legacy shape if found.
// A missing file starts an empty ledger.
func Open(path string) (*Ledger, error) {
	l := &Ledger{path: path, entries: make(map[string]*Entry)}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return l, nil
	case err != nil:
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}

	entries, migrated, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	l.entries = entries
	if migrated {
		slog.Info("migrated legacy ledger shape", "path", path, "entries", len(entries))
	}
	slog.Info("ledger loaded", "path", path, "entries", len(l.entries))
	return l, nil
}

// decode reads the canonical shape first, then falls back to the legacy
// bare array of notified ids. Legacy ids come up already notified so their
// at-most-once guarantee carries over.
func decode(data []byte) (map[string]*Entry, bool, error) {
	var file ledgerFile
	if err := json.Unmarshal(data, &file); err == nil && file.Entries != nil {
		for id, entry := range file.Entries {
			if entry.MatchID == "" {
				entry.MatchID = id
			}
		}
		return file.Entries, false, nil
	}

	var legacy []any
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, false, fmt.Errorf("neither canonical nor legacy shape: %w", err)
	}

	now := time.Now().UTC()
	entries := make(map[string]*Entry, len(legacy))
	for _, raw := range legacy {
		var id string
		switch v := raw.(type) {
		case string:
			id = v
		case float64:
			id = strconv.FormatInt(int64(v), 10)
		default:
			continue
		}
		notifiedAt := now
		entries[id] = &Entry{
			MatchID:     id,
			FirstSeenAt: now,
			NotifiedAt:  &notifiedAt,
		}
	}
	return entries, true, nil
}

// ShouldNotify reports whether the match may still fire: true iff there is
// no entry or the entry has not been notified.
func (l *Ledger) ShouldNotify(matchID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.entries[matchID]
	return !ok || entry.NotifiedAt == nil
}

// RecordTracking upserts the entry for a currently-qualifying match,
// preserving FirstSeenAt and NotifiedAt when already present.
func (l *Ledger) RecordTracking(matchID string, state StateSummary, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry, ok := l.entries[matchID]; ok {
		entry.LastState = state
		return
	}
	l.entries[matchID] = &Entry{
		MatchID:     matchID,
		FirstSeenAt: now,
		LastState:   state,
	}
}

// RecordNotified marks the match as fired. Idempotent: a second call keeps
// the first timestamp.
func (l *Ledger) RecordNotified(matchID string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[matchID]
	if !ok {
		entry = &Entry{MatchID: matchID, FirstSeenAt: now}
		l.entries[matchID] = entry
	}
	if entry.NotifiedAt == nil {
		t := now
		entry.NotifiedAt = &t
	}
}

// Forget drops the entry for a match that no longer qualifies. Entries that
// already fired are kept: scores only ever increase and finished matches do
// not come back, so retaining them is what preserves at-most-once when the
// inferred clock jitters around a boundary.
func (l *Ledger) Forget(matchID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry, ok := l.entries[matchID]; ok && entry.NotifiedAt == nil {
		delete(l.entries, matchID)
	}
}

// PruneAbsent forgets every tracked-but-unnotified entry whose match id is
// not in the live set, so entries for vanished matches do not accumulate.
func (l *Ledger) PruneAbsent(live map[string]bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, entry := range l.entries {
		if entry.NotifiedAt == nil && !live[id] {
			delete(l.entries, id)
		}
	}
}

// Flush serializes the full ledger to disk in the canonical shape. Called
// after every poll cycle; a failure is loud (it risks duplicates after a
// restart) but the in-memory state stays authoritative for this run.
func (l *Ledger) Flush() error {
	l.mu.RLock()
	data, err := json.MarshalIndent(ledgerFile{Version: currentVersion, Entries: l.entries}, "", "  ")
	l.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

// Snapshot returns a copy of all entries, newest first, for the command
// surface.
func (l *Ledger) Snapshot() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, 0, len(l.entries))
	for _, entry := range l.entries {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstSeenAt.After(out[j].FirstSeenAt) })
	return out
}

// Counts returns (tracked, notified) entry counts.
func (l *Ledger) Counts() (int, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tracked, notified := 0, 0
	for _, entry := range l.entries {
		if entry.NotifiedAt == nil {
			tracked++
		} else {
			notified++
		}
	}
	return tracked, notified
}
