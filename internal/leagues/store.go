// Package leagues holds the user-managed watch-list of competitions and
// decides whether a live match belongs to it.
package leagues

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// WatchedLeague is one watch-list entry. CompetitionID starts absent and is
// backfilled the first time a match of this league is observed with a
// unique-tournament id, after which it becomes the most reliable match key.
type WatchedLeague struct {
	ID            string `json:"id"`
	Country       string `json:"country"`
	League        string `json:"league"`
	CountryNorm   string `json:"country_normalized"`
	LeagueNorm    string `json:"league_normalized"`
	Slug          string `json:"slug,omitempty"`
	CompetitionID int    `json:"competition_id,omitempty"`
}

type storeFile struct {
	Leagues map[string]WatchedLeague `json:"leagues"`
}

// Store is the durable watch-list. Readers get copies; the single writer is
// either the command surface (toggles) or the filter's id backfill.
type Store struct {
	path string

	mu      sync.RWMutex
	leagues map[string]WatchedLeague
}

// Open loads the watch-list file. An absent file yields the built-in
// default list, persisted immediately so later edits have a base to diff.
func Open(path string) (*Store, error) {
	s := &Store{path: path, leagues: make(map[string]WatchedLeague)}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var file storeFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse watch-list %s: %w", path, err)
		}
		s.leagues = file.Leagues
		if s.leagues == nil {
			s.leagues = make(map[string]WatchedLeague)
		}
	case os.IsNotExist(err):
		for _, league := range defaultLeagues() {
			s.leagues[league.ID] = league
		}
		if err := s.save(); err != nil {
			slog.Error("failed to persist default watch-list", "path", path, "error", err)
		}
	default:
		return nil, fmt.Errorf("read watch-list %s: %w", path, err)
	}

	slog.Info("watch-list loaded", "path", path, "leagues", len(s.leagues))
	return s, nil
}

// All returns the watched leagues sorted by id.
func (s *Store) All() []WatchedLeague {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]WatchedLeague, 0, len(s.leagues))
	for _, league := range s.leagues {
		out = append(out, league)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.leagues[id]
	return ok
}

// Toggle adds the league when absent and removes it when present, then
// persists. Returns true when the league ends up watched.
func (s *Store) Toggle(league WatchedLeague) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.leagues[league.ID]; ok {
		delete(s.leagues, league.ID)
		return false, s.save()
	}
	if league.CountryNorm == "" {
		league.CountryNorm = Normalize(league.Country)
	}
	if league.LeagueNorm == "" {
		league.LeagueNorm = Normalize(league.League)
	}
	s.leagues[league.ID] = league
	return true, s.save()
}

// save persists the watch-list; callers must hold the write lock.
func (s *Store) save() error {
	data, err := json.MarshalIndent(storeFile{Leagues: s.leagues}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal watch-list: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write watch-list: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace watch-list: %w", err)
	}
	return nil
}

// Normalize lowercases, strips punctuation and collapses runs of spaces so
// "2. Bundesliga" and "2 bundesliga" compare equal.
func Normalize(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
