package leagues

import (
	"log/slog"
	"strings"

	"github.com/azeta/zerozerobot/internal/classify"
)

// Filter decides whether a match's competition is on the watch-list.
// WatchAll deployments skip the list entirely; that is a supported
// configuration, not an error path.
type Filter struct {
	store    *Store
	watchAll bool
}

func NewFilter(store *Store, watchAll bool) *Filter {
	return &Filter{store: store, watchAll: watchAll}
}

// IsWatched applies the match strategies in reliability order: exact
// competition id, slug containment, then normalized country+league
// substring against the observed league+country composite. On a slug or
// name hit it opportunistically backfills the entry's competition id so the
// next cycle can use the exact strategy.
func (f *Filter) IsWatched(snap classify.MatchSnapshot) bool {
	if f.watchAll {
		return true
	}

	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	slug := strings.ToLower(snap.Slug)
	composite := Normalize(snap.Competition + " " + snap.Country)

	for id, league := range f.store.leagues {
		if snap.CompetitionID != 0 && league.CompetitionID == snap.CompetitionID {
			return true
		}

		matched := false
		if slug != "" && league.Slug != "" {
			watchedSlug := strings.ToLower(league.Slug)
			if strings.Contains(slug, watchedSlug) || strings.Contains(watchedSlug, slug) {
				matched = true
			}
		}
		if !matched && league.CountryNorm != "" && league.LeagueNorm != "" {
			if strings.Contains(composite, league.CountryNorm) && strings.Contains(composite, league.LeagueNorm) {
				matched = true
			}
		}
		if !matched {
			continue
		}

		if snap.CompetitionID != 0 && league.CompetitionID == 0 {
			league.CompetitionID = snap.CompetitionID
			f.store.leagues[id] = league
			if err := f.store.save(); err != nil {
				slog.Error("failed to persist competition id backfill", "league", id, "error", err)
			} else {
				slog.Info("backfilled competition id", "league", id, "competition_id", snap.CompetitionID)
			}
		}
		return true
	}
	return false
}
