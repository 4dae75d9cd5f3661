package leagues

import (
	"path/filepath"
	"testing"
)

func TestOpen_DefaultsWhenAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leagues.json")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(store.All()) == 0 {
		t.Fatal("absent file should seed the built-in default list")
	}
	if !store.Contains("italy-serie-a") {
		t.Error("default list should include italy-serie-a")
	}

	// Defaults are persisted: a reopen keeps them without re-seeding.
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if len(reopened.All()) != len(store.All()) {
		t.Error("defaults were not persisted")
	}
}

func TestToggle_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leagues.json")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	watched, err := store.Toggle(WatchedLeague{ID: "italy-serie-a"})
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if watched {
		t.Error("toggling a present league should remove it")
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Contains("italy-serie-a") {
		t.Error("removal should survive a restart")
	}

	// Toggling back fills in normalized forms.
	watched, err = reopened.Toggle(WatchedLeague{ID: "italy-serie-a", Country: "Italy", League: "Serie A"})
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if !watched {
		t.Error("toggling an absent league should add it")
	}
	for _, league := range reopened.All() {
		if league.ID == "italy-serie-a" && league.LeagueNorm != "serie a" {
			t.Errorf("normalized league = %q, want %q", league.LeagueNorm, "serie a")
		}
	}
}
