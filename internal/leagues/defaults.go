package leagues

// defaultLeagues is the built-in watch-list used when no file exists yet.
func defaultLeagues() []WatchedLeague {
	entries := []struct {
		id, country, league, slug string
	}{
		{"estonia", "Estonia", "Meistriliiga", "estonia"},
		{"hong-kong", "Hong Kong", "Premier League", "hong-kong"},
		{"netherlands", "Netherlands", "Eredivisie", "netherlands"},
		{"iceland-urva", "Iceland", "Urvalsdeild", "iceland-urva"},
		{"luxembourg", "Luxembourg", "National Division", "luxembourg"},
		{"qatar", "Qatar", "Stars League", "qatar"},
		{"norway-elite", "Norway", "Eliteserien", "norway-elite"},
		{"norway-obos", "Norway", "OBOS-ligaen", "norway-obos"},
		{"singapore", "Singapore", "Premier League", "singapore"},
		{"switzerland", "Switzerland", "Super League", "switzerland"},
		{"vietnam", "Vietnam", "V.League 1", "vietnam"},
		{"italy-serie-a", "Italy", "Serie A", "italy-serie-a"},
		{"italy-serie-b", "Italy", "Serie B", "italy-serie-b"},
		{"france-ligue-1", "France", "Ligue 1", "france-ligue-1"},
		{"france-ligue-2", "France", "Ligue 2", "france-ligue-2"},
		{"spain-la-liga", "Spain", "LaLiga", "spain-la-liga"},
		{"spain-segunda", "Spain", "Segunda Division", "spain-segunda-division"},
		{"germany-bundesliga", "Germany", "Bundesliga", "germany-bundesliga"},
		{"germany-2-bundesliga", "Germany", "2. Bundesliga", "germany-2-bundesliga"},
		{"england-premier-league", "England", "Premier League", "england-premier-league"},
		{"england-championship", "England", "Championship", "england-championship"},
		{"england-league-one", "England", "League One", "england-league-one"},
		{"england-league-two", "England", "League Two", "england-league-two"},
	}

	out := make([]WatchedLeague, 0, len(entries))
	for _, e := range entries {
		out = append(out, WatchedLeague{
			ID:          e.id,
			Country:     e.country,
			League:      e.league,
			CountryNorm: Normalize(e.country),
			LeagueNorm:  Normalize(e.league),
			Slug:        e.slug,
		})
	}
	return out
}

// DefaultLeagues exposes the built-in list for the command surface's
// selection menu.
func DefaultLeagues() []WatchedLeague {
	return defaultLeagues()
}
