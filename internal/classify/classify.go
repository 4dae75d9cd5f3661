// Package classify folds a schema-flexible upstream match payload into a
// strongly typed snapshot and decides whether the match is scoreless at the
// end of its first half. All functions here are pure: same payload and
// clock in, same snapshot out.
package classify

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/azeta/zerozerobot/internal/upstream"
)

type PeriodState int

const (
	PeriodUnknown PeriodState = iota
	FirstHalf
	SecondHalf
	HalfTimeBreak
	PeriodOther
)

func (p PeriodState) String() string {
	switch p {
	case FirstHalf:
		return "first_half"
	case SecondHalf:
		return "second_half"
	case HalfTimeBreak:
		return "halftime"
	case PeriodOther:
		return "other"
	}
	return "unknown"
}

// MinuteUnknown marks a snapshot whose match clock could not be inferred.
const MinuteUnknown = -1

// MatchSnapshot is the immutable per-cycle view of one live match. It is
// rebuilt from scratch on every poll and discarded after classification.
type MatchSnapshot struct {
	ID            string
	Home          string
	Away          string
	Competition   string
	Country       string
	CompetitionID int
	Slug          string
	ScoreHome     int
	ScoreAway     int
	Period        PeriodState
	Minute        int
	// Confidence rates how the minute/period were derived (5 = explicit
	// halftime status, 0 = nothing usable). Diagnostics only; admission
	// never reads it.
	Confidence int
}

// Upstream status code for the halftime break.
const statusCodeHalftime = 31

var minutePattern = regexp.MustCompile(`(\d{1,3})\s*['′’]`)

var halftimeTokens = []string{"halftime", "half time", "half-time"}
var secondHalfTokens = []string{"2nd half", "second half"}
var firstHalfTokens = []string{"1st half", "first half"}
var endedTokens = []string{"ended", "finished", "postponed", "abandoned", "not started"}

// Classify derives the canonical snapshot for one raw match. now is injected
// so the period-start strategy stays deterministic under test.
func Classify(raw upstream.RawMatch, now time.Time) MatchSnapshot {
	snap := MatchSnapshot{
		Minute: MinuteUnknown,
	}

	snap.Home, _ = raw.String("homeTeam", "name")
	snap.Away, _ = raw.String("awayTeam", "name")
	snap.Competition, _ = raw.String("tournament", "name")
	snap.Country, _ = raw.String("tournament", "category", "name")
	snap.CompetitionID, _ = raw.Int("tournament", "uniqueTournament", "id")
	snap.Slug, _ = raw.String("tournament", "uniqueTournament", "slug")
	snap.ID = matchID(raw, snap)

	snap.ScoreHome = extractScore(raw, "homeScore")
	snap.ScoreAway = extractScore(raw, "awayScore")

	description, _ := raw.String("status", "description")
	description = strings.ToLower(description)
	statusCode, _ := raw.Int("status", "code")
	hint := periodHint(raw, description)

	// Strategy 1: explicit halftime status. The clock is irrelevant during
	// the break.
	if statusCode == statusCodeHalftime || containsAny(description, halftimeTokens) {
		snap.Period = HalfTimeBreak
		snap.Confidence = 5
		return snap
	}

	snap.Period = hint

	// Strategy 2: period start timestamp plus a period hint.
	if startTS, ok := raw.Int64("time", "currentPeriodStartTimestamp"); ok && startTS > 0 {
		elapsed := int(now.Unix()-startTS) / 60
		if elapsed < 0 {
			elapsed = 0
		}
		if hint == SecondHalf {
			snap.Minute = 45 + elapsed
		} else {
			snap.Minute = elapsed
		}
		snap.Confidence = 4
		return snap
	}

	// Strategy 3: minute embedded in the free-text description ("67'").
	if m := minutePattern.FindStringSubmatch(description); m != nil {
		minute, err := strconv.Atoi(m[1])
		if err == nil {
			if hint == SecondHalf && minute <= 45 {
				// Some responses restart the visible clock at the break.
				minute += 45
			}
			snap.Minute = minute
			snap.Confidence = 3
			return snap
		}
	}

	// Strategy 4: a bare clock value with no further context.
	if minute, ok := raw.Int("status", "minute"); ok {
		snap.Minute = minute
		snap.Confidence = 1
		return snap
	}

	snap.Confidence = 0
	return snap
}

// periodHint reads the period from the status object: a numeric period
// field when present, else half tokens in the description.
func periodHint(raw upstream.RawMatch, description string) PeriodState {
	if period, ok := raw.Int("status", "period"); ok {
		switch period {
		case 1:
			return FirstHalf
		case 2:
			return SecondHalf
		}
	}
	switch {
	case containsAny(description, secondHalfTokens):
		return SecondHalf
	case containsAny(description, firstHalfTokens):
		return FirstHalf
	case containsAny(description, endedTokens):
		return PeriodOther
	}
	return PeriodUnknown
}

// extractScore reads one side's score: nested {current|display} object
// first, then a bare number, else 0.
func extractScore(raw upstream.RawMatch, side string) int {
	if score, ok := raw.Int(side, "current"); ok {
		return score
	}
	if score, ok := raw.Int(side, "display"); ok {
		return score
	}
	if score, ok := raw.Int(side); ok {
		return score
	}
	return 0
}

// matchID prefers the upstream event id; without one it derives a stable
// hash of home, away and competition. The "h:" prefix keeps synthetic ids
// out of the numeric upstream id space.
func matchID(raw upstream.RawMatch, snap MatchSnapshot) string {
	if id, ok := raw.Int64("id"); ok && id != 0 {
		return strconv.FormatInt(id, 10)
	}
	if id, ok := raw.String("id"); ok && id != "" {
		return id
	}
	if snap.Home == "" && snap.Away == "" {
		return ""
	}
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%s", snap.Home, snap.Away, snap.Competition)))
	return "h:" + hex.EncodeToString(sum[:])[:12]
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}

// Thresholds are the minute boundaries of the qualification predicate. The
// upstream clock is inferred rather than authoritative, so both half
// boundaries carry a deliberate grace window.
type Thresholds struct {
	BreakMinute     int
	FirstHalfFrom   int
	SecondHalfUntil int
}

func DefaultThresholds() Thresholds {
	return Thresholds{BreakMinute: 45, FirstHalfFrom: 40, SecondHalfUntil: 50}
}

// ScorelessAtBreak reports whether the snapshot shows a 0-0 at (or right
// around) the end of the first half. Any non-zero score disqualifies
// regardless of period and minute. A match observed shortly into the second
// half still reflects a first-half 0-0 outcome and qualifies; past that
// window it is too late to tell.
func (t Thresholds) ScorelessAtBreak(s MatchSnapshot) bool {
	if s.ScoreHome != 0 || s.ScoreAway != 0 {
		return false
	}
	switch s.Period {
	case HalfTimeBreak:
		return true
	case FirstHalf:
		return s.Minute != MinuteUnknown && s.Minute >= t.FirstHalfFrom
	case SecondHalf:
		return s.Minute != MinuteUnknown && s.Minute <= t.SecondHalfUntil
	case PeriodOther:
		return false
	default:
		return s.Minute != MinuteUnknown && s.Minute >= t.BreakMinute && s.Minute <= t.SecondHalfUntil
	}
}
