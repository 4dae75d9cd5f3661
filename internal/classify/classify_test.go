package classify

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/azeta/zerozerobot/internal/upstream"
)

var testNow = time.Date(2025, 9, 14, 15, 30, 0, 0, time.UTC)

// rawMatch builds a payload shaped like one upstream live event. Numbers are
// float64 because that is what encoding/json produces.
func rawMatch(overrides map[string]any) upstream.RawMatch {
	m := upstream.RawMatch{
		"id":       float64(12345),
		"homeTeam": map[string]any{"name": "Brann"},
		"awayTeam": map[string]any{"name": "Molde"},
		"tournament": map[string]any{
			"name":     "Eliteserien",
			"category": map[string]any{"name": "Norway"},
			"uniqueTournament": map[string]any{
				"id":   float64(20),
				"slug": "eliteserien",
				"name": "Eliteserien",
			},
		},
		"homeScore": map[string]any{"current": float64(0)},
		"awayScore": map[string]any{"current": float64(0)},
		"status":    map[string]any{},
	}
	for k, v := range overrides {
		m[k] = v
	}
	return m
}

func TestClassify_Deterministic(t *testing.T) {
	raw := rawMatch(map[string]any{
		"status": map[string]any{"description": "1st half", "minute": float64(30)},
	})
	first := Classify(raw, testNow)
	second := Classify(raw, testNow)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("classify is not deterministic: %+v vs %+v", first, second)
	}
}

func TestClassify_HalftimeStatus(t *testing.T) {
	for _, status := range []map[string]any{
		{"description": "Halftime"},
		{"description": "half-time break"},
		{"code": float64(31)},
	} {
		snap := Classify(rawMatch(map[string]any{"status": status}), testNow)
		if snap.Period != HalfTimeBreak {
			t.Errorf("status %v: period = %v, want HalfTimeBreak", status, snap.Period)
		}
		if snap.Confidence != 5 {
			t.Errorf("status %v: confidence = %d, want 5", status, snap.Confidence)
		}
	}
}

func TestClassify_PeriodStartTimestamp(t *testing.T) {
	start := testNow.Add(-10 * time.Minute).Unix()

	snap := Classify(rawMatch(map[string]any{
		"status": map[string]any{"description": "1st half"},
		"time":   map[string]any{"currentPeriodStartTimestamp": float64(start)},
	}), testNow)
	if snap.Period != FirstHalf || snap.Minute != 10 || snap.Confidence != 4 {
		t.Errorf("first half: got period=%v minute=%d confidence=%d", snap.Period, snap.Minute, snap.Confidence)
	}

	snap = Classify(rawMatch(map[string]any{
		"status": map[string]any{"description": "2nd half"},
		"time":   map[string]any{"currentPeriodStartTimestamp": float64(start)},
	}), testNow)
	if snap.Period != SecondHalf || snap.Minute != 55 || snap.Confidence != 4 {
		t.Errorf("second half: got period=%v minute=%d confidence=%d", snap.Period, snap.Minute, snap.Confidence)
	}

	// A start timestamp slightly in the future must clamp to zero.
	snap = Classify(rawMatch(map[string]any{
		"status": map[string]any{"description": "1st half"},
		"time":   map[string]any{"currentPeriodStartTimestamp": float64(testNow.Add(30 * time.Second).Unix())},
	}), testNow)
	if snap.Minute != 0 {
		t.Errorf("future start: minute = %d, want 0", snap.Minute)
	}
}

func TestClassify_MinuteFromDescription(t *testing.T) {
	snap := Classify(rawMatch(map[string]any{
		"status": map[string]any{"description": "1st half, 38'"},
	}), testNow)
	if snap.Minute != 38 || snap.Confidence != 3 || snap.Period != FirstHalf {
		t.Errorf("got minute=%d confidence=%d period=%v", snap.Minute, snap.Confidence, snap.Period)
	}

	// Clock restarted at the break: a second-half token with a first-half
	// relative minute gets shifted.
	snap = Classify(rawMatch(map[string]any{
		"status": map[string]any{"description": "2nd half 3'"},
	}), testNow)
	if snap.Minute != 48 || snap.Period != SecondHalf {
		t.Errorf("restarted clock: got minute=%d period=%v, want 48 second_half", snap.Minute, snap.Period)
	}

	// An absolute second-half minute stays as-is.
	snap = Classify(rawMatch(map[string]any{
		"status": map[string]any{"description": "2nd half 67'"},
	}), testNow)
	if snap.Minute != 67 {
		t.Errorf("absolute minute: got %d, want 67", snap.Minute)
	}
}

func TestClassify_BareClock(t *testing.T) {
	snap := Classify(rawMatch(map[string]any{
		"status": map[string]any{"minute": float64(25)},
	}), testNow)
	if snap.Minute != 25 || snap.Confidence != 1 || snap.Period != PeriodUnknown {
		t.Errorf("got minute=%d confidence=%d period=%v", snap.Minute, snap.Confidence, snap.Period)
	}
}

func TestClassify_NothingUsable(t *testing.T) {
	snap := Classify(rawMatch(nil), testNow)
	if snap.Minute != MinuteUnknown || snap.Confidence != 0 || snap.Period != PeriodUnknown {
		t.Errorf("got minute=%d confidence=%d period=%v", snap.Minute, snap.Confidence, snap.Period)
	}
}

func TestClassify_PeriodField(t *testing.T) {
	snap := Classify(rawMatch(map[string]any{
		"status": map[string]any{"period": float64(2), "minute": float64(49)},
	}), testNow)
	if snap.Period != SecondHalf || snap.Minute != 49 {
		t.Errorf("got period=%v minute=%d", snap.Period, snap.Minute)
	}
}

func TestClassify_ScoreShapes(t *testing.T) {
	tests := []struct {
		name string
		home any
		want int
	}{
		{"nested current", map[string]any{"current": float64(2)}, 2},
		{"nested display", map[string]any{"display": float64(3)}, 3},
		{"bare number", float64(1), 1},
		{"missing", nil, 0},
		{"unparseable", "2-0", 0},
	}
	for _, tt := range tests {
		raw := rawMatch(nil)
		if tt.home == nil {
			delete(raw, "homeScore")
		} else {
			raw["homeScore"] = tt.home
		}
		snap := Classify(raw, testNow)
		if snap.ScoreHome != tt.want {
			t.Errorf("%s: scoreHome = %d, want %d", tt.name, snap.ScoreHome, tt.want)
		}
	}
}

func TestClassify_SyntheticID(t *testing.T) {
	raw := rawMatch(nil)
	delete(raw, "id")
	first := Classify(raw, testNow)
	second := Classify(raw, testNow)
	if first.ID == "" || first.ID != second.ID {
		t.Errorf("synthetic id not stable: %q vs %q", first.ID, second.ID)
	}
	if !strings.HasPrefix(first.ID, "h:") {
		t.Errorf("synthetic id %q should carry the h: prefix", first.ID)
	}

	withID := Classify(rawMatch(nil), testNow)
	if withID.ID != "12345" {
		t.Errorf("upstream id: got %q, want 12345", withID.ID)
	}
}

func TestScorelessAtBreak_ScoreGate(t *testing.T) {
	thresholds := DefaultThresholds()
	for _, snap := range []MatchSnapshot{
		{ScoreHome: 1, ScoreAway: 0, Period: HalfTimeBreak},
		{ScoreHome: 0, ScoreAway: 2, Period: FirstHalf, Minute: 45},
		{ScoreHome: 3, ScoreAway: 1, Period: SecondHalf, Minute: 46},
	} {
		if thresholds.ScorelessAtBreak(snap) {
			t.Errorf("snapshot with score %d-%d must never qualify", snap.ScoreHome, snap.ScoreAway)
		}
	}
}

func TestScorelessAtBreak_BoundaryTable(t *testing.T) {
	thresholds := DefaultThresholds()
	tests := []struct {
		minute int
		period PeriodState
		want   bool
	}{
		{44, FirstHalf, true}, // inside the first-half grace window
		{39, FirstHalf, false},
		{40, FirstHalf, true},
		{45, FirstHalf, true},
		{10, FirstHalf, false},
		{0, SecondHalf, true},
		{50, SecondHalf, true},
		{51, SecondHalf, false},
		{0, HalfTimeBreak, true},
		{MinuteUnknown, HalfTimeBreak, true},
		{45, PeriodUnknown, true},
		{44, PeriodUnknown, false},
		{MinuteUnknown, PeriodUnknown, false},
		{MinuteUnknown, FirstHalf, false},
		{46, PeriodOther, false},
	}
	for _, tt := range tests {
		snap := MatchSnapshot{Period: tt.period, Minute: tt.minute}
		if got := thresholds.ScorelessAtBreak(snap); got != tt.want {
			t.Errorf("(minute=%d, period=%v) = %v, want %v", tt.minute, tt.period, got, tt.want)
		}
	}
}

func TestScorelessAtBreak_CustomThresholds(t *testing.T) {
	thresholds := Thresholds{BreakMinute: 45, FirstHalfFrom: 43, SecondHalfUntil: 47}
	if thresholds.ScorelessAtBreak(MatchSnapshot{Period: FirstHalf, Minute: 42}) {
		t.Error("minute 42 should not qualify with first_half_from=43")
	}
	if !thresholds.ScorelessAtBreak(MatchSnapshot{Period: FirstHalf, Minute: 43}) {
		t.Error("minute 43 should qualify with first_half_from=43")
	}
	if thresholds.ScorelessAtBreak(MatchSnapshot{Period: SecondHalf, Minute: 48}) {
		t.Error("minute 48 should not qualify with second_half_until=47")
	}
}
