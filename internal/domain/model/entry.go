// Package model contains domain models passed between layers.
package model

// TimeSentinel is the tie-break time given to rows without a usable time.
// It is larger than any real elapsed time, so such rows lose every time tie-break.
const TimeSentinel int64 = 1_000_000_000_000

// Entry is one player's result on one map. Entries are created once during
// normalization and never modified afterwards.
type Entry struct {
	Week     string // week label
	MapIndex int    // 1-based position of the map within its week

	MapToken string
	MapURL   string
	MapName  string
	RuleText string

	Player      string // display name, unique within a map
	TotalPoints int64  // higher is better
	TotalTime   int64  // tie-break only, lower is better

	// PlayedAtEpoch is the completion time in epoch seconds, nil when unknown
	// or when played-at lookup was not requested.
	PlayedAtEpoch *int64
}

// HasPlayedAt reports whether the entry carries a resolved timestamp.
func (e Entry) HasPlayedAt() bool { return e.PlayedAtEpoch != nil }

// MapKey identifies a map inside the season.
type MapKey struct {
	Week  string
	Index int
}

// Key returns the map this entry belongs to.
func (e Entry) Key() MapKey { return MapKey{Week: e.Week, Index: e.MapIndex} }

// WeekSpec is one configured competition week.
type WeekSpec struct {
	Label    string
	URLsPath string
	Deadline string // raw user text, empty when no deadline
}

// MapMeta carries the per-map header information used by report views.
type MapMeta struct {
	Week     string
	Index    int
	URL      string
	Token    string
	Name     string
	RuleText string
}

// StandingsRow is an entry with its rank and Borda score inside its map.
type StandingsRow struct {
	Entry
	RankBest float64 // 1.0 is best
	Borda    float64 // N is best, 1 is worst
}

// WeeklyRow aggregates one player's maps within one week.
type WeeklyRow struct {
	Week   string
	Player string
	Borda  float64
	Points int64
	Maps   int
}

// BestWeek is a player's strongest week by Borda, then raw points.
type BestWeek struct {
	Week   string
	Borda  float64
	Points int64
}

// SeasonRow aggregates one player across the whole season.
type SeasonRow struct {
	Player string
	Borda  float64
	Points int64
	Maps   int // distinct (week, map) pairs
	Weeks  int // distinct weeks

	AvgBordaPerMap  float64
	AvgBordaPerWeek float64
	AvgPointsPerMap float64

	WeekBorda map[string]float64 // week label -> Borda sum
	Best      BestWeek
}
