// Package ranking turns per-map results into ranks and Borda points.
package ranking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/geoleague/internal/domain/model"
)

// TieMode decides the rank shared by players with identical points and time.
type TieMode string

// Supported tie modes.
const (
	TieAverage TieMode = "average" // mean of the occupied positions
	TieDense   TieMode = "dense"   // ordinal of the tie group, no gaps
	TieMin     TieMode = "min"     // best occupied position
	TieMax     TieMode = "max"     // worst occupied position
)

// Modes lists every supported tie mode.
var Modes = []TieMode{TieAverage, TieDense, TieMin, TieMax}

// ParseTieMode validates a user supplied tie mode.
func ParseTieMode(s string) (TieMode, error) {
	m := TieMode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTieMode, s)
}

// Result is one player's standing within a map.
type Result struct {
	Rank  float64
	Borda float64
}

type score struct {
	points int64
	time   int64
}

// better orders groups by points desc, then time asc.
func (s score) better(o score) bool {
	if s.points != o.points {
		return s.points > o.points
	}
	return s.time < o.time
}

type group struct {
	score   score
	players []string
}

// groups collapses entries into tie groups in standing order. A player seen
// more than once keeps its last result.
func groups(entries []model.Entry) []group {
	byPlayer := make(map[string]score, len(entries))
	for _, e := range entries {
		byPlayer[e.Player] = score{points: e.TotalPoints, time: e.TotalTime}
	}

	byScore := make(map[score][]string, len(byPlayer))
	for p, s := range byPlayer {
		byScore[s] = append(byScore[s], p)
	}

	out := make([]group, 0, len(byScore))
	for s, players := range byScore {
		sort.Strings(players)
		out = append(out, group{score: s, players: players})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].score.better(out[j].score) })
	return out
}

// Rank computes rank and Borda points for every player of one map.
// The result does not depend on the order of entries. An unknown mode ranks
// like TieAverage; callers validate modes with ParseTieMode.
func Rank(entries []model.Entry, mode TieMode) map[string]Result {
	gs := groups(entries)
	if len(gs) == 0 {
		return map[string]Result{}
	}

	out := make(map[string]Result, len(entries))
	position := 1
	for ordinal, g := range gs {
		k := len(g.players)
		var rank float64
		switch {
		case mode == TieDense:
			rank = float64(ordinal + 1)
		case k == 1 || mode == TieMin:
			rank = float64(position)
		case mode == TieMax:
			rank = float64(position + k - 1)
		default:
			// mean of position .. position+k-1
			rank = float64(position) + float64(k-1)/2
		}
		for _, p := range g.players {
			out[p] = Result{Rank: rank}
		}
		if mode == TieDense {
			position++
		} else {
			position += k
		}
	}

	// Dense ranks run 1..groups, so Borda counts groups to stay in N..1.
	n := float64(len(out))
	if mode == TieDense {
		n = float64(len(gs))
	}
	for p, r := range out {
		r.Borda = n - r.Rank + 1
		out[p] = r
	}
	return out
}

// RankMap ranks one map and returns its standings rows ordered by rank,
// then player name. When a player appears more than once the last entry is
// the one kept.
func RankMap(entries []model.Entry, mode TieMode) []model.StandingsRow {
	results := Rank(entries, mode)

	latest := make(map[string]model.Entry, len(results))
	for _, e := range entries {
		latest[e.Player] = e
	}

	rows := make([]model.StandingsRow, 0, len(latest))
	for p, e := range latest {
		r := results[p]
		rows = append(rows, model.StandingsRow{Entry: e, RankBest: r.Rank, Borda: r.Borda})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RankBest != rows[j].RankBest {
			return rows[i].RankBest < rows[j].RankBest
		}
		return rows[i].Player < rows[j].Player
	})
	return rows
}
