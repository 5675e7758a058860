// Package aggregate rolls per-map standings up into weekly and season tables.
package aggregate

import (
	"sort"

	"github.com/okian/geoleague/internal/domain/model"
)

// weekIndex assigns every week its display position: configured weeks first,
// then unknown weeks in order of first appearance.
func weekIndex(rows []model.StandingsRow, weekOrder []string) map[string]int {
	idx := make(map[string]int, len(weekOrder))
	for _, w := range weekOrder {
		if _, ok := idx[w]; !ok {
			idx[w] = len(idx)
		}
	}
	for _, r := range rows {
		if _, ok := idx[r.Week]; !ok {
			idx[r.Week] = len(idx)
		}
	}
	return idx
}

type weekPlayer struct {
	week   string
	player string
}

// Weekly sums Borda and raw points per (week, player). Rows are grouped by
// week in display order and ordered by Borda desc, points desc, then player.
func Weekly(rows []model.StandingsRow, weekOrder []string) []model.WeeklyRow {
	order := weekIndex(rows, weekOrder)

	acc := make(map[weekPlayer]*model.WeeklyRow)
	maps := make(map[weekPlayer]map[int]struct{})
	keys := make([]weekPlayer, 0)
	for _, r := range rows {
		k := weekPlayer{week: r.Week, player: r.Player}
		w, ok := acc[k]
		if !ok {
			w = &model.WeeklyRow{Week: r.Week, Player: r.Player}
			acc[k] = w
			maps[k] = make(map[int]struct{})
			keys = append(keys, k)
		}
		w.Borda += r.Borda
		w.Points += r.TotalPoints
		maps[k][r.MapIndex] = struct{}{}
	}

	out := make([]model.WeeklyRow, 0, len(keys))
	for _, k := range keys {
		w := *acc[k]
		w.Maps = len(maps[k])
		out = append(out, w)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Week != b.Week {
			return order[a.Week] < order[b.Week]
		}
		return standingLess(a.Borda, a.Points, a.Player, b.Borda, b.Points, b.Player)
	})
	return out
}

// standingLess orders by Borda desc, points desc, then name for stability.
func standingLess(ab float64, ap int64, an string, bb float64, bp int64, bn string) bool {
	if ab != bb {
		return ab > bb
	}
	if ap != bp {
		return ap > bp
	}
	return an < bn
}

// ForWeek returns the rows of one week, keeping their order.
func ForWeek(weekly []model.WeeklyRow, week string) []model.WeeklyRow {
	out := make([]model.WeeklyRow, 0)
	for _, w := range weekly {
		if w.Week == week {
			out = append(out, w)
		}
	}
	return out
}

// clip keeps divisors at one or more.
func clip(n int) float64 {
	if n < 1 {
		return 1
	}
	return float64(n)
}

// Season aggregates every player over all weeks: totals, distinct map and
// week counts, averages and the best week. Rows are ordered by Borda desc,
// points desc, then player.
func Season(rows []model.StandingsRow, weekOrder []string) []model.SeasonRow {
	order := weekIndex(rows, weekOrder)
	weekly := Weekly(rows, weekOrder)

	acc := make(map[string]*model.SeasonRow)
	mapsSeen := make(map[string]map[model.MapKey]struct{})
	players := make([]string, 0)
	for _, r := range rows {
		s, ok := acc[r.Player]
		if !ok {
			s = &model.SeasonRow{Player: r.Player, WeekBorda: map[string]float64{}}
			acc[r.Player] = s
			mapsSeen[r.Player] = make(map[model.MapKey]struct{})
			players = append(players, r.Player)
		}
		s.Borda += r.Borda
		s.Points += r.TotalPoints
		mapsSeen[r.Player][r.Key()] = struct{}{}
	}

	// weekly is already in week display order, so the first candidate
	// that is not beaten keeps the earliest week on full ties.
	for _, w := range weekly {
		s := acc[w.Player]
		s.WeekBorda[w.Week] = w.Borda
		s.Weeks++
		if s.Best.Week == "" || betterWeek(w, s.Best, order) {
			s.Best = model.BestWeek{Week: w.Week, Borda: w.Borda, Points: w.Points}
		}
	}

	out := make([]model.SeasonRow, 0, len(players))
	for _, p := range players {
		s := *acc[p]
		s.Maps = len(mapsSeen[p])
		s.AvgBordaPerMap = s.Borda / clip(s.Maps)
		s.AvgBordaPerWeek = s.Borda / clip(s.Weeks)
		s.AvgPointsPerMap = float64(s.Points) / clip(s.Maps)
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		return standingLess(a.Borda, a.Points, a.Player, b.Borda, b.Points, b.Player)
	})
	return out
}

func betterWeek(w model.WeeklyRow, best model.BestWeek, order map[string]int) bool {
	if w.Borda != best.Borda {
		return w.Borda > best.Borda
	}
	if w.Points != best.Points {
		return w.Points > best.Points
	}
	return order[w.Week] < order[best.Week]
}
