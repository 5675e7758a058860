// Package report assembles the tables of one standings report. Building is
// pure: the same entries always produce the same report.
package report

import (
	"sort"

	"github.com/okian/geoleague/internal/domain/aggregate"
	"github.com/okian/geoleague/internal/domain/model"
	"github.com/okian/geoleague/internal/domain/ranking"
)

// WeekInfo is what the report needs to know about a configured week.
type WeekInfo struct {
	Label    string
	Deadline string          // raw deadline text, empty when none
	Maps     []model.MapMeta // known maps, including maps nobody played
}

// WeekStanding is one row of a week table.
type WeekStanding struct {
	Position int // 1-based
	Player   string
	Borda    float64
	Points   int64
	MapBorda map[int]float64 // map index -> Borda, absent when not played
}

// WeekTable is the standings of one week.
type WeekTable struct {
	Label        string
	DeadlineText string
	Maps         []model.MapMeta
	Rows         []WeekStanding
}

// Report holds every table of one report variant.
type Report struct {
	Rows   []model.StandingsRow // every ranked entry
	Meta   []model.MapMeta
	Weeks  []WeekTable
	Season []model.SeasonRow
}

// DeadlineText is the header shown under a week label.
func DeadlineText(deadline string) string {
	if deadline == "" {
		return "Deadline"
	}
	return "Deadline " + deadline
}

// Build ranks every map, aggregates weeks and season, and lays out one
// table per configured week. Weeks without entries still get a table.
func Build(entries []model.Entry, weeks []WeekInfo, mode ranking.TieMode) *Report {
	order := make([]string, 0, len(weeks))
	for _, w := range weeks {
		order = append(order, w.Label)
	}

	rows := rankAll(entries, mode, order)
	meta := mergeMeta(weeks, entries, order)
	weekly := aggregate.Weekly(rows, order)

	r := &Report{
		Rows:   rows,
		Meta:   meta,
		Season: aggregate.Season(rows, order),
	}
	for _, w := range weeks {
		r.Weeks = append(r.Weeks, weekTable(w, meta, rows, aggregate.ForWeek(weekly, w.Label)))
	}
	return r
}

// rankAll ranks each (week, map) group on its own. Rows come out by week
// order, map index, then rank.
func rankAll(entries []model.Entry, mode ranking.TieMode, order []string) []model.StandingsRow {
	byMap := make(map[model.MapKey][]model.Entry)
	keys := make([]model.MapKey, 0)
	for _, e := range entries {
		k := e.Key()
		if _, ok := byMap[k]; !ok {
			keys = append(keys, k)
		}
		byMap[k] = append(byMap[k], e)
	}
	idx := weekPositions(order, keys)
	sort.Slice(keys, func(i, j int) bool { return mapLess(keys[i], keys[j], idx) })

	out := make([]model.StandingsRow, 0, len(entries))
	for _, k := range keys {
		out = append(out, ranking.RankMap(byMap[k], mode)...)
	}
	return out
}

// mergeMeta combines configured map metadata with what the entries carry.
// Configured metadata wins.
func mergeMeta(weeks []WeekInfo, entries []model.Entry, order []string) []model.MapMeta {
	seen := make(map[model.MapKey]model.MapMeta)
	for _, w := range weeks {
		for _, m := range w.Maps {
			k := model.MapKey{Week: w.Label, Index: m.Index}
			if _, ok := seen[k]; !ok {
				m.Week = w.Label
				seen[k] = m
			}
		}
	}
	for _, e := range entries {
		if _, ok := seen[e.Key()]; ok {
			continue
		}
		seen[e.Key()] = model.MapMeta{
			Week: e.Week, Index: e.MapIndex, URL: e.MapURL, Token: e.MapToken,
			Name: e.MapName, RuleText: e.RuleText,
		}
	}

	keys := make([]model.MapKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	idx := weekPositions(order, keys)
	sort.Slice(keys, func(i, j int) bool { return mapLess(keys[i], keys[j], idx) })

	out := make([]model.MapMeta, 0, len(keys))
	for _, k := range keys {
		out = append(out, seen[k])
	}
	return out
}

func weekTable(w WeekInfo, meta []model.MapMeta, rows []model.StandingsRow, weekly []model.WeeklyRow) WeekTable {
	t := WeekTable{Label: w.Label, DeadlineText: DeadlineText(w.Deadline)}
	for _, m := range meta {
		if m.Week == w.Label {
			t.Maps = append(t.Maps, m)
		}
	}

	perMap := make(map[string]map[int]float64)
	for _, r := range rows {
		if r.Week != w.Label {
			continue
		}
		if perMap[r.Player] == nil {
			perMap[r.Player] = make(map[int]float64)
		}
		perMap[r.Player][r.MapIndex] = r.Borda
	}

	for i, wr := range weekly {
		t.Rows = append(t.Rows, WeekStanding{
			Position: i + 1,
			Player:   wr.Player,
			Borda:    wr.Borda,
			Points:   wr.Points,
			MapBorda: perMap[wr.Player],
		})
	}
	return t
}

// weekPositions gives configured weeks their order. Unknown weeks share the
// last position and fall back to name order in mapLess.
func weekPositions(order []string, keys []model.MapKey) map[string]int {
	idx := make(map[string]int, len(order))
	for _, w := range order {
		if _, ok := idx[w]; !ok {
			idx[w] = len(idx)
		}
	}
	last := len(idx)
	for _, k := range keys {
		if _, ok := idx[k.Week]; !ok {
			idx[k.Week] = last
		}
	}
	return idx
}

func mapLess(a, b model.MapKey, idx map[string]int) bool {
	if a.Week != b.Week {
		if idx[a.Week] != idx[b.Week] {
			return idx[a.Week] < idx[b.Week]
		}
		return a.Week < b.Week
	}
	return a.Index < b.Index
}
