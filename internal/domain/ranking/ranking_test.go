package ranking_test

import (
	"sort"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/okian/geoleague/internal/domain/model"
	"github.com/okian/geoleague/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func entry(player string, points, seconds int64) model.Entry {
	return model.Entry{Week: "Week 1", MapIndex: 1, Player: player, TotalPoints: points, TotalTime: seconds}
}

// randomMap builds n entrants with deliberately coarse scores so that ties occur.
func randomMap(f *gofakeit.Faker, n int) []model.Entry {
	seen := map[string]bool{}
	out := make([]model.Entry, 0, n)
	for len(out) < n {
		name := f.Username()
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, entry(name, int64(f.Number(0, 4))*1000, int64(f.Number(0, 2))*30))
	}
	return out
}

func shuffled(f *gofakeit.Faker, in []model.Entry) []model.Entry {
	out := append([]model.Entry(nil), in...)
	for i := len(out) - 1; i > 0; i-- {
		j := f.Number(0, i)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func TestParseTieMode(t *testing.T) {
	Convey("Given tie mode strings", t, func() {
		for _, s := range []string{"average", "dense", "MIN", " max "} {
			_, err := ranking.ParseTieMode(s)
			So(err, ShouldBeNil)
		}

		_, err := ranking.ParseTieMode("random")
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "unknown tie mode")
	})
}

func TestRank_Scenario(t *testing.T) {
	Convey("Given A and B tied on 5000 pts/60s and C on 4000 pts/90s", t, func() {
		entries := []model.Entry{entry("A", 5000, 60), entry("B", 5000, 60), entry("C", 4000, 90)}

		Convey("When ranking with average", func() {
			got := ranking.Rank(entries, ranking.TieAverage)
			So(got, ShouldResemble, map[string]ranking.Result{
				"A": {Rank: 1.5, Borda: 2.5},
				"B": {Rank: 1.5, Borda: 2.5},
				"C": {Rank: 3, Borda: 1},
			})
		})

		Convey("When ranking with min", func() {
			got := ranking.Rank(entries, ranking.TieMin)
			So(got, ShouldResemble, map[string]ranking.Result{
				"A": {Rank: 1, Borda: 3},
				"B": {Rank: 1, Borda: 3},
				"C": {Rank: 3, Borda: 1},
			})
		})

		Convey("When ranking with max", func() {
			got := ranking.Rank(entries, ranking.TieMax)
			So(got, ShouldResemble, map[string]ranking.Result{
				"A": {Rank: 2, Borda: 2},
				"B": {Rank: 2, Borda: 2},
				"C": {Rank: 3, Borda: 1},
			})
		})

		Convey("When ranking with dense", func() {
			got := ranking.Rank(entries, ranking.TieDense)
			So(got, ShouldResemble, map[string]ranking.Result{
				"A": {Rank: 1, Borda: 2},
				"B": {Rank: 1, Borda: 2},
				"C": {Rank: 2, Borda: 1},
			})
		})
	})
}

func TestRank_TimeBreaksPointTies(t *testing.T) {
	Convey("Given equal points and different times", t, func() {
		entries := []model.Entry{
			entry("slow", 4800, 200),
			entry("fast", 4800, 120),
			entry("unknown", 4800, model.TimeSentinel),
		}
		got := ranking.Rank(entries, ranking.TieAverage)

		Convey("Then lower time ranks higher and missing time ranks last", func() {
			So(got["fast"].Rank, ShouldEqual, 1)
			So(got["slow"].Rank, ShouldEqual, 2)
			So(got["unknown"].Rank, ShouldEqual, 3)
		})
	})
}

func TestRank_EdgeCases(t *testing.T) {
	Convey("Given no entries", t, func() {
		So(ranking.Rank(nil, ranking.TieAverage), ShouldBeEmpty)
		So(ranking.RankMap(nil, ranking.TieMin), ShouldBeEmpty)
	})

	Convey("Given a solitary entrant", t, func() {
		for _, mode := range ranking.Modes {
			got := ranking.Rank([]model.Entry{entry("solo", 12, 3)}, mode)
			So(got["solo"], ShouldResemble, ranking.Result{Rank: 1, Borda: 1})
		}
	})

	Convey("Given a player listed twice", t, func() {
		entries := []model.Entry{entry("A", 100, 10), entry("B", 200, 10), entry("A", 300, 10)}
		rows := ranking.RankMap(entries, ranking.TieAverage)

		Convey("Then the last row for the player wins", func() {
			So(len(rows), ShouldEqual, 2)
			So(rows[0].Player, ShouldEqual, "A")
			So(rows[0].TotalPoints, ShouldEqual, 300)
			So(rows[0].Borda, ShouldEqual, 2)
		})
	})
}

func TestRank_Properties(t *testing.T) {
	Convey("Given randomly generated maps with ties", t, func() {
		f := gofakeit.New(7)

		for round := 0; round < 50; round++ {
			n := f.Number(1, 25)
			entries := randomMap(f, n)

			avg := ranking.Rank(entries, ranking.TieAverage)
			lo := ranking.Rank(entries, ranking.TieMin)
			hi := ranking.Rank(entries, ranking.TieMax)
			dense := ranking.Rank(entries, ranking.TieDense)

			// Borda conservation under average ties.
			var sum float64
			for _, r := range avg {
				sum += r.Borda
			}
			So(sum, ShouldAlmostEqual, float64(n*(n+1))/2, 1e-9)

			// min <= average <= max for every player.
			for p := range avg {
				So(lo[p].Rank, ShouldBeLessThanOrEqualTo, avg[p].Rank)
				So(avg[p].Rank, ShouldBeLessThanOrEqualTo, hi[p].Rank)
			}

			// Dense ranks are exactly 1..groups.
			distinct := map[float64]bool{}
			for _, r := range dense {
				distinct[r.Rank] = true
			}
			ranks := make([]float64, 0, len(distinct))
			for r := range distinct {
				ranks = append(ranks, r)
			}
			sort.Float64s(ranks)
			for i, r := range ranks {
				So(r, ShouldEqual, float64(i+1))
			}

			// Order independence.
			for _, mode := range ranking.Modes {
				a := ranking.RankMap(entries, mode)
				b := ranking.RankMap(shuffled(f, entries), mode)
				So(cmp.Diff(a, b), ShouldBeEmpty)
			}
		}
	})

	Convey("Given maps without ties", t, func() {
		entries := []model.Entry{entry("a", 5, 1), entry("b", 4, 1), entry("c", 3, 1), entry("d", 3, 2)}

		Convey("Then every mode conserves Borda", func() {
			for _, mode := range ranking.Modes {
				var sum float64
				for _, r := range ranking.Rank(entries, mode) {
					sum += r.Borda
				}
				So(sum, ShouldEqual, 10)
			}
		})
	})
}

func TestRankMap_Order(t *testing.T) {
	Convey("Given a map with a tie", t, func() {
		rows := ranking.RankMap([]model.Entry{entry("zed", 10, 1), entry("amy", 10, 1), entry("bob", 20, 1)}, ranking.TieMin)

		Convey("Then rows are sorted by rank then player", func() {
			names := []string{rows[0].Player, rows[1].Player, rows[2].Player}
			So(names, ShouldResemble, []string{"bob", "amy", "zed"})
			So(rows[1].RankBest, ShouldEqual, 2)
			So(rows[2].RankBest, ShouldEqual, 2)
		})
	})
}
