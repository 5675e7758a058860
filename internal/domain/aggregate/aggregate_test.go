package aggregate

import (
	"testing"

	"github.com/okian/geoleague/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func row(week string, mapIdx int, player string, borda float64, points int64) model.StandingsRow {
	return model.StandingsRow{
		Entry: model.Entry{Week: week, MapIndex: mapIdx, Player: player, TotalPoints: points},
		Borda: borda,
	}
}

func TestWeekly(t *testing.T) {
	Convey("Given a week with two maps", t, func() {
		rows := []model.StandingsRow{
			row("W1", 1, "X", 3, 4000),
			row("W1", 1, "Y", 2, 3000),
			row("W1", 2, "X", 2, 3500),
			row("W1", 2, "Y", 3, 4900),
			row("W1", 2, "Z", 1, 100),
		}

		Convey("When rolling up the week", func() {
			weekly := Weekly(rows, []string{"W1"})

			Convey("Then Borda and points are summed per player", func() {
				So(len(weekly), ShouldEqual, 3)
				So(weekly[0], ShouldResemble, model.WeeklyRow{Week: "W1", Player: "Y", Borda: 5, Points: 7900, Maps: 2})
				So(weekly[1], ShouldResemble, model.WeeklyRow{Week: "W1", Player: "X", Borda: 5, Points: 7500, Maps: 2})
				So(weekly[2], ShouldResemble, model.WeeklyRow{Week: "W1", Player: "Z", Borda: 1, Points: 100, Maps: 1})
			})
		})
	})

	Convey("Given rows from several weeks", t, func() {
		rows := []model.StandingsRow{
			row("W2", 1, "A", 1, 10),
			row("W1", 1, "A", 2, 20),
			row("W1", 1, "B", 1, 5),
			row("W3", 1, "B", 1, 5),
		}

		Convey("When the week order is configured", func() {
			weekly := Weekly(rows, []string{"W1", "W2"})

			Convey("Then configured weeks come first and unknown weeks follow", func() {
				weeks := []string{}
				for _, w := range weekly {
					weeks = append(weeks, w.Week)
				}
				So(weeks, ShouldResemble, []string{"W1", "W1", "W2", "W3"})
				So(len(ForWeek(weekly, "W1")), ShouldEqual, 2)
				So(ForWeek(weekly, "W9"), ShouldBeEmpty)
			})
		})
	})
}

func TestSeason(t *testing.T) {
	Convey("Given a player present in two of three weeks over four maps", t, func() {
		rows := []model.StandingsRow{
			row("W1", 1, "P", 3, 4000),
			row("W1", 2, "P", 2, 3000),
			row("W2", 1, "Q", 4, 4500),
			row("W3", 1, "P", 4, 2000),
			row("W3", 2, "P", 1, 900),
		}

		Convey("When aggregating the season", func() {
			season := Season(rows, []string{"W1", "W2", "W3"})

			Convey("Then totals, counts and averages are computed", func() {
				So(len(season), ShouldEqual, 2)
				p := season[0]
				So(p.Player, ShouldEqual, "P")
				So(p.Borda, ShouldEqual, 10)
				So(p.Points, ShouldEqual, 9900)
				So(p.Maps, ShouldEqual, 4)
				So(p.Weeks, ShouldEqual, 2)
				So(p.AvgBordaPerMap, ShouldEqual, 2.5)
				So(p.AvgBordaPerWeek, ShouldEqual, 5.0)
				So(p.AvgPointsPerMap, ShouldEqual, 2475.0)
				So(p.WeekBorda, ShouldResemble, map[string]float64{"W1": 5, "W3": 5})
			})

			Convey("And the best week breaks Borda ties on raw points", func() {
				So(season[0].Best, ShouldResemble, model.BestWeek{Week: "W1", Borda: 5, Points: 7000})
				So(season[1].Best, ShouldResemble, model.BestWeek{Week: "W2", Borda: 4, Points: 4500})
			})
		})
	})

	Convey("Given two weeks that are fully tied", t, func() {
		rows := []model.StandingsRow{
			row("late", 1, "P", 2, 100),
			row("early", 1, "P", 2, 100),
		}

		Convey("Then the earlier configured week is the best week", func() {
			season := Season(rows, []string{"early", "late"})
			So(season[0].Best.Week, ShouldEqual, "early")
		})
	})

	Convey("Given players level on Borda", t, func() {
		rows := []model.StandingsRow{
			row("W1", 1, "low", 2, 100),
			row("W1", 2, "high", 2, 900),
			row("W1", 3, "bob", 2, 100),
		}

		Convey("Then the season is ordered by points, then name", func() {
			season := Season(rows, nil)
			So([]string{season[0].Player, season[1].Player, season[2].Player}, ShouldResemble, []string{"high", "bob", "low"})
		})
	})

	Convey("Given no rows", t, func() {
		So(Season(nil, []string{"W1"}), ShouldBeEmpty)
		So(Weekly(nil, []string{"W1"}), ShouldBeEmpty)
	})
}

func TestClip(t *testing.T) {
	Convey("Given zero or negative counts", t, func() {
		So(clip(0), ShouldEqual, 1)
		So(clip(-3), ShouldEqual, 1)
		So(clip(4), ShouldEqual, 4)
	})
}
