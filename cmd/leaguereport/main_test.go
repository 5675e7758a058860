package main

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/geoleague/internal/config"
	"github.com/smartystreets/goconvey/convey"
	"github.com/urfave/cli/v2"
)

// parse runs the command line and returns the config the action would see.
func parse(args ...string) (*config.Config, error) {
	var got *config.Config
	app := newApp(func(_ *cli.Context, cfg *config.Config) error {
		got = cfg
		return nil
	})
	err := app.RunContext(context.Background(), append([]string{"leaguereport"}, args...))
	return got, err
}

func TestCommandLine(t *testing.T) {
	convey.Convey("Given the leaguereport command", t, func() {
		for _, k := range []string{"GEOGUESSR_NCFA", "LEAGUE_CONFIG", "LEAGUE_TIE", "LEAGUE_PAGE_SIZE"} {
			_ = os.Unsetenv(k)
		}

		convey.Convey("When only weeks are passed", func() {
			cfg, err := parse("--week", "Vecka 1|w1.txt|2026-02-18 20:00, late", "--week", "Vecka 2|w2.txt")

			convey.Convey("Then defaults apply and weeks keep their commas", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Weeks, convey.ShouldResemble, []string{"Vecka 1|w1.txt|2026-02-18 20:00, late", "Vecka 2|w2.txt"})
				convey.So(cfg.OutBase, convey.ShouldEqual, "Liga_overview")
				convey.So(cfg.Tie, convey.ShouldEqual, "average")
				convey.So(cfg.PageSize, convey.ShouldEqual, 200)
				convey.So(cfg.Timeout, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			})
		})

		convey.Convey("When every flag is passed", func() {
			cfg, err := parse(
				"--week", "W|w.txt",
				"--out-base", "Out",
				"--tz", "Europe/Oslo",
				"--ncfa", "secret",
				"--timeout", "5s",
				"--tie", "dense",
				"--page-size", "50",
				"--max-players", "100",
				"--fetch-played-at",
				"--keep-missing-time",
				"--dump-json",
				"--debug",
				"--metrics-file", "m.prom",
				"--rps", "0",
			)

			convey.Convey("Then they override the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OutBase, convey.ShouldEqual, "Out")
				convey.So(cfg.TZ, convey.ShouldEqual, "Europe/Oslo")
				convey.So(cfg.NCFA, convey.ShouldEqual, "secret")
				convey.So(cfg.Timeout, convey.ShouldEqual, 5*time.Second)
				convey.So(cfg.Tie, convey.ShouldEqual, "dense")
				convey.So(cfg.PageSize, convey.ShouldEqual, 50)
				convey.So(cfg.MaxPlayers, convey.ShouldEqual, 100)
				convey.So(cfg.FetchPlayedAt, convey.ShouldBeTrue)
				convey.So(cfg.KeepMissingTime, convey.ShouldBeTrue)
				convey.So(cfg.DumpJSON, convey.ShouldBeTrue)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.MetricsFile, convey.ShouldEqual, "m.prom")
				convey.So(cfg.RPS, convey.ShouldEqual, 0)
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the cookie comes from the environment", func() {
			_ = os.Setenv("GEOGUESSR_NCFA", "from-env")
			defer func() { _ = os.Unsetenv("GEOGUESSR_NCFA") }()

			cfg, err := parse("--week", "W|w.txt")
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.NCFA, convey.ShouldEqual, "from-env")
		})

		convey.Convey("When env config is overridden by a flag", func() {
			_ = os.Setenv("LEAGUE_TIE", "max")
			defer func() { _ = os.Unsetenv("LEAGUE_TIE") }()

			cfg, err := parse("--week", "W|w.txt")
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Tie, convey.ShouldEqual, "max")

			cfg, err = parse("--week", "W|w.txt", "--tie", "min")
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Tie, convey.ShouldEqual, "min")
		})

		convey.Convey("When the run is missing its inputs", func() {
			cfg, err := parse()
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then validation reports the missing weeks", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrNoWeeks), convey.ShouldBeTrue)
			})
		})
	})
}
