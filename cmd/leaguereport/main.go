package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata" // deadlines need zone data on hosts without it

	"github.com/okian/geoleague/internal/adapters/geoguessr"
	"github.com/okian/geoleague/internal/adapters/xlsx"
	service "github.com/okian/geoleague/internal/app"
	"github.com/okian/geoleague/internal/config"
	"github.com/okian/geoleague/pkg/logger"
	"github.com/okian/geoleague/pkg/metrics"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(run).RunContext(ctx, os.Args); err != nil {
		os.Stderr.WriteString("leaguereport: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

// newApp declares the command line. action receives the merged config.
func newApp(action func(*cli.Context, *config.Config) error) *cli.App {
	return &cli.App{
		Name:                      "leaguereport",
		Usage:                     "build GeoGuessr league standings workbooks",
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "week", Usage: `repeatable "LABEL|URLS_FILE|DEADLINE", deadline optional`},
			&cli.StringFlag{Name: "out-base", Value: config.DefaultOutBase, Usage: "workbook file name prefix"},
			&cli.StringFlag{Name: "tz", Value: config.DefaultTZ, Usage: "time zone deadlines are written in"},
			&cli.StringFlag{Name: "ncfa", EnvVars: []string{config.AuthEnv}, Usage: "_ncfa session cookie"},
			&cli.DurationFlag{Name: "timeout", Value: config.DefaultTimeout, Usage: "per request timeout"},
			&cli.StringFlag{Name: "tie", Value: "average", Usage: "exact tie rank: average, dense, min or max"},
			&cli.IntFlag{Name: "page-size", Value: config.DefaultPageSize, Usage: "leaderboard page size"},
			&cli.IntFlag{Name: "max-players", Value: config.DefaultMaxPlayers, Usage: "leaderboard offset cap"},
			&cli.BoolFlag{Name: "fetch-played-at", Usage: "look up when each game was played, needed for deadline filtering"},
			&cli.BoolFlag{Name: "keep-missing-time", Usage: "keep entries of unknown play time when filtering"},
			&cli.BoolFlag{Name: "debug", Usage: "verbose logging"},
			&cli.BoolFlag{Name: "dump-json", Usage: "dump raw highscores per map"},
			&cli.StringFlag{Name: "config", EnvVars: []string{config.EnvConfig}, Usage: "YAML config file"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "metrics-file", Usage: "write Prometheus metrics here when done"},
			&cli.Float64Flag{Name: "rps", Value: config.DefaultRPS, Usage: "max requests per second, 0 for no limit"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := buildConfig(c)
			if err != nil {
				return err
			}
			return action(c, cfg)
		},
	}
}

// buildConfig layers flags the user set on top of defaults, file and env.
func buildConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.Context, c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("week") {
		cfg.Weeks = c.StringSlice("week")
	}
	if c.IsSet("out-base") {
		cfg.OutBase = c.String("out-base")
	}
	if c.IsSet("tz") {
		cfg.TZ = c.String("tz")
	}
	if c.IsSet("ncfa") {
		cfg.NCFA = c.String("ncfa")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("tie") {
		cfg.Tie = c.String("tie")
	}
	if c.IsSet("page-size") {
		cfg.PageSize = c.Int("page-size")
	}
	if c.IsSet("max-players") {
		cfg.MaxPlayers = c.Int("max-players")
	}
	if c.IsSet("fetch-played-at") {
		cfg.FetchPlayedAt = c.Bool("fetch-played-at")
	}
	if c.IsSet("keep-missing-time") {
		cfg.KeepMissingTime = c.Bool("keep-missing-time")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("dump-json") {
		cfg.DumpJSON = c.Bool("dump-json")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("metrics-file") {
		cfg.MetricsFile = c.String("metrics-file")
	}
	if c.IsSet("rps") {
		cfg.RPS = c.Float64("rps")
	}
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func run(c *cli.Context, cfg *config.Config) error {
	ctx := c.Context

	if err := logger.Init(); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	weeks, err := config.ParseWeekSpecs(cfg.Weeks)
	if err != nil {
		return err
	}

	client := geoguessr.New(cfg.NCFA,
		geoguessr.WithBaseURL(cfg.BaseURL),
		geoguessr.WithTimeout(cfg.Timeout),
		geoguessr.WithRateLimit(cfg.RPS),
		geoguessr.WithPagination(cfg.PageSize, cfg.MaxPlayers),
		geoguessr.WithLogger(log.Named("geoguessr")),
	)

	dumpDir := ""
	if cfg.DumpJSON {
		dumpDir = cfg.DumpDir
	}

	svc := service.New(
		service.WithLogger(log),
		service.WithSource(client),
		service.WithRenderer(xlsx.NewWriter(xlsx.WithLogger(log))),
		service.WithWeeks(weeks),
		service.WithTimezone(cfg.TZ),
		service.WithTieMode(cfg.TieMode()),
		service.WithPlayedAt(cfg.FetchPlayedAt, cfg.KeepMissingTime),
		service.WithOutBase(cfg.OutBase),
		service.WithDumpDir(dumpDir),
	)

	_, runErr := svc.Run(ctx)

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn(ctx, "metrics textfile not written", logger.String("path", cfg.MetricsFile), logger.Error(err))
		}
	}
	return runErr
}
