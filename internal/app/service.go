// Package service runs one league report: it fetches every configured map,
// ranks and aggregates the results and writes the workbooks.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/okian/geoleague/internal/adapters/geoguessr"
	"github.com/okian/geoleague/internal/config"
	"github.com/okian/geoleague/internal/domain/deadline"
	"github.com/okian/geoleague/internal/domain/model"
	"github.com/okian/geoleague/internal/domain/normalize"
	"github.com/okian/geoleague/internal/domain/ranking"
	"github.com/okian/geoleague/internal/domain/report"
	"github.com/okian/geoleague/pkg/logger"
	"github.com/okian/geoleague/pkg/metrics"
	"github.com/tidwall/gjson"
)

// Report variants.
const (
	VariantAll      = "all"
	VariantFiltered = "filtered"
)

// Source provides leaderboards and game completion times.
type Source interface {
	Leaderboard(ctx context.Context, token string) ([]gjson.Result, error)
	PlayedAt(ctx context.Context, gameToken string) (int64, bool)
}

// Renderer stores a finished report.
type Renderer interface {
	Write(ctx context.Context, path string, rep *report.Report) error
}

// Service runs report builds.
type Service struct {
	source   Source
	renderer Renderer

	weeks         []model.WeekSpec
	tz            string
	tie           ranking.TieMode
	fetchPlayedAt bool
	keepMissing   bool
	outBase       string
	dumpDir       string

	loadURLs func(path string) ([]string, error)
	now      func() time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets where leaderboards come from.
func WithSource(src Source) Option {
	return func(s *Service) { s.source = src }
}

// WithRenderer sets how reports are stored.
func WithRenderer(r Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWeeks sets the configured weeks, in display order.
func WithWeeks(weeks []model.WeekSpec) Option {
	return func(s *Service) { s.weeks = weeks }
}

// WithTimezone sets the IANA zone deadlines are written in.
func WithTimezone(tz string) Option {
	return func(s *Service) {
		if tz != "" {
			s.tz = tz
		}
	}
}

// WithTieMode sets how exact ties are ranked.
func WithTieMode(m ranking.TieMode) Option {
	return func(s *Service) {
		if m != "" {
			s.tie = m
		}
	}
}

// WithPlayedAt enables played-at lookups for weeks with a deadline.
// keepMissing keeps entries of unknown play time in the filtered report.
func WithPlayedAt(fetch, keepMissing bool) Option {
	return func(s *Service) {
		s.fetchPlayedAt = fetch
		s.keepMissing = keepMissing
	}
}

// WithOutBase sets the workbook file name prefix.
func WithOutBase(base string) Option {
	return func(s *Service) {
		if base != "" {
			s.outBase = base
		}
	}
}

// WithDumpDir enables raw highscore dumps. A relative dir is resolved next
// to each week's URL file.
func WithDumpDir(dir string) Option {
	return func(s *Service) { s.dumpDir = dir }
}

// WithURLLoader replaces how URL files are read.
func WithURLLoader(fn func(path string) ([]string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.loadURLs = fn
		}
	}
}

// WithClock sets the reference time for relative deadlines.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service with the given options.
func New(opts ...Option) *Service {
	s := &Service{
		tz:       config.DefaultTZ,
		tie:      ranking.TieAverage,
		outBase:  config.DefaultOutBase,
		loadURLs: geoguessr.LoadURLs,
		now:      time.Now,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result summarizes one run.
type Result struct {
	RunID        string
	Entries      int
	Kept         int // entries surviving the deadline filter
	FilterReason deadline.SkipReason
	Files        []string

	All      *report.Report
	Filtered *report.Report // nil when the filtered report was skipped
}

// Run builds both report variants and writes them. Any fatal error aborts
// before a workbook is written.
func (s *Service) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	log := s.logger.With(logger.String("run_id", res.RunID))

	if len(s.weeks) == 0 {
		return res, config.ErrNoWeeks
	}
	if s.source == nil || s.renderer == nil {
		return res, fmt.Errorf("%w: source and renderer are required", config.ErrInvalidConfig)
	}

	labels := make([]string, 0, len(s.weeks))
	for _, w := range s.weeks {
		labels = append(labels, w.Label)
	}
	log.Info(ctx, "starting league report",
		logger.Any("weeks", labels),
		logger.Bool("fetch_played_at", s.fetchPlayedAt),
		logger.Bool("keep_missing_time", s.keepMissing),
		logger.String("tz", s.tz),
		logger.String("tie", string(s.tie)),
	)

	deadlines, err := s.parseDeadlines()
	if err != nil {
		return res, err
	}

	resolver := normalize.NewPlayedAtResolver(s.source, normalize.WithResolverLogger(log))
	var (
		entries []model.Entry
		infos   = make([]report.WeekInfo, 0, len(s.weeks))
	)
	for _, w := range s.weeks {
		_, hasDeadline := deadlines[w.Label]
		var r *normalize.PlayedAtResolver
		if s.fetchPlayedAt && hasDeadline {
			r = resolver
		}

		weekEntries, maps, err := s.fetchWeek(ctx, log, w, r)
		if err != nil {
			return res, err
		}
		entries = append(entries, weekEntries...)
		infos = append(infos, report.WeekInfo{Label: w.Label, Deadline: w.Deadline, Maps: maps})
		log.Info(ctx, "built entries for week", logger.String("week", w.Label), logger.Int("entries", len(weekEntries)))
	}
	res.Entries = len(entries)

	res.All = s.build(VariantAll, entries, infos)

	ok, reason := deadline.ShouldFilter(deadlines, s.fetchPlayedAt, deadline.AnyResolved(entries))
	res.FilterReason = reason
	if ok {
		kept := deadline.Filter(entries, deadlines, s.keepMissing)
		res.Kept = len(kept)
		metrics.RecordEntriesFiltered(len(entries) - len(kept))
		res.Filtered = s.build(VariantFiltered, kept, infos)
		log.Info(ctx, "deadline filter enabled", logger.Int("kept", len(kept)), logger.Int("total", len(entries)))
	} else {
		log.Info(ctx, "deadline filter skipped, writing only the full report", logger.String("reason", string(reason)))
	}

	// Both reports are complete before anything touches the disk.
	if err := s.write(ctx, &res, VariantAll, res.All); err != nil {
		return res, err
	}
	if res.Filtered != nil {
		if err := s.write(ctx, &res, VariantFiltered, res.Filtered); err != nil {
			return res, err
		}
	}

	metrics.MarkSuccess(s.now().Unix())
	log.Info(ctx, "league report done", logger.Any("files", res.Files))
	return res, nil
}

func (s *Service) parseDeadlines() (deadline.Deadlines, error) {
	out := deadline.Deadlines{}
	ref := s.now()
	for _, w := range s.weeks {
		if w.Deadline == "" {
			continue
		}
		ep, err := deadline.ParseAt(w.Deadline, s.tz, ref)
		if err != nil {
			return nil, fmt.Errorf("week %q: %w", w.Label, err)
		}
		out[w.Label] = ep
	}
	return out, nil
}

// fetchWeek fetches and normalizes every map of one week, in URL order.
func (s *Service) fetchWeek(ctx context.Context, log logger.Logger, w model.WeekSpec, r *normalize.PlayedAtResolver) ([]model.Entry, []model.MapMeta, error) {
	urls, err := s.loadURLs(w.URLsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("week %q: %w", w.Label, err)
	}

	opts := []normalize.Option{normalize.WithLogger(log)}
	if r != nil {
		opts = append(opts, normalize.WithResolver(r))
	}
	norm := normalize.New(opts...)

	var (
		entries []model.Entry
		maps    = make([]model.MapMeta, 0, len(urls))
	)
	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		token, err := geoguessr.ChallengeToken(u)
		if err != nil {
			return nil, nil, fmt.Errorf("week %q map %d: %w", w.Label, i+1, err)
		}
		items, err := s.source.Leaderboard(ctx, token)
		if err != nil {
			return nil, nil, fmt.Errorf("week %q map %d: %w", w.Label, i+1, err)
		}
		s.dump(ctx, log, w, i+1, token, items)

		mc := normalize.MapContext{Week: w.Label, Index: i + 1, URL: u, Token: token}
		maps = append(maps, normalize.Meta(mc, items))
		entries = append(entries, norm.Map(ctx, mc, items)...)
		metrics.RecordMapProcessed()
	}
	return entries, maps, nil
}

// dump is a debugging aid; failures are logged and the run continues.
func (s *Service) dump(ctx context.Context, log logger.Logger, w model.WeekSpec, index int, token string, items []gjson.Result) {
	if s.dumpDir == "" {
		return
	}
	dir := s.dumpDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(filepath.Dir(w.URLsPath), dir)
	}
	path, err := geoguessr.Dump(dir, w.Label, index, token, items)
	if err != nil {
		log.Warn(ctx, "highscores dump failed", logger.String("week", w.Label), logger.Int("map", index), logger.Error(err))
		return
	}
	log.Debug(ctx, "highscores dumped", logger.String("path", path))
}

func (s *Service) build(variant string, entries []model.Entry, infos []report.WeekInfo) *report.Report {
	start := time.Now()
	rep := report.Build(entries, infos, s.tie)
	metrics.RecordBuildDuration(variant, float64(time.Since(start).Microseconds())/1000)
	return rep
}

func (s *Service) write(ctx context.Context, res *Result, variant string, rep *report.Report) error {
	path := fmt.Sprintf("%s_%s.xlsx", s.outBase, variant)
	if err := s.renderer.Write(ctx, path, rep); err != nil {
		return err
	}
	metrics.RecordWorkbookWritten(variant)
	res.Files = append(res.Files, path)
	return nil
}
