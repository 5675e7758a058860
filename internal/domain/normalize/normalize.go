// Package normalize converts raw leaderboard rows into domain entries.
package normalize

import (
	"context"
	"fmt"

	"github.com/okian/geoleague/internal/domain/model"
	"github.com/okian/geoleague/internal/domain/payload"
	"github.com/okian/geoleague/pkg/logger"
	"github.com/okian/geoleague/pkg/metrics"
	"github.com/tidwall/gjson"
)

// MapContext identifies the map a batch of leaderboard rows belongs to.
type MapContext struct {
	Week  string
	Index int // 1-based
	URL   string
	Token string
}

// Normalizer turns leaderboard rows into entries. Rows it cannot use are
// dropped and counted, never reported as errors.
type Normalizer struct {
	log      logger.Logger
	resolver *PlayedAtResolver
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the normalizer logger.
func WithLogger(l logger.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.log = l
		}
	}
}

// WithResolver enables played-at lookups for every entry produced.
func WithResolver(r *PlayedAtResolver) Option {
	return func(n *Normalizer) { n.resolver = r }
}

// New creates a Normalizer. Without WithResolver entries carry no played-at time.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{log: logger.Nop()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Map normalizes the rows of one map. Entries keep the order in which each
// player first appears; a player listed twice keeps the later row.
func (n *Normalizer) Map(ctx context.Context, mc MapContext, items []gjson.Result) []model.Entry {
	meta := Meta(mc, items)

	out := make([]model.Entry, 0, len(items))
	pos := make(map[string]int, len(items))
	for i, it := range items {
		if !it.IsObject() {
			n.drop(ctx, mc, i, metrics.DropNotObject)
			continue
		}
		game := it.Get("game")
		if !game.Exists() {
			n.drop(ctx, mc, i, metrics.DropNoGame)
			continue
		}
		player, ok := payload.String(game.Get("player.nick"))
		if !ok {
			n.drop(ctx, mc, i, metrics.DropNoPlayer)
			continue
		}

		e := model.Entry{
			Week:        mc.Week,
			MapIndex:    mc.Index,
			MapToken:    mc.Token,
			MapURL:      mc.URL,
			MapName:     meta.Name,
			RuleText:    meta.RuleText,
			Player:      player,
			TotalPoints: points(game),
			TotalTime:   elapsed(game),
		}
		if n.resolver != nil {
			token, _ := payload.String(game.Get("token"))
			e.PlayedAtEpoch = n.resolver.Resolve(ctx, token)
		}

		if at, dup := pos[player]; dup {
			n.drop(ctx, mc, i, metrics.DropDuplicate)
			out[at] = e
			continue
		}
		pos[player] = len(out)
		out = append(out, e)
		metrics.RecordEntryNormalized()
	}
	return out
}

func (n *Normalizer) drop(ctx context.Context, mc MapContext, row int, reason string) {
	metrics.RecordEntryDropped(reason)
	n.log.Debug(ctx, "leaderboard row dropped",
		logger.String("week", mc.Week),
		logger.Int("map", mc.Index),
		logger.Int("row", row),
		logger.String("reason", reason),
	)
}

// Meta describes one map for report headers. Name and rule text come from
// the first row that has a game; a map without one is named after its index.
func Meta(mc MapContext, items []gjson.Result) model.MapMeta {
	m := model.MapMeta{Week: mc.Week, Index: mc.Index, URL: mc.URL, Token: mc.Token}
	for _, it := range items {
		game := it.Get("game")
		if !it.IsObject() || !game.IsObject() {
			continue
		}
		m.Name, _ = payload.String(game.Get("mapName"))
		m.RuleText = RuleText(game)
		break
	}
	if m.Name == "" {
		m.Name = fmt.Sprintf("Map %d", mc.Index)
	}
	return m
}

func points(game gjson.Result) int64 {
	v, ok := payload.FirstInt(
		payload.IntAt(game, "player.totalScore.amount"),
		payload.IntAt(game, "player.totalScoreInPoints"),
	)
	if !ok || v < 0 {
		return 0
	}
	return v
}

func elapsed(game gjson.Result) int64 {
	if v, ok := payload.Int(game.Get("player.totalTime")); ok {
		return v
	}
	return model.TimeSentinel
}
