package normalize

import (
	"context"

	"github.com/okian/geoleague/pkg/logger"
	"github.com/okian/geoleague/pkg/metrics"
)

// GameLookup finds the completion time of one game. ok is false when no
// timestamp could be determined; lookups never fail the run.
type GameLookup interface {
	PlayedAt(ctx context.Context, gameToken string) (epoch int64, ok bool)
}

// PlayedAtResolver answers played-at questions through a GameLookup, asking
// at most once per game token.
type PlayedAtResolver struct {
	lookup GameLookup
	cache  *PlayedAtCache
	log    logger.Logger
}

// ResolverOption configures a PlayedAtResolver.
type ResolverOption func(*PlayedAtResolver)

// WithCache shares an existing cache between resolvers.
func WithCache(c *PlayedAtCache) ResolverOption {
	return func(r *PlayedAtResolver) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithResolverLogger sets the resolver logger.
func WithResolverLogger(l logger.Logger) ResolverOption {
	return func(r *PlayedAtResolver) {
		if l != nil {
			r.log = l
		}
	}
}

// NewPlayedAtResolver creates a resolver backed by lookup.
func NewPlayedAtResolver(lookup GameLookup, opts ...ResolverOption) *PlayedAtResolver {
	r := &PlayedAtResolver{
		lookup: lookup,
		cache:  NewPlayedAtCache(),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the played-at time of the game, or nil when unknown.
func (r *PlayedAtResolver) Resolve(ctx context.Context, gameToken string) *int64 {
	if gameToken == "" {
		metrics.RecordPlayedAtLookup(metrics.LookupNoToken)
		return nil
	}
	if epoch, resolved, found := r.cache.Get(gameToken); found {
		metrics.RecordPlayedAtLookup(metrics.LookupCacheHit)
		if !resolved {
			return nil
		}
		return &epoch
	}

	epoch, ok := r.lookup.PlayedAt(ctx, gameToken)
	r.cache.Record(gameToken, epoch, ok)
	if !ok {
		metrics.RecordPlayedAtLookup(metrics.LookupUnresolved)
		r.log.Debug(ctx, "played-at unresolved", logger.String("game", gameToken))
		return nil
	}
	metrics.RecordPlayedAtLookup(metrics.LookupResolved)
	return &epoch
}

// Cache exposes the underlying cache.
func (r *PlayedAtResolver) Cache() *PlayedAtCache { return r.cache }
