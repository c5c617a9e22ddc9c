// Package loader answers "which icon should this bookmark show": it serves
// fresh cache records without touching the network and otherwise runs the
// resolver, remembering only successful results.
package loader

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"bookie/internal/fetch"
	"bookie/internal/iconcache"
	"bookie/internal/logging"
	"bookie/internal/metrics"
)

var tracer = otel.Tracer("bookie/internal/loader")

// Resolver produces an icon URL for a page, or false when none was found.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (string, bool)
}

type Loader struct {
	cache    *iconcache.Cache
	resolver Resolver
	logger   logging.Logger

	dedupe bool
	group  singleflight.Group
}

type Option func(*Loader)

func WithLogger(l logging.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithDedupe makes concurrent loads of the same URL share one resolution.
func WithDedupe(enabled bool) Option {
	return func(ld *Loader) {
		ld.dedupe = enabled
	}
}

func New(cache *iconcache.Cache, resolver Resolver, opts ...Option) *Loader {
	ld := &Loader{
		cache:    cache,
		resolver: resolver,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Load returns the icon URL for rawURL. A failed resolution is not cached,
// so the next call tries again.
func (ld *Loader) Load(ctx context.Context, rawURL string) (string, bool) {
	ctx, span := tracer.Start(ctx, "loader.Load", trace.WithAttributes(attribute.String("target.url", rawURL)))
	defer span.End()

	if iconURL, ok := ld.lookup(ctx, rawURL); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return iconURL, true
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	if !ld.dedupe {
		return ld.resolveAndStore(ctx, rawURL)
	}

	ch := ld.group.DoChan(rawURL, func() (any, error) {
		// Detached from the first caller's cancellation so joined callers
		// are not failed by it.
		iconURL, ok := ld.resolveAndStore(context.WithoutCancel(ctx), rawURL)
		if !ok {
			return "", nil
		}
		return iconURL, nil
	})

	select {
	case <-ctx.Done():
		return "", false
	case res := <-ch:
		if res.Shared {
			metrics.IncDeduplicated()
		}
		iconURL, _ := res.Val.(string)
		return iconURL, iconURL != ""
	}
}

func (ld *Loader) lookup(ctx context.Context, rawURL string) (string, bool) {
	rec, err := ld.cache.Lookup(ctx, rawURL)
	switch {
	case err == nil:
		metrics.IncCacheLookup("hit")
		return rec.IconURL, true
	case errors.Is(err, iconcache.ErrMiss):
		metrics.IncCacheLookup("miss")
	case errors.Is(err, iconcache.ErrStale):
		metrics.IncCacheLookup("stale")
		ld.logger.Debug("icon cache entry expired", "url", rawURL, "cachedAt", rec.Time())
	case fetch.KindOf(err) == fetch.KindParse:
		metrics.IncCacheLookup("corrupt")
		ld.logger.Warn("icon cache entry unreadable", "url", rawURL, "error", err.Error())
	default:
		metrics.IncCacheLookup("error")
		ld.logger.Warn("icon cache read failed", "url", rawURL, "error", err.Error())
	}
	return "", false
}

func (ld *Loader) resolveAndStore(ctx context.Context, rawURL string) (string, bool) {
	iconURL, ok := ld.resolver.Resolve(ctx, rawURL)
	if !ok {
		ld.logger.Debug("no icon found", "url", rawURL)
		return "", false
	}

	if err := ld.cache.Put(ctx, rawURL, iconURL); err != nil {
		ld.logger.Error("icon cache write failed", "url", rawURL, "error", err.Error())
	}
	ld.logger.Info("icon resolved", "url", rawURL, "icon", iconURL)
	return iconURL, true
}
