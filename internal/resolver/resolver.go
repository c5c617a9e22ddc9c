// Package resolver finds the icon for a page by running a fixed chain of
// stages and stopping at the first one that produces an icon URL.
package resolver

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bookie/internal/fetch"
	"bookie/internal/logging"
	"bookie/internal/metrics"
)

const pageStage = "page"

var tracer = otel.Tracer("bookie/internal/resolver")

type Resolver struct {
	fetcher Fetcher
	stages  []Stage
	logger  logging.Logger
}

type Option func(*Resolver)

func WithLogger(l logging.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithStages replaces the default chain.
func WithStages(stages ...Stage) Option {
	return func(r *Resolver) {
		r.stages = stages
	}
}

func New(f Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher: f,
		logger:  logging.Nop(),
	}
	r.stages = DefaultStages(f)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns an absolute icon URL for rawURL, or false when no stage
// found one. Failures never escape: an unreachable page, a timeout or a
// malformed document all end in "no icon".
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (string, bool) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "resolver.Resolve", trace.WithAttributes(attribute.String("target.url", rawURL)))
	defer span.End()

	iconURL, ok := r.resolve(ctx, rawURL)

	span.SetAttributes(attribute.Bool("icon.found", ok))
	if ok {
		span.SetAttributes(attribute.String("icon.url", iconURL))
	}
	metrics.ObserveResolve(ok, time.Since(start))
	return iconURL, ok
}

func (r *Resolver) resolve(ctx context.Context, rawURL string) (string, bool) {
	target, err := r.loadTarget(ctx, rawURL)
	if err != nil {
		r.record(rawURL, pageStage, Fail(err))
		return "", false
	}

	for _, st := range r.stages {
		res := r.runStage(ctx, st, target)
		r.record(rawURL, st.Name, res)
		if res.OK() {
			return res.IconURL, true
		}
	}
	return "", false
}

// loadTarget fetches and parses the page. The chain does not run without it.
func (r *Resolver) loadTarget(ctx context.Context, rawURL string) (*Target, error) {
	ctx, span := tracer.Start(ctx, "resolver.stage."+pageStage)
	defer span.End()

	u, err := ParseTarget(rawURL)
	if err != nil {
		return nil, err
	}

	resp, err := r.fetcher.Fetch(ctx, u.String(), 0)
	if err != nil {
		return nil, err
	}
	if !fetch.Successful(resp.StatusCode) {
		fetch.Discard(resp)
		return nil, fetch.StatusError(rawURL, resp.StatusCode)
	}
	body, err := fetch.ReadBody(rawURL, resp)
	if err != nil {
		return nil, err
	}

	doc, err := parseDocument(body)
	if err != nil {
		return nil, fetch.ParseError(rawURL, err)
	}
	return &Target{URL: u, Doc: doc, Links: collectLinks(doc)}, nil
}

func (r *Resolver) runStage(ctx context.Context, st Stage, t *Target) (res Result) {
	ctx, span := tracer.Start(ctx, "resolver.stage."+st.Name)
	defer span.End()
	defer func() {
		if p := recover(); p != nil {
			res = Fail(fmt.Errorf("stage %s panicked: %v", st.Name, p))
		}
		span.SetAttributes(attribute.String("stage.outcome", res.Outcome()))
		if res.Err != nil {
			span.SetStatus(codes.Error, res.Err.Error())
		}
	}()

	return st.Run(ctx, t)
}

func (r *Resolver) record(rawURL, stage string, res Result) {
	outcome := res.Outcome()
	metrics.IncStageOutcome(stage, outcome)

	switch {
	case res.Err != nil:
		r.logger.Debug("icon stage failed", "url", rawURL, "stage", stage, "kind", outcome, "error", res.Err.Error())
	case res.OK():
		r.logger.Debug("icon stage resolved", "url", rawURL, "stage", stage, "icon", res.IconURL)
	default:
		r.logger.Debug("icon stage found nothing", "url", rawURL, "stage", stage)
	}
}

// ParseTarget accepts absolute http and https URLs only.
func ParseTarget(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fetch.ParseError(rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fetch.ParseError(rawURL, fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return nil, fetch.ParseError(rawURL, fmt.Errorf("missing host"))
	}
	return u, nil
}
