package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"bookie/internal/config"
	"bookie/internal/fetch"
	"bookie/internal/iconcache"
	"bookie/internal/kv"
	"bookie/internal/kv/sqlite"
	"bookie/internal/loader"
	"bookie/internal/logging"
	"bookie/internal/metrics"
	"bookie/internal/middleware"
	"bookie/internal/resolver"
)

// Service is a built HTTP server plus the resources it owns.
type Service struct {
	Server *http.Server
	TLS    config.TLSConfig
	Loader *loader.Loader
	store  kv.Store
}

// Close releases the icon store. Call it after the server has shut down.
func (s *Service) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

type Builder struct {
	cfg    *config.Config
	logger logging.Logger
}

func NewBuilder(cfg *config.Config, logger logging.Logger) *Builder {
	return &Builder{
		cfg:    cfg,
		logger: logger,
	}
}

// BuildLoader wires store, cache, fetcher and resolver into a loader. The
// returned store must be closed by the caller.
func (b *Builder) BuildLoader() (*loader.Loader, kv.Store, error) {
	store, err := b.openStore()
	if err != nil {
		return nil, nil, err
	}

	cache := iconcache.New(store, iconcache.WithDuration(b.cfg.Cache.Duration))

	transport := fetch.NewTransport(fetch.TransportOptions{
		InsecureSkipVerify: b.cfg.Fetch.InsecureSkipVerify,
	})
	fetcher := fetch.New(transport, fetch.Options{
		Timeout:      b.cfg.Fetch.Timeout,
		ReadTimeout:  b.cfg.Fetch.ReadTimeout,
		MaxBodyBytes: b.cfg.Fetch.MaxBodyBytes,
		UserAgent:    b.cfg.Fetch.UserAgent,
	})
	res := resolver.New(fetcher, resolver.WithLogger(b.logger))

	ld := loader.New(cache, res,
		loader.WithLogger(b.logger),
		loader.WithDedupe(b.cfg.DedupeEnabled()),
	)
	return ld, store, nil
}

func (b *Builder) Build() (*Service, error) {
	ld, store, err := b.BuildLoader()
	if err != nil {
		return nil, err
	}

	mws := []middleware.Middleware{middleware.Observe(b.logger)}
	if len(b.cfg.Server.IPBlockCIDRs) > 0 {
		ipMw, err := middleware.IPFilter(b.logger, b.cfg.Server.IPBlockCIDRs)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("invalid ipBlockCIDRs: %w", err)
		}
		mws = append(mws, ipMw)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())
	NewHandler(ld, b.logger, b.cfg.Bookmarks.Concurrency).Register(mux)

	return &Service{
		Server: &http.Server{
			Addr:              b.cfg.Server.Address,
			Handler:           middleware.Chain(mux, mws...),
			ReadHeaderTimeout: 5 * time.Second,
		},
		TLS:    b.cfg.Server.TLS,
		Loader: ld,
		store:  store,
	}, nil
}

func (b *Builder) openStore() (kv.Store, error) {
	switch b.cfg.Cache.Backend {
	case "memory":
		return kv.NewMemory(b.cfg.Cache.MaxEntries), nil
	case "sqlite":
		store, err := sqlite.Open(b.cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("open icon store: %w", err)
		}
		return store, nil
	default:
		return nil, errors.New("unknown cache backend " + b.cfg.Cache.Backend)
	}
}
