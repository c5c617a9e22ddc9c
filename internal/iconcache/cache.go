package iconcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookie/internal/fetch"
	"bookie/internal/kv"
)

// DefaultDuration is how long a resolved icon stays fresh.
const DefaultDuration = 30 * 24 * time.Hour

var (
	ErrMiss  = errors.New("icon cache miss")
	ErrStale = errors.New("icon cache entry expired")
)

// Record is the stored form of a resolved icon.
type Record struct {
	IconURL   string `json:"iconUrl"`
	Timestamp int64  `json:"timestamp"`
}

// Time returns the record creation time.
func (r Record) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

type Cache struct {
	store    kv.Store
	duration time.Duration
	now      func() time.Time
}

type Option func(*Cache)

func WithDuration(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.duration = d
		}
	}
}

// WithClock replaces time.Now, mainly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

func New(store kv.Store, opts ...Option) *Cache {
	c := &Cache{
		store:    store,
		duration: DefaultDuration,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Duration() time.Duration {
	return c.duration
}

// Get returns the cached icon URL for rawURL when a fresh record exists.
func (c *Cache) Get(ctx context.Context, rawURL string) (string, bool) {
	rec, err := c.Lookup(ctx, rawURL)
	if err != nil {
		return "", false
	}
	return rec.IconURL, true
}

// Lookup is Get with the reason for a miss: ErrMiss, ErrStale, a
// *fetch.Error of kind KindParse for a corrupt record, or a store error.
func (c *Cache) Lookup(ctx context.Context, rawURL string) (Record, error) {
	key := Key(rawURL)
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return Record{}, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return Record{}, ErrMiss
	}

	rec, err := decodeRecord(raw)
	if err != nil {
		return Record{}, fetch.ParseError(key, err)
	}

	if c.now().Sub(rec.Time()) >= c.duration {
		return rec, ErrStale
	}
	return rec, nil
}

// Put overwrites the record for rawURL with iconURL stamped at the current time.
func (c *Cache) Put(ctx context.Context, rawURL, iconURL string) error {
	if iconURL == "" {
		return fmt.Errorf("icon url is required")
	}

	data, err := json.Marshal(Record{
		IconURL:   iconURL,
		Timestamp: c.now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	key := Key(rawURL)
	if err := c.store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func decodeRecord(raw string) (Record, error) {
	var wire struct {
		IconURL   *string `json:"iconUrl"`
		Timestamp *int64  `json:"timestamp"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return Record{}, err
	}
	if wire.IconURL == nil || *wire.IconURL == "" {
		return Record{}, errors.New("record has no iconUrl")
	}
	if wire.Timestamp == nil {
		return Record{}, errors.New("record has no timestamp")
	}
	return Record{IconURL: *wire.IconURL, Timestamp: *wire.Timestamp}, nil
}
