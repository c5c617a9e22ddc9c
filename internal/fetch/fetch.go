// Package fetch issues time-bounded GET requests on behalf of the icon
// resolver.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultTimeout      = 5000 * time.Millisecond
	DefaultMaxBodyBytes = 1 << 20 // 1 MiB
)

type Options struct {
	Timeout time.Duration
	// ReadTimeout bounds reading the body once headers have arrived. Zero
	// leaves the read bounded by MaxBodyBytes and the caller's context.
	ReadTimeout  time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	readTimeout  time.Duration
	maxBodyBytes int64
	userAgent    string
}

func New(rt http.RoundTripper, opts Options) *Fetcher {
	if rt == nil {
		rt = NewTransport(TransportOptions{})
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Fetcher{
		client:       &http.Client{Transport: rt},
		timeout:      opts.Timeout,
		readTimeout:  opts.ReadTimeout,
		maxBodyBytes: opts.MaxBodyBytes,
		userAgent:    opts.UserAgent,
	}
}

// Timeout returns the bound applied when Fetch is called without one.
func (f *Fetcher) Timeout() time.Duration {
	return f.timeout
}

// Fetch performs a GET against rawURL. The request must produce response
// headers within timeout (the fetcher default when timeout <= 0); the timer is
// disarmed once they arrive. Reading the body is then bounded only by
// MaxBodyBytes and, when set, ReadTimeout. Any status code is returned as a
// response; only transport failures are errors. The caller must close the body.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (*http.Response, error) {
	if timeout <= 0 {
		timeout = f.timeout
	}

	ctx, cancel := context.WithCancelCause(ctx)
	timer := time.AfterFunc(timeout, func() { cancel(context.DeadlineExceeded) })

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		timer.Stop()
		cancel(nil)
		return nil, &Error{Kind: KindNetwork, URL: rawURL, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	timer.Stop()
	if err != nil {
		err = withTimeoutCause(ctx, err)
		cancel(nil)
		return nil, Classify(rawURL, err)
	}

	body := &boundedBody{
		r:      io.LimitReader(resp.Body, f.maxBodyBytes),
		body:   resp.Body,
		ctx:    ctx,
		cancel: cancel,
	}
	if f.readTimeout > 0 {
		body.timer = time.AfterFunc(f.readTimeout, func() { cancel(context.DeadlineExceeded) })
	}
	resp.Body = body
	return resp, nil
}

// ReadBody drains and closes resp.Body, classifying read failures.
func ReadBody(rawURL string, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Classify(rawURL, err)
	}
	return data, nil
}

// Discard closes resp.Body without reading it.
func Discard(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}

// Successful reports whether status is in the 2xx range.
func Successful(status int) bool {
	return status >= 200 && status < 300
}

type boundedBody struct {
	r      io.Reader
	body   io.ReadCloser
	ctx    context.Context
	cancel context.CancelCauseFunc
	timer  *time.Timer
}

func (b *boundedBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && err != io.EOF {
		err = withTimeoutCause(b.ctx, err)
	}
	return n, err
}

func (b *boundedBody) Close() error {
	if b.timer != nil {
		b.timer.Stop()
	}
	err := b.body.Close()
	b.cancel(nil)
	return err
}

// withTimeoutCause marks err as a deadline failure when ctx was cancelled by
// one of the fetch timers.
func withTimeoutCause(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(context.Cause(ctx), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return err
}
