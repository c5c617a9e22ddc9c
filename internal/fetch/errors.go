package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies why a resolution step produced nothing.
type Kind int

const (
	KindTimeout Kind = iota + 1
	KindNetwork
	KindHTTP
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Error is the failure type returned by the fetcher and reused by the
// resolver stages for status and decoding failures.
type Error struct {
	Kind   Kind
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindHTTP:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError reports a response whose status is outside 2xx.
func StatusError(rawURL string, status int) *Error {
	return &Error{Kind: KindHTTP, URL: rawURL, Status: status}
}

// ParseError reports a document, manifest or record that could not be decoded.
func ParseError(rawURL string, err error) *Error {
	return &Error{Kind: KindParse, URL: rawURL, Err: err}
}

// Classify maps a transport or body read error onto the error taxonomy.
// Errors that are already classified are returned unchanged.
func Classify(rawURL string, err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}

	kind := KindNetwork
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, URL: rawURL, Err: err}
}

// KindOf returns the kind of err, or 0 when err is not a classified error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
