// Package fetch downloads address lists from local files and remote URLs,
// skipping lists whose modification time has not moved past a cached value.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"grimm.is/setsync/internal/addr"
	"grimm.is/setsync/internal/clock"
)

// ErrUnsupportedScheme is returned for URLs that no provider handles.
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

// Provider is a place an address list can be read from.
type Provider interface {
	// Modified returns the list's last modification time. ok is false when
	// the provider cannot tell.
	Modified(ctx context.Context) (t time.Time, ok bool, err error)
	// FetchRaw opens the list body. The caller closes it.
	FetchRaw(ctx context.Context) (io.ReadCloser, error)
}

// Result is a fetched and parsed list.
type Result struct {
	URL       string
	Addresses *addr.Set
	Modified  time.Time
}

// Status is the outcome of a conditional fetch. When NotModified is set the
// embedded Result is empty apart from URL and Modified.
type Status struct {
	Result
	NotModified bool
}

// Error is a transport or filesystem failure for a single URL.
type Error struct {
	URL string
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Fetch asks p for its modification time and returns NotModified without
// reading the body when notOlderThan is at least as new. A zero notOlderThan
// always fetches. An unknown modification time is replaced by the current
// time, so such lists are always fetched.
//
// Timestamps are compared at whole-second precision.
func Fetch(ctx context.Context, p Provider, notOlderThan time.Time, clk clock.Clock) (Status, error) {
	modified, ok, err := p.Modified(ctx)
	if err != nil {
		return Status{}, err
	}
	if !ok {
		modified = clock.Or(clk).Now()
	}
	modified = modified.Truncate(time.Second)

	if !notOlderThan.IsZero() && !notOlderThan.Before(modified) {
		return Status{NotModified: true, Result: Result{Modified: modified}}, nil
	}

	body, err := p.FetchRaw(ctx)
	if err != nil {
		return Status{}, err
	}
	defer body.Close()

	addrs, err := addr.ParseList(body)
	if err != nil {
		return Status{}, err
	}

	return Status{Result: Result{Addresses: addrs, Modified: modified}}, nil
}

// NewProvider returns the provider for rawURL based on its scheme:
// file, http, https, or firehol:<list>.
func NewProvider(rawURL string, opts Options) (Provider, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL %q: %w", rawURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == "" {
			return nil, fmt.Errorf("file URL %q has no path", rawURL)
		}
		return NewLocal(path), nil
	case "http", "https":
		return NewRemote(rawURL, opts), nil
	case "firehol":
		name := u.Opaque
		if name == "" {
			name = u.Host
		}
		return NewRemote(FireHOLURL(name), opts), nil
	}
	return nil, fmt.Errorf("%w %q in %q", ErrUnsupportedScheme, u.Scheme, rawURL)
}

// ValidateURL reports whether rawURL is handled by a provider.
func ValidateURL(rawURL string) error {
	_, err := NewProvider(rawURL, Options{})
	return err
}
