package fetch

import (
	"context"
	"errors"
	"time"

	"grimm.is/setsync/internal/clock"
	"grimm.is/setsync/internal/logging"
	"grimm.is/setsync/internal/metrics"
)

// Fetcher binds providers to a freshness cache.
//
// Fetcher never writes the cache itself: a Success carries the URL and
// timestamp and the caller commits them once the result is actually used.
type Fetcher struct {
	cache   *Cache
	opts    Options
	clock   clock.Clock
	logger  *logging.Logger
	metrics *metrics.Registry

	// newProvider is swapped in tests.
	newProvider func(rawURL string, opts Options) (Provider, error)
}

// NewFetcher creates a fetcher. A nil cache gets a fresh one.
func NewFetcher(cache *Cache, opts Options, logger *logging.Logger) *Fetcher {
	if cache == nil {
		cache = NewCache()
	}
	if logger == nil {
		logger = logging.WithComponent("fetch")
	}
	return &Fetcher{
		cache:       cache,
		opts:        opts.withDefaults(),
		clock:       clock.Real,
		logger:      logger,
		metrics:     metrics.Get(),
		newProvider: NewProvider,
	}
}

// WithClock sets the clock used for unknown modification times.
func (f *Fetcher) WithClock(c clock.Clock) *Fetcher {
	f.clock = clock.Or(c)
	return f
}

// WithMetrics sets the registry fetch results are recorded in.
func (f *Fetcher) WithMetrics(r *metrics.Registry) *Fetcher {
	f.metrics = r
	return f
}

// WithProviderFactory replaces the URL-to-provider mapping.
func (f *Fetcher) WithProviderFactory(fn func(rawURL string, opts Options) (Provider, error)) *Fetcher {
	f.newProvider = fn
	return f
}

// Cache returns the freshness cache.
func (f *Fetcher) Cache() *Cache {
	return f.cache
}

// Fetch performs a conditional fetch of rawURL against the cached timestamp.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Status, error) {
	cached, _ := f.cache.Get(rawURL)
	return f.fetch(ctx, rawURL, cached)
}

// FetchFresh fetches rawURL unconditionally.
func (f *Fetcher) FetchFresh(ctx context.Context, rawURL string) (Status, error) {
	return f.fetch(ctx, rawURL, time.Time{})
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string, notOlderThan time.Time) (Status, error) {
	p, err := f.newProvider(rawURL, f.opts)
	if err != nil {
		f.record(metrics.FetchError)
		return Status{}, &Error{URL: rawURL, Op: "resolve", Err: err}
	}

	start := f.clock.Now()
	st, err := Fetch(ctx, p, notOlderThan, f.clock)
	if err != nil {
		if ctx.Err() == nil {
			f.record(metrics.FetchError)
		}
		var ferr *Error
		if !errors.As(err, &ferr) {
			err = &Error{URL: rawURL, Op: "fetch", Err: err}
		}
		return Status{}, err
	}
	st.URL = rawURL

	if st.NotModified {
		f.record(metrics.FetchNotModified)
		f.logger.Debug("List not modified", "url", rawURL, "cached", notOlderThan.Unix(), "modified", st.Modified.Unix())
		return st, nil
	}

	f.record(metrics.FetchSuccess)
	f.logger.Debug("List fetched",
		"url", rawURL,
		"entries", st.Addresses.Len(),
		"modified", st.Modified.Unix(),
		"took", f.clock.Since(start).Round(time.Millisecond))
	return st, nil
}

func (f *Fetcher) record(result string) {
	if f.metrics != nil {
		f.metrics.RecordFetch(result)
	}
}
