// Package source collects the lists configured for one set into a single
// deduplicated address collection.
package source

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"grimm.is/setsync/internal/addr"
	"grimm.is/setsync/internal/fetch"
	"grimm.is/setsync/internal/firewall"
	"grimm.is/setsync/internal/logging"
)

// errLimitReached is the cancellation cause for fetches that are no longer
// needed.
var errLimitReached = errors.New("entries limit reached")

// Source is one named set and the lists that feed it.
type Source struct {
	Name         string
	URLs         []string
	EntriesLimit int
	StrictLimit  bool
	Template     firewall.SetTemplate
}

// Fetcher performs conditional fetches against the shared freshness cache.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (fetch.Status, error)
}

// Outcome is the result of collecting one source.
type Outcome struct {
	Entries      *addr.Set
	Fetched      int
	NotModified  int
	LimitReached bool
	Truncated    int

	txn *fetch.Txn
}

// Changed reports whether at least one list had new content.
func (o *Outcome) Changed() bool {
	return o.Fetched > 0
}

// Commit keeps the cache entries written during collection.
func (o *Outcome) Commit() {
	if o.txn != nil {
		o.txn.Release()
	}
}

// Rollback restores the cache entries written during collection, so the
// lists are downloaded again next pass.
func (o *Outcome) Rollback() {
	if o.txn != nil {
		o.txn.Rollback()
	}
}

// Aggregator fetches a source's URLs and merges the results.
type Aggregator struct {
	fetcher Fetcher
	cache   *fetch.Cache
	logger  *logging.Logger
}

// NewAggregator creates an aggregator writing freshness entries to cache.
func NewAggregator(fetcher Fetcher, cache *fetch.Cache, logger *logging.Logger) *Aggregator {
	if logger == nil {
		logger = logging.WithComponent("source")
	}
	return &Aggregator{fetcher: fetcher, cache: cache, logger: logger}
}

// Collect fetches every URL of src. Any failed fetch fails the whole source
// and leaves the cache as it was.
//
// With several URLs the fetches run concurrently and results are merged in
// completion order. Once the merged total meets the entries limit the
// remaining fetches are cancelled and their results discarded, so the final
// size can exceed the limit by up to one list unless StrictLimit is set.
func (a *Aggregator) Collect(ctx context.Context, src Source) (*Outcome, error) {
	out := &Outcome{Entries: addr.NewSet(0), txn: a.cache.Begin()}

	var err error
	switch len(src.URLs) {
	case 0:
		return out, nil
	case 1:
		err = a.collectOne(ctx, src, out)
	default:
		err = a.collectMany(ctx, src, out)
	}
	if err != nil {
		out.Rollback()
		return nil, err
	}
	return out, nil
}

func (a *Aggregator) collectOne(ctx context.Context, src Source, out *Outcome) error {
	st, err := a.fetcher.Fetch(ctx, src.URLs[0])
	if err != nil {
		return err
	}
	if st.NotModified {
		out.NotModified++
		return nil
	}

	out.txn.Commit(st.URL, st.Modified)
	out.Entries = st.Addresses
	if out.Entries == nil {
		out.Entries = addr.NewSet(0)
	}
	out.Fetched++
	a.truncate(src, out)
	return nil
}

func (a *Aggregator) collectMany(ctx context.Context, src Source, out *Outcome) error {
	parent := ctx
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	g, gctx := errgroup.WithContext(ctx)
	results := make(chan fetch.Status)

	for _, u := range src.URLs {
		g.Go(func() error {
			st, err := a.fetcher.Fetch(gctx, u)
			if err != nil {
				return unlessLimited(gctx, err)
			}
			select {
			case results <- st:
				return nil
			case <-gctx.Done():
				return unlessLimited(gctx, context.Cause(gctx))
			}
		})
	}

	var waitErr error
	go func() {
		waitErr = g.Wait()
		close(results)
	}()

	for st := range results {
		if out.LimitReached {
			continue
		}
		if st.NotModified {
			out.NotModified++
			continue
		}
		if src.EntriesLimit > 0 && out.Entries.Len() >= src.EntriesLimit {
			out.LimitReached = true
			a.logger.Info("Entries limit reached, cancelling remaining fetches",
				"set", src.Name, "limit", src.EntriesLimit, "entries", out.Entries.Len())
			cancel(errLimitReached)
			continue
		}
		out.txn.Commit(st.URL, st.Modified)
		out.Entries.Merge(st.Addresses)
		out.Fetched++
	}

	if err := parent.Err(); err != nil {
		return err
	}
	if waitErr != nil {
		return waitErr
	}
	if src.StrictLimit {
		a.truncate(src, out)
	}
	return nil
}

// unlessLimited drops err when the fetch was cancelled by the entries limit.
// A failure that happened first stays the group's cause and is returned.
func unlessLimited(gctx context.Context, err error) error {
	if errors.Is(context.Cause(gctx), errLimitReached) {
		return nil
	}
	return err
}

func (a *Aggregator) truncate(src Source, out *Outcome) {
	if src.EntriesLimit <= 0 {
		return
	}
	if dropped := out.Entries.Truncate(src.EntriesLimit); dropped > 0 {
		out.Truncated += dropped
		a.logger.Warn(fmt.Sprintf("Set %s exceeds entries limit, truncated to %d entries", src.Name, src.EntriesLimit),
			"dropped", dropped)
	}
}
