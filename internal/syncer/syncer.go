// Package syncer runs synchronization passes: every configured source is
// collected, filtered against the excluded set and loaded into its nftables
// set, one source at a time.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"grimm.is/setsync/internal/addr"
	"grimm.is/setsync/internal/clock"
	"grimm.is/setsync/internal/exclude"
	"grimm.is/setsync/internal/fetch"
	"grimm.is/setsync/internal/firewall"
	"grimm.is/setsync/internal/logging"
	"grimm.is/setsync/internal/metrics"
	"grimm.is/setsync/internal/source"
	"grimm.is/setsync/internal/state"
)

// Failure stages.
const (
	StageFetch = "fetch"
	StageApply = "apply"
)

// History stores pass outcomes. *state.Store implements it.
type History interface {
	RecordPass(ctx context.Context, records []state.Record) error
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// Options configures a Syncer.
type Options struct {
	TableName   string
	Sources     []source.Source
	ExcludedIPs []string
	ExcludedURL string

	History          History       // optional
	HistoryRetention time.Duration // 0 keeps everything
	Metrics          *metrics.Registry
	Clock            clock.Clock
}

// Syncer owns the freshness cache for the lifetime of the process, so
// unchanged lists are skipped across passes.
type Syncer struct {
	opts       Options
	fetcher    *fetch.Fetcher
	aggregator *source.Aggregator
	loader     *firewall.Loader
	metrics    *metrics.Registry
	clock      clock.Clock
	logger     *logging.Logger

	// passes never overlap
	mu sync.Mutex
}

// New creates a syncer. The fetcher's cache is the freshness cache.
func New(opts Options, fetcher *fetch.Fetcher, loader *firewall.Loader, logger *logging.Logger) *Syncer {
	if logger == nil {
		logger = logging.WithComponent("syncer")
	}
	reg := opts.Metrics
	if reg == nil {
		reg = metrics.Get()
	}
	return &Syncer{
		opts:       opts,
		fetcher:    fetcher,
		aggregator: source.NewAggregator(fetcher, fetcher.Cache(), logger.WithComponent("source")),
		loader:     loader,
		metrics:    reg,
		clock:      clock.Or(opts.Clock),
		logger:     logger,
	}
}

// SourceResult is the outcome of one source in one pass.
type SourceResult struct {
	Source      string
	Result      string // metrics.Result*
	Stage       string // set on failure
	Entries     int    // elements sent to the sink
	Excluded    int    // removed by the excluded set
	Mismatched  int    // dropped for not matching the set type
	Truncated   int
	NotModified int
	Chunks      int
	Duration    time.Duration
	Err         error
}

// Report summarizes a pass.
type Report struct {
	PassID    string
	StartedAt time.Time
	Duration  time.Duration
	Excluded  int
	Sources   []SourceResult

	// Aborted is set when the pass stopped before any source was processed.
	Aborted error
}

// Err joins the abort reason and every source failure.
func (r *Report) Err() error {
	var errs []error
	if r.Aborted != nil {
		errs = append(errs, r.Aborted)
	}
	for _, s := range r.Sources {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("set %s: %w", s.Source, s.Err))
		}
	}
	return errors.Join(errs...)
}

// Failed returns the number of failed sources.
func (r *Report) Failed() int {
	n := 0
	for _, s := range r.Sources {
		if s.Err != nil {
			n++
		}
	}
	return n
}

// Count returns the number of sources with the given result.
func (r *Report) Count(result string) int {
	n := 0
	for _, s := range r.Sources {
		if s.Result == result {
			n++
		}
	}
	return n
}

// RunPass processes every source once. Source failures are recorded in the
// report and do not stop the pass; a failure to build the excluded set
// aborts it before anything is applied.
func (s *Syncer) RunPass(ctx context.Context) *Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &Report{
		PassID:    uuid.NewString(),
		StartedAt: s.clock.Now(),
	}
	logger := s.logger.With("pass", report.PassID)
	logger.Info("Starting update pass", "sources", len(s.opts.Sources))

	excluded, err := exclude.Load(ctx, s.opts.ExcludedIPs, s.opts.ExcludedURL, s.fetcher)
	if err != nil {
		report.Aborted = err
		report.Duration = s.clock.Since(report.StartedAt)
		logger.Error("Failed to load excluded set, skipping pass", "error", err)
		s.metrics.RecordPass(report.Duration, true)
		return report
	}
	report.Excluded = excluded.Len()
	s.metrics.SetExcluded(excluded.Len())

	for _, src := range s.opts.Sources {
		start := s.clock.Now()
		res := s.syncSource(ctx, logger, src, excluded)
		res.Duration = s.clock.Since(start)
		report.Sources = append(report.Sources, res)
	}

	report.Duration = s.clock.Since(report.StartedAt)
	s.metrics.RecordPass(report.Duration, report.Failed() > 0)
	s.record(ctx, logger, report)

	logger.Info("Update pass finished",
		"duration", report.Duration,
		"applied", report.Count(metrics.ResultApplied),
		"unchanged", report.Count(metrics.ResultUnchanged),
		"empty", report.Count(metrics.ResultEmpty),
		"failed", report.Failed())
	return report
}

func (s *Syncer) syncSource(ctx context.Context, logger *logging.Logger, src source.Source, excluded *exclude.Set) SourceResult {
	res := SourceResult{Source: src.Name}

	fail := func(stage string, err error) SourceResult {
		res.Result, res.Stage, res.Err = metrics.ResultFailed, stage, err
		s.metrics.RecordSourceError(src.Name, stage)
		logger.Error("Failed to update set", "set", src.Name, "stage", stage, "error", err)
		return res
	}

	out, err := s.aggregator.Collect(ctx, src)
	if err != nil {
		return fail(StageFetch, err)
	}
	res.NotModified = out.NotModified
	res.Truncated = out.Truncated
	if out.LimitReached || out.Truncated > 0 {
		s.metrics.RecordTruncation(src.Name)
	}

	if !out.Changed() {
		out.Commit()
		res.Result = metrics.ResultUnchanged
		s.metrics.RecordSourceUpdate(src.Name, res.Result, 0)
		logger.Info(fmt.Sprintf("No updates for %s set", src.Name))
		return res
	}

	entries := excluded.Filter(out.Entries)
	res.Excluded = out.Entries.Len() - entries.Len()

	typed := entries.Filter(func(ip addr.IP) bool { return src.Template.Type.Accepts(ip) })
	if res.Mismatched = entries.Len() - typed.Len(); res.Mismatched > 0 {
		logger.Warn("Dropping entries that do not match the set type",
			"set", src.Name, "type", src.Template.Type, "dropped", res.Mismatched)
	}

	if typed.Len() == 0 {
		out.Commit()
		res.Result = metrics.ResultEmpty
		s.metrics.RecordSourceUpdate(src.Name, res.Result, 0)
		logger.Warn(fmt.Sprintf("No elements left for %s set, keeping current contents", src.Name))
		return res
	}

	ref := firewall.SetRef{Family: src.Template.Family, Table: s.opts.TableName, Name: src.Name}
	chunks, err := s.loader.Load(ctx, ref, src.Template, typed.Items())
	res.Chunks = chunks
	if err != nil {
		out.Rollback()
		return fail(StageApply, err)
	}

	out.Commit()
	res.Result = metrics.ResultApplied
	res.Entries = typed.Len()
	s.metrics.RecordSourceUpdate(src.Name, res.Result, res.Entries)
	logger.Info(fmt.Sprintf("Set %s updated", src.Name),
		"entries", res.Entries, "chunks", chunks, "excluded", res.Excluded)
	return res
}

func (s *Syncer) record(ctx context.Context, logger *logging.Logger, report *Report) {
	h := s.opts.History
	if h == nil {
		return
	}

	records := make([]state.Record, 0, len(report.Sources))
	for _, r := range report.Sources {
		rec := state.Record{
			PassID:    report.PassID,
			Source:    r.Source,
			StartedAt: report.StartedAt,
			Duration:  r.Duration,
			Entries:   r.Entries,
			Result:    r.Result,
		}
		if r.Err != nil {
			rec.Error = r.Err.Error()
		}
		records = append(records, rec)
	}

	if err := h.RecordPass(ctx, records); err != nil {
		logger.Warn("Failed to record pass history", "error", err)
		return
	}
	if s.opts.HistoryRetention > 0 {
		if n, err := h.Prune(ctx, s.opts.HistoryRetention); err != nil {
			logger.Warn("Failed to prune pass history", "error", err)
		} else if n > 0 {
			logger.Debug("Pruned pass history", "records", n)
		}
	}
}

// FlushAll empties every configured set and forgets the lists' freshness,
// so the next pass reloads everything.
func (s *Syncer) FlushAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, src := range s.opts.Sources {
		ref := firewall.SetRef{Family: src.Template.Family, Table: s.opts.TableName, Name: src.Name}
		if err := s.loader.Flush(ctx, ref, src.Template); err != nil {
			s.logger.Error("Failed to flush set", "set", src.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		s.fetcher.Cache().Forget(src.URLs...)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.logger.Warn("All sets are flushed!")
	return nil
}
