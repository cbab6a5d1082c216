package cmd

import (
	"errors"
	"fmt"
	"io"

	"grimm.is/setsync/internal/config"
	"grimm.is/setsync/internal/fetch"
	"grimm.is/setsync/internal/firewall"
	"grimm.is/setsync/internal/logging"
	"grimm.is/setsync/internal/metrics"
	"grimm.is/setsync/internal/state"
	"grimm.is/setsync/internal/syncer"
)

// app is everything a command needs to run passes.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *metrics.Registry
	syncer  *syncer.Syncer
	history *state.Store

	closers []io.Closer
}

// newApp loads the config and wires the pipeline. With dryRun set the
// rendered nft script goes to out and the kernel is never touched.
func newApp(dryRun bool, out io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, logCloser, err := setupLogging(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.Get(),
		closers: []io.Closer{logCloser},
	}

	sink, err := a.openSink(dryRun, out)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.State.Path != "" && !dryRun {
		store, err := state.Open(state.DefaultOptions(cfg.State.Path))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.history = store
		a.closers = append(a.closers, store)
	}

	fetcher := fetch.NewFetcher(fetch.NewCache(), cfg.FetchOptions(), logger.WithComponent("fetch")).
		WithMetrics(a.metrics)
	loader := firewall.NewLoader(sink, cfg.ChunkSize, logger.WithComponent("firewall"))

	opts := syncer.Options{
		TableName:        cfg.TableName,
		Sources:          cfg.ResolvedSources(),
		ExcludedIPs:      cfg.ExcludedIPs,
		ExcludedURL:      cfg.ExcludedURL,
		HistoryRetention: cfg.HistoryRetention(),
		Metrics:          a.metrics,
	}
	if a.history != nil {
		opts.History = a.history
	}
	a.syncer = syncer.New(opts, fetcher, loader, logger.WithComponent("syncer"))
	return a, nil
}

func (a *app) openSink(dryRun bool, out io.Writer) (firewall.Sink, error) {
	if dryRun {
		return firewall.NewDryRunSink(out), nil
	}

	switch a.cfg.Backend {
	case config.BackendNft:
		return firewall.NewScriptSink(nil), nil
	default:
		sink, closer, err := firewall.OpenNative(a.cfg.NetNS)
		if err != nil {
			return nil, fmt.Errorf("open netlink backend: %w", err)
		}
		a.closers = append(a.closers, closer)
		return sink, nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
