package config

import (
	"errors"
	"fmt"
	"time"

	"grimm.is/setsync/internal/fetch"
	"grimm.is/setsync/internal/firewall"
	"grimm.is/setsync/internal/logging"
	"grimm.is/setsync/internal/scheduler"
	"grimm.is/setsync/internal/source"
)

// Template converts the set block to a firewall template.
func (s Source) Template() (firewall.SetTemplate, error) {
	set := s.Set
	if set == nil {
		return firewall.DefaultSetTemplate(), nil
	}

	tmpl := firewall.SetTemplate{
		Family:  firewall.Family(set.Family),
		Type:    firewall.ElementType(set.Type),
		Policy:  firewall.Policy(set.Policy),
		Comment: set.Comment,
	}
	for _, f := range set.Flags {
		tmpl.Flags = append(tmpl.Flags, firewall.Flag(f))
	}

	var errs []error
	var err error
	if tmpl.Timeout, err = ParseDuration(set.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("timeout: %w", err))
	}
	if tmpl.GCInterval, err = ParseDuration(set.GCInterval); err != nil {
		errs = append(errs, fmt.Errorf("gc_interval: %w", err))
	}
	if err := tmpl.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return firewall.SetTemplate{}, errors.Join(errs...)
	}
	return tmpl, nil
}

// Resolve converts a validated source block for the aggregator.
func (s Source) Resolve() source.Source {
	tmpl, _ := s.Template()
	return source.Source{
		Name:         s.Name,
		URLs:         s.URLs,
		EntriesLimit: s.EntriesLimit,
		StrictLimit:  s.StrictLimit,
		Template:     tmpl,
	}
}

// ResolvedSources returns every source ready for the aggregator.
func (c *Config) ResolvedSources() []source.Source {
	out := make([]source.Source, len(c.Sources))
	for i, s := range c.Sources {
		out[i] = s.Resolve()
	}
	return out
}

// FetchOptions returns the provider options for list downloads.
func (c *Config) FetchOptions() fetch.Options {
	opts := fetch.Options{
		Timeout:     mustDuration(c.Fetch.Timeout),
		MaxBodySize: c.Fetch.MaxBodySize,
		UserAgent:   c.Fetch.UserAgent,
	}
	if c.Fetch.Retries > 0 {
		opts.Retry = fetch.DefaultRetryConfig()
		opts.Retry.MaxAttempts = c.Fetch.Retries
	}
	return opts
}

// Schedule returns the daemon's update schedule.
func (c *Config) Schedule() (scheduler.Schedule, error) {
	return scheduler.Parse(c.AutoUpdate.Schedule, mustDuration(c.AutoUpdate.Interval))
}

// UpdateTimeout bounds a single pass run by the daemon.
func (c *Config) UpdateTimeout() time.Duration {
	return mustDuration(c.AutoUpdate.Timeout)
}

// HistoryRetention is how long pass records are kept.
func (c *Config) HistoryRetention() time.Duration {
	return mustDuration(c.State.Retention)
}

// SetRef returns where a source's set lives.
func (c *Config) SetRef(src source.Source) firewall.SetRef {
	return firewall.SetRef{Family: src.Template.Family, Table: c.TableName, Name: src.Name}
}

// LoggingConfig returns the logger settings.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	if lvl, err := logging.ParseLevel(c.LogLevel); err == nil {
		cfg.Level = lvl
	}
	cfg.JSON = c.LogJSON
	return cfg
}

// SyslogConfig returns the remote syslog settings, or false when disabled.
func (c *Config) SyslogConfig() (logging.SyslogConfig, bool) {
	if c.Syslog == nil {
		return logging.SyslogConfig{}, false
	}
	cfg := logging.DefaultSyslogConfig()
	cfg.Host = c.Syslog.Host
	if c.Syslog.Port > 0 {
		cfg.Port = c.Syslog.Port
	}
	if c.Syslog.Protocol != "" {
		cfg.Protocol = c.Syslog.Protocol
	}
	if c.Syslog.Tag != "" {
		cfg.Tag = c.Syslog.Tag
	}
	if c.Syslog.Facility > 0 {
		cfg.Facility = c.Syslog.Facility
	}
	return cfg, true
}

// AutoUpdateEnabled reports whether the daemon schedules passes.
func (c *Config) AutoUpdateEnabled() bool {
	return c.AutoUpdate == nil || c.AutoUpdate.Enabled == nil || *c.AutoUpdate.Enabled
}
