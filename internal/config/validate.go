package config

import (
	"fmt"
	"net"
	"strings"

	"grimm.is/setsync/internal/addr"
	"grimm.is/setsync/internal/fetch"
	"grimm.is/setsync/internal/firewall"
	"grimm.is/setsync/internal/logging"
	"grimm.is/setsync/internal/scheduler"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

func (e *ValidationErrors) add(field, format string, args ...any) {
	*e = append(*e, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate validates the entire configuration. Defaults must be applied first.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if v, err := ParseVersion(c.SchemaVersion); err != nil {
		errs.add("schema_version", "%v", err)
	} else if !IsSupportedVersion(v) {
		errs.add("schema_version", "unsupported version %s (supported: %v)", v, SupportedVersions)
	}

	if err := firewall.ValidateName(c.TableName); err != nil {
		errs.add("table_name", "%v", err)
	}
	if c.ChunkSize < 0 {
		errs.add("chunk_size", "must not be negative")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs.add("log_level", "%v", err)
	}
	switch c.Backend {
	case BackendNetlink, BackendNft:
	default:
		errs.add("backend", "unknown backend %q (want %s or %s)", c.Backend, BackendNetlink, BackendNft)
	}
	if c.NetNS != "" && c.Backend != BackendNetlink {
		errs.add("netns", "only supported with the %s backend", BackendNetlink)
	}

	errs = append(errs, c.validateExcluded()...)
	errs = append(errs, c.validateBlocks()...)
	errs = append(errs, c.validateSources()...)

	return errs
}

func (c *Config) validateExcluded() ValidationErrors {
	var errs ValidationErrors
	if len(c.ExcludedIPs) > 0 && c.ExcludedURL != "" {
		errs.add("excluded_ips", "excluded_ips and excluded_url are mutually exclusive")
	}
	if _, err := addr.ParseStrings(c.ExcludedIPs); err != nil {
		errs.add("excluded_ips", "%v", err)
	}
	if c.ExcludedURL != "" {
		if err := fetch.ValidateURL(c.ExcludedURL); err != nil {
			errs.add("excluded_url", "%v", err)
		}
	}
	return errs
}

func (c *Config) validateBlocks() ValidationErrors {
	var errs ValidationErrors

	if _, err := ParseDuration(c.Fetch.Timeout); err != nil {
		errs.add("fetch.timeout", "%v", err)
	}
	if c.Fetch.MaxBodySize < 0 {
		errs.add("fetch.max_body_size", "must not be negative")
	}
	if c.Fetch.Retries < 0 {
		errs.add("fetch.retries", "must not be negative")
	}

	interval, err := ParseDuration(c.AutoUpdate.Interval)
	if err != nil {
		errs.add("auto_update.interval", "%v", err)
	} else if _, err := scheduler.Parse(c.AutoUpdate.Schedule, interval); err != nil {
		errs.add("auto_update.schedule", "%v", err)
	}
	if _, err := ParseDuration(c.AutoUpdate.Timeout); err != nil {
		errs.add("auto_update.timeout", "%v", err)
	}

	if c.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
			errs.add("metrics.listen", "%v", err)
		}
	}
	if _, err := ParseDuration(c.State.Retention); err != nil {
		errs.add("state.retention", "%v", err)
	}

	if c.Syslog != nil {
		if c.Syslog.Host == "" {
			errs.add("log_syslog.host", "is required")
		}
		switch c.Syslog.Protocol {
		case "", "udp", "tcp":
		default:
			errs.add("log_syslog.protocol", "unknown protocol %q", c.Syslog.Protocol)
		}
	}
	return errs
}

func (c *Config) validateSources() ValidationErrors {
	var errs ValidationErrors
	seen := make(map[string]bool)

	for i, src := range c.Sources {
		field := fmt.Sprintf("source[%d]", i)
		if src.Name != "" {
			field = fmt.Sprintf("source %q", src.Name)
		}

		if err := firewall.ValidateName(src.Name); err != nil {
			errs.add(field, "%v", err)
		}
		if seen[src.Name] {
			errs.add(field, "duplicate source name")
		}
		seen[src.Name] = true

		for _, u := range src.URLs {
			if err := fetch.ValidateURL(u); err != nil {
				errs.add(field+".urls", "%v", err)
			}
		}
		if src.EntriesLimit < 0 {
			errs.add(field+".entries_limit", "must not be negative")
		}
		if _, err := src.Template(); err != nil {
			errs.add(field+".set", "%v", err)
		}
	}
	return errs
}
