package config

// CurrentSchemaVersion defines the current schema version of the configuration.
const CurrentSchemaVersion = "1.0"

// Backends select how set updates reach the kernel.
const (
	BackendNetlink = "netlink"
	BackendNft     = "nft"
)

// Defaults follow the nftables layout of OpenWrt's fw4.
const (
	DefaultTableName       = "fw4"
	DefaultLogLevel        = "info"
	DefaultUpdateInterval  = "12h"
	DefaultUpdateTimeout   = "30m"
	DefaultMetricsListen   = "127.0.0.1:9733"
	DefaultHistoryDuration = "720h"
)

// Config is the top-level structure of the setsync configuration.
type Config struct {
	// Schema version for backward compatibility (e.g., "1.0", "2.0")
	SchemaVersion string `hcl:"schema_version,optional" json:"schema_version,omitempty" yaml:"schema_version,omitempty"`

	TableName string `hcl:"table_name,optional" json:"table_name,omitempty" yaml:"table_name,omitempty"`
	// Maximum elements per add operation; 0 applies a whole set at once.
	ChunkSize int    `hcl:"chunk_size,optional" json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`
	LogLevel  string `hcl:"log_level,optional" json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogJSON   bool   `hcl:"log_json,optional" json:"log_json,omitempty" yaml:"log_json,omitempty"`
	Backend   string `hcl:"backend,optional" json:"backend,omitempty" yaml:"backend,omitempty"` // netlink (default) or nft
	NetNS     string `hcl:"netns,optional" json:"netns,omitempty" yaml:"netns,omitempty"`

	// Allow-list, inline or fetched once per pass. Mutually exclusive.
	ExcludedIPs []string `hcl:"excluded_ips,optional" json:"excluded_ips,omitempty" yaml:"excluded_ips,omitempty"`
	ExcludedURL string   `hcl:"excluded_url,optional" json:"excluded_url,omitempty" yaml:"excluded_url,omitempty"`

	Fetch      *FetchConfig      `hcl:"fetch,block" json:"fetch,omitempty" yaml:"fetch,omitempty"`
	AutoUpdate *AutoUpdateConfig `hcl:"auto_update,block" json:"auto_update,omitempty" yaml:"auto_update,omitempty"`
	Metrics    *MetricsConfig    `hcl:"metrics,block" json:"metrics,omitempty" yaml:"metrics,omitempty"`
	State      *StateConfig      `hcl:"state,block" json:"state,omitempty" yaml:"state,omitempty"`
	Syslog     *SyslogConfig     `hcl:"log_syslog,block" json:"log_syslog,omitempty" yaml:"log_syslog,omitempty"`

	Sources []Source `hcl:"source,block" json:"sources" yaml:"sources"`
}

// FetchConfig tunes list downloads.
type FetchConfig struct {
	Timeout     string `hcl:"timeout,optional" json:"timeout,omitempty" yaml:"timeout,omitempty"`                   // per request; empty = none
	MaxBodySize int64  `hcl:"max_body_size,optional" json:"max_body_size,omitempty" yaml:"max_body_size,omitempty"` // bytes; default 64 MiB
	Retries     int    `hcl:"retries,optional" json:"retries,omitempty" yaml:"retries,omitempty"`                   // attempts; default 3
	UserAgent   string `hcl:"user_agent,optional" json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// AutoUpdateConfig controls the daemon's schedule.
type AutoUpdateConfig struct {
	Enabled  *bool  `hcl:"enabled,optional" json:"enabled,omitempty" yaml:"enabled,omitempty"` // default true
	Interval string `hcl:"interval,optional" json:"interval,omitempty" yaml:"interval,omitempty"`
	Schedule string `hcl:"schedule,optional" json:"schedule,omitempty" yaml:"schedule,omitempty"` // cron; overrides interval
	Timeout  string `hcl:"timeout,optional" json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `hcl:"enabled,optional" json:"enabled" yaml:"enabled"`
	Listen  string `hcl:"listen,optional" json:"listen,omitempty" yaml:"listen,omitempty"`
}

// StateConfig enables the pass history database.
type StateConfig struct {
	Path      string `hcl:"path,optional" json:"path,omitempty" yaml:"path,omitempty"`
	Retention string `hcl:"retention,optional" json:"retention,omitempty" yaml:"retention,omitempty"`
}

// SyslogConfig configures remote syslog logging.
type SyslogConfig struct {
	Host     string `hcl:"host" json:"host" yaml:"host"`                                        // Remote syslog server hostname/IP
	Port     int    `hcl:"port,optional" json:"port,omitempty" yaml:"port,omitempty"`             // Default: 514
	Protocol string `hcl:"protocol,optional" json:"protocol,omitempty" yaml:"protocol,omitempty"` // udp or tcp (default: udp)
	Tag      string `hcl:"tag,optional" json:"tag,omitempty" yaml:"tag,omitempty"`                // Syslog tag (default: setsync)
	Facility int    `hcl:"facility,optional" json:"facility,omitempty" yaml:"facility,omitempty"` // Syslog facility (default: 1)
}

// Source is one nftables set and the lists that feed it.
type Source struct {
	Name         string     `hcl:"name,label" json:"name" yaml:"name"`
	URLs         []string   `hcl:"urls" json:"urls" yaml:"urls"`
	EntriesLimit int        `hcl:"entries_limit,optional" json:"entries_limit,omitempty" yaml:"entries_limit,omitempty"`
	StrictLimit  bool       `hcl:"strict_limit,optional" json:"strict_limit,omitempty" yaml:"strict_limit,omitempty"`
	Set          *SetConfig `hcl:"set,block" json:"set,omitempty" yaml:"set,omitempty"`
}

// SetConfig holds the declarative attributes of a set.
type SetConfig struct {
	Family     string   `hcl:"family,optional" json:"family,omitempty" yaml:"family,omitempty"`
	Type       string   `hcl:"type,optional" json:"type,omitempty" yaml:"type,omitempty"`
	Policy     string   `hcl:"policy,optional" json:"policy,omitempty" yaml:"policy,omitempty"`
	Flags      []string `hcl:"flags,optional" json:"flags,omitempty" yaml:"flags,omitempty"`
	Timeout    string   `hcl:"timeout,optional" json:"timeout,omitempty" yaml:"timeout,omitempty"`
	GCInterval string   `hcl:"gc_interval,optional" json:"gc_interval,omitempty" yaml:"gc_interval,omitempty"`
	Comment    string   `hcl:"comment,optional" json:"comment,omitempty" yaml:"comment,omitempty"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.SchemaVersion == "" {
		c.SchemaVersion = CurrentSchemaVersion
	}
	if c.TableName == "" {
		c.TableName = DefaultTableName
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Backend == "" {
		c.Backend = BackendNetlink
	}
	if c.Fetch == nil {
		c.Fetch = &FetchConfig{}
	}
	if c.AutoUpdate == nil {
		c.AutoUpdate = &AutoUpdateConfig{}
	}
	if c.AutoUpdate.Enabled == nil {
		enabled := true
		c.AutoUpdate.Enabled = &enabled
	}
	if c.AutoUpdate.Interval == "" && c.AutoUpdate.Schedule == "" {
		c.AutoUpdate.Interval = DefaultUpdateInterval
	}
	if c.AutoUpdate.Timeout == "" {
		c.AutoUpdate.Timeout = DefaultUpdateTimeout
	}
	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{}
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = DefaultMetricsListen
	}
	if c.State == nil {
		c.State = &StateConfig{}
	}
	if c.State.Retention == "" {
		c.State.Retention = DefaultHistoryDuration
	}
	for i := range c.Sources {
		if c.Sources[i].Set == nil {
			c.Sources[i].Set = &SetConfig{}
		}
		set := c.Sources[i].Set
		if set.Family == "" {
			set.Family = "inet"
		}
		if set.Type == "" {
			set.Type = "ipv4_addr"
		}
		if set.Flags == nil {
			set.Flags = []string{"interval"}
		}
	}
}
