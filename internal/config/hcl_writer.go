package config

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// EncodeHCL renders cfg as an HCL document that LoadHCL reads back.
// Empty optional values are omitted.
func EncodeHCL(cfg *Config) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	setString(body, "schema_version", cfg.SchemaVersion)
	setString(body, "table_name", cfg.TableName)
	if cfg.ChunkSize > 0 {
		body.SetAttributeValue("chunk_size", cty.NumberIntVal(int64(cfg.ChunkSize)))
	}
	setString(body, "log_level", cfg.LogLevel)
	if cfg.LogJSON {
		body.SetAttributeValue("log_json", cty.True)
	}
	setString(body, "backend", cfg.Backend)
	setString(body, "netns", cfg.NetNS)
	if len(cfg.ExcludedIPs) > 0 {
		body.SetAttributeValue("excluded_ips", stringList(cfg.ExcludedIPs))
	}
	setString(body, "excluded_url", cfg.ExcludedURL)

	if fc := cfg.Fetch; fc != nil && *fc != (FetchConfig{}) {
		body.AppendNewline()
		b := body.AppendNewBlock("fetch", nil).Body()
		setString(b, "timeout", fc.Timeout)
		if fc.MaxBodySize > 0 {
			b.SetAttributeValue("max_body_size", cty.NumberIntVal(fc.MaxBodySize))
		}
		if fc.Retries > 0 {
			b.SetAttributeValue("retries", cty.NumberIntVal(int64(fc.Retries)))
		}
		setString(b, "user_agent", fc.UserAgent)
	}

	if au := cfg.AutoUpdate; au != nil {
		body.AppendNewline()
		b := body.AppendNewBlock("auto_update", nil).Body()
		if au.Enabled != nil {
			b.SetAttributeValue("enabled", cty.BoolVal(*au.Enabled))
		}
		setString(b, "interval", au.Interval)
		setString(b, "schedule", au.Schedule)
		setString(b, "timeout", au.Timeout)
	}

	if m := cfg.Metrics; m != nil {
		body.AppendNewline()
		b := body.AppendNewBlock("metrics", nil).Body()
		b.SetAttributeValue("enabled", cty.BoolVal(m.Enabled))
		setString(b, "listen", m.Listen)
	}

	if st := cfg.State; st != nil && *st != (StateConfig{}) {
		body.AppendNewline()
		b := body.AppendNewBlock("state", nil).Body()
		setString(b, "path", st.Path)
		setString(b, "retention", st.Retention)
	}

	if sl := cfg.Syslog; sl != nil {
		body.AppendNewline()
		b := body.AppendNewBlock("log_syslog", nil).Body()
		b.SetAttributeValue("host", cty.StringVal(sl.Host))
		if sl.Port > 0 {
			b.SetAttributeValue("port", cty.NumberIntVal(int64(sl.Port)))
		}
		setString(b, "protocol", sl.Protocol)
		setString(b, "tag", sl.Tag)
		if sl.Facility > 0 {
			b.SetAttributeValue("facility", cty.NumberIntVal(int64(sl.Facility)))
		}
	}

	for _, src := range cfg.Sources {
		body.AppendNewline()
		b := body.AppendNewBlock("source", []string{src.Name}).Body()
		b.SetAttributeValue("urls", stringList(src.URLs))
		if src.EntriesLimit > 0 {
			b.SetAttributeValue("entries_limit", cty.NumberIntVal(int64(src.EntriesLimit)))
		}
		if src.StrictLimit {
			b.SetAttributeValue("strict_limit", cty.True)
		}
		if set := src.Set; set != nil {
			sb := b.AppendNewBlock("set", nil).Body()
			setString(sb, "family", set.Family)
			setString(sb, "type", set.Type)
			setString(sb, "policy", set.Policy)
			if set.Flags != nil {
				sb.SetAttributeValue("flags", stringList(set.Flags))
			}
			setString(sb, "timeout", set.Timeout)
			setString(sb, "gc_interval", set.GCInterval)
			setString(sb, "comment", set.Comment)
		}
	}

	return f.Bytes()
}

// Example returns the configuration written by "setsync init".
func Example() *Config {
	cfg := &Config{
		ChunkSize:   1000,
		ExcludedIPs: []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
		Sources: []Source{
			{Name: "blocklist_v4", URLs: []string{"firehol:firehol_level1"}},
			{
				Name: "blocklist_v6",
				URLs: []string{"file:///etc/setsync/blocklist_v6.txt"},
				Set:  &SetConfig{Type: "ipv6_addr"},
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func setString(body *hclwrite.Body, name, value string) {
	if value != "" {
		body.SetAttributeValue(name, cty.StringVal(value))
	}
}

func stringList(values []string) cty.Value {
	if len(values) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	vals := make([]cty.Value, len(values))
	for i, s := range values {
		vals[i] = cty.StringVal(s)
	}
	return cty.ListVal(vals)
}
