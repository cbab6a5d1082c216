package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/setsync/internal/firewall"
	"grimm.is/setsync/internal/scheduler"
)

func TestLoadHCL(t *testing.T) {
	hcl := `
table_name   = "filter"
chunk_size   = 500
excluded_ips = ["10.0.0.0/8", "192.168.1.1"]

auto_update {
  interval = "1d"
}

source "blocklist_v4" {
  urls          = ["https://example.org/a.txt", "firehol:firehol_level1"]
  entries_limit = 1000
}

source "blocklist_v6" {
  urls = ["file:///etc/setsync/v6.txt"]
  set {
    type    = "ipv6_addr"
    timeout = "2h"
    comment = "v6 blocklist"
  }
}
`
	cfg, err := LoadHCL([]byte(hcl), "test.hcl")
	require.NoError(t, err)

	assert.Equal(t, CurrentSchemaVersion, cfg.SchemaVersion)
	assert.Equal(t, "filter", cfg.TableName)
	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, BackendNetlink, cfg.Backend)
	require.Len(t, cfg.Sources, 2)

	sources := cfg.ResolvedSources()
	assert.Equal(t, "blocklist_v4", sources[0].Name)
	assert.Equal(t, 1000, sources[0].EntriesLimit)
	assert.Equal(t, firewall.DefaultSetTemplate(), sources[0].Template)

	v6 := sources[1].Template
	assert.Equal(t, firewall.FamilyINet, v6.Family)
	assert.Equal(t, firewall.TypeIPv6Addr, v6.Type)
	assert.Equal(t, []firewall.Flag{firewall.FlagInterval}, v6.Flags)
	assert.Equal(t, 2*time.Hour, v6.Timeout)
	assert.Equal(t, "v6 blocklist", v6.Comment)

	sched, err := cfg.Schedule()
	require.NoError(t, err)
	assert.Equal(t, scheduler.Every(24*time.Hour), sched)
	assert.True(t, cfg.AutoUpdateEnabled())
	assert.Equal(t, 30*time.Minute, cfg.UpdateTimeout())
}

func TestLoadYAML(t *testing.T) {
	yml := `
table_name: fw4
chunk_size: 100
auto_update:
  enabled: false
  schedule: "0 3 * * *"
sources:
  - name: drop_v4
    urls:
      - https://example.org/drop.txt
    set:
      family: ip
      flags: [interval, timeout]
      timeout: 1d
`
	cfg, err := LoadYAML([]byte(yml))
	require.NoError(t, err)

	assert.False(t, cfg.AutoUpdateEnabled())
	sched, err := cfg.Schedule()
	require.NoError(t, err)
	assert.IsType(t, &scheduler.CronSchedule{}, sched)

	src := cfg.ResolvedSources()[0]
	assert.Equal(t, firewall.FamilyIP, src.Template.Family)
	assert.True(t, src.Template.Has(firewall.FlagTimeout))
	assert.Equal(t, 24*time.Hour, src.Template.Timeout)
	assert.Equal(t, firewall.SetRef{Family: firewall.FamilyIP, Table: "fw4", Name: "drop_v4"}, cfg.SetRef(src))
}

func TestLoadJSON(t *testing.T) {
	js := `{
  "excluded_url": "https://example.org/allow.txt",
  "fetch": {"timeout": "15s", "retries": 5},
  "sources": [{"name": "bl", "urls": ["https://example.org/bl.txt"]}]
}`
	cfg, err := LoadJSON([]byte(js))
	require.NoError(t, err)

	opts := cfg.FetchOptions()
	assert.Equal(t, 15*time.Second, opts.Timeout)
	assert.Equal(t, 5, opts.Retry.MaxAttempts)
	assert.Equal(t, "https://example.org/allow.txt", cfg.ExcludedURL)
}

func TestLoadJSON_UnknownField(t *testing.T) {
	_, err := LoadJSON([]byte(`{"tabel_name": "fw4"}`))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	hclPath := filepath.Join(dir, "setsync.hcl")
	require.NoError(t, os.WriteFile(hclPath, []byte(`source "a" { urls = ["https://example.org/a"] }`), 0o644))
	cfg, err := LoadFile(hclPath)
	require.NoError(t, err)
	assert.Len(t, cfg.Sources, 1)

	// Unknown extension falls back to YAML
	confPath := filepath.Join(dir, "setsync.conf")
	require.NoError(t, os.WriteFile(confPath, []byte("sources:\n  - name: b\n    urls: [\"https://example.org/b\"]\n"), 0o644))
	cfg, err = LoadFile(confPath)
	require.NoError(t, err)
	assert.Equal(t, "b", cfg.Sources[0].Name)

	_, err = LoadFile(filepath.Join(dir, "missing.hcl"))
	assert.Error(t, err)
}

func TestLoadHCL_Invalid(t *testing.T) {
	_, err := LoadHCL([]byte(`source "bad name" { urls = ["gopher://x"] }`), "bad.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"90s", 90 * time.Second, false},
		{"12h", 12 * time.Hour, false},
		{"3d", 72 * time.Hour, false},
		{"1h30m", 90 * time.Minute, false},
		{"-1h", 0, true},
		{"xd", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
