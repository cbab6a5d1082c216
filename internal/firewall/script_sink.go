package firewall

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"grimm.is/setsync/internal/addr"
)

// ScriptSink drives the nft binary with generated scripts fed through stdin.
type ScriptSink struct {
	runner CommandRunner
	nft    string
}

// NewScriptSink creates a sink that runs `nft -f -`. A nil runner uses
// DefaultCommandRunner.
func NewScriptSink(runner CommandRunner) *ScriptSink {
	if runner == nil {
		runner = DefaultCommandRunner
	}
	return &ScriptSink{runner: runner, nft: "nft"}
}

// FlushSet creates the set if needed and flushes it in one transaction.
func (s *ScriptSink) FlushSet(ctx context.Context, ref SetRef, tmpl SetTemplate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.run(RenderFlush(ref, tmpl))
}

// AddElements adds one chunk, restating the set's attributes.
func (s *ScriptSink) AddElements(ctx context.Context, ref SetRef, tmpl SetTemplate, elems []addr.IP) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.run(RenderAdd(ref, tmpl, elems))
}

// Version reports the installed nft version, e.g. "nftables v1.0.9 (Old Doc Yak #3)".
func (s *ScriptSink) Version() (string, error) {
	out, err := s.runner.Output(s.nft, "--version")
	if err != nil {
		return "", fmt.Errorf("nft not usable: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (s *ScriptSink) run(script string) error {
	if err := s.runner.RunInput(script, s.nft, "-f", "-"); err != nil {
		return fmt.Errorf("nft script failed: %w", err)
	}
	return nil
}

// DryRunSink writes the scripts ScriptSink would run instead of running them.
type DryRunSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewDryRunSink creates a sink printing to out.
func NewDryRunSink(out io.Writer) *DryRunSink {
	return &DryRunSink{out: out}
}

func (d *DryRunSink) FlushSet(_ context.Context, ref SetRef, tmpl SetTemplate) error {
	return d.write(RenderFlush(ref, tmpl))
}

func (d *DryRunSink) AddElements(_ context.Context, ref SetRef, tmpl SetTemplate, elems []addr.IP) error {
	return d.write(RenderAdd(ref, tmpl, elems))
}

func (d *DryRunSink) write(script string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := io.WriteString(d.out, script)
	return err
}

// RenderFlush renders the script that (re)creates and empties a set.
func RenderFlush(ref SetRef, tmpl SetTemplate) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "add set %s %s\n", ref, renderSetBody(tmpl, nil))
	fmt.Fprintf(&sb, "flush set %s\n", ref)
	return sb.String()
}

// RenderAdd renders an add-set command carrying the attributes and elements.
func RenderAdd(ref SetRef, tmpl SetTemplate, elems []addr.IP) string {
	return fmt.Sprintf("add set %s %s\n", ref, renderSetBody(tmpl, elems))
}

func renderSetBody(tmpl SetTemplate, elems []addr.IP) string {
	parts := []string{"type " + string(tmpl.Type)}
	if len(tmpl.Flags) > 0 {
		flags := make([]string, len(tmpl.Flags))
		for i, f := range tmpl.Flags {
			flags[i] = string(f)
		}
		parts = append(parts, "flags "+strings.Join(flags, ","))
	}
	if tmpl.Policy != PolicyNone {
		parts = append(parts, "policy "+string(tmpl.Policy))
	}
	if tmpl.Timeout > 0 {
		parts = append(parts, "timeout "+FormatDuration(tmpl.Timeout))
	}
	if tmpl.GCInterval > 0 {
		parts = append(parts, "gc-interval "+FormatDuration(tmpl.GCInterval))
	}
	if tmpl.Comment != "" {
		parts = append(parts, fmt.Sprintf("comment %q", tmpl.Comment))
	}
	if len(elems) > 0 {
		vals := make([]string, len(elems))
		for i, e := range elems {
			vals[i] = e.String()
		}
		parts = append(parts, "elements = { "+strings.Join(vals, ", ")+" }")
	}
	return "{ " + strings.Join(parts, "; ") + "; }"
}

// FormatDuration renders d in nft time syntax, e.g. 1d12h or 90s.
func FormatDuration(d time.Duration) string {
	secs := int64(d.Round(time.Second) / time.Second)
	if secs <= 0 {
		return "0s"
	}
	var sb strings.Builder
	for _, u := range []struct {
		suffix string
		secs   int64
	}{{"d", 86400}, {"h", 3600}, {"m", 60}, {"s", 1}} {
		if n := secs / u.secs; n > 0 {
			fmt.Fprintf(&sb, "%d%s", n, u.suffix)
			secs -= n * u.secs
		}
	}
	return sb.String()
}
