package firewall

import (
	"context"
	"fmt"

	"grimm.is/setsync/internal/addr"
	"grimm.is/setsync/internal/logging"
)

// Sink is a firewall backend holding named sets.
type Sink interface {
	// FlushSet removes every element of the set, creating it from tmpl
	// first if it does not exist.
	FlushSet(ctx context.Context, ref SetRef, tmpl SetTemplate) error
	// AddElements applies one chunk as a single add operation carrying the
	// set's attributes.
	AddElements(ctx context.Context, ref SetRef, tmpl SetTemplate, elems []addr.IP) error
}

// ApplyError is a failed flush or chunk. Chunks applied before it stay.
type ApplyError struct {
	Set    string
	Op     string
	Chunk  int
	Chunks int
	Err    error
}

func (e *ApplyError) Error() string {
	if e.Op == "flush" {
		return fmt.Sprintf("flush set %s: %v", e.Set, e.Err)
	}
	return fmt.Sprintf("apply chunk %d/%d to set %s: %v", e.Chunk+1, e.Chunks, e.Set, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// Loader replaces a set's contents in bounded chunks.
type Loader struct {
	sink      Sink
	chunkSize int
	logger    *logging.Logger
}

// NewLoader creates a loader. chunkSize <= 0 applies everything at once.
func NewLoader(sink Sink, chunkSize int, logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.WithComponent("firewall")
	}
	return &Loader{sink: sink, chunkSize: chunkSize, logger: logger}
}

// ChunkSize returns the configured chunk size, 0 meaning unbounded.
func (l *Loader) ChunkSize() int {
	if l.chunkSize < 0 {
		return 0
	}
	return l.chunkSize
}

// Load flushes the set once and applies entries chunk by chunk, in order.
// Empty entries leave the set untouched. It returns the number of chunks
// applied; on failure the remaining chunks are skipped.
func (l *Loader) Load(ctx context.Context, ref SetRef, tmpl SetTemplate, entries []addr.IP) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	if err := ref.Validate(); err != nil {
		return 0, &ApplyError{Set: ref.Name, Op: "flush", Err: err}
	}

	l.logger.Info(fmt.Sprintf("Downloaded %d elements for %s set. Applying...", len(entries), ref.Name))

	// Interval sets reject overlapping elements, also across chunks.
	if tmpl.Has(FlagInterval) {
		kept := addr.DropCovered(entries)
		if dropped := len(entries) - len(kept); dropped > 0 {
			l.logger.Debug("Dropped elements covered by other networks", "set", ref.Name, "dropped", dropped)
		}
		entries = kept
	}

	if err := l.sink.FlushSet(ctx, ref, tmpl); err != nil {
		return 0, &ApplyError{Set: ref.Name, Op: "flush", Err: err}
	}

	chunks := Chunk(entries, l.chunkSize)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return i, &ApplyError{Set: ref.Name, Op: "add", Chunk: i, Chunks: len(chunks), Err: err}
		}
		if err := l.sink.AddElements(ctx, ref, tmpl, chunk); err != nil {
			return i, &ApplyError{Set: ref.Name, Op: "add", Chunk: i, Chunks: len(chunks), Err: err}
		}
		l.logger.Debug("Applied chunk", "set", ref.Name, "chunk", i+1, "chunks", len(chunks), "elements", len(chunk))
	}
	return len(chunks), nil
}

// Flush empties a set without loading anything.
func (l *Loader) Flush(ctx context.Context, ref SetRef, tmpl SetTemplate) error {
	if err := ref.Validate(); err != nil {
		return &ApplyError{Set: ref.Name, Op: "flush", Err: err}
	}
	if err := l.sink.FlushSet(ctx, ref, tmpl); err != nil {
		return &ApplyError{Set: ref.Name, Op: "flush", Err: err}
	}
	return nil
}

// Chunk splits entries into consecutive slices of at most size elements.
// size <= 0 yields a single chunk.
func Chunk(entries []addr.IP, size int) [][]addr.IP {
	if len(entries) == 0 {
		return nil
	}
	if size <= 0 || size >= len(entries) {
		return [][]addr.IP{entries}
	}
	chunks := make([][]addr.IP, 0, (len(entries)+size-1)/size)
	for start := 0; start < len(entries); start += size {
		end := min(start+size, len(entries))
		chunks = append(chunks, entries[start:end:end])
	}
	return chunks
}
