package fetch

import (
	"context"
	"io"
	"os"
	"time"
)

// Local reads a list from the filesystem.
type Local struct {
	path string
}

// NewLocal returns a provider for the file at path.
func NewLocal(path string) *Local {
	return &Local{path: path}
}

// Modified returns the file's mtime.
func (l *Local) Modified(ctx context.Context) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}
	info, err := os.Stat(l.path)
	if err != nil {
		return time.Time{}, false, &Error{URL: "file://" + l.path, Op: "stat", Err: err}
	}
	return info.ModTime(), true, nil
}

// FetchRaw opens the file.
func (l *Local) FetchRaw(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, &Error{URL: "file://" + l.path, Op: "open", Err: err}
	}
	return f, nil
}
