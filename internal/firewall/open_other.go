//go:build !linux

package firewall

import (
	"errors"
	"io"
)

// NativeSink is unavailable outside linux.
type NativeSink struct{ Sink }

// OpenNative always fails outside linux.
func OpenNative(string) (*NativeSink, io.Closer, error) {
	return nil, nil, errors.New("netlink backend is only available on linux")
}
