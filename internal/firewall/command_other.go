//go:build !linux

package firewall

import (
	"errors"
)

var errUnsupportedPlatform = errors.New("nftables is only available on linux")

// Output is unsupported outside linux.
func (r *RealCommandRunner) Output(name string, args ...string) ([]byte, error) {
	return nil, errUnsupportedPlatform
}

// RunInput is unsupported outside linux.
func (r *RealCommandRunner) RunInput(input string, name string, args ...string) error {
	return errUnsupportedPlatform
}
