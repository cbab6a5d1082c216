//go:build linux

package firewall

import (
	"fmt"
	"io"

	"github.com/google/nftables"
	"github.com/vishvananda/netns"
)

// OpenNative connects to nftables, inside the named network namespace when
// nsName is set. The returned closer releases the namespace handle.
func OpenNative(nsName string) (*NativeSink, io.Closer, error) {
	if nsName == "" {
		conn, err := nftables.New()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open nftables: %w", err)
		}
		return NewNativeSink(NewRealNFTablesConn(conn)), nopCloser{}, nil
	}

	ns, err := netns.GetFromName(nsName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get netns %s: %w", nsName, err)
	}
	conn, err := nftables.New(nftables.WithNetNSFd(int(ns)))
	if err != nil {
		ns.Close()
		return nil, nil, fmt.Errorf("failed to open nftables in netns %s: %w", nsName, err)
	}
	return NewNativeSink(NewRealNFTablesConn(conn)), nsCloser{ns}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type nsCloser struct{ h netns.NsHandle }

func (c nsCloser) Close() error { return c.h.Close() }
