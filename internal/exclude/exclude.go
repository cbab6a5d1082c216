// Package exclude removes allow-listed addresses and networks from
// collected lists before they are applied.
package exclude

import (
	"context"
	"fmt"

	"grimm.is/setsync/internal/addr"
	"grimm.is/setsync/internal/fetch"
)

// Set is an immutable collection of excluded values.
type Set struct {
	exact    *addr.Set
	networks []addr.IP
}

// New builds an excluded set from ips.
func New(ips *addr.Set) *Set {
	s := &Set{exact: addr.NewSet(ips.Len())}
	for _, ip := range ips.Items() {
		s.exact.Add(ip)
		if ip.IsNetwork() {
			s.networks = append(s.networks, ip)
		}
	}
	return s
}

// Len returns the number of excluded values.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return s.exact.Len()
}

// Filter returns the entries that are neither excluded exactly nor contained
// in an excluded network of the same family. entries is not modified.
func (s *Set) Filter(entries *addr.Set) *addr.Set {
	if s.Len() == 0 {
		return entries
	}

	survivors := entries.Filter(func(ip addr.IP) bool {
		return !s.exact.Has(ip)
	})
	if len(s.networks) == 0 {
		return survivors
	}

	// Survivors are copied once into a set sized for them.
	out := addr.NewSet(survivors.Len())
	for _, ip := range survivors.Items() {
		if !s.contains(ip) {
			out.Add(ip)
		}
	}
	return out
}

func (s *Set) contains(ip addr.IP) bool {
	for _, n := range s.networks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// FreshFetcher fetches a list without consulting the freshness cache.
type FreshFetcher interface {
	FetchFresh(ctx context.Context, rawURL string) (fetch.Status, error)
}

// Load builds the excluded set from inline values or, when url is set, from
// a list fetched unconditionally.
func Load(ctx context.Context, inline []string, url string, f FreshFetcher) (*Set, error) {
	if url == "" {
		ips, err := addr.ParseStrings(inline)
		if err != nil {
			return nil, fmt.Errorf("excluded_ips: %w", err)
		}
		return New(ips), nil
	}

	st, err := f.FetchFresh(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("load excluded list: %w", err)
	}
	return New(st.Addresses), nil
}
