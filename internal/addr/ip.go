// Package addr models the IP values carried by blocklists: single addresses
// and CIDR networks, their canonical forms and containment.
package addr

import (
	"errors"
	"fmt"
	"net/netip"
	"slices"
	"strings"

	"go4.org/netipx"
)

// ErrParse is returned for text that is neither an address nor a CIDR network.
var ErrParse = errors.New("invalid IP address or CIDR network")

// IP is either a single address or a network. Networks are always stored
// masked, so the zero-host-bits form is the only representation and IP
// values can be compared with == and used as map keys.
//
// A single address and the host network covering it (1.2.3.4 vs 1.2.3.4/32)
// are different values.
type IP struct {
	prefix  netip.Prefix
	network bool
}

// Parse parses a bare address first and a CIDR network second.
func Parse(s string) (IP, error) {
	s = strings.TrimSpace(s)

	if a, err := netip.ParseAddr(s); err == nil {
		if a.Zone() != "" {
			return IP{}, fmt.Errorf("%w: %q has a zone", ErrParse, s)
		}
		return FromAddr(a), nil
	}

	p, err := netip.ParsePrefix(s)
	if err != nil {
		return IP{}, fmt.Errorf("%w: %q", ErrParse, s)
	}
	return FromPrefix(p), nil
}

// MustParse is like Parse but panics on error. Intended for tests and tables.
func MustParse(s string) IP {
	ip, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return ip
}

// FromAddr returns the single-address value for a.
func FromAddr(a netip.Addr) IP {
	return IP{prefix: netip.PrefixFrom(a, a.BitLen())}
}

// FromPrefix returns the canonical network value for p.
func FromPrefix(p netip.Prefix) IP {
	return IP{prefix: p.Masked(), network: true}
}

// IsValid reports whether ip holds a parsed value.
func (ip IP) IsValid() bool { return ip.prefix.IsValid() }

// IsNetwork reports whether ip is a CIDR network rather than a single address.
func (ip IP) IsNetwork() bool { return ip.network }

// Addr returns the address, or the network address for networks.
func (ip IP) Addr() netip.Addr { return ip.prefix.Addr() }

// Bits returns the prefix length. Single addresses report the full bit length.
func (ip IP) Bits() int { return ip.prefix.Bits() }

// Prefix returns ip as a prefix. Single addresses become host prefixes.
func (ip IP) Prefix() netip.Prefix { return ip.prefix }

// Is4 reports whether ip is an IPv4 value. IPv4-mapped IPv6 values are IPv6.
func (ip IP) Is4() bool { return ip.prefix.Addr().Is4() }

// Is6 reports whether ip is an IPv6 value.
func (ip IP) Is6() bool { return ip.prefix.Addr().Is6() }

// Range returns the inclusive address range covered by ip.
func (ip IP) Range() netipx.IPRange {
	return netipx.RangeOfPrefix(ip.prefix)
}

// Contains reports whether other lies entirely inside the network ip.
// Single addresses contain nothing and families never mix.
func (ip IP) Contains(other IP) bool {
	if !ip.network || !other.IsValid() {
		return false
	}
	if ip.Is4() != other.Is4() {
		return false
	}
	if other.Bits() < ip.Bits() {
		return false
	}
	return ip.prefix.Contains(other.Addr())
}

// String returns the canonical text form.
func (ip IP) String() string {
	if !ip.IsValid() {
		return "invalid IP"
	}
	if ip.network {
		return ip.prefix.String()
	}
	return ip.prefix.Addr().String()
}

// MarshalText implements encoding.TextMarshaler.
func (ip IP) MarshalText() ([]byte, error) {
	if !ip.IsValid() {
		return []byte{}, nil
	}
	return []byte(ip.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (ip *IP) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*ip = IP{}
		return nil
	}
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*ip = v
	return nil
}

// Compare orders IPv4 before IPv6, then by address, then by prefix length.
// Single addresses sort before networks with the same address and length.
func (ip IP) Compare(other IP) int {
	if c := ip.prefix.Addr().Compare(other.prefix.Addr()); c != 0 {
		return c
	}
	if c := ip.Bits() - other.Bits(); c != 0 {
		return c
	}
	switch {
	case ip.network == other.network:
		return 0
	case ip.network:
		return 1
	default:
		return -1
	}
}

// DropCovered removes values that lie inside another value of ips, keeping
// input order. Two prefixes are either disjoint or nested, so the result has
// no overlapping elements. Of two values covering the same range the first
// is kept.
func DropCovered(ips []IP) []IP {
	order := make([]int, len(ips))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		if c := ips[a].Addr().Compare(ips[b].Addr()); c != 0 {
			return c
		}
		return ips[a].Bits() - ips[b].Bits()
	})

	covered := make([]bool, len(ips))
	dropped := 0
	var cur netipx.IPRange
	for _, i := range order {
		r := ips[i].Range()
		if cur.IsValid() && cur.Contains(r.From()) {
			covered[i] = true
			dropped++
			continue
		}
		cur = r
	}
	if dropped == 0 {
		return ips
	}

	out := make([]IP, 0, len(ips)-dropped)
	for i, ip := range ips {
		if !covered[i] {
			out = append(out, ip)
		}
	}
	return out
}
