package firewall

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"grimm.is/setsync/internal/addr"
)

var validSetNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateName checks a table or set name before it reaches nft.
func ValidateName(name string) error {
	if !validSetNameRegex.MatchString(name) {
		return fmt.Errorf("invalid set name: %q", name)
	}
	return nil
}

// Family is an nftables address family.
type Family string

const (
	FamilyINet   Family = "inet"
	FamilyIP     Family = "ip"
	FamilyIP6    Family = "ip6"
	FamilyARP    Family = "arp"
	FamilyBridge Family = "bridge"
	FamilyNetdev Family = "netdev"
)

var families = []Family{FamilyINet, FamilyIP, FamilyIP6, FamilyARP, FamilyBridge, FamilyNetdev}

// ElementType is the key type of a set.
type ElementType string

const (
	TypeIPv4Addr ElementType = "ipv4_addr"
	TypeIPv6Addr ElementType = "ipv6_addr"
)

// Accepts reports whether ip can be stored in a set of this type.
func (t ElementType) Accepts(ip addr.IP) bool {
	switch t {
	case TypeIPv4Addr:
		return ip.Is4()
	case TypeIPv6Addr:
		return ip.Is6()
	}
	return false
}

// Policy is a set's lookup optimization hint.
type Policy string

const (
	PolicyNone        Policy = ""
	PolicyPerformance Policy = "performance"
	PolicyMemory      Policy = "memory"
)

// Flag is an nftables set flag.
type Flag string

const (
	FlagConstant Flag = "constant"
	FlagInterval Flag = "interval"
	FlagTimeout  Flag = "timeout"
	FlagDynamic  Flag = "dynamic"
)

var knownFlags = []Flag{FlagConstant, FlagInterval, FlagTimeout, FlagDynamic}

// SetTemplate holds the declarative attributes sent with every set update.
type SetTemplate struct {
	Family     Family
	Type       ElementType
	Policy     Policy
	Flags      []Flag
	Timeout    time.Duration
	GCInterval time.Duration
	Comment    string
}

// DefaultSetTemplate is an inet IPv4 interval set.
func DefaultSetTemplate() SetTemplate {
	return SetTemplate{
		Family: FamilyINet,
		Type:   TypeIPv4Addr,
		Flags:  []Flag{FlagInterval},
	}
}

// Has reports whether flag f is set.
func (t SetTemplate) Has(f Flag) bool {
	return slices.Contains(t.Flags, f)
}

// Validate reports every invalid attribute.
func (t SetTemplate) Validate() error {
	var errs []error
	if !slices.Contains(families, t.Family) {
		errs = append(errs, fmt.Errorf("unknown family %q", t.Family))
	}
	if t.Type != TypeIPv4Addr && t.Type != TypeIPv6Addr {
		errs = append(errs, fmt.Errorf("unsupported set type %q (want ipv4_addr or ipv6_addr)", t.Type))
	}
	switch t.Policy {
	case PolicyNone, PolicyPerformance, PolicyMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown policy %q", t.Policy))
	}
	for _, f := range t.Flags {
		if !slices.Contains(knownFlags, f) {
			errs = append(errs, fmt.Errorf("unknown flag %q", f))
		}
	}
	if t.Timeout < 0 || t.GCInterval < 0 {
		errs = append(errs, errors.New("timeout and gc_interval must not be negative"))
	}
	if strings.ContainsAny(t.Comment, "\"\n") {
		errs = append(errs, errors.New("comment must not contain quotes or newlines"))
	}
	return errors.Join(errs...)
}

// SetRef identifies a set inside a table.
type SetRef struct {
	Family Family
	Table  string
	Name   string
}

// Validate checks the table and set names.
func (r SetRef) Validate() error {
	if err := ValidateName(r.Table); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	return ValidateName(r.Name)
}

func (r SetRef) String() string {
	return fmt.Sprintf("%s %s %s", r.Family, r.Table, r.Name)
}
