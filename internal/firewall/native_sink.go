//go:build linux

package firewall

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/nftables"
	"go4.org/netipx"

	"grimm.is/setsync/internal/addr"
)

var (
	// ErrFamilyMismatch is returned for elements the set type cannot hold.
	ErrFamilyMismatch = errors.New("address family does not match set type")
	// ErrTableNotFound is returned when the target table does not exist.
	ErrTableNotFound = errors.New("table not found")
)

// NativeSink applies set updates over netlink.
// Policy, gc-interval and comment are not expressible through the netlink
// library and are ignored; use the nft backend when they matter.
type NativeSink struct {
	conn   NFTablesConn
	mu     sync.Mutex
	tables map[SetRef]*nftables.Table
}

// NewNativeSink creates a sink over conn.
func NewNativeSink(conn NFTablesConn) *NativeSink {
	return &NativeSink{
		conn:   conn,
		tables: make(map[SetRef]*nftables.Table),
	}
}

// FlushSet declares the set from tmpl and flushes it in one batch.
func (n *NativeSink) FlushSet(ctx context.Context, ref SetRef, tmpl SetTemplate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	set, err := n.declare(ref, tmpl)
	if err != nil {
		return err
	}
	if err := n.conn.AddSet(set, nil); err != nil {
		return fmt.Errorf("failed to add set: %w", err)
	}
	n.conn.FlushSet(set)
	if err := n.conn.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

// AddElements adds one chunk through AddSet so the attributes travel with it.
func (n *NativeSink) AddElements(ctx context.Context, ref SetRef, tmpl SetTemplate, elems []addr.IP) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	set, err := n.declare(ref, tmpl)
	if err != nil {
		return err
	}
	vals, err := EncodeElements(tmpl, elems)
	if err != nil {
		return err
	}
	if err := n.conn.AddSet(set, vals); err != nil {
		return fmt.Errorf("failed to add elements: %w", err)
	}
	if err := n.conn.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

func (n *NativeSink) declare(ref SetRef, tmpl SetTemplate) (*nftables.Set, error) {
	table, err := n.getTable(ref)
	if err != nil {
		return nil, err
	}
	set := &nftables.Set{
		Table:      table,
		Name:       ref.Name,
		KeyType:    nftables.TypeIPAddr,
		Interval:   tmpl.Has(FlagInterval),
		Constant:   tmpl.Has(FlagConstant),
		HasTimeout: tmpl.Has(FlagTimeout) || tmpl.Timeout > 0,
		Dynamic:    tmpl.Has(FlagDynamic),
		Timeout:    tmpl.Timeout,
	}
	if tmpl.Type == TypeIPv6Addr {
		set.KeyType = nftables.TypeIP6Addr
	}
	return set, nil
}

// getTable returns the table reference, finding it if needed.
func (n *NativeSink) getTable(ref SetRef) (*nftables.Table, error) {
	key := SetRef{Family: ref.Family, Table: ref.Table}
	if t, ok := n.tables[key]; ok {
		return t, nil
	}

	family, err := tableFamily(ref.Family)
	if err != nil {
		return nil, err
	}
	tables, err := n.conn.ListTables()
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	for _, t := range tables {
		if t.Name == ref.Table && t.Family == family {
			n.tables[key] = t
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %s", ErrTableNotFound, ref.Family, ref.Table)
}

func tableFamily(f Family) (nftables.TableFamily, error) {
	switch f {
	case FamilyINet:
		return nftables.TableFamilyINet, nil
	case FamilyIP:
		return nftables.TableFamilyIPv4, nil
	case FamilyIP6:
		return nftables.TableFamilyIPv6, nil
	case FamilyARP:
		return nftables.TableFamilyARP, nil
	case FamilyBridge:
		return nftables.TableFamilyBridge, nil
	case FamilyNetdev:
		return nftables.TableFamilyNetdev, nil
	}
	return 0, fmt.Errorf("unknown family %q", f)
}

// EncodeElements converts a chunk to netlink set elements.
// Interval sets get merged [start, end+1) pairs; the end marker is left out
// when a range reaches the top of the address space. Other sets only take
// host addresses.
func EncodeElements(tmpl SetTemplate, elems []addr.IP) ([]nftables.SetElement, error) {
	for _, ip := range elems {
		if !tmpl.Type.Accepts(ip) {
			return nil, fmt.Errorf("%w: %s in %s set", ErrFamilyMismatch, ip, tmpl.Type)
		}
	}

	if !tmpl.Has(FlagInterval) {
		vals := make([]nftables.SetElement, 0, len(elems))
		for _, ip := range elems {
			if ip.IsNetwork() && ip.Bits() != ip.Addr().BitLen() {
				return nil, fmt.Errorf("network %s requires the interval flag", ip)
			}
			vals = append(vals, nftables.SetElement{Key: ip.Addr().AsSlice(), Timeout: tmpl.Timeout})
		}
		return vals, nil
	}

	var b netipx.IPSetBuilder
	for _, ip := range elems {
		b.AddRange(ip.Range())
	}
	merged, err := b.IPSet()
	if err != nil {
		return nil, fmt.Errorf("merge ranges: %w", err)
	}

	ranges := merged.Ranges()
	vals := make([]nftables.SetElement, 0, 2*len(ranges))
	for _, r := range ranges {
		vals = append(vals, nftables.SetElement{Key: r.From().AsSlice(), Timeout: tmpl.Timeout})
		if end := r.To().Next(); end.IsValid() {
			vals = append(vals, nftables.SetElement{Key: end.AsSlice(), IntervalEnd: true, Timeout: tmpl.Timeout})
		}
	}
	return vals, nil
}
