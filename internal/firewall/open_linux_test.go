//go:build linux

package firewall

import (
	"context"
	"testing"

	"github.com/google/nftables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/setsync/internal/testutil"
)

func TestOpenNative_LoadsKernelSet(t *testing.T) {
	testutil.RequireVM(t)

	conn, err := nftables.New()
	require.NoError(t, err)
	table := conn.AddTable(&nftables.Table{Name: "setsync_test", Family: nftables.TableFamilyINet})
	require.NoError(t, conn.Flush())
	t.Cleanup(func() {
		conn.DelTable(table)
		_ = conn.Flush()
	})

	sink, closer, err := OpenNative("")
	require.NoError(t, err)
	defer closer.Close()

	ref := SetRef{Family: FamilyINet, Table: "setsync_test", Name: "blocklist_v4"}
	loader := NewLoader(sink, 0, nil)
	chunks, err := loader.Load(context.Background(), ref, DefaultSetTemplate(),
		ips("10.0.0.0/24", "192.168.0.1", "192.168.0.2"))
	require.NoError(t, err)
	assert.Equal(t, 1, chunks)

	set, err := conn.GetSetByName(table, "blocklist_v4")
	require.NoError(t, err)
	assert.True(t, set.Interval)

	elems, err := conn.GetSetElements(set)
	require.NoError(t, err)
	ends := 0
	for _, e := range elems {
		if e.IntervalEnd {
			ends++
		}
	}
	// 10.0.0.0/24 plus the merged 192.168.0.1-192.168.0.2 range
	assert.Len(t, elems, 4)
	assert.Equal(t, 2, ends)

	// Reloading replaces the contents.
	_, err = loader.Load(context.Background(), ref, DefaultSetTemplate(), ips("1.1.1.1"))
	require.NoError(t, err)
	elems, err = conn.GetSetElements(set)
	require.NoError(t, err)
	assert.Len(t, elems, 2)
}

func TestOpenNative_MissingNamespace(t *testing.T) {
	_, _, err := OpenNative("setsync-does-not-exist")
	assert.ErrorContains(t, err, "failed to get netns")
}
