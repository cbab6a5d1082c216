package exclude

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/setsync/internal/addr"
	"grimm.is/setsync/internal/fetch"
)

func set(vals ...string) *addr.Set {
	s := addr.NewSet(len(vals))
	for _, v := range vals {
		s.Add(addr.MustParse(v))
	}
	return s
}

func strs(s *addr.Set) []string {
	out := make([]string, 0, s.Len())
	for _, ip := range s.Items() {
		out = append(out, ip.String())
	}
	return out
}

func TestFilter_ListExample(t *testing.T) {
	list := "192.168.0.1\n10.0.0.0/24\n\n# comment\nbad-entry\n"
	entries, err := addr.ParseList(strings.NewReader(list))
	require.NoError(t, err)
	assert.Equal(t, []string{"192.168.0.1", "10.0.0.0/24"}, strs(entries))

	got := New(set("10.0.0.0/16")).Filter(entries)
	assert.Equal(t, []string{"192.168.0.1"}, strs(got))
}

func TestFilter_ExactAndContainment(t *testing.T) {
	ex := New(set("1.2.3.4", "192.168.0.0/16", "2001:db8::/32"))
	entries := set(
		"1.2.3.4",            // exact
		"1.2.3.4/32",         // single and /32 differ
		"192.168.5.5",        // inside network
		"192.168.0.0/24",     // narrower network inside
		"192.0.0.0/8",        // wider network, kept
		"8.8.8.8",            // unrelated
		"2001:db8::1",        // inside v6 network
		"::ffff:192.168.1.1", // cross family
	)

	got := ex.Filter(entries)
	assert.Equal(t, []string{"1.2.3.4/32", "192.0.0.0/8", "8.8.8.8", "::ffff:192.168.1.1"}, strs(got))
	// Input untouched.
	assert.Equal(t, 8, entries.Len())
}

func TestFilter_KeepsOrderAndInput(t *testing.T) {
	entries := set("8.8.8.8", "10.1.1.1", "1.1.1.1", "192.168.5.5", "2.2.2.2")
	ex := New(set("1.1.1.1", "10.0.0.0/8", "192.168.0.0/16"))

	got := ex.Filter(entries)
	assert.Equal(t, []string{"8.8.8.8", "2.2.2.2"}, strs(got))
	assert.True(t, got.Has(addr.MustParse("2.2.2.2")))
	assert.False(t, got.Has(addr.MustParse("10.1.1.1")))
	assert.Equal(t, 5, entries.Len())

	got.Add(addr.MustParse("3.3.3.3"))
	assert.False(t, entries.Has(addr.MustParse("3.3.3.3")))
}

func TestFilter_Idempotent(t *testing.T) {
	ex := New(set("10.0.0.0/8", "172.16.0.1"))
	entries := set("10.1.1.1", "172.16.0.1", "172.16.0.2", "11.0.0.0/8")

	once := ex.Filter(entries)
	twice := ex.Filter(once)
	assert.Equal(t, strs(once), strs(twice))
}

func TestFilter_OrderIndependent(t *testing.T) {
	ex := New(set("10.0.0.0/8", "172.16.0.1"))
	a := ex.Filter(set("10.1.1.1", "172.16.0.2", "8.8.8.8"))
	b := ex.Filter(set("8.8.8.8", "172.16.0.2", "10.1.1.1"))
	assert.ElementsMatch(t, strs(a), strs(b))
}

func TestFilter_Empty(t *testing.T) {
	entries := set("1.1.1.1")
	assert.Same(t, entries, New(addr.NewSet(0)).Filter(entries))

	var nilSet *Set
	assert.Zero(t, nilSet.Len())
}

type fakeFresh struct {
	st  fetch.Status
	err error
	url string
}

func (f *fakeFresh) FetchFresh(_ context.Context, rawURL string) (fetch.Status, error) {
	f.url = rawURL
	return f.st, f.err
}

func TestLoad_Inline(t *testing.T) {
	ex, err := Load(context.Background(), []string{"10.0.0.0/8", " 1.1.1.1 "}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, ex.Len())

	_, err = Load(context.Background(), []string{"nope"}, "", nil)
	assert.ErrorIs(t, err, addr.ErrParse)
}

func TestLoad_URL(t *testing.T) {
	f := &fakeFresh{st: fetch.Status{Result: fetch.Result{Addresses: set("10.0.0.0/8")}}}
	ex, err := Load(context.Background(), nil, "https://example.org/allow.txt", f)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/allow.txt", f.url)
	assert.Equal(t, 1, ex.Len())

	f.err = errors.New("refused")
	_, err = Load(context.Background(), nil, "https://example.org/allow.txt", f)
	assert.ErrorContains(t, err, "load excluded list")
}
