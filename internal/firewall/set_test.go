package firewall

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"grimm.is/setsync/internal/addr"
)

func TestSetTemplate_Validate(t *testing.T) {
	assert.NoError(t, DefaultSetTemplate().Validate())

	bad := SetTemplate{
		Family:  "ipx",
		Type:    "ether_addr",
		Policy:  "fast",
		Flags:   []Flag{"sticky"},
		Timeout: -time.Second,
		Comment: `say "hi"`,
	}
	err := bad.Validate()
	assert.ErrorContains(t, err, `unknown family "ipx"`)
	assert.ErrorContains(t, err, "unsupported set type")
	assert.ErrorContains(t, err, `unknown policy "fast"`)
	assert.ErrorContains(t, err, `unknown flag "sticky"`)
	assert.ErrorContains(t, err, "must not be negative")
	assert.ErrorContains(t, err, "comment")
}

func TestElementType_Accepts(t *testing.T) {
	assert.True(t, TypeIPv4Addr.Accepts(addr.MustParse("10.0.0.0/8")))
	assert.False(t, TypeIPv4Addr.Accepts(addr.MustParse("::1")))
	assert.True(t, TypeIPv6Addr.Accepts(addr.MustParse("2001:db8::/32")))
	assert.False(t, ElementType("ether_addr").Accepts(addr.MustParse("::1")))
}

func TestSetRef(t *testing.T) {
	ref := SetRef{Family: FamilyIP6, Table: "filter", Name: "bad_v6"}
	assert.NoError(t, ref.Validate())
	assert.Equal(t, "ip6 filter bad_v6", ref.String())

	ref.Table = "fil ter"
	assert.ErrorContains(t, ref.Validate(), "table")
}
