package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	a, err := ParseAddress("net/dom/dev/vm1")
	require.NoError(t, err)
	assert.Equal(t, Address{Network: "net", Domain: "dom", Device: "dev", VM: "vm1"}, a)
	assert.Equal(t, "vm1", a.Target())
	assert.Equal(t, "net/dom/dev/vm1", a.String())
}

func TestParseAddressPartial(t *testing.T) {
	a, err := ParseAddress("net/dom")
	require.NoError(t, err)
	assert.Equal(t, "dom", a.Target())

	again, err := ParseAddress(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, again)
}

func TestParseAddressErrors(t *testing.T) {
	for _, in := range []string{"", "  ", "a/b/c/d/e", "///"} {
		_, err := ParseAddress(in)
		assert.Error(t, err, in)
	}
}

func TestAddressValueRoundTrip(t *testing.T) {
	a := Address{Network: "n", VM: "v"}
	back, err := AddressFromValue(a.Value())
	require.NoError(t, err)
	assert.Equal(t, a, back)

	_, err = AddressFromValue(String("n"))
	require.Error(t, err)
	_, err = AddressFromValue(Object{"planet": String("x")})
	require.Error(t, err)
}

func TestAddressZero(t *testing.T) {
	assert.True(t, Address{}.IsZero())
	assert.Equal(t, "", Address{}.String())
	assert.Equal(t, "", Address{}.Target())
}

func TestParseUID(t *testing.T) {
	id := NewUID()
	parsed, err := ParseUID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseUID("not-a-uid")
	require.Error(t, err)
	assert.NotEqual(t, NilUID, id)
}
