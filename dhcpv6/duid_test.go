package dhcpv6

import (
	"testing"

	"github.com/dhcpwire/dhcpc/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDUIDRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		d    DUID
	}{
		{"llt", NewDUIDLLT(1, []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff})},
		{"ll", NewDUIDLL(1, []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff})},
		{"en", NewDUIDEN(32473, []byte{1, 2, 3, 4, 5})},
		{"uuid", DUID{Kind: DUIDUUID, UUID: [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}}},
		{"random", RandomDUID()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			w := wire.NewWriter()
			tc.d.Emit(w)

			got, err := ParseDUID(w.Bytes())
			require.NoError(t, err)
			assert.Equal(t, tc.d.Kind, got.Kind)
			assert.Equal(t, tc.d.Bytes(), got.Bytes())
		})
	}
}

func TestDUIDOpaqueFallbackOnMalformedBody(t *testing.T) {
	t.Parallel()

	// Claims type LLT but is too short for hardware type + time.
	raw := []byte{0, 1, 0, 1}

	got, err := ParseDUID(raw)
	require.NoError(t, err)
	assert.Equal(t, DUIDRaw, got.Kind)
	assert.Equal(t, raw, got.Raw)
}

func TestDUIDUnrecognizedTypeIsRaw(t *testing.T) {
	t.Parallel()

	raw := []byte{0xff, 0xff, 1, 2, 3}

	got, err := ParseDUID(raw)
	require.NoError(t, err)
	assert.Equal(t, DUIDRaw, got.Kind)
	assert.Equal(t, raw, got.Raw)
}

func TestDUIDIsEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, DUID{}.IsEmpty())
	assert.False(t, RandomDUID().IsEmpty())
	assert.False(t, NewDUIDLL(1, []byte{1, 2, 3}).IsEmpty())
}

func TestDUIDToLibraryRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		d    DUID
	}{
		{"llt", NewDUIDLLT(1, []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff})},
		{"ll", NewDUIDLL(1, []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			lib := tc.d.toLibrary()
			require.NotNil(t, lib)

			got, err := fromLibraryDUID(lib)
			require.NoError(t, err)
			assert.Equal(t, tc.d.Kind, got.Kind)
			assert.Equal(t, tc.d.Bytes(), got.Bytes())
		})
	}
}

func TestDUIDToLibraryNilForUnmodeledKinds(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewDUIDEN(32473, []byte{1, 2, 3}).toLibrary())
	assert.Nil(t, RandomDUID().toLibrary())
}

func TestDUIDBytesComparedOpaquely(t *testing.T) {
	t.Parallel()

	a := NewDUIDLL(1, []byte{1, 2, 3, 4, 5, 6})
	b := NewDUIDLL(1, []byte{1, 2, 3, 4, 5, 6})
	c := NewDUIDLL(1, []byte{1, 2, 3, 4, 5, 7})

	assert.Equal(t, a.Bytes(), b.Bytes())
	assert.NotEqual(t, a.Bytes(), c.Bytes())
}
