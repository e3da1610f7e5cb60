package dhcpv6

import (
	"net"
	"testing"

	"github.com/dhcpwire/dhcpc/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIAAddrRoundTrip(t *testing.T) {
	t.Parallel()

	a := IAAddr{
		Address:      net.ParseIP("2001:db8::42"),
		PreferredSec: 1800,
		ValidSec:     3600,
	}

	w := wire.NewWriter()
	a.emit(w)

	got, err := parseIAAddr(w.Bytes())
	require.NoError(t, err)
	assert.True(t, got.Address.Equal(a.Address))
	assert.Equal(t, a.PreferredSec, got.PreferredSec)
	assert.Equal(t, a.ValidSec, got.ValidSec)
	assert.Nil(t, got.Status)
}

func TestIAAddrRoundTripWithStatus(t *testing.T) {
	t.Parallel()

	a := IAAddr{
		Address:      net.ParseIP("2001:db8::42"),
		PreferredSec: 1800,
		ValidSec:     3600,
		Status:       &Status{Code: StatusNotOnLink, Message: "wrong link"},
	}

	w := wire.NewWriter()
	a.emit(w)

	got, err := parseIAAddr(w.Bytes())
	require.NoError(t, err)
	require.NotNil(t, got.Status)
	assert.Equal(t, StatusNotOnLink, got.Status.Code)
	assert.Equal(t, "wrong link", got.Status.Message)
	assert.False(t, got.IsSuccess())
}

func TestIAAddrIsSuccessDefaultsTrue(t *testing.T) {
	t.Parallel()

	a := &IAAddr{Status: nil}
	assert.True(t, a.IsSuccess())
}

func TestIAPrefixRoundTrip(t *testing.T) {
	t.Parallel()

	p := IAPrefix{
		Prefix:       net.ParseIP("2001:db8:1::"),
		PrefixLength: 56,
		PreferredSec: 7200,
		ValidSec:     14400,
	}

	w := wire.NewWriter()
	p.emit(w)

	got, err := parseIAPrefix(w.Bytes())
	require.NoError(t, err)
	assert.True(t, got.Prefix.Equal(p.Prefix))
	assert.Equal(t, p.PrefixLength, got.PrefixLength)
	assert.Equal(t, p.ValidSec, got.ValidSec)
}

func TestIANARoundTripWithAddress(t *testing.T) {
	t.Parallel()

	ia := IANA{
		IAID: 42, T1Sec: 1800, T2Sec: 2700,
		Address: &IAAddr{Address: net.ParseIP("2001:db8::1"), PreferredSec: 3600, ValidSec: 5400},
	}

	w := wire.NewWriter()
	ia.emit(w)

	got, err := parseIANA(w.Bytes()[4:])
	require.NoError(t, err)
	assert.Equal(t, ia.IAID, got.IAID)
	assert.Equal(t, ia.T1Sec, got.T1Sec)
	require.NotNil(t, got.Address)
	assert.True(t, got.Address.Address.Equal(ia.Address.Address))
	assert.True(t, got.IsSuccess())
}

func TestIANAWithoutAddress(t *testing.T) {
	t.Parallel()

	ia := IANA{IAID: 1, T1Sec: 0, T2Sec: 0}

	w := wire.NewWriter()
	ia.emit(w)

	got, err := parseIANA(w.Bytes()[4:])
	require.NoError(t, err)
	assert.Nil(t, got.Address)
	assert.True(t, got.IsSuccess())
}

func TestIATARoundTripCarriesNoT1T2(t *testing.T) {
	t.Parallel()

	ia := IATA{
		IAID:    7,
		Address: &IAAddr{Address: net.ParseIP("2001:db8::2"), PreferredSec: 600, ValidSec: 1200},
	}

	w := wire.NewWriter()
	ia.emit(w)

	got, err := parseIATA(w.Bytes()[4:])
	require.NoError(t, err)
	assert.Equal(t, ia.IAID, got.IAID)
	require.NotNil(t, got.Address)
	assert.True(t, got.Address.Address.Equal(ia.Address.Address))
}

func TestIAPDRoundTripWithPrefix(t *testing.T) {
	t.Parallel()

	ia := IAPD{
		IAID: 3, T1Sec: 3600, T2Sec: 5400,
		Prefix: &IAPrefix{Prefix: net.ParseIP("2001:db8:2::"), PrefixLength: 48, PreferredSec: 7200, ValidSec: 14400},
	}

	w := wire.NewWriter()
	ia.emit(w)

	got, err := parseIAPD(w.Bytes()[4:])
	require.NoError(t, err)
	assert.Equal(t, ia.IAID, got.IAID)
	require.NotNil(t, got.Prefix)
	assert.Equal(t, uint8(48), got.Prefix.PrefixLength)
	assert.True(t, got.IsSuccess())
}

func TestStatusRoundTrip(t *testing.T) {
	t.Parallel()

	s := Status{Code: StatusUseMulticast, Message: "use ff02::1:2"}

	w := wire.NewWriter()
	s.emit(w)

	body := w.Bytes()
	got, err := parseStatus(body[4:])
	require.NoError(t, err)
	assert.Equal(t, s.Code, got.Code)
	assert.Equal(t, s.Message, got.Message)
}

func TestStatusToLibraryRoundTrip(t *testing.T) {
	t.Parallel()

	s := Status{Code: StatusNoBinding, Message: "no binding"}
	lib := s.toLibrary()
	got := statusFromLibrary(lib)
	require.NotNil(t, got)
	assert.Equal(t, s.Code, got.Code)
	assert.Equal(t, s.Message, got.Message)
}

func TestStatusFromLibraryNilOnNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, statusFromLibrary(nil))
}

func TestIAAddrToLibraryRoundTripTyped(t *testing.T) {
	t.Parallel()

	a := IAAddr{
		Address:      net.ParseIP("2001:db8::42"),
		PreferredSec: 1800,
		ValidSec:     3600,
	}

	got, err := iaAddrFromLibraryOption(a.toLibraryOption())
	require.NoError(t, err)
	assert.True(t, got.Address.Equal(a.Address))
	assert.Equal(t, a.PreferredSec, got.PreferredSec)
	assert.Equal(t, a.ValidSec, got.ValidSec)
	assert.Nil(t, got.Status)
}

func TestIAAddrToLibraryRoundTripWithStatusFallsBackGeneric(t *testing.T) {
	t.Parallel()

	a := IAAddr{
		Address:      net.ParseIP("2001:db8::42"),
		PreferredSec: 1800,
		ValidSec:     3600,
		Status:       &Status{Code: StatusNotOnLink, Message: "wrong link"},
	}

	got, err := iaAddrFromLibraryOption(a.toLibraryOption())
	require.NoError(t, err)
	assert.True(t, got.Address.Equal(a.Address))
	require.NotNil(t, got.Status)
	assert.Equal(t, StatusNotOnLink, got.Status.Code)
	assert.Equal(t, "wrong link", got.Status.Message)
}

func TestIAPrefixToLibraryRoundTripTyped(t *testing.T) {
	t.Parallel()

	p := IAPrefix{
		Prefix:       net.ParseIP("2001:db8:1::"),
		PrefixLength: 56,
		PreferredSec: 7200,
		ValidSec:     14400,
	}

	got, err := iaPrefixFromLibraryOption(p.toLibraryOption())
	require.NoError(t, err)
	assert.True(t, got.Prefix.Equal(p.Prefix))
	assert.Equal(t, p.PrefixLength, got.PrefixLength)
	assert.Equal(t, p.ValidSec, got.ValidSec)
	assert.Nil(t, got.Status)
}

func TestIAPrefixToLibraryRoundTripWithStatusFallsBackGeneric(t *testing.T) {
	t.Parallel()

	p := IAPrefix{
		Prefix:       net.ParseIP("2001:db8:1::"),
		PrefixLength: 56,
		PreferredSec: 7200,
		ValidSec:     14400,
		Status:       &Status{Code: StatusNoPrefixAvail, Message: "none left"},
	}

	got, err := iaPrefixFromLibraryOption(p.toLibraryOption())
	require.NoError(t, err)
	assert.True(t, got.Prefix.Equal(p.Prefix))
	require.NotNil(t, got.Status)
	assert.Equal(t, StatusNoPrefixAvail, got.Status.Code)
}

func TestIANAToLibraryRoundTrip(t *testing.T) {
	t.Parallel()

	ia := IANA{
		IAID: 42, T1Sec: 1800, T2Sec: 2700,
		Address: &IAAddr{Address: net.ParseIP("2001:db8::1"), PreferredSec: 3600, ValidSec: 5400},
	}

	got, err := ianaFromLibrary(ia.toLibrary())
	require.NoError(t, err)
	assert.Equal(t, ia.IAID, got.IAID)
	assert.Equal(t, ia.T1Sec, got.T1Sec)
	require.NotNil(t, got.Address)
	assert.True(t, got.Address.Address.Equal(ia.Address.Address))
}

func TestIATAToLibraryRoundTrip(t *testing.T) {
	t.Parallel()

	ia := IATA{
		IAID:    7,
		Address: &IAAddr{Address: net.ParseIP("2001:db8::2"), PreferredSec: 600, ValidSec: 1200},
	}

	got, err := iataFromLibraryOption(ia.toLibraryOption())
	require.NoError(t, err)
	assert.Equal(t, ia.IAID, got.IAID)
	require.NotNil(t, got.Address)
	assert.True(t, got.Address.Address.Equal(ia.Address.Address))
}

func TestIAPDToLibraryRoundTrip(t *testing.T) {
	t.Parallel()

	ia := IAPD{
		IAID: 3, T1Sec: 3600, T2Sec: 5400,
		Prefix: &IAPrefix{Prefix: net.ParseIP("2001:db8:2::"), PrefixLength: 48, PreferredSec: 7200, ValidSec: 14400},
	}

	got, err := iapdFromLibrary(ia.toLibrary())
	require.NoError(t, err)
	assert.Equal(t, ia.IAID, got.IAID)
	require.NotNil(t, got.Prefix)
	assert.Equal(t, uint8(48), got.Prefix.PrefixLength)
}

func TestIaidBytesRoundTrip(t *testing.T) {
	t.Parallel()

	for _, id := range []uint32{0, 1, 0xdeadbeef, 0xffffffff} {
		assert.Equal(t, id, iaidFromBytes(iaidToBytes(id)))
	}
}
