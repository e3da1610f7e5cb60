package dhcpv6

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundTrip(t *testing.T) {
	t.Parallel()

	xid := [3]byte{0x11, 0x22, 0x33}
	m := NewMessage(MessageTypeSolicit, xid)
	m.Options.Insert(optClientID(NewDUIDLL(1, []byte{1, 2, 3, 4, 5, 6})))
	m.Options.Insert(optElapsedTime(42))
	m.Options.Insert(optRapidCommit())

	buf := m.ToBytes()
	require.GreaterOrEqual(t, len(buf), MinMessageLen)
	assert.Equal(t, uint8(MessageTypeSolicit), buf[0])

	got, err := ParseMessage(buf)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeSolicit, got.Type)
	assert.Equal(t, xid, got.Xid)

	et, ok := got.Options.GetFirst(OptElapsedTime)
	require.True(t, ok)
	assert.Equal(t, uint16(42), et.U16)

	_, ok = got.Options.GetFirst(OptRapidCommit)
	assert.True(t, ok)
}

func TestParseMessageTooShort(t *testing.T) {
	t.Parallel()

	_, err := ParseMessage([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestXidUint32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0x112233), xidUint32([3]byte{0x11, 0x22, 0x33}))
	assert.Equal(t, uint32(0), xidUint32([3]byte{0, 0, 0}))
}

func TestMessageRoundTripWithIANAAndIAPD(t *testing.T) {
	t.Parallel()

	xid := [3]byte{0xaa, 0xbb, 0xcc}
	m := NewMessage(MessageTypeReply, xid)
	m.Options.Insert(optServerID(NewDUIDLLT(1, []byte{1, 2, 3, 4, 5, 6})))
	m.Options.Insert(optIANA(IANA{
		IAID: 42, T1Sec: 1800, T2Sec: 2700,
		Address: &IAAddr{Address: net.ParseIP("2001:db8::1"), PreferredSec: 3600, ValidSec: 5400},
	}))
	m.Options.Insert(optIAPD(IAPD{
		IAID: 7, T1Sec: 3600, T2Sec: 5400,
		Prefix: &IAPrefix{Prefix: net.ParseIP("2001:db8:1::"), PrefixLength: 56, PreferredSec: 7200, ValidSec: 14400},
	}))
	m.Options.Insert(Option{Code: OptDNSServers, IPs: []net.IP{net.ParseIP("2001:db8::53")}})

	buf := m.ToBytes()
	got, err := ParseMessage(buf)
	require.NoError(t, err)
	assert.Equal(t, xid, got.Xid)

	iana, ok := got.Options.GetFirst(OptIANA)
	require.True(t, ok)
	require.NotNil(t, iana.IANA)
	assert.Equal(t, uint32(42), iana.IANA.IAID)
	require.NotNil(t, iana.IANA.Address)
	assert.True(t, iana.IANA.Address.Address.Equal(net.ParseIP("2001:db8::1")))

	iapd, ok := got.Options.GetFirst(OptIAPD)
	require.True(t, ok)
	require.NotNil(t, iapd.IAPD)
	assert.Equal(t, uint32(7), iapd.IAPD.IAID)
	require.NotNil(t, iapd.IAPD.Prefix)
	assert.Equal(t, uint8(56), iapd.IAPD.Prefix.PrefixLength)

	dns, ok := got.Options.GetFirst(OptDNSServers)
	require.True(t, ok)
	require.Len(t, dns.IPs, 1)
	assert.True(t, dns.IPs[0].Equal(net.ParseIP("2001:db8::53")))
}

func TestMessageNoMagicCookieOrEndMarker(t *testing.T) {
	t.Parallel()

	m := NewMessage(MessageTypeSolicit, [3]byte{1, 2, 3})
	buf := m.ToBytes()

	// No options: wire form is exactly the 4-byte header, unlike DHCPv4's
	// magic cookie + End marker framing.
	assert.Equal(t, MinMessageLen, len(buf))
}
