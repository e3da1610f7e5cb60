package dhcpv6

import (
	"net"
	"testing"

	idhcpv6 "github.com/insomniacslk/dhcp/dhcpv6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhcpwire/dhcpc/internal/wire"
)

func emitAndParse(t *testing.T, opt Option) Option {
	t.Helper()

	w := wire.NewWriter()
	opt.emit(w)

	raw := w.Bytes()
	require.GreaterOrEqual(t, len(raw), 4)
	length := uint16(raw[2])<<8 | uint16(raw[3])

	got, err := parseOption(opt.Code, raw, int(length))
	require.NoError(t, err)

	return got
}

func TestOptionRoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("client id", func(t *testing.T) {
		t.Parallel()

		d := NewDUIDLL(1, []byte{1, 2, 3, 4, 5, 6})
		got := emitAndParse(t, optClientID(d))
		assert.Equal(t, d.Bytes(), got.DUID.Bytes())
	})

	t.Run("elapsed time", func(t *testing.T) {
		t.Parallel()

		got := emitAndParse(t, optElapsedTime(1234))
		assert.Equal(t, uint16(1234), got.U16)
	})

	t.Run("option request", func(t *testing.T) {
		t.Parallel()

		got := emitAndParse(t, optOptionRequest(OptDNSServers, OptDomainList, OptSolMaxRT))
		assert.Equal(t, []OptionCode{OptDNSServers, OptDomainList, OptSolMaxRT}, got.Codes)
	})

	t.Run("rapid commit", func(t *testing.T) {
		t.Parallel()

		got := emitAndParse(t, optRapidCommit())
		assert.Equal(t, OptRapidCommit, got.Code)
	})

	t.Run("dns servers", func(t *testing.T) {
		t.Parallel()

		ips := []net.IP{net.ParseIP("2001:db8::1"), net.ParseIP("2001:db8::2")}
		got := emitAndParse(t, Option{Code: OptDNSServers, IPs: ips})
		require.Len(t, got.IPs, 2)
		assert.True(t, ips[0].Equal(got.IPs[0]))
		assert.True(t, ips[1].Equal(got.IPs[1]))
	})

	t.Run("domain list", func(t *testing.T) {
		t.Parallel()

		domains := []string{"example.com", "lan"}
		got := emitAndParse(t, Option{Code: OptDomainList, Domains: domains})
		assert.Equal(t, domains, got.Domains)
	})

}

func TestOptionToLibraryRoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("client id typed", func(t *testing.T) {
		t.Parallel()

		d := NewDUIDLL(1, []byte{1, 2, 3, 4, 5, 6})
		opt := optClientID(d)

		lm, err := idhcpv6.NewMessage()
		require.NoError(t, err)
		lm.AddOption(opt.toLibrary())

		got, err := fromLibraryDUID(lm.Options.ClientID())
		require.NoError(t, err)
		assert.Equal(t, d.Bytes(), got.Bytes())
	})

	t.Run("status code", func(t *testing.T) {
		t.Parallel()

		opt := Option{Code: OptStatusCode, Status: &Status{Code: StatusNoBinding, Message: "no binding"}}
		got, err := optionFromGeneric(OptStatusCode, opt.toLibrary())
		require.NoError(t, err)
		require.NotNil(t, got.Status)
		assert.Equal(t, StatusNoBinding, got.Status.Code)
	})

	t.Run("ia_ta generic fallback", func(t *testing.T) {
		t.Parallel()

		opt := Option{Code: OptIATA, IATA: &IATA{IAID: 9, Address: &IAAddr{Address: net.ParseIP("2001:db8::9"), PreferredSec: 1, ValidSec: 2}}}
		got, err := optionFromGeneric(OptIATA, opt.toLibrary())
		require.NoError(t, err)
		require.NotNil(t, got.IATA)
		assert.Equal(t, uint32(9), got.IATA.IAID)
	})

	t.Run("elapsed time falls back generic", func(t *testing.T) {
		t.Parallel()

		opt := optElapsedTime(777)
		got, err := optionFromGeneric(OptElapsedTime, opt.toLibrary())
		require.NoError(t, err)
		assert.Equal(t, uint16(777), got.U16)
	})
}

func TestOptionNTPServerSuboptions(t *testing.T) {
	t.Parallel()

	srvs := []NTPSuboption{
		{Code: NTPSuboptionServerAddr, ServerAddr: net.ParseIP("2001:db8::123")},
		{Code: NTPSuboptionMulticastAddr, MulticastAddr: net.ParseIP("ff05::101")},
		{Code: NTPSuboptionServerFQDN, FQDN: "ntp.example.com"},
	}

	got := emitAndParse(t, Option{Code: OptNTPServer, NTPServers: srvs})
	require.Len(t, got.NTPServers, 3)
	assert.True(t, srvs[0].ServerAddr.Equal(got.NTPServers[0].ServerAddr))
	assert.True(t, srvs[1].MulticastAddr.Equal(got.NTPServers[1].MulticastAddr))
	assert.Equal(t, "ntp.example.com", got.NTPServers[2].FQDN)
}

func TestOptionDNSServersRejectsBadLength(t *testing.T) {
	t.Parallel()

	_, err := parseOption(OptDNSServers, []byte{0, 23, 0, 17, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}, 17)
	require.Error(t, err)
}

func TestOptionRequestKeepsCodesAsGiven(t *testing.T) {
	t.Parallel()

	opt := optOptionRequest(OptNTPServer, OptDNSServers, OptDNSServers, OptDomainList)
	assert.Equal(t, []OptionCode{OptNTPServer, OptDNSServers, OptDNSServers, OptDomainList}, opt.Codes)
}

func TestSortDedupCodes(t *testing.T) {
	t.Parallel()

	got := sortDedupCodes([]OptionCode{OptNTPServer, OptDNSServers, OptDNSServers, OptDomainList})
	assert.Equal(t, []OptionCode{OptDNSServers, OptDomainList, OptNTPServer}, got)
}

func TestOptionsEmitSortedByCode(t *testing.T) {
	t.Parallel()

	opts := NewOptions()
	opts.Insert(optElapsedTime(1)) // code 8
	opts.Insert(optClientID(RandomDUID())) // code 1
	opts.Insert(optRapidCommit()) // code 14

	w := wire.NewWriter()
	opts.Emit(w)

	buf := w.Bytes()
	require.GreaterOrEqual(t, len(buf), 2)
	firstCode := uint16(buf[0])<<8 | uint16(buf[1])
	assert.Equal(t, uint16(OptClientID), firstCode)
}

func TestParseMessageSkipsMalformedButKeepsParsing(t *testing.T) {
	t.Parallel()

	m := NewMessage(MessageTypeSolicit, [3]byte{1, 2, 3})
	m.Options.Insert(optElapsedTime(5))
	m.Options.Insert(optRapidCommit())
	buf := m.ToBytes()

	// Splice in a bogus DNS Servers option with a length not a multiple of
	// 16; ParseMessage must skip it rather than aborting the whole message.
	bogus := []byte{0, byte(OptDNSServers), 0, 1, 0xff}
	out := append(append([]byte(nil), buf[:MinMessageLen]...), bogus...)
	out = append(out, buf[MinMessageLen:]...)

	got, err := ParseMessage(out)
	require.NoError(t, err)

	_, ok := got.Options.GetFirst(OptRapidCommit)
	assert.True(t, ok)
}
