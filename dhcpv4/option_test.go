package dhcpv4

import (
	"net"
	"testing"

	idhcpv4 "github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		opt  Option
	}{
		{"subnet mask", OptSubnetMaskOpt(net.IPv4(255, 255, 255, 0).To4())},
		{"routers", OptRouterOpt(net.IPv4(10, 0, 0, 1).To4(), net.IPv4(10, 0, 0, 2).To4())},
		{"host name", OptHostNameOpt("workstation-1")},
		{"lease time", OptLeaseTimeOpt(3600)},
		{"message type", OptMessageTypeOpt(MessageTypeAck)},
		{"client id", OptClientIDOpt([]byte{1, 0xde, 0xad, 0xbe, 0xef, 0x00, 0x01})},
		{"mtu", OptMTUOpt(1500)},
		{"max message size", OptMaxMessageSizeOpt(1500)},
		{"t1", OptT1Opt(1800)},
		{"t2", OptT2Opt(3150)},
		{"parameter request list", OptParameterRequestListOpt(OptRouter, OptSubnetMask, OptRouter)},
		{
			"classless routes",
			OptClasslessRoutesOpt(
				ClasslessRoute{Destination: net.IPv4(10, 0, 0, 0).To4(), PrefixLength: 8, Router: net.IPv4(10, 0, 0, 1).To4()},
				ClasslessRoute{Destination: net.IPv4zero, PrefixLength: 0, Router: net.IPv4(192, 168, 1, 1).To4()},
			),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			pkt, err := idhcpv4.New()
			require.NoError(t, err)
			pkt.Options.Update(tc.opt.toLibrary())

			got, err := parseOption(pkt, tc.opt.Code)
			require.NoError(t, err)
			assert.Equal(t, tc.opt.Code, got.Code)
		})
	}
}

func TestParameterRequestListDedupesAndSorts(t *testing.T) {
	t.Parallel()

	opt := OptParameterRequestListOpt(OptNTPServers, OptRouter, OptRouter, OptSubnetMask)
	assert.Equal(t, []OptionCode{OptSubnetMask, OptRouter, OptNTPServers}, opt.Codes)
}

func TestClasslessRouteDestOctets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, destOctets(0))
	assert.Equal(t, 1, destOctets(8))
	assert.Equal(t, 2, destOctets(9))
	assert.Equal(t, 2, destOctets(16))
	assert.Equal(t, 3, destOctets(17))
	assert.Equal(t, 4, destOctets(25))
	assert.Equal(t, 4, destOctets(32))
}

func TestOptionRouterMultipleOfFourRequired(t *testing.T) {
	t.Parallel()

	pkt, err := idhcpv4.New()
	require.NoError(t, err)
	pkt.Options[uint8(OptRouter)] = []byte{10, 0, 0}

	_, err = parseOption(pkt, OptRouter)
	require.Error(t, err)
}

func TestClasslessRoutesPackRoundTrip(t *testing.T) {
	t.Parallel()

	routes := []ClasslessRoute{
		{Destination: net.IPv4(10, 0, 0, 0).To4(), PrefixLength: 8, Router: net.IPv4(10, 0, 0, 1).To4()},
		{Destination: net.IPv4(172, 16, 0, 0).To4(), PrefixLength: 12, Router: net.IPv4(172, 16, 0, 1).To4()},
		{Destination: net.IPv4zero, PrefixLength: 0, Router: net.IPv4(192, 168, 1, 1).To4()},
	}

	packed := packClasslessRoutes(routes)
	got, err := parseClasslessRoutes(packed)
	require.NoError(t, err)
	require.Len(t, got, len(routes))

	for i, rt := range routes {
		assert.Equal(t, rt.PrefixLength, got[i].PrefixLength)
		assert.True(t, rt.Router.Equal(got[i].Router))

		n := destOctets(rt.PrefixLength)
		assert.Equal(t, rt.Destination.To4()[:n], got[i].Destination[:n])
	}
}
