package dhcpv4

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ackMessage() *Message {
	m := NewMessage(OpcodeBootRequest, 1)
	m.YIAddr = net.IPv4(192, 168, 1, 50).To4()
	m.SetOption(OptMessageTypeOpt(MessageTypeAck))
	m.SetOption(OptLeaseTimeOpt(3600))
	m.SetOption(OptT1Opt(1800))
	m.SetOption(OptT2Opt(3150))
	m.SetOption(OptServerIDOpt(net.IPv4(192, 168, 1, 1).To4()))
	m.SetOption(OptSubnetMaskOpt(net.IPv4(255, 255, 255, 0).To4()))

	return m
}

func TestLeaseFromACK(t *testing.T) {
	t.Parallel()

	mac, err := net.ParseMAC("00:11:22:33:44:55")
	require.NoError(t, err)

	l, err := LeaseFromACK(ackMessage(), mac)
	require.NoError(t, err)

	assert.Equal(t, uint32(1800), l.T1Sec)
	assert.Equal(t, uint32(3150), l.T2Sec)
	assert.Equal(t, uint32(3600), l.LeaseTimeSec)
	assert.Equal(t, 24, l.PrefixLength())
	assert.Equal(t, mac.String(), l.ServerMAC.String())
}

func TestLeaseFromACKMissingLeaseTime(t *testing.T) {
	t.Parallel()

	m := ackMessage()
	delete(m.options, OptIPAddressLeaseTime)

	_, err := LeaseFromACK(m, nil)
	require.Error(t, err)
}

func TestLeaseFromACKViolatesT1T2Ordering(t *testing.T) {
	t.Parallel()

	m := ackMessage()
	m.SetOption(OptT1Opt(4000)) // now T1 > T2

	_, err := LeaseFromACK(m, nil)
	require.Error(t, err)
}

func TestLeaseFromACKPrefers121OverMSRoute(t *testing.T) {
	t.Parallel()

	m := ackMessage()
	m.SetOption(OptClasslessRoutesOpt(ClasslessRoute{Destination: net.IPv4(10, 0, 0, 0).To4(), PrefixLength: 8}))
	m.SetOption(Option{Code: OptMSClasslessStaticRoute, Routes: []ClasslessRoute{{Destination: net.IPv4(172, 16, 0, 0).To4(), PrefixLength: 16}}})

	l, err := LeaseFromACK(m, nil)
	require.NoError(t, err)
	require.Len(t, l.ClasslessRoutes, 1)
	assert.Equal(t, uint8(8), l.ClasslessRoutes[0].PrefixLength)
}
