package dhcpv4

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseMacAsClientID(t *testing.T) {
	t.Parallel()

	mac, err := net.ParseMAC("01:02:03:04:05:06")
	require.NoError(t, err)

	c := NewConfig("eth0")
	c.SrcMAC = mac
	c.UseMacAsClientID()

	assert.Equal(t, append([]byte{1}, mac...), c.ClientID)
}

func TestUseHostNameAsClientID(t *testing.T) {
	t.Parallel()

	c := NewConfig("eth0")
	c.SetHostName("box1").UseHostNameAsClientID()

	assert.Equal(t, append([]byte{0}, []byte("box1")...), c.ClientID)
}

func TestUseHostNameAsClientIDNoopWithoutHostName(t *testing.T) {
	t.Parallel()

	c := NewConfig("eth0")
	c.UseHostNameAsClientID()

	assert.Nil(t, c.ClientID)
}

func TestRequestExtraOptionsDedupesAndSorts(t *testing.T) {
	t.Parallel()

	c := NewConfig("eth0")
	c.OverrideRequestOptions(OptRouter, OptSubnetMask)
	c.RequestExtraOptions(OptSubnetMask, OptHostName)

	assert.Equal(t, []OptionCode{OptSubnetMask, OptRouter, OptHostName}, c.RequestOpts)
}

func TestNewProxyConfig(t *testing.T) {
	t.Parallel()

	mac, err := net.ParseMAC("aa:aa:aa:aa:aa:aa")
	require.NoError(t, err)

	c := NewProxyConfig("eth0", mac)
	assert.True(t, c.IsProxy)
	assert.Equal(t, mac.String(), c.SrcMAC.String())
}
