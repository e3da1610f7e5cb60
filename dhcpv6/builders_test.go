package dhcpv6

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(iaType IaType) *Config {
	c := NewConfig("eth0", iaType)
	c.SrcIP = net.ParseIP("fe80::1")
	c.DUID = NewDUIDLL(1, []byte{1, 2, 3, 4, 5, 6})
	return c
}

func TestNewSolicitCarriesClientIDAndSolMaxRTHint(t *testing.T) {
	t.Parallel()

	cfg := testConfig(IaTypeNonTemporaryAddresses)
	m := NewSolicit([3]byte{1, 2, 3}, cfg, 0)

	_, ok := m.Options.GetFirst(OptClientID)
	require.True(t, ok)

	ia, ok := m.Options.GetFirst(OptIANA)
	require.True(t, ok)
	assert.Equal(t, uint32(0), ia.IANA.T1Sec)
	assert.Equal(t, uint32(0), ia.IANA.T2Sec)

	oro, ok := m.Options.GetFirst(OptOptionRequest)
	require.True(t, ok)
	assert.Contains(t, oro.Codes, OptSolMaxRT)
}

func TestNewSolicitRequestsIATAForTemporaryAddresses(t *testing.T) {
	t.Parallel()

	cfg := testConfig(IaTypeTemporaryAddresses)
	m := NewSolicit([3]byte{1, 2, 3}, cfg, 0)

	_, ok := m.Options.GetFirst(OptIANA)
	assert.False(t, ok)

	_, ok = m.Options.GetFirst(OptIATA)
	assert.True(t, ok)
}

func TestNewSolicitRequestsIAPDForPrefixDelegation(t *testing.T) {
	t.Parallel()

	cfg := testConfig(IaTypePrefixDelegation)
	m := NewSolicit([3]byte{1, 2, 3}, cfg, 0)

	_, ok := m.Options.GetFirst(OptIAPD)
	assert.True(t, ok)
}

func TestNewRequestCarriesServerID(t *testing.T) {
	t.Parallel()

	cfg := testConfig(IaTypeNonTemporaryAddresses)
	lease := &Lease{IAID: 5, Address: net.ParseIP("2001:db8::1"), ServerDUID: serverDUID()}

	m := NewRequest([3]byte{1, 2, 3}, cfg, lease, 0)

	sid, ok := m.Options.GetFirst(OptServerID)
	require.True(t, ok)
	assert.Equal(t, serverDUID().Bytes(), sid.DUID.Bytes())

	ia, ok := m.Options.GetFirst(OptIANA)
	require.True(t, ok)
	assert.Equal(t, uint32(5), ia.IANA.IAID)
	require.NotNil(t, ia.IANA.Address)
	assert.True(t, ia.IANA.Address.Address.Equal(lease.Address))
}

func TestNewRenewCarriesServerID(t *testing.T) {
	t.Parallel()

	cfg := testConfig(IaTypeNonTemporaryAddresses)
	lease := &Lease{IAID: 5, Address: net.ParseIP("2001:db8::1"), ServerDUID: serverDUID()}

	m := NewRenew([3]byte{1, 2, 3}, cfg, lease, 0)

	_, ok := m.Options.GetFirst(OptServerID)
	assert.True(t, ok)
}

func TestNewRebindOmitsServerID(t *testing.T) {
	t.Parallel()

	cfg := testConfig(IaTypeNonTemporaryAddresses)
	lease := &Lease{IAID: 5, Address: net.ParseIP("2001:db8::1"), ServerDUID: serverDUID()}

	m := NewRebind([3]byte{1, 2, 3}, cfg, lease, 0)

	_, ok := m.Options.GetFirst(OptServerID)
	assert.False(t, ok, "Rebind must not carry a server identifier: the client no longer trusts a specific server")
}

func TestNewRequestEchoesPrefixForPrefixDelegation(t *testing.T) {
	t.Parallel()

	cfg := testConfig(IaTypePrefixDelegation)
	lease := &Lease{
		IAID: 3, Address: net.ParseIP("2001:db8:1::"), PrefixLength: 56,
		ServerDUID: serverDUID(),
	}

	m := NewRequest([3]byte{1, 2, 3}, cfg, lease, 0)

	ia, ok := m.Options.GetFirst(OptIAPD)
	require.True(t, ok)
	require.NotNil(t, ia.IAPD.Prefix)
	assert.Equal(t, uint8(56), ia.IAPD.Prefix.PrefixLength)
	assert.True(t, ia.IAPD.Prefix.Prefix.Equal(lease.Address))
}

func TestAddElapsedTimeOmittedWhenZero(t *testing.T) {
	t.Parallel()

	cfg := testConfig(IaTypeNonTemporaryAddresses)
	m := NewSolicit([3]byte{1, 2, 3}, cfg, 0)

	_, ok := m.Options.GetFirst(OptElapsedTime)
	assert.False(t, ok)
}

func TestAddElapsedTimePresentWhenNonzero(t *testing.T) {
	t.Parallel()

	cfg := testConfig(IaTypeNonTemporaryAddresses)
	m := NewSolicit([3]byte{1, 2, 3}, cfg, 150)

	et, ok := m.Options.GetFirst(OptElapsedTime)
	require.True(t, ok)
	assert.Equal(t, uint16(150), et.U16)
}

func TestNewReleaseCarriesServerID(t *testing.T) {
	t.Parallel()

	cfg := testConfig(IaTypeNonTemporaryAddresses)
	lease := &Lease{IAID: 5, Address: net.ParseIP("2001:db8::1"), ServerDUID: serverDUID()}

	m := NewRelease([3]byte{1, 2, 3}, cfg, lease, 0)

	_, ok := m.Options.GetFirst(OptServerID)
	assert.True(t, ok)
}
