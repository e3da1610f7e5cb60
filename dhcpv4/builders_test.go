package dhcpv4

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestEmitsServerIdentifierExactlyOnce(t *testing.T) {
	t.Parallel()

	cfg := NewConfig("eth0")
	lease := &Lease{
		YIAddr:   net.IPv4(192, 168, 1, 50).To4(),
		SIAddr:   net.IPv4(192, 168, 1, 1).To4(),
		ServerID: net.IPv4(192, 168, 1, 1).To4(),
	}

	msg := NewRequest(1, cfg, lease)
	buf := msg.ToBytes()

	count := 0
	for i := FixedHeaderLen + 4; i < len(buf)-1; {
		code := buf[i]
		if code == 0 {
			i++
			continue
		}
		if OptionCode(code) == OptServerIdentifier {
			count++
		}
		length := int(buf[i+1])
		i += 2 + length
	}

	assert.Equal(t, 1, count)
}

func TestServerIdentifierFallsBackToSIAddr(t *testing.T) {
	t.Parallel()

	lease := &Lease{
		YIAddr: net.IPv4(192, 168, 1, 50).To4(),
		SIAddr: net.IPv4(192, 168, 1, 1).To4(),
	}

	ip := serverIdentifierFor(lease)
	require.NotNil(t, ip)
	assert.True(t, ip.Equal(net.IPv4(192, 168, 1, 1).To4()))
}

func TestNewRenewSetsCIAddr(t *testing.T) {
	t.Parallel()

	cfg := NewConfig("eth0")
	lease := &Lease{
		YIAddr:   net.IPv4(192, 168, 1, 50).To4(),
		ServerID: net.IPv4(192, 168, 1, 1).To4(),
	}

	msg := NewRenew(1, cfg, lease)
	assert.True(t, msg.CIAddr.Equal(lease.YIAddr))
}
