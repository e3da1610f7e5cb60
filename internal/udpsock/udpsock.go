// Package udpsock implements the UDP-socket substrate used once a lease (or
// IA binding) exists: DHCPv4 unicast renew and broadcast rebind, and the
// DHCPv6 link-local socket used for every v6 exchange.
package udpsock

import (
	"context"
	"net"
	"time"

	"github.com/dhcpwire/dhcpc/dhcperrors"
)

// ClientPortV4 and ServerPortV4 are the well-known DHCPv4 UDP ports (RFC
// 2131 §4).
const (
	ClientPortV4 = 68
	ServerPortV4 = 67
)

// ClientPortV6 and ServerPortV6 are the well-known DHCPv6 UDP ports (RFC
// 8415 §5).
const (
	ClientPortV6 = 546
	ServerPortV6 = 547
)

// AllDHCPRelayAgentsAndServers is the DHCPv6 multicast group every client
// sends Solicit/Request/Renew/Rebind to by default (RFC 8415 §5,
// ff02::1:2).
var AllDHCPRelayAgentsAndServers = net.ParseIP("ff02::1:2")

// recvBufferSize is large enough for any DHCPv4 or DHCPv6 datagram this
// client expects to receive.
const recvBufferSize = 1500

// Conn wraps a bound net.PacketConn with a default destination address, so
// Send always writes to the same peer (the unicast server, or the v6
// multicast group) without the caller repeating it.
type Conn struct {
	pc   net.PacketConn
	dest net.Addr
}

// Send writes payload to the connection's configured destination.
func (c *Conn) Send(payload []byte) error {
	_, err := c.pc.WriteTo(payload, c.dest)
	if err != nil {
		return dhcperrors.Contextf(err, "udpsock: writing datagram")
	}

	return nil
}

// Recv reads one datagram, blocking until data arrives, ctx is done, or a
// previously set read deadline elapses.
func (c *Conn) Recv(ctx context.Context) ([]byte, error) {
	type result struct {
		buf []byte
		err error
	}

	ch := make(chan result, 1)
	go func() {
		buf := make([]byte, recvBufferSize)
		n, _, err := c.pc.ReadFrom(buf)
		if err != nil {
			ch <- result{err: dhcperrors.Contextf(err, "udpsock: reading datagram")}
			return
		}
		ch <- result{buf: buf[:n]}
	}()

	select {
	case r := <-ch:
		return r.buf, r.err
	case <-ctx.Done():
		_ = c.pc.SetReadDeadline(time.Now())
		<-ch
		return nil, ctx.Err()
	}
}

// SetReadDeadline bounds the next Recv call.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.pc.SetReadDeadline(t)
}

// Close releases the underlying socket.
func (c *Conn) Close() error {
	return c.pc.Close()
}
