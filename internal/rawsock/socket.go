package rawsock

import (
	"context"
	"net"
	"time"

	"github.com/dhcpwire/dhcpc/dhcperrors"
)

// Conn is a non-blocking Ethernet-level packet socket bound to one
// interface, with the DHCP BPF classifier attached and, optionally,
// promiscuous reception enabled for proxy mode (§4.4).
type Conn struct {
	pc    net.PacketConn
	iface *net.Interface

	// mkAddr builds the backend-specific net.Addr (packet.Addr on Linux,
	// raw.Addr elsewhere) carrying the destination hardware address a
	// WriteTo call needs, since the destination MAC is also already baked
	// into the Ethernet header bytes being sent.
	mkAddr func(net.HardwareAddr) net.Addr
}

// recvBufferSize is the maximum Ethernet frame this client ever reads,
// matching the 1500-byte MTU ceiling from §4.4.
const recvBufferSize = 1500

// Send writes the full Ethernet frame, looping until it is fully drained, as
// required by §4.4 ("send writes the full Ethernet frame in a loop until
// drained").  dstMAC must match the destination address already encoded in
// frame's Ethernet header; the packet socket still needs it out-of-band to
// fill in the outgoing sockaddr_ll.  net.PacketConn.WriteTo on a packet
// socket either writes the whole datagram or fails, so in practice this
// loops at most once, but the loop is kept explicit to match the documented
// contract.
func (c *Conn) Send(frame []byte, dstMAC net.HardwareAddr) error {
	addr := c.mkAddr(dstMAC)

	for written := 0; written < len(frame); {
		n, err := c.pc.WriteTo(frame[written:], addr)
		if err != nil {
			return dhcperrors.Contextf(err, "rawsock: writing frame")
		}
		if n == 0 {
			return dhcperrors.New(dhcperrors.KindIoError, "rawsock: write made no progress")
		}
		written += n
	}

	return nil
}

// Recv reads one frame of up to 1500 bytes, blocking until data arrives, the
// deadline set by SetReadDeadline elapses, or ctx is done.
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
			ch <- result{err: dhcperrors.Contextf(err, "rawsock: reading frame")}
			return
		}
		ch <- result{buf: buf[:n]}
	}()

	select {
	case r := <-ch:
		return r.buf, r.err
	case <-ctx.Done():
		// Unblock the pending read so the goroutine above does not leak.
		_ = c.pc.SetReadDeadline(time.Now())
		<-ch
		return nil, ctx.Err()
	}
}

// SetReadDeadline bounds the next Recv call (the per-I/O timeout of §5).
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.pc.SetReadDeadline(t)
}

// Close releases the underlying packet socket.
func (c *Conn) Close() error {
	return c.pc.Close()
}

// Interface returns the bound network interface.
func (c *Conn) Interface() *net.Interface {
	return c.iface
}
