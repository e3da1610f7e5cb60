// Package dhcpv4 implements a DHCPv4 client: message codec, lease
// invariants, RFC 2131 §4.4.5 retransmission back-off and the
// InitReboot/Selecting/Renewing/Rebinding state machine (RFC 2131 Table 4).
package dhcpv4

import (
	"context"
	"math/rand"
	"net"
	"time"

	"github.com/AdguardTeam/golibs/log"
	"github.com/dhcpwire/dhcpc/dhcperrors"
	"github.com/dhcpwire/dhcpc/internal/ifaceinfo"
	"github.com/dhcpwire/dhcpc/internal/macutil"
	"github.com/dhcpwire/dhcpc/internal/rawsock"
	"github.com/dhcpwire/dhcpc/internal/timer"
	"github.com/dhcpwire/dhcpc/internal/udpsock"
)

// Client runs the DHCPv4 state machine for one interface (or, in proxy
// mode, one logical client impersonated on an interface).
type Client struct {
	cfg      *Config
	resolver ifaceinfo.Resolver
	iface    *net.Interface

	state        State
	xid          uint32
	lease        *Lease
	pendingLease *Lease
	retryCount   uint32

	t1Timer, t2Timer, leaseTimer *timer.Timer

	rawConn *rawsock.Conn
	udpConn *udpsock.Conn
}

// NewClient resolves cfg.IfaceName and returns a Client ready to run,
// starting in [StateInitReboot] (RFC 2131 §4.4.1). If cfg.SrcMAC is unset
// and this is not a proxy configuration, the interface's own hardware
// address is used.
func NewClient(cfg *Config) (*Client, error) {
	return newClient(cfg, ifaceinfo.Default{})
}

func newClient(cfg *Config, resolver ifaceinfo.Resolver) (*Client, error) {
	iface, err := resolver.Interface(cfg.IfaceName)
	if err != nil {
		return nil, err
	}

	if cfg.SrcMAC == nil {
		if cfg.IsProxy {
			return nil, dhcperrors.New(dhcperrors.KindInvalidArgument, "dhcpv4: proxy config requires an explicit source MAC")
		}
		cfg.SrcMAC = iface.HardwareAddr
	}

	return &Client{
		cfg:      cfg,
		resolver: resolver,
		iface:    iface,
		state:    StateInitReboot,
		xid:      rand.Uint32(),
	}, nil
}

// State returns the client's current state.
func (c *Client) State() State { return c.state }

// Lease returns the most recently committed lease, or nil before one
// exists.
func (c *Client) Lease() *Lease { return c.lease }

// Next drives exactly one state-machine transition, mirroring the
// original's run_without_timeout dispatch (RFC 2131 Table 4): it blocks
// until the transition completes, fails, or ctx is done. Callers are
// expected to call Next in a loop; each call after [StateDone] waits out T1
// before attempting a renewal.
func (c *Client) Next(ctx context.Context) error {
	switch c.state {
	case StateInitReboot:
		return c.discovery(ctx)
	case StateSelecting:
		return c.request(ctx)
	case StateRenewing:
		return c.renew(ctx)
	case StateRebinding:
		return c.rebind(ctx)
	case StateDone:
		return c.waitT1(ctx)
	default:
		return dhcperrors.Newf(dhcperrors.KindBug, "dhcpv4: unknown state %v", c.state)
	}
}

func (c *Client) waitT1(ctx context.Context) error {
	if c.t1Timer == nil {
		log.Error("dhcpv4: waitT1 invoked without a T1 timer, restarting acquisition")
		c.state = StateInitReboot
		return nil
	}

	if err := c.t1Timer.Wait(ctx); err != nil {
		return dhcperrors.Contextf(err, "dhcpv4: waiting for T1")
	}

	c.state = StateRenewing
	return nil
}

// commit records a newly acknowledged lease, arms the T1/T2/lease timers,
// and resets per-acquisition state (RFC 2131 §4.4.5).
func (c *Client) commit(l *Lease) {
	now := time.Now()
	c.t1Timer = timer.NewAt(now.Add(time.Duration(l.T1Sec) * time.Second))
	c.t2Timer = timer.NewAt(now.Add(time.Duration(l.T2Sec) * time.Second))
	c.leaseTimer = timer.NewAt(now.Add(time.Duration(l.LeaseTimeSec) * time.Second))

	c.lease = l
	c.pendingLease = nil
	c.retryCount = 0
	c.state = StateDone

	c.closeRawConn()
	c.closeUDPConn()
}

func (c *Client) closeRawConn() {
	if c.rawConn != nil {
		_ = c.rawConn.Close()
		c.rawConn = nil
	}
}

func (c *Client) closeUDPConn() {
	if c.udpConn != nil {
		_ = c.udpConn.Close()
		c.udpConn = nil
	}
}

func (c *Client) rawConnOrInit() (*rawsock.Conn, error) {
	if c.rawConn == nil {
		conn, err := rawsock.Open(c.iface, c.cfg.IsProxy)
		if err != nil {
			return nil, err
		}
		c.rawConn = conn
	}

	return c.rawConn, nil
}

func (c *Client) udpConnOrInit() (*udpsock.Conn, error) {
	if c.udpConn == nil {
		if c.lease == nil {
			return nil, dhcperrors.New(dhcperrors.KindBug, "dhcpv4: udpConnOrInit invoked without a lease")
		}

		conn, err := udpsock.OpenV4Unicast(c.iface, c.lease.YIAddr, serverIdentifierFor(c.lease))
		if err != nil {
			return nil, err
		}
		c.udpConn = conn
	}

	return c.udpConn, nil
}

// sendBroadcast frames msg and writes it broadcast over the raw socket.
func (c *Client) sendBroadcast(conn *rawsock.Conn, msg *Message) error {
	frame, err := rawsock.BuildBroadcastFrame(c.cfg.SrcMAC, udpsock.ClientPortV4, udpsock.ServerPortV4, msg.ToBytes())
	if err != nil {
		return err
	}

	return conn.Send(frame, macutil.Broadcast)
}

// recvMatchingRaw reads frames off conn until one decodes as a DHCPv4
// message of wantType with the client's current xid, the deadline elapses,
// or ctx is done. Non-matching or malformed frames are logged and
// skipped, never treated as fatal (§4.4, §7). It also returns the sending
// frame's source hardware address, needed to record the server's MAC for a
// later proxy-mode unicast release.
func (c *Client) recvMatchingRaw(ctx context.Context, conn *rawsock.Conn, wantType MessageType) (*Message, net.HardwareAddr, error) {
	for {
		frame, err := conn.Recv(ctx)
		if err != nil {
			return nil, nil, err
		}

		decoded, err := rawsock.ParseFrame(frame)
		if err != nil {
			log.Debug("dhcpv4: dropping non-dhcp frame: %s", err)
			continue
		}

		msg, err := ParseMessage(decoded.Payload)
		if err != nil {
			log.Debug("dhcpv4: dropping malformed dhcp message: %s", err)
			continue
		}

		if msg.Xid != c.xid || msg.MessageType() != wantType {
			continue
		}

		return msg, decoded.SrcMAC, nil
	}
}

func (c *Client) recvMatchingUDP(ctx context.Context, conn *udpsock.Conn, wantType MessageType) (*Message, error) {
	for {
		buf, err := conn.Recv(ctx)
		if err != nil {
			return nil, err
		}

		msg, err := ParseMessage(buf)
		if err != nil {
			log.Debug("dhcpv4: dropping malformed dhcp message: %s", err)
			continue
		}

		if msg.Xid != c.xid || msg.MessageType() != wantType {
			continue
		}

		return msg, nil
	}
}

// Release surrenders the current lease with a DHCPRELEASE message (RFC
// 2131 §4.4.4). In proxy mode, or when no UDP socket can be opened, the
// release is sent unicast over the raw socket instead (the interface may
// have no address assigned in the non-proxy case, but a proxy client by
// definition has no IP of its own to bind a UDP socket to).
func (c *Client) Release(ctx context.Context) error {
	if c.lease == nil {
		return dhcperrors.New(dhcperrors.KindNoLease, "dhcpv4: release requested without a committed lease")
	}

	msg := NewRelease(c.xid, c.cfg, c.lease)
	payload := msg.ToBytes()

	if !c.cfg.IsProxy {
		if conn, err := c.udpConnOrInit(); err == nil {
			if sendErr := conn.Send(payload); sendErr == nil {
				c.clean()
				return nil
			}
			log.Info("dhcpv4: udp release failed, falling back to raw socket")
		}
	}

	rawConn, err := c.rawConnOrInit()
	if err != nil {
		return err
	}

	frame, err := rawsock.BuildUnicastFrame(
		c.cfg.SrcMAC, c.lease.ServerMAC,
		c.lease.YIAddr, c.lease.SIAddr,
		udpsock.ClientPortV4, udpsock.ServerPortV4,
		payload,
	)
	if err != nil {
		return err
	}

	if err := rawConn.Send(frame, c.lease.ServerMAC); err != nil {
		return err
	}

	c.clean()
	return nil
}

// clean resets the client to [StateInitReboot] with no lease.
func (c *Client) clean() {
	c.state = StateInitReboot
	c.lease = nil
	c.pendingLease = nil
	c.t1Timer, c.t2Timer, c.leaseTimer = nil, nil, nil
	c.closeRawConn()
	c.closeUDPConn()
}
