// Package dhcpv6 implements a DHCPv6 client: message codec, DUID and
// identity-association option handling, lease invariants, RFC 8415 §7.6
// retransmission back-off and the Solicit/Request/Renew/Rebind state
// machine (RFC 8415 §18).
package dhcpv6

import (
	"bytes"
	"context"
	"crypto/rand"
	"net"
	"time"

	"github.com/AdguardTeam/golibs/log"
	"github.com/dhcpwire/dhcpc/dhcperrors"
	"github.com/dhcpwire/dhcpc/internal/ifaceinfo"
	"github.com/dhcpwire/dhcpc/internal/timer"
	"github.com/dhcpwire/dhcpc/internal/udpsock"
)

// Client runs the DHCPv6 state machine for one interface, requesting the
// IA type configured in cfg.
type Client struct {
	cfg      *Config
	resolver ifaceinfo.Resolver
	iface    *net.Interface

	state          State
	xid            [3]byte
	lease          *Lease
	pendingLease   *Lease
	retryCount     uint32
	transBeginTime time.Time
	retransmitWait time.Duration

	t1Timer, t2Timer, validTimer *timer.Timer

	udpConn *udpsock.Conn
}

// NewClient resolves cfg.IfaceName and returns a Client ready to run,
// starting in [StateSolicit] (RFC 8415 §18.2.1).
func NewClient(cfg *Config) (*Client, error) {
	return newClient(cfg, ifaceinfo.Default{})
}

func newClient(cfg *Config, resolver ifaceinfo.Resolver) (*Client, error) {
	iface, err := resolver.Interface(cfg.IfaceName)
	if err != nil {
		return nil, err
	}
	cfg.IfaceIndex = uint32(iface.Index)

	if cfg.SrcMAC == nil {
		cfg.SrcMAC = iface.HardwareAddr
	}

	if cfg.SrcIP == nil {
		ip, err := resolver.LinkLocalIPv6(iface)
		if err != nil {
			return nil, err
		}
		cfg.SrcIP = ip
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:      cfg,
		resolver: resolver,
		iface:    iface,
		state:    StateSolicit,
	}
	c.newXid()

	return c, nil
}

// newXid picks a fresh 24-bit transaction id (RFC 8415 §8).
func (c *Client) newXid() {
	var b [3]byte
	_, _ = rand.Read(b[:])
	c.xid = b
}

// State returns the client's current state.
func (c *Client) State() State { return c.state }

// Lease returns the most recently committed lease, or nil before one
// exists.
func (c *Client) Lease() *Lease { return c.lease }

// Next drives exactly one state-machine transition (RFC 8415 §18): it
// blocks until the transition completes, fails, or ctx is done. Callers are
// expected to call Next in a loop; each call after [StateDone] waits out T1
// before attempting a renewal. A temporary-address lease has no T1: Next
// waits out its valid lifetime instead and then returns to [StateSolicit].
func (c *Client) Next(ctx context.Context) error {
	switch c.state {
	case StateSolicit:
		return c.solicit(ctx)
	case StateRequest:
		return c.request(ctx)
	case StateRenewing:
		return c.renew(ctx)
	case StateRebinding:
		return c.rebind(ctx)
	case StateDone:
		return c.waitT1(ctx)
	default:
		return dhcperrors.Newf(dhcperrors.KindBug, "dhcpv6: unknown state %v", c.state)
	}
}

func (c *Client) waitT1(ctx context.Context) error {
	if c.t1Timer == nil && c.validTimer != nil {
		if err := c.validTimer.Wait(ctx); err != nil {
			return dhcperrors.Contextf(err, "dhcpv6: waiting for valid lifetime")
		}
		log.Info("dhcpv6: lease expired, restarting acquisition")
		c.clean()
		return nil
	}

	if c.t1Timer == nil {
		log.Error("dhcpv6: waitT1 invoked without a T1 timer, restarting acquisition")
		c.state = StateSolicit
		return nil
	}

	if err := c.t1Timer.Wait(ctx); err != nil {
		return dhcperrors.Contextf(err, "dhcpv6: waiting for T1")
	}

	c.state = StateRenewing
	return nil
}

// commit records a newly confirmed lease, arms the T1/T2/valid timers (or,
// for temporary addresses which carry no T1/T2, only the valid timer), and
// resets per-acquisition state.
func (c *Client) commit(l *Lease) {
	now := time.Now()

	if c.cfg.IaType != IaTypeTemporaryAddresses {
		c.t1Timer = timer.NewAt(now.Add(time.Duration(l.T1Sec) * time.Second))
		c.t2Timer = timer.NewAt(now.Add(time.Duration(l.T2Sec) * time.Second))
	}
	c.validTimer = timer.NewAt(now.Add(time.Duration(l.ValidSec) * time.Second))

	c.lease = l
	c.pendingLease = nil
	c.retryCount = 0
	c.state = StateDone
}

func (c *Client) udpConnOrInit() (*udpsock.Conn, error) {
	if c.udpConn == nil {
		conn, err := udpsock.OpenV6(c.iface, c.cfg.SrcIP, nil)
		if err != nil {
			return nil, err
		}
		c.udpConn = conn
	}

	return c.udpConn, nil
}

func (c *Client) closeUDPConn() {
	if c.udpConn != nil {
		_ = c.udpConn.Close()
		c.udpConn = nil
	}
}

// elapsedHundredths returns the hundredths of a second since transBeginTime,
// saturated to uint16 max (RFC 8415 §21.9).
func elapsedHundredths(since time.Time) uint16 {
	hundredths := time.Since(since) / (10 * time.Millisecond)
	if hundredths > 0xffff {
		return 0xffff
	}

	return uint16(hundredths)
}

// recvMatching reads datagrams off conn until one decodes as a DHCPv6
// message of wantType with the client's current xid, ctx is done, or a
// previously set read deadline elapses. Non-matching or malformed
// datagrams are logged and dropped, never treated as fatal.
func (c *Client) recvMatching(ctx context.Context, conn *udpsock.Conn, wantType MessageType) (*Message, error) {
	for {
		buf, err := conn.Recv(ctx)
		if err != nil {
			return nil, err
		}

		msg, err := ParseMessage(buf)
		if err != nil {
			log.Debug("dhcpv6: dropping malformed dhcp message: %s", err)
			continue
		}

		if msg.Xid != c.xid || msg.Type != wantType {
			continue
		}

		return msg, nil
	}
}

// leaseFromReply projects a Reply's IA option into a [Lease], dispatching on
// the configured IA type.
func (c *Client) leaseFromReply(reply *Message) (*Lease, error) {
	clientIDOpt, ok := reply.Options.GetFirst(OptClientID)
	if !ok {
		return nil, dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "reply is missing client id")
	}
	if !bytes.Equal(clientIDOpt.DUID.Bytes(), c.cfg.DUIDOrInit().Bytes()) {
		return nil, dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "reply client id does not match ours")
	}

	serverIDOpt, ok := reply.Options.GetFirst(OptServerID)
	if !ok {
		return nil, dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "reply is missing server id")
	}

	if st, ok := reply.Options.GetFirst(OptStatusCode); ok && !st.Status.IsSuccess() {
		return nil, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "reply status: %s", st.Status.Code)
	}

	switch c.cfg.IaType {
	case IaTypeTemporaryAddresses:
		opt, ok := reply.Options.GetFirst(OptIATA)
		if !ok {
			return nil, dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "reply is missing ia_ta")
		}
		return leaseFromIATA(reply.Xid, clientIDOpt.DUID, serverIDOpt.DUID, nil, opt.IATA, reply.Options)
	case IaTypePrefixDelegation:
		opt, ok := reply.Options.GetFirst(OptIAPD)
		if !ok {
			return nil, dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "reply is missing ia_pd")
		}
		return leaseFromIAPD(reply.Xid, clientIDOpt.DUID, serverIDOpt.DUID, nil, opt.IAPD, reply.Options)
	default:
		opt, ok := reply.Options.GetFirst(OptIANA)
		if !ok {
			return nil, dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "reply is missing ia_na")
		}
		return leaseFromIANA(reply.Xid, clientIDOpt.DUID, serverIDOpt.DUID, nil, opt.IANA, reply.Options)
	}
}

// Release surrenders the current lease with a Release message (RFC 8415
// §18.2.7).
func (c *Client) Release(ctx context.Context) error {
	if c.lease == nil {
		return dhcperrors.New(dhcperrors.KindNoLease, "dhcpv6: release requested without a committed lease")
	}

	conn, err := c.udpConnOrInit()
	if err != nil {
		return err
	}

	msg := NewRelease(c.xid, c.cfg, c.lease, elapsedHundredths(c.transBeginTime))
	if err := conn.Send(msg.ToBytes()); err != nil {
		return err
	}

	c.clean()
	return nil
}

// clean resets the client to [StateSolicit] with no lease.
func (c *Client) clean() {
	c.state = StateSolicit
	c.lease = nil
	c.pendingLease = nil
	c.t1Timer, c.t2Timer, c.validTimer = nil, nil, nil
	c.closeUDPConn()
}
