package dhcpv6

import (
	"context"

	"github.com/AdguardTeam/golibs/log"
	"github.com/dhcpwire/dhcpc/dhcperrors"
)

// request drives [StateRequest]: it sends a Request acknowledging the
// pending Advertise and retries per RFC 8415 §7.6 (IRT=1s, MRT=30s,
// MRC=10). Exhausting the retry budget restarts acquisition from
// [StateSolicit] instead of selecting a different server, matching a
// single-server deployment's simplest recovery.
func (c *Client) request(ctx context.Context) error {
	if c.retryCount == 0 {
		c.retransmitWait = 0
	}

	for {
		wait, err := RequestWaitTime(c.retryCount, c.retransmitWait)
		if err != nil {
			log.Info("dhcpv6: request retries exhausted (%s), restarting from solicit", err)
			c.retryCount = 0
			c.state = StateSolicit
			return nil
		}
		c.retransmitWait = wait

		attemptCtx, cancel := context.WithTimeout(ctx, wait)
		err = c.requestAttempt(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Info("dhcpv6: no Reply within %s, retrying", wait)
		c.retryCount++
	}
}

func (c *Client) requestAttempt(ctx context.Context) error {
	lease := c.pendingLease
	if lease == nil {
		log.Error("dhcpv6: requestAttempt invoked without a pending lease, restarting acquisition")
		c.state = StateSolicit
		return nil
	}

	conn, err := c.udpConnOrInit()
	if err != nil {
		return err
	}

	msg := NewRequest(c.xid, c.cfg, lease, elapsedHundredths(c.transBeginTime))
	log.Debug("dhcpv6: sending Request")
	if err := conn.Send(msg.ToBytes()); err != nil {
		return err
	}

	reply, err := c.recvMatching(ctx, conn, MessageTypeReply)
	if err != nil {
		return err
	}

	committed, err := c.leaseFromReply(reply)
	if err != nil {
		log.Info("dhcpv6: ignoring malformed Reply: %s", err)
		return nil
	}

	if err := assertSameAddress(lease, committed); err != nil {
		return dhcperrors.Contextf(err, "dhcpv6: reply diverges from advertise")
	}

	c.commit(committed)

	return nil
}

// assertSameAddress checks that the server's Reply grants the same
// address/prefix it advertised.
func assertSameAddress(advertised, reply *Lease) error {
	if !advertised.Address.Equal(reply.Address) {
		return dhcperrors.Newf(
			dhcperrors.KindInvalidDhcpMessage,
			"advertised %s but replied %s", advertised.Address, reply.Address,
		)
	}

	return nil
}
