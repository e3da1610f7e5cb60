package dhcpv6

import (
	"context"
	"time"

	"github.com/AdguardTeam/golibs/log"
)

// rebind drives [StateRebinding]: multicast Rebind, retrying per RFC 8415
// §7.6 (IRT=10s, MRT=600s) until the lease's valid lifetime expires, at
// which point the lease is dropped and the client returns to
// [StateSolicit].
func (c *Client) rebind(ctx context.Context) error {
	if c.retryCount == 0 {
		c.transBeginTime = time.Now()
		c.retransmitWait = 0
		c.newXid()
	}

	for {
		wait, err := RebindWaitTime(c.retryCount, c.retransmitWait, c.validTimer.Remains())
		if err != nil {
			return err
		}
		if wait == 0 {
			log.Debug("dhcpv6: valid lifetime expired, entering solicit")
			c.clean()
			return nil
		}
		c.retransmitWait = wait

		attemptCtx, cancel := context.WithTimeout(ctx, wait)
		err = c.rebindAttempt(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Info("dhcpv6: rebind attempt failed (%s), retrying in %s", err, wait)
		c.retryCount++
	}
}

func (c *Client) rebindAttempt(ctx context.Context) error {
	conn, err := c.udpConnOrInit()
	if err != nil {
		return err
	}

	msg := NewRebind(c.xid, c.cfg, c.lease, elapsedHundredths(c.transBeginTime))
	log.Debug("dhcpv6: sending Rebind")
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

	c.commit(committed)

	return nil
}
