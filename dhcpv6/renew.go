package dhcpv6

import (
	"context"
	"time"

	"github.com/AdguardTeam/golibs/log"
)

// renew drives [StateRenewing]: Renew to the recorded server over multicast,
// retrying per RFC 8415 §7.6 (IRT=10s, MRT=600s) until T2 is reached, at
// which point it transitions to [StateRebinding] instead of retrying
// further.
func (c *Client) renew(ctx context.Context) error {
	if c.retryCount == 0 {
		c.transBeginTime = time.Now()
		c.retransmitWait = 0
		c.newXid()
	}

	for {
		wait, err := RenewWaitTime(c.retryCount, c.retransmitWait, c.t2Timer.Remains())
		if err != nil {
			return err
		}
		if wait == 0 {
			log.Debug("dhcpv6: T2 reached, entering rebinding")
			c.state = StateRebinding
			c.retryCount = 0
			c.retransmitWait = 0
			return nil
		}
		c.retransmitWait = wait

		attemptCtx, cancel := context.WithTimeout(ctx, wait)
		err = c.renewAttempt(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Info("dhcpv6: renew attempt failed (%s), retrying in %s", err, wait)
		c.retryCount++
	}
}

func (c *Client) renewAttempt(ctx context.Context) error {
	conn, err := c.udpConnOrInit()
	if err != nil {
		return err
	}

	msg := NewRenew(c.xid, c.cfg, c.lease, elapsedHundredths(c.transBeginTime))
	log.Debug("dhcpv6: sending Renew")
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
