package dhcpv4

import (
	"context"

	"github.com/AdguardTeam/golibs/log"
)

// renew drives [StateRenewing]: unicast DHCPREQUEST to the recorded
// server, retrying per RFC 2131 §4.4.5 until T2 is reached, at which point
// it transitions to [StateRebinding] instead of retrying further.
func (c *Client) renew(ctx context.Context) error {
	for {
		maxWait := RenewRebindMaxWait(c.t2Timer.Remains())
		if maxWait == 0 {
			log.Debug("dhcpv4: T2 reached, entering rebinding")
			c.state = StateRebinding
			c.retryCount = 0
			c.closeUDPConn()
			return nil
		}

		attemptCtx, cancel := context.WithTimeout(ctx, maxWait)
		err := c.renewAttempt(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Info("dhcpv4: renew attempt failed (%s), retrying in %s", err, maxWait)
		c.retryCount++
	}
}

func (c *Client) renewAttempt(ctx context.Context) error {
	conn, err := c.udpConnOrInit()
	if err != nil {
		return err
	}

	msg := NewRenew(c.xid, c.cfg, c.lease)
	log.Debug("dhcpv4: sending unicast DHCPREQUEST for renew")
	if err := conn.Send(msg.ToBytes()); err != nil {
		return err
	}

	reply, err := c.recvMatchingUDP(ctx, conn, MessageTypeAck)
	if err != nil {
		return err
	}

	committed, err := LeaseFromACK(reply, c.lease.ServerMAC)
	if err != nil {
		log.Info("dhcpv4: ignoring malformed DHCPACK: %s", err)
		return nil
	}

	c.commit(committed)

	return nil
}
