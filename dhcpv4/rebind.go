package dhcpv4

import (
	"context"

	"github.com/AdguardTeam/golibs/log"
)

// rebind drives [StateRebinding]: broadcast DHCPREQUEST, retrying per RFC
// 2131 §4.4.5 until the lease's validity expires, at which point the lease
// is dropped and the client returns to [StateInitReboot].
func (c *Client) rebind(ctx context.Context) error {
	for {
		maxWait := RenewRebindMaxWait(c.leaseTimer.Remains())
		if maxWait == 0 {
			log.Debug("dhcpv4: lease expired, entering init_reboot")
			c.clean()
			return nil
		}

		attemptCtx, cancel := context.WithTimeout(ctx, maxWait)
		err := c.rebindAttempt(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Info("dhcpv4: rebind attempt failed (%s), retrying in %s", err, maxWait)
		c.retryCount++
	}
}

func (c *Client) rebindAttempt(ctx context.Context) error {
	conn, err := c.rawConnOrInit()
	if err != nil {
		return err
	}

	msg := NewRebind(c.xid, c.cfg, c.lease)
	log.Debug("dhcpv4: sending broadcast DHCPREQUEST for rebind")
	if err := c.sendBroadcast(conn, msg); err != nil {
		return err
	}

	reply, serverMAC, err := c.recvMatchingRaw(ctx, conn, MessageTypeAck)
	if err != nil {
		return err
	}

	committed, err := LeaseFromACK(reply, serverMAC)
	if err != nil {
		log.Info("dhcpv4: ignoring malformed DHCPACK: %s", err)
		return nil
	}

	c.commit(committed)

	return nil
}
