package dhcpv4

import (
	"context"

	"github.com/AdguardTeam/golibs/log"
	"github.com/dhcpwire/dhcpc/dhcperrors"
)

// request drives [StateSelecting]: it broadcasts a DHCPREQUEST
// acknowledging the pending offer and retries, with the same back-off as
// discovery, until a matching DHCPACK arrives (RFC 2131 §4.3.2).
func (c *Client) request(ctx context.Context) error {
	for {
		maxWait := RequestDelay(c.retryCount)

		attemptCtx, cancel := context.WithTimeout(ctx, maxWait)
		err := c.requestAttempt(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Info("dhcpv4: no DHCPACK within %s, retrying", maxWait)
		c.retryCount++
	}
}

func (c *Client) requestAttempt(ctx context.Context) error {
	lease := c.pendingLease
	if lease == nil {
		log.Error("dhcpv4: requestAttempt invoked without a pending lease, restarting acquisition")
		c.state = StateInitReboot
		return nil
	}

	conn, err := c.rawConnOrInit()
	if err != nil {
		return err
	}

	msg := NewRequest(c.xid, c.cfg, lease)
	log.Debug("dhcpv4: sending DHCPREQUEST")
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

	if err := assertSameOffer(lease, committed); err != nil {
		return dhcperrors.Contextf(err, "dhcpv4: DHCPACK diverges from offer")
	}

	c.commit(committed)

	return nil
}

// assertSameOffer checks that the server's ACK grants the same yiaddr it
// offered.
func assertSameOffer(offer, ack *Lease) error {
	if !offer.YIAddr.Equal(ack.YIAddr) {
		return dhcperrors.Newf(
			dhcperrors.KindInvalidDhcpMessage,
			"offered %s but acked %s", offer.YIAddr, ack.YIAddr,
		)
	}

	return nil
}
