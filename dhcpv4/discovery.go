package dhcpv4

import (
	"context"
	"math/rand"
	"time"

	"github.com/AdguardTeam/golibs/log"
)

// initialDiscoveryJitterMax bounds the random pre-DISCOVER delay RFC 2131
// §4.4.1 recommends ("wait a random time between one and ten seconds to
// desynchronize the use of DHCP at startup"); 200ms is judged plenty in
// practice, sparing interactive callers a multi-second startup stall.
const initialDiscoveryJitterMax = 200 * time.Millisecond

// discovery drives [StateInitReboot]: it broadcasts DHCPDISCOVER and
// retries with RFC 2131 §4.1 back-off until a DHCPOFFER matching this
// client's xid arrives, transitioning to [StateSelecting] on success.
func (c *Client) discovery(ctx context.Context) error {
	if c.retryCount == 0 {
		jitter := time.Duration(rand.Int63n(int64(initialDiscoveryJitterMax)))
		select {
		case <-time.After(jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		maxWait := RequestDelay(c.retryCount)

		attemptCtx, cancel := context.WithTimeout(ctx, maxWait)
		err := c.discoveryAttempt(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Info("dhcpv4: no DHCPOFFER within %s, retrying", maxWait)
		c.retryCount++
	}
}

func (c *Client) discoveryAttempt(ctx context.Context) error {
	conn, err := c.rawConnOrInit()
	if err != nil {
		return err
	}

	msg := NewDiscovery(c.xid, c.cfg)
	log.Debug("dhcpv4: sending DHCPDISCOVER")
	if err := c.sendBroadcast(conn, msg); err != nil {
		return err
	}

	reply, serverMAC, err := c.recvMatchingRaw(ctx, conn, MessageTypeOffer)
	if err != nil {
		return err
	}

	lease, err := LeaseFromACK(reply, serverMAC)
	if err != nil {
		log.Info("dhcpv4: ignoring malformed DHCPOFFER: %s", err)
		return nil
	}

	c.pendingLease = lease
	c.state = StateSelecting

	return nil
}
