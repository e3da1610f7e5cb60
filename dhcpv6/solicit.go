package dhcpv6

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"time"

	"github.com/AdguardTeam/golibs/log"
)

// solMaxDelay bounds the random pre-Solicit delay RFC 8415 §18.2.1
// recommends ("the first Solicit message...SHOULD be delayed by a random
// amount of time between 0 and SOL_MAX_DELAY").
const solMaxDelay = 1 * time.Second

// solicit drives [StateSolicit]: it multicasts Solicit and retries with RFC
// 8415 §7.6 back-off (no retry-count or duration ceiling) until an
// Advertise matching this client's xid arrives, transitioning to
// [StateRequest] on success.
func (c *Client) solicit(ctx context.Context) error {
	if c.retryCount == 0 {
		c.transBeginTime = time.Now()
		c.retransmitWait = 0
		c.newXid()

		jitter := randDuration(solMaxDelay)
		log.Info("dhcpv6: waiting %s before initial solicit", jitter)
		select {
		case <-time.After(jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		wait, err := SolicitWaitTime(c.retryCount, c.retransmitWait)
		if err != nil {
			return err
		}
		c.retransmitWait = wait

		attemptCtx, cancel := context.WithTimeout(ctx, wait)
		err = c.solicitAttempt(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Info("dhcpv6: no Advertise within %s, retrying", wait)
		c.retryCount++
	}
}

func (c *Client) solicitAttempt(ctx context.Context) error {
	conn, err := c.udpConnOrInit()
	if err != nil {
		return err
	}

	msg := NewSolicit(c.xid, c.cfg, elapsedHundredths(c.transBeginTime))
	log.Debug("dhcpv6: sending Solicit")
	if err := conn.Send(msg.ToBytes()); err != nil {
		return err
	}

	reply, err := c.recvMatching(ctx, conn, MessageTypeAdvertise)
	if err != nil {
		return err
	}

	lease, err := c.leaseFromReply(reply)
	if err != nil {
		log.Info("dhcpv6: ignoring malformed Advertise: %s", err)
		return nil
	}

	c.pendingLease = lease
	c.retryCount = 0
	c.state = StateRequest

	return nil
}

// randDuration returns a uniformly random duration in [0, bound).
func randDuration(bound time.Duration) time.Duration {
	if bound <= 0 {
		return 0
	}

	var b [8]byte
	_, _ = rand.Read(b[:])
	n := binary.BigEndian.Uint64(b[:]) % uint64(bound)

	return time.Duration(n)
}
