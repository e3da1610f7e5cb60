package dhcpv6

import (
	"math/rand"
	"time"

	"github.com/dhcpwire/dhcpc/dhcperrors"
)

// RFC 8415 §7.6 transmission and retransmission parameters, one constant
// pair per message type.
const (
	solicitTimeout = 1 * time.Second
	solicitMaxRT   = 3600 * time.Second

	requestTimeout = 1 * time.Second
	requestMaxRT   = 30 * time.Second
	requestMaxRC   = 10

	renewTimeout = 10 * time.Second
	renewMaxRT   = 600 * time.Second

	rebindTimeout = 10 * time.Second
	rebindMaxRT   = 600 * time.Second
)

// genRetransmitTime implements RFC 8415 §15's generic retransmission
// formula. rt is the previous wait (zero on the first attempt); irt and mrt
// are the message type's IRT/MRT parameters, and mrc is the MRC parameter
// (zero meaning no retry-count bound applies). It returns
// [dhcperrors.KindTimeout] once the retry ceiling is exceeded.
func genRetransmitTime(
	retransmitCount uint32,
	rt, irt, mrt time.Duration,
	mrc uint32,
) (time.Duration, error) {
	if mrc != 0 && retransmitCount > mrc {
		return 0, dhcperrors.New(dhcperrors.KindTimeout, "dhcpv6: max retransmission count exceeded")
	}

	var next time.Duration
	if rt == 0 {
		next = scaleDuration(irt, 900, 1100)
	} else {
		next = scaleDuration(rt, 1900, 2100)
	}

	if mrt != 0 && next > mrt {
		next = scaleDuration(mrt, 900, 1100)
	}

	return next, nil
}

// scaleDuration multiplies d by a random factor in [loPermille, hiPermille)
// divided by 1000, reproducing RFC 8415's RAND in [-0.1, 0.1] randomization
// factor (900..1100) and the doubling case's 2x jitter (1900..2100).
func scaleDuration(d time.Duration, loPermille, hiPermille int64) time.Duration {
	factor := loPermille + rand.Int63n(hiPermille-loPermille)
	return time.Duration(int64(d) * factor / 1000)
}

// SolicitWaitTime is the retransmission back-off for SOLICIT messages: no
// retry-count or duration ceiling, IRT=1s, MRT=3600s.
func SolicitWaitTime(retransmitCount uint32, previousWait time.Duration) (time.Duration, error) {
	return genRetransmitTime(retransmitCount, previousWait, solicitTimeout, solicitMaxRT, 0)
}

// RequestWaitTime is the retransmission back-off for REQUEST messages:
// IRT=1s, MRT=30s, MRC=10.
func RequestWaitTime(retransmitCount uint32, previousWait time.Duration) (time.Duration, error) {
	return genRetransmitTime(retransmitCount, previousWait, requestTimeout, requestMaxRT, requestMaxRC)
}

// RenewWaitTime is the retransmission back-off for RENEW messages: IRT=10s,
// MRT=600s, capped so the wait never runs past remainingUntilT2. Once that
// reaches zero, the caller transitions to Rebind instead of retrying
// further.
func RenewWaitTime(retransmitCount uint32, previousWait, remainingUntilT2 time.Duration) (time.Duration, error) {
	return mrdCappedWaitTime(retransmitCount, previousWait, renewTimeout, renewMaxRT, remainingUntilT2)
}

// RebindWaitTime is the retransmission back-off for REBIND messages:
// IRT=10s, MRT=600s, capped so the wait never runs past
// remainingValidTime. Once that reaches zero, the lease has expired.
func RebindWaitTime(retransmitCount uint32, previousWait, remainingValidTime time.Duration) (time.Duration, error) {
	return mrdCappedWaitTime(retransmitCount, previousWait, rebindTimeout, rebindMaxRT, remainingValidTime)
}

// mrdCappedWaitTime computes the uncapped back-off, then caps it at
// remaining: a zero remaining caller-side signals its own transition rather
// than being reported as a timeout error.
func mrdCappedWaitTime(retransmitCount uint32, previousWait, irt, mrt, remaining time.Duration) (time.Duration, error) {
	if remaining <= 0 {
		return 0, nil
	}

	next, err := genRetransmitTime(retransmitCount, previousWait, irt, mrt, 0)
	if err != nil {
		return 0, err
	}
	if next > remaining {
		next = remaining
	}

	return next, nil
}
