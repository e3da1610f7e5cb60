package dhcpv6

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolicitWaitTimeFirstAttempt(t *testing.T) {
	t.Parallel()

	d, err := SolicitWaitTime(0, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d, 900*time.Millisecond)
	assert.LessOrEqual(t, d, 1100*time.Millisecond)
}

func TestSolicitWaitTimeCapsAtMRT(t *testing.T) {
	t.Parallel()

	d, err := SolicitWaitTime(100, 5000*time.Second)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d, solicitMaxRT*9/10)
	assert.LessOrEqual(t, d, solicitMaxRT*11/10)
}

func TestSolicitWaitTimeNeverExhausts(t *testing.T) {
	t.Parallel()

	// No MRC for Solicit: an arbitrarily large retry count never errors.
	_, err := SolicitWaitTime(1_000_000, 3600*time.Second)
	require.NoError(t, err)
}

func TestRequestWaitTimeExhaustsAtMRC(t *testing.T) {
	t.Parallel()

	var prev time.Duration
	var err error
	for i := uint32(0); i <= requestMaxRC; i++ {
		prev, err = RequestWaitTime(i, prev)
		require.NoError(t, err)
	}

	_, err = RequestWaitTime(requestMaxRC+1, prev)
	require.Error(t, err)
}

func TestRenewWaitTimeCapsAtRemaining(t *testing.T) {
	t.Parallel()

	// A tiny remaining-until-T2 window must cap the computed back-off, not
	// let it overshoot.
	d, err := RenewWaitTime(0, 0, 2*time.Second)
	require.NoError(t, err)
	assert.LessOrEqual(t, d, 2*time.Second)
	assert.Greater(t, d, time.Duration(0))
}

func TestRenewWaitTimeZeroRemainingSignalsTransition(t *testing.T) {
	t.Parallel()

	d, err := RenewWaitTime(3, 20*time.Second, 0)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)

	d, err = RenewWaitTime(3, 20*time.Second, -5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)
}

func TestRebindWaitTimeCapsAtRemaining(t *testing.T) {
	t.Parallel()

	d, err := RebindWaitTime(0, 0, 3*time.Second)
	require.NoError(t, err)
	assert.LessOrEqual(t, d, 3*time.Second)
	assert.Greater(t, d, time.Duration(0))
}

func TestRebindWaitTimeZeroRemainingSignalsTransition(t *testing.T) {
	t.Parallel()

	d, err := RebindWaitTime(5, 100*time.Second, 0)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)
}

// TestRenewWaitTimeDeadlineIsNotHalfway guards against the bug this package
// previously had: capping against elapsed-since-start time rather than
// remaining time made the cap trigger at the halfway point to the deadline,
// not at the deadline itself (elapsedSinceStart + remaining is constant, so
// the comparison was vacuous). With the remaining-time parameter, a wait
// computed halfway to a fixed deadline must still be positive, not zero.
func TestRenewWaitTimeDeadlineIsNotHalfway(t *testing.T) {
	t.Parallel()

	totalT2Window := 40 * time.Second
	remaining := totalT2Window

	// Jump straight to the halfway point, where the fixed-bug version would
	// have already returned 0.
	halfway := totalT2Window / 2
	remaining -= halfway

	d, err := RenewWaitTime(1, renewTimeout, remaining)
	require.NoError(t, err)
	assert.Greater(t, d, time.Duration(0))
	assert.LessOrEqual(t, d, remaining)
}

func TestScaleDurationBounds(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		d := scaleDuration(10*time.Second, 900, 1100)
		assert.GreaterOrEqual(t, d, 9*time.Second)
		assert.LessOrEqual(t, d, 11*time.Second)
	}
}
