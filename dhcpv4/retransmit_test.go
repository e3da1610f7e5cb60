package dhcpv4

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestDelayDoublesAndCaps(t *testing.T) {
	t.Parallel()

	for retry, wantBaseSecs := range map[uint32]float64{
		0: 3,
		1: 7,
		2: 15,
		3: 31,
		4: 62,
		5: 62, // capped
	} {
		d := RequestDelay(retry)
		assert.GreaterOrEqual(t, d.Seconds(), wantBaseSecs)
		assert.Less(t, d.Seconds(), wantBaseSecs+2.1)
	}
}

func TestRenewRebindMaxWaitFloor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Duration(0), RenewRebindMaxWait(0))
	assert.Equal(t, time.Duration(0), RenewRebindMaxWait(-5*time.Second))

	// Less than the 60s floor remaining: wait exactly the remaining time.
	assert.Equal(t, 30*time.Second, RenewRebindMaxWait(30*time.Second))

	// Half exceeds the floor: wait half.
	assert.Equal(t, 100*time.Second, RenewRebindMaxWait(200*time.Second))

	// Half is under the floor but remaining still exceeds it: wait the floor.
	assert.Equal(t, 60*time.Second, RenewRebindMaxWait(90*time.Second))
}
