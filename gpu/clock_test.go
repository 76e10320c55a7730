package gpu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock(t *testing.T) {
	now := time.Unix(100, 0)
	c := newClock(func() time.Time { return now })

	now = now.Add(250 * time.Millisecond)
	p := c.Tick()
	assert.Equal(t, SimParams{DeltaTime: 0.25, Time: 0.25, Frame: 0}, p)

	c.MaxDelta = 100 * time.Millisecond
	now = now.Add(time.Second)
	p = c.Tick()
	assert.InDelta(t, 0.1, p.DeltaTime, 1e-6)
	assert.Equal(t, uint32(1), p.Frame)

	now = now.Add(-time.Second)
	assert.Equal(t, float32(0), c.Tick().DeltaTime)

	p = c.Advance(0.5)
	assert.InDelta(t, 0.85, p.Time, 1e-6)
	assert.Equal(t, uint32(3), p.Frame)
}
