package gpu

import "time"

// Clock measures frame time and produces the SimParams of each frame.
type Clock struct {
	now   func() time.Time
	last  time.Time
	time  float32
	frame uint32
	// MaxDelta caps the delta time of a single frame. Zero means no cap.
	MaxDelta time.Duration
}

func NewClock() *Clock {
	return newClock(time.Now)
}

func newClock(now func() time.Time) *Clock {
	return &Clock{now: now, last: now()}
}

// Tick advances the clock to the current time.
func (c *Clock) Tick() SimParams {
	now := c.now()
	dt := now.Sub(c.last)
	c.last = now
	if dt < 0 {
		dt = 0
	}
	if c.MaxDelta > 0 && dt > c.MaxDelta {
		dt = c.MaxDelta
	}
	return c.Advance(float32(dt.Seconds()))
}

// Advance steps the clock by a fixed dt, in seconds.
func (c *Clock) Advance(dt float32) SimParams {
	c.time += dt
	p := SimParams{DeltaTime: dt, Time: c.time, Frame: c.frame}
	c.frame++
	return p
}
