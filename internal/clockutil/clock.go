// Package clockutil provides a pluggable clock so that time-critical
// components (the slot clock, the leap-seconds retry timer, the traffic
// table sweep) can be driven by real wall time in production and by
// scripted values in tests.
package clockutil

import (
	"sync"
	"time"
)

// Clock yields the current time.  Known implementations are SystemClock,
// whose Now() method returns the system time, and SteppingClock, whose
// Now() method returns a pre-scripted sequence of values.
type Clock interface {
	Now() time.Time
}

// SystemClock satisfies Clock by supplying the system time.
type SystemClock struct{}

// NewSystemClock creates a system clock and returns it as a Clock.
func NewSystemClock() Clock {
	return SystemClock{}
}

// Now returns the system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// SteppingClock is a Clock that returns a given series of time values, one
// at a time.  It's useful in a test case that makes a series of calls to
// get the current time and needs each one to advance in a controlled way.
type SteppingClock struct {
	mutex    sync.Mutex
	nextTime int
	times    []time.Time
}

var _ Clock = (*SteppingClock)(nil)

// NewSteppingClock creates a SteppingClock that returns the given times in
// order, then repeats the last one forever.
func NewSteppingClock(times []time.Time) *SteppingClock {
	return &SteppingClock{times: times}
}

// SetTimes replaces the array of times to return.
func (c *SteppingClock) SetTimes(times []time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.times = times
	c.nextTime = 0
}

// Now returns the next time value from the scripted list.  Once the list is
// exhausted it keeps returning the last value.  If no list was ever set, it
// returns the Unix epoch.
func (c *SteppingClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if len(c.times) == 0 {
		return time.Unix(0, 0).UTC()
	}
	if c.nextTime >= len(c.times) {
		return c.times[len(c.times)-1]
	}
	result := c.times[c.nextTime]
	c.nextTime++
	return result
}

// MonotonicMillis is a free-running millisecond counter, the moral
// equivalent of the firmware's millis().  Production code drives it from
// the OS monotonic clock (time.Since of a fixed epoch); tests drive it by
// hand.
type MonotonicMillis struct {
	mutex   sync.Mutex
	epoch   time.Time
	frozen  bool
	current int64
}

// NewMonotonicMillis starts a millisecond counter at zero from now.
func NewMonotonicMillis() *MonotonicMillis {
	return &MonotonicMillis{epoch: time.Now()}
}

// NewFrozenMillis creates a counter whose value is set explicitly with Set,
// for deterministic tests.
func NewFrozenMillis(startMs int64) *MonotonicMillis {
	return &MonotonicMillis{frozen: true, current: startMs}
}

// Millis returns the current monotonic millisecond count.
func (m *MonotonicMillis) Millis() int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.frozen {
		return m.current
	}
	return time.Since(m.epoch).Milliseconds()
}

// Set forces the counter to a value.  Only meaningful on a frozen clock; it
// panics if called on a live one, since doing so would silently be a no-op.
func (m *MonotonicMillis) Set(ms int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.frozen {
		panic("clockutil: Set called on a live MonotonicMillis")
	}
	m.current = ms
}

// Advance adds delta milliseconds to a frozen counter.
func (m *MonotonicMillis) Advance(delta int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.frozen {
		panic("clockutil: Advance called on a live MonotonicMillis")
	}
	m.current += delta
}
