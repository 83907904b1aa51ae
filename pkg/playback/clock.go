// Package playback converts between the wall-clock start timestamp carried in
// a room snapshot and a local seek position.
//
// The server never streams audio. It records the unix millisecond at which a
// track logically started and every client derives its own offset from that
// value, so late joiners land on the same audible position as everyone else.
// Accuracy depends on client and server wall clocks agreeing; no offset
// correction is applied.
package playback

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
)

// Timestamp converts t to unix milliseconds.
func Timestamp(t time.Time) int64 {
	return t.UnixMilli()
}

// Elapsed returns the seconds between startMillis and now. A start in the
// future (skewed clocks) yields 0.
func Elapsed(startMillis int64, now time.Time) float64 {
	elapsed := float64(now.UnixMilli()-startMillis) / 1000
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// SeekPosition wraps the elapsed time into a looped track of the given
// duration in seconds. Unknown durations seek to 0.
func SeekPosition(startMillis int64, now time.Time, duration float64) float64 {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return 0
	}
	return math.Mod(Elapsed(startMillis, now), duration)
}

type Clock struct {
	clk clock.Clock
}

func NewClock(clk clock.Clock) *Clock {
	if clk == nil {
		clk = clock.New()
	}
	return &Clock{clk: clk}
}

// Start returns the timestamp to record for a track starting now.
func (c *Clock) Start() int64 {
	return Timestamp(c.clk.Now())
}

func (c *Clock) Elapsed(startMillis int64) float64 {
	return Elapsed(startMillis, c.clk.Now())
}

func (c *Clock) Position(startMillis int64, duration float64) float64 {
	return SeekPosition(startMillis, c.clk.Now(), duration)
}

func (c *Clock) Now() time.Time {
	return c.clk.Now()
}
