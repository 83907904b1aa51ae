package player

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// VirtualOutput is a silent AudioOutput that keeps a looping play head on a
// clock. Headless clients use it to follow a room without a sound device.
type VirtualOutput struct {
	mu sync.Mutex

	name     string
	clk      clock.Clock
	logger   *slog.Logger
	duration float64

	volume   float64
	playing  bool
	position float64
	anchor   time.Time
}

func NewVirtualOutput(name string, duration float64, clk clock.Clock, logger *slog.Logger) *VirtualOutput {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VirtualOutput{
		name:     name,
		clk:      clk,
		logger:   logger.With(slog.String("output", name)),
		duration: duration,
		volume:   1,
	}
}

func (v *VirtualOutput) Play() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.playing {
		v.playing = true
		v.anchor = v.clk.Now()
	}
	v.logger.Info("Play", slog.Float64("position", v.position))
	return nil
}

func (v *VirtualOutput) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.position = v.currentTimeLocked()
	v.playing = false
	v.logger.Info("Pause", slog.Float64("position", v.position))
}

func (v *VirtualOutput) Paused() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.playing
}

func (v *VirtualOutput) CurrentTime() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.currentTimeLocked()
}

func (v *VirtualOutput) currentTimeLocked() float64 {
	pos := v.position
	if v.playing {
		pos += v.clk.Since(v.anchor).Seconds()
	}
	if v.duration > 0 {
		pos = math.Mod(pos, v.duration)
	}
	return pos
}

func (v *VirtualOutput) SetCurrentTime(seconds float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.position = max(seconds, 0)
	v.anchor = v.clk.Now()
}

func (v *VirtualOutput) Duration() float64 {
	return v.duration
}

func (v *VirtualOutput) Volume() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.volume
}

func (v *VirtualOutput) SetVolume(volume float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.volume = min(max(volume, 0), 1)
	v.logger.Debug("Volume", slog.Float64("volume", v.volume))
}
