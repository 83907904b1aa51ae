// Package fade drives stepped volume ramps on a single audio output.
//
// A Scheduler owns at most one running ramp. Starting a ramp cancels the
// previous one and waits for its loop to exit before the first new step, so
// two ramps never write to the same output.
package fade

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
)

// Output is the volume surface of an audio element. Volume is in [0, 1].
type Output interface {
	Volume() float64
	SetVolume(float64)
}

// Envelope describes how long a ramp takes and how many discrete volume
// changes it makes on the way.
type Envelope struct {
	Duration time.Duration
	Steps    int
}

var (
	DefaultFadeIn  = Envelope{Duration: 20 * time.Second, Steps: 100}
	DefaultFadeOut = Envelope{Duration: time.Second, Steps: 50}
)

func (e Envelope) interval() time.Duration {
	interval := e.Duration / time.Duration(e.Steps)
	if interval <= 0 {
		interval = time.Millisecond
	}
	return interval
}

// Task is the handle of one ramp.
type Task struct {
	done       chan struct{}
	cancel     chan struct{}
	cancelOnce sync.Once
	completed  atomic.Bool
}

func newTask() *Task {
	return &Task{
		done:   make(chan struct{}),
		cancel: make(chan struct{}),
	}
}

// Done is closed when the ramp finished or was cancelled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Completed reports whether the ramp reached its target volume.
func (t *Task) Completed() bool {
	return t.completed.Load()
}

// Cancel stops the ramp at its current volume. It does not wait.
func (t *Task) Cancel() {
	t.cancelOnce.Do(func() { close(t.cancel) })
}

// Wait blocks until the ramp ends. A cancelled ramp yields ErrFadeCancelled.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
	}
	if !t.Completed() {
		return ErrFadeCancelled
	}
	return nil
}

type Scheduler struct {
	mu      sync.Mutex
	out     Output
	clk     clock.Clock
	active  *Task
	running atomic.Int32
}

func NewScheduler(out Output, clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	return &Scheduler{out: out, clk: clk}
}

// FadeIn ramps the output from silence to full volume.
func (s *Scheduler) FadeIn(env Envelope) *Task {
	return s.start(env, func(step int) float64 {
		return min(float64(step)/float64(env.Steps), 1)
	}, 1)
}

// FadeOut ramps the output from its current volume down to silence. Any ramp
// in flight, including a fade in, is cancelled first.
func (s *Scheduler) FadeOut(env Envelope) *Task {
	return s.start(env, nil, 0)
}

// Stop cancels the running ramp, if any, and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// Active returns the number of ramps currently touching the output.
func (s *Scheduler) Active() int {
	return int(s.running.Load())
}

func (s *Scheduler) cancelLocked() {
	if s.active == nil {
		return
	}
	s.active.Cancel()
	<-s.active.done
	s.active = nil
}

// level == nil means a linear ramp from the volume found when the ramp starts.
func (s *Scheduler) start(env Envelope, level func(step int) float64, target float64) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()

	task := newTask()
	s.active = task

	if env.Steps <= 0 {
		s.out.SetVolume(target)
		task.completed.Store(true)
		close(task.done)
		return task
	}

	if level == nil {
		from := s.out.Volume()
		delta := (target - from) / float64(env.Steps)
		level = func(step int) float64 {
			v := from + float64(step)*delta
			if delta < 0 {
				return max(v, target)
			}
			return min(v, target)
		}
	}

	s.running.Inc()
	ticker := s.clk.Ticker(env.interval())
	go s.run(task, ticker, env.Steps, level, target)
	return task
}

func (s *Scheduler) run(task *Task, ticker *clock.Ticker, steps int, level func(int) float64, target float64) {
	defer close(task.done)
	defer s.running.Dec()
	defer ticker.Stop()

	for step := 0; ; {
		select {
		case <-task.cancel:
			return
		case <-ticker.C:
		}

		// a tick racing with Cancel must not write
		select {
		case <-task.cancel:
			return
		default:
		}

		if step >= steps {
			s.out.SetVolume(target)
			task.completed.Store(true)
			return
		}
		step++
		s.out.SetVolume(level(step))
	}
}
