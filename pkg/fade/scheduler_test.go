package fade

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingOutput struct {
	mu      sync.Mutex
	volume  float64
	history []float64
}

func (o *recordingOutput) Volume() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

func (o *recordingOutput) SetVolume(v float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.volume = v
	o.history = append(o.history, v)
}

func (o *recordingOutput) writes() []float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]float64(nil), o.history...)
}

var (
	testFadeIn  = Envelope{Duration: 200 * time.Millisecond, Steps: 20}
	testFadeOut = Envelope{Duration: 40 * time.Millisecond, Steps: 8}
)

func waitTask(t *testing.T, task *Task) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := task.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("fade never finished")
	}
	return err
}

func TestFadeInReachesFullVolume(t *testing.T) {
	out := &recordingOutput{}
	s := NewScheduler(out, nil)

	task := s.FadeIn(Envelope{Duration: 50 * time.Millisecond, Steps: 10})
	if err := waitTask(t, task); err != nil {
		t.Fatal(err)
	}

	if out.Volume() != 1 {
		t.Fatalf("volume %f", out.Volume())
	}
	writes := out.writes()
	if len(writes) != 11 {
		t.Fatalf("expected 10 steps plus final write, got %v", writes)
	}
	for i := 1; i < len(writes); i++ {
		if writes[i] < writes[i-1] {
			t.Fatalf("fade in went down at %d: %v", i, writes)
		}
	}
	if s.Active() != 0 {
		t.Fatalf("active %d after completion", s.Active())
	}
}

func TestRestartKeepsSingleActiveRamp(t *testing.T) {
	out := &recordingOutput{}
	s := NewScheduler(out, nil)

	var tasks []*Task
	for i := 0; i < 5; i++ {
		tasks = append(tasks, s.FadeIn(testFadeIn))
		if active := s.Active(); active != 1 {
			t.Fatalf("restart %d: %d active ramps", i, active)
		}
		time.Sleep(15 * time.Millisecond)
	}

	for _, task := range tasks[:len(tasks)-1] {
		if err := waitTask(t, task); !errors.Is(err, ErrFadeCancelled) {
			t.Fatalf("replaced ramp should be cancelled, got %v", err)
		}
	}
	if err := waitTask(t, tasks[len(tasks)-1]); err != nil {
		t.Fatal(err)
	}
}

func TestFadeOutPreemptsFadeIn(t *testing.T) {
	out := &recordingOutput{}
	s := NewScheduler(out, nil)

	fadeIn := s.FadeIn(testFadeIn)
	time.Sleep(60 * time.Millisecond)

	fadeOut := s.FadeOut(testFadeOut)
	mark := len(out.writes())

	if err := waitTask(t, fadeIn); !errors.Is(err, ErrFadeCancelled) {
		t.Fatalf("fade in should be cancelled, got %v", err)
	}
	if err := waitTask(t, fadeOut); err != nil {
		t.Fatal(err)
	}
	if out.Volume() != 0 {
		t.Fatalf("volume %f after fade out", out.Volume())
	}

	// the fade in must stay dead once the fade out has finished
	time.Sleep(3 * testFadeIn.interval())
	writes := out.writes()
	tail := writes[mark:]
	if len(tail) == 0 {
		t.Fatal("fade out wrote nothing")
	}
	for i := 1; i < len(tail); i++ {
		if tail[i] > tail[i-1] {
			t.Fatalf("volume went up during fade out: %v", tail)
		}
	}
	if last := writes[len(writes)-1]; last != 0 {
		t.Fatalf("last write %f", last)
	}
	if s.Active() != 0 {
		t.Fatalf("active %d", s.Active())
	}
}

func TestFadeOutFromPartialVolume(t *testing.T) {
	out := &recordingOutput{volume: 0.5}
	s := NewScheduler(out, nil)

	if err := waitTask(t, s.FadeOut(Envelope{Duration: 20 * time.Millisecond, Steps: 4})); err != nil {
		t.Fatal(err)
	}
	want := []float64{0.375, 0.25, 0.125, 0, 0}
	writes := out.writes()
	if len(writes) != len(want) {
		t.Fatalf("got %v", writes)
	}
	for i := range want {
		if writes[i] != want[i] {
			t.Fatalf("got %v, want %v", writes, want)
		}
	}
}

func TestStopCancels(t *testing.T) {
	out := &recordingOutput{}
	s := NewScheduler(out, nil)

	task := s.FadeIn(testFadeIn)
	s.Stop()

	select {
	case <-task.Done():
	default:
		t.Fatal("Stop returned before the ramp exited")
	}
	if task.Completed() {
		t.Fatal("stopped ramp reported completion")
	}
	if s.Active() != 0 {
		t.Fatalf("active %d", s.Active())
	}
}

func TestZeroStepEnvelope(t *testing.T) {
	out := &recordingOutput{volume: 0.7}
	s := NewScheduler(out, nil)

	task := s.FadeOut(Envelope{})
	if !task.Completed() || out.Volume() != 0 {
		t.Fatalf("completed=%v volume=%f", task.Completed(), out.Volume())
	}
	if s.Active() != 0 {
		t.Fatalf("active %d", s.Active())
	}
}
