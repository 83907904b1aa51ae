package player

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/wrapitup/wrapitup/pkg/fade"
	"github.com/wrapitup/wrapitup/pkg/playback"
	"github.com/wrapitup/wrapitup/pkg/protocol"
)

const StatusPlayRejected = "Failed to play - User interaction required"

// AudioOutput is one loaded, looping track.
type AudioOutput interface {
	fade.Output
	Play() error
	Pause()
	CurrentTime() float64
	SetCurrentTime(seconds float64)
	// Duration in seconds, 0 when unknown.
	Duration() float64
}

type track struct {
	url   string
	out   AudioOutput
	fader *fade.Scheduler
	// bumped on every start/stop so a stale post fade-out reset is dropped
	gen uint64
}

type Options struct {
	IsHost  bool
	Clock   clock.Clock
	Logger  *slog.Logger
	Status  func(string)
	FadeIn  fade.Envelope
	FadeOut fade.Envelope
}

// Player applies room snapshots to local audio outputs. It decides whether
// this client is allowed to emit sound, seeks to the shared position and
// wraps every start and stop in a fade envelope.
type Player struct {
	mu sync.Mutex

	isHost  bool
	playing bool
	clk     clock.Clock
	clock   *playback.Clock
	logger  *slog.Logger
	status  func(string)
	fadeIn  fade.Envelope
	fadeOut fade.Envelope

	tracks  map[string]*track
	current *track
}

func New(opts Options) *Player {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Status == nil {
		opts.Status = func(string) {}
	}
	if opts.FadeIn == (fade.Envelope{}) {
		opts.FadeIn = fade.DefaultFadeIn
	}
	if opts.FadeOut == (fade.Envelope{}) {
		opts.FadeOut = fade.DefaultFadeOut
	}

	return &Player{
		isHost:  opts.IsHost,
		clk:     opts.Clock,
		clock:   playback.NewClock(opts.Clock),
		logger:  opts.Logger.With(slog.Bool("host", opts.IsHost)),
		status:  opts.Status,
		fadeIn:  opts.FadeIn,
		fadeOut: opts.FadeOut,
		tracks:  make(map[string]*track),
	}
}

// Register makes url playable through out.
func (p *Player) Register(url string, out AudioOutput) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tracks[url] = &track{
		url:   url,
		out:   out,
		fader: fade.NewScheduler(out, p.clk),
	}
}

func (p *Player) Tracks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	urls := make([]string, 0, len(p.tracks))
	for url := range p.tracks {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}

// ShouldPlay is the gating policy: without hosts everyone plays, with hosts
// only hosts do.
func (p *Player) ShouldPlay(hasHosts bool) bool {
	return !hasHosts || p.isHost
}

// Playing reports the room state from the last snapshot, not whether this
// client is audible.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Current returns the url of the track this client is rendering, if any.
func (p *Player) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return ""
	}
	return p.current.url
}

// Apply reacts to a music_state snapshot.
func (p *Player) Apply(state *protocol.MusicState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.playing = state.IsPlaying
	p.logger.Debug("State update",
		slog.Bool("playing", state.IsPlaying),
		slog.Bool("has_hosts", state.HasHosts),
		slog.Any("song", state.SongURL),
		slog.Any("start_time", state.StartTime),
	)

	if !state.IsPlaying {
		p.stopLocked()
		return
	}

	if !p.ShouldPlay(state.HasHosts) {
		p.logger.Info("Non-host client with hosts present - not playing audio")
		p.stopLocked()
		return
	}

	if err := p.startLocked(state.StartTime, state.SongURL); err != nil {
		p.logger.Error(err.Error())
	}
}

func (p *Player) startLocked(startTime *int64, songURL *string) error {
	p.stopLocked()

	if songURL == nil {
		p.logger.Warn("Playing state without a track, nothing to start")
		return nil
	}

	t, exist := p.tracks[*songURL]
	if !exist {
		return fmt.Errorf("%w: %s", ErrUnknownTrack, *songURL)
	}

	t.fader.Stop()
	t.gen++
	p.current = t

	t.out.SetCurrentTime(0)
	t.out.SetVolume(0)

	if startTime != nil {
		seek := p.clock.Position(*startTime, t.out.Duration())
		p.logger.Debug("Seeking", slog.String("song", t.url), slog.Float64("seconds", seek))
		t.out.SetCurrentTime(seek)
	}

	if err := t.out.Play(); err != nil {
		p.logger.Error("Failed to play", slog.String("song", t.url), slog.String("err", err.Error()))
		p.status(StatusPlayRejected)
		return nil
	}

	p.logger.Info("Playback started", slog.String("song", t.url))
	t.fader.FadeIn(p.fadeIn)
	return nil
}

func (p *Player) stopLocked() *fade.Task {
	t := p.current
	if t == nil {
		return nil
	}
	p.current = nil
	t.gen++
	gen := t.gen

	p.logger.Info("Stopping music", slog.String("song", t.url))
	task := t.fader.FadeOut(p.fadeOut)

	go func() {
		<-task.Done()
		if !task.Completed() {
			return
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if t.gen != gen {
			return
		}
		t.out.Pause()
		t.out.SetCurrentTime(0)
		t.out.SetVolume(1)
		p.logger.Debug("All state reset", slog.String("song", t.url))
	}()

	return task
}

// Close silences everything immediately.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, t := range p.tracks {
		t.fader.Stop()
		t.gen++
	}
	if p.current != nil {
		p.current.out.Pause()
		p.current = nil
	}
}
