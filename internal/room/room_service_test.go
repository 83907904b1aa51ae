package room

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/wrapitup/wrapitup/pkg/playback"
	"github.com/wrapitup/wrapitup/pkg/protocol"
)

type stubPicker struct {
	mu     sync.Mutex
	tracks []string
	picks  int
}

func (p *stubPicker) Pick() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tracks) == 0 {
		return "", false
	}
	track := p.tracks[p.picks%len(p.tracks)]
	p.picks++
	return track, true
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(picker TrackPicker, bufferSize int) (*RoomService, *clock.Mock) {
	mock := clock.NewMock()
	mock.Set(epoch)

	return NewRoomService(NewRoomServiceParams{
		Registry:    NewRegistry(),
		Broadcaster: NewBroadcaster(512, discardLogger),
		Picker:      picker,
		Clock:       playback.NewClock(mock),
		Logger:      discardLogger,
		BufferSize:  bufferSize,
	}), mock
}

// drain decodes every frame currently queued on s.
func drain(t *testing.T, s *Session) []any {
	t.Helper()
	var msgs []any
	for {
		select {
		case payload := <-s.Outbox():
			msg, err := protocol.DecodeServerMessage(payload)
			if err != nil {
				t.Fatalf("server sent undecodable frame %s: %v", payload, err)
			}
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func lastUserCount(t *testing.T, msgs []any) int {
	t.Helper()
	for i := len(msgs) - 1; i >= 0; i-- {
		if c, ok := msgs[i].(*protocol.UserCount); ok {
			return c.Count
		}
	}
	t.Fatalf("no user_count in %v", msgs)
	return -1
}

func lastState(t *testing.T, msgs []any) *protocol.MusicState {
	t.Helper()
	for i := len(msgs) - 1; i >= 0; i-- {
		if s, ok := msgs[i].(*protocol.MusicState); ok {
			return s
		}
	}
	t.Fatalf("no music_state in %v", msgs)
	return nil
}

func TestJoinRepliesCountThenSnapshot(t *testing.T) {
	svc, _ := newTestService(&stubPicker{tracks: []string{"/songs/a.mp3"}}, 16)

	a := svc.Connect()
	svc.Join(a, "party", false)

	msgs := drain(t, a)
	if len(msgs) != 3 {
		t.Fatalf("got %d frames, want 3: %v", len(msgs), msgs)
	}
	if c, ok := msgs[0].(*protocol.UserCount); !ok || c.Count != 1 {
		t.Fatalf("first frame = %#v, want user_count 1", msgs[0])
	}
	state, ok := msgs[1].(*protocol.MusicState)
	if !ok {
		t.Fatalf("second frame = %#v, want music_state", msgs[1])
	}
	if state.IsPlaying || state.StartTime != nil || state.SongURL != nil || state.HasHosts {
		t.Fatalf("unexpected initial snapshot %+v", state)
	}
	if c, ok := msgs[2].(*protocol.UserCount); !ok || c.Count != 1 {
		t.Fatalf("third frame = %#v, want broadcast user_count 1", msgs[2])
	}
}

func TestJoinDefaultsRoom(t *testing.T) {
	svc, _ := newTestService(&stubPicker{}, 16)

	s := svc.Connect()
	svc.Join(s, "", false)

	rooms := svc.Rooms()
	if len(rooms) != 1 || rooms[0].RoomID != protocol.DefaultRoomID {
		t.Fatalf("rooms = %+v", rooms)
	}
}

func TestMemberCountTracksLiveSessions(t *testing.T) {
	svc, _ := newTestService(&stubPicker{}, 64)

	type step struct {
		join  bool
		who   int
		room  string
		count map[string]int
	}
	steps := []step{
		{join: true, who: 0, room: "a", count: map[string]int{"a": 1}},
		{join: true, who: 1, room: "a", count: map[string]int{"a": 2}},
		{join: true, who: 2, room: "b", count: map[string]int{"a": 2, "b": 1}},
		{join: true, who: 3, room: "a", count: map[string]int{"a": 3, "b": 1}},
		{join: false, who: 1, count: map[string]int{"a": 2, "b": 1}},
		{join: false, who: 2, count: map[string]int{"a": 2}},
		{join: false, who: 0, count: map[string]int{"a": 1}},
		{join: false, who: 3, count: map[string]int{}},
	}

	sessions := make([]*Session, 4)
	for i := range sessions {
		sessions[i] = svc.Connect()
	}
	rooms := map[int]string{}
	seen := map[int]int{}

	for i, st := range steps {
		if st.join {
			svc.Join(sessions[st.who], st.room, false)
			rooms[st.who] = st.room
		} else {
			svc.Disconnect(sessions[st.who])
			delete(rooms, st.who)
		}

		for who, room := range rooms {
			if msgs := drain(t, sessions[who]); len(msgs) > 0 {
				seen[who] = lastUserCount(t, msgs)
			}
			if seen[who] != st.count[room] {
				t.Fatalf("step %d: session %d in %q saw count %d, want %d", i, who, room, seen[who], st.count[room])
			}
		}
		if got := len(svc.Rooms()); got != len(st.count) {
			t.Fatalf("step %d: %d rooms in registry, want %d", i, got, len(st.count))
		}
	}
}

func TestToggleTransitions(t *testing.T) {
	svc, mock := newTestService(&stubPicker{tracks: []string{"/songs/a.mp3"}}, 16)

	s := svc.Connect()
	svc.Join(s, "party", false)
	drain(t, s)

	if err := svc.Toggle(s); err != nil {
		t.Fatal(err)
	}
	state := lastState(t, drain(t, s))
	if !state.IsPlaying || state.StartTime == nil || state.SongURL == nil {
		t.Fatalf("start snapshot %+v", state)
	}
	if *state.StartTime != epoch.UnixMilli() || *state.SongURL != "/songs/a.mp3" {
		t.Fatalf("start snapshot startTime=%d song=%s", *state.StartTime, *state.SongURL)
	}

	mock.Add(3 * time.Second)
	if err := svc.Toggle(s); err != nil {
		t.Fatal(err)
	}
	state = lastState(t, drain(t, s))
	if state.IsPlaying || state.StartTime != nil || state.SongURL != nil {
		t.Fatalf("stop snapshot %+v", state)
	}
}

func TestToggleEmptyCatalogStillStarts(t *testing.T) {
	svc, _ := newTestService(&stubPicker{}, 16)

	s := svc.Connect()
	svc.Join(s, "party", false)
	drain(t, s)

	if err := svc.Toggle(s); err != nil {
		t.Fatal(err)
	}
	state := lastState(t, drain(t, s))
	if !state.IsPlaying || state.StartTime == nil || state.SongURL != nil {
		t.Fatalf("snapshot %+v, want playing with start time and no song", state)
	}
}

func TestToggleBeforeJoinIsIgnored(t *testing.T) {
	svc, _ := newTestService(&stubPicker{tracks: []string{"/songs/a.mp3"}}, 16)

	s := svc.Connect()
	if err := svc.Toggle(s); !errors.Is(err, ErrSessionNotJoined) {
		t.Fatalf("Toggle() = %v, want ErrSessionNotJoined", err)
	}
	if msgs := drain(t, s); len(msgs) != 0 {
		t.Fatalf("unjoined session received %v", msgs)
	}
	if len(svc.Rooms()) != 0 {
		t.Fatal("toggle created a room")
	}
}

func TestLateJoinerKeepsStartTime(t *testing.T) {
	svc, mock := newTestService(&stubPicker{tracks: []string{"/songs/a.mp3"}}, 16)

	a := svc.Connect()
	svc.Join(a, "party", false)
	if err := svc.Toggle(a); err != nil {
		t.Fatal(err)
	}

	mock.Add(42 * time.Second)

	b := svc.Connect()
	svc.Join(b, "party", false)
	state := lastState(t, drain(t, b))
	if state.StartTime == nil || *state.StartTime != epoch.UnixMilli() {
		t.Fatalf("late joiner snapshot %+v, want original start time", state)
	}
}

func TestHostPresenceInSnapshot(t *testing.T) {
	svc, _ := newTestService(&stubPicker{tracks: []string{"/songs/a.mp3"}}, 16)

	host := svc.Connect()
	svc.Join(host, "party", true)

	guest := svc.Connect()
	svc.Join(guest, "party", false)
	if state := lastState(t, drain(t, guest)); !state.HasHosts {
		t.Fatal("guest snapshot should report hosts")
	}

	svc.Disconnect(host)
	rooms := svc.Rooms()
	if len(rooms) != 1 || rooms[0].Hosts != 0 || rooms[0].Members != 1 {
		t.Fatalf("rooms after host left = %+v", rooms)
	}

	if err := svc.Toggle(guest); err != nil {
		t.Fatal(err)
	}
	if state := lastState(t, drain(t, guest)); state.HasHosts {
		t.Fatal("snapshot still reports hosts after the host left")
	}
}

func TestRejoinLeavesPreviousRoom(t *testing.T) {
	svc, _ := newTestService(&stubPicker{}, 16)

	a := svc.Connect()
	b := svc.Connect()
	svc.Join(a, "one", true)
	svc.Join(b, "one", false)
	drain(t, b)

	svc.Join(a, "two", false)

	if got := lastUserCount(t, drain(t, b)); got != 1 {
		t.Fatalf("room one count = %d, want 1", got)
	}

	rooms := svc.Rooms()
	if len(rooms) != 2 {
		t.Fatalf("rooms = %+v", rooms)
	}
	if rooms[0].RoomID != "one" || rooms[0].Members != 1 || rooms[0].Hosts != 0 {
		t.Fatalf("room one = %+v", rooms[0])
	}
	if rooms[1].RoomID != "two" || rooms[1].Members != 1 || rooms[1].Hosts != 0 {
		t.Fatalf("room two = %+v", rooms[1])
	}

	svc.Join(a, "two", false)
	if rooms := svc.Rooms(); len(rooms) != 2 || rooms[1].Members != 1 {
		t.Fatalf("duplicate join changed membership: %+v", rooms)
	}
}

func TestConcurrentTogglesStayConsistent(t *testing.T) {
	const members = 8
	svc, _ := newTestService(&stubPicker{tracks: []string{"/songs/a.mp3", "/songs/b.mp3"}}, 256)

	sessions := make([]*Session, members)
	for i := range sessions {
		sessions[i] = svc.Connect()
		svc.Join(sessions[i], "party", false)
	}
	for _, s := range sessions {
		drain(t, s)
	}

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			if err := svc.Toggle(s); err != nil {
				t.Error(err)
			}
		}(s)
	}
	wg.Wait()

	var reference []string
	for i, s := range sessions {
		var seen []string
		for _, msg := range drain(t, s) {
			state, ok := msg.(*protocol.MusicState)
			if !ok {
				continue
			}
			if state.IsPlaying != (state.StartTime != nil) || state.IsPlaying != (state.SongURL != nil) {
				t.Fatalf("inconsistent snapshot %+v", state)
			}
			seen = append(seen, fmt.Sprint(state.IsPlaying))
		}
		if len(seen) != members {
			t.Fatalf("session %d saw %d snapshots, want %d", i, len(seen), members)
		}
		for j := 1; j < len(seen); j++ {
			if seen[j] == seen[j-1] {
				t.Fatalf("session %d saw two identical transitions in a row: %v", i, seen)
			}
		}
		if reference == nil {
			reference = seen
		} else if fmt.Sprint(reference) != fmt.Sprint(seen) {
			t.Fatalf("members saw different histories: %v vs %v", reference, seen)
		}
	}

	rooms := svc.Rooms()
	if rooms[0].IsPlaying != (members%2 == 1) {
		t.Fatalf("final state playing=%v after %d toggles", rooms[0].IsPlaying, members)
	}
}

func TestSlowConsumerIsClosed(t *testing.T) {
	svc, _ := newTestService(&stubPicker{}, 2)

	s := svc.Connect()
	svc.Join(s, "party", false)

	if !s.Closed() {
		t.Fatal("session with a full queue should be closed")
	}
	select {
	case <-s.Done():
	default:
		t.Fatal("Done() not closed")
	}
	if err := s.Enqueue([]byte("{}")); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("Enqueue() = %v, want ErrSessionClosed", err)
	}

	svc.Disconnect(s)
	if len(svc.Rooms()) != 0 {
		t.Fatal("room not collected after slow consumer disconnect")
	}
}

func TestShutdownClosesSessions(t *testing.T) {
	svc, _ := newTestService(&stubPicker{}, 16)

	a := svc.Connect()
	b := svc.Connect()
	svc.Join(a, "party", false)

	svc.Shutdown()

	if !a.Closed() || !b.Closed() {
		t.Fatal("Shutdown left sessions open")
	}
}
