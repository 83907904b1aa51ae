// Package listener is a headless room member: it joins over the websocket,
// follows music_state snapshots through a player backed by virtual outputs
// and reports what it would be playing.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/wrapitup/wrapitup/pkg/fade"
	"github.com/wrapitup/wrapitup/pkg/player"
	"github.com/wrapitup/wrapitup/pkg/protocol"
	"github.com/wrapitup/wrapitup/pkg/wsutils"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

const closeWait = time.Second

type Config struct {
	// ServerURL is the websocket endpoint, e.g. ws://localhost:3000/ws.
	ServerURL string
	// RoomPath is a page path such as /party or /party/host.
	RoomPath string
	// Toggle sends one toggle_music right after joining.
	Toggle bool

	FadeIn  fade.Envelope
	FadeOut fade.Envelope

	HTTPClient *http.Client
	Clock      clock.Clock
}

type Client struct {
	cfg    Config
	logger *slog.Logger

	roomID protocol.RoomID
	isHost bool
	player *player.Player

	connMu sync.Mutex
	conn   *wsutils.ThreadSafeWriter

	userCount *atomic.Int64
	states    *atomic.Int64
}

func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	roomID, isHost := protocol.ParseRoomPath(cfg.RoomPath)
	logger = logger.With(slog.String("room", roomID), slog.Bool("host", isHost))

	c := &Client{
		cfg:       cfg,
		logger:    logger,
		roomID:    roomID,
		isHost:    isHost,
		userCount: atomic.NewInt64(0),
		states:    atomic.NewInt64(0),
	}
	c.player = player.New(player.Options{
		IsHost:  isHost,
		Clock:   cfg.Clock,
		Logger:  logger,
		FadeIn:  cfg.FadeIn,
		FadeOut: cfg.FadeOut,
		Status: func(status string) {
			logger.Warn("Status", slog.String("status", status))
		},
	})
	return c
}

func (c *Client) Player() *player.Player {
	return c.player
}

func (c *Client) RoomID() protocol.RoomID {
	return c.roomID
}

func (c *Client) IsHost() bool {
	return c.isHost
}

// UserCount is the last member count the server reported.
func (c *Client) UserCount() int {
	return int(c.userCount.Load())
}

// States counts the music_state snapshots applied so far.
func (c *Client) States() int {
	return int(c.states.Load())
}

func (c *Client) tracksURL() (string, error) {
	u, err := url.Parse(c.cfg.ServerURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = "/api/tracks"
	u.RawQuery = ""
	return u.String(), nil
}

// LoadTracks registers one virtual output per track the server offers.
func (c *Client) LoadTracks(ctx context.Context) error {
	tracksURL, err := c.tracksURL()
	if err != nil {
		return fmt.Errorf("tracks url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tracksURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", tracksURL, resp.Status)
	}

	var list protocol.TrackList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return fmt.Errorf("decode tracks: %w", err)
	}

	for _, track := range list.Tracks {
		c.player.Register(track.URL, player.NewVirtualOutput(track.URL, track.Duration, c.cfg.Clock, c.logger))
	}
	c.logger.Info("Tracks loaded", slog.Int("count", len(list.Tracks)))
	return nil
}

// Run joins the room and follows it until ctx is cancelled or the server
// goes away.
func (c *Client) Run(ctx context.Context) error {
	if err := c.LoadTracks(ctx); err != nil {
		c.logger.Warn("No tracks loaded, playback will be silent", slog.String("err", err.Error()))
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.ServerURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.ServerURL, err)
	}
	w := wsutils.NewThreadSafeWriter(conn)

	c.connMu.Lock()
	c.conn = w
	c.connMu.Unlock()
	defer func() {
		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()
		c.player.Close()
	}()

	if err := w.WriteJSON(protocol.NewJoinRoom(c.roomID, c.isHost)); err != nil {
		w.Close()
		return fmt.Errorf("join: %w", err)
	}
	c.logger.Info("Joined")

	if c.cfg.Toggle {
		if err := w.WriteJSON(protocol.NewToggleMusic()); err != nil {
			w.Close()
			return fmt.Errorf("toggle: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return w.CloseGracefully(closeWait)
	})
	g.Go(func() error {
		err := c.readLoop(conn)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})

	err = g.Wait()
	if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		return nil
	}
	return err
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		msg, err := protocol.DecodeServerMessage(data)
		if err != nil {
			c.logger.Warn("Unknown frame from server", slog.String("err", err.Error()))
			continue
		}

		switch m := msg.(type) {
		case *protocol.UserCount:
			c.userCount.Store(int64(m.Count))
			c.logger.Info("Users in room", slog.Int("count", m.Count))

		case *protocol.MusicState:
			c.player.Apply(m)
			c.states.Inc()
		}
	}
}

// Toggle asks the server to flip the room's playback state.
func (c *Client) Toggle() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	if err := c.conn.WriteJSON(protocol.NewToggleMusic()); err != nil {
		return errors.Join(ErrNotConnected, err)
	}
	return nil
}
