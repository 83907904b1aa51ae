package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/wrapitup/wrapitup/pkg/protocol"
)

type Options struct {
	Dir       string
	URLPrefix string
	Ext       string
	// Intn picks an index in [0, n). Defaults to math/rand/v2.
	Intn func(n int) int
}

type probeKey struct {
	name    string
	size    int64
	modTime time.Time
}

// Catalog lists playable files of a directory as track urls. The cached list
// is shared by every room; it is refreshed when a pick finds it empty and,
// when watching, whenever a matching file appears or disappears.
type Catalog struct {
	mu     sync.RWMutex
	tracks []string

	dir    string
	prefix string
	ext    string
	intn   func(int) int
	logger *slog.Logger

	probeMu sync.Mutex
	probes  map[probeKey]float64

	watcher *fsnotify.Watcher
	closed  chan struct{}
	wg      sync.WaitGroup
}

func New(opts Options, logger *slog.Logger) *Catalog {
	if opts.Intn == nil {
		opts.Intn = rand.IntN
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		dir:    opts.Dir,
		prefix: strings.TrimSuffix(opts.URLPrefix, "/"),
		ext:    opts.Ext,
		intn:   opts.Intn,
		logger: logger.With(slog.String("component", "catalog"), slog.String("dir", opts.Dir)),
		probes: make(map[probeKey]float64),
		closed: make(chan struct{}),
	}
}

func (c *Catalog) matches(name string) bool {
	return strings.HasSuffix(name, c.ext)
}

func (c *Catalog) url(name string) string {
	return c.prefix + "/" + name
}

func (c *Catalog) readDir() ([]os.DirEntry, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("read songs directory: %w", err)
	}

	files := entries[:0]
	for _, entry := range entries {
		if entry.IsDir() || !c.matches(entry.Name()) {
			continue
		}
		files = append(files, entry)
	}
	return files, nil
}

// List reads the directory and returns the current track urls in lexical
// order without touching the cached pick list.
func (c *Catalog) List() ([]string, error) {
	files, err := c.readDir()
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		urls = append(urls, c.url(f.Name()))
	}
	return urls, nil
}

// Reload replaces the cached list. On failure the cache is emptied.
func (c *Catalog) Reload() error {
	urls, err := c.List()

	c.mu.Lock()
	c.tracks = urls
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("Error loading songs", slog.String("err", err.Error()))
		return err
	}
	c.logger.Info("Loaded songs", slog.Any("songs", urls))
	return nil
}

func (c *Catalog) Cached() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.tracks...)
}

// Pick returns a uniformly random track, reloading first when the cached
// list is empty. ok is false when the directory holds no playable file.
func (c *Catalog) Pick() (track string, ok bool) {
	c.mu.RLock()
	empty := len(c.tracks) == 0
	c.mu.RUnlock()

	if empty {
		_ = c.Reload()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.tracks) == 0 {
		return "", false
	}
	return c.tracks[c.intn(len(c.tracks))], true
}

// Tracks lists the directory with estimated durations.
func (c *Catalog) Tracks() ([]protocol.Track, error) {
	files, err := c.readDir()
	if err != nil {
		return nil, err
	}

	tracks := make([]protocol.Track, 0, len(files))
	for _, f := range files {
		tracks = append(tracks, protocol.Track{
			URL:      c.url(f.Name()),
			Duration: c.duration(f),
		})
	}
	return tracks, nil
}

func (c *Catalog) duration(entry os.DirEntry) float64 {
	info, err := entry.Info()
	if err != nil {
		return 0
	}
	key := probeKey{name: entry.Name(), size: info.Size(), modTime: info.ModTime()}

	c.probeMu.Lock()
	defer c.probeMu.Unlock()

	if d, exist := c.probes[key]; exist {
		return d
	}

	d, err := probeFile(filepath.Join(c.dir, entry.Name()))
	if err != nil {
		c.logger.Warn("Duration probe failed", slog.String("file", entry.Name()), slog.String("err", err.Error()))
		d = 0
	}
	c.probes[key] = d
	return d
}

// Watch reloads the cached list whenever a matching file is created,
// removed or renamed. It returns once the watcher is installed.
func (c *Catalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(c.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", c.dir, err)
	}
	c.watcher = watcher

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.watchLoop(ctx)
	}()
	return nil
}

func (c *Catalog) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if !c.matches(path.Base(filepath.ToSlash(event.Name))) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				c.logger.Debug("Songs directory changed", slog.String("event", event.String()))
				_ = c.Reload()
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("Watcher error", slog.String("err", err.Error()))
		}
	}
}

func (c *Catalog) Close() error {
	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
	}

	var err error
	if c.watcher != nil {
		err = c.watcher.Close()
	}
	c.wg.Wait()
	return err
}
