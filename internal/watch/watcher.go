// Package watch implements the ingestion watcher: it observes a
// workspace's snapshot directory and triggers index + schema
// regeneration when a new snapshot lands. Modeled on codenerd's
// internal/core.MangleWatcher, but the debounce coalescing is a plain
// timer-based state machine rather than a ticker-poll loop, since a
// single re-armable timer models "idle -> armed(t) -> indexing -> idle"
// directly.
package watch

import (
	"context"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/indexer"
	"github.com/nbbaier/supertag/internal/logging"
	"github.com/nbbaier/supertag/internal/schema"
	"github.com/nbbaier/supertag/internal/store"
)

// State is one of the watcher's three lifecycle states.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateIndexing
)

func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateIndexing:
		return "indexing"
	default:
		return "idle"
	}
}

var snapshotPattern = regexp.MustCompile(`.*@\d{4}-\d{2}-\d{2}\.json$`)

// Config configures a Watcher.
type Config struct {
	SnapshotDir     string
	SchemaCachePath string
	DebounceMS      int
	Store           *store.Store
}

func (c Config) debounce() time.Duration {
	if c.DebounceMS <= 0 {
		return time.Second
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Watcher runs the idle -> armed(t) -> indexing -> idle state machine
// described for the ingestion watcher: any detected event (re)arms a
// debounce timer, and on expiry index_latest() runs against the
// lexicographically-greatest matching snapshot file.
type Watcher struct {
	cfg Config
	fsw *fsnotify.Watcher

	mu      sync.Mutex
	state   State
	timer   *time.Timer
	rearm   bool // a change arrived while indexing; re-arm once it finishes
	running bool

	Indexed chan *indexer.IndexReport
	Errors  chan error

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a Watcher over cfg.SnapshotDir. It does not start watching
// until Start is called.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, superr.Wrap(superr.InternalError, err, "creating filesystem watcher")
	}
	return &Watcher{
		cfg:     cfg,
		fsw:     fsw,
		Indexed: make(chan *indexer.IndexReport, 8),
		Errors:  make(chan error, 8),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start begins watching cfg.SnapshotDir. Non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.state = StateIdle
	w.mu.Unlock()

	if err := w.fsw.Add(w.cfg.SnapshotDir); err != nil {
		return superr.Wrap(superr.InternalError, err, "watching snapshot directory "+w.cfg.SnapshotDir)
	}

	go w.run(ctx)
	return nil
}

// Stop transitions the watcher to idle from any state, cancels any
// pending debounce timer, and stops the fsnotify watch.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.state = StateIdle
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.fsw.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	// expired fires whenever the debounce timer completes; it is a
	// buffered channel so timer callbacks never block on the select
	// loop below.
	expired := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !(event.Op&(fsnotify.Create|fsnotify.Write) != 0) {
				continue
			}
			if !snapshotPattern.MatchString(event.Name) {
				continue
			}
			w.arm(expired)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Error("filesystem watch error: %v", err)
			w.emitError(superr.Wrap(superr.InternalError, err, "filesystem watch error"))
		case <-expired:
			w.onExpire(ctx, expired)
		}
	}
}

// arm (re)arms the debounce timer. A change seen while indexing just
// sets rearm so the timer restarts once indexing completes.
func (w *Watcher) arm(expired chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateIndexing {
		w.rearm = true
		return
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.state = StateArmed
	d := w.cfg.debounce()
	w.timer = time.AfterFunc(d, func() {
		select {
		case expired <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) onExpire(ctx context.Context, expired chan struct{}) {
	w.mu.Lock()
	if w.state != StateArmed {
		w.mu.Unlock()
		return
	}
	w.state = StateIndexing
	w.timer = nil
	w.mu.Unlock()

	report, err := IndexLatest(ctx, w.cfg)
	if err != nil {
		logging.Get(logging.CategoryWatch).Error("index_latest failed: %v", err)
		w.emitError(err)
	} else if report != nil {
		w.emitIndexed(report)
	}

	w.mu.Lock()
	w.state = StateIdle
	needsRearm := w.rearm
	w.rearm = false
	w.mu.Unlock()

	if needsRearm {
		w.arm(expired)
	}
}

func (w *Watcher) emitIndexed(r *indexer.IndexReport) {
	select {
	case w.Indexed <- r:
	default:
	}
}

func (w *Watcher) emitError(err error) {
	select {
	case w.Errors <- err:
	default:
	}
}

// State returns the watcher's current lifecycle state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// IndexLatest picks the lexicographically-greatest matching snapshot
// filename in cfg.SnapshotDir, indexes it, and regenerates the schema
// catalog document. It is exported so callers outside the watcher
// (the sync RPC tool) can trigger the same ingestion path on demand.
func IndexLatest(ctx context.Context, cfg Config) (*indexer.IndexReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, superr.Wrap(superr.Timeout, err, "index_latest cancelled")
	}

	path, err := LatestSnapshot(cfg.SnapshotDir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		// The file that triggered the timer may have been removed
		// again before expiry; that's not an error.
		return nil, nil
	}

	report, err := indexer.IndexSnapshot(cfg.Store, path)
	if err != nil {
		return nil, err
	}

	if cfg.SchemaCachePath != "" {
		svc := schema.New(cfg.Store.DB())
		tags, err := svc.ListSupertags()
		if err != nil {
			return report, superr.Wrap(superr.InternalError, err, "listing supertags for schema cache")
		}
		if err := schema.WriteCatalogDocument(cfg.SchemaCachePath, schema.ToCatalogDocument(tags)); err != nil {
			return report, err
		}
	}

	return report, nil
}

// LatestSnapshot returns the lexicographically-greatest filename in
// dir matching the snapshot pattern, or "" if none match.
func LatestSnapshot(dir string) (string, error) {
	entries, err := readDirNames(dir)
	if err != nil {
		return "", superr.Wrap(superr.InternalError, err, "reading snapshot directory "+dir)
	}
	var best string
	for _, name := range entries {
		if !snapshotPattern.MatchString(name) {
			continue
		}
		if name > best {
			best = name
		}
	}
	if best == "" {
		return "", nil
	}
	return filepath.Join(dir, best), nil
}
