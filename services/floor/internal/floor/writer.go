package floor

import (
	"context"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
)

const defaultSaveTimeout = 5 * time.Second

// SnapshotSlot is a durable key/value location for encoded snapshots. Load
// returns nil data and no error when the key has never been written.
type SnapshotSlot interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// SnapshotWriter persists committed states in the background. Only the
// newest pending revision is kept, so a burst of commits results in a single
// write. Failures are logged and dropped.
type SnapshotWriter struct {
	slot    SnapshotSlot
	key     string
	logger  apt.Logger
	timeout time.Duration

	mu       sync.Mutex
	pending  *pendingSnapshot
	flushMu  sync.Mutex
	written  uint64
	notify   chan struct{}
	stop     chan struct{}
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

type pendingSnapshot struct {
	revision uint64
	state    State
}

func NewSnapshotWriter(slot SnapshotSlot, key string, logger apt.Logger) *SnapshotWriter {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &SnapshotWriter{
		slot:    slot,
		key:     key,
		logger:  logger,
		timeout: defaultSaveTimeout,
		notify:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Persist queues st for writing. A revision older than the queued one is
// ignored.
func (w *SnapshotWriter) Persist(revision uint64, st State) {
	w.mu.Lock()
	if w.pending == nil || revision > w.pending.revision {
		w.pending = &pendingSnapshot{revision: revision, state: st}
	}
	w.mu.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *SnapshotWriter) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	go w.run(ctx)
	w.logger.Info("snapshot writer started", "key", w.key)
	return nil
}

func (w *SnapshotWriter) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-w.notify:
			w.Flush(ctx)
		}
	}
}

// Stop ends the background loop and writes whatever is still pending.
func (w *SnapshotWriter) Stop(ctx context.Context) error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()

	if started {
		w.stopOnce.Do(func() { close(w.stop) })
		select {
		case <-w.done:
		case <-ctx.Done():
		}
	}
	w.Flush(ctx)
	w.logger.Info("snapshot writer stopped", "key", w.key)
	return nil
}

// Flush writes the pending snapshot, if any, before returning.
func (w *SnapshotWriter) Flush(ctx context.Context) {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.mu.Lock()
	p := w.pending
	w.pending = nil
	w.mu.Unlock()

	if p == nil || (w.written > 0 && p.revision <= w.written) {
		return
	}

	data, err := EncodeSnapshot(p.state)
	if err != nil {
		w.logger.Error("cannot encode snapshot", "error", err, "revision", p.revision)
		return
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()
	if err := w.slot.Save(saveCtx, w.key, data); err != nil {
		w.logger.Error("cannot save snapshot", "error", err, "key", w.key, "revision", p.revision)
		return
	}
	w.written = p.revision
	w.logger.Debug("snapshot saved", "key", w.key, "revision", p.revision)
}

// LoadState reads and decodes the snapshot stored under key. A missing,
// unreadable or invalid snapshot yields DefaultState and false.
func LoadState(ctx context.Context, slot SnapshotSlot, key string, logger apt.Logger, now time.Time) (State, bool) {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	data, err := slot.Load(ctx, key)
	if err != nil {
		logger.Error("cannot load snapshot", "error", err, "key", key)
		return DefaultState(), false
	}
	if len(data) == 0 {
		logger.Info("no snapshot found", "key", key)
		return DefaultState(), false
	}
	st, ok := DecodeSnapshot(data, now)
	if !ok {
		logger.Info("discarding unreadable snapshot", "key", key)
		return DefaultState(), false
	}
	logger.Info("snapshot loaded", "key", key, "tables", len(st.Tables), "orders", len(st.Orders))
	return st, true
}
