package floor

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/floor/pkg"
)

const floorEventSource = "floor-service"

// Persister receives every committed state together with a revision that
// increases with each commit.
type Persister interface {
	Persist(revision uint64, state State)
}

// Store owns the floor state. Each action is applied to a private copy of
// the current state and committed as a whole, so readers never observe a
// half-applied action.
type Store struct {
	mu        sync.RWMutex
	state     State
	revision  uint64
	persister Persister
	publisher pkg.Publisher
	logger    apt.Logger
	now       func() time.Time
	newID     func() string
}

type Option func(*Store)

func WithLogger(logger apt.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

func WithPublisher(p pkg.Publisher) Option {
	return func(s *Store) {
		s.publisher = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func NewStore(initial State, opts ...Option) *Store {
	s := &Store{
		logger: apt.NewNoopLogger(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return apt.GenerateNewID().String() },
	}
	for _, opt := range opts {
		opt(s)
	}

	state := initial.Clone()
	for i := range state.Tables {
		state.Tables[i].ID = NormalizeTableID(state.Tables[i].ID)
	}
	state.repairOrderLinks()
	s.state = state
	return s
}

// mutate runs fn on a copy of the current state and commits the copy when fn
// reports a change. Persistence and publishing happen after the lock is
// released and never affect the committed state.
func (s *Store) mutate(fn func(st *State, now time.Time) (bool, []pkg.FloorEvent)) bool {
	s.mu.Lock()
	now := s.now()
	next := s.state.Clone()
	changed, events := fn(&next, now)
	if !changed {
		s.mu.Unlock()
		return false
	}
	s.state = next
	s.revision++
	revision := s.revision
	s.mu.Unlock()

	if s.persister != nil {
		s.persister.Persist(revision, next)
	}
	s.publish(events)
	return true
}

func (s *Store) publish(events []pkg.FloorEvent) {
	if s.publisher == nil {
		return
	}
	ctx := context.Background()
	for _, evt := range events {
		evt.Source = floorEventSource
		payload, err := json.Marshal(evt)
		if err != nil {
			s.logger.Error("cannot marshal floor event", "error", err, "event_type", evt.EventType)
			continue
		}
		if err := s.publisher.Publish(ctx, pkg.FloorTopic, payload); err != nil {
			s.logger.Error("cannot publish floor event", "error", err, "event_type", evt.EventType)
		}
	}
}

// Snapshot returns a copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Revision is the number of commits since the store was created.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *Store) GetTables() []Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Table, len(s.state.Tables))
	for i := range s.state.Tables {
		out[i] = s.state.Tables[i].Clone()
	}
	return out
}

func (s *Store) GetTable(id string) (Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.state.tableIndex(id)
	if i < 0 {
		return Table{}, false
	}
	return s.state.Tables[i].Clone(), true
}

// UpdateTable merges patch into the table. The table keeps its own id even
// when the patch carries a different one.
func (s *Store) UpdateTable(id string, patch TablePatch) (Table, bool) {
	var updated Table
	found := false
	s.mutate(func(st *State, now time.Time) (bool, []pkg.FloorEvent) {
		i := st.tableIndex(id)
		if i < 0 {
			return false, nil
		}
		found = true
		current := st.Tables[i]
		next := current.Clone()
		next.apply(patch)
		next.ID = current.ID
		updated = next
		if sameJSON(current, next) {
			return false, nil
		}
		st.Tables[i] = next
		return true, []pkg.FloorEvent{{
			EventType:  pkg.EventTableUpdated,
			TableID:    next.ID,
			Status:     next.Status,
			OccurredAt: now,
		}}
	})
	if !found {
		return Table{}, false
	}
	return updated.Clone(), true
}

// SetTables replaces the table list. Tables that already exist keep their
// live operational state; only layout fields are taken from tables.
func (s *Store) SetTables(tables []Table) {
	s.mutate(func(st *State, now time.Time) (bool, []pkg.FloorEvent) {
		existing := make(map[string]Table, len(st.Tables))
		for _, t := range st.Tables {
			existing[NormalizeTableID(t.ID)] = t
		}

		next := make([]Table, 0, len(tables))
		for _, incoming := range tables {
			t := incoming.Clone()
			t.ID = NormalizeTableID(t.ID)
			if current, ok := existing[t.ID]; ok {
				t = withLiveState(t, current)
			}
			next = append(next, t)
		}

		if sameJSON(st.Tables, next) {
			return false, nil
		}
		st.Tables = next
		return true, []pkg.FloorEvent{{
			EventType:  pkg.EventTablesSynced,
			OccurredAt: now,
		}}
	})
}

// sameJSON compares two values by their serialized form. A marshal failure
// counts as a difference.
func sameJSON(a, b any) bool {
	left, err := json.Marshal(a)
	if err != nil {
		return false
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(left, right)
}
