package floor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/appetiteclub/apt/events"

	"github.com/appetiteclub/floor/pkg"
)

var testNow = time.Date(2025, 3, 14, 19, 30, 0, 0, time.UTC)

type publishedMessage struct {
	Topic string
	Event pkg.FloorEvent
}

// MockPublisher records every floor event it receives.
type MockPublisher struct {
	mu          sync.Mutex
	PublishFunc func(ctx context.Context, topic string, msg []byte) error
	Messages    []publishedMessage
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	var evt pkg.FloorEvent
	_ = json.Unmarshal(msg, &evt)
	m.Messages = append(m.Messages, publishedMessage{Topic: topic, Event: evt})
	m.mu.Unlock()

	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	return nil
}

func (m *MockPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Messages))
	for _, msg := range m.Messages {
		out = append(out, msg.Event.EventType)
	}
	return out
}

func (m *MockPublisher) Events(eventType string) []pkg.FloorEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []pkg.FloorEvent
	for _, msg := range m.Messages {
		if msg.Event.EventType == eventType {
			out = append(out, msg.Event)
		}
	}
	return out
}

func (m *MockPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = nil
}

// MockPersister records the revisions handed to it.
type MockPersister struct {
	mu        sync.Mutex
	Revisions []uint64
	Last      State
}

func (m *MockPersister) Persist(revision uint64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Revisions = append(m.Revisions, revision)
	m.Last = st
}

// MockSlot is an in-memory SnapshotSlot.
type MockSlot struct {
	mu       sync.Mutex
	Data     map[string][]byte
	Saves    int
	LoadFunc func(ctx context.Context, key string) ([]byte, error)
	SaveFunc func(ctx context.Context, key string, data []byte) error
}

func NewMockSlot() *MockSlot {
	return &MockSlot{Data: map[string][]byte{}}
}

func (m *MockSlot) Load(ctx context.Context, key string) ([]byte, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Data[key], nil
}

func (m *MockSlot) Save(ctx context.Context, key string, data []byte) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, key, data); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = append([]byte(nil), data...)
	m.Saves++
	return nil
}

func (m *MockSlot) Get(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Data[key]
}

func (m *MockSlot) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Saves
}

// MockSubscriber hands out the registered handler so tests can deliver
// messages directly.
type MockSubscriber struct {
	Topic   string
	Handler events.HandlerFunc
	Err     error
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	m.Topic = topic
	m.Handler = handler
	return m.Err
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// steppingClock advances by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(step)
		return now
	}
}

func testTables() []Table {
	return []Table{
		{ID: "t1", Number: 1, Section: SectionMain, Capacity: 4, Shape: "square", Status: "free"},
		{ID: "t2", Number: 2, Section: SectionMain, Capacity: 2, Shape: "round", Status: "free"},
		{ID: "p1", Number: 7, Section: SectionPatio, Capacity: 6, Shape: "rectangle", Status: "free"},
	}
}

func newTestStore(tables ...Table) (*Store, *MockPublisher) {
	pub := &MockPublisher{}
	st := DefaultState()
	st.Tables = tables
	store := NewStore(st,
		WithPublisher(pub),
		WithClock(fixedClock(testNow)),
		WithIDGenerator(sequentialIDs("o")),
	)
	return store, pub
}

func intPtr(n int) *int {
	return &n
}

func strPtr(s string) *string {
	return &s
}

func item(id, status string, price float64) OrderItem {
	return OrderItem{ID: id, Name: id, Status: status, Price: price}
}
