package floor

import (
	"context"
	"errors"
	"testing"
	"time"
)

const testSlotKey = "restaurant-store"

func stateWithTables(n int) State {
	st := DefaultState()
	for i := 0; i < n; i++ {
		st.Tables = append(st.Tables, Table{ID: string(rune('a' + i)), Number: i + 1})
	}
	return st
}

func TestSnapshotWriterFlush(t *testing.T) {
	slot := NewMockSlot()
	w := NewSnapshotWriter(slot, testSlotKey, nil)

	w.Persist(1, stateWithTables(1))
	w.Flush(context.Background())

	st, ok := DecodeSnapshot(slot.Get(testSlotKey), testNow)
	if !ok {
		t.Fatal("saved snapshot is not decodable")
	}
	if len(st.Tables) != 1 {
		t.Errorf("len(Tables) = %d, want 1", len(st.Tables))
	}
}

func TestSnapshotWriterCoalesces(t *testing.T) {
	slot := NewMockSlot()
	w := NewSnapshotWriter(slot, testSlotKey, nil)

	w.Persist(1, stateWithTables(1))
	w.Persist(3, stateWithTables(3))
	w.Persist(2, stateWithTables(2))
	w.Flush(context.Background())
	w.Flush(context.Background())

	if got := slot.SaveCount(); got != 1 {
		t.Errorf("saves = %d, want 1", got)
	}
	st, _ := DecodeSnapshot(slot.Get(testSlotKey), testNow)
	if len(st.Tables) != 3 {
		t.Errorf("len(Tables) = %d, want newest revision with 3", len(st.Tables))
	}

	w.Persist(2, stateWithTables(2))
	w.Flush(context.Background())
	if got := slot.SaveCount(); got != 1 {
		t.Errorf("saves = %d, want stale revision skipped", got)
	}
}

func TestSnapshotWriterSwallowsSaveErrors(t *testing.T) {
	slot := NewMockSlot()
	fail := true
	slot.SaveFunc = func(ctx context.Context, key string, data []byte) error {
		if fail {
			return errors.New("quota exceeded")
		}
		return nil
	}
	w := NewSnapshotWriter(slot, testSlotKey, nil)

	w.Persist(1, stateWithTables(1))
	w.Flush(context.Background())
	if got := slot.SaveCount(); got != 0 {
		t.Fatalf("saves = %d, want 0", got)
	}

	fail = false
	w.Persist(2, stateWithTables(2))
	w.Flush(context.Background())
	if got := slot.SaveCount(); got != 1 {
		t.Errorf("saves = %d, want 1 after recovery", got)
	}
}

func TestSnapshotWriterBackground(t *testing.T) {
	slot := NewMockSlot()
	w := NewSnapshotWriter(slot, testSlotKey, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	st := DefaultState()
	st.Tables = testTables()
	store := NewStore(st, WithPersister(w))
	store.UpdateTable("t1", TablePatch{Status: strPtr("active")})

	deadline := time.Now().Add(time.Second)
	for slot.SaveCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if slot.SaveCount() == 0 {
		t.Fatal("background writer never saved")
	}

	store.UpdateTable("t2", TablePatch{Status: strPtr("cleaning")})
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	saved, ok := DecodeSnapshot(slot.Get(testSlotKey), testNow)
	if !ok {
		t.Fatal("saved snapshot is not decodable")
	}
	if saved.Tables[0].Status != "active" || saved.Tables[1].Status != "cleaning" {
		t.Errorf("saved statuses = %s/%s, want active/cleaning", saved.Tables[0].Status, saved.Tables[1].Status)
	}
}

func TestSnapshotWriterStopWithoutStart(t *testing.T) {
	slot := NewMockSlot()
	w := NewSnapshotWriter(slot, testSlotKey, nil)
	w.Persist(1, stateWithTables(1))

	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if got := slot.SaveCount(); got != 1 {
		t.Errorf("saves = %d, want pending snapshot flushed", got)
	}
}

func TestLoadState(t *testing.T) {
	valid, err := EncodeSnapshot(stateWithTables(2))
	if err != nil {
		t.Fatalf("EncodeSnapshot() error = %v", err)
	}

	tests := []struct {
		name       string
		slot       *MockSlot
		wantOK     bool
		wantTables int
	}{
		{
			name:   "missing",
			slot:   NewMockSlot(),
			wantOK: false,
		},
		{
			name: "valid",
			slot: func() *MockSlot {
				s := NewMockSlot()
				s.Data[testSlotKey] = valid
				return s
			}(),
			wantOK:     true,
			wantTables: 2,
		},
		{
			name: "corrupt",
			slot: func() *MockSlot {
				s := NewMockSlot()
				s.Data[testSlotKey] = []byte(`{"version":2,"data":`)
				return s
			}(),
			wantOK: false,
		},
		{
			name: "loadError",
			slot: func() *MockSlot {
				s := NewMockSlot()
				s.LoadFunc = func(ctx context.Context, key string) ([]byte, error) {
					return nil, errors.New("disk unavailable")
				}
				return s
			}(),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := LoadState(context.Background(), tt.slot, testSlotKey, nil, testNow)
			if ok != tt.wantOK {
				t.Fatalf("LoadState() ok = %v, want %v", ok, tt.wantOK)
			}
			if len(st.Tables) != tt.wantTables {
				t.Errorf("len(Tables) = %d, want %d", len(st.Tables), tt.wantTables)
			}
			if st.Tables == nil {
				t.Error("Tables = nil, want a list")
			}
		})
	}
}
