package floor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/appetiteclub/floor/pkg"
)

func TestNewStoreNormalizesTableIDs(t *testing.T) {
	store, _ := newTestStore(Table{ID: " T1 ", Number: 1}, Table{ID: "Patio-2", Number: 2})

	tables := store.GetTables()
	if tables[0].ID != "t1" || tables[1].ID != "patio-2" {
		t.Errorf("table ids = %q, %q, want t1, patio-2", tables[0].ID, tables[1].ID)
	}
}

func TestNewStoreRepairsDanglingOrderLinks(t *testing.T) {
	st := DefaultState()
	st.Tables = []Table{
		{ID: "t1", OrderID: "missing"},
		{ID: "t2", OrderID: "closed"},
		{ID: "t3", OrderID: "open"},
	}
	st.Orders = []Order{
		{ID: "closed", TableID: "t2", Status: OrderClosed},
		{ID: "open", TableID: "t3", Status: OrderOpen},
	}

	store := NewStore(st)

	want := map[string]string{"t1": "", "t2": "", "t3": "open"}
	for id, orderID := range want {
		table, _ := store.GetTable(id)
		if table.OrderID != orderID {
			t.Errorf("table %s OrderID = %q, want %q", id, table.OrderID, orderID)
		}
	}
}

func TestStoreGetTable(t *testing.T) {
	st := DefaultState()
	st.Tables = []Table{{ID: "t1", Number: 1}}
	store := NewStore(st)

	tests := []struct {
		name  string
		id    string
		found bool
	}{
		{name: "exact", id: "t1", found: true},
		{name: "upperCase", id: "T1", found: true},
		{name: "padded", id: " t1 ", found: true},
		{name: "unknown", id: "t9", found: false},
		{name: "empty", id: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, found := store.GetTable(tt.id)
			if found != tt.found {
				t.Fatalf("GetTable(%q) found = %v, want %v", tt.id, found, tt.found)
			}
			if found && table.ID != "t1" {
				t.Errorf("GetTable(%q).ID = %q, want t1", tt.id, table.ID)
			}
		})
	}
}

func TestStoreGetTableMatchesLegacyID(t *testing.T) {
	store := NewStore(DefaultState())
	// Simulate a table committed before ids were normalized.
	store.state.Tables = []Table{{ID: "Bar-1", Number: 3}}

	for _, id := range []string{"Bar-1", "bar-1", "BAR-1"} {
		if _, found := store.GetTable(id); !found {
			t.Errorf("GetTable(%q) not found", id)
		}
	}
}

func TestStoreGetTableReturnsCopy(t *testing.T) {
	store, _ := newTestStore(testTables()...)
	table, _ := store.GetTable("t1")
	table.Status = "urgent"
	table.Alerts = append(table.Alerts, AlertWaiting)

	again, _ := store.GetTable("t1")
	if again.Status != "free" || len(again.Alerts) != 0 {
		t.Errorf("store table was mutated through a returned copy: %+v", again)
	}
}

func TestStoreUpdateTable(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		patch     TablePatch
		wantFound bool
		check     func(t *testing.T, table Table)
	}{
		{
			name:      "unknownTable",
			id:        "t9",
			patch:     TablePatch{Status: strPtr("active")},
			wantFound: false,
		},
		{
			name:      "mergesFields",
			id:        "T1",
			patch:     TablePatch{Status: strPtr("active"), Guests: intPtr(3), ServerName: strPtr("Ana")},
			wantFound: true,
			check: func(t *testing.T, table Table) {
				if table.Status != "active" || table.Guests != 3 || table.ServerName != "Ana" {
					t.Errorf("UpdateTable() = %+v", table)
				}
				if table.Capacity != 4 {
					t.Errorf("Capacity = %d, want untouched 4", table.Capacity)
				}
			},
		},
		{
			name:      "neverChangesID",
			id:        "t1",
			patch:     TablePatch{ID: strPtr("t42"), Stage: strPtr(StageDrinks)},
			wantFound: true,
			check: func(t *testing.T, table Table) {
				if table.ID != "t1" {
					t.Errorf("ID = %q, want t1", table.ID)
				}
				if table.Stage != StageDrinks {
					t.Errorf("Stage = %q, want %q", table.Stage, StageDrinks)
				}
			},
		},
		{
			name:      "clearsSeatedAt",
			id:        "t1",
			patch:     TablePatch{ClearSeatedAt: true},
			wantFound: true,
			check: func(t *testing.T, table Table) {
				if table.SeatedAt != nil {
					t.Errorf("SeatedAt = %v, want nil", table.SeatedAt)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore(testTables()...)

			table, found := store.UpdateTable(tt.id, tt.patch)
			if found != tt.wantFound {
				t.Fatalf("UpdateTable() found = %v, want %v", found, tt.wantFound)
			}
			if tt.check != nil {
				tt.check(t, table)
				stored, _ := store.GetTable(tt.id)
				tt.check(t, stored)
			}
		})
	}
}

func TestStoreUpdateTableNoopSkipsCommit(t *testing.T) {
	store, pub := newTestStore(testTables()...)

	if _, found := store.UpdateTable("t1", TablePatch{Status: strPtr("free")}); !found {
		t.Fatal("UpdateTable() not found")
	}
	if got := store.Revision(); got != 0 {
		t.Errorf("Revision() = %d, want 0 after a no-op update", got)
	}
	if len(pub.Messages) != 0 {
		t.Errorf("published %d events for a no-op update", len(pub.Messages))
	}

	store.UpdateTable("t1", TablePatch{Status: strPtr("active")})
	if got := store.Revision(); got != 1 {
		t.Errorf("Revision() = %d, want 1", got)
	}
	events := pub.Events(pkg.EventTableUpdated)
	if len(events) != 1 || events[0].TableID != "t1" || events[0].Status != "active" {
		t.Errorf("table updated events = %+v", events)
	}
	if events[0].Source != floorEventSource {
		t.Errorf("Source = %q, want %q", events[0].Source, floorEventSource)
	}
}

func TestStoreSetTablesPreservesLiveState(t *testing.T) {
	seatedAt := testNow.Add(-time.Hour)
	session := NewSession(2)
	st := DefaultState()
	st.Tables = []Table{{
		ID:            "t1",
		Number:        1,
		Capacity:      2,
		Shape:         "round",
		Position:      Position{X: 10, Y: 10},
		Status:        "active",
		Guests:        2,
		ServerID:      "s1",
		ServerName:    "Ana",
		OrderID:       "o1",
		ReservationID: "r1",
		SeatedAt:      &seatedAt,
		Stage:         StageFood,
		Alerts:        []string{AlertFoodReady},
		CombinedWith:  "t2",
		SessionID:     "sess-1",
		Session:       &session,
	}}
	st.Orders = []Order{{ID: "o1", TableID: "t1", Status: OrderOpen}}
	store := NewStore(st, WithClock(fixedClock(testNow)))

	width := 120.0
	store.SetTables([]Table{
		{ID: "T1", Number: 11, Section: "terrace", Capacity: 6, Shape: "rectangle", Position: Position{X: 50, Y: 60}, Width: &width, Status: "free"},
		{ID: "t5", Number: 5, Capacity: 4, Status: "free"},
	})

	tables := store.GetTables()
	if len(tables) != 2 {
		t.Fatalf("len(GetTables()) = %d, want 2", len(tables))
	}

	got := tables[0]
	if got.ID != "t1" {
		t.Errorf("ID = %q, want t1", got.ID)
	}
	if got.Number != 11 || got.Section != "terrace" || got.Capacity != 6 || got.Shape != "rectangle" {
		t.Errorf("layout fields not taken from incoming: %+v", got)
	}
	if got.Position != (Position{X: 50, Y: 60}) || got.Width == nil || *got.Width != 120 {
		t.Errorf("geometry not taken from incoming: %+v", got)
	}
	if got.Status != "active" || got.Guests != 2 || got.ServerID != "s1" || got.ServerName != "Ana" {
		t.Errorf("live fields lost: %+v", got)
	}
	if got.OrderID != "o1" || got.ReservationID != "r1" || got.Stage != StageFood {
		t.Errorf("links lost: %+v", got)
	}
	if got.SeatedAt == nil || !got.SeatedAt.Equal(seatedAt) {
		t.Errorf("SeatedAt = %v, want %v", got.SeatedAt, seatedAt)
	}
	if len(got.Alerts) != 1 || got.Alerts[0] != AlertFoodReady {
		t.Errorf("Alerts = %v", got.Alerts)
	}
	if got.CombinedWith != "t2" || got.SessionID != "sess-1" {
		t.Errorf("CombinedWith/SessionID = %q/%q", got.CombinedWith, got.SessionID)
	}
	if got.Session == nil || got.Session.GuestCount != 2 {
		t.Errorf("Session = %+v, want preserved", got.Session)
	}

	if tables[1].ID != "t5" || tables[1].Status != "free" {
		t.Errorf("new table = %+v", tables[1])
	}
}

func TestStoreSetTablesKeepsIncomingLinksWhenExistingHasNone(t *testing.T) {
	store, _ := newTestStore(Table{ID: "t1", Status: "free"})

	store.SetTables([]Table{{ID: "t1", CombinedWith: "t2", SessionID: "s9", Status: "urgent"}})

	got, _ := store.GetTable("t1")
	if got.CombinedWith != "t2" || got.SessionID != "s9" {
		t.Errorf("CombinedWith/SessionID = %q/%q, want incoming values", got.CombinedWith, got.SessionID)
	}
	if got.Status != "free" {
		t.Errorf("Status = %q, want existing free", got.Status)
	}
}

func TestStoreSetTablesIdenticalIsNoop(t *testing.T) {
	store, pub := newTestStore(testTables()...)

	store.SetTables(testTables())

	if got := store.Revision(); got != 0 {
		t.Errorf("Revision() = %d, want 0", got)
	}
	if len(pub.Messages) != 0 {
		t.Errorf("published %v", pub.EventTypes())
	}
}

func TestStorePersistsEveryCommit(t *testing.T) {
	persister := &MockPersister{}
	st := DefaultState()
	st.Tables = testTables()
	store := NewStore(st, WithPersister(persister), WithClock(fixedClock(testNow)))

	store.UpdateTable("t1", TablePatch{Status: strPtr("active")})
	store.UpdateTable("t1", TablePatch{Status: strPtr("active")})
	store.UpdateTable("t2", TablePatch{Guests: intPtr(2)})

	if len(persister.Revisions) != 2 || persister.Revisions[0] != 1 || persister.Revisions[1] != 2 {
		t.Errorf("persisted revisions = %v, want [1 2]", persister.Revisions)
	}
	if persister.Last.Tables[1].Guests != 2 {
		t.Errorf("last persisted state = %+v", persister.Last.Tables[1])
	}
}

func TestStorePublishFailureKeepsState(t *testing.T) {
	pub := &MockPublisher{
		PublishFunc: func(ctx context.Context, topic string, msg []byte) error {
			return errors.New("bus down")
		},
	}
	st := DefaultState()
	st.Tables = testTables()
	store := NewStore(st, WithPublisher(pub))

	table, found := store.UpdateTable("t1", TablePatch{Status: strPtr("billing")})
	if !found || table.Status != "billing" {
		t.Fatalf("UpdateTable() = %+v, %v", table, found)
	}
	stored, _ := store.GetTable("t1")
	if stored.Status != "billing" {
		t.Errorf("Status = %q, want billing", stored.Status)
	}
	if len(pub.Messages) != 1 || pub.Messages[0].Topic != pkg.FloorTopic {
		t.Errorf("messages = %+v", pub.Messages)
	}
}

func TestStoreSnapshotIsIsolated(t *testing.T) {
	store, _ := newTestStore(testTables()...)

	snap := store.Snapshot()
	snap.Tables[0].Status = "closed"
	snap.Tables = append(snap.Tables, Table{ID: "x"})

	if got := len(store.GetTables()); got != 3 {
		t.Errorf("len(GetTables()) = %d, want 3", got)
	}
	if table, _ := store.GetTable("t1"); table.Status != "free" {
		t.Errorf("Status = %q, want free", table.Status)
	}
}
