package floor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/appetiteclub/floor/pkg"
)

func TestTablesFromPlan(t *testing.T) {
	width := 160.0
	plan := []pkg.FloorPlanTable{
		{ID: "T5", Number: 5, Section: SectionMain, Capacity: 6, Shape: "rectangle", X: 80, Y: 220, Width: &width},
		{ID: "", Number: 99},
		{ID: "p1", Number: 7, Section: SectionPatio, Capacity: 4, Shape: "round", X: 10, Y: 20},
	}

	tables := TablesFromPlan(plan)

	if len(tables) != 2 {
		t.Fatalf("len(tables) = %d, want 2", len(tables))
	}
	if tables[0].ID != "t5" {
		t.Errorf("ID = %q, want normalized t5", tables[0].ID)
	}
	if tables[0].Status != "free" {
		t.Errorf("Status = %q, want free", tables[0].Status)
	}
	if tables[0].Width == nil || *tables[0].Width != 160 {
		t.Errorf("Width = %v, want 160", tables[0].Width)
	}
	width = 1
	if *tables[0].Width != 160 {
		t.Error("Width shares memory with the plan")
	}
	if tables[1].Position != (Position{X: 10, Y: 20}) {
		t.Errorf("Position = %+v, want {10 20}", tables[1].Position)
	}
}

func TestSeedTables(t *testing.T) {
	tables, err := SeedTables()
	if err != nil {
		t.Fatalf("SeedTables() error = %v", err)
	}
	if len(tables) != 13 {
		t.Fatalf("len(tables) = %d, want 13", len(tables))
	}

	seen := map[string]bool{}
	for _, tbl := range tables {
		if seen[tbl.ID] {
			t.Errorf("duplicate table id %q", tbl.ID)
		}
		seen[tbl.ID] = true
		if tbl.Status != "free" {
			t.Errorf("table %s status = %q, want free", tbl.ID, tbl.Status)
		}
	}
	if errs := ValidateTables(tables); len(errs) > 0 {
		t.Errorf("ValidateTables() = %v", errs)
	}
}

func TestFloorPlanSubscriber(t *testing.T) {
	store, pub := newTestStore(testTables()...)
	if _, ok := store.OpenOrderForTable("t1", 3); !ok {
		t.Fatal("OpenOrderForTable() failed")
	}
	store.UpdateTable("t1", TablePatch{Status: strPtr("active"), Guests: intPtr(3)})
	pub.Reset()

	sub := &MockSubscriber{}
	fps := NewFloorPlanSubscriber(sub, store, nil)
	if err := fps.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if sub.Topic != pkg.FloorPlanTopic {
		t.Fatalf("subscribed to %q, want %q", sub.Topic, pkg.FloorPlanTopic)
	}

	deliver := func(t *testing.T, payload any) {
		t.Helper()
		var msg []byte
		switch p := payload.(type) {
		case string:
			msg = []byte(p)
		default:
			var err error
			msg, err = json.Marshal(p)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
		}
		if err := sub.Handler(context.Background(), msg); err != nil {
			t.Fatalf("handler error = %v", err)
		}
	}

	t.Run("invalidJSON", func(t *testing.T) {
		before := store.Revision()
		deliver(t, "{not json")
		if store.Revision() != before {
			t.Error("invalid message changed the store")
		}
	})

	t.Run("otherEventType", func(t *testing.T) {
		before := store.Revision()
		deliver(t, pkg.FloorPlanEvent{
			EventType: "floor.plan.draft",
			Tables:    []pkg.FloorPlanTable{{ID: "x1", Number: 40}},
		})
		if store.Revision() != before {
			t.Error("draft event changed the store")
		}
	})

	t.Run("publishedPlan", func(t *testing.T) {
		deliver(t, pkg.FloorPlanEvent{
			EventType: pkg.EventFloorPlanPublished,
			Tables: []pkg.FloorPlanTable{
				{ID: "t1", Number: 1, Section: SectionMain, Capacity: 8, Shape: "rectangle", X: 5, Y: 5},
				{ID: "t9", Number: 9, Section: SectionBar, Capacity: 2, Shape: "round"},
			},
		})

		tables := store.GetTables()
		if len(tables) != 2 {
			t.Fatalf("len(tables) = %d, want 2", len(tables))
		}
		t1, _ := store.GetTable("t1")
		if t1.Capacity != 8 {
			t.Errorf("Capacity = %d, want layout value 8", t1.Capacity)
		}
		if t1.Status != "active" || t1.Guests != 3 || t1.OrderID == "" {
			t.Errorf("t1 lost live state: status=%q guests=%d orderId=%q", t1.Status, t1.Guests, t1.OrderID)
		}
		t9, ok := store.GetTable("t9")
		if !ok || t9.Status != "free" {
			t.Errorf("t9 = %+v, want new free table", t9)
		}
		if got := pub.EventTypes(); len(got) != 1 || got[0] != pkg.EventTablesSynced {
			t.Errorf("events = %v, want [%s]", got, pkg.EventTablesSynced)
		}
	})
}

func TestFloorPlanSubscriberStartErrors(t *testing.T) {
	store, _ := newTestStore()

	if err := NewFloorPlanSubscriber(nil, store, nil).Start(context.Background()); err == nil {
		t.Error("Start() without subscriber succeeded")
	}

	sub := &MockSubscriber{Err: errors.New("no connection")}
	if err := NewFloorPlanSubscriber(sub, store, nil).Start(context.Background()); err == nil {
		t.Error("Start() error = nil, want subscribe failure")
	}
}
