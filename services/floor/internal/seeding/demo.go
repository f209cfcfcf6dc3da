package seeding

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/floor/pkg/enums/itemstatus"
	"github.com/appetiteclub/floor/pkg/enums/tablestatus"
	"github.com/appetiteclub/floor/services/floor/internal/floor"
)

// DemoMarker is stored in the notes of the demo waitlist entry so a seeded
// floor can be recognized.
const DemoMarker = "demo-seed"

type demoItem struct {
	seat    int
	name    string
	course  string
	status  string
	price   float64
	mods    []string
	allergy string
}

type demoTable struct {
	tableID string
	guests  int
	server  string
	items   []demoItem
	close   bool
}

var statuses = itemstatus.Statuses

var demoTables = []demoTable{
	// Couple on drinks, mains still in the kitchen
	{
		tableID: "t1",
		guests:  2,
		server:  "Marta",
		items: []demoItem{
			{seat: 1, name: "Negroni", course: floor.CourseDrinks, status: statuses.Served.Code(), price: 11},
			{seat: 2, name: "Sparkling Water", course: floor.CourseDrinks, status: statuses.Served.Code(), price: 3.5},
			{seat: 1, name: "Risotto", course: floor.CourseFood, status: statuses.Cooking.Code(), price: 18.5},
			{seat: 2, name: "Sea Bass", course: floor.CourseFood, status: statuses.Cooking.Code(), price: 24, allergy: "shellfish"},
		},
	},
	// Family of four, starters ready, dessert held
	{
		tableID: "t3",
		guests:  4,
		server:  "Luis",
		items: []demoItem{
			{seat: 1, name: "Burrata", status: statuses.Ready.Code(), price: 12, mods: []string{"Wave 1"}},
			{seat: 2, name: "Croquetas", status: statuses.Ready.Code(), price: 9, mods: []string{"Wave 1"}},
			{seat: 3, name: "Steak Frites", course: floor.CourseFood, status: statuses.Sent.Code(), price: 27},
			{seat: 4, name: "Kids Pasta", course: floor.CourseFood, status: statuses.Sent.Code(), price: 9.5},
			{seat: 4, name: "Gelato", course: floor.CourseDessert, status: statuses.Held.Code(), price: 6},
		},
	},
	// Finished patio table waiting to be cleaned
	{
		tableID: "p2",
		guests:  2,
		server:  "Marta",
		items: []demoItem{
			{seat: 1, name: "Spritz", course: floor.CourseDrinks, status: statuses.Served.Code(), price: 9},
			{seat: 2, name: "Club Sandwich", course: floor.CourseFood, status: statuses.Served.Code(), price: 14},
		},
		close: true,
	},
}

// ApplyDemo populates store with a service in progress: seated tables with
// open orders, a closed check, a reservation for tonight and a short
// waitlist. Tables come from the bundled floor plan when the store has none.
func ApplyDemo(store *floor.Store, now time.Time) error {
	if len(store.GetTables()) == 0 {
		tables, err := floor.SeedTables()
		if err != nil {
			return err
		}
		store.SetTables(tables)
	}

	for _, dt := range demoTables {
		if err := seatTable(store, dt, now); err != nil {
			return err
		}
	}

	res := store.CreateReservation(floor.Reservation{
		GuestName: "Okafor party",
		Phone:     "+34 600 123 456",
		PartySize: 6,
		Date:      now.Format("2006-01-02"),
		Time:      now.Add(90 * time.Minute).Format("15:04"),
		Duration:  120,
		Notes:     "Birthday, bring the cake at dessert",
		Customer: &floor.CustomerProfile{
			Name:        "Ada Okafor",
			VisitCount:  7,
			Tags:        []string{"regular"},
			Preferences: []string{"quiet table"},
		},
	})
	if !store.AssignReservationToTable(res.ID, "pr1") {
		return fmt.Errorf("cannot assign demo reservation %s", res.ID)
	}

	store.AddToWaitlist(floor.WaitlistEntry{
		GuestName: "Jensen",
		PartySize: 3,
		Phone:     "+34 611 222 333",
		AddedAt:   now.Add(-12 * time.Minute),
		Notes:     DemoMarker,
	})
	store.AddToWaitlist(floor.WaitlistEntry{
		GuestName: "Walk-in",
		PartySize: 2,
		AddedAt:   now.Add(-4 * time.Minute),
	})

	return nil
}

// IsSeeded reports whether the demo waitlist entry is present.
func IsSeeded(store *floor.Store) bool {
	for _, e := range store.GetWaitlist() {
		if e.Notes == DemoMarker {
			return true
		}
	}
	return false
}

func seatTable(store *floor.Store, dt demoTable, now time.Time) error {
	seatedAt := now.Add(-45 * time.Minute)
	_, ok := store.UpdateTable(dt.tableID, floor.TablePatch{
		Status:     ptr(tablestatus.Statuses.Active.Code()),
		Guests:     ptr(dt.guests),
		ServerName: ptr(dt.server),
		SeatedAt:   &seatedAt,
	})
	if !ok {
		return fmt.Errorf("demo table %s not found", dt.tableID)
	}

	orderID, ok := store.OpenOrderForTable(dt.tableID, dt.guests)
	if !ok {
		return fmt.Errorf("cannot open demo order for table %s", dt.tableID)
	}

	session := floor.NewSession(dt.guests)
	for _, di := range dt.items {
		item := floor.OrderItem{
			ID:           uuid.NewString(),
			Name:         di.name,
			Wave:         di.course,
			Mods:         di.mods,
			Price:        di.price,
			Status:       di.status,
			AllergyAlert: di.allergy,
		}
		if !session.AddSeatItem(di.seat, item) {
			session.AddTableItem(item)
		}
	}
	session.WaveCount = len(floor.BuildOrderWaves(session))
	session.Status = floor.DeriveSessionStatus(session)
	session.Bill = floor.CalculateSessionBill(session)

	if _, ok := store.SyncOrderSession(dt.tableID, session); !ok {
		return fmt.Errorf("cannot sync demo session for table %s", dt.tableID)
	}

	if dt.close {
		store.CloseOrder(orderID, nil)
		store.UpdateTable(dt.tableID, floor.TablePatch{
			Status: ptr(tablestatus.Statuses.Cleaning.Code()),
		})
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
