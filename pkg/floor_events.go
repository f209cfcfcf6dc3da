package pkg

import "time"

const (
	// FloorTopic delivers committed changes to the floor store.
	FloorTopic = "floor.changes"
	// FloorPlanTopic carries layout snapshots from the floor-plan editor.
	FloorPlanTopic = "floor.plan"

	EventTableUpdated        = "floor.table.updated"
	EventTablesSynced        = "floor.tables.synced"
	EventOrderOpened         = "floor.order.opened"
	EventOrderUpdated        = "floor.order.updated"
	EventWaveStatusChanged   = "floor.order.wave_status_changed"
	EventOrderClosed         = "floor.order.closed"
	EventReservationChanged  = "floor.reservation.changed"
	EventReservationAssigned = "floor.reservation.assigned"
	EventWaitlistChanged     = "floor.waitlist.changed"

	// EventFloorPlanPublished identifies a layout snapshot payload.
	EventFloorPlanPublished = "floor.plan.published"
)

// FloorEvent is the notification emitted after every committed store action.
// Only the identifiers relevant to EventType are populated.
type FloorEvent struct {
	EventType     string    `json:"event_type"`
	TableID       string    `json:"table_id,omitempty"`
	OrderID       string    `json:"order_id,omitempty"`
	ReservationID string    `json:"reservation_id,omitempty"`
	WaitlistID    string    `json:"waitlist_id,omitempty"`
	WaveNumber    int       `json:"wave_number,omitempty"`
	FromStatus    string    `json:"from_status,omitempty"`
	ToStatus      string    `json:"to_status,omitempty"`
	Status        string    `json:"status,omitempty"`
	Source        string    `json:"source,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// FloorPlanEvent carries table geometry only. Live operational fields are
// never part of a layout snapshot.
type FloorPlanEvent struct {
	EventType  string           `json:"event_type"`
	Tables     []FloorPlanTable `json:"tables"`
	Source     string           `json:"source,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

type FloorPlanTable struct {
	ID       string   `json:"id"`
	Number   int      `json:"number"`
	Section  string   `json:"section"`
	Capacity int      `json:"capacity"`
	Shape    string   `json:"shape"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
}
