package floor

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Legacy sections. Floor plans may define any other section id.
const (
	SectionMain    = "main"
	SectionPatio   = "patio"
	SectionBar     = "bar"
	SectionPrivate = "private"
)

// Meal stages a table moves through.
const (
	StageDrinks  = "drinks"
	StageFood    = "food"
	StageDessert = "dessert"
	StageBill    = "bill"
)

// Table alerts.
const (
	AlertFoodReady    = "food_ready"
	AlertNoCheckin    = "no_checkin"
	AlertWaiting      = "waiting"
	AlertKitchenDelay = "kitchen_delay"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Table struct {
	ID            string     `json:"id"`
	Number        int        `json:"number"`
	Section       string     `json:"section"`
	Capacity      int        `json:"capacity"`
	Shape         string     `json:"shape"`
	Position      Position   `json:"position"`
	Width         *float64   `json:"width,omitempty"`
	Height        *float64   `json:"height,omitempty"`
	Rotation      *float64   `json:"rotation,omitempty"`
	Status        string     `json:"status"`
	Guests        int        `json:"guests"`
	ServerID      string     `json:"serverId,omitempty"`
	ServerName    string     `json:"serverName,omitempty"`
	OrderID       string     `json:"orderId,omitempty"`
	ReservationID string     `json:"reservationId,omitempty"`
	SeatedAt      *time.Time `json:"seatedAt,omitempty"`
	Stage         string     `json:"stage,omitempty"`
	Alerts        []string   `json:"alerts,omitempty"`
	CombinedWith  string     `json:"combinedWith,omitempty"`
	SessionID     string     `json:"sessionId,omitempty"`
	Session       *Session   `json:"session,omitempty"`
}

// NormalizeTableID folds an id to the lowercase form tables are stored under.
func NormalizeTableID(id string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(id))
}

// TablePatch lists the fields UpdateTable may change. Nil fields are left
// untouched. ID is accepted for compatibility but never applied.
type TablePatch struct {
	ID            *string    `json:"id,omitempty"`
	Number        *int       `json:"number,omitempty"`
	Section       *string    `json:"section,omitempty"`
	Capacity      *int       `json:"capacity,omitempty"`
	Shape         *string    `json:"shape,omitempty"`
	Position      *Position  `json:"position,omitempty"`
	Width         *float64   `json:"width,omitempty"`
	Height        *float64   `json:"height,omitempty"`
	Rotation      *float64   `json:"rotation,omitempty"`
	Status        *string    `json:"status,omitempty"`
	Guests        *int       `json:"guests,omitempty"`
	ServerID      *string    `json:"serverId,omitempty"`
	ServerName    *string    `json:"serverName,omitempty"`
	OrderID       *string    `json:"orderId,omitempty"`
	ReservationID *string    `json:"reservationId,omitempty"`
	SeatedAt      *time.Time `json:"seatedAt,omitempty"`
	ClearSeatedAt bool       `json:"clearSeatedAt,omitempty"`
	Stage         *string    `json:"stage,omitempty"`
	Alerts        *[]string  `json:"alerts,omitempty"`
	CombinedWith  *string    `json:"combinedWith,omitempty"`
	SessionID     *string    `json:"sessionId,omitempty"`
	Session       *Session   `json:"session,omitempty"`
	ClearSession  bool       `json:"clearSession,omitempty"`
}

func (t *Table) apply(p TablePatch) {
	if p.Number != nil {
		t.Number = *p.Number
	}
	if p.Section != nil {
		t.Section = *p.Section
	}
	if p.Capacity != nil {
		t.Capacity = *p.Capacity
	}
	if p.Shape != nil {
		t.Shape = *p.Shape
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	if p.Width != nil {
		t.Width = float64Ptr(*p.Width)
	}
	if p.Height != nil {
		t.Height = float64Ptr(*p.Height)
	}
	if p.Rotation != nil {
		t.Rotation = float64Ptr(*p.Rotation)
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Guests != nil {
		t.Guests = *p.Guests
	}
	if p.ServerID != nil {
		t.ServerID = *p.ServerID
	}
	if p.ServerName != nil {
		t.ServerName = *p.ServerName
	}
	if p.OrderID != nil {
		t.OrderID = *p.OrderID
	}
	if p.ReservationID != nil {
		t.ReservationID = *p.ReservationID
	}
	if p.ClearSeatedAt {
		t.SeatedAt = nil
	} else if p.SeatedAt != nil {
		at := *p.SeatedAt
		t.SeatedAt = &at
	}
	if p.Stage != nil {
		t.Stage = *p.Stage
	}
	if p.Alerts != nil {
		t.Alerts = cloneStrings(*p.Alerts)
	}
	if p.CombinedWith != nil {
		t.CombinedWith = *p.CombinedWith
	}
	if p.SessionID != nil {
		t.SessionID = *p.SessionID
	}
	if p.ClearSession {
		t.Session = nil
	} else if p.Session != nil {
		s := p.Session.Clone()
		t.Session = &s
	}
}

// withLiveState returns incoming with the operational fields of existing
// carried over. Layout fields come from incoming.
func withLiveState(incoming, existing Table) Table {
	merged := incoming.Clone()
	merged.Status = existing.Status
	merged.Guests = existing.Guests
	merged.ServerID = existing.ServerID
	merged.ServerName = existing.ServerName
	merged.OrderID = existing.OrderID
	merged.ReservationID = existing.ReservationID
	merged.Stage = existing.Stage
	merged.Alerts = cloneStrings(existing.Alerts)
	merged.SeatedAt = nil
	if existing.SeatedAt != nil {
		at := *existing.SeatedAt
		merged.SeatedAt = &at
	}
	merged.Session = nil
	if existing.Session != nil {
		s := existing.Session.Clone()
		merged.Session = &s
	}
	if existing.CombinedWith != "" {
		merged.CombinedWith = existing.CombinedWith
	}
	if existing.SessionID != "" {
		merged.SessionID = existing.SessionID
	}
	return merged
}

func (t Table) Clone() Table {
	c := t
	if t.Width != nil {
		c.Width = float64Ptr(*t.Width)
	}
	if t.Height != nil {
		c.Height = float64Ptr(*t.Height)
	}
	if t.Rotation != nil {
		c.Rotation = float64Ptr(*t.Rotation)
	}
	if t.SeatedAt != nil {
		at := *t.SeatedAt
		c.SeatedAt = &at
	}
	c.Alerts = cloneStrings(t.Alerts)
	if t.Session != nil {
		s := t.Session.Clone()
		c.Session = &s
	}
	return c
}

// DisplayNumber is the label used on reservations and tickets.
func (t Table) DisplayNumber() string {
	if t.Number > 0 {
		return strconv.Itoa(t.Number)
	}
	return t.ID
}

func float64Ptr(v float64) *float64 {
	return &v
}
