package floor

import (
	"github.com/appetiteclub/floor/pkg/enums/itemstatus"
)

// Session status values, from an empty table to one that needs a server.
const (
	SessionAvailable      = "available"
	SessionSeated         = "seated"
	SessionOrdering       = "ordering"
	SessionWaiting        = "waiting"
	SessionFoodReady      = "food_ready"
	SessionDining         = "dining"
	SessionNeedsAttention = "needs_attention"
)

// Session is the live state of one guest visit at a table.
//
// Seats are laid out once from the initial guest count. GuestCount may change
// afterwards without reshaping Seats.
type Session struct {
	Status     string        `json:"status"`
	GuestCount int           `json:"guestCount"`
	Notes      []SessionNote `json:"notes"`
	Seats      []Seat        `json:"seats"`
	TableItems []OrderItem   `json:"tableItems"`
	WaveCount  int           `json:"waveCount"`
	Bill       Bill          `json:"bill"`
}

type SessionNote struct {
	Text string `json:"text"`
	Icon string `json:"icon,omitempty"`
}

type Seat struct {
	Number  int         `json:"number"`
	Dietary []string    `json:"dietary"`
	Notes   []string    `json:"notes"`
	Items   []OrderItem `json:"items"`
}

type Bill struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

func (b Bill) IsZero() bool {
	return b.Subtotal == 0 && b.Tax == 0 && b.Total == 0
}

func NewSession(guestCount int) Session {
	if guestCount < 0 {
		guestCount = 0
	}
	seats := make([]Seat, guestCount)
	for i := range seats {
		seats[i] = Seat{
			Number:  i + 1,
			Dietary: []string{},
			Notes:   []string{},
			Items:   []OrderItem{},
		}
	}
	s := Session{
		GuestCount: guestCount,
		Notes:      []SessionNote{},
		Seats:      seats,
		TableItems: []OrderItem{},
		WaveCount:  1,
	}
	s.Status = DeriveSessionStatus(s)
	return s
}

// Items returns every seat item followed by the table-level items.
func (s Session) Items() []OrderItem {
	var items []OrderItem
	for _, seat := range s.Seats {
		items = append(items, seat.Items...)
	}
	return append(items, s.TableItems...)
}

// ActiveItems is Items without voided entries.
func (s Session) ActiveItems() []OrderItem {
	var active []OrderItem
	for _, item := range s.Items() {
		if item.IsActive() {
			active = append(active, item)
		}
	}
	return active
}

// AddSeatItem appends item to the seat with the given number. It reports false
// when the seat does not exist.
func (s *Session) AddSeatItem(seatNumber int, item OrderItem) bool {
	for i := range s.Seats {
		if s.Seats[i].Number == seatNumber {
			s.Seats[i].Items = append(s.Seats[i].Items, item)
			return true
		}
	}
	return false
}

func (s *Session) AddTableItem(item OrderItem) {
	s.TableItems = append(s.TableItems, item)
}

// DeriveSessionStatus classifies a session from its guests and items.
func DeriveSessionStatus(s Session) string {
	active := s.ActiveItems()
	if len(active) == 0 {
		if s.GuestCount > 0 {
			return SessionSeated
		}
		return SessionAvailable
	}

	statuses := itemstatus.Statuses
	var anyReady, anyInFlight, anyHeld, allServed = false, false, false, true
	for _, item := range active {
		if item.AllergyAlert != "" && item.Status != statuses.Served.Code() {
			return SessionNeedsAttention
		}
		switch item.Status {
		case statuses.Ready.Code():
			anyReady = true
		case statuses.Sent.Code(), statuses.Cooking.Code():
			anyInFlight = true
		case statuses.Held.Code():
			anyHeld = true
		}
		if item.Status != statuses.Served.Code() {
			allServed = false
		}
	}

	switch {
	case allServed:
		return SessionDining
	case anyReady:
		return SessionFoodReady
	case anyInFlight:
		return SessionWaiting
	case anyHeld:
		return SessionOrdering
	}
	return SessionWaiting
}

func (s Session) Clone() Session {
	c := s
	if s.Notes != nil {
		c.Notes = append([]SessionNote(nil), s.Notes...)
	}
	if s.Seats != nil {
		c.Seats = make([]Seat, len(s.Seats))
		for i, seat := range s.Seats {
			c.Seats[i] = Seat{
				Number:  seat.Number,
				Dietary: cloneStrings(seat.Dietary),
				Notes:   cloneStrings(seat.Notes),
				Items:   cloneItems(seat.Items),
			}
		}
	}
	c.TableItems = cloneItems(s.TableItems)
	return c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
