package floor

import (
	"time"
)

const (
	OrderOpen   = "open"
	OrderClosed = "closed"
)

// Timeline event types. Only these survive snapshot normalization.
const (
	TimelineOpened            = "opened"
	TimelineWaveStatusChanged = "wave_status_changed"
	TimelineClosed            = "closed"
)

// Order tracks billing and kitchen progress for one table visit. A table has
// at most one open order at a time.
type Order struct {
	ID          string          `json:"id"`
	TableID     string          `json:"tableId"`
	TableNumber int             `json:"tableNumber"`
	Status      string          `json:"status"`
	OpenedAt    time.Time       `json:"openedAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	ClosedAt    *time.Time      `json:"closedAt,omitempty"`
	GuestCount  int             `json:"guestCount"`
	WaveCount   int             `json:"waveCount"`
	Waves       []Wave          `json:"waves"`
	Bill        Bill            `json:"bill"`
	Session     Session         `json:"session"`
	Timeline    []TimelineEvent `json:"timeline"`
}

type TimelineEvent struct {
	Type       string    `json:"type"`
	At         time.Time `json:"at"`
	WaveNumber int       `json:"waveNumber,omitempty"`
	FromStatus string    `json:"fromStatus,omitempty"`
	ToStatus   string    `json:"toStatus,omitempty"`
}

func (o Order) IsOpen() bool {
	return o.Status == OrderOpen
}

func (o Order) hasTimelineEvent(eventType string) bool {
	for _, e := range o.Timeline {
		if e.Type == eventType {
			return true
		}
	}
	return false
}

// applySession recomputes every session-derived field of the order.
// fallbackGuests is used when the session itself carries no guest count.
func (o *Order) applySession(session Session, fallbackGuests int) {
	o.Session = session
	o.Waves = BuildOrderWaves(session)
	o.Bill = CalculateSessionBill(session)
	switch {
	case session.GuestCount > 0:
		o.GuestCount = session.GuestCount
	case fallbackGuests > 0:
		o.GuestCount = fallbackGuests
	}
	o.WaveCount = max(session.WaveCount, len(o.Waves))
}

func (o Order) waveStatuses() map[int]string {
	statuses := make(map[int]string, len(o.Waves))
	for _, w := range o.Waves {
		statuses[w.Number] = w.Status
	}
	return statuses
}

func (o Order) Clone() Order {
	c := o
	if o.ClosedAt != nil {
		at := *o.ClosedAt
		c.ClosedAt = &at
	}
	if o.Waves != nil {
		c.Waves = append([]Wave(nil), o.Waves...)
	}
	if o.Timeline != nil {
		c.Timeline = append([]TimelineEvent(nil), o.Timeline...)
	}
	c.Session = o.Session.Clone()
	return c
}
