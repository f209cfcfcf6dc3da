package floor

import (
	"time"

	"github.com/appetiteclub/floor/pkg/enums/reservationstatus"
)

const (
	ReservationEventCreated       = "created"
	ReservationEventStatusChanged = "status_changed"
	ReservationEventTableAssigned = "table_assigned"
)

type Reservation struct {
	ID        string             `json:"id"`
	GuestName string             `json:"guestName"`
	Phone     string             `json:"phone,omitempty"`
	Email     string             `json:"email,omitempty"`
	PartySize int                `json:"partySize"`
	Date      string             `json:"date"`
	Time      string             `json:"time"`
	Duration  int                `json:"duration,omitempty"`
	Status    string             `json:"status"`
	Table     string             `json:"table,omitempty"`
	TableID   string             `json:"tableId,omitempty"`
	Notes     string             `json:"notes,omitempty"`
	Customer  *CustomerProfile   `json:"customer,omitempty"`
	Timeline  []ReservationEvent `json:"timeline,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

type CustomerProfile struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Phone       string   `json:"phone,omitempty"`
	Email       string   `json:"email,omitempty"`
	VisitCount  int      `json:"visitCount"`
	Tags        []string `json:"tags,omitempty"`
	Preferences []string `json:"preferences,omitempty"`
}

type ReservationEvent struct {
	Type string    `json:"type"`
	From string    `json:"from,omitempty"`
	To   string    `json:"to,omitempty"`
	Note string    `json:"note,omitempty"`
	At   time.Time `json:"at"`
}

type ReservationPatch struct {
	GuestName *string          `json:"guestName,omitempty"`
	Phone     *string          `json:"phone,omitempty"`
	Email     *string          `json:"email,omitempty"`
	PartySize *int             `json:"partySize,omitempty"`
	Date      *string          `json:"date,omitempty"`
	Time      *string          `json:"time,omitempty"`
	Duration  *int             `json:"duration,omitempty"`
	Status    *string          `json:"status,omitempty"`
	Table     *string          `json:"table,omitempty"`
	TableID   *string          `json:"tableId,omitempty"`
	Notes     *string          `json:"notes,omitempty"`
	Customer  *CustomerProfile `json:"customer,omitempty"`
}

// apply merges p into r and records a status change on the timeline.
func (r *Reservation) apply(p ReservationPatch, now time.Time) {
	if p.GuestName != nil {
		r.GuestName = *p.GuestName
	}
	if p.Phone != nil {
		r.Phone = *p.Phone
	}
	if p.Email != nil {
		r.Email = *p.Email
	}
	if p.PartySize != nil {
		r.PartySize = *p.PartySize
	}
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.Time != nil {
		r.Time = *p.Time
	}
	if p.Duration != nil {
		r.Duration = *p.Duration
	}
	if p.Table != nil {
		r.Table = *p.Table
	}
	if p.TableID != nil {
		r.TableID = *p.TableID
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	if p.Customer != nil {
		c := p.Customer.Clone()
		r.Customer = &c
	}
	if p.Status != nil {
		r.setStatus(*p.Status, now)
	}
}

func (r *Reservation) setStatus(status string, now time.Time) {
	if r.Status == status {
		return
	}
	r.Timeline = append(r.Timeline, ReservationEvent{
		Type: ReservationEventStatusChanged,
		From: r.Status,
		To:   status,
		At:   now,
	})
	r.Status = status
}

func (r *Reservation) MarkAsSeated(now time.Time) {
	r.setStatus(reservationstatus.Statuses.Seated.Code(), now)
	r.UpdatedAt = now
}

func (r *Reservation) Cancel(now time.Time) {
	r.setStatus(reservationstatus.Statuses.Cancelled.Code(), now)
	r.UpdatedAt = now
}

func (r *Reservation) MarkAsNoShow(now time.Time) {
	r.setStatus(reservationstatus.Statuses.NoShow.Code(), now)
	r.UpdatedAt = now
}

func (c CustomerProfile) Clone() CustomerProfile {
	out := c
	out.Tags = cloneStrings(c.Tags)
	out.Preferences = cloneStrings(c.Preferences)
	return out
}

func (r Reservation) Clone() Reservation {
	c := r
	if r.Customer != nil {
		profile := r.Customer.Clone()
		c.Customer = &profile
	}
	if r.Timeline != nil {
		c.Timeline = append([]ReservationEvent(nil), r.Timeline...)
	}
	return c
}
