package floor

import (
	"time"
)

type WaitlistEntry struct {
	ID        string    `json:"id"`
	GuestName string    `json:"guestName"`
	PartySize int       `json:"partySize"`
	Phone     string    `json:"phone,omitempty"`
	AddedAt   time.Time `json:"addedAt"`
	WaitTime  int       `json:"waitTime"`
	Notes     string    `json:"notes,omitempty"`
}

// WaitMinutes is how long the party has waited so far.
func (e WaitlistEntry) WaitMinutes(now time.Time) int {
	if e.AddedAt.IsZero() || now.Before(e.AddedAt) {
		return 0
	}
	return int(now.Sub(e.AddedAt) / time.Minute)
}

type WaitlistPatch struct {
	GuestName *string `json:"guestName,omitempty"`
	PartySize *int    `json:"partySize,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	WaitTime  *int    `json:"waitTime,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// apply merges p into e. A wait time moves AddedAt back so that the wait
// recomputed on read starts from the patched value.
func (e *WaitlistEntry) apply(p WaitlistPatch, now time.Time) {
	if p.GuestName != nil {
		e.GuestName = *p.GuestName
	}
	if p.PartySize != nil {
		e.PartySize = *p.PartySize
	}
	if p.Phone != nil {
		e.Phone = *p.Phone
	}
	if p.WaitTime != nil {
		e.WaitTime = max(*p.WaitTime, 0)
		e.AddedAt = now.Add(-time.Duration(e.WaitTime) * time.Minute)
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
}
