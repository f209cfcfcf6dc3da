package floor

import (
	"time"

	"github.com/appetiteclub/floor/pkg"
	"github.com/appetiteclub/floor/pkg/enums/reservationstatus"
	"github.com/appetiteclub/floor/pkg/enums/tablestatus"
)

func (s *Store) GetReservations() []Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Reservation, len(s.state.Reservations))
	for i := range s.state.Reservations {
		out[i] = s.state.Reservations[i].Clone()
	}
	return out
}

func (s *Store) GetReservation(id string) (Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.state.reservationIndex(id)
	if i < 0 {
		return Reservation{}, false
	}
	return s.state.Reservations[i].Clone(), true
}

// CreateReservation stores r, filling in id, status and timestamps when
// missing.
func (s *Store) CreateReservation(r Reservation) Reservation {
	var created Reservation
	s.mutate(func(st *State, now time.Time) (bool, []pkg.FloorEvent) {
		next := r.Clone()
		if next.ID == "" {
			next.ID = s.newID()
		}
		if next.Status == "" {
			next.Status = reservationstatus.Statuses.Reserved.Code()
		}
		if next.TableID != "" {
			next.TableID = NormalizeTableID(next.TableID)
		}
		next.CreatedAt = now
		next.UpdatedAt = now
		next.Timeline = append(next.Timeline, ReservationEvent{
			Type: ReservationEventCreated,
			To:   next.Status,
			At:   now,
		})
		st.Reservations = append(st.Reservations, next)
		created = next
		return true, []pkg.FloorEvent{reservationEvent(next, pkg.EventReservationChanged, now)}
	})
	return created.Clone()
}

func (s *Store) UpdateReservation(id string, patch ReservationPatch) (Reservation, bool) {
	var updated Reservation
	found := false
	s.mutate(func(st *State, now time.Time) (bool, []pkg.FloorEvent) {
		i := st.reservationIndex(id)
		if i < 0 {
			return false, nil
		}
		found = true
		current := st.Reservations[i]
		next := current.Clone()
		next.apply(patch, now)
		if sameJSON(current, next) {
			updated = current
			return false, nil
		}
		next.UpdatedAt = now
		st.Reservations[i] = next
		updated = next
		return true, []pkg.FloorEvent{reservationEvent(next, pkg.EventReservationChanged, now)}
	})
	if !found {
		return Reservation{}, false
	}
	return updated.Clone(), true
}

func (s *Store) SetReservations(reservations []Reservation) {
	s.mutate(func(st *State, now time.Time) (bool, []pkg.FloorEvent) {
		next := make([]Reservation, len(reservations))
		for i := range reservations {
			next[i] = reservations[i].Clone()
		}
		if sameJSON(st.Reservations, next) {
			return false, nil
		}
		st.Reservations = next
		return true, []pkg.FloorEvent{{EventType: pkg.EventReservationChanged, OccurredAt: now}}
	})
}

func (s *Store) DeleteReservation(id string) bool {
	return s.mutate(func(st *State, now time.Time) (bool, []pkg.FloorEvent) {
		i := st.reservationIndex(id)
		if i < 0 {
			return false, nil
		}
		removed := st.Reservations[i]
		st.Reservations = append(st.Reservations[:i], st.Reservations[i+1:]...)
		return true, []pkg.FloorEvent{reservationEvent(removed, pkg.EventReservationChanged, now)}
	})
}

// AssignReservationToTable confirms the reservation on the table and marks
// the table reserved in a single commit. An unknown table is still recorded
// on the reservation by its raw id.
func (s *Store) AssignReservationToTable(reservationID, tableID string) bool {
	return s.mutate(func(st *State, now time.Time) (bool, []pkg.FloorEvent) {
		ri := st.reservationIndex(reservationID)
		if ri < 0 {
			return false, nil
		}

		display := tableID
		resolvedID := tableID
		ti := st.tableIndex(tableID)
		if ti >= 0 {
			display = st.Tables[ti].DisplayNumber()
			resolvedID = st.Tables[ti].ID
		}

		r := st.Reservations[ri].Clone()
		r.TableID = resolvedID
		r.Table = display
		r.Timeline = append(r.Timeline, ReservationEvent{
			Type: ReservationEventTableAssigned,
			Note: display,
			At:   now,
		})
		r.setStatus(reservationstatus.Statuses.Confirmed.Code(), now)
		r.UpdatedAt = now
		st.Reservations[ri] = r

		if ti >= 0 {
			st.Tables[ti].Status = tablestatus.Statuses.Reserved.Code()
			st.Tables[ti].ReservationID = r.ID
		}

		evt := reservationEvent(r, pkg.EventReservationAssigned, now)
		evt.TableID = resolvedID
		return true, []pkg.FloorEvent{evt}
	})
}

// GetWaitlist returns the waitlist with waitTime refreshed from addedAt.
func (s *Store) GetWaitlist() []WaitlistEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	out := append([]WaitlistEntry{}, s.state.Waitlist...)
	for i := range out {
		if !out[i].AddedAt.IsZero() {
			out[i].WaitTime = out[i].WaitMinutes(now)
		}
	}
	return out
}

func (s *Store) SetWaitlist(entries []WaitlistEntry) {
	s.mutate(func(st *State, now time.Time) (bool, []pkg.FloorEvent) {
		next := append([]WaitlistEntry{}, entries...)
		if sameJSON(st.Waitlist, next) {
			return false, nil
		}
		st.Waitlist = next
		return true, []pkg.FloorEvent{{EventType: pkg.EventWaitlistChanged, OccurredAt: now}}
	})
}

// AddToWaitlist appends entry, assigning an id and arrival time when missing.
func (s *Store) AddToWaitlist(entry WaitlistEntry) WaitlistEntry {
	var added WaitlistEntry
	s.mutate(func(st *State, now time.Time) (bool, []pkg.FloorEvent) {
		added = entry
		if added.ID == "" {
			added.ID = s.newID()
		}
		if added.AddedAt.IsZero() {
			added.AddedAt = now
		}
		st.Waitlist = append(st.Waitlist, added)
		return true, []pkg.FloorEvent{waitlistEvent(added.ID, now)}
	})
	return added
}

func (s *Store) RemoveFromWaitlist(id string) bool {
	return s.mutate(func(st *State, now time.Time) (bool, []pkg.FloorEvent) {
		i := st.waitlistIndex(id)
		if i < 0 {
			return false, nil
		}
		st.Waitlist = append(st.Waitlist[:i], st.Waitlist[i+1:]...)
		return true, []pkg.FloorEvent{waitlistEvent(id, now)}
	})
}

func (s *Store) UpdateWaitlistEntry(id string, patch WaitlistPatch) (WaitlistEntry, bool) {
	var updated WaitlistEntry
	found := false
	s.mutate(func(st *State, now time.Time) (bool, []pkg.FloorEvent) {
		i := st.waitlistIndex(id)
		if i < 0 {
			return false, nil
		}
		found = true
		next := st.Waitlist[i]
		next.apply(patch, now)
		updated = next
		if next == st.Waitlist[i] {
			return false, nil
		}
		st.Waitlist[i] = next
		return true, []pkg.FloorEvent{waitlistEvent(id, now)}
	})
	return updated, found
}

// SeatReservation marks the party as arrived. A reserved table held for it
// becomes active.
func (s *Store) SeatReservation(id string) bool {
	return s.transitionReservation(id, (*Reservation).MarkAsSeated, tablestatus.Statuses.Active.Code())
}

// CancelReservation cancels the reservation and frees any table held for it.
func (s *Store) CancelReservation(id string) bool {
	return s.transitionReservation(id, (*Reservation).Cancel, tablestatus.Statuses.Free.Code())
}

// MarkReservationNoShow records a missed reservation and frees any table
// held for it.
func (s *Store) MarkReservationNoShow(id string) bool {
	return s.transitionReservation(id, (*Reservation).MarkAsNoShow, tablestatus.Statuses.Free.Code())
}

// transitionReservation applies move to the reservation and moves a table
// still reserved for it to tableStatus, in one commit.
func (s *Store) transitionReservation(id string, move func(*Reservation, time.Time), tableStatus string) bool {
	return s.mutate(func(st *State, now time.Time) (bool, []pkg.FloorEvent) {
		ri := st.reservationIndex(id)
		if ri < 0 {
			return false, nil
		}
		current := st.Reservations[ri]
		r := current.Clone()
		move(&r, now)
		if r.Status == current.Status {
			return false, nil
		}
		st.Reservations[ri] = r

		for i := range st.Tables {
			t := &st.Tables[i]
			if t.ReservationID != r.ID || t.Status != tablestatus.Statuses.Reserved.Code() {
				continue
			}
			t.Status = tableStatus
			if tableStatus == tablestatus.Statuses.Free.Code() {
				t.ReservationID = ""
			}
		}

		return true, []pkg.FloorEvent{reservationEvent(r, pkg.EventReservationChanged, now)}
	})
}

func reservationEvent(r Reservation, eventType string, now time.Time) pkg.FloorEvent {
	return pkg.FloorEvent{
		EventType:     eventType,
		ReservationID: r.ID,
		TableID:       r.TableID,
		Status:        r.Status,
		OccurredAt:    now,
	}
}

func waitlistEvent(id string, now time.Time) pkg.FloorEvent {
	return pkg.FloorEvent{
		EventType:  pkg.EventWaitlistChanged,
		WaitlistID: id,
		OccurredAt: now,
	}
}
