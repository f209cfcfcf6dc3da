package floor

import (
	"time"

	"github.com/appetiteclub/floor/pkg"
	"github.com/appetiteclub/floor/pkg/enums/itemstatus"
)

type openResult struct {
	orderID string
	created bool
	changed bool
}

// openOrder makes sure the table has exactly one open order, creating it
// when missing and refreshing it from the table's session otherwise.
func (s *Store) openOrder(st *State, tableID string, guestCount int, now time.Time) (openResult, bool) {
	ti := st.tableIndex(tableID)
	if ti < 0 {
		return openResult{}, false
	}
	table := &st.Tables[ti]

	if oi := st.openOrderIndex(*table); oi >= 0 {
		current := st.Orders[oi]
		session := current.Session.Clone()
		if table.Session != nil {
			session = table.Session.Clone()
		}

		next := current.Clone()
		next.applySession(session, guestCount)

		res := openResult{orderID: current.ID}
		if !sameOrderContent(current, next) {
			next.UpdatedAt = now
			st.Orders[oi] = next
			res.changed = true
		}
		if table.OrderID != current.ID {
			table.OrderID = current.ID
			res.changed = true
		}
		return res, true
	}

	if guestCount <= 0 {
		guestCount = table.Guests
	}
	session := NewSession(guestCount)
	if table.Session != nil {
		session = table.Session.Clone()
	}

	order := Order{
		ID:          s.newID(),
		TableID:     table.ID,
		TableNumber: table.Number,
		Status:      OrderOpen,
		OpenedAt:    now,
		UpdatedAt:   now,
		Timeline: []TimelineEvent{{
			Type: TimelineOpened,
			At:   now,
		}},
	}
	order.applySession(session, guestCount)

	st.Orders = append(st.Orders, order)
	table.OrderID = order.ID
	return openResult{orderID: order.ID, created: true, changed: true}, true
}

// OpenOrderForTable returns the id of the table's open order, opening one
// if needed. guestCount seeds a new order when the table has no session; pass
// zero to fall back to the table's guest count. It reports false when the
// table does not exist.
func (s *Store) OpenOrderForTable(tableID string, guestCount int) (string, bool) {
	var res openResult
	var ok bool
	s.mutate(func(st *State, now time.Time) (bool, []pkg.FloorEvent) {
		res, ok = s.openOrder(st, tableID, guestCount, now)
		if !ok || !res.changed {
			return false, nil
		}
		return true, []pkg.FloorEvent{orderEvent(*st, res, now)}
	})
	if !ok {
		return "", false
	}
	return res.orderID, true
}

// SyncOrderSession folds session into the table's open order, opening one if
// needed, and records wave status transitions on the order timeline. Sessions
// without guests or live items are ignored.
func (s *Store) SyncOrderSession(tableID string, session Session) (string, bool) {
	if !HasSessionData(session) {
		return "", false
	}

	var orderID string
	var ok bool
	s.mutate(func(st *State, now time.Time) (bool, []pkg.FloorEvent) {
		// openOrder may refresh the order from the table's own session on the
		// way; only the difference against the order as it was counts.
		var before *Order
		previous := map[int]string{}
		linked := ""
		if ti := st.tableIndex(tableID); ti >= 0 {
			linked = st.Tables[ti].OrderID
			if oi := st.openOrderIndex(st.Tables[ti]); oi >= 0 {
				o := st.Orders[oi].Clone()
				before = &o
				previous = o.waveStatuses()
			}
		}

		res, found := s.openOrder(st, tableID, session.GuestCount, now)
		if !found {
			return false, nil
		}
		ok = true
		orderID = res.orderID

		oi := st.orderIndex(res.orderID)
		next := st.Orders[oi].Clone()
		next.applySession(session.Clone(), session.GuestCount)

		transitions := waveTransitions(previous, next.Waves, now)
		next.Timeline = append(next.Timeline, transitions...)

		changed := res.created || st.Tables[st.tableIndex(tableID)].OrderID != linked
		if before == nil || !sameOrderContent(*before, next) {
			next.UpdatedAt = now
			changed = true
		} else {
			next.UpdatedAt = before.UpdatedAt
		}
		if !changed {
			return false, nil
		}
		st.Orders[oi] = next

		events := []pkg.FloorEvent{orderEvent(*st, res, now)}
		for _, tr := range transitions {
			events = append(events, pkg.FloorEvent{
				EventType:  pkg.EventWaveStatusChanged,
				TableID:    next.TableID,
				OrderID:    next.ID,
				WaveNumber: tr.WaveNumber,
				FromStatus: tr.FromStatus,
				ToStatus:   tr.ToStatus,
				OccurredAt: now,
			})
		}
		return true, events
	})
	if !ok {
		return "", false
	}
	return orderID, true
}

// waveTransitions diffs wave statuses by wave number. A new wave that starts
// held is not a transition.
func waveTransitions(previous map[int]string, waves []Wave, now time.Time) []TimelineEvent {
	held := itemstatus.Statuses.Held.Code()
	var out []TimelineEvent
	for _, w := range waves {
		from, existed := previous[w.Number]
		if !existed {
			if w.Status == held {
				continue
			}
			from = held
		} else if from == w.Status {
			continue
		}
		out = append(out, TimelineEvent{
			Type:       TimelineWaveStatusChanged,
			At:         now,
			WaveNumber: w.Number,
			FromStatus: from,
			ToStatus:   w.Status,
		})
	}
	return out
}

// CloseOrder closes an order and unlinks every table pointing at it. Closing
// again keeps the first close time and timeline entry; bill fields set in
// override replace the stored ones. It reports whether anything changed.
func (s *Store) CloseOrder(orderID string, override *BillOverride) bool {
	return s.mutate(func(st *State, now time.Time) (bool, []pkg.FloorEvent) {
		oi := st.orderIndex(orderID)
		if oi < 0 {
			return false, nil
		}
		current := st.Orders[oi]
		bill := current.Bill.Apply(override)

		referenced := false
		for _, t := range st.Tables {
			if t.OrderID == orderID {
				referenced = true
				break
			}
		}

		if current.Status == OrderClosed && bill == current.Bill && !referenced {
			return false, nil
		}

		next := current.Clone()
		next.Status = OrderClosed
		next.Bill = bill
		if next.ClosedAt == nil {
			at := now
			next.ClosedAt = &at
		}
		next.UpdatedAt = now
		if !next.hasTimelineEvent(TimelineClosed) {
			next.Timeline = append(next.Timeline, TimelineEvent{Type: TimelineClosed, At: now})
		}
		st.Orders[oi] = next

		for i := range st.Tables {
			if st.Tables[i].OrderID == orderID {
				st.Tables[i].OrderID = ""
				st.Tables[i].SessionID = ""
			}
		}

		return true, []pkg.FloorEvent{{
			EventType:  pkg.EventOrderClosed,
			TableID:    next.TableID,
			OrderID:    next.ID,
			Status:     next.Status,
			OccurredAt: now,
		}}
	})
}

func (s *Store) GetOrders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, len(s.state.Orders))
	for i := range s.state.Orders {
		out[i] = s.state.Orders[i].Clone()
	}
	return out
}

func (s *Store) GetOrderByID(id string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.state.orderIndex(id)
	if i < 0 {
		return Order{}, false
	}
	return s.state.Orders[i].Clone(), true
}

func (s *Store) GetOpenOrderForTable(tableID string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ti := s.state.tableIndex(tableID)
	if ti < 0 {
		return Order{}, false
	}
	oi := s.state.openOrderIndex(s.state.Tables[ti])
	if oi < 0 {
		return Order{}, false
	}
	return s.state.Orders[oi].Clone(), true
}

// GetOrdersForTable returns every order ever opened on the table, oldest
// first.
func (s *Store) GetOrdersForTable(tableID string) []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Order{}
	for _, o := range s.state.Orders {
		if sameTable(o.TableID, tableID) {
			out = append(out, o.Clone())
		}
	}
	return out
}

func (s *Store) GetOpenOrders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Order{}
	for _, o := range s.state.Orders {
		if o.IsOpen() {
			out = append(out, o.Clone())
		}
	}
	return out
}

// sameOrderContent compares two orders ignoring UpdatedAt, which changes on
// every recompute.
func sameOrderContent(a, b Order) bool {
	a.UpdatedAt = time.Time{}
	b.UpdatedAt = time.Time{}
	return sameJSON(a, b)
}

func orderEvent(st State, res openResult, now time.Time) pkg.FloorEvent {
	eventType := pkg.EventOrderUpdated
	if res.created {
		eventType = pkg.EventOrderOpened
	}
	evt := pkg.FloorEvent{
		EventType:  eventType,
		OrderID:    res.orderID,
		OccurredAt: now,
	}
	if oi := st.orderIndex(res.orderID); oi >= 0 {
		evt.TableID = st.Orders[oi].TableID
		evt.Status = st.Orders[oi].Status
	}
	return evt
}
