package floor

// State is the whole floor store. A committed State is never mutated in
// place; every action works on a Clone and swaps it in.
type State struct {
	Tables       []Table         `json:"tables"`
	Orders       []Order         `json:"orders"`
	Reservations []Reservation   `json:"reservations"`
	Waitlist     []WaitlistEntry `json:"waitlist"`
}

func DefaultState() State {
	return State{
		Tables:       []Table{},
		Orders:       []Order{},
		Reservations: []Reservation{},
		Waitlist:     []WaitlistEntry{},
	}
}

func (s State) Clone() State {
	c := State{
		Tables:       make([]Table, len(s.Tables)),
		Orders:       make([]Order, len(s.Orders)),
		Reservations: make([]Reservation, len(s.Reservations)),
		Waitlist:     append([]WaitlistEntry{}, s.Waitlist...),
	}
	for i := range s.Tables {
		c.Tables[i] = s.Tables[i].Clone()
	}
	for i := range s.Orders {
		c.Orders[i] = s.Orders[i].Clone()
	}
	for i := range s.Reservations {
		c.Reservations[i] = s.Reservations[i].Clone()
	}
	return c
}

// tableIndex finds a table by id. The normalized form is tried first, then
// the raw id for entries stored before ids were normalized.
func (s State) tableIndex(id string) int {
	normalized := NormalizeTableID(id)
	for i := range s.Tables {
		if s.Tables[i].ID == normalized {
			return i
		}
	}
	for i := range s.Tables {
		if s.Tables[i].ID == id {
			return i
		}
	}
	for i := range s.Tables {
		if NormalizeTableID(s.Tables[i].ID) == normalized {
			return i
		}
	}
	return -1
}

func (s State) orderIndex(id string) int {
	for i := range s.Orders {
		if s.Orders[i].ID == id {
			return i
		}
	}
	return -1
}

// openOrderIndex follows the table's order pointer when it is valid and
// otherwise scans for an open order on the table.
func (s State) openOrderIndex(table Table) int {
	if table.OrderID != "" {
		if i := s.orderIndex(table.OrderID); i >= 0 {
			o := s.Orders[i]
			if o.IsOpen() && sameTable(o.TableID, table.ID) {
				return i
			}
		}
	}
	for i := range s.Orders {
		o := s.Orders[i]
		if o.IsOpen() && sameTable(o.TableID, table.ID) {
			return i
		}
	}
	return -1
}

func (s State) reservationIndex(id string) int {
	for i := range s.Reservations {
		if s.Reservations[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) waitlistIndex(id string) int {
	for i := range s.Waitlist {
		if s.Waitlist[i].ID == id {
			return i
		}
	}
	return -1
}

func sameTable(a, b string) bool {
	return a == b || NormalizeTableID(a) == NormalizeTableID(b)
}

// repairOrderLinks clears table order pointers that do not reference an open
// order for that table.
func (s *State) repairOrderLinks() {
	for i := range s.Tables {
		t := &s.Tables[i]
		if t.OrderID == "" {
			continue
		}
		oi := s.orderIndex(t.OrderID)
		if oi < 0 || !s.Orders[oi].IsOpen() || !sameTable(s.Orders[oi].TableID, t.ID) {
			t.OrderID = ""
		}
	}
}
