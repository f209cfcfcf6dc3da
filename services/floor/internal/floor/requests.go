package floor

type OpenOrderRequest struct {
	GuestCount int `json:"guestCount,omitempty"`
}

type CloseOrderRequest struct {
	Bill *BillOverride `json:"bill,omitempty"`
}

type AssignReservationRequest struct {
	TableID string `json:"tableId"`
}

type ReservationCreateRequest struct {
	GuestName string           `json:"guestName"`
	Phone     string           `json:"phone,omitempty"`
	Email     string           `json:"email,omitempty"`
	PartySize int              `json:"partySize"`
	Date      string           `json:"date"`
	Time      string           `json:"time"`
	Duration  int              `json:"duration,omitempty"`
	Status    string           `json:"status,omitempty"`
	TableID   string           `json:"tableId,omitempty"`
	Notes     string           `json:"notes,omitempty"`
	Customer  *CustomerProfile `json:"customer,omitempty"`
}

func (req ReservationCreateRequest) toReservation() Reservation {
	r := Reservation{
		GuestName: req.GuestName,
		Phone:     req.Phone,
		Email:     req.Email,
		PartySize: req.PartySize,
		Date:      req.Date,
		Time:      req.Time,
		Duration:  req.Duration,
		Status:    req.Status,
		TableID:   req.TableID,
		Notes:     req.Notes,
	}
	if req.Customer != nil {
		c := req.Customer.Clone()
		r.Customer = &c
	}
	return r
}

type WaitlistCreateRequest struct {
	GuestName string `json:"guestName"`
	PartySize int    `json:"partySize"`
	Phone     string `json:"phone,omitempty"`
	WaitTime  int    `json:"waitTime,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func (req WaitlistCreateRequest) toEntry() WaitlistEntry {
	return WaitlistEntry{
		GuestName: req.GuestName,
		PartySize: req.PartySize,
		Phone:     req.Phone,
		WaitTime:  req.WaitTime,
		Notes:     req.Notes,
	}
}
