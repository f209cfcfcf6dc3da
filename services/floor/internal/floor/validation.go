package floor

import (
	"fmt"
	"strings"

	"github.com/appetiteclub/floor/pkg/enums/reservationstatus"
	"github.com/appetiteclub/floor/pkg/enums/tablestatus"
)

func ValidateTablePatch(p TablePatch) []string {
	var errors []string

	if p.Status != nil && tablestatus.ByName(*p.Status) == nil {
		errors = append(errors, "invalid status")
	}
	if p.Capacity != nil && *p.Capacity < 0 {
		errors = append(errors, "capacity cannot be negative")
	}
	if p.Guests != nil && *p.Guests < 0 {
		errors = append(errors, "guests cannot be negative")
	}
	if p.Session != nil {
		errors = append(errors, ValidateSession(*p.Session)...)
	}

	return errors
}

func ValidateSession(s Session) []string {
	var errors []string

	if s.GuestCount < 0 {
		errors = append(errors, "guestCount cannot be negative")
	}
	if s.WaveCount < 0 || s.WaveCount > MaxWaves {
		errors = append(errors, fmt.Sprintf("waveCount must be between 0 and %d", MaxWaves))
	}
	for _, item := range s.Items() {
		if ResolveWaveNumber(item) > MaxWaves {
			errors = append(errors, fmt.Sprintf("item %s is beyond wave %d", item.ID, MaxWaves))
		}
		if item.Price < 0 {
			errors = append(errors, fmt.Sprintf("item %s has a negative price", item.ID))
		}
	}

	return errors
}

func ValidateTables(tables []Table) []string {
	var errors []string

	seen := make(map[string]bool, len(tables))
	for _, t := range tables {
		id := NormalizeTableID(t.ID)
		if id == "" {
			errors = append(errors, "table id is required")
			continue
		}
		if seen[id] {
			errors = append(errors, "duplicate table id "+id)
		}
		seen[id] = true
		if t.Session != nil {
			errors = append(errors, ValidateSession(*t.Session)...)
		}
	}

	return errors
}

func ValidateOpenOrder(req OpenOrderRequest) []string {
	var errors []string

	if req.GuestCount < 0 {
		errors = append(errors, "guestCount cannot be negative")
	}

	return errors
}

func ValidateReservationCreate(req ReservationCreateRequest) []string {
	var errors []string

	if strings.TrimSpace(req.GuestName) == "" {
		errors = append(errors, "guestName is required")
	}
	if req.PartySize <= 0 {
		errors = append(errors, "partySize must be greater than 0")
	}
	if strings.TrimSpace(req.Date) == "" {
		errors = append(errors, "date is required")
	}
	if strings.TrimSpace(req.Time) == "" {
		errors = append(errors, "time is required")
	}
	if req.Status != "" && reservationstatus.ByName(req.Status) == nil {
		errors = append(errors, "invalid status")
	}

	return errors
}

func ValidateReservationPatch(p ReservationPatch) []string {
	var errors []string

	if p.PartySize != nil && *p.PartySize <= 0 {
		errors = append(errors, "partySize must be greater than 0")
	}
	if p.Status != nil && reservationstatus.ByName(*p.Status) == nil {
		errors = append(errors, "invalid status")
	}

	return errors
}

func ValidateWaitlistCreate(req WaitlistCreateRequest) []string {
	var errors []string

	if strings.TrimSpace(req.GuestName) == "" {
		errors = append(errors, "guestName is required")
	}
	if req.PartySize <= 0 {
		errors = append(errors, "partySize must be greater than 0")
	}

	return errors
}
