package itemstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	if len(s.Name) == 0 {
		return ""
	}
	return strings.ToUpper(s.Name[:1]) + s.Name[1:]
}

type Enum struct {
	Held    Status
	Sent    Status
	Cooking Status
	Ready   Status
	Served  Status
	Void    Status
}

var Statuses = Enum{
	Held:    Status{Name: "held"},
	Sent:    Status{Name: "sent"},
	Cooking: Status{Name: "cooking"},
	Ready:   Status{Name: "ready"},
	Served:  Status{Name: "served"},
	Void:    Status{Name: "void"},
}

var All = []Status{
	Statuses.Held,
	Statuses.Sent,
	Statuses.Cooking,
	Statuses.Ready,
	Statuses.Served,
	Statuses.Void,
}

// WaveStatuses are the values a wave can aggregate to. Void items never
// contribute to a wave, so void is not a wave status.
var WaveStatuses = []Status{
	Statuses.Held,
	Statuses.Sent,
	Statuses.Cooking,
	Statuses.Ready,
	Statuses.Served,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

// IsWaveStatus reports whether name is a valid wave status.
func IsWaveStatus(name string) bool {
	for _, s := range WaveStatuses {
		if s.Name == name {
			return true
		}
	}
	return false
}
