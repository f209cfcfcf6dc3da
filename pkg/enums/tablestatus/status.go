package tablestatus

import "strings"

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
	Free     Status
	Active   Status
	Urgent   Status
	Billing  Status
	Closed   Status
	Reserved Status
	Cleaning Status
}

var Statuses = Enum{
	Free:     Status{Name: "free"},
	Active:   Status{Name: "active"},
	Urgent:   Status{Name: "urgent"},
	Billing:  Status{Name: "billing"},
	Closed:   Status{Name: "closed"},
	Reserved: Status{Name: "reserved"},
	Cleaning: Status{Name: "cleaning"},
}

var All = []Status{
	Statuses.Free,
	Statuses.Active,
	Statuses.Urgent,
	Statuses.Billing,
	Statuses.Closed,
	Statuses.Reserved,
	Statuses.Cleaning,
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
