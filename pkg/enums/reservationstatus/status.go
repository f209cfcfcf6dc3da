package reservationstatus

import (
	"strings"
	"unicode"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

// Label splits camel case codes into words: "noShow" becomes "No Show".
func (s Status) Label() string {
	var b strings.Builder
	for i, r := range s.Name {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

type Enum struct {
	Reserved  Status
	Confirmed Status
	Seated    Status
	Completed Status
	NoShow    Status
	Cancelled Status
	Late      Status
	Waitlist  Status
}

var Statuses = Enum{
	Reserved:  Status{Name: "reserved"},
	Confirmed: Status{Name: "confirmed"},
	Seated:    Status{Name: "seated"},
	Completed: Status{Name: "completed"},
	NoShow:    Status{Name: "noShow"},
	Cancelled: Status{Name: "cancelled"},
	Late:      Status{Name: "late"},
	Waitlist:  Status{Name: "waitlist"},
}

var All = []Status{
	Statuses.Reserved,
	Statuses.Confirmed,
	Statuses.Seated,
	Statuses.Completed,
	Statuses.NoShow,
	Statuses.Cancelled,
	Statuses.Late,
	Statuses.Waitlist,
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
