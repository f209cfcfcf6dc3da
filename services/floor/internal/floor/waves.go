package floor

import (
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/floor/pkg/enums/itemstatus"
)

// MaxWaves bounds how many waves a single order can carry.
const MaxWaves = 20

// Wave is the kitchen-facing summary of the items fired together.
type Wave struct {
	Number    int    `json:"number"`
	Status    string `json:"status"`
	ItemCount int    `json:"itemCount"`
}

// BuildOrderWaves groups the active items of a session by wave number and
// aggregates each group's status. Waves 1 through the highest of the session
// wave count and the highest used wave number are always present, up to
// MaxWaves.
func BuildOrderWaves(session Session) []Wave {
	groups := map[int][]OrderItem{}
	highest := 0
	for _, item := range session.ActiveItems() {
		n := ResolveWaveNumber(item)
		groups[n] = append(groups[n], item)
		if n > highest {
			highest = n
		}
	}

	last := min(max(session.WaveCount, 1, highest), MaxWaves)
	waves := make([]Wave, 0, last)
	for n := 1; n <= last; n++ {
		items := groups[n]
		waves = append(waves, Wave{
			Number:    n,
			Status:    WaveStatus(items),
			ItemCount: len(items),
		})
	}
	return waves
}

// WaveStatus reports the aggregate status of a wave's items. Void items are
// ignored. The furthest-along status that applies wins, except that a wave is
// only served once every item is.
func WaveStatus(items []OrderItem) string {
	statuses := itemstatus.Statuses

	var active []OrderItem
	for _, item := range items {
		if item.IsActive() {
			active = append(active, item)
		}
	}
	if len(active) == 0 {
		return statuses.Held.Code()
	}

	allServed := true
	seen := map[string]bool{}
	for _, item := range active {
		seen[item.Status] = true
		if item.Status != statuses.Served.Code() {
			allServed = false
		}
	}

	switch {
	case allServed:
		return statuses.Served.Code()
	case seen[statuses.Ready.Code()]:
		return statuses.Ready.Code()
	case seen[statuses.Cooking.Code()]:
		return statuses.Cooking.Code()
	case seen[statuses.Sent.Code()]:
		return statuses.Sent.Code()
	}
	return statuses.Held.Code()
}

// CalculateSessionBill returns the session's own bill when one was set
// explicitly, otherwise the untaxed sum of active item prices.
func CalculateSessionBill(session Session) Bill {
	if session.Bill.Total != 0 || session.Bill.Subtotal != 0 {
		return session.Bill
	}

	sum := decimal.Zero
	for _, item := range session.ActiveItems() {
		sum = sum.Add(decimal.NewFromFloat(item.Price))
	}
	subtotal, _ := sum.Float64()
	return Bill{
		Subtotal: subtotal,
		Tax:      0,
		Total:    subtotal,
	}
}

// HasSessionData reports whether a session has guests or any live item.
// Syncing a session without data must never open an order.
func HasSessionData(session Session) bool {
	if session.GuestCount > 0 {
		return true
	}
	return len(session.ActiveItems()) > 0
}

// BillOverride replaces individual bill fields when closing an order.
type BillOverride struct {
	Subtotal *float64 `json:"subtotal,omitempty"`
	Tax      *float64 `json:"tax,omitempty"`
	Total    *float64 `json:"total,omitempty"`
}

// Apply returns b with every field set in o replaced. A nil override leaves
// the bill unchanged.
func (b Bill) Apply(o *BillOverride) Bill {
	if o == nil {
		return b
	}
	next := b
	if o.Subtotal != nil {
		next.Subtotal = round2(*o.Subtotal)
	}
	if o.Tax != nil {
		next.Tax = round2(*o.Tax)
	}
	if o.Total != nil {
		next.Total = round2(*o.Total)
	}
	return next
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
