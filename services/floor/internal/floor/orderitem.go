package floor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/appetiteclub/floor/pkg/enums/itemstatus"
)

// Coarse course categories an item can be tagged with.
const (
	CourseDrinks  = "drinks"
	CourseFood    = "food"
	CourseDessert = "dessert"
)

var courseWaves = map[string]int{
	CourseDrinks:  1,
	CourseFood:    2,
	CourseDessert: 3,
}

var waveModPattern = regexp.MustCompile(`(?i)^wave\s+(\d+)$`)

type OrderItem struct {
	ID           string   `json:"id"`
	MenuItemID   string   `json:"menuItemId,omitempty"`
	Name         string   `json:"name"`
	Variant      string   `json:"variant,omitempty"`
	Mods         []string `json:"mods,omitempty"`
	Price        float64  `json:"price"`
	Status       string   `json:"status"`
	Wave         string   `json:"wave,omitempty"`
	WaveNumber   *int     `json:"waveNumber,omitempty"`
	ETA          *int     `json:"eta,omitempty"`
	AllergyAlert string   `json:"allergyAlert,omitempty"`
}

// IsActive reports whether the item still counts toward waves and bills.
func (i OrderItem) IsActive() bool {
	return i.Status != itemstatus.Statuses.Void.Code()
}

// ResolveWaveNumber picks the wave an item belongs to. An explicit wave number
// wins, then a "Wave N" modifier, then the course mapping, then wave 1.
func ResolveWaveNumber(item OrderItem) int {
	if item.WaveNumber != nil && *item.WaveNumber > 0 {
		return *item.WaveNumber
	}

	for _, mod := range item.Mods {
		match := waveModPattern.FindStringSubmatch(strings.TrimSpace(mod))
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err == nil && n > 0 {
			return n
		}
	}

	if n, ok := courseWaves[item.Wave]; ok {
		return n
	}

	return 1
}

func (i OrderItem) Clone() OrderItem {
	c := i
	if i.Mods != nil {
		c.Mods = append([]string(nil), i.Mods...)
	}
	if i.WaveNumber != nil {
		n := *i.WaveNumber
		c.WaveNumber = &n
	}
	if i.ETA != nil {
		eta := *i.ETA
		c.ETA = &eta
	}
	return c
}

func cloneItems(items []OrderItem) []OrderItem {
	if items == nil {
		return nil
	}
	out := make([]OrderItem, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}
