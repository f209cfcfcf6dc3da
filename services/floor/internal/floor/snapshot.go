package floor

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/appetiteclub/floor/pkg/enums/itemstatus"
)

// SnapshotVersion is the envelope version written by EncodeSnapshot. Older
// envelopes are not trusted and fall through to the legacy shapes.
const SnapshotVersion = 2

type snapshotEnvelope struct {
	Version int   `json:"version"`
	Data    State `json:"data"`
}

// EncodeSnapshot serializes the whole store into a versioned envelope.
func EncodeSnapshot(st State) ([]byte, error) {
	return json.Marshal(snapshotEnvelope{Version: SnapshotVersion, Data: st})
}

// shapeDetector extracts the state object from a persisted document, or
// reports that the document does not have its shape.
type shapeDetector func(doc map[string]json.RawMessage) (json.RawMessage, bool)

var snapshotShapes = []shapeDetector{
	versionedEnvelope,
	wrappedState,
	bareState,
}

// DecodeSnapshot restores a state from any of the persisted shapes. Invalid
// data yields DefaultState and false; it never fails harder than that.
func DecodeSnapshot(data []byte, now time.Time) (State, bool) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		return DefaultState(), false
	}
	for _, detect := range snapshotShapes {
		raw, ok := detect(doc)
		if !ok {
			continue
		}
		if st, ok := decodeState(raw, now); ok {
			return st, true
		}
	}
	return DefaultState(), false
}

func versionedEnvelope(doc map[string]json.RawMessage) (json.RawMessage, bool) {
	rawVersion, ok := doc["version"]
	if !ok {
		return nil, false
	}
	var version float64
	if err := json.Unmarshal(rawVersion, &version); err != nil || version < SnapshotVersion {
		return nil, false
	}
	data, ok := doc["data"]
	if !ok || !isJSONObject(data) {
		return nil, false
	}
	return data, true
}

func wrappedState(doc map[string]json.RawMessage) (json.RawMessage, bool) {
	raw, ok := doc["state"]
	if !ok || !isJSONObject(raw) {
		return nil, false
	}
	return raw, true
}

func bareState(doc map[string]json.RawMessage) (json.RawMessage, bool) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, false
	}
	return raw, true
}

func decodeState(raw json.RawMessage, now time.Time) (State, bool) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return State{}, false
	}
	for _, key := range []string{"tables", "reservations", "waitlist"} {
		if !isJSONArray(doc[key]) {
			return State{}, false
		}
	}

	st := DefaultState()
	st.Tables = decodeRecords[Table](doc["tables"], tableFields)
	st.Reservations = decodeRecords[Reservation](doc["reservations"], reservationFields)
	st.Waitlist = decodeRecords[WaitlistEntry](doc["waitlist"], waitlistFields)

	if isJSONArray(doc["orders"]) {
		var rawOrders []json.RawMessage
		if err := json.Unmarshal(doc["orders"], &rawOrders); err == nil {
			for _, ro := range rawOrders {
				if o, ok := normalizeOrder(ro, now); ok {
					st.Orders = append(st.Orders, o)
				}
			}
		}
	}
	return st, true
}

// recordFields names the loosely typed fields of a persisted record: numbers
// that may arrive as strings and timestamps that may arrive in any form
// parseTime accepts.
type recordFields struct {
	ints  []string
	times []string
}

var (
	tableFields       = recordFields{ints: []string{"number", "capacity", "guests"}, times: []string{"seatedAt"}}
	reservationFields = recordFields{ints: []string{"partySize", "duration"}, times: []string{"createdAt", "updatedAt"}}
	waitlistFields    = recordFields{ints: []string{"partySize", "waitTime"}, times: []string{"addedAt"}}
)

// decodeRecords decodes a persisted collection one element at a time. An
// element without a string id, or one that still fails after coercion, is
// dropped; the rest survive.
func decodeRecords[T any](raw json.RawMessage, fields recordFields) []T {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return []T{}
	}
	out := make([]T, 0, len(elems))
	for _, elem := range elems {
		if v, ok := decodeRecord[T](elem, fields); ok {
			out = append(out, v)
		}
	}
	return out
}

func decodeRecord[T any](raw json.RawMessage, fields recordFields) (T, bool) {
	var zero T
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return zero, false
	}
	var id string
	if err := json.Unmarshal(doc["id"], &id); err != nil || id == "" {
		return zero, false
	}

	for _, key := range fields.ints {
		if v, ok := doc[key]; ok {
			doc[key] = json.RawMessage(strconv.Itoa(coerceInt(v)))
		}
	}
	for _, key := range fields.times {
		v, ok := doc[key]
		if !ok {
			continue
		}
		t, ok := parseTime(v)
		if !ok {
			delete(doc, key)
			continue
		}
		b, err := json.Marshal(t)
		if err != nil {
			return zero, false
		}
		doc[key] = b
	}

	fixed, err := json.Marshal(doc)
	if err != nil {
		return zero, false
	}
	var out T
	if err := json.Unmarshal(fixed, &out); err != nil {
		return zero, false
	}
	return out, true
}

type persistedOrder struct {
	ID          string            `json:"id"`
	TableID     string            `json:"tableId"`
	TableNumber json.RawMessage   `json:"tableNumber"`
	Status      string            `json:"status"`
	OpenedAt    json.RawMessage   `json:"openedAt"`
	UpdatedAt   json.RawMessage   `json:"updatedAt"`
	ClosedAt    json.RawMessage   `json:"closedAt"`
	GuestCount  json.RawMessage   `json:"guestCount"`
	WaveCount   json.RawMessage   `json:"waveCount"`
	Waves       json.RawMessage   `json:"waves"`
	Bill        json.RawMessage   `json:"bill"`
	Session     json.RawMessage   `json:"session"`
	Timeline    []json.RawMessage `json:"timeline"`
}

type persistedTimelineEvent struct {
	Type       string          `json:"type"`
	At         json.RawMessage `json:"at"`
	WaveNumber json.RawMessage `json:"waveNumber"`
	FromStatus string          `json:"fromStatus"`
	ToStatus   string          `json:"toStatus"`
}

type persistedWave struct {
	Number    json.RawMessage `json:"number"`
	Status    string          `json:"status"`
	ItemCount json.RawMessage `json:"itemCount"`
}

// normalizeOrder rebuilds one persisted order. Orders without an id, a
// table, a session or a waves list are dropped; any other malformed field is
// coerced to a usable value.
func normalizeOrder(raw json.RawMessage, now time.Time) (Order, bool) {
	var p persistedOrder
	if err := json.Unmarshal(raw, &p); err != nil {
		return Order{}, false
	}
	if p.ID == "" || p.TableID == "" || !isJSONObject(p.Session) || !isJSONArray(p.Waves) {
		return Order{}, false
	}

	var session Session
	if err := json.Unmarshal(p.Session, &session); err != nil {
		return Order{}, false
	}
	var rawWaves []persistedWave
	if err := json.Unmarshal(p.Waves, &rawWaves); err != nil {
		return Order{}, false
	}

	o := Order{
		ID:          p.ID,
		TableID:     p.TableID,
		TableNumber: coerceInt(p.TableNumber),
		Status:      p.Status,
		OpenedAt:    coerceTime(p.OpenedAt, now),
		UpdatedAt:   coerceTime(p.UpdatedAt, now),
		GuestCount:  coerceInt(p.GuestCount),
		WaveCount:   coerceInt(p.WaveCount),
		Waves:       make([]Wave, 0, len(rawWaves)),
		Session:     session,
		Timeline:    []TimelineEvent{},
	}
	if closedAt, ok := parseTime(p.ClosedAt); ok {
		o.ClosedAt = &closedAt
	}
	if o.Status != OrderOpen && o.Status != OrderClosed {
		o.Status = OrderOpen
		if o.ClosedAt != nil {
			o.Status = OrderClosed
		}
	}

	for _, w := range rawWaves {
		status := w.Status
		if !itemstatus.IsWaveStatus(status) {
			status = itemstatus.Statuses.Held.Code()
		}
		o.Waves = append(o.Waves, Wave{
			Number:    coerceInt(w.Number),
			Status:    status,
			ItemCount: coerceInt(w.ItemCount),
		})
	}

	if len(p.Bill) > 0 {
		var bill Bill
		if err := json.Unmarshal(p.Bill, &bill); err == nil {
			o.Bill = bill
		}
	}

	for _, rawEvent := range p.Timeline {
		var e persistedTimelineEvent
		if err := json.Unmarshal(rawEvent, &e); err != nil {
			continue
		}
		switch e.Type {
		case TimelineOpened, TimelineWaveStatusChanged, TimelineClosed:
		default:
			continue
		}
		evt := TimelineEvent{
			Type:       e.Type,
			At:         coerceTime(e.At, now),
			WaveNumber: coerceInt(e.WaveNumber),
		}
		if itemstatus.IsWaveStatus(e.FromStatus) {
			evt.FromStatus = e.FromStatus
		}
		if itemstatus.IsWaveStatus(e.ToStatus) {
			evt.ToStatus = e.ToStatus
		}
		o.Timeline = append(o.Timeline, evt)
	}

	return o, true
}

// parseTime accepts an RFC3339 string or epoch milliseconds.
// localLayouts are zone-less timestamps some writers emit; they are read as UTC.
var localLayouts = []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"}

func parseTime(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC(), true
		}
		for _, layout := range localLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t, true
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
		return time.Time{}, false
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

func coerceTime(raw json.RawMessage, now time.Time) time.Time {
	if t, ok := parseTime(raw); ok {
		return t
	}
	return now
}

func coerceInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v
		}
	}
	return 0
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
