package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/appetiteclub/floor/pkg"
)

func mockClient(hub *Hub, tableID string) *Client {
	return &Client{
		hub:     hub,
		tableID: tableID,
		send:    make(chan []byte, 256),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := hub.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return hub
}

func publishEvent(t *testing.T, hub *Hub, evt pkg.FloorEvent) {
	t.Helper()
	payload, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := hub.Publish(context.Background(), pkg.FloorTopic, payload); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
}

func receive(c *Client, wait time.Duration) (Event, bool) {
	select {
	case msg, ok := <-c.send:
		if !ok {
			return Event{}, false
		}
		var e Event
		if err := json.Unmarshal(msg, &e); err != nil {
			return Event{}, false
		}
		return e, true
	case <-time.After(wait):
		return Event{}, false
	}
}

func TestHubRegistration(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, "")

	if !hub.add(client) {
		t.Fatal("add() = false, want true")
	}
	time.Sleep(10 * time.Millisecond)

	if got := hub.ClientCount(); got != 1 {
		t.Errorf("ClientCount() = %d, want 1", got)
	}

	hub.remove(client)
	time.Sleep(10 * time.Millisecond)

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount() after remove = %d, want 0", got)
	}
}

func TestHubPublishFiltersByTable(t *testing.T) {
	hub := startHub(t)

	all := mockClient(hub, "")
	t1 := mockClient(hub, "t1")
	t2 := mockClient(hub, "t2")
	for _, c := range []*Client{all, t1, t2} {
		hub.add(c)
	}
	time.Sleep(10 * time.Millisecond)

	publishEvent(t, hub, pkg.FloorEvent{EventType: pkg.EventOrderOpened, TableID: "t1", OrderID: "o1"})

	if e, ok := receive(all, 100*time.Millisecond); !ok || e.Type != pkg.EventOrderOpened {
		t.Errorf("unfiltered client got %+v, %v", e, ok)
	}
	if e, ok := receive(t1, 100*time.Millisecond); !ok || e.TableID != "t1" {
		t.Errorf("t1 client got %+v, %v", e, ok)
	}
	if _, ok := receive(t2, 50*time.Millisecond); ok {
		t.Error("t2 client should not receive events for t1")
	}
}

func TestHubPublishFloorWideEvent(t *testing.T) {
	hub := startHub(t)

	t2 := mockClient(hub, "t2")
	hub.add(t2)
	time.Sleep(10 * time.Millisecond)

	publishEvent(t, hub, pkg.FloorEvent{EventType: pkg.EventTablesSynced})

	e, ok := receive(t2, 100*time.Millisecond)
	if !ok {
		t.Fatal("table client did not receive floor-wide event")
	}
	var payload pkg.FloorEvent
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		t.Fatalf("payload unmarshal: %v", err)
	}
	if payload.EventType != pkg.EventTablesSynced {
		t.Errorf("payload event_type = %s, want %s", payload.EventType, pkg.EventTablesSynced)
	}
}

func TestHubPublishInvalidPayload(t *testing.T) {
	hub := startHub(t)

	if err := hub.Publish(context.Background(), pkg.FloorTopic, []byte("not json")); err == nil {
		t.Error("Publish() error = nil, want decode error")
	}
}

func TestHubStopDisconnectsClients(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, "")
	hub.add(client)
	time.Sleep(10 * time.Millisecond)

	if err := hub.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, open := <-client.send; open {
		t.Error("client send channel should be closed after Stop")
	}
	if hub.add(mockClient(hub, "")) {
		t.Error("add() after Stop = true, want false")
	}
	if err := hub.Publish(context.Background(), pkg.FloorTopic, []byte(`{"event_type":"x"}`)); err != nil {
		t.Errorf("Publish() after Stop error = %v", err)
	}
}
