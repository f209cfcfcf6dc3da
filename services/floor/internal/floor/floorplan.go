package floor

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/appetiteclub/floor/pkg"
	"github.com/appetiteclub/floor/pkg/enums/tablestatus"
)

//go:embed floorplan.json
var seedFloorPlan []byte

// Subscriber is the subset of a message bus client the floor-plan feed needs.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error
}

// TablesFromPlan converts layout geometry into tables. New tables start free;
// tables the store already knows keep their live state through SetTables.
func TablesFromPlan(plan []pkg.FloorPlanTable) []Table {
	tables := make([]Table, 0, len(plan))
	for _, p := range plan {
		if p.ID == "" {
			continue
		}
		t := Table{
			ID:       NormalizeTableID(p.ID),
			Number:   p.Number,
			Section:  p.Section,
			Capacity: p.Capacity,
			Shape:    p.Shape,
			Position: Position{X: p.X, Y: p.Y},
			Status:   tablestatus.Statuses.Free.Code(),
		}
		if p.Width != nil {
			t.Width = float64Ptr(*p.Width)
		}
		if p.Height != nil {
			t.Height = float64Ptr(*p.Height)
		}
		if p.Rotation != nil {
			t.Rotation = float64Ptr(*p.Rotation)
		}
		tables = append(tables, t)
	}
	return tables
}

// SeedTables returns the tables of the floor plan bundled with the service.
func SeedTables() ([]Table, error) {
	var plan []pkg.FloorPlanTable
	if err := json.Unmarshal(seedFloorPlan, &plan); err != nil {
		return nil, fmt.Errorf("cannot decode seed floor plan: %w", err)
	}
	return TablesFromPlan(plan), nil
}

// FloorPlanSubscriber keeps table geometry in step with the floor-plan
// editor. Live operational state is never taken from a plan.
type FloorPlanSubscriber struct {
	subscriber Subscriber
	store      *Store
	logger     apt.Logger
}

func NewFloorPlanSubscriber(sub Subscriber, store *Store, logger apt.Logger) *FloorPlanSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &FloorPlanSubscriber{
		subscriber: sub,
		store:      store,
		logger:     logger,
	}
}

func (s *FloorPlanSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting floor plan subscriber", "topic", pkg.FloorPlanTopic)
	if s.subscriber == nil {
		return fmt.Errorf("floor plan subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, pkg.FloorPlanTopic, s.handleEvent)
}

func (s *FloorPlanSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var event pkg.FloorPlanEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		s.logger.Info("invalid floor plan event", "error", err)
		return nil
	}
	if event.EventType != "" && event.EventType != pkg.EventFloorPlanPublished {
		s.logger.Debug("ignoring floor plan event", "event_type", event.EventType)
		return nil
	}

	tables := TablesFromPlan(event.Tables)
	s.store.SetTables(tables)
	s.logger.Debug("floor plan applied", "tables", len(tables), "source", event.Source)
	return nil
}
