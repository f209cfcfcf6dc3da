package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/floor/services/floor/internal/floor"
	"github.com/appetiteclub/floor/services/floor/internal/seeding"
	"github.com/appetiteclub/floor/services/floor/internal/slots"
)

// SeedDemo loads the stored floor, applies the demo service to it and writes
// it back. A floor that already carries the demo is left alone.
func SeedDemo(ctx context.Context, slot floor.SnapshotSlot, key string, logger apt.Logger) error {
	now := time.Now().UTC()
	state, _ := floor.LoadState(ctx, slot, key, logger, now)

	writer := floor.NewSnapshotWriter(slot, key, logger)
	store := floor.NewStore(state, floor.WithLogger(logger), floor.WithPersister(writer))

	if seeding.IsSeeded(store) {
		logger.Info("Demo seeds already applied, skipping", "key", key)
		return nil
	}

	if err := seeding.ApplyDemo(store, now); err != nil {
		return fmt.Errorf("apply demo: %w", err)
	}

	return flush(ctx, writer, slot, key)
}

// Reset replaces the stored floor with the bundled floor plan and nothing
// else: no orders, reservations or waitlist.
func Reset(ctx context.Context, slot floor.SnapshotSlot, key string, logger apt.Logger) error {
	logger.Infof("⚠️  Resetting floor snapshot %s", key)

	tables, err := floor.SeedTables()
	if err != nil {
		return err
	}
	state := floor.DefaultState()
	state.Tables = tables

	data, err := floor.EncodeSnapshot(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := slot.Save(ctx, key, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	logger.Info("Floor snapshot reset", "key", key, "tables", len(tables))
	return nil
}

// Export writes the stored floor to out as indented JSON in the current
// snapshot format. Older snapshot shapes are upgraded on the way.
func Export(ctx context.Context, slot floor.SnapshotSlot, key string, out io.Writer, logger apt.Logger) error {
	state, ok := floor.LoadState(ctx, slot, key, logger, time.Now().UTC())
	if !ok {
		return fmt.Errorf("no readable snapshot under %s", key)
	}

	data, err := floor.EncodeSnapshot(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	var pretty json.RawMessage = data
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}

// Run opens the configured slot, runs fn against it and releases the slot.
func Run(ctx context.Context, config *apt.Config, logger apt.Logger, fn func(ctx context.Context, slot floor.SnapshotSlot, key string) error) error {
	slot, stop, err := slots.Open(ctx, config, logger)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	if stop != nil {
		defer func() {
			if err := stop(context.Background()); err != nil {
				logger.Error("cannot close snapshot store", "error", err)
			}
		}()
	}
	if slot == nil {
		return fmt.Errorf("store.driver %q has no snapshot store", slots.DriverNone)
	}

	return fn(ctx, slot, slots.Key(config))
}

func flush(ctx context.Context, writer *floor.SnapshotWriter, slot floor.SnapshotSlot, key string) error {
	writer.Flush(ctx)

	data, err := slot.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("verify snapshot: %w", err)
	}
	if _, ok := floor.DecodeSnapshot(data, time.Now().UTC()); !ok {
		return fmt.Errorf("snapshot under %s was not written", key)
	}
	return nil
}
