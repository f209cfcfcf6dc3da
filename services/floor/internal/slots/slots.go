package slots

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/floor/services/floor/internal/floor"
	"github.com/appetiteclub/floor/services/floor/internal/mongo"
	"github.com/appetiteclub/floor/services/floor/internal/postgres"
	"github.com/appetiteclub/floor/services/floor/internal/sqlite"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverNone     = "none"

	DefaultKey = "restaurant-store"
)

// StopFunc releases the connection behind a slot.
type StopFunc func(context.Context) error

// Open connects the storage selected by store.driver. The returned slot is
// nil for the none driver, and the stop function is nil when there is
// nothing to release.
func Open(ctx context.Context, config *apt.Config, logger apt.Logger) (floor.SnapshotSlot, StopFunc, error) {
	driver := config.GetStringOrDef("store.driver", DriverSQLite)

	switch driver {
	case DriverMongo:
		conn := mongo.NewConn(config, logger)
		if err := conn.Start(ctx); err != nil {
			return nil, nil, err
		}
		repo, err := conn.Snapshots()
		if err != nil {
			return nil, nil, err
		}
		return repo, conn.Stop, nil

	case DriverPostgres:
		url := config.GetStringOrDef("db.postgres.url", "postgres://localhost:5432/appetite_floor")
		repo := postgres.NewSnapshotRepo(url, logger)
		if err := repo.Start(ctx); err != nil {
			return nil, nil, err
		}
		return repo, repo.Stop, nil

	case DriverSQLite:
		path := config.GetStringOrDef("db.sqlite.path", "floor.db")
		repo := sqlite.NewSnapshotRepo(path, logger)
		if err := repo.Start(ctx); err != nil {
			return nil, nil, err
		}
		return repo, repo.Stop, nil

	case DriverNone:
		logger.Info("Snapshot persistence disabled")
		return nil, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// Key returns the slot key configured under store.slot.
func Key(config *apt.Config) string {
	return config.GetStringOrDef("store.slot", DefaultKey)
}
