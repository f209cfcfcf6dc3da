package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/appetiteclub/apt"
	"github.com/joho/godotenv"

	"github.com/appetiteclub/floor/services/floor/internal/commands"
	"github.com/appetiteclub/floor/services/floor/internal/floor"
)

const (
	appName    = "floor-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	// Same namespace as the service so both resolve the same snapshot store.
	config, err := apt.LoadConfig("FLOOR", os.Args[2:])
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel := config.GetStringOrDef("log.level", "info")
	logger := apt.NewLogger(logLevel)

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "seed-demo":
		err := commands.Run(ctx, config, logger, func(ctx context.Context, slot floor.SnapshotSlot, key string) error {
			return commands.SeedDemo(ctx, slot, key, logger)
		})
		if err != nil {
			log.Fatalf("❌ Demo seeding failed: %v", err)
		}
		logger.Info("✅ Demo seeding completed successfully")

	case "reset":
		err := commands.Run(ctx, config, logger, func(ctx context.Context, slot floor.SnapshotSlot, key string) error {
			return commands.Reset(ctx, slot, key, logger)
		})
		if err != nil {
			log.Fatalf("❌ Floor reset failed: %v", err)
		}
		logger.Info("✅ Floor reset completed successfully")

	case "export":
		err := commands.Run(ctx, config, logger, func(ctx context.Context, slot floor.SnapshotSlot, key string) error {
			return commands.Export(ctx, slot, key, os.Stdout, logger)
		})
		if err != nil {
			log.Fatalf("❌ Export failed: %v", err)
		}

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - Floor service utility commands

Usage:
  %s <command> [options]

Commands:
  seed-demo    Apply demo seeding (seated tables, open orders, a reservation and a waitlist)
  reset        Replace the stored floor with the bundled floor plan (USE WITH CAUTION)
  export       Print the stored floor as a current-format snapshot
  version      Print version information
  help         Show this help message

Environment Variables:
  FLOOR_STORE_DRIVER     Snapshot store: sqlite, postgres, mongo (default: sqlite)
  FLOOR_STORE_SLOT       Snapshot key (default: restaurant-store)
  FLOOR_DB_SQLITE_PATH   SQLite file (default: floor.db)
  FLOOR_LOG_LEVEL        Log level: debug, info, warn, error (default: info)

Examples:
  %s seed-demo
  %s export > floor.json
  FLOOR_STORE_DRIVER=postgres %s reset

`, appName, appName, appName, appName, appName)
}
