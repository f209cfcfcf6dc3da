package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/joho/godotenv"

	"github.com/appetiteclub/floor/pkg"
	"github.com/appetiteclub/floor/services/floor/internal/floor"
	"github.com/appetiteclub/floor/services/floor/internal/slots"
	"github.com/appetiteclub/floor/services/floor/internal/ws"
)

const (
	appNamespace = "FLOOR"
	appName      = "floor"
	appVersion   = "0.1.0"
)

func main() {
	// A missing .env is fine; environment and flags still apply.
	_ = godotenv.Load()

	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	slot, slotStop, err := slots.Open(ctx, config, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot open snapshot store: %v", appName, appVersion, err)
	}
	slotKey := slots.Key(config)

	state := floor.DefaultState()
	loaded := false
	if slot != nil {
		state, loaded = floor.LoadState(ctx, slot, slotKey, logger, time.Now().UTC())
	}

	seedEnabled, _ := config.GetString("seeding.floorplan")
	if !loaded && seedEnabled == "true" {
		tables, err := floor.SeedTables()
		if err != nil {
			log.Fatalf("%s(%s) cannot seed floor plan: %v", appName, appVersion, err)
		}
		state.Tables = tables
		logger.Info("Seeded floor plan", "tables", len(tables))
	}

	hub := ws.NewHub(logger)
	publishers := pkg.FanOut{hub}

	lifecycles := []interface{}{
		hub,
	}
	if slotStop != nil {
		lifecycles = append(lifecycles, apt.LifecycleHooks{OnStop: slotStop})
	}

	storeOpts := []floor.Option{
		floor.WithLogger(logger),
	}

	var writer *floor.SnapshotWriter
	if slot != nil {
		writer = floor.NewSnapshotWriter(slot, slotKey, logger)
		storeOpts = append(storeOpts, floor.WithPersister(writer))
		// Stopped before the slot so the final flush has a connection.
		lifecycles = append(lifecycles, writer)
	}

	var sub *pkg.NATSSubscriber
	natsEnabled := config.GetStringOrDef("nats.enabled", "true") == "true"
	if natsEnabled {
		natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

		pub, err := pkg.NewNATSPublisher(natsURL)
		if err != nil {
			log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
		}
		publishers = append(publishers, pub)

		sub, err = pkg.NewNATSSubscriber(natsURL, logger)
		if err != nil {
			log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
		}

		lifecycles = append(lifecycles,
			apt.LifecycleHooks{
				OnStop: func(context.Context) error {
					return pub.Close()
				},
			},
			apt.LifecycleHooks{
				OnStop: func(context.Context) error {
					return sub.Close()
				},
			},
		)
	}
	storeOpts = append(storeOpts, floor.WithPublisher(publishers))

	store := floor.NewStore(state, storeOpts...)
	if writer != nil && !loaded && len(state.Tables) > 0 {
		writer.Persist(store.Revision(), store.Snapshot())
	}

	if sub != nil {
		var planSource floor.Subscriber = sub
		if config.GetStringOrDef("nats.stream.enabled", "false") == "true" {
			stream, err := pkg.NewNATSStream(ctx, pkg.NATSStreamConfig{
				URL:        config.GetStringOrDef("nats.url", "nats://localhost:4222"),
				StreamName: config.GetStringOrDef("nats.stream.name", "FLOOR_PLANS"),
				Subjects:   []string{pkg.FloorPlanTopic},
				Logger:     logger,
			})
			if err != nil {
				log.Fatalf("%s(%s) cannot open floor plan stream: %v", appName, appVersion, err)
			}
			planSource = stream
			lifecycles = append(lifecycles, apt.LifecycleHooks{
				OnStop: func(context.Context) error {
					return stream.Close()
				},
			})
		}
		lifecycles = append(lifecycles, floor.NewFloorPlanSubscriber(planSource, store, logger))
	}

	handler := floor.NewHandler(store, logger)
	wsHandler := ws.NewHandler(hub, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true, // Internal API service
	})
	stack = append(stack, middleware.InternalOnly())

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler, wsHandler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		if slotStop != nil {
			_ = slotStop(context.Background())
		}
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
