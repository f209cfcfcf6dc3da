package pkg

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSStream subscribes to subjects retained by a JetStream stream. A new
// subscription first receives the last retained message of its subject and
// then follows live traffic, so snapshot topics such as the floor plan are
// current right after startup.
type NATSStream struct {
	conn   *nats.Conn
	stream jetstream.Stream
	logger apt.Logger

	mu       sync.Mutex
	consumes []jetstream.ConsumeContext
}

type NATSStreamConfig struct {
	URL        string
	StreamName string        // e.g. "FLOOR_PLANS"
	Subjects   []string      // e.g. FloorPlanTopic
	MaxAge     time.Duration // zero keeps messages until replaced
	Logger     apt.Logger
}

// NewNATSStream connects and makes sure the stream exists. Only the newest
// message per subject is retained.
func NewNATSStream(ctx context.Context, cfg NATSStreamConfig) (*NATSStream, error) {
	if cfg.Logger == nil {
		cfg.Logger = apt.NewNoopLogger()
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("floor-stream"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:              cfg.StreamName,
		Subjects:          cfg.Subjects,
		MaxAge:            cfg.MaxAge,
		MaxMsgsPerSubject: 1,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create/update stream %s: %w", cfg.StreamName, err)
	}

	return &NATSStream{conn: conn, stream: stream, logger: cfg.Logger}, nil
}

// Subscribe replays the last message on topic and then delivers new ones.
// The consumer is ephemeral; a failed message is logged and not redelivered.
func (s *NATSStream) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	consumer, err := s.stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{topic},
		DeliverPolicy:  jetstream.DeliverLastPerSubjectPolicy,
	})
	if err != nil {
		return fmt.Errorf("cannot create consumer for %s: %w", topic, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		deliver(ctx, s.logger, topic, handler, msg.Data())
	})
	if err != nil {
		return fmt.Errorf("cannot consume %s: %w", topic, err)
	}

	s.mu.Lock()
	s.consumes = append(s.consumes, cc)
	s.mu.Unlock()
	return nil
}

func (s *NATSStream) Close() error {
	s.mu.Lock()
	for _, cc := range s.consumes {
		cc.Stop()
	}
	s.consumes = nil
	s.mu.Unlock()

	s.conn.Close()
	return nil
}
