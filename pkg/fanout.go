package pkg

import (
	"context"
	"errors"
)

// Publisher is the minimal publishing contract shared by the NATS publisher
// and the websocket hub.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg []byte) error
}

// FanOut delivers every message to all publishers and joins their errors.
type FanOut []Publisher

func (f FanOut) Publish(ctx context.Context, topic string, msg []byte) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, topic, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
