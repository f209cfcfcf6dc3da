package pkg

import (
	"context"
	"errors"
	"testing"
)

type recordingPublisher struct {
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	p.topics = append(p.topics, topic)
	return p.err
}

func TestFanOutPublish(t *testing.T) {
	errDown := errors.New("nats down")

	tests := []struct {
		name      string
		failFirst bool
		wantErr   bool
	}{
		{name: "allSucceed"},
		{name: "oneFails", failFirst: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := &recordingPublisher{}
			if tt.failFirst {
				first.err = errDown
			}
			second := &recordingPublisher{}
			f := FanOut{first, nil, second}

			err := f.Publish(context.Background(), FloorTopic, []byte(`{}`))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Publish() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, errDown) {
				t.Errorf("Publish() error = %v, want %v", err, errDown)
			}
			if len(second.topics) != 1 {
				t.Errorf("second publisher got %d messages, want 1 even after a failure", len(second.topics))
			}
		})
	}
}
