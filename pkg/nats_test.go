package pkg

import (
	"context"
	"errors"
	"testing"

	"github.com/appetiteclub/apt"
)

type recordingLogger struct {
	apt.Logger
	errors [][]any
}

func (l *recordingLogger) Error(v ...any) {
	l.errors = append(l.errors, v)
}

func TestDeliverLogsHandlerErrors(t *testing.T) {
	tests := []struct {
		name       string
		handlerErr error
		wantLogged int
	}{
		{name: "handled"},
		{name: "handlerFails", handlerErr: errors.New("bad floor plan"), wantLogged: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &recordingLogger{Logger: apt.NewNoopLogger()}
			var got []byte
			handler := func(ctx context.Context, msg []byte) error {
				got = msg
				return tt.handlerErr
			}

			deliver(context.Background(), logger, FloorPlanTopic, handler, []byte(`{"tables":[]}`))

			if string(got) != `{"tables":[]}` {
				t.Errorf("handler received %q", got)
			}
			if len(logger.errors) != tt.wantLogged {
				t.Fatalf("logged %d errors, want %d", len(logger.errors), tt.wantLogged)
			}
			if tt.wantLogged > 0 && !containsValue(logger.errors[0], tt.handlerErr) {
				t.Errorf("logged %v, want the handler error", logger.errors[0])
			}
		})
	}
}

func containsValue(values []any, want any) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
