package mongo

import (
	"context"
	"testing"

	"github.com/appetiteclub/apt"
)

func TestNewConnReadsConfig(t *testing.T) {
	tests := []struct {
		name           string
		values         map[string]any
		wantURL        string
		wantDatabase   string
		wantCollection string
	}{
		{
			name:           "defaults",
			wantURL:        defaultURL,
			wantDatabase:   defaultDatabase,
			wantCollection: defaultCollection,
		},
		{
			name: "configured",
			values: map[string]any{
				"db.mongo.url":        "mongodb://floor-db:27017",
				"db.mongo.name":       "bistro",
				"db.mongo.collection": "bistro_snapshots",
			},
			wantURL:        "mongodb://floor-db:27017",
			wantDatabase:   "bistro",
			wantCollection: "bistro_snapshots",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := apt.NewConfig()
			config.MergeFlat(tt.values)

			conn := NewConn(config, nil)
			if conn.url != tt.wantURL || conn.database != tt.wantDatabase || conn.collection != tt.wantCollection {
				t.Errorf("NewConn() = %s/%s/%s, want %s/%s/%s",
					conn.url, conn.database, conn.collection, tt.wantURL, tt.wantDatabase, tt.wantCollection)
			}
		})
	}
}

func TestConnNotStarted(t *testing.T) {
	conn := NewConn(apt.NewConfig(), apt.NewNoopLogger())

	if _, err := conn.Snapshots(); err == nil {
		t.Error("Snapshots() error = nil, want error before Start")
	}
	if err := conn.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v, want nil before Start", err)
	}
}
