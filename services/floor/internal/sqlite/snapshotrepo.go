package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const memoryPath = ":memory:"

type snapshotRecord struct {
	Slot      string `gorm:"primaryKey"`
	Data      string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (snapshotRecord) TableName() string {
	return "floor_snapshots"
}

// SnapshotRepo keeps encoded floor snapshots in a local SQLite file.
type SnapshotRepo struct {
	path   string
	db     *gorm.DB
	logger apt.Logger
}

func NewSnapshotRepo(path string, log apt.Logger) *SnapshotRepo {
	if log == nil {
		log = apt.NewNoopLogger()
	}
	if path == "" {
		path = memoryPath
	}
	return &SnapshotRepo{path: path, logger: log}
}

func (r *SnapshotRepo) Start(ctx context.Context) error {
	db, err := gorm.Open(sqlite.Open(r.path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("cannot open SQLite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("cannot access SQLite connection: %w", err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.WithContext(ctx).AutoMigrate(&snapshotRecord{}); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("cannot migrate snapshot table: %w", err)
	}

	r.db = db
	r.logger.Info("Opened SQLite snapshot store", "path", r.path)
	return nil
}

func (r *SnapshotRepo) Stop(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("cannot access SQLite connection: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("cannot close SQLite database: %w", err)
	}
	r.logger.Info("Closed SQLite snapshot store")
	return nil
}

func (r *SnapshotRepo) Load(ctx context.Context, key string) ([]byte, error) {
	var records []snapshotRecord
	err := r.db.WithContext(ctx).Where("slot = ?", key).Limit(1).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("cannot load snapshot %s: %w", key, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return []byte(records[0].Data), nil
}

func (r *SnapshotRepo) Save(ctx context.Context, key string, data []byte) error {
	record := snapshotRecord{
		Slot:      key,
		Data:      string(data),
		UpdatedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("cannot save snapshot %s: %w", key, err)
	}
	return nil
}
