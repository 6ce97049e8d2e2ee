// Package predictionlog keeps an audit trail of scoring requests in
// Postgres.
package predictionlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Entry is one scoring outcome.
type Entry struct {
	RequestID    string
	Label        string
	Confidence   float64
	ModelVersion string
	Features     interface{}
}

// Recorder stores entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

type PredictionLog struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	RequestID    string         `gorm:"type:varchar(64);index"`
	Label        string         `gorm:"type:varchar(64);not null"`
	Confidence   float64        `gorm:"not null"`
	ModelVersion string         `gorm:"type:varchar(64);not null"`
	Features     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
}

// NewRow converts an entry into its table row.
func NewRow(e Entry) (*PredictionLog, error) {
	features, err := json.Marshal(e.Features)
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}
	return &PredictionLog{
		ID:           uuid.New(),
		RequestID:    e.RequestID,
		Label:        e.Label,
		Confidence:   e.Confidence,
		ModelVersion: e.ModelVersion,
		Features:     datatypes.JSON(features),
	}, nil
}

// Store writes entries through gorm.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn and migrates the prediction_log table.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open prediction log: %w", err)
	}
	if err := db.AutoMigrate(&PredictionLog{}); err != nil {
		return nil, fmt.Errorf("migrate prediction log: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Record(ctx context.Context, e Entry) error {
	row, err := NewRow(e)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert prediction log: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }
func (Nop) Close() error                        { return nil }
