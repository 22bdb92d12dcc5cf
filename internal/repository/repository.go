package repository

import (
	"context"
	"errors"
	"time"

	"iotguardian/internal/models"
)

var (
	// ErrHistoryDisabled is returned when no time-series backend is configured.
	ErrHistoryDisabled = errors.New("reading history is not configured")
	// ErrInvalidQuery wraps rejected history query parameters.
	ErrInvalidQuery = errors.New("invalid history query")
)

// CommandStore keeps the latest command queued per device.
type CommandStore interface {
	SetCommand(ctx context.Context, deviceID string, cmd models.DeviceCommand) error
	// GetCommand returns nil without error when nothing is queued.
	GetCommand(ctx context.Context, deviceID string) (*models.DeviceCommand, error)
	DeleteCommand(ctx context.Context, deviceID string) error
}

// QuotaCounter counts usage per key within an expiring window.
type QuotaCounter interface {
	Count(ctx context.Context, key string) (int64, error)
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// HistoryRepository stores and aggregates past readings.
type HistoryRepository interface {
	WriteReading(ctx context.Context, reading models.SensorReading) error
	QueryHistory(ctx context.Context, query models.HistoryQuery) (models.HistoryResponse, error)
}

// NoopHistory is used when InfluxDB is not configured.
type NoopHistory struct{}

func (NoopHistory) WriteReading(context.Context, models.SensorReading) error {
	return nil
}

func (NoopHistory) QueryHistory(context.Context, models.HistoryQuery) (models.HistoryResponse, error) {
	return models.HistoryResponse{}, ErrHistoryDisabled
}
