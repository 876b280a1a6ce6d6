package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/spacesedan/feedbackflow/config"
	"github.com/spacesedan/feedbackflow/internal/models"
)

var ErrUnknownDriver = errors.New("unknown store driver")

// Store persists analyzed feedback and upload metadata and serves the
// queries the reports are built from.
type Store interface {
	InsertFeedbackBatch(ctx context.Context, records []models.FeedbackRecord) error
	RecordUpload(ctx context.Context, filename string, rowsProcessed int) (models.Upload, error)

	// LabelCounts groups stored records by their label as stored.
	LabelCounts(ctx context.Context) (map[string]int, error)
	NegativeProcessedTexts(ctx context.Context) ([]string, error)
	// SampleFeedback returns up to limit records, newest first.
	SampleFeedback(ctx context.Context, limit int) ([]models.FeedbackSample, error)

	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Open connects the backend named by cfg.Driver and makes sure its schema
// exists.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", config.StoreDriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case config.StoreDriverPostgres:
		return OpenPostgres(ctx, cfg)
	case config.StoreDriverDynamoDB:
		return OpenDynamoDB(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
