package db

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spacesedan/feedbackflow/config"
	"github.com/spacesedan/feedbackflow/internal/clients"
	"github.com/spacesedan/feedbackflow/internal/models"
)

// rows per multi-row INSERT, well under the 65535 bind parameter limit
const postgresInsertChunk = 1000

type postgresStore struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	pool, err := clients.NewPostgresPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	schema := `
CREATE TABLE IF NOT EXISTS feedback_data (
	id BIGSERIAL PRIMARY KEY,
	feedback_text TEXT NOT NULL,
	sentiment_label TEXT NOT NULL,
	sentiment_score DOUBLE PRECISION NOT NULL,
	processed_text TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS uploads (
	id BIGSERIAL PRIMARY KEY,
	filename TEXT NOT NULL,
	rows_processed INTEGER NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_feedback_label ON feedback_data(sentiment_label);
`
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("[PostgresStore] init schema: %w", err)
	}

	return &postgresStore{pool: pool}, nil
}

func (s *postgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *postgresStore) InsertFeedbackBatch(ctx context.Context, records []models.FeedbackRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for start := 0; start < len(records); start += postgresInsertChunk {
		end := start + postgresInsertChunk
		if end > len(records) {
			end = len(records)
		}
		query, values := feedbackInsertQuery(records[start:end])
		if _, err := tx.Exec(ctx, query, values...); err != nil {
			return fmt.Errorf("failed to insert feedback: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	slog.Info("[PostgresStore] Stored feedback batch", slog.Int("rows", len(records)))
	return nil
}

// feedbackInsertQuery builds one multi-row INSERT with numbered placeholders.
func feedbackInsertQuery(records []models.FeedbackRecord) (string, []any) {
	values := make([]any, 0, len(records)*4)
	placeholders := make([]string, 0, len(records))

	for i, r := range records {
		offset := i * 4
		placeholders = append(placeholders,
			fmt.Sprintf("($%d, $%d, $%d, $%d)", offset+1, offset+2, offset+3, offset+4))
		values = append(values, r.FeedbackText, string(r.SentimentLabel), r.SentimentScore, r.ProcessedText)
	}

	query := `INSERT INTO feedback_data (feedback_text, sentiment_label, sentiment_score, processed_text) VALUES ` +
		strings.Join(placeholders, ", ")
	return query, values
}

func (s *postgresStore) RecordUpload(ctx context.Context, filename string, rowsProcessed int) (models.Upload, error) {
	upload := models.Upload{Filename: filename, RowsProcessed: rowsProcessed}

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO uploads (filename, rows_processed) VALUES ($1, $2) RETURNING id, uploaded_at`,
		filename, rowsProcessed).Scan(&id, &upload.UploadedAt)
	if err != nil {
		return models.Upload{}, fmt.Errorf("failed to record upload: %w", err)
	}

	upload.ID = strconv.FormatInt(id, 10)
	return upload, nil
}

func (s *postgresStore) LabelCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT sentiment_label, COUNT(*) FROM feedback_data GROUP BY sentiment_label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int64
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label] = int(n)
	}
	return counts, rows.Err()
}

func (s *postgresStore) NegativeProcessedTexts(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT COALESCE(processed_text, '') FROM feedback_data WHERE sentiment_label = $1`,
		string(models.LabelNegative))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	return texts, rows.Err()
}

func (s *postgresStore) SampleFeedback(ctx context.Context, limit int) ([]models.FeedbackSample, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, feedback_text, sentiment_label, sentiment_score
FROM feedback_data
ORDER BY created_at DESC, id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []models.FeedbackSample{}
	for rows.Next() {
		var id int64
		var label string
		var sample models.FeedbackSample
		if err := rows.Scan(&id, &sample.FeedbackText, &label, &sample.SentimentScore); err != nil {
			return nil, err
		}
		sample.ID = strconv.FormatInt(id, 10)
		sample.SentimentLabel = models.SentimentLabel(label)
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

func (s *postgresStore) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE feedback_data, uploads`)
	return err
}
