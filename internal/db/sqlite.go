package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spacesedan/feedbackflow/internal/models"
)

type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// feedback_data and uploads tables if needed.
func OpenSQLite(ctx context.Context, path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSQLiteSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("[SQLiteStore] Database ready", slog.String("path", path))
	return &sqliteStore{db: db}, nil
}

func initSQLiteSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS feedback_data (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	feedback_text TEXT NOT NULL,
	sentiment_label TEXT NOT NULL,
	sentiment_score REAL NOT NULL,
	processed_text TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS uploads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT NOT NULL,
	rows_processed INTEGER NOT NULL,
	uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_feedback_label ON feedback_data(sentiment_label);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqliteStore) InsertFeedbackBatch(ctx context.Context, records []models.FeedbackRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO feedback_data (feedback_text, sentiment_label, sentiment_score, processed_text)
VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.FeedbackText, string(r.SentimentLabel), r.SentimentScore, r.ProcessedText); err != nil {
			return fmt.Errorf("insert feedback: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("[SQLiteStore] Stored feedback batch", slog.Int("rows", len(records)))
	return nil
}

func (s *sqliteStore) RecordUpload(ctx context.Context, filename string, rowsProcessed int) (models.Upload, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO uploads (filename, rows_processed) VALUES (?, ?)`, filename, rowsProcessed)
	if err != nil {
		return models.Upload{}, fmt.Errorf("record upload: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.Upload{}, err
	}

	return models.Upload{
		ID:            strconv.FormatInt(id, 10),
		Filename:      filename,
		RowsProcessed: rowsProcessed,
		UploadedAt:    time.Now().UTC(),
	}, nil
}

func (s *sqliteStore) LabelCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT sentiment_label, COUNT(*) FROM feedback_data GROUP BY sentiment_label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label] = n
	}
	return counts, rows.Err()
}

func (s *sqliteStore) NegativeProcessedTexts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT processed_text FROM feedback_data WHERE sentiment_label = ?`, string(models.LabelNegative))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text sql.NullString
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		if text.Valid && text.String != "" {
			texts = append(texts, text.String)
		}
	}
	return texts, rows.Err()
}

func (s *sqliteStore) SampleFeedback(ctx context.Context, limit int) ([]models.FeedbackSample, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, feedback_text, sentiment_label, sentiment_score
FROM feedback_data
ORDER BY created_at DESC, id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []models.FeedbackSample{}
	for rows.Next() {
		var id int64
		var sample models.FeedbackSample
		var label string
		if err := rows.Scan(&id, &sample.FeedbackText, &label, &sample.SentimentScore); err != nil {
			return nil, err
		}
		sample.ID = strconv.FormatInt(id, 10)
		sample.SentimentLabel = models.SentimentLabel(label)
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

func (s *sqliteStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM feedback_data`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM uploads`); err != nil {
		return err
	}
	return tx.Commit()
}
