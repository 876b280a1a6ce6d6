package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spacesedan/feedbackflow/internal/analysis"
	"github.com/spacesedan/feedbackflow/internal/db"
	"github.com/spacesedan/feedbackflow/internal/models"
	"github.com/spacesedan/feedbackflow/internal/reports"
)

const previewSize = 5

// Pipeline analyzes feedback, persists the records and drops cached
// reports. Uploads, the Kafka consumer and the stream handler share it.
type Pipeline struct {
	analyzer *analysis.BatchAnalyzer
	store    db.Store
	reports  *reports.Service
}

func NewPipeline(analyzer *analysis.BatchAnalyzer, store db.Store, reportSvc *reports.Service) *Pipeline {
	return &Pipeline{analyzer: analyzer, store: store, reports: reportSvc}
}

// Ingest returns the stored records in input order.
func (p *Pipeline) Ingest(ctx context.Context, texts []string, pre analysis.Preprocessor) ([]models.FeedbackRecord, error) {
	records := p.analyzer.AnalyzeWith(texts, pre)
	if len(records) == 0 {
		return records, nil
	}

	if err := p.store.InsertFeedbackBatch(ctx, records); err != nil {
		return nil, fmt.Errorf("store feedback: %w", err)
	}
	if p.reports != nil {
		p.reports.Invalidate(ctx)
	}
	return records, nil
}

// IngestUpload parses an uploaded CSV, ingests its feedback column and
// records the upload.
func (p *Pipeline) IngestUpload(ctx context.Context, filename string, r io.Reader) (models.UploadResult, error) {
	parsed, err := ReadFeedbackCSV(r)
	if err != nil {
		return models.UploadResult{}, err
	}

	records, err := p.Ingest(ctx, parsed.Texts, nil)
	if err != nil {
		return models.UploadResult{}, err
	}

	if _, err := p.store.RecordUpload(ctx, filename, len(records)); err != nil {
		return models.UploadResult{}, fmt.Errorf("record upload: %w", err)
	}

	slog.Info("[Ingest] Upload processed",
		slog.String("filename", filename),
		slog.String("column", parsed.Column),
		slog.Int("rows", len(records)))

	preview := records
	if len(preview) > previewSize {
		preview = preview[:previewSize]
	}
	return models.UploadResult{
		Message:       "Feedback uploaded and processed successfully",
		Filename:      filename,
		RowsProcessed: len(records),
		Preview:       preview,
	}, nil
}

// Reset deletes every stored record and upload and drops cached reports.
func (p *Pipeline) Reset(ctx context.Context) error {
	if err := p.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	if p.reports != nil {
		p.reports.Invalidate(ctx)
	}
	slog.Warn("[Ingest] Stored feedback and uploads cleared")
	return nil
}
