package streams

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/spacesedan/feedbackflow/internal/analysis"
	"github.com/spacesedan/feedbackflow/internal/models"
)

const insertEvent = "INSERT"

type Ingester interface {
	Ingest(ctx context.Context, texts []string, pre analysis.Preprocessor) ([]models.FeedbackRecord, error)
}

// FeedbackStreamHandler scores raw feedback items inserted into the raw
// feedback table and stores them through the ingest pipeline.
type FeedbackStreamHandler struct {
	pipeline Ingester
}

func NewFeedbackStreamHandler(pipeline Ingester) *FeedbackStreamHandler {
	return &FeedbackStreamHandler{pipeline: pipeline}
}

// Handle processes one stream batch. Records that cannot be decoded are
// dropped with an error log. If storing fails every decoded record is
// reported as a batch item failure so Lambda retries just those.
func (h *FeedbackStreamHandler) Handle(ctx context.Context, event events.DynamoDBEvent) (events.DynamoDBEventResponse, error) {
	slog.Info("[FeedbackStream] Received DynamoDB event", slog.Int("records", len(event.Records)))

	var (
		texts     []string
		sequences []string
	)
	for _, record := range event.Records {
		raw, ok := decodeInsert(record)
		if !ok {
			continue
		}
		texts = append(texts, raw.Text)
		sequences = append(sequences, record.Change.SequenceNumber)
	}

	var resp events.DynamoDBEventResponse
	if len(texts) == 0 {
		return resp, nil
	}

	records, err := h.pipeline.Ingest(ctx, texts, nil)
	if err != nil {
		slog.Error("[FeedbackStream] Failed to store analyzed feedback",
			slog.Int("records", len(texts)),
			slog.String("error", err.Error()))
		for _, seq := range sequences {
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.DynamoDBBatchItemFailure{ItemIdentifier: seq})
		}
		return resp, nil
	}

	slog.Info("[FeedbackStream] Stored analyzed feedback", slog.Int("records", len(records)))
	return resp, nil
}

func decodeInsert(record events.DynamoDBEventRecord) (models.RawFeedbackMessage, bool) {
	var raw models.RawFeedbackMessage
	if record.EventName != insertEvent {
		slog.Debug("[FeedbackStream] Skipping non-INSERT event",
			slog.String("event_id", record.EventID),
			slog.String("event_name", record.EventName))
		return raw, false
	}

	if err := UnmarshalStreamImage(record.Change.NewImage, &raw); err != nil {
		slog.Error("[FeedbackStream] Failed to unmarshal raw feedback",
			slog.String("event_id", record.EventID),
			slog.String("error", err.Error()))
		return raw, false
	}
	if strings.TrimSpace(raw.Text) == "" {
		slog.Warn("[FeedbackStream] Raw feedback has no text, scoring as neutral",
			slog.String("id", raw.ID))
	}
	return raw, true
}
