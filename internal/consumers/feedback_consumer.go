package consumers

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/google/uuid"
	"github.com/spacesedan/feedbackflow/internal/analysis"
	"github.com/spacesedan/feedbackflow/internal/clients/kafka_client"
	"github.com/spacesedan/feedbackflow/internal/models"
	"github.com/spacesedan/feedbackflow/internal/utils"
)

const defaultSource = "kafka"

type Ingester interface {
	Ingest(ctx context.Context, texts []string, pre analysis.Preprocessor) ([]models.FeedbackRecord, error)
}

type Publisher interface {
	PublishJSON(ctx context.Context, topic, key string, value any) error
}

// ProcessedSet remembers feedback ids that were already stored, so
// redelivered messages are skipped.
type ProcessedSet interface {
	IsProcessed(ctx context.Context, source, id string) bool
	MarkProcessed(ctx context.Context, source, id string) error
}

type Committer interface {
	Commit(msg *kafka.Message) error
}

type FeedbackConsumerOption func(*FeedbackConsumer)

// WithProcessedSet enables redelivery dedupe.
func WithProcessedSet(set ProcessedSet) FeedbackConsumerOption {
	return func(fc *FeedbackConsumer) {
		fc.processed = set
	}
}

func WithBatchSize(n int) FeedbackConsumerOption {
	return func(fc *FeedbackConsumer) {
		fc.buffer = utils.NewBatchBuffer[models.RawFeedbackMessage](n)
	}
}

// FeedbackConsumer reads raw feedback, scores and stores it in batches,
// publishes the analyzed batch and then commits the offsets.
type FeedbackConsumer struct {
	pipeline     Ingester
	publisher    Publisher
	processed    ProcessedSet
	resultsTopic string

	buffer  *utils.BatchBuffer[models.RawFeedbackMessage]
	tracker *utils.MessageTracker
	// skipped messages that arrived behind buffered ones
	skipped []*kafka.Message
}

func NewFeedbackConsumer(pipeline Ingester, publisher Publisher, resultsTopic string, opts ...FeedbackConsumerOption) *FeedbackConsumer {
	fc := &FeedbackConsumer{
		pipeline:     pipeline,
		publisher:    publisher,
		resultsTopic: resultsTopic,
		buffer:       utils.NewBatchBuffer[models.RawFeedbackMessage](utils.BATCH_SIZE),
		tracker:      utils.NewMessageTracker(),
	}
	for _, opt := range opts {
		opt(fc)
	}
	return fc
}

// Run consumes until ctx is cancelled. While any health flag is false the
// buffered batch is held back.
func (fc *FeedbackConsumer) Run(ctx context.Context, consumer *kafka.Consumer, health ...*atomic.Bool) {
	iterator := kafka_client.NewKafkaMessageIterator(ctx, consumer)
	committer := kafka_client.NewCommitHandler(ctx, consumer)

	slog.Info("[FeedbackConsumer] Listening for messages...")

	ticker := time.NewTicker(utils.BATCH_TIMEOUT)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Warn("[FeedbackConsumer] Stopping consumer...")
			// offsets of anything still buffered stay uncommitted and are redelivered
			return
		case <-ticker.C:
			fc.flushIfHealthy(ctx, committer, health)
		default:
			msg, err := iterator.Next()
			if err != nil {
				utils.HandleConsumerError(err)
				continue
			}
			if msg == nil {
				continue
			}
			fc.handle(ctx, msg, committer)
			if fc.buffer.Full() {
				fc.flushIfHealthy(ctx, committer, health)
			}
		}
	}
}

func (fc *FeedbackConsumer) flushIfHealthy(ctx context.Context, committer Committer, health []*atomic.Bool) {
	if !allHealthy(health) {
		if fc.buffer.HasData() {
			slog.Warn("[FeedbackConsumer] Dependencies unhealthy, holding batch",
				slog.Int("buffered", fc.buffer.Size()))
		}
		return
	}
	if err := fc.flush(ctx, committer); err != nil {
		slog.Error("[FeedbackConsumer] Batch flush failed",
			slog.String("error", err.Error()))
	}
}

// handle decodes one message into the buffer. Undecodable and already
// processed messages are skipped.
func (fc *FeedbackConsumer) handle(ctx context.Context, msg *kafka.Message, committer Committer) {
	var raw models.RawFeedbackMessage
	if err := utils.DeserializeFromJSON(msg.Value, &raw); err != nil {
		slog.Warn("[FeedbackConsumer] Skipping undecodable message",
			slog.String("offset", msg.TopicPartition.Offset.String()))
		fc.skip(committer, msg)
		return
	}

	if raw.ID == "" {
		if len(msg.Key) > 0 {
			raw.ID = string(msg.Key)
		} else {
			raw.ID = uuid.NewString()
		}
	}
	if strings.TrimSpace(raw.Source) == "" {
		raw.Source = defaultSource
	}

	if fc.processed != nil && fc.processed.IsProcessed(ctx, raw.Source, raw.ID) {
		slog.Debug("[FeedbackConsumer] Skipping processed feedback", slog.String("id", raw.ID))
		fc.skip(committer, msg)
		return
	}

	if !fc.tracker.Track(raw.ID, msg) {
		// already buffered, the newer offset will be committed with the batch
		return
	}
	fc.buffer.Add(raw)
}

// skip commits a message that produces no record. A commit covers every
// earlier offset of the partition, so while a batch is buffered the commit
// waits for that batch to be stored.
func (fc *FeedbackConsumer) skip(committer Committer, msg *kafka.Message) {
	if !fc.buffer.HasData() {
		fc.commit(committer, msg)
		return
	}
	fc.skipped = append(fc.skipped, msg)
}

func (fc *FeedbackConsumer) flush(ctx context.Context, committer Committer) error {
	batch := fc.buffer.GetAndClear()
	if len(batch) == 0 {
		return nil
	}

	texts := make([]string, len(batch))
	for i, raw := range batch {
		texts[i] = raw.Text
	}

	records, err := fc.pipeline.Ingest(ctx, texts, nil)
	if err != nil {
		fc.buffer.Requeue(batch)
		return fmt.Errorf("ingest batch of %d: %w", len(batch), err)
	}

	analyzed := make([]models.AnalyzedFeedbackMessage, len(batch))
	for i, raw := range batch {
		analyzed[i] = models.AnalyzedFeedbackMessage{ID: raw.ID, Source: raw.Source, Record: records[i]}
	}

	// the batch is stored at this point, so a failed publish is logged and
	// the offsets are still committed
	if fc.publisher != nil {
		if err := fc.publisher.PublishJSON(ctx, fc.resultsTopic, uuid.NewString(), analyzed); err != nil {
			slog.Error("[FeedbackConsumer] Failed to publish analyzed batch",
				slog.String("topic", fc.resultsTopic),
				slog.String("error", err.Error()))
		}
	}

	pending := make([]*kafka.Message, 0, len(batch)+len(fc.skipped))
	for _, raw := range batch {
		if fc.processed != nil {
			if err := fc.processed.MarkProcessed(ctx, raw.Source, raw.ID); err != nil {
				slog.Warn("[FeedbackConsumer] Failed to mark feedback processed",
					slog.String("id", raw.ID),
					slog.String("error", err.Error()))
			}
		}
		if msg, ok := fc.tracker.Take(raw.ID); ok {
			pending = append(pending, msg)
		}
	}
	pending = append(pending, fc.skipped...)
	fc.skipped = nil

	slices.SortFunc(pending, commitOrder)
	for _, msg := range pending {
		fc.commit(committer, msg)
	}

	slog.Info("[FeedbackConsumer] Batch stored",
		slog.Int("batch_size", len(batch)),
		slog.String("topic", fc.resultsTopic))
	return nil
}

func (fc *FeedbackConsumer) commit(committer Committer, msg *kafka.Message) {
	if err := committer.Commit(msg); err != nil {
		slog.Warn("[FeedbackConsumer] Failed to commit offset",
			slog.String("error", err.Error()))
	}
}

// commitOrder sorts by partition then offset so the committed position of a
// partition only moves forward.
func commitOrder(a, b *kafka.Message) int {
	if c := cmp.Compare(topicName(a), topicName(b)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.TopicPartition.Partition, b.TopicPartition.Partition); c != 0 {
		return c
	}
	return cmp.Compare(a.TopicPartition.Offset, b.TopicPartition.Offset)
}

func topicName(msg *kafka.Message) string {
	if msg.TopicPartition.Topic == nil {
		return ""
	}
	return *msg.TopicPartition.Topic
}
