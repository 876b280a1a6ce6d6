package kafka_client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/google/uuid"
	"github.com/spacesedan/feedbackflow/config"
)

const produceAttempts = 3

type transactionalProducer interface {
	BeginTransaction() error
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	CommitTransaction(ctx context.Context) error
	AbortTransaction(ctx context.Context) error
	Flush(timeoutMs int) int
	Close()
}

// Producer publishes JSON payloads, one transaction per message.
type Producer struct {
	p transactionalProducer
}

func NewProducer(ctx context.Context, cfg config.KafkaConfig) (*Producer, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...", slog.String("broker", cfg.Broker))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":                     cfg.Broker,
		"security.protocol":                     "PLAINTEXT",
		"api.version.request":                   "true",
		"enable.idempotence":                    true,
		"acks":                                  "all",
		"max.in.flight.requests.per.connection": 1,
		"transactional.id":                      "feedbackflow-producer-" + uuid.NewString(),
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	if err := p.InitTransactions(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("[KafkaClient] Failed to init transactions: %w", err)
	}

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return &Producer{p: p}, nil
}

func (pr *Producer) Close() {
	slog.Info("[KafkaClient] Flushing Kafka producer before shutdown...")
	if remaining := pr.p.Flush(5000); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	pr.p.Close()
	slog.Info("[KafkaClient] Kafka producer shut down")
}

// PublishJSON marshals value and produces it to topic inside a transaction.
// The transaction is aborted if the message cannot be produced or committed.
func (pr *Producer) PublishJSON(ctx context.Context, topic, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("[KafkaClient] failed to marshal message for %s: %w", topic, err)
	}

	if err := pr.p.BeginTransaction(); err != nil {
		return fmt.Errorf("[KafkaClient] failed to begin transaction: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          data,
	}

	for i := 0; i < produceAttempts; i++ {
		err = pr.p.Produce(msg, nil)
		if err == nil {
			break
		}
		slog.Warn("[KafkaClient] Failed to produce message, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
	}
	if err != nil {
		return pr.abort(ctx, fmt.Errorf("[KafkaClient] failed to produce to %s: %w", topic, err))
	}

	var commitErr error
	for i := 0; i < produceAttempts; i++ {
		commitErr = pr.p.CommitTransaction(ctx)
		if commitErr == nil {
			break
		}
		slog.Warn("[KafkaClient] Failed to commit transaction, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", commitErr.Error()))
	}
	if commitErr != nil {
		return pr.abort(ctx, fmt.Errorf("[KafkaClient] failed to commit transaction after %d attempts: %w", produceAttempts, commitErr))
	}

	slog.Debug("[KafkaClient] Published message transactionally",
		slog.String("topic", topic),
		slog.String("key", key),
		slog.Int("bytes", len(data)))
	return nil
}

func (pr *Producer) abort(ctx context.Context, cause error) error {
	if abortErr := pr.p.AbortTransaction(ctx); abortErr != nil {
		return fmt.Errorf("%w (abort also failed: %v)", cause, abortErr)
	}
	return cause
}
