package kafka_client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedReader struct {
	results []error
	calls   int
}

func (r *scriptedReader) ReadMessage(time.Duration) (*kafka.Message, error) {
	i := r.calls
	r.calls++
	if i < len(r.results) && r.results[i] != nil {
		return nil, r.results[i]
	}
	return &kafka.Message{Value: []byte("ok")}, nil
}

func TestIterator_RetriesThenReads(t *testing.T) {
	reader := &scriptedReader{results: []error{errors.New("transient"), errors.New("transient")}}
	it := &KafkaMessageIterator{reader: reader, ctx: context.Background(), retryDelay: time.Millisecond}

	msg, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(msg.Value))
	assert.Equal(t, 3, reader.calls)
}

func TestIterator_TimeoutReturnsNil(t *testing.T) {
	reader := &scriptedReader{results: []error{kafka.NewError(kafka.ErrTimedOut, "timed out", false)}}
	it := &KafkaMessageIterator{reader: reader, ctx: context.Background(), retryDelay: time.Millisecond}

	msg, err := it.Next()
	assert.NoError(t, err)
	assert.Nil(t, msg)
}

func TestIterator_BrokersDownAborts(t *testing.T) {
	down := kafka.NewError(kafka.ErrAllBrokersDown, "all brokers down", false)
	reader := &scriptedReader{results: []error{down}}
	it := &KafkaMessageIterator{reader: reader, ctx: context.Background(), retryDelay: time.Millisecond}

	_, err := it.Next()
	assert.Error(t, err)
	assert.Equal(t, 1, reader.calls)
}

func TestIterator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	it := &KafkaMessageIterator{reader: &scriptedReader{}, ctx: ctx}

	_, err := it.Next()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIterator_NotInitialized(t *testing.T) {
	it := NewKafkaMessageIterator(context.Background(), nil)
	_, err := it.Next()
	assert.Error(t, err)
}

type flakyCommitter struct {
	failures int
	calls    int
}

func (c *flakyCommitter) CommitMessage(*kafka.Message) ([]kafka.TopicPartition, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, errors.New("coordinator not available")
	}
	return nil, nil
}

func TestCommitHandler_Retries(t *testing.T) {
	committer := &flakyCommitter{failures: 2}
	ch := &KafkaCommitHandler{consumer: committer, ctx: context.Background(), retryDelay: time.Millisecond}

	require.NoError(t, ch.Commit(&kafka.Message{}))
	assert.Equal(t, 3, committer.calls)
}

func TestCommitHandler_GivesUp(t *testing.T) {
	committer := &flakyCommitter{failures: MAX_RETRIES}
	ch := &KafkaCommitHandler{consumer: committer, ctx: context.Background(), retryDelay: time.Millisecond}

	assert.Error(t, ch.Commit(&kafka.Message{}))
	assert.Equal(t, MAX_RETRIES, committer.calls)
}

type fakeTxnProducer struct {
	produceErr error
	commitErrs int

	produced []*kafka.Message
	commits  int
	aborts   int
}

func (p *fakeTxnProducer) BeginTransaction() error { return nil }

func (p *fakeTxnProducer) Produce(msg *kafka.Message, _ chan kafka.Event) error {
	if p.produceErr != nil {
		return p.produceErr
	}
	p.produced = append(p.produced, msg)
	return nil
}

func (p *fakeTxnProducer) CommitTransaction(context.Context) error {
	p.commits++
	if p.commits <= p.commitErrs {
		return errors.New("commit failed")
	}
	return nil
}

func (p *fakeTxnProducer) AbortTransaction(context.Context) error {
	p.aborts++
	return nil
}

func (p *fakeTxnProducer) Flush(int) int { return 0 }
func (p *fakeTxnProducer) Close()        {}

func TestPublishJSON(t *testing.T) {
	fake := &fakeTxnProducer{}
	pr := &Producer{p: fake}

	err := pr.PublishJSON(context.Background(), KAFKA_TOPIC_FEEDBACK_ANALYZED, "batch-1", map[string]int{"n": 1})
	require.NoError(t, err)
	require.Len(t, fake.produced, 1)
	assert.Equal(t, KAFKA_TOPIC_FEEDBACK_ANALYZED, *fake.produced[0].TopicPartition.Topic)
	assert.Equal(t, "batch-1", string(fake.produced[0].Key))
	assert.JSONEq(t, `{"n":1}`, string(fake.produced[0].Value))
	assert.Zero(t, fake.aborts)
}

func TestPublishJSON_CommitRetryThenSucceed(t *testing.T) {
	fake := &fakeTxnProducer{commitErrs: 2}
	pr := &Producer{p: fake}

	require.NoError(t, pr.PublishJSON(context.Background(), "t", "k", "v"))
	assert.Equal(t, 3, fake.commits)
}

func TestPublishJSON_AbortsOnFailure(t *testing.T) {
	fake := &fakeTxnProducer{commitErrs: produceAttempts}
	pr := &Producer{p: fake}

	err := pr.PublishJSON(context.Background(), "t", "k", "v")
	assert.Error(t, err)
	assert.Equal(t, 1, fake.aborts)

	fake = &fakeTxnProducer{produceErr: errors.New("queue full")}
	pr = &Producer{p: fake}
	assert.Error(t, pr.PublishJSON(context.Background(), "t", "k", "v"))
	assert.Equal(t, 1, fake.aborts)
}

func TestPublishJSON_MarshalError(t *testing.T) {
	fake := &fakeTxnProducer{}
	pr := &Producer{p: fake}

	assert.Error(t, pr.PublishJSON(context.Background(), "t", "k", make(chan int)))
	assert.Empty(t, fake.produced)
}

func TestConsumerRegistry(t *testing.T) {
	RegisterConsumer("registry-test", func(context.Context, *kafka.Consumer) {})
	_, ok := lookupConsumer("registry-test")
	assert.True(t, ok)
	_, ok = lookupConsumer("missing")
	assert.False(t, ok)
}
