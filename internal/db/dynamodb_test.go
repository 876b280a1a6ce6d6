package db

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/feedbackflow/internal/models"
)

// fakeDynamo keeps items per table keyed by their "id" attribute.
type fakeDynamo struct {
	mu          sync.Mutex
	tables      map[string]map[string]map[string]types.AttributeValue
	batchCalls  int
	unprocessed int // requests to bounce back on the next BatchWriteItem
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		tables: map[string]map[string]map[string]types.AttributeValue{},
	}
}

func itemID(item map[string]types.AttributeValue) string {
	if s, ok := item["id"].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamo) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++

	out := &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for table, reqs := range in.RequestItems {
		if f.tables[table] == nil {
			f.tables[table] = map[string]map[string]types.AttributeValue{}
		}
		for _, req := range reqs {
			if f.unprocessed > 0 {
				f.unprocessed--
				out.UnprocessedItems[table] = append(out.UnprocessedItems[table], req)
				continue
			}
			switch {
			case req.PutRequest != nil:
				f.tables[table][itemID(req.PutRequest.Item)] = req.PutRequest.Item
			case req.DeleteRequest != nil:
				delete(f.tables[table], itemID(req.DeleteRequest.Key))
			}
		}
	}
	if len(out.UnprocessedItems) == 0 {
		out.UnprocessedItems = nil
	}
	return out, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := *in.TableName
	if f.tables[table] == nil {
		f.tables[table] = map[string]map[string]types.AttributeValue{}
	}
	f.tables[table][itemID(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var want string
	if in.FilterExpression != nil {
		want = in.ExpressionAttributeValues[":label"].(*types.AttributeValueMemberS).Value
	}

	out := &dynamodb.ScanOutput{}
	for _, item := range f.tables[*in.TableName] {
		if want != "" {
			label, _ := item["sentiment_label"].(*types.AttributeValueMemberS)
			if label == nil || label.Value != want {
				continue
			}
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableName: in.TableName}}, nil
}

func newTestDynamoStore(fake *fakeDynamo) *dynamoStore {
	store := NewDynamoStore(fake, "FeedbackData", "Uploads").(*dynamoStore)
	store.now = func() time.Time { return time.Unix(1700000000, 0) }
	return store
}

func TestDynamoStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	store := newTestDynamoStore(fake)

	require.NoError(t, store.InsertFeedbackBatch(ctx, testRecords()))
	assert.Len(t, fake.tables["FeedbackData"], 5)

	counts, err := store.LabelCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Positive": 1, "Negative": 3, "Neutral": 1}, counts)

	texts, err := store.NegativeProcessedTexts(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"crashes login", "slow buggy"}, texts)

	samples, err := store.SampleFeedback(ctx, 2)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, "!!!", samples[0].FeedbackText)
	assert.Equal(t, "Slow and buggy", samples[1].FeedbackText)

	assert.NoError(t, store.Ping(ctx))
}

func TestDynamoStoreChunksBatches(t *testing.T) {
	fake := newFakeDynamo()
	store := newTestDynamoStore(fake)

	records := make([]models.FeedbackRecord, 60)
	for i := range records {
		records[i] = models.FeedbackRecord{FeedbackText: "x", SentimentLabel: models.LabelNeutral}
	}

	require.NoError(t, store.InsertFeedbackBatch(context.Background(), records))
	assert.Equal(t, 3, fake.batchCalls)
	assert.Len(t, fake.tables["FeedbackData"], 60)
}

func TestDynamoStoreRetriesUnprocessed(t *testing.T) {
	fake := newFakeDynamo()
	fake.unprocessed = 2
	store := newTestDynamoStore(fake)

	require.NoError(t, store.InsertFeedbackBatch(context.Background(), testRecords()))
	assert.Equal(t, 2, fake.batchCalls)
	assert.Len(t, fake.tables["FeedbackData"], 5)
}

func TestDynamoStoreUploadAndClear(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	store := newTestDynamoStore(fake)

	upload, err := store.RecordUpload(ctx, "feedback.csv", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, upload.ID)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), upload.UploadedAt)
	assert.Len(t, fake.tables["Uploads"], 1)

	require.NoError(t, store.InsertFeedbackBatch(ctx, testRecords()))
	require.NoError(t, store.Clear(ctx))
	assert.Empty(t, fake.tables["FeedbackData"])
	assert.Empty(t, fake.tables["Uploads"])
}
