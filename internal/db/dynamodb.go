package db

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/spacesedan/feedbackflow/config"
	"github.com/spacesedan/feedbackflow/internal/clients"
	"github.com/spacesedan/feedbackflow/internal/models"
)

const (
	dynamoMaxBatchSize = 25
	dynamoMaxRetries   = 3
)

// DynamoDBAPI is the subset of the DynamoDB client the store uses.
type DynamoDBAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// feedbackItem is the DynamoDB shape of a stored record. created_at is unix
// nanoseconds so samples can be ordered newest first.
type feedbackItem struct {
	ID             string  `dynamodbav:"id"`
	FeedbackText   string  `dynamodbav:"feedback_text"`
	SentimentLabel string  `dynamodbav:"sentiment_label"`
	SentimentScore float64 `dynamodbav:"sentiment_score"`
	ProcessedText  string  `dynamodbav:"processed_text"`
	CreatedAt      int64   `dynamodbav:"created_at"`
}

type uploadItem struct {
	ID            string `dynamodbav:"id"`
	Filename      string `dynamodbav:"filename"`
	RowsProcessed int    `dynamodbav:"rows_processed"`
	UploadedAt    int64  `dynamodbav:"uploaded_at"`
}

type dynamoStore struct {
	client        DynamoDBAPI
	feedbackTable string
	uploadsTable  string
	now           func() time.Time
}

func OpenDynamoDB(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	client, err := clients.NewDynamoDBClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewDynamoStore(client, cfg.FeedbackTable, cfg.UploadsTable), nil
}

// NewDynamoStore expects both tables to exist with a string hash key "id".
func NewDynamoStore(client DynamoDBAPI, feedbackTable, uploadsTable string) Store {
	return &dynamoStore{
		client:        client,
		feedbackTable: feedbackTable,
		uploadsTable:  uploadsTable,
		now:           time.Now,
	}
}

func (s *dynamoStore) Close() error {
	return nil
}

func (s *dynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.feedbackTable),
	})
	return err
}

func (s *dynamoStore) InsertFeedbackBatch(ctx context.Context, records []models.FeedbackRecord) error {
	base := s.now().UnixNano()
	requests := make([]types.WriteRequest, 0, len(records))
	for i, r := range records {
		item, err := attributevalue.MarshalMap(feedbackItem{
			ID:             uuid.NewString(),
			FeedbackText:   r.FeedbackText,
			SentimentLabel: string(r.SentimentLabel),
			SentimentScore: r.SentimentScore,
			ProcessedText:  r.ProcessedText,
			// keeps input order among records of one batch
			CreatedAt: base + int64(i),
		})
		if err != nil {
			return fmt.Errorf("[DynamoDBStore] marshal feedback: %w", err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	if err := s.batchWrite(ctx, s.feedbackTable, requests); err != nil {
		return err
	}

	slog.Info("[DynamoDBStore] Stored feedback batch", slog.Int("rows", len(records)))
	return nil
}

// batchWrite writes in chunks of 25 and retries unprocessed items with
// exponential backoff.
func (s *dynamoStore) batchWrite(ctx context.Context, table string, requests []types.WriteRequest) error {
	for i := 0; i < len(requests); i += dynamoMaxBatchSize {
		select {
		case <-ctx.Done():
			slog.Warn("[DynamoDBStore] context canceled")
			return ctx.Err()
		default:
		}

		end := i + dynamoMaxBatchSize
		if end > len(requests) {
			end = len(requests)
		}

		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{table: requests[i:end]},
		})
		if err != nil {
			return fmt.Errorf("[DynamoDBStore] failed to batch write: %w", err)
		}

		backoff := 500 * time.Millisecond
		for retry := 0; len(out.UnprocessedItems) > 0 && retry < dynamoMaxRetries; retry++ {
			slog.Warn("[DynamoDBStore] Retrying unprocessed items...",
				slog.Int("retry_attempt", retry+1),
				slog.Int("remaining_items", len(out.UnprocessedItems[table])))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2

			out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: out.UnprocessedItems,
			})
			if err != nil {
				return fmt.Errorf("[DynamoDBStore] failed to retry batch write: %w", err)
			}
		}

		if remaining := len(out.UnprocessedItems[table]); remaining > 0 {
			return fmt.Errorf("[DynamoDBStore] %d items were not written after retries", remaining)
		}
	}
	return nil
}

func (s *dynamoStore) RecordUpload(ctx context.Context, filename string, rowsProcessed int) (models.Upload, error) {
	upload := models.Upload{
		ID:            uuid.NewString(),
		Filename:      filename,
		RowsProcessed: rowsProcessed,
		UploadedAt:    s.now().UTC(),
	}

	item, err := attributevalue.MarshalMap(uploadItem{
		ID:            upload.ID,
		Filename:      filename,
		RowsProcessed: rowsProcessed,
		UploadedAt:    upload.UploadedAt.Unix(),
	})
	if err != nil {
		return models.Upload{}, err
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.uploadsTable),
		Item:      item,
	}); err != nil {
		return models.Upload{}, fmt.Errorf("[DynamoDBStore] failed to record upload: %w", err)
	}
	return upload, nil
}

// scanFeedback pages through the whole feedback table.
func (s *dynamoStore) scanFeedback(ctx context.Context, input *dynamodb.ScanInput) ([]feedbackItem, error) {
	input.TableName = aws.String(s.feedbackTable)

	var items []feedbackItem
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDBStore] scan failed: %w", err)
		}
		var page []feedbackItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("[DynamoDBStore] unmarshal page: %w", err)
		}
		items = append(items, page...)
	}
	return items, nil
}

func (s *dynamoStore) LabelCounts(ctx context.Context) (map[string]int, error) {
	items, err := s.scanFeedback(ctx, &dynamodb.ScanInput{
		ProjectionExpression: aws.String("sentiment_label"),
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, it := range items {
		counts[it.SentimentLabel]++
	}
	return counts, nil
}

func (s *dynamoStore) NegativeProcessedTexts(ctx context.Context) ([]string, error) {
	items, err := s.scanFeedback(ctx, &dynamodb.ScanInput{
		FilterExpression:     aws.String("sentiment_label = :label"),
		ProjectionExpression: aws.String("processed_text"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":label": &types.AttributeValueMemberS{Value: string(models.LabelNegative)},
		},
	})
	if err != nil {
		return nil, err
	}

	var texts []string
	for _, it := range items {
		if it.ProcessedText != "" {
			texts = append(texts, it.ProcessedText)
		}
	}
	return texts, nil
}

// SampleFeedback scans the table; DynamoDB has no global ordering, so the
// newest records are picked client side.
func (s *dynamoStore) SampleFeedback(ctx context.Context, limit int) ([]models.FeedbackSample, error) {
	items, err := s.scanFeedback(ctx, &dynamodb.ScanInput{
		ProjectionExpression: aws.String("id, feedback_text, sentiment_label, sentiment_score, created_at"),
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	})
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}

	samples := make([]models.FeedbackSample, 0, len(items))
	for _, it := range items {
		samples = append(samples, models.FeedbackSample{
			ID:             it.ID,
			FeedbackText:   it.FeedbackText,
			SentimentLabel: models.SentimentLabel(it.SentimentLabel),
			SentimentScore: it.SentimentScore,
		})
	}
	return samples, nil
}

func (s *dynamoStore) Clear(ctx context.Context) error {
	for _, table := range []string{s.feedbackTable, s.uploadsTable} {
		var requests []types.WriteRequest
		paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
			TableName:            aws.String(table),
			ProjectionExpression: aws.String("id"),
		})
		for paginator.HasMorePages() {
			out, err := paginator.NextPage(ctx)
			if err != nil {
				return fmt.Errorf("[DynamoDBStore] scan %s: %w", table, err)
			}
			for _, key := range out.Items {
				requests = append(requests, types.WriteRequest{
					DeleteRequest: &types.DeleteRequest{Key: key},
				})
			}
		}
		if err := s.batchWrite(ctx, table, requests); err != nil {
			return err
		}
	}
	return nil
}
