package reports

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/feedbackflow/internal/analysis"
	"github.com/spacesedan/feedbackflow/internal/models"
)

type fakeStore struct {
	counts        map[string]int
	negatives     []string
	samples       []models.FeedbackSample
	countCalls    int
	negativeCalls int
	err           error
}

func (f *fakeStore) InsertFeedbackBatch(context.Context, []models.FeedbackRecord) error { return nil }
func (f *fakeStore) RecordUpload(context.Context, string, int) (models.Upload, error) {
	return models.Upload{}, nil
}
func (f *fakeStore) LabelCounts(context.Context) (map[string]int, error) {
	f.countCalls++
	return f.counts, f.err
}
func (f *fakeStore) NegativeProcessedTexts(context.Context) ([]string, error) {
	f.negativeCalls++
	return f.negatives, f.err
}
func (f *fakeStore) SampleFeedback(_ context.Context, limit int) ([]models.FeedbackSample, error) {
	if limit < len(f.samples) {
		return append([]models.FeedbackSample(nil), f.samples[:limit]...), f.err
	}
	return append([]models.FeedbackSample(nil), f.samples...), f.err
}
func (f *fakeStore) Clear(context.Context) error { return nil }
func (f *fakeStore) Ping(context.Context) error  { return nil }
func (f *fakeStore) Close() error                { return nil }

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	readErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) GetCached(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return nil, false, c.readErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) SetCached(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func TestSummary(t *testing.T) {
	store := &fakeStore{counts: map[string]int{"Positive": 2, "Negative": 1, "Neutral": 1}}
	svc := NewService(store)

	got, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, got.Total)
	assert.Equal(t, 50.0, got.PositivePercentage)
	assert.Equal(t, 25.0, got.NegativePercentage)
}

func TestSummaryExcludeUnknown(t *testing.T) {
	store := &fakeStore{counts: map[string]int{"Positive": 1, "Mixed": 1}}

	got, err := NewService(store).Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, got.Total)

	got, err = NewService(store, WithSummaryOptions(analysis.ExcludeUnknownLabels(true))).Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got.Total)
	assert.Equal(t, 100.0, got.PositivePercentage)
}

func TestNegativeKeywords(t *testing.T) {
	store := &fakeStore{negatives: []string{"bad service bad wait", "bad wait long"}}
	svc := NewService(store)

	got, err := svc.NegativeKeywords(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, models.KeywordsResponse{
		Keywords: []models.KeywordEntry{{Word: "bad", Count: 3}, {Word: "wait", Count: 2}},
		Count:    2,
	}, got)

	got, err = svc.NegativeKeywords(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, got.Keywords)
	assert.Equal(t, 0, got.Count)
}

func TestSampleRoundsScores(t *testing.T) {
	store := &fakeStore{samples: []models.FeedbackSample{
		{ID: "2", FeedbackText: "meh", SentimentLabel: models.LabelNeutral, SentimentScore: 0.01234},
		{ID: "1", FeedbackText: "great", SentimentLabel: models.LabelPositive, SentimentScore: 0.62496},
	}}

	got, err := NewService(store).Sample(context.Background(), 50)
	require.NoError(t, err)
	require.Equal(t, 2, got.Count)
	assert.Equal(t, 0.012, got.Feedback[0].SentimentScore)
	assert.Equal(t, 0.625, got.Feedback[1].SentimentScore)

	got, err = NewService(store).Sample(context.Background(), -1)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Count)
}

func TestSampleRoundsHalfToEven(t *testing.T) {
	store := &fakeStore{samples: []models.FeedbackSample{
		{ID: "1", FeedbackText: "fine", SentimentLabel: models.LabelPositive, SentimentScore: 0.0625},
		{ID: "2", FeedbackText: "meh", SentimentLabel: models.LabelNegative, SentimentScore: -0.0625},
	}}

	got, err := NewService(store).Sample(context.Background(), 50)
	require.NoError(t, err)
	require.Equal(t, 2, got.Count)
	assert.Equal(t, 0.062, got.Feedback[0].SentimentScore)
	assert.Equal(t, -0.062, got.Feedback[1].SentimentScore)
}

func TestReportsUseCache(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{
		counts:    map[string]int{"Negative": 1},
		negatives: []string{"slow refund"},
	}
	cache := newMemoryCache()
	svc := NewService(store, WithCache(cache, time.Minute))

	for i := 0; i < 3; i++ {
		_, err := svc.Summary(ctx)
		require.NoError(t, err)
		_, err = svc.NegativeKeywords(ctx, i+1)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.countCalls)
	assert.Equal(t, 1, store.negativeCalls)
	assert.Equal(t, time.Minute, cache.ttls[labelCountsKey])

	store.counts = map[string]int{"Negative": 1, "Positive": 1}
	svc.Invalidate(ctx)

	got, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 2, store.countCalls)
}

func TestReportsSurviveCacheErrors(t *testing.T) {
	store := &fakeStore{counts: map[string]int{"Positive": 1}}
	cache := newMemoryCache()
	cache.readErr = errors.New("connection refused")
	svc := NewService(store, WithCache(cache, time.Minute))

	got, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got.Positive)
}

func TestReportsPropagateStoreErrors(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	svc := NewService(store)

	_, err := svc.Summary(context.Background())
	assert.Error(t, err)
	_, err = svc.NegativeKeywords(context.Background(), 10)
	assert.Error(t, err)
	_, err = svc.Sample(context.Background(), 10)
	assert.Error(t, err)
}
