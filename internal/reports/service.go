package reports

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/spacesedan/feedbackflow/internal/analysis"
	"github.com/spacesedan/feedbackflow/internal/db"
	"github.com/spacesedan/feedbackflow/internal/models"
)

const (
	DefaultKeywordLimit = 10
	DefaultSampleLimit  = 50

	labelCountsKey   = "reports:label_counts"
	negativeTextsKey = "reports:negative_texts"
)

// Cache stores the raw query results reports are computed from. Every
// report can be rebuilt from these, so any limit is served from one entry.
type Cache interface {
	GetCached(ctx context.Context, key string) ([]byte, bool, error)
	SetCached(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

type Service struct {
	store       db.Store
	cache       Cache
	ttl         time.Duration
	summaryOpts []analysis.SummaryOption
}

type Option func(*Service)

// WithCache caches store query results for ttl. A nil cache disables caching.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.ttl = ttl
	}
}

func WithSummaryOptions(opts ...analysis.SummaryOption) Option {
	return func(s *Service) {
		s.summaryOpts = append(s.summaryOpts, opts...)
	}
}

func NewService(store db.Store, opts ...Option) *Service {
	s := &Service{store: store, ttl: 5 * time.Minute}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Summary(ctx context.Context) (models.SentimentSummary, error) {
	counts, err := cached(ctx, s, labelCountsKey, s.store.LabelCounts)
	if err != nil {
		return models.SentimentSummary{}, err
	}
	return analysis.SummarizeCounts(counts, s.summaryOpts...), nil
}

// NegativeKeywords ranks words across the processed text of Negative records.
func (s *Service) NegativeKeywords(ctx context.Context, limit int) (models.KeywordsResponse, error) {
	texts, err := cached(ctx, s, negativeTextsKey, s.store.NegativeProcessedTexts)
	if err != nil {
		return models.KeywordsResponse{}, err
	}

	keywords := analysis.TopKeywords(texts, limit)
	return models.KeywordsResponse{Keywords: keywords, Count: len(keywords)}, nil
}

// Sample lists the newest records with scores rounded to three places.
func (s *Service) Sample(ctx context.Context, limit int) (models.SampleFeedbackResponse, error) {
	if limit < 0 {
		limit = 0
	}
	samples, err := s.store.SampleFeedback(ctx, limit)
	if err != nil {
		return models.SampleFeedbackResponse{}, err
	}

	for i := range samples {
		samples[i].SentimentScore = scalar.RoundEven(samples[i].SentimentScore, 3)
	}
	return models.SampleFeedbackResponse{Feedback: samples, Count: len(samples)}, nil
}

// Invalidate drops cached query results after a write. Failures are logged
// and the stale entries expire with their ttl.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, labelCountsKey, negativeTextsKey); err != nil {
		slog.Warn("[Reports] Failed to invalidate report cache",
			slog.String("error", err.Error()))
	}
}

// cached serves key from the cache when possible and falls back to load.
// Cache errors never fail a report.
func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	if s.cache != nil {
		raw, ok, err := s.cache.GetCached(ctx, key)
		if err != nil {
			slog.Warn("[Reports] Cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		if ok {
			var v T
			if err := json.Unmarshal(raw, &v); err == nil {
				return v, nil
			}
			slog.Warn("[Reports] Dropping undecodable cache entry", slog.String("key", key))
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if s.cache != nil {
		raw, err := json.Marshal(v)
		if err == nil {
			err = s.cache.SetCached(ctx, key, raw, s.ttl)
		}
		if err != nil {
			slog.Warn("[Reports] Cache write failed",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
	}
	return v, nil
}
