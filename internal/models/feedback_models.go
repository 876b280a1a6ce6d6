package models

import "time"

// FeedbackRecord is one analyzed feedback text. NormalizedText is kept for
// reporting and never persisted.
type FeedbackRecord struct {
	FeedbackText   string         `json:"feedback_text"`
	SentimentLabel SentimentLabel `json:"sentiment_label"`
	SentimentScore float64        `json:"sentiment_score"`
	ProcessedText  string         `json:"processed_text"`
	NormalizedText string         `json:"-"`
}

// FeedbackSample is a stored record as listed by the sample report.
type FeedbackSample struct {
	ID             string         `json:"id"`
	FeedbackText   string         `json:"feedback_text"`
	SentimentLabel SentimentLabel `json:"sentiment_label"`
	SentimentScore float64        `json:"sentiment_score"`
}

type Upload struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	RowsProcessed int       `json:"rows_processed"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// UploadResult is returned after a CSV upload has been analyzed and stored.
type UploadResult struct {
	Message       string           `json:"message"`
	Filename      string           `json:"filename"`
	RowsProcessed int              `json:"rows_processed"`
	Preview       []FeedbackRecord `json:"preview"`
}
