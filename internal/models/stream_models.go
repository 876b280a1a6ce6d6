package models

import "time"

// RawFeedbackMessage is the payload on the raw feedback topic and the shape
// of raw feedback items written to the feedback stream table.
type RawFeedbackMessage struct {
	ID         string    `json:"id" dynamodbav:"id"`
	Text       string    `json:"text" dynamodbav:"text"`
	Source     string    `json:"source" dynamodbav:"source"`
	ReceivedAt time.Time `json:"received_at" dynamodbav:"received_at,omitempty"`
}

// AnalyzedFeedbackMessage is published once a raw message has been scored.
type AnalyzedFeedbackMessage struct {
	ID     string         `json:"id"`
	Source string         `json:"source"`
	Record FeedbackRecord `json:"record"`
}
