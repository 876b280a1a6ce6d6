package kafka_client

import "time"

const (
	KAFKA_TOPIC_FEEDBACK_RAW      = "feedback-raw"      // raw feedback from upstream collectors
	KAFKA_TOPIC_FEEDBACK_ANALYZED = "feedback-analyzed" // batches of scored feedback records
)

const (
	MAX_RETRIES  = 5
	RETRY_DELAY  = 2 * time.Second
	POLL_TIMEOUT = 500 * time.Millisecond
)
