package clients

import "time"

const (
	VALKEY_RETRIES     = 3
	VALKEY_RETRY_DELAY = 250 * time.Millisecond

	// processed message ids are remembered for a day
	VALKEY_PROCESSED_TTL_SECONDS = 86400
	VALKEY_PROCESSED_KEY_PREFIX  = "feedback:processed:"
)
