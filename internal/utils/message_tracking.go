package utils

import (
	"sync"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// MessageTracker remembers which Kafka message delivered a feedback id so the
// offset can be committed once the feedback is stored.
type MessageTracker struct {
	messages sync.Map
}

func NewMessageTracker() *MessageTracker {
	return &MessageTracker{}
}

// Track returns false when id was already being tracked. The newer message
// replaces the older one.
func (t *MessageTracker) Track(id string, msg *kafka.Message) bool {
	_, loaded := t.messages.Swap(id, msg)
	return !loaded
}

func (t *MessageTracker) Take(id string) (*kafka.Message, bool) {
	msg, ok := t.messages.LoadAndDelete(id)
	if !ok {
		return nil, false
	}
	return msg.(*kafka.Message), true
}
