package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the JSON envelope written to every topic.
type Event map[string]any

func New(eventType string, fields map[string]any) Event {
	e := Event{
		"type":        eventType,
		"event_id":    uuid.NewString(),
		"occurred_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range fields {
		e[k] = v
	}
	return e
}
