package outbox

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Enqueue records one event per topic using tx, so the events commit or roll
// back together with the caller's writes.
func Enqueue(tx *gorm.DB, eventType string, payload interface{}, topics ...string) error {
	if len(topics) == 0 {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	events := make([]Event, 0, len(topics))
	for _, topic := range topics {
		events = append(events, Event{
			Topic:     topic,
			EventType: eventType,
			Payload:   datatypes.JSON(body),
		})
	}

	if err := tx.Create(&events).Error; err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", eventType, err)
	}
	return nil
}
