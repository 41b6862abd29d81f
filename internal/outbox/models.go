package outbox

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Event types written by the workflow operations.
const (
	EventProjectSubmitted     = "project.submitted"
	EventProjectStatusChanged = "project.status_changed"
	EventSensorDataRecorded   = "sensor_data.recorded"
	EventSensorDataAlert      = "sensor_data.alert"
	EventWalletPurchase       = "wallet.purchase"
)

// Event is a pending notification stored in the same transaction as the
// change it describes.
type Event struct {
	ID          int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Topic       string         `json:"topic" gorm:"not null"`
	EventType   string         `json:"event_type" gorm:"not null"`
	Payload     datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	PublishedAt *time.Time     `json:"published_at"`
	Attempts    int            `json:"attempts" gorm:"not null;default:0"`
	LastError   *string        `json:"last_error"`
}

func (Event) TableName() string { return "outbox_events" }

// Message is what subscribers receive.
type Message struct {
	Topic     string          `json:"topic"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Message converts the stored event into its published form.
func (e *Event) Message() Message {
	return Message{
		Topic:     e.Topic,
		Type:      e.EventType,
		Payload:   json.RawMessage(e.Payload),
		CreatedAt: e.CreatedAt,
	}
}
