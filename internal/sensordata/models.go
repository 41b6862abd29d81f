package sensordata

import (
	"time"

	"github.com/google/uuid"
)

// Reading is one water-quality measurement taken at a project site.
// Readings are append-only.
type Reading struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	ValidatorID uuid.UUID `gorm:"type:uuid;not null" json:"validator_id"`
	Temperature *float64  `json:"temperature"`
	Salinity    *float64  `json:"salinity"`
	PH          *float64  `gorm:"column:ph" json:"ph"`
	DissolvedO2 *float64  `gorm:"column:dissolved_o2" json:"dissolved_o2"`
	Turbidity   *float64  `json:"turbidity"`
	RecordedAt  time.Time `json:"recorded_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Reading) TableName() string { return "sensor_data" }

// RecordReadingRequest is the body of submit-sensor-data. Every reading is
// optional.
type RecordReadingRequest struct {
	ProjectID   string     `json:"project_id"`
	Temperature *float64   `json:"temperature"`
	Salinity    *float64   `json:"salinity"`
	PH          *float64   `json:"ph"`
	DissolvedO2 *float64   `json:"dissolved_o2"`
	Turbidity   *float64   `json:"turbidity"`
	RecordedAt  *time.Time `json:"recorded_at"`
}

type measurement struct {
	field string
	value *float64
}

func (r *RecordReadingRequest) measurements() []measurement {
	return []measurement{
		{"temperature", r.Temperature},
		{"salinity", r.Salinity},
		{"ph", r.PH},
		{"dissolved_o2", r.DissolvedO2},
		{"turbidity", r.Turbidity},
	}
}

func (r *Reading) measurements() []measurement {
	return []measurement{
		{"temperature", r.Temperature},
		{"salinity", r.Salinity},
		{"ph", r.PH},
		{"dissolved_o2", r.DissolvedO2},
		{"turbidity", r.Turbidity},
	}
}
