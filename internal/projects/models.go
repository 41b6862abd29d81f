package projects

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Project is a blue-carbon restoration site submitted by a generator.
type Project struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name           string         `gorm:"not null" json:"name"`
	Hectares       float64        `gorm:"not null" json:"hectares"`
	Latitude       float64        `gorm:"not null" json:"latitude"`
	Longitude      float64        `gorm:"not null" json:"longitude"`
	Address        *string        `json:"address"`
	PhotoURLs      pq.StringArray `gorm:"type:text[];not null" json:"photo_urls"`
	VideoURL       *string        `json:"video_url"`
	Status         string         `gorm:"not null;index" json:"status"`
	CO2Tons        *float64       `gorm:"column:co2_tons" json:"co2_tons"`
	ValidatorID    *uuid.UUID     `gorm:"type:uuid" json:"validator_id"`
	ValidatorNotes *string        `json:"validator_notes"`
	VerifiedAt     *time.Time     `json:"verified_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// StatusChange records one lifecycle transition of a project.
type StatusChange struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID  uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	FromStatus string    `gorm:"not null" json:"from_status"`
	ToStatus   string    `gorm:"not null" json:"to_status"`
	ChangedBy  uuid.UUID `gorm:"type:uuid;not null" json:"changed_by"`
	Notes      *string   `json:"notes"`
	ChangedAt  time.Time `json:"changed_at"`
}

func (StatusChange) TableName() string { return "project_status_changes" }

// ProjectEvent is the payload of project lifecycle events.
type ProjectEvent struct {
	Project    *Project `json:"project"`
	FromStatus string   `json:"from_status"`
	ToStatus   string   `json:"to_status"`
}

// Requests

// SubmitProjectRequest is the body of submit-project. Numeric fields are
// pointers so that a missing value is distinguishable from zero.
type SubmitProjectRequest struct {
	Name      string   `json:"name"`
	Hectares  *float64 `json:"hectares"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   *string  `json:"address"`
	PhotoURLs []string `json:"photo_urls"`
	VideoURL  *string  `json:"video_url"`
}

// DecideRequest is the body of validate-project.
type DecideRequest struct {
	ProjectID      string   `json:"project_id"`
	Status         string   `json:"status"`
	CO2Tons        *float64 `json:"co2_tons"`
	ValidatorNotes *string  `json:"validator_notes"`
}

// ProjectFilter narrows project listings.
type ProjectFilter struct {
	Status *string
	UserID *uuid.UUID
	Limit  int
	Offset int
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func (f *ProjectFilter) normalize() {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
