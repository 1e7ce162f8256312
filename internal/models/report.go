package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Report statuses. Transitions are forward-only (see services.ReportService).
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusRejected   = "rejected"
)

const (
	CategoryIncident = "incident"
	CategoryEvent    = "event"
	CategoryFacility = "facility"
	CategoryOther    = "other"
)

const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

var (
	ValidStatuses   = map[string]bool{StatusPending: true, StatusInProgress: true, StatusDone: true, StatusRejected: true}
	ValidCategories = map[string]bool{CategoryIncident: true, CategoryEvent: true, CategoryFacility: true, CategoryOther: true}
	ValidPriorities = map[string]bool{PriorityLow: true, PriorityMedium: true, PriorityHigh: true, PriorityCritical: true}

	// ValidSeverities covers the AI-assigned severity scale, which happens to
	// share values with staff-assigned priority.
	ValidSeverities = map[string]bool{PriorityLow: true, PriorityMedium: true, PriorityHigh: true, PriorityCritical: true}
)

// Report is a user-submitted record of a campus facility issue.
type Report struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Title           string    `gorm:"not null;size:255" json:"title"`
	Description     string    `gorm:"type:text" json:"description,omitempty"`
	Category        string    `gorm:"not null;size:50;index;default:'other'" json:"category"`
	PhotoURL        string    `gorm:"size:500" json:"photo_url,omitempty"`
	Latitude        float64   `gorm:"type:decimal(10,8)" json:"latitude"`
	Longitude       float64   `gorm:"type:decimal(11,8)" json:"longitude"`
	Address         string    `gorm:"size:500" json:"address,omitempty"`
	ExternalMapLink string    `gorm:"size:500" json:"external_map_link,omitempty"`
	OccurredAt      time.Time `gorm:"not null" json:"occurred_at"`
	Status          string    `gorm:"not null;size:50;index;default:'pending'" json:"status"`
	Priority        string    `gorm:"not null;size:20;index;default:'medium'" json:"priority"`

	// AI analysis results, populated by the AI-assist service.
	AiDetectedObject string         `gorm:"size:255" json:"ai_detected_object,omitempty"`
	AiDamageType     string         `gorm:"size:255" json:"ai_damage_type,omitempty"`
	AiSeverity       string         `gorm:"size:20" json:"ai_severity,omitempty"`
	AiRecommendation string         `gorm:"type:text" json:"ai_recommendation,omitempty"`
	AiConfidence     *float64       `gorm:"check:ai_confidence >= 0 AND ai_confidence <= 1" json:"ai_confidence,omitempty"`
	AiModel          string         `gorm:"size:50" json:"ai_model,omitempty"`
	AiRaw            datatypes.JSON `json:"-"`

	Feedback   string     `gorm:"size:1000" json:"feedback,omitempty"`
	Rating     *int       `gorm:"check:rating >= 1 AND rating <= 5" json:"rating,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Owner    User            `gorm:"foreignKey:UserID" json:"-"`
	Comments []ReportComment `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

// ReportComment is an admin note appended to a report; appending never
// changes the report status.
type ReportComment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID  uuid.UUID `gorm:"type:uuid;not null;index" json:"report_id"`
	AdminID   uuid.UUID `gorm:"type:uuid;not null" json:"admin_id"`
	AdminName string    `gorm:"not null;size:100" json:"admin_name"`
	Comment   string    `gorm:"not null;size:1000" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
