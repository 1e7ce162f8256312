package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ThreadActive = "active"
	ThreadClosed = "closed"
)

const (
	SenderUser      = "user"
	SenderAdmin     = "admin"
	SenderAssistant = "assistant"
)

// ChatThread is the single support conversation between one user and the
// admin side. Admin replies append to the same thread.
type ChatThread struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Status    string    `gorm:"not null;size:20;default:'active'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User     User          `gorm:"foreignKey:UserID" json:"-"`
	Messages []ChatMessage `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

type ChatMessage struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ThreadID   uuid.UUID `gorm:"type:uuid;not null;index" json:"thread_id"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	SenderRole string    `gorm:"not null;size:20" json:"sender_role"`
	Message    string    `gorm:"not null;size:2000" json:"message"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
