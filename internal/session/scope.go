package session

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForOwner returns a GORM scope that filters rows to a single owner.
func ForOwner(userID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// WithStatus filters by status when one is given.
func WithStatus(status string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if status == "" {
			return db
		}
		return db.Where("status = ?", status)
	}
}

// WithCategory filters by category when one is given.
func WithCategory(category string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if category == "" {
			return db
		}
		return db.Where("category = ?", category)
	}
}

// WithPriority filters by priority when one is given.
func WithPriority(priority string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if priority == "" {
			return db
		}
		return db.Where("priority = ?", priority)
	}
}

// Search matches title, description or address case-insensitively.
func Search(term string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" {
			return db
		}
		like := "%" + strings.ToLower(term) + "%"
		return db.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(address) LIKE ?)", like, like, like)
	}
}
