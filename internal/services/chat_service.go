package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/campuscare/backend/internal/dto"
	"github.com/campuscare/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrThreadNotFound      = errors.New("chat thread not found")
	ErrMessageRequired     = errors.New("message text is required")
	ErrInvalidThreadStatus = errors.New("thread status must be active or closed")
)

// ChatService keeps one support thread per user; admin replies append to the
// same thread. Delivery is pull-based: clients poll GetNewSince.
type ChatService struct {
	db     *gorm.DB
	filter *ContentFilter
}

func NewChatService(db *gorm.DB, filter *ContentFilter) *ChatService {
	return &ChatService{db: db, filter: filter}
}

// GetOrCreateThread returns the user's thread, creating it on first touch.
func (s *ChatService) GetOrCreateThread(userID uuid.UUID) (*models.ChatThread, error) {
	var thread models.ChatThread
	err := s.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).Where("user_id = ?", userID).First(&thread).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		thread = models.ChatThread{
			ID:     uuid.New(),
			UserID: userID,
			Status: models.ThreadActive,
		}
		if err := s.db.Create(&thread).Error; err != nil {
			return nil, fmt.Errorf("failed to create chat thread: %w", err)
		}
		return &thread, nil
	}
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

// SendUserMessage appends a user message; sending to a closed thread
// reopens it.
func (s *ChatService) SendUserMessage(userID uuid.UUID, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMessageRequired
	}
	if ok, reason := s.filter.Check(text); !ok {
		return nil, errors.New(s.filter.RejectionMessage(reason))
	}

	thread, err := s.GetOrCreateThread(userID)
	if err != nil {
		return nil, err
	}

	message := models.ChatMessage{
		ID:         uuid.New(),
		ThreadID:   thread.ID,
		SenderID:   userID,
		SenderRole: models.SenderUser,
		Message:    text,
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if thread.Status == models.ThreadClosed {
		updates["status"] = models.ThreadActive
	}
	if err := s.db.Model(&models.ChatThread{}).Where("id = ?", thread.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update chat thread: %w", err)
	}

	return &message, nil
}

// GetNewSince returns the caller's messages strictly newer than the given
// instant and marks fetched admin messages as read.
func (s *ChatService) GetNewSince(userID uuid.UUID, since time.Time) ([]models.ChatMessage, error) {
	thread, err := s.GetOrCreateThread(userID)
	if err != nil {
		return nil, err
	}

	var messages []models.ChatMessage
	err = s.db.Where("thread_id = ? AND created_at > ?", thread.ID, since).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Read marks are best-effort; the poll result is still valid without them.
	if err := s.db.Model(&models.ChatMessage{}).
		Where("thread_id = ? AND sender_role <> ? AND is_read = false", thread.ID, models.SenderUser).
		Update("is_read", true).Error; err != nil {
		slog.Error("failed to mark admin messages read", "thread_id", thread.ID, "error", err)
	}

	return messages, nil
}

// ListThreads is the admin inbox, most recently active first.
func (s *ChatService) ListThreads() ([]dto.ThreadSummary, error) {
	var threads []models.ChatThread
	if err := s.db.Preload("User").Order("updated_at DESC").Find(&threads).Error; err != nil {
		return nil, err
	}

	summaries := make([]dto.ThreadSummary, len(threads))
	for i, thread := range threads {
		var unread int64
		s.db.Model(&models.ChatMessage{}).
			Where("thread_id = ? AND sender_role = ? AND is_read = false", thread.ID, models.SenderUser).
			Count(&unread)

		summaries[i] = dto.ThreadSummary{
			ID:            thread.ID,
			UserID:        thread.UserID,
			Username:      thread.User.Username,
			Status:        thread.Status,
			UnreadCount:   unread,
			LastMessageAt: thread.UpdatedAt,
		}
	}
	return summaries, nil
}

// GetThread returns one thread with messages for the admin view and marks
// user messages read.
func (s *ChatService) GetThread(threadID uuid.UUID) (*models.ChatThread, error) {
	var thread models.ChatThread
	err := s.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).First(&thread, "id = ?", threadID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, err
	}

	if err := s.db.Model(&models.ChatMessage{}).
		Where("thread_id = ? AND sender_role = ? AND is_read = false", threadID, models.SenderUser).
		Update("is_read", true).Error; err != nil {
		slog.Error("failed to mark user messages read", "thread_id", threadID, "error", err)
	}

	return &thread, nil
}

// SendAdminMessage appends an admin reply to an existing thread.
func (s *ChatService) SendAdminMessage(threadID, adminID uuid.UUID, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMessageRequired
	}

	var thread models.ChatThread
	if err := s.db.First(&thread, "id = ?", threadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, err
	}

	message := models.ChatMessage{
		ID:         uuid.New(),
		ThreadID:   threadID,
		SenderID:   adminID,
		SenderRole: models.SenderAdmin,
		Message:    text,
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	if err := s.db.Model(&models.ChatThread{}).Where("id = ?", threadID).
		Update("updated_at", time.Now().UTC()).Error; err != nil {
		return nil, fmt.Errorf("failed to update chat thread: %w", err)
	}

	return &message, nil
}

func (s *ChatService) UpdateThreadStatus(threadID uuid.UUID, status string) error {
	if status != models.ThreadActive && status != models.ThreadClosed {
		return ErrInvalidThreadStatus
	}

	result := s.db.Model(&models.ChatThread{}).
		Where("id = ?", threadID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrThreadNotFound
	}
	return nil
}
