package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campuscare/backend/internal/dto"
	"github.com/campuscare/backend/internal/models"
	"github.com/campuscare/backend/internal/session"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrReportNotFound     = errors.New("report not found")
	ErrNotReportOwner     = errors.New("you do not own this report")
	ErrAdminOnly          = errors.New("admin access required")
	ErrTitleRequired      = errors.New("title is required")
	ErrContentRequired    = errors.New("a photo or a description is required")
	ErrLocationRequired   = errors.New("location is required")
	ErrInvalidCoordinates = errors.New("latitude must be in [-90,90] and longitude in [-180,180]")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrInvalidStatus      = errors.New("invalid status value")
	ErrInvalidTransition  = errors.New("status can only move forward")
	ErrReportFinalized    = errors.New("report is in a terminal state")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrCommentRequired    = errors.New("comment text is required")
)

// statusRank orders the forward path pending -> in_progress -> done.
var statusRank = map[string]int{
	models.StatusPending:    0,
	models.StatusInProgress: 1,
	models.StatusDone:       2,
}

// canTransition implements the forward-only state machine. rejected is
// terminal and reachable from pending or in_progress only.
func canTransition(from, to string) bool {
	if from == to {
		return false
	}
	if to == models.StatusRejected {
		return from == models.StatusPending || from == models.StatusInProgress
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

type ReportService struct {
	db     *gorm.DB
	filter *ContentFilter
}

func NewReportService(db *gorm.DB, filter *ContentFilter) *ReportService {
	return &ReportService{db: db, filter: filter}
}

// Create stores a new report in pending state. photoURL is empty when no
// photo was uploaded.
func (s *ReportService) Create(ownerID uuid.UUID, req *dto.CreateReportRequest, photoURL string) (*models.Report, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if photoURL == "" && strings.TrimSpace(req.Description) == "" {
		return nil, ErrContentRequired
	}
	if err := validateLocation(req.Latitude, req.Longitude, req.Address); err != nil {
		return nil, err
	}

	category := req.Category
	if category == "" {
		category = models.CategoryOther
	}
	if !models.ValidCategories[category] {
		return nil, ErrInvalidCategory
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriorities[priority] {
		return nil, ErrInvalidPriority
	}

	if ok, reason := s.filter.Check(req.Description); !ok {
		return nil, errors.New(s.filter.RejectionMessage(reason))
	}

	occurredAt := parseReportDate(req.OccurredAt)

	report := models.Report{
		ID:              uuid.New(),
		UserID:          ownerID,
		Title:           title,
		Description:     req.Description,
		Category:        category,
		PhotoURL:        photoURL,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		Address:         req.Address,
		ExternalMapLink: req.ExternalMapLink,
		OccurredAt:      occurredAt,
		Status:          models.StatusPending,
		Priority:        priority,
	}

	if err := s.db.Create(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return &report, nil
}

// Get returns a report visible to the caller: its owner, or any admin.
func (s *ReportService) Get(id uuid.UUID, ident *session.Identity) (*models.Report, error) {
	var report models.Report
	if err := s.db.Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	if report.UserID != ident.UserID && !ident.IsAdmin() {
		return nil, ErrNotReportOwner
	}
	return &report, nil
}

// ListOwn returns the caller's reports, newest first.
func (s *ReportService) ListOwn(ownerID uuid.UUID) ([]models.Report, error) {
	var reports []models.Report
	err := s.db.Scopes(session.ForOwner(ownerID)).
		Order("created_at DESC").
		Find(&reports).Error
	return reports, err
}

// List is the admin view over all reports with optional filters.
func (s *ReportService) List(filter *dto.ReportFilter) ([]models.Report, int64, error) {
	if filter.Status != "" && !models.ValidStatuses[filter.Status] {
		return nil, 0, ErrInvalidStatus
	}
	limit := filter.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := s.db.Model(&models.Report{}).Scopes(
		session.WithStatus(filter.Status),
		session.WithCategory(filter.Category),
		session.WithPriority(filter.Priority),
		session.Search(filter.Search),
	)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []models.Report
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// Update lets the owner edit content fields while the report is not in a
// terminal state. Status and comments are admin territory.
func (s *ReportService) Update(id uuid.UUID, ident *session.Identity, req *dto.UpdateReportRequest) (*models.Report, error) {
	var report models.Report
	if err := s.db.First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	if report.UserID != ident.UserID {
		return nil, ErrNotReportOwner
	}
	if report.Status == models.StatusDone || report.Status == models.StatusRejected {
		return nil, ErrReportFinalized
	}

	updates := map[string]interface{}{}

	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" {
			return nil, ErrTitleRequired
		}
		updates["title"] = trimmed
	}
	if req.Description != nil {
		if ok, reason := s.filter.Check(*req.Description); !ok {
			return nil, errors.New(s.filter.RejectionMessage(reason))
		}
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		if !models.ValidCategories[*req.Category] {
			return nil, ErrInvalidCategory
		}
		updates["category"] = *req.Category
	}
	if req.Priority != nil {
		if !models.ValidPriorities[*req.Priority] {
			return nil, ErrInvalidPriority
		}
		updates["priority"] = *req.Priority
	}
	if req.Latitude != nil || req.Longitude != nil {
		lat := report.Latitude
		lng := report.Longitude
		if req.Latitude != nil {
			lat = *req.Latitude
		}
		if req.Longitude != nil {
			lng = *req.Longitude
		}
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return nil, ErrInvalidCoordinates
		}
		updates["latitude"] = lat
		updates["longitude"] = lng
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.ExternalMapLink != nil {
		updates["external_map_link"] = *req.ExternalMapLink
	}

	if len(updates) == 0 {
		return &report, nil
	}

	if err := s.db.Model(&report).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// UpdateStatus drives the state machine. Only admins may call it; invalid
// values and backward transitions leave the row untouched.
func (s *ReportService) UpdateStatus(id uuid.UUID, newStatus string, actor *session.Identity) (*models.Report, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if !models.ValidStatuses[newStatus] {
		return nil, ErrInvalidStatus
	}

	var report models.Report
	if err := s.db.First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	if !canTransition(report.Status, newStatus) {
		return nil, ErrInvalidTransition
	}

	updates := map[string]interface{}{"status": newStatus}
	if newStatus == models.StatusDone {
		now := time.Now().UTC()
		updates["resolved_at"] = &now
	}

	if err := s.db.Model(&report).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// AddComment appends an admin note. It never changes the status.
func (s *ReportService) AddComment(reportID uuid.UUID, text string, actor *session.Identity) (*models.ReportComment, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrCommentRequired
	}

	var report models.Report
	if err := s.db.First(&report, "id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	comment := models.ReportComment{
		ID:        uuid.New(),
		ReportID:  reportID,
		AdminID:   actor.UserID,
		AdminName: actor.Username,
		Comment:   text,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return &comment, nil
}

func (s *ReportService) ListComments(reportID uuid.UUID) ([]models.ReportComment, error) {
	var comments []models.ReportComment
	err := s.db.Where("report_id = ?", reportID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// SetFeedback records the owner's feedback and rating once the work is done.
func (s *ReportService) SetFeedback(id uuid.UUID, ident *session.Identity, req *dto.FeedbackRequest) (*models.Report, error) {
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, ErrInvalidRating
	}

	var report models.Report
	if err := s.db.First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	if report.UserID != ident.UserID {
		return nil, ErrNotReportOwner
	}

	updates := map[string]interface{}{"feedback": req.Feedback}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if err := s.db.Model(&report).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// Delete hard-deletes a report and its comments. Owner or admin only.
func (s *ReportService) Delete(id uuid.UUID, ident *session.Identity) error {
	var report models.Report
	if err := s.db.First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReportNotFound
		}
		return err
	}
	if report.UserID != ident.UserID && !ident.IsAdmin() {
		return ErrNotReportOwner
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", id).Delete(&models.ReportComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&report).Error
	})
}

// SaveAnalysis persists a damage analysis onto the owner's report.
func (s *ReportService) SaveAnalysis(reportID uuid.UUID, ident *session.Identity, analysis *dto.DamageAnalysis, model string, raw []byte) (*models.Report, error) {
	var report models.Report
	if err := s.db.First(&report, "id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	if report.UserID != ident.UserID && !ident.IsAdmin() {
		return nil, ErrNotReportOwner
	}

	confidence := analysis.Confidence
	updates := map[string]interface{}{
		"ai_detected_object": analysis.DetectedObject,
		"ai_damage_type":     analysis.DamageType,
		"ai_severity":        analysis.Severity,
		"ai_recommendation":  analysis.RepairRecommendation,
		"ai_confidence":      &confidence,
		"ai_model":           model,
	}
	if len(raw) > 0 {
		updates["ai_raw"] = datatypes.JSON(raw)
	}
	if err := s.db.Model(&report).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func validateLocation(lat, lng float64, address string) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ErrInvalidCoordinates
	}
	if lat == 0 && lng == 0 && strings.TrimSpace(address) == "" {
		return ErrLocationRequired
	}
	return nil
}

func parseReportDate(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Now().UTC()
}
