package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/campuscare/backend/internal/dto"
	"github.com/campuscare/backend/internal/models"
	"github.com/campuscare/backend/internal/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidDimension = errors.New("dimension must be category, status or priority")

// distributionKeys lists the enum values per dimension so charts always see
// every bucket, including empty ones.
var distributionKeys = map[string][]string{
	"category": {models.CategoryIncident, models.CategoryEvent, models.CategoryFacility, models.CategoryOther},
	"status":   {models.StatusPending, models.StatusInProgress, models.StatusDone, models.StatusRejected},
	"priority": {models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityCritical},
}

// StatsService derives dashboard aggregates over the reports table. Every
// query failure surfaces as one wrapped error; there are no partial results.
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// scoped narrows a reports query to one owner when ownerID is set;
// a nil ownerID means the global scope.
func (s *StatsService) scoped(ownerID *uuid.UUID) *gorm.DB {
	query := s.db.Model(&models.Report{})
	if ownerID != nil {
		query = query.Scopes(session.ForOwner(*ownerID))
	}
	return query
}

// Counts returns per-status totals; the parts always sum to total.
func (s *StatsService) Counts(ownerID *uuid.UUID) (*dto.StatusCounts, error) {
	counts := &dto.StatusCounts{}

	if err := s.scoped(ownerID).Count(&counts.Total).Error; err != nil {
		return nil, fmt.Errorf("statistics query failed: %w", err)
	}

	byStatus := map[string]*int64{
		models.StatusPending:    &counts.Pending,
		models.StatusInProgress: &counts.InProgress,
		models.StatusDone:       &counts.Done,
		models.StatusRejected:   &counts.Rejected,
	}
	for status, dest := range byStatus {
		if err := s.scoped(ownerID).Where("status = ?", status).Count(dest).Error; err != nil {
			return nil, fmt.Errorf("statistics query failed: %w", err)
		}
	}
	return counts, nil
}

// Distribution maps every enum value of the dimension to its count.
// Unset values bucket under "unknown" so the distribution sums to total.
func (s *StatsService) Distribution(dimension string, ownerID *uuid.UUID) (map[string]int64, error) {
	keys, ok := distributionKeys[dimension]
	if !ok {
		return nil, ErrInvalidDimension
	}

	var rows []struct {
		Value string
		Count int64
	}
	err := s.scoped(ownerID).
		Select(dimension + " AS value, COUNT(*) AS count").
		Group(dimension).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("statistics query failed: %w", err)
	}

	result := make(map[string]int64, len(keys)+1)
	for _, k := range keys {
		result[k] = 0
	}
	result["unknown"] = 0

	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[k] = true
	}
	for _, row := range rows {
		if known[row.Value] {
			result[row.Value] += row.Count
		} else {
			result["unknown"] += row.Count
		}
	}
	return result, nil
}

// maxTrendMonths caps the trend window; out-of-range requests fall back
// to the six-month default.
const maxTrendMonths = 24

// MonthlyTrend returns exactly `months` points for the trailing calendar
// months (UTC), oldest first, zero months included.
func (s *StatsService) MonthlyTrend(ownerID *uuid.UUID, months int) ([]dto.TrendPoint, error) {
	if months < 1 || months > maxTrendMonths {
		months = 6
	}

	now := time.Now().UTC()
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	points := make([]dto.TrendPoint, 0, months)
	for i := months - 1; i >= 0; i-- {
		start := currentMonth.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)

		var count int64
		err := s.scoped(ownerID).
			Where("created_at >= ? AND created_at < ?", start, end).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("statistics query failed: %w", err)
		}

		points = append(points, dto.TrendPoint{
			Label: start.Format("Jan 2006"),
			Count: count,
		})
	}
	return points, nil
}

// Performance computes the mean resolution time and per-category completion
// figures. With no resolved reports the average is 0, not NaN.
func (s *StatsService) Performance(ownerID *uuid.UUID) (*dto.PerformanceStats, error) {
	var resolved []struct {
		CreatedAt  time.Time
		ResolvedAt time.Time
	}
	err := s.scoped(ownerID).
		Select("created_at, resolved_at").
		Where("resolved_at IS NOT NULL").
		Scan(&resolved).Error
	if err != nil {
		return nil, fmt.Errorf("statistics query failed: %w", err)
	}

	avgHours := 0.0
	if len(resolved) > 0 {
		var totalHours float64
		for _, r := range resolved {
			totalHours += r.ResolvedAt.Sub(r.CreatedAt).Hours()
		}
		avgHours = totalHours / float64(len(resolved))
	}

	perf := &dto.PerformanceStats{
		AvgResolutionHours:  avgHours,
		CategoryPerformance: make([]dto.CategoryPerformance, 0, len(distributionKeys["category"])),
	}

	for _, category := range distributionKeys["category"] {
		var total, done int64
		if err := s.scoped(ownerID).Where("category = ?", category).Count(&total).Error; err != nil {
			return nil, fmt.Errorf("statistics query failed: %w", err)
		}
		if err := s.scoped(ownerID).Where("category = ? AND status = ?", category, models.StatusDone).Count(&done).Error; err != nil {
			return nil, fmt.Errorf("statistics query failed: %w", err)
		}

		var avgRating *float64
		err := s.scoped(ownerID).
			Select("AVG(rating)").
			Where("category = ? AND rating IS NOT NULL", category).
			Scan(&avgRating).Error
		if err != nil {
			return nil, fmt.Errorf("statistics query failed: %w", err)
		}

		completionRate := 0
		if total > 0 {
			completionRate = int(math.Round(float64(done) / float64(total) * 100))
		}
		rating := 0.0
		if avgRating != nil {
			rating = *avgRating
		}

		perf.CategoryPerformance = append(perf.CategoryPerformance, dto.CategoryPerformance{
			Name:           category,
			CompletionRate: completionRate,
			AvgRating:      rating,
			Total:          total,
			Resolved:       done,
		})
	}
	return perf, nil
}

// TopContributors ranks owners by report count, ties broken by whoever
// reported first.
func (s *StatsService) TopContributors(limit int) ([]dto.Contributor, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}

	// first_report is selected for ORDER BY only and is not scanned.
	var rows []struct {
		UserID      uuid.UUID
		Username    string
		Email       string
		ReportCount int64
	}
	err := s.db.Model(&models.Report{}).
		Select("reports.user_id AS user_id, users.username AS username, users.email AS email, COUNT(*) AS report_count, MIN(reports.created_at) AS first_report").
		Joins("JOIN users ON users.id = reports.user_id").
		Group("reports.user_id, users.username, users.email").
		Order("report_count DESC, first_report ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("statistics query failed: %w", err)
	}

	contributors := make([]dto.Contributor, len(rows))
	for i, row := range rows {
		contributors[i] = dto.Contributor{
			UserID:      row.UserID,
			Username:    row.Username,
			Email:       row.Email,
			ReportCount: row.ReportCount,
		}
	}
	return contributors, nil
}
