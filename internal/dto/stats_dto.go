package dto

import "github.com/google/uuid"

type StatusCounts struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Done       int64 `json:"done"`
	Rejected   int64 `json:"rejected"`
}

type TrendPoint struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type CategoryPerformance struct {
	Name           string  `json:"name"`
	CompletionRate int     `json:"completionRate"`
	AvgRating      float64 `json:"avgRating"`
	Total          int64   `json:"total"`
	Resolved       int64   `json:"resolved"`
}

type PerformanceStats struct {
	AvgResolutionHours  float64               `json:"avgResolutionHours"`
	CategoryPerformance []CategoryPerformance `json:"categoryPerformance"`
}

type Contributor struct {
	UserID      uuid.UUID `json:"userId"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	ReportCount int64     `json:"reportCount"`
}
