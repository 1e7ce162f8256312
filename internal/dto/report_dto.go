package dto

// CreateReportRequest carries the non-file fields of the multipart
// submission form.
type CreateReportRequest struct {
	Title           string  `json:"title" form:"title"`
	Description     string  `json:"description" form:"description"`
	Category        string  `json:"category" form:"category"`
	Latitude        float64 `json:"latitude" form:"latitude"`
	Longitude       float64 `json:"longitude" form:"longitude"`
	Address         string  `json:"address" form:"address"`
	ExternalMapLink string  `json:"external_map_link" form:"external_map_link"`
	OccurredAt      string  `json:"occurred_at" form:"occurred_at"`
	Priority        string  `json:"priority" form:"priority"`
}

// UpdateReportRequest covers owner-editable content fields; nil means
// leave unchanged.
type UpdateReportRequest struct {
	Title           *string  `json:"title"`
	Description     *string  `json:"description"`
	Category        *string  `json:"category"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	Address         *string  `json:"address"`
	ExternalMapLink *string  `json:"external_map_link"`
	Priority        *string  `json:"priority"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type AddCommentRequest struct {
	Comment string `json:"comment"`
}

type FeedbackRequest struct {
	Feedback string `json:"feedback"`
	Rating   *int   `json:"rating"`
}

// ReportFilter is the admin list query, parsed from query params.
type ReportFilter struct {
	Status   string
	Category string
	Priority string
	Search   string
	Limit    int
	Offset   int
}
