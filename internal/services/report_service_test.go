package services

import (
	"testing"

	"github.com/campuscare/backend/internal/dto"
	"github.com/campuscare/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportService(t *testing.T) (*ReportService, func() *models.User) {
	t.Helper()
	db := setupTestDB(t)
	svc := NewReportService(db, NewContentFilter())
	return svc, func() *models.User { return createUser(t, db, models.RoleUser) }
}

func TestCreateReportDefaults(t *testing.T) {
	svc, newUser := newReportService(t)
	owner := newUser()

	req := validReport()
	req.Category = ""
	req.Priority = ""

	report, err := svc.Create(owner.ID, req, "")
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, report.Status)
	assert.Equal(t, models.CategoryOther, report.Category)
	assert.Equal(t, models.PriorityMedium, report.Priority)
	assert.False(t, report.OccurredAt.IsZero())

	// Round-trip: the new report shows up in the owner's list.
	reports, err := svc.ListOwn(owner.ID)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, report.ID, reports[0].ID)
}

func TestCreateReportValidation(t *testing.T) {
	svc, newUser := newReportService(t)
	owner := newUser()

	tests := []struct {
		name    string
		mutate  func(r *dto.CreateReportRequest)
		wantErr error
	}{
		{"missing title", func(r *dto.CreateReportRequest) { r.Title = "  " }, ErrTitleRequired},
		{"no photo or description", func(r *dto.CreateReportRequest) { r.Description = "" }, ErrContentRequired},
		{"latitude out of range", func(r *dto.CreateReportRequest) { r.Latitude = 91 }, ErrInvalidCoordinates},
		{"longitude out of range", func(r *dto.CreateReportRequest) { r.Longitude = -181 }, ErrInvalidCoordinates},
		{"no location at all", func(r *dto.CreateReportRequest) {
			r.Latitude, r.Longitude, r.Address = 0, 0, ""
		}, ErrLocationRequired},
		{"unknown category", func(r *dto.CreateReportRequest) { r.Category = "plumbing" }, ErrInvalidCategory},
		{"unknown priority", func(r *dto.CreateReportRequest) { r.Priority = "urgent" }, ErrInvalidPriority},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validReport()
			tt.mutate(req)
			_, err := svc.Create(owner.ID, req, "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateReportPhotoOnly(t *testing.T) {
	svc, newUser := newReportService(t)
	owner := newUser()

	req := validReport()
	req.Description = ""

	report, err := svc.Create(owner.ID, req, "/uploads/reports/abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/reports/abc.jpg", report.PhotoURL)
}

func TestCreateReportFilteredDescription(t *testing.T) {
	svc, newUser := newReportService(t)
	owner := newUser()

	req := validReport()
	req.Description = "this shitty heater never works"

	_, err := svc.Create(owner.ID, req, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inappropriate")
}

func TestStatusTransitions(t *testing.T) {
	svc, newUser := newReportService(t)
	owner := newUser()
	admin := identFor(&models.User{ID: uuid.New(), Username: "staff", Role: models.RoleAdmin})

	report, err := svc.Create(owner.ID, validReport(), "")
	require.NoError(t, err)

	// Non-admins cannot touch the status.
	_, err = svc.UpdateStatus(report.ID, models.StatusInProgress, identFor(owner))
	assert.ErrorIs(t, err, ErrAdminOnly)

	// Unknown value is rejected and the row is untouched.
	_, err = svc.UpdateStatus(report.ID, "archived", admin)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	unchanged, err := svc.Get(report.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, unchanged.Status)

	// Forward moves succeed.
	_, err = svc.UpdateStatus(report.ID, models.StatusInProgress, admin)
	require.NoError(t, err)

	// Backward moves do not.
	_, err = svc.UpdateStatus(report.ID, models.StatusPending, admin)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// done stamps the resolution time.
	_, err = svc.UpdateStatus(report.ID, models.StatusDone, admin)
	require.NoError(t, err)
	resolved, err := svc.Get(report.ID, admin)
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)

	// Terminal states stay terminal.
	_, err = svc.UpdateStatus(report.ID, models.StatusRejected, admin)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.UpdateStatus(report.ID, models.StatusDone, admin)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRejectFromInProgress(t *testing.T) {
	svc, newUser := newReportService(t)
	owner := newUser()
	admin := identFor(&models.User{ID: uuid.New(), Username: "staff", Role: models.RoleAdmin})

	report, err := svc.Create(owner.ID, validReport(), "")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(report.ID, models.StatusInProgress, admin)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(report.ID, models.StatusRejected, admin)
	require.NoError(t, err)

	// rejected never gains a resolution time.
	got, err := svc.Get(report.ID, admin)
	require.NoError(t, err)
	assert.Nil(t, got.ResolvedAt)
}

func TestCommentsDoNotChangeStatus(t *testing.T) {
	svc, newUser := newReportService(t)
	owner := newUser()
	admin := identFor(&models.User{ID: uuid.New(), Username: "staff", Role: models.RoleAdmin})

	report, err := svc.Create(owner.ID, validReport(), "")
	require.NoError(t, err)

	_, err = svc.AddComment(report.ID, "Maintenance scheduled for Friday.", identFor(owner))
	assert.ErrorIs(t, err, ErrAdminOnly)

	_, err = svc.AddComment(report.ID, "   ", admin)
	assert.ErrorIs(t, err, ErrCommentRequired)

	comment, err := svc.AddComment(report.ID, "Maintenance scheduled for Friday.", admin)
	require.NoError(t, err)
	assert.Equal(t, "staff", comment.AdminName)

	got, err := svc.Get(report.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	require.Len(t, got.Comments, 1)
}

func TestReportVisibility(t *testing.T) {
	svc, newUser := newReportService(t)
	owner := newUser()
	stranger := newUser()

	report, err := svc.Create(owner.ID, validReport(), "")
	require.NoError(t, err)

	_, err = svc.Get(report.ID, identFor(stranger))
	assert.ErrorIs(t, err, ErrNotReportOwner)

	_, err = svc.Get(uuid.New(), identFor(owner))
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestUpdateFinalizedReport(t *testing.T) {
	svc, newUser := newReportService(t)
	owner := newUser()
	admin := identFor(&models.User{ID: uuid.New(), Username: "staff", Role: models.RoleAdmin})

	report, err := svc.Create(owner.ID, validReport(), "")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(report.ID, models.StatusRejected, admin)
	require.NoError(t, err)

	newTitle := "Updated title"
	_, err = svc.Update(report.ID, identFor(owner), &dto.UpdateReportRequest{Title: &newTitle})
	assert.ErrorIs(t, err, ErrReportFinalized)
}

func TestFeedbackRating(t *testing.T) {
	svc, newUser := newReportService(t)
	owner := newUser()
	stranger := newUser()

	report, err := svc.Create(owner.ID, validReport(), "")
	require.NoError(t, err)

	bad := 0
	_, err = svc.SetFeedback(report.ID, identFor(owner), &dto.FeedbackRequest{Rating: &bad})
	assert.ErrorIs(t, err, ErrInvalidRating)

	five := 5
	_, err = svc.SetFeedback(report.ID, identFor(stranger), &dto.FeedbackRequest{Rating: &five})
	assert.ErrorIs(t, err, ErrNotReportOwner)

	updated, err := svc.SetFeedback(report.ID, identFor(owner), &dto.FeedbackRequest{
		Feedback: "Fixed quickly, thanks",
		Rating:   &five,
	})
	require.NoError(t, err)
	assert.Equal(t, report.ID, updated.ID)
}

func TestAdminListFilters(t *testing.T) {
	svc, newUser := newReportService(t)
	owner := newUser()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(owner.ID, validReport(), "")
		require.NoError(t, err)
	}
	high := validReport()
	high.Priority = models.PriorityHigh
	high.Title = "Flooded basement"
	_, err := svc.Create(owner.ID, high, "")
	require.NoError(t, err)

	_, _, err = svc.List(&dto.ReportFilter{Status: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	reports, total, err := svc.List(&dto.ReportFilter{Priority: models.PriorityHigh})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, reports, 1)
	assert.Equal(t, "Flooded basement", reports[0].Title)

	reports, total, err = svc.List(&dto.ReportFilter{Search: "flooded"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, reports, 1)

	_, total, err = svc.List(&dto.ReportFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
}

func TestDeleteReportCascades(t *testing.T) {
	svc, newUser := newReportService(t)
	owner := newUser()
	admin := identFor(&models.User{ID: uuid.New(), Username: "staff", Role: models.RoleAdmin})

	report, err := svc.Create(owner.ID, validReport(), "")
	require.NoError(t, err)
	_, err = svc.AddComment(report.ID, "On it.", admin)
	require.NoError(t, err)

	stranger := newUser()
	err = svc.Delete(report.ID, identFor(stranger))
	assert.ErrorIs(t, err, ErrNotReportOwner)

	require.NoError(t, svc.Delete(report.ID, identFor(owner)))

	_, err = svc.Get(report.ID, admin)
	assert.ErrorIs(t, err, ErrReportNotFound)
	comments, err := svc.ListComments(report.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}
