package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/campuscare/backend/internal/config"
	"github.com/campuscare/backend/internal/dto"
	"github.com/campuscare/backend/internal/services"
	"github.com/campuscare/backend/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/heic": true,
}

type ReportHandler struct {
	reportService *services.ReportService
	aiService     *services.AIService
	cfg           *config.Config
}

func NewReportHandler(reportService *services.ReportService, aiService *services.AIService, cfg *config.Config) *ReportHandler {
	return &ReportHandler{reportService: reportService, aiService: aiService, cfg: cfg}
}

// Create handles POST /reports: multipart form with an optional photo.
func (h *ReportHandler) Create(c *fiber.Ctx) error {
	ident, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}

	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
	}

	photoURL := ""
	savePath := ""
	if file, err := c.FormFile("photo"); err == nil {
		if file.Size > h.cfg.MaxUploadSize {
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Photo size must be less than 10MB"))
		}
		contentType := file.Header.Get("Content-Type")
		if !validPhotoTypes[contentType] {
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid photo format. Only JPEG, PNG, and HEIC are allowed"))
		}

		fileExt := filepath.Ext(file.Filename)
		if fileExt == "" {
			fileExt = ".jpg"
		}
		filename := fmt.Sprintf("%s_%s%s", ident.UserID.String()[:8], uuid.New().String()[:8], fileExt)

		savePath = filepath.Join(h.cfg.UploadsDir, "reports", filename)
		if err := c.SaveFile(file, savePath); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to save photo"))
		}
		photoURL = "/uploads/reports/" + filename
	}

	report, err := h.reportService.Create(ident.UserID, &req, photoURL)
	if err != nil {
		if savePath != "" {
			os.Remove(savePath)
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(err.Error()))
	}

	return c.Status(fiber.StatusCreated).JSON(dto.OK(report))
}

func (h *ReportHandler) MyReports(c *fiber.Ctx) error {
	ident, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}

	reports, err := h.reportService.ListOwn(ident.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to fetch reports"))
	}
	return c.JSON(dto.OK(reports))
}

// List is the admin view; the route carries the admin middleware.
func (h *ReportHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	filter := dto.ReportFilter{
		Status:   c.Query("status", ""),
		Category: c.Query("category", ""),
		Priority: c.Query("priority", ""),
		Search:   c.Query("search", ""),
		Limit:    limit,
		Offset:   offset,
	}

	reports, total, err := h.reportService.List(&filter)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(err.Error()))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to fetch reports"))
	}

	return c.JSON(dto.OK(fiber.Map{
		"reports": reports,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	}))
}

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	ident, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid report ID"))
	}

	report, err := h.reportService.Get(id, ident)
	if err != nil {
		return h.mapReportError(c, err)
	}
	return c.JSON(dto.OK(report))
}

func (h *ReportHandler) Update(c *fiber.Ctx) error {
	ident, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid report ID"))
	}

	var req dto.UpdateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
	}

	report, err := h.reportService.Update(id, ident, &req)
	if err != nil {
		return h.mapReportError(c, err)
	}
	return c.JSON(dto.OK(report))
}

// UpdateStatus handles PATCH /reports/:id/status, the admin state machine.
func (h *ReportHandler) UpdateStatus(c *fiber.Ctx) error {
	ident, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid report ID"))
	}

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
	}

	report, err := h.reportService.UpdateStatus(id, req.Status, ident)
	if err != nil {
		return h.mapReportError(c, err)
	}
	return c.JSON(dto.OK(report))
}

func (h *ReportHandler) AddComment(c *fiber.Ctx) error {
	ident, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid report ID"))
	}

	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
	}

	comment, err := h.reportService.AddComment(id, req.Comment, ident)
	if err != nil {
		return h.mapReportError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK(comment))
}

func (h *ReportHandler) ListComments(c *fiber.Ctx) error {
	ident, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid report ID"))
	}

	// Visibility follows the report itself.
	if _, err := h.reportService.Get(id, ident); err != nil {
		return h.mapReportError(c, err)
	}

	comments, err := h.reportService.ListComments(id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to fetch comments"))
	}
	return c.JSON(dto.OK(comments))
}

func (h *ReportHandler) Feedback(c *fiber.Ctx) error {
	ident, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid report ID"))
	}

	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
	}

	report, err := h.reportService.SetFeedback(id, ident, &req)
	if err != nil {
		return h.mapReportError(c, err)
	}
	return c.JSON(dto.OK(report))
}

func (h *ReportHandler) Delete(c *fiber.Ctx) error {
	ident, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid report ID"))
	}

	if err := h.reportService.Delete(id, ident); err != nil {
		return h.mapReportError(c, err)
	}
	return c.JSON(dto.OK(fiber.Map{"message": "Report deleted"}))
}

// Analyze runs damage detection over the report's stored photo and persists
// the result.
func (h *ReportHandler) Analyze(c *fiber.Ctx) error {
	ident, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid report ID"))
	}

	report, err := h.reportService.Get(id, ident)
	if err != nil {
		return h.mapReportError(c, err)
	}
	if report.PhotoURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Report has no photo to analyze"))
	}

	relative := strings.TrimPrefix(report.PhotoURL, "/uploads/")
	photoBytes, err := os.ReadFile(filepath.Join(h.cfg.UploadsDir, relative))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to read stored photo"))
	}

	analysis, raw, err := h.aiService.DetectDamage(base64.StdEncoding.EncodeToString(photoBytes))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail(err.Error()))
	}

	// The column is jsonb, so wrap the model output in a valid document.
	rawDoc, _ := json.Marshal(fiber.Map{"content": raw})
	updated, err := h.reportService.SaveAnalysis(id, ident, analysis, h.cfg.AIVisionModel, rawDoc)
	if err != nil {
		return h.mapReportError(c, err)
	}
	return c.JSON(dto.OK(updated))
}

func (h *ReportHandler) mapReportError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrReportNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.Fail(err.Error()))
	case errors.Is(err, services.ErrNotReportOwner), errors.Is(err, services.ErrAdminOnly):
		return c.Status(fiber.StatusForbidden).JSON(dto.Fail(err.Error()))
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrReportFinalized),
		errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrContentRequired),
		errors.Is(err, services.ErrLocationRequired),
		errors.Is(err, services.ErrInvalidCoordinates),
		errors.Is(err, services.ErrInvalidCategory),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrCommentRequired):
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(err.Error()))
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Internal server error"))
	}
}
