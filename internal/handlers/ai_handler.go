package handlers

import (
	"encoding/base64"
	"errors"
	"io"
	"time"

	"github.com/campuscare/backend/internal/dto"
	"github.com/campuscare/backend/internal/services"
	"github.com/campuscare/backend/internal/session"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AIHandler struct {
	aiService    *services.AIService
	statsService *services.StatsService
	db           *gorm.DB
}

func NewAIHandler(aiService *services.AIService, statsService *services.StatsService, db *gorm.DB) *AIHandler {
	return &AIHandler{aiService: aiService, statsService: statsService, db: db}
}

// DescribeImage accepts either a multipart photo or a JSON body with a
// base64 payload and returns a suggested description for the report form.
func (h *AIHandler) DescribeImage(c *fiber.Ctx) error {
	photoBase64, mimeType, err := readPhoto(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(err.Error()))
	}

	description, err := h.aiService.DescribeImage(photoBase64, mimeType)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail(err.Error()))
	}

	return c.JSON(dto.OK(dto.DescribeImageResponse{Description: description}))
}

// DetectDamage runs the structured damage analysis over a photo without
// attaching the result to any report.
func (h *AIHandler) DetectDamage(c *fiber.Ctx) error {
	photoBase64, _, err := readPhoto(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(err.Error()))
	}

	analysis, _, err := h.aiService.DetectDamage(photoBase64)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail(err.Error()))
	}

	return c.JSON(dto.OK(analysis))
}

// Chatbot answers a free-form question grounded in the caller's own report
// statistics and recent titles.
func (h *AIHandler) Chatbot(c *fiber.Ctx) error {
	ident, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}

	var req dto.ChatbotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Message is required"))
	}

	owner := ident.UserID
	counts, err := h.statsService.Counts(&owner)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to load report context"))
	}

	var titles []string
	h.db.Table("reports").
		Where("user_id = ?", ident.UserID).
		Order("created_at DESC").Limit(5).Pluck("title", &titles)

	answer, err := h.aiService.Chat(services.BuildChatContext(counts, titles, req.Message))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail(err.Error()))
	}

	return c.JSON(dto.OK(dto.ChatbotResponse{Message: answer, Timestamp: time.Now().UTC().Format(time.RFC3339)}))
}

// readPhoto pulls a photo from either a multipart field or a JSON body.
func readPhoto(c *fiber.Ctx) (string, string, error) {
	if file, err := c.FormFile("photo"); err == nil {
		contentType := file.Header.Get("Content-Type")
		if !validPhotoTypes[contentType] {
			return "", "", errors.New("invalid photo format, only JPEG, PNG, and HEIC are allowed")
		}
		f, err := file.Open()
		if err != nil {
			return "", "", errors.New("failed to read uploaded photo")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", "", errors.New("failed to read uploaded photo")
		}
		return base64.StdEncoding.EncodeToString(data), contentType, nil
	}

	var req dto.DescribeImageRequest
	if err := c.BodyParser(&req); err != nil || req.PhotoBase64 == "" {
		return "", "", errors.New("a photo upload or photo_base64 field is required")
	}
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return req.PhotoBase64, mimeType, nil
}
