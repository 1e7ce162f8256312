package handlers

import (
	"errors"
	"time"

	"github.com/campuscare/backend/internal/dto"
	"github.com/campuscare/backend/internal/services"
	"github.com/campuscare/backend/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Thread returns the caller's single support thread, creating it on first use.
func (h *ChatHandler) Thread(c *fiber.Ctx) error {
	ident, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}

	thread, err := h.chatService.GetOrCreateThread(ident.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to load chat thread"))
	}
	return c.JSON(dto.OK(thread))
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	ident, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}

	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
	}

	msg, err := h.chatService.SendUserMessage(ident.UserID, req.Message)
	if err != nil {
		// Moderation rejections and empty messages both come back as 400s.
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(err.Error()))
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK(msg))
}

// NewMessages is the pull endpoint: messages newer than ?since=<RFC3339>.
func (h *ChatHandler) NewMessages(c *fiber.Ctx) error {
	ident, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}

	since := time.Time{}
	if raw := c.Query("since", ""); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid since timestamp, expected RFC3339"))
		}
		since = parsed
	}

	messages, err := h.chatService.GetNewSince(ident.UserID, since)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to fetch messages"))
	}
	return c.JSON(dto.OK(messages))
}

// ListThreads is the admin inbox, newest activity first.
func (h *ChatHandler) ListThreads(c *fiber.Ctx) error {
	threads, err := h.chatService.ListThreads()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to fetch threads"))
	}
	return c.JSON(dto.OK(threads))
}

func (h *ChatHandler) GetThread(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid thread ID"))
	}

	thread, err := h.chatService.GetThread(id)
	if err != nil {
		if errors.Is(err, services.ErrThreadNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.Fail(err.Error()))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to fetch thread"))
	}
	return c.JSON(dto.OK(thread))
}

func (h *ChatHandler) SendAdminMessage(c *fiber.Ctx) error {
	ident, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid thread ID"))
	}

	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
	}

	msg, err := h.chatService.SendAdminMessage(id, ident.UserID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrThreadNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.Fail(err.Error()))
		case errors.Is(err, services.ErrMessageRequired):
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(err.Error()))
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to send message"))
		}
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK(msg))
}

func (h *ChatHandler) UpdateThreadStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid thread ID"))
	}

	var req dto.UpdateThreadStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
	}

	if err := h.chatService.UpdateThreadStatus(id, req.Status); err != nil {
		switch {
		case errors.Is(err, services.ErrThreadNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.Fail(err.Error()))
		case errors.Is(err, services.ErrInvalidThreadStatus):
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(err.Error()))
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to update thread"))
		}
	}
	return c.JSON(dto.OK(fiber.Map{"message": "Thread updated"}))
}
