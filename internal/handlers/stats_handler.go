package handlers

import (
	"errors"
	"strconv"

	"github.com/campuscare/backend/internal/dto"
	"github.com/campuscare/backend/internal/services"
	"github.com/campuscare/backend/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type StatsHandler struct {
	statsService *services.StatsService
}

func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// resolveScope maps ?scope= to an optional owner filter. Regular users always
// see their own numbers; the global scope is admin-only.
func (h *StatsHandler) resolveScope(c *fiber.Ctx) (*uuid.UUID, error) {
	ident, err := session.FromContext(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	scope := c.Query("scope", "personal")
	if scope == "global" {
		if !ident.IsAdmin() {
			return nil, fiber.NewError(fiber.StatusForbidden, "Admin access required for global statistics")
		}
		return nil, nil
	}
	owner := ident.UserID
	return &owner, nil
}

func (h *StatsHandler) Summary(c *fiber.Ctx) error {
	owner, err := h.resolveScope(c)
	if err != nil {
		return scopeError(c, err)
	}

	counts, err := h.statsService.Counts(owner)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to compute statistics"))
	}
	return c.JSON(dto.OK(counts))
}

func (h *StatsHandler) Distribution(c *fiber.Ctx) error {
	owner, err := h.resolveScope(c)
	if err != nil {
		return scopeError(c, err)
	}

	dimension := c.Query("dimension", "category")
	dist, err := h.statsService.Distribution(dimension, owner)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDimension) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(err.Error()))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to compute distribution"))
	}
	return c.JSON(dto.OK(dist))
}

func (h *StatsHandler) Trend(c *fiber.Ctx) error {
	owner, err := h.resolveScope(c)
	if err != nil {
		return scopeError(c, err)
	}

	months, _ := strconv.Atoi(c.Query("months", "6"))
	trend, err := h.statsService.MonthlyTrend(owner, months)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to compute trend"))
	}
	return c.JSON(dto.OK(trend))
}

func (h *StatsHandler) Performance(c *fiber.Ctx) error {
	owner, err := h.resolveScope(c)
	if err != nil {
		return scopeError(c, err)
	}

	perf, err := h.statsService.Performance(owner)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to compute performance"))
	}
	return c.JSON(dto.OK(perf))
}

// Contributors is the admin leaderboard; the route carries admin middleware.
func (h *StatsHandler) Contributors(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	contributors, err := h.statsService.TopContributors(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to compute contributors"))
	}
	return c.JSON(dto.OK(contributors))
}

func scopeError(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(dto.Fail(fiberErr.Message))
	}
	return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
}
