package middleware

import (
	"strings"

	"github.com/campuscare/backend/internal/config"
	"github.com/campuscare/backend/internal/dto"
	"github.com/campuscare/backend/internal/models"
	"github.com/campuscare/backend/internal/session"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminRequired checks, in order:
// 1. the role claim carried by the token
// 2. the config-based admin email list
// 3. the user Role field in the database (covers role changes after issue)
func AdminRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	adminEmails := parseCSV(cfg.AdminEmails)

	return func(c *fiber.Ctx) error {
		ident, err := session.FromContext(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
		}

		admitted := ident.IsAdmin() || contains(adminEmails, ident.Email)
		if !admitted {
			var user models.User
			if err := db.First(&user, "id = ?", ident.UserID).Error; err == nil {
				admitted = user.Role == models.RoleAdmin
			}
		}
		if !admitted {
			return c.Status(fiber.StatusForbidden).JSON(dto.Fail("Admin access required"))
		}

		// Downstream role checks must see the role this middleware granted,
		// even when the token claim is stale.
		ident.Role = models.RoleAdmin
		session.Store(c, ident)
		return c.Next()
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
