package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/campuscare/backend/internal/config"
	"github.com/campuscare/backend/internal/database"
	"github.com/campuscare/backend/internal/dto"
	"github.com/campuscare/backend/internal/models"
	"github.com/campuscare/backend/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  time.Hour,
		JWTRefreshExpiry: 7 * 24 * time.Hour,
	}
}

func createUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Username:     "u_" + uuid.New().String()[:8],
		Email:        uuid.New().String()[:8] + "@test.edu",
		Password:     "x",
		AuthProvider: "password",
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func identFor(u *models.User) *session.Identity {
	return &session.Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.Username,
		Role:     u.Role,
	}
}

func validReport() *dto.CreateReportRequest {
	return &dto.CreateReportRequest{
		Title:       "Broken window in library",
		Description: "The window next to the east entrance is shattered.",
		Category:    models.CategoryFacility,
		Latitude:    41.0082,
		Longitude:   28.9784,
		Address:     "Main Library, East Wing",
	}
}
