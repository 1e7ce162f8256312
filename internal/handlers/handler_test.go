package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campuscare/backend/internal/config"
	"github.com/campuscare/backend/internal/database"
	"github.com/campuscare/backend/internal/handlers"
	"github.com/campuscare/backend/internal/routes"
	"github.com/campuscare/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func setupApp(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  time.Hour,
		JWTRefreshExpiry: 24 * time.Hour,
		UploadsDir:       t.TempDir(),
		MaxUploadSize:    10 * 1024 * 1024,
		AdminEmails:      "dean@campus.edu",
	}

	filter := services.NewContentFilter()
	authService := services.NewAuthService(db, cfg)
	reportService := services.NewReportService(db, filter)
	statsService := services.NewStatsService(db)
	aiService := services.NewAIService(cfg)
	chatService := services.NewChatService(db, filter)

	app := fiber.New()
	routes.Setup(app, cfg, db,
		handlers.NewAuthHandler(authService),
		handlers.NewReportHandler(reportService, aiService, cfg),
		handlers.NewStatsHandler(statsService),
		handlers.NewAIHandler(aiService, statsService, db),
		handlers.NewChatHandler(chatService),
	)

	return &testEnv{app: app, db: db, cfg: cfg}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

// registerUser signs up through the API and returns the token plus user id.
func (e *testEnv) registerUser(t *testing.T, username string) (string, string) {
	t.Helper()
	resp, body := e.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": username,
		"email":    username + "@campus.edu",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	return data["token"].(string), user["id"].(string)
}

// registerAdmin promotes the user in the database, then logs in again so the
// fresh token carries the admin role claim.
func (e *testEnv) registerAdmin(t *testing.T, username string) string {
	t.Helper()
	_, id := e.registerUser(t, username)
	require.NoError(t, e.db.Table("users").Where("id = ?", id).Update("role", "admin").Error)

	resp, body := e.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    username + "@campus.edu",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["data"].(map[string]interface{})["token"].(string)
}
