package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginFlow(t *testing.T) {
	env := setupApp(t)

	token, _ := env.registerUser(t, "freshman")
	require.NotEmpty(t, token)

	// Duplicate registration conflicts.
	resp, body := env.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "freshman",
		"email":    "other@campus.edu",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	// Wrong password is a 401 with the error envelope.
	resp, body = env.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "freshman@campus.edu",
		"password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])

	// Correct login succeeds and reports the default role.
	resp, body = env.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "freshman@campus.edu",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "user", data["user"].(map[string]interface{})["role"])
}

func TestMeRequiresToken(t *testing.T) {
	env := setupApp(t)
	token, id := env.registerUser(t, "whoami")

	resp, _ := env.request(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := env.request(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := body["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, id, user["id"])
	assert.Equal(t, "whoami", user["username"])
}

func TestRefreshEndpointRotates(t *testing.T) {
	env := setupApp(t)

	resp, body := env.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "rotor",
		"email":    "rotor@campus.edu",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	refresh := body["data"].(map[string]interface{})["refresh_token"].(string)

	resp, body = env.request(t, http.MethodPost, "/api/auth/refresh", "", fiber.Map{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEqual(t, refresh, body["data"].(map[string]interface{})["refresh_token"])

	resp, _ = env.request(t, http.MethodPost, "/api/auth/refresh", "", fiber.Map{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
