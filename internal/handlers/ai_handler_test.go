package handlers_test

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAI points the AI client at a local upstream for the duration of the
// test. The service reads the config on every call, so mutating it after
// setupApp is enough.
func (e *testEnv) stubAI(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	e.cfg.AIAPIKey = "test-key"
	e.cfg.AIAPIURL = srv.URL
}

func TestAIUpstreamErrorsSurface(t *testing.T) {
	env := setupApp(t)
	token, _ := env.registerUser(t, "student")
	env.stubAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("model overloaded"))
	})

	photo := fiber.Map{"photo_base64": base64.StdEncoding.EncodeToString([]byte("img"))}

	resp, body := env.request(t, http.MethodPost, "/api/ai/describe-image", token, photo)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body["message"], "model overloaded")

	resp, body = env.request(t, http.MethodPost, "/api/chatbot/chat", token, fiber.Map{"message": "how are my reports doing?"})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body["message"], "model overloaded")
}

func TestAIUnparseableAnalysisSurfaces(t *testing.T) {
	env := setupApp(t)
	token, _ := env.registerUser(t, "student")
	env.stubAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"I could not make out any damage in this photo."}}]}`))
	})

	photo := fiber.Map{"photo_base64": base64.StdEncoding.EncodeToString([]byte("img"))}
	resp, body := env.request(t, http.MethodPost, "/api/ai/detect-damage", token, photo)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body["message"], "failed to parse AI response")
}

func TestAINotConfigured(t *testing.T) {
	env := setupApp(t)
	token, _ := env.registerUser(t, "student")

	photo := fiber.Map{"photo_base64": base64.StdEncoding.EncodeToString([]byte("img"))}
	resp, body := env.request(t, http.MethodPost, "/api/ai/describe-image", token, photo)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body["message"], "AI service not configured")
}
