package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportPayload() fiber.Map {
	return fiber.Map{
		"title":       "Cracked pavement near dorm A",
		"description": "Large crack, trip hazard for cyclists.",
		"category":    "facility",
		"latitude":    41.0082,
		"longitude":   28.9784,
		"address":     "Dorm A walkway",
	}
}

func (e *testEnv) createReport(t *testing.T, token string) string {
	t.Helper()
	resp, body := e.request(t, http.MethodPost, "/api/reports", token, reportPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	require.Equal(t, "pending", data["status"])
	return data["id"].(string)
}

func TestCreateAndListReports(t *testing.T) {
	env := setupApp(t)
	token, _ := env.registerUser(t, "reporter")

	// Unauthenticated requests are rejected up front.
	resp, _ := env.request(t, http.MethodPost, "/api/reports", "", reportPayload())
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	id := env.createReport(t, token)

	resp, body := env.request(t, http.MethodGet, "/api/reports/my-reports", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := body["data"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].(map[string]interface{})["id"])
}

func TestCreateReportRejectsBadInput(t *testing.T) {
	env := setupApp(t)
	token, _ := env.registerUser(t, "sloppy")

	payload := reportPayload()
	payload["title"] = ""
	resp, body := env.request(t, http.MethodPost, "/api/reports", token, payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	payload = reportPayload()
	payload["latitude"] = 95.0
	resp, _ = env.request(t, http.MethodPost, "/api/reports", token, payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReportOwnershipIsolation(t *testing.T) {
	env := setupApp(t)
	ownerToken, _ := env.registerUser(t, "owner")
	otherToken, _ := env.registerUser(t, "nosy")

	id := env.createReport(t, ownerToken)

	resp, _ := env.request(t, http.MethodGet, "/api/reports/"+id, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.request(t, http.MethodGet, "/api/reports/"+id, ownerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusEndpointPermissions(t *testing.T) {
	env := setupApp(t)
	userToken, _ := env.registerUser(t, "student")
	adminToken := env.registerAdmin(t, "janitor")

	id := env.createReport(t, userToken)

	// Non-admins never reach the handler.
	resp, _ := env.request(t, http.MethodPatch, "/api/reports/"+id+"/status", userToken, fiber.Map{"status": "in_progress"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Bogus status value is a 400 and the report stays pending.
	resp, _ = env.request(t, http.MethodPatch, "/api/reports/"+id+"/status", adminToken, fiber.Map{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := env.request(t, http.MethodGet, "/api/reports/"+id, userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pending", body["data"].(map[string]interface{})["status"])

	// A legal forward move succeeds.
	resp, _ = env.request(t, http.MethodPatch, "/api/reports/"+id+"/status", adminToken, fiber.Map{"status": "in_progress"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Going backward is rejected.
	resp, _ = env.request(t, http.MethodPatch, "/api/reports/"+id+"/status", adminToken, fiber.Map{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// Admins granted outside the token claim (ADMIN_EMAILS, a role change after
// the token was issued) must be able to perform admin actions end to end.
func TestAdminGrantedOutsideTokenClaim(t *testing.T) {
	env := setupApp(t)
	userToken, _ := env.registerUser(t, "student")
	id := env.createReport(t, userToken)

	// "dean" is listed in AdminEmails but carries a plain user token.
	deanToken, _ := env.registerUser(t, "dean")
	resp, body := env.request(t, http.MethodPatch, "/api/reports/"+id+"/status", deanToken, fiber.Map{"status": "in_progress"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "in_progress", body["data"].(map[string]interface{})["status"])

	// Promoted in the database after the token was issued; the stale token
	// still works because the middleware re-resolves the role.
	staleToken, staleID := env.registerUser(t, "porter")
	require.NoError(t, env.db.Table("users").Where("id = ?", staleID).Update("role", "admin").Error)
	resp, _ = env.request(t, http.MethodPost, "/api/reports/"+id+"/comments", staleToken, fiber.Map{"comment": "Crew dispatched."})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestAdminCommentsFlow(t *testing.T) {
	env := setupApp(t)
	userToken, _ := env.registerUser(t, "asker")
	adminToken := env.registerAdmin(t, "resolver")

	id := env.createReport(t, userToken)

	resp, _ := env.request(t, http.MethodPost, "/api/reports/"+id+"/comments", adminToken, fiber.Map{
		"comment": "Facilities crew notified.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The owner can read the comment on their own report.
	resp, body := env.request(t, http.MethodGet, "/api/reports/"+id+"/comments", userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	comments := body["data"].([]interface{})
	require.Len(t, comments, 1)
	assert.Equal(t, "resolver", comments[0].(map[string]interface{})["admin_name"])
}

func TestAdminListPagination(t *testing.T) {
	env := setupApp(t)
	userToken, _ := env.registerUser(t, "busy")
	adminToken := env.registerAdmin(t, "overseer")

	for i := 0; i < 3; i++ {
		env.createReport(t, userToken)
	}

	resp, body := env.request(t, http.MethodGet, "/api/reports?limit=2", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 3, data["total"])
	assert.Len(t, data["reports"].([]interface{}), 2)

	resp, _ = env.request(t, http.MethodGet, "/api/reports?status=bogus", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFeedbackEndpoint(t *testing.T) {
	env := setupApp(t)
	token, _ := env.registerUser(t, "grader")
	id := env.createReport(t, token)

	resp, _ := env.request(t, http.MethodPost, "/api/reports/"+id+"/feedback", token, fiber.Map{
		"feedback": "quick turnaround",
		"rating":   9,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.request(t, http.MethodPost, "/api/reports/"+id+"/feedback", token, fiber.Map{
		"feedback": "quick turnaround",
		"rating":   5,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatsEndpoints(t *testing.T) {
	env := setupApp(t)
	token, _ := env.registerUser(t, "counter")
	env.createReport(t, token)
	env.createReport(t, token)

	resp, body := env.request(t, http.MethodGet, "/api/stats/summary", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 2, data["total"])
	assert.EqualValues(t, 2, data["pending"])

	// Regular users cannot widen the scope.
	resp, _ = env.request(t, http.MethodGet, "/api/stats/summary?scope=global", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = env.request(t, http.MethodGet, "/api/stats/trend", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"].([]interface{}), 6)

	resp, _ = env.request(t, http.MethodGet, "/api/stats/distribution?dimension=owner", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatEndpoints(t *testing.T) {
	env := setupApp(t)
	userToken, _ := env.registerUser(t, "chatty")
	adminToken := env.registerAdmin(t, "support")

	resp, _ := env.request(t, http.MethodPost, "/api/chat/messages", userToken, fiber.Map{
		"message": "When will the elevator be fixed?",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.request(t, http.MethodGet, "/api/admin/chat/threads", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	threads := body["data"].([]interface{})
	require.Len(t, threads, 1)
	threadID := threads[0].(map[string]interface{})["id"].(string)

	resp, _ = env.request(t, http.MethodPost, "/api/admin/chat/threads/"+threadID+"/messages", adminToken, fiber.Map{
		"message": "Parts arrive Monday.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = env.request(t, http.MethodGet, "/api/chat/messages", userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"].([]interface{}), 2)

	resp, _ = env.request(t, http.MethodGet, "/api/chat/messages?since=garbage", userToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
