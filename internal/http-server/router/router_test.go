package router

import (
	"bytes"
	"dojo-service/internal/lock"
	"dojo-service/internal/service"
	"dojo-service/internal/storage/memory"
	"dojo-service/pkg/middleware/mwAuth"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

type apiClient struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewService(memory.New(), lock.NewLocalLock(), service.Config{})

	server := httptest.NewServer(New(log, svc, secret))
	t.Cleanup(server.Close)

	return &apiClient{t: t, server: server, token: token(t, 42, mwAuth.RoleInstructor)}
}

func token(t *testing.T, id int64, role string) string {
	t.Helper()

	raw, err := mwAuth.IssueToken(secret, mwAuth.User{ID: id, Role: role}, time.Hour)
	require.NoError(t, err)

	return raw
}

func (c *apiClient) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&out))

	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	e, ok := body["error"].(map[string]any)
	if !ok {
		return ""
	}
	code, _ := e["code"].(string)
	return code
}

func id(body map[string]any, key string) string {
	obj := body[key].(map[string]any)
	return strconv.FormatInt(int64(obj["id"].(float64)), 10)
}

func (c *apiClient) seed() (classID, memberID string) {
	c.t.Helper()

	status, body := c.do(http.MethodPost, "/classes", map[string]any{
		"name":           "Judo",
		"instructor_id":  42,
		"day_of_week":    "friday",
		"start_time":     "18:00",
		"end_time":       "19:30",
		"duration_hours": 1.5,
	})
	require.Equal(c.t, http.StatusCreated, status, body)
	classID = id(body, "class")

	status, body = c.do(http.MethodPost, "/members", map[string]any{
		"first_name": "Naomi",
		"last_name":  "Kato",
	})
	require.Equal(c.t, http.StatusCreated, status, body)
	memberID = id(body, "member")

	return classID, memberID
}

func num(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func TestHealth(t *testing.T) {
	c := newAPI(t)
	c.token = ""

	status, body := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestAuth(t *testing.T) {
	c := newAPI(t)

	c.token = ""
	status, body := c.do(http.MethodGet, "/attendance", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	c.token = "not-a-jwt"
	status, _ = c.do(http.MethodGet, "/attendance", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	c.token = token(t, 5, mwAuth.RoleMember)
	status, _ = c.do(http.MethodGet, "/attendance", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = c.do(http.MethodPost, "/members", map[string]any{"first_name": "A", "last_name": "B"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))
}

func TestAttendanceEndpoints(t *testing.T) {
	c := newAPI(t)
	classID, memberID := c.seed()

	record := map[string]any{
		"member_id": num(memberID),
		"class_id":  num(classID),
		"date":      "2024-02-01",
		"status":    "present",
	}

	status, body := c.do(http.MethodPost, "/attendance", record)
	require.Equal(t, http.StatusCreated, status, body)
	att := body["attendance"].(map[string]any)
	assert.Equal(t, 1.5, att["hours_attended"])
	assert.Equal(t, "regular", att["attendance_type"])
	recordID := id(body, "attendance")

	status, body = c.do(http.MethodPost, "/attendance", record)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "DUPLICATE_RECORD", errorCode(body))

	status, body = c.do(http.MethodPost, "/attendance", map[string]any{"member_id": num(memberID)})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))

	status, body = c.do(http.MethodPost, "/attendance/backdate", map[string]any{
		"member_id":         num(memberID),
		"class_id":          num(classID),
		"date":              "2024-01-15",
		"status":            "late",
		"adjustment_reason": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "MISSING_REASON", errorCode(body))

	status, body = c.do(http.MethodPost, "/attendance/backdate", map[string]any{
		"member_id":         num(memberID),
		"class_id":          num(classID),
		"date":              "2024-01-15",
		"status":            "late",
		"adjustment_reason": "signed the paper sheet",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "backdated", body["attendance"].(map[string]any)["attendance_type"])
	assert.Equal(t, float64(42), body["attendance"].(map[string]any)["adjusted_by"])

	status, body = c.do(http.MethodPut, "/attendance/"+recordID, map[string]any{
		"hours_attended":    1.0,
		"adjustment_reason": "left after warm-up",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "manual_adjustment", body["attendance"].(map[string]any)["attendance_type"])
	assert.Equal(t, 1.0, body["attendance"].(map[string]any)["hours_attended"])

	status, body = c.do(http.MethodPut, "/attendance/9999", map[string]any{"adjustment_reason": "fix"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "RECORD_NOT_FOUND", errorCode(body))

	status, body = c.do(http.MethodGet, "/attendance/"+recordID, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "2024-02-01", body["attendance"].(map[string]any)["date"])

	status, body = c.do(http.MethodGet, "/attendance?member_id="+memberID+"&date_from=2024-01-01&date_to=2024-01-31", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["attendances"], 1)

	status, body = c.do(http.MethodGet, "/attendance/class/"+classID+"/date/2024-02-01", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["attendances"], 1)

	status, body = c.do(http.MethodGet, "/attendance?class_id=999", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.NotNil(t, body["attendances"])
	assert.Empty(t, body["attendances"])
}

func TestLiveSessionFlow(t *testing.T) {
	c := newAPI(t)
	classID, memberID := c.seed()

	status, body := c.do(http.MethodPost, "/attendance/sessions", map[string]any{
		"class_id": num(classID),
		"date":     "2024-03-01",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "active", body["session"].(map[string]any)["status"])
	sessionID := id(body, "session")

	action := func(name string) (int, map[string]any) {
		return c.do(http.MethodPost, "/attendance/live", map[string]any{
			"session_id": num(sessionID),
			"member_id":  num(memberID),
			"action":     name,
		})
	}

	status, body = action("check_in")
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "check_in", body["action"])

	status, body = action("check_in")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ALREADY_CHECKED_IN", errorCode(body))

	status, body = c.do(http.MethodGet, "/attendance/sessions/"+sessionID+"/live", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["checked_in"], 1)
	assert.Empty(t, body["checked_out"])

	status, body = action("check_out")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "left_early", body["entry"].(map[string]any)["status"])

	status, body = action("check_out")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "NOT_CHECKED_IN", errorCode(body))

	status, body = action("wave")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))

	status, body = c.do(http.MethodPut, "/attendance/sessions/"+sessionID+"/end", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "ended", body["session"].(map[string]any)["status"])

	status, body = action("check_in")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "SESSION_NOT_ACTIVE", errorCode(body))

	status, body = c.do(http.MethodPost, "/attendance/sessions/"+sessionID+"/finalize", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(1), body["records_processed"])

	status, body = c.do(http.MethodGet, "/attendance?class_id="+classID+"&date_from=2024-03-01&date_to=2024-03-01", nil)
	require.Equal(t, http.StatusOK, status, body)
	list := body["attendances"].([]any)
	require.Len(t, list, 1)
	rec := list[0].(map[string]any)
	assert.Equal(t, "live_update", rec["attendance_type"])
	assert.Equal(t, "left_early", rec["status"])

	status, body = c.do(http.MethodGet, "/attendance/sessions/"+sessionID, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.NotNil(t, body["session"].(map[string]any)["finalized_at"])

	status, body = c.do(http.MethodGet, "/attendance/sessions/9999", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "SESSION_NOT_FOUND", errorCode(body))
}

func TestClassesAndMembers(t *testing.T) {
	c := newAPI(t)
	classID, memberID := c.seed()

	status, body := c.do(http.MethodGet, "/classes/"+classID, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Judo", body["class"].(map[string]any)["name"])

	status, body = c.do(http.MethodGet, "/classes?active=true&instructor_id=42", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["classes"], 1)

	status, body = c.do(http.MethodGet, "/classes/9999", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = c.do(http.MethodPost, "/classes", map[string]any{
		"name": "Bad", "instructor_id": 1, "day_of_week": "monday", "start_time": "19:00", "end_time": "18:00",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))

	status, body = c.do(http.MethodGet, "/members/"+memberID, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "active", body["member"].(map[string]any)["status"])

	status, body = c.do(http.MethodGet, "/members?status=active", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["members"], 1)
}
