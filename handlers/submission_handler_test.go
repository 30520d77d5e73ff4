package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dungeonStreakAPI/internal/store"
	"dungeonStreakAPI/internal/tracker"
	"dungeonStreakAPI/internal/types/streak"
	"dungeonStreakAPI/internal/types/submission"
	"dungeonStreakAPI/middleware"
	"dungeonStreakAPI/services"
)

func newSubmissionHandler(t *testing.T) (*SubmissionHandler, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	return NewSubmissionHandler(services.NewSubmissionService(st, tracker.ModeRecompute, nil)), st
}

func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.ClerkIDKey, userID))
}

func asAdmin(req *http.Request) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.IsAdminKey, true))
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func postSubmit(t *testing.T, h *SubmissionHandler, caller string, req submission.SubmitRequest) *httptest.ResponseRecorder {
	t.Helper()
	r := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/submit", jsonBody(t, req)), caller)
	rr := httptest.NewRecorder()
	h.Submit(rr, r)
	return rr
}

func TestSubmit_Success(t *testing.T) {
	h, _ := newSubmissionHandler(t)

	rr := postSubmit(t, h, "ana", submission.SubmitRequest{UserID: "ana", Date: "2024-03-04", SubmissionText: "floor 1"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp submission.SubmitResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.IsNewDay)
	assert.Equal(t, 1, resp.StreakCount)
	assert.Equal(t, "2024-03-04", resp.Submission.Date.String())

	rr = postSubmit(t, h, "ana", submission.SubmitRequest{UserID: "ana", Date: "2024-03-04", SubmissionText: "floor 1, again"})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.IsNewDay)
	assert.Equal(t, "floor 1, again", resp.Submission.SubmissionText)
}

func TestSubmit_Errors(t *testing.T) {
	h, _ := newSubmissionHandler(t)

	rr := postSubmit(t, h, "ana", submission.SubmitRequest{UserID: "bo", Date: "2024-03-04", SubmissionText: "x"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = postSubmit(t, h, "ana", submission.SubmitRequest{UserID: "ana", Date: "2024-03-04"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "submissionText", body["field"])

	rr = postSubmit(t, h, "ana", submission.SubmitRequest{Date: "2024-03-04", SubmissionText: "x"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	r := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/submit", bytes.NewBufferString("{not json")), "ana")
	rr = httptest.NewRecorder()
	h.Submit(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSubmit_AdminActsForAnyone(t *testing.T) {
	h, _ := newSubmissionHandler(t)

	r := asAdmin(httptest.NewRequest(http.MethodPost, "/api/v1/submit",
		jsonBody(t, submission.SubmitRequest{UserID: "bo", Date: "2024-03-04", SubmissionText: "x"})))
	rr := httptest.NewRecorder()
	h.Submit(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func getWithVars(handler http.HandlerFunc, target, caller, userID string) *httptest.ResponseRecorder {
	r := asUser(httptest.NewRequest(http.MethodGet, target, nil), caller)
	r = mux.SetURLVars(r, map[string]string{"userId": userID})
	rr := httptest.NewRecorder()
	handler(rr, r)
	return rr
}

func TestGetStreaks(t *testing.T) {
	h, _ := newSubmissionHandler(t)
	for _, d := range []string{"2024-03-04", "2024-03-05", "2024-03-06"} {
		require.Equal(t, http.StatusOK, postSubmit(t, h, "ana", submission.SubmitRequest{UserID: "ana", Date: d, SubmissionText: "x"}).Code)
	}

	rr := getWithVars(h.GetStreaks, "/api/v1/streaks/ana?weekStart=2024-03-06", "ana", "ana")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp streak.StreakResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.CurrentStreak)
	assert.Equal(t, "2024-03-04", resp.WeekStart.String())
	require.NotNil(t, resp.Heatmap[0][1])
	assert.Equal(t, 2, *resp.Heatmap[0][1])
	assert.Nil(t, resp.Heatmap[0][6])
	assert.Equal(t, "weakened", resp.Bosses[0])

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	assert.Contains(t, string(raw["heatmap"]), "null")
}

func TestGetStreaks_Errors(t *testing.T) {
	h, _ := newSubmissionHandler(t)

	assert.Equal(t, http.StatusForbidden, getWithVars(h.GetStreaks, "/api/v1/streaks/bo", "ana", "bo").Code)
	assert.Equal(t, http.StatusNotFound, getWithVars(h.GetStreaks, "/api/v1/streaks/ana", "ana", "ana").Code)
	assert.Equal(t, http.StatusBadRequest, getWithVars(h.GetStreaks, "/api/v1/streaks/ana?weekStart=soon", "ana", "ana").Code)
}

func TestGetUpdates(t *testing.T) {
	h, _ := newSubmissionHandler(t)
	for _, d := range []string{"2024-03-04", "2024-03-05", "2024-03-06"} {
		postSubmit(t, h, "ana", submission.SubmitRequest{UserID: "ana", Date: d, SubmissionText: "note " + d})
	}

	rr := getWithVars(h.GetUpdates, "/api/v1/updates/ana?limit=2", "ana", "ana")
	require.Equal(t, http.StatusOK, rr.Code)

	var subs []submission.Submission
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &subs))
	require.Len(t, subs, 2)
	assert.Equal(t, "2024-03-06", subs[0].Date.String())
	assert.Equal(t, "note 2024-03-06", subs[0].SubmissionText)

	assert.Equal(t, http.StatusBadRequest, getWithVars(h.GetUpdates, "/api/v1/updates/ana?limit=ten", "ana", "ana").Code)
	assert.Equal(t, http.StatusForbidden, getWithVars(h.GetUpdates, "/api/v1/updates/bo", "ana", "bo").Code)
	assert.Equal(t, http.StatusNotFound, getWithVars(h.GetUpdates, "/api/v1/updates/cy", "cy", "cy").Code)
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(store.NewMemoryStore())
	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
