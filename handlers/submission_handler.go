package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"dungeonStreakAPI/internal/types/submission"
	"dungeonStreakAPI/middleware"
	"dungeonStreakAPI/services"
)

type SubmissionHandler struct {
	submissionService *services.SubmissionService
}

func NewSubmissionHandler(submissionService *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
	}
}

// Submit handles POST /submit.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req submission.SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.UserID != "" && !middleware.CanAccessUser(ctx, req.UserID) {
		respondWithError(w, http.StatusForbidden, "You can only submit progress for yourself")
		return
	}

	resp, err := h.submissionService.Submit(ctx, &req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to process submission")
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// GetStreaks handles GET /streaks/{userId}?weekStart=YYYY-MM-DD.
func (h *SubmissionHandler) GetStreaks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID := mux.Vars(r)["userId"]
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "User ID is required")
		return
	}
	if !middleware.CanAccessUser(ctx, userID) {
		respondWithError(w, http.StatusForbidden, "You can only view your own streak data")
		return
	}

	resp, err := h.submissionService.GetStreaks(ctx, userID, r.URL.Query().Get("weekStart"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve streak data")
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// GetUpdates handles GET /updates/{userId}?limit=&weekStart=.
func (h *SubmissionHandler) GetUpdates(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID := mux.Vars(r)["userId"]
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "User ID is required")
		return
	}
	if !middleware.CanAccessUser(ctx, userID) {
		respondWithError(w, http.StatusForbidden, "You can only view your own updates")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Query parameter 'limit' must be an integer")
			return
		}
		limit = n
	}

	subs, err := h.submissionService.GetUpdates(ctx, userID, limit, r.URL.Query().Get("weekStart"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to retrieve updates")
		return
	}

	respondWithJSON(w, http.StatusOK, subs)
}
