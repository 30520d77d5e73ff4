package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"dungeonStreakAPI/internal/types/clerk"
	"dungeonStreakAPI/internal/types/submission"
	"dungeonStreakAPI/middleware"
	"dungeonStreakAPI/services"
)

// svixTolerance bounds how old a signed Clerk delivery may be.
const svixTolerance = 5 * time.Minute

type WebhookHandler struct {
	notificationService *services.NotificationService
	userService         *services.UserService
	clerkWebhookSecret  string
	now                 func() time.Time
}

func NewWebhookHandler(notificationService *services.NotificationService, userService *services.UserService, clerkWebhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		notificationService: notificationService,
		userService:         userService,
		clerkWebhookSecret:  clerkWebhookSecret,
		now:                 time.Now,
	}
}

// HandleProgressWebhook announces a progress update and fails when delivery fails.
func (h *WebhookHandler) HandleProgressWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var payload submission.WebhookPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	if payload.UserID != "" && !middleware.CanAccessUser(ctx, payload.UserID) {
		respondWithError(w, http.StatusForbidden, "You can only announce your own progress")
		return
	}

	if err := h.notificationService.SendProgressUpdate(ctx, &payload); err != nil {
		respondWithServiceError(w, err, "Failed to send notification")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleClerkWebhook keeps user display names in sync with Clerk.
func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Error reading body")
		return
	}

	if err := h.verifySvixSignature(r.Header, body); err != nil {
		log.WithError(err).Warn("Invalid Clerk webhook signature")
		respondWithError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event clerk.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondWithError(w, http.StatusBadRequest, "Error parsing webhook")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	switch event.Type {
	case "user.created", "user.updated":
		var data clerk.UserData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			respondWithError(w, http.StatusBadRequest, "Error parsing user data")
			return
		}
		if _, err := h.userService.SyncClerkUser(ctx, &data); err != nil {
			respondWithServiceError(w, err, "Error processing webhook")
			return
		}
	default:
		log.WithField("type", event.Type).Debug("Unhandled Clerk webhook event")
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// verifySvixSignature checks the svix-signature header: space separated
// "v1,<base64 HMAC-SHA256>" entries over "id.timestamp.body".
func (h *WebhookHandler) verifySvixSignature(header http.Header, body []byte) error {
	if h.clerkWebhookSecret == "" {
		return fmt.Errorf("webhook secret not configured")
	}

	svixID := header.Get("svix-id")
	svixTimestamp := header.Get("svix-timestamp")
	svixSignature := header.Get("svix-signature")
	if svixID == "" || svixTimestamp == "" || svixSignature == "" {
		return fmt.Errorf("missing signature headers")
	}

	ts, err := strconv.ParseInt(svixTimestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("bad timestamp: %w", err)
	}
	sent := time.Unix(ts, 0)
	if d := h.now().Sub(sent); d > svixTolerance || d < -svixTolerance {
		return fmt.Errorf("timestamp outside tolerance")
	}

	secret, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(h.clerkWebhookSecret, "whsec_"))
	if err != nil {
		return fmt.Errorf("bad webhook secret: %w", err)
	}

	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%s.%s.", svixID, svixTimestamp)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, sig := range strings.Fields(svixSignature) {
		version, value, ok := strings.Cut(sig, ",")
		if ok && version == "v1" && hmac.Equal([]byte(value), []byte(expected)) {
			return nil
		}
	}
	return fmt.Errorf("no matching signature")
}
