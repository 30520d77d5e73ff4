package services

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	log "github.com/sirupsen/logrus"

	"dungeonStreakAPI/internal/notification"
	"dungeonStreakAPI/internal/store"
	"dungeonStreakAPI/internal/types/submission"
)

// EventDispatcher queues events for background delivery.
type EventDispatcher interface {
	Dispatch(e notification.Event) bool
}

type NotificationService struct {
	users      store.UserStore
	notifier   notification.Notifier
	dispatcher EventDispatcher
}

func NewNotificationService(users store.UserStore, notifier notification.Notifier, dispatcher EventDispatcher) *NotificationService {
	if notifier == nil {
		notifier = notification.NopNotifier{}
	}
	return &NotificationService{
		users:      users,
		notifier:   notifier,
		dispatcher: dispatcher,
	}
}

// Publish hands e to the background dispatcher. Delivery is best-effort.
func (s *NotificationService) Publish(e notification.Event) {
	if s == nil || s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(e)
}

// SendProgressUpdate handles the explicit webhook call: it refreshes the user
// record and delivers synchronously, so the caller sees delivery failures.
func (s *NotificationService) SendProgressUpdate(ctx context.Context, p *submission.WebhookPayload) error {
	userID := strings.TrimSpace(p.UserID)
	if userID == "" {
		return invalidField("userId", "is required")
	}
	if strings.TrimSpace(p.SubmissionText) == "" {
		return invalidField("submissionText", "is required")
	}
	date, err := civil.ParseDate(p.Date)
	if err != nil {
		return invalidField("date", "must be YYYY-MM-DD")
	}
	if p.StreakCount < 0 {
		return invalidField("streakCount", "must be >= 0")
	}

	u, err := s.users.UpsertUser(ctx, userID, "")
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	e := notification.Event{
		UserID:      userID,
		UserName:    u.Name,
		Date:        date,
		StreakCount: p.StreakCount,
	}
	if err := s.notifier.Notify(ctx, e); err != nil {
		notificationFailuresTotal.WithLabelValues("delivery").Inc()
		log.WithError(err).WithField("user_id", userID).Error("Webhook notification failed")
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}
