package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	log "github.com/sirupsen/logrus"

	"dungeonStreakAPI/internal/notification"
	"dungeonStreakAPI/internal/store"
	"dungeonStreakAPI/internal/tracker"
	"dungeonStreakAPI/internal/types/streak"
	"dungeonStreakAPI/internal/types/submission"
)

const (
	DefaultUpdatesLimit = 30
	MaxUpdatesLimit     = 365
)

type SubmissionService struct {
	store          store.Store
	mode           tracker.Mode
	loc            *time.Location
	now            func() time.Time
	locks          *userLocks
	notifications  *NotificationService
	notifyOnUpdate bool
}

func NewSubmissionService(st store.Store, mode tracker.Mode, loc *time.Location) *SubmissionService {
	if loc == nil {
		loc = time.UTC
	}
	return &SubmissionService{
		store: st,
		mode:  mode,
		loc:   loc,
		now:   time.Now,
		locks: newUserLocks(),
	}
}

// SetNotifications wires progress announcements. Without it submissions are silent.
func (s *SubmissionService) SetNotifications(n *NotificationService, notifyOnUpdate bool) {
	s.notifications = n
	s.notifyOnUpdate = notifyOnUpdate
}

// Today is the current calendar date in the configured zone.
func (s *SubmissionService) Today() civil.Date {
	return civil.DateOf(s.now().In(s.loc))
}

// Submit records one day's progress note and advances the streak. A second
// submission for the same date only replaces the text.
func (s *SubmissionService) Submit(ctx context.Context, req *submission.SubmitRequest) (*submission.SubmitResponse, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, invalidField("userId", "is required")
	}
	date, err := civil.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return nil, invalidField("date", "must be YYYY-MM-DD")
	}
	if strings.TrimSpace(req.SubmissionText) == "" {
		return nil, invalidField("submissionText", "is required")
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	u, err := s.store.UpsertUser(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	existing, err := s.store.ListSubmissions(ctx, userID)
	if err != nil {
		return nil, err
	}

	prior, err := s.loadStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	update := tracker.ComputeStreakUpdate(existing, prior, date, s.mode)

	var next *streak.Streak
	if update.IsNewDay {
		next = &streak.Streak{
			ID:            prior.ID,
			UserID:        userID,
			CurrentStreak: update.NewCurrentStreak,
			LongestStreak: update.NewLongestStreak,
			LastUpdated:   prior.LastUpdated,
		}
		if date.After(prior.LastUpdated) {
			next.LastUpdated = date
		}
	}

	sub, created, err := s.store.RecordSubmission(ctx, userID, date, req.SubmissionText, update.StreakAtSubmission, next)
	if err != nil {
		return nil, err
	}

	if update.IsNewDay && update.NewCurrentStreak == 1 && prior.CurrentStreak > 0 {
		streakResetsTotal.Inc()
	}

	kind := "updated"
	if created {
		kind = "created"
	}
	submissionsTotal.WithLabelValues(kind).Inc()

	log.WithFields(log.Fields{
		"user_id":    userID,
		"date":       date,
		"new_day":    update.IsNewDay,
		"streak":     update.NewCurrentStreak,
		"longest":    update.NewLongestStreak,
		"streak_day": sub.StreakCount,
		"mode":       s.mode,
	}).Info("Submission recorded")

	if created || s.notifyOnUpdate {
		s.notifications.Publish(notification.Event{
			UserID:      userID,
			UserName:    u.Name,
			Date:        date,
			StreakCount: sub.StreakCount,
		})
	}

	return &submission.SubmitResponse{
		Success:     true,
		StreakCount: update.NewCurrentStreak,
		IsNewDay:    update.IsNewDay,
		Submission:  sub,
	}, nil
}

// GetStreaks returns the streak totals and the 4-week heatmap starting at the
// Monday of weekStart (or of the current week when weekStart is empty).
func (s *SubmissionService) GetStreaks(ctx context.Context, userID, weekStart string) (*streak.StreakResponse, error) {
	start, err := s.parseWeekStart(weekStart)
	if err != nil {
		return nil, err
	}
	if err := s.ensureKnownUser(ctx, userID); err != nil {
		return nil, err
	}

	st, err := s.loadStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	subs, err := s.store.ListSubmissions(ctx, userID)
	if err != nil {
		return nil, err
	}

	heatmap := tracker.BuildHeatmap(subs, start)
	resp := &streak.StreakResponse{
		UserID:        userID,
		CurrentStreak: st.CurrentStreak,
		LongestStreak: st.LongestStreak,
		Heatmap:       heatmap,
		WeekStart:     start,
	}
	for i, b := range heatmap.BossStatuses() {
		resp.Bosses[i] = string(b)
	}
	return resp, nil
}

// GetUpdates lists a user's submissions newest first. A non-empty weekStart
// restricts the list to that 4-week window.
func (s *SubmissionService) GetUpdates(ctx context.Context, userID string, limit int, weekStart string) ([]*submission.Submission, error) {
	switch {
	case limit < 0:
		return nil, invalidField("limit", "must be >= 0")
	case limit == 0:
		limit = DefaultUpdatesLimit
	case limit > MaxUpdatesLimit:
		limit = MaxUpdatesLimit
	}

	if err := s.ensureKnownUser(ctx, userID); err != nil {
		return nil, err
	}

	if weekStart == "" {
		subs, err := s.store.ListRecentSubmissions(ctx, userID, limit)
		if err != nil {
			return nil, err
		}
		return nonNil(subs), nil
	}

	start, err := s.parseWeekStart(weekStart)
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListSubmissions(ctx, userID)
	if err != nil {
		return nil, err
	}

	subs := make([]*submission.Submission, 0, len(all))
	for _, sub := range all {
		if tracker.InWindow(sub.Date, start) {
			subs = append(subs, sub)
		}
		if len(subs) == limit {
			break
		}
	}
	return subs, nil
}

func (s *SubmissionService) loadStreak(ctx context.Context, userID string) (*streak.Streak, error) {
	st, err := s.store.GetStreak(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return streak.Empty(userID), nil
	}
	return st, err
}

func (s *SubmissionService) ensureKnownUser(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return invalidField("userId", "is required")
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *SubmissionService) parseWeekStart(raw string) (civil.Date, error) {
	if raw == "" {
		return tracker.MondayOf(s.Today()), nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, invalidField("weekStart", "must be YYYY-MM-DD")
	}
	return tracker.MondayOf(d), nil
}

func nonNil(subs []*submission.Submission) []*submission.Submission {
	if subs == nil {
		return []*submission.Submission{}
	}
	return subs
}
