package services

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"dungeonStreakAPI/internal/tracker"
	"dungeonStreakAPI/internal/types/streak"
	"dungeonStreakAPI/internal/types/submission"
)

// ReconcileUser rebuilds a user's streak record from their full history and
// reports whether the stored record changed. Longest never decreases.
func (s *SubmissionService) ReconcileUser(ctx context.Context, userID string) (bool, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	subs, err := s.store.ListSubmissions(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(subs) == 0 {
		return false, nil
	}

	prior, err := s.loadStreak(ctx, userID)
	if err != nil {
		return false, err
	}

	totals := tracker.RecomputeFromHistory(submission.Dates(subs))
	next := &streak.Streak{
		ID:            prior.ID,
		UserID:        userID,
		CurrentStreak: totals.Current,
		LongestStreak: max(prior.LongestStreak, totals.Longest),
		LastUpdated:   totals.LastDate,
	}

	if next.CurrentStreak == prior.CurrentStreak &&
		next.LongestStreak == prior.LongestStreak &&
		next.LastUpdated == prior.LastUpdated {
		return false, nil
	}

	if err := s.store.PersistStreak(ctx, next); err != nil {
		return false, err
	}

	reconcileCorrectionsTotal.Inc()
	log.WithFields(log.Fields{
		"user_id":      userID,
		"old_current":  prior.CurrentStreak,
		"new_current":  next.CurrentStreak,
		"old_longest":  prior.LongestStreak,
		"new_longest":  next.LongestStreak,
		"last_updated": next.LastUpdated,
	}).Info("Streak reconciled")
	return true, nil
}

// ReconcileAll runs ReconcileUser for every known user. It keeps going past
// individual failures and returns them joined.
func (s *SubmissionService) ReconcileAll(ctx context.Context) (int, error) {
	ids, err := s.store.ListStreakUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	corrected := 0
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		changed, err := s.ReconcileUser(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("reconcile %s: %w", id, err))
			continue
		}
		if changed {
			corrected++
		}
	}
	return corrected, errors.Join(errs...)
}
