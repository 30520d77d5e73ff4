// Package notification delivers "progress updated" announcements to external
// channels. Delivery is best-effort; callers log and count failures.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// DefaultUserName is used when a user has no display name yet.
const DefaultUserName = "Adventurer"

// Event describes one recorded submission.
type Event struct {
	UserID      string
	UserName    string
	Date        civil.Date
	StreakCount int
}

type Notifier interface {
	Name() string
	Notify(ctx context.Context, e Event) error
}

// FormatMessage renders the announcement text shared by every channel.
func FormatMessage(e Event) string {
	name := e.UserName
	if name == "" {
		name = DefaultUserName
	}

	msg := fmt.Sprintf("**%s** has updated their dungeon progress on %s!", name, e.Date)
	if tag := streakTagline(e.StreakCount); tag != "" {
		msg += "\n" + tag
	}
	return msg
}

func streakTagline(n int) string {
	switch {
	case n >= 7:
		return "🔥 They're on fire with a 7+ day streak!"
	case n >= 3:
		return "✨ Their streak continues!"
	case n == 1:
		return "🚀 They've started a new streak!"
	}
	return ""
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Name() string { return "nop" }
func (NopNotifier) Notify(context.Context, Event) error { return nil }

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Name() string {
	names := make([]string, 0, len(m))
	for _, n := range m {
		names = append(names, n.Name())
	}
	return strings.Join(names, ",")
}

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
