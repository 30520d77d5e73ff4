package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = civil.Date{Year: 2024, Month: time.March, Day: 4}

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name   string
		event  Event
		expect string
	}{
		{
			name:   "new streak",
			event:  Event{UserName: "Rin", Date: testDate, StreakCount: 1},
			expect: "**Rin** has updated their dungeon progress on 2024-03-04!\n🚀 They've started a new streak!",
		},
		{
			name:   "two days has no tagline",
			event:  Event{UserName: "Rin", Date: testDate, StreakCount: 2},
			expect: "**Rin** has updated their dungeon progress on 2024-03-04!",
		},
		{
			name:   "continuing",
			event:  Event{UserName: "Rin", Date: testDate, StreakCount: 5},
			expect: "**Rin** has updated their dungeon progress on 2024-03-04!\n✨ Their streak continues!",
		},
		{
			name:   "on fire",
			event:  Event{UserName: "Rin", Date: testDate, StreakCount: 7},
			expect: "**Rin** has updated their dungeon progress on 2024-03-04!\n🔥 They're on fire with a 7+ day streak!",
		},
		{
			name:   "default name",
			event:  Event{Date: testDate, StreakCount: 0},
			expect: "**Adventurer** has updated their dungeon progress on 2024-03-04!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, FormatMessage(tt.event))
		})
	}
}

type recordingNotifier struct {
	name   string
	err    error
	events []Event
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Notify(_ context.Context, e Event) error {
	r.events = append(r.events, e)
	return r.err
}

func TestMulti_NotifiesEveryoneAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &recordingNotifier{name: "ok"}
	bad := &recordingNotifier{name: "bad", err: boom}
	m := Multi{bad, ok}

	err := m.Notify(context.Background(), Event{UserID: "u1", Date: testDate})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "bad")
	assert.Len(t, ok.events, 1, "a failing notifier does not stop the others")
	assert.Equal(t, "bad,ok", m.Name())
}

func TestNopNotifier(t *testing.T) {
	assert.NoError(t, NopNotifier{}.Notify(context.Background(), Event{}))
}
