package tracker

import (
	"fmt"

	"cloud.google.com/go/civil"

	"dungeonStreakAPI/internal/types/streak"
	"dungeonStreakAPI/internal/types/submission"
)

// Mode selects how a new day's streak is derived.
type Mode string

const (
	// ModeRecompute rebuilds runs from the full submission history.
	ModeRecompute Mode = "recompute"
	// ModeLookback increments the stored streak unless the 7-day lookback finds a gap.
	ModeLookback Mode = "lookback"
)

// LookbackDays is the window scanned backwards from yesterday in ModeLookback.
const LookbackDays = 7

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRecompute, ModeLookback:
		return Mode(s), nil
	case "":
		return ModeRecompute, nil
	}
	return "", fmt.Errorf("unknown streak mode %q", s)
}

// Update is the outcome of evaluating one incoming submission.
type Update struct {
	IsNewDay         bool
	NewCurrentStreak int
	NewLongestStreak int
	// LongestChanged lets callers skip rewriting the longest value.
	LongestChanged bool
	// StreakAtSubmission is the value stored on the submission record.
	StreakAtSubmission int
}

// Totals is a streak state derived purely from a set of dates.
type Totals struct {
	Current  int
	Longest  int
	LastDate civil.Date
}

// ComputeStreakUpdate decides how a submission dated date affects the streak.
// A nil prior is treated as a fresh {0, 0} record.
func ComputeStreakUpdate(existing []*submission.Submission, prior *streak.Streak, date civil.Date, mode Mode) Update {
	if prior == nil {
		prior = streak.Empty("")
	}

	for _, s := range existing {
		if s.Date == date {
			return Update{
				IsNewDay:           false,
				NewCurrentStreak:   prior.CurrentStreak,
				NewLongestStreak:   prior.LongestStreak,
				StreakAtSubmission: s.StreakCount,
			}
		}
	}

	dates := append(submission.Dates(existing), date)

	var current, atSubmission, longest int
	switch mode {
	case ModeLookback:
		current = lookbackStreak(dateSet(dates), prior.CurrentStreak, date)
		atSubmission = current
		longest = max(prior.LongestStreak, current)
	default:
		totals := RecomputeFromHistory(dates)
		current = totals.Current
		atSubmission = RunLengthEndingAt(dates, date)
		longest = max(prior.LongestStreak, totals.Longest)
	}

	return Update{
		IsNewDay:           true,
		NewCurrentStreak:   current,
		NewLongestStreak:   longest,
		LongestChanged:     longest != prior.LongestStreak,
		StreakAtSubmission: atSubmission,
	}
}

// lookbackStreak continues the prior streak when yesterday has a submission.
// Otherwise it scans LookbackDays back from yesterday; yesterday itself is not
// counted as a gap, any later missing day resets to 1.
func lookbackStreak(days map[civil.Date]struct{}, priorCurrent int, date civil.Date) int {
	yesterday := date.AddDays(-1)
	if _, ok := days[yesterday]; ok {
		return priorCurrent + 1
	}
	for i := 1; i < LookbackDays; i++ {
		if _, ok := days[yesterday.AddDays(-i)]; !ok {
			return 1
		}
	}
	return priorCurrent + 1
}

// RecomputeFromHistory walks the sorted distinct dates once and returns the run
// ending on the latest date and the longest run overall.
func RecomputeFromHistory(dates []civil.Date) Totals {
	sorted := sortedUnique(dates)
	if len(sorted) == 0 {
		return Totals{}
	}

	run, longest := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i].DaysSince(sorted[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}

	return Totals{
		Current:  run,
		Longest:  longest,
		LastDate: sorted[len(sorted)-1],
	}
}

// RunLengthEndingAt counts consecutive days in dates ending on d. It is 0 when d is absent.
func RunLengthEndingAt(dates []civil.Date, d civil.Date) int {
	set := dateSet(dates)
	n := 0
	for {
		if _, ok := set[d.AddDays(-n)]; !ok {
			return n
		}
		n++
	}
}
