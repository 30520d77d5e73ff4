package tracker

import (
	"cloud.google.com/go/civil"

	"dungeonStreakAPI/internal/types/submission"
)

const (
	HeatmapWeeks = 4
	DaysPerWeek  = 7
)

// Heatmap rows are weeks from the week start, columns run Monday to Sunday.
// A nil cell means no submission that day.
type Heatmap [HeatmapWeeks][DaysPerWeek]*int

// BuildHeatmap places each submission's streak count in the 4-week window that
// begins at weekStart. weekStart is taken verbatim as row 0; normalize it with
// MondayOf first.
func BuildHeatmap(subs []*submission.Submission, weekStart civil.Date) Heatmap {
	var h Heatmap
	for _, s := range subs {
		week, ok := weekIndex(s.Date, weekStart)
		if !ok {
			continue
		}
		count := s.StreakCount
		h[week][weekdayIndex(s.Date)] = &count
	}
	return h
}

// InWindow reports whether d falls inside the heatmap window starting at weekStart.
func InWindow(d, weekStart civil.Date) bool {
	_, ok := weekIndex(d, weekStart)
	return ok
}

func weekIndex(d, weekStart civil.Date) (int, bool) {
	diff := d.DaysSince(weekStart)
	if diff < 0 {
		return 0, false
	}
	week := diff / DaysPerWeek
	return week, week < HeatmapWeeks
}

// CompletedDays counts the days of a row that carry a non-zero streak value.
func (h Heatmap) CompletedDays(week int) int {
	if week < 0 || week >= HeatmapWeeks {
		return 0
	}
	n := 0
	for _, cell := range h[week] {
		if cell != nil && *cell != 0 {
			n++
		}
	}
	return n
}

// BossStatuses classifies every week row.
func (h Heatmap) BossStatuses() [HeatmapWeeks]BossStatus {
	var out [HeatmapWeeks]BossStatus
	for w := range out {
		out[w] = ClassifyBoss(h.CompletedDays(w))
	}
	return out
}
