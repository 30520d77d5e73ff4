// Package tracker holds the streak engine, the heatmap windower and the
// weekly boss classifier. Everything here is pure: callers fetch snapshots
// from the stores, call in, and persist what comes back.
package tracker

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
)

// MondayOf returns the Monday on or before d.
func MondayOf(d civil.Date) civil.Date {
	return d.AddDays(-weekdayIndex(d))
}

// weekdayIndex maps Monday to 0 and Sunday to 6.
func weekdayIndex(d civil.Date) int {
	return (int(d.In(time.UTC).Weekday()) + 6) % 7
}

func dateSet(dates []civil.Date) map[civil.Date]struct{} {
	set := make(map[civil.Date]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}

// sortedUnique returns the distinct dates in ascending order.
func sortedUnique(dates []civil.Date) []civil.Date {
	set := dateSet(dates)
	out := make([]civil.Date, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
