package habits

import (
	"math"
	"sort"
	"time"
)

const day = 24 * time.Hour

// Day truncates t to midnight UTC. All streak arithmetic happens on these values.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole days from earlier to later.
func daysBetween(later, earlier time.Time) int {
	return int(Day(later).Sub(Day(earlier)) / day)
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// weekdaysBetween counts Mon-Fri days strictly between earlier and later.
func weekdaysBetween(later, earlier time.Time) int {
	count := 0
	for d := Day(earlier).Add(day); d.Before(Day(later)); d = d.Add(day) {
		if !isWeekend(d) {
			count++
		}
	}
	return count
}

// adjacent reports whether two completions, later first, continue a streak under freq.
func adjacent(freq Frequency, later, earlier time.Time) bool {
	gap := daysBetween(later, earlier)
	switch freq {
	case FrequencyWeekdays:
		return !isWeekend(later) && !isWeekend(earlier) && weekdaysBetween(later, earlier) == 0
	case FrequencyWeekends:
		return isWeekend(later) && isWeekend(earlier) && gap/7 <= 1
	case FrequencyWeekly:
		return gap >= 6 && gap <= 8
	default:
		return gap == 1
	}
}

// normalizeDates returns the distinct calendar days of dates, most recent first.
func normalizeDates(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		d = Day(d)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}

// ComputeCurrentStreak returns the length of the run of consecutive completions
// ending at the most recent one. A most recent completion older than yesterday
// still counts as a streak of one.
func ComputeCurrentStreak(dates []time.Time, freq Frequency, today time.Time) int {
	days := normalizeDates(dates)
	if len(days) == 0 {
		return 0
	}
	if daysBetween(today, days[0]) > 1 {
		return 1
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if !adjacent(freq, days[i-1], days[i]) {
			break
		}
		streak++
	}
	return streak
}

// NextLongest ratchets the longest streak forward. It never decreases.
func NextLongest(current, previousLongest int) int {
	if current > previousLongest {
		return current
	}
	return previousLongest
}

// DaysTracked is the number of days since createdAt, rounded up, and at least one.
func DaysTracked(createdAt, now time.Time) int {
	days := int(math.Ceil(now.Sub(createdAt).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

// CompletionRate is completions per tracked day as a whole percent.
func CompletionRate(completions, daysTracked int) int {
	if daysTracked <= 0 {
		return 0
	}
	return int(math.Round(float64(completions) / float64(daysTracked) * 100))
}

// streakMilestones are the streak lengths that produce an analytics record.
var streakMilestones = map[int]bool{7: true, 30: true, 100: true, 365: true}
