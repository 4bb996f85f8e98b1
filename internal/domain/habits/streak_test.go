package habits

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func consecutiveDays(end time.Time, n int) []time.Time {
	dates := make([]time.Time, n)
	for i := 0; i < n; i++ {
		dates[i] = end.AddDate(0, 0, -i)
	}
	return dates
}

func TestComputeCurrentStreak(t *testing.T) {
	monday := date(2024, 1, 15)
	sunday := date(2024, 1, 14)

	tests := []struct {
		name  string
		dates []time.Time
		freq  Frequency
		today time.Time
		want  int
	}{
		{name: "no completions", dates: nil, freq: FrequencyDaily, today: monday, want: 0},
		{name: "daily run ending today", dates: consecutiveDays(monday, 5), freq: FrequencyDaily, today: monday, want: 5},
		{name: "daily run ending yesterday", dates: consecutiveDays(sunday, 3), freq: FrequencyDaily, today: monday, want: 3},
		{name: "single old completion still counts", dates: []time.Time{monday.AddDate(0, 0, -10)}, freq: FrequencyDaily, today: monday, want: 1},
		{name: "stale run collapses to one", dates: consecutiveDays(monday.AddDate(0, 0, -3), 4), freq: FrequencyDaily, today: monday, want: 1},
		{name: "daily gap stops the walk", dates: []time.Time{monday, sunday, date(2024, 1, 12)}, freq: FrequencyDaily, today: monday, want: 2},
		{name: "duplicates on the same day", dates: []time.Time{monday.Add(10 * time.Hour), monday.Add(20 * time.Hour), sunday}, freq: FrequencyDaily, today: monday, want: 2},
		{name: "unsorted input", dates: []time.Time{date(2024, 1, 13), monday, sunday}, freq: FrequencyDaily, today: monday, want: 3},
		{name: "weekdays monday after friday", dates: []time.Time{monday, date(2024, 1, 12)}, freq: FrequencyWeekdays, today: monday, want: 2},
		{name: "weekdays monday after thursday", dates: []time.Time{monday, date(2024, 1, 11)}, freq: FrequencyWeekdays, today: monday, want: 1},
		{name: "weekdays full week", dates: []time.Time{date(2024, 1, 19), date(2024, 1, 18), date(2024, 1, 17), date(2024, 1, 16), monday}, freq: FrequencyWeekdays, today: date(2024, 1, 19), want: 5},
		{name: "weekdays ignores weekend completion", dates: []time.Time{monday, sunday}, freq: FrequencyWeekdays, today: monday, want: 1},
		{name: "weekends consecutive weekends", dates: []time.Time{sunday, date(2024, 1, 13), date(2024, 1, 7), date(2024, 1, 6)}, freq: FrequencyWeekends, today: sunday, want: 4},
		{name: "weekends two weeks apart", dates: []time.Time{sunday, date(2023, 12, 31)}, freq: FrequencyWeekends, today: sunday, want: 1},
		{name: "weekends weekday breaks", dates: []time.Time{sunday, date(2024, 1, 12)}, freq: FrequencyWeekends, today: sunday, want: 1},
		{name: "weekly exact weeks", dates: []time.Time{monday, date(2024, 1, 8), date(2024, 1, 1)}, freq: FrequencyWeekly, today: monday, want: 3},
		{name: "weekly tolerant window", dates: []time.Time{monday, date(2024, 1, 7), date(2023, 12, 31)}, freq: FrequencyWeekly, today: monday, want: 3},
		{name: "weekly too far apart", dates: []time.Time{monday, date(2024, 1, 5)}, freq: FrequencyWeekly, today: monday, want: 1},
		{name: "unknown schedule falls back to daily", dates: consecutiveDays(monday, 3), freq: Frequency("monthly"), today: monday, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeCurrentStreak(tt.dates, tt.freq, tt.today))
		})
	}
}

func TestComputeCurrentStreakIgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)
	dates := []time.Time{
		time.Date(2024, 1, 15, 0, 1, 0, 0, time.UTC),
		time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 2, ComputeCurrentStreak(dates, FrequencyDaily, today))
}

func TestNextLongest(t *testing.T) {
	assert.Equal(t, 5, NextLongest(5, 3))
	assert.Equal(t, 7, NextLongest(2, 7))
	assert.Equal(t, 0, NextLongest(0, 0))
}

func TestWeekdaysBetween(t *testing.T) {
	assert.Equal(t, 0, weekdaysBetween(date(2024, 1, 15), date(2024, 1, 12)))
	assert.Equal(t, 1, weekdaysBetween(date(2024, 1, 15), date(2024, 1, 11)))
	assert.Equal(t, 4, weekdaysBetween(date(2024, 1, 19), date(2024, 1, 13)))
}

func TestCompletionRate(t *testing.T) {
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, DaysTracked(created, created))
	assert.Equal(t, 1, DaysTracked(created, created.Add(2*time.Hour)))
	assert.Equal(t, 2, DaysTracked(created, created.Add(25*time.Hour)))

	assert.Equal(t, 50, CompletionRate(5, 10))
	assert.Equal(t, 33, CompletionRate(1, 3))
	assert.Equal(t, 0, CompletionRate(3, 0))
}
