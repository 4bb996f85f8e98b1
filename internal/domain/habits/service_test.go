package habits

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/progression"
	"github.com/Solomon-TC/The-Habit-Hero/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRepository struct {
	habits      map[uuid.UUID]*Habit
	completions []Completion
	streaks     map[uuid.UUID]*Streak
	analytics   []HabitAnalytics

	upsertStreakErr error
	listDatesErr    error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		habits:  make(map[uuid.UUID]*Habit),
		streaks: make(map[uuid.UUID]*Streak),
	}
}

func (m *mockRepository) Create(ctx context.Context, habit *Habit, streak *Streak) error {
	copied := *habit
	m.habits[habit.ID] = &copied
	streak.HabitID = habit.ID
	s := *streak
	m.streaks[habit.ID] = &s
	return nil
}

func (m *mockRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*Habit, error) {
	h, ok := m.habits[id]
	if !ok || h.UserID != userID {
		return nil, ErrHabitNotFound
	}
	copied := *h
	return &copied, nil
}

func (m *mockRepository) FindByIDs(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]Habit, error) {
	var out []Habit
	for _, id := range ids {
		if h, ok := m.habits[id]; ok && h.UserID == userID {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (m *mockRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Habit, error) {
	var out []Habit
	for _, h := range m.habits {
		if h.UserID == userID {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (m *mockRepository) Update(ctx context.Context, habit *Habit) error {
	if _, ok := m.habits[habit.ID]; !ok {
		return ErrHabitNotFound
	}
	copied := *habit
	m.habits[habit.ID] = &copied
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	h, ok := m.habits[id]
	if !ok || h.UserID != userID {
		return ErrHabitNotFound
	}
	delete(m.habits, id)
	delete(m.streaks, id)
	kept := m.completions[:0]
	for _, c := range m.completions {
		if c.HabitID != id {
			kept = append(kept, c)
		}
	}
	m.completions = kept
	return nil
}

func (m *mockRepository) InsertCompletion(ctx context.Context, completion *Completion) error {
	for _, c := range m.completions {
		if c.HabitID == completion.HabitID && c.CompletedDate.Equal(completion.CompletedDate) {
			return ErrAlreadyCompleted
		}
	}
	m.completions = append(m.completions, *completion)
	return nil
}

func (m *mockRepository) ListCompletions(ctx context.Context, habitID uuid.UUID) ([]Completion, error) {
	var out []Completion
	for _, c := range m.completions {
		if c.HabitID == habitID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedDate.After(out[j].CompletedDate) })
	return out, nil
}

func (m *mockRepository) ListCompletionDates(ctx context.Context, habitID uuid.UUID) ([]time.Time, error) {
	if m.listDatesErr != nil {
		return nil, m.listDatesErr
	}
	var out []time.Time
	for _, c := range m.completions {
		if c.HabitID == habitID {
			out = append(out, c.CompletedDate)
		}
	}
	return out, nil
}

func (m *mockRepository) CountCompletions(ctx context.Context, habitIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	for _, id := range habitIDs {
		for _, c := range m.completions {
			if c.HabitID == id {
				counts[id]++
			}
		}
	}
	return counts, nil
}

func (m *mockRepository) CompletedOn(ctx context.Context, userID uuid.UUID, date time.Time) (map[uuid.UUID]bool, error) {
	done := make(map[uuid.UUID]bool)
	for _, c := range m.completions {
		if c.UserID == userID && c.CompletedDate.Equal(Day(date)) {
			done[c.HabitID] = true
		}
	}
	return done, nil
}

func (m *mockRepository) FindStreak(ctx context.Context, habitID uuid.UUID) (*Streak, error) {
	s, ok := m.streaks[habitID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (m *mockRepository) FindStreaks(ctx context.Context, habitIDs []uuid.UUID) (map[uuid.UUID]Streak, error) {
	out := make(map[uuid.UUID]Streak)
	for _, id := range habitIDs {
		if s, ok := m.streaks[id]; ok {
			out[id] = *s
		}
	}
	return out, nil
}

func (m *mockRepository) UpsertStreak(ctx context.Context, streak *Streak) error {
	if m.upsertStreakErr != nil {
		return m.upsertStreakErr
	}
	copied := *streak
	m.streaks[streak.HabitID] = &copied
	return nil
}

func (m *mockRepository) ListAll(ctx context.Context, offset, limit int) ([]Habit, error) {
	var all []Habit
	for _, h := range m.habits {
		all = append(all, *h)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *mockRepository) RecordHabitActivity(ctx context.Context, analytics *HabitAnalytics) error {
	m.analytics = append(m.analytics, *analytics)
	return nil
}

func (m *mockRepository) GetHabitAnalytics(ctx context.Context, filter AnalyticsFilter) ([]HabitAnalytics, int64, error) {
	var out []HabitAnalytics
	for _, a := range m.analytics {
		if filter.HabitID == nil || a.HabitID == *filter.HabitID {
			out = append(out, a)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockRepository) actions() []string {
	var out []string
	for _, a := range m.analytics {
		out = append(out, a.Action)
	}
	return out
}

// fakeLedger applies awards with the real level curve and keeps them in memory.
type fakeLedger struct {
	level, xp int
	awards    []progression.AwardInput
	err       error
}

func (f *fakeLedger) AwardXP(ctx context.Context, input progression.AwardInput) (*progression.AwardResult, error) {
	f.awards = append(f.awards, input)
	if f.err != nil {
		return nil, f.err
	}
	if f.level == 0 {
		f.level = 1
	}
	var up bool
	f.level, f.xp, up = progression.ApplyXP(f.level, f.xp, input.Amount)
	return &progression.AwardResult{Amount: input.Amount, NewLevel: f.level, LeveledUp: up, CurrentXP: f.xp}, nil
}

var testNow = time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

func newTestService(repo *mockRepository, ledger *fakeLedger) *service {
	svc := newService(repo, ledger, nil, config.DefaultGamification().Habit, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedHabit(t *testing.T, svc *service, userID uuid.UUID, freq Frequency, xp int) *Habit {
	t.Helper()
	habit, err := svc.CreateHabit(context.Background(), CreateHabitInput{
		UserID:    userID,
		Name:      "Read",
		Frequency: freq,
		XPValue:   &xp,
	})
	require.NoError(t, err)
	return habit
}

func TestCreateHabitValidation(t *testing.T) {
	svc := newTestService(newMockRepository(), &fakeLedger{})
	userID := uuid.New()
	tooMuch := 101
	badTime := "25:99"

	tests := []struct {
		name  string
		input CreateHabitInput
	}{
		{name: "missing name", input: CreateHabitInput{UserID: userID, Name: "  ", Frequency: FrequencyDaily}},
		{name: "missing frequency", input: CreateHabitInput{UserID: userID, Name: "Run"}},
		{name: "unknown frequency", input: CreateHabitInput{UserID: userID, Name: "Run", Frequency: "hourly"}},
		{name: "xp out of range", input: CreateHabitInput{UserID: userID, Name: "Run", Frequency: FrequencyDaily, XPValue: &tooMuch}},
		{name: "bad reminder", input: CreateHabitInput{UserID: userID, Name: "Run", Frequency: FrequencyDaily, ReminderTime: &badTime}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateHabit(context.Background(), tt.input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateHabitDefaults(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &fakeLedger{})
	userID := uuid.New()

	habit, err := svc.CreateHabit(context.Background(), CreateHabitInput{UserID: userID, Name: "Stretch", Frequency: FrequencyWeekdays})
	require.NoError(t, err)

	assert.Equal(t, 10, habit.XPValue)
	require.Contains(t, repo.streaks, habit.ID)
	assert.Equal(t, 0, repo.streaks[habit.ID].CurrentStreak)
	assert.Equal(t, []string{ActionHabitCreated}, repo.actions())
}

func TestCheckIn(t *testing.T) {
	repo := newMockRepository()
	ledger := &fakeLedger{}
	svc := newTestService(repo, ledger)
	userID := uuid.New()
	habit := seedHabit(t, svc, userID, FrequencyDaily, 10)

	yesterday := testNow.AddDate(0, 0, -1)
	_, err := svc.CheckIn(context.Background(), CheckInInput{HabitID: habit.ID, UserID: userID, Date: &yesterday})
	require.NoError(t, err)

	result, err := svc.CheckIn(context.Background(), CheckInInput{HabitID: habit.ID, UserID: userID, Notes: "done"})
	require.NoError(t, err)

	assert.Equal(t, Day(testNow), result.Completion.CompletedDate)
	assert.Equal(t, "done", result.Completion.Notes)
	assert.Equal(t, 10, result.XPEarned)
	assert.Equal(t, 2, result.Streak.CurrentStreak)
	assert.Equal(t, 2, result.Streak.LongestStreak)
	assert.False(t, result.LeveledUp)
	assert.Equal(t, 1, result.NewLevel)

	stored := repo.streaks[habit.ID]
	assert.Equal(t, 2, stored.CurrentStreak)
	require.NotNil(t, stored.LastCompletedDate)
	assert.Equal(t, Day(testNow), *stored.LastCompletedDate)

	require.Len(t, ledger.awards, 2)
	assert.Equal(t, progression.SourceHabit, ledger.awards[1].SourceType)
	assert.Equal(t, habit.ID, ledger.awards[1].SourceID)
}

func TestCheckInDuplicate(t *testing.T) {
	repo := newMockRepository()
	ledger := &fakeLedger{}
	svc := newTestService(repo, ledger)
	userID := uuid.New()
	habit := seedHabit(t, svc, userID, FrequencyDaily, 10)

	_, err := svc.CheckIn(context.Background(), CheckInInput{HabitID: habit.ID, UserID: userID})
	require.NoError(t, err)
	before := *repo.streaks[habit.ID]

	_, err = svc.CheckIn(context.Background(), CheckInInput{HabitID: habit.ID, UserID: userID})
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	assert.Equal(t, before, *repo.streaks[habit.ID])
	assert.Len(t, ledger.awards, 1)
	assert.Len(t, repo.completions, 1)
}

func TestCheckInNotOwned(t *testing.T) {
	repo := newMockRepository()
	ledger := &fakeLedger{}
	svc := newTestService(repo, ledger)
	habit := seedHabit(t, svc, uuid.New(), FrequencyDaily, 10)

	_, err := svc.CheckIn(context.Background(), CheckInInput{HabitID: habit.ID, UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrHabitNotFound)

	_, err = svc.CheckIn(context.Background(), CheckInInput{HabitID: uuid.New(), UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrHabitNotFound)

	assert.Empty(t, repo.completions)
	assert.Empty(t, ledger.awards)
}

func TestCheckInRejectsFutureDate(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &fakeLedger{})
	userID := uuid.New()
	habit := seedHabit(t, svc, userID, FrequencyDaily, 10)

	future := testNow.AddDate(0, 0, 3)
	_, err := svc.CheckIn(context.Background(), CheckInInput{HabitID: habit.ID, UserID: userID, Date: &future})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, repo.completions)
}

func TestCheckInLevelUp(t *testing.T) {
	repo := newMockRepository()
	ledger := &fakeLedger{level: 1, xp: 95}
	svc := newTestService(repo, ledger)
	userID := uuid.New()
	habit := seedHabit(t, svc, userID, FrequencyDaily, 10)

	result, err := svc.CheckIn(context.Background(), CheckInInput{HabitID: habit.ID, UserID: userID})
	require.NoError(t, err)
	assert.True(t, result.LeveledUp)
	assert.Equal(t, 2, result.NewLevel)
}

func TestCheckInStreakFailureSurfacesWithoutAward(t *testing.T) {
	repo := newMockRepository()
	ledger := &fakeLedger{}
	svc := newTestService(repo, ledger)
	userID := uuid.New()
	habit := seedHabit(t, svc, userID, FrequencyDaily, 10)
	repo.upsertStreakErr = errors.New("timeout")

	_, err := svc.CheckIn(context.Background(), CheckInInput{HabitID: habit.ID, UserID: userID})
	assert.ErrorIs(t, err, progression.ErrPersistence)

	assert.Len(t, repo.completions, 1, "the completion stays recorded")
	assert.Empty(t, ledger.awards)

	repo.upsertStreakErr = nil
	_, err = svc.CheckIn(context.Background(), CheckInInput{HabitID: habit.ID, UserID: userID})
	assert.ErrorIs(t, err, ErrAlreadyCompleted, "retrying the same day is rejected")

	report, err := svc.ReconcileStreaks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, repo.streaks[habit.ID].CurrentStreak)
}

func TestCheckInAwardFailureSurfaces(t *testing.T) {
	repo := newMockRepository()
	ledger := &fakeLedger{err: progression.PersistenceError("upsert user level", errors.New("boom"))}
	svc := newTestService(repo, ledger)
	userID := uuid.New()
	habit := seedHabit(t, svc, userID, FrequencyDaily, 10)

	_, err := svc.CheckIn(context.Background(), CheckInInput{HabitID: habit.ID, UserID: userID})
	assert.ErrorIs(t, err, progression.ErrPersistence)
	assert.Equal(t, 1, repo.streaks[habit.ID].CurrentStreak)
}

func TestLongestStreakNeverDecreases(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &fakeLedger{})
	userID := uuid.New()
	habit := seedHabit(t, svc, userID, FrequencyDaily, 10)
	repo.streaks[habit.ID].LongestStreak = 12

	result, err := svc.CheckIn(context.Background(), CheckInInput{HabitID: habit.ID, UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Streak.CurrentStreak)
	assert.Equal(t, 12, result.Streak.LongestStreak)
}

func TestCheckInRecordsStreakMilestone(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &fakeLedger{})
	userID := uuid.New()
	habit := seedHabit(t, svc, userID, FrequencyDaily, 10)

	for i := 6; i >= 0; i-- {
		d := testNow.AddDate(0, 0, -i)
		_, err := svc.CheckIn(context.Background(), CheckInInput{HabitID: habit.ID, UserID: userID, Date: &d})
		require.NoError(t, err)
	}

	assert.Equal(t, 7, repo.streaks[habit.ID].CurrentStreak)
	assert.Contains(t, repo.actions(), ActionStreakMilestone)
}

func TestListHabitsSummaries(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &fakeLedger{})
	userID := uuid.New()
	done := seedHabit(t, svc, userID, FrequencyDaily, 10)
	pending := seedHabit(t, svc, userID, FrequencyDaily, 10)
	seedHabit(t, svc, uuid.New(), FrequencyDaily, 10)

	repo.habits[done.ID].CreatedAt = testNow.AddDate(0, 0, -3)
	repo.habits[pending.ID].CreatedAt = testNow.AddDate(0, 0, -3)

	_, err := svc.CheckIn(context.Background(), CheckInInput{HabitID: done.ID, UserID: userID})
	require.NoError(t, err)

	summaries, err := svc.ListHabits(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byID := map[uuid.UUID]HabitSummary{}
	for _, s := range summaries {
		byID[s.ID] = s
	}
	assert.True(t, byID[done.ID].IsCompletedToday)
	assert.Equal(t, 1, byID[done.ID].CurrentStreak)
	assert.Equal(t, 33, byID[done.ID].CompletionRate)
	assert.False(t, byID[pending.ID].IsCompletedToday)
	assert.Equal(t, 0, byID[pending.ID].CompletionRate)
}

func TestUpdateAndDeleteHabit(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &fakeLedger{})
	userID := uuid.New()
	habit := seedHabit(t, svc, userID, FrequencyDaily, 10)

	weekly := FrequencyWeekly
	xp := 40
	updated, err := svc.UpdateHabit(context.Background(), habit.ID, userID, UpdateHabitInput{Frequency: &weekly, XPValue: &xp})
	require.NoError(t, err)
	assert.Equal(t, FrequencyWeekly, updated.Frequency)
	assert.Equal(t, 40, updated.XPValue)
	assert.Equal(t, "Read", updated.Name)

	bad := 0
	_, err = svc.UpdateHabit(context.Background(), habit.ID, userID, UpdateHabitInput{XPValue: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateHabit(context.Background(), habit.ID, uuid.New(), UpdateHabitInput{XPValue: &xp})
	assert.ErrorIs(t, err, ErrHabitNotFound)

	_, err = svc.CheckIn(context.Background(), CheckInInput{HabitID: habit.ID, UserID: userID})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteHabit(context.Background(), habit.ID, userID))
	assert.Empty(t, repo.completions)
	assert.NotContains(t, repo.streaks, habit.ID)
	assert.ErrorIs(t, svc.DeleteHabit(context.Background(), habit.ID, userID), ErrHabitNotFound)
}

func TestGetHabitStats(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &fakeLedger{})
	userID := uuid.New()
	habit := seedHabit(t, svc, userID, FrequencyDaily, 10)
	repo.habits[habit.ID].CreatedAt = testNow.AddDate(0, 0, -4)

	for i := 1; i >= 0; i-- {
		d := testNow.AddDate(0, 0, -i)
		_, err := svc.CheckIn(context.Background(), CheckInInput{HabitID: habit.ID, UserID: userID, Date: &d})
		require.NoError(t, err)
	}

	stats, err := svc.GetHabitStats(context.Background(), habit.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalCompletions)
	assert.Equal(t, 4, stats.DaysTracked)
	assert.Equal(t, 50, stats.CompletionRate)
	assert.Equal(t, 2, stats.CurrentStreak)

	completions, err := svc.ListCompletions(context.Background(), habit.ID, userID)
	require.NoError(t, err)
	require.Len(t, completions, 2)
	assert.True(t, completions[0].CompletedDate.After(completions[1].CompletedDate))
}

func TestReconcileStreaksCollapsesStaleRuns(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &fakeLedger{})
	userID := uuid.New()
	habit := seedHabit(t, svc, userID, FrequencyDaily, 10)

	for i := 2; i >= 0; i-- {
		d := testNow.AddDate(0, 0, -i)
		_, err := svc.CheckIn(context.Background(), CheckInInput{HabitID: habit.ID, UserID: userID, Date: &d})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, repo.streaks[habit.ID].CurrentStreak)

	svc.now = func() time.Time { return testNow.AddDate(0, 0, 5) }
	report, err := svc.ReconcileStreaks(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, repo.streaks[habit.ID].CurrentStreak)
	assert.Equal(t, 3, repo.streaks[habit.ID].LongestStreak)

	report, err = svc.ReconcileStreaks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Updated)
}
