package habits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/events"
	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/progression"
	"github.com/Solomon-TC/The-Habit-Hero/pkg/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const reconcilePageSize = 200

// XPAwarder is the part of the progression service the habit flows need.
type XPAwarder interface {
	AwardXP(ctx context.Context, input progression.AwardInput) (*progression.AwardResult, error)
}

type Service interface {
	CreateHabit(ctx context.Context, input CreateHabitInput) (*Habit, error)
	GetHabit(ctx context.Context, id, userID uuid.UUID) (*Habit, error)
	ListHabits(ctx context.Context, userID uuid.UUID) ([]HabitSummary, error)
	UpdateHabit(ctx context.Context, id, userID uuid.UUID, input UpdateHabitInput) (*Habit, error)
	DeleteHabit(ctx context.Context, id, userID uuid.UUID) error

	CheckIn(ctx context.Context, input CheckInInput) (*CheckInResult, error)
	ListCompletions(ctx context.Context, habitID, userID uuid.UUID) ([]Completion, error)
	GetHabitStats(ctx context.Context, habitID, userID uuid.UUID) (*HabitStats, error)
	ListActivity(ctx context.Context, habitID, userID uuid.UUID, page, pageSize int) ([]HabitAnalytics, int64, error)

	// FindOwned returns the subset of ids owned by userID, for linking habits to goals.
	FindOwned(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]Habit, error)
	ReconcileStreaks(ctx context.Context) (*ReconcileReport, error)
}

type service struct {
	repo      Repository
	xp        XPAwarder
	publisher events.Publisher
	xpRange   config.XPRange
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, xp XPAwarder, publisher events.Publisher, xpRange config.XPRange, logger *zap.Logger) Service {
	return newService(repo, xp, publisher, xpRange, logger)
}

func newService(repo Repository, xp XPAwarder, publisher events.Publisher, xpRange config.XPRange, logger *zap.Logger) *service {
	return &service{
		repo:      repo,
		xp:        xp,
		publisher: publisher,
		xpRange:   xpRange,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *service) today() time.Time {
	return Day(s.now())
}

func validateReminderTime(value *string) error {
	if value == nil || *value == "" {
		return nil
	}
	if _, err := time.Parse("15:04", *value); err != nil {
		return fmt.Errorf("%w: reminder_time must be HH:MM", ErrInvalidInput)
	}
	return nil
}

func (s *service) validateXP(xp int) error {
	if !s.xpRange.Contains(xp) {
		return fmt.Errorf("%w: xp_value must be between %d and %d", ErrInvalidInput, s.xpRange.Min, s.xpRange.Max)
	}
	return nil
}

func (s *service) CreateHabit(ctx context.Context, input CreateHabitInput) (*Habit, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.Frequency == "" {
		return nil, fmt.Errorf("%w: frequency is required", ErrInvalidInput)
	}
	if !input.Frequency.Valid() {
		return nil, fmt.Errorf("%w: unknown frequency %q", ErrInvalidInput, input.Frequency)
	}
	if err := validateReminderTime(input.ReminderTime); err != nil {
		return nil, err
	}

	xp := s.xpRange.Default
	if input.XPValue != nil {
		xp = *input.XPValue
	}
	if err := s.validateXP(xp); err != nil {
		return nil, err
	}

	habit := &Habit{
		ID:              uuid.New(),
		UserID:          input.UserID,
		Name:            name,
		Description:     input.Description,
		Frequency:       input.Frequency,
		ReminderTime:    input.ReminderTime,
		ReminderEnabled: input.ReminderEnabled,
		XPValue:         xp,
	}
	streak := &Streak{ID: uuid.New(), UserID: input.UserID}

	if err := s.repo.Create(ctx, habit, streak); err != nil {
		return nil, progression.PersistenceError("create habit", err)
	}

	s.recordActivity(ctx, habit, ActionHabitCreated, map[string]interface{}{
		"name":      habit.Name,
		"frequency": habit.Frequency,
	})
	s.publishDashboardEvent(ctx, habit.UserID, habit.ID, map[string]interface{}{
		"action":   "habit_created",
		"habit_id": habit.ID,
	})

	return habit, nil
}

func (s *service) GetHabit(ctx context.Context, id, userID uuid.UUID) (*Habit, error) {
	habit, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, ErrHabitNotFound) {
			return nil, err
		}
		return nil, progression.PersistenceError("load habit", err)
	}
	return habit, nil
}

func (s *service) ListHabits(ctx context.Context, userID uuid.UUID) ([]HabitSummary, error) {
	habits, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, progression.PersistenceError("list habits", err)
	}

	ids := make([]uuid.UUID, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
	}

	streaks, err := s.repo.FindStreaks(ctx, ids)
	if err != nil {
		return nil, progression.PersistenceError("load streaks", err)
	}
	counts, err := s.repo.CountCompletions(ctx, ids)
	if err != nil {
		return nil, progression.PersistenceError("count completions", err)
	}
	doneToday, err := s.repo.CompletedOn(ctx, userID, s.today())
	if err != nil {
		return nil, progression.PersistenceError("load today's completions", err)
	}

	now := s.now()
	summaries := make([]HabitSummary, 0, len(habits))
	for _, h := range habits {
		streak := streaks[h.ID]
		summaries = append(summaries, HabitSummary{
			Habit:            h,
			IsCompletedToday: doneToday[h.ID],
			CurrentStreak:    streak.CurrentStreak,
			LongestStreak:    streak.LongestStreak,
			LastCompleted:    streak.LastCompletedDate,
			CompletionRate:   CompletionRate(counts[h.ID], DaysTracked(h.CreatedAt, now)),
		})
	}
	return summaries, nil
}

func (s *service) UpdateHabit(ctx context.Context, id, userID uuid.UUID, input UpdateHabitInput) (*Habit, error) {
	habit, err := s.GetHabit(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		habit.Name = name
	}
	if input.Description != nil {
		habit.Description = *input.Description
	}
	if input.Frequency != nil {
		if !input.Frequency.Valid() {
			return nil, fmt.Errorf("%w: unknown frequency %q", ErrInvalidInput, *input.Frequency)
		}
		habit.Frequency = *input.Frequency
	}
	if input.ReminderTime != nil {
		if err := validateReminderTime(input.ReminderTime); err != nil {
			return nil, err
		}
		habit.ReminderTime = input.ReminderTime
		if *input.ReminderTime == "" {
			habit.ReminderTime = nil
		}
	}
	if input.ReminderEnabled != nil {
		habit.ReminderEnabled = *input.ReminderEnabled
	}
	if input.XPValue != nil {
		if err := s.validateXP(*input.XPValue); err != nil {
			return nil, err
		}
		habit.XPValue = *input.XPValue
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		if errors.Is(err, ErrHabitNotFound) {
			return nil, err
		}
		return nil, progression.PersistenceError("update habit", err)
	}

	s.recordActivity(ctx, habit, ActionHabitUpdated, nil)
	s.publishDashboardEvent(ctx, userID, habit.ID, map[string]interface{}{
		"action":   "habit_updated",
		"habit_id": habit.ID,
	})

	return habit, nil
}

func (s *service) DeleteHabit(ctx context.Context, id, userID uuid.UUID) error {
	habit, err := s.GetHabit(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, ErrHabitNotFound) {
			return err
		}
		return progression.PersistenceError("delete habit", err)
	}

	s.recordActivity(ctx, habit, ActionHabitDeleted, map[string]interface{}{"name": habit.Name})
	s.publishDashboardEvent(ctx, userID, id, map[string]interface{}{
		"action":   "habit_deleted",
		"habit_id": id,
	})
	return nil
}

// CheckIn records a completion and runs its consequences in order: streak
// recomputation, then the XP award. A failure part way through is returned
// as is; steps already done stay done. Retrying is safe because a second
// completion for the same day is rejected.
func (s *service) CheckIn(ctx context.Context, input CheckInInput) (*CheckInResult, error) {
	habit, err := s.GetHabit(ctx, input.HabitID, input.UserID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	date := today
	if input.Date != nil {
		date = Day(*input.Date)
	}
	// One day of slack for clients ahead of UTC.
	if date.After(today.Add(day)) {
		return nil, fmt.Errorf("%w: completion date is in the future", ErrInvalidInput)
	}

	completion := &Completion{
		ID:            uuid.New(),
		HabitID:       habit.ID,
		UserID:        input.UserID,
		CompletedDate: date,
		Notes:         input.Notes,
	}
	if err := s.repo.InsertCompletion(ctx, completion); err != nil {
		if errors.Is(err, ErrAlreadyCompleted) {
			checkIns.WithLabelValues(checkInDuplicate).Inc()
			return nil, err
		}
		checkIns.WithLabelValues(checkInFailed).Inc()
		return nil, progression.PersistenceError("insert completion", err)
	}

	streak, previous, err := s.recomputeStreak(ctx, habit)
	if err != nil {
		checkIns.WithLabelValues(checkInFailed).Inc()
		s.logger.Error("Completion recorded but streak not updated",
			zap.String("habit_id", habit.ID.String()),
			zap.Error(err))
		return nil, err
	}

	award, err := s.xp.AwardXP(ctx, progression.AwardInput{
		UserID:      input.UserID,
		Amount:      habit.XPValue,
		SourceType:  progression.SourceHabit,
		SourceID:    habit.ID,
		Description: "Completed habit: " + habit.Name,
	})
	if err != nil {
		checkIns.WithLabelValues(checkInFailed).Inc()
		s.logger.Error("Completion recorded but XP not awarded",
			zap.String("habit_id", habit.ID.String()),
			zap.String("user_id", input.UserID.String()),
			zap.Error(err))
		return nil, err
	}
	checkIns.WithLabelValues(checkInOK).Inc()

	s.recordActivity(ctx, habit, ActionHabitCompleted, map[string]interface{}{
		"completed_date": date.Format("2006-01-02"),
		"current_streak": streak.CurrentStreak,
		"xp_earned":      award.Amount,
	})
	if streakMilestones[streak.CurrentStreak] && streak.CurrentStreak != previous {
		s.recordActivity(ctx, habit, ActionStreakMilestone, map[string]interface{}{
			"streak_days": streak.CurrentStreak,
			"milestone":   fmt.Sprintf("%d-day streak", streak.CurrentStreak),
		})
	}
	s.publishDashboardEvent(ctx, input.UserID, habit.ID, map[string]interface{}{
		"action":         "habit_completed",
		"habit_id":       habit.ID,
		"completed_date": date.Format("2006-01-02"),
		"current_streak": streak.CurrentStreak,
	})

	return &CheckInResult{
		Completion: *completion,
		Streak:     *streak,
		XPEarned:   award.Amount,
		LeveledUp:  award.LeveledUp,
		NewLevel:   award.NewLevel,
	}, nil
}

// recomputeStreak rebuilds the streak projection from the full completion
// history and stores it. It also returns the current streak it replaced.
func (s *service) recomputeStreak(ctx context.Context, habit *Habit) (*Streak, int, error) {
	dates, err := s.repo.ListCompletionDates(ctx, habit.ID)
	if err != nil {
		return nil, 0, progression.PersistenceError("list completion dates", err)
	}
	prev, err := s.repo.FindStreak(ctx, habit.ID)
	if err != nil {
		return nil, 0, progression.PersistenceError("load streak", err)
	}
	if prev == nil {
		prev = &Streak{HabitID: habit.ID, UserID: habit.UserID}
	}

	current := ComputeCurrentStreak(dates, habit.Frequency, s.now())
	streak := &Streak{
		ID:            prev.ID,
		HabitID:       habit.ID,
		UserID:        habit.UserID,
		CurrentStreak: current,
		LongestStreak: NextLongest(current, prev.LongestStreak),
	}
	if days := normalizeDates(dates); len(days) > 0 {
		last := days[0]
		streak.LastCompletedDate = &last
	}

	if err := s.repo.UpsertStreak(ctx, streak); err != nil {
		return nil, 0, progression.PersistenceError("upsert streak", err)
	}
	return streak, prev.CurrentStreak, nil
}

func (s *service) ListCompletions(ctx context.Context, habitID, userID uuid.UUID) ([]Completion, error) {
	if _, err := s.GetHabit(ctx, habitID, userID); err != nil {
		return nil, err
	}
	completions, err := s.repo.ListCompletions(ctx, habitID)
	if err != nil {
		return nil, progression.PersistenceError("list completions", err)
	}
	return completions, nil
}

func (s *service) GetHabitStats(ctx context.Context, habitID, userID uuid.UUID) (*HabitStats, error) {
	habit, err := s.GetHabit(ctx, habitID, userID)
	if err != nil {
		return nil, err
	}

	streak, err := s.repo.FindStreak(ctx, habitID)
	if err != nil {
		return nil, progression.PersistenceError("load streak", err)
	}
	if streak == nil {
		streak = &Streak{HabitID: habitID}
	}
	counts, err := s.repo.CountCompletions(ctx, []uuid.UUID{habitID})
	if err != nil {
		return nil, progression.PersistenceError("count completions", err)
	}

	tracked := DaysTracked(habit.CreatedAt, s.now())
	return &HabitStats{
		HabitID:          habitID,
		CurrentStreak:    streak.CurrentStreak,
		LongestStreak:    streak.LongestStreak,
		TotalCompletions: counts[habitID],
		CompletionRate:   CompletionRate(counts[habitID], tracked),
		DaysTracked:      tracked,
		LastCompleted:    streak.LastCompletedDate,
	}, nil
}

func (s *service) ListActivity(ctx context.Context, habitID, userID uuid.UUID, page, pageSize int) ([]HabitAnalytics, int64, error) {
	if _, err := s.GetHabit(ctx, habitID, userID); err != nil {
		return nil, 0, err
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	if page < 0 {
		page = 0
	}
	records, total, err := s.repo.GetHabitAnalytics(ctx, AnalyticsFilter{
		HabitID:  &habitID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, 0, progression.PersistenceError("list habit activity", err)
	}
	return records, total, nil
}

func (s *service) FindOwned(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]Habit, error) {
	habits, err := s.repo.FindByIDs(ctx, ids, userID)
	if err != nil {
		return nil, progression.PersistenceError("load habits", err)
	}
	return habits, nil
}

// ReconcileStreaks recomputes every habit's streak from its completion
// history. It repairs projections left stale by a failed check-in and
// collapses streaks whose last completion has aged out.
func (s *service) ReconcileStreaks(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{}

	for offset := 0; ; offset += reconcilePageSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		page, err := s.repo.ListAll(ctx, offset, reconcilePageSize)
		if err != nil {
			return report, progression.PersistenceError("list habits", err)
		}

		for i := range page {
			report.Scanned++
			changed, err := s.reconcileOne(ctx, &page[i])
			if err != nil {
				report.Failed++
				s.logger.Warn("Failed to reconcile streak",
					zap.String("habit_id", page[i].ID.String()),
					zap.Error(err))
				continue
			}
			if changed {
				report.Updated++
			}
		}

		if len(page) < reconcilePageSize {
			break
		}
	}

	s.logger.Info("Streak reconciliation finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (s *service) reconcileOne(ctx context.Context, habit *Habit) (bool, error) {
	dates, err := s.repo.ListCompletionDates(ctx, habit.ID)
	if err != nil {
		return false, err
	}
	prev, err := s.repo.FindStreak(ctx, habit.ID)
	if err != nil {
		return false, err
	}

	current := ComputeCurrentStreak(dates, habit.Frequency, s.now())
	if prev != nil && prev.CurrentStreak == current && prev.LongestStreak == NextLongest(current, prev.LongestStreak) {
		return false, nil
	}

	if _, _, err := s.recomputeStreak(ctx, habit); err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) recordActivity(ctx context.Context, habit *Habit, action string, metadata map[string]interface{}) {
	err := s.repo.RecordHabitActivity(ctx, &HabitAnalytics{
		ID:        uuid.New(),
		HabitID:   habit.ID,
		UserID:    habit.UserID,
		Action:    action,
		Timestamp: s.now().UTC(),
		Metadata:  marshalMetadata(metadata),
	})
	if err != nil {
		s.logger.Warn("Failed to record habit activity",
			zap.String("habit_id", habit.ID.String()),
			zap.String("action", action),
			zap.Error(err))
	}
}

func (s *service) publishDashboardEvent(ctx context.Context, userID, entityID uuid.UUID, details map[string]interface{}) {
	err := events.Publish(ctx, s.publisher, events.DashboardEventCacheInvalidate, userID, entityID, details)
	if err != nil {
		s.logger.Error("Failed to publish dashboard event", zap.Error(err))
	}
}
