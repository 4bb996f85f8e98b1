package habits

import (
	"context"
	"errors"
	"time"

	"github.com/Solomon-TC/The-Habit-Hero/internal/infrastructure/persistence/postgres/connection"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrHabitNotFound    = errors.New("habit not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrAlreadyCompleted = errors.New("habit already completed for this date")
)

// Repository defines the interface for habit persistence operations
type Repository interface {
	Create(ctx context.Context, habit *Habit, streak *Streak) error
	// FindByID only returns habits owned by userID.
	FindByID(ctx context.Context, id, userID uuid.UUID) (*Habit, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]Habit, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Habit, error)
	Update(ctx context.Context, habit *Habit) error
	// Delete removes the habit together with its completions and streak.
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// InsertCompletion returns ErrAlreadyCompleted when the habit already has a completion that day.
	InsertCompletion(ctx context.Context, completion *Completion) error
	ListCompletions(ctx context.Context, habitID uuid.UUID) ([]Completion, error)
	ListCompletionDates(ctx context.Context, habitID uuid.UUID) ([]time.Time, error)
	CountCompletions(ctx context.Context, habitIDs []uuid.UUID) (map[uuid.UUID]int, error)
	CompletedOn(ctx context.Context, userID uuid.UUID, date time.Time) (map[uuid.UUID]bool, error)

	FindStreak(ctx context.Context, habitID uuid.UUID) (*Streak, error)
	FindStreaks(ctx context.Context, habitIDs []uuid.UUID) (map[uuid.UUID]Streak, error)
	UpsertStreak(ctx context.Context, streak *Streak) error

	// ListAll pages through every habit, for batch jobs.
	ListAll(ctx context.Context, offset, limit int) ([]Habit, error)

	RecordHabitActivity(ctx context.Context, analytics *HabitAnalytics) error
	GetHabitAnalytics(ctx context.Context, filter AnalyticsFilter) ([]HabitAnalytics, int64, error)
}

type repository struct {
	db *connection.Database
}

func NewRepository(db *connection.Database) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, habit *Habit, streak *Streak) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(habit).Error; err != nil {
			return err
		}
		streak.HabitID = habit.ID
		return tx.Create(streak).Error
	})
}

func (r *repository) FindByID(ctx context.Context, id, userID uuid.UUID) (*Habit, error) {
	var habit Habit
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&habit)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, result.Error
	}
	return &habit, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]Habit, error) {
	var habits []Habit
	if len(ids) == 0 {
		return habits, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ? AND user_id = ?", ids, userID).Find(&habits).Error
	return habits, err
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Habit, error) {
	var habits []Habit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&habits).Error
	return habits, err
}

func (r *repository) Update(ctx context.Context, habit *Habit) error {
	result := r.db.WithContext(ctx).
		Model(&Habit{}).
		Where("id = ? AND user_id = ?", habit.ID, habit.UserID).
		Select("*").
		Updates(habit)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrHabitNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("habit_id = ?", id).Delete(&Completion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("habit_id = ?", id).Delete(&Streak{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&Habit{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrHabitNotFound
		}
		return nil
	})
}

func (r *repository) InsertCompletion(ctx context.Context, completion *Completion) error {
	if completion.ID == uuid.Nil {
		completion.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Create(completion).Error
	if connection.IsUniqueViolation(err) {
		return ErrAlreadyCompleted
	}
	return err
}

func (r *repository) ListCompletions(ctx context.Context, habitID uuid.UUID) ([]Completion, error) {
	var completions []Completion
	err := r.db.WithContext(ctx).
		Where("habit_id = ?", habitID).
		Order("completed_date DESC").
		Find(&completions).Error
	return completions, err
}

func (r *repository) ListCompletionDates(ctx context.Context, habitID uuid.UUID) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.WithContext(ctx).
		Model(&Completion{}).
		Where("habit_id = ?", habitID).
		Order("completed_date DESC").
		Pluck("completed_date", &dates).Error
	return dates, err
}

func (r *repository) CountCompletions(ctx context.Context, habitIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(habitIDs))
	if len(habitIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		HabitID uuid.UUID
		Count   int
	}
	err := r.db.WithContext(ctx).
		Model(&Completion{}).
		Select("habit_id, COUNT(*) as count").
		Where("habit_id IN ?", habitIDs).
		Group("habit_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.HabitID] = row.Count
	}
	return counts, nil
}

func (r *repository) CompletedOn(ctx context.Context, userID uuid.UUID, date time.Time) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&Completion{}).
		Where("user_id = ? AND completed_date = ?", userID, Day(date)).
		Pluck("habit_id", &ids).Error
	if err != nil {
		return nil, err
	}

	done := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		done[id] = true
	}
	return done, nil
}

func (r *repository) FindStreak(ctx context.Context, habitID uuid.UUID) (*Streak, error) {
	var streak Streak
	err := r.db.WithContext(ctx).Where("habit_id = ?", habitID).First(&streak).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &streak, nil
}

func (r *repository) FindStreaks(ctx context.Context, habitIDs []uuid.UUID) (map[uuid.UUID]Streak, error) {
	byHabit := make(map[uuid.UUID]Streak, len(habitIDs))
	if len(habitIDs) == 0 {
		return byHabit, nil
	}

	var streaks []Streak
	if err := r.db.WithContext(ctx).Where("habit_id IN ?", habitIDs).Find(&streaks).Error; err != nil {
		return nil, err
	}
	for _, s := range streaks {
		byHabit[s.HabitID] = s
	}
	return byHabit, nil
}

func (r *repository) UpsertStreak(ctx context.Context, streak *Streak) error {
	if streak.ID == uuid.Nil {
		streak.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "habit_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_streak", "longest_streak", "last_completed_date", "updated_at"}),
	}).Create(streak).Error
}

func (r *repository) ListAll(ctx context.Context, offset, limit int) ([]Habit, error) {
	var habits []Habit
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&habits).Error
	return habits, err
}
