package goals

import (
	"context"
	"errors"

	"github.com/Solomon-TC/The-Habit-Hero/internal/infrastructure/persistence/postgres/connection"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrGoalNotFound      = errors.New("goal not found")
	ErrMilestoneNotFound = errors.New("milestone not found")
	ErrInvalidInput      = errors.New("invalid input")
)

type Repository interface {
	CreateGoal(ctx context.Context, goal *Goal, habitIDs []uuid.UUID) error
	// FindGoal only returns goals owned by userID.
	FindGoal(ctx context.Context, id, userID uuid.UUID) (*Goal, error)
	ListGoals(ctx context.Context, userID uuid.UUID) ([]Goal, error)
	UpdateGoal(ctx context.Context, goal *Goal) error
	UpdateGoalStatus(ctx context.Context, id uuid.UUID, status Status) error
	ReplaceLinkedHabits(ctx context.Context, goalID uuid.UUID, habitIDs []uuid.UUID) error
	LinkedHabits(ctx context.Context, goalIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	// DeleteGoal removes the goal with its milestones and habit links.
	DeleteGoal(ctx context.Context, id, userID uuid.UUID) error

	CreateMilestone(ctx context.Context, milestone *Milestone) error
	FindMilestone(ctx context.Context, id uuid.UUID) (*Milestone, error)
	UpdateMilestone(ctx context.Context, milestone *Milestone) error
	DeleteMilestone(ctx context.Context, id uuid.UUID) error
	ListMilestones(ctx context.Context, goalID uuid.UUID) ([]Milestone, error)
}

type repository struct {
	db *connection.Database
}

func NewRepository(db *connection.Database) Repository {
	return &repository{db: db}
}

func goalLinks(goalID uuid.UUID, habitIDs []uuid.UUID) []GoalHabit {
	links := make([]GoalHabit, 0, len(habitIDs))
	for _, id := range habitIDs {
		links = append(links, GoalHabit{GoalID: goalID, HabitID: id})
	}
	return links
}

func (r *repository) CreateGoal(ctx context.Context, goal *Goal, habitIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(goal).Error; err != nil {
			return err
		}
		if len(habitIDs) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(goalLinks(goal.ID, habitIDs)).Error
	})
}

func (r *repository) FindGoal(ctx context.Context, id, userID uuid.UUID) (*Goal, error) {
	var goal Goal
	err := r.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ? AND user_id = ?", id, userID).
		First(&goal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	return &goal, nil
}

func (r *repository) ListGoals(ctx context.Context, userID uuid.UUID) ([]Goal, error) {
	var goals []Goal
	err := r.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&goals).Error
	return goals, err
}

func (r *repository) UpdateGoal(ctx context.Context, goal *Goal) error {
	result := r.db.WithContext(ctx).
		Model(&Goal{}).
		Where("id = ? AND user_id = ?", goal.ID, goal.UserID).
		Select("*").
		Omit(clause.Associations).
		Updates(goal)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func (r *repository) UpdateGoalStatus(ctx context.Context, id uuid.UUID, status Status) error {
	result := r.db.WithContext(ctx).Model(&Goal{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func (r *repository) ReplaceLinkedHabits(ctx context.Context, goalID uuid.UUID, habitIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("goal_id = ?", goalID).Delete(&GoalHabit{}).Error; err != nil {
			return err
		}
		if len(habitIDs) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(goalLinks(goalID, habitIDs)).Error
	})
}

func (r *repository) LinkedHabits(ctx context.Context, goalIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	linked := make(map[uuid.UUID][]uuid.UUID, len(goalIDs))
	if len(goalIDs) == 0 {
		return linked, nil
	}

	var links []GoalHabit
	err := r.db.WithContext(ctx).
		Where("goal_id IN ?", goalIDs).
		Order("created_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		linked[l.GoalID] = append(linked[l.GoalID], l.HabitID)
	}
	return linked, nil
}

func (r *repository) DeleteGoal(ctx context.Context, id, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("goal_id = ?", id).Delete(&Milestone{}).Error; err != nil {
			return err
		}
		if err := tx.Where("goal_id = ?", id).Delete(&GoalHabit{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&Goal{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrGoalNotFound
		}
		return nil
	})
}

func (r *repository) CreateMilestone(ctx context.Context, milestone *Milestone) error {
	return r.db.WithContext(ctx).Create(milestone).Error
}

func (r *repository) FindMilestone(ctx context.Context, id uuid.UUID) (*Milestone, error) {
	var milestone Milestone
	if err := r.db.WithContext(ctx).First(&milestone, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMilestoneNotFound
		}
		return nil, err
	}
	return &milestone, nil
}

func (r *repository) UpdateMilestone(ctx context.Context, milestone *Milestone) error {
	result := r.db.WithContext(ctx).
		Model(&Milestone{}).
		Where("id = ?", milestone.ID).
		Select("*").
		Updates(milestone)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMilestoneNotFound
	}
	return nil
}

func (r *repository) DeleteMilestone(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Milestone{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMilestoneNotFound
	}
	return nil
}

func (r *repository) ListMilestones(ctx context.Context, goalID uuid.UUID) ([]Milestone, error) {
	var milestones []Milestone
	err := r.db.WithContext(ctx).
		Where("goal_id = ?", goalID).
		Order("created_at ASC").
		Find(&milestones).Error
	return milestones, err
}
