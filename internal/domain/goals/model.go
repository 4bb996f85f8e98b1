package goals

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Goal struct {
	ID           uuid.UUID   `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID       uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	Name         string      `gorm:"size:255;not null" json:"name"`
	Description  string      `gorm:"type:text" json:"description"`
	TargetDate   *time.Time  `gorm:"type:date" json:"target_date,omitempty"`
	Status       Status      `gorm:"type:varchar(20);not null;default:'in_progress'" json:"status"`
	XPValue      int         `gorm:"column:xp_value;not null;default:50" json:"xp_value"`
	CreatedAt    time.Time   `gorm:"not null;default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"not null;default:current_timestamp;autoUpdateTime" json:"updated_at"`
	Milestones   []Milestone `gorm:"foreignKey:GoalID" json:"milestones"`
	LinkedHabits []uuid.UUID `gorm:"-" json:"linked_habits"`
}

func (Goal) TableName() string {
	return "goals"
}

type Milestone struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	GoalID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"goal_id"`
	Name          string     `gorm:"size:255;not null" json:"name"`
	Description   string     `gorm:"type:text" json:"description"`
	TargetDate    *time.Time `gorm:"type:date" json:"target_date,omitempty"`
	Completed     bool       `gorm:"not null;default:false" json:"completed"`
	CompletedDate *time.Time `gorm:"type:date" json:"completed_date,omitempty"`
	XPValue       int        `gorm:"column:xp_value;not null;default:20" json:"xp_value"`
	CreatedAt     time.Time  `gorm:"not null;default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null;default:current_timestamp;autoUpdateTime" json:"updated_at"`
}

func (Milestone) TableName() string {
	return "milestones"
}

// GoalHabit links a goal to a habit that contributes to it.
type GoalHabit struct {
	GoalID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	HabitID   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `gorm:"not null;default:current_timestamp"`
}

func (GoalHabit) TableName() string {
	return "goal_habits"
}

type CreateGoalInput struct {
	UserID       uuid.UUID
	Name         string
	Description  string
	TargetDate   *time.Time
	LinkedHabits []uuid.UUID
	XPValue      *int
}

// UpdateGoalInput carries only the fields the caller wants changed.
// LinkedHabits, when non-nil, replaces the whole set.
type UpdateGoalInput struct {
	Name            *string
	Description     *string
	TargetDate      *time.Time
	ClearTargetDate bool
	Status          *Status
	XPValue         *int
	LinkedHabits    *[]uuid.UUID
}

type CreateMilestoneInput struct {
	GoalID      uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description string
	TargetDate  *time.Time
	XPValue     *int
}

type UpdateMilestoneInput struct {
	Name            *string
	Description     *string
	TargetDate      *time.Time
	ClearTargetDate bool
	Completed       *bool
	XPValue         *int
}

// MilestoneUpdateResult is the updated milestone with any reward it earned.
type MilestoneUpdateResult struct {
	Milestone
	XPEarned      int  `json:"xp_earned"`
	LeveledUp     bool `json:"leveled_up"`
	NewLevel      int  `json:"new_level,omitempty"`
	GoalCompleted bool `json:"goal_completed"`
}
