package habits

import (
	"time"

	"github.com/google/uuid"
)

// Frequency is the recurrence schedule that decides which completion gaps count as consecutive.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekdays Frequency = "weekdays"
	FrequencyWeekends Frequency = "weekends"
	FrequencyWeekly   Frequency = "weekly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekdays, FrequencyWeekends, FrequencyWeekly:
		return true
	}
	return false
}

type Habit struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	Frequency       Frequency `gorm:"type:varchar(20);not null;default:'daily'" json:"frequency"`
	ReminderTime    *string   `gorm:"type:varchar(5)" json:"reminder_time,omitempty"`
	ReminderEnabled bool      `gorm:"not null;default:false" json:"reminder_enabled"`
	XPValue         int       `gorm:"column:xp_value;not null;default:10" json:"xp_value"`
	CreatedAt       time.Time `gorm:"not null;default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;default:current_timestamp;autoUpdateTime" json:"updated_at"`
}

func (Habit) TableName() string {
	return "habits"
}

// Completion is one check-in. At most one exists per habit and calendar day.
type Completion struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	HabitID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_habit_completion_day,priority:1" json:"habit_id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	CompletedDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_habit_completion_day,priority:2" json:"completed_date"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time `gorm:"not null;default:current_timestamp" json:"created_at"`
}

func (Completion) TableName() string {
	return "habit_completions"
}

// Streak is a projection of a habit's completions, recomputed in full after each check-in.
type Streak struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"-"`
	HabitID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"habit_id"`
	UserID            uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	CurrentStreak     int        `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak     int        `gorm:"not null;default:0" json:"longest_streak"`
	LastCompletedDate *time.Time `gorm:"type:date" json:"last_completed_date,omitempty"`
	UpdatedAt         time.Time  `gorm:"not null;default:current_timestamp;autoUpdateTime" json:"updated_at"`
}

func (Streak) TableName() string {
	return "habit_streaks"
}

// CreateHabitInput represents the input for creating a new habit
type CreateHabitInput struct {
	UserID          uuid.UUID
	Name            string
	Description     string
	Frequency       Frequency
	ReminderTime    *string
	ReminderEnabled bool
	XPValue         *int
}

// UpdateHabitInput carries only the fields the caller wants changed.
type UpdateHabitInput struct {
	Name            *string
	Description     *string
	Frequency       *Frequency
	ReminderTime    *string
	ReminderEnabled *bool
	XPValue         *int
}

type CheckInInput struct {
	HabitID uuid.UUID
	UserID  uuid.UUID
	// Date defaults to today when nil.
	Date  *time.Time
	Notes string
}

type CheckInResult struct {
	Completion Completion `json:"completion"`
	Streak     Streak     `json:"streak"`
	XPEarned   int        `json:"xp_earned"`
	LeveledUp  bool       `json:"leveled_up"`
	NewLevel   int        `json:"new_level"`
}

// HabitSummary is a habit enriched with the state a habit list needs.
type HabitSummary struct {
	Habit
	IsCompletedToday bool       `json:"is_completed_today"`
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	LastCompleted    *time.Time `json:"last_completed,omitempty"`
	CompletionRate   int        `json:"completion_rate"`
}

type HabitStats struct {
	HabitID          uuid.UUID  `json:"habit_id"`
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	TotalCompletions int        `json:"total_completions"`
	CompletionRate   int        `json:"completion_rate"`
	DaysTracked      int        `json:"days_tracked"`
	LastCompleted    *time.Time `json:"last_completed,omitempty"`
}

// ReconcileReport summarises one streak reconciliation pass.
type ReconcileReport struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}
