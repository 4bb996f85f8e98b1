package dto

import (
	"time"

	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/habits"
	"github.com/google/uuid"
)

// CreateHabitRequest represents the request to create a new habit
type CreateHabitRequest struct {
	Name            string  `json:"name" validate:"required,not_empty,max=255"`
	Description     string  `json:"description" validate:"max=2000"`
	Frequency       string  `json:"frequency" validate:"omitempty,frequency"`
	ReminderTime    *string `json:"reminder_time,omitempty" validate:"omitempty,datetime=15:04"`
	ReminderEnabled bool    `json:"reminder_enabled"`
	XPValue         *int    `json:"xp_value,omitempty" validate:"omitempty,min=1"`
}

// UpdateHabitRequest represents the request to update an existing habit
type UpdateHabitRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,not_empty,max=255"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Frequency       *string `json:"frequency,omitempty" validate:"omitempty,frequency"`
	ReminderTime    *string `json:"reminder_time,omitempty" validate:"omitempty,datetime=15:04"`
	ReminderEnabled *bool   `json:"reminder_enabled,omitempty"`
	XPValue         *int    `json:"xp_value,omitempty" validate:"omitempty,min=1"`
}

// CheckInRequest marks a habit done for a day. Both fields are optional.
type CheckInRequest struct {
	Date  string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02" example:"2024-01-15"`
	Notes string `json:"notes,omitempty" validate:"max=1000"`
}

// HabitActivityQuery pages the activity log of one habit.
type HabitActivityQuery struct {
	Page     int `form:"page" validate:"min=0"`
	PageSize int `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// CheckInResponse is the stored completion with the reward it earned.
type CheckInResponse struct {
	habits.Completion
	Streak    habits.Streak `json:"streak"`
	XPEarned  int           `json:"xp_earned"`
	LeveledUp bool          `json:"leveled_up"`
	NewLevel  int           `json:"new_level"`
}

// HabitActivityListResponse represents the paginated activity log of a habit
type HabitActivityListResponse struct {
	Activity   []habits.HabitAnalytics `json:"activity"`
	TotalCount int64                   `json:"total_count"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
}

func (r CreateHabitRequest) ToInput(userID uuid.UUID) habits.CreateHabitInput {
	return habits.CreateHabitInput{
		UserID:          userID,
		Name:            r.Name,
		Description:     r.Description,
		Frequency:       habits.Frequency(r.Frequency),
		ReminderTime:    r.ReminderTime,
		ReminderEnabled: r.ReminderEnabled,
		XPValue:         r.XPValue,
	}
}

func (r UpdateHabitRequest) ToInput() habits.UpdateHabitInput {
	input := habits.UpdateHabitInput{
		Name:            r.Name,
		Description:     r.Description,
		ReminderTime:    r.ReminderTime,
		ReminderEnabled: r.ReminderEnabled,
		XPValue:         r.XPValue,
	}
	if r.Frequency != nil {
		freq := habits.Frequency(*r.Frequency)
		input.Frequency = &freq
	}
	return input
}

func (r CheckInRequest) ToInput(habitID, userID uuid.UUID) (habits.CheckInInput, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return habits.CheckInInput{}, err
	}
	return habits.CheckInInput{
		HabitID: habitID,
		UserID:  userID,
		Date:    date,
		Notes:   r.Notes,
	}, nil
}

func CheckInToResponse(result *habits.CheckInResult) CheckInResponse {
	return CheckInResponse{
		Completion: result.Completion,
		Streak:     result.Streak,
		XPEarned:   result.XPEarned,
		LeveledUp:  result.LeveledUp,
		NewLevel:   result.NewLevel,
	}
}

// ParseDate reads an optional YYYY-MM-DD string as a UTC day.
func ParseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, err
	}
	return &day, nil
}
