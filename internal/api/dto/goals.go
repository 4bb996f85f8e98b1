package dto

import (
	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/goals"
	"github.com/google/uuid"
)

// CreateGoalRequest represents the request to create a goal
type CreateGoalRequest struct {
	Name         string      `json:"name" validate:"required,not_empty,max=255"`
	Description  string      `json:"description" validate:"max=2000"`
	TargetDate   string      `json:"target_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	LinkedHabits []uuid.UUID `json:"linked_habits,omitempty"`
	XPValue      *int        `json:"xp_value,omitempty" validate:"omitempty,min=1"`
}

// UpdateGoalRequest represents a partial goal update.
// LinkedHabits replaces the whole set when present.
type UpdateGoalRequest struct {
	Name            *string      `json:"name,omitempty" validate:"omitempty,not_empty,max=255"`
	Description     *string      `json:"description,omitempty" validate:"omitempty,max=2000"`
	TargetDate      *string      `json:"target_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ClearTargetDate bool         `json:"clear_target_date"`
	Status          *string      `json:"status,omitempty" validate:"omitempty,goal_status"`
	XPValue         *int         `json:"xp_value,omitempty" validate:"omitempty,min=1"`
	LinkedHabits    *[]uuid.UUID `json:"linked_habits,omitempty"`
}

// CreateMilestoneRequest represents the request to add a milestone to a goal
type CreateMilestoneRequest struct {
	Name        string `json:"name" validate:"required,not_empty,max=255"`
	Description string `json:"description" validate:"max=2000"`
	TargetDate  string `json:"target_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	XPValue     *int   `json:"xp_value,omitempty" validate:"omitempty,min=1"`
}

// UpdateMilestoneRequest toggles completion and/or edits milestone fields.
type UpdateMilestoneRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,not_empty,max=255"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	TargetDate      *string `json:"target_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ClearTargetDate bool    `json:"clear_target_date"`
	Completed       *bool   `json:"completed,omitempty"`
	XPValue         *int    `json:"xp_value,omitempty" validate:"omitempty,min=1"`
}

func (r CreateGoalRequest) ToInput(userID uuid.UUID) (goals.CreateGoalInput, error) {
	targetDate, err := ParseDate(r.TargetDate)
	if err != nil {
		return goals.CreateGoalInput{}, err
	}
	return goals.CreateGoalInput{
		UserID:       userID,
		Name:         r.Name,
		Description:  r.Description,
		TargetDate:   targetDate,
		LinkedHabits: r.LinkedHabits,
		XPValue:      r.XPValue,
	}, nil
}

func (r UpdateGoalRequest) ToInput() (goals.UpdateGoalInput, error) {
	input := goals.UpdateGoalInput{
		Name:            r.Name,
		Description:     r.Description,
		ClearTargetDate: r.ClearTargetDate,
		XPValue:         r.XPValue,
		LinkedHabits:    r.LinkedHabits,
	}
	if r.TargetDate != nil {
		targetDate, err := ParseDate(*r.TargetDate)
		if err != nil {
			return goals.UpdateGoalInput{}, err
		}
		input.TargetDate = targetDate
	}
	if r.Status != nil {
		status := goals.Status(*r.Status)
		input.Status = &status
	}
	return input, nil
}

func (r CreateMilestoneRequest) ToInput(goalID, userID uuid.UUID) (goals.CreateMilestoneInput, error) {
	targetDate, err := ParseDate(r.TargetDate)
	if err != nil {
		return goals.CreateMilestoneInput{}, err
	}
	return goals.CreateMilestoneInput{
		GoalID:      goalID,
		UserID:      userID,
		Name:        r.Name,
		Description: r.Description,
		TargetDate:  targetDate,
		XPValue:     r.XPValue,
	}, nil
}

func (r UpdateMilestoneRequest) ToInput() (goals.UpdateMilestoneInput, error) {
	input := goals.UpdateMilestoneInput{
		Name:            r.Name,
		Description:     r.Description,
		ClearTargetDate: r.ClearTargetDate,
		Completed:       r.Completed,
		XPValue:         r.XPValue,
	}
	if r.TargetDate != nil {
		targetDate, err := ParseDate(*r.TargetDate)
		if err != nil {
			return goals.UpdateMilestoneInput{}, err
		}
		input.TargetDate = targetDate
	}
	return input, nil
}
