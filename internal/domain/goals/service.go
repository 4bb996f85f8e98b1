package goals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/events"
	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/habits"
	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/progression"
	"github.com/Solomon-TC/The-Habit-Hero/pkg/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// XPAwarder is the part of the progression service the goal flows need.
type XPAwarder interface {
	AwardXP(ctx context.Context, input progression.AwardInput) (*progression.AwardResult, error)
}

// HabitLookup resolves which of the given habits a user owns.
type HabitLookup interface {
	FindOwned(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]habits.Habit, error)
}

type Service interface {
	CreateGoal(ctx context.Context, input CreateGoalInput) (*Goal, error)
	GetGoal(ctx context.Context, id, userID uuid.UUID) (*Goal, error)
	ListGoals(ctx context.Context, userID uuid.UUID) ([]Goal, error)
	UpdateGoal(ctx context.Context, id, userID uuid.UUID, input UpdateGoalInput) (*Goal, error)
	DeleteGoal(ctx context.Context, id, userID uuid.UUID) error

	CreateMilestone(ctx context.Context, input CreateMilestoneInput) (*Milestone, error)
	UpdateMilestone(ctx context.Context, id, userID uuid.UUID, input UpdateMilestoneInput) (*MilestoneUpdateResult, error)
	DeleteMilestone(ctx context.Context, id, userID uuid.UUID) error
}

type service struct {
	repo      Repository
	habits    HabitLookup
	xp        XPAwarder
	publisher events.Publisher
	xpConfig  config.GamificationConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, habitLookup HabitLookup, xp XPAwarder, publisher events.Publisher, xpConfig config.GamificationConfig, logger *zap.Logger) Service {
	return newService(repo, habitLookup, xp, publisher, xpConfig, logger)
}

func newService(repo Repository, habitLookup HabitLookup, xp XPAwarder, publisher events.Publisher, xpConfig config.GamificationConfig, logger *zap.Logger) *service {
	return &service{
		repo:      repo,
		habits:    habitLookup,
		xp:        xp,
		publisher: publisher,
		xpConfig:  xpConfig,
		logger:    logger,
		now:       time.Now,
	}
}

func validateXP(name string, r config.XPRange, xp int) error {
	if !r.Contains(xp) {
		return fmt.Errorf("%w: %s xp_value must be between %d and %d", ErrInvalidInput, name, r.Min, r.Max)
	}
	return nil
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return name, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// checkLinkedHabits rejects links to habits the user does not own.
func (s *service) checkLinkedHabits(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]uuid.UUID, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return ids, nil
	}
	owned, err := s.habits.FindOwned(ctx, ids, userID)
	if err != nil {
		return nil, err
	}
	if len(owned) != len(ids) {
		return nil, fmt.Errorf("%w: linked habits must exist and belong to the user", ErrInvalidInput)
	}
	return ids, nil
}

func (s *service) CreateGoal(ctx context.Context, input CreateGoalInput) (*Goal, error) {
	name, err := requireName(input.Name)
	if err != nil {
		return nil, err
	}
	xp := s.xpConfig.Goal.Default
	if input.XPValue != nil {
		xp = *input.XPValue
	}
	if err := validateXP("goal", s.xpConfig.Goal, xp); err != nil {
		return nil, err
	}
	linked, err := s.checkLinkedHabits(ctx, input.LinkedHabits, input.UserID)
	if err != nil {
		return nil, err
	}

	goal := &Goal{
		ID:           uuid.New(),
		UserID:       input.UserID,
		Name:         name,
		Description:  input.Description,
		TargetDate:   input.TargetDate,
		Status:       StatusInProgress,
		XPValue:      xp,
		Milestones:   []Milestone{},
		LinkedHabits: linked,
	}
	if err := s.repo.CreateGoal(ctx, goal, linked); err != nil {
		return nil, progression.PersistenceError("create goal", err)
	}

	s.publishDashboardEvent(ctx, goal.UserID, goal.ID, "goal_created")
	return goal, nil
}

func (s *service) GetGoal(ctx context.Context, id, userID uuid.UUID) (*Goal, error) {
	goal, err := s.repo.FindGoal(ctx, id, userID)
	if err != nil {
		if errors.Is(err, ErrGoalNotFound) {
			return nil, err
		}
		return nil, progression.PersistenceError("load goal", err)
	}
	linked, err := s.repo.LinkedHabits(ctx, []uuid.UUID{goal.ID})
	if err != nil {
		return nil, progression.PersistenceError("load linked habits", err)
	}
	goal.LinkedHabits = nonNil(linked[goal.ID])
	if goal.Milestones == nil {
		goal.Milestones = []Milestone{}
	}
	return goal, nil
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

func (s *service) ListGoals(ctx context.Context, userID uuid.UUID) ([]Goal, error) {
	goals, err := s.repo.ListGoals(ctx, userID)
	if err != nil {
		return nil, progression.PersistenceError("list goals", err)
	}

	ids := make([]uuid.UUID, len(goals))
	for i, g := range goals {
		ids[i] = g.ID
	}
	linked, err := s.repo.LinkedHabits(ctx, ids)
	if err != nil {
		return nil, progression.PersistenceError("load linked habits", err)
	}

	for i := range goals {
		goals[i].LinkedHabits = nonNil(linked[goals[i].ID])
		if goals[i].Milestones == nil {
			goals[i].Milestones = []Milestone{}
		}
	}
	return goals, nil
}

// UpdateGoal edits a goal. Completing a goal by hand sets its status only;
// goal XP is granted when the last milestone completes it.
func (s *service) UpdateGoal(ctx context.Context, id, userID uuid.UUID, input UpdateGoalInput) (*Goal, error) {
	goal, err := s.GetGoal(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := requireName(*input.Name)
		if err != nil {
			return nil, err
		}
		goal.Name = name
	}
	if input.Description != nil {
		goal.Description = *input.Description
	}
	if input.ClearTargetDate {
		goal.TargetDate = nil
	} else if input.TargetDate != nil {
		goal.TargetDate = input.TargetDate
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *input.Status)
		}
		goal.Status = *input.Status
	}
	if input.XPValue != nil {
		if err := validateXP("goal", s.xpConfig.Goal, *input.XPValue); err != nil {
			return nil, err
		}
		goal.XPValue = *input.XPValue
	}

	var linked []uuid.UUID
	if input.LinkedHabits != nil {
		if linked, err = s.checkLinkedHabits(ctx, *input.LinkedHabits, userID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateGoal(ctx, goal); err != nil {
		if errors.Is(err, ErrGoalNotFound) {
			return nil, err
		}
		return nil, progression.PersistenceError("update goal", err)
	}
	if input.LinkedHabits != nil {
		if err := s.repo.ReplaceLinkedHabits(ctx, goal.ID, linked); err != nil {
			return nil, progression.PersistenceError("replace linked habits", err)
		}
		goal.LinkedHabits = linked
	}

	s.publishDashboardEvent(ctx, userID, goal.ID, "goal_updated")
	return goal, nil
}

func (s *service) DeleteGoal(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.DeleteGoal(ctx, id, userID); err != nil {
		if errors.Is(err, ErrGoalNotFound) {
			return err
		}
		return progression.PersistenceError("delete goal", err)
	}
	s.publishDashboardEvent(ctx, userID, id, "goal_deleted")
	return nil
}

func (s *service) CreateMilestone(ctx context.Context, input CreateMilestoneInput) (*Milestone, error) {
	name, err := requireName(input.Name)
	if err != nil {
		return nil, err
	}
	xp := s.xpConfig.Milestone.Default
	if input.XPValue != nil {
		xp = *input.XPValue
	}
	if err := validateXP("milestone", s.xpConfig.Milestone, xp); err != nil {
		return nil, err
	}

	if _, err := s.GetGoal(ctx, input.GoalID, input.UserID); err != nil {
		return nil, err
	}

	milestone := &Milestone{
		ID:          uuid.New(),
		GoalID:      input.GoalID,
		Name:        name,
		Description: input.Description,
		TargetDate:  input.TargetDate,
		XPValue:     xp,
	}
	if err := s.repo.CreateMilestone(ctx, milestone); err != nil {
		return nil, progression.PersistenceError("create milestone", err)
	}

	s.publishDashboardEvent(ctx, input.UserID, input.GoalID, "milestone_created")
	return milestone, nil
}

// ownedMilestone loads a milestone whose parent goal belongs to userID.
// Milestones of other users' goals read as not found.
func (s *service) ownedMilestone(ctx context.Context, id, userID uuid.UUID) (*Milestone, *Goal, error) {
	milestone, err := s.repo.FindMilestone(ctx, id)
	if err != nil {
		if errors.Is(err, ErrMilestoneNotFound) {
			return nil, nil, err
		}
		return nil, nil, progression.PersistenceError("load milestone", err)
	}
	goal, err := s.repo.FindGoal(ctx, milestone.GoalID, userID)
	if err != nil {
		if errors.Is(err, ErrGoalNotFound) {
			return nil, nil, ErrMilestoneNotFound
		}
		return nil, nil, progression.PersistenceError("load goal", err)
	}
	return milestone, goal, nil
}

// UpdateMilestone applies field changes and, when the milestone goes from
// incomplete to complete, awards its XP and completes the goal once every
// milestone of the goal is complete. Any false to true transition counts,
// so toggling a milestone off and on again awards its XP again.
func (s *service) UpdateMilestone(ctx context.Context, id, userID uuid.UUID, input UpdateMilestoneInput) (*MilestoneUpdateResult, error) {
	milestone, goal, err := s.ownedMilestone(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := requireName(*input.Name)
		if err != nil {
			return nil, err
		}
		milestone.Name = name
	}
	if input.XPValue != nil {
		if err := validateXP("milestone", s.xpConfig.Milestone, *input.XPValue); err != nil {
			return nil, err
		}
		milestone.XPValue = *input.XPValue
	}
	if input.Description != nil {
		milestone.Description = *input.Description
	}
	if input.ClearTargetDate {
		milestone.TargetDate = nil
	} else if input.TargetDate != nil {
		milestone.TargetDate = input.TargetDate
	}

	wasCompleted := milestone.Completed
	if input.Completed != nil {
		milestone.Completed = *input.Completed
		if *input.Completed {
			today := habits.Day(s.now())
			milestone.CompletedDate = &today
		} else {
			milestone.CompletedDate = nil
		}
	}

	if err := s.repo.UpdateMilestone(ctx, milestone); err != nil {
		if errors.Is(err, ErrMilestoneNotFound) {
			return nil, err
		}
		return nil, progression.PersistenceError("update milestone", err)
	}

	result := &MilestoneUpdateResult{Milestone: *milestone}
	newlyCompleted := input.Completed != nil && *input.Completed && !wasCompleted
	if newlyCompleted {
		if err := s.completeMilestone(ctx, userID, milestone, goal, result); err != nil {
			return nil, err
		}
	}

	s.publishDashboardEvent(ctx, userID, milestone.ID, "milestone_updated")
	return result, nil
}

func (s *service) completeMilestone(ctx context.Context, userID uuid.UUID, milestone *Milestone, goal *Goal, result *MilestoneUpdateResult) error {
	award, err := s.xp.AwardXP(ctx, progression.AwardInput{
		UserID:      userID,
		Amount:      milestone.XPValue,
		SourceType:  progression.SourceMilestone,
		SourceID:    milestone.ID,
		Description: "Completed milestone: " + milestone.Name,
	})
	if err != nil {
		s.logger.Error("Milestone completed but XP not awarded",
			zap.String("milestone_id", milestone.ID.String()),
			zap.Error(err))
		return err
	}
	result.add(award)

	milestones, err := s.repo.ListMilestones(ctx, goal.ID)
	if err != nil {
		return progression.PersistenceError("list milestones", err)
	}
	for _, m := range milestones {
		if !m.Completed {
			return nil
		}
	}
	if goal.Status == StatusCompleted {
		return nil
	}

	if err := s.repo.UpdateGoalStatus(ctx, goal.ID, StatusCompleted); err != nil {
		return progression.PersistenceError("complete goal", err)
	}
	result.GoalCompleted = true
	cascadeCompletions.Inc()

	award, err = s.xp.AwardXP(ctx, progression.AwardInput{
		UserID:      userID,
		Amount:      goal.XPValue,
		SourceType:  progression.SourceGoal,
		SourceID:    goal.ID,
		Description: "Completed goal: " + goal.Name,
	})
	if err != nil {
		s.logger.Error("Goal completed but XP not awarded",
			zap.String("goal_id", goal.ID.String()),
			zap.Error(err))
		return err
	}
	result.add(award)

	s.logger.Info("Goal completed by its last milestone",
		zap.String("goal_id", goal.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("xp_earned", result.XPEarned))
	return nil
}

func (r *MilestoneUpdateResult) add(award *progression.AwardResult) {
	r.XPEarned += award.Amount
	r.LeveledUp = r.LeveledUp || award.LeveledUp
	r.NewLevel = award.NewLevel
}

func (s *service) DeleteMilestone(ctx context.Context, id, userID uuid.UUID) error {
	milestone, _, err := s.ownedMilestone(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteMilestone(ctx, milestone.ID); err != nil {
		if errors.Is(err, ErrMilestoneNotFound) {
			return err
		}
		return progression.PersistenceError("delete milestone", err)
	}
	s.publishDashboardEvent(ctx, userID, milestone.GoalID, "milestone_deleted")
	return nil
}

func (s *service) publishDashboardEvent(ctx context.Context, userID, entityID uuid.UUID, action string) {
	err := events.Publish(ctx, s.publisher, events.DashboardEventCacheInvalidate, userID, entityID, map[string]interface{}{
		"action":    action,
		"entity_id": entityID,
	})
	if err != nil {
		s.logger.Error("Failed to publish dashboard event", zap.Error(err))
	}
}
