package goals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/habits"
	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/progression"
	"github.com/Solomon-TC/The-Habit-Hero/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRepository struct {
	goals      map[uuid.UUID]*Goal
	milestones map[uuid.UUID]*Milestone
	order      []uuid.UUID
	links      map[uuid.UUID][]uuid.UUID

	listMilestonesErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		goals:      make(map[uuid.UUID]*Goal),
		milestones: make(map[uuid.UUID]*Milestone),
		links:      make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *mockRepository) CreateGoal(ctx context.Context, goal *Goal, habitIDs []uuid.UUID) error {
	copied := *goal
	copied.Milestones = nil
	m.goals[goal.ID] = &copied
	m.links[goal.ID] = append([]uuid.UUID(nil), habitIDs...)
	return nil
}

func (m *mockRepository) FindGoal(ctx context.Context, id, userID uuid.UUID) (*Goal, error) {
	g, ok := m.goals[id]
	if !ok || g.UserID != userID {
		return nil, ErrGoalNotFound
	}
	copied := *g
	copied.Milestones, _ = m.ListMilestones(ctx, id)
	return &copied, nil
}

func (m *mockRepository) ListGoals(ctx context.Context, userID uuid.UUID) ([]Goal, error) {
	var out []Goal
	for _, g := range m.goals {
		if g.UserID == userID {
			goal, _ := m.FindGoal(ctx, g.ID, userID)
			out = append(out, *goal)
		}
	}
	return out, nil
}

func (m *mockRepository) UpdateGoal(ctx context.Context, goal *Goal) error {
	copied := *goal
	copied.Milestones = nil
	m.goals[goal.ID] = &copied
	return nil
}

func (m *mockRepository) UpdateGoalStatus(ctx context.Context, id uuid.UUID, status Status) error {
	g, ok := m.goals[id]
	if !ok {
		return ErrGoalNotFound
	}
	g.Status = status
	return nil
}

func (m *mockRepository) ReplaceLinkedHabits(ctx context.Context, goalID uuid.UUID, habitIDs []uuid.UUID) error {
	m.links[goalID] = append([]uuid.UUID(nil), habitIDs...)
	return nil
}

func (m *mockRepository) LinkedHabits(ctx context.Context, goalIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := make(map[uuid.UUID][]uuid.UUID)
	for _, id := range goalIDs {
		if len(m.links[id]) > 0 {
			out[id] = m.links[id]
		}
	}
	return out, nil
}

func (m *mockRepository) DeleteGoal(ctx context.Context, id, userID uuid.UUID) error {
	g, ok := m.goals[id]
	if !ok || g.UserID != userID {
		return ErrGoalNotFound
	}
	delete(m.goals, id)
	delete(m.links, id)
	for mid, ms := range m.milestones {
		if ms.GoalID == id {
			delete(m.milestones, mid)
		}
	}
	return nil
}

func (m *mockRepository) CreateMilestone(ctx context.Context, milestone *Milestone) error {
	copied := *milestone
	m.milestones[milestone.ID] = &copied
	m.order = append(m.order, milestone.ID)
	return nil
}

func (m *mockRepository) FindMilestone(ctx context.Context, id uuid.UUID) (*Milestone, error) {
	ms, ok := m.milestones[id]
	if !ok {
		return nil, ErrMilestoneNotFound
	}
	copied := *ms
	return &copied, nil
}

func (m *mockRepository) UpdateMilestone(ctx context.Context, milestone *Milestone) error {
	copied := *milestone
	m.milestones[milestone.ID] = &copied
	return nil
}

func (m *mockRepository) DeleteMilestone(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.milestones[id]; !ok {
		return ErrMilestoneNotFound
	}
	delete(m.milestones, id)
	return nil
}

func (m *mockRepository) ListMilestones(ctx context.Context, goalID uuid.UUID) ([]Milestone, error) {
	if m.listMilestonesErr != nil {
		return nil, m.listMilestonesErr
	}
	var out []Milestone
	for _, id := range m.order {
		if ms, ok := m.milestones[id]; ok && ms.GoalID == goalID {
			out = append(out, *ms)
		}
	}
	return out, nil
}

type mockHabitLookup struct {
	owned map[uuid.UUID]uuid.UUID // habit -> owner
}

func (m *mockHabitLookup) FindOwned(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]habits.Habit, error) {
	var out []habits.Habit
	for _, id := range ids {
		if owner, ok := m.owned[id]; ok && owner == userID {
			out = append(out, habits.Habit{ID: id, UserID: userID})
		}
	}
	return out, nil
}

type fakeLedger struct {
	level, xp int
	awards    []progression.AwardInput
	failOn    progression.SourceKind
}

func (f *fakeLedger) AwardXP(ctx context.Context, input progression.AwardInput) (*progression.AwardResult, error) {
	f.awards = append(f.awards, input)
	if input.SourceType == f.failOn {
		return nil, progression.PersistenceError("upsert user level", errors.New("boom"))
	}
	if f.level == 0 {
		f.level = 1
	}
	var up bool
	f.level, f.xp, up = progression.ApplyXP(f.level, f.xp, input.Amount)
	return &progression.AwardResult{Amount: input.Amount, NewLevel: f.level, LeveledUp: up}, nil
}

func (f *fakeLedger) total(kind progression.SourceKind) int {
	sum := 0
	for _, a := range f.awards {
		if a.SourceType == kind {
			sum += a.Amount
		}
	}
	return sum
}

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	repo   *mockRepository
	ledger *fakeLedger
	habits *mockHabitLookup
	svc    *service
	userID uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		repo:   newMockRepository(),
		ledger: &fakeLedger{},
		habits: &mockHabitLookup{owned: map[uuid.UUID]uuid.UUID{}},
		userID: uuid.New(),
	}
	f.svc = newService(f.repo, f.habits, f.ledger, nil, config.DefaultGamification(), zap.NewNop())
	f.svc.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) goal(t *testing.T, milestones ...int) (*Goal, []*Milestone) {
	t.Helper()
	goal, err := f.svc.CreateGoal(context.Background(), CreateGoalInput{UserID: f.userID, Name: "Run a marathon"})
	require.NoError(t, err)

	var created []*Milestone
	for _, xp := range milestones {
		xp := xp
		ms, err := f.svc.CreateMilestone(context.Background(), CreateMilestoneInput{
			GoalID:  goal.ID,
			UserID:  f.userID,
			Name:    "Step",
			XPValue: &xp,
		})
		require.NoError(t, err)
		created = append(created, ms)
	}
	return goal, created
}

func boolPtr(b bool) *bool { return &b }

func TestUpdateMilestoneCascade(t *testing.T) {
	f := newFixture()
	goal, ms := f.goal(t, 20, 30)

	result, err := f.svc.UpdateMilestone(context.Background(), ms[0].ID, f.userID, UpdateMilestoneInput{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 20, result.XPEarned)
	assert.False(t, result.GoalCompleted)
	assert.Equal(t, StatusInProgress, f.repo.goals[goal.ID].Status)
	require.NotNil(t, result.Milestone.CompletedDate)
	assert.Equal(t, habits.Day(testNow), *result.Milestone.CompletedDate)

	result, err = f.svc.UpdateMilestone(context.Background(), ms[1].ID, f.userID, UpdateMilestoneInput{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 30+50, result.XPEarned)
	assert.True(t, result.GoalCompleted)
	assert.True(t, result.LeveledUp)
	assert.Equal(t, 2, result.NewLevel)
	assert.Equal(t, StatusCompleted, f.repo.goals[goal.ID].Status)
	assert.Equal(t, 50, f.ledger.total(progression.SourceGoal))
}

func TestUpdateMilestoneAlreadyCompletedIsNoop(t *testing.T) {
	f := newFixture()
	_, ms := f.goal(t, 20)

	_, err := f.svc.UpdateMilestone(context.Background(), ms[0].ID, f.userID, UpdateMilestoneInput{Completed: boolPtr(true)})
	require.NoError(t, err)
	awards := len(f.ledger.awards)

	result, err := f.svc.UpdateMilestone(context.Background(), ms[0].ID, f.userID, UpdateMilestoneInput{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 0, result.XPEarned)
	assert.False(t, result.GoalCompleted)
	assert.Len(t, f.ledger.awards, awards)
}

func TestUpdateMilestoneRecompletionAwardsAgain(t *testing.T) {
	f := newFixture()
	goal, ms := f.goal(t, 20)

	_, err := f.svc.UpdateMilestone(context.Background(), ms[0].ID, f.userID, UpdateMilestoneInput{Completed: boolPtr(true)})
	require.NoError(t, err)

	result, err := f.svc.UpdateMilestone(context.Background(), ms[0].ID, f.userID, UpdateMilestoneInput{Completed: boolPtr(false)})
	require.NoError(t, err)
	assert.Nil(t, result.Milestone.CompletedDate)
	assert.Equal(t, 0, result.XPEarned)

	result, err = f.svc.UpdateMilestone(context.Background(), ms[0].ID, f.userID, UpdateMilestoneInput{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 20, result.XPEarned, "milestone XP is granted on every false to true transition")
	assert.False(t, result.GoalCompleted, "goal XP is granted once")

	assert.Equal(t, 40, f.ledger.total(progression.SourceMilestone))
	assert.Equal(t, 50, f.ledger.total(progression.SourceGoal))
	assert.Equal(t, StatusCompleted, f.repo.goals[goal.ID].Status)
}

func TestUpdateMilestoneFieldsOnly(t *testing.T) {
	f := newFixture()
	_, ms := f.goal(t, 20)
	name := "Long run"
	xp := 60

	result, err := f.svc.UpdateMilestone(context.Background(), ms[0].ID, f.userID, UpdateMilestoneInput{Name: &name, XPValue: &xp})
	require.NoError(t, err)
	assert.Equal(t, "Long run", result.Milestone.Name)
	assert.Equal(t, 60, f.repo.milestones[ms[0].ID].XPValue)
	assert.Empty(t, f.ledger.awards)
}

func TestUpdateMilestoneValidation(t *testing.T) {
	f := newFixture()
	_, ms := f.goal(t, 20)
	tooMuch := 201

	_, err := f.svc.UpdateMilestone(context.Background(), ms[0].ID, f.userID, UpdateMilestoneInput{XPValue: &tooMuch, Completed: boolPtr(true)})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.False(t, f.repo.milestones[ms[0].ID].Completed)
	assert.Empty(t, f.ledger.awards)
}

func TestUpdateMilestoneNotOwned(t *testing.T) {
	f := newFixture()
	_, ms := f.goal(t, 20)

	_, err := f.svc.UpdateMilestone(context.Background(), ms[0].ID, uuid.New(), UpdateMilestoneInput{Completed: boolPtr(true)})
	assert.ErrorIs(t, err, ErrMilestoneNotFound)

	_, err = f.svc.UpdateMilestone(context.Background(), uuid.New(), f.userID, UpdateMilestoneInput{Completed: boolPtr(true)})
	assert.ErrorIs(t, err, ErrMilestoneNotFound)

	assert.Empty(t, f.ledger.awards)
}

func TestUpdateMilestoneGoalAlreadyCompleted(t *testing.T) {
	f := newFixture()
	goal, ms := f.goal(t, 20)
	completed := StatusCompleted

	_, err := f.svc.UpdateGoal(context.Background(), goal.ID, f.userID, UpdateGoalInput{Status: &completed})
	require.NoError(t, err)
	assert.Empty(t, f.ledger.awards, "completing a goal by hand awards nothing")

	result, err := f.svc.UpdateMilestone(context.Background(), ms[0].ID, f.userID, UpdateMilestoneInput{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 20, result.XPEarned)
	assert.False(t, result.GoalCompleted)
}

func TestUpdateMilestoneGoalAwardFailure(t *testing.T) {
	f := newFixture()
	goal, ms := f.goal(t, 20)
	f.ledger.failOn = progression.SourceGoal

	_, err := f.svc.UpdateMilestone(context.Background(), ms[0].ID, f.userID, UpdateMilestoneInput{Completed: boolPtr(true)})
	assert.ErrorIs(t, err, progression.ErrPersistence)

	assert.True(t, f.repo.milestones[ms[0].ID].Completed)
	assert.Equal(t, StatusCompleted, f.repo.goals[goal.ID].Status)
	assert.Equal(t, 20, f.ledger.total(progression.SourceMilestone))
}

func TestCreateGoal(t *testing.T) {
	f := newFixture()
	owned := uuid.New()
	f.habits.owned[owned] = f.userID
	foreign := uuid.New()
	f.habits.owned[foreign] = uuid.New()

	goal, err := f.svc.CreateGoal(context.Background(), CreateGoalInput{
		UserID:       f.userID,
		Name:         "Get fit",
		LinkedHabits: []uuid.UUID{owned, owned},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, goal.Status)
	assert.Equal(t, 50, goal.XPValue)
	assert.Equal(t, []uuid.UUID{owned}, f.repo.links[goal.ID])

	_, err = f.svc.CreateGoal(context.Background(), CreateGoalInput{UserID: f.userID, Name: "Other", LinkedHabits: []uuid.UUID{foreign}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateGoal(context.Background(), CreateGoalInput{UserID: f.userID, Name: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)

	tooMuch := 501
	_, err = f.svc.CreateGoal(context.Background(), CreateGoalInput{UserID: f.userID, Name: "x", XPValue: &tooMuch})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateGoalReplacesLinks(t *testing.T) {
	f := newFixture()
	first, second := uuid.New(), uuid.New()
	f.habits.owned[first] = f.userID
	f.habits.owned[second] = f.userID

	goal, err := f.svc.CreateGoal(context.Background(), CreateGoalInput{UserID: f.userID, Name: "Goal", LinkedHabits: []uuid.UUID{first}})
	require.NoError(t, err)

	links := []uuid.UUID{second}
	updated, err := f.svc.UpdateGoal(context.Background(), goal.ID, f.userID, UpdateGoalInput{LinkedHabits: &links})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{second}, updated.LinkedHabits)

	goals, err := f.svc.ListGoals(context.Background(), f.userID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, []uuid.UUID{second}, goals[0].LinkedHabits)

	bad := Status("abandoned")
	_, err = f.svc.UpdateGoal(context.Background(), goal.ID, f.userID, UpdateGoalInput{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateMilestoneRequiresOwnedGoal(t *testing.T) {
	f := newFixture()
	goal, _ := f.goal(t)

	_, err := f.svc.CreateMilestone(context.Background(), CreateMilestoneInput{GoalID: goal.ID, UserID: uuid.New(), Name: "x"})
	assert.ErrorIs(t, err, ErrGoalNotFound)

	ms, err := f.svc.CreateMilestone(context.Background(), CreateMilestoneInput{GoalID: goal.ID, UserID: f.userID, Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, 20, ms.XPValue)
}

func TestDeleteGoalAndMilestone(t *testing.T) {
	f := newFixture()
	goal, ms := f.goal(t, 20, 20)

	assert.ErrorIs(t, f.svc.DeleteMilestone(context.Background(), ms[0].ID, uuid.New()), ErrMilestoneNotFound)
	require.NoError(t, f.svc.DeleteMilestone(context.Background(), ms[0].ID, f.userID))
	assert.NotContains(t, f.repo.milestones, ms[0].ID)

	require.NoError(t, f.svc.DeleteGoal(context.Background(), goal.ID, f.userID))
	assert.Empty(t, f.repo.milestones)
	assert.ErrorIs(t, f.svc.DeleteGoal(context.Background(), goal.ID, f.userID), ErrGoalNotFound)
}
