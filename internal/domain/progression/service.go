package progression

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var (
	// ErrPersistence marks a failure of the backing store. Steps already
	// committed by the same request are not rolled back.
	ErrPersistence   = errors.New("persistence failure")
	ErrInvalidAmount = errors.New("xp amount must be positive")
	ErrInvalidSource = errors.New("unknown xp source kind")
)

// PersistenceError wraps err so that errors.Is matches both ErrPersistence and err.
func PersistenceError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

type Service interface {
	AwardXP(ctx context.Context, input AwardInput) (*AwardResult, error)
	GetUserLevel(ctx context.Context, userID uuid.UUID) (*LevelSummary, error)
	ListHistory(ctx context.Context, userID uuid.UUID, limit int) ([]XPHistory, error)
}

type service struct {
	repo      Repository
	publisher events.Publisher
	logger    *zap.Logger
}

func NewService(repo Repository, publisher events.Publisher, logger *zap.Logger) Service {
	return &service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// AwardXP appends a ledger entry and folds it into the user's level.
// The ledger entry is written first and stays even if the level update fails.
// Two concurrent awards for one user can lose an update: the level is read,
// recomputed and written without a version check.
func (s *service) AwardXP(ctx context.Context, input AwardInput) (*AwardResult, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !input.SourceType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSource, input.SourceType)
	}

	current, err := s.repo.FindUserLevel(ctx, input.UserID)
	if err != nil {
		return nil, PersistenceError("load user level", err)
	}
	if current == nil {
		current = NewUserLevel(input.UserID)
	}

	level, xp, leveledUp := ApplyXP(current.CurrentLevel, current.CurrentXP, input.Amount)

	entry := &XPHistory{
		UserID:      input.UserID,
		Amount:      input.Amount,
		SourceType:  input.SourceType,
		SourceID:    input.SourceID,
		Description: input.Description,
		Metadata:    historyMetadata(current.CurrentLevel, level),
	}
	if err := s.repo.AppendHistory(ctx, entry); err != nil {
		return nil, PersistenceError("append xp history", err)
	}
	xpAwarded.WithLabelValues(string(input.SourceType)).Add(float64(input.Amount))

	previousLevel := current.CurrentLevel
	current.CurrentLevel = level
	current.CurrentXP = xp
	current.TotalXPEarned += input.Amount

	if err := s.repo.UpsertUserLevel(ctx, current); err != nil {
		s.logger.Error("XP recorded but user level not updated",
			zap.String("user_id", input.UserID.String()),
			zap.Int("amount", input.Amount),
			zap.Error(err))
		return nil, PersistenceError("upsert user level", err)
	}

	s.logger.Info("XP awarded",
		zap.String("user_id", input.UserID.String()),
		zap.String("source_type", string(input.SourceType)),
		zap.String("source_id", input.SourceID.String()),
		zap.Int("amount", input.Amount),
		zap.Int("level", level))

	if leveledUp {
		levelUps.Add(float64(level - previousLevel))
		s.publishLevelUp(ctx, current)
	}

	return &AwardResult{
		Amount:    input.Amount,
		NewLevel:  level,
		LeveledUp: leveledUp,
		CurrentXP: xp,
		TotalXP:   current.TotalXPEarned,
	}, nil
}

func (s *service) publishLevelUp(ctx context.Context, level *UserLevel) {
	err := events.Publish(ctx, s.publisher, events.EventTypeLevelUp, level.UserID, level.UserID, map[string]interface{}{
		"new_level": level.CurrentLevel,
		"total_xp":  level.TotalXPEarned,
	})
	if err != nil {
		s.logger.Error("Failed to publish level up event", zap.Error(err))
	}
}

func historyMetadata(levelBefore, levelAfter int) datatypes.JSON {
	data, _ := json.Marshal(map[string]string{
		"level_before": strconv.Itoa(levelBefore),
		"level_after":  strconv.Itoa(levelAfter),
	})
	return datatypes.JSON(data)
}

func (s *service) GetUserLevel(ctx context.Context, userID uuid.UUID) (*LevelSummary, error) {
	level, err := s.repo.FindUserLevel(ctx, userID)
	if err != nil {
		return nil, PersistenceError("load user level", err)
	}
	if level == nil {
		level = NewUserLevel(userID)
	}
	return summarize(level), nil
}

func (s *service) ListHistory(ctx context.Context, userID uuid.UUID, limit int) ([]XPHistory, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	entries, err := s.repo.ListHistory(ctx, userID, limit)
	if err != nil {
		return nil, PersistenceError("list xp history", err)
	}
	return entries, nil
}
