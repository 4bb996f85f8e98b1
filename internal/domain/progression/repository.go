package progression

import (
	"context"
	"errors"

	"github.com/Solomon-TC/The-Habit-Hero/internal/infrastructure/persistence/postgres/connection"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the persistence gateway for the XP ledger and user levels.
type Repository interface {
	AppendHistory(ctx context.Context, entry *XPHistory) error
	// FindUserLevel returns nil, nil when the user has no level record yet.
	FindUserLevel(ctx context.Context, userID uuid.UUID) (*UserLevel, error)
	UpsertUserLevel(ctx context.Context, level *UserLevel) error
	ListHistory(ctx context.Context, userID uuid.UUID, limit int) ([]XPHistory, error)
}

type repository struct {
	db *connection.Database
}

func NewRepository(db *connection.Database) Repository {
	return &repository{db: db}
}

func (r *repository) AppendHistory(ctx context.Context, entry *XPHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindUserLevel(ctx context.Context, userID uuid.UUID) (*UserLevel, error) {
	var level UserLevel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&level).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &level, nil
}

func (r *repository) UpsertUserLevel(ctx context.Context, level *UserLevel) error {
	if level.ID == uuid.Nil {
		level.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_level", "current_xp", "total_xp_earned", "updated_at"}),
	}).Create(level).Error
}

func (r *repository) ListHistory(ctx context.Context, userID uuid.UUID, limit int) ([]XPHistory, error) {
	var entries []XPHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
