package habits

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// HabitAnalytics is an activity record for a habit. Writing one never blocks the action it describes.
type HabitAnalytics struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	HabitID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"habit_id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Action    string         `gorm:"type:varchar(50);not null" json:"action"`
	Timestamp time.Time      `gorm:"not null;default:now();index" json:"timestamp"`
	Metadata  datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
}

func (HabitAnalytics) TableName() string {
	return "habit_analytics"
}

// AnalyticsFilter defines filtering options for habit analytics
type AnalyticsFilter struct {
	HabitID   *uuid.UUID
	UserID    *uuid.UUID
	Action    *string
	StartTime *time.Time
	EndTime   *time.Time
	Page      int
	PageSize  int
}

const (
	ActionHabitCreated    = "habit_created"
	ActionHabitUpdated    = "habit_updated"
	ActionHabitDeleted    = "habit_deleted"
	ActionHabitCompleted  = "habit_completed"
	ActionStreakMilestone = "streak_milestone"
)

func (r *repository) RecordHabitActivity(ctx context.Context, analytics *HabitAnalytics) error {
	return r.db.WithContext(ctx).Create(analytics).Error
}

func (r *repository) GetHabitAnalytics(ctx context.Context, filter AnalyticsFilter) ([]HabitAnalytics, int64, error) {
	var analytics []HabitAnalytics
	var total int64
	query := r.db.WithContext(ctx).Model(&HabitAnalytics{})

	if filter.HabitID != nil {
		query = query.Where("habit_id = ?", *filter.HabitID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.StartTime != nil {
		query = query.Where("timestamp >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		query = query.Where("timestamp <= ?", *filter.EndTime)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("timestamp DESC").
		Offset(filter.Page * filter.PageSize).
		Limit(filter.PageSize).
		Find(&analytics).Error
	if err != nil {
		return nil, 0, err
	}

	return analytics, total, nil
}

func marshalMetadata(data map[string]interface{}) datatypes.JSON {
	if len(data) == 0 {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
