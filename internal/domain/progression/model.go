package progression

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SourceKind identifies what earned an XP award.
type SourceKind string

const (
	SourceHabit     SourceKind = "habit"
	SourceGoal      SourceKind = "goal"
	SourceMilestone SourceKind = "milestone"
)

func (k SourceKind) Valid() bool {
	switch k {
	case SourceHabit, SourceGoal, SourceMilestone:
		return true
	}
	return false
}

// XPHistory is an append-only ledger entry. Rows are never updated or deleted.
type XPHistory struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_xp_history_user_created,priority:1" json:"user_id"`
	Amount      int            `gorm:"not null;check:amount > 0" json:"amount"`
	SourceType  SourceKind     `gorm:"type:varchar(20);not null" json:"source_type"`
	SourceID    uuid.UUID      `gorm:"type:uuid;not null" json:"source_id"`
	Description string         `gorm:"type:text" json:"description"`
	Metadata    datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:current_timestamp;index:idx_xp_history_user_created,priority:2,sort:desc" json:"created_at"`
}

func (XPHistory) TableName() string {
	return "xp_history"
}

// UserLevel is the folded state of a user's ledger.
type UserLevel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"-"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	CurrentLevel  int       `gorm:"not null;default:1" json:"current_level"`
	CurrentXP     int       `gorm:"column:current_xp;not null;default:0" json:"current_xp"`
	TotalXPEarned int       `gorm:"column:total_xp_earned;not null;default:0" json:"total_xp_earned"`
	CreatedAt     time.Time `gorm:"not null;default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:current_timestamp;autoUpdateTime" json:"updated_at"`
}

func (UserLevel) TableName() string {
	return "user_levels"
}

// NewUserLevel is the state of a user who has never earned XP.
func NewUserLevel(userID uuid.UUID) *UserLevel {
	return &UserLevel{UserID: userID, CurrentLevel: 1}
}

type AwardInput struct {
	UserID      uuid.UUID
	Amount      int
	SourceType  SourceKind
	SourceID    uuid.UUID
	Description string
}

type AwardResult struct {
	Amount    int  `json:"amount"`
	NewLevel  int  `json:"new_level"`
	LeveledUp bool `json:"leveled_up"`
	CurrentXP int  `json:"current_xp"`
	TotalXP   int  `json:"total_xp_earned"`
}

// LevelSummary is the read model served to clients.
type LevelSummary struct {
	UserID          uuid.UUID `json:"user_id"`
	CurrentLevel    int       `json:"current_level"`
	CurrentXP       int       `json:"current_xp"`
	TotalXPEarned   int       `json:"total_xp_earned"`
	XPForNextLevel  int       `json:"xp_for_next_level"`
	ProgressPercent int       `json:"progress_percent"`
}

func summarize(l *UserLevel) *LevelSummary {
	return &LevelSummary{
		UserID:          l.UserID,
		CurrentLevel:    l.CurrentLevel,
		CurrentXP:       l.CurrentXP,
		TotalXPEarned:   l.TotalXPEarned,
		XPForNextLevel:  XPRequiredForLevel(l.CurrentLevel),
		ProgressPercent: ProgressPercent(l.CurrentLevel, l.CurrentXP),
	}
}
