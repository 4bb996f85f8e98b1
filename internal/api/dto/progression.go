package dto

import "github.com/Solomon-TC/The-Habit-Hero/internal/domain/progression"

const (
	DefaultLevelTableSize = 20
	MaxLevelTableSize     = 100
)

type XPHistoryQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=500"`
}

type LevelTableQuery struct {
	Levels int `form:"levels" validate:"omitempty,min=1,max=100"`
}

type XPHistoryResponse struct {
	Entries []progression.XPHistory `json:"entries"`
	Count   int                     `json:"count"`
}

type LevelTableResponse struct {
	Levels []progression.LevelThreshold `json:"levels"`
}
