package progression

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXPRequiredForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{level: 0, want: 100},
		{level: 1, want: 100},
		{level: 2, want: 150},
		{level: 3, want: 225},
		{level: 4, want: 338},
		{level: 5, want: 506},
		{level: 10, want: 3844},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, XPRequiredForLevel(tt.level), "level %d", tt.level)
	}
}

func TestXPRequiredForLevelIsIncreasing(t *testing.T) {
	for level := 1; level < 90; level++ {
		assert.Less(t, XPRequiredForLevel(level), XPRequiredForLevel(level+1), "level %d", level)
	}
	for level := 1; level <= 100; level++ {
		assert.Positive(t, XPRequiredForLevel(level), "level %d", level)
	}
	assert.Equal(t, math.MaxInt, XPRequiredForLevel(200))
}

func TestLevelTableStaysPositive(t *testing.T) {
	table := LevelTable(100)
	assert.Len(t, table, 100)
	for i := 1; i < len(table); i++ {
		assert.Positive(t, table[i].XPRequired, "level %d", table[i].Level)
		assert.Positive(t, table[i].CumulativeXP, "level %d", table[i].Level)
		assert.LessOrEqual(t, table[i-1].XPRequired, table[i].XPRequired)
		assert.LessOrEqual(t, table[i-1].CumulativeXP, table[i].CumulativeXP)
	}
}

func TestLevelTableNonPositive(t *testing.T) {
	assert.Empty(t, LevelTable(0))
	assert.NotPanics(t, func() { assert.Empty(t, LevelTable(-3)) })
}

func TestApplyXP(t *testing.T) {
	tests := []struct {
		name      string
		level     int
		xp        int
		amount    int
		wantLevel int
		wantXP    int
		leveledUp bool
	}{
		{name: "below threshold", level: 1, xp: 0, amount: 10, wantLevel: 1, wantXP: 10},
		{name: "exactly threshold", level: 1, xp: 0, amount: 100, wantLevel: 2, wantXP: 0, leveledUp: true},
		{name: "two level ups", level: 1, xp: 0, amount: 250, wantLevel: 3, wantXP: 0, leveledUp: true},
		{name: "carry surplus", level: 2, xp: 140, amount: 20, wantLevel: 3, wantXP: 10, leveledUp: true},
		{name: "invalid level starts at one", level: 0, xp: 0, amount: 50, wantLevel: 1, wantXP: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, xp, up := ApplyXP(tt.level, tt.xp, tt.amount)
			assert.Equal(t, tt.wantLevel, level)
			assert.Equal(t, tt.wantXP, xp)
			assert.Equal(t, tt.leveledUp, up)
		})
	}
}

func TestApplyXPKeepsXPBelowThreshold(t *testing.T) {
	level, xp := 1, 0
	for _, amount := range []int{10, 500, 1, 99, 1000, 37, 5000, 250} {
		level, xp, _ = ApplyXP(level, xp, amount)
		assert.Less(t, xp, XPRequiredForLevel(level))
	}
}

func TestLevelTable(t *testing.T) {
	table := LevelTable(3)

	assert.Equal(t, []LevelThreshold{
		{Level: 1, XPRequired: 100, CumulativeXP: 0},
		{Level: 2, XPRequired: 150, CumulativeXP: 100},
		{Level: 3, XPRequired: 225, CumulativeXP: 250},
	}, table)
	assert.Empty(t, LevelTable(0))
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, 0, ProgressPercent(1, 0))
	assert.Equal(t, 50, ProgressPercent(1, 50))
	assert.Equal(t, 33, ProgressPercent(2, 50))
}
