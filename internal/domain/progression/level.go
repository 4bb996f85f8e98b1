package progression

import "math"

const (
	baseLevelXP   = 100.0
	levelXPGrowth = 1.5
)

// XPRequiredForLevel is the XP needed to advance from level to level+1.
// Levels below 1 are treated as level 1. The result saturates at math.MaxInt.
func XPRequiredForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	required := math.Round(baseLevelXP * math.Pow(levelXPGrowth, float64(level-1)))
	if required >= math.MaxInt {
		return math.MaxInt
	}
	return int(required)
}

func saturatingAdd(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// ApplyXP adds amount to the XP held within level and rolls the surplus over
// into as many level-ups as it pays for. The returned xp is always below the
// threshold of the returned level.
func ApplyXP(level, xp, amount int) (newLevel, newXP int, leveledUp bool) {
	if level < 1 {
		level = 1
	}
	newLevel, newXP = level, xp+amount
	for newXP >= XPRequiredForLevel(newLevel) {
		newXP -= XPRequiredForLevel(newLevel)
		newLevel++
	}
	return newLevel, newXP, newLevel > level
}

// ProgressPercent is how far through its level a user is, rounded to a whole percent.
func ProgressPercent(level, xp int) int {
	return int(math.Round(float64(xp) / float64(XPRequiredForLevel(level)) * 100))
}

// LevelThreshold is one row of the level curve.
type LevelThreshold struct {
	Level        int `json:"level" yaml:"level"`
	XPRequired   int `json:"xp_required" yaml:"xp_required"`
	CumulativeXP int `json:"cumulative_xp" yaml:"cumulative_xp"`
}

// LevelTable lists thresholds for levels 1..n. CumulativeXP is the lifetime XP
// needed to reach the level and saturates at math.MaxInt.
func LevelTable(n int) []LevelThreshold {
	if n <= 0 {
		return []LevelThreshold{}
	}
	table := make([]LevelThreshold, 0, n)
	cumulative := 0
	for level := 1; level <= n; level++ {
		table = append(table, LevelThreshold{
			Level:        level,
			XPRequired:   XPRequiredForLevel(level),
			CumulativeXP: cumulative,
		})
		cumulative = saturatingAdd(cumulative, XPRequiredForLevel(level))
	}
	return table
}
