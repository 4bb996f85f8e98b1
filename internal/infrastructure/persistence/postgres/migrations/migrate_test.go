package migrations

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestModelsTables(t *testing.T) {
	cache := &sync.Map{}
	var tables []string
	for _, model := range Models() {
		s, err := schema.Parse(model, cache, schema.NamingStrategy{})
		require.NoError(t, err)
		tables = append(tables, s.Table)
	}

	assert.Equal(t, []string{
		"user_levels",
		"xp_history",
		"habits",
		"habit_completions",
		"habit_streaks",
		"habit_analytics",
		"goals",
		"milestones",
		"goal_habits",
	}, tables)
}

func TestCompletionUniquePerDay(t *testing.T) {
	models := Models()
	s, err := schema.Parse(models[3], &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	idx := s.LookIndex("idx_habit_completion_day")
	require.NotNil(t, idx)
	assert.Equal(t, "UNIQUE", idx.Class)
	require.Len(t, idx.Fields, 2)
	assert.Equal(t, "habit_id", idx.Fields[0].DBName)
	assert.Equal(t, "completed_date", idx.Fields[1].DBName)
}
