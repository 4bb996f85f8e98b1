package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/progression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriteLevelTableText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLevelTable(&buf, progression.LevelTable(3), "table"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "LEVEL")
	assert.Equal(t, []string{"1", "100", "0"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2", "150", "100"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"3", "225", "250"}, strings.Fields(lines[3]))
}

func TestWriteLevelTableYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLevelTable(&buf, progression.LevelTable(2), "yaml"))

	var decoded struct {
		Levels []struct {
			Level        int `yaml:"level"`
			XPRequired   int `yaml:"xp_required"`
			CumulativeXP int `yaml:"cumulative_xp"`
		} `yaml:"levels"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Levels, 2)
	assert.Equal(t, 2, decoded.Levels[1].Level)
	assert.Equal(t, 150, decoded.Levels[1].XPRequired)
	assert.Equal(t, 100, decoded.Levels[1].CumulativeXP)
}

func TestAwardInput(t *testing.T) {
	tests := []struct {
		name    string
		cmd     AwardCmd
		wantErr string
	}{
		{
			name: "valid",
			cmd:  AwardCmd{User: "6f1c2d4e-0000-4000-8000-000000000001", Amount: 25, Source: "goal", SourceID: "6f1c2d4e-0000-4000-8000-000000000002"},
		},
		{
			name:    "bad user",
			cmd:     AwardCmd{User: "nope", Amount: 25, Source: "habit"},
			wantErr: "--user",
		},
		{
			name:    "bad source id",
			cmd:     AwardCmd{User: "6f1c2d4e-0000-4000-8000-000000000001", Amount: 25, Source: "habit", SourceID: "x"},
			wantErr: "--source-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := tt.cmd.input()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 25, input.Amount)
			assert.Equal(t, progression.SourceKind("goal"), input.SourceType)
		})
	}
}
