package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
	assert.Len(t, cfg.Ladder, len(Default().Ladder))
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9001"
session:
  time_budget_sec: 120
  max_lives: 5
  correct_points: 7
  node_bonus: 11
ladder:
  - id: 1
    name: ONLY_NODE
    required_hacks: 1
puzzles:
  1:
    - prompt: "p"
      intel: "i"
      answer: "a"
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9001", cfg.Server.Port)
	assert.Equal(t, 120, cfg.Session.TimeBudgetSec)
	assert.Equal(t, 5, cfg.Session.MaxLives)
	require.Len(t, cfg.Ladder, 1)
	assert.Equal(t, "ONLY_NODE", cfg.Ladder[0].Name)
	require.Len(t, cfg.Puzzles[1], 1)
	assert.Equal(t, "a", cfg.Puzzles[1][0].Answer)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GHOSTNET_PORT", "7777")
	t.Setenv("GHOSTNET_TIME_BUDGET_SEC", "60")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "7777", cfg.Server.Port)
	assert.Equal(t, 60, cfg.Session.TimeBudgetSec)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:    "empty ladder",
			mutate:  func(cfg *Config) { cfg.Ladder = nil },
			wantErr: "at least one node",
		},
		{
			name:    "non-positive required_hacks",
			mutate:  func(cfg *Config) { cfg.Ladder[0].RequiredHacks = 0 },
			wantErr: "required_hacks",
		},
		{
			name:    "duplicate node id",
			mutate:  func(cfg *Config) { cfg.Ladder[1].ID = cfg.Ladder[0].ID },
			wantErr: "duplicate id",
		},
		{
			name:    "node without puzzles",
			mutate:  func(cfg *Config) { delete(cfg.Puzzles, cfg.Ladder[0].ID) },
			wantErr: "no puzzles",
		},
		{
			name: "puzzle with both answer and rule",
			mutate: func(cfg *Config) {
				cfg.Puzzles[cfg.Ladder[0].ID][0].Rule = "true"
			},
			wantErr: "exactly one of answer or rule",
		},
		{
			name:    "non-positive time budget",
			mutate:  func(cfg *Config) { cfg.Session.TimeBudgetSec = 0 },
			wantErr: "time budget",
		},
		{
			name:    "non-positive lives",
			mutate:  func(cfg *Config) { cfg.Session.MaxLives = -1 },
			wantErr: "lives",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
