package ruleset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")

	yaml := `
meta:
  strategy_id: test
  version: v9
formation:
  min_goalkeepers: 1
  max_goalkeepers: 1
  min_defenders: 3
  max_defenders: 5
  min_midfielders: 2
  max_midfielders: 5
  min_forwards: 1
  max_forwards: 3
  total_players: 11
features:
  rolling_windows: [3, 5, 8]
  start_minutes: 60
minutes_model:
  learning_rate: 0.05
  epochs: 300
  l2: 0.001
  floor_start_prob: 0.05
points_model:
  learning_rate: 0.01
  epochs: 400
  l2: 0.001
  minutes_full_fit: 60
baseline:
  weights: [0.40, 0.35, 0.25]
  home_bonus: 0.10
  easy_fixture_bonus: 0.10
  hard_fixture_penalty: 0.10
backtest:
  min_rounds: 3
  overlap_threshold: 9
  ratio_threshold: 0.85
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	rules, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "v9", rules.Meta.Version)
	assert.Equal(t, []int{3, 5, 8}, rules.Features.RollingWindows)
	assert.Equal(t, 11, rules.Formation.TotalPlayers)
	assert.Equal(t, 60, rules.Points.MinutesFullFit)
}

func TestLoad_UnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")

	yaml := `
meta:
  strategy_id: test
  version: v1
  typo_field: oops
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := Load(path)
	assert.Error(t, err, "unknown fields must be rejected")
}

func TestLoadOrDefault_Missing(t *testing.T) {
	rules, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Formation, rules.Formation)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Rules)
		wantErr bool
	}{
		{"defaults are valid", func(r *Rules) {}, false},
		{"no windows", func(r *Rules) { r.Features.RollingWindows = nil }, true},
		{"descending windows", func(r *Rules) { r.Features.RollingWindows = []int{5, 3} }, true},
		{"baseline weights off", func(r *Rules) { r.Baseline.Weights = []float64{0.9, 0.35, 0.25} }, true},
		{"fewer weights than windows", func(r *Rules) { r.Baseline.Weights = []float64{0.5, 0.5} }, true},
		{"zero start minutes", func(r *Rules) { r.Features.StartMinutes = 0 }, true},
		{"zero min rounds", func(r *Rules) { r.Backtest.MinRounds = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := Default()
			tt.mutate(rules)
			err := Validate(rules)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHash_Deterministic(t *testing.T) {
	h1, err := Hash(Default())
	require.NoError(t, err)
	h2, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	changed := Default()
	changed.Backtest.MinRounds = 5
	h3, err := Hash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}
