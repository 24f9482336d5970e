package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/goal-forecaster/internal/scoring"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "DB_DRIVER", "LEAGUES", "CACHE_EXPIRY_HOURS", "API_REQUESTS_PER_MINUTE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 300, cfg.ProviderRequestsPerMin)
	assert.Equal(t, []int{78, 61, 253, 88, 39, 94, 307}, cfg.Leagues)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("LEAGUES", "94, 39,bogus")
	t.Setenv("CACHE_EXPIRY_HOURS", "6")
	t.Setenv("RECENT_FORM_GAMES", "not-a-number")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, []int{94, 39}, cfg.Leagues)
	assert.Equal(t, 6*time.Hour, cfg.CacheTTL)
	assert.Zero(t, cfg.FormGames)
}

func TestLoadScoringDefaults(t *testing.T) {
	cfg, err := LoadScoring("")
	require.NoError(t, err)
	assert.Equal(t, scoring.DefaultConfig(), cfg)
}

func TestLoadScoringBundledProfile(t *testing.T) {
	cfg, err := LoadScoring("scoring.yaml")
	require.NoError(t, err)
	assert.Equal(t, scoring.DefaultConfig(), cfg)
}

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadScoringOverrides(t *testing.T) {
	path := writeProfile(t, `
over15:
  weights:
    - component: direct_confrontations
      weight: 0.5
    - component: home_team_form
      weight: 0.25
    - component: away_team_form
      weight: 0.25
thresholds:
  high: 0.8
  medium: 0.6
  low: 0.4
`)

	cfg, err := LoadScoring(path)
	require.NoError(t, err)

	assert.Len(t, cfg.Over15.Weights, 3)
	assert.Equal(t, scoring.MarketOver15, cfg.Over15.Market)
	assert.Equal(t, 0.8, cfg.Thresholds.High)
	// untouched keys keep their defaults
	assert.Equal(t, scoring.DefaultConfig().FirstHalfGoal, cfg.FirstHalfGoal)
	assert.Equal(t, 3, cfg.LookbackYears)
}

func TestLoadScoringRejectsBadWeights(t *testing.T) {
	path := writeProfile(t, `
first_half_goal:
  weights:
    - component: direct_confrontations
      weight: 0.9
`)

	_, err := LoadScoring(path)
	assert.ErrorContains(t, err, "sum to 1.0")
}

func TestLoadScoringMissingFile(t *testing.T) {
	_, err := LoadScoring(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestScoringAppliesWindowOverrides(t *testing.T) {
	c := &Config{LookbackYears: 5, FormGames: 6}
	cfg, err := c.Scoring()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.LookbackYears)
	assert.Equal(t, 6, cfg.FormGames)
}
