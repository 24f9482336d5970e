package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/utakatalp/goal-forecaster/internal/league"
)

func TestTierBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		table TierTable
		value float64
		want  float64
	}{
		{"shots on goal at 5", ShotsOnGoalTiers, 5, 30},
		{"shots on goal just below 5", ShotsOnGoalTiers, 4.99, 20},
		{"shots on goal at 3", ShotsOnGoalTiers, 3, 20},
		{"shots on goal at 1", ShotsOnGoalTiers, 1, 10},
		{"shots on goal below 1", ShotsOnGoalTiers, 0.99, 0},
		{"inside box at 8", ShotsInsideBoxTiers, 8, 25},
		{"inside box at 5", ShotsInsideBoxTiers, 5, 15},
		{"inside box at 3", ShotsInsideBoxTiers, 3, 8},
		{"inside box below 3", ShotsInsideBoxTiers, 2.9, 0},
		{"corners at 5", CornerTiers, 5, 20},
		{"corners at 3", CornerTiers, 3, 12},
		{"corners at 1", CornerTiers, 1, 5},
		{"possession at 60", PossessionTiers, 60, 15},
		{"possession at 50", PossessionTiers, 50, 8},
		{"possession at 40", PossessionTiers, 40, 3},
		{"possession below 40", PossessionTiers, 39.9, 0},
		{"dangerous attacks at 40", DangerousAttackTiers, 40, 10},
		{"dangerous attacks at 30", DangerousAttackTiers, 30, 6},
		{"dangerous attacks at 20", DangerousAttackTiers, 20, 3},
		{"first half share at 45", FirstHalfShareTiers, 45, 100},
		{"first half share at 44.9", FirstHalfShareTiers, 44.9, 85},
		{"first half share at 30", FirstHalfShareTiers, 30, 55},
		{"first half share at 0", FirstHalfShareTiers, 0, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.table.Points(tt.value)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func h2h(total, fhGames, over15 int) league.HeadToHead {
	f := league.TeamForm{GamesPlayed: total, GamesWithFirstHalfGoal: fhGames, GamesOver15: over15}
	if total > 0 {
		f.FirstHalfGoalPercentage = float64(fhGames) / float64(total) * 100
		f.Over15Percentage = float64(over15) / float64(total) * 100
	}
	return league.HeadToHead{TeamForm: f}
}

func TestH2HScore(t *testing.T) {
	tests := []struct {
		name   string
		market Market
		in     league.HeadToHead
		want   float64
	}{
		{"no history", MarketFirstHalfGoal, h2h(0, 0, 0), 0},
		{"small sample penalised", MarketFirstHalfGoal, h2h(2, 2, 0), 70},
		{"three meetings not penalised", MarketFirstHalfGoal, h2h(3, 3, 0), 100},
		{"over 1.5 uses its own percentage", MarketOver15, h2h(4, 4, 2), 50},
		{"over 1.5 small sample", MarketOver15, h2h(1, 0, 1), 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := H2HScore(tt.market, tt.in)
			assert.Equal(t, tt.want, got.Value)
			assert.NotEmpty(t, got.Explanation)
		})
	}
}

func TestH2HScoreExplanationRestatesFigures(t *testing.T) {
	got := H2HScore(MarketFirstHalfGoal, h2h(5, 4, 4))
	assert.Equal(t, 80.0, got.Value)
	assert.Equal(t, "Last 5 meetings: 4 with a first-half goal (80.0%)", got.Explanation)
}

func TestFormScore(t *testing.T) {
	tests := []struct {
		name   string
		market Market
		form   league.TeamForm
		want   float64
	}{
		{"no games", MarketFirstHalfGoal, league.TeamForm{}, 0},
		{"four games penalised", MarketFirstHalfGoal, league.TeamForm{GamesPlayed: 4, GamesWithFirstHalfGoal: 3, FirstHalfGoalPercentage: 75}, 60},
		{"five games", MarketFirstHalfGoal, league.TeamForm{GamesPlayed: 5, GamesWithFirstHalfGoal: 3, FirstHalfGoalPercentage: 60}, 60},
		{"over 1.5", MarketOver15, league.TeamForm{GamesPlayed: 10, GamesOver15: 7, Over15Percentage: 70}, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormScore(tt.market, tt.form).Value)
		})
	}
}

func TestPressureScore(t *testing.T) {
	t.Run("insufficient games", func(t *testing.T) {
		got := PressureScore(league.PressureSummary{GamesCount: 2, ShotsOnGoalAvg: 9})
		assert.Zero(t, got.Value)
		assert.Contains(t, got.Explanation, "Insufficient")
	})

	t.Run("every top tier", func(t *testing.T) {
		got := PressureScore(league.PressureSummary{
			GamesCount:          3,
			ShotsOnGoalAvg:      5,
			ShotsInsideBoxAvg:   8,
			CornersAvg:          5,
			PossessionAvg:       60,
			DangerousAttacksAvg: 40,
		})
		assert.Equal(t, 100.0, got.Value)
	})

	t.Run("mixed tiers", func(t *testing.T) {
		got := PressureScore(league.PressureSummary{
			GamesCount:        10,
			ShotsOnGoalAvg:    5.5,
			ShotsInsideBoxAvg: 8.2,
			CornersAvg:        6.1,
			PossessionAvg:     58,
		})
		// 30 + 25 + 20 + 8 + 0
		assert.Equal(t, 83.0, got.Value)
		assert.Contains(t, got.Explanation, "shots on goal 5.5/game (+30)")
		assert.Contains(t, got.Explanation, "possession 58.0% (+8)")
	})
}

func TestMinuteScore(t *testing.T) {
	dist := func(total int, pct float64) *league.MinuteDistribution {
		return &league.MinuteDistribution{Total: total, FirstHalfPercentage: pct}
	}

	tests := []struct {
		name string
		in   *league.MinuteDistribution
		want float64
	}{
		{"absent", nil, 0},
		{"four goals", dist(4, 100), 0},
		{"exactly 45", dist(5, 45.0), 100},
		{"just below 45", dist(5, 44.9), 85},
		{"very low", dist(20, 10), 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MinuteScore(tt.in).Value)
		})
	}
}

func TestMatchScoreAveragesSides(t *testing.T) {
	got := matchScore(ComponentScore{Value: 83, Explanation: "a"}, ComponentScore{Value: 60, Explanation: "b"})
	assert.Equal(t, 71.5, got.Value)
	assert.Equal(t, "Home: a | Away: b", got.Explanation)
}
