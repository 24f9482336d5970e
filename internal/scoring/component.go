package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/utakatalp/goal-forecaster/internal/league"
)

const (
	h2hSmallSample   = 3
	h2hPenalty       = 0.7
	formSmallSample  = 5
	formPenalty      = 0.8
	minPressureGames = 3
	minMinuteGoals   = 5
	maxScore         = 100
)

// ComponentScore is a 0-100 sub-score with the figures that produced it.
type ComponentScore struct {
	Value       float64 `json:"value"`
	Explanation string  `json:"explanation"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// outcome picks the market's count and percentage out of a form summary.
func (m Market) outcome(f league.TeamForm) (int, float64) {
	if m == MarketOver15 {
		return f.GamesOver15, f.Over15Percentage
	}
	return f.GamesWithFirstHalfGoal, f.FirstHalfGoalPercentage
}

// H2HScore scores the meetings between the two teams for a market.
func H2HScore(m Market, h league.HeadToHead) ComponentScore {
	total := h.TotalMatches()
	if total == 0 {
		return ComponentScore{Explanation: "No head-to-head history"}
	}

	count, pct := m.outcome(h.TeamForm)
	score := pct
	exp := fmt.Sprintf("Last %d meetings: %d with %s (%.1f%%)", total, count, m.Event(), pct)
	if total < h2hSmallSample {
		score *= h2hPenalty
		exp += fmt.Sprintf(", small sample x%.1f", h2hPenalty)
	}
	return ComponentScore{Value: round2(score), Explanation: exp}
}

// FormScore scores one team's recent matches for a market.
func FormScore(m Market, f league.TeamForm) ComponentScore {
	if f.GamesPlayed == 0 {
		return ComponentScore{Explanation: "No recent form data"}
	}

	count, pct := m.outcome(f)
	score := pct
	exp := fmt.Sprintf("Last %d games: %d with %s (%.1f%%)", f.GamesPlayed, count, m.Event(), pct)
	if f.GamesPlayed < formSmallSample {
		score *= formPenalty
		exp += fmt.Sprintf(", small sample x%.1f", formPenalty)
	}
	return ComponentScore{Value: round2(score), Explanation: exp}
}

// PressureScore sums the tiered contributions of a team's attacking averages.
func PressureScore(p league.PressureSummary) ComponentScore {
	if p.GamesCount < minPressureGames {
		return ComponentScore{
			Explanation: fmt.Sprintf("Insufficient pressure data (%d games, need %d)", p.GamesCount, minPressureGames),
		}
	}

	parts := []struct {
		name  string
		value float64
		unit  string
		tiers TierTable
	}{
		{"shots on goal", p.ShotsOnGoalAvg, "/game", ShotsOnGoalTiers},
		{"shots inside box", p.ShotsInsideBoxAvg, "/game", ShotsInsideBoxTiers},
		{"corners", p.CornersAvg, "/game", CornerTiers},
		{"possession", p.PossessionAvg, "%", PossessionTiers},
		{"dangerous attacks", p.DangerousAttacksAvg, "/game", DangerousAttackTiers},
	}

	var score float64
	details := make([]string, 0, len(parts))
	for _, part := range parts {
		tier, _ := part.tiers.Lookup(part.value)
		score += tier.Points
		d := fmt.Sprintf("%s %.1f%s (+%.0f)", part.name, part.value, part.unit, tier.Points)
		if tier.Label != "" {
			d += " " + tier.Label
		}
		details = append(details, d)
	}

	return ComponentScore{
		Value:       math.Min(score, maxScore),
		Explanation: fmt.Sprintf("Pressure over %d games: %s", p.GamesCount, strings.Join(details, "; ")),
	}
}

// MinuteScore scores how much of a team's scoring happens before the break.
func MinuteScore(d *league.MinuteDistribution) ComponentScore {
	total := 0
	if d != nil {
		total = d.Total
	}
	if total < minMinuteGoals {
		return ComponentScore{
			Explanation: fmt.Sprintf("Insufficient goal timing data (%d goals, need %d)", total, minMinuteGoals),
		}
	}

	tier, _ := FirstHalfShareTiers.Lookup(d.FirstHalfPercentage)
	return ComponentScore{
		Value: tier.Points,
		Explanation: fmt.Sprintf("%s first-half tendency (%.1f%% of %d goals)",
			tier.Label, d.FirstHalfPercentage, d.Total),
	}
}

// matchScore averages a home and an away score into one match-level figure.
func matchScore(home, away ComponentScore) ComponentScore {
	return ComponentScore{
		Value:       round2((home.Value + away.Value) / 2),
		Explanation: fmt.Sprintf("Home: %s | Away: %s", home.Explanation, away.Explanation),
	}
}
