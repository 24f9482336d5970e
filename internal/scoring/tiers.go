package scoring

import "math"

// Tier awards Points to any value at or above Min.
type Tier struct {
	Min    float64
	Points float64
	Label  string
}

// TierTable is ordered from the highest threshold down. The first tier whose
// Min is reached wins; a value below every tier scores zero.
type TierTable []Tier

// Lookup returns the tier that v falls in and whether one matched.
func (t TierTable) Lookup(v float64) (Tier, bool) {
	for _, tier := range t {
		if v >= tier.Min {
			return tier, true
		}
	}
	return Tier{}, false
}

// Points returns the points awarded to v.
func (t TierTable) Points(v float64) float64 {
	tier, _ := t.Lookup(v)
	return tier.Points
}

var (
	ShotsOnGoalTiers = TierTable{
		{Min: 5, Points: 30, Label: "excellent finishing"},
		{Min: 3, Points: 20, Label: "good finishing"},
		{Min: 1, Points: 10, Label: "moderate finishing"},
	}
	ShotsInsideBoxTiers = TierTable{
		{Min: 8, Points: 25},
		{Min: 5, Points: 15},
		{Min: 3, Points: 8},
	}
	CornerTiers = TierTable{
		{Min: 5, Points: 20, Label: "territorial dominance"},
		{Min: 3, Points: 12},
		{Min: 1, Points: 5},
	}
	PossessionTiers = TierTable{
		{Min: 60, Points: 15, Label: "controls the game"},
		{Min: 50, Points: 8},
		{Min: 40, Points: 3},
	}
	DangerousAttackTiers = TierTable{
		{Min: 40, Points: 10},
		{Min: 30, Points: 6},
		{Min: 20, Points: 3},
	}

	// FirstHalfShareTiers maps the share of goals scored before the break.
	FirstHalfShareTiers = TierTable{
		{Min: 45, Points: 100, Label: "Very high"},
		{Min: 40, Points: 85, Label: "High"},
		{Min: 35, Points: 70, Label: "Good"},
		{Min: 30, Points: 55, Label: "Moderate"},
		{Min: 25, Points: 40, Label: "Low"},
		{Min: math.Inf(-1), Points: 25, Label: "Very low"},
	}
)
