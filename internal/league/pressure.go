package league

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Canonical statistic keys.
const (
	StatShotsOnGoal      = "shots_on_goal"
	StatShotsOffGoal     = "shots_off_goal"
	StatTotalShots       = "total_shots"
	StatBlockedShots     = "blocked_shots"
	StatShotsInsideBox   = "shots_insidebox"
	StatShotsOutsideBox  = "shots_outsidebox"
	StatPossession       = "ball_possession"
	StatTotalPasses      = "total_passes"
	StatPassesAccurate   = "passes_accurate"
	StatPassesPercentage = "passes_percentage"
	StatCorners          = "corner_kicks"
	StatOffsides         = "offsides"
	StatFouls            = "fouls"
	StatYellowCards      = "yellow_cards"
	StatRedCards         = "red_cards"
	StatGoalkeeperSaves  = "goalkeeper_saves"
	StatExpectedGoals    = "expected_goals"
	StatAttacks          = "attacks"
	StatDangerousAttacks = "dangerous_attacks"
)

var statLabels = map[string]string{
	"Shots on Goal":     StatShotsOnGoal,
	"Shots off Goal":    StatShotsOffGoal,
	"Total Shots":       StatTotalShots,
	"Blocked Shots":     StatBlockedShots,
	"Shots insidebox":   StatShotsInsideBox,
	"Shots outsidebox":  StatShotsOutsideBox,
	"Ball Possession":   StatPossession,
	"Total passes":      StatTotalPasses,
	"Passes accurate":   StatPassesAccurate,
	"Passes %":          StatPassesPercentage,
	"Corner Kicks":      StatCorners,
	"Offsides":          StatOffsides,
	"Fouls":             StatFouls,
	"Yellow Cards":      StatYellowCards,
	"Red Cards":         StatRedCards,
	"Goalkeeper Saves":  StatGoalkeeperSaves,
	"expected_goals":    StatExpectedGoals,
	"Attacks":           StatAttacks,
	"Dangerous Attacks": StatDangerousAttacks,
}

// StatKeyFor maps a provider statistic label to its canonical key.
func StatKeyFor(label string) (string, bool) {
	key, ok := statLabels[label]
	return key, ok
}

// StatValue is a normalised statistic. Valid is false for absent values and
// for values that could not be read as a number; Raw keeps the original text
// of the latter.
type StatValue struct {
	Number float64 `json:"number"`
	Raw    string  `json:"raw,omitempty"`
	Valid  bool    `json:"valid"`
}

// Num returns the numeric value, or 0 when the value is not usable.
func (v StatValue) Num() float64 {
	if !v.Valid {
		return 0
	}
	return v.Number
}

// Present reports whether the provider sent anything at all.
func (v StatValue) Present() bool {
	return v.Valid || v.Raw != ""
}

// ParseStatValue normalises a provider value: nil is absent, numbers are kept,
// "NN%" strings become NN, numeric strings are parsed and anything else is
// passed through in Raw.
func ParseStatValue(v any) StatValue {
	switch x := v.(type) {
	case nil:
		return StatValue{}
	case int:
		return StatValue{Number: float64(x), Valid: true}
	case int64:
		return StatValue{Number: float64(x), Valid: true}
	case float64:
		return StatValue{Number: x, Valid: true}
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return StatValue{Number: f, Valid: true}
		}
		return StatValue{Raw: x.String()}
	case string:
		return parseStatString(x)
	default:
		return StatValue{}
	}
}

func parseStatString(s string) StatValue {
	s = strings.TrimSpace(s)
	if s == "" {
		return StatValue{}
	}
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(pct)); err == nil {
			return StatValue{Number: float64(n), Valid: true}
		}
		return StatValue{Raw: s}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return StatValue{Number: f, Valid: true}
	}
	return StatValue{Raw: s}
}

type runningMean struct {
	sum float64
	n   int
}

func (r *runningMean) add(v StatValue) {
	if !v.Valid {
		return
	}
	r.sum += v.Number
	r.n++
}

func (r runningMean) value() float64 {
	if r.n == 0 {
		return 0
	}
	return r.sum / float64(r.n)
}

// CalculatePressure averages the attacking statistics of one team. Each field
// is averaged over the lines that carry a usable value for it; GamesCount is
// the number of lines.
func CalculatePressure(teamID int, lines []StatLine) PressureSummary {
	var shots, inside, corners, possession, dangerous runningMean

	for _, l := range lines {
		shots.add(l.Values[StatShotsOnGoal])
		inside.add(l.Values[StatShotsInsideBox])
		corners.add(l.Values[StatCorners])
		possession.add(l.Values[StatPossession])
		dangerous.add(l.Values[StatDangerousAttacks])
	}

	return PressureSummary{
		TeamID:              teamID,
		ShotsOnGoalAvg:      shots.value(),
		ShotsInsideBoxAvg:   inside.value(),
		CornersAvg:          corners.value(),
		PossessionAvg:       possession.value(),
		DangerousAttacksAvg: dangerous.value(),
		GamesCount:          len(lines),
	}
}
