package league

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want StatValue
	}{
		{"nil", nil, StatValue{}},
		{"int", 7, StatValue{Number: 7, Valid: true}},
		{"float", 4.0, StatValue{Number: 4, Valid: true}},
		{"json number", json.Number("12"), StatValue{Number: 12, Valid: true}},
		{"percentage", "55%", StatValue{Number: 55, Valid: true}},
		{"percentage with space", "48 %", StatValue{Number: 48, Valid: true}},
		{"numeric string", "1.37", StatValue{Number: 1.37, Valid: true}},
		{"empty string", "", StatValue{}},
		{"malformed", "n/a", StatValue{Raw: "n/a"}},
		{"malformed percentage", "abc%", StatValue{Raw: "abc%"}},
		{"unsupported type", true, StatValue{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStatValue(tt.in))
		})
	}
}

func TestStatValueMalformedIsZero(t *testing.T) {
	v := ParseStatValue("unknown")
	assert.True(t, v.Present())
	assert.Zero(t, v.Num())
}

func TestStatKeyFor(t *testing.T) {
	key, ok := StatKeyFor("Shots insidebox")
	assert.True(t, ok)
	assert.Equal(t, StatShotsInsideBox, key)

	_, ok = StatKeyFor("Throw-ins")
	assert.False(t, ok)
}

func line(values map[string]any) StatLine {
	out := StatLine{Values: map[string]StatValue{}}
	for k, v := range values {
		out.Values[k] = ParseStatValue(v)
	}
	return out
}

func TestCalculatePressure(t *testing.T) {
	lines := []StatLine{
		line(map[string]any{StatShotsOnGoal: 6, StatShotsInsideBox: 9, StatCorners: 4, StatPossession: "60%"}),
		line(map[string]any{StatShotsOnGoal: 0, StatShotsInsideBox: 5, StatCorners: nil, StatPossession: "40%"}),
		line(map[string]any{StatShotsOnGoal: 3, StatCorners: 8, StatPossession: "broken"}),
	}

	p := CalculatePressure(5, lines)

	assert.Equal(t, 5, p.TeamID)
	assert.Equal(t, 3, p.GamesCount)
	assert.InDelta(t, 3.0, p.ShotsOnGoalAvg, 1e-9)
	assert.InDelta(t, 7.0, p.ShotsInsideBoxAvg, 1e-9)
	assert.InDelta(t, 6.0, p.CornersAvg, 1e-9)
	assert.InDelta(t, 50.0, p.PossessionAvg, 1e-9)
	// no observations at all
	assert.Zero(t, p.DangerousAttacksAvg)
}

func TestCalculatePressureEmpty(t *testing.T) {
	p := CalculatePressure(1, nil)
	assert.Equal(t, PressureSummary{TeamID: 1}, p)
}
