package scoring

import (
	"fmt"
	"math"
)

// Market is one of the two predicted betting markets.
type Market string

const (
	MarketFirstHalfGoal Market = "first_half_goal"
	MarketOver15        Market = "over15"
)

// Title is the heading used in reports.
func (m Market) Title() string {
	if m == MarketOver15 {
		return "OVER 1.5 FT (2+ goals in the match)"
	}
	return "OVER 0.5 HT (goal in the first half)"
}

// Event describes what has to happen for the market to land.
func (m Market) Event() string {
	if m == MarketOver15 {
		return "2+ goals"
	}
	return "a first-half goal"
}

// Component names one of the five sub-scores.
type Component string

const (
	ComponentH2H      Component = "direct_confrontations"
	ComponentHomeForm Component = "home_team_form"
	ComponentAwayForm Component = "away_team_form"
	ComponentPressure Component = "offensive_pressure"
	ComponentMinutes  Component = "minute_distribution"
)

var componentTitles = map[Component]string{
	ComponentH2H:      "Direct confrontations",
	ComponentHomeForm: "Home team form",
	ComponentAwayForm: "Away team form",
	ComponentPressure: "Offensive pressure",
	ComponentMinutes:  "Minute distribution",
}

// Title is the human readable component name.
func (c Component) Title() string {
	if t, ok := componentTitles[c]; ok {
		return t
	}
	return string(c)
}

func (c Component) known() bool {
	_, ok := componentTitles[c]
	return ok
}

// Weight is one component's share of a market's final score.
type Weight struct {
	Component Component `yaml:"component" json:"component"`
	Weight    float64   `yaml:"weight" json:"weight"`
}

// MarketProfile lists the components a market uses, in report order.
// Components that are not listed take no part in the market.
type MarketProfile struct {
	Market  Market   `yaml:"-" json:"market"`
	Weights []Weight `yaml:"weights" json:"weights"`
}

// Sum is the total of the profile's weights.
func (p MarketProfile) Sum() float64 {
	var s float64
	for _, w := range p.Weights {
		s += w.Weight
	}
	return s
}

func (p MarketProfile) validate() error {
	if len(p.Weights) == 0 {
		return fmt.Errorf("market %s has no weights", p.Market)
	}
	seen := make(map[Component]bool, len(p.Weights))
	for _, w := range p.Weights {
		if !w.Component.known() {
			return fmt.Errorf("market %s: unknown component %q", p.Market, w.Component)
		}
		if seen[w.Component] {
			return fmt.Errorf("market %s: component %s listed twice", p.Market, w.Component)
		}
		seen[w.Component] = true
		if w.Weight < 0 || w.Weight > 1 {
			return fmt.Errorf("market %s: weight for %s must be between 0 and 1, got %f", p.Market, w.Component, w.Weight)
		}
	}
	if sum := p.Sum(); math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("market %s: weights must sum to 1.0, got %f", p.Market, sum)
	}
	return nil
}

// Confidence is the band a final score falls in.
type Confidence string

const (
	ConfidenceHigh    Confidence = "HIGH"
	ConfidenceMedium  Confidence = "MEDIUM"
	ConfidenceLow     Confidence = "LOW"
	ConfidenceVeryLow Confidence = "VERY LOW"
)

// Recommendation is the ternary call derived from the band.
type Recommendation string

const (
	RecommendYes   Recommendation = "YES"
	RecommendMaybe Recommendation = "MAYBE"
	RecommendNo    Recommendation = "NO"
)

// Thresholds are the band cut-offs as fractions of 100.
type Thresholds struct {
	High   float64 `yaml:"high" json:"high"`
	Medium float64 `yaml:"medium" json:"medium"`
	Low    float64 `yaml:"low" json:"low"`
}

func (t Thresholds) validate() error {
	if t.Low <= 0 || t.High > 1 || t.Low > t.Medium || t.Medium > t.High {
		return fmt.Errorf("thresholds must satisfy 0 < low <= medium <= high <= 1, got %.2f/%.2f/%.2f", t.Low, t.Medium, t.High)
	}
	return nil
}

// Band maps a final score to its confidence and recommendation.
func (t Thresholds) Band(score float64) (Confidence, Recommendation) {
	switch {
	case score >= round2(t.High*100):
		return ConfidenceHigh, RecommendYes
	case score >= round2(t.Medium*100):
		return ConfidenceMedium, RecommendMaybe
	case score >= round2(t.Low*100):
		return ConfidenceLow, RecommendMaybe
	default:
		return ConfidenceVeryLow, RecommendNo
	}
}

// WeightedScore is a component score as it entered a market.
type WeightedScore struct {
	Component   Component `json:"component"`
	Weight      float64   `json:"weight"`
	Score       float64   `json:"score"`
	Explanation string    `json:"explanation"`
}

// MarketResult is the outcome of one market.
type MarketResult struct {
	Market         Market          `json:"market"`
	Score          float64         `json:"score"`
	Confidence     Confidence      `json:"confidence"`
	Recommendation Recommendation  `json:"recommendation"`
	Components     []WeightedScore `json:"components"`
}

// Component returns the named component score, if the market used it.
func (r MarketResult) Component(c Component) (WeightedScore, bool) {
	for _, ws := range r.Components {
		if ws.Component == c {
			return ws, true
		}
	}
	return WeightedScore{}, false
}

// Combine weighs the available component scores by the market profile and
// bands the result. Components missing from scores count as 0.
func Combine(p MarketProfile, t Thresholds, scores map[Component]ComponentScore) MarketResult {
	res := MarketResult{
		Market:     p.Market,
		Components: make([]WeightedScore, 0, len(p.Weights)),
	}

	var final float64
	for _, w := range p.Weights {
		cs := scores[w.Component]
		final += cs.Value * w.Weight
		res.Components = append(res.Components, WeightedScore{
			Component:   w.Component,
			Weight:      w.Weight,
			Score:       cs.Value,
			Explanation: cs.Explanation,
		})
	}

	res.Score = round2(final)
	res.Confidence, res.Recommendation = t.Band(res.Score)
	return res
}

// Grade reports whether a recommendation was right given whether the market
// landed. MAYBE is never graded.
func Grade(r Recommendation, landed bool) (correct, graded bool) {
	switch r {
	case RecommendYes:
		return landed, true
	case RecommendNo:
		return !landed, true
	default:
		return false, false
	}
}
