package scoring

import (
	"fmt"

	"github.com/utakatalp/goal-forecaster/internal/league"
)

// Config holds every tunable of the engine and its callers.
type Config struct {
	FirstHalfGoal MarketProfile `yaml:"first_half_goal" json:"first_half_goal"`
	Over15        MarketProfile `yaml:"over15" json:"over15"`
	Thresholds    Thresholds    `yaml:"thresholds" json:"thresholds"`

	// Input windows, applied by whoever gathers the engine input.
	LookbackYears int `yaml:"lookback_years" json:"lookback_years"`
	FormGames     int `yaml:"form_games" json:"form_games"`
}

// DefaultConfig returns the standard profiles and thresholds.
func DefaultConfig() Config {
	return Config{
		FirstHalfGoal: MarketProfile{
			Market: MarketFirstHalfGoal,
			Weights: []Weight{
				{Component: ComponentH2H, Weight: 0.25},
				{Component: ComponentHomeForm, Weight: 0.20},
				{Component: ComponentAwayForm, Weight: 0.20},
				{Component: ComponentPressure, Weight: 0.20},
				{Component: ComponentMinutes, Weight: 0.15},
			},
		},
		Over15: MarketProfile{
			Market: MarketOver15,
			Weights: []Weight{
				{Component: ComponentH2H, Weight: 0.30},
				{Component: ComponentHomeForm, Weight: 0.25},
				{Component: ComponentAwayForm, Weight: 0.25},
				{Component: ComponentPressure, Weight: 0.20},
			},
		},
		Thresholds: Thresholds{
			High:   0.75,
			Medium: 0.60,
			Low:    0.45,
		},
		LookbackYears: 3,
		FormGames:     10,
	}
}

// Validate checks that every profile sums to 1.0 and the thresholds are ordered.
func (c Config) Validate() error {
	for _, p := range c.Profiles() {
		if err := p.validate(); err != nil {
			return err
		}
	}
	if err := c.Thresholds.validate(); err != nil {
		return err
	}
	if c.LookbackYears < 1 {
		return fmt.Errorf("lookback_years must be at least 1, got %d", c.LookbackYears)
	}
	if c.FormGames < 1 {
		return fmt.Errorf("form_games must be at least 1, got %d", c.FormGames)
	}
	return nil
}

// Profiles returns the market profiles in report order.
func (c Config) Profiles() []MarketProfile {
	fh, o15 := c.FirstHalfGoal, c.Over15
	fh.Market, o15.Market = MarketFirstHalfGoal, MarketOver15
	return []MarketProfile{fh, o15}
}

// Input is everything the engine needs about one fixture. Collections are
// already finished, scoped and ordered by recency; nil and empty mean the same.
type Input struct {
	HomeTeamID int `json:"home_team_id"`
	AwayTeamID int `json:"away_team_id"`

	HeadToHead  []league.Match `json:"head_to_head"`
	HomeMatches []league.Match `json:"home_matches"`
	AwayMatches []league.Match `json:"away_matches"`

	HomeStatistics []league.StatLine `json:"home_statistics"`
	AwayStatistics []league.StatLine `json:"away_statistics"`

	HomeGoalEvents []league.GoalEvent `json:"home_goal_events"`
	AwayGoalEvents []league.GoalEvent `json:"away_goal_events"`
}

// Summaries are the aggregates a prediction was scored from.
type Summaries struct {
	HeadToHead   league.HeadToHead          `json:"head_to_head"`
	HomeForm     league.TeamForm            `json:"home_form"`
	AwayForm     league.TeamForm            `json:"away_form"`
	HomePressure league.PressureSummary     `json:"home_pressure"`
	AwayPressure league.PressureSummary     `json:"away_pressure"`
	HomeMinutes  *league.MinuteDistribution `json:"home_minutes,omitempty"`
	AwayMinutes  *league.MinuteDistribution `json:"away_minutes,omitempty"`
}

// Prediction is the engine output for one fixture.
type Prediction struct {
	HomeTeamID    int          `json:"home_team_id"`
	AwayTeamID    int          `json:"away_team_id"`
	FirstHalfGoal MarketResult `json:"first_half_goal"`
	Over15        MarketResult `json:"over15"`
	Summaries     Summaries    `json:"summaries"`
	Reasoning     string       `json:"reasoning"`
}

// Engine scores fixtures. It keeps no state besides its config and is safe
// for concurrent use.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config { return e.cfg }

// Summarize runs the aggregators over an input.
func Summarize(in Input) Summaries {
	return Summaries{
		HeadToHead:   league.CalculateHeadToHead(in.HomeTeamID, in.AwayTeamID, in.HeadToHead),
		HomeForm:     league.CalculateForm(in.HomeTeamID, in.HomeMatches),
		AwayForm:     league.CalculateForm(in.AwayTeamID, in.AwayMatches),
		HomePressure: league.CalculatePressure(in.HomeTeamID, in.HomeStatistics),
		AwayPressure: league.CalculatePressure(in.AwayTeamID, in.AwayStatistics),
		HomeMinutes:  league.CalculateMinuteDistribution(in.HomeTeamID, in.HomeGoalEvents),
		AwayMinutes:  league.CalculateMinuteDistribution(in.AwayTeamID, in.AwayGoalEvents),
	}
}

// ComponentScores scores every component of a market from the summaries.
func ComponentScores(m Market, s Summaries) map[Component]ComponentScore {
	return map[Component]ComponentScore{
		ComponentH2H:      H2HScore(m, s.HeadToHead),
		ComponentHomeForm: FormScore(m, s.HomeForm),
		ComponentAwayForm: FormScore(m, s.AwayForm),
		ComponentPressure: matchScore(PressureScore(s.HomePressure), PressureScore(s.AwayPressure)),
		ComponentMinutes:  matchScore(MinuteScore(s.HomeMinutes), MinuteScore(s.AwayMinutes)),
	}
}

// Analyze scores both markets for a fixture.
func (e *Engine) Analyze(in Input) Prediction {
	s := Summarize(in)
	p := Prediction{
		HomeTeamID: in.HomeTeamID,
		AwayTeamID: in.AwayTeamID,
		Summaries:  s,
	}

	profiles := e.cfg.Profiles()
	p.FirstHalfGoal = Combine(profiles[0], e.cfg.Thresholds, ComponentScores(MarketFirstHalfGoal, s))
	p.Over15 = Combine(profiles[1], e.cfg.Thresholds, ComponentScores(MarketOver15, s))
	p.Reasoning = BuildReasoning(p.FirstHalfGoal, p.Over15)
	return p
}
