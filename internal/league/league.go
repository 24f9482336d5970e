package league

import "time"

// Team represents a club as supplied by the data provider.
type Team struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Logo    string `json:"logo,omitempty"`
	Country string `json:"country,omitempty"`
}

// Side is the half of a fixture a team occupied.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
	SideNone Side = ""
)

// Finished provider statuses. Anything else is still to be played or was abandoned.
const (
	StatusFullTime     = "FT"
	StatusAfterExtra   = "AET"
	StatusAfterPenalty = "PEN"
)

// Match represents a fixture between two teams. Goal fields are nil when the
// provider did not supply them.
type Match struct {
	ID         int       `json:"id"`
	LeagueID   int       `json:"league_id"`
	Season     int       `json:"season"`
	Kickoff    time.Time `json:"kickoff"`
	Status     string    `json:"status"`
	HomeTeamID int       `json:"home_team_id"`
	AwayTeamID int       `json:"away_team_id"`
	HomeName   string    `json:"home_name,omitempty"`
	AwayName   string    `json:"away_name,omitempty"`

	HomeGoals         *int `json:"home_goals"`
	AwayGoals         *int `json:"away_goals"`
	HomeHalfTimeGoals *int `json:"home_half_time_goals"`
	AwayHalfTimeGoals *int `json:"away_half_time_goals"`
}

// TeamForm holds the first-half and over-1.5 record of one team.
type TeamForm struct {
	TeamID                  int     `json:"team_id"`
	GamesPlayed             int     `json:"games_played"`
	FirstHalfGoalsScored    int     `json:"first_half_goals_scored"`
	FirstHalfGoalsConceded  int     `json:"first_half_goals_conceded"`
	AvgFirstHalfScored      float64 `json:"avg_first_half_scored"`
	AvgFirstHalfConceded    float64 `json:"avg_first_half_conceded"`
	GamesWithFirstHalfGoal  int     `json:"games_with_first_half_goal"`
	FirstHalfGoalPercentage float64 `json:"first_half_goal_percentage"`
	GamesOver15             int     `json:"games_over15"`
	Over15Percentage        float64 `json:"over15_percentage"`
}

// HeadToHead is a TeamForm computed over the matches between two teams, seen
// from TeamID's side.
type HeadToHead struct {
	TeamForm
	OpponentID int `json:"opponent_id"`
}

// TotalMatches is the number of meetings.
func (h HeadToHead) TotalMatches() int { return h.GamesPlayed }

// StatLine is one team's statistics for one fixture, keyed by canonical stat key.
type StatLine struct {
	FixtureID int                  `json:"fixture_id"`
	TeamID    int                  `json:"team_id"`
	Values    map[string]StatValue `json:"values"`
}

// PressureSummary averages a team's attacking statistics.
type PressureSummary struct {
	TeamID              int     `json:"team_id"`
	ShotsOnGoalAvg      float64 `json:"shots_on_goal_avg"`
	ShotsInsideBoxAvg   float64 `json:"shots_insidebox_avg"`
	CornersAvg          float64 `json:"corners_avg"`
	PossessionAvg       float64 `json:"possession_avg"`
	DangerousAttacksAvg float64 `json:"dangerous_attacks_avg"`
	GamesCount          int     `json:"games_count"`
}

// GoalEvent is a scoring-related event reported for a fixture.
type GoalEvent struct {
	FixtureID int    `json:"fixture_id"`
	TeamID    int    `json:"team_id"`
	Elapsed   int    `json:"elapsed"`
	Extra     *int   `json:"extra,omitempty"`
	Type      string `json:"type"`
	Detail    string `json:"detail"`
	Player    string `json:"player,omitempty"`
}

// MinuteBucket is one 15-minute window of a goal histogram.
type MinuteBucket struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// MinuteDistribution is a team's time-of-goal histogram.
type MinuteDistribution struct {
	TeamID              int            `json:"team_id"`
	Buckets             []MinuteBucket `json:"buckets"`
	Total               int            `json:"total"`
	FirstHalfPercentage float64        `json:"first_half_percentage"`
}
