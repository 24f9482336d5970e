// internal/league/logic.go
package league

import (
	"fmt"
	"sort"
)

func goals(g *int) int {
	if g == nil {
		return 0
	}
	return *g
}

// IsFinished reports whether the provider marked the fixture as completed.
func (m *Match) IsFinished() bool {
	switch m.Status {
	case StatusFullTime, StatusAfterExtra, StatusAfterPenalty:
		return true
	}
	return false
}

// SideOf returns which side teamID played on, or SideNone if it did not take part.
func (m *Match) SideOf(teamID int) Side {
	switch teamID {
	case m.HomeTeamID:
		return SideHome
	case m.AwayTeamID:
		return SideAway
	}
	return SideNone
}

// FirstHalfGoals is the combined half-time score.
func (m *Match) FirstHalfGoals() int {
	return goals(m.HomeHalfTimeGoals) + goals(m.AwayHalfTimeGoals)
}

// TotalGoals is the combined full-time score.
func (m *Match) TotalGoals() int {
	return goals(m.HomeGoals) + goals(m.AwayGoals)
}

func (m *Match) ScoreLine() string {
	home, away := m.HomeName, m.AwayName
	if home == "" {
		home = fmt.Sprintf("#%d", m.HomeTeamID)
	}
	if away == "" {
		away = fmt.Sprintf("#%d", m.AwayTeamID)
	}
	return fmt.Sprintf("%s %d - %d %s (HT %d - %d)",
		home, goals(m.HomeGoals),
		goals(m.AwayGoals), away,
		goals(m.HomeHalfTimeGoals), goals(m.AwayHalfTimeGoals),
	)
}

// FinishedOnly drops fixtures that have not been completed.
func FinishedOnly(matches []Match) []Match {
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.IsFinished() {
			out = append(out, m)
		}
	}
	return out
}

// SortByRecency orders matches newest first. Ties keep the higher fixture ID first.
func SortByRecency(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.Kickoff.Equal(b.Kickoff) {
			return a.Kickoff.After(b.Kickoff)
		}
		return a.ID > b.ID
	})
}

// CalculateForm reduces a team's matches into its first-half and over-1.5 record.
// Every match is attributed to teamID by side; the caller has already filtered
// out unfinished fixtures.
func CalculateForm(teamID int, matches []Match) TeamForm {
	form := TeamForm{TeamID: teamID}

	for i := range matches {
		m := &matches[i]
		form.GamesPlayed++

		// a match the team did not play still counts, with no goals attributed
		switch m.SideOf(teamID) {
		case SideHome:
			form.FirstHalfGoalsScored += goals(m.HomeHalfTimeGoals)
			form.FirstHalfGoalsConceded += goals(m.AwayHalfTimeGoals)
		case SideAway:
			form.FirstHalfGoalsScored += goals(m.AwayHalfTimeGoals)
			form.FirstHalfGoalsConceded += goals(m.HomeHalfTimeGoals)
		}

		if m.FirstHalfGoals() > 0 {
			form.GamesWithFirstHalfGoal++
		}
		if m.TotalGoals() >= 2 {
			form.GamesOver15++
		}
	}

	if form.GamesPlayed == 0 {
		return form
	}

	played := float64(form.GamesPlayed)
	form.AvgFirstHalfScored = float64(form.FirstHalfGoalsScored) / played
	form.AvgFirstHalfConceded = float64(form.FirstHalfGoalsConceded) / played
	form.FirstHalfGoalPercentage = float64(form.GamesWithFirstHalfGoal) / played * 100
	form.Over15Percentage = float64(form.GamesOver15) / played * 100
	return form
}

// CalculateHeadToHead reduces the meetings between teamID and opponentID,
// seen from teamID's side.
func CalculateHeadToHead(teamID, opponentID int, matches []Match) HeadToHead {
	return HeadToHead{
		TeamForm:   CalculateForm(teamID, matches),
		OpponentID: opponentID,
	}
}
