package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/utakatalp/goal-forecaster/internal/league"
)

type teamJSON struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

type sidesJSON struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type fixtureJSON struct {
	Fixture struct {
		ID     int       `json:"id"`
		Date   time.Time `json:"date"`
		Status struct {
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID      int    `json:"id"`
		Season  int    `json:"season"`
		Country string `json:"country"`
	} `json:"league"`
	Teams struct {
		Home teamJSON `json:"home"`
		Away teamJSON `json:"away"`
	} `json:"teams"`
	Goals sidesJSON `json:"goals"`
	Score struct {
		Halftime sidesJSON `json:"halftime"`
	} `json:"score"`
}

func (f fixtureJSON) match() league.Match {
	return league.Match{
		ID:                f.Fixture.ID,
		LeagueID:          f.League.ID,
		Season:            f.League.Season,
		Kickoff:           f.Fixture.Date.UTC(),
		Status:            f.Fixture.Status.Short,
		HomeTeamID:        f.Teams.Home.ID,
		AwayTeamID:        f.Teams.Away.ID,
		HomeName:          f.Teams.Home.Name,
		AwayName:          f.Teams.Away.Name,
		HomeGoals:         f.Goals.Home,
		AwayGoals:         f.Goals.Away,
		HomeHalfTimeGoals: f.Score.Halftime.Home,
		AwayHalfTimeGoals: f.Score.Halftime.Away,
	}
}

// Fixtures is a batch of matches together with the teams playing them.
type Fixtures struct {
	Matches []league.Match
	Teams   []league.Team
}

func toFixtures(raw []fixtureJSON) Fixtures {
	var out Fixtures
	seen := make(map[int]bool)
	addTeam := func(t teamJSON, country string) {
		if t.ID == 0 || seen[t.ID] {
			return
		}
		seen[t.ID] = true
		out.Teams = append(out.Teams, league.Team{ID: t.ID, Name: t.Name, Logo: t.Logo, Country: country})
	}
	for _, f := range raw {
		out.Matches = append(out.Matches, f.match())
		addTeam(f.Teams.Home, f.League.Country)
		addTeam(f.Teams.Away, f.League.Country)
	}
	return out
}

func (c *Client) fixtures(ctx context.Context, endpoint string, params url.Values) (Fixtures, error) {
	var raw []fixtureJSON
	if err := c.get(ctx, endpoint, params, &raw); err != nil {
		return Fixtures{}, err
	}
	return toFixtures(raw), nil
}

// FixturesByDate lists a league's fixtures on the given day.
func (c *Client) FixturesByDate(ctx context.Context, day time.Time, leagueID, season int) (Fixtures, error) {
	params := url.Values{}
	params.Set("date", day.Format("2006-01-02"))
	params.Set("league", strconv.Itoa(leagueID))
	params.Set("season", strconv.Itoa(season))
	return c.fixtures(ctx, "fixtures", params)
}

// Fixture fetches a single fixture by id.
func (c *Client) Fixture(ctx context.Context, fixtureID int) (Fixtures, error) {
	params := url.Values{}
	params.Set("id", strconv.Itoa(fixtureID))
	return c.fixtures(ctx, "fixtures", params)
}

// TeamFixtures returns the team's last n fixtures of a season.
func (c *Client) TeamFixtures(ctx context.Context, teamID, season, last int) (Fixtures, error) {
	params := url.Values{}
	params.Set("team", strconv.Itoa(teamID))
	params.Set("season", strconv.Itoa(season))
	if last > 0 {
		params.Set("last", strconv.Itoa(last))
	}
	return c.fixtures(ctx, "fixtures", params)
}

// HeadToHead returns the meetings of two teams in one season. A zero leagueID
// covers all competitions.
func (c *Client) HeadToHead(ctx context.Context, team1, team2, season, leagueID int) (Fixtures, error) {
	params := url.Values{}
	params.Set("h2h", fmt.Sprintf("%d-%d", team1, team2))
	params.Set("season", strconv.Itoa(season))
	if leagueID > 0 {
		params.Set("league", strconv.Itoa(leagueID))
	}
	return c.fixtures(ctx, "fixtures/headtohead", params)
}

type statisticsJSON struct {
	Team       teamJSON `json:"team"`
	Statistics []struct {
		Type  string `json:"type"`
		Value any    `json:"value"`
	} `json:"statistics"`
}

// FixtureStatistics returns both teams' statistic lines for a fixture.
// Unknown statistic labels are dropped.
func (c *Client) FixtureStatistics(ctx context.Context, fixtureID int) ([]league.StatLine, error) {
	params := url.Values{}
	params.Set("fixture", strconv.Itoa(fixtureID))

	var raw []statisticsJSON
	if err := c.get(ctx, "fixtures/statistics", params, &raw); err != nil {
		return nil, err
	}

	lines := make([]league.StatLine, 0, len(raw))
	for _, r := range raw {
		line := league.StatLine{
			FixtureID: fixtureID,
			TeamID:    r.Team.ID,
			Values:    make(map[string]league.StatValue, len(r.Statistics)),
		}
		for _, s := range r.Statistics {
			key, ok := league.StatKeyFor(s.Type)
			if !ok {
				continue
			}
			line.Values[key] = league.ParseStatValue(s.Value)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

type eventJSON struct {
	Time struct {
		Elapsed *int `json:"elapsed"`
		Extra   *int `json:"extra"`
	} `json:"time"`
	Team   teamJSON `json:"team"`
	Player struct {
		Name string `json:"name"`
	} `json:"player"`
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

// FixtureEvents returns the goal events of a fixture in the order reported.
func (c *Client) FixtureEvents(ctx context.Context, fixtureID int) ([]league.GoalEvent, error) {
	params := url.Values{}
	params.Set("fixture", strconv.Itoa(fixtureID))
	params.Set("type", league.EventGoal)

	var raw []eventJSON
	if err := c.get(ctx, "fixtures/events", params, &raw); err != nil {
		return nil, err
	}

	events := make([]league.GoalEvent, 0, len(raw))
	for _, r := range raw {
		if r.Time.Elapsed == nil {
			continue
		}
		e := league.GoalEvent{
			FixtureID: fixtureID,
			TeamID:    r.Team.ID,
			Elapsed:   *r.Time.Elapsed,
			Extra:     r.Time.Extra,
			Type:      r.Type,
			Detail:    r.Detail,
			Player:    r.Player.Name,
		}
		if !e.IsGoal() {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}
