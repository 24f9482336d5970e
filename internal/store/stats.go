package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/utakatalp/goal-forecaster/internal/league"
)

// SaveStatistics replaces the statistic lines of the given fixtures and teams.
func (s *Store) SaveStatistics(ctx context.Context, lines []league.StatLine) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin SaveStatistics tx: %w", err)
	}
	defer tx.Rollback()

	del := s.rebind(`DELETE FROM match_statistics WHERE fixture_id = ? AND team_id = ?`)
	ins := s.rebind(`INSERT INTO match_statistics (fixture_id, team_id, stat_key, number, raw) VALUES (?, ?, ?, ?, ?)`)

	for _, l := range lines {
		if _, err := tx.ExecContext(ctx, del, l.FixtureID, l.TeamID); err != nil {
			return fmt.Errorf("clearing statistics %d/%d: %w", l.FixtureID, l.TeamID, err)
		}
		for key, v := range l.Values {
			if !v.Present() {
				continue
			}
			var number, raw any
			if v.Valid {
				number = v.Number
			} else {
				raw = v.Raw
			}
			if _, err := tx.ExecContext(ctx, ins, l.FixtureID, l.TeamID, key, number, raw); err != nil {
				return fmt.Errorf("saving statistic %s for %d/%d: %w", key, l.FixtureID, l.TeamID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit SaveStatistics tx: %w", err)
	}
	return nil
}

// SaveEvents replaces the events recorded for a fixture.
func (s *Store) SaveEvents(ctx context.Context, fixtureID int, events []league.GoalEvent) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin SaveEvents tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM match_events WHERE fixture_id = ?`), fixtureID); err != nil {
		return fmt.Errorf("clearing events of %d: %w", fixtureID, err)
	}

	ins := s.rebind(`
    INSERT INTO match_events (fixture_id, seq, team_id, elapsed, extra, type, detail, player)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	for i, e := range events {
		if _, err := tx.ExecContext(ctx, ins, fixtureID, i, e.TeamID, e.Elapsed, nullInt(e.Extra), e.Type, e.Detail, e.Player); err != nil {
			return fmt.Errorf("saving event %d of %d: %w", i, fixtureID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit SaveEvents tx: %w", err)
	}
	return nil
}

func (s *Store) recentFixtureIDs(ctx context.Context, teamID, leagueID int, before time.Time, limit int) ([]any, error) {
	matches, err := s.TeamMatches(ctx, teamID, leagueID, before, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]any, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// TeamStatistics returns the team's statistic lines from its most recent
// finished matches before the given time, newest first. Matches without
// statistics are skipped.
func (s *Store) TeamStatistics(ctx context.Context, teamID, leagueID int, before time.Time, limit int) ([]league.StatLine, error) {
	ids, err := s.recentFixtureIDs(ctx, teamID, leagueID, before, limit)
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	q := s.rebind(`
    SELECT s.fixture_id, s.stat_key, s.number, s.raw
    FROM match_statistics s
    JOIN matches m ON m.id = s.fixture_id
    WHERE s.team_id = ? AND s.fixture_id IN (` + placeholders(len(ids)) + `)
    ORDER BY m.kickoff DESC, s.fixture_id DESC, s.stat_key`)
	rows, err := s.DB.QueryContext(ctx, q, append([]any{teamID}, ids...)...)
	if err != nil {
		return nil, fmt.Errorf("querying statistics: %w", err)
	}
	defer rows.Close()

	var lines []league.StatLine
	for rows.Next() {
		var (
			fixtureID int
			key       string
			number    sql.NullFloat64
			raw       sql.NullString
		)
		if err := rows.Scan(&fixtureID, &key, &number, &raw); err != nil {
			return nil, fmt.Errorf("scanning statistic: %w", err)
		}
		if len(lines) == 0 || lines[len(lines)-1].FixtureID != fixtureID {
			lines = append(lines, league.StatLine{
				FixtureID: fixtureID,
				TeamID:    teamID,
				Values:    map[string]league.StatValue{},
			})
		}
		v := league.StatValue{Raw: raw.String}
		if number.Valid {
			v = league.StatValue{Number: number.Float64, Valid: true}
		}
		lines[len(lines)-1].Values[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating statistics: %w", err)
	}
	return lines, nil
}

// TeamGoalEvents returns the goal events a team produced in its most recent
// finished matches before the given time.
func (s *Store) TeamGoalEvents(ctx context.Context, teamID, leagueID int, before time.Time, limit int) ([]league.GoalEvent, error) {
	ids, err := s.recentFixtureIDs(ctx, teamID, leagueID, before, limit)
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	q := s.rebind(`
    SELECT fixture_id, team_id, elapsed, extra, type, detail, player
    FROM match_events
    WHERE team_id = ? AND type = ? AND fixture_id IN (` + placeholders(len(ids)) + `)
    ORDER BY fixture_id DESC, seq`)
	args := append([]any{teamID, league.EventGoal}, ids...)
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying goal events: %w", err)
	}
	defer rows.Close()

	var events []league.GoalEvent
	for rows.Next() {
		var e league.GoalEvent
		if err := rows.Scan(&e.FixtureID, &e.TeamID, &e.Elapsed, &e.Extra, &e.Type, &e.Detail, &e.Player); err != nil {
			return nil, fmt.Errorf("scanning goal event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating goal events: %w", err)
	}
	return events, nil
}
