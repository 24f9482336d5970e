package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/utakatalp/goal-forecaster/internal/league"
)

const matchColumns = `
      m.id, m.league_id, m.season, m.kickoff, m.status,
      m.home_team_id, m.away_team_id,
      COALESCE(h.name, ''), COALESCE(a.name, ''),
      m.home_goals, m.away_goals, m.home_goals_ht, m.away_goals_ht
    FROM matches m
    LEFT JOIN teams h ON h.id = m.home_team_id
    LEFT JOIN teams a ON a.id = m.away_team_id`

const finishedClause = ` AND m.status IN ('FT', 'AET', 'PEN')`

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(sc scanner) (league.Match, error) {
	var (
		m       league.Match
		kickoff string
	)
	if err := sc.Scan(
		&m.ID, &m.LeagueID, &m.Season, &kickoff, &m.Status,
		&m.HomeTeamID, &m.AwayTeamID,
		&m.HomeName, &m.AwayName,
		&m.HomeGoals, &m.AwayGoals, &m.HomeHalfTimeGoals, &m.AwayHalfTimeGoals,
	); err != nil {
		return league.Match{}, err
	}
	t, err := parseTime(kickoff)
	if err != nil {
		return league.Match{}, err
	}
	m.Kickoff = t
	return m, nil
}

func (s *Store) queryMatches(ctx context.Context, q string, args ...any) ([]league.Match, error) {
	rows, err := s.DB.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	var matches []league.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}
	return matches, nil
}

// SaveMatch inserts a fixture or updates its status and score.
func (s *Store) SaveMatch(ctx context.Context, m league.Match) error {
	q := s.rebind(`
INSERT INTO matches (
  id, league_id, season, kickoff, status, home_team_id, away_team_id,
  home_goals, away_goals, home_goals_ht, away_goals_ht
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
  league_id = excluded.league_id,
  season = excluded.season,
  kickoff = excluded.kickoff,
  status = excluded.status,
  home_team_id = excluded.home_team_id,
  away_team_id = excluded.away_team_id,
  home_goals = excluded.home_goals,
  away_goals = excluded.away_goals,
  home_goals_ht = excluded.home_goals_ht,
  away_goals_ht = excluded.away_goals_ht
`)
	_, err := s.DB.ExecContext(ctx, q,
		m.ID, m.LeagueID, m.Season, formatTime(m.Kickoff), m.Status,
		m.HomeTeamID, m.AwayTeamID,
		nullInt(m.HomeGoals), nullInt(m.AwayGoals),
		nullInt(m.HomeHalfTimeGoals), nullInt(m.AwayHalfTimeGoals),
	)
	if err != nil {
		return fmt.Errorf("saving match %d: %w", m.ID, err)
	}
	return nil
}

// Match loads one fixture by id.
func (s *Store) Match(ctx context.Context, id int) (league.Match, error) {
	row := s.DB.QueryRowContext(ctx, s.rebind(`SELECT `+matchColumns+` WHERE m.id = ?`), id)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return league.Match{}, fmt.Errorf("match %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return league.Match{}, fmt.Errorf("loading match %d: %w", id, err)
	}
	return m, nil
}

// MatchesBetween returns fixtures kicking off in [from, to), in kickoff order.
// leagueIDs restricts the competitions when not empty.
func (s *Store) MatchesBetween(ctx context.Context, from, to time.Time, leagueIDs []int) ([]league.Match, error) {
	q := `SELECT ` + matchColumns + ` WHERE m.kickoff >= ? AND m.kickoff < ?`
	args := []any{formatTime(from), formatTime(to)}
	if len(leagueIDs) > 0 {
		q += ` AND m.league_id IN (` + placeholders(len(leagueIDs)) + `)`
		for _, id := range leagueIDs {
			args = append(args, id)
		}
	}
	q += ` ORDER BY m.kickoff, m.id`
	return s.queryMatches(ctx, q, args...)
}

// TeamMatches returns a team's most recent finished matches that kicked off
// before the given time, newest first. A zero leagueID means any competition;
// a zero before means no upper bound.
func (s *Store) TeamMatches(ctx context.Context, teamID, leagueID int, before time.Time, limit int) ([]league.Match, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + matchColumns + ` WHERE (m.home_team_id = ? OR m.away_team_id = ?)`)
	b.WriteString(finishedClause)
	args := []any{teamID, teamID}
	if leagueID != 0 {
		b.WriteString(` AND m.league_id = ?`)
		args = append(args, leagueID)
	}
	if !before.IsZero() {
		b.WriteString(` AND m.kickoff < ?`)
		args = append(args, formatTime(before))
	}
	b.WriteString(` ORDER BY m.kickoff DESC, m.id DESC LIMIT ?`)
	args = append(args, limit)
	return s.queryMatches(ctx, b.String(), args...)
}

// HeadToHead returns finished meetings between two teams that kicked off in
// [since, before), newest first. A zero leagueID means any competition; a zero
// before means no upper bound.
func (s *Store) HeadToHead(ctx context.Context, team1, team2, leagueID int, since, before time.Time, limit int) ([]league.Match, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + matchColumns + `
    WHERE ((m.home_team_id = ? AND m.away_team_id = ?) OR (m.home_team_id = ? AND m.away_team_id = ?))
      AND m.kickoff >= ?`)
	b.WriteString(finishedClause)
	args := []any{team1, team2, team2, team1, formatTime(since)}
	if leagueID != 0 {
		b.WriteString(` AND m.league_id = ?`)
		args = append(args, leagueID)
	}
	if !before.IsZero() {
		b.WriteString(` AND m.kickoff < ?`)
		args = append(args, formatTime(before))
	}
	b.WriteString(` ORDER BY m.kickoff DESC, m.id DESC LIMIT ?`)
	args = append(args, limit)
	return s.queryMatches(ctx, b.String(), args...)
}
