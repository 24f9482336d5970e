package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/utakatalp/goal-forecaster/internal/league"
	"github.com/utakatalp/goal-forecaster/internal/telemetry"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// timeLayout keeps stored timestamps sortable as text.
const timeLayout = "2006-01-02T15:04:05Z"

// Store wraps a database connection and provides methods to persist and
// retrieve fixtures, statistics, events and predictions.
type Store struct {
	DB     *sql.DB
	driver string
}

// NewStore opens a connection with the given driver ("postgres" or "sqlite").
func NewStore(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if driver == DriverSQLite {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}
	// verify early
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	telemetry.Debugf("connected to %s database", driver)
	return &Store{DB: db, driver: driver}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// rebind rewrites ? placeholders into the driver's native form.
func (s *Store) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Migrate creates the necessary tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS teams (
		    id      BIGINT PRIMARY KEY,
		    name    TEXT NOT NULL,
		    logo    TEXT NOT NULL DEFAULT '',
		    country TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
		    id            BIGINT PRIMARY KEY,
		    league_id     BIGINT NOT NULL,
		    season        INT NOT NULL,
		    kickoff       TEXT NOT NULL,
		    status        TEXT NOT NULL,
		    home_team_id  BIGINT NOT NULL,
		    away_team_id  BIGINT NOT NULL,
		    home_goals    INT,
		    away_goals    INT,
		    home_goals_ht INT,
		    away_goals_ht INT
		)`,
		`CREATE INDEX IF NOT EXISTS matches_home_idx ON matches (home_team_id, kickoff)`,
		`CREATE INDEX IF NOT EXISTS matches_away_idx ON matches (away_team_id, kickoff)`,
		`CREATE TABLE IF NOT EXISTS match_statistics (
		    fixture_id BIGINT NOT NULL,
		    team_id    BIGINT NOT NULL,
		    stat_key   TEXT NOT NULL,
		    number     DOUBLE PRECISION,
		    raw        TEXT,
		    PRIMARY KEY (fixture_id, team_id, stat_key)
		)`,
		`CREATE TABLE IF NOT EXISTS match_events (
		    fixture_id BIGINT NOT NULL,
		    seq        INT NOT NULL,
		    team_id    BIGINT NOT NULL,
		    elapsed    INT NOT NULL,
		    extra      INT,
		    type       TEXT NOT NULL,
		    detail     TEXT NOT NULL DEFAULT '',
		    player     TEXT NOT NULL DEFAULT '',
		    PRIMARY KEY (fixture_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS predictions (
		    id                 TEXT PRIMARY KEY,
		    fixture_id         BIGINT NOT NULL UNIQUE,
		    league_id          BIGINT NOT NULL,
		    kickoff            TEXT NOT NULL,
		    home_team_id       BIGINT NOT NULL,
		    away_team_id       BIGINT NOT NULL,
		    home_team          TEXT NOT NULL DEFAULT '',
		    away_team          TEXT NOT NULL DEFAULT '',
		    fh_score           DOUBLE PRECISION NOT NULL,
		    fh_confidence      TEXT NOT NULL,
		    fh_recommendation  TEXT NOT NULL,
		    fh_components      TEXT NOT NULL,
		    o15_score          DOUBLE PRECISION NOT NULL,
		    o15_confidence     TEXT NOT NULL,
		    o15_recommendation TEXT NOT NULL,
		    o15_components     TEXT NOT NULL,
		    reasoning          TEXT NOT NULL,
		    created_at         TEXT NOT NULL,
		    actual_ht_goal     INT,
		    actual_ft_goals    INT,
		    correct_ht         INT,
		    correct_ft         INT,
		    validated_at       TEXT
		)`,
	}
	for _, q := range queries {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

// UpsertTeams inserts teams or refreshes their details.
func (s *Store) UpsertTeams(ctx context.Context, teams []league.Team) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin UpsertTeams tx: %w", err)
	}
	defer tx.Rollback()

	q := s.rebind(`
    INSERT INTO teams (id, name, logo, country)
    VALUES (?, ?, ?, ?)
    ON CONFLICT (id) DO UPDATE SET
      name = excluded.name,
      logo = excluded.logo,
      country = excluded.country
    `)
	for _, t := range teams {
		if _, err := tx.ExecContext(ctx, q, t.ID, t.Name, t.Logo, t.Country); err != nil {
			return fmt.Errorf("upserting team %d (%s): %w", t.ID, t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit UpsertTeams tx: %w", err)
	}
	return nil
}

// Teams returns every known team ordered by name.
func (s *Store) Teams(ctx context.Context) ([]league.Team, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, logo, country FROM teams ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	var teams []league.Team
	for rows.Next() {
		var t league.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Logo, &t.Country); err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating teams rows: %w", err)
	}
	return teams, nil
}

// Counts reports the number of rows per table.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	tables := []string{"teams", "matches", "match_statistics", "match_events", "predictions"}
	out := make(map[string]int, len(tables))
	for _, table := range tables {
		var n int
		if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		out[table] = n
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", s, err)
	}
	return t, nil
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
