package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/utakatalp/goal-forecaster/internal/league"
	"github.com/utakatalp/goal-forecaster/internal/provider"
	"github.com/utakatalp/goal-forecaster/internal/scoring"
	"github.com/utakatalp/goal-forecaster/internal/store"
	"github.com/utakatalp/goal-forecaster/internal/telemetry"
)

const maxHeadToHead = 50

// Repository is the persistence the service reads from and writes to.
type Repository interface {
	UpsertTeams(ctx context.Context, teams []league.Team) error
	SaveMatch(ctx context.Context, m league.Match) error
	SaveStatistics(ctx context.Context, lines []league.StatLine) error
	SaveEvents(ctx context.Context, fixtureID int, events []league.GoalEvent) error

	Match(ctx context.Context, id int) (league.Match, error)
	MatchesBetween(ctx context.Context, from, to time.Time, leagueIDs []int) ([]league.Match, error)
	TeamMatches(ctx context.Context, teamID, leagueID int, before time.Time, limit int) ([]league.Match, error)
	HeadToHead(ctx context.Context, team1, team2, leagueID int, since, before time.Time, limit int) ([]league.Match, error)
	TeamStatistics(ctx context.Context, teamID, leagueID int, before time.Time, limit int) ([]league.StatLine, error)
	TeamGoalEvents(ctx context.Context, teamID, leagueID int, before time.Time, limit int) ([]league.GoalEvent, error)

	SavePrediction(ctx context.Context, r *store.PredictionRecord) error
	ValidatePrediction(ctx context.Context, fixtureID int) (store.PredictionRecord, error)
}

// Source is the upstream football data provider.
type Source interface {
	FixturesByDate(ctx context.Context, day time.Time, leagueID, season int) (provider.Fixtures, error)
	Fixture(ctx context.Context, fixtureID int) (provider.Fixtures, error)
	TeamFixtures(ctx context.Context, teamID, season, last int) (provider.Fixtures, error)
	HeadToHead(ctx context.Context, team1, team2, season, leagueID int) (provider.Fixtures, error)
	FixtureStatistics(ctx context.Context, fixtureID int) ([]league.StatLine, error)
	FixtureEvents(ctx context.Context, fixtureID int) ([]league.GoalEvent, error)
}

// Cache stores engine output keyed by its inputs.
type Cache interface {
	Get(ctx context.Context, key string) (scoring.Prediction, bool, error)
	Set(ctx context.Context, key string, p scoring.Prediction) error
}

type Options struct {
	Leagues []int
	Season  int
	// Now defaults to time.Now.
	Now func() time.Time
	// KeyFunc derives cache keys. Required when a cache is set.
	KeyFunc func(scoring.Input, scoring.Config) (string, error)
}

// Service gathers fixture data, scores it and records the predictions.
type Service struct {
	repo    Repository
	source  Source
	cache   Cache
	engine  *scoring.Engine
	leagues []int
	season  int
	now     func() time.Time
	keyFunc func(scoring.Input, scoring.Config) (string, error)
}

// NewService wires a service. source and cache may be nil: without a source
// only stored data is analysed, without a cache every analysis runs the engine.
func NewService(repo Repository, source Source, cache Cache, engine *scoring.Engine, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.KeyFunc == nil {
		cache = nil
	}
	return &Service{
		repo:    repo,
		source:  source,
		cache:   cache,
		engine:  engine,
		leagues: opts.Leagues,
		season:  opts.Season,
		now:     now,
		keyFunc: opts.KeyFunc,
	}
}

// Engine exposes the scoring engine in use.
func (s *Service) Engine() *scoring.Engine { return s.engine }

func (s *Service) saveFixtures(ctx context.Context, fx provider.Fixtures) error {
	if len(fx.Teams) > 0 {
		if err := s.repo.UpsertTeams(ctx, fx.Teams); err != nil {
			return err
		}
	}
	for _, m := range fx.Matches {
		if err := s.repo.SaveMatch(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// FetchDay pulls the day's fixtures of every configured league into the
// repository and returns them. Leagues the provider fails on are skipped.
func (s *Service) FetchDay(ctx context.Context, day time.Time) ([]league.Match, error) {
	var out []league.Match
	for _, leagueID := range s.leagues {
		fx, err := s.source.FixturesByDate(ctx, day, leagueID, s.season)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			telemetry.Warnf("analysis: fixtures of league %d on %s unavailable: %v", leagueID, day.Format("2006-01-02"), err)
			continue
		}
		if err := s.saveFixtures(ctx, fx); err != nil {
			return nil, fmt.Errorf("saving fixtures of league %d: %w", leagueID, err)
		}
		out = append(out, fx.Matches...)
	}
	return out, nil
}

// Sync pulls everything the engine needs for a fixture from the provider
// into the repository. Provider failures are logged and skipped; only
// repository failures are returned.
func (s *Service) Sync(ctx context.Context, m league.Match) error {
	if s.source == nil {
		return nil
	}
	cfg := s.engine.Config()

	season := m.Season
	if season == 0 {
		season = s.season
	}

	var history []league.Match
	for year := season; year > season-cfg.LookbackYears; year-- {
		fx, err := s.source.HeadToHead(ctx, m.HomeTeamID, m.AwayTeamID, year, m.LeagueID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			telemetry.Warnf("analysis: head to head %d-%d season %d unavailable: %v", m.HomeTeamID, m.AwayTeamID, year, err)
			continue
		}
		if err := s.saveFixtures(ctx, fx); err != nil {
			return fmt.Errorf("saving head to head: %w", err)
		}
		history = append(history, fx.Matches...)
	}

	for _, teamID := range []int{m.HomeTeamID, m.AwayTeamID} {
		fx, err := s.source.TeamFixtures(ctx, teamID, season, cfg.FormGames)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			telemetry.Warnf("analysis: recent fixtures of team %d unavailable: %v", teamID, err)
			continue
		}
		if err := s.saveFixtures(ctx, fx); err != nil {
			return fmt.Errorf("saving team fixtures: %w", err)
		}
		history = append(history, fx.Matches...)
	}

	seen := make(map[int]bool)
	for _, h := range league.FinishedOnly(history) {
		if seen[h.ID] {
			continue
		}
		seen[h.ID] = true
		if err := s.syncDetails(ctx, h.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) syncDetails(ctx context.Context, fixtureID int) error {
	lines, err := s.source.FixtureStatistics(ctx, fixtureID)
	switch {
	case err != nil && ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		telemetry.Warnf("analysis: statistics of fixture %d unavailable: %v", fixtureID, err)
	case len(lines) > 0:
		if err := s.repo.SaveStatistics(ctx, lines); err != nil {
			return fmt.Errorf("saving statistics of %d: %w", fixtureID, err)
		}
	}

	events, err := s.source.FixtureEvents(ctx, fixtureID)
	switch {
	case err != nil && ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		telemetry.Warnf("analysis: events of fixture %d unavailable: %v", fixtureID, err)
	default:
		if err := s.repo.SaveEvents(ctx, fixtureID, events); err != nil {
			return fmt.Errorf("saving events of %d: %w", fixtureID, err)
		}
	}
	return nil
}

// BuildInput loads the engine input for a fixture from the repository.
// Only matches that kicked off before the fixture count. Head to head covers
// the lookback window in the fixture's competition; form, statistics and
// events cover each team's last FormGames finished matches in that
// competition.
func (s *Service) BuildInput(ctx context.Context, m league.Match) (scoring.Input, error) {
	cfg := s.engine.Config()
	in := scoring.Input{HomeTeamID: m.HomeTeamID, AwayTeamID: m.AwayTeamID}

	before := m.Kickoff.UTC()
	if m.Kickoff.IsZero() {
		before = s.now().UTC()
	}
	since := before.AddDate(-cfg.LookbackYears, 0, 0)
	h2h, err := s.repo.HeadToHead(ctx, m.HomeTeamID, m.AwayTeamID, m.LeagueID, since, before, maxHeadToHead)
	if err != nil {
		return scoring.Input{}, fmt.Errorf("loading head to head: %w", err)
	}
	in.HeadToHead = league.FinishedOnly(h2h)

	load := func(teamID int, matches *[]league.Match, stats *[]league.StatLine, events *[]league.GoalEvent) error {
		ms, err := s.repo.TeamMatches(ctx, teamID, m.LeagueID, before, cfg.FormGames)
		if err != nil {
			return fmt.Errorf("loading matches of team %d: %w", teamID, err)
		}
		*matches = league.FinishedOnly(ms)
		if *stats, err = s.repo.TeamStatistics(ctx, teamID, m.LeagueID, before, cfg.FormGames); err != nil {
			return fmt.Errorf("loading statistics of team %d: %w", teamID, err)
		}
		if *events, err = s.repo.TeamGoalEvents(ctx, teamID, m.LeagueID, before, cfg.FormGames); err != nil {
			return fmt.Errorf("loading goal events of team %d: %w", teamID, err)
		}
		return nil
	}
	if err := load(m.HomeTeamID, &in.HomeMatches, &in.HomeStatistics, &in.HomeGoalEvents); err != nil {
		return scoring.Input{}, err
	}
	if err := load(m.AwayTeamID, &in.AwayMatches, &in.AwayStatistics, &in.AwayGoalEvents); err != nil {
		return scoring.Input{}, err
	}
	return in, nil
}

func (s *Service) score(ctx context.Context, in scoring.Input) scoring.Prediction {
	if s.cache == nil {
		return s.engine.Analyze(in)
	}

	key, err := s.keyFunc(in, s.engine.Config())
	if err != nil {
		telemetry.Warnf("analysis: cache key: %v", err)
		return s.engine.Analyze(in)
	}
	if p, ok, err := s.cache.Get(ctx, key); err != nil {
		telemetry.Warnf("analysis: cache read: %v", err)
	} else if ok {
		telemetry.Debugf("analysis: cache hit %s", key)
		return p
	}

	p := s.engine.Analyze(in)
	if err := s.cache.Set(ctx, key, p); err != nil {
		telemetry.Warnf("analysis: cache write: %v", err)
	}
	return p
}

// AnalyzeMatch scores a fixture already in the repository and stores the
// prediction.
func (s *Service) AnalyzeMatch(ctx context.Context, m league.Match) (store.PredictionRecord, error) {
	if m.HomeTeamID == m.AwayTeamID {
		return store.PredictionRecord{}, fmt.Errorf("fixture %d: home and away team are both %d", m.ID, m.HomeTeamID)
	}
	in, err := s.BuildInput(ctx, m)
	if err != nil {
		return store.PredictionRecord{}, err
	}

	rec := store.NewPredictionRecord(m, s.score(ctx, in), s.now().UTC())
	if err := s.repo.SavePrediction(ctx, &rec); err != nil {
		return store.PredictionRecord{}, fmt.Errorf("saving prediction of %d: %w", m.ID, err)
	}
	telemetry.Infof("analysis: %s vs %s -> HT %.2f (%s) FT %.2f (%s)",
		m.HomeName, m.AwayName,
		rec.FirstHalfGoal.Score, rec.FirstHalfGoal.Recommendation,
		rec.Over15.Score, rec.Over15.Recommendation)
	return rec, nil
}

// Analyze syncs and scores one fixture by id. A fixture missing from the
// repository is fetched from the provider first.
func (s *Service) Analyze(ctx context.Context, fixtureID int) (store.PredictionRecord, error) {
	m, err := s.repo.Match(ctx, fixtureID)
	if err != nil {
		if s.source == nil || !errors.Is(err, store.ErrNotFound) {
			return store.PredictionRecord{}, err
		}
		fx, ferr := s.source.Fixture(ctx, fixtureID)
		if ferr != nil {
			return store.PredictionRecord{}, fmt.Errorf("fetching fixture %d: %w", fixtureID, ferr)
		}
		if len(fx.Matches) == 0 {
			return store.PredictionRecord{}, err
		}
		if err := s.saveFixtures(ctx, fx); err != nil {
			return store.PredictionRecord{}, fmt.Errorf("saving fixture %d: %w", fixtureID, err)
		}
		m = fx.Matches[0]
	}

	if err := s.Sync(ctx, m); err != nil {
		return store.PredictionRecord{}, err
	}
	return s.AnalyzeMatch(ctx, m)
}

// AnalyzeDate fetches, syncs and scores every fixture of a day in the
// configured leagues, ranked by first-half score. A fixture that fails is
// logged and left out.
func (s *Service) AnalyzeDate(ctx context.Context, day time.Time) ([]store.PredictionRecord, error) {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	if s.source != nil {
		if _, err := s.FetchDay(ctx, day); err != nil {
			return nil, err
		}
	}
	matches, err := s.repo.MatchesBetween(ctx, day, day.AddDate(0, 0, 1), s.leagues)
	if err != nil {
		return nil, fmt.Errorf("loading fixtures of %s: %w", day.Format("2006-01-02"), err)
	}
	telemetry.Infof("analysis: %d fixtures on %s", len(matches), day.Format("2006-01-02"))

	var out []store.PredictionRecord
	for _, m := range matches {
		rec, err := s.syncAndAnalyze(ctx, m)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			telemetry.Errorf("analysis: fixture %d: %v", m.ID, err)
			continue
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FirstHalfGoal.Score > out[j].FirstHalfGoal.Score
	})
	return out, nil
}

func (s *Service) syncAndAnalyze(ctx context.Context, m league.Match) (store.PredictionRecord, error) {
	if err := s.Sync(ctx, m); err != nil {
		return store.PredictionRecord{}, fmt.Errorf("syncing: %w", err)
	}
	return s.AnalyzeMatch(ctx, m)
}

// Validate refreshes a fixture's result from the provider and grades its
// stored prediction. Without a provider the stored result is used.
func (s *Service) Validate(ctx context.Context, fixtureID int) (store.PredictionRecord, error) {
	if s.source != nil {
		fx, err := s.source.Fixture(ctx, fixtureID)
		switch {
		case err != nil && ctx.Err() != nil:
			return store.PredictionRecord{}, ctx.Err()
		case err != nil:
			telemetry.Warnf("analysis: result of fixture %d unavailable: %v", fixtureID, err)
		default:
			if err := s.saveFixtures(ctx, fx); err != nil {
				return store.PredictionRecord{}, fmt.Errorf("saving fixture %d: %w", fixtureID, err)
			}
		}
	}
	return s.repo.ValidatePrediction(ctx, fixtureID)
}
