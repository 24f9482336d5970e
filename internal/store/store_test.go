package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/goal-forecaster/internal/league"
	"github.com/utakatalp/goal-forecaster/internal/scoring"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func ptr(v int) *int { return &v }

var baseDay = time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)

func fixture(id, home, away int, daysAgo int, status string, htH, htA, ftH, ftA int) league.Match {
	return league.Match{
		ID:                id,
		LeagueID:          94,
		Season:            2023,
		Kickoff:           baseDay.AddDate(0, 0, -daysAgo),
		Status:            status,
		HomeTeamID:        home,
		AwayTeamID:        away,
		HomeGoals:         ptr(ftH),
		AwayGoals:         ptr(ftA),
		HomeHalfTimeGoals: ptr(htH),
		AwayHalfTimeGoals: ptr(htA),
	}
}

func TestNewStoreRejectsUnknownDriver(t *testing.T) {
	_, err := NewStore("mysql", "whatever")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	lite := &Store{driver: DriverSQLite}
	q := `SELECT * FROM matches WHERE id = ? AND status IN (?, ?)`

	assert.Equal(t, `SELECT * FROM matches WHERE id = $1 AND status IN ($2, $3)`, pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))

	counts, err := s.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"teams": 0, "matches": 0, "match_statistics": 0, "match_events": 0, "predictions": 0,
	}, counts)
}

func TestUpsertTeams(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertTeams(ctx, []league.Team{{ID: 2, Name: "Benfica"}, {ID: 1, Name: "Porto"}}))
	require.NoError(t, s.UpsertTeams(ctx, []league.Team{{ID: 1, Name: "FC Porto", Country: "Portugal"}}))

	teams, err := s.Teams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, league.Team{ID: 2, Name: "Benfica"}, teams[0])
	assert.Equal(t, league.Team{ID: 1, Name: "FC Porto", Country: "Portugal"}, teams[1])
}

func TestSaveAndLoadMatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertTeams(ctx, []league.Team{{ID: 1, Name: "Porto"}, {ID: 2, Name: "Benfica"}}))

	m := fixture(100, 1, 2, 0, "NS", 0, 0, 0, 0)
	m.HomeGoals, m.AwayGoals, m.HomeHalfTimeGoals, m.AwayHalfTimeGoals = nil, nil, nil, nil
	require.NoError(t, s.SaveMatch(ctx, m))

	got, err := s.Match(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "Porto", got.HomeName)
	assert.Equal(t, "Benfica", got.AwayName)
	assert.Nil(t, got.HomeGoals)
	assert.True(t, got.Kickoff.Equal(baseDay))

	// the fixture finishes
	require.NoError(t, s.SaveMatch(ctx, fixture(100, 1, 2, 0, league.StatusFullTime, 1, 0, 2, 1)))
	got, err = s.Match(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, league.StatusFullTime, got.Status)
	require.NotNil(t, got.HomeGoals)
	assert.Equal(t, 2, *got.HomeGoals)

	_, err = s.Match(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func seedMatches(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	for _, m := range []league.Match{
		fixture(1, 10, 20, 1, league.StatusFullTime, 1, 0, 2, 0),
		fixture(2, 20, 10, 30, league.StatusFullTime, 0, 0, 1, 1),
		fixture(3, 10, 30, 7, league.StatusAfterPenalty, 0, 1, 1, 1),
		fixture(4, 40, 10, 14, league.StatusFullTime, 0, 0, 0, 0),
		fixture(5, 10, 20, -3, "NS", 0, 0, 0, 0),
		fixture(6, 20, 10, 2000, league.StatusFullTime, 2, 2, 3, 3),
	} {
		require.NoError(t, s.SaveMatch(ctx, m))
	}
}

func ids(matches []league.Match) []int {
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.ID)
	}
	return out
}

func TestTeamMatches(t *testing.T) {
	s := newTestStore(t)
	seedMatches(t, s)
	ctx := context.Background()

	tests := []struct {
		name     string
		leagueID int
		before   time.Time
		limit    int
		want     []int
	}{
		{name: "all finished", limit: 10, want: []int{1, 3, 4, 2, 6}},
		{name: "limited", limit: 2, want: []int{1, 3}},
		{name: "other league", leagueID: 39, limit: 10, want: []int{}},
		// fixture 3 kicked off 7 days before baseDay; it and fixture 1 are left out
		{name: "before kickoff", before: baseDay.AddDate(0, 0, -7), limit: 10, want: []int{4, 2, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.TeamMatches(ctx, 10, tt.leagueID, tt.before, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestHeadToHead(t *testing.T) {
	s := newTestStore(t)
	seedMatches(t, s)
	ctx := context.Background()

	since := baseDay.AddDate(-3, 0, 0)
	got, err := s.HeadToHead(ctx, 10, 20, 94, since, time.Time{}, 10)
	require.NoError(t, err)
	// unfinished fixture 5 and the meeting older than the window are left out
	assert.Equal(t, []int{1, 2}, ids(got))

	reversed, err := s.HeadToHead(ctx, 20, 10, 0, since, time.Time{}, 10)
	require.NoError(t, err)
	assert.Equal(t, ids(got), ids(reversed))

	// bounded at fixture 1's kickoff, fixture 1 itself is excluded
	bounded, err := s.HeadToHead(ctx, 10, 20, 94, since, baseDay.AddDate(0, 0, -1), 10)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, ids(bounded))
}

func TestMatchesBetween(t *testing.T) {
	s := newTestStore(t)
	seedMatches(t, s)
	ctx := context.Background()

	got, err := s.MatchesBetween(ctx, baseDay.AddDate(0, 0, 3), baseDay.AddDate(0, 0, 4), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{5}, ids(got))

	got, err = s.MatchesBetween(ctx, baseDay.AddDate(0, 0, 3), baseDay.AddDate(0, 0, 4), []int{39, 88})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStatisticsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	seedMatches(t, s)
	ctx := context.Background()

	lines := []league.StatLine{
		{FixtureID: 1, TeamID: 10, Values: map[string]league.StatValue{
			league.StatShotsOnGoal: league.ParseStatValue(6),
			league.StatPossession:  league.ParseStatValue("58%"),
			league.StatCorners:     league.ParseStatValue(nil),
			"expected_goals":       league.ParseStatValue("n/a"),
		}},
		{FixtureID: 3, TeamID: 10, Values: map[string]league.StatValue{
			league.StatShotsOnGoal: league.ParseStatValue(2),
		}},
		{FixtureID: 1, TeamID: 20, Values: map[string]league.StatValue{
			league.StatShotsOnGoal: league.ParseStatValue(1),
		}},
	}
	require.NoError(t, s.SaveStatistics(ctx, lines))
	// saving again replaces rather than duplicates
	require.NoError(t, s.SaveStatistics(ctx, lines))

	got, err := s.TeamStatistics(ctx, 10, 0, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].FixtureID)
	assert.Equal(t, 6.0, got[0].Values[league.StatShotsOnGoal].Num())
	assert.Equal(t, 58.0, got[0].Values[league.StatPossession].Num())
	assert.Equal(t, league.StatValue{Raw: "n/a"}, got[0].Values["expected_goals"])
	_, ok := got[0].Values[league.StatCorners]
	assert.False(t, ok)
	assert.Equal(t, 3, got[1].FixtureID)

	earlier, err := s.TeamStatistics(ctx, 10, 0, baseDay.AddDate(0, 0, -1), 10)
	require.NoError(t, err)
	require.Len(t, earlier, 1)
	assert.Equal(t, 3, earlier[0].FixtureID)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, counts["match_statistics"])
}

func TestTeamGoalEvents(t *testing.T) {
	s := newTestStore(t)
	seedMatches(t, s)
	ctx := context.Background()

	require.NoError(t, s.SaveEvents(ctx, 1, []league.GoalEvent{
		{TeamID: 10, Elapsed: 12, Type: league.EventGoal, Detail: "Normal Goal", Player: "Taremi"},
		{TeamID: 20, Elapsed: 30, Type: "Card", Detail: "Yellow Card"},
		{TeamID: 10, Elapsed: 90, Extra: ptr(3), Type: league.EventGoal, Detail: "Penalty"},
	}))
	require.NoError(t, s.SaveEvents(ctx, 5, []league.GoalEvent{
		{TeamID: 10, Elapsed: 5, Type: league.EventGoal},
	}))

	got, err := s.TeamGoalEvents(ctx, 10, 0, time.Time{}, 10)
	require.NoError(t, err)
	// fixture 5 has not finished
	require.Len(t, got, 2)
	assert.Equal(t, 12, got[0].Elapsed)
	assert.Equal(t, "Taremi", got[0].Player)
	require.NotNil(t, got[1].Extra)
	assert.Equal(t, 3, *got[1].Extra)

	none, err := s.TeamGoalEvents(ctx, 99, 0, time.Time{}, 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	earlier, err := s.TeamGoalEvents(ctx, 10, 0, baseDay.AddDate(0, 0, -1), 10)
	require.NoError(t, err)
	assert.Empty(t, earlier)
}

func samplePrediction(home, away int, fh, o15 scoring.Recommendation) scoring.Prediction {
	return scoring.Prediction{
		HomeTeamID: home,
		AwayTeamID: away,
		FirstHalfGoal: scoring.MarketResult{
			Market: scoring.MarketFirstHalfGoal, Score: 78.5,
			Confidence: scoring.ConfidenceHigh, Recommendation: fh,
			Components: []scoring.WeightedScore{{Component: scoring.ComponentH2H, Weight: 0.25, Score: 80, Explanation: "x"}},
		},
		Over15: scoring.MarketResult{
			Market: scoring.MarketOver15, Score: 40,
			Confidence: scoring.ConfidenceVeryLow, Recommendation: o15,
			Components: []scoring.WeightedScore{},
		},
		Reasoning: "report",
	}
}

func TestSavePredictionUpsertsByFixture(t *testing.T) {
	s := newTestStore(t)
	seedMatches(t, s)
	ctx := context.Background()

	m, err := s.Match(ctx, 5)
	require.NoError(t, err)
	now := baseDay.Truncate(time.Second)

	first := NewPredictionRecord(m, samplePrediction(10, 20, scoring.RecommendYes, scoring.RecommendNo), now)
	require.NoError(t, s.SavePrediction(ctx, &first))
	require.NotEmpty(t, first.ID)

	second := NewPredictionRecord(m, samplePrediction(10, 20, scoring.RecommendMaybe, scoring.RecommendNo), now)
	require.NoError(t, s.SavePrediction(ctx, &second))
	assert.Equal(t, first.ID, second.ID)

	got, err := s.Prediction(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, scoring.RecommendMaybe, got.FirstHalfGoal.Recommendation)
	assert.Equal(t, 78.5, got.FirstHalfGoal.Score)
	assert.Equal(t, scoring.MarketOver15, got.Over15.Market)
	assert.Equal(t, second.FirstHalfGoal.Components, got.FirstHalfGoal.Components)
	assert.Nil(t, got.Validation)

	day, err := s.PredictionsByDate(ctx, baseDay.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, 5, day[0].FixtureID)

	_, err = s.Prediction(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidatePrediction(t *testing.T) {
	s := newTestStore(t)
	seedMatches(t, s)
	ctx := context.Background()

	// fixture 1 ended 2-0 with a 1-0 half time; fixture 4 ended 0-0
	for id, recs := range map[int][2]scoring.Recommendation{
		1: {scoring.RecommendYes, scoring.RecommendNo},
		4: {scoring.RecommendYes, scoring.RecommendMaybe},
		5: {scoring.RecommendYes, scoring.RecommendYes},
	} {
		m, err := s.Match(ctx, id)
		require.NoError(t, err)
		r := NewPredictionRecord(m, samplePrediction(m.HomeTeamID, m.AwayTeamID, recs[0], recs[1]), baseDay)
		require.NoError(t, s.SavePrediction(ctx, &r))
	}

	r, err := s.ValidatePrediction(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, r.Validation)
	assert.True(t, r.Validation.FirstHalfGoal)
	assert.Equal(t, 2, r.Validation.TotalGoals)
	require.NotNil(t, r.Validation.CorrectFirstHalf)
	assert.True(t, *r.Validation.CorrectFirstHalf)
	require.NotNil(t, r.Validation.CorrectOver15)
	assert.False(t, *r.Validation.CorrectOver15)

	r, err = s.ValidatePrediction(ctx, 4)
	require.NoError(t, err)
	assert.False(t, *r.Validation.CorrectFirstHalf)
	assert.Nil(t, r.Validation.CorrectOver15)

	stored, err := s.Prediction(ctx, 4)
	require.NoError(t, err)
	require.NotNil(t, stored.Validation)
	assert.Nil(t, stored.Validation.CorrectOver15)

	_, err = s.ValidatePrediction(ctx, 5)
	assert.ErrorIs(t, err, ErrNotFinished)
	_, err = s.ValidatePrediction(ctx, 3)
	assert.ErrorIs(t, err, ErrNotFound)

	acc, err := s.PredictionAccuracy(ctx, baseDay.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 2, acc.Validated)
	assert.Equal(t, 2, acc.GradedFirstHalf)
	assert.Equal(t, 1, acc.CorrectFirstHalf)
	assert.InDelta(t, 50.0, acc.FirstHalfAccuracy, 1e-9)
	assert.Equal(t, 1, acc.GradedOver15)
	assert.Equal(t, 0, acc.CorrectOver15)
	assert.Zero(t, acc.Over15Accuracy)
}

func TestPredictionAccuracyEmpty(t *testing.T) {
	s := newTestStore(t)

	acc, err := s.PredictionAccuracy(context.Background(), baseDay)
	require.NoError(t, err)
	assert.Zero(t, acc.Validated)
	assert.Zero(t, acc.FirstHalfAccuracy)
}

func TestResavingPredictionClearsGrade(t *testing.T) {
	s := newTestStore(t)
	seedMatches(t, s)
	ctx := context.Background()

	m, err := s.Match(ctx, 1)
	require.NoError(t, err)

	// fixture 1 had a first-half goal
	yes := NewPredictionRecord(m, samplePrediction(10, 20, scoring.RecommendYes, scoring.RecommendYes), baseDay)
	require.NoError(t, s.SavePrediction(ctx, &yes))
	graded, err := s.ValidatePrediction(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, graded.Validation)

	no := NewPredictionRecord(m, samplePrediction(10, 20, scoring.RecommendNo, scoring.RecommendNo), baseDay)
	require.NoError(t, s.SavePrediction(ctx, &no))

	got, err := s.Prediction(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, scoring.RecommendNo, got.FirstHalfGoal.Recommendation)
	assert.Nil(t, got.Validation)

	acc, err := s.PredictionAccuracy(ctx, baseDay.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Zero(t, acc.Validated)
	assert.Zero(t, acc.GradedFirstHalf)
	assert.Zero(t, acc.CorrectFirstHalf)

	// grading again scores the new call
	regraded, err := s.ValidatePrediction(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, regraded.Validation.CorrectFirstHalf)
	assert.False(t, *regraded.Validation.CorrectFirstHalf)
}

func TestValidatePredictionNeedsFinalScore(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*league.Match)
	}{
		{name: "home goals missing", mutate: func(m *league.Match) { m.HomeGoals = nil }},
		{name: "away goals missing", mutate: func(m *league.Match) { m.AwayGoals = nil }},
		{name: "both missing", mutate: func(m *league.Match) { m.HomeGoals, m.AwayGoals = nil, nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			ctx := context.Background()

			m := fixture(7, 10, 20, 1, league.StatusFullTime, 1, 0, 2, 0)
			tt.mutate(&m)
			require.NoError(t, s.SaveMatch(ctx, m))
			r := NewPredictionRecord(m, samplePrediction(10, 20, scoring.RecommendYes, scoring.RecommendYes), baseDay)
			require.NoError(t, s.SavePrediction(ctx, &r))

			_, err := s.ValidatePrediction(ctx, 7)
			assert.ErrorIs(t, err, ErrNotFinished)

			stored, err := s.Prediction(ctx, 7)
			require.NoError(t, err)
			assert.Nil(t, stored.Validation)
		})
	}
}
