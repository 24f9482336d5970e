package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/utakatalp/goal-forecaster/internal/league"
	"github.com/utakatalp/goal-forecaster/internal/scoring"
)

// ErrNotFinished is returned when validating a fixture that has not ended.
var ErrNotFinished = errors.New("fixture not finished")

// PredictionRecord is a stored prediction for one fixture.
type PredictionRecord struct {
	ID            string               `json:"id"`
	FixtureID     int                  `json:"fixture_id"`
	LeagueID      int                  `json:"league_id"`
	Kickoff       time.Time            `json:"kickoff"`
	HomeTeamID    int                  `json:"home_team_id"`
	AwayTeamID    int                  `json:"away_team_id"`
	HomeTeam      string               `json:"home_team"`
	AwayTeam      string               `json:"away_team"`
	FirstHalfGoal scoring.MarketResult `json:"first_half_goal"`
	Over15        scoring.MarketResult `json:"over15"`
	Reasoning     string               `json:"reasoning"`
	CreatedAt     time.Time            `json:"created_at"`
	Validation    *Validation          `json:"validation,omitempty"`
}

// Validation is the real outcome of a predicted fixture. Correct flags are
// nil for MAYBE calls.
type Validation struct {
	FirstHalfGoal    bool      `json:"first_half_goal"`
	TotalGoals       int       `json:"total_goals"`
	CorrectFirstHalf *bool     `json:"correct_first_half"`
	CorrectOver15    *bool     `json:"correct_over15"`
	ValidatedAt      time.Time `json:"validated_at"`
}

// NewPredictionRecord ties an engine prediction to its fixture.
func NewPredictionRecord(m league.Match, p scoring.Prediction, now time.Time) PredictionRecord {
	return PredictionRecord{
		FixtureID:     m.ID,
		LeagueID:      m.LeagueID,
		Kickoff:       m.Kickoff,
		HomeTeamID:    p.HomeTeamID,
		AwayTeamID:    p.AwayTeamID,
		HomeTeam:      m.HomeName,
		AwayTeam:      m.AwayName,
		FirstHalfGoal: p.FirstHalfGoal,
		Over15:        p.Over15,
		Reasoning:     p.Reasoning,
		CreatedAt:     now,
	}
}

// SavePrediction stores a prediction, replacing any earlier one for the same
// fixture. The record keeps its id across replacements; a new record gets a
// fresh one, written back into r. A replaced prediction loses its grade.
func (s *Store) SavePrediction(ctx context.Context, r *PredictionRecord) error {
	fh, err := json.Marshal(r.FirstHalfGoal.Components)
	if err != nil {
		return fmt.Errorf("encoding components: %w", err)
	}
	o15, err := json.Marshal(r.Over15.Components)
	if err != nil {
		return fmt.Errorf("encoding components: %w", err)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	q := s.rebind(`
INSERT INTO predictions (
  id, fixture_id, league_id, kickoff, home_team_id, away_team_id, home_team, away_team,
  fh_score, fh_confidence, fh_recommendation, fh_components,
  o15_score, o15_confidence, o15_recommendation, o15_components,
  reasoning, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (fixture_id) DO UPDATE SET
  league_id = excluded.league_id,
  kickoff = excluded.kickoff,
  home_team_id = excluded.home_team_id,
  away_team_id = excluded.away_team_id,
  home_team = excluded.home_team,
  away_team = excluded.away_team,
  fh_score = excluded.fh_score,
  fh_confidence = excluded.fh_confidence,
  fh_recommendation = excluded.fh_recommendation,
  fh_components = excluded.fh_components,
  o15_score = excluded.o15_score,
  o15_confidence = excluded.o15_confidence,
  o15_recommendation = excluded.o15_recommendation,
  o15_components = excluded.o15_components,
  reasoning = excluded.reasoning,
  created_at = excluded.created_at,
  actual_ht_goal = NULL,
  actual_ft_goals = NULL,
  correct_ht = NULL,
  correct_ft = NULL,
  validated_at = NULL
RETURNING id
`)
	err = s.DB.QueryRowContext(ctx, q,
		r.ID, r.FixtureID, r.LeagueID, formatTime(r.Kickoff),
		r.HomeTeamID, r.AwayTeamID, r.HomeTeam, r.AwayTeam,
		r.FirstHalfGoal.Score, string(r.FirstHalfGoal.Confidence), string(r.FirstHalfGoal.Recommendation), string(fh),
		r.Over15.Score, string(r.Over15.Confidence), string(r.Over15.Recommendation), string(o15),
		r.Reasoning, formatTime(r.CreatedAt),
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("saving prediction for %d: %w", r.FixtureID, err)
	}
	return nil
}

const predictionColumns = `
  id, fixture_id, league_id, kickoff, home_team_id, away_team_id, home_team, away_team,
  fh_score, fh_confidence, fh_recommendation, fh_components,
  o15_score, o15_confidence, o15_recommendation, o15_components,
  reasoning, created_at,
  actual_ht_goal, actual_ft_goals, correct_ht, correct_ft, validated_at
FROM predictions`

func boolPtr(v sql.NullInt64) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Int64 != 0
	return &b
}

func scanPrediction(sc scanner) (PredictionRecord, error) {
	var (
		r                    PredictionRecord
		kickoff, created     string
		fhComp, o15Comp      string
		fhConf, fhRec        string
		o15Conf, o15Rec      string
		actualHT, actualFT   sql.NullInt64
		correctHT, correctFT sql.NullInt64
		validatedAt          sql.NullString
	)
	if err := sc.Scan(
		&r.ID, &r.FixtureID, &r.LeagueID, &kickoff, &r.HomeTeamID, &r.AwayTeamID, &r.HomeTeam, &r.AwayTeam,
		&r.FirstHalfGoal.Score, &fhConf, &fhRec, &fhComp,
		&r.Over15.Score, &o15Conf, &o15Rec, &o15Comp,
		&r.Reasoning, &created,
		&actualHT, &actualFT, &correctHT, &correctFT, &validatedAt,
	); err != nil {
		return PredictionRecord{}, err
	}

	var err error
	if r.Kickoff, err = parseTime(kickoff); err != nil {
		return PredictionRecord{}, err
	}
	if r.CreatedAt, err = parseTime(created); err != nil {
		return PredictionRecord{}, err
	}
	if err := json.Unmarshal([]byte(fhComp), &r.FirstHalfGoal.Components); err != nil {
		return PredictionRecord{}, fmt.Errorf("decoding components: %w", err)
	}
	if err := json.Unmarshal([]byte(o15Comp), &r.Over15.Components); err != nil {
		return PredictionRecord{}, fmt.Errorf("decoding components: %w", err)
	}
	r.FirstHalfGoal.Market = scoring.MarketFirstHalfGoal
	r.FirstHalfGoal.Confidence = scoring.Confidence(fhConf)
	r.FirstHalfGoal.Recommendation = scoring.Recommendation(fhRec)
	r.Over15.Market = scoring.MarketOver15
	r.Over15.Confidence = scoring.Confidence(o15Conf)
	r.Over15.Recommendation = scoring.Recommendation(o15Rec)

	if validatedAt.Valid {
		at, err := parseTime(validatedAt.String)
		if err != nil {
			return PredictionRecord{}, err
		}
		r.Validation = &Validation{
			FirstHalfGoal:    actualHT.Int64 != 0,
			TotalGoals:       int(actualFT.Int64),
			CorrectFirstHalf: boolPtr(correctHT),
			CorrectOver15:    boolPtr(correctFT),
			ValidatedAt:      at,
		}
	}
	return r, nil
}

// Prediction loads the stored prediction for a fixture.
func (s *Store) Prediction(ctx context.Context, fixtureID int) (PredictionRecord, error) {
	row := s.DB.QueryRowContext(ctx, s.rebind(`SELECT `+predictionColumns+` WHERE fixture_id = ?`), fixtureID)
	r, err := scanPrediction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return PredictionRecord{}, fmt.Errorf("prediction for %d: %w", fixtureID, ErrNotFound)
	}
	if err != nil {
		return PredictionRecord{}, fmt.Errorf("loading prediction for %d: %w", fixtureID, err)
	}
	return r, nil
}

// PredictionsByDate returns the predictions for fixtures on the given UTC day,
// best first-half score first.
func (s *Store) PredictionsByDate(ctx context.Context, day time.Time) ([]PredictionRecord, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	rows, err := s.DB.QueryContext(ctx,
		s.rebind(`SELECT `+predictionColumns+` WHERE kickoff >= ? AND kickoff < ? ORDER BY fh_score DESC, fixture_id`),
		formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("querying predictions: %w", err)
	}
	defer rows.Close()

	var out []PredictionRecord
	for rows.Next() {
		r, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning prediction: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating predictions: %w", err)
	}
	return out, nil
}

// ValidatePrediction grades a fixture's prediction against its final score.
func (s *Store) ValidatePrediction(ctx context.Context, fixtureID int) (PredictionRecord, error) {
	m, err := s.Match(ctx, fixtureID)
	if err != nil {
		return PredictionRecord{}, err
	}
	if !m.IsFinished() {
		return PredictionRecord{}, fmt.Errorf("validating %d (status %s): %w", fixtureID, m.Status, ErrNotFinished)
	}
	if m.HomeGoals == nil || m.AwayGoals == nil {
		return PredictionRecord{}, fmt.Errorf("validating %d: final score missing: %w", fixtureID, ErrNotFinished)
	}
	r, err := s.Prediction(ctx, fixtureID)
	if err != nil {
		return PredictionRecord{}, err
	}

	v := &Validation{
		FirstHalfGoal: m.FirstHalfGoals() > 0,
		TotalGoals:    m.TotalGoals(),
		ValidatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	correctHT := gradeColumn(r.FirstHalfGoal.Recommendation, v.FirstHalfGoal, &v.CorrectFirstHalf)
	correctFT := gradeColumn(r.Over15.Recommendation, v.TotalGoals >= 2, &v.CorrectOver15)

	actualHT := 0
	if v.FirstHalfGoal {
		actualHT = 1
	}
	_, err = s.DB.ExecContext(ctx, s.rebind(`
    UPDATE predictions
    SET actual_ht_goal = ?, actual_ft_goals = ?, correct_ht = ?, correct_ft = ?, validated_at = ?
    WHERE fixture_id = ?`),
		actualHT, v.TotalGoals, correctHT, correctFT, formatTime(v.ValidatedAt), fixtureID,
	)
	if err != nil {
		return PredictionRecord{}, fmt.Errorf("validating prediction for %d: %w", fixtureID, err)
	}

	r.Validation = v
	return r, nil
}

// gradeColumn grades a recommendation, stores the flag in dst and returns
// the value for the nullable column.
func gradeColumn(rec scoring.Recommendation, landed bool, dst **bool) any {
	correct, graded := scoring.Grade(rec, landed)
	if !graded {
		return nil
	}
	*dst = &correct
	if correct {
		return 1
	}
	return 0
}

// Accuracy summarises graded predictions.
type Accuracy struct {
	Since             time.Time `json:"since"`
	Validated         int       `json:"validated"`
	GradedFirstHalf   int       `json:"graded_first_half"`
	CorrectFirstHalf  int       `json:"correct_first_half"`
	FirstHalfAccuracy float64   `json:"first_half_accuracy"`
	GradedOver15      int       `json:"graded_over15"`
	CorrectOver15     int       `json:"correct_over15"`
	Over15Accuracy    float64   `json:"over15_accuracy"`
}

// PredictionAccuracy reports hit rates for validated predictions of fixtures
// that kicked off at or after since.
func (s *Store) PredictionAccuracy(ctx context.Context, since time.Time) (Accuracy, error) {
	acc := Accuracy{Since: since}
	var correctHT, correctFT sql.NullInt64

	err := s.DB.QueryRowContext(ctx, s.rebind(`
    SELECT
      COUNT(*),
      COUNT(correct_ht),
      SUM(CASE WHEN correct_ht = 1 THEN 1 ELSE 0 END),
      COUNT(correct_ft),
      SUM(CASE WHEN correct_ft = 1 THEN 1 ELSE 0 END)
    FROM predictions
    WHERE validated_at IS NOT NULL AND kickoff >= ?`), formatTime(since),
	).Scan(&acc.Validated, &acc.GradedFirstHalf, &correctHT, &acc.GradedOver15, &correctFT)
	if err != nil {
		return Accuracy{}, fmt.Errorf("querying accuracy: %w", err)
	}

	acc.CorrectFirstHalf = int(correctHT.Int64)
	acc.CorrectOver15 = int(correctFT.Int64)
	if acc.GradedFirstHalf > 0 {
		acc.FirstHalfAccuracy = float64(acc.CorrectFirstHalf) / float64(acc.GradedFirstHalf) * 100
	}
	if acc.GradedOver15 > 0 {
		acc.Over15Accuracy = float64(acc.CorrectOver15) / float64(acc.GradedOver15) * 100
	}
	return acc, nil
}
