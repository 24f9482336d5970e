package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/utakatalp/goal-forecaster/internal/analysis"
	"github.com/utakatalp/goal-forecaster/internal/api"
	"github.com/utakatalp/goal-forecaster/internal/cache"
	"github.com/utakatalp/goal-forecaster/internal/config"
	"github.com/utakatalp/goal-forecaster/internal/provider"
	"github.com/utakatalp/goal-forecaster/internal/scoring"
	"github.com/utakatalp/goal-forecaster/internal/store"
	"github.com/utakatalp/goal-forecaster/internal/telemetry"
)

func main() {
	var (
		migrate  = flag.Bool("migrate", false, "create the database schema and exit")
		date     = flag.String("date", "", "analyse the fixtures of a day (YYYY-MM-DD, or \"today\") and print the ranking")
		fixture  = flag.Int("fixture", 0, "analyse one fixture by id and print the reasoning")
		validate = flag.Int("validate", 0, "grade the stored prediction of a finished fixture")
		accuracy = flag.Int("accuracy", 0, "print prediction accuracy over the last N days")
	)
	flag.Parse()

	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel), cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *migrate, *date, *fixture, *validate, *accuracy); err != nil {
		telemetry.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, migrate bool, date string, fixture, validate, accuracy int) error {
	scoringCfg, err := cfg.Scoring()
	if err != nil {
		return err
	}

	st, err := store.NewStore(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	if migrate {
		telemetry.Infof("schema ready on %s", cfg.DBDriver)
		return nil
	}

	if accuracy > 0 {
		acc, err := st.PredictionAccuracy(ctx, time.Now().UTC().AddDate(0, 0, -accuracy))
		if err != nil {
			return err
		}
		printAccuracy(os.Stdout, acc)
		return nil
	}

	svc, cleanup := newService(ctx, cfg, st, scoringCfg)
	defer cleanup()

	switch {
	case validate > 0:
		rec, err := svc.Validate(ctx, validate)
		if err != nil {
			return err
		}
		fmt.Printf("%s vs %s: HT goal %t, %d goals\n", rec.HomeTeam, rec.AwayTeam, rec.Validation.FirstHalfGoal, rec.Validation.TotalGoals)
		return nil
	case fixture > 0:
		rec, err := svc.Analyze(ctx, fixture)
		if err != nil {
			return err
		}
		fmt.Println(rec.Reasoning)
		return nil
	case date != "":
		day := time.Now().UTC()
		if date != "today" {
			if day, err = time.Parse("2006-01-02", date); err != nil {
				return fmt.Errorf("invalid -date %q: %w", date, err)
			}
		}
		recs, err := svc.AnalyzeDate(ctx, day)
		if err != nil {
			return err
		}
		printPredictions(os.Stdout, "Predictions for "+day.Format("2006-01-02"), recs)
		return nil
	}

	server := api.NewServer(svc, st)
	telemetry.Infof("listening on %s", cfg.HTTPAddr)
	if err := server.Start(ctx, cfg.HTTPAddr, cfg.CORSOrigins); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newService wires the optional provider and cache around the store.
func newService(ctx context.Context, cfg *config.Config, st *store.Store, scoringCfg scoring.Config) (*analysis.Service, func()) {
	cleanup := func() {}

	var source analysis.Source
	if cfg.ProviderAPIKey != "" {
		source = provider.NewClient(provider.Options{
			BaseURL:        cfg.ProviderBaseURL,
			APIKey:         cfg.ProviderAPIKey,
			RequestsPerMin: cfg.ProviderRequestsPerMin,
			RequestsPerDay: cfg.ProviderRequestsPerDay,
			Timeout:        cfg.ProviderTimeout,
		})
	} else {
		telemetry.Warnf("API_FOOTBALL_KEY not set, analysing stored data only")
	}

	var predictionCache analysis.Cache
	if cfg.RedisURL != "" {
		c, err := cache.Open(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			telemetry.Warnf("prediction cache disabled: %v", err)
		} else {
			predictionCache = c
			cleanup = func() { _ = c.Close() }
		}
	}

	svc := analysis.NewService(st, source, predictionCache, scoring.NewEngine(scoringCfg), analysis.Options{
		Leagues: cfg.Leagues,
		Season:  cfg.Season,
		KeyFunc: cache.Key,
	})
	return svc, cleanup
}
