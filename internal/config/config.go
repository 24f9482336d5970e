package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP API
	HTTPAddr    string
	CORSOrigins []string

	// Store
	DBDriver    string
	DatabaseURL string

	// Prediction cache, disabled when RedisURL is empty
	RedisURL string
	CacheTTL time.Duration

	// API-Football
	ProviderBaseURL        string
	ProviderAPIKey         string
	ProviderRequestsPerMin int
	ProviderRequestsPerDay int
	ProviderTimeout        time.Duration

	// Competitions analysed by the daily run
	Leagues []int
	Season  int

	// Input windows, overriding the scoring profile when set
	LookbackYears int
	FormGames     int

	// Scoring profile file, optional
	ScoringProfilePath string

	// Telemetry
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:    envStr("HTTP_ADDR", ":8080"),
		CORSOrigins: envList("CORS_ORIGINS", "*"),

		DBDriver:    envStr("DB_DRIVER", "sqlite"),
		DatabaseURL: envStr("DATABASE_URL", "football_betting.db"),

		RedisURL: envStr("REDIS_URL", ""),
		CacheTTL: time.Duration(envInt("CACHE_EXPIRY_HOURS", 24)) * time.Hour,

		ProviderBaseURL:        envStr("API_FOOTBALL_BASE_URL", "https://v3.football.api-sports.io"),
		ProviderAPIKey:         envStr("API_FOOTBALL_KEY", ""),
		ProviderRequestsPerMin: envInt("API_REQUESTS_PER_MINUTE", 300),
		ProviderRequestsPerDay: envInt("API_REQUESTS_PER_DAY", 10000),
		ProviderTimeout:        time.Duration(envInt("API_TIMEOUT_SEC", 30)) * time.Second,

		// Bundesliga, Ligue 1, MLS, Eredivisie, Premier League, Primeira Liga, Saudi Pro League
		Leagues: envInts("LEAGUES", "78,61,253,88,39,94,307"),
		Season:  envInt("SEASON", 2025),

		LookbackYears: envInt("H2H_LOOKBACK_YEARS", 0),
		FormGames:     envInt("RECENT_FORM_GAMES", 0),

		ScoringProfilePath: envStr("SCORING_PROFILE", ""),

		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogFormat: envStr("LOG_FORMAT", "pretty"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envList(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(envStr(key, fallback), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInts(key, fallback string) []int {
	var out []int
	for _, s := range envList(key, fallback) {
		if n, err := strconv.Atoi(s); err == nil {
			out = append(out, n)
		}
	}
	return out
}
