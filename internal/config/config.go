// Package config reads service configuration from the environment with
// sensible defaults, so all three commands agree on keys and fallbacks.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every knob the collector, predictor and evaluator read.
type Config struct {
	RedisAddr string

	// ModelsDir holds the four fitted artifact files.
	ModelsDir string
	// StatsCSV is the bundled season snapshot used when the live feed
	// has not populated the cache yet.
	StatsCSV string
	// ArchiveDSN selects Postgres (postgres:// URL) or a SQLite file path.
	ArchiveDSN string

	OverUnderLine float64

	CollectInterval time.Duration
	PredictInterval time.Duration
	EvalInterval    time.Duration
	// EvalDaysBack is how far the evaluator looks into the archive.
	EvalDaysBack int

	// ScoreboardBase and LeagueStatsBase override the upstream endpoints,
	// mainly for tests. Empty means the production hosts.
	ScoreboardBase  string
	LeagueStatsBase string
}

// Load reads the environment. Unparseable values fall back to defaults
// rather than failing startup.
func Load() Config {
	return Config{
		RedisAddr:       getEnv("REDIS_ADDR", "redis:6379"),
		ModelsDir:       getEnv("MODELS_DIR", "models"),
		StatsCSV:        getEnv("STATS_CSV", "data/sample_team_stats.csv"),
		ArchiveDSN:      getEnv("ARCHIVE_DSN", "data/games.db"),
		OverUnderLine:   getFloatEnv("OVER_UNDER_LINE", 235.0),
		CollectInterval: getDurationEnv("COLLECT_INTERVAL", 6*time.Hour),
		PredictInterval: getDurationEnv("PREDICT_INTERVAL", 10*time.Minute),
		EvalInterval:    getDurationEnv("EVAL_INTERVAL", 30*time.Minute),
		EvalDaysBack:    getIntEnv("EVAL_DAYS_BACK", 7),
		ScoreboardBase:  getEnv("SCOREBOARD_BASE", ""),
		LeagueStatsBase: getEnv("LEAGUE_STATS_BASE", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
