package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/Zerocode-sean/nba-prediction-system/internal/archive"
	"github.com/Zerocode-sean/nba-prediction-system/internal/cache"
	"github.com/Zerocode-sean/nba-prediction-system/internal/config"
	"github.com/Zerocode-sean/nba-prediction-system/internal/engine"
	"github.com/Zerocode-sean/nba-prediction-system/internal/registry"
	"github.com/Zerocode-sean/nba-prediction-system/internal/stats"
	"github.com/Zerocode-sean/nba-prediction-system/internal/validate"
)

const evaluatorRunTimeout = 90 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file, using environment variables")
	}
	cfg := config.Load()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	arch, err := archive.Open(cfg.ArchiveDSN)
	if err != nil {
		slog.Error("archive open failed", "dsn", cfg.ArchiveDSN, "error", err)
		os.Exit(1)
	}
	defer arch.Close()

	reg := registry.New()
	if failed := reg.Load(cfg.ModelsDir).Failed(); len(failed) > 0 {
		slog.Warn("model artifacts unavailable", "dir", cfg.ModelsDir, "missing", failed)
	}

	for {
		run(cfg, rdb, arch, reg)
		select {
		case <-time.After(cfg.EvalInterval):
			// loop again
		}
	}
}

// run replays the recent archive window through the prediction engine and
// publishes a fresh accuracy report. A failed run leaves the previous report
// in place.
func run(cfg config.Config, rdb *redis.Client, arch *archive.Archive, reg *registry.Registry) {
	ctx, cancel := context.WithTimeout(context.Background(), evaluatorRunTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("evaluator: redis ping failed", "error", err)
		return
	}

	reader := cache.NewReader(rdb)
	store := loadStore(ctx, reader, cfg.StatsCSV)
	if store == nil {
		return
	}
	if !reg.Ready() {
		reg.Load(cfg.ModelsDir)
	}
	eng := engine.New(store, reg, engine.WithLine(cfg.OverUnderLine))

	since := time.Now().AddDate(0, 0, -cfg.EvalDaysBack)
	games, err := arch.GamesSince(ctx, since)
	if err != nil {
		slog.Warn("evaluator: archive read failed", "error", err)
		return
	}
	if len(games) == 0 {
		// Collector may not have archived anything yet; the cache snapshot
		// covers the gap.
		games, err = reader.CompletedGames(ctx)
		if err != nil {
			slog.Warn("evaluator: completed games read failed", "error", err)
			return
		}
	}

	rep, err := validate.New(eng).Validate(ctx, games)
	switch {
	case errors.Is(err, validate.ErrInsufficientData):
		slog.Info("evaluator: no completed games to score", "days_back", cfg.EvalDaysBack)
		return
	case errors.Is(err, engine.ErrModelsNotLoaded):
		slog.Warn("evaluator: models not loaded, skipping run")
		return
	case err != nil:
		slog.Warn("evaluator: validation failed", "error", err)
		return
	}

	if err := cache.New(rdb).WriteValidationReport(ctx, rep); err != nil {
		slog.Warn("evaluator: write report failed", "error", err)
		return
	}
	slog.Info("evaluator: report published",
		"run_id", rep.RunID.String(), "games", rep.TotalGames,
		"winner_accuracy", rep.WinLossAccuracy,
		"total_accuracy", rep.OverUnderAccuracy,
		"both_rate", rep.BothCorrectRate)
}

// loadStore prefers the collector's cached snapshot and falls back to the
// bundled CSV.
func loadStore(ctx context.Context, reader *cache.Reader, csvPath string) *stats.Store {
	rows, err := reader.TeamStats(ctx)
	if err != nil {
		slog.Warn("evaluator: team stats read failed", "error", err)
	}
	if len(rows) > 0 {
		if store, err := stats.New(rows); err == nil {
			return store
		}
	}
	store, err := stats.LoadCSVFile(csvPath)
	if err != nil {
		slog.Warn("evaluator: bundled team stats unavailable", "path", csvPath, "error", err)
		return nil
	}
	return store
}
