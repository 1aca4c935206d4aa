package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/Zerocode-sean/nba-prediction-system/internal/cache"
	"github.com/Zerocode-sean/nba-prediction-system/internal/config"
	"github.com/Zerocode-sean/nba-prediction-system/internal/engine"
	"github.com/Zerocode-sean/nba-prediction-system/internal/registry"
	"github.com/Zerocode-sean/nba-prediction-system/internal/stats"
)

const predictorRunTimeout = 90 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file, using environment variables")
	}
	cfg := config.Load()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("redis ping failed", "error", err)
		os.Exit(1)
	}

	reader := cache.NewReader(rdb)
	c := cache.New(rdb)

	reg := registry.New()
	if failed := reg.Load(cfg.ModelsDir).Failed(); len(failed) > 0 {
		slog.Warn("model artifacts unavailable", "dir", cfg.ModelsDir, "missing", failed)
	} else {
		slog.Info("model artifacts loaded", "dir", cfg.ModelsDir)
	}

	ticker := time.NewTicker(cfg.PredictInterval)
	defer ticker.Stop()

	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), predictorRunTimeout)
		defer cancel()

		// Artifacts may land after startup; retry until the set is complete.
		if !reg.Ready() {
			reg.Load(cfg.ModelsDir)
		}

		store := loadStore(ctx, reader, cfg.StatsCSV)
		var season string
		var teams int
		if store != nil {
			teams = len(store.Rows())
			var err error
			if season, err = store.LatestSeason(); err != nil {
				slog.Warn("no season in team stats", "error", err)
			}
		}

		// The status snapshot goes out every tick so consumers can see
		// why predictions are absent.
		status := cache.EngineStatus{
			ModelsReady: reg.Ready(),
			Artifacts:   reg.Status(),
			StatsTeams:  teams,
			Season:      season,
			Line:        cfg.OverUnderLine,
			UpdatedAt:   time.Now().UTC(),
		}
		if err := c.WriteEngineStatus(ctx, status); err != nil {
			slog.Warn("write engine status failed", "error", err)
		}

		if store == nil || season == "" {
			slog.Warn("no usable team statistics, skipping predictions")
			return
		}
		if !reg.Ready() {
			missing := make([]string, 0, 4)
			for name, ok := range reg.Status() {
				if !ok {
					missing = append(missing, name)
				}
			}
			sort.Strings(missing)
			slog.Warn("models not loaded, skipping predictions", "missing", missing)
			return
		}

		eng := engine.New(store, reg, engine.WithLine(cfg.OverUnderLine))

		fixtures, err := reader.UpcomingFixtures(ctx)
		if err != nil {
			slog.Warn("upcoming fixtures read failed", "error", err)
			return
		}
		if len(fixtures) == 0 {
			slog.Info("no upcoming fixtures cached, skipping predictions")
			return
		}

		results := eng.PredictBatch(ctx, fixtures)
		preds := make([]engine.Prediction, 0, len(results))
		for _, res := range results {
			if res.Err != nil {
				slog.Warn("prediction failed", "home", res.Fixture.HomeTeam, "away", res.Fixture.AwayTeam, "error", res.Err)
				continue
			}
			p := *res.Prediction
			preds = append(preds, p)
			slog.Info("prediction",
				"home", p.HomeTeam, "away", p.AwayTeam,
				"winner_pick", p.WinLoss.Pick, "winner_confidence", p.WinLoss.Confidence, "winner_tier", p.WinLoss.Tier,
				"total_pick", p.OverUnder.Pick, "total_confidence", p.OverUnder.Confidence, "line", p.OverUnder.Line)
		}
		if len(preds) == 0 {
			slog.Warn("no fixture produced a prediction", "fixtures", len(fixtures))
			return
		}
		if err := c.WritePredictions(ctx, preds); err != nil {
			slog.Warn("write predictions failed", "error", err)
			return
		}
		slog.Info("predictions written", "predictions", len(preds), "fixtures", len(fixtures), "season", season)
	}

	for {
		run()
		select {
		case <-ctx.Done():
			slog.Info("predictor shutting down", "reason", ctx.Err())
			return
		case <-ticker.C:
			// loop
		}
	}
}

// loadStore prefers the collector's cached snapshot and falls back to the
// bundled CSV so the engine can come up before the first collection run.
func loadStore(ctx context.Context, reader *cache.Reader, csvPath string) *stats.Store {
	rows, err := reader.TeamStats(ctx)
	if err != nil {
		slog.Warn("team stats read failed", "error", err)
	}
	if len(rows) > 0 {
		store, err := stats.New(rows)
		if err != nil {
			slog.Warn("cached team stats unusable", "error", err)
		} else {
			return store
		}
	}
	store, err := stats.LoadCSVFile(csvPath)
	if err != nil {
		slog.Warn("bundled team stats unavailable", "path", csvPath, "error", err)
		return nil
	}
	slog.Info("using bundled team stats snapshot", "path", csvPath, "teams", len(store.Rows()))
	return store
}
