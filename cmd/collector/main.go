package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/Zerocode-sean/nba-prediction-system/internal/archive"
	"github.com/Zerocode-sean/nba-prediction-system/internal/cache"
	"github.com/Zerocode-sean/nba-prediction-system/internal/config"
	"github.com/Zerocode-sean/nba-prediction-system/internal/nba"
	"github.com/Zerocode-sean/nba-prediction-system/internal/stats"
	"github.com/Zerocode-sean/nba-prediction-system/internal/validate"
)

const (
	// fixtureDays is days ahead beyond today, so the fixture snapshot covers
	// today and tomorrow's slate.
	fixtureDays = 1
	// completedDaysBack is the sweep window for final scores; the archive
	// dedupes, so overlap between runs is harmless.
	completedDaysBack   = 3
	collectorRunTimeout = 2 * time.Minute
)

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

	arch, err := archive.Open(cfg.ArchiveDSN)
	if err != nil {
		slog.Error("archive open failed", "dsn", cfg.ArchiveDSN, "error", err)
		os.Exit(1)
	}
	defer arch.Close()

	nbaClient := nba.NewClient(nba.ClientOptions{
		ScoreboardBase: cfg.ScoreboardBase,
		StatsBase:      cfg.LeagueStatsBase,
	})
	c := cache.New(rdb)

	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), collectorRunTimeout)
		defer cancel()

		now := time.Now()
		season := stats.CurrentSeason(now)
		if !stats.SeasonActive(now) {
			slog.Info("offseason, scoreboard likely empty", "season", season)
		}

		rows, err := nbaClient.LeagueTeamStats(ctx, season)
		if err != nil {
			slog.Warn("team stats fetch failed", "season", season, "error", err)
		} else if err := c.WriteTeamStats(ctx, rows); err != nil {
			slog.Warn("write team stats failed", "error", err)
		} else {
			slog.Info("team stats updated", "season", season, "teams", len(rows))
		}

		fixtures, err := nbaClient.UpcomingFixtures(ctx, fixtureDays)
		if err != nil {
			slog.Warn("upcoming fixtures fetch failed", "error", err)
		} else if err := c.WriteUpcomingFixtures(ctx, fixtures); err != nil {
			slog.Warn("write upcoming fixtures failed", "error", err)
		} else {
			slog.Info("upcoming fixtures updated", "fixtures", len(fixtures))
		}

		games, err := nbaClient.CompletedGames(ctx, completedDaysBack)
		if err != nil {
			slog.Warn("completed games fetch failed", "error", err)
			return
		}
		completed := make([]validate.CompletedGame, 0, len(games))
		for _, g := range games {
			completed = append(completed, nba.Completed(g))
		}
		if err := c.WriteCompletedGames(ctx, completed); err != nil {
			slog.Warn("write completed games failed", "error", err)
		} else {
			slog.Info("completed games updated", "games", len(completed))
		}
		inserted, err := arch.InsertGames(ctx, games)
		if err != nil {
			slog.Warn("archive insert failed", "error", err)
		} else if inserted > 0 {
			slog.Info("games archived", "new", inserted, "scanned", len(games))
		}
	}

	run()
	ticker := time.NewTicker(cfg.CollectInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("collector shutting down", "reason", ctx.Err())
			return
		case <-ticker.C:
			run()
		}
	}
}
