package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Zerocode-sean/nba-prediction-system/internal/engine"
	"github.com/Zerocode-sean/nba-prediction-system/internal/stats"
	"github.com/Zerocode-sean/nba-prediction-system/internal/validate"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestTeamStats_RoundTrip(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()
	rows := []stats.TeamStatistics{
		{Team: "Boston Celtics", Season: "2023-24", WinPct: 0.780, NetRating: 11.4, PointsPerGame: 120.6, OppPointsPerGame: 109.2, Pace: 98.4},
		{Team: "Miami Heat", Season: "2023-24", WinPct: 0.561, NetRating: 2.1, PointsPerGame: 111.6, OppPointsPerGame: 109.5, Pace: 96.8},
	}
	if err := New(rdb).WriteTeamStats(ctx, rows); err != nil {
		t.Fatalf("WriteTeamStats: %v", err)
	}
	got, err := NewReader(rdb).TeamStats(ctx)
	if err != nil {
		t.Fatalf("TeamStats: %v", err)
	}
	if len(got) != 2 || got[0] != rows[0] || got[1] != rows[1] {
		t.Errorf("TeamStats = %+v; want written rows back", got)
	}
}

func TestTeamStats_Missing(t *testing.T) {
	got, err := NewReader(testRedis(t)).TeamStats(context.Background())
	if err != nil {
		t.Fatalf("TeamStats on empty cache: %v", err)
	}
	if got != nil {
		t.Errorf("TeamStats = %+v; want nil for missing key", got)
	}
}

func TestFixtures_RoundTrip(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()
	fixtures := []engine.Fixture{
		{HomeTeam: "Boston Celtics", AwayTeam: "Miami Heat"},
		{HomeTeam: "Denver Nuggets", AwayTeam: "Los Angeles Lakers"},
	}
	if err := New(rdb).WriteUpcomingFixtures(ctx, fixtures); err != nil {
		t.Fatalf("WriteUpcomingFixtures: %v", err)
	}
	got, err := NewReader(rdb).UpcomingFixtures(ctx)
	if err != nil {
		t.Fatalf("UpcomingFixtures: %v", err)
	}
	if len(got) != 2 || got[0] != fixtures[0] {
		t.Errorf("UpcomingFixtures = %+v; want written fixtures back", got)
	}
}

func TestCompletedGames_RoundTrip(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()
	games := []validate.CompletedGame{
		{HomeTeam: "Boston Celtics", AwayTeam: "Miami Heat", HomeScore: 115, AwayScore: 102, PlayedAt: time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC)},
	}
	if err := New(rdb).WriteCompletedGames(ctx, games); err != nil {
		t.Fatalf("WriteCompletedGames: %v", err)
	}
	got, err := NewReader(rdb).CompletedGames(ctx)
	if err != nil {
		t.Fatalf("CompletedGames: %v", err)
	}
	if len(got) != 1 || got[0].HomeScore != 115 || !got[0].PlayedAt.Equal(games[0].PlayedAt) {
		t.Errorf("CompletedGames = %+v; want written games back", got)
	}
}

func TestEngineStatus_RoundTrip(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()
	status := EngineStatus{
		ModelsReady: false,
		Artifacts:   map[string]bool{"win_loss_model.json": true, "over_under_model.json": false},
		StatsTeams:  30,
		Season:      "2023-24",
		Line:        235,
		UpdatedAt:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := New(rdb).WriteEngineStatus(ctx, status); err != nil {
		t.Fatalf("WriteEngineStatus: %v", err)
	}
	got, err := NewReader(rdb).EngineStatus(ctx)
	if err != nil {
		t.Fatalf("EngineStatus: %v", err)
	}
	if got == nil {
		t.Fatal("EngineStatus = nil; want snapshot back")
	}
	if got.ModelsReady || got.StatsTeams != 30 || !got.Artifacts["win_loss_model.json"] || got.Artifacts["over_under_model.json"] {
		t.Errorf("EngineStatus = %+v; want written status back", got)
	}
}

func TestEngineStatus_Missing(t *testing.T) {
	got, err := NewReader(testRedis(t)).EngineStatus(context.Background())
	if err != nil {
		t.Fatalf("EngineStatus on empty cache: %v", err)
	}
	if got != nil {
		t.Errorf("EngineStatus = %+v; want nil for missing key", got)
	}
}

func TestPredictions_TTLApplied(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	if err := New(rdb).WritePredictions(ctx, []engine.Prediction{}); err != nil {
		t.Fatalf("WritePredictions: %v", err)
	}
	ttl := rdb.TTL(ctx, PredictionsKey).Val()
	if ttl <= 0 || ttl > PredictionsTTL {
		t.Errorf("TTL = %v; want in (0, %v]", ttl, PredictionsTTL)
	}

	// Past the TTL the snapshot is gone and reads go back to "missing".
	mr.FastForward(PredictionsTTL + time.Minute)
	got, err := NewReader(rdb).Predictions(ctx)
	if err != nil {
		t.Fatalf("Predictions after expiry: %v", err)
	}
	if got != nil {
		t.Errorf("Predictions after expiry = %+v; want nil", got)
	}
}

func TestCorruptSnapshotIsAnError(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()
	if err := rdb.Set(ctx, TeamStatsKey, "not json", 0).Err(); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}
	if _, err := NewReader(rdb).TeamStats(ctx); err == nil {
		t.Error("TeamStats(corrupt value) succeeded; want unmarshal error")
	}
}
