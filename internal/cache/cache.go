package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Zerocode-sean/nba-prediction-system/internal/engine"
	"github.com/Zerocode-sean/nba-prediction-system/internal/stats"
	"github.com/Zerocode-sean/nba-prediction-system/internal/validate"
)

// Snapshot keys. The collector writes the first three, the predictor the next
// two, the evaluator the last; any consumer may read any of them.
const (
	TeamStatsKey        = "nba:team_stats"
	UpcomingFixturesKey = "nba:upcoming_fixtures"
	CompletedGamesKey   = "nba:completed_games"
	PredictionsKey      = "nba:predictions"
	EngineStatusKey     = "nba:engine_status"
	ValidationReportKey = "nba:validation_report"
)

// Snapshot lifetimes. Statistics and completed games outlive a collector
// outage; fixtures and predictions go stale with the schedule.
const (
	TeamStatsTTL        = 12 * time.Hour
	UpcomingFixturesTTL = 1 * time.Hour
	CompletedGamesTTL   = 12 * time.Hour
	PredictionsTTL      = 1 * time.Hour
	EngineStatusTTL     = 24 * time.Hour
	ValidationReportTTL = 24 * time.Hour
)

// EngineStatus is the introspection snapshot a consumer reads to decide
// between showing live predictions and a degraded "models not loaded" view.
type EngineStatus struct {
	ModelsReady bool            `json:"modelsReady"`
	Artifacts   map[string]bool `json:"artifacts"`
	StatsTeams  int             `json:"statsTeams"`
	Season      string          `json:"season"`
	Line        float64         `json:"line"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Cache writes JSON snapshots to Redis.
type Cache struct {
	client *redis.Client
}

// New returns a Cache.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return c.client.Set(ctx, key, b, ttl).Err()
}

// WriteTeamStats snapshots the statistics table.
func (c *Cache) WriteTeamStats(ctx context.Context, rows []stats.TeamStatistics) error {
	return c.setJSON(ctx, TeamStatsKey, rows, TeamStatsTTL)
}

// WriteUpcomingFixtures snapshots the fixtures awaiting prediction.
func (c *Cache) WriteUpcomingFixtures(ctx context.Context, fixtures []engine.Fixture) error {
	return c.setJSON(ctx, UpcomingFixturesKey, fixtures, UpcomingFixturesTTL)
}

// WriteCompletedGames snapshots recently finished games.
func (c *Cache) WriteCompletedGames(ctx context.Context, games []validate.CompletedGame) error {
	return c.setJSON(ctx, CompletedGamesKey, games, CompletedGamesTTL)
}

// WritePredictions snapshots the latest prediction run.
func (c *Cache) WritePredictions(ctx context.Context, preds []engine.Prediction) error {
	return c.setJSON(ctx, PredictionsKey, preds, PredictionsTTL)
}

// WriteEngineStatus snapshots readiness introspection.
func (c *Cache) WriteEngineStatus(ctx context.Context, s EngineStatus) error {
	return c.setJSON(ctx, EngineStatusKey, s, EngineStatusTTL)
}

// WriteValidationReport snapshots the latest validation run.
func (c *Cache) WriteValidationReport(ctx context.Context, rep *validate.Report) error {
	return c.setJSON(ctx, ValidationReportKey, rep, ValidationReportTTL)
}

// Reader reads snapshots. A missing key is (nil, nil): absence is a normal
// state between collector runs, not an error.
type Reader struct {
	client *redis.Client
}

// NewReader returns a Reader.
func NewReader(client *redis.Client) *Reader {
	return &Reader{client: client}
}

func (r *Reader) bytes(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// TeamStats returns the statistics snapshot or nil if missing.
func (r *Reader) TeamStats(ctx context.Context) ([]stats.TeamStatistics, error) {
	b, err := r.bytes(ctx, TeamStatsKey)
	if b == nil || err != nil {
		return nil, err
	}
	var out []stats.TeamStatistics
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", TeamStatsKey, err)
	}
	return out, nil
}

// UpcomingFixtures returns the fixtures snapshot or nil if missing.
func (r *Reader) UpcomingFixtures(ctx context.Context) ([]engine.Fixture, error) {
	b, err := r.bytes(ctx, UpcomingFixturesKey)
	if b == nil || err != nil {
		return nil, err
	}
	var out []engine.Fixture
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", UpcomingFixturesKey, err)
	}
	return out, nil
}

// CompletedGames returns the completed-games snapshot or nil if missing.
func (r *Reader) CompletedGames(ctx context.Context) ([]validate.CompletedGame, error) {
	b, err := r.bytes(ctx, CompletedGamesKey)
	if b == nil || err != nil {
		return nil, err
	}
	var out []validate.CompletedGame
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", CompletedGamesKey, err)
	}
	return out, nil
}

// Predictions returns the predictions snapshot or nil if missing.
func (r *Reader) Predictions(ctx context.Context) ([]engine.Prediction, error) {
	b, err := r.bytes(ctx, PredictionsKey)
	if b == nil || err != nil {
		return nil, err
	}
	var out []engine.Prediction
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", PredictionsKey, err)
	}
	return out, nil
}

// EngineStatus returns the status snapshot or nil if missing.
func (r *Reader) EngineStatus(ctx context.Context) (*EngineStatus, error) {
	b, err := r.bytes(ctx, EngineStatusKey)
	if b == nil || err != nil {
		return nil, err
	}
	var out EngineStatus
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", EngineStatusKey, err)
	}
	return &out, nil
}

// ValidationReport returns the report snapshot or nil if missing.
func (r *Reader) ValidationReport(ctx context.Context) (*validate.Report, error) {
	b, err := r.bytes(ctx, ValidationReportKey)
	if b == nil || err != nil {
		return nil, err
	}
	var out validate.Report
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", ValidationReportKey, err)
	}
	return &out, nil
}
