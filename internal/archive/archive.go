package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
	_ "github.com/lib/pq"

	"github.com/Zerocode-sean/nba-prediction-system/internal/nba"
	"github.com/Zerocode-sean/nba-prediction-system/internal/validate"
)

const schema = `
CREATE TABLE IF NOT EXISTS completed_games (
	game_id    TEXT PRIMARY KEY,
	played_at  TEXT NOT NULL,
	home_team  TEXT NOT NULL,
	away_team  TEXT NOT NULL,
	home_score INTEGER NOT NULL,
	away_score INTEGER NOT NULL,
	venue      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS completed_games_played_at ON completed_games (played_at);
`

// Archive is the durable store of completed games the evaluator replays.
// Timestamps are stored as RFC 3339 text so date windows work identically
// on both backends.
type Archive struct {
	db     *sql.DB
	driver string
}

// Open opens the archive at dsn and ensures the schema. A postgres:// or
// postgresql:// DSN selects the Postgres driver; anything else is a SQLite
// file path.
func Open(dsn string) (*Archive, error) {
	driver := "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "postgres"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}
	return &Archive{db: db, driver: driver}, nil
}

// Close closes the underlying handle.
func (a *Archive) Close() error {
	return a.db.Close()
}

// rebind turns ? placeholders into the $N form Postgres expects.
func (a *Archive) rebind(query string) string {
	if a.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// InsertGames stores final games, skipping any game_id already present, and
// returns how many rows were new. Re-running a collector sweep is a no-op.
func (a *Archive) InsertGames(ctx context.Context, games []nba.Game) (int, error) {
	if len(games) == 0 {
		return 0, nil
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert games: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, a.rebind(
		`INSERT INTO completed_games (game_id, played_at, home_team, away_team, home_score, away_score, venue)
		 VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT (game_id) DO NOTHING`))
	if err != nil {
		return 0, fmt.Errorf("insert games: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, g := range games {
		res, err := stmt.ExecContext(ctx, g.ID, g.Date.UTC().Format(time.RFC3339), g.HomeTeam, g.AwayTeam, g.HomeScore, g.AwayScore, g.Venue)
		if err != nil {
			return 0, fmt.Errorf("insert game %s: %w", g.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert games: %w", err)
	}
	return inserted, nil
}

// GamesSince returns games played at or after since, oldest first.
func (a *Archive) GamesSince(ctx context.Context, since time.Time) ([]validate.CompletedGame, error) {
	rows, err := a.db.QueryContext(ctx, a.rebind(
		`SELECT played_at, home_team, away_team, home_score, away_score
		 FROM completed_games WHERE played_at >= ? ORDER BY played_at ASC`),
		since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("games since: %w", err)
	}
	defer rows.Close()
	return scanGames(rows)
}

// RecentGames returns the newest limit games in chronological order.
func (a *Archive) RecentGames(ctx context.Context, limit int) ([]validate.CompletedGame, error) {
	rows, err := a.db.QueryContext(ctx, a.rebind(
		`SELECT played_at, home_team, away_team, home_score, away_score
		 FROM completed_games ORDER BY played_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("recent games: %w", err)
	}
	defer rows.Close()
	games, err := scanGames(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(games)-1; i < j; i, j = i+1, j-1 {
		games[i], games[j] = games[j], games[i]
	}
	return games, nil
}

// Count returns the number of archived games.
func (a *Archive) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM completed_games`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count games: %w", err)
	}
	return n, nil
}

func scanGames(rows *sql.Rows) ([]validate.CompletedGame, error) {
	var out []validate.CompletedGame
	for rows.Next() {
		var playedAt string
		var g validate.CompletedGame
		if err := rows.Scan(&playedAt, &g.HomeTeam, &g.AwayTeam, &g.HomeScore, &g.AwayScore); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		t, err := time.Parse(time.RFC3339, playedAt)
		if err != nil {
			return nil, fmt.Errorf("parse played_at %q: %w", playedAt, err)
		}
		g.PlayedAt = t
		out = append(out, g)
	}
	return out, rows.Err()
}
