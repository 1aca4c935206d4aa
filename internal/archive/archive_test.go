package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Zerocode-sean/nba-prediction-system/internal/nba"
)

func testArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "games.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func sampleGames() []nba.Game {
	return []nba.Game{
		{
			ID: "401585601", Date: time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC),
			Status: nba.StatusFinal, HomeTeam: "Boston Celtics", AwayTeam: "Miami Heat",
			HomeScore: 112, AwayScore: 104, Venue: "TD Garden",
		},
		{
			ID: "401585602", Date: time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC),
			Status: nba.StatusFinal, HomeTeam: "Denver Nuggets", AwayTeam: "Los Angeles Lakers",
			HomeScore: 120, AwayScore: 118, Venue: "Ball Arena",
		},
		{
			ID: "401585603", Date: time.Date(2024, 3, 3, 2, 0, 0, 0, time.UTC),
			Status: nba.StatusFinal, HomeTeam: "Miami Heat", AwayTeam: "Denver Nuggets",
			HomeScore: 95, AwayScore: 110, Venue: "Kaseya Center",
		},
	}
}

func TestInsertGames_RoundTrip(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	inserted, err := a.InsertGames(ctx, sampleGames())
	if err != nil {
		t.Fatalf("InsertGames: %v", err)
	}
	if inserted != 3 {
		t.Errorf("inserted %d games; want 3", inserted)
	}

	games, err := a.GamesSince(ctx, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GamesSince: %v", err)
	}
	if len(games) != 3 {
		t.Fatalf("got %d games; want 3", len(games))
	}
	first := games[0]
	if first.HomeTeam != "Boston Celtics" || first.AwayTeam != "Miami Heat" {
		t.Errorf("got %s vs %s; want Boston Celtics vs Miami Heat", first.HomeTeam, first.AwayTeam)
	}
	if first.HomeScore != 112 || first.AwayScore != 104 {
		t.Errorf("got score %d-%d; want 112-104", first.HomeScore, first.AwayScore)
	}
	if !first.PlayedAt.Equal(time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC)) {
		t.Errorf("got played at %v; want 2024-03-01T00:30:00Z", first.PlayedAt)
	}
}

func TestInsertGames_Idempotent(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	if _, err := a.InsertGames(ctx, sampleGames()); err != nil {
		t.Fatalf("first InsertGames: %v", err)
	}
	inserted, err := a.InsertGames(ctx, sampleGames())
	if err != nil {
		t.Fatalf("second InsertGames: %v", err)
	}
	if inserted != 0 {
		t.Errorf("second insert added %d games; want 0", inserted)
	}

	n, err := a.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("got %d archived games; want 3", n)
	}
}

func TestInsertGames_Empty(t *testing.T) {
	a := testArchive(t)

	inserted, err := a.InsertGames(context.Background(), nil)
	if err != nil {
		t.Fatalf("InsertGames: %v", err)
	}
	if inserted != 0 {
		t.Errorf("inserted %d games; want 0", inserted)
	}
}

func TestGamesSince_Window(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	if _, err := a.InsertGames(ctx, sampleGames()); err != nil {
		t.Fatalf("InsertGames: %v", err)
	}

	games, err := a.GamesSince(ctx, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GamesSince: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("got %d games; want 2", len(games))
	}
	if games[0].HomeTeam != "Denver Nuggets" {
		t.Errorf("got first home team %s; want Denver Nuggets", games[0].HomeTeam)
	}
	if !games[0].PlayedAt.Before(games[1].PlayedAt) {
		t.Errorf("games out of chronological order: %v, %v", games[0].PlayedAt, games[1].PlayedAt)
	}
}

func TestRecentGames_LimitAndOrder(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	if _, err := a.InsertGames(ctx, sampleGames()); err != nil {
		t.Fatalf("InsertGames: %v", err)
	}

	games, err := a.RecentGames(ctx, 2)
	if err != nil {
		t.Fatalf("RecentGames: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("got %d games; want 2", len(games))
	}
	// Newest two, oldest first.
	if games[0].HomeTeam != "Denver Nuggets" || games[1].HomeTeam != "Miami Heat" {
		t.Errorf("got %s then %s; want Denver Nuggets then Miami Heat", games[0].HomeTeam, games[1].HomeTeam)
	}
}

func TestGamesSince_EmptyArchive(t *testing.T) {
	a := testArchive(t)

	games, err := a.GamesSince(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GamesSince: %v", err)
	}
	if len(games) != 0 {
		t.Errorf("got %d games from empty archive; want 0", len(games))
	}
}
