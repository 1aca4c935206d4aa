package nba

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const scoreboardPayload = `{
  "events": [
    {
      "id": "401585601",
      "date": "2024-03-01T00:30Z",
      "status": {"type": {"description": "Final"}},
      "competitions": [{
        "venue": {"fullName": "TD Garden"},
        "competitors": [
          {"homeAway": "away", "score": "102", "team": {"displayName": "Miami Heat"}},
          {"homeAway": "home", "score": "115", "team": {"displayName": "Boston Celtics"}}
        ]
      }]
    },
    {
      "id": "401585602",
      "date": "2024-03-01T03:00Z",
      "status": {"type": {"description": "Scheduled"}},
      "competitions": [{
        "venue": {"fullName": "Crypto.com Arena"},
        "competitors": [
          {"homeAway": "away", "score": "", "team": {"displayName": "Denver Nuggets"}},
          {"homeAway": "home", "score": "", "team": {"displayName": "LA Lakers"}}
        ]
      }]
    }
  ]
}`

func testClient(base string) *Client {
	return NewClient(ClientOptions{
		ScoreboardBase: base,
		StatsBase:      base,
		RequestsPerSec: 1000,
		RetryFor:       5 * time.Second,
	})
}

func TestScoreboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(scoreboardPayload))
	}))
	defer srv.Close()

	games, err := testClient(srv.URL).Scoreboard(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Scoreboard: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("len(games) = %d; want 2", len(games))
	}
	g := games[0]
	if g.ID != "401585601" || g.Status != StatusFinal {
		t.Errorf("game = %+v; want id 401585601 Final", g)
	}
	if g.HomeTeam != "Boston Celtics" || g.AwayTeam != "Miami Heat" {
		t.Errorf("teams = %s vs %s; want sides taken from homeAway, not array order", g.HomeTeam, g.AwayTeam)
	}
	if g.HomeScore != 115 || g.AwayScore != 102 {
		t.Errorf("score = %d-%d; want 115-102", g.HomeScore, g.AwayScore)
	}
	if g.Venue != "TD Garden" {
		t.Errorf("Venue = %q; want TD Garden", g.Venue)
	}
	if g.Date.IsZero() {
		t.Error("Date is zero; want parsed event time")
	}
	// Scoreboard spelling folds to the statistics table's name.
	if games[1].HomeTeam != "Los Angeles Lakers" {
		t.Errorf("normalized home = %q; want Los Angeles Lakers", games[1].HomeTeam)
	}
}

func TestScoreboard_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"events":[]}`))
	}))
	defer srv.Close()

	games, err := testClient(srv.URL).Scoreboard(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Scoreboard: %v", err)
	}
	if len(games) != 0 {
		t.Errorf("len(games) = %d; want 0", len(games))
	}
}

func TestCompletedGames_FiltersFinal(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(scoreboardPayload))
	}))
	defer srv.Close()

	games, err := testClient(srv.URL).CompletedGames(context.Background(), 3)
	if err != nil {
		t.Fatalf("CompletedGames: %v", err)
	}
	// One final game per day across three days.
	if len(games) != 3 {
		t.Fatalf("len(games) = %d; want 3 finals", len(games))
	}
	for _, g := range games {
		if g.Status != StatusFinal {
			t.Errorf("game %s status = %q; want only finals", g.ID, g.Status)
		}
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("scoreboard requests = %d; want one per day", got)
	}
}

func TestUpcomingFixtures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(scoreboardPayload))
	}))
	defer srv.Close()

	fixtures, err := testClient(srv.URL).UpcomingFixtures(context.Background(), 1)
	if err != nil {
		t.Fatalf("UpcomingFixtures: %v", err)
	}
	// One scheduled game per day, today plus one day ahead.
	if len(fixtures) != 2 {
		t.Fatalf("len(fixtures) = %d; want 2", len(fixtures))
	}
	if fixtures[0].HomeTeam != "Los Angeles Lakers" || fixtures[0].AwayTeam != "Denver Nuggets" {
		t.Errorf("fixture = %+v; want normalized Lakers vs Nuggets", fixtures[0])
	}
}

func TestCompleted_Conversion(t *testing.T) {
	played := time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC)
	g := Game{HomeTeam: "Boston Celtics", AwayTeam: "Miami Heat", HomeScore: 115, AwayScore: 102, Date: played}
	cg := Completed(g)
	if cg.HomeScore != 115 || cg.AwayScore != 102 || !cg.PlayedAt.Equal(played) {
		t.Errorf("Completed(g) = %+v; want scores and date carried over", cg)
	}
}

const leagueStatsPayload = `{
  "resultSets": [{
    "name": "LeagueDashTeamStats",
    "headers": ["TEAM_ID", "TEAM_NAME", "GP", "W_PCT", "PTS", "OPP_PTS"],
    "rowSet": [
      [1610612738, "Boston Celtics", 82, 0.780, 120.6, 109.2],
      [1610612746, "LA Clippers", 82, 0.622, 115.6, 111.7]
    ]
  }]
}`

func TestLeagueTeamStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("Season"); got != "2023-24" {
			t.Errorf("Season param = %q; want 2023-24", got)
		}
		w.Write([]byte(leagueStatsPayload))
	}))
	defer srv.Close()

	rows, err := testClient(srv.URL).LeagueTeamStats(context.Background(), "2023-24")
	if err != nil {
		t.Fatalf("LeagueTeamStats: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d; want 2", len(rows))
	}
	r := rows[0]
	if r.Team != "Boston Celtics" || r.Season != "2023-24" {
		t.Errorf("row = %+v; want team and season filled", r)
	}
	if r.WinPct != 0.780 || r.PointsPerGame != 120.6 || r.OppPointsPerGame != 109.2 {
		t.Errorf("row values = %+v; want table values", r)
	}
	// Without NET_RATING and PACE columns the fallbacks apply.
	if want := 120.6 - 109.2; r.NetRating != want {
		t.Errorf("NetRating = %v; want fallback %v", r.NetRating, want)
	}
	if r.Pace != 100.0 {
		t.Errorf("Pace = %v; want fallback 100", r.Pace)
	}
	// Stats feed names get the same canonical form as scoreboard names.
	if rows[1].Team != "Los Angeles Clippers" {
		t.Errorf("rows[1].Team = %q; want Los Angeles Clippers", rows[1].Team)
	}
}

func TestLeagueTeamStats_AdvancedColumns(t *testing.T) {
	payload := `{
	  "resultSets": [{
	    "headers": ["TEAM_NAME", "WIN_PCT", "PTS", "OPP_PTS", "NET_RATING", "PACE"],
	    "rowSet": [["Boston Celtics", 0.780, 120.6, 109.2, 11.1, 98.4]]
	  }]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	rows, err := testClient(srv.URL).LeagueTeamStats(context.Background(), "2023-24")
	if err != nil {
		t.Fatalf("LeagueTeamStats: %v", err)
	}
	if rows[0].NetRating != 11.1 || rows[0].Pace != 98.4 {
		t.Errorf("row = %+v; want table NET_RATING and PACE over fallbacks", rows[0])
	}
}

func TestLeagueTeamStats_MissingRequiredColumn(t *testing.T) {
	payload := `{"resultSets":[{"headers":["TEAM_NAME","PTS","OPP_PTS"],"rowSet":[]}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).LeagueTeamStats(context.Background(), "2023-24"); err == nil {
		t.Error("LeagueTeamStats(no win pct column) succeeded; want error")
	}
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"events":[]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Scoreboard(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Scoreboard after retries: %v", err)
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("requests = %d; want 2 failures then success", got)
	}
}

func TestGet_ClientErrorIsPermanent(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Scoreboard(context.Background(), time.Now())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Fatalf("Scoreboard err = %v; want StatusError 404", err)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("requests = %d; want no retries on 404", got)
	}
}

func TestNormalizeTeam(t *testing.T) {
	cases := []struct{ in, want string }{
		{"LA Lakers", "Los Angeles Lakers"},
		{"LA Clippers", "Los Angeles Clippers"},
		{"Golden State", "Golden State Warriors"},
		{"Boston Celtics", "Boston Celtics"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeTeam(tc.in); got != tc.want {
			t.Errorf("NormalizeTeam(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}
