package nba

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/Zerocode-sean/nba-prediction-system/internal/engine"
	"github.com/Zerocode-sean/nba-prediction-system/internal/stats"
	"github.com/Zerocode-sean/nba-prediction-system/internal/validate"
)

const (
	DefaultScoreboardBase = "https://site.api.espn.com/apis/site/v2/sports/basketball/nba"
	DefaultStatsBase      = "https://stats.nba.com/stats"

	// Game status descriptions on the scoreboard feed.
	StatusFinal     = "Final"
	StatusScheduled = "Scheduled"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Game is one scoreboard event. Team names are already normalized to the
// statistics table's spelling.
type Game struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	HomeScore int       `json:"homeScore"`
	AwayScore int       `json:"awayScore"`
	Venue     string    `json:"venue"`
}

// Completed converts a final game to the shape the validation engine scores.
func Completed(g Game) validate.CompletedGame {
	return validate.CompletedGame{
		HomeTeam:  g.HomeTeam,
		AwayTeam:  g.AwayTeam,
		HomeScore: g.HomeScore,
		AwayScore: g.AwayScore,
		PlayedAt:  g.Date,
	}
}

// StatusError is a non-200 response from a feed.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feed status %d", e.Code)
}

// Client fetches games from the public scoreboard feed and team statistics
// from the league stats feed. Requests are rate limited and retried with
// exponential backoff; 4xx responses other than 429 fail immediately.
type Client struct {
	httpClient     *http.Client
	scoreboardBase string
	statsBase      string
	limiter        *rate.Limiter
	retryFor       time.Duration
}

// ClientOptions configures a Client; zero values get defaults.
type ClientOptions struct {
	ScoreboardBase string
	StatsBase      string
	Timeout        time.Duration
	RequestsPerSec float64
	RetryFor       time.Duration
}

// NewClient returns a feed client. The default pace of 2 requests per second
// keeps day-by-day scoreboard sweeps polite to the upstream.
func NewClient(opts ClientOptions) *Client {
	if opts.ScoreboardBase == "" {
		opts.ScoreboardBase = DefaultScoreboardBase
	}
	if opts.StatsBase == "" {
		opts.StatsBase = DefaultStatsBase
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 2
	}
	if opts.RetryFor == 0 {
		opts.RetryFor = 15 * time.Second
	}
	return &Client{
		httpClient:     &http.Client{Timeout: opts.Timeout},
		scoreboardBase: opts.ScoreboardBase,
		statsBase:      opts.StatsBase,
		limiter:        rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
		retryFor:       opts.RetryFor,
	}
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Referer", "https://www.nba.com/")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			statusErr := &StatusError{Code: resp.StatusCode}
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(statusErr)
			}
			return statusErr
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.retryFor
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

// Scoreboard fetches the games for one calendar day.
func (c *Client) Scoreboard(ctx context.Context, day time.Time) ([]Game, error) {
	u := fmt.Sprintf("%s/scoreboard?dates=%s", c.scoreboardBase, day.Format("20060102"))
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("scoreboard %s: %w", day.Format("2006-01-02"), err)
	}
	var raw struct {
		Events []struct {
			ID     string `json:"id"`
			Date   string `json:"date"`
			Status struct {
				Type struct {
					Description string `json:"description"`
				} `json:"type"`
			} `json:"status"`
			Competitions []struct {
				Venue struct {
					FullName string `json:"fullName"`
				} `json:"venue"`
				Competitors []struct {
					HomeAway string `json:"homeAway"`
					Score    string `json:"score"`
					Team     struct {
						DisplayName string `json:"displayName"`
					} `json:"team"`
				} `json:"competitors"`
			} `json:"competitions"`
		} `json:"events"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("scoreboard decode: %w", err)
	}
	games := make([]Game, 0, len(raw.Events))
	for _, ev := range raw.Events {
		if len(ev.Competitions) == 0 {
			continue
		}
		comp := ev.Competitions[0]
		g := Game{
			ID:     ev.ID,
			Status: ev.Status.Type.Description,
			Venue:  comp.Venue.FullName,
			Date:   parseEventDate(ev.Date),
		}
		for _, side := range comp.Competitors {
			score, _ := strconv.Atoi(side.Score)
			switch side.HomeAway {
			case "home":
				g.HomeTeam = NormalizeTeam(side.Team.DisplayName)
				g.HomeScore = score
			case "away":
				g.AwayTeam = NormalizeTeam(side.Team.DisplayName)
				g.AwayScore = score
			}
		}
		if g.HomeTeam == "" || g.AwayTeam == "" {
			continue
		}
		games = append(games, g)
	}
	return games, nil
}

// parseEventDate handles the feed's "2024-03-01T00:30Z" timestamps, which drop
// seconds from RFC 3339.
func parseEventDate(s string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04Z07:00", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// CompletedGames sweeps the scoreboard for the last daysBack days and returns
// final games, most recent day first. Days that fail to fetch are skipped; the
// sweep only errors when every day failed.
func (c *Client) CompletedGames(ctx context.Context, daysBack int) ([]Game, error) {
	var out []Game
	var lastErr error
	failed := 0
	for i := 1; i <= daysBack; i++ {
		day := time.Now().AddDate(0, 0, -i)
		games, err := c.Scoreboard(ctx, day)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failed++
			lastErr = err
			continue
		}
		for _, g := range games {
			if g.Status == StatusFinal {
				out = append(out, g)
			}
		}
	}
	if failed > 0 && failed == daysBack {
		return nil, fmt.Errorf("scoreboard sweep: all %d days failed: %w", daysBack, lastErr)
	}
	return out, nil
}

// UpcomingFixtures sweeps today plus the next days and returns scheduled games
// as fixtures, soonest first.
func (c *Client) UpcomingFixtures(ctx context.Context, days int) ([]engine.Fixture, error) {
	var out []engine.Fixture
	var lastErr error
	failed := 0
	for i := 0; i <= days; i++ {
		day := time.Now().AddDate(0, 0, i)
		games, err := c.Scoreboard(ctx, day)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failed++
			lastErr = err
			continue
		}
		for _, g := range games {
			if g.Status == StatusScheduled {
				out = append(out, engine.Fixture{HomeTeam: g.HomeTeam, AwayTeam: g.AwayTeam})
			}
		}
	}
	if failed > 0 && failed == days+1 {
		return nil, fmt.Errorf("fixture sweep: all %d days failed: %w", days+1, lastErr)
	}
	return out, nil
}

// LeagueTeamStats fetches the per-team statistics table for a season. The feed
// answers a header/rowSet table; TEAM_NAME, a win percentage column, PTS and
// OPP_PTS are required. NET_RATING falls back to PTS-OPP_PTS and PACE to 100
// when the table omits them, matching how the sample data is derived.
func (c *Client) LeagueTeamStats(ctx context.Context, season string) ([]stats.TeamStatistics, error) {
	q := url.Values{}
	q.Set("Season", season)
	q.Set("SeasonType", "Regular Season")
	q.Set("MeasureType", "Base")
	body, err := c.get(ctx, fmt.Sprintf("%s/leaguedashteamstats?%s", c.statsBase, q.Encode()))
	if err != nil {
		return nil, fmt.Errorf("league stats %s: %w", season, err)
	}
	var raw struct {
		ResultSets []struct {
			Name    string            `json:"name"`
			Headers []string          `json:"headers"`
			RowSet  [][]json.RawMessage `json:"rowSet"`
		} `json:"resultSets"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("league stats decode: %w", err)
	}
	if len(raw.ResultSets) == 0 {
		return nil, fmt.Errorf("league stats %s: no result sets", season)
	}
	rs := raw.ResultSets[0]
	col := make(map[string]int, len(rs.Headers))
	for i, h := range rs.Headers {
		col[h] = i
	}
	nameIdx, ok := col["TEAM_NAME"]
	if !ok {
		return nil, fmt.Errorf("league stats %s: no TEAM_NAME column", season)
	}
	winIdx, ok := col["WIN_PCT"]
	if !ok {
		if winIdx, ok = col["W_PCT"]; !ok {
			return nil, fmt.Errorf("league stats %s: no win percentage column", season)
		}
	}
	ptsIdx, ok := col["PTS"]
	if !ok {
		return nil, fmt.Errorf("league stats %s: no PTS column", season)
	}
	oppIdx, ok := col["OPP_PTS"]
	if !ok {
		return nil, fmt.Errorf("league stats %s: no OPP_PTS column", season)
	}

	rows := make([]stats.TeamStatistics, 0, len(rs.RowSet))
	for i, rec := range rs.RowSet {
		name, err := stringCell(rec, nameIdx)
		if err != nil {
			return nil, fmt.Errorf("league stats %s: row %d: %w", season, i, err)
		}
		winPct, err := floatCell(rec, winIdx)
		if err != nil {
			return nil, fmt.Errorf("league stats %s: row %d (%s): %w", season, i, name, err)
		}
		pts, err := floatCell(rec, ptsIdx)
		if err != nil {
			return nil, fmt.Errorf("league stats %s: row %d (%s): %w", season, i, name, err)
		}
		opp, err := floatCell(rec, oppIdx)
		if err != nil {
			return nil, fmt.Errorf("league stats %s: row %d (%s): %w", season, i, name, err)
		}
		netRating := pts - opp
		if idx, ok := col["NET_RATING"]; ok {
			if v, err := floatCell(rec, idx); err == nil {
				netRating = v
			}
		}
		pace := 100.0
		if idx, ok := col["PACE"]; ok {
			if v, err := floatCell(rec, idx); err == nil {
				pace = v
			}
		}
		rows = append(rows, stats.TeamStatistics{
			Team:             NormalizeTeam(name),
			Season:           season,
			WinPct:           winPct,
			NetRating:        netRating,
			PointsPerGame:    pts,
			OppPointsPerGame: opp,
			Pace:             pace,
		})
	}
	return rows, nil
}

func stringCell(rec []json.RawMessage, i int) (string, error) {
	if i >= len(rec) {
		return "", fmt.Errorf("short row: no cell %d", i)
	}
	var s string
	if err := json.Unmarshal(rec[i], &s); err != nil {
		return "", fmt.Errorf("cell %d: %w", i, err)
	}
	return s, nil
}

func floatCell(rec []json.RawMessage, i int) (float64, error) {
	if i >= len(rec) {
		return 0, fmt.Errorf("short row: no cell %d", i)
	}
	var v float64
	if err := json.Unmarshal(rec[i], &v); err != nil {
		return 0, fmt.Errorf("cell %d: %w", i, err)
	}
	return v, nil
}
