package stats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrDataUnavailable means the statistics source is missing, empty, or malformed.
// Callers may fall back to cached or sample data; the store never substitutes silently.
var ErrDataUnavailable = errors.New("team statistics unavailable")

// TeamNotFoundError is returned when a lookup misses. Name matching is exact;
// normalization of feed spellings happens upstream, never in the store.
type TeamNotFoundError struct {
	Team   string
	Season string
}

func (e *TeamNotFoundError) Error() string {
	return fmt.Sprintf("team %q not found for season %s", e.Team, e.Season)
}

// TeamStatistics is one (team, season) row of the statistics table.
// Numeric fields that were blank or non-numeric in the source are NaN;
// they load fine and fail later, at feature computation, naming the field.
type TeamStatistics struct {
	Team             string  `json:"team"`
	Season           string  `json:"season"`
	WinPct           float64 `json:"winPct"`
	NetRating        float64 `json:"netRating"`
	PointsPerGame    float64 `json:"pointsPerGame"`
	OppPointsPerGame float64 `json:"oppPointsPerGame"`
	Pace             float64 `json:"pace"`
}

// requiredColumns is the minimum header for a loadable statistics CSV.
// Extra columns are ignored.
var requiredColumns = []string{"TEAM_NAME", "SEASON", "WIN_PCT", "NET_RATING", "PTS", "OPP_PTS", "PACE"}

type rowKey struct {
	team   string
	season string
}

// Store holds team statistics indexed by (team, season). It is read-only after
// construction, so concurrent readers need no locking.
type Store struct {
	rows  []TeamStatistics
	byKey map[rowKey]TeamStatistics
}

// New builds a Store from rows (e.g. a decoded cache snapshot).
// Empty input or a duplicate (team, season) pair is ErrDataUnavailable.
func New(rows []TeamStatistics) (*Store, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrDataUnavailable)
	}
	byKey := make(map[rowKey]TeamStatistics, len(rows))
	for _, r := range rows {
		if r.Team == "" || r.Season == "" {
			return nil, fmt.Errorf("%w: row with empty team or season", ErrDataUnavailable)
		}
		k := rowKey{team: r.Team, season: r.Season}
		if _, dup := byKey[k]; dup {
			return nil, fmt.Errorf("%w: duplicate row for %s %s", ErrDataUnavailable, r.Team, r.Season)
		}
		byKey[k] = r
	}
	out := make([]TeamStatistics, len(rows))
	copy(out, rows)
	return &Store{rows: out, byKey: byKey}, nil
}

// LoadCSV parses a statistics table from r. The header must contain all of
// requiredColumns; a missing column is ErrDataUnavailable, not a zero-filled row.
func LoadCSV(r io.Reader) (*Store, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty source", ErrDataUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrDataUnavailable, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrDataUnavailable, name)
		}
	}
	var rows []TeamStatistics
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrDataUnavailable, line, err)
		}
		rows = append(rows, TeamStatistics{
			Team:             strings.TrimSpace(rec[col["TEAM_NAME"]]),
			Season:           strings.TrimSpace(rec[col["SEASON"]]),
			WinPct:           cell(rec, col["WIN_PCT"]),
			NetRating:        cell(rec, col["NET_RATING"]),
			PointsPerGame:    cell(rec, col["PTS"]),
			OppPointsPerGame: cell(rec, col["OPP_PTS"]),
			Pace:             cell(rec, col["PACE"]),
		})
	}
	return New(rows)
}

// LoadCSVFile loads a statistics CSV from disk.
func LoadCSVFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDataUnavailable, path, err)
	}
	defer f.Close()
	return LoadCSV(f)
}

// cell parses one numeric cell; blank or non-numeric becomes NaN.
func cell(rec []string, i int) float64 {
	s := strings.TrimSpace(rec[i])
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// LatestSeason returns the maximum season label present ("2024-25" sorts above
// "2023-24" lexicographically, so string comparison is enough).
func (s *Store) LatestSeason() (string, error) {
	if len(s.rows) == 0 {
		return "", fmt.Errorf("%w: store is empty", ErrDataUnavailable)
	}
	latest := ""
	for _, r := range s.rows {
		if r.Season > latest {
			latest = r.Season
		}
	}
	return latest, nil
}

// Lookup returns the row for (team, season). The match is exact.
func (s *Store) Lookup(team, season string) (TeamStatistics, error) {
	r, ok := s.byKey[rowKey{team: team, season: season}]
	if !ok {
		return TeamStatistics{}, &TeamNotFoundError{Team: team, Season: season}
	}
	return r, nil
}

// Rows returns a copy of every row, in load order.
func (s *Store) Rows() []TeamStatistics {
	out := make([]TeamStatistics, len(s.rows))
	copy(out, s.rows)
	return out
}

// Teams returns the sorted team names present for a season.
func (s *Store) Teams(season string) []string {
	var names []string
	for _, r := range s.rows {
		if r.Season == season {
			names = append(names, r.Team)
		}
	}
	sort.Strings(names)
	return names
}
