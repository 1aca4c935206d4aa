package feature

import (
	"fmt"
	"math"

	"github.com/Zerocode-sean/nba-prediction-system/internal/stats"
)

// Feature schemas. The order is a fitted-model contract: each scaler/classifier
// pair expects its columns exactly as listed here.
var (
	WinLossSchema = []string{
		"home_win_pct",
		"away_win_pct",
		"win_pct_diff",
		"home_net_rating",
		"away_net_rating",
		"net_rating_diff",
	}
	OverUnderSchema = []string{
		"home_ppg",
		"away_ppg",
		"combined_ppg",
		"home_def_rating",
		"away_def_rating",
		"combined_def_rating",
		"pace_estimate",
	}
)

// FieldError reports a statistic that was blank or non-numeric on an
// otherwise-resolved team row. No partial vector is ever returned.
type FieldError struct {
	Team  string
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("feature unavailable: %s has no usable %s", e.Team, e.Field)
}

// WinLoss computes the six win/loss features for a matchup: each side's win
// percentage and net rating, plus home-minus-away differences. Pure; identical
// inputs always yield identical vectors.
func WinLoss(home, away stats.TeamStatistics) (Vector, error) {
	for _, c := range []struct {
		team, field string
		v           float64
	}{
		{home.Team, "WIN_PCT", home.WinPct},
		{away.Team, "WIN_PCT", away.WinPct},
		{home.Team, "NET_RATING", home.NetRating},
		{away.Team, "NET_RATING", away.NetRating},
	} {
		if !usable(c.v) {
			return Vector{}, &FieldError{Team: c.team, Field: c.field}
		}
	}
	return Vector{
		names: WinLossSchema,
		values: []float64{
			home.WinPct,
			away.WinPct,
			home.WinPct - away.WinPct,
			home.NetRating,
			away.NetRating,
			home.NetRating - away.NetRating,
		},
	}, nil
}

// OverUnder computes the seven total-points features: scoring rates, defensive
// ratings, and a pace estimate. A side's defensive rating is the other side's
// opponent points per game (what teams historically score against it), so
// home_def_rating comes from the away row and vice versa.
func OverUnder(home, away stats.TeamStatistics) (Vector, error) {
	for _, c := range []struct {
		team, field string
		v           float64
	}{
		{home.Team, "PTS", home.PointsPerGame},
		{away.Team, "PTS", away.PointsPerGame},
		{home.Team, "OPP_PTS", home.OppPointsPerGame},
		{away.Team, "OPP_PTS", away.OppPointsPerGame},
		{home.Team, "PACE", home.Pace},
		{away.Team, "PACE", away.Pace},
	} {
		if !usable(c.v) {
			return Vector{}, &FieldError{Team: c.team, Field: c.field}
		}
	}
	return Vector{
		names: OverUnderSchema,
		values: []float64{
			home.PointsPerGame,
			away.PointsPerGame,
			home.PointsPerGame + away.PointsPerGame,
			away.OppPointsPerGame,
			home.OppPointsPerGame,
			home.OppPointsPerGame + away.OppPointsPerGame,
			(home.Pace + away.Pace) / 2,
		},
	}, nil
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
