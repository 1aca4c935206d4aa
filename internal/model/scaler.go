package model

import "fmt"

// StandardScaler applies the z-score transform fitted at training time:
// (x - mean) / scale, column by column.
type StandardScaler struct {
	Kind  string    `json:"kind"`
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Transform scales x. A zero scale entry (zero-variance column in the fit)
// passes the centered value through, matching the fit convention.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("scaler: got %d features; fitted for %d", len(x), len(s.Mean))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		if s.Scale[i] == 0 {
			out[i] = v - s.Mean[i]
			continue
		}
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}
