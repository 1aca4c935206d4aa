package model

import (
	"fmt"
	"math"
)

// Logistic is a fitted logistic-regression binary classifier.
// Weights line up with the feature schema the model was trained on.
type Logistic struct {
	Kind    string    `json:"kind"`
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// PredictProba returns [P(negative), P(positive)] for scaled features x.
func (m *Logistic) PredictProba(x []float64) ([2]float64, error) {
	if len(x) != len(m.Weights) {
		return [2]float64{}, fmt.Errorf("logistic: got %d features; model fitted for %d", len(x), len(m.Weights))
	}
	p := sigmoid(dot(m.Weights, x) + m.Bias)
	return [2]float64{1 - p, p}, nil
}

func sigmoid(z float64) float64 {
	if z > 20 {
		return 1.0
	}
	if z < -20 {
		return 0.0
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
