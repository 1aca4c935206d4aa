package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// Classifier is a fitted binary classifier. PredictProba returns class
// probabilities [p0, p1]; index 1 is the positive class (home win, over).
// The engine depends only on this capability, never on a model library.
type Classifier interface {
	PredictProba(x []float64) ([2]float64, error)
}

// Scaler normalizes a feature vector the same way the training data was
// normalized before fitting.
type Scaler interface {
	Transform(x []float64) ([]float64, error)
}

// Artifact kinds understood by the loaders.
const (
	KindLogistic = "logistic"
	KindStandard = "standard"
)

type envelope struct {
	Kind string `json:"kind"`
}

// UnmarshalClassifier decodes a serialized classifier artifact, dispatching on
// its "kind" field so new backends slot in without touching callers.
func UnmarshalClassifier(b []byte) (Classifier, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("classifier artifact: %w", err)
	}
	switch env.Kind {
	case KindLogistic:
		var m Logistic
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("logistic artifact: %w", err)
		}
		if len(m.Weights) == 0 {
			return nil, fmt.Errorf("logistic artifact: no weights")
		}
		for i, w := range m.Weights {
			if !finite(w) {
				return nil, fmt.Errorf("logistic artifact: weight %d is not finite", i)
			}
		}
		if !finite(m.Bias) {
			return nil, fmt.Errorf("logistic artifact: bias is not finite")
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("classifier artifact: unknown kind %q", env.Kind)
	}
}

// UnmarshalScaler decodes a serialized scaler artifact by kind.
func UnmarshalScaler(b []byte) (Scaler, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("scaler artifact: %w", err)
	}
	switch env.Kind {
	case KindStandard:
		var s StandardScaler
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, fmt.Errorf("standard scaler artifact: %w", err)
		}
		if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) {
			return nil, fmt.Errorf("standard scaler artifact: mean/scale length mismatch (%d vs %d)", len(s.Mean), len(s.Scale))
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("scaler artifact: unknown kind %q", env.Kind)
	}
}

// MarshalClassifier serializes a classifier with its kind tag set.
func MarshalClassifier(c Classifier) ([]byte, error) {
	switch m := c.(type) {
	case *Logistic:
		out := *m
		out.Kind = KindLogistic
		return json.MarshalIndent(out, "", "  ")
	default:
		return nil, fmt.Errorf("classifier artifact: unsupported type %T", c)
	}
}

// MarshalScaler serializes a scaler with its kind tag set.
func MarshalScaler(s Scaler) ([]byte, error) {
	switch sc := s.(type) {
	case *StandardScaler:
		out := *sc
		out.Kind = KindStandard
		return json.MarshalIndent(out, "", "  ")
	default:
		return nil, fmt.Errorf("scaler artifact: unsupported type %T", s)
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
