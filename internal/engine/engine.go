package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/Zerocode-sean/nba-prediction-system/internal/confidence"
	"github.com/Zerocode-sean/nba-prediction-system/internal/feature"
	"github.com/Zerocode-sean/nba-prediction-system/internal/model"
	"github.com/Zerocode-sean/nba-prediction-system/internal/registry"
	"github.com/Zerocode-sean/nba-prediction-system/internal/stats"
)

// DefaultLine is the over/under line used when no option overrides it.
// Line setting is deliberately not modeled; a per-game line would hook in here.
const DefaultLine = 235.0

// ErrModelsNotLoaded means a prediction was requested before all four model
// artifacts were loaded. The engine never substitutes a fabricated prediction.
var ErrModelsNotLoaded = errors.New("models not loaded")

// Declared sides.
const (
	PickHome  = "HOME"
	PickAway  = "AWAY"
	PickOver  = "OVER"
	PickUnder = "UNDER"
)

// Fixture pairs the home and away side of a scheduled game.
type Fixture struct {
	HomeTeam string `json:"homeTeam"`
	AwayTeam string `json:"awayTeam"`
}

// WinLossResult is the winner side of a prediction. The two probabilities sum
// to 1; Pick is the side whose probability exceeds 0.5 and Confidence is that
// probability.
type WinLossResult struct {
	HomeWinProbability float64         `json:"homeWinProbability"`
	AwayWinProbability float64         `json:"awayWinProbability"`
	Pick               string          `json:"pick"`
	Confidence         float64         `json:"confidence"`
	Tier               confidence.Tier `json:"tier"`
}

// OverUnderResult is the total-points side, against the line it was made at.
type OverUnderResult struct {
	OverProbability  float64         `json:"overProbability"`
	UnderProbability float64         `json:"underProbability"`
	Pick             string          `json:"pick"`
	Confidence       float64         `json:"confidence"`
	Tier             confidence.Tier `json:"tier"`
	Line             float64         `json:"line"`
}

// Prediction is the engine's output for one matchup. Features carries all
// thirteen input values that produced it, for audit.
type Prediction struct {
	HomeTeam    string          `json:"homeTeam"`
	AwayTeam    string          `json:"awayTeam"`
	WinLoss     WinLossResult   `json:"winLoss"`
	OverUnder   OverUnderResult `json:"overUnder"`
	Features    feature.Vector  `json:"features"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// Engine turns a matchup into a Prediction from season statistics and the
// loaded model artifacts. Construct once at process start and inject it;
// it holds no per-call state and is safe for concurrent use.
type Engine struct {
	store *stats.Store
	reg   *registry.Registry
	line  float64
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLine overrides the default over/under line.
func WithLine(line float64) Option {
	return func(e *Engine) { e.line = line }
}

// WithClock overrides the timestamp source. Tests use this to pin GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an Engine over the given store and registry.
func New(store *stats.Store, reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{store: store, reg: reg, line: DefaultLine, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Line returns the configured over/under line.
func (e *Engine) Line() float64 { return e.line }

// Ready reports whether every model artifact is loaded.
func (e *Engine) Ready() bool { return e.reg.Ready() }

// Predict produces a prediction for home vs away using the latest season's
// statistics. Store and feature errors propagate unchanged; with unchanged
// statistics and models the numeric output is bit-identical across calls.
func (e *Engine) Predict(homeTeam, awayTeam string) (*Prediction, error) {
	arts, ok := e.reg.Snapshot()
	if !ok {
		return nil, ErrModelsNotLoaded
	}
	season, err := e.store.LatestSeason()
	if err != nil {
		return nil, err
	}
	home, err := e.store.Lookup(homeTeam, season)
	if err != nil {
		return nil, err
	}
	away, err := e.store.Lookup(awayTeam, season)
	if err != nil {
		return nil, err
	}

	wlVec, err := feature.WinLoss(home, away)
	if err != nil {
		return nil, err
	}
	ouVec, err := feature.OverUnder(home, away)
	if err != nil {
		return nil, err
	}

	wlProb, err := classify(arts.WinLossScaler, arts.WinLossModel, wlVec.Values())
	if err != nil {
		return nil, fmt.Errorf("win/loss inference: %w", err)
	}
	ouProb, err := classify(arts.OverUnderScaler, arts.OverUnderModel, ouVec.Values())
	if err != nil {
		return nil, fmt.Errorf("over/under inference: %w", err)
	}

	wl := WinLossResult{
		HomeWinProbability: wlProb[1],
		AwayWinProbability: wlProb[0],
		Pick:               PickAway,
		Confidence:         maxProb(wlProb),
	}
	if wlProb[1] > 0.5 {
		wl.Pick = PickHome
	}
	wl.Tier = confidence.Score(wl.Confidence)

	ou := OverUnderResult{
		OverProbability:  ouProb[1],
		UnderProbability: ouProb[0],
		Pick:             PickUnder,
		Confidence:       maxProb(ouProb),
		Line:             e.line,
	}
	if ouProb[1] > 0.5 {
		ou.Pick = PickOver
	}
	ou.Tier = confidence.Score(ou.Confidence)

	return &Prediction{
		HomeTeam:    homeTeam,
		AwayTeam:    awayTeam,
		WinLoss:     wl,
		OverUnder:   ou,
		Features:    feature.Merge(wlVec, ouVec),
		GeneratedAt: e.now(),
	}, nil
}

func classify(s model.Scaler, c model.Classifier, x []float64) ([2]float64, error) {
	scaled, err := s.Transform(x)
	if err != nil {
		return [2]float64{}, err
	}
	return c.PredictProba(scaled)
}

func maxProb(p [2]float64) float64 {
	if p[0] > p[1] {
		return p[0]
	}
	return p[1]
}
