package validate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Zerocode-sean/nba-prediction-system/internal/engine"
)

// ErrInsufficientData means the validation window held zero completed games.
// Callers report "no data" instead of dividing by zero.
var ErrInsufficientData = errors.New("insufficient data: no completed games in window")

// CompletedGame is a played game with its final score.
type CompletedGame struct {
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	HomeScore int       `json:"homeScore"`
	AwayScore int       `json:"awayScore"`
	PlayedAt  time.Time `json:"playedAt"`
}

// Record scores one game's prediction against what actually happened.
type Record struct {
	Game             CompletedGame      `json:"game"`
	Prediction       *engine.Prediction `json:"prediction"`
	ActualWinner     string             `json:"actualWinner"`
	ActualTotal      int                `json:"actualTotal"`
	ActualOverUnder  string             `json:"actualOverUnder"`
	WinLossCorrect   bool               `json:"winLossCorrect"`
	OverUnderCorrect bool               `json:"overUnderCorrect"`
	BothCorrect      bool               `json:"bothCorrect"`
}

// Report aggregates one validation run. Accuracies are exact ratios of the
// counts above them; the running series holds accuracy after each game in
// input order. Reports are not persisted here; retention is the consumer's
// call.
type Report struct {
	RunID             uuid.UUID `json:"runId"`
	GeneratedAt       time.Time `json:"generatedAt"`
	Line              float64   `json:"line"`
	TotalGames        int       `json:"totalGames"`
	WinLossCorrect    int       `json:"winLossCorrect"`
	OverUnderCorrect  int       `json:"overUnderCorrect"`
	BothCorrect       int       `json:"bothCorrect"`
	WinLossAccuracy   float64   `json:"winLossAccuracy"`
	OverUnderAccuracy float64   `json:"overUnderAccuracy"`
	BothCorrectRate   float64   `json:"bothCorrectRate"`
	RunningWinLoss    []float64 `json:"runningWinLoss"`
	RunningOverUnder  []float64 `json:"runningOverUnder"`
	Records           []Record  `json:"records"`
}

// Validator replays completed games through the prediction engine and scores
// the results. Each Validate call is stateless and idempotent for the same
// window; nothing carries over between runs.
type Validator struct {
	engine *engine.Engine
	now    func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// New returns a Validator over the given engine.
func New(e *engine.Engine, opts ...Option) *Validator {
	v := &Validator{engine: e, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate predicts every game in the window concurrently and scores each
// against its actual result. Predictions see only season statistics; a game's
// own score never reaches feature computation, so each embedded Prediction is
// exactly what Predict would have returned before tip-off. Any game that
// cannot be predicted fails the run with that game named, since a window is
// only meaningful when every game in it is scored.
func (v *Validator) Validate(ctx context.Context, games []CompletedGame) (*Report, error) {
	if len(games) == 0 {
		return nil, ErrInsufficientData
	}

	preds := make([]*engine.Prediction, len(games))
	errs := make([]error, len(games))
	var wg sync.WaitGroup
	for i, g := range games {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		wg.Add(1)
		go func(i int, g CompletedGame) {
			defer wg.Done()
			preds[i], errs[i] = v.engine.Predict(g.HomeTeam, g.AwayTeam)
		}(i, g)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("validate %s vs %s: %w", games[i].HomeTeam, games[i].AwayTeam, err)
		}
	}

	line := v.engine.Line()
	report := &Report{
		RunID:            uuid.New(),
		GeneratedAt:      v.now(),
		Line:             line,
		TotalGames:       len(games),
		RunningWinLoss:   make([]float64, 0, len(games)),
		RunningOverUnder: make([]float64, 0, len(games)),
		Records:          make([]Record, 0, len(games)),
	}
	for i, g := range games {
		rec := score(g, preds[i], line)
		if rec.WinLossCorrect {
			report.WinLossCorrect++
		}
		if rec.OverUnderCorrect {
			report.OverUnderCorrect++
		}
		if rec.BothCorrect {
			report.BothCorrect++
		}
		report.RunningWinLoss = append(report.RunningWinLoss, float64(report.WinLossCorrect)/float64(i+1))
		report.RunningOverUnder = append(report.RunningOverUnder, float64(report.OverUnderCorrect)/float64(i+1))
		report.Records = append(report.Records, rec)
	}
	report.WinLossAccuracy = float64(report.WinLossCorrect) / float64(report.TotalGames)
	report.OverUnderAccuracy = float64(report.OverUnderCorrect) / float64(report.TotalGames)
	report.BothCorrectRate = float64(report.BothCorrect) / float64(report.TotalGames)
	return report, nil
}

// score compares one prediction to the final result. The actual total is
// graded at the engine's line: strictly above is OVER, a push counts UNDER.
func score(g CompletedGame, p *engine.Prediction, line float64) Record {
	winner := engine.PickAway
	if g.HomeScore > g.AwayScore {
		winner = engine.PickHome
	}
	total := g.HomeScore + g.AwayScore
	actualOU := engine.PickUnder
	if float64(total) > line {
		actualOU = engine.PickOver
	}
	rec := Record{
		Game:             g,
		Prediction:       p,
		ActualWinner:     winner,
		ActualTotal:      total,
		ActualOverUnder:  actualOU,
		WinLossCorrect:   p.WinLoss.Pick == winner,
		OverUnderCorrect: p.OverUnder.Pick == actualOU,
	}
	rec.BothCorrect = rec.WinLossCorrect && rec.OverUnderCorrect
	return rec
}
