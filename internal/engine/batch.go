package engine

import (
	"context"
	"sync"
)

// BatchResult is one fixture's outcome within a batch: a prediction or the
// error that fixture produced, never both.
type BatchResult struct {
	Fixture    Fixture
	Prediction *Prediction
	Err        error
}

// PredictBatch predicts every fixture concurrently and returns results in
// input order, one slot per fixture. A fixture's failure lands in its own
// slot and never aborts the rest. Fixtures not yet started when ctx is
// cancelled report the context error.
func (e *Engine) PredictBatch(ctx context.Context, fixtures []Fixture) []BatchResult {
	results := make([]BatchResult, len(fixtures))
	var wg sync.WaitGroup
	for i, f := range fixtures {
		if err := ctx.Err(); err != nil {
			results[i] = BatchResult{Fixture: f, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int, f Fixture) {
			defer wg.Done()
			p, err := e.Predict(f.HomeTeam, f.AwayTeam)
			results[i] = BatchResult{Fixture: f, Prediction: p, Err: err}
		}(i, f)
	}
	wg.Wait()
	return results
}
