package model

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hjuarez/ventasbi/internal/pipeline"
	"github.com/hjuarez/ventasbi/internal/sarima"
)

// Selection is the outcome of a model search: the retained best model
// and its fit-error score.
type Selection struct {
	Model     *sarima.Model
	Order     sarima.Order
	RMSE      float64
	Evaluated int // Candidates that fit successfully
	Failed    int // Candidates skipped because their fit failed
}

// Config holds selector settings.
type Config struct {
	Strategy   StrategyKind
	FixedOrder sarima.Order  // Used by StrategyFixed
	Workers    int           // Concurrent candidate fits, minimum 1
	FitTimeout time.Duration // Per-candidate budget, 0 disables
}

// Selector searches a bounded space of seasonal ARIMA orders and keeps
// the candidate with the lowest in-sample RMSE. Results are cached per
// (series, period) content hash.
type Selector struct {
	cfg   Config
	cache *Cache
	log   zerolog.Logger

	// Progress, when set, is called once per finished candidate. Used
	// by the CLI to drive a progress bar.
	Progress func(done, total int)
}

// NewSelector creates a new model selector
func NewSelector(cfg Config, cache *Cache, log zerolog.Logger) *Selector {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Selector{
		cfg:   cfg,
		cache: cache,
		log:   log.With().Str("service", "model_selector").Logger(),
	}
}

// Select returns the best model for the series at the given seasonal
// period, consulting the cache first. The fit is deterministic given
// the same series and period, so cached results never go stale until
// the dataset changes.
func (s *Selector) Select(ctx context.Context, values []float64, period int) (*Selection, error) {
	key := cacheKey(values, period)
	if s.cache != nil {
		if sel, ok := s.cache.Get(key); ok {
			s.log.Debug().Str("order", sel.Order.String()).Msg("Model cache hit")
			return sel, nil
		}
	}

	started := time.Now()

	var sel *Selection
	var err error
	switch s.cfg.Strategy {
	case StrategyFixed:
		sel, err = s.fitCandidates(ctx, values, []sarima.Order{s.cfg.FixedOrder})
	case StrategyAuto:
		sel, err = s.stepwiseSearch(ctx, values, period)
	default:
		sel, err = s.fitCandidates(ctx, values, gridCandidates(period))
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("order", sel.Order.String()).
		Float64("rmse", sel.RMSE).
		Int("evaluated", sel.Evaluated).
		Int("failed", sel.Failed).
		Dur("elapsed", time.Since(started)).
		Msg("Model selected")

	if s.cache != nil {
		s.cache.Put(key, sel)
	}
	return sel, nil
}

// candidateResult is the explicit per-candidate outcome: either a
// scored model or a recorded failure. Failures never abort the search.
type candidateResult struct {
	index int
	model *sarima.Model
	rmse  float64
	err   error
}

// fitCandidates fits every candidate concurrently and folds the results
// in candidate-index order, so the "lowest RMSE wins, first-found breaks
// ties" rule resolves identically regardless of completion order.
func (s *Selector) fitCandidates(ctx context.Context, values []float64, candidates []sarima.Order) (*Selection, error) {
	results := make([]candidateResult, len(candidates))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.cfg.Workers)
	var mu sync.Mutex
	done := 0

	for i, order := range candidates {
		wg.Add(1)
		go func(i int, order sarima.Order) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = s.fitOne(ctx, values, i, order)

			if s.Progress != nil {
				mu.Lock()
				done++
				s.Progress(done, len(candidates))
				mu.Unlock()
			}
		}(i, order)
	}
	wg.Wait()

	sel := &Selection{RMSE: math.Inf(1)}
	for _, r := range results {
		if r.err != nil {
			sel.Failed++
			s.log.Debug().Err(r.err).Str("order", candidates[r.index].String()).Msg("Candidate fit skipped")
			continue
		}
		sel.Evaluated++
		if r.rmse < sel.RMSE {
			sel.Model = r.model
			sel.Order = candidates[r.index]
			sel.RMSE = r.rmse
		}
	}

	if sel.Model == nil {
		return nil, pipeline.ErrModelSelection
	}
	return sel, nil
}

// stepwiseSearch seeds from a handful of starting orders and walks to
// better neighbors until no neighbor improves the score.
func (s *Selector) stepwiseSearch(ctx context.Context, values []float64, period int) (*Selection, error) {
	tried := make(map[sarima.Order]bool)

	best := &Selection{RMSE: math.Inf(1)}
	evaluate := func(orders []sarima.Order) (improved bool, err error) {
		fresh := orders[:0]
		for _, o := range orders {
			if !tried[o] {
				tried[o] = true
				fresh = append(fresh, o)
			}
		}
		if len(fresh) == 0 {
			return false, nil
		}

		sel, err := s.fitCandidates(ctx, values, fresh)
		if err != nil {
			// All fresh candidates failed; record and keep walking
			best.Failed += len(fresh)
			return false, nil
		}
		best.Evaluated += sel.Evaluated
		best.Failed += sel.Failed
		if sel.RMSE < best.RMSE {
			best.Model = sel.Model
			best.Order = sel.Order
			best.RMSE = sel.RMSE
			return true, nil
		}
		return false, nil
	}

	if _, err := evaluate(stepwiseStarts(period)); err != nil {
		return nil, err
	}

	for best.Model != nil {
		improved, err := evaluate(stepwiseNeighbors(best.Order))
		if err != nil {
			return nil, err
		}
		if !improved {
			break
		}
	}

	if best.Model == nil {
		return nil, pipeline.ErrModelSelection
	}
	return best, nil
}

// fitOne fits a single candidate under the per-candidate timeout and
// scores it by RMSE of in-sample fitted values against actuals over the
// comparable trailing window.
func (s *Selector) fitOne(ctx context.Context, values []float64, index int, order sarima.Order) candidateResult {
	if s.cfg.FitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FitTimeout)
		defer cancel()
	}

	m, err := sarima.Fit(ctx, values, order)
	if err != nil {
		return candidateResult{index: index, err: err}
	}

	fitted := m.FittedValues()
	actual := values[len(values)-len(fitted):]
	return candidateResult{
		index: index,
		model: m,
		rmse:  rmse(actual, fitted),
	}
}

// rmse computes root-mean-squared-error over aligned slices.
func rmse(actual, fitted []float64) float64 {
	if len(actual) == 0 {
		return math.Inf(1)
	}
	sum := 0.0
	for i := range actual {
		d := actual[i] - fitted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(actual)))
}
