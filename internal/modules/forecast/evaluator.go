package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/hjuarez/ventasbi/internal/pipeline"
)

// Metrics reports model accuracy over the evaluation window.
type Metrics struct {
	RMSE float64 `json:"rmse"`
	// MAPE is a percentage. Zero-valued actuals make their term
	// undefined and are excluded from the mean; Excluded counts them.
	MAPE     float64 `json:"mape"`
	Excluded int     `json:"mape_excluded"`
	Window   int     `json:"window"`
}

// Evaluate computes RMSE and MAPE over the last window actual-vs-fitted
// pairs. fitted must be aligned to the trailing portion of actual (as
// produced by the model's in-sample fitted values).
func Evaluate(actual, fitted []float64, window int) (Metrics, error) {
	n := len(fitted)
	if len(actual) < n {
		return Metrics{}, fmt.Errorf("fitted values longer than actual series (%d > %d)", n, len(actual))
	}
	if window <= 0 || window > n {
		window = n
	}

	actualTail := actual[len(actual)-window:]
	fittedTail := fitted[n-window:]

	sqErrs := make([]float64, window)
	var pctErrs []float64
	excluded := 0
	for i := 0; i < window; i++ {
		diff := actualTail[i] - fittedTail[i]
		sqErrs[i] = diff * diff

		if actualTail[i] == 0 {
			excluded++
			continue
		}
		pctErrs = append(pctErrs, math.Abs(diff/actualTail[i]))
	}

	m := Metrics{
		RMSE:     math.Sqrt(stat.Mean(sqErrs, nil)),
		Excluded: excluded,
		Window:   window,
	}

	if len(pctErrs) == 0 {
		return Metrics{}, fmt.Errorf("every actual in the %d-day window is zero: %w",
			window, pipeline.ErrUndefinedMetric)
	}
	m.MAPE = stat.Mean(pctErrs, nil) * 100

	return m, nil
}
