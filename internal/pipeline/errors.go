// Package pipeline defines the error taxonomy shared by the forecasting
// pipeline stages. Every stage fails fast with the most specific error
// kind; the HTTP boundary maps kinds to statuses instead of erasing them
// into plain strings.
package pipeline

import "errors"

var (
	// ErrSchema indicates required columns (issue date, final amount)
	// are absent from the input source.
	ErrSchema = errors.New("input schema is missing required columns")

	// ErrEmptyInput indicates the input contained no usable rows.
	ErrEmptyInput = errors.New("input contains no usable transactions")

	// ErrModelSelection indicates no candidate model fit successfully.
	// There is no fallback; no forecast can be produced.
	ErrModelSelection = errors.New("no candidate model could be fitted")

	// ErrInvalidHorizon indicates a non-positive or out-of-range horizon.
	ErrInvalidHorizon = errors.New("forecast horizon must be between 1 and 60 days")

	// ErrUndefinedMetric indicates every term of a metric was excluded
	// (e.g. MAPE over a window of all-zero actuals).
	ErrUndefinedMetric = errors.New("metric is undefined for the evaluation window")
)

// Kind returns the stable machine-readable kind for a pipeline error,
// or "internal" for anything outside the taxonomy.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrModelSelection):
		return "model_selection"
	case errors.Is(err, ErrInvalidHorizon):
		return "invalid_horizon"
	case errors.Is(err, ErrUndefinedMetric):
		return "undefined_metric"
	default:
		return "internal"
	}
}
