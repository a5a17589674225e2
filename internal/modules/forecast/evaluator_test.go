package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hjuarez/ventasbi/internal/pipeline"
)

func TestEvaluate_KnownValues(t *testing.T) {
	actual := []float64{100, 200, 400}
	fitted := []float64{110, 190, 380}

	m, err := Evaluate(actual, fitted, 3)
	require.NoError(t, err)

	// Squared errors: 100, 100, 400 -> mean 200
	assert.InDelta(t, math.Sqrt(200), m.RMSE, 1e-9)
	// Percentage errors: 0.10, 0.05, 0.05 -> mean 6.667%
	assert.InDelta(t, 100.0*(0.10+0.05+0.05)/3, m.MAPE, 1e-9)
	assert.Zero(t, m.Excluded)
	assert.Equal(t, 3, m.Window)
}

func TestEvaluate_TrailingWindowOnly(t *testing.T) {
	actual := []float64{1000, 1000, 100, 200}
	fitted := []float64{9999, 9999, 110, 190}

	m, err := Evaluate(actual, fitted, 2)
	require.NoError(t, err)

	// Only the last two pairs count
	assert.InDelta(t, math.Sqrt((100.0+100.0)/2), m.RMSE, 1e-9)
	assert.Equal(t, 2, m.Window)
}

func TestEvaluate_ZeroActualsExcludedFromMAPE(t *testing.T) {
	actual := []float64{0, 100, 0, 200}
	fitted := []float64{10, 110, 5, 190}

	m, err := Evaluate(actual, fitted, 4)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Excluded)
	// MAPE over the two nonzero actuals: 0.10 and 0.05
	assert.InDelta(t, 7.5, m.MAPE, 1e-9)
	// RMSE still uses all four pairs
	assert.InDelta(t, math.Sqrt((100.0+100.0+25.0+100.0)/4), m.RMSE, 1e-9)
}

func TestEvaluate_AllZeroWindow(t *testing.T) {
	actual := []float64{0, 0, 0}
	fitted := []float64{1, 2, 3}

	_, err := Evaluate(actual, fitted, 3)
	assert.ErrorIs(t, err, pipeline.ErrUndefinedMetric)
}

func TestEvaluate_FittedShorterThanActual(t *testing.T) {
	// Differencing trims fitted values; they align to the tail
	actual := []float64{50, 100, 200}
	fitted := []float64{90, 210}

	m, err := Evaluate(actual, fitted, 2)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt((100.0+100.0)/2), m.RMSE, 1e-9)
}

func TestEvaluate_WindowLargerThanFittedClamps(t *testing.T) {
	actual := []float64{100, 200}
	fitted := []float64{110, 190}

	m, err := Evaluate(actual, fitted, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Window)
}

func TestEvaluate_FittedLongerThanActual(t *testing.T) {
	_, err := Evaluate([]float64{1}, []float64{1, 2}, 1)
	assert.Error(t, err)
}
