// Package sarima implements seasonal ARIMA models fitted by conditional
// sum of squares. Coefficients are kept inside (-0.99, 0.99) rather than
// strictly enforcing stationarity and invertibility, which maximizes the
// chance of a successful fit on arbitrary real-world series.
package sarima

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Order is a SARIMA order (p,d,q)(P,D,Q)[period].
type Order struct {
	P, D, Q    int // Non-seasonal AR, differencing, MA orders
	SP, SD, SQ int // Seasonal AR, differencing, MA orders
	Period     int // Seasonal period in observations
}

func (o Order) String() string {
	return fmt.Sprintf("SARIMA(%d,%d,%d)(%d,%d,%d)[%d]",
		o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.Period)
}

// Model is a fitted SARIMA model.
type Model struct {
	Order Order

	ar, ma    []float64
	sar, sma  []float64
	intercept float64
	variance  float64

	original  []float64 // Training series on the original scale
	diffed    []float64 // After non-seasonal then seasonal differencing
	residuals []float64 // One-step residuals, diffed scale
	fittedRaw []float64 // One-step predictions, diffed scale

	aic    float64
	loglik float64
}

// Optimizer settings for the CSS fit. Tuned for short daily series;
// early stopping ends the loop well before maxIterations in practice.
const (
	maxIterations = 200
	tolerance     = 1e-8
	baseLearnRate = 0.005
	momentumBeta  = 0.9
	rateDecay     = 0.99
	patience      = 20
	coeffBound    = 0.99
)

// MinObservations returns the fewest data points needed to fit the
// given order.
func MinObservations(o Order) int {
	return o.P + o.Q + o.D + (o.SP+o.SD+o.SQ)*o.Period + 20
}

// Fit estimates a SARIMA model of the given order on values. The
// context is checked between optimizer iterations, so slow
// non-convergent fits can be cut off by a deadline.
func Fit(ctx context.Context, values []float64, order Order) (*Model, error) {
	if order.Period <= 0 && (order.SP > 0 || order.SD > 0 || order.SQ > 0) {
		return nil, errors.New("seasonal terms require a positive period")
	}
	if len(values) < MinObservations(order) {
		return nil, fmt.Errorf("need at least %d observations for %s, have %d",
			MinObservations(order), order, len(values))
	}

	original := append([]float64(nil), values...)

	diffed := original
	for i := 0; i < order.D; i++ {
		diffed = difference(diffed, 1)
	}
	for i := 0; i < order.SD; i++ {
		diffed = difference(diffed, order.Period)
	}
	if len(diffed) < 10 {
		return nil, errors.New("differencing left too few observations")
	}

	m := &Model{
		Order:    order,
		ar:       make([]float64, order.P),
		ma:       make([]float64, order.Q),
		sar:      make([]float64, order.SP),
		sma:      make([]float64, order.SQ),
		original: original,
		diffed:   diffed,
	}

	m.initCoefficients()

	if err := m.optimize(ctx); err != nil {
		return nil, err
	}

	m.finalize()
	return m, nil
}

// initCoefficients seeds AR terms from the sample autocorrelation and
// MA terms with a small constant.
func (m *Model) initCoefficients() {
	n := len(m.diffed)

	mean := 0.0
	for _, v := range m.diffed {
		mean += v
	}
	m.intercept = mean / float64(n)

	maxLag := m.Order.P
	if sl := m.Order.SP * m.Order.Period; sl > maxLag {
		maxLag = sl
	}
	acf := autocorrelation(m.diffed, maxLag)

	for i := 0; i < m.Order.P && i+1 < len(acf); i++ {
		m.ar[i] = acf[i+1] * 0.5
	}
	for i := 0; i < m.Order.SP; i++ {
		lag := (i + 1) * m.Order.Period
		if lag < len(acf) {
			m.sar[i] = acf[lag] * 0.5
		}
	}
	for i := range m.ma {
		m.ma[i] = 0.1
	}
	for i := range m.sma {
		m.sma[i] = 0.1
	}
}

// predictAt computes the one-step prediction for index t of the diffed
// series, given residuals for earlier indexes.
func (m *Model) predictAt(t int, y, residuals []float64) float64 {
	pred := m.intercept

	for i := 0; i < m.Order.P && t-i-1 >= 0; i++ {
		pred += m.ar[i] * (y[t-i-1] - m.intercept)
	}
	for i := 0; i < m.Order.SP; i++ {
		if lag := (i + 1) * m.Order.Period; t-lag >= 0 {
			pred += m.sar[i] * (y[t-lag] - m.intercept)
		}
	}
	for i := 0; i < m.Order.Q && t-i-1 >= 0; i++ {
		pred += m.ma[i] * residuals[t-i-1]
	}
	for i := 0; i < m.Order.SQ; i++ {
		if lag := (i + 1) * m.Order.Period; t-lag >= 0 {
			pred += m.sma[i] * residuals[t-lag]
		}
	}

	return pred
}

// optimize runs gradient descent with momentum on the conditional sum
// of squares, keeping the best coefficients seen.
func (m *Model) optimize(ctx context.Context) error {
	y := m.diffed
	n := len(y)
	o := m.Order

	start := o.P
	if o.Q > start {
		start = o.Q
	}
	if sl := o.SP * o.Period; sl > start {
		start = sl
	}
	if sl := o.SQ * o.Period; sl > start {
		start = sl
	}
	if start >= n-10 {
		start = 0
	}

	vAR := make([]float64, o.P)
	vMA := make([]float64, o.Q)
	vSAR := make([]float64, o.SP)
	vSMA := make([]float64, o.SQ)

	bestSSE := math.Inf(1)
	bestAR := make([]float64, o.P)
	bestMA := make([]float64, o.Q)
	bestSAR := make([]float64, o.SP)
	bestSMA := make([]float64, o.SQ)
	stale := 0

	rate := baseLearnRate

	for iter := 0; iter < maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("fit cancelled after %d iterations: %w", iter, err)
		}

		residuals := make([]float64, n)
		sse := 0.0
		for t := start; t < n; t++ {
			residuals[t] = y[t] - m.predictAt(t, y, residuals)
			sse += residuals[t] * residuals[t]
		}

		if math.IsNaN(sse) || math.IsInf(sse, 0) {
			return errors.New("optimization diverged")
		}

		if sse < bestSSE {
			if bestSSE-sse < tolerance && iter > 0 {
				bestSSE = sse
				copy(bestAR, m.ar)
				copy(bestMA, m.ma)
				copy(bestSAR, m.sar)
				copy(bestSMA, m.sma)
				break
			}
			bestSSE = sse
			copy(bestAR, m.ar)
			copy(bestMA, m.ma)
			copy(bestSAR, m.sar)
			copy(bestSMA, m.sma)
			stale = 0
		} else {
			stale++
			if stale > patience {
				break
			}
		}

		gAR := make([]float64, o.P)
		gMA := make([]float64, o.Q)
		gSAR := make([]float64, o.SP)
		gSMA := make([]float64, o.SQ)

		for t := start; t < n; t++ {
			for i := 0; i < o.P && t-i-1 >= 0; i++ {
				gAR[i] -= 2 * residuals[t] * (y[t-i-1] - m.intercept)
			}
			for i := 0; i < o.SP; i++ {
				if lag := (i + 1) * o.Period; t-lag >= 0 {
					gSAR[i] -= 2 * residuals[t] * (y[t-lag] - m.intercept)
				}
			}
			for i := 0; i < o.Q && t-i-1 >= 0; i++ {
				gMA[i] -= 2 * residuals[t] * residuals[t-i-1]
			}
			for i := 0; i < o.SQ; i++ {
				if lag := (i + 1) * o.Period; t-lag >= 0 {
					gSMA[i] -= 2 * residuals[t] * residuals[t-lag]
				}
			}
		}

		step := func(coeffs, velocity, grad []float64) {
			for i := range coeffs {
				velocity[i] = momentumBeta*velocity[i] + rate*grad[i]/float64(n)
				coeffs[i] = clamp(coeffs[i]-velocity[i], -coeffBound, coeffBound)
			}
		}
		step(m.ar, vAR, gAR)
		step(m.sar, vSAR, gSAR)
		step(m.ma, vMA, gMA)
		step(m.sma, vSMA, gSMA)

		rate *= rateDecay
	}

	copy(m.ar, bestAR)
	copy(m.ma, bestMA)
	copy(m.sar, bestSAR)
	copy(m.sma, bestSMA)

	return nil
}

// finalize computes residuals, fitted values, the residual variance and
// the information criteria with the final coefficients.
func (m *Model) finalize() {
	y := m.diffed
	n := len(y)

	m.residuals = make([]float64, n)
	m.fittedRaw = make([]float64, n)
	for t := 0; t < n; t++ {
		m.fittedRaw[t] = m.predictAt(t, y, m.residuals)
		m.residuals[t] = y[t] - m.fittedRaw[t]
	}

	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}

	k := m.Order.P + m.Order.Q + m.Order.SP + m.Order.SQ + 1
	if n > k {
		m.variance = sse / float64(n-k)
	} else {
		m.variance = sse / float64(n)
	}

	if m.variance > 0 {
		m.loglik = -float64(n)/2*math.Log(2*math.Pi) -
			float64(n)/2*math.Log(m.variance) - sse/(2*m.variance)
	} else {
		m.loglik = math.Inf(-1)
	}
	m.aic = -2*m.loglik + 2*float64(k)
}

// FittedValues returns the in-sample one-step predictions on the
// original scale. They align to the trailing len(FittedValues()) points
// of the training series: differencing consumes the leading
// D + SD*Period observations.
//
// On the original scale the one-step prediction is the actual value
// minus the diffed-scale residual, since the integration terms are past
// actuals.
func (m *Model) FittedValues() []float64 {
	offset := len(m.original) - len(m.residuals)
	fitted := make([]float64, len(m.residuals))
	for t := range m.residuals {
		fitted[t] = m.original[offset+t] - m.residuals[t]
	}
	return fitted
}

// Residuals returns a copy of the diffed-scale residuals.
func (m *Model) Residuals() []float64 {
	return append([]float64(nil), m.residuals...)
}

// AIC returns the Akaike information criterion of the fit.
func (m *Model) AIC() float64 { return m.aic }

// LogLikelihood returns the Gaussian log-likelihood of the fit.
func (m *Model) LogLikelihood() float64 { return m.loglik }

// Forecast produces point forecasts and a two-sided prediction interval
// at the given confidence level (0 < confidence < 1, e.g. 0.95) for the
// next steps observations.
func (m *Model) Forecast(steps int, confidence float64) (point, lower, upper []float64, err error) {
	if steps < 1 {
		return nil, nil, nil, errors.New("steps must be at least 1")
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}

	n := len(m.diffed)
	extended := make([]float64, n+steps)
	copy(extended, m.diffed)
	residuals := make([]float64, n+steps)
	copy(residuals, m.residuals)

	// Future residuals are zero by construction; predictAt only sees
	// nonzero residuals for in-sample indexes.
	for h := 0; h < steps; h++ {
		t := n + h
		extended[t] = m.predictAt(t, extended, residuals)
	}

	point = m.integrate(extended[n:])

	z := normalQuantile((1 + confidence) / 2)
	lower = make([]float64, steps)
	upper = make([]float64, steps)
	for h := 0; h < steps; h++ {
		se := math.Sqrt(m.variance)
		// Forecast variance grows with the horizon once the series is
		// integrated back.
		if m.Order.D > 0 {
			se *= math.Sqrt(float64(h + 1))
		}
		if m.Order.SD > 0 && m.Order.Period > 0 {
			se *= math.Sqrt(float64(h/m.Order.Period + 1))
		}
		lower[h] = point[h] - z*se
		upper[h] = point[h] + z*se
	}

	return point, lower, upper, nil
}

// integrate undoes the differencing applied in Fit, returning forecasts
// on the original scale. Fit differences non-seasonally first, then
// seasonally, so integration reverses: seasonal first, non-seasonal
// last.
func (m *Model) integrate(forecasts []float64) []float64 {
	out := append([]float64(nil), forecasts...)
	period := m.Order.Period

	// Non-seasonally differenced history, needed as the base for
	// seasonal integration.
	base := m.original
	for i := 0; i < m.Order.D; i++ {
		if len(base) <= 1 {
			break
		}
		base = difference(base, 1)
	}

	for i := 0; i < m.Order.SD && period > 0; i++ {
		nb := len(base)
		for j := range out {
			if j < period {
				if idx := nb - period + j; idx >= 0 && idx < nb {
					out[j] += base[idx]
				}
			} else {
				out[j] += out[j-period]
			}
		}
	}

	for i := 0; i < m.Order.D; i++ {
		last := m.original[len(m.original)-1]
		for j := range out {
			if j == 0 {
				out[j] += last
			} else {
				out[j] += out[j-1]
			}
		}
	}

	return out
}

// difference returns the lag-k difference of values.
func difference(values []float64, k int) []float64 {
	if k <= 0 || len(values) <= k {
		return nil
	}
	out := make([]float64, len(values)-k)
	for i := k; i < len(values); i++ {
		out[i-k] = values[i] - values[i-k]
	}
	return out
}

// autocorrelation returns the sample ACF up to maxLag (index 0 is 1).
func autocorrelation(values []float64, maxLag int) []float64 {
	n := len(values)
	if n == 0 || maxLag < 0 {
		return nil
	}
	if maxLag >= n {
		maxLag = n - 1
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	c0 := 0.0
	for _, v := range values {
		c0 += (v - mean) * (v - mean)
	}
	if c0 == 0 {
		return make([]float64, maxLag+1)
	}

	acf := make([]float64, maxLag+1)
	acf[0] = 1
	for lag := 1; lag <= maxLag; lag++ {
		ck := 0.0
		for t := lag; t < n; t++ {
			ck += (values[t] - mean) * (values[t-lag] - mean)
		}
		acf[lag] = ck / c0
	}
	return acf
}

// normalQuantile approximates the standard normal quantile function
// (Abramowitz & Stegun 26.2.23).
func normalQuantile(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	if p < 0.5 {
		return -normalQuantile(1 - p)
	}

	t := math.Sqrt(-2 * math.Log(1-p))
	c0, c1, c2 := 2.515517, 0.802853, 0.010328
	d1, d2, d3 := 1.432788, 0.189269, 0.001308
	return t - (c0+c1*t+c2*t*t)/(1+d1*t+d2*t*t+d3*t*t*t)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
