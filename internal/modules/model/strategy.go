// Package model selects the best seasonal ARIMA order for a daily
// series by scoring candidate fits on in-sample RMSE.
package model

import (
	"fmt"

	"github.com/hjuarez/ventasbi/internal/sarima"
)

// StrategyKind names a model search strategy.
type StrategyKind string

const (
	// StrategyGrid exhaustively evaluates every order in the bounded
	// candidate space.
	StrategyGrid StrategyKind = "grid"
	// StrategyAuto runs a stepwise neighborhood search over the same
	// space, evaluating far fewer candidates.
	StrategyAuto StrategyKind = "auto"
	// StrategyFixed fits a single explicitly configured order.
	StrategyFixed StrategyKind = "fixed"
)

// ParseStrategy maps a configuration string to a StrategyKind.
func ParseStrategy(s string) (StrategyKind, error) {
	switch StrategyKind(s) {
	case StrategyGrid, StrategyAuto, StrategyFixed:
		return StrategyKind(s), nil
	default:
		return "", fmt.Errorf("unknown search strategy %q", s)
	}
}

// maxOrderComponent bounds every order component of the candidate
// space: p,d,q,P,D,Q all range over {0, 1}, giving at most 64 candidates.
const maxOrderComponent = 1

// gridCandidates enumerates the candidate space in deterministic
// p-major to Q-minor lexicographic order. The index of a candidate in
// the returned slice is its tie-breaking rank.
func gridCandidates(period int) []sarima.Order {
	orders := make([]sarima.Order, 0, 64)
	for p := 0; p <= maxOrderComponent; p++ {
		for d := 0; d <= maxOrderComponent; d++ {
			for q := 0; q <= maxOrderComponent; q++ {
				for sp := 0; sp <= maxOrderComponent; sp++ {
					for sd := 0; sd <= maxOrderComponent; sd++ {
						for sq := 0; sq <= maxOrderComponent; sq++ {
							orders = append(orders, sarima.Order{
								P: p, D: d, Q: q,
								SP: sp, SD: sd, SQ: sq,
								Period: period,
							})
						}
					}
				}
			}
		}
	}
	return orders
}

// stepwiseNeighbors returns the orders one component step away from o,
// within the candidate space bounds, in deterministic order.
func stepwiseNeighbors(o sarima.Order) []sarima.Order {
	var out []sarima.Order
	add := func(n sarima.Order) {
		if n.P < 0 || n.P > maxOrderComponent ||
			n.D < 0 || n.D > maxOrderComponent ||
			n.Q < 0 || n.Q > maxOrderComponent ||
			n.SP < 0 || n.SP > maxOrderComponent ||
			n.SD < 0 || n.SD > maxOrderComponent ||
			n.SQ < 0 || n.SQ > maxOrderComponent {
			return
		}
		out = append(out, n)
	}

	for _, delta := range []int{1, -1} {
		n := o
		n.P += delta
		add(n)
		n = o
		n.Q += delta
		add(n)
		n = o
		n.SP += delta
		add(n)
		n = o
		n.SQ += delta
		add(n)
		n = o
		n.D += delta
		add(n)
		n = o
		n.SD += delta
		add(n)
	}
	return out
}

// stepwiseStarts are the seed orders of the auto search.
func stepwiseStarts(period int) []sarima.Order {
	return []sarima.Order{
		{Period: period},
		{P: 1, Period: period},
		{Q: 1, Period: period},
		{P: 1, Q: 1, Period: period},
		{P: 1, D: 1, Q: 1, SP: 1, SD: 1, SQ: 1, Period: period},
	}
}
