// Package domain contains the core domain types for the arbitrage context.
package domain

import "github.com/shopspring/decimal"

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Evaluation is the outcome of scoring a pair of opposing quotes. When
// Arbitrage is false the remaining fields are zero.
type Evaluation struct {
	Arbitrage       bool
	ProfitPct       decimal.Decimal
	StakeA          decimal.Decimal
	StakeB          decimal.Decimal
	TotalStake      decimal.Decimal
	PotentialProfit decimal.Decimal
}

// Evaluate scores a two-outcome market priced at oddsA and oddsB by opposing
// providers. With p = 1/oddsA + 1/oddsB, an arbitrage exists when the profit
// margin (1-p)*100 exceeds minProfitPct. The stake split makes the payout
// equal on either outcome: stakeA*oddsA == stakeB*oddsB == total/p. The
// potential profit is reported as total * profitPct / 100, so the margin and
// the emitted amount always agree.
//
// Deterministic and side-effect-free. Odds at or below 1.0 imply a
// non-positive payout and always evaluate to no arbitrage.
func Evaluate(oddsA, oddsB, maxTotalStake, platformCap, minProfitPct decimal.Decimal) Evaluation {
	if oddsA.LessThanOrEqual(one) || oddsB.LessThanOrEqual(one) {
		return Evaluation{}
	}

	invA := one.Div(oddsA)
	invB := one.Div(oddsB)
	p := invA.Add(invB)

	profitPct := one.Sub(p).Mul(hundred)
	if !profitPct.GreaterThan(minProfitPct) {
		return Evaluation{}
	}

	total := maxTotalStake
	if platformCap.LessThan(total) {
		total = platformCap
	}
	if total.LessThanOrEqual(decimal.Zero) {
		return Evaluation{}
	}

	stakeA := total.Mul(invA).Div(p)
	stakeB := total.Mul(invB).Div(p)

	return Evaluation{
		Arbitrage:       true,
		ProfitPct:       profitPct,
		StakeA:          stakeA,
		StakeB:          stakeB,
		TotalStake:      total,
		PotentialProfit: total.Mul(profitPct).Div(hundred),
	}
}
