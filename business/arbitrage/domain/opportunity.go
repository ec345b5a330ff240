package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	oddsDomain "github.com/mvickers/surebet/business/odds/domain"
)

// Leg is one side of an opportunity: the quote to take and the stake to place.
type Leg struct {
	Quote oddsDomain.Quote
	Stake decimal.Decimal
}

// Provider returns the bookmaker this leg stakes at.
func (l Leg) Provider() oddsDomain.ProviderID { return l.Quote.Provider }

// Opportunity is a detected arbitrage: two legs at distinct providers on the
// same event and market. Immutable after construction; an execution produces
// a separate result record.
type Opportunity struct {
	ID              string
	LegA            Leg
	LegB            Leg
	ProfitPct       decimal.Decimal
	TotalStake      decimal.Decimal
	PotentialProfit decimal.Decimal
	DetectedAt      time.Time
}

// NewOpportunity builds an Opportunity from a pair of matched quotes and
// their evaluation. It enforces the construction invariants: distinct
// providers, a positive profit margin, and non-negative stakes.
func NewOpportunity(a, b oddsDomain.Quote, eval Evaluation) (Opportunity, error) {
	if !eval.Arbitrage {
		return Opportunity{}, fmt.Errorf("opportunity: evaluation is not an arbitrage")
	}
	if a.Provider == b.Provider {
		return Opportunity{}, fmt.Errorf("opportunity: both legs at provider %s", a.Provider)
	}
	if eval.ProfitPct.LessThanOrEqual(decimal.Zero) {
		return Opportunity{}, fmt.Errorf("opportunity: non-positive profit %s", eval.ProfitPct)
	}
	if eval.StakeA.IsNegative() || eval.StakeB.IsNegative() {
		return Opportunity{}, fmt.Errorf("opportunity: negative stake")
	}

	return Opportunity{
		ID:              uuid.New().String(),
		LegA:            Leg{Quote: a, Stake: eval.StakeA},
		LegB:            Leg{Quote: b, Stake: eval.StakeB},
		ProfitPct:       eval.ProfitPct,
		TotalStake:      eval.TotalStake,
		PotentialProfit: eval.PotentialProfit,
		DetectedAt:      time.Now().UTC(),
	}, nil
}

// EventKey returns the exclusive-claim key for the opportunity's event and
// market, shared by both legs.
func (o Opportunity) EventKey() string { return o.LegA.Quote.EventKey() }

// Describe renders a one-line human summary.
func (o Opportunity) Describe() string {
	q := o.LegA.Quote
	return fmt.Sprintf("%s vs %s (%s): %s @ %s / %s @ %s, margin %s%%",
		q.HomeTeam, q.AwayTeam, q.Market,
		o.LegA.Provider(), o.LegA.Quote.Odds.StringFixed(2),
		o.LegB.Provider(), o.LegB.Quote.Odds.StringFixed(2),
		o.ProfitPct.StringFixed(2))
}
