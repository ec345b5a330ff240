package app

import (
	"context"

	"github.com/shopspring/decimal"

	arbDomain "github.com/mvickers/surebet/business/arbitrage/domain"
	oddsApp "github.com/mvickers/surebet/business/odds/app"
	oddsDomain "github.com/mvickers/surebet/business/odds/domain"
)

// FreshQuoteRevalidator re-fetches quotes from an opportunity's two providers
// and re-scores the pair before placement, so odds drift between detection
// and execution cannot turn a winner into a guaranteed loss.
type FreshQuoteRevalidator struct {
	quotes       *oddsApp.QuoteService
	minProfitPct decimal.Decimal
}

// NewFreshQuoteRevalidator creates a FreshQuoteRevalidator.
func NewFreshQuoteRevalidator(quotes *oddsApp.QuoteService, minProfitPct decimal.Decimal) *FreshQuoteRevalidator {
	return &FreshQuoteRevalidator{quotes: quotes, minProfitPct: minProfitPct}
}

// StillProfitable implements Revalidator. A provider that cannot be re-read
// fails revalidation; placing against an unverifiable price is not worth the
// margin.
func (r *FreshQuoteRevalidator) StillProfitable(ctx context.Context, opp arbDomain.Opportunity) (bool, error) {
	sport := opp.LegA.Quote.Sport
	result, err := r.quotes.FetchAll(ctx, sport)
	if err != nil {
		return false, err
	}

	freshA, okA := findMatching(result.QuotesByProvider[opp.LegA.Provider()], opp.LegA.Quote)
	freshB, okB := findMatching(result.QuotesByProvider[opp.LegB.Provider()], opp.LegB.Quote)
	if !okA || !okB {
		return false, nil
	}

	eval := arbDomain.Evaluate(freshA.Odds, freshB.Odds,
		opp.TotalStake, opp.TotalStake, r.minProfitPct)
	return eval.Arbitrage, nil
}

func findMatching(quotes []oddsDomain.Quote, want oddsDomain.Quote) (oddsDomain.Quote, bool) {
	for _, q := range quotes {
		if oddsDomain.SameEvent(q, want) && oddsDomain.SameMarket(q, want) {
			return q, true
		}
	}
	return oddsDomain.Quote{}, false
}

var _ Revalidator = (*FreshQuoteRevalidator)(nil)
