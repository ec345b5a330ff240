package app

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mvickers/surebet/business/arbitrage/domain"
	oddsDomain "github.com/mvickers/surebet/business/odds/domain"
	"github.com/mvickers/surebet/internal/logger"
	"github.com/mvickers/surebet/internal/metrics"
)

// ScannerConfig holds the stake and threshold parameters for scanning.
type ScannerConfig struct {
	MinProfitPct     decimal.Decimal
	MaxTotalStake    decimal.Decimal
	PlatformStakeCap decimal.Decimal
}

// Scanner pairs matching quotes across providers and scores each pair. It
// carries no per-provider logic; any number of providers is handled uniformly.
type Scanner struct {
	config ScannerConfig
	log    logger.LoggerInterface
	inst   *metrics.Instruments
}

// NewScanner creates a Scanner.
func NewScanner(config ScannerConfig, log logger.LoggerInterface, inst *metrics.Instruments) *Scanner {
	return &Scanner{config: config, log: log, inst: inst}
}

// Scan walks every unordered pair of distinct providers, matches their quotes
// by event and market, and emits one Opportunity per qualifying pair.
// Providers are visited in sorted order so output order is stable.
func (s *Scanner) Scan(ctx context.Context, quotesByProvider map[oddsDomain.ProviderID][]oddsDomain.Quote) []domain.Opportunity {
	providers := make([]oddsDomain.ProviderID, 0, len(quotesByProvider))
	for p := range quotesByProvider {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })

	var opps []domain.Opportunity
	for i := 0; i < len(providers); i++ {
		for j := i + 1; j < len(providers); j++ {
			for _, qa := range quotesByProvider[providers[i]] {
				for _, qb := range quotesByProvider[providers[j]] {
					if !oddsDomain.SameEvent(qa, qb) || !oddsDomain.SameMarket(qa, qb) {
						continue
					}

					eval := domain.Evaluate(qa.Odds, qb.Odds,
						s.config.MaxTotalStake, s.config.PlatformStakeCap, s.config.MinProfitPct)
					if !eval.Arbitrage {
						continue
					}

					opp, err := domain.NewOpportunity(qa, qb, eval)
					if err != nil {
						s.log.Warn(ctx, "discarding invalid opportunity", "error", err.Error())
						continue
					}

					s.inst.RecordOpportunity(ctx, string(qa.Sport))
					s.log.Info(ctx, "arbitrage detected",
						"opportunity_id", opp.ID,
						"event", opp.Describe(),
						"profit_pct", opp.ProfitPct.StringFixed(4),
						"total_stake", opp.TotalStake.StringFixed(2))
					opps = append(opps, opp)
				}
			}
		}
	}
	return opps
}
