package app

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"github.com/mvickers/surebet/business/odds/domain"
	"github.com/mvickers/surebet/internal/apperror"
	"github.com/mvickers/surebet/internal/circuitbreaker"
	"github.com/mvickers/surebet/internal/logger"
	"github.com/mvickers/surebet/internal/metrics"
)

// CycleResult carries one polling cycle's worth of quotes. Providers that
// failed appear in Failures and are simply absent from QuotesByProvider; the
// cycle still matches across the providers that responded.
type CycleResult struct {
	QuotesByProvider map[domain.ProviderID][]domain.Quote
	Failures         map[domain.ProviderID]error
}

// QuoteService fetches quotes from every configured provider concurrently,
// each call behind a per-provider circuit breaker and a bounded timeout so one
// slow provider cannot stall the cycle.
type QuoteService struct {
	fetchers []QuoteFetcher
	breakers map[domain.ProviderID]*circuitbreaker.CircuitBreaker[[]domain.Quote]
	timeout  time.Duration
	log      logger.LoggerInterface
	inst     *metrics.Instruments
}

// NewQuoteService creates a QuoteService over the given fetchers.
func NewQuoteService(fetchers []QuoteFetcher, timeout time.Duration, log logger.LoggerInterface, inst *metrics.Instruments) *QuoteService {
	breakers := make(map[domain.ProviderID]*circuitbreaker.CircuitBreaker[[]domain.Quote], len(fetchers))
	for _, f := range fetchers {
		cfg := circuitbreaker.DefaultConfig("fetch-" + f.Provider().String())
		cfg.OnStateChange = func(name string, from, to gobreaker.State) {
			log.Info(context.Background(), "circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		}
		breakers[f.Provider()] = circuitbreaker.New[[]domain.Quote](cfg)
	}
	return &QuoteService{
		fetchers: fetchers,
		breakers: breakers,
		timeout:  timeout,
		log:      log,
		inst:     inst,
	}
}

// FetchAll polls every provider for the given sport. A provider failure is
// recorded, never returned; the error return is reserved for ctx cancellation.
func (s *QuoteService) FetchAll(ctx context.Context, sport domain.Sport) (CycleResult, error) {
	result := CycleResult{
		QuotesByProvider: make(map[domain.ProviderID][]domain.Quote, len(s.fetchers)),
		Failures:         make(map[domain.ProviderID]error),
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, f := range s.fetchers {
		g.Go(func() error {
			provider := f.Provider()

			fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			quotes, err := s.breakers[provider].Execute(func() ([]domain.Quote, error) {
				return f.FetchQuotes(fetchCtx, sport)
			})
			if err != nil {
				s.inst.RecordFetchFailure(ctx, provider.String())
				s.log.Warn(ctx, "provider fetch failed",
					"provider", provider.String(), "sport", string(sport), "error", err.Error())
				mu.Lock()
				result.Failures[provider] = apperror.Wrap(err, apperror.CodeFetchFailed, provider.String())
				mu.Unlock()
				return nil
			}

			valid := quotes[:0]
			for _, q := range quotes {
				if q.Valid() {
					valid = append(valid, q)
					continue
				}
				s.log.Debug(ctx, "malformed quote dropped",
					"provider", provider.String(), "home", q.HomeTeam, "away", q.AwayTeam, "market", q.Market)
			}

			s.inst.RecordQuotesFetched(ctx, provider.String(), len(valid))
			mu.Lock()
			result.QuotesByProvider[provider] = valid
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CycleResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return CycleResult{}, err
	}
	return result, nil
}
