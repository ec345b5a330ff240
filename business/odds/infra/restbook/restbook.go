// Package restbook adapts any REST bookmaker API to the engine's fetch and
// placement capabilities. One adapter, parameterized per provider; adding a
// bookmaker is configuration, not a new code path.
package restbook

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	arbDomain "github.com/mvickers/surebet/business/arbitrage/domain"
	execDomain "github.com/mvickers/surebet/business/execution/domain"
	"github.com/mvickers/surebet/business/odds/domain"
	"github.com/mvickers/surebet/internal/apperror"
	"github.com/mvickers/surebet/internal/httpclient"
	"github.com/mvickers/surebet/internal/logger"
	"github.com/mvickers/surebet/internal/ratelimit"
)

// Config parameterizes the adapter for one provider.
type Config struct {
	Provider          domain.ProviderID
	BaseURL           string
	APIKey            string
	RequestsPerMinute int
	SupportsCancel    bool
}

// Book is a REST bookmaker adapter. It implements quote fetching and bet
// placement; cancellation is exposed only when the provider supports it.
type Book struct {
	config  Config
	client  *httpclient.Client
	limiter *ratelimit.Limiter
	log     logger.LoggerInterface
}

// New creates a Book for the given provider.
func New(config Config, log logger.LoggerInterface) (*Book, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("restbook: provider %s has no base URL", config.Provider)
	}
	rpm := config.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	client, err := httpclient.New(httpclient.Config{
		ProviderName: config.Provider.String(),
		BaseURL:      config.BaseURL,
		Headers:      map[string]string{"X-Api-Key": config.APIKey},
	})
	if err != nil {
		return nil, err
	}

	return &Book{
		config:  config,
		client:  client,
		limiter: ratelimit.New(rpm),
		log:     log.With("provider", config.Provider.String()),
	}, nil
}

// Provider implements app.QuoteFetcher.
func (b *Book) Provider() domain.ProviderID { return b.config.Provider }

// SupportsCancel reports whether the provider's API can cancel placed bets.
func (b *Book) SupportsCancel() bool { return b.config.SupportsCancel }

type eventDTO struct {
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	StartTime time.Time `json:"start_time"`
	Markets   []struct {
		Name     string          `json:"name"`
		Odds     decimal.Decimal `json:"odds"`
		Currency string          `json:"currency"`
	} `json:"markets"`
}

// FetchQuotes implements app.QuoteFetcher. Transient failures come back as
// errors; the service isolates the provider for the cycle.
func (b *Book) FetchQuotes(ctx context.Context, sport domain.Sport) ([]domain.Quote, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp struct {
		Events []eventDTO `json:"events"`
	}
	query := url.Values{"sport": []string{string(sport)}}
	if err := b.client.GetJSON(ctx, "/v1/odds", query, &resp); err != nil {
		return nil, apperror.External(apperror.CodeFetchFailed, b.config.Provider.String(), err)
	}

	now := time.Now().UTC()
	var quotes []domain.Quote
	for _, ev := range resp.Events {
		for _, m := range ev.Markets {
			quotes = append(quotes, domain.Quote{
				Provider:  b.config.Provider,
				Sport:     sport,
				HomeTeam:  ev.HomeTeam,
				AwayTeam:  ev.AwayTeam,
				StartTime: ev.StartTime,
				Market:    m.Name,
				Odds:      m.Odds,
				Currency:  m.Currency,
				FetchedAt: now,
			})
		}
	}
	return quotes, nil
}

type placeRequest struct {
	HomeTeam  string          `json:"home_team"`
	AwayTeam  string          `json:"away_team"`
	StartTime time.Time       `json:"start_time"`
	Market    string          `json:"market"`
	Odds      decimal.Decimal `json:"odds"`
	Stake     decimal.Decimal `json:"stake"`
	Currency  string          `json:"currency"`
}

type placeResponse struct {
	BetID  string `json:"bet_id"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// PlaceBet implements the execution placement capability.
func (b *Book) PlaceBet(ctx context.Context, leg arbDomain.Leg) (execDomain.BetTicket, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return execDomain.BetTicket{}, err
	}

	q := leg.Quote
	req := placeRequest{
		HomeTeam:  q.HomeTeam,
		AwayTeam:  q.AwayTeam,
		StartTime: q.StartTime,
		Market:    q.Market,
		Odds:      q.Odds,
		Stake:     leg.Stake,
		Currency:  q.Currency,
	}

	var resp placeResponse
	if err := b.client.PostJSON(ctx, "/v1/bets", req, &resp); err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode < 500 {
			return execDomain.BetTicket{}, apperror.External(
				apperror.CodePlacementRejected, b.config.Provider.String(), err)
		}
		return execDomain.BetTicket{}, err
	}
	if resp.Status != "accepted" {
		return execDomain.BetTicket{}, apperror.New(apperror.CodePlacementRejected,
			apperror.WithContext(fmt.Sprintf("%s: %s", b.config.Provider, resp.Reason)))
	}

	b.log.Info(ctx, "bet placed", "bet_id", resp.BetID,
		"market", q.Market, "odds", q.Odds.StringFixed(2), "stake", leg.Stake.StringFixed(2))
	return execDomain.BetTicket{
		BetID:    resp.BetID,
		Provider: b.config.Provider,
		PlacedAt: time.Now().UTC(),
	}, nil
}

// CancelBet implements the optional cancellation capability. Callers must
// consult SupportsCancel first; the registry never exposes this method for
// providers that cannot cancel.
func (b *Book) CancelBet(ctx context.Context, ticket execDomain.BetTicket) error {
	if !b.config.SupportsCancel {
		return apperror.New(apperror.CodeCancelUnsupported,
			apperror.WithContext(b.config.Provider.String()))
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}

	var resp struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	path := fmt.Sprintf("/v1/bets/%s/cancel", url.PathEscape(ticket.BetID))
	if err := b.client.PostJSON(ctx, path, nil, &resp); err != nil {
		return apperror.External(apperror.CodeCancelRejected, b.config.Provider.String(), err)
	}
	if resp.Status != "cancelled" {
		return apperror.New(apperror.CodeCancelRejected,
			apperror.WithContext(fmt.Sprintf("%s: %s", b.config.Provider, resp.Reason)))
	}

	b.log.Info(ctx, "bet cancelled", "bet_id", ticket.BetID)
	return nil
}
