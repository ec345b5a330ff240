// Package app contains application services and port definitions for the odds context.
package app

import (
	"context"

	"github.com/mvickers/surebet/business/odds/domain"
)

// QuoteFetcher is the quote-fetching capability a bookmaker collaborator
// provides. Implementations must not panic on transient network failure;
// they return an error and the caller isolates that provider for the cycle.
type QuoteFetcher interface {
	// Provider returns the identifier this fetcher serves quotes for.
	Provider() domain.ProviderID

	// FetchQuotes retrieves current quotes for the given sport.
	FetchQuotes(ctx context.Context, sport domain.Sport) ([]domain.Quote, error)
}
