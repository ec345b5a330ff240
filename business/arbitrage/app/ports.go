// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"

	"github.com/mvickers/surebet/business/arbitrage/domain"
	oddsDomain "github.com/mvickers/surebet/business/odds/domain"
)

// Reporter defines the interface for reporting detected opportunities.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report sends a detected opportunity to be displayed/logged.
	Report(opp domain.Opportunity)

	// UpdateProviderStatus updates a provider's health display.
	UpdateProviderStatus(provider oddsDomain.ProviderID, healthy bool)

	// Stop gracefully shuts down the reporter.
	Stop() error
}

// Executor accepts opportunities for bet placement. Submit must not block the
// scanning loop; implementations queue or drop.
type Executor interface {
	Submit(ctx context.Context, opp domain.Opportunity)
}
