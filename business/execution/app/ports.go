// Package app contains application services and port definitions for the execution context.
package app

import (
	"context"

	arbDomain "github.com/mvickers/surebet/business/arbitrage/domain"
	"github.com/mvickers/surebet/business/execution/domain"
)

// BetPlacer is the placement capability a bookmaker collaborator provides.
type BetPlacer interface {
	// PlaceBet submits one leg. A provider rejection comes back as an error
	// carrying CodePlacementRejected.
	PlaceBet(ctx context.Context, leg arbDomain.Leg) (domain.BetTicket, error)
}

// BetCanceller is the optional cancellation capability. Whether a provider
// supports it is declared in the registry, never discovered via failure.
type BetCanceller interface {
	CancelBet(ctx context.Context, ticket domain.BetTicket) error
}

// Escalator delivers alerts that require operator intervention.
type Escalator interface {
	Escalate(ctx context.Context, title, message string) error
}

// AuditStore persists execution results for later inspection.
type AuditStore interface {
	SaveResult(ctx context.Context, result domain.ExecutionResult) error
}

// ResultObserver receives terminal execution results, e.g. for display.
type ResultObserver interface {
	ObserveResult(result domain.ExecutionResult)
}

// Revalidator re-checks an opportunity against fresh quotes just before
// placement. A nil Revalidator on the Coordinator accepts the staleness risk.
type Revalidator interface {
	StillProfitable(ctx context.Context, opp arbDomain.Opportunity) (bool, error)
}
