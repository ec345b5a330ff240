// Package domain contains the core domain types for the execution context.
package domain

import (
	"time"

	arbDomain "github.com/mvickers/surebet/business/arbitrage/domain"
	oddsDomain "github.com/mvickers/surebet/business/odds/domain"
)

// LegStatus tracks one leg through placement.
type LegStatus string

const (
	LegPending      LegStatus = "pending"
	LegPlaced       LegStatus = "placed"
	LegFailed       LegStatus = "failed"
	LegSkipped      LegStatus = "skipped"
	LegCancelled    LegStatus = "cancelled"
	LegCancelFailed LegStatus = "cancel_failed"
)

// OverallStatus is the terminal state of an execution.
type OverallStatus string

const (
	// StatusCompleted: both legs placed, position fully hedged.
	StatusCompleted OverallStatus = "completed"

	// StatusAbortedBeforeLegB: leg A was rejected; nothing was staked.
	StatusAbortedBeforeLegB OverallStatus = "aborted_before_leg_b"

	// StatusAbortedAfterLegACompensated: leg B failed but the leg-A bet was
	// cancelled, so no exposure remains.
	StatusAbortedAfterLegACompensated OverallStatus = "aborted_after_leg_a_compensated"

	// StatusAbortedAfterLegAUncompensated: leg B failed and the leg-A bet
	// could not be cancelled. An unhedged position is open and an operator
	// must intervene.
	StatusAbortedAfterLegAUncompensated OverallStatus = "aborted_after_leg_a_uncompensated"
)

// Unhedged reports whether the status leaves an open one-sided position.
func (s OverallStatus) Unhedged() bool {
	return s == StatusAbortedAfterLegAUncompensated
}

// BetTicket is a provider's acknowledgement of a placed bet.
type BetTicket struct {
	BetID    string
	Provider oddsDomain.ProviderID
	PlacedAt time.Time
}

// ExecutionResult records the terminal outcome of executing one opportunity.
// Emitted as a structured record for logging and auditing; all timestamps UTC.
type ExecutionResult struct {
	Opportunity   arbDomain.Opportunity
	LegAStatus    LegStatus
	LegBStatus    LegStatus
	LegATicket    *BetTicket
	LegBTicket    *BetTicket
	OverallStatus OverallStatus
	ErrorDetail   string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// ToLog serializes the result for structured logging.
func (r ExecutionResult) ToLog() map[string]any {
	fields := map[string]any{
		"opportunity_id": r.Opportunity.ID,
		"event_key":      r.Opportunity.EventKey(),
		"leg_a_provider": r.Opportunity.LegA.Provider().String(),
		"leg_b_provider": r.Opportunity.LegB.Provider().String(),
		"leg_a_status":   string(r.LegAStatus),
		"leg_b_status":   string(r.LegBStatus),
		"overall_status": string(r.OverallStatus),
		"profit_pct":     r.Opportunity.ProfitPct.StringFixed(4),
		"total_stake":    r.Opportunity.TotalStake.StringFixed(2),
		"started_at":     r.StartedAt.UTC().Format(time.RFC3339),
		"finished_at":    r.FinishedAt.UTC().Format(time.RFC3339),
	}
	if r.ErrorDetail != "" {
		fields["error"] = r.ErrorDetail
	}
	return fields
}
