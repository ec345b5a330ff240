package ui

import (
	arbDomain "github.com/mvickers/surebet/business/arbitrage/domain"
	execDomain "github.com/mvickers/surebet/business/execution/domain"
)

// Message types for TUI updates

// OpportunityMsg is sent when an arbitrage opportunity is detected.
type OpportunityMsg struct {
	Opportunity arbDomain.Opportunity
}

// ExecutionMsg is sent when an execution reaches a terminal state.
type ExecutionMsg struct {
	Result execDomain.ExecutionResult
}

// ProviderStatusMsg is sent when a provider's fetch health changes.
type ProviderStatusMsg struct {
	Provider string
	Healthy  bool
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}
