// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mvickers/surebet/business/arbitrage/domain"
	execDomain "github.com/mvickers/surebet/business/execution/domain"
	oddsDomain "github.com/mvickers/surebet/business/odds/domain"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "Surebet Engine Started")
	fmt.Fprintln(r.out, "======================")
	return nil
}

// Report outputs a detected opportunity to the console.
func (r *ConsoleReporter) Report(opp domain.Opportunity) {
	qa, qb := opp.LegA.Quote, opp.LegB.Quote

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintln(r.out, "ARBITRAGE OPPORTUNITY DETECTED")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "Detected:       %s\n", opp.DetectedAt.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Event:          %s vs %s (%s)\n", qa.HomeTeam, qa.AwayTeam, qa.Sport)
	fmt.Fprintf(r.out, "Kickoff:        %s\n", qa.StartTime.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Market:         %s\n", qa.Market)
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "LEGS")
	fmt.Fprintf(r.out, "  A: %-12s odds %s  stake %s\n", qa.Provider, qa.Odds.StringFixed(2), opp.LegA.Stake.StringFixed(2))
	fmt.Fprintf(r.out, "  B: %-12s odds %s  stake %s\n", qb.Provider, qb.Odds.StringFixed(2), opp.LegB.Stake.StringFixed(2))
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "PROFIT")
	fmt.Fprintf(r.out, "  Margin:         %s%%\n", opp.ProfitPct.StringFixed(2))
	fmt.Fprintf(r.out, "  Total Stake:    %s\n", opp.TotalStake.StringFixed(2))
	fmt.Fprintf(r.out, "  Guaranteed:     %s\n", opp.PotentialProfit.StringFixed(2))
	fmt.Fprintln(r.out, "================================================================================")
}

// UpdateProviderStatus outputs provider health changes.
func (r *ConsoleReporter) UpdateProviderStatus(provider oddsDomain.ProviderID, healthy bool) {
	status := "unreachable"
	if healthy {
		status = "healthy"
	}
	fmt.Fprintf(r.out, "[%s] %s: %s\n", time.Now().Format("15:04:05"), provider, status)
}

// ObserveResult outputs a terminal execution result.
func (r *ConsoleReporter) ObserveResult(result execDomain.ExecutionResult) {
	fmt.Fprintf(r.out, "[%s] execution %s: %s\n",
		result.FinishedAt.Local().Format("15:04:05"),
		result.OverallStatus,
		result.Opportunity.Describe())
	if result.ErrorDetail != "" {
		fmt.Fprintf(r.out, "    detail: %s\n", result.ErrorDetail)
	}
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Surebet Engine Stopped")
	return nil
}
