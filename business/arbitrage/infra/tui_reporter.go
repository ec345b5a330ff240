package infra

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mvickers/surebet/business/arbitrage/domain"
	execDomain "github.com/mvickers/surebet/business/execution/domain"
	oddsDomain "github.com/mvickers/surebet/business/odds/domain"
	"github.com/mvickers/surebet/pkg/ui"
)

// TUIReporter implements Reporter on top of the Bubble Tea dashboard.
type TUIReporter struct {
	program *tea.Program
	done    chan struct{}
}

// NewTUIReporter creates a new TUIReporter.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{done: make(chan struct{})}
}

// Start launches the Bubble Tea program in the background.
func (r *TUIReporter) Start(ctx context.Context) error {
	r.program = ui.NewProgram()
	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// Done is closed when the user quits the dashboard.
func (r *TUIReporter) Done() <-chan struct{} { return r.done }

// Report sends a detected opportunity to the dashboard.
func (r *TUIReporter) Report(opp domain.Opportunity) {
	r.program.Send(ui.OpportunityMsg{Opportunity: opp})
}

// UpdateProviderStatus sends provider health to the dashboard.
func (r *TUIReporter) UpdateProviderStatus(provider oddsDomain.ProviderID, healthy bool) {
	r.program.Send(ui.ProviderStatusMsg{Provider: provider.String(), Healthy: healthy})
}

// ObserveResult sends a terminal execution result to the dashboard.
func (r *TUIReporter) ObserveResult(result execDomain.ExecutionResult) {
	r.program.Send(ui.ExecutionMsg{Result: result})
}

// Stop quits the Bubble Tea program.
func (r *TUIReporter) Stop() error {
	if r.program != nil {
		r.program.Quit()
		<-r.done
	}
	return nil
}
