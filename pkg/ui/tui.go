package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	execDomain "github.com/mvickers/surebet/business/execution/domain"
)

const maxErrors = 3

// providerInfo holds a provider's last known fetch health.
type providerInfo struct {
	Healthy  bool
	LastSeen time.Time
}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	keys KeyMap

	opportunities table.Model
	oppCount      int

	executions []string // recent terminal results, newest last
	providers  map[string]*providerInfo

	errors     []ErrorEntry
	lastUpdate time.Time

	width    int
	height   int
	ready    bool
	quitting bool
}

// New creates a new TUI model.
func New() Model {
	columns := []table.Column{
		{Title: "Time", Width: 8},
		{Title: "Event", Width: 34},
		{Title: "Market", Width: 10},
		{Title: "Leg A", Width: 18},
		{Title: "Leg B", Width: 18},
		{Title: "Margin", Width: 8},
		{Title: "Stake", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(12),
		table.WithFocused(true),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.Bold(true).Foreground(ColorPrimary).
		BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(ColorBorder)
	ts.Selected = ts.Selected.Foreground(lipgloss.Color("#FFFFFF")).Background(ColorBorder)
	t.SetStyles(ts)

	return Model{
		keys:          DefaultKeyMap(),
		opportunities: t,
		providers:     make(map[string]*providerInfo),
		executions:    make([]string, 0, 6),
		errors:        make([]ErrorEntry, 0, maxErrors),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd refreshes the view twice a second so relative timestamps stay live.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Clear):
			m.opportunities.SetRows(nil)
			m.oppCount = 0
			m.errors = m.errors[:0]
			return m, nil
		}
		var cmd tea.Cmd
		m.opportunities, cmd = m.opportunities.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case TickMsg:
		return m, tickCmd()

	case OpportunityMsg:
		opp := msg.Opportunity
		q := opp.LegA.Quote
		row := table.Row{
			opp.DetectedAt.Local().Format("15:04:05"),
			fmt.Sprintf("%s vs %s", q.HomeTeam, q.AwayTeam),
			q.Market,
			fmt.Sprintf("%s @ %s", opp.LegA.Provider(), opp.LegA.Quote.Odds.StringFixed(2)),
			fmt.Sprintf("%s @ %s", opp.LegB.Provider(), opp.LegB.Quote.Odds.StringFixed(2)),
			opp.ProfitPct.StringFixed(2) + "%",
			opp.TotalStake.StringFixed(2),
		}
		rows := append(m.opportunities.Rows(), row)
		if len(rows) > 50 {
			rows = rows[len(rows)-50:]
		}
		m.opportunities.SetRows(rows)
		m.oppCount++
		m.lastUpdate = time.Now()

	case ExecutionMsg:
		m.executions = addExecution(m.executions, msg.Result)
		m.lastUpdate = time.Now()

	case ProviderStatusMsg:
		m.providers[msg.Provider] = &providerInfo{Healthy: msg.Healthy, LastSeen: time.Now()}
		m.lastUpdate = time.Now()

	case ErrorMsg:
		m.errors = append(m.errors, ErrorEntry{Message: msg.Error.Error(), Timestamp: time.Now()})
		if len(m.errors) > maxErrors {
			m.errors = m.errors[len(m.errors)-maxErrors:]
		}
	}

	return m, nil
}

func addExecution(feed []string, r execDomain.ExecutionResult) []string {
	line := fmt.Sprintf("[%s] %s  %s",
		r.FinishedAt.Local().Format("15:04:05"),
		strings.ToUpper(string(r.OverallStatus)),
		r.Opportunity.Describe())
	feed = append(feed, line)
	if len(feed) > 6 {
		feed = feed[len(feed)-6:]
	}
	return feed
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}
	if !m.ready {
		return "\n  Loading..."
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" surebet "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	b.WriteString(HeaderStyle.Render(fmt.Sprintf("OPPORTUNITIES (%d)", m.oppCount)))
	b.WriteString("\n")
	b.WriteString(BoxStyle.Render(m.opportunities.View()))
	b.WriteString("\n\n")

	b.WriteString(HeaderStyle.Render("EXECUTIONS"))
	b.WriteString("\n")
	if len(m.executions) == 0 {
		b.WriteString(MutedValue.Render("  No executions yet"))
		b.WriteString("\n")
	}
	for _, line := range m.executions {
		style := MutedValue
		if strings.Contains(line, strings.ToUpper(string(execDomain.StatusCompleted))) {
			style = PositiveValue
		} else if strings.Contains(line, "UNCOMPENSATED") {
			style = NegativeValue
		}
		b.WriteString(style.Render("  " + line))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(m.errors) > 0 {
		b.WriteString(StatusDown.Render("ERRORS"))
		b.WriteString("\n")
		for _, e := range m.errors {
			ago := time.Since(e.Timestamp).Round(time.Second)
			b.WriteString(NegativeValue.Render(fmt.Sprintf("  • %s ", e.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render("q: quit • c: clear • ↑↓: scroll"))
	return b.String()
}

func (m Model) renderStatusBar() string {
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		info := m.providers[name]
		if info.Healthy {
			parts = append(parts, StatusHealthy.Render("● "+name))
		} else {
			parts = append(parts, StatusDown.Render("○ "+name))
		}
	}
	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}
	if len(parts) == 0 {
		return MutedValue.Render("Waiting for first cycle...")
	}
	return strings.Join(parts, "  │  ")
}

// NewProgram wraps the model in a Bubble Tea program with the standard
// options. The caller owns running and quitting it.
func NewProgram() *tea.Program {
	return tea.NewProgram(New(), tea.WithAltScreen())
}
