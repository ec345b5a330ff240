package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	arbDomain "github.com/mvickers/surebet/business/arbitrage/domain"
	"github.com/mvickers/surebet/business/execution/domain"
	oddsDomain "github.com/mvickers/surebet/business/odds/domain"
	"github.com/mvickers/surebet/internal/apperror"
	"github.com/mvickers/surebet/internal/locker"
	"github.com/mvickers/surebet/internal/logger"
)

type mockPlacer struct {
	mu         sync.Mutex
	placeCalls int
	placeErr   error

	cancelCalls int
	cancelErr   error
}

func (m *mockPlacer) PlaceBet(_ context.Context, leg arbDomain.Leg) (domain.BetTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placeCalls++
	if m.placeErr != nil {
		return domain.BetTicket{}, m.placeErr
	}
	return domain.BetTicket{
		BetID:    "bet-123",
		Provider: leg.Provider(),
		PlacedAt: time.Now().UTC(),
	}, nil
}

func (m *mockPlacer) CancelBet(_ context.Context, _ domain.BetTicket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelCalls++
	return m.cancelErr
}

type mockEscalator struct {
	mu    sync.Mutex
	calls int
	title string
}

func (m *mockEscalator) Escalate(_ context.Context, title, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.title = title
	return nil
}

type mockAudit struct {
	mu      sync.Mutex
	results []domain.ExecutionResult
}

func (m *mockAudit) SaveResult(_ context.Context, r domain.ExecutionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	return nil
}

func testOpportunity(t *testing.T) arbDomain.Opportunity {
	t.Helper()
	mk := func(provider, odds string) oddsDomain.Quote {
		return oddsDomain.Quote{
			Provider:  oddsDomain.ProviderID(provider),
			Sport:     oddsDomain.SportFootball,
			HomeTeam:  "Arsenal",
			AwayTeam:  "Chelsea",
			StartTime: time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC),
			Market:    "moneyline",
			Odds:      decimal.RequireFromString(odds),
			Currency:  "USD",
			FetchedAt: time.Now(),
		}
	}
	a, b := mk("pinnacle", "2.10"), mk("betfair", "2.05")
	eval := arbDomain.Evaluate(a.Odds, b.Odds,
		decimal.RequireFromString("100"),
		decimal.RequireFromString("1000"),
		decimal.RequireFromString("1.0"))
	opp, err := arbDomain.NewOpportunity(a, b, eval)
	if err != nil {
		t.Fatalf("NewOpportunity: %v", err)
	}
	return opp
}

func coordinatorFor(t *testing.T, placerA, placerB *mockPlacer, cancellerA BetCanceller, esc Escalator, audit AuditStore) *Coordinator {
	t.Helper()
	reg := NewRegistry()
	if err := reg.Register("pinnacle", Capability{Placer: placerA, Canceller: cancellerA}); err != nil {
		t.Fatalf("register pinnacle: %v", err)
	}
	if err := reg.Register("betfair", Capability{Placer: placerB}); err != nil {
		t.Fatalf("register betfair: %v", err)
	}
	return NewCoordinator(reg, locker.NewMemory(), nil, esc, audit,
		CoordinatorConfig{LockTTL: time.Minute, LegTimeout: time.Second},
		logger.New(io.Discard, logger.LevelError, "test", nil), nil)
}

func TestCoordinator_BothLegsPlaced(t *testing.T) {
	placerA, placerB := &mockPlacer{}, &mockPlacer{}
	audit := &mockAudit{}
	c := coordinatorFor(t, placerA, placerB, nil, nil, audit)

	result, err := c.Execute(context.Background(), testOpportunity(t))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.OverallStatus != domain.StatusCompleted {
		t.Errorf("OverallStatus = %s, want %s", result.OverallStatus, domain.StatusCompleted)
	}
	if result.LegAStatus != domain.LegPlaced || result.LegBStatus != domain.LegPlaced {
		t.Errorf("leg statuses = %s/%s, want placed/placed", result.LegAStatus, result.LegBStatus)
	}
	if result.LegATicket == nil || result.LegBTicket == nil {
		t.Error("missing bet tickets on a completed execution")
	}
	if len(audit.results) != 1 {
		t.Errorf("audit records = %d, want 1", len(audit.results))
	}
}

func TestCoordinator_LegAFailureSkipsLegB(t *testing.T) {
	placerA := &mockPlacer{placeErr: errors.New("rejected: stake above limit")}
	placerB := &mockPlacer{}
	c := coordinatorFor(t, placerA, placerB, nil, nil, nil)

	result, err := c.Execute(context.Background(), testOpportunity(t))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.OverallStatus != domain.StatusAbortedBeforeLegB {
		t.Errorf("OverallStatus = %s, want %s", result.OverallStatus, domain.StatusAbortedBeforeLegB)
	}
	if placerB.placeCalls != 0 {
		t.Errorf("leg B place calls = %d, want 0 after leg A failed", placerB.placeCalls)
	}
	if result.LegBStatus != domain.LegSkipped {
		t.Errorf("LegBStatus = %s, want %s", result.LegBStatus, domain.LegSkipped)
	}
}

func TestCoordinator_LegBFailureCompensatesOnce(t *testing.T) {
	placerA := &mockPlacer{}
	placerB := &mockPlacer{placeErr: errors.New("rejected: odds changed")}
	c := coordinatorFor(t, placerA, placerB, placerA, nil, nil)

	result, err := c.Execute(context.Background(), testOpportunity(t))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.OverallStatus != domain.StatusAbortedAfterLegACompensated {
		t.Errorf("OverallStatus = %s, want %s", result.OverallStatus, domain.StatusAbortedAfterLegACompensated)
	}
	if placerA.cancelCalls != 1 {
		t.Errorf("cancel calls = %d, want exactly 1", placerA.cancelCalls)
	}
	if result.LegAStatus != domain.LegCancelled {
		t.Errorf("LegAStatus = %s, want %s", result.LegAStatus, domain.LegCancelled)
	}
}

func TestCoordinator_CompensationFailureEscalates(t *testing.T) {
	placerA := &mockPlacer{cancelErr: errors.New("bet already settled")}
	placerB := &mockPlacer{placeErr: errors.New("rejected")}
	esc := &mockEscalator{}
	c := coordinatorFor(t, placerA, placerB, placerA, esc, nil)

	result, err := c.Execute(context.Background(), testOpportunity(t))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.OverallStatus != domain.StatusAbortedAfterLegAUncompensated {
		t.Errorf("OverallStatus = %s, want %s", result.OverallStatus, domain.StatusAbortedAfterLegAUncompensated)
	}
	if placerA.cancelCalls != 1 {
		t.Errorf("cancel calls = %d, want exactly 1 (never retried)", placerA.cancelCalls)
	}
	if esc.calls != 1 {
		t.Errorf("escalations = %d, want 1", esc.calls)
	}
	if !result.OverallStatus.Unhedged() {
		t.Error("uncompensated abort must report as unhedged")
	}
}

func TestCoordinator_NoCancelCapabilityEscalates(t *testing.T) {
	placerA := &mockPlacer{}
	placerB := &mockPlacer{placeErr: errors.New("rejected")}
	esc := &mockEscalator{}
	// No canceller registered for pinnacle.
	c := coordinatorFor(t, placerA, placerB, nil, esc, nil)

	result, err := c.Execute(context.Background(), testOpportunity(t))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.OverallStatus != domain.StatusAbortedAfterLegAUncompensated {
		t.Errorf("OverallStatus = %s, want %s", result.OverallStatus, domain.StatusAbortedAfterLegAUncompensated)
	}
	if placerA.cancelCalls != 0 {
		t.Errorf("cancel calls = %d, want 0 when capability is absent", placerA.cancelCalls)
	}
	if esc.calls != 1 {
		t.Errorf("escalations = %d, want 1", esc.calls)
	}
}

func TestCoordinator_EventClaimBlocksSecondExecution(t *testing.T) {
	placerA, placerB := &mockPlacer{}, &mockPlacer{}
	c := coordinatorFor(t, placerA, placerB, nil, nil, nil)
	opp := testOpportunity(t)

	locks := locker.NewMemory()
	c.locks = locks
	release, err := locks.Acquire(context.Background(), opp.EventKey(), time.Minute)
	if err != nil {
		t.Fatalf("pre-claim: %v", err)
	}
	defer release()

	_, err = c.Execute(context.Background(), opp)
	if apperror.GetCode(err) != apperror.CodeEventLocked {
		t.Fatalf("Execute err = %v, want %s", err, apperror.CodeEventLocked)
	}
	if placerA.placeCalls != 0 {
		t.Errorf("place calls = %d, want 0 while the event is claimed", placerA.placeCalls)
	}
}

func TestRegistry_ValidateDetectsMissingProvider(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("pinnacle", Capability{Placer: &mockPlacer{}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := reg.Validate([]oddsDomain.ProviderID{"pinnacle"}); err != nil {
		t.Errorf("Validate(known) = %v, want nil", err)
	}
	if err := reg.Validate([]oddsDomain.ProviderID{"pinnacle", "draftkings"}); err == nil {
		t.Error("Validate must fail for an unregistered provider")
	}
}
