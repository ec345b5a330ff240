package main

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	arbitrageDomain "github.com/mvickers/surebet/business/arbitrage/domain"
	executionDomain "github.com/mvickers/surebet/business/execution/domain"
	oddsDomain "github.com/mvickers/surebet/business/odds/domain"
	"github.com/mvickers/surebet/internal/logger"
	"github.com/mvickers/surebet/internal/notify"
)

// blockingSender holds every Send until released.
type blockingSender struct {
	release chan struct{}
}

func (s *blockingSender) Send(ctx context.Context, _, _ string) error {
	select {
	case <-s.release:
	case <-ctx.Done():
	}
	return nil
}

func (s *blockingSender) Name() string { return "blocking" }

type sinkReporter struct {
	mu      sync.Mutex
	reports int
	results int
}

func (s *sinkReporter) Start(context.Context) error { return nil }
func (s *sinkReporter) Stop() error                 { return nil }

func (s *sinkReporter) Report(arbitrageDomain.Opportunity) {
	s.mu.Lock()
	s.reports++
	s.mu.Unlock()
}

func (s *sinkReporter) UpdateProviderStatus(oddsDomain.ProviderID, bool) {}

func (s *sinkReporter) ObserveResult(executionDomain.ExecutionResult) {
	s.mu.Lock()
	s.results++
	s.mu.Unlock()
}

func notifyTestOpportunity() arbitrageDomain.Opportunity {
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
	return arbitrageDomain.Opportunity{
		ID:              "opp-1",
		LegA:            arbitrageDomain.Leg{Quote: mk("pinnacle", "2.10"), Stake: decimal.RequireFromString("49.40")},
		LegB:            arbitrageDomain.Leg{Quote: mk("betfair", "2.05"), Stake: decimal.RequireFromString("50.60")},
		ProfitPct:       decimal.RequireFromString("3.60"),
		TotalStake:      decimal.RequireFromString("100"),
		PotentialProfit: decimal.RequireFromString("3.60"),
		DetectedAt:      time.Now().UTC(),
	}
}

// A stalled notification channel must never block the detection cycle or an
// execution worker; delivery happens off the caller's goroutine.
func TestNotifyingReporter_DeliveryOffCallerGoroutine(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	sender := &blockingSender{release: release}
	notifier := notify.New([]notify.Sender{sender}, nil,
		logger.New(io.Discard, logger.LevelError, "test", nil))
	sink := &sinkReporter{}
	r := &notifyingReporter{reporter: sink, observer: sink, notifier: notifier}

	opp := notifyTestOpportunity()
	done := make(chan struct{})
	go func() {
		r.Report(opp)
		r.ObserveResult(executionDomain.ExecutionResult{
			Opportunity:   opp,
			OverallStatus: executionDomain.StatusCompleted,
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reporter blocked on notification delivery")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.reports != 1 || sink.results != 1 {
		t.Errorf("forwarded reports/results = %d/%d, want 1/1", sink.reports, sink.results)
	}
}
