package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mvickers/surebet/business/odds/domain"
	"github.com/mvickers/surebet/internal/apperror"
	"github.com/mvickers/surebet/internal/logger"
)

type stubFetcher struct {
	id     domain.ProviderID
	quotes []domain.Quote
	err    error
	calls  int
}

func (f *stubFetcher) Provider() domain.ProviderID { return f.id }

func (f *stubFetcher) FetchQuotes(_ context.Context, _ domain.Sport) ([]domain.Quote, error) {
	f.calls++
	return f.quotes, f.err
}

func testQuote(provider string, odds string) domain.Quote {
	return domain.Quote{
		Provider:  domain.ProviderID(provider),
		Sport:     domain.SportFootball,
		HomeTeam:  "Arsenal",
		AwayTeam:  "Chelsea",
		StartTime: time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC),
		Market:    "moneyline",
		Odds:      decimal.RequireFromString(odds),
		Currency:  "USD",
		FetchedAt: time.Now(),
	}
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func TestQuoteService_FetchAll_IsolatesFailedProvider(t *testing.T) {
	good := &stubFetcher{id: "pinnacle", quotes: []domain.Quote{testQuote("pinnacle", "2.10")}}
	bad := &stubFetcher{id: "betfair", err: errors.New("connection refused")}

	svc := NewQuoteService([]QuoteFetcher{good, bad}, time.Second, testLogger(), nil)

	result, err := svc.FetchAll(context.Background(), domain.SportFootball)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	if got := len(result.QuotesByProvider["pinnacle"]); got != 1 {
		t.Errorf("pinnacle quotes = %d, want 1", got)
	}
	if _, ok := result.QuotesByProvider["betfair"]; ok {
		t.Error("failed provider must be absent from QuotesByProvider")
	}

	failure, ok := result.Failures["betfair"]
	if !ok {
		t.Fatal("expected a recorded failure for betfair")
	}
	if code := apperror.GetCode(failure); code != apperror.CodeFetchFailed {
		t.Errorf("failure code = %s, want %s", code, apperror.CodeFetchFailed)
	}
}

func TestQuoteService_FetchAll_DropsMalformedQuotes(t *testing.T) {
	malformed := testQuote("pinnacle", "2.10")
	malformed.HomeTeam = ""

	f := &stubFetcher{id: "pinnacle", quotes: []domain.Quote{
		testQuote("pinnacle", "2.10"),
		malformed,
		testQuote("pinnacle", "1.95"),
	}}

	svc := NewQuoteService([]QuoteFetcher{f}, time.Second, testLogger(), nil)

	result, err := svc.FetchAll(context.Background(), domain.SportFootball)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if got := len(result.QuotesByProvider["pinnacle"]); got != 2 {
		t.Errorf("quotes after filtering = %d, want 2", got)
	}
	if len(result.Failures) != 0 {
		t.Errorf("malformed quotes must not count as provider failures, got %v", result.Failures)
	}
}

func TestQuoteService_FetchAll_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	bad := &stubFetcher{id: "betfair", err: errors.New("boom")}
	svc := NewQuoteService([]QuoteFetcher{bad}, time.Second, testLogger(), nil)

	for i := 0; i < 10; i++ {
		if _, err := svc.FetchAll(context.Background(), domain.SportFootball); err != nil {
			t.Fatalf("FetchAll: %v", err)
		}
	}

	// Five consecutive failures trip the breaker; later cycles fail fast
	// without reaching the fetcher.
	if bad.calls >= 10 {
		t.Errorf("fetcher calls = %d, want fewer once the breaker opened", bad.calls)
	}
}
