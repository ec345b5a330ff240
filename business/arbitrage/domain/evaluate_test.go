package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	oddsDomain "github.com/mvickers/surebet/business/odds/domain"
)

var tolerance = decimal.RequireFromString("0.0001")

func oppQuote(provider, odds string) oddsDomain.Quote {
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

func approxEqual(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if got.Sub(want).Abs().GreaterThan(tolerance) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name            string
		oddsA, oddsB    string
		maxTotalStake   string
		platformCap     string
		minProfitPct    string
		wantArbitrage   bool
		wantProfitPct   string
		wantStakeA      string
		wantStakeB      string
		wantTotalStake  string
		wantPotential   string
	}{
		{
			name:           "classic two-way arbitrage",
			oddsA:          "2.10",
			oddsB:          "2.05",
			maxTotalStake:  "100",
			platformCap:    "1000",
			minProfitPct:   "1.0",
			wantArbitrage:  true,
			wantProfitPct:  "3.6005",
			wantStakeA:     "49.3976",
			wantStakeB:     "50.6024",
			wantTotalStake: "100",
			wantPotential:  "3.6005",
		},
		{
			name:          "no arbitrage when probabilities exceed one",
			oddsA:         "1.80",
			oddsB:         "1.90",
			maxTotalStake: "100",
			platformCap:   "1000",
			minProfitPct:  "1.0",
			wantArbitrage: false,
		},
		{
			name:          "margin below threshold",
			oddsA:         "2.10",
			oddsB:         "2.05",
			maxTotalStake: "100",
			platformCap:   "1000",
			minProfitPct:  "5.0",
			wantArbitrage: false,
		},
		{
			name:           "platform cap limits total stake",
			oddsA:          "2.10",
			oddsB:          "2.05",
			maxTotalStake:  "5000",
			platformCap:    "1000",
			minProfitPct:   "1.0",
			wantArbitrage:  true,
			wantProfitPct:  "3.6005",
			wantStakeA:     "493.9759",
			wantStakeB:     "506.0241",
			wantTotalStake: "1000",
			wantPotential:  "36.0046",
		},
		{
			name:          "odds of exactly one are invalid",
			oddsA:         "1.00",
			oddsB:         "2.05",
			maxTotalStake: "100",
			platformCap:   "1000",
			minProfitPct:  "1.0",
			wantArbitrage: false,
		},
		{
			name:          "odds below one are invalid",
			oddsA:         "0.95",
			oddsB:         "25.00",
			maxTotalStake: "100",
			platformCap:   "1000",
			minProfitPct:  "1.0",
			wantArbitrage: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(
				decimal.RequireFromString(tt.oddsA),
				decimal.RequireFromString(tt.oddsB),
				decimal.RequireFromString(tt.maxTotalStake),
				decimal.RequireFromString(tt.platformCap),
				decimal.RequireFromString(tt.minProfitPct),
			)

			if got.Arbitrage != tt.wantArbitrage {
				t.Fatalf("Arbitrage = %v, want %v", got.Arbitrage, tt.wantArbitrage)
			}
			if !tt.wantArbitrage {
				if !got.ProfitPct.IsZero() || !got.StakeA.IsZero() || !got.StakeB.IsZero() {
					t.Errorf("no-arbitrage result must be zero-valued, got %+v", got)
				}
				return
			}

			approxEqual(t, "ProfitPct", got.ProfitPct, decimal.RequireFromString(tt.wantProfitPct))
			approxEqual(t, "StakeA", got.StakeA, decimal.RequireFromString(tt.wantStakeA))
			approxEqual(t, "StakeB", got.StakeB, decimal.RequireFromString(tt.wantStakeB))
			approxEqual(t, "TotalStake", got.TotalStake, decimal.RequireFromString(tt.wantTotalStake))
			approxEqual(t, "PotentialProfit", got.PotentialProfit, decimal.RequireFromString(tt.wantPotential))
		})
	}
}

// The stake split must pay out the same amount whichever outcome lands.
func TestEvaluate_EqualPayoutProperty(t *testing.T) {
	pairs := []struct{ oddsA, oddsB string }{
		{"2.10", "2.05"},
		{"3.50", "1.45"},
		{"11.00", "1.12"},
		{"2.02", "2.02"},
	}
	maxStake := decimal.RequireFromString("500")
	platformCap := decimal.RequireFromString("1000")
	minProfit := decimal.RequireFromString("0.1")

	for _, p := range pairs {
		oddsA := decimal.RequireFromString(p.oddsA)
		oddsB := decimal.RequireFromString(p.oddsB)
		got := Evaluate(oddsA, oddsB, maxStake, platformCap, minProfit)
		if !got.Arbitrage {
			continue
		}

		payoutA := got.StakeA.Mul(oddsA)
		payoutB := got.StakeB.Mul(oddsB)
		approxEqual(t, "payoutA vs payoutB", payoutA, payoutB)
		approxEqual(t, "stake sum", got.StakeA.Add(got.StakeB), got.TotalStake)
	}
}

// The emitted profit amount must always restate the margin: for any
// qualifying pair, PotentialProfit == TotalStake * ProfitPct / 100.
func TestEvaluate_ProfitMatchesMargin(t *testing.T) {
	pairs := []struct{ oddsA, oddsB string }{
		{"2.10", "2.05"},
		{"3.50", "1.45"},
		{"11.00", "1.12"},
		{"2.02", "2.02"},
	}
	maxStake := decimal.RequireFromString("500")
	platformCap := decimal.RequireFromString("1000")
	minProfit := decimal.RequireFromString("0.1")
	hundred := decimal.RequireFromString("100")

	for _, p := range pairs {
		got := Evaluate(
			decimal.RequireFromString(p.oddsA),
			decimal.RequireFromString(p.oddsB),
			maxStake, platformCap, minProfit)
		if !got.Arbitrage {
			continue
		}

		want := got.TotalStake.Mul(got.ProfitPct).Div(hundred)
		approxEqual(t, "PotentialProfit", got.PotentialProfit, want)
		approxEqual(t, "margin restated",
			got.PotentialProfit.Div(got.TotalStake).Mul(hundred), got.ProfitPct)
	}
}

func TestNewOpportunity(t *testing.T) {
	a := oppQuote("pinnacle", "2.10")
	b := oppQuote("betfair", "2.05")
	eval := Evaluate(a.Odds, b.Odds,
		decimal.RequireFromString("100"),
		decimal.RequireFromString("1000"),
		decimal.RequireFromString("1.0"))

	opp, err := NewOpportunity(a, b, eval)
	if err != nil {
		t.Fatalf("NewOpportunity: %v", err)
	}
	if opp.ID == "" {
		t.Error("missing opportunity ID")
	}
	if opp.LegA.Provider() == opp.LegB.Provider() {
		t.Error("legs must reference distinct providers")
	}
	if !opp.ProfitPct.GreaterThan(decimal.Zero) {
		t.Errorf("ProfitPct = %s, want > 0", opp.ProfitPct)
	}

	if _, err := NewOpportunity(a, a, eval); err == nil {
		t.Error("expected error for same provider on both legs")
	}
	if _, err := NewOpportunity(a, b, Evaluation{}); err == nil {
		t.Error("expected error for a non-arbitrage evaluation")
	}
}
