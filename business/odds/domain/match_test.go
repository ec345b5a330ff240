package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var kickoff = time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)

func quote(provider, home, away, market string, start time.Time) Quote {
	return Quote{
		Provider:  ProviderID(provider),
		Sport:     SportFootball,
		HomeTeam:  home,
		AwayTeam:  away,
		StartTime: start,
		Market:    market,
		Odds:      decimal.RequireFromString("2.10"),
		Currency:  "USD",
		FetchedAt: start.Add(-2 * time.Hour),
	}
}

func TestSameEvent(t *testing.T) {
	tests := []struct {
		name string
		a, b Quote
		want bool
	}{
		{
			name: "identical fixtures",
			a:    quote("pinnacle", "Arsenal", "Chelsea", "moneyline", kickoff),
			b:    quote("betfair", "Arsenal", "Chelsea", "moneyline", kickoff),
			want: true,
		},
		{
			name: "case and whitespace differences",
			a:    quote("pinnacle", "arsenal", "  chelsea ", "moneyline", kickoff),
			b:    quote("betfair", "ARSENAL", "Chelsea", "moneyline", kickoff),
			want: true,
		},
		{
			name: "club prefix stripped",
			a:    quote("pinnacle", "FC Barcelona", "Real Madrid", "moneyline", kickoff),
			b:    quote("betfair", "Barcelona", "Real Madrid", "moneyline", kickoff),
			want: true,
		},
		{
			name: "start times within tolerance",
			a:    quote("pinnacle", "Arsenal", "Chelsea", "moneyline", kickoff),
			b:    quote("betfair", "Arsenal", "Chelsea", "moneyline", kickoff.Add(5*time.Minute)),
			want: true,
		},
		{
			name: "start times beyond tolerance",
			a:    quote("pinnacle", "Arsenal", "Chelsea", "moneyline", kickoff),
			b:    quote("betfair", "Arsenal", "Chelsea", "moneyline", kickoff.Add(6*time.Minute)),
			want: false,
		},
		{
			name: "different participants",
			a:    quote("pinnacle", "Arsenal", "Chelsea", "moneyline", kickoff),
			b:    quote("betfair", "Arsenal", "Tottenham", "moneyline", kickoff),
			want: false,
		},
		{
			name: "home and away swapped",
			a:    quote("pinnacle", "Arsenal", "Chelsea", "moneyline", kickoff),
			b:    quote("betfair", "Chelsea", "Arsenal", "moneyline", kickoff),
			want: false,
		},
		{
			name: "different sports",
			a:    quote("pinnacle", "Arsenal", "Chelsea", "moneyline", kickoff),
			b: func() Quote {
				q := quote("betfair", "Arsenal", "Chelsea", "moneyline", kickoff)
				q.Sport = SportBasketball
				return q
			}(),
			want: false,
		},
		{
			name: "missing team name",
			a:    quote("pinnacle", "", "Chelsea", "moneyline", kickoff),
			b:    quote("betfair", "Arsenal", "Chelsea", "moneyline", kickoff),
			want: false,
		},
		{
			name: "zero start time",
			a:    quote("pinnacle", "Arsenal", "Chelsea", "moneyline", time.Time{}),
			b:    quote("betfair", "Arsenal", "Chelsea", "moneyline", kickoff),
			want: false,
		},
		{
			name: "odds at or below one",
			a: func() Quote {
				q := quote("pinnacle", "Arsenal", "Chelsea", "moneyline", kickoff)
				q.Odds = decimal.RequireFromString("1.00")
				return q
			}(),
			b:    quote("betfair", "Arsenal", "Chelsea", "moneyline", kickoff),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameEvent(tt.a, tt.b); got != tt.want {
				t.Errorf("SameEvent() = %v, want %v", got, tt.want)
			}
			// Symmetry must hold for every input.
			if got := SameEvent(tt.b, tt.a); got != tt.want {
				t.Errorf("SameEvent() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSameMarket(t *testing.T) {
	tests := []struct {
		name string
		a, b Quote
		want bool
	}{
		{
			name: "identical market names",
			a:    quote("pinnacle", "Arsenal", "Chelsea", "moneyline", kickoff),
			b:    quote("betfair", "Arsenal", "Chelsea", "moneyline", kickoff),
			want: true,
		},
		{
			name: "aliases map to one tag",
			a:    quote("pinnacle", "Arsenal", "Chelsea", "Match Winner", kickoff),
			b:    quote("betfair", "Arsenal", "Chelsea", "h2h", kickoff),
			want: true,
		},
		{
			name: "1x2 is moneyline",
			a:    quote("pinnacle", "Arsenal", "Chelsea", "1X2", kickoff),
			b:    quote("betfair", "Arsenal", "Chelsea", "moneyline", kickoff),
			want: true,
		},
		{
			name: "unknown but identical strings",
			a:    quote("pinnacle", "Arsenal", "Chelsea", "First Goalscorer", kickoff),
			b:    quote("betfair", "Arsenal", "Chelsea", "first goalscorer", kickoff),
			want: true,
		},
		{
			name: "different markets",
			a:    quote("pinnacle", "Arsenal", "Chelsea", "moneyline", kickoff),
			b:    quote("betfair", "Arsenal", "Chelsea", "totals", kickoff),
			want: false,
		},
		{
			name: "malformed quote",
			a:    quote("pinnacle", "Arsenal", "Chelsea", "", kickoff),
			b:    quote("betfair", "Arsenal", "Chelsea", "moneyline", kickoff),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameMarket(tt.a, tt.b); got != tt.want {
				t.Errorf("SameMarket() = %v, want %v", got, tt.want)
			}
			if got := SameMarket(tt.b, tt.a); got != tt.want {
				t.Errorf("SameMarket() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanonicalMarket(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Moneyline", "moneyline"},
		{"  match winner ", "moneyline"},
		{"Over/Under", "totals"},
		{"Asian Handicap", "spread"},
		{"Correct Score", "correct score"},
	}
	for _, tt := range tests {
		if got := CanonicalMarket(tt.in); got != tt.want {
			t.Errorf("CanonicalMarket(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuoteEventKey(t *testing.T) {
	a := quote("pinnacle", "FC Barcelona", "Real Madrid", "Match Winner", kickoff)
	b := quote("betfair", "barcelona", "REAL MADRID", "1x2", kickoff.Add(3*time.Minute))
	if a.EventKey() != b.EventKey() {
		t.Errorf("EventKey mismatch for same fixture: %q vs %q", a.EventKey(), b.EventKey())
	}

	c := quote("betfair", "Barcelona", "Real Madrid", "totals", kickoff)
	if a.EventKey() == c.EventKey() {
		t.Errorf("EventKey collision across markets: %q", a.EventKey())
	}
}
