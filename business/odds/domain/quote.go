// Package domain contains the core domain types for the odds context.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProviderID identifies a bookmaker or exchange. The set of providers is
// configuration, not code; nothing in the engine enumerates concrete IDs.
type ProviderID string

func (p ProviderID) String() string { return string(p) }

// Sport identifies a sport category as used in provider APIs.
type Sport string

const (
	SportFootball   Sport = "football"
	SportTennis     Sport = "tennis"
	SportBasketball Sport = "basketball"
)

// Quote is a single priced outcome observed at a provider. Quotes are
// immutable once fetched; a newer poll supersedes them wholesale.
type Quote struct {
	Provider  ProviderID
	Sport     Sport
	HomeTeam  string
	AwayTeam  string
	StartTime time.Time
	Market    string
	Odds      decimal.Decimal
	Currency  string
	FetchedAt time.Time
}

// Valid reports whether the quote carries enough well-formed data to take part
// in matching. Invalid quotes are dropped, never fatal.
func (q Quote) Valid() bool {
	if strings.TrimSpace(q.HomeTeam) == "" || strings.TrimSpace(q.AwayTeam) == "" {
		return false
	}
	if q.StartTime.IsZero() {
		return false
	}
	if strings.TrimSpace(q.Market) == "" {
		return false
	}
	return q.Odds.GreaterThan(decimal.NewFromInt(1))
}

// EventKey returns a normalized identity string for the quote's event and
// market, used as the exclusive-claim key during execution. Start time is
// reduced to the UTC date so small clock skew between providers cannot split
// the key; a coarser key only serializes more, it never double-exposes.
func (q Quote) EventKey() string {
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(string(q.Sport))),
		normalizeTeam(q.HomeTeam),
		normalizeTeam(q.AwayTeam),
		q.StartTime.UTC().Format("2006-01-02"),
		CanonicalMarket(q.Market),
	}, "|")
}
