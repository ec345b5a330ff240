package domain

import (
	"strings"
	"time"
)

// startTimeTolerance absorbs provider clock and rounding skew when deciding
// whether two quotes describe the same fixture.
const startTimeTolerance = 5 * time.Minute

// SameEvent reports whether two quotes describe the same fixture: same sport,
// same normalized participants, and start times within tolerance. It is pure,
// symmetric, and provider-agnostic; malformed quotes compare as false.
func SameEvent(a, b Quote) bool {
	if !a.Valid() || !b.Valid() {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(string(a.Sport)), strings.TrimSpace(string(b.Sport))) {
		return false
	}
	if normalizeTeam(a.HomeTeam) != normalizeTeam(b.HomeTeam) {
		return false
	}
	if normalizeTeam(a.AwayTeam) != normalizeTeam(b.AwayTeam) {
		return false
	}
	diff := a.StartTime.Sub(b.StartTime)
	if diff < 0 {
		diff = -diff
	}
	return diff <= startTimeTolerance
}

// SameMarket reports whether two quotes price the same market, comparing
// canonical tags rather than provider-specific strings.
func SameMarket(a, b Quote) bool {
	if !a.Valid() || !b.Valid() {
		return false
	}
	return CanonicalMarket(a.Market) == CanonicalMarket(b.Market)
}

// marketAliases maps provider market names onto one canonical tag per market.
var marketAliases = map[string]string{
	"moneyline":      "moneyline",
	"money line":     "moneyline",
	"match winner":   "moneyline",
	"match_winner":   "moneyline",
	"matchwinner":    "moneyline",
	"winner":         "moneyline",
	"1x2":            "moneyline",
	"h2h":            "moneyline",
	"head to head":   "moneyline",
	"totals":         "totals",
	"total":          "totals",
	"over/under":     "totals",
	"over under":     "totals",
	"spread":         "spread",
	"spreads":        "spread",
	"handicap":       "spread",
	"point spread":   "spread",
	"asian handicap": "spread",
}

// CanonicalMarket maps a provider market name to its canonical tag. Unknown
// markets normalize to their lowercased trimmed form, so identical strings
// from different providers still pair up.
func CanonicalMarket(market string) string {
	m := strings.ToLower(strings.TrimSpace(market))
	m = strings.Join(strings.Fields(m), " ")
	if tag, ok := marketAliases[m]; ok {
		return tag
	}
	return m
}

// teamPrefixes are stripped before comparison so "FC Barcelona" at one
// provider pairs with "Barcelona" at another. Longer dotted forms come first.
var teamPrefixes = []string{
	"f.c. ", "fc ", "a.f.c. ", "afc ", "c.f. ", "cf ",
	"s.c. ", "sc ", "a.c. ", "ac ", "a.s. ", "as ",
	"r.c. ", "rc ", "s.s.c. ", "ssc ", "b.c. ", "bc ",
}

// normalizeTeam lowercases, trims, strips a known club prefix, and collapses
// internal whitespace.
func normalizeTeam(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return ""
	}
	for _, p := range teamPrefixes {
		if strings.HasPrefix(s, p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
