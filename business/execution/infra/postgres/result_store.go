package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvickers/surebet/business/execution/domain"
)

// ResultStore persists execution results.
type ResultStore struct {
	pool *pgxpool.Pool
}

// NewResultStore creates a ResultStore backed by the given connection pool.
func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// SaveResult inserts one terminal execution record. Executions are
// insert-only; a conflicting opportunity ID means a duplicate submit and the
// original record wins.
func (s *ResultStore) SaveResult(ctx context.Context, r domain.ExecutionResult) error {
	const query = `
		INSERT INTO executions (
			opportunity_id, event_key, sport, home_team, away_team, market,
			leg_a_provider, leg_a_odds, leg_a_stake, leg_a_status, leg_a_bet_id,
			leg_b_provider, leg_b_odds, leg_b_stake, leg_b_status, leg_b_bet_id,
			profit_pct, total_stake, potential_profit,
			overall_status, error_detail, detected_at, started_at, finished_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16,
			$17, $18, $19,
			$20, $21, $22, $23, $24
		)
		ON CONFLICT (opportunity_id) DO NOTHING`

	opp := r.Opportunity
	qa, qb := opp.LegA.Quote, opp.LegB.Quote

	var betA, betB *string
	if r.LegATicket != nil {
		betA = &r.LegATicket.BetID
	}
	if r.LegBTicket != nil {
		betB = &r.LegBTicket.BetID
	}

	_, err := s.pool.Exec(ctx, query,
		opp.ID, opp.EventKey(), string(qa.Sport), qa.HomeTeam, qa.AwayTeam, qa.Market,
		qa.Provider.String(), qa.Odds, opp.LegA.Stake, string(r.LegAStatus), betA,
		qb.Provider.String(), qb.Odds, opp.LegB.Stake, string(r.LegBStatus), betB,
		opp.ProfitPct, opp.TotalStake, opp.PotentialProfit,
		string(r.OverallStatus), nullable(r.ErrorDetail), opp.DetectedAt, r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save execution %s: %w", opp.ID, err)
	}
	return nil
}

// CountByStatus returns how many executions ended in each terminal state.
func (s *ResultStore) CountByStatus(ctx context.Context) (map[domain.OverallStatus]int64, error) {
	const query = `SELECT overall_status, COUNT(*) FROM executions GROUP BY overall_status`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: count executions: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.OverallStatus]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("postgres: scan execution count: %w", err)
		}
		counts[domain.OverallStatus(status)] = n
	}
	return counts, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
