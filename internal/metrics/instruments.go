package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "surebet"

// Instruments bundles the counters the detection and execution paths record.
// A zero-value *Instruments is safe to use and records nothing, so callers
// never need nil checks when telemetry is disabled.
type Instruments struct {
	quotesFetched        metric.Int64Counter
	fetchFailures        metric.Int64Counter
	opportunities        metric.Int64Counter
	executions           metric.Int64Counter
	compensationFailures metric.Int64Counter
}

// NewInstruments registers the application instrument set on the global meter.
func NewInstruments() (*Instruments, error) {
	meter := otel.Meter(meterName)
	var inst Instruments
	var err error

	if inst.quotesFetched, err = meter.Int64Counter("surebet_quotes_fetched_total",
		metric.WithDescription("Quotes fetched per provider")); err != nil {
		return nil, err
	}
	if inst.fetchFailures, err = meter.Int64Counter("surebet_fetch_failures_total",
		metric.WithDescription("Provider fetch failures per cycle")); err != nil {
		return nil, err
	}
	if inst.opportunities, err = meter.Int64Counter("surebet_opportunities_detected_total",
		metric.WithDescription("Arbitrage opportunities detected")); err != nil {
		return nil, err
	}
	if inst.executions, err = meter.Int64Counter("surebet_executions_total",
		metric.WithDescription("Opportunity executions by terminal status")); err != nil {
		return nil, err
	}
	if inst.compensationFailures, err = meter.Int64Counter("surebet_compensation_failures_total",
		metric.WithDescription("Executions that left an unhedged position")); err != nil {
		return nil, err
	}
	return &inst, nil
}

// RecordQuotesFetched counts quotes received from one provider.
func (i *Instruments) RecordQuotesFetched(ctx context.Context, provider string, n int) {
	if i == nil || i.quotesFetched == nil {
		return
	}
	i.quotesFetched.Add(ctx, int64(n), metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordFetchFailure counts one provider failing a fetch cycle.
func (i *Instruments) RecordFetchFailure(ctx context.Context, provider string) {
	if i == nil || i.fetchFailures == nil {
		return
	}
	i.fetchFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordOpportunity counts one detected opportunity for a sport.
func (i *Instruments) RecordOpportunity(ctx context.Context, sport string) {
	if i == nil || i.opportunities == nil {
		return
	}
	i.opportunities.Add(ctx, 1, metric.WithAttributes(attribute.String("sport", sport)))
}

// RecordExecution counts one execution reaching the given terminal status.
func (i *Instruments) RecordExecution(ctx context.Context, status string) {
	if i == nil || i.executions == nil {
		return
	}
	i.executions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordCompensationFailure counts one unhedged outcome.
func (i *Instruments) RecordCompensationFailure(ctx context.Context, provider string) {
	if i == nil || i.compensationFailures == nil {
		return
	}
	i.compensationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}
