package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	arbDomain "github.com/mvickers/surebet/business/arbitrage/domain"
	"github.com/mvickers/surebet/business/execution/domain"
	"github.com/mvickers/surebet/internal/apperror"
	"github.com/mvickers/surebet/internal/locker"
	"github.com/mvickers/surebet/internal/logger"
	"github.com/mvickers/surebet/internal/metrics"
)

// CoordinatorConfig holds execution parameters.
type CoordinatorConfig struct {
	// LockTTL bounds the exclusive event claim. Must exceed the worst-case
	// duration of both legs plus one compensation attempt.
	LockTTL time.Duration

	// LegTimeout bounds each provider call.
	LegTimeout time.Duration
}

// Coordinator executes opportunities as a strictly sequential two-leg state
// machine. Leg B is never attempted before leg A's outcome is known; a leg-B
// failure triggers exactly one compensation attempt on leg A.
type Coordinator struct {
	registry    *Registry
	locks       locker.Locker
	revalidator Revalidator // nil accepts the detection-to-execution staleness risk
	escalator   Escalator
	audit       AuditStore // nil disables persistence
	observer    ResultObserver
	config      CoordinatorConfig
	log         logger.LoggerInterface
	inst        *metrics.Instruments
}

// SetResultObserver registers an observer for terminal results. Call before
// the first Execute.
func (c *Coordinator) SetResultObserver(o ResultObserver) { c.observer = o }

// NewCoordinator creates a Coordinator.
func NewCoordinator(
	registry *Registry,
	locks locker.Locker,
	revalidator Revalidator,
	escalator Escalator,
	audit AuditStore,
	config CoordinatorConfig,
	log logger.LoggerInterface,
	inst *metrics.Instruments,
) *Coordinator {
	return &Coordinator{
		registry:    registry,
		locks:       locks,
		revalidator: revalidator,
		escalator:   escalator,
		audit:       audit,
		config:      config,
		log:         log,
		inst:        inst,
	}
}

// Execute runs one opportunity to a terminal state. The error return covers
// pre-placement conditions only (event already claimed, unknown provider,
// failed revalidation); once leg A has been attempted the outcome is always
// an ExecutionResult, however the legs fared.
func (c *Coordinator) Execute(ctx context.Context, opp arbDomain.Opportunity) (domain.ExecutionResult, error) {
	capA, okA := c.registry.Lookup(opp.LegA.Provider())
	capB, okB := c.registry.Lookup(opp.LegB.Provider())
	if !okA || !okB {
		// Validate at startup should make this unreachable.
		return domain.ExecutionResult{}, apperror.New(apperror.CodeUnknownProvider,
			apperror.WithContext(opp.Describe()))
	}

	release, err := c.locks.Acquire(ctx, opp.EventKey(), c.config.LockTTL)
	if err != nil {
		if errors.Is(err, locker.ErrHeld) {
			c.log.Debug(ctx, "event already claimed, skipping",
				"opportunity_id", opp.ID, "event_key", opp.EventKey())
			return domain.ExecutionResult{}, apperror.New(apperror.CodeEventLocked,
				apperror.WithContext(opp.EventKey()))
		}
		return domain.ExecutionResult{}, err
	}
	defer release()

	if c.revalidator != nil {
		ok, err := c.revalidator.StillProfitable(ctx, opp)
		if err != nil {
			return domain.ExecutionResult{}, apperror.Wrap(err, apperror.CodeQuoteStale, opp.ID)
		}
		if !ok {
			c.log.Info(ctx, "odds moved since detection, skipping",
				"opportunity_id", opp.ID, "event", opp.Describe())
			return domain.ExecutionResult{}, apperror.New(apperror.CodeOddsMoved,
				apperror.WithContext(opp.ID))
		}
	}

	result := c.placeLegs(ctx, opp, capA, capB)

	c.inst.RecordExecution(ctx, string(result.OverallStatus))
	c.log.Info(ctx, "execution finished", "result", result.ToLog())
	if c.observer != nil {
		c.observer.ObserveResult(result)
	}

	if c.audit != nil {
		if err := c.audit.SaveResult(ctx, result); err != nil {
			c.log.Error(ctx, "audit write failed",
				"opportunity_id", opp.ID, "error", err.Error())
		}
	}
	return result, nil
}

// placeLegs runs the two placements and, when needed, the single compensation
// attempt. It always returns a terminal result.
func (c *Coordinator) placeLegs(ctx context.Context, opp arbDomain.Opportunity, capA, capB Capability) domain.ExecutionResult {
	result := domain.ExecutionResult{
		Opportunity: opp,
		LegAStatus:  domain.LegPending,
		LegBStatus:  domain.LegPending,
		StartedAt:   time.Now().UTC(),
	}

	ticketA, err := c.placeLeg(ctx, capA.Placer, opp.LegA)
	if err != nil {
		result.LegAStatus = domain.LegFailed
		result.LegBStatus = domain.LegSkipped
		result.OverallStatus = domain.StatusAbortedBeforeLegB
		result.ErrorDetail = err.Error()
		result.FinishedAt = time.Now().UTC()
		return result
	}
	result.LegAStatus = domain.LegPlaced
	result.LegATicket = &ticketA

	// Leg B placement runs on a context detached from cancellation: once leg A
	// is on the books, abandoning an in-flight leg B would leave its outcome
	// unknown while the provider may still have accepted the bet.
	ticketB, err := c.placeLeg(context.WithoutCancel(ctx), capB.Placer, opp.LegB)
	if err == nil {
		result.LegBStatus = domain.LegPlaced
		result.LegBTicket = &ticketB
		result.OverallStatus = domain.StatusCompleted
		result.FinishedAt = time.Now().UTC()
		return result
	}

	result.LegBStatus = domain.LegFailed
	result.ErrorDetail = err.Error()
	c.log.Warn(ctx, "leg B failed, holding unhedged leg A",
		"opportunity_id", opp.ID,
		"leg_a_bet_id", ticketA.BetID,
		"error", err.Error())

	c.compensate(ctx, opp, capA, ticketA, &result)
	result.FinishedAt = time.Now().UTC()
	return result
}

func (c *Coordinator) placeLeg(ctx context.Context, placer BetPlacer, leg arbDomain.Leg) (domain.BetTicket, error) {
	legCtx, cancel := context.WithTimeout(ctx, c.config.LegTimeout)
	defer cancel()
	return placer.PlaceBet(legCtx, leg)
}

// compensate makes exactly one attempt to cancel the placed leg-A bet. A
// failed or unavailable cancellation is escalated to the operator channel and
// never retried automatically.
func (c *Coordinator) compensate(ctx context.Context, opp arbDomain.Opportunity, capA Capability, ticketA domain.BetTicket, result *domain.ExecutionResult) {
	if !capA.CanCancel() {
		result.OverallStatus = domain.StatusAbortedAfterLegAUncompensated
		c.escalateUnhedged(ctx, opp, ticketA,
			fmt.Sprintf("provider %s does not support cancellation", ticketA.Provider))
		return
	}

	cancelCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.LegTimeout)
	defer cancel()

	if err := capA.Canceller.CancelBet(cancelCtx, ticketA); err != nil {
		result.LegAStatus = domain.LegCancelFailed
		result.OverallStatus = domain.StatusAbortedAfterLegAUncompensated
		c.escalateUnhedged(ctx, opp, ticketA, err.Error())
		return
	}

	result.LegAStatus = domain.LegCancelled
	result.OverallStatus = domain.StatusAbortedAfterLegACompensated
	c.log.Info(ctx, "leg A compensated",
		"opportunity_id", opp.ID, "leg_a_bet_id", ticketA.BetID)
}

func (c *Coordinator) escalateUnhedged(ctx context.Context, opp arbDomain.Opportunity, ticketA domain.BetTicket, detail string) {
	appErr := apperror.Critical(apperror.CodeCompensationFailed, opp.ID, fmt.Errorf("%s", detail))
	c.inst.RecordCompensationFailure(ctx, ticketA.Provider.String())
	c.log.Error(ctx, "unhedged position open, operator intervention required",
		"error", appErr.ToLog(),
		"opportunity_id", opp.ID,
		"provider", ticketA.Provider.String(),
		"bet_id", ticketA.BetID,
		"stake", opp.LegA.Stake.StringFixed(2))

	if c.escalator == nil {
		return
	}
	msg := fmt.Sprintf("Unhedged bet %s at %s, stake %s\n%s\n%s",
		ticketA.BetID, ticketA.Provider, opp.LegA.Stake.StringFixed(2), opp.Describe(), detail)
	if err := c.escalator.Escalate(context.WithoutCancel(ctx), "COMPENSATION FAILED", msg); err != nil {
		c.log.Error(ctx, "operator escalation failed", "error", err.Error())
	}
}
