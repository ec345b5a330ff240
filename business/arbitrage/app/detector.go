package app

import (
	"context"
	"time"

	oddsApp "github.com/mvickers/surebet/business/odds/app"
	oddsDomain "github.com/mvickers/surebet/business/odds/domain"
	"github.com/mvickers/surebet/internal/logger"
)

// DetectorConfig holds configuration for the detection loop.
type DetectorConfig struct {
	Sports       []oddsDomain.Sport
	PollInterval time.Duration
	ErrorBackoff time.Duration
}

// Detector runs the polling loop: fetch quotes, scan for opportunities,
// report them, and hand qualifying ones to the executor.
type Detector struct {
	quotes   *oddsApp.QuoteService
	scanner  *Scanner
	reporter Reporter
	executor Executor // nil when auto-execute is disabled
	config   DetectorConfig
	log      logger.LoggerInterface

	done chan struct{}
}

// NewDetector creates a Detector. executor may be nil, in which case
// opportunities are reported but never placed.
func NewDetector(
	quotes *oddsApp.QuoteService,
	scanner *Scanner,
	reporter Reporter,
	executor Executor,
	config DetectorConfig,
	log logger.LoggerInterface,
) *Detector {
	return &Detector{
		quotes:   quotes,
		scanner:  scanner,
		reporter: reporter,
		executor: executor,
		config:   config,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Start begins the detection loop.
func (d *Detector) Start(ctx context.Context) error {
	d.log.Info(ctx, "starting detector",
		"sports", len(d.config.Sports),
		"poll_interval", d.config.PollInterval.String())

	if err := d.reporter.Start(ctx); err != nil {
		return err
	}

	go d.run(ctx)
	return nil
}

func (d *Detector) run(ctx context.Context) {
	defer close(d.done)

	for {
		wait := d.config.PollInterval
		if err := d.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				d.log.Info(ctx, "detector stopping", "reason", ctx.Err())
				return
			}
			d.log.Error(ctx, "polling cycle failed", "error", err.Error())
			wait = d.config.ErrorBackoff
		}

		select {
		case <-ctx.Done():
			d.log.Info(ctx, "detector stopping", "reason", ctx.Err())
			return
		case <-time.After(wait):
		}
	}
}

// cycle runs one full fetch-scan-report pass over every configured sport.
func (d *Detector) cycle(ctx context.Context) error {
	for _, sport := range d.config.Sports {
		result, err := d.quotes.FetchAll(ctx, sport)
		if err != nil {
			return err
		}

		for provider := range result.QuotesByProvider {
			d.reporter.UpdateProviderStatus(provider, true)
		}
		for provider := range result.Failures {
			d.reporter.UpdateProviderStatus(provider, false)
		}

		for _, opp := range d.scanner.Scan(ctx, result.QuotesByProvider) {
			d.reporter.Report(opp)
			if d.executor != nil {
				d.executor.Submit(ctx, opp)
			}
		}
	}
	return nil
}

// Stop shuts down the detector and waits for the loop to exit.
func (d *Detector) Stop(ctx context.Context) error {
	d.log.Info(ctx, "stopping detector")
	select {
	case <-d.done:
	case <-ctx.Done():
	}
	return d.reporter.Stop()
}
