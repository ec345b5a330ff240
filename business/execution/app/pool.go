package app

import (
	"context"
	"sync"

	arbDomain "github.com/mvickers/surebet/business/arbitrage/domain"
	"github.com/mvickers/surebet/internal/apperror"
	"github.com/mvickers/surebet/internal/logger"
)

// Pool executes opportunities with bounded parallelism. Disjoint events run
// concurrently; the coordinator's per-event claim serializes opportunities
// that target the same event and market.
type Pool struct {
	coordinator *Coordinator
	queue       chan arbDomain.Opportunity
	workers     int
	log         logger.LoggerInterface

	wg       sync.WaitGroup
	startOne sync.Once
	stopOne  sync.Once
}

// NewPool creates a Pool with the given worker count and queue depth.
func NewPool(coordinator *Coordinator, workers, queueDepth int, log logger.LoggerInterface) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueDepth < workers {
		queueDepth = workers
	}
	return &Pool{
		coordinator: coordinator,
		queue:       make(chan arbDomain.Opportunity, queueDepth),
		workers:     workers,
		log:         log,
	}
}

// Start launches the workers. They drain the queue until Stop is called, so a
// shutdown never abandons an opportunity that already began placing legs.
func (p *Pool) Start(ctx context.Context) {
	p.startOne.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker(ctx)
		}
	})
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for opp := range p.queue {
		_, err := p.coordinator.Execute(ctx, opp)
		if err == nil {
			continue
		}
		switch apperror.GetCode(err) {
		case apperror.CodeEventLocked, apperror.CodeOddsMoved:
			// Expected contention or odds drift; the next cycle re-detects.
		default:
			p.log.Error(ctx, "execution not started",
				"opportunity_id", opp.ID, "error", err.Error())
		}
	}
}

// Submit queues an opportunity. When the queue is full the opportunity is
// dropped with a log line; the scanner re-detects on the next cycle if it is
// still live.
func (p *Pool) Submit(ctx context.Context, opp arbDomain.Opportunity) {
	select {
	case p.queue <- opp:
	default:
		p.log.Warn(ctx, "execution queue full, dropping opportunity",
			"opportunity_id", opp.ID, "event", opp.Describe())
	}
}

// Stop closes the queue and waits for in-flight executions to finish.
func (p *Pool) Stop() {
	p.stopOne.Do(func() {
		close(p.queue)
	})
	p.wg.Wait()
}
