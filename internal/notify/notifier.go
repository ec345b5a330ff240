// Package notify delivers operator alerts. Alerts are dispatched to every
// registered sender and can be filtered by event type; compensation failures
// bypass the filter because an operator must always see an open one-sided
// position.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/mvickers/surebet/internal/logger"
)

// Event types emitted by the engine.
const (
	EventOpportunity        = "opportunity_detected"
	EventExecution          = "execution_finished"
	EventCompensationFailed = "compensation_failed"
)

// Sender is a single delivery channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier dispatches alerts to one or more Senders. Notify forwards only
// event types in the allowed set; Escalate bypasses the filter.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	log     logger.LoggerInterface
}

// New creates a Notifier. If events is empty, every event type passes the
// filter.
func New(senders []Sender, events []string, log logger.LoggerInterface) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{senders: senders, events: allowed, log: log}
}

// Notify delivers the alert if the event type is allowed.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.log.Debug(ctx, "notify: event filtered out", "event", event)
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// Escalate delivers the alert to every sender regardless of the event filter.
// Used for conditions that require operator intervention.
func (n *Notifier) Escalate(ctx context.Context, title, message string) error {
	return n.dispatch(ctx, title, message)
}

func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.log.Error(ctx, "notify: sender failed", "sender", s.Name(), "error", err.Error())
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.log.Debug(ctx, "notify: alert sent", "sender", s.Name(), "title", title)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
