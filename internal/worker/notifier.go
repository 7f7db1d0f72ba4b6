// Package worker hosts the AMQP-driven consumers. The notifier is the read
// side of the expense-created events the scheduler publishes: it turns each
// materialized expense into a household notification.
package worker

import (
	"context"
	"fmt"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/cache"
	applog "bilancio/internal/log"
	"bilancio/internal/metrics"
)

// EventSource is the consuming side of the AMQP client.
type EventSource interface {
	ConsumeExpenseCreated(ctx context.Context, handler func(*amqp.ExpenseCreatedMessage) error) error
}

// Notifier consumes expense-created events and emits one notification per
// expense. Delivery is at-least-once, so redeliveries of an already handled
// expense are dropped via a short-lived seen set.
type Notifier struct {
	source EventSource
	seen   *cache.LRU[struct{}]
	logger *applog.Logger
}

func NewNotifier(source EventSource) *Notifier {
	return &Notifier{
		source: source,
		seen:   cache.NewLRU[struct{}](1024, 24*time.Hour),
		logger: applog.ForComponent(applog.ComponentWorker),
	}
}

// Run consumes events until ctx is done.
func (n *Notifier) Run(ctx context.Context) error {
	err := n.source.ConsumeExpenseCreated(ctx, func(msg *amqp.ExpenseCreatedMessage) error {
		return n.Handle(ctx, msg)
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to consume expense events: %w", err)
	}
	return nil
}

// Handle processes one expense-created event. A non-nil return requeues the
// delivery, so malformed or duplicate events return nil instead: requeueing
// them would loop forever.
func (n *Notifier) Handle(ctx context.Context, msg *amqp.ExpenseCreatedMessage) error {
	if msg.ExpenseID == "" || msg.UserID == "" {
		n.logger.WarnContext(ctx, "dropping expense event without identifiers",
			applog.FieldExpenseID, msg.ExpenseID,
			applog.FieldUserID, msg.UserID)
		return nil
	}

	if _, dup := n.seen.Get(msg.ExpenseID); dup {
		n.logger.InfoContext(ctx, "skipping redelivered expense event",
			applog.FieldExpenseID, msg.ExpenseID)
		return nil
	}
	n.seen.Set(msg.ExpenseID, struct{}{})

	metrics.ExpenseEventsConsumed.Inc()
	n.logger.InfoContext(ctx, "recurring expense materialized",
		applog.FieldExpenseID, msg.ExpenseID,
		applog.FieldUserID, msg.UserID,
		applog.FieldAmountCents, msg.AmountCents,
		"date", msg.Date,
		"description", msg.Description)
	return nil
}
