package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/utils/logging"
)

type TicketStatusChangedHandler func(ctx context.Context, ev *model.TicketStatusChanged) error
type TicketEscalatedHandler func(ctx context.Context, ev *model.TicketEscalated) error

type busEntry[H any] struct {
	name    string
	handler H
}

// EventBus delivers domain events to the handlers registered for their type.
// Delivery is synchronous and in registration order; every handler runs even
// if an earlier one failed, and the failures are joined into the result.
// Handlers are registered at startup only.
type EventBus struct {
	statusChanged []busEntry[TicketStatusChangedHandler]
	escalated     []busEntry[TicketEscalatedHandler]
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

func (b *EventBus) OnTicketStatusChanged(name string, h TicketStatusChangedHandler) {
	b.statusChanged = append(b.statusChanged, busEntry[TicketStatusChangedHandler]{name: name, handler: h})
}

func (b *EventBus) OnTicketEscalated(name string, h TicketEscalatedHandler) {
	b.escalated = append(b.escalated, busEntry[TicketEscalatedHandler]{name: name, handler: h})
}

// Publish delivers ev once to each registered handler of its type
func (b *EventBus) Publish(ctx context.Context, ev model.DomainEvent) error {
	var errs []error

	switch ev := ev.(type) {
	case *model.TicketStatusChanged:
		for _, e := range b.statusChanged {
			if err := e.handler(ctx, ev); err != nil {
				errs = append(errs, goerr.Wrap(err, "domain event handler failed",
					goerr.V("handler", e.name),
					goerr.V(TicketIDKey, ev.TicketID)))
			}
		}
	case *model.TicketEscalated:
		for _, e := range b.escalated {
			if err := e.handler(ctx, ev); err != nil {
				errs = append(errs, goerr.Wrap(err, "domain event handler failed",
					goerr.V("handler", e.name),
					goerr.V(TicketIDKey, ev.Ticket.ID)))
			}
		}
	default:
		return goerr.Wrap(ErrUnexpectedEvent, "unknown domain event", goerr.V("event", ev))
	}

	if len(errs) > 0 {
		logging.From(ctx).Debug("domain event delivered with failures", "failures", len(errs))
	}
	return errors.Join(errs...)
}
