package event

import (
	"context"

	pkgkafka "github.com/mustafakutlankale/my-ecommerce-app/pkg/kafka"
)

// Dispatcher is an in-process Sink that hands every envelope straight to a
// handler. It stands in for Kafka when no broker is configured.
type Dispatcher struct {
	handler pkgkafka.Handler
}

// NewDispatcher creates a dispatcher calling handler synchronously.
func NewDispatcher(handler pkgkafka.Handler) *Dispatcher {
	return &Dispatcher{handler: handler}
}

func (d *Dispatcher) Publish(ctx context.Context, _ string, event *pkgkafka.Event) error {
	return d.handler(ctx, event)
}

// Discard drops every envelope.
type Discard struct{}

func (Discard) Publish(context.Context, string, *pkgkafka.Event) error { return nil }
