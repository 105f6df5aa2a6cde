package audit

import (
	"log/slog"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/event"
	pkgkafka "github.com/mustafakutlankale/my-ecommerce-app/pkg/kafka"
)

// NewConsumer subscribes the recorder to every storefront topic. Redelivered
// events are filtered through store before they reach the repository.
func NewConsumer(brokers []string, groupID string, rec *Recorder, store pkgkafka.IdempotencyStore, dlq *pkgkafka.DLQProducer, logger *slog.Logger) *pkgkafka.Consumer {
	handler := pkgkafka.IdempotentHandler(store, groupID, rec.Handle, logger)
	return pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topics:  event.Topics(),
	}, handler, dlq, logger)
}
