// Package audit turns storefront domain events into a queryable audit trail.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/repository"
	pkgkafka "github.com/mustafakutlankale/my-ecommerce-app/pkg/kafka"
)

// Recorder stores every event it handles as an audit entry.
type Recorder struct {
	repo   repository.AuditRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder creates a recorder writing to repo.
func NewRecorder(repo repository.AuditRepository, logger *slog.Logger) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Handle is a pkgkafka.Handler.
func (r *Recorder) Handle(ctx context.Context, e *pkgkafka.Event) error {
	entry := &domain.AuditEntry{
		EventID:       e.EventID,
		EventType:     e.EventType,
		AggregateType: e.AggregateType,
		AggregateID:   e.AggregateID,
		ActorID:       e.ActorID,
		CorrelationID: e.CorrelationID,
		Payload:       e.Data,
		OccurredAt:    e.Timestamp,
		RecordedAt:    r.now(),
	}
	if err := r.repo.Record(ctx, entry); err != nil {
		return fmt.Errorf("record %s: %w", e.EventType, err)
	}

	r.logger.DebugContext(ctx, "audit entry recorded",
		slog.String("event_id", e.EventID),
		slog.String("event_type", e.EventType),
		slog.String("aggregate_id", e.AggregateID),
	)
	return nil
}
