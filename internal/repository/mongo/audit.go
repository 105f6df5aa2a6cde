package mongo

import (
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/database"
	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/pagination"
)

// auditDoc is keyed by event id, so replays collide on _id.
type auditDoc struct {
	EventID       string    `bson:"_id"`
	EventType     string    `bson:"eventType"`
	AggregateType string    `bson:"aggregateType"`
	AggregateID   string    `bson:"aggregateId"`
	ActorID       string    `bson:"actorId,omitempty"`
	CorrelationID string    `bson:"correlationId,omitempty"`
	Payload       string    `bson:"payload,omitempty"`
	OccurredAt    time.Time `bson:"occurredAt"`
	RecordedAt    time.Time `bson:"recordedAt"`
}

// AuditRepository implements repository.AuditRepository using MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

// NewAuditRepository creates an audit repository on db.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(AuditCollection)}
}

func (r *AuditRepository) Record(ctx context.Context, entry *domain.AuditEntry) (err error) {
	ctx, end := database.TraceQuery(ctx, AuditCollection, "Record")
	defer func() { end(err) }()

	doc := auditDoc{
		EventID:       entry.EventID,
		EventType:     entry.EventType,
		AggregateType: entry.AggregateType,
		AggregateID:   entry.AggregateID,
		ActorID:       entry.ActorID,
		CorrelationID: entry.CorrelationID,
		Payload:       string(entry.Payload),
		OccurredAt:    entry.OccurredAt,
		RecordedAt:    entry.RecordedAt,
	}
	if _, err = r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return apperrors.Storage("audit_events.insert", err)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter, page pagination.Params) (_ []domain.AuditEntry, _ int, err error) {
	ctx, end := database.TraceQuery(ctx, AuditCollection, "List")
	defer func() { end(err) }()

	f := bson.M{}
	if filter.AggregateID != "" {
		f["aggregateId"] = filter.AggregateID
	}
	if filter.EventType != "" {
		f["eventType"] = filter.EventType
	}

	total, err := r.coll.CountDocuments(ctx, f)
	if err != nil {
		return nil, 0, apperrors.Storage("audit_events.count", err)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "occurredAt", Value: -1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.PerPage))
	cur, err := r.coll.Find(ctx, f, opts)
	if err != nil {
		return nil, 0, apperrors.Storage("audit_events.find", err)
	}
	var docs []auditDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, 0, apperrors.Storage("audit_events.decode", err)
	}

	out := make([]domain.AuditEntry, 0, len(docs))
	for _, d := range docs {
		e := domain.AuditEntry{
			EventID:       d.EventID,
			EventType:     d.EventType,
			AggregateType: d.AggregateType,
			AggregateID:   d.AggregateID,
			ActorID:       d.ActorID,
			CorrelationID: d.CorrelationID,
			OccurredAt:    d.OccurredAt,
			RecordedAt:    d.RecordedAt,
		}
		if d.Payload != "" {
			e.Payload = json.RawMessage(d.Payload)
		}
		out = append(out, e)
	}
	return out, int(total), nil
}
