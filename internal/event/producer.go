package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	pkgkafka "github.com/mustafakutlankale/my-ecommerce-app/pkg/kafka"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/logger"
)

// Kafka topic constants for storefront domain events.
const (
	TopicItemCreated  = "storefront.item.created"
	TopicItemDeleted  = "storefront.item.deleted"
	TopicItemRated    = "storefront.item.rated"
	TopicItemReviewed = "storefront.item.reviewed"
	TopicUserCreated  = "storefront.user.created"
	TopicUserDeleted  = "storefront.user.deleted"
)

// Topics lists every topic the storefront publishes to.
func Topics() []string {
	return []string{
		TopicItemCreated, TopicItemDeleted, TopicItemRated, TopicItemReviewed,
		TopicUserCreated, TopicUserDeleted,
	}
}

// Aggregate type constants.
const (
	AggregateTypeItem = "item"
	AggregateTypeUser = "user"
)

// SourceStorefront identifies events originating from this server.
const SourceStorefront = "storefront"

// MetadataActorUsername is the envelope metadata key holding the acting
// username.
const MetadataActorUsername = "actor_username"

// ItemCreatedData is the payload for an item.created event.
type ItemCreatedData struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

// ItemDeletedData is the payload for an item.deleted event.
type ItemDeletedData struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	AffectedUsers int    `json:"affected_users"`
}

// ItemRatedData is the payload for an item.rated event.
type ItemRatedData struct {
	ItemID         string  `json:"item_id"`
	UserID         string  `json:"user_id"`
	Rating         int     `json:"rating"`
	PreviousRating *int    `json:"previous_rating,omitempty"`
	AvgRating      float64 `json:"avg_rating"`
	ReviewerCount  int     `json:"reviewer_count"`
}

// ItemReviewedData is the payload for an item.reviewed event.
type ItemReviewedData struct {
	ItemID     string `json:"item_id"`
	UserID     string `json:"user_id"`
	TextLength int    `json:"text_length"`
	Replaced   bool   `json:"replaced"`
}

// UserCreatedData is the payload for a user.created event.
type UserCreatedData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UserDeletedData is the payload for a user.deleted event.
type UserDeletedData struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	ItemsAffected int    `json:"items_affected"`
}

// Sink delivers envelopes. *pkgkafka.Producer is the Kafka sink.
type Sink interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events to a Sink.
type Producer struct {
	sink   Sink
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(sink Sink, logger *slog.Logger) *Producer {
	return &Producer{
		sink:   sink,
		logger: logger,
	}
}

// publish wraps data in an envelope stamped with the request's correlation
// id and acting user.
func (p *Producer) publish(ctx context.Context, topic, aggregateType, aggregateID string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateType, aggregateID, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}
	userID, username := logger.SessionFromContext(ctx)
	if userID != "" {
		evt.WithActor(userID)
	}
	if username != "" {
		evt.WithMetadata(MetadataActorUsername, username)
	}

	if err := p.sink.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("event_id", evt.EventID),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishItemCreated publishes an item.created event.
func (p *Producer) PublishItemCreated(ctx context.Context, item *domain.Item) error {
	return p.publish(ctx, TopicItemCreated, AggregateTypeItem, item.ID, ItemCreatedData{
		ID:       item.ID,
		Name:     item.Name,
		Slug:     item.Slug,
		Category: string(item.Category),
		Price:    item.Price,
	})
}

// PublishItemDeleted publishes an item.deleted event.
func (p *Producer) PublishItemDeleted(ctx context.Context, item *domain.Item) error {
	return p.publish(ctx, TopicItemDeleted, AggregateTypeItem, item.ID, ItemDeletedData{
		ID:            item.ID,
		Name:          item.Name,
		AffectedUsers: len(item.Reviews),
	})
}

// PublishItemRated publishes an item.rated event. previous is nil on a
// first rating.
func (p *Producer) PublishItemRated(ctx context.Context, item *domain.Item, userID string, rating int, previous *int) error {
	return p.publish(ctx, TopicItemRated, AggregateTypeItem, item.ID, ItemRatedData{
		ItemID:         item.ID,
		UserID:         userID,
		Rating:         rating,
		PreviousRating: previous,
		AvgRating:      item.AvgRating,
		ReviewerCount:  item.ReviewerCount,
	})
}

// PublishItemReviewed publishes an item.reviewed event.
func (p *Producer) PublishItemReviewed(ctx context.Context, itemID, userID string, textLength int, replaced bool) error {
	return p.publish(ctx, TopicItemReviewed, AggregateTypeItem, itemID, ItemReviewedData{
		ItemID:     itemID,
		UserID:     userID,
		TextLength: textLength,
		Replaced:   replaced,
	})
}

// PublishUserCreated publishes a user.created event.
func (p *Producer) PublishUserCreated(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserCreated, AggregateTypeUser, user.ID, UserCreatedData{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
}

// PublishUserDeleted publishes a user.deleted event.
func (p *Producer) PublishUserDeleted(ctx context.Context, user *domain.User, itemsAffected int) error {
	return p.publish(ctx, TopicUserDeleted, AggregateTypeUser, user.ID, UserDeletedData{
		ID:            user.ID,
		Username:      user.Username,
		ItemsAffected: itemsAffected,
	})
}
