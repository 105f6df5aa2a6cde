// Package service holds the storefront business logic: catalog management,
// ratings and reviews, user accounts, and the deletion cascades.
package service

import (
	"context"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
)

// adminsLockKey serializes operations that may change the set of admins.
const adminsLockKey = "users:admins"

func itemLockKey(itemID string) string { return "item:" + itemID }

// EventPublisher publishes storefront domain events. *event.Producer is the
// production implementation.
type EventPublisher interface {
	PublishItemCreated(ctx context.Context, item *domain.Item) error
	PublishItemDeleted(ctx context.Context, item *domain.Item) error
	PublishItemRated(ctx context.Context, item *domain.Item, userID string, rating int, previous *int) error
	PublishItemReviewed(ctx context.Context, itemID, userID string, textLength int, replaced bool) error
	PublishUserCreated(ctx context.Context, user *domain.User) error
	PublishUserDeleted(ctx context.Context, user *domain.User, itemsAffected int) error
}

// ItemCache is a read-through cache of item details. Get reports a miss
// with a NotFound error.
type ItemCache interface {
	Get(ctx context.Context, id string) (*domain.Item, error)
	Set(ctx context.Context, item *domain.Item) error
	Invalidate(ctx context.Context, ids ...string) error
}

// noCache is used when Redis is disabled.
type noCache struct{}

func (noCache) Get(_ context.Context, id string) (*domain.Item, error) {
	return nil, apperrors.NotFound("item", id)
}
func (noCache) Set(context.Context, *domain.Item) error     { return nil }
func (noCache) Invalidate(context.Context, ...string) error { return nil }

func cacheOrNone(c ItemCache) ItemCache {
	if c == nil {
		return noCache{}
	}
	return c
}

// requireAuthenticated rejects calls without a session.
func requireAuthenticated(actor domain.Actor) error {
	if actor.UserID == "" {
		return apperrors.Unauthorized("authentication required")
	}
	return nil
}

// requireAdmin rejects calls from anyone but an administrator.
func requireAdmin(actor domain.Actor) error {
	if err := requireAuthenticated(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return apperrors.Forbidden("admin role required")
	}
	return nil
}
