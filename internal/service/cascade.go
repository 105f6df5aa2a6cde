package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/repository"
	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/lock"
)

// Cascade owns both deletion directions between items and users. Every step
// is an independent single-document update; nothing is rolled back.
type Cascade struct {
	items    repository.ItemRepository
	users    repository.UserRepository
	locker   lock.Locker
	cache    ItemCache
	producer EventPublisher
	logger   *slog.Logger
}

// NewCascade creates the deletion cascade. cache may be nil.
func NewCascade(
	items repository.ItemRepository,
	users repository.UserRepository,
	locker lock.Locker,
	cache ItemCache,
	producer EventPublisher,
	logger *slog.Logger,
) *Cascade {
	return &Cascade{
		items:    items,
		users:    users,
		locker:   locker,
		cache:    cacheOrNone(cache),
		producer: producer,
		logger:   logger,
	}
}

// acquire takes the lock on key, reporting a lock timeout as a storage error.
func acquire(ctx context.Context, locker lock.Locker, key string) (func(), error) {
	release, err := locker.Lock(ctx, key)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, apperrors.Storage("lock "+key, err)
		}
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}
	return release, nil
}

// DeleteItem removes the item, then strips its id from the review lists of
// every user who reviewed it. Stripping is best effort and user rating
// counters are left as they are.
func (c *Cascade) DeleteItem(ctx context.Context, actor domain.Actor, itemID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	release, err := acquire(ctx, c.locker, itemLockKey(itemID))
	if err != nil {
		return err
	}
	defer release()

	item, err := c.items.GetByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}
	if err := c.items.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	if err := c.cache.Invalidate(ctx, itemID); err != nil {
		cascadeCleanupFailures.WithLabelValues("cache_invalidate").Inc()
		c.logger.WarnContext(ctx, "failed to invalidate item cache",
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
	}

	if reviewers := item.ReviewerIDs(); len(reviewers) > 0 {
		if err := c.users.RemoveItemReferences(ctx, reviewers, itemID); err != nil {
			cascadeCleanupFailures.WithLabelValues("strip_user_references").Inc()
			c.logger.ErrorContext(ctx, "failed to strip item references from users",
				slog.String("item_id", itemID),
				slog.Int("users", len(reviewers)),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := c.producer.PublishItemDeleted(ctx, item); err != nil {
		c.logger.ErrorContext(ctx, "failed to publish item.deleted event",
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
	}

	cascadeDeletions.WithLabelValues("item").Inc()
	c.logger.InfoContext(ctx, "item deleted",
		slog.String("item_id", itemID),
		slog.String("name", item.Name),
		slog.Int("reviewers", len(item.Reviews)),
	)
	return nil
}

// DeleteUser removes the user's entries from every item they reviewed,
// recomputing each item's aggregates, and then deletes the user. Deleting
// the only remaining administrator is refused before anything changes.
func (c *Cascade) DeleteUser(ctx context.Context, actor domain.Actor, userID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	release, err := acquire(ctx, c.locker, adminsLockKey)
	if err != nil {
		return err
	}
	defer release()

	user, err := c.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if user.IsAdmin() {
		admins, err := c.users.CountByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if admins <= 1 {
			policyRejections.WithLabelValues("last_admin").Inc()
			return apperrors.PolicyViolation("cannot delete the last administrator")
		}
	}

	reviewed, err := c.items.ListReviewedBy(ctx, userID)
	if err != nil {
		return fmt.Errorf("list reviewed items: %w", err)
	}
	for _, it := range reviewed {
		if err := c.removeReviewer(ctx, it.ID, userID); err != nil {
			return err
		}
	}

	if err := c.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if err := c.producer.PublishUserDeleted(ctx, user, len(reviewed)); err != nil {
		c.logger.ErrorContext(ctx, "failed to publish user.deleted event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	cascadeDeletions.WithLabelValues("user").Inc()
	c.logger.InfoContext(ctx, "user deleted",
		slog.String("user_id", userID),
		slog.String("username", user.Username),
		slog.Int("items_affected", len(reviewed)),
	)
	return nil
}

// removeReviewer drops userID's entry from one item under the item lock,
// re-reading the item so the aggregate reflects concurrent ratings.
func (c *Cascade) removeReviewer(ctx context.Context, itemID, userID string) error {
	release, err := acquire(ctx, c.locker, itemLockKey(itemID))
	if err != nil {
		return err
	}
	defer release()

	item, err := c.items.GetByID(ctx, itemID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get item %s: %w", itemID, err)
	}
	if !item.RemoveReviewsBy(userID) {
		return nil
	}
	if err := c.items.RemoveReviewer(ctx, itemID, userID, item.Aggregate()); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("remove reviewer from item %s: %w", itemID, err)
	}

	if err := c.cache.Invalidate(ctx, itemID); err != nil {
		cascadeCleanupFailures.WithLabelValues("cache_invalidate").Inc()
		c.logger.WarnContext(ctx, "failed to invalidate item cache",
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
