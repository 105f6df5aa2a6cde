package repository

import (
	"context"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/pagination"
)

// ItemRepository defines persistence for items and their embedded reviews.
// Review mutations address a single entry by user id and never rewrite the
// whole document.
type ItemRepository interface {
	// Create inserts item and assigns its ID when empty.
	Create(ctx context.Context, item *domain.Item) error

	GetByID(ctx context.Context, id string) (*domain.Item, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Item, error)

	// List returns one page of matching items and the total match count.
	List(ctx context.Context, filter domain.ItemFilter, page pagination.Params) ([]domain.Item, int, error)

	Delete(ctx context.Context, id string) error

	// UpsertRating sets rating, username and date on the entry of
	// review.UserID, appending the entry when missing, and stores agg.
	UpsertRating(ctx context.Context, itemID string, review domain.ItemReview, agg domain.RatingAggregate) error

	// UpsertReviewText sets text, username and date on the entry of
	// review.UserID, appending an unrated entry when missing.
	UpsertReviewText(ctx context.Context, itemID string, review domain.ItemReview) error

	// RemoveReviewer pulls the entry of userID and stores agg.
	RemoveReviewer(ctx context.Context, itemID, userID string, agg domain.RatingAggregate) error

	// ListReviewedBy returns every item holding an entry of userID.
	ListReviewedBy(ctx context.Context, userID string) ([]domain.Item, error)
}

// UserRepository defines persistence for users.
type UserRepository interface {
	// Create inserts user and assigns its ID when empty. A taken username
	// yields an AlreadyExists error.
	Create(ctx context.Context, user *domain.User) error

	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// List returns all users with password hashes removed.
	List(ctx context.Context) ([]domain.User, error)

	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context, role string) (int, error)

	// ApplyRatingDelta adds the deltas to the rating-given counters,
	// recomputes the average in the same write and returns the result.
	ApplyRatingDelta(ctx context.Context, userID string, sumDelta, countDelta int) (*domain.User, error)

	// UpsertReview replaces the entry for review.ItemID or appends one.
	UpsertReview(ctx context.Context, userID string, review domain.UserReview) error

	// RemoveItemReferences pulls itemID from the review lists of userIDs.
	RemoveItemReferences(ctx context.Context, userIDs []string, itemID string) error
}

// AuditRepository stores recorded domain events.
type AuditRepository interface {
	// Record stores entry. Recording an event id twice is a no-op.
	Record(ctx context.Context, entry *domain.AuditEntry) error

	// List returns matching entries, newest first, and the total count.
	List(ctx context.Context, filter domain.AuditFilter, page pagination.Params) ([]domain.AuditEntry, int, error)
}
