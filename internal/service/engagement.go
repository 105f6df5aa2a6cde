package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/repository"
	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/lock"
)

// maxReviewLength caps review text, in runes.
const maxReviewLength = 5000

// EngagementService implements ratings and reviews.
type EngagementService struct {
	items    repository.ItemRepository
	users    repository.UserRepository
	locker   lock.Locker
	cache    ItemCache
	producer EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngagementService creates a new engagement service. cache may be nil.
func NewEngagementService(
	items repository.ItemRepository,
	users repository.UserRepository,
	locker lock.Locker,
	cache ItemCache,
	producer EventPublisher,
	logger *slog.Logger,
) *EngagementService {
	return &EngagementService{
		items:    items,
		users:    users,
		locker:   locker,
		cache:    cacheOrNone(cache),
		producer: producer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RatingResult is the item summary after a rating was applied.
type RatingResult struct {
	ItemID        string  `json:"itemId"`
	Rating        int     `json:"rating"`
	RatingSum     int     `json:"ratingSum"`
	ReviewerCount int     `json:"reviewerCount"`
	AvgRating     float64 `json:"avgRating"`
}

// loadPair fetches the item and the acting user. Both must exist.
func (s *EngagementService) loadPair(ctx context.Context, itemID, userID string) (*domain.Item, *domain.User, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, nil, fmt.Errorf("get item: %w", err)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	return item, user, nil
}

// SubmitRating records the actor's rating of an item, replacing any earlier
// rating by the same user while keeping their review text. The item
// aggregates are recomputed from the full rating list and the user's
// counters move by the difference.
func (s *EngagementService) SubmitRating(ctx context.Context, actor domain.Actor, itemID string, rating int) (*RatingResult, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	if !domain.ValidRating(rating) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}

	release, err := acquire(ctx, s.locker, itemLockKey(itemID))
	if err != nil {
		return nil, err
	}
	defer release()

	item, user, err := s.loadPair(ctx, itemID, actor.UserID)
	if err != nil {
		return nil, err
	}

	old, first := item.ApplyRating(user.ID, user.Username, rating, s.now())
	if err := s.items.UpsertRating(ctx, itemID, *item.ReviewBy(user.ID), item.Aggregate()); err != nil {
		return nil, fmt.Errorf("store rating: %w", err)
	}

	countDelta := 0
	if first {
		countDelta = 1
	}
	if sumDelta := rating - old; sumDelta != 0 || countDelta != 0 {
		if _, err := s.users.ApplyRatingDelta(ctx, user.ID, sumDelta, countDelta); err != nil {
			return nil, fmt.Errorf("update user rating totals: %w", err)
		}
	}

	s.invalidate(ctx, itemID)

	var previous *int
	kind := "first"
	if !first {
		previous = &old
		kind = "replaced"
	}
	ratingsSubmitted.WithLabelValues(kind).Inc()

	if err := s.producer.PublishItemRated(ctx, item, user.ID, rating, previous); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish item.rated event",
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "item rated",
		slog.String("item_id", itemID),
		slog.String("user_id", user.ID),
		slog.Int("rating", rating),
		slog.Bool("first", first),
		slog.Float64("avg_rating", item.AvgRating),
	)

	return &RatingResult{
		ItemID:        itemID,
		Rating:        rating,
		RatingSum:     item.RatingSum,
		ReviewerCount: item.ReviewerCount,
		AvgRating:     item.AvgRating,
	}, nil
}

// SubmitReview records the actor's review text of an item on both the item
// and the user, replacing any earlier text and keeping any rating.
func (s *EngagementService) SubmitReview(ctx context.Context, actor domain.Actor, itemID, text string) error {
	if err := requireAuthenticated(actor); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return apperrors.InvalidInput("review text is required")
	}
	if utf8.RuneCountInString(text) > maxReviewLength {
		return apperrors.InvalidInput(fmt.Sprintf("review text must be at most %d characters", maxReviewLength))
	}

	release, err := acquire(ctx, s.locker, itemLockKey(itemID))
	if err != nil {
		return err
	}
	defer release()

	item, user, err := s.loadPair(ctx, itemID, actor.UserID)
	if err != nil {
		return err
	}

	replaced := false
	if e := item.ReviewBy(user.ID); e != nil && e.Text != "" {
		replaced = true
	}
	now := s.now()
	item.ApplyReviewText(user.ID, user.Username, text, now)

	if err := s.items.UpsertReviewText(ctx, itemID, *item.ReviewBy(user.ID)); err != nil {
		return fmt.Errorf("store review on item: %w", err)
	}
	if err := s.users.UpsertReview(ctx, user.ID, domain.UserReview{
		ItemID:   itemID,
		ItemName: item.Name,
		Text:     text,
		Date:     now,
	}); err != nil {
		return fmt.Errorf("store review on user: %w", err)
	}

	s.invalidate(ctx, itemID)

	kind := "new"
	if replaced {
		kind = "replaced"
	}
	reviewsSubmitted.WithLabelValues(kind).Inc()

	if err := s.producer.PublishItemReviewed(ctx, itemID, user.ID, utf8.RuneCountInString(text), replaced); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish item.reviewed event",
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "item reviewed",
		slog.String("item_id", itemID),
		slog.String("user_id", user.ID),
		slog.Bool("replaced", replaced),
	)
	return nil
}

func (s *EngagementService) invalidate(ctx context.Context, itemID string) {
	if err := s.cache.Invalidate(ctx, itemID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate item cache",
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
	}
}
