package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/pagination"
)

// ItemRepository implements repository.ItemRepository in memory.
type ItemRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.Item
}

// NewItemRepository creates an empty item store.
func NewItemRepository() *ItemRepository {
	return &ItemRepository{items: make(map[string]*domain.Item)}
}

func (r *ItemRepository) Create(_ context.Context, item *domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = primitive.NewObjectID().Hex()
	}
	if _, ok := r.items[item.ID]; ok {
		return apperrors.AlreadyExists("item", "id", item.ID)
	}
	for _, existing := range r.items {
		if item.Slug != "" && existing.Slug == item.Slug {
			return apperrors.AlreadyExists("item", "slug", item.Slug)
		}
	}
	r.items[item.ID] = cloneItem(item)
	return nil
}

func (r *ItemRepository) GetByID(_ context.Context, id string) (*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, apperrors.NotFound("item", id)
	}
	return cloneItem(item), nil
}

func (r *ItemRepository) GetBySlug(_ context.Context, slug string) (*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.Slug == slug {
			return cloneItem(item), nil
		}
	}
	return nil, apperrors.NotFound("item", slug)
}

// List orders by creation time, newest first, then by id.
func (r *ItemRepository) List(_ context.Context, filter domain.ItemFilter, page pagination.Params) ([]domain.Item, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	matched := make([]*domain.Item, 0, len(r.items))
	for _, item := range r.items {
		if filter.Category != nil && item.Category != *filter.Category {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(item.Name), query) {
			continue
		}
		matched = append(matched, item)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	start, end := page.Window(len(matched))
	out := make([]domain.Item, 0, end-start)
	for _, item := range matched[start:end] {
		out = append(out, *cloneItem(item))
	}
	return out, len(matched), nil
}

func (r *ItemRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return apperrors.NotFound("item", id)
	}
	delete(r.items, id)
	return nil
}

func (r *ItemRepository) UpsertRating(_ context.Context, itemID string, review domain.ItemReview, agg domain.RatingAggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return apperrors.NotFound("item", itemID)
	}

	rating := *review.Rating
	if e := item.ReviewBy(review.UserID); e != nil {
		e.Rating = &rating
		e.Username = review.Username
		e.Date = review.Date
	} else {
		item.Reviews = append(item.Reviews, domain.ItemReview{
			UserID:   review.UserID,
			Username: review.Username,
			Rating:   &rating,
			Date:     review.Date,
		})
	}
	item.RatingSum, item.ReviewerCount, item.AvgRating = agg.Sum, agg.Count, agg.Avg
	return nil
}

func (r *ItemRepository) UpsertReviewText(_ context.Context, itemID string, review domain.ItemReview) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return apperrors.NotFound("item", itemID)
	}
	item.ApplyReviewText(review.UserID, review.Username, review.Text, review.Date)
	return nil
}

func (r *ItemRepository) RemoveReviewer(_ context.Context, itemID, userID string, agg domain.RatingAggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return apperrors.NotFound("item", itemID)
	}

	kept := item.Reviews[:0]
	for _, rv := range item.Reviews {
		if rv.UserID != userID {
			kept = append(kept, rv)
		}
	}
	item.Reviews = kept
	item.RatingSum, item.ReviewerCount, item.AvgRating = agg.Sum, agg.Count, agg.Avg
	return nil
}

func (r *ItemRepository) ListReviewedBy(_ context.Context, userID string) ([]domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Item
	for _, item := range r.items {
		if item.ReviewBy(userID) != nil {
			out = append(out, *cloneItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
