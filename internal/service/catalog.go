package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/repository"
	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/lock"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/pagination"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/slug"
)

// slugSuffixLen is how many trailing hex digits of the item id end its slug.
const slugSuffixLen = 6

// CatalogService implements item management and browsing.
type CatalogService struct {
	items    repository.ItemRepository
	cascade  *Cascade
	locker   lock.Locker
	cache    ItemCache
	producer EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(
	items repository.ItemRepository,
	cascade *Cascade,
	locker lock.Locker,
	cache ItemCache,
	producer EventPublisher,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		items:    items,
		cascade:  cascade,
		locker:   locker,
		cache:    cacheOrNone(cache),
		producer: producer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddItemInput holds the parameters for creating an item.
type AddItemInput struct {
	Name        string
	Description string
	Price       *float64
	Seller      string
	Image       string
	Category    string
	Attributes  domain.AttributeSet
}

// ListItemsInput holds the parameters for browsing the catalog.
type ListItemsInput struct {
	Category string
	Query    string
	Page     pagination.Params
}

func (in AddItemInput) validate() (domain.Category, domain.Attributes, error) {
	for _, f := range []struct{ name, value string }{
		{"name", in.Name},
		{"description", in.Description},
		{"seller", in.Seller},
		{"image", in.Image},
		{"category", in.Category},
	} {
		if strings.TrimSpace(f.value) == "" {
			return "", nil, apperrors.InvalidInput(f.name + " is required")
		}
	}
	if in.Price == nil {
		return "", nil, apperrors.InvalidInput("price is required")
	}
	if *in.Price < 0 {
		return "", nil, apperrors.InvalidInput("price must be zero or greater")
	}
	category, err := domain.ParseCategory(in.Category)
	if err != nil {
		return "", nil, err
	}
	attrs, err := domain.BuildAttributes(category, in.Attributes)
	if err != nil {
		return "", nil, err
	}
	return category, attrs, nil
}

// AddItem creates an item with zeroed rating aggregates.
func (s *CatalogService) AddItem(ctx context.Context, actor domain.Actor, input AddItemInput) (*domain.Item, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	category, attrs, err := input.validate()
	if err != nil {
		return nil, err
	}

	id := primitive.NewObjectID().Hex()
	item := &domain.Item{
		ID:          id,
		Name:        strings.TrimSpace(input.Name),
		Slug:        slug.WithSuffix(input.Name, id[len(id)-slugSuffixLen:]),
		Description: input.Description,
		Price:       *input.Price,
		Seller:      strings.TrimSpace(input.Seller),
		Image:       strings.TrimSpace(input.Image),
		Category:    category,
		Attributes:  attrs.Set(),
		Reviews:     []domain.ItemReview{},
		CreatedAt:   s.now(),
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	if err := s.producer.PublishItemCreated(ctx, item); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish item.created event",
			slog.String("item_id", item.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "item created",
		slog.String("item_id", item.ID),
		slog.String("slug", item.Slug),
		slog.String("category", string(item.Category)),
	)
	return item, nil
}

// GetItem returns one item, reading through the cache. A miss loads and
// caches the item under the item lock, so a concurrent write cannot
// invalidate the entry before the stale copy lands.
func (s *CatalogService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	if _, ok := s.cache.(noCache); ok {
		return s.load(ctx, id)
	}

	cached, err := s.cache.Get(ctx, id)
	switch {
	case err == nil:
		itemCacheRequests.WithLabelValues("hit").Inc()
		return cached, nil
	case errors.Is(err, apperrors.ErrNotFound):
		itemCacheRequests.WithLabelValues("miss").Inc()
	default:
		itemCacheRequests.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "item cache read failed",
			slog.String("item_id", id),
			slog.String("error", err.Error()),
		)
	}

	release, err := s.locker.Lock(ctx, itemLockKey(id))
	if err != nil {
		s.logger.WarnContext(ctx, "item lock unavailable, skipping cache fill",
			slog.String("item_id", id),
			slog.String("error", err.Error()),
		)
		return s.load(ctx, id)
	}
	defer release()

	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, item); err != nil {
		s.logger.WarnContext(ctx, "item cache write failed",
			slog.String("item_id", id),
			slog.String("error", err.Error()),
		)
	}
	return item, nil
}

func (s *CatalogService) load(ctx context.Context, id string) (*domain.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetItemBySlug returns one item by its slug.
func (s *CatalogService) GetItemBySlug(ctx context.Context, itemSlug string) (*domain.Item, error) {
	item, err := s.items.GetBySlug(ctx, itemSlug)
	if err != nil {
		return nil, fmt.Errorf("get item by slug: %w", err)
	}
	return item, nil
}

// ListItems returns one page of items, optionally narrowed to a category
// and a case-insensitive name substring.
func (s *CatalogService) ListItems(ctx context.Context, input ListItemsInput) ([]domain.Item, int, error) {
	var filter domain.ItemFilter
	if input.Category != "" {
		c, err := domain.ParseCategory(input.Category)
		if err != nil {
			return nil, 0, err
		}
		filter.Category = &c
	}
	filter.Query = strings.TrimSpace(input.Query)

	page := input.Page
	if page.Page < 1 || page.PerPage < 1 {
		page = pagination.DefaultParams()
	}

	items, total, err := s.items.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	return items, total, nil
}

// Categories returns the fixed category list.
func (s *CatalogService) Categories() []domain.Category {
	return domain.Categories()
}

// DeleteItem removes an item through the cascade.
func (s *CatalogService) DeleteItem(ctx context.Context, actor domain.Actor, id string) error {
	return s.cascade.DeleteItem(ctx, actor, id)
}
