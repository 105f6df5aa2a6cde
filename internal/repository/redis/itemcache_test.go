package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
)

func setupCache(t *testing.T) (*ItemCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewItemCache(client, time.Minute), mr
}

func sampleItem() *domain.Item {
	age := 12
	rating := 8
	return &domain.Item{
		ID:            "665f1c2e9b1d4a0012345678",
		Name:          "Blue Train",
		Slug:          "blue-train-345678",
		Category:      domain.CategoryVinyls,
		Price:         34.5,
		Attributes:    domain.AttributeSet{Age: &age},
		RatingSum:     8,
		ReviewerCount: 1,
		AvgRating:     8,
		Reviews: []domain.ItemReview{
			{UserID: "665f1c2e9b1d4a00aaaaaaaa", Username: "alice", Rating: &rating, Date: time.Now().UTC().Truncate(time.Millisecond)},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestItemCache_SetThenGet(t *testing.T) {
	cache, mr := setupCache(t)
	item := sampleItem()

	require.NoError(t, cache.Set(context.Background(), item))
	assert.Equal(t, time.Minute, mr.TTL("storefront:item:"+item.ID))

	got, err := cache.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Name, got.Name)
	assert.Equal(t, 12, *got.Attributes.Age)
	require.Len(t, got.Reviews, 1)
	assert.Equal(t, 8, *got.Reviews[0].Rating)
	assert.Equal(t, 8.0, got.AvgRating)
}

func TestItemCache_Miss(t *testing.T) {
	cache, _ := setupCache(t)

	_, err := cache.Get(context.Background(), "665f1c2e9b1d4a0012345678")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestItemCache_Expires(t *testing.T) {
	cache, mr := setupCache(t)
	item := sampleItem()
	require.NoError(t, cache.Set(context.Background(), item))

	mr.FastForward(2 * time.Minute)

	_, err := cache.Get(context.Background(), item.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestItemCache_Invalidate(t *testing.T) {
	cache, mr := setupCache(t)
	item := sampleItem()
	require.NoError(t, cache.Set(context.Background(), item))

	require.NoError(t, cache.Invalidate(context.Background(), item.ID, "665f1c2e9b1d4a00ffffffff"))
	assert.False(t, mr.Exists("storefront:item:"+item.ID))
	require.NoError(t, cache.Invalidate(context.Background()))
}

func TestItemCache_CorruptEntry(t *testing.T) {
	cache, mr := setupCache(t)
	require.NoError(t, mr.Set("storefront:item:x", "{not json"))

	_, err := cache.Get(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

func TestItemCache_ServerDown(t *testing.T) {
	cache, mr := setupCache(t)
	mr.Close()

	_, err := cache.Get(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}
