package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/repository/memory"
	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/lock"
)

func TestCascade_DeleteItemStripsUserReferences(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	a := h.addUser(t, "alice", "")
	b := h.addUser(t, "bob", "")
	doomed := h.addVinyl(t, "Doomed")
	kept := h.addVinyl(t, "Kept")

	_, err := h.engage.SubmitRating(ctx, a, doomed.ID, 8)
	require.NoError(t, err)
	require.NoError(t, h.engage.SubmitReview(ctx, a, doomed.ID, "gone soon"))
	require.NoError(t, h.engage.SubmitReview(ctx, a, kept.ID, "stays"))
	require.NoError(t, h.engage.SubmitReview(ctx, b, doomed.ID, "also gone"))

	require.NoError(t, h.catalog.DeleteItem(ctx, h.root, doomed.ID))

	_, err = h.items.GetByID(ctx, doomed.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	alice := h.user(t, a.UserID)
	require.Len(t, alice.Reviews, 1)
	assert.Equal(t, kept.ID, alice.Reviews[0].ItemID)
	assert.Equal(t, 8, alice.SumRatingsGiven, "user counters are not recomputed on item deletion")
	assert.Equal(t, 1, alice.TotalRatingsGiven)
	assert.Empty(t, h.user(t, b.UserID).Reviews)

	assert.Contains(t, h.publisher.Events(), "item.deleted")
}

func TestCascade_DeleteItemRequiresAdmin(t *testing.T) {
	h := newHarness(t, nil)
	a := h.addUser(t, "alice", "")
	item := h.addVinyl(t, "Precious")

	err := h.catalog.DeleteItem(context.Background(), a, item.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	err = h.catalog.DeleteItem(context.Background(), domain.Actor{}, item.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	h.item(t, item.ID)
}

func TestCascade_DeleteItemMissing(t *testing.T) {
	h := newHarness(t, nil)
	err := h.catalog.DeleteItem(context.Background(), h.root, "665f1c2e9b1d4a0000000000")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCascade_DeleteItemToleratesStripFailure(t *testing.T) {
	items := memory.NewItemRepository()
	users := &mockUserRepository{}
	ctx := context.Background()

	rating := 7
	item := &domain.Item{
		Name:     "Fragile",
		Category: domain.CategoryVinyls,
		Reviews:  []domain.ItemReview{{UserID: "665f1c2e9b1d4a00aaaaaaaa", Username: "alice", Rating: &rating}},
	}
	item.Refresh()
	require.NoError(t, items.Create(ctx, item))

	users.On("RemoveItemReferences", mock.Anything, []string{"665f1c2e9b1d4a00aaaaaaaa"}, item.ID).
		Return(errors.New("users collection unavailable"))

	c := NewCascade(items, users, lock.NewLocal(), nil, &recordingPublisher{}, discardLogger())
	require.NoError(t, c.DeleteItem(ctx, domain.Actor{UserID: "root", Role: domain.RoleAdmin}, item.ID))

	_, err := items.GetByID(ctx, item.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	users.AssertExpectations(t)
}

func TestCascade_DeleteUserRecomputesEveryItem(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	a := h.addUser(t, "alice", "")
	b := h.addUser(t, "bob", "")
	first := h.addVinyl(t, "First")
	second := h.addVinyl(t, "Second")
	untouched := h.addVinyl(t, "Untouched")

	for _, r := range []struct {
		actor domain.Actor
		item  string
		value int
	}{
		{a, first.ID, 10}, {b, first.ID, 2},
		{a, second.ID, 1},
		{b, untouched.ID, 9},
	} {
		_, err := h.engage.SubmitRating(ctx, r.actor, r.item, r.value)
		require.NoError(t, err)
	}
	require.NoError(t, h.engage.SubmitReview(ctx, a, second.ID, "meh"))

	require.NoError(t, h.userSvc.DeleteUser(ctx, h.root, a.UserID))

	f := h.item(t, first.ID)
	assert.Equal(t, domain.RatingAggregate{Sum: 2, Count: 1, Avg: 2}, f.Aggregate())

	s := h.item(t, second.ID)
	assert.Equal(t, domain.RatingAggregate{}, s.Aggregate())
	assert.Empty(t, s.Reviews)

	u := h.item(t, untouched.ID)
	assert.Equal(t, domain.RatingAggregate{Sum: 9, Count: 1, Avg: 9}, u.Aggregate())

	_, err := h.users.GetByID(ctx, a.UserID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, h.publisher.Events(), "user.deleted")
}

func TestCascade_LastAdminIsProtected(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	item := h.addVinyl(t, "Admin Pick")
	_, err := h.engage.SubmitRating(ctx, h.root, item.ID, 9)
	require.NoError(t, err)
	eventsBefore := len(h.publisher.Events())

	err = h.userSvc.DeleteUser(ctx, h.root, h.root.UserID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPolicyViolation)

	h.user(t, h.root.UserID)
	stored := h.item(t, item.ID)
	assert.Equal(t, 1, stored.ReviewerCount)
	assert.NotNil(t, stored.ReviewBy(h.root.UserID))
	assert.Len(t, h.publisher.Events(), eventsBefore)
}

func TestCascade_SecondAdminCanBeDeleted(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	other := h.addUser(t, "deputy", domain.RoleAdmin)

	require.NoError(t, h.userSvc.DeleteUser(ctx, other, h.root.UserID))

	err := h.userSvc.DeleteUser(ctx, other, other.UserID)
	assert.ErrorIs(t, err, apperrors.ErrPolicyViolation)
}

func TestCascade_DeleteUserRequiresAdmin(t *testing.T) {
	h := newHarness(t, nil)
	a := h.addUser(t, "alice", "")
	b := h.addUser(t, "bob", "")

	assert.ErrorIs(t, h.userSvc.DeleteUser(context.Background(), a, b.UserID), apperrors.ErrForbidden)
	h.user(t, b.UserID)
}

func TestCascade_DeleteUserMissing(t *testing.T) {
	h := newHarness(t, nil)
	err := h.userSvc.DeleteUser(context.Background(), h.root, "665f1c2e9b1d4a0000000000")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCascade_CountFailureAbortsAdminDeletion(t *testing.T) {
	users := &mockUserRepository{}
	admin := &domain.User{ID: "a1", Username: "root", Role: domain.RoleAdmin}
	users.On("GetByID", mock.Anything, "a1").Return(admin, nil)
	users.On("CountByRole", mock.Anything, domain.RoleAdmin).
		Return(0, apperrors.Storage("users.count", errors.New("timeout")))

	c := NewCascade(memory.NewItemRepository(), users, lock.NewLocal(), nil, &recordingPublisher{}, discardLogger())
	err := c.DeleteUser(context.Background(), domain.Actor{UserID: "a2", Role: domain.RoleAdmin}, "a1")
	assert.ErrorIs(t, err, apperrors.ErrStorage)
	users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
