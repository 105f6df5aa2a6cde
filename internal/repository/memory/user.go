package memory

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
)

// UserRepository implements repository.UserRepository in memory.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewUserRepository creates an empty user store.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return apperrors.AlreadyExists("user", "username", user.Username)
		}
	}
	if user.ID == "" {
		user.ID = primitive.NewObjectID().Hex()
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, apperrors.NotFound("user", username)
}

func (r *UserRepository) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u).Sanitized())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return apperrors.NotFound("user", id)
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepository) CountByRole(_ context.Context, role string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (r *UserRepository) ApplyRatingDelta(_ context.Context, userID string, sumDelta, countDelta int) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, apperrors.NotFound("user", userID)
	}
	u.SumRatingsGiven += sumDelta
	u.TotalRatingsGiven += countDelta
	u.AverageRating = domain.AverageOf(u.SumRatingsGiven, u.TotalRatingsGiven)
	return cloneUser(u), nil
}

func (r *UserRepository) UpsertReview(_ context.Context, userID string, review domain.UserReview) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return apperrors.NotFound("user", userID)
	}
	for i := range u.Reviews {
		if u.Reviews[i].ItemID == review.ItemID {
			u.Reviews[i] = review
			return nil
		}
	}
	u.Reviews = append(u.Reviews, review)
	return nil
}

func (r *UserRepository) RemoveItemReferences(_ context.Context, userIDs []string, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range userIDs {
		u, ok := r.users[id]
		if !ok {
			continue
		}
		kept := u.Reviews[:0]
		for _, rv := range u.Reviews {
			if rv.ItemID != itemID {
				kept = append(kept, rv)
			}
		}
		u.Reviews = kept
	}
	return nil
}
