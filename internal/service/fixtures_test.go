package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/auth"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/repository/memory"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/lock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Recording publisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) add(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, name)
	return nil
}

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func (p *recordingPublisher) PublishItemCreated(context.Context, *domain.Item) error {
	return p.add("item.created")
}
func (p *recordingPublisher) PublishItemDeleted(context.Context, *domain.Item) error {
	return p.add("item.deleted")
}
func (p *recordingPublisher) PublishItemRated(context.Context, *domain.Item, string, int, *int) error {
	return p.add("item.rated")
}
func (p *recordingPublisher) PublishItemReviewed(context.Context, string, string, int, bool) error {
	return p.add("item.reviewed")
}
func (p *recordingPublisher) PublishUserCreated(context.Context, *domain.User) error {
	return p.add("user.created")
}
func (p *recordingPublisher) PublishUserDeleted(context.Context, *domain.User, int) error {
	return p.add("user.deleted")
}

// --- Mock publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishItemCreated(ctx context.Context, item *domain.Item) error {
	return m.Called(ctx, item).Error(0)
}
func (m *mockPublisher) PublishItemDeleted(ctx context.Context, item *domain.Item) error {
	return m.Called(ctx, item).Error(0)
}
func (m *mockPublisher) PublishItemRated(ctx context.Context, item *domain.Item, userID string, rating int, previous *int) error {
	return m.Called(ctx, item, userID, rating, previous).Error(0)
}
func (m *mockPublisher) PublishItemReviewed(ctx context.Context, itemID, userID string, textLength int, replaced bool) error {
	return m.Called(ctx, itemID, userID, textLength, replaced).Error(0)
}
func (m *mockPublisher) PublishUserCreated(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}
func (m *mockPublisher) PublishUserDeleted(ctx context.Context, user *domain.User, itemsAffected int) error {
	return m.Called(ctx, user, itemsAffected).Error(0)
}

// --- Mock user repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepository) CountByRole(ctx context.Context, role string) (int, error) {
	args := m.Called(ctx, role)
	return args.Int(0), args.Error(1)
}

func (m *mockUserRepository) ApplyRatingDelta(ctx context.Context, userID string, sumDelta, countDelta int) (*domain.User, error) {
	args := m.Called(ctx, userID, sumDelta, countDelta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) UpsertReview(ctx context.Context, userID string, review domain.UserReview) error {
	return m.Called(ctx, userID, review).Error(0)
}

func (m *mockUserRepository) RemoveItemReferences(ctx context.Context, userIDs []string, itemID string) error {
	return m.Called(ctx, userIDs, itemID).Error(0)
}

// --- Harness over the in-memory store ---

type harness struct {
	items     *memory.ItemRepository
	users     *memory.UserRepository
	publisher *recordingPublisher
	jwt       *auth.JWTManager
	catalog   *CatalogService
	engage    *EngagementService
	userSvc   *UserService
	cascade   *Cascade
	locker    lock.Locker
	root      domain.Actor
}

func newHarness(t *testing.T, cache ItemCache) *harness {
	t.Helper()
	h := &harness{
		items:     memory.NewItemRepository(),
		users:     memory.NewUserRepository(),
		publisher: &recordingPublisher{},
		jwt:       auth.NewJWTManager("test-secret-that-is-long-enough-for-hs256", time.Minute, time.Hour),
	}
	locker := lock.NewLocal()
	h.locker = locker
	logger := discardLogger()

	h.cascade = NewCascade(h.items, h.users, locker, cache, h.publisher, logger)
	h.catalog = NewCatalogService(h.items, h.cascade, locker, cache, h.publisher, logger)
	h.engage = NewEngagementService(h.items, h.users, locker, cache, h.publisher, logger)
	h.userSvc = NewUserService(h.users, auth.Bcrypt{Cost: bcrypt.MinCost}, h.jwt, h.cascade, locker, h.publisher, logger)

	created, err := h.userSvc.EnsureAdmin(context.Background(), "root", "root-password")
	require.NoError(t, err)
	require.True(t, created)
	root, err := h.users.GetByUsername(context.Background(), "root")
	require.NoError(t, err)
	h.root = actorOf(root)
	return h
}

func actorOf(u *domain.User) domain.Actor {
	return domain.Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func (h *harness) addUser(t *testing.T, username, role string) domain.Actor {
	t.Helper()
	u, err := h.userSvc.AddUser(context.Background(), h.root, AddUserInput{Username: username, Password: "password-1", Role: role})
	require.NoError(t, err)
	return actorOf(u)
}

func (h *harness) addVinyl(t *testing.T, name string) *domain.Item {
	t.Helper()
	age, price := 50, 25.0
	item, err := h.catalog.AddItem(context.Background(), h.root, AddItemInput{
		Name:        name,
		Description: "original pressing",
		Price:       &price,
		Seller:      "Crate Diggers",
		Image:       "https://img.example.com/" + name + ".jpg",
		Category:    string(domain.CategoryVinyls),
		Attributes:  domain.AttributeSet{Age: &age},
	})
	require.NoError(t, err)
	return item
}

func (h *harness) item(t *testing.T, id string) *domain.Item {
	t.Helper()
	item, err := h.items.GetByID(context.Background(), id)
	require.NoError(t, err)
	return item
}

func (h *harness) user(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := h.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}
