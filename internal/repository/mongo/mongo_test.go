package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/pagination"
)

const (
	itemsNS = "test.items"
	usersNS = "test.users"
)

func newMock(t *testing.T) *mtest.T {
	t.Helper()
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func updated(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func intPtr(v int) *int { return &v }

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

func TestItemRepository_GetByID(t *testing.T) {
	mt := newMock(t)
	id := primitive.NewObjectID()
	uid := primitive.NewObjectID()

	mt.Run("found", func(mt *mtest.T) {
		repo := NewItemRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, itemsNS, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Kind of Blue"},
			{Key: "category", Value: "Vinyls"},
			{Key: "age", Value: 65},
			{Key: "ratingSum", Value: 8},
			{Key: "reviewerCount", Value: 1},
			{Key: "avgRating", Value: 8.0},
			{Key: "reviews", Value: bson.A{bson.D{
				{Key: "userId", Value: uid},
				{Key: "username", Value: "alice"},
				{Key: "rating", Value: 8},
			}}},
		}))

		item, err := repo.GetByID(context.Background(), id.Hex())
		require.NoError(t, err)
		assert.Equal(t, id.Hex(), item.ID)
		assert.Equal(t, domain.CategoryVinyls, item.Category)
		require.NotNil(t, item.Attributes.Age)
		assert.Equal(t, 65, *item.Attributes.Age)
		require.Len(t, item.Reviews, 1)
		assert.Equal(t, uid.Hex(), item.Reviews[0].UserID)
		assert.Equal(t, 8, *item.Reviews[0].Rating)
		assert.Empty(t, item.Reviews[0].Text)
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewItemRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, itemsNS, mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), id.Hex())
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	mt.Run("malformed id never reaches the store", func(mt *mtest.T) {
		repo := NewItemRepository(mt.DB)
		_, err := repo.GetByID(context.Background(), "nope")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.Nil(t, mt.GetStartedEvent())
	})

	mt.Run("driver failure is a storage error", func(mt *mtest.T) {
		repo := NewItemRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized"}))

		_, err := repo.GetByID(context.Background(), id.Hex())
		assert.ErrorIs(t, err, apperrors.ErrStorage)
	})
}

func TestItemRepository_Create(t *testing.T) {
	mt := newMock(t)

	mt.Run("assigns id", func(mt *mtest.T) {
		repo := NewItemRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		item := &domain.Item{Name: "Forerunner 965", Slug: "forerunner-965", Category: domain.CategoryGPSSportWatches}
		require.NoError(t, repo.Create(context.Background(), item))
		assert.True(t, primitive.IsValidObjectID(item.ID))

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "insert", started.CommandName)
	})

	mt.Run("duplicate slug", func(mt *mtest.T) {
		repo := NewItemRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := repo.Create(context.Background(), &domain.Item{Name: "x", Slug: "x"})
		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	})
}

func TestItemRepository_List(t *testing.T) {
	mt := newMock(t)

	mt.Run("counts and pages", func(mt *mtest.T) {
		repo := NewItemRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, itemsNS, mtest.FirstBatch, bson.D{{Key: "n", Value: 3}}),
			mtest.CreateCursorResponse(0, itemsNS, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "Blue Train"}},
			),
		)

		vinyls := domain.CategoryVinyls
		items, total, err := repo.List(context.Background(), domain.ItemFilter{Category: &vinyls, Query: "blue (mono)"}, pagination.Params{Page: 2, PerPage: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, items, 1)
		assert.Equal(t, "Blue Train", items[0].Name)
		assert.NotNil(t, items[0].Reviews)

		mt.GetStartedEvent() // aggregate for the count
		find := mt.GetStartedEvent()
		require.NotNil(t, find)
		assert.Equal(t, "find", find.CommandName)
		assert.Equal(t, int64(2), find.Command.Lookup("skip").AsInt64())
		assert.Equal(t, int64(2), find.Command.Lookup("limit").AsInt64())
		assert.Equal(t, "Vinyls", find.Command.Lookup("filter", "category").StringValue())
		pattern, opts := find.Command.Lookup("filter", "name").Regex()
		assert.Equal(t, `blue \(mono\)`, pattern)
		assert.Equal(t, "i", opts)
	})
}

func TestItemRepository_UpsertRating(t *testing.T) {
	mt := newMock(t)
	itemID := primitive.NewObjectID().Hex()
	userID := primitive.NewObjectID().Hex()
	review := domain.ItemReview{UserID: userID, Username: "alice", Rating: intPtr(8), Date: time.Now().UTC()}
	agg := domain.RatingAggregate{Sum: 8, Count: 1, Avg: 8}

	mt.Run("updates existing entry in place", func(mt *mtest.T) {
		repo := NewItemRepository(mt.DB)
		mt.AddMockResponses(updated(1))

		require.NoError(t, repo.UpsertRating(context.Background(), itemID, review, agg))

		started := mt.GetStartedEvent()
		set := started.Command.Lookup("updates").Array().Index(0).Value().Document().Lookup("u", "$set").Document()
		assert.Equal(t, int32(8), set.Lookup("reviews.$.rating").Int32())
		assert.Equal(t, int32(8), set.Lookup("ratingSum").Int32())
		assert.Equal(t, 8.0, set.Lookup("avgRating").Double())
		_, hasText := set.Lookup("reviews.$.text").StringValueOK()
		assert.False(t, hasText, "text is left untouched")
	})

	mt.Run("pushes a new entry", func(mt *mtest.T) {
		repo := NewItemRepository(mt.DB)
		mt.AddMockResponses(updated(0), updated(1))

		require.NoError(t, repo.UpsertRating(context.Background(), itemID, review, agg))

		mt.GetStartedEvent()
		push := mt.GetStartedEvent()
		u := push.Command.Lookup("updates").Array().Index(0).Value().Document().Lookup("u").Document()
		assert.Equal(t, "alice", u.Lookup("$push", "reviews", "username").StringValue())
		assert.Equal(t, int32(1), u.Lookup("$set", "reviewerCount").Int32())
	})

	mt.Run("missing item", func(mt *mtest.T) {
		repo := NewItemRepository(mt.DB)
		mt.AddMockResponses(updated(0), updated(0))

		err := repo.UpsertRating(context.Background(), itemID, review, agg)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestItemRepository_RemoveReviewerAndDelete(t *testing.T) {
	mt := newMock(t)
	itemID := primitive.NewObjectID().Hex()
	userID := primitive.NewObjectID().Hex()

	mt.Run("remove reviewer", func(mt *mtest.T) {
		repo := NewItemRepository(mt.DB)
		mt.AddMockResponses(updated(1))
		require.NoError(t, repo.RemoveReviewer(context.Background(), itemID, userID, domain.RatingAggregate{Sum: 4, Count: 1, Avg: 4}))

		started := mt.GetStartedEvent()
		u := started.Command.Lookup("updates").Array().Index(0).Value().Document().Lookup("u").Document()
		assert.Equal(t, userID, u.Lookup("$pull", "reviews", "userId").ObjectID().Hex())
		assert.Equal(t, int32(4), u.Lookup("$set", "ratingSum").Int32())
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		repo := NewItemRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		assert.ErrorIs(t, repo.Delete(context.Background(), itemID), apperrors.ErrNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewItemRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		assert.NoError(t, repo.Delete(context.Background(), itemID))
	})
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func TestUserRepository_Create(t *testing.T) {
	mt := newMock(t)

	mt.Run("duplicate username", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}))

		err := repo.Create(context.Background(), &domain.User{Username: "alice", Role: domain.RoleUser})
		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	})

	mt.Run("stores hash and zeroed aggregates", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u := &domain.User{Username: "alice", PasswordHash: "$2a$10$x", Role: domain.RoleUser}
		require.NoError(t, repo.Create(context.Background(), u))
		assert.NotEmpty(t, u.ID)

		doc := mt.GetStartedEvent().Command.Lookup("documents").Array().Index(0).Value().Document()
		assert.Equal(t, "$2a$10$x", doc.Lookup("password").StringValue())
		assert.Equal(t, int32(0), doc.Lookup("totalRatingsGiven").Int32())
		reviews, err := doc.Lookup("reviews").Array().Values()
		require.NoError(t, err)
		assert.Empty(t, reviews)
	})
}

func TestUserRepository_ListProjectsPasswordOff(t *testing.T) {
	mt := newMock(t)

	mt.Run("list", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "username", Value: "root"}, {Key: "role", Value: "admin"}, {Key: "password", Value: "leaked"}},
		))

		users, err := repo.List(context.Background())
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Empty(t, users[0].PasswordHash)

		find := mt.GetStartedEvent()
		assert.Equal(t, int32(0), find.Command.Lookup("projection", "password").Int32())
	})
}

func TestUserRepository_ApplyRatingDelta(t *testing.T) {
	mt := newMock(t)
	uid := primitive.NewObjectID()

	mt.Run("returns updated counters", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: uid},
			{Key: "username", Value: "alice"},
			{Key: "sumRatingsGiven", Value: 14},
			{Key: "totalRatingsGiven", Value: 2},
			{Key: "averageRating", Value: 7.0},
		}}))

		u, err := repo.ApplyRatingDelta(context.Background(), uid.Hex(), 2, 0)
		require.NoError(t, err)
		assert.Equal(t, 14, u.SumRatingsGiven)
		assert.Equal(t, 7.0, u.AverageRating)

		cmd := mt.GetStartedEvent()
		assert.Equal(t, "findAndModify", cmd.CommandName)
		_, isPipeline := cmd.Command.Lookup("update").ArrayOK()
		assert.True(t, isPipeline)
	})

	mt.Run("missing user", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.ApplyRatingDelta(context.Background(), uid.Hex(), 8, 1)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestUserRepository_CountAndReferences(t *testing.T) {
	mt := newMock(t)

	mt.Run("count admins", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}))

		n, err := repo.CountByRole(context.Background(), domain.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	mt.Run("remove references skips bad ids", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(updated(1))

		good := primitive.NewObjectID().Hex()
		require.NoError(t, repo.RemoveItemReferences(context.Background(), []string{good, "bad"}, primitive.NewObjectID().Hex()))

		cmd := mt.GetStartedEvent()
		in := cmd.Command.Lookup("updates").Array().Index(0).Value().Document().Lookup("q", "_id", "$in").Array()
		values, err := in.Values()
		require.NoError(t, err)
		assert.Len(t, values, 1)
	})

	mt.Run("remove references with no valid ids is a no-op", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		require.NoError(t, repo.RemoveItemReferences(context.Background(), []string{"bad"}, primitive.NewObjectID().Hex()))
		assert.Nil(t, mt.GetStartedEvent())
	})

	mt.Run("upsert review pushes on miss", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(updated(0), updated(1))

		err := repo.UpsertReview(context.Background(), primitive.NewObjectID().Hex(), domain.UserReview{
			ItemID: primitive.NewObjectID().Hex(), ItemName: "Blue Train", Text: "great", Date: time.Now().UTC(),
		})
		require.NoError(t, err)
	})
}

// ---------------------------------------------------------------------------
// Audit
// ---------------------------------------------------------------------------

func TestAuditRepository_RecordIgnoresReplays(t *testing.T) {
	mt := newMock(t)

	mt.Run("duplicate event id", func(mt *mtest.T) {
		repo := NewAuditRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := repo.Record(context.Background(), &domain.AuditEntry{EventID: "e1", EventType: "item.rated"})
		assert.NoError(t, err)
	})

	mt.Run("list", func(mt *mtest.T) {
		repo := NewAuditRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.audit_events", mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
			mtest.CreateCursorResponse(0, "test.audit_events", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: "e1"},
				{Key: "eventType", Value: "item.rated"},
				{Key: "aggregateId", Value: "i1"},
				{Key: "payload", Value: `{"rating":8}`},
			}),
		)

		entries, total, err := repo.List(context.Background(), domain.AuditFilter{AggregateID: "i1"}, pagination.DefaultParams())
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, entries, 1)
		assert.JSONEq(t, `{"rating":8}`, string(entries[0].Payload))
	})
}

func TestMigrations_VersionsAreUniqueAndOrdered(t *testing.T) {
	seen := map[string]bool{}
	prev := ""
	for _, m := range Migrations() {
		assert.False(t, seen[m.Version], m.Version)
		assert.Greater(t, m.Version, prev)
		seen[m.Version] = true
		prev = m.Version
	}
}
