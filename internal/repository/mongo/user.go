package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/database"
	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
)

type userDoc struct {
	ID                primitive.ObjectID `bson:"_id"`
	Username          string             `bson:"username"`
	Password          string             `bson:"password,omitempty"`
	Role              string             `bson:"role"`
	SumRatingsGiven   int                `bson:"sumRatingsGiven"`
	TotalRatingsGiven int                `bson:"totalRatingsGiven"`
	AverageRating     float64            `bson:"averageRating"`
	Reviews           []userReviewDoc    `bson:"reviews"`
	CreatedAt         time.Time          `bson:"createdAt"`
}

type userReviewDoc struct {
	ItemID   primitive.ObjectID `bson:"itemId"`
	ItemName string             `bson:"itemName"`
	Text     string             `bson:"text"`
	Date     time.Time          `bson:"date"`
}

func (d *userDoc) toDomain() *domain.User {
	u := &domain.User{
		ID:                d.ID.Hex(),
		Username:          d.Username,
		PasswordHash:      d.Password,
		Role:              d.Role,
		SumRatingsGiven:   d.SumRatingsGiven,
		TotalRatingsGiven: d.TotalRatingsGiven,
		AverageRating:     d.AverageRating,
		Reviews:           make([]domain.UserReview, 0, len(d.Reviews)),
		CreatedAt:         d.CreatedAt,
	}
	for _, r := range d.Reviews {
		u.Reviews = append(u.Reviews, domain.UserReview{ItemID: r.ItemID.Hex(), ItemName: r.ItemName, Text: r.Text, Date: r.Date})
	}
	return u
}

// withoutPassword is the projection used wherever a hash is not needed.
var withoutPassword = bson.M{"password": 0}

// UserRepository implements repository.UserRepository using MongoDB.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a user repository on db.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(UsersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (err error) {
	ctx, end := database.TraceQuery(ctx, UsersCollection, "Create")
	defer func() { end(err) }()

	id := primitive.NewObjectID()
	doc := userDoc{
		ID:                id,
		Username:          user.Username,
		Password:          user.PasswordHash,
		Role:              user.Role,
		SumRatingsGiven:   user.SumRatingsGiven,
		TotalRatingsGiven: user.TotalRatingsGiven,
		AverageRating:     user.AverageRating,
		Reviews:           []userReviewDoc{},
		CreatedAt:         user.CreatedAt,
	}
	if _, err = r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.AlreadyExists("user", "username", user.Username)
		}
		return apperrors.Storage("users.insert", err)
	}
	user.ID = id.Hex()
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (_ *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, UsersCollection, "GetByID")
	defer func() { end(err) }()

	oid, err := objectID("user", id)
	if err != nil {
		return nil, err
	}
	var doc userDoc
	if err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate("users.find", "user", id, err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (_ *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, UsersCollection, "GetByUsername")
	defer func() { end(err) }()

	var doc userDoc
	if err = r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		return nil, translate("users.find", "user", username, err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context) (_ []domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, UsersCollection, "List")
	defer func() { end(err) }()

	opts := options.Find().SetProjection(withoutPassword).SetSort(bson.D{{Key: "username", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperrors.Storage("users.find", err)
	}
	var docs []userDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, apperrors.Storage("users.decode", err)
	}

	out := make([]domain.User, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain().Sanitized())
	}
	return out, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, UsersCollection, "Delete")
	defer func() { end(err) }()

	oid, err := objectID("user", id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return apperrors.Storage("users.delete", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("user", id)
	}
	return nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role string) (_ int, err error) {
	ctx, end := database.TraceQuery(ctx, UsersCollection, "CountByRole")
	defer func() { end(err) }()

	n, err := r.coll.CountDocuments(ctx, bson.M{"role": role})
	if err != nil {
		return 0, apperrors.Storage("users.count", err)
	}
	return int(n), nil
}

// ApplyRatingDelta runs as one pipeline update so the average is derived
// from the post-increment counters.
func (r *UserRepository) ApplyRatingDelta(ctx context.Context, userID string, sumDelta, countDelta int) (_ *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, UsersCollection, "ApplyRatingDelta")
	defer func() { end(err) }()

	oid, err := objectID("user", userID)
	if err != nil {
		return nil, err
	}

	orZero := func(field string) bson.D {
		return bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, 0}}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "sumRatingsGiven", Value: bson.D{{Key: "$add", Value: bson.A{orZero("sumRatingsGiven"), sumDelta}}}},
			{Key: "totalRatingsGiven", Value: bson.D{{Key: "$add", Value: bson.A{orZero("totalRatingsGiven"), countDelta}}}},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "averageRating", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$gt", Value: bson.A{"$totalRatingsGiven", 0}}},
				bson.D{{Key: "$divide", Value: bson.A{"$sumRatingsGiven", "$totalRatingsGiven"}}},
				0,
			}}}},
		}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(withoutPassword)

	var doc userDoc
	if err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, pipeline, opts).Decode(&doc); err != nil {
		return nil, translate("users.update", "user", userID, err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) UpsertReview(ctx context.Context, userID string, review domain.UserReview) (err error) {
	ctx, end := database.TraceQuery(ctx, UsersCollection, "UpsertReview")
	defer func() { end(err) }()

	oid, err := objectID("user", userID)
	if err != nil {
		return err
	}
	iid, err := objectID("item", review.ItemID)
	if err != nil {
		return err
	}
	entry := userReviewDoc{ItemID: iid, ItemName: review.ItemName, Text: review.Text, Date: review.Date}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "reviews.itemId": iid},
		bson.M{"$set": bson.M{"reviews.$": entry}},
	)
	if err != nil {
		return apperrors.Storage("users.update", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	res, err = r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "reviews.itemId": bson.M{"$ne": iid}},
		bson.M{"$push": bson.M{"reviews": entry}},
	)
	if err != nil {
		return apperrors.Storage("users.update", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user", userID)
	}
	return nil
}

func (r *UserRepository) RemoveItemReferences(ctx context.Context, userIDs []string, itemID string) (err error) {
	ctx, end := database.TraceQuery(ctx, UsersCollection, "RemoveItemReferences")
	defer func() { end(err) }()

	iid, err := objectID("item", itemID)
	if err != nil {
		return err
	}
	oids := make([]primitive.ObjectID, 0, len(userIDs))
	for _, id := range userIDs {
		if oid, perr := primitive.ObjectIDFromHex(id); perr == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return nil
	}

	if _, err = r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": oids}},
		bson.M{"$pull": bson.M{"reviews": bson.M{"itemId": iid}}},
	); err != nil {
		return apperrors.Storage("users.update", err)
	}
	return nil
}
