package mongo

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/database"
	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/pagination"
)

type itemDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	Name          string             `bson:"name"`
	Slug          string             `bson:"slug"`
	Description   string             `bson:"description"`
	Price         float64            `bson:"price"`
	Seller        string             `bson:"seller"`
	Image         string             `bson:"image"`
	Category      string             `bson:"category"`
	BatteryLife   *string            `bson:"batteryLife,omitempty"`
	Age           *int               `bson:"age,omitempty"`
	Size          *string            `bson:"size,omitempty"`
	Material      *string            `bson:"material,omitempty"`
	RatingSum     int                `bson:"ratingSum"`
	ReviewerCount int                `bson:"reviewerCount"`
	AvgRating     float64            `bson:"avgRating"`
	Reviews       []itemReviewDoc    `bson:"reviews"`
	CreatedAt     time.Time          `bson:"createdAt"`
}

type itemReviewDoc struct {
	UserID   primitive.ObjectID `bson:"userId"`
	Username string             `bson:"username"`
	Rating   *int               `bson:"rating,omitempty"`
	Text     string             `bson:"text,omitempty"`
	Date     time.Time          `bson:"date"`
}

func (d *itemDoc) toDomain() *domain.Item {
	item := &domain.Item{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Slug:        d.Slug,
		Description: d.Description,
		Price:       d.Price,
		Seller:      d.Seller,
		Image:       d.Image,
		Category:    domain.Category(d.Category),
		Attributes: domain.AttributeSet{
			BatteryLife: d.BatteryLife,
			Age:         d.Age,
			Size:        d.Size,
			Material:    d.Material,
		},
		RatingSum:     d.RatingSum,
		ReviewerCount: d.ReviewerCount,
		AvgRating:     d.AvgRating,
		Reviews:       make([]domain.ItemReview, 0, len(d.Reviews)),
		CreatedAt:     d.CreatedAt,
	}
	for _, r := range d.Reviews {
		item.Reviews = append(item.Reviews, domain.ItemReview{
			UserID:   r.UserID.Hex(),
			Username: r.Username,
			Rating:   r.Rating,
			Text:     r.Text,
			Date:     r.Date,
		})
	}
	return item
}

func itemFromDomain(item *domain.Item, id primitive.ObjectID) (*itemDoc, error) {
	d := &itemDoc{
		ID:            id,
		Name:          item.Name,
		Slug:          item.Slug,
		Description:   item.Description,
		Price:         item.Price,
		Seller:        item.Seller,
		Image:         item.Image,
		Category:      string(item.Category),
		BatteryLife:   item.Attributes.BatteryLife,
		Age:           item.Attributes.Age,
		Size:          item.Attributes.Size,
		Material:      item.Attributes.Material,
		RatingSum:     item.RatingSum,
		ReviewerCount: item.ReviewerCount,
		AvgRating:     item.AvgRating,
		Reviews:       make([]itemReviewDoc, 0, len(item.Reviews)),
		CreatedAt:     item.CreatedAt,
	}
	for _, r := range item.Reviews {
		uid, err := objectID("user", r.UserID)
		if err != nil {
			return nil, err
		}
		d.Reviews = append(d.Reviews, itemReviewDoc{UserID: uid, Username: r.Username, Rating: r.Rating, Text: r.Text, Date: r.Date})
	}
	return d, nil
}

// ItemRepository implements repository.ItemRepository using MongoDB.
type ItemRepository struct {
	coll *mongo.Collection
}

// NewItemRepository creates an item repository on db.
func NewItemRepository(db *mongo.Database) *ItemRepository {
	return &ItemRepository{coll: db.Collection(ItemsCollection)}
}

func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) (err error) {
	ctx, end := database.TraceQuery(ctx, ItemsCollection, "Create")
	defer func() { end(err) }()

	id := primitive.NewObjectID()
	if item.ID != "" {
		if id, err = objectID("item", item.ID); err != nil {
			return apperrors.InvalidInput("invalid item id " + item.ID)
		}
	}
	doc, err := itemFromDomain(item, id)
	if err != nil {
		return err
	}

	if _, err = r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.AlreadyExists("item", "slug", item.Slug)
		}
		return apperrors.Storage("items.insert", err)
	}
	item.ID = id.Hex()
	return nil
}

func (r *ItemRepository) GetByID(ctx context.Context, id string) (_ *domain.Item, err error) {
	ctx, end := database.TraceQuery(ctx, ItemsCollection, "GetByID")
	defer func() { end(err) }()

	oid, err := objectID("item", id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid}, id)
}

func (r *ItemRepository) GetBySlug(ctx context.Context, slug string) (_ *domain.Item, err error) {
	ctx, end := database.TraceQuery(ctx, ItemsCollection, "GetBySlug")
	defer func() { end(err) }()

	return r.findOne(ctx, bson.M{"slug": slug}, slug)
}

func (r *ItemRepository) findOne(ctx context.Context, filter bson.M, key string) (*domain.Item, error) {
	var doc itemDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate("items.find", "item", key, err)
	}
	return doc.toDomain(), nil
}

func listFilter(filter domain.ItemFilter) bson.M {
	f := bson.M{}
	if filter.Category != nil {
		f["category"] = string(*filter.Category)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		f["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	}
	return f
}

func (r *ItemRepository) List(ctx context.Context, filter domain.ItemFilter, page pagination.Params) (_ []domain.Item, _ int, err error) {
	ctx, end := database.TraceQuery(ctx, ItemsCollection, "List")
	defer func() { end(err) }()

	f := listFilter(filter)
	total, err := r.coll.CountDocuments(ctx, f)
	if err != nil {
		return nil, 0, apperrors.Storage("items.count", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.PerPage))
	cur, err := r.coll.Find(ctx, f, opts)
	if err != nil {
		return nil, 0, apperrors.Storage("items.find", err)
	}
	items, err := decodeItems(ctx, cur)
	if err != nil {
		return nil, 0, err
	}
	return items, int(total), nil
}

func decodeItems(ctx context.Context, cur *mongo.Cursor) ([]domain.Item, error) {
	var docs []itemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperrors.Storage("items.decode", err)
	}
	out := make([]domain.Item, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].toDomain())
	}
	return out, nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, ItemsCollection, "Delete")
	defer func() { end(err) }()

	oid, err := objectID("item", id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return apperrors.Storage("items.delete", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("item", id)
	}
	return nil
}

// upsertEntry sets fields on the entry of uid when one exists, else pushes
// entry. Both branches also apply extra to the document root.
func (r *ItemRepository) upsertEntry(ctx context.Context, itemID string, uid primitive.ObjectID, fields bson.M, entry itemReviewDoc, extra bson.M) error {
	oid, err := objectID("item", itemID)
	if err != nil {
		return err
	}

	set := bson.M{}
	for k, v := range fields {
		set["reviews.$."+k] = v
	}
	for k, v := range extra {
		set[k] = v
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid, "reviews.userId": uid}, bson.M{"$set": set})
	if err != nil {
		return apperrors.Storage("items.update", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	update := bson.M{"$push": bson.M{"reviews": entry}}
	if len(extra) > 0 {
		update["$set"] = extra
	}
	res, err = r.coll.UpdateOne(ctx, bson.M{"_id": oid, "reviews.userId": bson.M{"$ne": uid}}, update)
	if err != nil {
		return apperrors.Storage("items.update", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("item", itemID)
	}
	return nil
}

func (r *ItemRepository) UpsertRating(ctx context.Context, itemID string, review domain.ItemReview, agg domain.RatingAggregate) (err error) {
	ctx, end := database.TraceQuery(ctx, ItemsCollection, "UpsertRating")
	defer func() { end(err) }()

	uid, err := objectID("user", review.UserID)
	if err != nil {
		return err
	}
	return r.upsertEntry(ctx, itemID, uid,
		bson.M{"rating": review.Rating, "username": review.Username, "date": review.Date},
		itemReviewDoc{UserID: uid, Username: review.Username, Rating: review.Rating, Date: review.Date},
		aggregateSet(agg),
	)
}

func (r *ItemRepository) UpsertReviewText(ctx context.Context, itemID string, review domain.ItemReview) (err error) {
	ctx, end := database.TraceQuery(ctx, ItemsCollection, "UpsertReviewText")
	defer func() { end(err) }()

	uid, err := objectID("user", review.UserID)
	if err != nil {
		return err
	}
	return r.upsertEntry(ctx, itemID, uid,
		bson.M{"text": review.Text, "username": review.Username, "date": review.Date},
		itemReviewDoc{UserID: uid, Username: review.Username, Text: review.Text, Date: review.Date},
		nil,
	)
}

func (r *ItemRepository) RemoveReviewer(ctx context.Context, itemID, userID string, agg domain.RatingAggregate) (err error) {
	ctx, end := database.TraceQuery(ctx, ItemsCollection, "RemoveReviewer")
	defer func() { end(err) }()

	oid, err := objectID("item", itemID)
	if err != nil {
		return err
	}
	uid, err := objectID("user", userID)
	if err != nil {
		return err
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$pull": bson.M{"reviews": bson.M{"userId": uid}},
		"$set":  aggregateSet(agg),
	})
	if err != nil {
		return apperrors.Storage("items.update", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("item", itemID)
	}
	return nil
}

func (r *ItemRepository) ListReviewedBy(ctx context.Context, userID string) (_ []domain.Item, err error) {
	ctx, end := database.TraceQuery(ctx, ItemsCollection, "ListReviewedBy")
	defer func() { end(err) }()

	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"reviews.userId": uid}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, apperrors.Storage("items.find", err)
	}
	return decodeItems(ctx, cur)
}
