// Package mongo implements the repositories on MongoDB. Items and users are
// separate collections linked by embedded back-references; every review
// mutation is a single-document update.
package mongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
)

// Collection names.
const (
	ItemsCollection = "items"
	UsersCollection = "users"
	AuditCollection = "audit_events"
)

// objectID parses a hex id. Ids that cannot exist in the store are reported
// as not found.
func objectID(resource, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperrors.NotFound(resource, id)
	}
	return oid, nil
}

// translate maps driver errors onto the application taxonomy.
func translate(op, resource, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperrors.NotFound(resource, id)
	default:
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperrors.Storage(op, err)
	}
}

func aggregateSet(agg domain.RatingAggregate) bson.M {
	return bson.M{
		"ratingSum":     agg.Sum,
		"reviewerCount": agg.Count,
		"avgRating":     agg.Avg,
	}
}
