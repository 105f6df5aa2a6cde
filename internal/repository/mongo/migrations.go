package mongo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mustafakutlankale/my-ecommerce-app/pkg/database"
)

// Migrations returns the schema migrations for the storefront database.
func Migrations() []database.Migration {
	return []database.Migration{
		{
			Version: "0001_users_indexes",
			Apply: database.CreateIndexes(UsersCollection,
				mongo.IndexModel{
					Keys:    bson.D{{Key: "username", Value: 1}},
					Options: options.Index().SetUnique(true).SetName("username_unique"),
				},
				mongo.IndexModel{Keys: bson.D{{Key: "role", Value: 1}}},
			),
		},
		{
			Version: "0002_items_indexes",
			Apply: database.CreateIndexes(ItemsCollection,
				mongo.IndexModel{Keys: bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}}},
				mongo.IndexModel{Keys: bson.D{{Key: "reviews.userId", Value: 1}}},
				mongo.IndexModel{
					Keys:    bson.D{{Key: "slug", Value: 1}},
					Options: options.Index().SetUnique(true).SetName("slug_unique"),
				},
			),
		},
		{
			Version: "0003_audit_indexes",
			Apply: database.CreateIndexes(AuditCollection,
				mongo.IndexModel{Keys: bson.D{{Key: "aggregateId", Value: 1}, {Key: "occurredAt", Value: -1}}},
				mongo.IndexModel{Keys: bson.D{{Key: "eventType", Value: 1}, {Key: "occurredAt", Value: -1}}},
			),
		},
	}
}
