package database

import (
	"restate/config"
	"restate/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Indexes lists the secondary indexes the catalog and reconciler queries rely on.
func Indexes() map[string][]mongo.IndexModel {
	cfg := config.AppConfig
	return map[string][]mongo.IndexModel{
		cfg.BuildingsCollection: {
			{Keys: bson.D{{Key: models.FieldCreatedAt, Value: -1}}},
			{Keys: bson.D{{Key: models.BuildingFieldDetail, Value: 1}}},
		},
		cfg.DetailsCollection: {
			{Keys: bson.D{{Key: models.DetailsFieldType, Value: 1}, {Key: models.FieldCreatedAt, Value: 1}}},
		},
		cfg.ReviewsCollection: {
			{Keys: bson.D{{Key: models.ReviewFieldLinked, Value: 1}, {Key: models.ReviewFieldNextLinkAt, Value: 1}}},
		},
	}
}
