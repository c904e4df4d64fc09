package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/radz2291/RZ-Property/internal/db"
	"github.com/radz2291/RZ-Property/internal/models"
)

// IPageViewRepository records detail page views.
type IPageViewRepository interface {
	Record(ctx context.Context, v *models.PageView) error
	TopProperties(ctx context.Context, limit int) ([]models.PropertyViewCount, error)
}

type pageViewRepository struct {
	coll *mongo.Collection
}

func NewPageViewRepository(database *mongo.Database) IPageViewRepository {
	return &pageViewRepository{coll: database.Collection(db.PageViewsCollection)}
}

func (r *pageViewRepository) Record(ctx context.Context, v *models.PageView) error {
	_, err := db.InsertOne(ctx, r.coll, v)
	return err
}

func (r *pageViewRepository) TopProperties(ctx context.Context, limit int) ([]models.PropertyViewCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$property_id", "views": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "views", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         db.PropertiesCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "property",
		}}},
		{{Key: "$unwind", Value: "$property"}},
		{{Key: "$project", Value: bson.M{
			"views": 1,
			"title": "$property.title",
			"slug":  "$property.slug",
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate top viewed properties: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.PropertyViewCount{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode top viewed properties: %w", err)
	}
	return out, nil
}
