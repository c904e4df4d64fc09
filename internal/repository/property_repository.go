// Package repository holds the MongoDB record store adapters. Every
// repository is an interface so services can be tested with in-memory fakes.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/radz2291/RZ-Property/internal/db"
	"github.com/radz2291/RZ-Property/internal/errs"
	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/query"
	"github.com/radz2291/RZ-Property/internal/utils"
)

// IPropertyRepository stores properties.
type IPropertyRepository interface {
	query.PropertyFinder

	Insert(ctx context.Context, p *models.Property) (*models.Property, error)
	Replace(ctx context.Context, p *models.Property) error
	FindByID(ctx context.Context, id utils.SixID) (*models.Property, error)
	FindBySlug(ctx context.Context, slug string) (*models.Property, error)
	SlugExists(ctx context.Context, slug string, excludeID utils.SixID) (bool, error)
	SetStatus(ctx context.Context, id utils.SixID, status models.PropertyStatus, at time.Time) error
	SetFeatured(ctx context.Context, id utils.SixID, featured bool, at time.Time) error
	// IncrementViews atomically bumps view_count of the public property with
	// slug and returns the updated record.
	IncrementViews(ctx context.Context, slug string) (*models.Property, error)
	Delete(ctx context.Context, id utils.SixID) error
	FindWithoutGallery(ctx context.Context) ([]models.Property, error)
	Stats(ctx context.Context) (*PropertyStats, error)
}

// PropertyStats feeds the analytics dashboard.
type PropertyStats struct {
	Total      int64                           `json:"total"`
	ByStatus   map[models.PropertyStatus]int64 `json:"byStatus"`
	TotalViews int64                           `json:"totalViews"`
}

type propertyRepository struct {
	coll *mongo.Collection
}

// NewPropertyRepository returns the MongoDB property repository.
func NewPropertyRepository(database *mongo.Database) IPropertyRepository {
	return &propertyRepository{coll: database.Collection(db.PropertiesCollection)}
}

func (r *propertyRepository) Insert(ctx context.Context, p *models.Property) (*models.Property, error) {
	return db.InsertOne(ctx, r.coll, p)
}

func (r *propertyRepository) Replace(ctx context.Context, p *models.Property) error {
	return db.ReplaceByID(ctx, r.coll, p.ID, "property", p)
}

func (r *propertyRepository) FindByID(ctx context.Context, id utils.SixID) (*models.Property, error) {
	return db.FindOne[models.Property](ctx, r.coll, bson.M{"_id": id}, "property", id.String())
}

func (r *propertyRepository) FindBySlug(ctx context.Context, slug string) (*models.Property, error) {
	return db.FindOne[models.Property](ctx, r.coll, bson.M{"slug": slug}, "property", slug)
}

func (r *propertyRepository) SlugExists(ctx context.Context, slug string, excludeID utils.SixID) (bool, error) {
	filter := bson.M{"slug": slug}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check slug %q: %w", slug, err)
	}
	return n > 0, nil
}

func (r *propertyRepository) FindProperties(ctx context.Context, spec query.Spec) ([]models.Property, error) {
	opts := options.Find().SetSort(query.MongoSort(spec.Sort))
	if spec.Limit > 0 {
		opts.SetLimit(spec.Limit)
	}
	return db.FindMany[models.Property](ctx, r.coll, query.MongoFilter(spec), opts)
}

func (r *propertyRepository) SetStatus(ctx context.Context, id utils.SixID, status models.PropertyStatus, at time.Time) error {
	return db.UpdateByID(ctx, r.coll, id, "property", bson.M{"status": status, "updated_at": at})
}

func (r *propertyRepository) SetFeatured(ctx context.Context, id utils.SixID, featured bool, at time.Time) error {
	return db.UpdateByID(ctx, r.coll, id, "property", bson.M{"is_featured": featured, "updated_at": at})
}

func (r *propertyRepository) IncrementViews(ctx context.Context, slug string) (*models.Property, error) {
	filter := bson.M{"slug": slug, "status": bson.M{"$nin": models.NonPublicStatuses}}
	update := bson.M{"$inc": bson.M{"view_count": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Property
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound("property", slug)
		}
		return nil, fmt.Errorf("increment views of %s: %w", slug, err)
	}
	return &p, nil
}

func (r *propertyRepository) Delete(ctx context.Context, id utils.SixID) error {
	return db.DeleteByID(ctx, r.coll, id, "property")
}

func (r *propertyRepository) FindWithoutGallery(ctx context.Context) ([]models.Property, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"property_images": bson.M{"$exists": false}},
		bson.M{"property_images": nil},
		bson.M{"property_images": bson.M{"$size": 0}},
	}}
	return db.FindMany[models.Property](ctx, r.coll, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *propertyRepository) Stats(ctx context.Context) (*PropertyStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
			"views": bson.M{"$sum": "$view_count"},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate property stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.PropertyStatus `bson:"_id"`
		Count  int64                 `bson:"count"`
		Views  int64                 `bson:"views"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode property stats: %w", err)
	}

	stats := &PropertyStats{ByStatus: map[models.PropertyStatus]int64{}}
	for _, s := range models.AllStatuses {
		stats.ByStatus[s] = 0
	}
	for _, row := range rows {
		stats.Total += row.Count
		stats.TotalViews += row.Views
		stats.ByStatus[row.Status] = row.Count
	}
	return stats, nil
}
