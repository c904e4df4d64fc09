package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/radz2291/RZ-Property/internal/db"
	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/utils"
)

// ISiteContentRepository stores one raw document per content section.
type ISiteContentRepository interface {
	Get(ctx context.Context, section models.ContentSection) (*models.SiteContentRecord, error)
	Put(ctx context.Context, section models.ContentSection, content bson.Raw, at time.Time) error
}

type siteContentRepository struct {
	coll *mongo.Collection
}

func NewSiteContentRepository(database *mongo.Database) ISiteContentRepository {
	return &siteContentRepository{coll: database.Collection(db.SiteContentCollection)}
}

func (r *siteContentRepository) Get(ctx context.Context, section models.ContentSection) (*models.SiteContentRecord, error) {
	return db.FindOne[models.SiteContentRecord](ctx, r.coll, bson.M{"section": section}, "site content", string(section))
}

func (r *siteContentRepository) Put(ctx context.Context, section models.ContentSection, content bson.Raw, at time.Time) error {
	update := bson.M{
		"$set":         bson.M{"content": content, "updated_at": at},
		"$setOnInsert": bson.M{"_id": utils.NewSixID()},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"section": section}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store %s content: %w", section, err)
	}
	return nil
}
