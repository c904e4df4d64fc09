package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/radz2291/RZ-Property/internal/errs"
	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/utils"
)

// InsertOne assigns an id if the document has none and inserts it. A primary
// key collision regenerates the id and retries; other duplicate key errors
// (unique slug, username) are returned to the caller.
func InsertOne[T models.Record](ctx context.Context, coll *mongo.Collection, doc T) (T, error) {
	doc.EnsureID()
	attempt := 0
	err := WithRetries(func() error {
		if attempt > 0 {
			doc.RenewID()
		}
		attempt++
		_, insertErr := coll.InsertOne(ctx, doc)
		return insertErr
	}, DefaultMaxRetries, IsDuplicateIDError)
	if err != nil {
		return doc, fmt.Errorf("insert into %s: %w", coll.Name(), err)
	}
	return doc, nil
}

// FindOne decodes the first document matching filter. A missing document is
// reported as errs.NotFound(resource, id).
func FindOne[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, resource, id string, opts ...*options.FindOneOptions) (*T, error) {
	var out T
	err := coll.FindOne(ctx, filter, opts...).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound(resource, id)
		}
		return nil, fmt.Errorf("find %s %s: %w", resource, id, err)
	}
	return &out, nil
}

// FindMany decodes every document matching filter.
func FindMany[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s results: %w", coll.Name(), err)
	}
	return out, nil
}

// UpdateByID applies a $set patch to one document.
func UpdateByID(ctx context.Context, coll *mongo.Collection, id utils.SixID, resource string, set bson.M) error {
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update %s %s: %w", resource, id, err)
	}
	if res.MatchedCount == 0 {
		return errs.NotFound(resource, id.String())
	}
	return nil
}

// ReplaceByID overwrites one document.
func ReplaceByID(ctx context.Context, coll *mongo.Collection, id utils.SixID, resource string, doc interface{}) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return fmt.Errorf("replace %s %s: %w", resource, id, err)
	}
	if res.MatchedCount == 0 {
		return errs.NotFound(resource, id.String())
	}
	return nil
}

// DeleteByID removes one document.
func DeleteByID(ctx context.Context, coll *mongo.Collection, id utils.SixID, resource string) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", resource, id, err)
	}
	if res.DeletedCount == 0 {
		return errs.NotFound(resource, id.String())
	}
	return nil
}

// Count returns the number of documents matching filter.
func Count(ctx context.Context, coll *mongo.Collection, filter interface{}) (int64, error) {
	n, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count in %s: %w", coll.Name(), err)
	}
	return n, nil
}
