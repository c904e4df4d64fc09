package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/radz2291/RZ-Property/internal/db"
	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/utils"
)

// IInquiryRepository stores inquiries.
type IInquiryRepository interface {
	Insert(ctx context.Context, inq *models.Inquiry) (*models.Inquiry, error)
	FindByID(ctx context.Context, id utils.SixID) (*models.Inquiry, error)
	// List returns inquiries newest first, optionally narrowed to status.
	List(ctx context.Context, status *models.InquiryStatus, limit int64) ([]models.Inquiry, error)
	UpdateStatus(ctx context.Context, id utils.SixID, status models.InquiryStatus, at time.Time) error
	Delete(ctx context.Context, id utils.SixID) error
	Count(ctx context.Context, status *models.InquiryStatus) (int64, error)
}

type inquiryRepository struct {
	coll *mongo.Collection
}

func NewInquiryRepository(database *mongo.Database) IInquiryRepository {
	return &inquiryRepository{coll: database.Collection(db.InquiriesCollection)}
}

func (r *inquiryRepository) Insert(ctx context.Context, inq *models.Inquiry) (*models.Inquiry, error) {
	return db.InsertOne(ctx, r.coll, inq)
}

func (r *inquiryRepository) FindByID(ctx context.Context, id utils.SixID) (*models.Inquiry, error) {
	return db.FindOne[models.Inquiry](ctx, r.coll, bson.M{"_id": id}, "inquiry", id.String())
}

func statusFilter(status *models.InquiryStatus) bson.M {
	if status == nil {
		return bson.M{}
	}
	return bson.M{"status": *status}
}

func (r *inquiryRepository) List(ctx context.Context, status *models.InquiryStatus, limit int64) ([]models.Inquiry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return db.FindMany[models.Inquiry](ctx, r.coll, statusFilter(status), opts)
}

func (r *inquiryRepository) UpdateStatus(ctx context.Context, id utils.SixID, status models.InquiryStatus, at time.Time) error {
	return db.UpdateByID(ctx, r.coll, id, "inquiry", bson.M{"status": status, "updated_at": at})
}

func (r *inquiryRepository) Delete(ctx context.Context, id utils.SixID) error {
	return db.DeleteByID(ctx, r.coll, id, "inquiry")
}

func (r *inquiryRepository) Count(ctx context.Context, status *models.InquiryStatus) (int64, error) {
	return db.Count(ctx, r.coll, statusFilter(status))
}
