package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/radz2291/RZ-Property/internal/db"
	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/utils"
)

// IAdminUserRepository stores back office accounts.
type IAdminUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	Insert(ctx context.Context, u *models.AdminUser) (*models.AdminUser, error)
	SetPasswordHash(ctx context.Context, id utils.SixID, hash string) error
	TouchLogin(ctx context.Context, id utils.SixID, at time.Time) error
}

type adminUserRepository struct {
	coll *mongo.Collection
}

func NewAdminUserRepository(database *mongo.Database) IAdminUserRepository {
	return &adminUserRepository{coll: database.Collection(db.AdminUsersCollection)}
}

func (r *adminUserRepository) FindByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	return db.FindOne[models.AdminUser](ctx, r.coll, bson.M{"username": username}, "admin user", username)
}

func (r *adminUserRepository) Insert(ctx context.Context, u *models.AdminUser) (*models.AdminUser, error) {
	return db.InsertOne(ctx, r.coll, u)
}

func (r *adminUserRepository) SetPasswordHash(ctx context.Context, id utils.SixID, hash string) error {
	return db.UpdateByID(ctx, r.coll, id, "admin user", bson.M{"password_hash": hash})
}

func (r *adminUserRepository) TouchLogin(ctx context.Context, id utils.SixID, at time.Time) error {
	return db.UpdateByID(ctx, r.coll, id, "admin user", bson.M{"last_login_at": at})
}
