package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/radz2291/RZ-Property/internal/db"
	"github.com/radz2291/RZ-Property/internal/models"
)

// IAgentRepository stores the agent profile. Deployments have a single agent:
// the oldest record is the default one.
type IAgentRepository interface {
	FindDefault(ctx context.Context) (*models.Agent, error)
	Insert(ctx context.Context, a *models.Agent) (*models.Agent, error)
	Replace(ctx context.Context, a *models.Agent) error
}

type agentRepository struct {
	coll *mongo.Collection
}

func NewAgentRepository(database *mongo.Database) IAgentRepository {
	return &agentRepository{coll: database.Collection(db.AgentsCollection)}
}

func (r *agentRepository) FindDefault(ctx context.Context) (*models.Agent, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return db.FindOne[models.Agent](ctx, r.coll, bson.M{}, "agent", "default", opts)
}

func (r *agentRepository) Insert(ctx context.Context, a *models.Agent) (*models.Agent, error) {
	return db.InsertOne(ctx, r.coll, a)
}

func (r *agentRepository) Replace(ctx context.Context, a *models.Agent) error {
	return db.ReplaceByID(ctx, r.coll, a.ID, "agent", a)
}
