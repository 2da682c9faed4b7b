package repository

import (
	"context"
	"courtbook/pkg/config"
	"courtbook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type BranchRepository interface {
	FindByID(ctx context.Context, id string) (*model.Branch, error)
}

type mongoBranchRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBranchRepository(cfg *config.Config) BranchRepository {
	return &mongoBranchRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(BranchesCollection),
	}
}

// FindByID always reads from the store so config edits apply to the next
// operation.
func (r *mongoBranchRepository) FindByID(ctx context.Context, id string) (*model.Branch, error) {
	var branch model.Branch
	if err := findOne(ctx, r.cfg, r.collection, id, &branch); err != nil {
		return nil, err
	}
	return &branch, nil
}
