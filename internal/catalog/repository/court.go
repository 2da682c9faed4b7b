package repository

import (
	"context"
	"courtbook/pkg/config"
	mongodb "courtbook/pkg/db/mongo"
	"courtbook/pkg/model"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CourtRepository interface {
	FindByID(ctx context.Context, id string) (*model.Court, error)
	FindByBranch(ctx context.Context, branchID string) ([]*model.Court, error)
	FindType(ctx context.Context, id string) (*model.CourtType, error)
}

type mongoCourtRepository struct {
	cfg    *config.Config
	courts *mongo.Collection
	types  *mongo.Collection
}

func NewMongoCourtRepository(cfg *config.Config) CourtRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCourtRepository{
		cfg:    cfg,
		courts: db.Collection(CourtsCollection),
		types:  db.Collection(CourtTypesCollection),
	}
}

func (r *mongoCourtRepository) FindByID(ctx context.Context, id string) (*model.Court, error) {
	var court model.Court
	if err := findOne(ctx, r.cfg, r.courts, id, &court); err != nil {
		return nil, err
	}
	return &court, nil
}

func (r *mongoCourtRepository) FindByBranch(ctx context.Context, branchID string) ([]*model.Court, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.courts.Find(ctx, bson.M{"branch_id": branchID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find courts: %w", err)
	}
	defer cursor.Close(ctx)

	courts := []*model.Court{}
	if err = cursor.All(ctx, &courts); err != nil {
		return nil, fmt.Errorf("failed to decode courts: %w", err)
	}
	return courts, nil
}

func (r *mongoCourtRepository) FindType(ctx context.Context, id string) (*model.CourtType, error) {
	var ct model.CourtType
	if err := findOne(ctx, r.cfg, r.types, id, &ct); err != nil {
		return nil, err
	}
	return &ct, nil
}
