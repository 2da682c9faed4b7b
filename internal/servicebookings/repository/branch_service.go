package repository

import (
	"context"
	sberrors "courtbook/internal/servicebookings/errors"
	"courtbook/pkg/config"
	mongodb "courtbook/pkg/db/mongo"
	"courtbook/pkg/model"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BranchServicesCollection = "Branch_services"
)

type BranchServiceRepository interface {
	FindByID(ctx context.Context, id string) (*model.BranchService, error)
	FindByBranch(ctx context.Context, branchID string) ([]*model.BranchService, error)
	DecrementStock(ctx context.Context, id string, quantity int) (*model.BranchService, error)
}

type mongoBranchServiceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBranchServiceRepository(cfg *config.Config) BranchServiceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBranchServiceRepository{
		cfg:        cfg,
		collection: db.Collection(BranchServicesCollection),
	}
}

func (r *mongoBranchServiceRepository) FindByID(ctx context.Context, id string) (*model.BranchService, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", sberrors.ErrInvalidID, id)
	}

	var svc model.BranchService
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&svc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sberrors.ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to find branch service: %w", err)
	}
	return &svc, nil
}

func (r *mongoBranchServiceRepository) FindByBranch(ctx context.Context, branchID string) ([]*model.BranchService, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "service.name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"branch_id": branchID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list branch services: %w", err)
	}
	defer cursor.Close(ctx)

	services := []*model.BranchService{}
	if err = cursor.All(ctx, &services); err != nil {
		return nil, fmt.Errorf("failed to decode branch services: %w", err)
	}
	return services, nil
}

// DecrementStock takes quantity units only while at least that many are on
// hand, so concurrent callers can never drive the stock below zero. It
// returns the document after the decrement.
func (r *mongoBranchServiceRepository) DecrementStock(ctx context.Context, id string, quantity int) (*model.BranchService, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", sberrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":           objectID,
		"current_stock": bson.M{"$gte": quantity},
	}
	update := bson.M{
		"$inc": bson.M{"current_stock": -quantity},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var svc model.BranchService
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&svc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sberrors.ErrInsufficientStock
		}
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}
	return &svc, nil
}
