package repository

import (
	"context"
	catalogerrors "courtbook/internal/catalog/errors"
	"courtbook/pkg/config"
	mongodb "courtbook/pkg/db/mongo"
	"courtbook/pkg/model"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CustomerRepository interface {
	FindByID(ctx context.Context, id string) (*model.Customer, error)
	FindByAccountID(ctx context.Context, accountID string) ([]*model.Customer, error)
	AddBonusPoints(ctx context.Context, id string, points int64) error
}

type mongoCustomerRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCustomerRepository(cfg *config.Config) CustomerRepository {
	return &mongoCustomerRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CustomersCollection),
	}
}

func (r *mongoCustomerRepository) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	var customer model.Customer
	if err := findOne(ctx, r.cfg, r.collection, id, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByAccountID returns at most two matches; callers only need to tell
// "exactly one" apart from the rest.
func (r *mongoCustomerRepository) FindByAccountID(ctx context.Context, accountID string) ([]*model.Customer, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"account_id": accountID}, options.Find().SetLimit(2))
	if err != nil {
		return nil, fmt.Errorf("failed to find customers by account: %w", err)
	}
	defer cursor.Close(ctx)

	var customers []*model.Customer
	if err = cursor.All(ctx, &customers); err != nil {
		return nil, fmt.Errorf("failed to decode customers: %w", err)
	}
	return customers, nil
}

func (r *mongoCustomerRepository) AddBonusPoints(ctx context.Context, id string, points int64) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"bonus_point": points}})
	if err != nil {
		return fmt.Errorf("failed to add bonus points: %w", err)
	}
	if result.MatchedCount == 0 {
		return catalogerrors.ErrNotFound
	}
	return nil
}
