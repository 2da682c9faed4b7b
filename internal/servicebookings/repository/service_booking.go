package repository

import (
	"context"
	sberrors "courtbook/internal/servicebookings/errors"
	"courtbook/pkg/config"
	mongodb "courtbook/pkg/db/mongo"
	"courtbook/pkg/model"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ServiceBookingsCollection = "Service_bookings"
)

type ServiceBookingRepository interface {
	Create(ctx context.Context, sb *model.ServiceBooking) error
	FindByID(ctx context.Context, id string) (*model.ServiceBooking, error)
	FindByCourtBooking(ctx context.Context, courtBookingID string) ([]*model.ServiceBooking, error)
	ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error
}

type mongoServiceBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongodb.TransactionManager
}

func NewMongoServiceBookingRepository(cfg *config.Config) ServiceBookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoServiceBookingRepository{
		cfg:        cfg,
		collection: db.Collection(ServiceBookingsCollection),
		txManager:  mongodb.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoServiceBookingRepository) Create(ctx context.Context, sb *model.ServiceBooking) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, sb)
	if err != nil {
		return fmt.Errorf("failed to create service booking: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		sb.ID = oid.Hex()
	}
	return nil
}

func (r *mongoServiceBookingRepository) FindByID(ctx context.Context, id string) (*model.ServiceBooking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", sberrors.ErrInvalidID, id)
	}

	var sb model.ServiceBooking
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&sb); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sberrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find service booking: %w", err)
	}
	return &sb, nil
}

func (r *mongoServiceBookingRepository) FindByCourtBooking(ctx context.Context, courtBookingID string) ([]*model.ServiceBooking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"court_booking_id": courtBookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find service bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.ServiceBooking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode service bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoServiceBookingRepository) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
