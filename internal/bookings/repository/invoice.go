package repository

import (
	"context"
	"courtbook/pkg/config"
	mongodb "courtbook/pkg/db/mongo"
	"courtbook/pkg/model"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	InvoicesCollectionName = "Invoices"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	FindByCourtBooking(ctx context.Context, courtBookingID string) ([]*model.Invoice, error)
}

type mongoInvoiceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoInvoiceRepository(cfg *config.Config) InvoiceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoInvoiceRepository{
		cfg:        cfg,
		collection: db.Collection(InvoicesCollectionName),
	}
}

func (r *mongoInvoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, invoice)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		invoice.ID = oid.Hex()
	}
	return nil
}

func (r *mongoInvoiceRepository) FindByCourtBooking(ctx context.Context, courtBookingID string) ([]*model.Invoice, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"court_booking_id": courtBookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoices: %w", err)
	}
	defer cursor.Close(ctx)

	invoices := []*model.Invoice{}
	if err = cursor.All(ctx, &invoices); err != nil {
		return nil, fmt.Errorf("failed to decode invoices: %w", err)
	}
	return invoices, nil
}
