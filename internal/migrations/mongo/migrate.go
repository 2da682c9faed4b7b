package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingsrepo "courtbook/internal/bookings/repository"
	catalogrepo "courtbook/internal/catalog/repository"
	"courtbook/internal/migrations/mongo/validators"
	servicerepo "courtbook/internal/servicebookings/repository"
)

var (
	CourtBookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "court_id", Value: 1},
			{Key: "booking_date", Value: 1},
			{Key: "status", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "customer_id", Value: 1},
			{Key: "booking_date", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "branch_id", Value: 1},
			{Key: "booking_date", Value: -1},
			{Key: "start_time", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "end_time", Value: 1},
		}},
		{
			Keys:    bson.D{{Key: "series_id", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	// Expired locks are reaped by the server; acquirers also reclaim them eagerly.
	SlotLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	InvoicesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "court_booking_id", Value: 1}}},
		{Keys: bson.D{
			{Key: "branch_id", Value: 1},
			{Key: "created_at", Value: -1},
		}},
	}

	BranchServicesIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "branch_id", Value: 1},
			{Key: "service.name", Value: 1},
		}},
	}

	ServiceBookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "court_booking_id", Value: 1}}},
	}

	CourtsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "branch_id", Value: 1},
			{Key: "name", Value: 1},
		}},
	}

	CustomersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "account_id", Value: 1}}},
	}

	HolidaysIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: 1}}},
		{Keys: bson.D{
			{Key: "is_recurring", Value: 1},
			{Key: "month_day", Value: 1},
		}},
	}
)

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func collections() map[string]collectionDef {
	return map[string]collectionDef{
		bookingsrepo.CollectionName: {
			Indexes:   CourtBookingsIndexes,
			Validator: validators.CourtBookingValidator,
		},
		bookingsrepo.LocksCollectionName: {
			Indexes:   SlotLocksIndexes,
			Validator: validators.SlotLockValidator,
		},
		bookingsrepo.GuardsCollectionName: {},
		bookingsrepo.InvoicesCollectionName: {
			Indexes:   InvoicesIndexes,
			Validator: validators.InvoiceValidator,
		},
		servicerepo.BranchServicesCollection: {
			Indexes:   BranchServicesIndexes,
			Validator: validators.BranchServiceValidator,
		},
		servicerepo.ServiceBookingsCollection: {
			Indexes:   ServiceBookingsIndexes,
			Validator: validators.ServiceBookingValidator,
		},
		catalogrepo.CourtsCollection:     {Indexes: CourtsIndexes},
		catalogrepo.CourtTypesCollection: {},
		catalogrepo.BranchesCollection:   {},
		catalogrepo.CustomersCollection:  {Indexes: CustomersIndexes},
		catalogrepo.HolidaysCollection:   {Indexes: HolidaysIndexes},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	fmt.Printf("🚀 Running courtbook Mongo migrations on database: %s\n", dbName)

	for name, def := range collections() {
		if err := ensureCollection(ctx, db, name, def.Validator); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	fmt.Println("✅ All migrations applied successfully.")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		fmt.Printf("🆕 Creating collection: %s\n", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	if validator == nil {
		fmt.Printf("ℹ️ Collection %s already exists\n", name)
		return nil
	}

	fmt.Printf("ℹ️ Collection %s already exists, updating validator if needed\n", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		fmt.Printf("⚠️ Warning: failed updating validator for %s: %v\n", name, err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	if len(models) == 0 {
		return nil
	}
	coll := db.Collection(name)
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	fmt.Printf("📚 Ensured indexes for %s\n", name)
	return nil
}
