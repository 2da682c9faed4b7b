package repository

import (
	"context"
	catalogerrors "courtbook/internal/catalog/errors"
	"courtbook/pkg/config"
	mongodb "courtbook/pkg/db/mongo"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CourtsCollection     = "Courts"
	CourtTypesCollection = "Court_types"
	BranchesCollection   = "Branches"
	CustomersCollection  = "Customers"
	HolidaysCollection   = "Holidays"
)

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", catalogerrors.ErrInvalidID, id)
	}
	return oid, nil
}

// findOne decodes the document with the given hex id into out.
func findOne(ctx context.Context, cfg *config.Config, coll *mongo.Collection, id string, out any) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := mongodb.WithTimeout(ctx, cfg.ReadTimeout)
	defer cancel()

	if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return catalogerrors.ErrNotFound
		}
		return fmt.Errorf("failed to find %s document: %w", coll.Name(), err)
	}
	return nil
}
