package repository

import (
	"context"
	bookingserrors "courtbook/internal/bookings/errors"
	"courtbook/pkg/config"
	mongodb "courtbook/pkg/db/mongo"
	"courtbook/pkg/model"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LocksCollectionName = "Slot_locks"
)

// LockRepository hands out exclusive, expiring locks keyed by an opaque
// string. Acquire returns ErrLockHeld when another holder owns an unexpired
// lock on the key.
type LockRepository interface {
	Acquire(ctx context.Context, key, token string, ttl time.Duration) error
	Release(ctx context.Context, key, token string) error
}

type mongoLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoLockRepository(cfg *config.Config) LockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLockRepository{
		cfg:        cfg,
		collection: db.Collection(LocksCollectionName),
		now:        time.Now,
	}
}

// Acquire inserts the lock document. On a duplicate key it reclaims the lock
// only if it has already expired; the TTL index cleans up eventually but runs
// about once a minute.
func (r *mongoLockRepository) Acquire(ctx context.Context, key, token string, ttl time.Duration) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := r.now().UTC()
	lock := model.SlotLock{
		ID:        key,
		Token:     token,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": key, "expires_at": bson.M{"$lte": now}})
	if err != nil {
		return fmt.Errorf("failed to reclaim lock %s: %w", key, err)
	}
	if res.DeletedCount == 0 {
		return bookingserrors.ErrLockHeld
	}

	if _, err = r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	return nil
}

func (r *mongoLockRepository) Release(ctx context.Context, key, token string) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": key, "token": token}); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}
