package repository

import (
	"context"
	bookingserrors "courtbook/internal/bookings/errors"
	"courtbook/pkg/config"
	mongodb "courtbook/pkg/db/mongo"
	"courtbook/pkg/model"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName       = "Court_bookings"
	GuardsCollectionName = "Slot_guards"
)

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	guards     *mongo.Collection
	txManager  mongodb.TransactionManager
}

type BookingRepository interface {
	CreateMany(ctx context.Context, bookings []*model.CourtBooking) error
	FindByID(ctx context.Context, id string) (*model.CourtBooking, error)
	FindActiveByCourtAndDate(ctx context.Context, courtID string, date time.Time) ([]*model.CourtBooking, error)
	FindActiveByCustomerAndDate(ctx context.Context, customerID string, date time.Time) ([]*model.CourtBooking, error)
	Search(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.CourtBooking, error)
	Count(ctx context.Context, filter model.BookingFilter) (int64, error)
	UpdateSchedule(ctx context.Context, booking *model.CourtBooking) error
	TransitionStatus(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus, at time.Time) error
	FindEndedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*model.CourtBooking, error)
	GuardSlots(ctx context.Context, keys []string, at time.Time) error
	ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		guards:     db.Collection(GuardsCollectionName),
		txManager:  mongodb.NewTransactionManager(cfg.Client.Mongo),
	}
}

// CreateMany inserts the bookings in order and assigns their ids.
func (r *mongoBookingRepository) CreateMany(ctx context.Context, bookings []*model.CourtBooking) error {
	if len(bookings) == 0 {
		return nil
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]any, 0, len(bookings))
	for _, b := range bookings {
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = b.CreatedAt
		}
		docs = append(docs, b)
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to create bookings: %w", err)
	}

	for i, id := range result.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok && i < len(bookings) {
			bookings[i].ID = oid.Hex()
			bookings[i].LinkSlots()
		}
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.CourtBooking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.CourtBooking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	booking.LinkSlots()
	return &booking, nil
}

func (r *mongoBookingRepository) FindActiveByCourtAndDate(ctx context.Context, courtID string, date time.Time) ([]*model.CourtBooking, error) {
	return r.findActive(ctx, bson.M{"court_id": courtID}, date)
}

func (r *mongoBookingRepository) FindActiveByCustomerAndDate(ctx context.Context, customerID string, date time.Time) ([]*model.CourtBooking, error) {
	return r.findActive(ctx, bson.M{"customer_id": customerID}, date)
}

func (r *mongoBookingRepository) findActive(ctx context.Context, filter bson.M, date time.Time) ([]*model.CourtBooking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter["booking_date"] = dayRange(date)
	filter["status"] = bson.M{"$in": model.ActiveStatuses}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find active bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.CourtBooking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	for _, b := range bookings {
		b.LinkSlots()
	}
	return bookings, nil
}

func (r *mongoBookingRepository) Search(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.CourtBooking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "booking_date", Value: -1}, {Key: "start_time", Value: 1}}).
		SetSkip(offset)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, buildSearchFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.CourtBooking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	for _, b := range bookings {
		b.LinkSlots()
	}
	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildSearchFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// UpdateSchedule rewrites court, date, slots and price while the booking is
// still active.
func (r *mongoBookingRepository) UpdateSchedule(ctx context.Context, booking *model.CourtBooking) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(booking.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, booking.ID)
	}

	filter := bson.M{
		"_id":    objectID,
		"status": bson.M{"$in": model.ActiveStatuses},
	}
	update := bson.M{
		"$set": bson.M{
			"court_id":     booking.CourtID,
			"branch_id":    booking.BranchID,
			"booking_date": booking.BookingDate,
			"start_time":   booking.StartTime,
			"end_time":     booking.EndTime,
			"slots":        booking.Slots,
			"price":        booking.Price,
			"court_name":   booking.CourtName,
			"updated_at":   booking.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrStatusChanged
	}
	return nil
}

// TransitionStatus moves the booking to `to` only if it is currently in one
// of `from`. Concurrent transitions therefore apply at most once.
func (r *mongoBookingRepository) TransitionStatus(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus, at time.Time) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":    objectID,
		"status": bson.M{"$in": from},
	}
	update := bson.M{
		"$set": bson.M{
			"status":            to,
			"status_changed_at": at,
			"updated_at":        at,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrStatusChanged
	}
	return nil
}

func (r *mongoBookingRepository) FindEndedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*model.CourtBooking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":   model.Confirmed,
		"end_time": bson.M{"$lte": cutoff},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "end_time", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find elapsed bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.CourtBooking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// GuardSlots bumps one guard document per key. Run inside a transaction it
// makes two transactions writing the same court day collide on a write
// conflict, so at most one of them commits.
func (r *mongoBookingRepository) GuardSlots(ctx context.Context, keys []string, at time.Time) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.Update().SetUpsert(true)
	for _, key := range keys {
		update := bson.M{
			"$inc": bson.M{"version": 1},
			"$set": bson.M{"updated_at": at},
		}
		if _, err := r.guards.UpdateOne(ctx, bson.M{"_id": key}, update, opts); err != nil {
			return fmt.Errorf("failed to guard slot %s: %w", key, err)
		}
	}
	return nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func dayRange(date time.Time) bson.M {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	return bson.M{"$gte": start, "$lt": start.AddDate(0, 0, 1)}
}

func buildSearchFilter(f model.BookingFilter) bson.M {
	filter := bson.M{}
	if f.BranchID != "" {
		filter["branch_id"] = f.BranchID
	}
	if f.CustomerID != "" {
		filter["customer_id"] = f.CustomerID
	}
	if f.CourtID != "" {
		filter["court_id"] = f.CourtID
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}

	if f.DateFrom != nil || f.DateTo != nil {
		dates := bson.M{}
		if f.DateFrom != nil {
			dates["$gte"] = *f.DateFrom
		}
		if f.DateTo != nil {
			dates["$lt"] = f.DateTo.AddDate(0, 0, 1)
		}
		filter["booking_date"] = dates
	}

	if f.Search != nil && *f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(*f.Search), Options: "i"}
		filter["$or"] = []bson.M{
			{"court_name": pattern},
			{"customer_name": pattern},
			{"type": pattern},
		}
	}

	return filter
}
