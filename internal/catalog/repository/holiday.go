package repository

import (
	"context"
	"courtbook/internal/calendar"
	"courtbook/pkg/config"
	mongodb "courtbook/pkg/db/mongo"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// HolidayRepository answers holiday lookups from the Holidays collection.
// Recurring entries match on month_day ("MM-DD") in any year.
type HolidayRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoHolidayRepository(cfg *config.Config) *HolidayRepository {
	return &HolidayRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(HolidaysCollection),
	}
}

var _ calendar.HolidayOracle = (*HolidayRepository)(nil)

func (r *HolidayRepository) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	day := calendar.Midnight(date)
	filter := bson.M{
		"$or": []bson.M{
			{"date": bson.M{"$gte": day, "$lt": day.AddDate(0, 0, 1)}},
			{"is_recurring": true, "month_day": day.Format("01-02")},
		},
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to look up holiday: %w", err)
	}
	return count > 0, nil
}
