package testutil

import (
	"testing"
	"time"

	catalogrepo "courtbook/internal/catalog/repository"
	sbrepo "courtbook/internal/servicebookings/repository"
	"courtbook/pkg/model"

	"github.com/shopspring/decimal"
)

// Catalog holds the ids of one seeded branch.
type Catalog struct {
	BranchID   string
	CourtID    string
	CustomerID string
	WaterID    string
}

// DefaultBranchConfig mirrors a typical branch: 10%/50% cancellation fees and
// flat surcharges in whole currency units.
func DefaultBranchConfig() model.BranchConfig {
	return model.BranchConfig{
		LateTimeLimitMinutes: 15,
		MaxCourtsPerUser:     0,
		CancelFeeBefore24h:   decimal.RequireFromString("10"),
		CancelFeeWithin24h:   decimal.RequireFromString("50"),
		NoShowFee:            decimal.RequireFromString("50000"),
		NightCharge:          decimal.RequireFromString("10000"),
		HolidayCharge:        decimal.RequireFromString("20000"),
		WeekendCharge:        decimal.RequireFromString("15000"),
		LoyaltyPointRate:     decimal.RequireFromString("1"),
	}
}

// SeedCatalog inserts a branch with one hourly court priced at 100000, one
// customer and a stocked water service.
func (m *MongoHelper) SeedCatalog(t *testing.T) Catalog {
	t.Helper()

	var c Catalog
	c.BranchID = m.Insert(t, catalogrepo.BranchesCollection, model.Branch{
		Name:    "Integration Branch",
		Address: "1 Test Street",
		Config:  DefaultBranchConfig(),
	})
	typeID := m.Insert(t, catalogrepo.CourtTypesCollection, model.CourtType{
		Name:                "Badminton",
		RentDurationMinutes: 60,
	})
	c.CourtID = m.Insert(t, catalogrepo.CourtsCollection, model.Court{
		BranchID:        c.BranchID,
		CourtTypeID:     typeID,
		Name:            "Court 1",
		BaseHourlyPrice: decimal.RequireFromString("100000"),
		Capacity:        4,
		Status:          model.CourtActive,
	})
	c.CustomerID = m.Insert(t, catalogrepo.CustomersCollection, model.Customer{
		FullName: "Integration Customer",
		Level:    model.CustomerLevel{Name: "Standard", DiscountRate: decimal.Zero},
	})
	c.WaterID = m.Insert(t, sbrepo.BranchServicesCollection, model.BranchService{
		BranchID:          c.BranchID,
		Service:           model.Service{Name: "Water", Unit: "bottle", StockType: model.StockPhysical},
		UnitPrice:         decimal.RequireFromString("10000"),
		CurrentStock:      10,
		MinStockThreshold: 2,
		Status:            model.ServiceActive,
		UpdatedAt:         time.Now().UTC(),
	})
	return c
}

// NextWeekday returns a date at least a week ahead that falls on day.
func NextWeekday(day time.Weekday, loc *time.Location) time.Time {
	d := time.Now().In(loc).AddDate(0, 0, 7)
	for d.Weekday() != day {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}
