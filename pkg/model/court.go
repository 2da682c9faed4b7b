package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CourtStatus string

const (
	CourtActive      CourtStatus = "Active"
	CourtMaintenance CourtStatus = "Maintenance"
	CourtInactive    CourtStatus = "Inactive"
)

type Court struct {
	ID              string          `json:"id,omitempty" bson:"_id,omitempty"`
	BranchID        string          `json:"branch_id" bson:"branch_id"`
	CourtTypeID     string          `json:"court_type_id" bson:"court_type_id"`
	Name            string          `json:"name" bson:"name"`
	BaseHourlyPrice decimal.Decimal `json:"base_hourly_price" bson:"base_hourly_price"`
	Capacity        int             `json:"capacity" bson:"capacity"`
	Status          CourtStatus     `json:"status" bson:"status"`
	MaintenanceDate *time.Time      `json:"maintenance_date,omitempty" bson:"maintenance_date,omitempty"`
}

// CourtType defines the slot grid shared by all courts of the type.
type CourtType struct {
	ID                  string `json:"id,omitempty" bson:"_id,omitempty"`
	Name                string `json:"name" bson:"name"`
	RentDurationMinutes int    `json:"rent_duration" bson:"rent_duration"`
}

type Branch struct {
	ID      string       `json:"id,omitempty" bson:"_id,omitempty"`
	Name    string       `json:"name" bson:"name"`
	Address string       `json:"address" bson:"address"`
	Config  BranchConfig `json:"config" bson:"config"`
}

// BranchConfig is read fresh for every operation and passed by value.
// Surcharges and the no-show fee are currency amounts; cancellation fees and
// the loyalty rate are whole percent (10 means 10%).
type BranchConfig struct {
	LateTimeLimitMinutes int             `json:"late_time_limit" bson:"late_time_limit"`
	MaxCourtsPerUser     int             `json:"max_courts_per_user" bson:"max_courts_per_user"`
	CancelFeeBefore24h   decimal.Decimal `json:"cancel_fee_before_24h" bson:"cancel_fee_before_24h"`
	CancelFeeWithin24h   decimal.Decimal `json:"cancel_fee_within_24h" bson:"cancel_fee_within_24h"`
	NoShowFee            decimal.Decimal `json:"no_show_fee" bson:"no_show_fee"`
	NightCharge          decimal.Decimal `json:"night_charge" bson:"night_charge"`
	HolidayCharge        decimal.Decimal `json:"holiday_charge" bson:"holiday_charge"`
	WeekendCharge        decimal.Decimal `json:"weekend_charge" bson:"weekend_charge"`
	LoyaltyPointRate     decimal.Decimal `json:"loyalty_point_rate" bson:"loyalty_point_rate"`
}

type Holiday struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"name"`
	Date      time.Time `json:"date" bson:"date"`
	Recurring bool      `json:"is_recurring" bson:"is_recurring"`
	MonthDay  string    `json:"month_day" bson:"month_day"`
}
