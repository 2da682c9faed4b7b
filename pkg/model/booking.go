package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	Pending   BookingStatus = "Pending"
	Confirmed BookingStatus = "Confirmed"
	Cancelled BookingStatus = "Cancelled"
	Completed BookingStatus = "Completed"
	NoShow    BookingStatus = "NoShow"
)

// ActiveStatuses hold slots on the court grid.
var ActiveStatuses = []BookingStatus{Pending, Confirmed}

func (s BookingStatus) IsActive() bool {
	return s == Pending || s == Confirmed
}

func (s BookingStatus) IsTerminal() bool {
	return s == Cancelled || s == Completed || s == NoShow
}

const (
	BookingTypeSingle  = "Single"
	BookingTypeMonthly = "Monthly"
)

type BookingSlot struct {
	Start          time.Time `json:"start" bson:"start"`
	End            time.Time `json:"end" bson:"end"`
	CourtBookingID string    `json:"court_booking_id,omitempty" bson:"-"`
}

// PriceBreakdown is snapshotted onto a booking at creation and only replaced
// by a full re-pricing on the update path.
type PriceBreakdown struct {
	BaseTotal       decimal.Decimal `json:"base_total" bson:"base_total"`
	HolidayTotal    decimal.Decimal `json:"holiday_total" bson:"holiday_total"`
	WeekendTotal    decimal.Decimal `json:"weekend_total" bson:"weekend_total"`
	NightTotal      decimal.Decimal `json:"night_total" bson:"night_total"`
	DiscountPercent decimal.Decimal `json:"discount_percent" bson:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount" bson:"discount_amount"`
	GrandTotal      decimal.Decimal `json:"grand_total" bson:"grand_total"`
}

type CourtBooking struct {
	ID              string         `json:"id,omitempty" bson:"_id,omitempty"`
	CourtID         string         `json:"court_id" bson:"court_id"`
	BranchID        string         `json:"branch_id" bson:"branch_id"`
	CustomerID      string         `json:"customer_id" bson:"customer_id"`
	CreatorID       string         `json:"creator_id,omitempty" bson:"creator_id,omitempty"`
	SeriesID        string         `json:"series_id,omitempty" bson:"series_id,omitempty"`
	BookingDate     time.Time      `json:"booking_date" bson:"booking_date"`
	StartTime       time.Time      `json:"start_time" bson:"start_time"`
	EndTime         time.Time      `json:"end_time" bson:"end_time"`
	Type            string         `json:"type" bson:"type"`
	Status          BookingStatus  `json:"status" bson:"status"`
	Slots           []BookingSlot  `json:"slots" bson:"slots"`
	Price           PriceBreakdown `json:"price" bson:"price"`
	CourtName       string         `json:"court_name,omitempty" bson:"court_name,omitempty"`
	CustomerName    string         `json:"customer_name,omitempty" bson:"customer_name,omitempty"`
	CreatedAt       time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" bson:"updated_at"`
	StatusChangedAt *time.Time     `json:"status_changed_at,omitempty" bson:"status_changed_at,omitempty"`
}

// SetSlots stores slots in start order and keeps the denormalised span in sync.
func (b *CourtBooking) SetSlots(slots []BookingSlot) {
	sorted := make([]BookingSlot, len(slots))
	copy(sorted, slots)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	b.Slots = sorted
	if len(sorted) == 0 {
		b.StartTime, b.EndTime = time.Time{}, time.Time{}
		return
	}
	b.StartTime = sorted[0].Start
	b.EndTime = sorted[0].End
	for _, s := range sorted[1:] {
		if s.End.After(b.EndTime) {
			b.EndTime = s.End
		}
	}
}

// LinkSlots fills the owner reference on embedded slots.
func (b *CourtBooking) LinkSlots() {
	for i := range b.Slots {
		b.Slots[i].CourtBookingID = b.ID
	}
}

type SlotInput struct {
	Start string `json:"start" validate:"required,clock"`
	End   string `json:"end" validate:"required,clock"`
}

type CreateBookingRequest struct {
	CreatorID string      `json:"creator_id,omitempty" validate:"omitempty,mongodb"`
	Customer  CustomerRef `json:"customer"`
	CourtID   string      `json:"court_id" validate:"required,mongodb"`
	BranchID  string      `json:"branch_id" validate:"required,mongodb"`
	Date      string      `json:"date" validate:"required,isodate"`
	Slots     []SlotInput `json:"slots" validate:"required,min=1,max=24,dive"`
	IsMonthly bool        `json:"is_monthly"`
	Type      string      `json:"type,omitempty" validate:"omitempty,min=2,max=40"`
}

type UpdateBookingRequest struct {
	CourtID  string      `json:"court_id" validate:"required,mongodb"`
	BranchID string      `json:"branch_id" validate:"required,mongodb"`
	Date     string      `json:"date" validate:"required,isodate"`
	Slots    []SlotInput `json:"slots" validate:"required,min=1,max=24,dive"`
}

type AvailabilityRequest struct {
	CourtID   string      `json:"court_id" validate:"required,mongodb"`
	Date      string      `json:"date" validate:"required,isodate"`
	Slots     []SlotInput `json:"slots" validate:"required,min=1,max=24,dive"`
	IsMonthly bool        `json:"is_monthly"`
}

type QuoteRequest struct {
	CourtID   string       `json:"court_id" validate:"required,mongodb"`
	Date      string       `json:"date" validate:"required,isodate"`
	Slots     []SlotInput  `json:"slots" validate:"required,min=1,max=24,dive"`
	IsMonthly bool         `json:"is_monthly"`
	Customer  *CustomerRef `json:"customer,omitempty"`
}

type OccurrencePrice struct {
	Date  time.Time      `json:"date"`
	Price PriceBreakdown `json:"price"`
}

type PriceQuote struct {
	CourtID     string            `json:"court_id"`
	Occurrences []OccurrencePrice `json:"occurrences"`
	GrandTotal  decimal.Decimal   `json:"grand_total"`
}

type AvailabilityConflict struct {
	Date      time.Time   `json:"date"`
	Slot      BookingSlot `json:"slot"`
	Reason    string      `json:"reason"`
	BookingID string      `json:"booking_id,omitempty"`
}

type AvailabilityResult struct {
	Available bool                  `json:"available"`
	Conflict  *AvailabilityConflict `json:"conflict,omitempty"`
}

// GridSlot is one cell of a court's day schedule.
type GridSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Booked    bool      `json:"booked"`
	BookingID string    `json:"booking_id,omitempty"`
}

// BookingFilter narrows branch listings. Nil fields are ignored; set fields are ANDed.
type BookingFilter struct {
	BranchID   string
	CustomerID string
	CourtID    string
	Status     *BookingStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Search     *string
}

type CancelRequest struct {
	EmployeeID string `json:"employee_id,omitempty" validate:"omitempty,mongodb"`
	Method     string `json:"method,omitempty" validate:"omitempty,min=2,max=50"`
	Reason     string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// SettleRequest closes a booking as Completed or NoShow.
type SettleRequest struct {
	EmployeeID string `json:"employee_id,omitempty" validate:"omitempty,mongodb"`
	Method     string `json:"method,omitempty" validate:"omitempty,min=2,max=50"`
}
