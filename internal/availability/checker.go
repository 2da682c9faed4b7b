// Package availability decides whether a set of time ranges can be booked on
// a court for one or more dates.
package availability

import (
	"context"
	"courtbook/internal/calendar"
	"courtbook/pkg/model"
	"fmt"
	"time"
)

const (
	ReasonOffGrid          = "off_grid"
	ReasonDuplicate        = "duplicate_in_request"
	ReasonCourtUnavailable = "court_unavailable"
	ReasonOverlap          = "overlap"
)

// BookingSource lists the bookings that currently hold slots on a court for
// one calendar day.
type BookingSource interface {
	FindActiveByCourtAndDate(ctx context.Context, courtID string, date time.Time) ([]*model.CourtBooking, error)
}

type Request struct {
	Court            *model.Court
	RentDuration     int
	Dates            []time.Time
	Ranges           []calendar.Range
	ExcludeBookingID string
}

type Checker struct {
	grid   calendar.Grid
	source BookingSource
}

func NewChecker(grid calendar.Grid, source BookingSource) *Checker {
	return &Checker{grid: grid, source: source}
}

func (c *Checker) Grid() calendar.Grid {
	return c.grid
}

// Check stops at the first date that cannot take every requested range.
// Reads go through ctx, so calling it with a transaction session makes the
// answer consistent with the writes that follow.
func (c *Checker) Check(ctx context.Context, req Request) (model.AvailabilityResult, error) {
	if req.Court == nil {
		return model.AvailabilityResult{}, fmt.Errorf("availability check without a court")
	}
	if len(req.Dates) == 0 || len(req.Ranges) == 0 {
		return model.AvailabilityResult{Available: true}, nil
	}

	first := req.Dates[0]
	for i, r := range req.Ranges {
		if !c.grid.IsAligned(req.RentDuration, r) {
			return conflict(first, r, ReasonOffGrid, ""), nil
		}
		for _, other := range req.Ranges[:i] {
			if r.Start < other.End && other.Start < r.End {
				return conflict(first, r, ReasonDuplicate, ""), nil
			}
		}
	}

	for _, date := range req.Dates {
		if !CourtUsable(req.Court, date) {
			return conflict(date, req.Ranges[0], ReasonCourtUnavailable, ""), nil
		}

		existing, err := c.source.FindActiveByCourtAndDate(ctx, req.Court.ID, date)
		if err != nil {
			return model.AvailabilityResult{}, err
		}
		for _, r := range req.Ranges {
			wanted := r.On(date)
			for _, b := range existing {
				if b.ID == req.ExcludeBookingID && b.ID != "" {
					continue
				}
				if !b.Status.IsActive() {
					continue
				}
				for _, held := range b.Slots {
					if wanted.Overlaps(calendar.Slot{Start: held.Start, End: held.End}) {
						return conflict(date, r, ReasonOverlap, b.ID), nil
					}
				}
			}
		}
	}

	return model.AvailabilityResult{Available: true}, nil
}

// CourtUsable reports whether the court accepts bookings on date. A court in
// maintenance without a date is closed until its status changes.
func CourtUsable(court *model.Court, date time.Time) bool {
	switch court.Status {
	case model.CourtInactive:
		return false
	case model.CourtMaintenance:
		if court.MaintenanceDate == nil {
			return false
		}
	}
	if court.MaintenanceDate != nil && calendar.SameDay(date, *court.MaintenanceDate) {
		return false
	}
	return true
}

// DaySchedule lays the court's grid over date and marks cells held by active
// bookings.
func (c *Checker) DaySchedule(ctx context.Context, court *model.Court, rentDuration int, date time.Time) ([]model.GridSlot, error) {
	existing, err := c.source.FindActiveByCourtAndDate(ctx, court.ID, date)
	if err != nil {
		return nil, err
	}

	slots := c.grid.SlotsForDate(rentDuration, date)
	out := make([]model.GridSlot, 0, len(slots))
	for _, s := range slots {
		cell := model.GridSlot{Start: s.Start, End: s.End}
		for _, b := range existing {
			if !b.Status.IsActive() {
				continue
			}
			for _, held := range b.Slots {
				if s.Overlaps(calendar.Slot{Start: held.Start, End: held.End}) {
					cell.Booked = true
					cell.BookingID = b.ID
					break
				}
			}
			if cell.Booked {
				break
			}
		}
		out = append(out, cell)
	}
	return out, nil
}

func conflict(date time.Time, r calendar.Range, reason, bookingID string) model.AvailabilityResult {
	s := r.On(date)
	return model.AvailabilityResult{
		Available: false,
		Conflict: &model.AvailabilityConflict{
			Date:      calendar.Midnight(date),
			Slot:      model.BookingSlot{Start: s.Start, End: s.End},
			Reason:    reason,
			BookingID: bookingID,
		},
	}
}
