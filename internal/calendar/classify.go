package calendar

import (
	"context"
	"fmt"
	"time"
)

type HolidayOracle interface {
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
}

type DayInfo struct {
	Date      time.Time    `json:"date"`
	Weekday   time.Weekday `json:"weekday"`
	IsWeekend bool         `json:"is_weekend"`
	IsHoliday bool         `json:"is_holiday"`
}

// NightWindow marks slots whose start falls at or after Start, or before End.
// When Start <= End the window does not wrap midnight.
type NightWindow struct {
	Start time.Duration
	End   time.Duration
}

func NewNightWindow(start, end string) (NightWindow, error) {
	s, err := ParseClock(start)
	if err != nil {
		return NightWindow{}, fmt.Errorf("invalid night start: %w", err)
	}
	e, err := ParseClock(end)
	if err != nil {
		return NightWindow{}, fmt.Errorf("invalid night end: %w", err)
	}
	return NightWindow{Start: s, End: e}, nil
}

func (n NightWindow) Contains(s Slot) bool {
	tod := sinceMidnight(s.Start)
	if n.Start > n.End {
		return tod >= n.Start || tod < n.End
	}
	return tod >= n.Start && tod < n.End
}

type Classifier struct {
	weekend  map[time.Weekday]bool
	holidays HolidayOracle
}

func NewClassifier(weekend []time.Weekday, holidays HolidayOracle) *Classifier {
	set := make(map[time.Weekday]bool, len(weekend))
	for _, d := range weekend {
		set[d] = true
	}
	if holidays == nil {
		holidays = Oracles(nil)
	}
	return &Classifier{weekend: set, holidays: holidays}
}

func (c *Classifier) IsWeekend(date time.Time) bool {
	return c.weekend[date.Weekday()]
}

func (c *Classifier) ClassifyDay(ctx context.Context, date time.Time) (DayInfo, error) {
	date = Midnight(date)
	holiday, err := c.holidays.IsHoliday(ctx, date)
	if err != nil {
		return DayInfo{}, fmt.Errorf("holiday lookup for %s: %w", date.Format(DateLayout), err)
	}
	return DayInfo{
		Date:      date,
		Weekday:   date.Weekday(),
		IsWeekend: c.IsWeekend(date),
		IsHoliday: holiday,
	}, nil
}
