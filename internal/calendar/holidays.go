package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StaticHolidays answers from a fixed list. "YYYY-MM-DD" entries match one
// date, "MM-DD" entries recur every year.
type StaticHolidays struct {
	dates     map[string]bool
	monthDays map[string]bool
}

func NewStaticHolidays(entries []string) (*StaticHolidays, error) {
	h := &StaticHolidays{
		dates:     make(map[string]bool),
		monthDays: make(map[string]bool),
	}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		switch len(e) {
		case len(DateLayout):
			if _, err := time.Parse(DateLayout, e); err != nil {
				return nil, fmt.Errorf("invalid holiday %q: %w", e, err)
			}
			h.dates[e] = true
		case len("01-02"):
			if _, err := time.Parse("01-02", e); err != nil {
				return nil, fmt.Errorf("invalid recurring holiday %q: %w", e, err)
			}
			h.monthDays[e] = true
		default:
			return nil, fmt.Errorf("invalid holiday %q, expected YYYY-MM-DD or MM-DD", e)
		}
	}
	return h, nil
}

func (h *StaticHolidays) IsHoliday(_ context.Context, date time.Time) (bool, error) {
	return h.dates[date.Format(DateLayout)] || h.monthDays[date.Format("01-02")], nil
}

// Oracles reports a holiday when any member does.
type Oracles []HolidayOracle

func (o Oracles) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	for _, oracle := range o {
		ok, err := oracle.IsHoliday(ctx, date)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
