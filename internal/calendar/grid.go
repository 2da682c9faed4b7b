package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Slot is a half-open interval [Start, End).
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

func (s Slot) Minutes() int {
	return int(s.Duration() / time.Minute)
}

func (s Slot) Overlaps(o Slot) bool {
	return s.Start.Before(o.End) && s.End.After(o.Start)
}

// Range is a time-of-day interval, expressed as offsets from midnight, that
// can be placed on any date.
type Range struct {
	Start time.Duration
	End   time.Duration
}

func (r Range) On(date time.Time) Slot {
	m := Midnight(date)
	return Slot{Start: m.Add(r.Start), End: m.Add(r.End)}
}

func (r Range) String() string {
	return FormatClock(r.Start) + "-" + FormatClock(r.End)
}

// ParseClock parses "HH:MM" into an offset from midnight. "24:00" is accepted
// as the end of the day.
func ParseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid clock time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

func FormatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

func ParseRange(start, end string) (Range, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Range{}, err
	}
	if e <= s {
		return Range{}, fmt.Errorf("slot end %s must be after start %s", end, start)
	}
	return Range{Start: s, End: e}, nil
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// Midnight returns the start of t's calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

func sinceMidnight(t time.Time) time.Duration {
	return t.Sub(Midnight(t))
}

// Grid is the branch's operating window. Courts carve it into slots of
// their type's rent duration, counted from opening time.
type Grid struct {
	Open  time.Duration
	Close time.Duration
}

func NewGrid(open, close string) (Grid, error) {
	r, err := ParseRange(open, close)
	if err != nil {
		return Grid{}, fmt.Errorf("invalid operating hours: %w", err)
	}
	return Grid{Open: r.Start, Close: r.End}, nil
}

// Ranges lists every full unit of rentMinutes that fits inside operating hours.
func (g Grid) Ranges(rentMinutes int) []Range {
	if rentMinutes <= 0 {
		return nil
	}
	unit := time.Duration(rentMinutes) * time.Minute
	var out []Range
	for s := g.Open; s+unit <= g.Close; s += unit {
		out = append(out, Range{Start: s, End: s + unit})
	}
	return out
}

func (g Grid) SlotsForDate(rentMinutes int, date time.Time) []Slot {
	ranges := g.Ranges(rentMinutes)
	slots := make([]Slot, 0, len(ranges))
	for _, r := range ranges {
		slots = append(slots, r.On(date))
	}
	return slots
}

// IsAligned reports whether r starts and ends on grid boundaries inside
// operating hours. Ranges spanning several consecutive units are aligned.
func (g Grid) IsAligned(rentMinutes int, r Range) bool {
	if rentMinutes <= 0 || r.End <= r.Start {
		return false
	}
	if r.Start < g.Open || r.End > g.Close {
		return false
	}
	unit := time.Duration(rentMinutes) * time.Minute
	return (r.Start-g.Open)%unit == 0 && (r.End-g.Open)%unit == 0
}
