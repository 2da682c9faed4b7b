package calendar

import "time"

// MonthlyOccurrences returns date and every later date in the same calendar
// month that falls on the same weekday.
func MonthlyOccurrences(date time.Time) []time.Time {
	start := Midnight(date)
	var out []time.Time
	for d := start; d.Month() == start.Month() && d.Year() == start.Year(); d = d.AddDate(0, 0, 7) {
		out = append(out, d)
	}
	return out
}
