package model

import "time"

// Window is an optional month/year date filter. Zero values mean unset:
// a year alone covers the whole year, month+year a single month.
type Window struct {
	Month int
	Year  int
}

func (w Window) IsZero() bool {
	return w.Month == 0 && w.Year == 0
}

// Validate checks ranges and that a month never comes without a year.
func (w Window) Validate() error {
	if w.Month != 0 && (w.Month < 1 || w.Month > 12) {
		return &ValidationError{Field: "month", Reason: "must be between 1 and 12"}
	}
	if w.Year != 0 && (w.Year < 2000 || w.Year > 2100) {
		return &ValidationError{Field: "year", Reason: "must be between 2000 and 2100"}
	}
	if w.Month != 0 && w.Year == 0 {
		return &ValidationError{Field: "year", Reason: "year is required when filtering by month"}
	}
	return nil
}

// ValidatePaired is the stricter billing rule: month and year come together
// or not at all.
func (w Window) ValidatePaired() error {
	if (w.Month == 0) != (w.Year == 0) {
		return &ValidationError{Field: "window", Reason: "both month and year are required for filtering"}
	}
	return w.Validate()
}

// Bounds returns the [from, to) UTC range for the window. ok is false when
// the window is unset.
func (w Window) Bounds() (from, to time.Time, ok bool) {
	if w.Year == 0 {
		return time.Time{}, time.Time{}, false
	}
	if w.Month == 0 {
		from = time.Date(w.Year, 1, 1, 0, 0, 0, 0, time.UTC)
		to = time.Date(w.Year+1, 1, 1, 0, 0, 0, 0, time.UTC)
		return from, to, true
	}
	from = time.Date(w.Year, time.Month(w.Month), 1, 0, 0, 0, 0, time.UTC)
	to = from.AddDate(0, 1, 0)
	return from, to, true
}
