package queries

import "time"

// Window bounds a status or stats query to a date range.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// Normalize widens a zero window to an open-ended range so callers can
// subscribe to "everything current" without computing bounds.
func (w Window) Normalize(now time.Time) Window {
	if w.From.IsZero() {
		w.From = now.Truncate(24 * time.Hour)
	}
	if w.To.IsZero() {
		w.To = w.From.AddDate(0, 1, 0)
	}
	return w
}
