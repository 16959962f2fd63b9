package bias

import "time"

// ThirdFriday scans forward from the 15th to the first Friday.
func ThirdFriday(year int, month time.Month) time.Time {
	d := time.Date(year, month, 15, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Friday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// IsOpexWeek reports whether the calendar date of t falls Monday to Friday
// of the week holding its month's third Friday.
func IsOpexWeek(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	tf := ThirdFriday(t.Year(), t.Month())
	monday := tf.AddDate(0, 0, -(int(tf.Weekday()) - int(time.Monday)))
	return !day.Before(monday) && !day.After(tf)
}
