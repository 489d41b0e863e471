package leave

import "time"

// WorkingDays counts Monday through Friday in the inclusive [start, end]
// range. Weekend-only ranges count zero and are rejected at submission.
func WorkingDays(start, end time.Time) int {
	start, end = dateOnly(start), dateOnly(end)
	if start.After(end) {
		return 0
	}

	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			days++
		}
	}
	return days
}

// dateOnly truncates a timestamp to its calendar date in UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
