package normalize

import "time"

// LastDayOfMonth returns 28..31 for the given month (1-12)
func LastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// PaymentDueDate clamps preferredDay to the month's last day, so day 31
// falls on Feb 28/29 or Apr 30.
func PaymentDueDate(year int, month time.Month, preferredDay int, loc *time.Location) time.Time {
	day := min(preferredDay, LastDayOfMonth(year, month))
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// PaymentSchedule lists the due dates between start and end, both
// inclusive. When start is already past preferredDay the first due date
// falls in the following month.
func PaymentSchedule(start, end time.Time, preferredDay int) []time.Time {
	loc := start.Location()
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)

	year, month := start.Year(), start.Month()
	if start.Day() > preferredDay {
		year, month = nextMonth(year, month)
	}

	var out []time.Time
	for {
		due := PaymentDueDate(year, month, preferredDay, loc)
		if due.After(end) {
			break
		}
		if !due.Before(first) {
			out = append(out, due)
		}
		year, month = nextMonth(year, month)
	}
	return out
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}
