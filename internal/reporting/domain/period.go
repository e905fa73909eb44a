package domain

import "time"

// MonthKey maps a date to its canonical "YYYY-MM" bucket key using
// UTC calendar fields.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// MonthLabel is the human form of a bucket, e.g. "May 2024".
func MonthLabel(t time.Time) string {
	return t.UTC().Format("Jan 2006")
}

// MonthStart truncates a date to the first day of its UTC month.
func MonthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthsBetween counts whole calendar months from a to b. Negative
// when b is before a.
func MonthsBetween(a, b time.Time) int {
	a = MonthStart(a)
	b = MonthStart(b)
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// MonthBucket is one slot of the trailing reporting window.
type MonthBucket struct {
	Start time.Time
	Key   string
	Label string
}

// Window builds n ordered month buckets ending at the month of now.
func Window(now time.Time, n int) []MonthBucket {
	if n <= 0 {
		return nil
	}
	end := MonthStart(now)
	out := make([]MonthBucket, 0, n)
	for i := n - 1; i >= 0; i-- {
		start := end.AddDate(0, -i, 0)
		out = append(out, MonthBucket{Start: start, Key: MonthKey(start), Label: MonthLabel(start)})
	}
	return out
}
