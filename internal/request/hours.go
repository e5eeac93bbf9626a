package request

import "time"

// Clinic business hours: Mon-Fri 08:00-12:00 and 14:00-18:00, Sat 08:00-12:00,
// Sun closed. The top of each window is a valid slot at the exact instant:
// 12:00:00 books, 12:00:01 does not.
func WithinBusinessHours(t time.Time) bool {
	sinceMidnight := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())

	morning := sinceMidnight >= 8*time.Hour && sinceMidnight <= 12*time.Hour
	afternoon := sinceMidnight >= 14*time.Hour && sinceMidnight <= 18*time.Hour

	switch t.Weekday() {
	case time.Sunday:
		return false
	case time.Saturday:
		return morning
	default:
		return morning || afternoon
	}
}
