package usecase

import "time"

const dateLayout = "2006-01-02"

// dayKey is the daily counters key for now in loc.
func dayKey(now time.Time, loc *time.Location) string {
	return now.In(orUTC(loc)).Format(dateLayout)
}

// dayBounds returns [midnight, next midnight) of now's calendar day in loc.
func dayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(orUTC(loc))
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	return start, start.AddDate(0, 0, 1)
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
