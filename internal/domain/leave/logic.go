package leave

import (
	"errors"
	"time"
)

const dateLayout = "2006-01-02"

var errEndBeforeStart = errors.New("end date before start date")

// CalculateDays returns inclusive day count between start and end.
func CalculateDays(start, end time.Time) (float64, error) {
	if end.Before(start) {
		return 0, errEndBeforeStart
	}
	return end.Sub(start).Hours()/24 + 1, nil
}

// DaysBetween parses YYYY-MM-DD dates and returns the inclusive span.
func DaysBetween(startDate, endDate string) (float64, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return 0, err
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return 0, err
	}
	return CalculateDays(start, end)
}
