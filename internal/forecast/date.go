package forecast

import (
	"errors"
	"strconv"
	"time"
)

// wireLayout is the timestamp format used on the wire and in stored documents.
const wireLayout = "2006-01-02T15:04:05"

// Date is a calendar date carried by a forecast: midnight UTC of the given day.
type Date struct {
	time.Time
}

// NewDate returns the date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts RFC3339, the wire layout, or a bare YYYY-MM-DD.
// The calendar day is taken as written, in the supplied offset; the time of day is dropped.
func ParseDate(s string) (Date, error) {
	for _, layout := range []string{time.RFC3339Nano, wireLayout, time.DateOnly} {
		if ts, err := time.Parse(layout, s); err == nil {
			return NewDate(ts.Year(), ts.Month(), ts.Day()), nil
		}
	}
	return Date{}, errors.New("invalid date format; use RFC3339, 2006-01-02T15:04:05 or 2006-01-02")
}

func (d Date) String() string {
	return d.UTC().Format(wireLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return errors.New("date must be a JSON string")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
