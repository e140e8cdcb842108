// Package calendar converts between the Bikram Sambat (BS) calendar used by
// Nepal's court portals and the Gregorian (AD) calendar used for machine time
// arithmetic. Conversions are table-driven and pure; the supported BS range is
// bounded by the embedded month-length table.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a Bikram Sambat calendar date.
type Date struct {
	Year  int
	Month int
	Day   int
}

// String renders the canonical zero-padded form used as the temporal key
// throughout the system, e.g. "2081-09-28".
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ConversionError reports a BS date that cannot be converted. The raw BS
// string stays authoritative on failure; callers record a null AD date.
type ConversionError struct {
	Date   Date
	Reason string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert BS date %s: %s", e.Date, e.Reason)
}

// Parse reads a canonical "YYYY-MM-DD" BS string into a Date. It does not
// validate the triple against the calendar table; use ToGregorian for that.
func Parse(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("malformed BS date %q", s)
	}
	var vals [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("malformed BS date %q: %w", s, err)
		}
		vals[i] = n
	}
	return Date{Year: vals[0], Month: vals[1], Day: vals[2]}, nil
}

// ToGregorian converts a BS date to the corresponding Gregorian date in UTC.
// Invalid triples (year outside the table, month not in 1..12, day exceeding
// the month length) return a ConversionError, never a wrong date.
func (d Date) ToGregorian() (time.Time, error) {
	if d.Year < bsEpochYear || d.Year > bsEpochYear+len(bsMonthDays)-1 {
		return time.Time{}, &ConversionError{Date: d, Reason: "year outside supported range"}
	}
	if d.Month < 1 || d.Month > 12 {
		return time.Time{}, &ConversionError{Date: d, Reason: "month out of range"}
	}
	months := bsMonthDays[d.Year-bsEpochYear]
	if d.Day < 1 || d.Day > months[d.Month-1] {
		return time.Time{}, &ConversionError{Date: d, Reason: "day out of range for month"}
	}
	days := 0
	for y := bsEpochYear; y < d.Year; y++ {
		for _, n := range bsMonthDays[y-bsEpochYear] {
			days += n
		}
	}
	for m := 1; m < d.Month; m++ {
		days += months[m-1]
	}
	days += d.Day - 1
	return adEpoch.AddDate(0, 0, days), nil
}

// FromGregorian converts a Gregorian date (the wall-clock date of t) to BS.
func FromGregorian(t time.Time) (Date, error) {
	target := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := int(target.Sub(adEpoch).Hours() / 24)
	if days < 0 {
		return Date{}, &ConversionError{Reason: "date precedes supported BS range"}
	}
	for i, months := range bsMonthDays {
		for m, n := range months {
			if days < n {
				return Date{Year: bsEpochYear + i, Month: m + 1, Day: days + 1}, nil
			}
			days -= n
		}
	}
	return Date{}, &ConversionError{Reason: "date exceeds supported BS range"}
}

// DaysInMonth reports the length of a BS month, for iterating date ranges.
func DaysInMonth(year, month int) (int, error) {
	if year < bsEpochYear || year > bsEpochYear+len(bsMonthDays)-1 {
		return 0, &ConversionError{Date: Date{Year: year, Month: month}, Reason: "year outside supported range"}
	}
	if month < 1 || month > 12 {
		return 0, &ConversionError{Date: Date{Year: year, Month: month}, Reason: "month out of range"}
	}
	return bsMonthDays[year-bsEpochYear][month-1], nil
}

// AddDays walks the BS calendar forward (or backward) by n days.
func (d Date) AddDays(n int) (Date, error) {
	ad, err := d.ToGregorian()
	if err != nil {
		return Date{}, err
	}
	return FromGregorian(ad.AddDate(0, 0, n))
}
