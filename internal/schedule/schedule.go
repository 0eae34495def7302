// Package schedule merges the independently edited visit day and
// time-of-day into one scheduled instant.  Changing the day preserves a
// previously chosen time and vice versa; only Commit produces the final
// instant, and only when both components are present.
package schedule

import (
    "errors"
    "fmt"
    "time"
)

// ErrIncompleteSchedule is returned by Commit when only one of the two
// components has been set.
var ErrIncompleteSchedule = errors.New("schedule requires both a date and a time")

// ErrPastDate rejects days or committed instants strictly before now.
var ErrPastDate = errors.New("scheduled date is in the past")

// TimeLayout is the wire format for the time-of-day component.
const TimeLayout = "15:04"

// ValidateDay rejects days whose calendar date falls before now's date.
// Today is allowed; the combined instant is re-checked at commit.
func ValidateDay(day, now time.Time) error {
    dy, dm, dd := day.UTC().Date()
    ny, nm, nd := now.UTC().Date()
    if time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC).Before(time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)) {
        return ErrPastDate
    }
    return nil
}

// ValidateTimeOfDay checks the "15:04" wire format.
func ValidateTimeOfDay(s string) error {
    if _, err := time.Parse(TimeLayout, s); err != nil {
        return fmt.Errorf("invalid time of day %q: %w", s, err)
    }
    return nil
}

// Commit combines the drafted day and time-of-day into the scheduled
// instant (UTC).  Both components must be present and the result must
// not lie strictly before now.
func Commit(day *time.Time, timeOfDay *string, now time.Time) (time.Time, error) {
    if day == nil || timeOfDay == nil {
        return time.Time{}, ErrIncompleteSchedule
    }
    tod, err := time.Parse(TimeLayout, *timeOfDay)
    if err != nil {
        return time.Time{}, fmt.Errorf("invalid time of day %q: %w", *timeOfDay, err)
    }
    y, m, d := day.UTC().Date()
    at := time.Date(y, m, d, tod.Hour(), tod.Minute(), 0, 0, time.UTC)
    if at.Before(now.UTC()) {
        return time.Time{}, ErrPastDate
    }
    return at, nil
}
