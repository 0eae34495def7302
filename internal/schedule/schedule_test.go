package schedule

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) *time.Time {
    t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
    return &t
}

func tod(s string) *string { return &s }

func TestCommitCombinesComponents(t *testing.T) {
    got, err := Commit(day(2026, 3, 14), tod("15:30"), now)
    require.NoError(t, err)
    assert.Equal(t, time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC), got)

    // The same result regardless of which component was edited last:
    // the day carries no time and the time carries no day, so there is
    // no ordering to matter.
    y, m, d := got.Date()
    assert.Equal(t, [3]int{2026, 3, 14}, [3]int{y, int(m), d})
    assert.Equal(t, "15:30", got.Format(TimeLayout))
}

func TestCommitIncomplete(t *testing.T) {
    _, err := Commit(day(2026, 3, 14), nil, now)
    assert.ErrorIs(t, err, ErrIncompleteSchedule)

    _, err = Commit(nil, tod("15:30"), now)
    assert.ErrorIs(t, err, ErrIncompleteSchedule)

    _, err = Commit(nil, nil, now)
    assert.ErrorIs(t, err, ErrIncompleteSchedule)
}

func TestCommitRejectsPast(t *testing.T) {
    _, err := Commit(day(2026, 3, 9), tod("10:00"), now)
    assert.ErrorIs(t, err, ErrPastDate)

    // Same day but an earlier hour is still in the past.
    _, err = Commit(day(2026, 3, 10), tod("08:00"), now)
    assert.ErrorIs(t, err, ErrPastDate)

    // Same day, later hour is fine.
    _, err = Commit(day(2026, 3, 10), tod("10:00"), now)
    assert.NoError(t, err)
}

func TestCommitRejectsMalformedTime(t *testing.T) {
    _, err := Commit(day(2026, 3, 14), tod("3pm"), now)
    assert.Error(t, err)
}

func TestValidateDay(t *testing.T) {
    assert.ErrorIs(t, ValidateDay(now.AddDate(0, 0, -1), now), ErrPastDate)
    assert.NoError(t, ValidateDay(now, now), "today is allowed")
    assert.NoError(t, ValidateDay(now.AddDate(0, 0, 7), now))
}

func TestValidateTimeOfDay(t *testing.T) {
    assert.NoError(t, ValidateTimeOfDay("00:00"))
    assert.NoError(t, ValidateTimeOfDay("23:59"))
    assert.Error(t, ValidateTimeOfDay("24:00"))
    assert.Error(t, ValidateTimeOfDay("noon"))
}
