package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "surgepark/internal/errors"
)

func at(h, m int) time.Time {
	return time.Date(2025, 7, 15, h, m, 0, 0, time.UTC)
}

func win(sh, sm, eh, em int) TimeWindow {
	return TimeWindow{Start: at(sh, sm), End: at(eh, em)}
}

func TestOverlaps(t *testing.T) {
	testCases := []struct {
		name string
		a, b TimeWindow
		want bool
	}{
		{name: "identical", a: win(9, 0, 11, 0), b: win(9, 0, 11, 0), want: true},
		{name: "partial", a: win(9, 0, 11, 0), b: win(10, 0, 12, 0), want: true},
		{name: "contained", a: win(9, 0, 17, 0), b: win(12, 0, 13, 0), want: true},
		{name: "shared boundary", a: win(9, 0, 11, 0), b: win(11, 0, 12, 0), want: false},
		{name: "disjoint", a: win(9, 0, 10, 0), b: win(14, 0, 15, 0), want: false},
		{name: "one minute overlap", a: win(9, 0, 11, 1), b: win(11, 0, 12, 0), want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.a, tc.b))
			assert.Equal(t, Overlaps(tc.a, tc.b), Overlaps(tc.b, tc.a), "overlap must be symmetric")
		})
	}
}

func TestOverlapsSelf(t *testing.T) {
	for _, w := range []TimeWindow{win(0, 0, 0, 1), win(9, 0, 18, 0), win(23, 0, 23, 59)} {
		assert.True(t, w.Overlaps(w))
	}
}

func TestDurationHours(t *testing.T) {
	assert.Equal(t, 2.0, win(9, 0, 11, 0).DurationHours())
	assert.Equal(t, 1.5, win(9, 0, 10, 30).DurationHours())
	assert.InDelta(t, 0.25, win(9, 0, 9, 15).DurationHours(), 1e-12)
}

func TestNewTimeWindowRejectsDegenerate(t *testing.T) {
	_, err := NewTimeWindow(at(10, 0), at(10, 0))
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = NewTimeWindow(at(11, 0), at(10, 0))
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	w, err := NewTimeWindow(at(10, 0), at(10, 30))
	require.NoError(t, err)
	assert.Equal(t, 0.5, w.DurationHours())
}

func TestWindowOnDay(t *testing.T) {
	day := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	w, err := WindowOnDay(day, "09:00", "12:30")
	require.NoError(t, err)
	assert.Equal(t, at(9, 0), w.Start)
	assert.Equal(t, at(12, 30), w.End)

	_, err = WindowOnDay(day, "9am", "12:30")
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = WindowOnDay(day, "12:30", "09:00")
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestDayOf(t *testing.T) {
	assert.Equal(t, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), DayOf(at(17, 45)))
}
