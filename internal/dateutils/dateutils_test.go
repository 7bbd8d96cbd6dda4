package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"day first slash", "05/01/2026", NewDate(2026, 1, 5), false},
		{"iso", "2026-01-04", NewDate(2026, 1, 4), false},
		{"dotted", "31.12.2025", NewDate(2025, 12, 31), false},
		{"dashed", "05-01-2026", NewDate(2026, 1, 5), false},
		{"two digit year", "05/01/26", NewDate(2026, 1, 5), false},
		{"single digits", "5/1/2026", NewDate(2026, 1, 5), false},
		{"with time", "2026-01-05 10:11:12", NewDate(2026, 1, 5), false},
		{"surrounding whitespace", "  05/01/2026 ", NewDate(2026, 1, 5), false},
		{"empty", "", time.Time{}, true},
		{"garbage", "yesterday", time.Time{}, true},
		{"month out of range", "05/13/2026", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseCompactDate(t *testing.T) {
	got, err := ParseCompactDate("20260104120000[-3:BRT]")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2026, 1, 4), got)

	_, err = ParseCompactDate("2026-01")
	assert.Error(t, err)
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2026-02", MonthKey(NewDate(2026, 2, 28)))
	assert.Equal(t, "", MonthKey(time.Time{}))

	first, err := ParseMonthKey("2026-02")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2026, 2, 1), first)

	_, err = ParseMonthKey("02/2026")
	assert.Error(t, err)
}

func TestDayInMonth(t *testing.T) {
	assert.Equal(t, NewDate(2026, 2, 28), DayInMonth(2026, 2, 31))
	assert.Equal(t, NewDate(2026, 1, 10), DayInMonth(2026, 1, 10))
	assert.Equal(t, NewDate(2025, 12, 3), DayInMonth(2026, 0, 3))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 11, DaysBetween(NewDate(2026, 1, 1), NewDate(2026, 1, 12)))
	assert.Equal(t, -1, DaysBetween(NewDate(2026, 1, 2), NewDate(2026, 1, 1)))
}

func TestDateRange(t *testing.T) {
	var r DateRange
	assert.True(t, r.IsZero())
	assert.Equal(t, "empty", r.String())

	r = r.Include(NewDate(2026, 1, 10)).Include(NewDate(2026, 1, 3)).Include(time.Time{})
	assert.Equal(t, NewDate(2026, 1, 3), r.Start)
	assert.Equal(t, NewDate(2026, 1, 10), r.End)
	assert.Equal(t, "2026-01-03..2026-01-10", r.String())

	other := DateRange{Start: NewDate(2026, 1, 10), End: NewDate(2026, 1, 20)}
	assert.True(t, r.Overlaps(other))
	assert.False(t, r.Overlaps(DateRange{Start: NewDate(2026, 1, 11), End: NewDate(2026, 1, 12)}))
	assert.False(t, r.Overlaps(DateRange{}))

	merged := r.Merge(other)
	assert.Equal(t, NewDate(2026, 1, 3), merged.Start)
	assert.Equal(t, NewDate(2026, 1, 20), merged.End)
	assert.True(t, merged.Contains(NewDate(2026, 1, 15)))
	assert.False(t, merged.Contains(NewDate(2026, 1, 21)))
}
