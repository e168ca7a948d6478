package recurrence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/remindkit/pkg/recurrence"
)

func ptr(t time.Time) *time.Time { return &t }

func TestNext(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		rule recurrence.Rule
		want time.Time
	}{
		{"daily adds one day", recurrence.Daily, time.Date(2025, time.March, 15, 9, 30, 0, 0, time.UTC)},
		{"weekly adds seven days", recurrence.Weekly, time.Date(2025, time.March, 21, 9, 30, 0, 0, time.UTC)},
		{"monthly keeps day of month", recurrence.Monthly, time.Date(2025, time.April, 14, 9, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := recurrence.Next(base, tt.rule, nil)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("none has no successor", func(t *testing.T) {
		t.Parallel()

		_, ok := recurrence.Next(base, recurrence.None, nil)
		assert.False(t, ok)
	})

	t.Run("unknown rule has no successor", func(t *testing.T) {
		t.Parallel()

		_, ok := recurrence.Next(base, recurrence.Rule("yearly"), nil)
		assert.False(t, ok)
	})
}

func TestNext_Monthly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{
			name: "clamps to end of february",
			from: time.Date(2025, time.January, 31, 9, 0, 0, 0, time.UTC),
			want: time.Date(2025, time.February, 28, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "clamps to leap day",
			from: time.Date(2024, time.January, 30, 9, 0, 0, 0, time.UTC),
			want: time.Date(2024, time.February, 29, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "clamps to thirty day month",
			from: time.Date(2025, time.March, 31, 9, 0, 0, 0, time.UTC),
			want: time.Date(2025, time.April, 30, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "wraps december into next year",
			from: time.Date(2025, time.December, 15, 18, 45, 0, 0, time.UTC),
			want: time.Date(2026, time.January, 15, 18, 45, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := recurrence.Next(tt.from, recurrence.Monthly, nil)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNext_KeepsWallClockAcrossDST(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata not available")
	}

	// DST starts on 2025-03-30 in Europe/Berlin.
	from := time.Date(2025, time.March, 29, 9, 0, 0, 0, loc)
	got, ok := recurrence.Next(from, recurrence.Daily, nil)
	require.True(t, ok)
	assert.Equal(t, 9, got.Hour())
	assert.Equal(t, 30, got.Day())
	assert.Equal(t, 23*time.Hour, got.Sub(from))
}

func TestNext_EndRepeat(t *testing.T) {
	t.Parallel()

	from := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)

	t.Run("weekly past end repeat stops", func(t *testing.T) {
		t.Parallel()

		_, ok := recurrence.Next(from, recurrence.Weekly, ptr(from.AddDate(0, 0, 6)))
		assert.False(t, ok)
	})

	t.Run("occurrence equal to end repeat is kept", func(t *testing.T) {
		t.Parallel()

		got, ok := recurrence.Next(from, recurrence.Weekly, ptr(from.AddDate(0, 0, 7)))
		require.True(t, ok)
		assert.Equal(t, from.AddDate(0, 0, 7), got)
	})

	t.Run("daily within end repeat continues", func(t *testing.T) {
		t.Parallel()

		_, ok := recurrence.Next(from, recurrence.Daily, ptr(from.AddDate(0, 1, 0)))
		assert.True(t, ok)
	})
}

func TestNextAfter(t *testing.T) {
	t.Parallel()

	from := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)

	t.Run("skips missed occurrences", func(t *testing.T) {
		t.Parallel()

		now := from.AddDate(0, 0, 3).Add(time.Hour)
		got, ok := recurrence.NextAfter(from, recurrence.Daily, nil, now)
		require.True(t, ok)
		assert.Equal(t, from.AddDate(0, 0, 4), got)
	})

	t.Run("returns plain next when already in the future", func(t *testing.T) {
		t.Parallel()

		got, ok := recurrence.NextAfter(from, recurrence.Weekly, nil, from)
		require.True(t, ok)
		assert.Equal(t, from.AddDate(0, 0, 7), got)
	})

	t.Run("stops at end repeat while catching up", func(t *testing.T) {
		t.Parallel()

		now := from.AddDate(0, 0, 10)
		_, ok := recurrence.NextAfter(from, recurrence.Daily, ptr(from.AddDate(0, 0, 5)), now)
		assert.False(t, ok)
	})
}

func TestParseRule(t *testing.T) {
	t.Parallel()

	r, err := recurrence.ParseRule("")
	require.NoError(t, err)
	assert.Equal(t, recurrence.None, r)

	r, err = recurrence.ParseRule("monthly")
	require.NoError(t, err)
	assert.Equal(t, recurrence.Monthly, r)
	assert.True(t, r.Repeats())

	_, err = recurrence.ParseRule("hourly")
	assert.ErrorIs(t, err, recurrence.ErrInvalidRule)
	assert.False(t, recurrence.None.Repeats())
}
