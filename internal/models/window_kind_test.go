package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindowKindFromString(t *testing.T) {
	t.Parallel()

	kind, err := NewWindowKindFromString("daily")
	require.NoError(t, err)
	assert.Equal(t, WindowDaily, kind)

	kind, err = NewWindowKindFromString("monthly")
	require.NoError(t, err)
	assert.Equal(t, WindowMonthly, kind)

	_, err = NewWindowKindFromString("hourly")
	assert.Error(t, err)
}

func TestWindowKind_Start(t *testing.T) {
	t.Parallel()

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	tests := []struct {
		name     string
		window   WindowKind
		input    time.Time
		expected time.Time
	}{
		{
			name:     "daily truncates to midnight",
			window:   WindowDaily,
			input:    time.Date(2025, 12, 28, 18, 3, 45, 123, time.UTC),
			expected: time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "monthly truncates to first of month",
			window:   WindowMonthly,
			input:    time.Date(2025, 12, 28, 18, 3, 45, 0, time.UTC),
			expected: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "daily keeps the input location",
			window:   WindowDaily,
			input:    time.Date(2025, 3, 30, 1, 30, 0, 0, berlin),
			expected: time.Date(2025, 3, 30, 0, 0, 0, 0, berlin),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.expected.Equal(tt.window.Start(tt.input)))
		})
	}
}

func TestWindowKind_Next(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		WindowDaily.Next(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		WindowMonthly.Next(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t,
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		WindowMonthly.Next(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestWindowKind_Contains(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC)

	assert.True(t, WindowDaily.Contains(start, start))
	assert.True(t, WindowDaily.Contains(start, start.Add(23*time.Hour+59*time.Minute)))
	assert.False(t, WindowDaily.Contains(start, start.Add(24*time.Hour)))
	assert.False(t, WindowDaily.Contains(start, start.Add(-time.Nanosecond)))
	assert.True(t, WindowMonthly.Contains(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), start))
}

func TestWindowKind_FormatWindowStart(t *testing.T) {
	t.Parallel()

	testTime := time.Date(2025, 12, 28, 18, 3, 45, 123456789, time.UTC)

	assert.Equal(t, "20251228", WindowDaily.FormatWindowStart(testTime))
	assert.Equal(t, "202512", WindowMonthly.FormatWindowStart(testTime))
}

func TestWindowKind_BucketID(t *testing.T) {
	t.Parallel()

	testTime := time.Date(2025, 3, 7, 18, 3, 45, 0, time.UTC)

	assert.Equal(t, "day-07", WindowDaily.BucketID(testTime))
	assert.Equal(t, "month-03", WindowMonthly.BucketID(testTime))
}

func TestWindowKind_Invalid(t *testing.T) {
	t.Parallel()

	invalid := WindowKind("hourly")
	testTime := time.Date(2025, 12, 28, 18, 3, 45, 0, time.UTC)

	assert.Panics(t, func() { invalid.Start(testTime) })
	assert.Panics(t, func() { invalid.FormatWindowStart(testTime) })
	assert.Panics(t, func() { invalid.BucketID(testTime) })
}
