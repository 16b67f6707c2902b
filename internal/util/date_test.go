package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 6, 1, 21, 30, 0, 0, time.UTC)
	tests := []struct {
		target string
		want   int
	}{
		{"2026-06-01", 0},
		{"2026-06-02", 1},
		{"2026-06-15", 14},
		{"2026-05-30", -2},
	}
	for _, tt := range tests {
		target, err := ParseDate(tt.target, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, tt.want, DaysUntil(now, target), tt.target)
	}
}

func TestParseAndFormatDate(t *testing.T) {
	d, err := ParseDate("2026-02-28", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", FormatDate(d.AddDate(0, 0, 1)))
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("28/02/2026", time.UTC)
	assert.Error(t, err)

	local, err := ParseDate("2026-06-01", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Local, local.Location())
}

func TestStartOfDay(t *testing.T) {
	at := time.Date(2026, 6, 1, 23, 59, 59, 5, time.UTC)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), StartOfDay(at))
}
