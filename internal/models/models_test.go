package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateToTimestamp(t *testing.T) {
	ms, err := DateToTimestamp("15/03/2024")
	require.NoError(t, err)

	want := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.Local).UnixMilli()
	assert.Equal(t, want, ms)

	_, err = DateToTimestamp("2024-03-15")
	assert.Error(t, err)

	_, err = DateToTimestamp("")
	assert.Error(t, err)
}

func TestStartOfDayMilli(t *testing.T) {
	noon := time.Date(2024, time.March, 15, 12, 34, 56, 789, time.Local)
	midnight := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.Local)
	assert.Equal(t, midnight.UnixMilli(), StartOfDayMilli(noon))
	assert.Equal(t, midnight.UnixMilli(), StartOfDayMilli(midnight))
}

func TestDateRoundTrip(t *testing.T) {
	// The timestamp derived from a date string formats back to the same day.
	ms, err := DateToTimestamp("01/12/2023")
	require.NoError(t, err)
	assert.Equal(t, "01/12/2023", time.UnixMilli(ms).In(time.Local).Format(DateLayout))
}

func TestCurrentMonth(t *testing.T) {
	assert.Equal(t, "03/2024", CurrentMonth(time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "12/2023", CurrentMonth(time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC)))
}
