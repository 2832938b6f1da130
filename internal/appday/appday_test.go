package appday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppDay_BeforeResetHourBelongsToPreviousDay(t *testing.T) {
	cal := New(3)

	// 02:30 on March 5 is still March 4's app-day.
	now := time.Date(2025, 3, 5, 2, 30, 0, 0, time.UTC)
	assert.Equal(t, AppDay("2025-03-04"), cal.AppDay(now))
}

func TestAppDay_AfterResetHourBelongsToCurrentDay(t *testing.T) {
	cal := New(3)

	now := time.Date(2025, 3, 5, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, AppDay("2025-03-05"), cal.AppDay(now))

	now = time.Date(2025, 3, 5, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, AppDay("2025-03-05"), cal.AppDay(now))
}

func TestAppDay_IdempotentAtSameInstant(t *testing.T) {
	cal := New(3)
	now := time.Date(2025, 3, 5, 2, 59, 59, 0, time.UTC)

	first := cal.AppDay(now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, cal.AppDay(now))
	}
}

func TestAppDay_AdvancesAcrossResetHour(t *testing.T) {
	cal := New(3)

	before := cal.AppDay(time.Date(2025, 3, 5, 2, 59, 59, 0, time.UTC))
	after := cal.AppDay(time.Date(2025, 3, 5, 3, 0, 0, 0, time.UTC))

	require.NotEqual(t, before, after)
	assert.True(t, before.IsNext(after), "app-day should advance by exactly one day across the reset hour")
}

func TestAppDay_MidnightRollover(t *testing.T) {
	cal := New(3)

	// Midnight does not start a new app-day; Jan 1 00:30 is still Dec 31.
	now := time.Date(2025, 1, 1, 0, 30, 0, 0, time.UTC)
	assert.Equal(t, AppDay("2024-12-31"), cal.AppDay(now))
}

func TestNew_OutOfRangeResetHourFallsBack(t *testing.T) {
	assert.Equal(t, DefaultResetHour, New(-1).ResetHour())
	assert.Equal(t, DefaultResetHour, New(24).ResetHour())
	assert.Equal(t, 0, New(0).ResetHour())
}

func TestAppDay_NextPrev(t *testing.T) {
	d := AppDay("2025-02-28")
	assert.Equal(t, AppDay("2025-03-01"), d.Next())
	assert.Equal(t, AppDay("2025-02-27"), d.Prev())
	assert.Equal(t, d, d.Next().Prev())
}

func TestAppDay_IsNext(t *testing.T) {
	d := AppDay("2025-03-04")
	assert.True(t, d.IsNext("2025-03-05"))
	assert.False(t, d.IsNext("2025-03-06"))
	assert.False(t, d.IsNext("2025-03-04"))
	assert.False(t, d.IsNext("2025-03-03"))
}

func TestAppDay_Before(t *testing.T) {
	assert.True(t, AppDay("2025-03-04").Before("2025-03-05"))
	assert.False(t, AppDay("2025-03-05").Before("2025-03-05"))
	assert.False(t, AppDay("2025-03-06").Before("2025-03-05"))
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	assert.Equal(t, start, clock.Now())

	clock.Advance(24 * time.Hour)
	assert.Equal(t, start.Add(24*time.Hour), clock.Now())

	clock.Set(start)
	assert.Equal(t, start, clock.Now())
}
