package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatuses(t *testing.T) {
	assert.True(t, IsActiveStatus(StatusPending))
	assert.True(t, IsActiveStatus(StatusConfirmed))
	assert.False(t, IsActiveStatus(StatusCancelled))
	assert.False(t, IsActiveStatus(StatusCompleted))

	assert.True(t, IsValidStatus(StatusCompleted))
	assert.False(t, IsValidStatus("changed"))
}

func TestSalonLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	assert.NoError(t, err)

	t.Run("OwnZone", func(t *testing.T) {
		s := &Salon{Timezone: "America/New_York"}
		assert.Equal(t, "America/New_York", s.Location(berlin).String())
	})

	t.Run("FallbackWhenEmpty", func(t *testing.T) {
		s := &Salon{}
		assert.Equal(t, berlin, s.Location(berlin))
	})

	t.Run("FallbackWhenUnknown", func(t *testing.T) {
		s := &Salon{Timezone: "Nowhere/City"}
		assert.Equal(t, berlin, s.Location(berlin))
	})

	t.Run("UTCWithoutFallback", func(t *testing.T) {
		s := &Salon{}
		assert.Equal(t, time.UTC, s.Location(nil))
	})
}

func TestAppointmentInterval(t *testing.T) {
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	a := &Appointment{StartTime: start, DurationMinutes: 45}

	assert.Equal(t, start.Add(45*time.Minute), a.EndTime())

	b := a.AsBooking()
	assert.Equal(t, start, b.Start)
	assert.Equal(t, 45, b.DurationMinutes)
}
