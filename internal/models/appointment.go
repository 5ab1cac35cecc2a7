package models

import (
	"time"

	"salonhub/internal/availability"
)

type Appointment struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	SalonID         string    `json:"salonId" gorm:"size:36;index;not null"`
	StaffID         string    `json:"staffId" gorm:"size:36;index:idx_appointments_staff_start,priority:1;not null"`
	ServiceID       string    `json:"serviceId" gorm:"size:36;not null"`
	CustomerName    string    `json:"customerName" gorm:"size:255;not null"`
	CustomerPhone   string    `json:"customerPhone" gorm:"size:32"`
	StartTime       time.Time `json:"startTime" gorm:"index:idx_appointments_staff_start,priority:2;not null"`
	DurationMinutes int       `json:"durationMinutes" gorm:"not null"`
	Status          string    `json:"status" gorm:"size:16;index;not null"` // pending, confirmed, cancelled, completed
	Notes           string    `json:"notes,omitempty"`
	Version         int64     `json:"version" gorm:"not null;default:1"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Appointment) TableName() string { return "appointments" }

// EndTime is the exclusive end of the appointment.
func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// AsBooking converts the appointment to the calculator's occupied-interval input.
func (a *Appointment) AsBooking() availability.Booking {
	return availability.Booking{Start: a.StartTime, DurationMinutes: a.DurationMinutes}
}
