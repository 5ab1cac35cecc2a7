package models

import "time"

// Service is a bookable treatment offered by a salon.
type Service struct {
	ID              string  `json:"id" gorm:"primaryKey;size:36"`
	SalonID         string  `json:"salonId" gorm:"size:36;index;not null"`
	Name            string  `json:"name" gorm:"size:255;not null"`
	DurationMinutes int     `json:"durationMinutes" gorm:"not null"`
	Price           float64 `json:"price"`
	IsActive        bool    `json:"isActive" gorm:"not null"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Service) TableName() string { return "services" }
