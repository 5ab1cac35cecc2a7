package models

import (
	"time"

	"salonhub/internal/availability"
)

type Salon struct {
	ID       string                      `json:"id" gorm:"primaryKey;size:36"`
	Name     string                      `json:"name" gorm:"size:255;not null"`
	Address  string                      `json:"address" gorm:"size:512"`
	Timezone string                      `json:"timezone" gorm:"size:64"`
	Hours    availability.OperatingHours `json:"operatingHours" gorm:"type:jsonb;not null"`
	IsActive bool                        `json:"isActive" gorm:"not null"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Salon) TableName() string { return "salons" }

// Location resolves the salon time zone, falling back when unset or unknown.
func (s *Salon) Location(fallback *time.Location) *time.Location {
	if s.Timezone != "" {
		if loc, err := time.LoadLocation(s.Timezone); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.UTC
	}
	return fallback
}
