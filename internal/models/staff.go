package models

import "time"

type Staff struct {
	ID       string `json:"id" gorm:"primaryKey;size:36"`
	SalonID  string `json:"salonId" gorm:"size:36;index;not null"`
	Name     string `json:"name" gorm:"size:255;not null"`
	IsActive bool   `json:"isActive" gorm:"not null"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Staff) TableName() string { return "staff" }
