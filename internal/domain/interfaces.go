package domain

import (
	"context"
	"time"

	"salonhub/internal/availability"
	"salonhub/internal/models"
)

type SalonRepository interface {
	CreateSalon(ctx context.Context, salon *models.Salon) error
	GetSalon(ctx context.Context, id string) (*models.Salon, error)
	ListSalons(ctx context.Context) ([]*models.Salon, error)
	UpdateSalonHours(ctx context.Context, id string, hours availability.OperatingHours) error
}

type CatalogRepository interface {
	CreateService(ctx context.Context, service *models.Service) error
	GetService(ctx context.Context, id string) (*models.Service, error)
	ListServices(ctx context.Context, salonID string) ([]*models.Service, error)
	CreateStaff(ctx context.Context, staff *models.Staff) error
	GetStaff(ctx context.Context, id string) (*models.Staff, error)
	ListStaff(ctx context.Context, salonID string) ([]*models.Staff, error)
}

type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appt *models.Appointment) error
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	UpdateAppointmentStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error
	// ListActiveAppointments returns pending/confirmed appointments of staffID overlapping [from, to).
	ListActiveAppointments(ctx context.Context, staffID string, from, to time.Time) ([]*models.Appointment, error)
	ListAppointmentsBySalon(ctx context.Context, salonID string, from, to time.Time) ([]*models.Appointment, error)
}

// Repository is implemented by both the sqlite and the postgres stores.
type Repository interface {
	SalonRepository
	CatalogRepository
	AppointmentRepository
	Ping(ctx context.Context) error
	Close() error
}

// Locker serializes bookings for one key across processes.
type Locker interface {
	// Acquire returns a release func, or ErrLockHeld-style error when the key is taken.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// AvailabilityQuery identifies one staff member, one service and one salon-local calendar day.
type AvailabilityQuery struct {
	SalonID   string
	StaffID   string
	ServiceID string
	// Date is interpreted as a calendar day in the salon's time zone.
	Date time.Time
}

type AvailabilityService interface {
	GetAvailability(ctx context.Context, q AvailabilityQuery) (*availability.Result, error)
}

type BookRequest struct {
	SalonID       string
	StaffID       string
	ServiceID     string
	StartTime     time.Time
	CustomerName  string
	CustomerPhone string
	Notes         string
}

type AppointmentService interface {
	Book(ctx context.Context, req BookRequest) (*models.Appointment, error)
	Get(ctx context.Context, id string) (*models.Appointment, error)
	Confirm(ctx context.Context, id string, version int64) (*models.Appointment, error)
	Cancel(ctx context.Context, id string, version int64) (*models.Appointment, error)
	Complete(ctx context.Context, id string, version int64) (*models.Appointment, error)
	ListForSalon(ctx context.Context, salonID string, date time.Time) ([]*models.Appointment, error)
}

type CatalogService interface {
	CreateSalon(ctx context.Context, salon *models.Salon) error
	GetSalon(ctx context.Context, id string) (*models.Salon, error)
	ListSalons(ctx context.Context) ([]*models.Salon, error)
	UpdateSalonHours(ctx context.Context, id string, hours availability.OperatingHours) (*models.Salon, error)
	CreateService(ctx context.Context, service *models.Service) error
	ListServices(ctx context.Context, salonID string) ([]*models.Service, error)
	CreateStaff(ctx context.Context, staff *models.Staff) error
	ListStaff(ctx context.Context, salonID string) ([]*models.Staff, error)
}
