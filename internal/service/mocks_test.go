package service

import (
	"context"
	"time"

	"salonhub/internal/availability"
	"salonhub/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateSalon(ctx context.Context, s *models.Salon) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockRepo) GetSalon(ctx context.Context, id string) (*models.Salon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Salon), args.Error(1)
}
func (m *mockRepo) ListSalons(ctx context.Context) ([]*models.Salon, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Salon), args.Error(1)
}
func (m *mockRepo) UpdateSalonHours(ctx context.Context, id string, h availability.OperatingHours) error {
	return m.Called(ctx, id, h).Error(0)
}
func (m *mockRepo) CreateService(ctx context.Context, s *models.Service) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockRepo) GetService(ctx context.Context, id string) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}
func (m *mockRepo) ListServices(ctx context.Context, salonID string) ([]*models.Service, error) {
	args := m.Called(ctx, salonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Service), args.Error(1)
}
func (m *mockRepo) CreateStaff(ctx context.Context, s *models.Staff) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockRepo) GetStaff(ctx context.Context, id string) (*models.Staff, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Staff), args.Error(1)
}
func (m *mockRepo) ListStaff(ctx context.Context, salonID string) ([]*models.Staff, error) {
	args := m.Called(ctx, salonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Staff), args.Error(1)
}
func (m *mockRepo) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockRepo) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}
func (m *mockRepo) UpdateAppointmentStatusWithVersion(ctx context.Context, id string, v int64, s string) error {
	return m.Called(ctx, id, v, s).Error(0)
}
func (m *mockRepo) ListActiveAppointments(ctx context.Context, staffID string, from, to time.Time) ([]*models.Appointment, error) {
	args := m.Called(ctx, staffID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}
func (m *mockRepo) ListAppointmentsBySalon(ctx context.Context, salonID string, from, to time.Time) ([]*models.Appointment, error) {
	args := m.Called(ctx, salonID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}
func (m *mockRepo) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
func (m *mockRepo) Close() error {
	return m.Called().Error(0)
}
