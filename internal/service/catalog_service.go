package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"salonhub/internal/availability"
	"salonhub/internal/domain"
	"salonhub/internal/models"

	"github.com/rs/zerolog"
)

type CatalogService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewCatalogService(repo domain.Repository, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

func (s *CatalogService) CreateSalon(ctx context.Context, salon *models.Salon) error {
	salon.Name = strings.TrimSpace(salon.Name)
	if salon.Name == "" {
		return fmt.Errorf("%w: salon name is required", ErrInvalidArgument)
	}
	if salon.Timezone != "" {
		if _, err := time.LoadLocation(salon.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", ErrInvalidArgument, salon.Timezone)
		}
	}
	if err := salon.Hours.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	salon.IsActive = true
	if err := s.repo.CreateSalon(ctx, salon); err != nil {
		return fmt.Errorf("create salon: %w", err)
	}
	s.logger.Info().Str("salon_id", salon.ID).Str("name", salon.Name).Msg("Salon created")
	return nil
}

func (s *CatalogService) GetSalon(ctx context.Context, id string) (*models.Salon, error) {
	return s.repo.GetSalon(ctx, id)
}

func (s *CatalogService) ListSalons(ctx context.Context) ([]*models.Salon, error) {
	return s.repo.ListSalons(ctx)
}

func (s *CatalogService) UpdateSalonHours(ctx context.Context, id string, hours availability.OperatingHours) (*models.Salon, error) {
	if err := hours.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err := s.repo.UpdateSalonHours(ctx, id, hours); err != nil {
		return nil, err
	}
	s.logger.Info().Str("salon_id", id).Msg("Salon hours updated")
	return s.repo.GetSalon(ctx, id)
}

func (s *CatalogService) CreateService(ctx context.Context, service *models.Service) error {
	service.Name = strings.TrimSpace(service.Name)
	if service.Name == "" {
		return fmt.Errorf("%w: service name is required", ErrInvalidArgument)
	}
	if service.DurationMinutes <= 0 || service.DurationMinutes > models.MaxServiceDurationMinutes {
		return fmt.Errorf("%w: duration must be between 1 and %d minutes", ErrInvalidArgument, models.MaxServiceDurationMinutes)
	}
	if service.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidArgument)
	}
	if _, err := s.repo.GetSalon(ctx, service.SalonID); err != nil {
		return err
	}

	service.IsActive = true
	if err := s.repo.CreateService(ctx, service); err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

func (s *CatalogService) ListServices(ctx context.Context, salonID string) ([]*models.Service, error) {
	if _, err := s.repo.GetSalon(ctx, salonID); err != nil {
		return nil, err
	}
	return s.repo.ListServices(ctx, salonID)
}

func (s *CatalogService) CreateStaff(ctx context.Context, staff *models.Staff) error {
	staff.Name = strings.TrimSpace(staff.Name)
	if staff.Name == "" {
		return fmt.Errorf("%w: staff name is required", ErrInvalidArgument)
	}
	if _, err := s.repo.GetSalon(ctx, staff.SalonID); err != nil {
		return err
	}

	staff.IsActive = true
	if err := s.repo.CreateStaff(ctx, staff); err != nil {
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

func (s *CatalogService) ListStaff(ctx context.Context, salonID string) ([]*models.Staff, error) {
	if _, err := s.repo.GetSalon(ctx, salonID); err != nil {
		return nil, err
	}
	return s.repo.ListStaff(ctx, salonID)
}
