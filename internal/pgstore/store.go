// Package pgstore is the PostgreSQL implementation of domain.Repository,
// selected with database.driver: postgres.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonhub/internal/availability"
	"salonhub/internal/config"
	"salonhub/internal/database"
	"salonhub/internal/domain"
	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var _ domain.Repository = (*Store)(nil)

type Store struct {
	db     *gorm.DB
	logger *zerolog.Logger
}

// Open connects with the configured DSN and migrates the schema.
func Open(cfg config.PostgresConfig, logger *zerolog.Logger) (*Store, error) {
	return OpenDSN(cfg.DSN(), cfg.MaxConnections, logger)
}

func OpenDSN(dsn string, maxConns int, logger *zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get postgres pool: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	store, err := New(db, logger)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	logger.Info().Msg("Postgres store initialized")
	return store, nil
}

// New wraps an open gorm handle and migrates the schema.
func New(db *gorm.DB, logger *zerolog.Logger) (*Store, error) {
	if err := db.AutoMigrate(&models.Salon{}, &models.Service{}, &models.Staff{}, &models.Appointment{}); err != nil {
		return nil, fmt.Errorf("failed to migrate postgres schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors onto the repository sentinels shared with the sqlite store.
func translate(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, database.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func (s *Store) CreateSalon(ctx context.Context, salon *models.Salon) error {
	if salon.ID == "" {
		salon.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(salon).Error; err != nil {
		return fmt.Errorf("failed to create salon: %w", err)
	}
	return nil
}

func (s *Store) GetSalon(ctx context.Context, id string) (*models.Salon, error) {
	var salon models.Salon
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&salon).Error; err != nil {
		return nil, translate(err, "salon", id)
	}
	return &salon, nil
}

func (s *Store) ListSalons(ctx context.Context) ([]*models.Salon, error) {
	var salons []*models.Salon
	if err := s.db.WithContext(ctx).Order("name").Find(&salons).Error; err != nil {
		return nil, fmt.Errorf("failed to list salons: %w", err)
	}
	return salons, nil
}

func (s *Store) UpdateSalonHours(ctx context.Context, id string, hours availability.OperatingHours) error {
	res := s.db.WithContext(ctx).Model(&models.Salon{}).Where("id = ?", id).Update("hours", hours)
	if res.Error != nil {
		return fmt.Errorf("failed to update salon hours: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("salon %s: %w", id, database.ErrNotFound)
	}
	return nil
}

func (s *Store) CreateService(ctx context.Context, service *models.Service) error {
	if service.ID == "" {
		service.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(service).Error; err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (s *Store) GetService(ctx context.Context, id string) (*models.Service, error) {
	var service models.Service
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&service).Error; err != nil {
		return nil, translate(err, "service", id)
	}
	return &service, nil
}

func (s *Store) ListServices(ctx context.Context, salonID string) ([]*models.Service, error) {
	var services []*models.Service
	if err := s.db.WithContext(ctx).Where("salon_id = ?", salonID).Order("name").Find(&services).Error; err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

func (s *Store) CreateStaff(ctx context.Context, staff *models.Staff) error {
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(staff).Error; err != nil {
		return fmt.Errorf("failed to create staff: %w", err)
	}
	return nil
}

func (s *Store) GetStaff(ctx context.Context, id string) (*models.Staff, error) {
	var staff models.Staff
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&staff).Error; err != nil {
		return nil, translate(err, "staff", id)
	}
	return &staff, nil
}

func (s *Store) ListStaff(ctx context.Context, salonID string) ([]*models.Staff, error) {
	var staff []*models.Staff
	if err := s.db.WithContext(ctx).Where("salon_id = ?", salonID).Order("name").Find(&staff).Error; err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return staff, nil
}

func (s *Store) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.Status == "" {
		appt.Status = models.StatusPending
	}
	if !models.IsValidStatus(appt.Status) {
		return fmt.Errorf("%w: %q", database.ErrInvalidStatus, appt.Status)
	}
	appt.Version = 1
	appt.StartTime = appt.StartTime.UTC()
	if err := s.db.WithContext(ctx).Create(appt).Error; err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&appt).Error; err != nil {
		return nil, translate(err, "appointment", id)
	}
	appt.StartTime = appt.StartTime.UTC()
	return &appt, nil
}

func (s *Store) UpdateAppointmentStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error {
	if !models.IsValidStatus(status) {
		return fmt.Errorf("%w: %q", database.ErrInvalidStatus, status)
	}
	res := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND version = ?", id, fromVersion).
		Updates(map[string]any{
			"status":  status,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update appointment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetAppointment(ctx, id); err != nil {
			return err
		}
		return database.ErrConcurrentModification
	}
	return nil
}

func (s *Store) ListActiveAppointments(ctx context.Context, staffID string, from, to time.Time) ([]*models.Appointment, error) {
	var appts []*models.Appointment
	err := s.db.WithContext(ctx).
		Where("staff_id = ? AND status IN ? AND start_time < ?", staffID, models.ActiveStatuses, to.UTC()).
		Where("start_time + make_interval(mins => duration_minutes) > ?", from.UTC()).
		Order("start_time").
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active appointments: %w", err)
	}
	for _, a := range appts {
		a.StartTime = a.StartTime.UTC()
	}
	return appts, nil
}

func (s *Store) ListAppointmentsBySalon(ctx context.Context, salonID string, from, to time.Time) ([]*models.Appointment, error) {
	var appts []*models.Appointment
	err := s.db.WithContext(ctx).
		Where("salon_id = ? AND start_time >= ? AND start_time < ?", salonID, from.UTC(), to.UTC()).
		Order("start_time, staff_id").
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list salon appointments: %w", err)
	}
	for _, a := range appts {
		a.StartTime = a.StartTime.UTC()
	}
	return appts, nil
}
