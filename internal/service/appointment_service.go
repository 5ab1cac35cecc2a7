package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salonhub/internal/config"
	"salonhub/internal/database"
	"salonhub/internal/domain"
	"salonhub/internal/events"
	"salonhub/internal/metrics"
	"salonhub/internal/models"
	"salonhub/internal/repository"
	"salonhub/internal/worker"

	"github.com/rs/zerolog"
)

// allowedTransitions maps a status to the statuses it may move to.
var allowedTransitions = map[string][]string{
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusCompleted, models.StatusCancelled},
}

// CanTransition reports whether an appointment may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type AppointmentService struct {
	repo           domain.Repository
	availability   domain.AvailabilityService
	locker         domain.Locker
	eventBus       domain.EventPublisher
	lockTTL        time.Duration
	lockRetry      worker.RetryPolicy
	maxAdvanceDays int
	fallbackLoc    *time.Location
	now            func() time.Time
	logger         *zerolog.Logger
}

func NewAppointmentService(
	repo domain.Repository,
	availability domain.AvailabilityService,
	locker domain.Locker,
	eventBus domain.EventPublisher,
	cfg config.BookingConfig,
	fallbackLoc *time.Location,
	logger *zerolog.Logger,
) *AppointmentService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Second
	}
	if cfg.MaxAdvanceDays <= 0 {
		cfg.MaxAdvanceDays = 90
	}
	if fallbackLoc == nil {
		fallbackLoc = time.UTC
	}
	return &AppointmentService{
		repo:         repo,
		availability: availability,
		locker:       locker,
		eventBus:     eventBus,
		lockTTL:      cfg.LockTTL,
		lockRetry: worker.RetryPolicy{
			MaxRetries:    3,
			InitialDelay:  50 * time.Millisecond,
			MaxDelay:      500 * time.Millisecond,
			BackoffFactor: 2,
		},
		maxAdvanceDays: cfg.MaxAdvanceDays,
		fallbackLoc:    fallbackLoc,
		now:            time.Now,
		logger:         logger,
	}
}

func validateBookRequest(req domain.BookRequest) error {
	var missing []string
	if req.SalonID == "" {
		missing = append(missing, "salonId")
	}
	if req.StaffID == "" {
		missing = append(missing, "staffId")
	}
	if req.ServiceID == "" {
		missing = append(missing, "serviceId")
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		missing = append(missing, "customerName")
	}
	if req.StartTime.IsZero() {
		missing = append(missing, "startTime")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidArgument, strings.Join(missing, ", "))
	}
	return nil
}

// Book creates a pending appointment if the requested start is one of the
// currently offered slots. Bookings for the same staff member and day are
// serialized through the locker so two requests cannot both claim a slot.
func (s *AppointmentService) Book(ctx context.Context, req domain.BookRequest) (*models.Appointment, error) {
	if err := validateBookRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	if req.StartTime.Before(now) {
		return nil, ErrPastDate
	}
	if req.StartTime.After(now.AddDate(0, 0, s.maxAdvanceDays)) {
		return nil, ErrDateTooFar
	}

	salon, err := s.repo.GetSalon(ctx, req.SalonID)
	if err != nil {
		return nil, err
	}
	loc := salon.Location(s.fallbackLoc)
	day := LocalDay(req.StartTime.In(loc), loc)
	lockKey := fmt.Sprintf("booking:%s:%s", req.StaffID, day.Format(models.DateLayout))

	release, err := s.acquire(ctx, lockKey)
	if err != nil {
		return nil, err
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
			s.logger.Warn().Err(relErr).Str("key", lockKey).Msg("Failed to release booking lock")
		}
	}()

	res, err := s.availability.GetAvailability(ctx, domain.AvailabilityQuery{
		SalonID:   req.SalonID,
		StaffID:   req.StaffID,
		ServiceID: req.ServiceID,
		Date:      day,
	})
	if err != nil {
		return nil, err
	}

	offered := false
	for _, slot := range res.Slots {
		if slot.Start.Equal(req.StartTime) {
			offered = true
			break
		}
	}
	if !offered {
		return nil, fmt.Errorf("%w: %s", ErrSlotUnavailable, req.StartTime.Format(time.RFC3339))
	}

	appt := &models.Appointment{
		SalonID:         req.SalonID,
		StaffID:         req.StaffID,
		ServiceID:       req.ServiceID,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		StartTime:       req.StartTime,
		DurationMinutes: res.ServiceDuration,
		Status:          models.StatusPending,
		Notes:           req.Notes,
	}
	if err := s.repo.CreateAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.logger.Info().
		Str("appointment_id", appt.ID).
		Str("staff_id", appt.StaffID).
		Time("start", appt.StartTime).
		Msg("Appointment booked")

	s.publishEvent(events.EventAppointmentCreated, appt, "")
	return appt, nil
}

func (s *AppointmentService) acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	var release func(context.Context) error
	err := s.lockRetry.Do(ctx, func(ctx context.Context) error {
		var err error
		release, err = s.locker.Acquire(ctx, key, s.lockTTL)
		return err
	})
	if errors.Is(err, repository.ErrLockHeld) {
		return nil, ErrBookingInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("acquire booking lock: %w", err)
	}
	return release, nil
}

func (s *AppointmentService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: appointment id is required", ErrInvalidArgument)
	}
	return s.repo.GetAppointment(ctx, id)
}

func (s *AppointmentService) Confirm(ctx context.Context, id string, version int64) (*models.Appointment, error) {
	return s.transition(ctx, id, version, models.StatusConfirmed, events.EventAppointmentConfirmed)
}

func (s *AppointmentService) Cancel(ctx context.Context, id string, version int64) (*models.Appointment, error) {
	return s.transition(ctx, id, version, models.StatusCancelled, events.EventAppointmentCancelled)
}

func (s *AppointmentService) Complete(ctx context.Context, id string, version int64) (*models.Appointment, error) {
	return s.transition(ctx, id, version, models.StatusCompleted, events.EventAppointmentCompleted)
}

func (s *AppointmentService) transition(ctx context.Context, id string, version int64, to, eventType string) (*models.Appointment, error) {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Version != version {
		return nil, fmt.Errorf("appointment %s at version %d, got %d: %w", id, appt.Version, version, database.ErrConcurrentModification)
	}
	if !CanTransition(appt.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, to)
	}

	if err := s.repo.UpdateAppointmentStatusWithVersion(ctx, id, version, to); err != nil {
		return nil, err
	}

	previous := appt.Status
	appt.Status = to
	appt.Version++

	s.logger.Info().
		Str("appointment_id", id).
		Str("from", previous).
		Str("to", to).
		Msg("Appointment status changed")

	s.publishEvent(eventType, appt, previous)
	return appt, nil
}

// ListForSalon returns every appointment starting on the salon-local calendar day of date.
func (s *AppointmentService) ListForSalon(ctx context.Context, salonID string, date time.Time) ([]*models.Appointment, error) {
	if salonID == "" {
		return nil, fmt.Errorf("%w: salon id is required", ErrInvalidArgument)
	}
	salon, err := s.repo.GetSalon(ctx, salonID)
	if err != nil {
		return nil, err
	}
	day := LocalDay(date, salon.Location(s.fallbackLoc))
	return s.repo.ListAppointmentsBySalon(ctx, salonID, day, day.AddDate(0, 0, 1))
}

func (s *AppointmentService) publishEvent(eventType string, appt *models.Appointment, previous string) {
	metrics.IncAppointmentEvent(eventType)
	if s.eventBus == nil {
		return
	}

	if err := s.eventBus.PublishJSON(eventType, events.NewAppointmentPayload(appt, previous)); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Str("appointment_id", appt.ID).Msg("Failed to publish event")
	}
}
