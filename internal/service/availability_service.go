package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonhub/internal/availability"
	"salonhub/internal/database"
	"salonhub/internal/domain"
	"salonhub/internal/metrics"
	"salonhub/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type AvailabilityService struct {
	repo        domain.Repository
	calc        *availability.Calculator
	fallbackLoc *time.Location
	hidePast    bool
	now         func() time.Time
	logger      *zerolog.Logger
}

func NewAvailabilityService(
	repo domain.Repository,
	calc *availability.Calculator,
	fallbackLoc *time.Location,
	hidePast bool,
	logger *zerolog.Logger,
) *AvailabilityService {
	if fallbackLoc == nil {
		fallbackLoc = time.UTC
	}
	return &AvailabilityService{
		repo:        repo,
		calc:        calc,
		fallbackLoc: fallbackLoc,
		hidePast:    hidePast,
		now:         time.Now,
		logger:      logger,
	}
}

// dayContext is everything fetched for one availability computation.
type dayContext struct {
	salon   *models.Salon
	service *models.Service
	staff   *models.Staff
	day     time.Time
	appts   []*models.Appointment
}

func (s *AvailabilityService) GetAvailability(ctx context.Context, q domain.AvailabilityQuery) (*availability.Result, error) {
	if q.SalonID == "" || q.StaffID == "" || q.ServiceID == "" {
		return nil, fmt.Errorf("%w: salonId, staffId and serviceId are required", ErrInvalidArgument)
	}
	if q.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidArgument)
	}

	dc, err := s.load(ctx, q)
	if err != nil {
		return nil, err
	}

	req := availability.Request{
		Date:            dc.day,
		Hours:           dc.salon.Hours.For(dc.day.Weekday()),
		ServiceDuration: dc.service.DurationMinutes,
		Bookings:        make([]availability.Booking, 0, len(dc.appts)),
	}
	for _, a := range dc.appts {
		req.Bookings = append(req.Bookings, a.AsBooking())
	}
	if s.hidePast {
		req.NotBefore = s.now()
	}

	res, err := s.calc.Compute(req)
	if err != nil {
		metrics.ObserveAvailability(metrics.OutcomeInvalid, 0)
		s.logger.Error().Err(err).
			Str("salon_id", q.SalonID).
			Str("service_id", q.ServiceID).
			Msg("Availability computation rejected stored data")
		return nil, fmt.Errorf("compute availability: %w", err)
	}

	if req.Hours.IsOpen {
		metrics.ObserveAvailability(metrics.OutcomeOpen, len(res.Slots))
	} else {
		metrics.ObserveAvailability(metrics.OutcomeClosed, 0)
	}

	s.logger.Debug().
		Str("salon_id", q.SalonID).
		Str("staff_id", q.StaffID).
		Str("date", dc.day.Format(models.DateLayout)).
		Int("bookings", len(req.Bookings)).
		Int("slots", len(res.Slots)).
		Msg("Availability computed")

	return &res, nil
}

// load fetches the salon (then its day's appointments), the service and the
// staff member concurrently.
func (s *AvailabilityService) load(ctx context.Context, q domain.AvailabilityQuery) (*dayContext, error) {
	dc := &dayContext{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		salon, err := s.repo.GetSalon(gctx, q.SalonID)
		if err != nil {
			return err
		}
		if !salon.IsActive {
			return fmt.Errorf("salon %s is inactive: %w", q.SalonID, database.ErrNotFound)
		}
		dc.salon = salon
		dc.day = LocalDay(q.Date, salon.Location(s.fallbackLoc))

		appts, err := s.repo.ListActiveAppointments(gctx, q.StaffID, dc.day, dc.day.AddDate(0, 0, 1))
		if err != nil {
			return fmt.Errorf("list appointments: %w", err)
		}
		dc.appts = appts
		return nil
	})

	g.Go(func() error {
		service, err := s.repo.GetService(gctx, q.ServiceID)
		if err != nil {
			return err
		}
		dc.service = service
		return nil
	})

	g.Go(func() error {
		staff, err := s.repo.GetStaff(gctx, q.StaffID)
		if err != nil {
			return err
		}
		dc.staff = staff
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if dc.service.SalonID != dc.salon.ID || !dc.service.IsActive {
		return nil, fmt.Errorf("service %s in salon %s: %w", q.ServiceID, q.SalonID, database.ErrNotFound)
	}
	if dc.staff.SalonID != dc.salon.ID || !dc.staff.IsActive {
		return nil, fmt.Errorf("staff %s in salon %s: %w", q.StaffID, q.SalonID, database.ErrNotFound)
	}
	return dc, nil
}

// LocalDay returns midnight of date's calendar day in loc.
func LocalDay(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// IsNotFound reports whether err stems from a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
