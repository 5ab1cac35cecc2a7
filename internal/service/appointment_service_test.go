package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"salonhub/internal/availability"
	"salonhub/internal/config"
	"salonhub/internal/database"
	"salonhub/internal/domain"
	"salonhub/internal/events"
	"salonhub/internal/models"
	"salonhub/internal/repository"
	"salonhub/internal/worker"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingEnv struct {
	db      *database.DB
	svc     *AppointmentService
	locker  *repository.MemoryLocker
	bus     *events.EventBus
	salon   *models.Salon
	service *models.Service
	staff   *models.Staff

	mu        sync.Mutex
	published []events.AppointmentEventPayload
}

func (e *bookingEnv) events() []events.AppointmentEventPayload {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]events.AppointmentEventPayload(nil), e.published...)
}

func setupBooking(t *testing.T) *bookingEnv {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &bookingEnv{db: db, locker: repository.NewMemoryLocker(), bus: events.NewEventBus()}
	env.bus.SubscribeAll(events.AppointmentEventTypes, func(ev *events.Event) error {
		var p events.AppointmentEventPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return err
		}
		env.mu.Lock()
		env.published = append(env.published, p)
		env.mu.Unlock()
		return nil
	})

	env.salon = &models.Salon{Name: "Studio", Hours: weekdayHours(), IsActive: true}
	require.NoError(t, db.CreateSalon(ctx, env.salon))
	env.service = &models.Service{SalonID: env.salon.ID, Name: "Haircut", DurationMinutes: 60, IsActive: true}
	require.NoError(t, db.CreateService(ctx, env.service))
	env.staff = &models.Staff{SalonID: env.salon.ID, Name: "Anna", IsActive: true}
	require.NoError(t, db.CreateStaff(ctx, env.staff))

	calc, err := availability.NewCalculator(30)
	require.NoError(t, err)
	avail := NewAvailabilityService(db, calc, time.UTC, false, &logger)

	env.svc = NewAppointmentService(db, avail, env.locker, env.bus,
		config.BookingConfig{LockTTL: time.Second, MaxAdvanceDays: 30}, time.UTC, &logger)
	env.svc.now = func() time.Time { return monday.Add(-16 * time.Hour) }
	return env
}

func (e *bookingEnv) request(start time.Time) domain.BookRequest {
	return domain.BookRequest{
		SalonID:       e.salon.ID,
		StaffID:       e.staff.ID,
		ServiceID:     e.service.ID,
		StartTime:     start,
		CustomerName:  " Maria ",
		CustomerPhone: "+49123",
	}
}

func errorsIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func TestAppointmentService_Book(t *testing.T) {
	env := setupBooking(t)
	ctx := context.Background()

	appt, err := env.svc.Book(ctx, env.request(monday.Add(10*time.Hour)))
	require.NoError(t, err)
	assert.NotEmpty(t, appt.ID)
	assert.Equal(t, models.StatusPending, appt.Status)
	assert.Equal(t, int64(1), appt.Version)
	assert.Equal(t, 60, appt.DurationMinutes)
	assert.Equal(t, "Maria", appt.CustomerName)

	stored, err := env.db.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.True(t, stored.StartTime.Equal(monday.Add(10*time.Hour)))

	published := env.events()
	require.Len(t, published, 1)
	assert.Equal(t, appt.ID, published[0].AppointmentID)
	assert.Equal(t, models.StatusPending, published[0].Status)

	t.Run("OverlappingSlotRejected", func(t *testing.T) {
		_, err := env.svc.Book(ctx, env.request(monday.Add(10*time.Hour+30*time.Minute)))
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("AdjacentSlotAccepted", func(t *testing.T) {
		_, err := env.svc.Book(ctx, env.request(monday.Add(11*time.Hour)))
		assert.NoError(t, err)
	})

	t.Run("OffGridRejected", func(t *testing.T) {
		_, err := env.svc.Book(ctx, env.request(monday.Add(14*time.Hour+15*time.Minute)))
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("ClosedDayRejected", func(t *testing.T) {
		saturday := monday.AddDate(0, 0, 5)
		_, err := env.svc.Book(ctx, env.request(saturday.Add(10*time.Hour)))
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("LockReleased", func(t *testing.T) {
		release, err := env.locker.Acquire(ctx, "booking:"+env.staff.ID+":2025-06-02", time.Second)
		require.NoError(t, err)
		require.NoError(t, release(ctx))
	})
}

func TestAppointmentService_BookValidation(t *testing.T) {
	env := setupBooking(t)
	ctx := context.Background()

	t.Run("MissingFields", func(t *testing.T) {
		req := env.request(monday.Add(10 * time.Hour))
		req.CustomerName = "  "
		req.StaffID = ""
		_, err := env.svc.Book(ctx, req)
		require.ErrorIs(t, err, ErrInvalidArgument)
		assert.Contains(t, err.Error(), "staffId")
		assert.Contains(t, err.Error(), "customerName")
	})

	t.Run("PastStart", func(t *testing.T) {
		_, err := env.svc.Book(ctx, env.request(monday.Add(-24*time.Hour)))
		assert.ErrorIs(t, err, ErrPastDate)
	})

	t.Run("TooFarAhead", func(t *testing.T) {
		_, err := env.svc.Book(ctx, env.request(monday.AddDate(0, 0, 35).Add(10*time.Hour)))
		assert.ErrorIs(t, err, ErrDateTooFar)
	})

	t.Run("UnknownSalon", func(t *testing.T) {
		req := env.request(monday.Add(10 * time.Hour))
		req.SalonID = "missing"
		_, err := env.svc.Book(ctx, req)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	assert.Empty(t, env.events())
}

func TestAppointmentService_BookLockHeld(t *testing.T) {
	env := setupBooking(t)
	ctx := context.Background()
	env.svc.lockRetry = worker.RetryPolicy{MaxRetries: 1, InitialDelay: time.Millisecond}

	release, err := env.locker.Acquire(ctx, "booking:"+env.staff.ID+":2025-06-02", time.Minute)
	require.NoError(t, err)

	_, err = env.svc.Book(ctx, env.request(monday.Add(10*time.Hour)))
	assert.ErrorIs(t, err, ErrBookingInProgress)

	require.NoError(t, release(ctx))
	_, err = env.svc.Book(ctx, env.request(monday.Add(10*time.Hour)))
	assert.NoError(t, err)
}

func TestAppointmentService_ConcurrentBookingsSameSlot(t *testing.T) {
	env := setupBooking(t)
	ctx := context.Background()

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Book(ctx, env.request(monday.Add(10*time.Hour)))
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.True(t, errorsIsAny(err, ErrSlotUnavailable, ErrBookingInProgress), "unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	appts, err := env.db.ListActiveAppointments(ctx, env.staff.ID, monday, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, appts, 1)
}

func TestAppointmentService_Transitions(t *testing.T) {
	env := setupBooking(t)
	ctx := context.Background()

	appt, err := env.svc.Book(ctx, env.request(monday.Add(10*time.Hour)))
	require.NoError(t, err)

	confirmed, err := env.svc.Confirm(ctx, appt.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
	assert.Equal(t, int64(2), confirmed.Version)

	_, err = env.svc.Confirm(ctx, appt.ID, 2)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.svc.Cancel(ctx, appt.ID, 1)
	assert.ErrorIs(t, err, database.ErrConcurrentModification)

	completed, err := env.svc.Complete(ctx, appt.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)

	_, err = env.svc.Cancel(ctx, appt.ID, 3)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.svc.Confirm(ctx, "missing", 1)
	assert.ErrorIs(t, err, database.ErrNotFound)

	published := env.events()
	require.Len(t, published, 3)
	assert.Equal(t, models.StatusConfirmed, published[1].Status)
	assert.Equal(t, models.StatusPending, published[1].PreviousStatus)
	assert.Equal(t, models.StatusCompleted, published[2].Status)
}

func TestAppointmentService_CancelFreesSlot(t *testing.T) {
	env := setupBooking(t)
	ctx := context.Background()
	start := monday.Add(15 * time.Hour)

	appt, err := env.svc.Book(ctx, env.request(start))
	require.NoError(t, err)

	_, err = env.svc.Book(ctx, env.request(start))
	require.ErrorIs(t, err, ErrSlotUnavailable)

	_, err = env.svc.Cancel(ctx, appt.ID, appt.Version)
	require.NoError(t, err)

	_, err = env.svc.Book(ctx, env.request(start))
	assert.NoError(t, err)
}

func TestAppointmentService_ListForSalon(t *testing.T) {
	env := setupBooking(t)
	ctx := context.Background()

	for _, h := range []time.Duration{9, 13} {
		_, err := env.svc.Book(ctx, env.request(monday.Add(h*time.Hour)))
		require.NoError(t, err)
	}
	_, err := env.svc.Book(ctx, env.request(monday.AddDate(0, 0, 1).Add(9*time.Hour)))
	require.NoError(t, err)

	appts, err := env.svc.ListForSalon(ctx, env.salon.ID, monday)
	require.NoError(t, err)
	assert.Len(t, appts, 2)

	_, err = env.svc.ListForSalon(ctx, "", monday)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{models.StatusPending, models.StatusConfirmed, true},
		{models.StatusPending, models.StatusCancelled, true},
		{models.StatusPending, models.StatusCompleted, false},
		{models.StatusConfirmed, models.StatusCompleted, true},
		{models.StatusConfirmed, models.StatusCancelled, true},
		{models.StatusConfirmed, models.StatusPending, false},
		{models.StatusCancelled, models.StatusConfirmed, false},
		{models.StatusCompleted, models.StatusCancelled, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}
