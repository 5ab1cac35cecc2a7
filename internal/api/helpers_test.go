package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"salonhub/internal/availability"
	"salonhub/internal/config"
	"salonhub/internal/database"
	"salonhub/internal/events"
	"salonhub/internal/models"
	"salonhub/internal/repository"
	"salonhub/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// 2030-06-03 is a Monday far enough ahead to stay bookable.
var testDay = time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	db       *database.DB
	services Services
	salon    *models.Salon
	service  *models.Service
	staff    *models.Staff
}

func weekdayHours() availability.OperatingHours {
	var hours availability.OperatingHours
	for day := time.Monday; day <= time.Friday; day++ {
		hours.Set(day, availability.OpenDay(9*60, 17*60))
	}
	return hours
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	calc, err := availability.NewCalculator(30)
	require.NoError(t, err)

	avail := service.NewAvailabilityService(db, calc, time.UTC, false, &logger)
	catalog := service.NewCatalogService(db, &logger)
	appts := service.NewAppointmentService(db, avail, repository.NewMemoryLocker(), events.NewEventBus(),
		config.BookingConfig{LockTTL: time.Second, MaxAdvanceDays: 3650}, time.UTC, &logger)

	env := &testEnv{
		db: db,
		services: Services{
			Availability: avail,
			Appointments: appts,
			Catalog:      catalog,
			Health:       db,
		},
	}

	env.salon = &models.Salon{Name: "Studio", Hours: weekdayHours()}
	require.NoError(t, catalog.CreateSalon(ctx, env.salon))
	env.service = &models.Service{SalonID: env.salon.ID, Name: "Haircut", DurationMinutes: 60, Price: 30}
	require.NoError(t, catalog.CreateService(ctx, env.service))
	env.staff = &models.Staff{SalonID: env.salon.ID, Name: "Anna"}
	require.NoError(t, catalog.CreateStaff(ctx, env.staff))
	return env
}

func newTestAPIConfig() *config.APIConfig {
	return &config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true},
		GRPC:    config.APIGRPCConfig{Enabled: true},
	}
}

func (e *testEnv) httpServer(t *testing.T, cfg *config.APIConfig) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()
	srv := NewHTTPServer(cfg, e.services, &logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}
