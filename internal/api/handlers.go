package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"salonhub/internal/availability"
	"salonhub/internal/domain"
	"salonhub/internal/models"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q, msg := parseAvailabilityQuery(query.Get("salonId"), query.Get("staffId"), query.Get("serviceId"), query.Get("date"))
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	res, err := s.services.Availability.GetAvailability(r.Context(), q)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAvailabilityResponse(res))
}

type salonRequest struct {
	Name           string                      `json:"name"`
	Address        string                      `json:"address"`
	Timezone       string                      `json:"timezone"`
	OperatingHours availability.OperatingHours `json:"operatingHours"`
}

func (s *HTTPServer) handleListSalons(w http.ResponseWriter, r *http.Request) {
	salons, err := s.services.Catalog.ListSalons(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"salons": salons})
}

func (s *HTTPServer) handleCreateSalon(w http.ResponseWriter, r *http.Request) {
	var body salonRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	salon := &models.Salon{
		Name:     body.Name,
		Address:  body.Address,
		Timezone: body.Timezone,
		Hours:    body.OperatingHours,
	}
	if err := s.services.Catalog.CreateSalon(r.Context(), salon); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, salon)
}

func (s *HTTPServer) handleGetSalon(w http.ResponseWriter, r *http.Request) {
	salon, err := s.services.Catalog.GetSalon(r.Context(), chi.URLParam(r, "salonID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, salon)
}

func (s *HTTPServer) handleUpdateHours(w http.ResponseWriter, r *http.Request) {
	var hours availability.OperatingHours
	if !decodeJSON(w, r, &hours) {
		return
	}

	salon, err := s.services.Catalog.UpdateSalonHours(r.Context(), chi.URLParam(r, "salonID"), hours)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, salon)
}

func (s *HTTPServer) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.services.Catalog.ListServices(r.Context(), chi.URLParam(r, "salonID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}

func (s *HTTPServer) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name            string  `json:"name"`
		DurationMinutes int     `json:"durationMinutes"`
		Price           float64 `json:"price"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	svc := &models.Service{
		SalonID:         chi.URLParam(r, "salonID"),
		Name:            body.Name,
		DurationMinutes: body.DurationMinutes,
		Price:           body.Price,
	}
	if err := s.services.Catalog.CreateService(r.Context(), svc); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (s *HTTPServer) handleListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := s.services.Catalog.ListStaff(r.Context(), chi.URLParam(r, "salonID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"staff": staff})
}

func (s *HTTPServer) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	staff := &models.Staff{SalonID: chi.URLParam(r, "salonID"), Name: body.Name}
	if err := s.services.Catalog.CreateStaff(r.Context(), staff); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, staff)
}

func (s *HTTPServer) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	date, err := time.Parse(models.DateLayout, dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	appts, err := s.services.Appointments.ListForSalon(r.Context(), chi.URLParam(r, "salonID"), date)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

type bookRequest struct {
	SalonID       string    `json:"salonId"`
	StaffID       string    `json:"staffId"`
	ServiceID     string    `json:"serviceId"`
	StartTime     time.Time `json:"startTime"`
	CustomerName  string    `json:"customerName"`
	CustomerPhone string    `json:"customerPhone"`
	Notes         string    `json:"notes"`
}

func (s *HTTPServer) handleBook(w http.ResponseWriter, r *http.Request) {
	var body bookRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	appt, err := s.services.Appointments.Book(r.Context(), domain.BookRequest{
		SalonID:       body.SalonID,
		StaffID:       body.StaffID,
		ServiceID:     body.ServiceID,
		StartTime:     body.StartTime,
		CustomerName:  body.CustomerName,
		CustomerPhone: body.CustomerPhone,
		Notes:         body.Notes,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

func (s *HTTPServer) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := s.services.Appointments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type transitionFunc func(ctx context.Context, id string, version int64) (*models.Appointment, error)

func (s *HTTPServer) handleTransition(fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Version int64 `json:"version"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		if body.Version <= 0 {
			writeError(w, http.StatusBadRequest, "version is required")
			return
		}

		appt, err := fn(r.Context(), chi.URLParam(r, "id"), body.Version)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, appt)
	}
}
