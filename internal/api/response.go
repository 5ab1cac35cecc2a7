package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"salonhub/internal/availability"
	"salonhub/internal/database"
	"salonhub/internal/logging"
	"salonhub/internal/service"
)

const (
	closedDayMessage = "Salon is closed on this day"
	noSlotsMessage   = "No available time slots"
)

type TimeSlot struct {
	Time          string `json:"time"`
	FormattedTime string `json:"formattedTime"`
}

// AvailabilityResponse is the wire shape shared by HTTP and gRPC.
type AvailabilityResponse struct {
	Available       bool       `json:"available"`
	Message         string     `json:"message,omitempty"`
	TimeSlots       []TimeSlot `json:"timeSlots"`
	ServiceDuration int        `json:"serviceDuration,omitempty"`
}

func newAvailabilityResponse(res *availability.Result) *AvailabilityResponse {
	resp := &AvailabilityResponse{
		Available: res.Available,
		TimeSlots: make([]TimeSlot, 0, len(res.Slots)),
	}
	if res.Message == availability.MessageClosed {
		resp.Message = closedDayMessage
		return resp
	}

	resp.ServiceDuration = res.ServiceDuration
	for _, slot := range res.Slots {
		resp.TimeSlots = append(resp.TimeSlots, TimeSlot{
			Time:          slot.Start.Format(time.RFC3339),
			FormattedTime: slot.Label,
		})
	}
	if !res.Available {
		resp.Message = noSlotsMessage
	}
	return resp
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func isInvalidArgument(err error) bool {
	return errors.Is(err, service.ErrInvalidArgument) ||
		errors.Is(err, service.ErrPastDate) ||
		errors.Is(err, service.ErrDateTooFar)
}

// statusFor maps service and repository errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case isInvalidArgument(err):
		return http.StatusBadRequest
	case service.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSlotUnavailable),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrBookingInProgress),
		errors.Is(err, database.ErrConcurrentModification):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logging.FromContext(r.Context(), s.logger).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeError(w, code, "internal server error")
		return
	}
	writeError(w, code, err.Error())
}
