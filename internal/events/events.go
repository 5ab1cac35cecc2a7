package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"salonhub/internal/models"
)

const (
	EventAppointmentCreated   = "appointment_created"
	EventAppointmentConfirmed = "appointment_confirmed"
	EventAppointmentCancelled = "appointment_cancelled"
	EventAppointmentCompleted = "appointment_completed"
)

// AppointmentEventTypes lists every appointment lifecycle event.
var AppointmentEventTypes = []string{
	EventAppointmentCreated,
	EventAppointmentConfirmed,
	EventAppointmentCancelled,
	EventAppointmentCompleted,
}

// AppointmentEventPayload is the appointment snapshot sent to consumers.
type AppointmentEventPayload struct {
	AppointmentID   string    `json:"appointment_id"`
	SalonID         string    `json:"salon_id"`
	StaffID         string    `json:"staff_id"`
	ServiceID       string    `json:"service_id"`
	CustomerName    string    `json:"customer_name"`
	Status          string    `json:"status"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Version         int64     `json:"version"`
	PreviousStatus  string    `json:"previous_status,omitempty"`
}

// NewAppointmentPayload snapshots appt. previous is empty for creations.
func NewAppointmentPayload(appt *models.Appointment, previous string) AppointmentEventPayload {
	return AppointmentEventPayload{
		AppointmentID:   appt.ID,
		SalonID:         appt.SalonID,
		StaffID:         appt.StaffID,
		ServiceID:       appt.ServiceID,
		CustomerName:    appt.CustomerName,
		Status:          appt.Status,
		StartTime:       appt.StartTime.UTC(),
		DurationMinutes: appt.DurationMinutes,
		Version:         appt.Version,
		PreviousStatus:  previous,
	}
}

type Event struct {
	Type      string
	Payload   json.RawMessage
	CreatedAt time.Time
}

type EventHandler func(event *Event) error

// EventBus is an in-process pub/sub. Handlers run synchronously on the
// publishing goroutine in subscription order.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers handler for every listed event type.
func (b *EventBus) SubscribeAll(eventTypes []string, handler EventHandler) {
	for _, eventType := range eventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Publish calls every handler of event.Type. A failing handler does not stop
// the others; their errors are joined.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON marshals payload and publishes it. A nil bus is a no-op.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
}
