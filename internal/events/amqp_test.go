package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"salonhub/internal/worker"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestAMQPForwarder_Deliver(t *testing.T) {
	ch := new(mockChannel)
	logger := zerolog.Nop()
	fwd := NewAMQPForwarder(ch, nil, "salonhub.events", "appointments", &logger)
	ctx := context.Background()

	created := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	job := worker.Job{Type: EventAppointmentCreated, Payload: json.RawMessage(`{"appointment_id":"a1"}`), CreatedAt: created}

	ch.On("PublishWithContext", ctx, "salonhub.events", "appointments.appointment_created", false, false,
		mock.MatchedBy(func(msg amqp091.Publishing) bool {
			return msg.ContentType == "application/json" &&
				msg.DeliveryMode == amqp091.Persistent &&
				msg.Type == EventAppointmentCreated &&
				msg.Timestamp.Equal(created) &&
				msg.MessageId != "" &&
				string(msg.Body) == `{"appointment_id":"a1"}`
		})).Return(nil).Once()

	require.NoError(t, fwd.Deliver(ctx, job))
	ch.AssertExpectations(t)

	ch.On("PublishWithContext", ctx, "salonhub.events", "appointments.appointment_created", false, false, mock.Anything).
		Return(errors.New("channel closed")).Once()
	err := fwd.Deliver(ctx, job)
	assert.ErrorContains(t, err, "channel closed")
}

func TestAMQPForwarder_Close(t *testing.T) {
	ch := new(mockChannel)
	ch.On("Close").Return(errors.New("already closed")).Once()
	connClosed := false
	logger := zerolog.Nop()

	fwd := NewAMQPForwarder(ch, closerFunc(func() error { connClosed = true; return nil }), "x", "y", &logger)
	assert.NoError(t, fwd.Close())
	assert.True(t, connClosed)
	ch.AssertExpectations(t)
}

func TestForward(t *testing.T) {
	bus := NewEventBus()

	var jobs []worker.Job
	Forward(bus, []string{EventAppointmentCreated}, func(job worker.Job) error {
		jobs = append(jobs, job)
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventAppointmentCreated, AppointmentEventPayload{AppointmentID: "a1"}))
	require.NoError(t, bus.PublishJSON(EventAppointmentCompleted, AppointmentEventPayload{AppointmentID: "a1"}))

	require.Len(t, jobs, 1)
	assert.Equal(t, EventAppointmentCreated, jobs[0].Type)
	assert.JSONEq(t, `"a1"`, mustField(t, jobs[0].Payload, "appointment_id"))
	assert.False(t, jobs[0].CreatedAt.IsZero())
}

func TestForward_QueueFull(t *testing.T) {
	bus := NewEventBus()
	Forward(bus, AppointmentEventTypes, func(worker.Job) error { return worker.ErrQueueFull })

	err := bus.PublishJSON(EventAppointmentCancelled, AppointmentEventPayload{AppointmentID: "a1"})
	assert.ErrorIs(t, err, worker.ErrQueueFull)
	assert.ErrorContains(t, err, EventAppointmentCancelled)
}

func mustField(t *testing.T, raw []byte, field string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	return string(m[field])
}
