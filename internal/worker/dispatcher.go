package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrQueueFull is returned by Enqueue when the in-memory queue has no room.
var ErrQueueFull = errors.New("dispatch queue is full")

const (
	defaultQueueSize = 256
	deadLetterKey    = "salonhub:events:deadletter"
)

// Job is one outbound message.
type Job struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Sink delivers a job to an external system.
type Sink interface {
	Deliver(ctx context.Context, job Job) error
}

// Dispatcher drains a buffered queue into a Sink, retrying each job with
// exponential backoff. Jobs that exhaust their retries go to a redis
// dead-letter list when redis is configured, otherwise they are logged and dropped.
type Dispatcher struct {
	sink        Sink
	redis       *redis.Client
	retryPolicy RetryPolicy
	queue       chan Job
	logger      *zerolog.Logger
	done        chan struct{}
}

// NewDispatcher builds a dispatcher with sane defaults.
func NewDispatcher(sink Sink, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *Dispatcher {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 500 * time.Millisecond
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 30 * time.Second
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Dispatcher{
		sink:        sink,
		redis:       redisClient,
		retryPolicy: retry,
		queue:       make(chan Job, defaultQueueSize),
		logger:      logger,
		done:        make(chan struct{}),
	}
}

// Enqueue schedules a job without blocking.
func (d *Dispatcher) Enqueue(job Job) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	select {
	case d.queue <- job:
		return nil
	default:
		d.logger.Warn().Str("type", job.Type).Msg("dispatcher: queue full, job rejected")
		return ErrQueueFull
	}
}

// Start processes jobs until ctx is done, then drains what is already queued
// with a short grace period.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info().Msg("dispatcher: started")
	defer close(d.done)
	defer d.logger.Info().Msg("dispatcher: stopped")

	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case job := <-d.queue:
			d.process(ctx, job)
		}
	}
}

// Done is closed when Start returns.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case job := <-d.queue:
			d.process(ctx, job)
		default:
			return
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, job Job) {
	err := d.retryPolicy.Do(ctx, func(ctx context.Context) error {
		return d.sink.Deliver(ctx, job)
	})
	if err == nil {
		return
	}

	d.logger.Error().Err(err).Str("type", job.Type).Msg("dispatcher: delivery failed")
	d.deadLetter(job, err)
}

func (d *Dispatcher) deadLetter(job Job, cause error) {
	if d.redis == nil {
		return
	}
	entry := struct {
		Job
		Error    string    `json:"error"`
		FailedAt time.Time `json:"failed_at"`
	}{Job: job, Error: cause.Error(), FailedAt: time.Now()}

	data, err := json.Marshal(entry)
	if err != nil {
		d.logger.Error().Err(err).Msg("dispatcher: encode dead letter")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.redis.LPush(ctx, deadLetterKey, data).Err(); err != nil {
		d.logger.Error().Err(err).Str("type", job.Type).Msg("dispatcher: push dead letter")
	}
}
