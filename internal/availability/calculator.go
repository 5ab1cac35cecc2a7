// Package availability computes bookable appointment start times for one
// staff member on one calendar day.
//
// All arithmetic happens in whole minutes relative to the start of the salon's
// local day, so results do not depend on the process time zone and wall-clock
// hours stay correct across DST transitions.
package availability

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

const (
	// DefaultGranularity is the spacing between candidate start times.
	DefaultGranularity = 30

	// LabelLayout formats slot labels, e.g. "09:30 AM".
	LabelLayout = "03:04 PM"

	// MessageClosed is set on results for days the salon does not open.
	MessageClosed = "closed"
	// MessageNoSlots is set when the salon is open but nothing fits.
	MessageNoSlots = "no slots available"
)

// ErrInvalidInput wraps every validation failure of the calculator and of hours parsing.
var ErrInvalidInput = errors.New("invalid availability input")

// Booking is an existing appointment occupying [Start, Start+DurationMinutes).
type Booking struct {
	Start           time.Time
	DurationMinutes int
}

// Slot is an accepted start time with its display label.
type Slot struct {
	Start time.Time
	Label string
}

// Result is computed fresh for every request and never stored.
type Result struct {
	Available       bool
	Slots           []Slot
	ServiceDuration int
	Message         string
}

// Request carries already-fetched data for a single day.
//
// Date supplies the calendar day and, through its location, the salon time zone.
// Bookings must already be filtered to the staff member, the day and active statuses.
// NotBefore, when non-zero, drops candidates starting earlier than it.
type Request struct {
	Date            time.Time
	Hours           DayHours
	ServiceDuration int
	Bookings        []Booking
	NotBefore       time.Time
}

// Calculator computes slots on a fixed grid. It holds no state between calls.
type Calculator struct {
	granularity int
}

// NewCalculator returns a calculator stepping by granularityMinutes, which must be in (0, 1440].
func NewCalculator(granularityMinutes int) (*Calculator, error) {
	if granularityMinutes <= 0 || granularityMinutes > minutesPerDay {
		return nil, fmt.Errorf("%w: granularity must be in (0, %d], got %d", ErrInvalidInput, minutesPerDay, granularityMinutes)
	}
	return &Calculator{granularity: granularityMinutes}, nil
}

// Granularity is the candidate spacing in minutes.
func (c *Calculator) Granularity() int {
	return c.granularity
}

// Compute returns the ordered list of start times at which a service of
// req.ServiceDuration minutes fits inside the opening window without touching
// any busy granularity bucket.
func (c *Calculator) Compute(req Request) (Result, error) {
	if !req.Hours.IsOpen {
		return Result{Slots: []Slot{}, ServiceDuration: req.ServiceDuration, Message: MessageClosed}, nil
	}
	if req.ServiceDuration <= 0 {
		return Result{}, fmt.Errorf("%w: service duration must be positive, got %d", ErrInvalidInput, req.ServiceDuration)
	}
	if err := req.Hours.Validate(); err != nil {
		return Result{}, err
	}

	day := startOfDay(req.Date)
	busy, err := c.busySet(day, req.Bookings)
	if err != nil {
		return Result{}, err
	}

	slots := make([]Slot, 0)
	lastStart := int(req.Hours.Close) - req.ServiceDuration
	for start := int(req.Hours.Open); start <= lastStart; start += c.granularity {
		at := wallClock(day, start)
		// wall times skipped by a DST jump normalize to a different minute
		if m, _ := minutesFromDayStart(day, at); m != start {
			continue
		}
		lo, hi := wallSpan(day, at, req.ServiceDuration)
		if hi > int(req.Hours.Close) || c.touchesBusy(lo, hi, busy) {
			continue
		}
		if !req.NotBefore.IsZero() && at.Before(req.NotBefore) {
			continue
		}
		slots = append(slots, Slot{Start: at, Label: at.Format(LabelLayout)})
	}

	res := Result{
		Available:       len(slots) > 0,
		Slots:           slots,
		ServiceDuration: req.ServiceDuration,
	}
	if !res.Available {
		res.Message = MessageNoSlots
	}
	return res, nil
}

// busySet marks every granularity boundary touched by a booking. The booking
// start snaps down to the boundary at or before it, so a booking beginning
// mid-bucket blocks the whole bucket. The end is the wall-clock minute of the
// booking's real end instant, so bookings spanning a DST change cover it.
func (c *Calculator) busySet(day time.Time, bookings []Booking) (map[int]struct{}, error) {
	busy := make(map[int]struct{}, len(bookings)*4)
	for i, b := range bookings {
		if b.DurationMinutes <= 0 {
			return nil, fmt.Errorf("%w: booking %d has non-positive duration %d", ErrInvalidInput, i, b.DurationMinutes)
		}
		lo, hi := wallSpan(day, b.Start, b.DurationMinutes)
		for t := c.snapDown(lo); t < hi; t += c.granularity {
			busy[t] = struct{}{}
		}
	}
	return busy, nil
}

// touchesBusy applies the same snap/step rule as busySet to [lo, hi).
func (c *Calculator) touchesBusy(lo, hi int, busy map[int]struct{}) bool {
	for t := c.snapDown(lo); t < hi; t += c.granularity {
		if _, ok := busy[t]; ok {
			return true
		}
	}
	return false
}

// wallSpan returns the wall-clock minutes [lo, hi) covered by duration minutes
// starting at the instant start, with a partial trailing minute counted.
// Across a spring-forward jump hi lands past lo+duration. Across a fall-back
// the span revisits earlier wall minutes and lo moves back to cover them.
func wallSpan(day, start time.Time, duration int) (int, int) {
	loc := day.Location()
	end := start.Add(time.Duration(duration) * time.Minute)

	lo, _ := minutesFromDayStart(day, start)
	hi, partial := minutesFromDayStart(day, end)
	if partial {
		hi++
	}

	_, startOffset := start.In(loc).Zone()
	if _, endOffset := end.In(loc).Zone(); endOffset == startOffset {
		return lo, hi
	}

	// first whole second after start that carries the new offset
	n := sort.Search(duration*60, func(i int) bool {
		_, off := start.Add(time.Duration(i+1) * time.Second).In(loc).Zone()
		return off != startOffset
	})
	shift := start.Add(time.Duration(n+1) * time.Second)
	after, _ := minutesFromDayStart(day, shift)
	before, _ := minutesFromDayStart(day, shift.Add(-time.Second))
	return min(lo, after), max(hi, before+1)
}

func (c *Calculator) snapDown(minute int) int {
	rem := minute % c.granularity
	if rem < 0 {
		rem += c.granularity
	}
	return minute - rem
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func wallClock(day time.Time, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, minute, 0, 0, day.Location())
}

// minutesFromDayStart converts t to wall-clock minutes relative to day's
// midnight in day's location. Bookings on neighbouring days yield negative or
// >1440 offsets. partial reports a sub-minute remainder that was truncated.
func minutesFromDayStart(day, t time.Time) (int, bool) {
	local := t.In(day.Location())
	days := civilDay(local) - civilDay(day)
	minutes := int(days)*minutesPerDay + local.Hour()*60 + local.Minute()
	return minutes, local.Second() != 0 || local.Nanosecond() != 0
}

func civilDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
