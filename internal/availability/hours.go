package availability

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a wall-clock time of day expressed in minutes since midnight.
type Clock int

const minutesPerDay = 24 * 60

// ParseClock parses "HH:MM" (or "HH:MM:SS" as returned by SQL time columns,
// where seconds must be zero). "24:00" is accepted as the end of the day.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: invalid time format %q", ErrInvalidInput, s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid hour in %q", ErrInvalidInput, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid minute in %q", ErrInvalidInput, s)
	}
	second := 0
	if len(parts) == 3 {
		if second, err = strconv.Atoi(parts[2]); err != nil {
			return 0, fmt.Errorf("%w: invalid second in %q", ErrInvalidInput, s)
		}
	}

	if hour == 24 && minute == 0 && second == 0 {
		return minutesPerDay, nil
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, fmt.Errorf("%w: time out of range %q", ErrInvalidInput, s)
	}
	if second != 0 {
		return 0, fmt.Errorf("%w: seconds are not supported in %q", ErrInvalidInput, s)
	}
	return Clock(hour*60 + minute), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// DayHours is the opening window of a single weekday. The zero value is a closed day.
type DayHours struct {
	IsOpen bool
	Open   Clock
	Close  Clock
}

// ClosedDay returns a closed entry.
func ClosedDay() DayHours {
	return DayHours{}
}

// OpenDay returns an open entry for [open, close).
func OpenDay(open, closeAt Clock) DayHours {
	return DayHours{IsOpen: true, Open: open, Close: closeAt}
}

// Validate checks open < close within a single day. Closed days are always valid.
func (d DayHours) Validate() error {
	if !d.IsOpen {
		return nil
	}
	if d.Open < 0 || d.Close > minutesPerDay {
		return fmt.Errorf("%w: hours %s-%s outside of day", ErrInvalidInput, d.Open, d.Close)
	}
	if d.Open >= d.Close {
		return fmt.Errorf("%w: open %s must be before close %s", ErrInvalidInput, d.Open, d.Close)
	}
	return nil
}

type dayHoursJSON struct {
	Open   string `json:"open,omitempty" yaml:"open"`
	Close  string `json:"close,omitempty" yaml:"close"`
	Closed bool   `json:"closed" yaml:"closed"`
}

func (d DayHours) MarshalJSON() ([]byte, error) {
	if !d.IsOpen {
		return json.Marshal(dayHoursJSON{Closed: true})
	}
	return json.Marshal(dayHoursJSON{Open: d.Open.String(), Close: d.Close.String()})
}

func (d *DayHours) UnmarshalJSON(data []byte) error {
	var raw dayHoursJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := raw.toDayHours()
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (raw dayHoursJSON) toDayHours() (DayHours, error) {
	if raw.Closed {
		return ClosedDay(), nil
	}
	if raw.Open == "" || raw.Close == "" {
		return DayHours{}, fmt.Errorf("%w: open and close are required unless closed", ErrInvalidInput)
	}
	open, err := ParseClock(raw.Open)
	if err != nil {
		return DayHours{}, err
	}
	closeAt, err := ParseClock(raw.Close)
	if err != nil {
		return DayHours{}, err
	}
	d := OpenDay(open, closeAt)
	return d, d.Validate()
}

// OperatingHours holds the weekly schedule indexed by time.Weekday (Sunday = 0).
type OperatingHours [7]DayHours

// For returns the entry for the weekday.
func (h OperatingHours) For(day time.Weekday) DayHours {
	if day < time.Sunday || day > time.Saturday {
		return ClosedDay()
	}
	return h[day]
}

// Set replaces the entry for the weekday.
func (h *OperatingHours) Set(day time.Weekday, hours DayHours) {
	if day < time.Sunday || day > time.Saturday {
		return
	}
	h[day] = hours
}

func (h OperatingHours) Validate() error {
	for day, entry := range h {
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("%s: %w", strings.ToLower(time.Weekday(day).String()), err)
		}
	}
	return nil
}

// ParseWeekday maps a lowercase or capitalized English day name to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for day := time.Sunday; day <= time.Saturday; day++ {
		if strings.ToLower(day.String()) == key {
			return day, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidInput, name)
}

// MarshalJSON renders the schedule keyed by lowercase day name.
func (h OperatingHours) MarshalJSON() ([]byte, error) {
	out := make(map[string]DayHours, len(h))
	for day, entry := range h {
		out[strings.ToLower(time.Weekday(day).String())] = entry
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts an object keyed by day name; missing days are closed.
func (h *OperatingHours) UnmarshalJSON(data []byte) error {
	var raw map[string]DayHours
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var parsed OperatingHours
	for name, entry := range raw {
		day, err := ParseWeekday(name)
		if err != nil {
			return err
		}
		parsed[day] = entry
	}
	*h = parsed
	return nil
}

// UnmarshalYAML supports seed files decoded with gopkg.in/yaml.v2.
func (h *OperatingHours) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]dayHoursJSON
	if err := unmarshal(&raw); err != nil {
		return err
	}
	var parsed OperatingHours
	for name, entry := range raw {
		day, err := ParseWeekday(name)
		if err != nil {
			return err
		}
		dh, err := entry.toDayHours()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		parsed[day] = dh
	}
	*h = parsed
	return nil
}

// Value stores the schedule as a JSON document.
func (h OperatingHours) Value() (driver.Value, error) {
	raw, err := h.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan reads a JSON document produced by Value.
func (h *OperatingHours) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*h = OperatingHours{}
		return nil
	case []byte:
		return h.UnmarshalJSON(v)
	case string:
		return h.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("operating hours: unsupported scan type %T", src)
	}
}
