package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// ActiveStatuses are the statuses that occupy a staff member's time.
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

// IsActiveStatus reports whether an appointment in status blocks availability.
func IsActiveStatus(status string) bool {
	for _, s := range ActiveStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether status is one of the known appointment statuses.
func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

const (
	// DateLayout is the calendar date format used in query strings.
	DateLayout = "2006-01-02"

	// MaxServiceDurationMinutes caps a single service at one day.
	MaxServiceDurationMinutes = 24 * 60
)
