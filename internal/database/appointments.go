package database

import (
	"context"
	"fmt"
	"time"

	"salonhub/internal/models"

	"github.com/google/uuid"
)

const appointmentColumns = `id, salon_id, staff_id, service_id, customer_name, customer_phone,
	start_time, duration_minutes, status, notes, version, created_at, updated_at`

// maxAppointmentSpan bounds how far back an appointment may start and still reach into a window.
const maxAppointmentSpan = time.Duration(models.MaxServiceDurationMinutes) * time.Minute

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	var a models.Appointment
	err := row.Scan(
		&a.ID, &a.SalonID, &a.StaffID, &a.ServiceID, &a.CustomerName, &a.CustomerPhone,
		&a.StartTime, &a.DurationMinutes, &a.Status, &a.Notes, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.StartTime = a.StartTime.UTC()
	return &a, nil
}

func (db *DB) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.Status == "" {
		appt.Status = models.StatusPending
	}
	if !models.IsValidStatus(appt.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, appt.Status)
	}
	now := dbTime(time.Now())
	appt.StartTime = dbTime(appt.StartTime)

	query := `INSERT INTO appointments (` + appointmentColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		appt.ID, appt.SalonID, appt.StaffID, appt.ServiceID, appt.CustomerName, appt.CustomerPhone,
		appt.StartTime, appt.DurationMinutes, appt.Status, appt.Notes, 1, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	appt.Version = 1
	appt.CreatedAt = now
	appt.UpdatedAt = now
	return nil
}

func (db *DB) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?`
	appt, err := scanAppointment(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "appointment", id)
	}
	return appt, nil
}

// UpdateAppointmentStatusWithVersion changes the status only if the stored version still equals fromVersion.
func (db *DB) UpdateAppointmentStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error {
	if !models.IsValidStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	query := `UPDATE appointments SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, dbTime(time.Now()), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := db.GetAppointment(ctx, id); err != nil {
			return err
		}
		return ErrConcurrentModification
	}
	return nil
}

// ListActiveAppointments returns pending and confirmed appointments of a staff
// member that overlap [from, to), ordered by start time.
func (db *DB) ListActiveAppointments(ctx context.Context, staffID string, from, to time.Time) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
              FROM appointments
              WHERE staff_id = ? AND start_time >= ? AND start_time < ?
              ORDER BY start_time`
	rows, err := db.QueryContext(ctx, query, staffID, dbTime(from.Add(-maxAppointmentSpan)), dbTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list active appointments: %w", err)
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		if models.IsActiveStatus(a.Status) && a.EndTime().After(from) {
			appts = append(appts, a)
		}
	}
	return appts, rows.Err()
}

// ListAppointmentsBySalon returns every appointment of a salon starting in [from, to).
func (db *DB) ListAppointmentsBySalon(ctx context.Context, salonID string, from, to time.Time) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
              FROM appointments
              WHERE salon_id = ? AND start_time >= ? AND start_time < ?
              ORDER BY start_time, staff_id`
	rows, err := db.QueryContext(ctx, query, salonID, dbTime(from), dbTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list salon appointments: %w", err)
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}
