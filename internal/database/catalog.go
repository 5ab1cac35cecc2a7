package database

import (
	"context"
	"fmt"
	"time"

	"salonhub/internal/models"

	"github.com/google/uuid"
)

const (
	serviceColumns = `id, salon_id, name, duration_minutes, price, is_active, created_at, updated_at`
	staffColumns   = `id, salon_id, name, is_active, created_at, updated_at`
)

func scanService(row rowScanner) (*models.Service, error) {
	var s models.Service
	err := row.Scan(&s.ID, &s.SalonID, &s.Name, &s.DurationMinutes, &s.Price, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanStaff(row rowScanner) (*models.Staff, error) {
	var s models.Staff
	if err := row.Scan(&s.ID, &s.SalonID, &s.Name, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) CreateService(ctx context.Context, service *models.Service) error {
	if service.ID == "" {
		service.ID = uuid.NewString()
	}
	now := dbTime(time.Now())
	query := `INSERT INTO services (` + serviceColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		service.ID, service.SalonID, service.Name, service.DurationMinutes, service.Price, service.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	service.CreatedAt = now
	service.UpdatedAt = now
	return nil
}

func (db *DB) GetService(ctx context.Context, id string) (*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = ?`
	service, err := scanService(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "service", id)
	}
	return service, nil
}

func (db *DB) ListServices(ctx context.Context, salonID string) ([]*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE salon_id = ? ORDER BY name`
	rows, err := db.QueryContext(ctx, query, salonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (db *DB) CreateStaff(ctx context.Context, staff *models.Staff) error {
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	now := dbTime(time.Now())
	query := `INSERT INTO staff (` + staffColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, staff.ID, staff.SalonID, staff.Name, staff.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create staff: %w", err)
	}
	staff.CreatedAt = now
	staff.UpdatedAt = now
	return nil
}

func (db *DB) GetStaff(ctx context.Context, id string) (*models.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE id = ?`
	staff, err := scanStaff(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "staff", id)
	}
	return staff, nil
}

func (db *DB) ListStaff(ctx context.Context, salonID string) ([]*models.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE salon_id = ? ORDER BY name`
	rows, err := db.QueryContext(ctx, query, salonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	defer rows.Close()

	var staff []*models.Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		staff = append(staff, s)
	}
	return staff, rows.Err()
}
