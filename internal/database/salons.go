package database

import (
	"context"
	"fmt"
	"time"

	"salonhub/internal/availability"
	"salonhub/internal/models"

	"github.com/google/uuid"
)

const salonColumns = `id, name, address, timezone, hours, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSalon(row rowScanner) (*models.Salon, error) {
	var s models.Salon
	if err := row.Scan(&s.ID, &s.Name, &s.Address, &s.Timezone, &s.Hours, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) CreateSalon(ctx context.Context, salon *models.Salon) error {
	if salon.ID == "" {
		salon.ID = uuid.NewString()
	}
	now := dbTime(time.Now())
	query := `INSERT INTO salons (` + salonColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		salon.ID, salon.Name, salon.Address, salon.Timezone, salon.Hours, salon.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create salon: %w", err)
	}
	salon.CreatedAt = now
	salon.UpdatedAt = now
	return nil
}

func (db *DB) GetSalon(ctx context.Context, id string) (*models.Salon, error) {
	query := `SELECT ` + salonColumns + ` FROM salons WHERE id = ?`
	salon, err := scanSalon(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "salon", id)
	}
	return salon, nil
}

func (db *DB) ListSalons(ctx context.Context) ([]*models.Salon, error) {
	query := `SELECT ` + salonColumns + ` FROM salons ORDER BY name`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list salons: %w", err)
	}
	defer rows.Close()

	var salons []*models.Salon
	for rows.Next() {
		s, err := scanSalon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salon: %w", err)
		}
		salons = append(salons, s)
	}
	return salons, rows.Err()
}

func (db *DB) UpdateSalonHours(ctx context.Context, id string, hours availability.OperatingHours) error {
	query := `UPDATE salons SET hours = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, hours, dbTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to update salon hours: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("salon %s: %w", id, ErrNotFound)
	}
	return nil
}
