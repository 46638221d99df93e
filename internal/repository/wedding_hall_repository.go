package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/wedding-dispatch-api/internal/models"
)

const weddingHallColumns = "id, name, address, created_at, updated_at"

// WeddingHallRepository persists the venue address book.
type WeddingHallRepository struct {
	db *sqlx.DB
}

// NewWeddingHallRepository constructs repository.
func NewWeddingHallRepository(db *sqlx.DB) *WeddingHallRepository {
	return &WeddingHallRepository{db: db}
}

func (r *WeddingHallRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns halls ordered by name.
func (r *WeddingHallRepository) List(ctx context.Context) ([]models.WeddingHall, error) {
	var out []models.WeddingHall
	if err := r.db.SelectContext(ctx, &out, "SELECT "+weddingHallColumns+" FROM wedding_halls ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list wedding halls: %w", err)
	}
	return out, nil
}

// FindByID loads a hall.
func (r *WeddingHallRepository) FindByID(ctx context.Context, id int64) (*models.WeddingHall, error) {
	var hall models.WeddingHall
	if err := r.db.GetContext(ctx, &hall, "SELECT "+weddingHallColumns+" FROM wedding_halls WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &hall, nil
}

// FindByName loads a hall by its exact name.
func (r *WeddingHallRepository) FindByName(ctx context.Context, name string) (*models.WeddingHall, error) {
	var hall models.WeddingHall
	if err := r.db.GetContext(ctx, &hall, "SELECT "+weddingHallColumns+" FROM wedding_halls WHERE name = $1", name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find wedding hall: %w", err)
	}
	return &hall, nil
}

// Upsert creates the hall or replaces its address.
func (r *WeddingHallRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, hall *models.WeddingHall) error {
	now := time.Now().UTC()
	const query = `INSERT INTO wedding_halls (name, address, created_at, updated_at) VALUES ($1, $2, $3, $3) ON CONFLICT (name) DO UPDATE SET address = EXCLUDED.address, updated_at = EXCLUDED.updated_at RETURNING id, created_at, updated_at`
	if err := r.exec(exec).QueryRowxContext(ctx, query, hall.Name, hall.Address, now).Scan(&hall.ID, &hall.CreatedAt, &hall.UpdatedAt); err != nil {
		return fmt.Errorf("upsert wedding hall: %w", err)
	}
	return nil
}

// Update renames a hall and sets its address.
func (r *WeddingHallRepository) Update(ctx context.Context, exec sqlx.ExtContext, hall *models.WeddingHall) error {
	hall.UpdatedAt = time.Now().UTC()
	res, err := r.exec(exec).ExecContext(ctx, "UPDATE wedding_halls SET name = $2, address = $3, updated_at = $4 WHERE id = $1", hall.ID, hall.Name, hall.Address, hall.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update wedding hall: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update wedding hall rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a hall. Schedules keep their venue text.
func (r *WeddingHallRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM wedding_halls WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete wedding hall: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete wedding hall rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
