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

const photographerColumns = "id, name, username, password_hash, is_admin, phone, gender, role, address, region, has_car, start_date, status, memo, created_at, updated_at"

// PhotographerRepository provides database access for photographers and
// their login accounts.
type PhotographerRepository struct {
	db *sqlx.DB
}

// NewPhotographerRepository creates a new instance of PhotographerRepository.
func NewPhotographerRepository(db *sqlx.DB) *PhotographerRepository {
	return &PhotographerRepository{db: db}
}

func (r *PhotographerRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *PhotographerRepository) findOne(ctx context.Context, column string, value interface{}) (*models.Photographer, error) {
	query := fmt.Sprintf("SELECT %s FROM photographers WHERE %s = $1 LIMIT 1", photographerColumns, column)
	var p models.Photographer
	if err := r.db.GetContext(ctx, &p, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find photographer by %s: %w", column, err)
	}
	return &p, nil
}

// FindByID returns a photographer by identifier.
func (r *PhotographerRepository) FindByID(ctx context.Context, id int64) (*models.Photographer, error) {
	return r.findOne(ctx, "id", id)
}

// FindByName returns a photographer by display name.
func (r *PhotographerRepository) FindByName(ctx context.Context, name string) (*models.Photographer, error) {
	return r.findOne(ctx, "name", name)
}

// FindByUsername returns a photographer by login name.
func (r *PhotographerRepository) FindByUsername(ctx context.Context, username string) (*models.Photographer, error) {
	return r.findOne(ctx, "username", username)
}

// List returns every photographer ordered by name.
func (r *PhotographerRepository) List(ctx context.Context) ([]models.Photographer, error) {
	var out []models.Photographer
	if err := r.db.SelectContext(ctx, &out, "SELECT "+photographerColumns+" FROM photographers ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list photographers: %w", err)
	}
	return out, nil
}

// UsernameExists checks whether a login name is taken.
func (r *PhotographerRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM photographers WHERE username = $1)", username); err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

// NameExists checks whether a display name is taken by anyone but excludeID.
func (r *PhotographerRepository) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM photographers WHERE name = $1 AND id <> $2)", name, excludeID); err != nil {
		return false, fmt.Errorf("check photographer name: %w", err)
	}
	return exists, nil
}

// AdminExists reports whether any administrator account exists.
func (r *PhotographerRepository) AdminExists(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM photographers WHERE is_admin)"); err != nil {
		return false, fmt.Errorf("check admin account: %w", err)
	}
	return exists, nil
}

// Create inserts a photographer and fills id and timestamps.
func (r *PhotographerRepository) Create(ctx context.Context, exec sqlx.ExtContext, p *models.Photographer) error {
	if p.Status == "" {
		p.Status = models.PhotographerActive
	}
	const query = `INSERT INTO photographers (name, username, password_hash, is_admin, phone, gender, role, address, region, has_car, start_date, status, memo) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id, created_at, updated_at`
	row := r.exec(exec).QueryRowxContext(ctx, query,
		p.Name,
		p.Username,
		p.PasswordHash,
		p.IsAdmin,
		p.Phone,
		p.Gender,
		p.Role,
		p.Address,
		p.Region,
		p.HasCar,
		p.StartDate,
		p.Status,
		p.Memo,
	)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("create photographer: %w", err)
	}
	return nil
}

// Update overwrites profile columns. The password hash is left untouched.
func (r *PhotographerRepository) Update(ctx context.Context, exec sqlx.ExtContext, p *models.Photographer) error {
	p.UpdatedAt = time.Now().UTC()
	const query = `UPDATE photographers SET name = $2, phone = $3, gender = $4, role = $5, address = $6, region = $7, has_car = $8, start_date = $9, status = $10, memo = $11, updated_at = $12 WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Phone,
		p.Gender,
		p.Role,
		p.Address,
		p.Region,
		p.HasCar,
		p.StartDate,
		p.Status,
		p.Memo,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update photographer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update photographer rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *PhotographerRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE photographers SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Delete removes a photographer row.
func (r *PhotographerRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	res, err := r.exec(exec).ExecContext(ctx, "DELETE FROM photographers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete photographer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete photographer rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
