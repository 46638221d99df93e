package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/wedding-dispatch-api/internal/models"
)

const routeEstimateColumns = "id, schedule_id, photographer_name, minutes, provider, computed_at"

// RouteEstimateRepository stores computed travel times.
type RouteEstimateRepository struct {
	db *sqlx.DB
}

// NewRouteEstimateRepository constructs repository.
func NewRouteEstimateRepository(db *sqlx.DB) *RouteEstimateRepository {
	return &RouteEstimateRepository{db: db}
}

func (r *RouteEstimateRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Find returns the stored estimate or sql.ErrNoRows.
func (r *RouteEstimateRepository) Find(ctx context.Context, scheduleID int64, name string) (*models.RouteEstimate, error) {
	query := "SELECT " + routeEstimateColumns + " FROM route_estimates WHERE schedule_id = $1 AND photographer_name = $2"
	var est models.RouteEstimate
	if err := r.db.GetContext(ctx, &est, query, scheduleID, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find route estimate: %w", err)
	}
	return &est, nil
}

// InsertIfAbsent stores est unless a row for the same schedule and
// photographer exists. It reports whether this call inserted the row.
func (r *RouteEstimateRepository) InsertIfAbsent(ctx context.Context, est *models.RouteEstimate) (bool, error) {
	const query = `INSERT INTO route_estimates (schedule_id, photographer_name, minutes, provider, computed_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (schedule_id, photographer_name) DO NOTHING RETURNING id`
	err := r.db.QueryRowxContext(ctx, query, est.ScheduleID, est.PhotographerName, est.Minutes, est.Provider, est.ComputedAt).Scan(&est.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert route estimate: %w", err)
	}
	return true, nil
}

// DeleteForSchedules drops estimates of the given schedules.
func (r *RouteEstimateRepository) DeleteForSchedules(ctx context.Context, exec sqlx.ExtContext, scheduleIDs []int64) (int64, error) {
	if len(scheduleIDs) == 0 {
		return 0, nil
	}
	res, err := r.exec(exec).ExecContext(ctx, "DELETE FROM route_estimates WHERE schedule_id = ANY($1)", pq.Array(scheduleIDs))
	if err != nil {
		return 0, fmt.Errorf("delete route estimates: %w", err)
	}
	return res.RowsAffected()
}

// DeleteForPhotographer drops every estimate computed from name's address.
func (r *RouteEstimateRepository) DeleteForPhotographer(ctx context.Context, exec sqlx.ExtContext, name string) (int64, error) {
	res, err := r.exec(exec).ExecContext(ctx, "DELETE FROM route_estimates WHERE photographer_name = $1", name)
	if err != nil {
		return 0, fmt.Errorf("delete photographer route estimates: %w", err)
	}
	return res.RowsAffected()
}

// RenamePhotographer moves estimates from oldName to newName.
func (r *RouteEstimateRepository) RenamePhotographer(ctx context.Context, exec sqlx.ExtContext, oldName, newName string) (int64, error) {
	res, err := r.exec(exec).ExecContext(ctx, "UPDATE route_estimates SET photographer_name = $1 WHERE photographer_name = $2", newName, oldName)
	if err != nil {
		return 0, fmt.Errorf("rename photographer route estimates: %w", err)
	}
	return res.RowsAffected()
}
