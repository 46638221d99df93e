package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/wedding-dispatch-api/internal/models"
)

const scheduleColumns = "id, wedding_date, wedding_time, shoot_start_time, venue, venue_address, couple, arrival_target_time, travel_minutes_default, main_name, sub_name, created_at"

// ScheduleRepository provides persistence for wedding schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// dateKey renders the calendar day of t for DATE parameters.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// List returns schedules matching the filter ordered by date and time.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, error) {
	var conditions []string
	var args []interface{}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("wedding_date >= $%d", len(args)+1))
		args = append(args, dateKey(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("wedding_date <= $%d", len(args)+1))
		args = append(args, dateKey(*filter.To))
	}
	if filter.Photographer != "" {
		conditions = append(conditions, fmt.Sprintf("(main_name = $%d OR sub_name = $%d)", len(args)+1, len(args)+1))
		args = append(args, filter.Photographer)
	}
	if filter.Venue != "" {
		conditions = append(conditions, fmt.Sprintf("venue = $%d", len(args)+1))
		args = append(args, filter.Venue)
	}

	query := "SELECT " + scheduleColumns + " FROM schedules WHERE 1=1"
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY wedding_date ASC, wedding_time ASC NULLS LAST, id ASC"

	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// ListBetween returns every schedule whose date falls in [start, end].
func (r *ScheduleRepository) ListBetween(ctx context.Context, start, end time.Time) ([]models.Schedule, error) {
	return r.List(ctx, models.ScheduleFilter{From: &start, To: &end})
}

// FindByID loads a schedule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id int64) (*models.Schedule, error) {
	query := "SELECT " + scheduleColumns + " FROM schedules WHERE id = $1"
	var sched models.Schedule
	if err := r.db.GetContext(ctx, &sched, query, id); err != nil {
		return nil, err
	}
	return &sched, nil
}

// ListSiblings returns the schedules on date that name is assigned to. A nil
// venue matches every venue; otherwise the venue must match exactly.
func (r *ScheduleRepository) ListSiblings(ctx context.Context, exec sqlx.ExtContext, date time.Time, venue *string, name string) ([]models.Schedule, error) {
	query := "SELECT " + scheduleColumns + " FROM schedules WHERE wedding_date = $1 AND (main_name = $2 OR sub_name = $2)"
	args := []interface{}{dateKey(date), name}
	if venue != nil {
		query += " AND venue = $3"
		args = append(args, *venue)
	}
	query += " ORDER BY id ASC"

	var schedules []models.Schedule
	if err := sqlx.SelectContext(ctx, r.exec(exec), &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list sibling schedules: %w", err)
	}
	return schedules, nil
}

// ExistsOnDate reports whether any wedding is scheduled on date.
func (r *ScheduleRepository) ExistsOnDate(ctx context.Context, date time.Time) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM schedules WHERE wedding_date = $1)", dateKey(date)); err != nil {
		return false, fmt.Errorf("check schedules on date: %w", err)
	}
	return exists, nil
}

// Create inserts a schedule and fills its id and creation time.
func (r *ScheduleRepository) Create(ctx context.Context, exec sqlx.ExtContext, s *models.Schedule) error {
	const query = `INSERT INTO schedules (wedding_date, wedding_time, shoot_start_time, venue, venue_address, couple, arrival_target_time, travel_minutes_default, main_name, sub_name) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id, created_at`
	row := r.exec(exec).QueryRowxContext(ctx, query,
		dateKey(s.WeddingDate),
		s.WeddingTime,
		s.ShootStartTime,
		s.Venue,
		s.VenueAddress,
		s.Couple,
		s.ArrivalTargetTime,
		s.TravelMinutesDefault,
		s.MainName,
		s.SubName,
	)
	if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update overwrites every editable column of a schedule.
func (r *ScheduleRepository) Update(ctx context.Context, exec sqlx.ExtContext, s *models.Schedule) error {
	const query = `UPDATE schedules SET wedding_date = $2, wedding_time = $3, shoot_start_time = $4, venue = $5, venue_address = $6, couple = $7, arrival_target_time = $8, travel_minutes_default = $9, main_name = $10, sub_name = $11 WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query,
		s.ID,
		dateKey(s.WeddingDate),
		s.WeddingTime,
		s.ShootStartTime,
		s.Venue,
		s.VenueAddress,
		s.Couple,
		s.ArrivalTargetTime,
		s.TravelMinutesDefault,
		s.MainName,
		s.SubName,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update schedule rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes schedules by id and returns how many were deleted. Checkins
// and route estimates cascade.
func (r *ScheduleRepository) Delete(ctx context.Context, exec sqlx.ExtContext, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.exec(exec).ExecContext(ctx, "DELETE FROM schedules WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete schedules: %w", err)
	}
	return res.RowsAffected()
}

// DuplicateExists reports whether a schedule with the same date, time, venue,
// couple and crew is already stored.
func (r *ScheduleRepository) DuplicateExists(ctx context.Context, s *models.Schedule) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM schedules WHERE wedding_date = $1 AND wedding_time IS NOT DISTINCT FROM $2 AND venue = $3 AND couple IS NOT DISTINCT FROM $4 AND main_name IS NOT DISTINCT FROM $5 AND sub_name IS NOT DISTINCT FROM $6)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, dateKey(s.WeddingDate), s.WeddingTime, s.Venue, s.Couple, s.MainName, s.SubName); err != nil {
		return false, fmt.Errorf("check duplicate schedule: %w", err)
	}
	return exists, nil
}

// ReferencesPhotographer reports whether name is on any schedule.
func (r *ScheduleRepository) ReferencesPhotographer(ctx context.Context, name string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM schedules WHERE main_name = $1 OR sub_name = $1)", name); err != nil {
		return false, fmt.Errorf("check photographer references: %w", err)
	}
	return exists, nil
}

// RenamePhotographer rewrites main and sub assignments from oldName to newName.
func (r *ScheduleRepository) RenamePhotographer(ctx context.Context, exec sqlx.ExtContext, oldName, newName string) (int64, error) {
	target := r.exec(exec)
	var total int64
	for _, column := range []string{"main_name", "sub_name"} {
		res, err := target.ExecContext(ctx, fmt.Sprintf("UPDATE schedules SET %s = $1 WHERE %s = $2", column, column), newName, oldName)
		if err != nil {
			return 0, fmt.Errorf("rename photographer in %s: %w", column, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rename photographer rows: %w", err)
		}
		total += n
	}
	return total, nil
}

// SetVenueAddress stores address on every schedule at venue whose address
// differs and returns the ids that changed.
func (r *ScheduleRepository) SetVenueAddress(ctx context.Context, exec sqlx.ExtContext, venue string, address *string) ([]int64, error) {
	const query = `UPDATE schedules SET venue_address = $2 WHERE venue = $1 AND venue_address IS DISTINCT FROM $2 RETURNING id`
	var ids []int64
	if err := sqlx.SelectContext(ctx, r.exec(exec), &ids, query, venue, address); err != nil {
		return nil, fmt.Errorf("propagate venue address: %w", err)
	}
	return ids, nil
}

// RenameVenue rewrites the venue name on schedules.
func (r *ScheduleRepository) RenameVenue(ctx context.Context, exec sqlx.ExtContext, oldName, newName string) (int64, error) {
	res, err := r.exec(exec).ExecContext(ctx, "UPDATE schedules SET venue = $1 WHERE venue = $2", newName, oldName)
	if err != nil {
		return 0, fmt.Errorf("rename venue: %w", err)
	}
	return res.RowsAffected()
}
