package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/wedding-dispatch-api/internal/models"
)

const checkinColumns = "id, schedule_id, photographer_name, wake_time, depart_time, arrive_time, arrive_photo_path, created_at, updated_at"

// CheckinRepository persists wake/depart/arrive confirmations.
type CheckinRepository struct {
	db *sqlx.DB
}

// NewCheckinRepository constructs repository.
func NewCheckinRepository(db *sqlx.DB) *CheckinRepository {
	return &CheckinRepository{db: db}
}

func (r *CheckinRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// LockPhotographerDay takes a transaction-scoped advisory lock keyed on the
// photographer and day so concurrent confirmations serialise.
func (r *CheckinRepository) LockPhotographerDay(ctx context.Context, exec sqlx.ExtContext, name string, date time.Time) error {
	key := "checkin:" + name + ":" + dateKey(date)
	if _, err := r.exec(exec).ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key); err != nil {
		return fmt.Errorf("lock checkins for %s: %w", name, err)
	}
	return nil
}

// GetOrCreateForUpdate returns the row for (scheduleID, name), inserting an
// empty one first when missing, and locks it for the transaction.
func (r *CheckinRepository) GetOrCreateForUpdate(ctx context.Context, exec sqlx.ExtContext, scheduleID int64, name string, now time.Time) (*models.Checkin, error) {
	target := r.exec(exec)
	const insert = `INSERT INTO checkins (schedule_id, photographer_name, created_at, updated_at) VALUES ($1, $2, $3, $3) ON CONFLICT (schedule_id, photographer_name) DO NOTHING`
	if _, err := target.ExecContext(ctx, insert, scheduleID, name, now); err != nil {
		return nil, fmt.Errorf("ensure checkin: %w", err)
	}

	query := "SELECT " + checkinColumns + " FROM checkins WHERE schedule_id = $1 AND photographer_name = $2 FOR UPDATE"
	var c models.Checkin
	if err := sqlx.GetContext(ctx, target, &c, query, scheduleID, name); err != nil {
		return nil, fmt.Errorf("load checkin for update: %w", err)
	}
	return &c, nil
}

// Save writes the confirmation fields of c.
func (r *CheckinRepository) Save(ctx context.Context, exec sqlx.ExtContext, c *models.Checkin) error {
	const query = `UPDATE checkins SET wake_time = $2, depart_time = $3, arrive_time = $4, arrive_photo_path = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, c.ID, c.WakeTime, c.DepartTime, c.ArriveTime, c.ArrivePhotoPath, c.UpdatedAt); err != nil {
		return fmt.Errorf("save checkin: %w", err)
	}
	return nil
}

// ListBetween returns checkins attached to schedules dated within [start, end].
func (r *CheckinRepository) ListBetween(ctx context.Context, start, end time.Time) ([]models.Checkin, error) {
	const query = `SELECT c.id, c.schedule_id, c.photographer_name, c.wake_time, c.depart_time, c.arrive_time, c.arrive_photo_path, c.created_at, c.updated_at FROM checkins c JOIN schedules s ON s.id = c.schedule_id WHERE s.wedding_date BETWEEN $1 AND $2`
	var out []models.Checkin
	if err := r.db.SelectContext(ctx, &out, query, dateKey(start), dateKey(end)); err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	return out, nil
}

// ListForPhotographer returns name's checkins on the given schedules.
func (r *CheckinRepository) ListForPhotographer(ctx context.Context, name string, scheduleIDs []int64) ([]models.Checkin, error) {
	if len(scheduleIDs) == 0 {
		return nil, nil
	}
	query := "SELECT " + checkinColumns + " FROM checkins WHERE photographer_name = $1 AND schedule_id = ANY($2)"
	var out []models.Checkin
	if err := r.db.SelectContext(ctx, &out, query, name, pq.Array(scheduleIDs)); err != nil {
		return nil, fmt.Errorf("list photographer checkins: %w", err)
	}
	return out, nil
}

// ListPhotos returns arrival photos for schedules dated within [start, end],
// newest arrivals first.
func (r *CheckinRepository) ListPhotos(ctx context.Context, start, end time.Time) ([]models.CheckinPhoto, error) {
	const query = `SELECT c.id AS checkin_id, c.schedule_id, c.photographer_name, c.arrive_photo_path, c.arrive_time, s.wedding_date, s.venue FROM checkins c JOIN schedules s ON s.id = c.schedule_id WHERE c.arrive_photo_path IS NOT NULL AND s.wedding_date BETWEEN $1 AND $2 ORDER BY c.arrive_time DESC NULLS LAST, c.id DESC`
	var out []models.CheckinPhoto
	if err := r.db.SelectContext(ctx, &out, query, dateKey(start), dateKey(end)); err != nil {
		return nil, fmt.Errorf("list checkin photos: %w", err)
	}
	return out, nil
}

// FindPhotoRef returns the stored photo reference of a checkin.
func (r *CheckinRepository) FindPhotoRef(ctx context.Context, checkinID int64) (string, error) {
	var ref string
	if err := r.db.GetContext(ctx, &ref, "SELECT arrive_photo_path FROM checkins WHERE id = $1 AND arrive_photo_path IS NOT NULL", checkinID); err != nil {
		return "", err
	}
	return ref, nil
}

// PhotoRefsForSchedules returns distinct photo references held by checkins
// of the given schedules.
func (r *CheckinRepository) PhotoRefsForSchedules(ctx context.Context, exec sqlx.ExtContext, scheduleIDs []int64) ([]string, error) {
	if len(scheduleIDs) == 0 {
		return nil, nil
	}
	var refs []string
	if err := sqlx.SelectContext(ctx, r.exec(exec), &refs, "SELECT DISTINCT arrive_photo_path FROM checkins WHERE schedule_id = ANY($1) AND arrive_photo_path IS NOT NULL", pq.Array(scheduleIDs)); err != nil {
		return nil, fmt.Errorf("list photo refs: %w", err)
	}
	return refs, nil
}

// ClearPhotoRefs forgets references to photos that no longer exist.
func (r *CheckinRepository) ClearPhotoRefs(ctx context.Context, refs []string) (int64, error) {
	if len(refs) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, "UPDATE checkins SET arrive_photo_path = NULL WHERE arrive_photo_path = ANY($1)", pq.Array(refs))
	if err != nil {
		return 0, fmt.Errorf("clear photo refs: %w", err)
	}
	return res.RowsAffected()
}

// RenamePhotographer moves checkins from oldName to newName.
func (r *CheckinRepository) RenamePhotographer(ctx context.Context, exec sqlx.ExtContext, oldName, newName string) (int64, error) {
	res, err := r.exec(exec).ExecContext(ctx, "UPDATE checkins SET photographer_name = $1 WHERE photographer_name = $2", newName, oldName)
	if err != nil {
		return 0, fmt.Errorf("rename photographer checkins: %w", err)
	}
	return res.RowsAffected()
}

// DeleteByPhotographer removes every checkin recorded under name.
func (r *CheckinRepository) DeleteByPhotographer(ctx context.Context, exec sqlx.ExtContext, name string) (int64, error) {
	res, err := r.exec(exec).ExecContext(ctx, "DELETE FROM checkins WHERE photographer_name = $1", name)
	if err != nil {
		return 0, fmt.Errorf("delete photographer checkins: %w", err)
	}
	return res.RowsAffected()
}
