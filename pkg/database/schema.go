package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements are idempotent and applied in order at startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS photographers (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_admin BOOLEAN NOT NULL DEFAULT FALSE,
	phone TEXT,
	gender TEXT,
	role TEXT,
	address TEXT,
	region TEXT,
	has_car BOOLEAN,
	start_date DATE,
	status TEXT NOT NULL DEFAULT 'active',
	memo TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS wedding_halls (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	address TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS schedules (
	id BIGSERIAL PRIMARY KEY,
	wedding_date DATE NOT NULL,
	wedding_time TIME,
	shoot_start_time TIME,
	venue TEXT NOT NULL DEFAULT '',
	venue_address TEXT,
	couple TEXT,
	arrival_target_time TIME,
	travel_minutes_default INTEGER,
	main_name TEXT,
	sub_name TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_date_venue ON schedules (wedding_date, venue)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_main_name ON schedules (main_name)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_sub_name ON schedules (sub_name)`,
	`CREATE TABLE IF NOT EXISTS checkins (
	id BIGSERIAL PRIMARY KEY,
	schedule_id BIGINT NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
	photographer_name TEXT NOT NULL,
	wake_time TIMESTAMPTZ,
	depart_time TIMESTAMPTZ,
	arrive_time TIMESTAMPTZ,
	arrive_photo_path TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (schedule_id, photographer_name)
)`,
	`CREATE INDEX IF NOT EXISTS idx_checkins_photographer ON checkins (photographer_name)`,
	`CREATE TABLE IF NOT EXISTS route_estimates (
	id BIGSERIAL PRIMARY KEY,
	schedule_id BIGINT NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
	photographer_name TEXT NOT NULL,
	minutes INTEGER NOT NULL CHECK (minutes >= 1),
	provider TEXT NOT NULL,
	computed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (schedule_id, photographer_name)
)`,
}

// EnsureSchema creates the tables and indexes the service relies on.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
