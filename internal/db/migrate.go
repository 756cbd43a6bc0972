package db

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		familiar_phone TEXT NOT NULL DEFAULT '',
		telegram_chat_id TEXT NOT NULL DEFAULT '',
		familiar_telegram_chat_id TEXT NOT NULL DEFAULT '',
		consent BOOLEAN NOT NULL DEFAULT FALSE,
		risk_tier TEXT,
		plan_tier TEXT NOT NULL DEFAULT '',
		age INT NOT NULL DEFAULT 0,
		bmi DOUBLE PRECISION NOT NULL DEFAULT 0,
		diabetes BOOLEAN NOT NULL DEFAULT FALSE,
		heart_disease BOOLEAN NOT NULL DEFAULT FALSE,
		kidney_disease BOOLEAN NOT NULL DEFAULT FALSE,
		stroke BOOLEAN NOT NULL DEFAULT FALSE,
		non_adherent BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_patients_phone ON patients(phone) WHERE phone <> ''`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_patients_telegram ON patients(telegram_chat_id) WHERE telegram_chat_id <> ''`,
	`CREATE TABLE IF NOT EXISTS readings (
		id BIGSERIAL PRIMARY KEY,
		patient_id BIGINT NOT NULL REFERENCES patients(id),
		systolic INT,
		diastolic INT,
		temperature DOUBLE PRECISION,
		risk_color TEXT NOT NULL,
		symptoms TEXT,
		raw_text TEXT NOT NULL,
		taken_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_readings_patient_taken ON readings(patient_id, taken_at DESC)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		patient_id BIGINT NOT NULL REFERENCES patients(id),
		direction TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_patient_created ON messages(patient_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS monitoring_records (
		id UUID PRIMARY KEY,
		patient_id BIGINT NOT NULL REFERENCES patients(id),
		risk_tier TEXT NOT NULL,
		status TEXT NOT NULL,
		response TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_monitoring_patient_created ON monitoring_records(patient_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id UUID PRIMARY KEY,
		reading_id BIGINT NOT NULL REFERENCES readings(id),
		recipient TEXT NOT NULL,
		channel TEXT NOT NULL,
		delivery_status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the schema when missing. Statements are idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := d.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
