package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
)

func (d *DB) CreateMonitoring(ctx context.Context, rec *models.MonitoringRecord) error {
	query := `
        INSERT INTO monitoring_records (id, patient_id, risk_tier, status)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at, updated_at`
	err := d.Pool.QueryRow(ctx, query, rec.ID, rec.PatientID, string(rec.RiskTier), string(rec.Status)).
		Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create monitoring record: %w", err)
	}
	return nil
}

// CloseOpenMonitoring transitions every awaiting_response record of the
// patient to replied, attaching the raw response text. Returns the number of
// records closed.
func (d *DB) CloseOpenMonitoring(ctx context.Context, patientID int64, response string) (int64, error) {
	query := `
        UPDATE monitoring_records
        SET status = $1, response = $2, updated_at = NOW()
        WHERE patient_id = $3 AND status = $4`
	result, err := d.Pool.Exec(ctx, query,
		string(models.MonitoringReplied), response, patientID, string(models.MonitoringAwaitingResponse))
	if err != nil {
		return 0, fmt.Errorf("failed to close monitoring records for patient %d: %w", patientID, err)
	}
	return result.RowsAffected(), nil
}

// LastMonitoringSentAt returns when the patient last received a scheduled
// check-in, or nil when they were never contacted.
func (d *DB) LastMonitoringSentAt(ctx context.Context, patientID int64) (*time.Time, error) {
	query := `
        SELECT created_at
        FROM monitoring_records
        WHERE patient_id = $1
        ORDER BY created_at DESC
        LIMIT 1`
	var at time.Time
	err := d.Pool.QueryRow(ctx, query, patientID).Scan(&at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last monitoring for patient %d: %w", patientID, err)
	}
	return &at, nil
}
