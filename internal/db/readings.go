package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
)

func (d *DB) CreateReading(ctx context.Context, r *models.Reading) error {
	query := `
        INSERT INTO readings (patient_id, systolic, diastolic, temperature, risk_color, symptoms, raw_text)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, taken_at`
	err := d.Pool.QueryRow(ctx, query,
		r.PatientID, r.Systolic, r.Diastolic, r.Temperature, string(r.RiskColor), r.Symptoms, r.RawText,
	).Scan(&r.ID, &r.TakenAt)
	if err != nil {
		return fmt.Errorf("failed to create reading: %w", err)
	}
	return nil
}

// LatestReading returns the most recent reading of a patient, or nil when
// none exists yet.
func (d *DB) LatestReading(ctx context.Context, patientID int64) (*models.Reading, error) {
	query := `
        SELECT id, patient_id, systolic, diastolic, temperature, risk_color, symptoms, raw_text, taken_at
        FROM readings
        WHERE patient_id = $1
        ORDER BY taken_at DESC
        LIMIT 1`
	var r models.Reading
	err := d.Pool.QueryRow(ctx, query, patientID).Scan(
		&r.ID, &r.PatientID, &r.Systolic, &r.Diastolic, &r.Temperature,
		&r.RiskColor, &r.Symptoms, &r.RawText, &r.TakenAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest reading for patient %d: %w", patientID, err)
	}
	return &r, nil
}

func (d *DB) ListReadingsByPatient(ctx context.Context, patientID int64, limit int) ([]models.Reading, error) {
	query := `
        SELECT id, patient_id, systolic, diastolic, temperature, risk_color, symptoms, raw_text, taken_at
        FROM readings
        WHERE patient_id = $1
        ORDER BY taken_at DESC
        LIMIT $2`
	rows, err := d.Pool.Query(ctx, query, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings for patient %d: %w", patientID, err)
	}
	defer rows.Close()

	var readings []models.Reading
	for rows.Next() {
		var r models.Reading
		if err := rows.Scan(
			&r.ID, &r.PatientID, &r.Systolic, &r.Diastolic, &r.Temperature,
			&r.RiskColor, &r.Symptoms, &r.RawText, &r.TakenAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}
