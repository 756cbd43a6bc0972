package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
)

const patientColumns = `id, name, phone, familiar_phone, telegram_chat_id, familiar_telegram_chat_id,
	consent, risk_tier, plan_tier, age, bmi, diabetes, heart_disease, kidney_disease, stroke,
	non_adherent, created_at, updated_at`

func scanPatient(row pgx.Row) (models.Patient, error) {
	var p models.Patient
	var consent bool
	var tier *string
	err := row.Scan(
		&p.ID, &p.Name, &p.Phone, &p.FamiliarPhone, &p.TelegramChatID, &p.FamiliarTelegramChatID,
		&consent, &tier, &p.PlanTier, &p.Age, &p.BMI, &p.Diabetes, &p.HeartDisease,
		&p.KidneyDisease, &p.Stroke, &p.NonAdherent, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return models.Patient{}, err
	}
	p.Consent = models.ConsentPending
	if consent {
		p.Consent = models.ConsentGranted
	}
	if tier != nil {
		p.RiskTier = models.RiskTier(*tier)
	}
	return p, nil
}

func (d *DB) CreatePatient(ctx context.Context, p *models.Patient) error {
	query := `
        INSERT INTO patients (name, phone, familiar_phone, telegram_chat_id, familiar_telegram_chat_id, consent)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`
	err := d.Pool.QueryRow(ctx, query,
		p.Name, p.Phone, p.FamiliarPhone, p.TelegramChatID, p.FamiliarTelegramChatID,
		p.Consent.Granted(),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (d *DB) GetPatientByID(ctx context.Context, id int64) (models.Patient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE id = $1`, patientColumns)
	p, err := scanPatient(d.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Patient{}, ErrNotFound
		}
		return models.Patient{}, fmt.Errorf("failed to get patient %d: %w", id, err)
	}
	return p, nil
}

func (d *DB) GetPatientByPhone(ctx context.Context, phone string) (models.Patient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE phone = $1`, patientColumns)
	p, err := scanPatient(d.Pool.QueryRow(ctx, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Patient{}, ErrNotFound
		}
		return models.Patient{}, fmt.Errorf("failed to get patient by phone: %w", err)
	}
	return p, nil
}

func (d *DB) GetPatientByTelegramChatID(ctx context.Context, chatID string) (models.Patient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE telegram_chat_id = $1`, patientColumns)
	p, err := scanPatient(d.Pool.QueryRow(ctx, query, chatID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Patient{}, ErrNotFound
		}
		return models.Patient{}, fmt.Errorf("failed to get patient by telegram chat id: %w", err)
	}
	return p, nil
}

func (d *DB) UpdateConsent(ctx context.Context, id int64, state models.ConsentState) error {
	query := `UPDATE patients SET consent = $1, updated_at = NOW() WHERE id = $2`
	result, err := d.Pool.Exec(ctx, query, state.Granted(), id)
	if err != nil {
		return fmt.Errorf("failed to update consent for patient %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DB) UpdateRiskTier(ctx context.Context, id int64, tier models.RiskTier) error {
	query := `UPDATE patients SET risk_tier = $1, updated_at = NOW() WHERE id = $2`
	result, err := d.Pool.Exec(ctx, query, string(tier), id)
	if err != nil {
		return fmt.Errorf("failed to update risk tier for patient %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMonitoredPatients returns every consenting patient with at least one
// reachable channel, the population the daily scheduler evaluates.
func (d *DB) ListMonitoredPatients(ctx context.Context) ([]models.Patient, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM patients
        WHERE consent = TRUE AND (telegram_chat_id <> '' OR phone <> '')
        ORDER BY id`, patientColumns)
	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list monitored patients: %w", err)
	}
	defer rows.Close()

	var patients []models.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}
