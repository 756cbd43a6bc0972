package db

import (
	"context"
	"fmt"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
)

func (d *DB) CreateMessage(ctx context.Context, m *models.Message) error {
	query := `
        INSERT INTO messages (patient_id, direction, content)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	err := d.Pool.QueryRow(ctx, query, m.PatientID, string(m.Direction), m.Content).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListMessagesByPatient returns the chat history in chronological order.
func (d *DB) ListMessagesByPatient(ctx context.Context, patientID int64, limit int) ([]models.Message, error) {
	query := `
        SELECT id, patient_id, direction, content, created_at
        FROM messages
        WHERE patient_id = $1
        ORDER BY created_at ASC
        LIMIT $2`
	rows, err := d.Pool.Query(ctx, query, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for patient %d: %w", patientID, err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.PatientID, &m.Direction, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
