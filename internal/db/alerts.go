package db

import (
	"context"
	"fmt"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
)

func (d *DB) CreateAlert(ctx context.Context, a *models.AlertRecord) error {
	query := `
        INSERT INTO alerts (id, reading_id, recipient, channel, delivery_status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at`
	err := d.Pool.QueryRow(ctx, query,
		a.ID, a.ReadingID, a.Recipient, string(a.Channel), string(a.DeliveryStatus),
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}
