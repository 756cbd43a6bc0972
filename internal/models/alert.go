package models

import "time"

// DeliveryStatus records the outcome of one alert dispatch attempt.
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// AlertRecord is one emergency notification to a familiar contact, created
// only for red readings when a reachable contact exists.
type AlertRecord struct {
	ID             string         `json:"id"`
	ReadingID      int64          `json:"reading_id"`
	Recipient      string         `json:"recipient"`
	Channel        ChannelKind    `json:"channel"`
	DeliveryStatus DeliveryStatus `json:"delivery_status"`
	CreatedAt      time.Time      `json:"created_at"`
}
