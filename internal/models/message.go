package models

import "time"

// Direction says whether a chat line came from the patient or from us.
type Direction string

const (
	DirectionReceived Direction = "received"
	DirectionSent     Direction = "sent"
)

// Message is one line of the per-patient chat audit log. Append-only.
type Message struct {
	ID        int64     `json:"id"`
	PatientID int64     `json:"patient_id"`
	Direction Direction `json:"direction"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
