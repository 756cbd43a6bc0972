package models

import "time"

// MonitoringStatus is the lifecycle of a scheduled check-in:
// awaiting_response -> replied (terminal).
type MonitoringStatus string

const (
	MonitoringAwaitingResponse MonitoringStatus = "awaiting_response"
	MonitoringReplied          MonitoringStatus = "replied"
)

// MonitoringRecord is one scheduled check-in event. Created by the scheduler
// when a questionnaire is sent; transitioned to replied by the orchestrator
// on any subsequent inbound message from the patient.
type MonitoringRecord struct {
	ID        string           `json:"id"`
	PatientID int64            `json:"patient_id"`
	RiskTier  RiskTier         `json:"risk_tier"` // tier at send time
	Status    MonitoringStatus `json:"status"`
	Response  *string          `json:"response,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
