package models

import "time"

// RiskColor is the per-reading traffic-light classification. It is a pure
// function of the reading's blood pressure (plus symptom severity on the
// LLM extraction path) and is never recomputed ad hoc elsewhere.
type RiskColor string

const (
	ColorGreen  RiskColor = "green"
	ColorYellow RiskColor = "yellow"
	ColorRed    RiskColor = "red"
)

// Reading is one vital-sign report. Immutable once stored; readings are
// ordered by TakenAt for trend queries.
type Reading struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	Systolic    *int      `json:"systolic"`
	Diastolic   *int      `json:"diastolic"`
	Temperature *float64  `json:"temperature"`
	RiskColor   RiskColor `json:"risk_color"`
	Symptoms    *string   `json:"symptoms"`
	RawText     string    `json:"raw_text"`
	TakenAt     time.Time `json:"taken_at"`
}
