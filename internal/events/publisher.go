package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/logging"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
)

// EmergencyAlert is the event the care-team dashboard consumes when a red
// reading arrives.
type EmergencyAlert struct {
	PatientID   int64     `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	ReadingID   int64     `json:"reading_id"`
	Systolic    *int      `json:"systolic"`
	Diastolic   *int      `json:"diastolic"`
	Symptoms    *string   `json:"symptoms"`
	TakenAt     time.Time `json:"taken_at"`
}

// Publisher writes emergency alert events to Kafka for the staff dashboard.
type Publisher struct {
	writer *kafka.Writer
	logger *logging.Logger
}

func NewPublisher(broker, topic string, logger *logging.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
		logger: logger,
	}
}

// PublishEmergency emits one care-team alert event for a red reading.
func (p *Publisher) PublishEmergency(ctx context.Context, patient models.Patient, reading models.Reading) error {
	event := EmergencyAlert{
		PatientID:   patient.ID,
		PatientName: patient.Name,
		ReadingID:   reading.ID,
		Systolic:    reading.Systolic,
		Diastolic:   reading.Diastolic,
		Symptoms:    reading.Symptoms,
		TakenAt:     reading.TakenAt,
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode emergency alert: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(patient.ID, 10)),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish emergency alert: %w", err)
	}
	p.logger.Infof("Published care-team alert for patient %d (reading %d)", patient.ID, reading.ID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
