package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/extractor"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/logging"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/risk"
)

// Patient-facing reply texts.
const (
	msgConsentRequest = "Olá! Este é o Sistema de Monitoramento de Saúde. Para continuar, precisamos do seu consentimento para tratar seus dados conforme a LGPD. Responda SIM para concordar."
	msgConsentThanks  = "Obrigado! Seu consentimento foi registrado. Agora você pode enviar suas medições de pressão e temperatura."
	msgNoData         = "Não entendi seus dados. Por favor, envie sua pressão (ex: 12/8) e/ou temperatura (ex: 36.5)."
	msgCriticalSigns  = "🚨 <b>ALERTA DE EMERGÊNCIA</b> 🚨\n\nForam detectados sinais de complicação grave da hipertensão.\n\n<b>PROCURE ATENDIMENTO MÉDICO IMEDIATAMENTE!</b>\n\n📞 SAMU: 192\n🏥 Unidade de Saúde mais próxima\n\n⚠️ Não ignore estes sintomas!"
	msgRed            = "🚨 <b>ATENÇÃO!</b> Sua pressão está muito alta. Já alertamos seu familiar e a equipe médica. Procure atendimento médico imediato!"
	msgYellow         = "⚠️ Sua pressão está um pouco elevada. Procure relaxar e evite sal. Tem sentido algum sintoma como dor de cabeça?"
	msgGreen          = "✅ Ótimo! Sua pressão está controlada. Continue assim!"
)

// Store is the persistence surface the orchestrator writes through.
type Store interface {
	CreateMessage(ctx context.Context, m *models.Message) error
	CreateReading(ctx context.Context, r *models.Reading) error
	CreateAlert(ctx context.Context, a *models.AlertRecord) error
	UpdateConsent(ctx context.Context, patientID int64, state models.ConsentState) error
	UpdateRiskTier(ctx context.Context, patientID int64, tier models.RiskTier) error
	CloseOpenMonitoring(ctx context.Context, patientID int64, response string) (int64, error)
}

// Outbound dispatches a text to an endpoint on its channel.
type Outbound interface {
	Send(ctx context.Context, ep models.Endpoint, text string) error
}

// AlertPublisher forwards emergency readings to the care team. Optional.
type AlertPublisher interface {
	PublishEmergency(ctx context.Context, patient models.Patient, reading models.Reading) error
}

// Orchestrator runs the per-inbound-message state machine: consent gate,
// extraction, persistence, risk re-evaluation, alerting and reply dispatch.
// Messages from the same patient are serialized so two near-simultaneous
// inbounds cannot interleave their read-modify-write of the patient record.
// lockStripes bounds the memory of per-patient serialization: patients hash
// onto a fixed set of mutexes instead of one mutex each.
const lockStripes = 64

type Orchestrator struct {
	store     Store
	extractor *extractor.Extractor
	gateway   Outbound
	events    AlertPublisher
	logger    *logging.Logger

	locks [lockStripes]sync.Mutex
}

func New(store Store, ext *extractor.Extractor, gw Outbound, events AlertPublisher, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		extractor: ext,
		gateway:   gw,
		events:    events,
		logger:    logger,
	}
}

// lockFor returns the stripe serializing a patient's messages. Two patients
// may share a stripe; the same patient always gets the same one.
func (o *Orchestrator) lockFor(patientID int64) *sync.Mutex {
	return &o.locks[uint64(patientID)%lockStripes]
}

// Process handles one inbound message and returns the reply text. A non-nil
// error means a persistence write failed and the webhook should answer with
// a server error; send failures are logged and never returned.
func (o *Orchestrator) Process(ctx context.Context, patient models.Patient, text string, channel models.ChannelKind) (string, error) {
	lock := o.lockFor(patient.ID)
	lock.Lock()
	defer lock.Unlock()

	// The raw inbound line is persisted unconditionally for audit
	// completeness, before anything can fail.
	inbound := &models.Message{PatientID: patient.ID, Direction: models.DirectionReceived, Content: text}
	if err := o.store.CreateMessage(ctx, inbound); err != nil {
		return "", fmt.Errorf("failed to persist inbound message: %w", err)
	}

	// Best effort: any inbound message resolves pending check-ins,
	// regardless of consent or extraction outcome.
	if closed, err := o.store.CloseOpenMonitoring(ctx, patient.ID, text); err != nil {
		o.logger.Errorf("Failed to close open monitoring for patient %d: %v", patient.ID, err)
	} else if closed > 0 {
		o.logger.Infof("Closed %d open monitoring record(s) for patient %d", closed, patient.ID)
	}

	if !patient.Consent.Granted() {
		return o.handleConsent(ctx, patient, text, channel)
	}

	vitals := o.extractor.Extract(ctx, text)
	if vitals.Empty() {
		reply := msgNoData
		// A reply with no numbers can still carry danger signals, e.g. a
		// free-text questionnaire answer naming chest pain.
		if analysis := risk.AnalyzeResponse(text); analysis.Severity == risk.LevelCritical {
			reply = msgCriticalSigns
			o.notifyFamiliarOfSymptoms(ctx, patient, analysis)
		}
		if err := o.respond(ctx, patient, reply, channel); err != nil {
			return "", err
		}
		return reply, nil
	}

	reading := &models.Reading{
		PatientID:   patient.ID,
		Systolic:    vitals.Systolic,
		Diastolic:   vitals.Diastolic,
		Temperature: vitals.Temperature,
		RiskColor:   vitals.RiskColor,
		Symptoms:    vitals.Symptoms,
		RawText:     text,
	}
	if err := o.store.CreateReading(ctx, reading); err != nil {
		return "", fmt.Errorf("failed to persist reading: %w", err)
	}

	newTier := risk.Classify(snapshotOf(patient, vitals))
	tierChanged := newTier != patient.RiskTier
	if tierChanged {
		if err := o.store.UpdateRiskTier(ctx, patient.ID, newTier); err != nil {
			return "", fmt.Errorf("failed to persist risk tier: %w", err)
		}
		o.logger.Infof("Risk tier of patient %d changed %s -> %s", patient.ID, patient.RiskTier, newTier)
	}

	reply := o.composeReply(ctx, patient, *reading, newTier, tierChanged)
	if err := o.respond(ctx, patient, reply, channel); err != nil {
		return "", err
	}
	return reply, nil
}

func (o *Orchestrator) handleConsent(ctx context.Context, patient models.Patient, text string, channel models.ChannelKind) (string, error) {
	reply := msgConsentRequest
	if isConsentYes(text) {
		if err := o.store.UpdateConsent(ctx, patient.ID, models.ConsentGranted); err != nil {
			return "", fmt.Errorf("failed to persist consent: %w", err)
		}
		o.logger.Infof("Consent granted by patient %d", patient.ID)
		reply = msgConsentThanks
	}
	if err := o.respond(ctx, patient, reply, channel); err != nil {
		return "", err
	}
	return reply, nil
}

func isConsentYes(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == "sim" || t == "yes"
}

func (o *Orchestrator) composeReply(ctx context.Context, patient models.Patient, reading models.Reading, newTier models.RiskTier, tierChanged bool) string {
	var reply string
	switch reading.RiskColor {
	case models.ColorRed:
		reply = msgRed
		o.alertFamiliar(ctx, patient, reading)
		if o.events != nil {
			if err := o.events.PublishEmergency(ctx, patient, reading); err != nil {
				o.logger.Errorf("Failed to publish care-team alert for patient %d: %v", patient.ID, err)
			}
		}
	case models.ColorYellow:
		reply = msgYellow
	default:
		reply = msgGreen
	}

	if tierChanged {
		freq := risk.FrequencyFor(newTier)
		reply += fmt.Sprintf("\n\n📝 Com base nos seus dados, seu plano de acompanhamento foi atualizado para: <b>%s</b>.", freq.Description)
	}
	return reply
}

// alertFamiliar notifies the emergency contact and records the attempt.
// Failures here never abort the patient's own reply.
func (o *Orchestrator) alertFamiliar(ctx context.Context, patient models.Patient, reading models.Reading) {
	ep, ok := patient.FamiliarEndpoint()
	if !ok {
		o.logger.Warnf("Red reading for patient %d but no familiar contact configured", patient.ID)
		return
	}

	text := fmt.Sprintf(
		"🚨 <b>ALERTA DE EMERGÊNCIA</b>\n\nPaciente: %s\nPressão: %s\nData: %s\n\nEntre em contato imediatamente!",
		patient.Name, formatBP(reading), reading.TakenAt.Format("02/01/2006 15:04"),
	)

	status := models.DeliverySent
	if err := o.gateway.Send(ctx, ep, text); err != nil {
		status = models.DeliveryFailed
		o.logger.Errorf("Failed to alert familiar of patient %d: %v", patient.ID, err)
	}

	alert := &models.AlertRecord{
		ID:             uuid.New().String(),
		ReadingID:      reading.ID,
		Recipient:      ep.Address,
		Channel:        ep.Kind,
		DeliveryStatus: status,
	}
	if err := o.store.CreateAlert(ctx, alert); err != nil {
		o.logger.Errorf("Failed to record alert for reading %d: %v", reading.ID, err)
	}
}

// notifyFamiliarOfSymptoms forwards critical free-text danger signals to the
// emergency contact. There is no reading here to attach an alert record to,
// so the familiar is messaged directly.
func (o *Orchestrator) notifyFamiliarOfSymptoms(ctx context.Context, patient models.Patient, analysis risk.ResponseAnalysis) {
	ep, ok := patient.FamiliarEndpoint()
	if !ok {
		o.logger.Warnf("Critical symptoms reported by patient %d but no familiar contact configured", patient.ID)
		return
	}

	signals := make([]string, 0, len(analysis.Alerts))
	for _, a := range analysis.Alerts {
		signals = append(signals, a.Signal)
	}
	text := fmt.Sprintf(
		"🚨 <b>ALERTA DE EMERGÊNCIA</b>\n\nPaciente: %s\nSintomas relatados: %s\n\nEntre em contato imediatamente!",
		patient.Name, strings.Join(signals, ", "),
	)
	if err := o.gateway.Send(ctx, ep, text); err != nil {
		o.logger.Errorf("Failed to alert familiar of patient %d: %v", patient.ID, err)
	}
}

func formatBP(r models.Reading) string {
	if r.Systolic == nil || r.Diastolic == nil {
		return "não informada"
	}
	return fmt.Sprintf("%d/%d", *r.Systolic, *r.Diastolic)
}

// respond persists the outbound line and dispatches it on the originating
// channel. Dispatch failures are logged, not retried, and do not roll back
// anything already persisted.
func (o *Orchestrator) respond(ctx context.Context, patient models.Patient, text string, channel models.ChannelKind) error {
	outbound := &models.Message{PatientID: patient.ID, Direction: models.DirectionSent, Content: text}
	if err := o.store.CreateMessage(ctx, outbound); err != nil {
		return fmt.Errorf("failed to persist outbound message: %w", err)
	}

	ep, ok := patient.ReplyEndpoint(channel)
	if !ok {
		o.logger.Warnf("Patient %d has no address on channel %s, reply stays in history", patient.ID, channel)
		return nil
	}
	if err := o.gateway.Send(ctx, ep, text); err != nil {
		o.logger.Errorf("Failed to send reply to patient %d via %s: %v", patient.ID, channel, err)
	}
	return nil
}

// snapshotOf merges the patient's clinical attributes with the vitals just
// extracted, the input to risk re-evaluation.
func snapshotOf(patient models.Patient, vitals extractor.Vitals) risk.Snapshot {
	return risk.Snapshot{
		Systolic:      vitals.Systolic,
		Diastolic:     vitals.Diastolic,
		Age:           patient.Age,
		BMI:           patient.BMI,
		Diabetes:      patient.Diabetes,
		HeartDisease:  patient.HeartDisease,
		KidneyDisease: patient.KidneyDisease,
		Stroke:        patient.Stroke,
		NonAdherent:   patient.NonAdherent,
		Symptoms:      SplitSymptoms(vitals.Symptoms),
	}
}

// SplitSymptoms turns the extractor's free-text symptom field into the list
// the classifier counts.
func SplitSymptoms(symptoms *string) []string {
	if symptoms == nil {
		return nil
	}
	var out []string
	for _, part := range strings.Split(*symptoms, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
