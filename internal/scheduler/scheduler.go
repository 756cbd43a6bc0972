package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/logging"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/orchestrator"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/risk"
)

const day = 24 * time.Hour

// Store is the persistence surface the scheduler reads and writes.
type Store interface {
	ListMonitoredPatients(ctx context.Context) ([]models.Patient, error)
	LatestReading(ctx context.Context, patientID int64) (*models.Reading, error)
	LastMonitoringSentAt(ctx context.Context, patientID int64) (*time.Time, error)
	UpdateRiskTier(ctx context.Context, patientID int64, tier models.RiskTier) error
	CreateMonitoring(ctx context.Context, rec *models.MonitoringRecord) error
}

// Outbound dispatches a text to an endpoint on its channel.
type Outbound interface {
	Send(ctx context.Context, ep models.Endpoint, text string) error
}

// Scheduler runs the daily check-in job: for every consenting patient with a
// reachable channel it decides, from risk tier and last contact, whether a
// questionnaire goes out today.
type Scheduler struct {
	store   Store
	gateway Outbound
	logger  *logging.Logger
	cron    *cron.Cron
	now     func() time.Time
}

func New(store Store, gw Outbound, spec, timezone string, logger *logging.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", timezone, err)
	}

	s := &Scheduler{
		store:   store,
		gateway: gw,
		logger:  logger,
		cron:    cron.New(cron.WithLocation(loc)),
		now:     func() time.Time { return time.Now().In(loc) },
	}
	if _, err := s.cron.AddFunc(spec, func() {
		s.logger.Infof("Starting daily monitoring run")
		s.RunOnce(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("invalid scheduler cron spec %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Infof("Scheduler started")
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Infof("Scheduler stopped")
}

// RunOnce evaluates the whole patient batch. Per-patient failures are
// isolated: one patient's error never prevents evaluation of the rest.
func (s *Scheduler) RunOnce(ctx context.Context) {
	patients, err := s.store.ListMonitoredPatients(ctx)
	if err != nil {
		s.logger.Errorf("Failed to list monitored patients: %v", err)
		return
	}

	sent := 0
	for _, p := range patients {
		if err := s.process(ctx, p); err != nil {
			s.logger.Errorf("Check-in for patient %d failed: %v", p.ID, err)
			continue
		}
		sent++
	}
	s.logger.Infof("Daily monitoring run finished: %d/%d patients processed", sent, len(patients))
}

func (s *Scheduler) process(ctx context.Context, p models.Patient) error {
	tier := p.RiskTier
	if tier == "" {
		var err error
		tier, err = s.bootstrapTier(ctx, p)
		if err != nil {
			return err
		}
	}

	lastSent, err := s.store.LastMonitoringSentAt(ctx, p.ID)
	if err != nil {
		return err
	}
	if !Due(tier, lastSent, s.now()) {
		return nil
	}

	ep, ok := p.PreferredEndpoint()
	if !ok {
		return fmt.Errorf("patient %d has no reachable channel", p.ID)
	}

	// The record is written only after the send attempt succeeded, so a
	// check-in that never went out is never on file.
	if err := s.gateway.Send(ctx, ep, ComposeQuestionnaire(p.Name, tier)); err != nil {
		return fmt.Errorf("failed to send questionnaire: %w", err)
	}

	rec := &models.MonitoringRecord{
		ID:        uuid.New().String(),
		PatientID: p.ID,
		RiskTier:  tier,
		Status:    models.MonitoringAwaitingResponse,
	}
	if err := s.store.CreateMonitoring(ctx, rec); err != nil {
		return fmt.Errorf("failed to record monitoring: %w", err)
	}
	s.logger.Infof("Questionnaire sent to patient %d (%s) via %s", p.ID, tier, ep.Kind)
	return nil
}

// bootstrapTier classifies a patient who has no tier yet from their latest
// reading (low risk when none exists) and persists the result.
func (s *Scheduler) bootstrapTier(ctx context.Context, p models.Patient) (models.RiskTier, error) {
	snapshot := risk.Snapshot{
		Age:           p.Age,
		BMI:           p.BMI,
		Diabetes:      p.Diabetes,
		HeartDisease:  p.HeartDisease,
		KidneyDisease: p.KidneyDisease,
		Stroke:        p.Stroke,
		NonAdherent:   p.NonAdherent,
	}

	latest, err := s.store.LatestReading(ctx, p.ID)
	if err != nil {
		return "", err
	}
	if latest != nil {
		snapshot.Systolic = latest.Systolic
		snapshot.Diastolic = latest.Diastolic
		snapshot.Symptoms = orchestrator.SplitSymptoms(latest.Symptoms)
	}

	tier := risk.Classify(snapshot)
	if err := s.store.UpdateRiskTier(ctx, p.ID, tier); err != nil {
		return "", err
	}
	s.logger.Infof("Bootstrapped risk tier %s for patient %d", tier, p.ID)
	return tier, nil
}

// Due decides whether a check-in goes out today. A patient who was never
// contacted is always due, regardless of weekday; otherwise both the
// elapsed-days gate and the preferred-weekday gate must pass.
func Due(tier models.RiskTier, lastSent *time.Time, now time.Time) bool {
	if lastSent == nil {
		return true
	}
	freq := risk.FrequencyFor(tier)
	elapsedDays := int(now.Sub(*lastSent) / day)
	return elapsedDays >= freq.MinElapsedDays && freq.Weekdays[now.Weekday()]
}

// ComposeQuestionnaire renders the tier-appropriate question list. The HTML
// markup targets Telegram's parse mode; other channel adapters strip it.
func ComposeQuestionnaire(name string, tier models.RiskTier) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>🏥 Monitoramento de Saúde</b>\n\nOlá, %s! Por favor, responda às seguintes perguntas:\n\n", name)
	for i, q := range risk.QuestionsFor(tier) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	b.WriteString("\n<i>Responda com números ou texto livre. Ex: 12/8, Sim, Não.</i>")
	return b.String()
}
