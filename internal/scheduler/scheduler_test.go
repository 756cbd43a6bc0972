package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/logging"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
)

// 2024-01-01 was a Monday.
var (
	monday    = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	wednesday = time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	thursday  = time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC)
	friday    = time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	sunday    = time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC)
)

func timePtr(t time.Time) *time.Time { return &t }

func TestDue(t *testing.T) {
	tests := []struct {
		name     string
		tier     models.RiskTier
		lastSent *time.Time
		now      time.Time
		want     bool
	}{
		{"never contacted is always due", models.TierLow, nil, sunday, true},
		{"never contacted high tier on a sunday", models.TierHigh, nil, sunday, true},

		{"high two days after monday is not due", models.TierHigh, timePtr(monday), wednesday, false},
		{"high four days after monday on friday is due", models.TierHigh, timePtr(monday), friday, true},
		{"high elapsed but wrong weekday", models.TierHigh, timePtr(monday), thursday, false},

		{"medium a week later on monday is due", models.TierMedium, timePtr(monday.Add(30 * time.Minute)), monday.AddDate(0, 0, 7), true},
		{"medium mid-week is gated by weekday", models.TierMedium, timePtr(monday), wednesday.AddDate(0, 0, 7), false},
		{"medium next day is not due", models.TierMedium, timePtr(sunday), monday.AddDate(0, 0, 7), false},

		{"low one week later is not due", models.TierLow, timePtr(monday), monday.AddDate(0, 0, 7), false},
		{"low two weeks later on monday is due", models.TierLow, timePtr(monday), monday.AddDate(0, 0, 14), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Due(tt.tier, tt.lastSent, tt.now))
		})
	}
}

// A send logged 30 minutes after 09:00 must not push the next weekly
// check-in past its Monday.
func TestDueTolerantOfClockDrift(t *testing.T) {
	lastSent := monday.Add(45 * time.Minute)
	nextMonday := monday.AddDate(0, 0, 7) // 09:00, 45 min "early"
	assert.True(t, Due(models.TierMedium, &lastSent, nextMonday))
}

type fakeStore struct {
	patients   []models.Patient
	latest     map[int64]*models.Reading
	lastSent   map[int64]*time.Time
	tiers      map[int64]models.RiskTier
	monitoring []models.MonitoringRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		latest:   make(map[int64]*models.Reading),
		lastSent: make(map[int64]*time.Time),
		tiers:    make(map[int64]models.RiskTier),
	}
}

func (f *fakeStore) ListMonitoredPatients(ctx context.Context) ([]models.Patient, error) {
	return f.patients, nil
}

func (f *fakeStore) LatestReading(ctx context.Context, patientID int64) (*models.Reading, error) {
	return f.latest[patientID], nil
}

func (f *fakeStore) LastMonitoringSentAt(ctx context.Context, patientID int64) (*time.Time, error) {
	return f.lastSent[patientID], nil
}

func (f *fakeStore) UpdateRiskTier(ctx context.Context, patientID int64, tier models.RiskTier) error {
	f.tiers[patientID] = tier
	return nil
}

func (f *fakeStore) CreateMonitoring(ctx context.Context, rec *models.MonitoringRecord) error {
	f.monitoring = append(f.monitoring, *rec)
	return nil
}

type fakeOutbound struct {
	sent    []string
	failAll bool
}

func (f *fakeOutbound) Send(ctx context.Context, ep models.Endpoint, text string) error {
	if f.failAll {
		return errors.New("provider unreachable")
	}
	f.sent = append(f.sent, text)
	return nil
}

func newTestScheduler(t *testing.T, store Store, out Outbound, now time.Time) *Scheduler {
	t.Helper()
	s, err := New(store, out, "0 9 * * *", "UTC", logging.New("error", ""))
	require.NoError(t, err)
	s.now = func() time.Time { return now }
	return s
}

func TestRunOnceSendsAndRecords(t *testing.T) {
	store := newFakeStore()
	store.patients = []models.Patient{
		{ID: 1, Name: "Maria", TelegramChatID: "100", Consent: models.ConsentGranted, RiskTier: models.TierHigh},
	}
	out := &fakeOutbound{}

	s := newTestScheduler(t, store, out, monday)
	s.RunOnce(context.Background())

	require.Len(t, out.sent, 1)
	assert.Contains(t, out.sent[0], "Maria")
	assert.Contains(t, out.sent[0], "1. ")

	require.Len(t, store.monitoring, 1)
	rec := store.monitoring[0]
	assert.Equal(t, int64(1), rec.PatientID)
	assert.Equal(t, models.TierHigh, rec.RiskTier)
	assert.Equal(t, models.MonitoringAwaitingResponse, rec.Status)
	assert.NotEmpty(t, rec.ID)
}

func TestRunOnceSkipsNotDuePatients(t *testing.T) {
	store := newFakeStore()
	store.patients = []models.Patient{
		{ID: 1, TelegramChatID: "100", Consent: models.ConsentGranted, RiskTier: models.TierHigh},
	}
	store.lastSent[1] = timePtr(monday)
	out := &fakeOutbound{}

	s := newTestScheduler(t, store, out, wednesday)
	s.RunOnce(context.Background())

	assert.Empty(t, out.sent)
	assert.Empty(t, store.monitoring)
}

func TestRunOnceBootstrapsMissingTier(t *testing.T) {
	sys, dia := 185, 125
	store := newFakeStore()
	store.patients = []models.Patient{
		{ID: 1, Name: "João", TelegramChatID: "100", Consent: models.ConsentGranted, Age: 70, Diabetes: true},
	}
	store.latest[1] = &models.Reading{PatientID: 1, Systolic: &sys, Diastolic: &dia}
	out := &fakeOutbound{}

	s := newTestScheduler(t, store, out, sunday)
	s.RunOnce(context.Background())

	// Crisis reading + age + diabetes classifies high; the tier is persisted
	// and the never-contacted patient is messaged immediately.
	assert.Equal(t, models.TierHigh, store.tiers[1])
	require.Len(t, store.monitoring, 1)
	assert.Equal(t, models.TierHigh, store.monitoring[0].RiskTier)
}

func TestRunOnceBootstrapsWithoutReadings(t *testing.T) {
	store := newFakeStore()
	store.patients = []models.Patient{
		{ID: 1, TelegramChatID: "100", Consent: models.ConsentGranted},
	}
	out := &fakeOutbound{}

	s := newTestScheduler(t, store, out, monday)
	s.RunOnce(context.Background())

	assert.Equal(t, models.TierLow, store.tiers[1])
	require.Len(t, store.monitoring, 1)
}

func TestRunOnceFailedSendLeavesNoRecord(t *testing.T) {
	store := newFakeStore()
	store.patients = []models.Patient{
		{ID: 1, TelegramChatID: "100", Consent: models.ConsentGranted, RiskTier: models.TierLow},
	}
	out := &fakeOutbound{failAll: true}

	s := newTestScheduler(t, store, out, monday)
	s.RunOnce(context.Background())

	// A check-in that never went out must not count as contact, so the next
	// run retries.
	assert.Empty(t, store.monitoring)
}

func TestRunOnceIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	store.patients = []models.Patient{
		{ID: 1, Consent: models.ConsentGranted, RiskTier: models.TierLow}, // no channel at all
		{ID: 2, Name: "Ana", TelegramChatID: "200", Consent: models.ConsentGranted, RiskTier: models.TierLow},
	}
	out := &fakeOutbound{}

	s := newTestScheduler(t, store, out, monday)
	s.RunOnce(context.Background())

	// Patient 1 errors out, patient 2 is still served.
	require.Len(t, out.sent, 1)
	assert.Contains(t, out.sent[0], "Ana")
}

func TestComposeQuestionnaire(t *testing.T) {
	text := ComposeQuestionnaire("Maria", models.TierHigh)
	assert.Contains(t, text, "<b>🏥 Monitoramento de Saúde</b>")
	assert.Contains(t, text, "<i>Responda com números ou texto livre")
	assert.Contains(t, text, "Olá, Maria!")
	assert.Contains(t, text, "1. ")
	assert.Contains(t, text, "8. ")
	assert.NotContains(t, text, "9. ")

	low := ComposeQuestionnaire("Maria", models.TierLow)
	assert.Contains(t, low, "3. ")
	assert.NotContains(t, low, "4. ")
}
