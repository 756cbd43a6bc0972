package risk

import (
	"strings"
	"time"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
)

// ColorForBP maps a blood pressure reading to its traffic-light color.
// This is the single source of truth for the per-reading classification;
// both extraction paths and the stored risk_color derive from it.
func ColorForBP(systolic, diastolic int) models.RiskColor {
	switch {
	case systolic >= 180 || diastolic >= 110:
		return models.ColorRed
	case systolic >= 140 || diastolic >= 90:
		return models.ColorYellow
	default:
		return models.ColorGreen
	}
}

// Snapshot is the patient state fed into Classify. BP fields are nil when
// the latest reading carried no pressure values.
type Snapshot struct {
	Systolic      *int
	Diastolic     *int
	Age           int
	BMI           float64
	Diabetes      bool
	HeartDisease  bool
	KidneyDisease bool
	Stroke        bool
	NonAdherent   bool
	Symptoms      []string
}

// Classify scores a patient snapshot into a monitoring tier. Deterministic,
// no I/O. Boundary scores belong to the higher tier.
func Classify(s Snapshot) models.RiskTier {
	score := score(s)
	switch {
	case score >= 8:
		return models.TierHigh
	case score >= 4:
		return models.TierMedium
	default:
		return models.TierLow
	}
}

func score(s Snapshot) int {
	score := 0

	if s.Systolic != nil && s.Diastolic != nil {
		sys, dia := *s.Systolic, *s.Diastolic
		switch {
		case sys >= 180 || dia >= 120:
			score += 5 // crise hipertensiva
		case sys >= 160 || dia >= 100:
			score += 3 // estágio 2
		case sys >= 140 || dia >= 90:
			score += 1 // estágio 1
		}
	}

	if s.Diabetes {
		score += 2
	}
	if s.HeartDisease {
		score += 3
	}
	if s.KidneyDisease {
		score += 2
	}
	if s.Stroke {
		score += 3
	}

	switch {
	case s.Age >= 65:
		score += 2
	case s.Age >= 50:
		score += 1
	}

	switch {
	case s.BMI >= 35:
		score += 2
	case s.BMI >= 30:
		score += 1
	}

	if s.NonAdherent {
		score += 2
	}

	score += len(s.Symptoms)

	return score
}

// Frequency describes the check-in cadence for a tier. IntervalDays is the
// nominal cadence; MinElapsedDays is the gate the scheduler compares
// floor-elapsed days against, kept one below the nominal interval for the
// weekly and biweekly tiers so a Monday send is not skipped by sub-day
// clock drift between runs.
type Frequency struct {
	Weekdays       map[time.Weekday]bool
	IntervalDays   int
	MinElapsedDays int
	Description    string
}

// FrequencyFor returns the monitoring cadence for a tier. Unknown tiers fall
// back to the low-risk cadence.
func FrequencyFor(tier models.RiskTier) Frequency {
	switch tier {
	case models.TierHigh:
		return Frequency{
			Weekdays:       map[time.Weekday]bool{time.Monday: true, time.Wednesday: true, time.Friday: true},
			IntervalDays:   3,
			MinElapsedDays: 3,
			Description:    "3x por semana",
		}
	case models.TierMedium:
		return Frequency{
			Weekdays:       map[time.Weekday]bool{time.Monday: true},
			IntervalDays:   7,
			MinElapsedDays: 6,
			Description:    "1x por semana",
		}
	default:
		return Frequency{
			Weekdays:       map[time.Weekday]bool{time.Monday: true},
			IntervalDays:   15,
			MinElapsedDays: 13,
			Description:    "1x a cada 15 dias",
		}
	}
}

// AlertLevel grades a detected danger signal in a patient's free text.
type AlertLevel string

const (
	LevelCritical AlertLevel = "CRITICAL"
	LevelWarning  AlertLevel = "WARNING"
	LevelNormal   AlertLevel = "NORMAL"
)

// AlertSignal is one keyword hit with its recommended action.
type AlertSignal struct {
	Level  AlertLevel `json:"level"`
	Signal string     `json:"signal"`
	Action string     `json:"action"` // EMERGENCY or CONTACT_DOCTOR
}

// ResponseAnalysis is the outcome of scanning a patient reply for danger
// signals. Severity is the level of the first match; critical keywords are
// scanned before warning keywords.
type ResponseAnalysis struct {
	HasAlerts bool          `json:"has_alerts"`
	Alerts    []AlertSignal `json:"alerts"`
	Severity  AlertLevel    `json:"severity"`
}

var (
	criticalKeywords = []string{"dor no peito", "falta de ar", "desmaio", "confusão", "convulsão"}
	warningKeywords  = []string{"tontura", "náusea", "vômito", "visão embaçada", "dor de cabeça forte"}
)

// AnalyzeResponse scans a patient's free-text reply for danger keywords.
func AnalyzeResponse(text string) ResponseAnalysis {
	lower := strings.ToLower(text)

	var alerts []AlertSignal
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			alerts = append(alerts, AlertSignal{Level: LevelCritical, Signal: kw, Action: "EMERGENCY"})
		}
	}
	for _, kw := range warningKeywords {
		if strings.Contains(lower, kw) {
			alerts = append(alerts, AlertSignal{Level: LevelWarning, Signal: kw, Action: "CONTACT_DOCTOR"})
		}
	}

	analysis := ResponseAnalysis{
		HasAlerts: len(alerts) > 0,
		Alerts:    alerts,
		Severity:  LevelNormal,
	}
	if len(alerts) > 0 {
		analysis.Severity = alerts[0].Level
	}
	return analysis
}

var baseQuestions = []string{
	"📊 Como está sua pressão arterial hoje? (Normal/Alta/Muito Alta)",
	"💊 Tomou os medicamentos conforme prescrito?",
	"🩺 Está sentindo dor de cabeça?",
}

var additionalQuestions = map[models.RiskTier][]string{
	models.TierHigh: {
		"🫀 Sente dor ou desconforto no peito?",
		"😵 Teve tontura ou vertigem?",
		"👁️ Apresenta visão embaçada?",
		"🤢 Sentiu náusea ou vômito?",
		"😰 Sente falta de ar?",
	},
	models.TierMedium: {
		"😰 Sente ansiedade ou palpitações?",
		"💤 Como está sua qualidade de sono?",
	},
	models.TierLow: {},
}

// QuestionsFor returns the questionnaire for a tier: the fixed base set plus
// tier-specific probing questions.
func QuestionsFor(tier models.RiskTier) []string {
	questions := make([]string, 0, len(baseQuestions)+len(additionalQuestions[tier]))
	questions = append(questions, baseQuestions...)
	questions = append(questions, additionalQuestions[tier]...)
	return questions
}
