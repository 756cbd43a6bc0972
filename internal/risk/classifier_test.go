package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
)

func intPtr(v int) *int { return &v }

func TestColorForBP(t *testing.T) {
	tests := []struct {
		name     string
		sys, dia int
		want     models.RiskColor
	}{
		{"normal", 120, 80, models.ColorGreen},
		{"just below stage 1", 139, 89, models.ColorGreen},
		{"stage 1 systolic", 140, 85, models.ColorYellow},
		{"stage 1 diastolic", 130, 90, models.ColorYellow},
		{"just below crisis", 179, 109, models.ColorYellow},
		{"crisis systolic", 180, 100, models.ColorRed},
		{"crisis diastolic", 150, 110, models.ColorRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ColorForBP(tt.sys, tt.dia))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		snapshot Snapshot
		want     models.RiskTier
	}{
		{
			name:     "empty snapshot is low",
			snapshot: Snapshot{},
			want:     models.TierLow,
		},
		{
			name:     "stage 2 alone stays low", // score 3
			snapshot: Snapshot{Systolic: intPtr(160), Diastolic: intPtr(100)},
			want:     models.TierLow,
		},
		{
			name:     "stage 2 plus middle age reaches medium", // score 4
			snapshot: Snapshot{Systolic: intPtr(160), Diastolic: intPtr(100), Age: 50},
			want:     models.TierMedium,
		},
		{
			name:     "young patient in crisis is medium, not high", // score 5
			snapshot: Snapshot{Systolic: intPtr(190), Diastolic: intPtr(120), Age: 30},
			want:     models.TierMedium,
		},
		{
			name:     "comorbidities alone at the high boundary", // 3+3+2 = 8
			snapshot: Snapshot{HeartDisease: true, Stroke: true, Diabetes: true},
			want:     models.TierHigh,
		},
		{
			name:     "one point below the high boundary", // 3+3+1 = 7
			snapshot: Snapshot{HeartDisease: true, Stroke: true, Age: 55},
			want:     models.TierMedium,
		},
		{
			name: "elderly diabetic in crisis is high", // 5+2+2 = 9
			snapshot: Snapshot{
				Systolic: intPtr(185), Diastolic: intPtr(125),
				Age: 70, Diabetes: true,
			},
			want: models.TierHigh,
		},
		{
			name: "symptoms push a borderline patient up", // 5+2+1 = 8
			snapshot: Snapshot{
				Systolic: intPtr(185), Diastolic: intPtr(125),
				Diabetes: true, Symptoms: []string{"dor de cabeça"},
			},
			want: models.TierHigh,
		},
		{
			name:     "missing blood pressure contributes nothing",
			snapshot: Snapshot{Systolic: nil, Diastolic: nil, Diabetes: true},
			want:     models.TierLow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.snapshot))
		})
	}
}

func TestClassifyIsMonotonic(t *testing.T) {
	base := Snapshot{Systolic: intPtr(160), Diastolic: intPtr(100), Age: 50}
	assert.Equal(t, models.TierMedium, Classify(base))

	worse := base
	worse.HeartDisease = true
	worse.Stroke = true
	assert.Equal(t, models.TierHigh, Classify(worse))
}

func TestFrequencyFor(t *testing.T) {
	high := FrequencyFor(models.TierHigh)
	assert.Equal(t, 3, high.IntervalDays)
	assert.Equal(t, 3, high.MinElapsedDays)
	assert.True(t, high.Weekdays[time.Monday])
	assert.True(t, high.Weekdays[time.Wednesday])
	assert.True(t, high.Weekdays[time.Friday])
	assert.False(t, high.Weekdays[time.Sunday])

	medium := FrequencyFor(models.TierMedium)
	assert.Equal(t, 7, medium.IntervalDays)
	assert.Equal(t, 6, medium.MinElapsedDays)
	assert.True(t, medium.Weekdays[time.Monday])
	assert.False(t, medium.Weekdays[time.Wednesday])

	low := FrequencyFor(models.TierLow)
	assert.Equal(t, 15, low.IntervalDays)
	assert.Equal(t, 13, low.MinElapsedDays)

	// Unclassified patients default to the low cadence.
	assert.Equal(t, low, FrequencyFor(""))
}

func TestAnalyzeResponse(t *testing.T) {
	t.Run("no keywords", func(t *testing.T) {
		analysis := AnalyzeResponse("Estou me sentindo bem hoje, obrigado")
		assert.False(t, analysis.HasAlerts)
		assert.Empty(t, analysis.Alerts)
		assert.Equal(t, LevelNormal, analysis.Severity)
	})

	t.Run("warning keyword", func(t *testing.T) {
		analysis := AnalyzeResponse("Senti um pouco de tontura pela manhã")
		assert.True(t, analysis.HasAlerts)
		assert.Equal(t, LevelWarning, analysis.Severity)
		assert.Equal(t, "CONTACT_DOCTOR", analysis.Alerts[0].Action)
	})

	t.Run("critical keyword", func(t *testing.T) {
		analysis := AnalyzeResponse("Estou com DOR NO PEITO desde ontem")
		assert.True(t, analysis.HasAlerts)
		assert.Equal(t, LevelCritical, analysis.Severity)
		assert.Equal(t, "EMERGENCY", analysis.Alerts[0].Action)
	})

	t.Run("critical outranks warning regardless of order", func(t *testing.T) {
		analysis := AnalyzeResponse("tontura e depois falta de ar")
		assert.Equal(t, LevelCritical, analysis.Severity)
		assert.Len(t, analysis.Alerts, 2)
	})
}

func TestQuestionsFor(t *testing.T) {
	low := QuestionsFor(models.TierLow)
	medium := QuestionsFor(models.TierMedium)
	high := QuestionsFor(models.TierHigh)

	assert.Len(t, low, 3)
	assert.Len(t, medium, 5)
	assert.Len(t, high, 8)

	// The base set always comes first.
	assert.Equal(t, low, medium[:3])
	assert.Equal(t, low, high[:3])
}
