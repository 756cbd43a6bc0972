package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
)

func TestFallbackBloodPressure(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		sys, dia int
		color    models.RiskColor
	}{
		{"shorthand slash", "12/8", 120, 80, models.ColorGreen},
		{"full values slash", "120/80", 120, 80, models.ColorGreen},
		{"x separator", "minha pressão deu 120x80 hoje", 120, 80, models.ColorGreen},
		{"space separator", "pressao 130 85", 130, 85, models.ColorGreen},
		{"shorthand elevated", "14/9", 140, 90, models.ColorYellow},
		{"crisis", "180/120", 180, 120, models.ColorRed},
		{"mixed shorthand", "19/12", 190, 120, models.ColorRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vitals := Fallback(tt.text)
			require.NotNil(t, vitals.Systolic)
			require.NotNil(t, vitals.Diastolic)
			assert.Equal(t, tt.sys, *vitals.Systolic)
			assert.Equal(t, tt.dia, *vitals.Diastolic)
			assert.Equal(t, tt.color, vitals.RiskColor)
		})
	}
}

func TestFallbackTemperature(t *testing.T) {
	t.Run("decimal with dot", func(t *testing.T) {
		vitals := Fallback("temperatura 36.5")
		require.NotNil(t, vitals.Temperature)
		assert.Equal(t, 36.5, *vitals.Temperature)
		assert.Nil(t, vitals.Systolic)
	})

	t.Run("decimal with comma", func(t *testing.T) {
		vitals := Fallback("febre de 37,8 hoje")
		require.NotNil(t, vitals.Temperature)
		assert.Equal(t, 37.8, *vitals.Temperature)
	})

	t.Run("whole number in plausible range", func(t *testing.T) {
		vitals := Fallback("estou com febre, 38 graus")
		require.NotNil(t, vitals.Temperature)
		assert.Equal(t, 38.0, *vitals.Temperature)
	})

	t.Run("blood pressure numbers are not misread as temperature", func(t *testing.T) {
		vitals := Fallback("120/80")
		assert.Nil(t, vitals.Temperature)
	})
}

func TestFallbackCombined(t *testing.T) {
	vitals := Fallback("Minha pressão está 14/9 e temperatura 36.5")
	require.NotNil(t, vitals.Systolic)
	require.NotNil(t, vitals.Diastolic)
	require.NotNil(t, vitals.Temperature)
	assert.Equal(t, 140, *vitals.Systolic)
	assert.Equal(t, 90, *vitals.Diastolic)
	assert.Equal(t, 36.5, *vitals.Temperature)
	assert.Equal(t, models.ColorYellow, vitals.RiskColor)
	assert.False(t, vitals.Empty())
}

func TestFallbackNoData(t *testing.T) {
	for _, text := range []string{"bom dia", "obrigado!", "", "sim"} {
		vitals := Fallback(text)
		assert.True(t, vitals.Empty(), "text %q should yield no vitals", text)
		assert.Equal(t, models.ColorGreen, vitals.RiskColor)
		assert.Nil(t, vitals.Symptoms)
	}
}

func TestFallbackNeverInfersSymptoms(t *testing.T) {
	vitals := Fallback("12/8 com dor de cabeça e tontura")
	assert.Nil(t, vitals.Symptoms)
}
