package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/logging"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
)

type fakePrimary struct {
	vitals Vitals
	err    error
	calls  int
}

func (f *fakePrimary) Extract(ctx context.Context, text string) (Vitals, error) {
	f.calls++
	return f.vitals, f.err
}

func testLogger() *logging.Logger {
	return logging.New("error", "")
}

func TestExtractUsesPrimary(t *testing.T) {
	sys, dia := 150, 95
	symptoms := "dor de cabeça"
	primary := &fakePrimary{vitals: Vitals{
		Systolic:  &sys,
		Diastolic: &dia,
		RiskColor: models.ColorYellow,
		Symptoms:  &symptoms,
	}}

	e := New(primary, testLogger())
	vitals := e.Extract(context.Background(), "pressão 150 por 95 com dor de cabeça")

	assert.Equal(t, 1, primary.calls)
	require.NotNil(t, vitals.Systolic)
	assert.Equal(t, 150, *vitals.Systolic)
	require.NotNil(t, vitals.Symptoms)
	assert.Equal(t, "dor de cabeça", *vitals.Symptoms)
}

func TestExtractFallsBackOnPrimaryError(t *testing.T) {
	primary := &fakePrimary{err: errors.New("quota exceeded")}

	e := New(primary, testLogger())
	vitals := e.Extract(context.Background(), "12/8")

	assert.Equal(t, 1, primary.calls)
	require.NotNil(t, vitals.Systolic)
	assert.Equal(t, 120, *vitals.Systolic)
	assert.Equal(t, models.ColorGreen, vitals.RiskColor)
}

func TestExtractWithoutPrimary(t *testing.T) {
	e := New(nil, testLogger())
	vitals := e.Extract(context.Background(), "14/9")

	require.NotNil(t, vitals.Systolic)
	assert.Equal(t, 140, *vitals.Systolic)
	assert.Equal(t, models.ColorYellow, vitals.RiskColor)
}

func TestExtractNeverFailsOnGarbage(t *testing.T) {
	primary := &fakePrimary{err: errors.New("timeout")}
	e := New(primary, testLogger())

	vitals := e.Extract(context.Background(), "oi, tudo bem?")
	assert.True(t, vitals.Empty())
}
