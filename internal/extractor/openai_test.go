package extractor

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/risk"
)

type fakeCompletionClient struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (f *fakeCompletionClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func TestOpenAIExtract(t *testing.T) {
	client := &fakeCompletionClient{
		content: `{"systolic": 140, "diastolic": 90, "temperature": 36.5, "risk_color": "yellow", "symptoms": "dor de cabeça"}`,
	}
	e := NewOpenAIExtractorWithClient(client, "gpt-4o-mini")

	vitals, err := e.Extract(context.Background(), "14 por 9, temperatura 36.5, com dor de cabeça")
	require.NoError(t, err)
	require.NotNil(t, vitals.Systolic)
	assert.Equal(t, 140, *vitals.Systolic)
	require.NotNil(t, vitals.Temperature)
	assert.Equal(t, 36.5, *vitals.Temperature)
	require.NotNil(t, vitals.Symptoms)
	assert.Equal(t, "dor de cabeça", *vitals.Symptoms)

	assert.Equal(t, "gpt-4o-mini", client.lastReq.Model)
	require.Len(t, client.lastReq.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, client.lastReq.Messages[0].Role)
	assert.Equal(t, "14 por 9, temperatura 36.5, com dor de cabeça", client.lastReq.Messages[1].Content)
}

func TestOpenAIExtractStripsMarkdownFence(t *testing.T) {
	client := &fakeCompletionClient{
		content: "```json\n{\"systolic\": 120, \"diastolic\": 80, \"temperature\": null, \"risk_color\": \"green\", \"symptoms\": null}\n```",
	}
	e := NewOpenAIExtractorWithClient(client, "gpt-4o-mini")

	vitals, err := e.Extract(context.Background(), "12/8")
	require.NoError(t, err)
	require.NotNil(t, vitals.Systolic)
	assert.Equal(t, 120, *vitals.Systolic)
	assert.Nil(t, vitals.Temperature)
	assert.Nil(t, vitals.Symptoms)
}

// The stored color must never contradict the reading's own blood pressure,
// whichever path produced the numbers.
func TestOpenAIExtractFloorsColorAtBP(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    models.RiskColor
	}{
		{
			name:    "crisis reading reported green is corrected to red",
			content: `{"systolic": 190, "diastolic": 125, "temperature": null, "risk_color": "green", "symptoms": null}`,
			want:    models.ColorRed,
		},
		{
			name:    "elevated reading reported green is corrected to yellow",
			content: `{"systolic": 150, "diastolic": 95, "temperature": null, "risk_color": "green", "symptoms": null}`,
			want:    models.ColorYellow,
		},
		{
			name:    "symptom-driven upgrade above the BP color is kept",
			content: `{"systolic": 120, "diastolic": 80, "temperature": null, "risk_color": "red", "symptoms": "dor no peito"}`,
			want:    models.ColorRed,
		},
		{
			name:    "matching color passes through",
			content: `{"systolic": 185, "diastolic": 120, "temperature": null, "risk_color": "red", "symptoms": null}`,
			want:    models.ColorRed,
		},
		{
			name:    "missing pressure leaves the reported color alone",
			content: `{"systolic": null, "diastolic": null, "temperature": 36.5, "risk_color": "green", "symptoms": null}`,
			want:    models.ColorGreen,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewOpenAIExtractorWithClient(&fakeCompletionClient{content: tt.content}, "gpt-4o-mini")
			vitals, err := e.Extract(context.Background(), "medição")
			require.NoError(t, err)
			assert.Equal(t, tt.want, vitals.RiskColor)
		})
	}
}

// Round trip: whatever color Extract returns for a reading with both BP
// values must be at least the color recomputed from those values.
func TestOpenAIExtractColorRoundTrip(t *testing.T) {
	for _, reported := range []string{"green", "yellow", "red"} {
		content := `{"systolic": 182, "diastolic": 112, "temperature": null, "risk_color": "` + reported + `", "symptoms": null}`
		e := NewOpenAIExtractorWithClient(&fakeCompletionClient{content: content}, "gpt-4o-mini")
		vitals, err := e.Extract(context.Background(), "18/11")
		require.NoError(t, err)
		assert.Equal(t, risk.ColorForBP(*vitals.Systolic, *vitals.Diastolic), vitals.RiskColor,
			"reported %s must not survive below the BP-derived color", reported)
	}
}

func TestOpenAIExtractErrors(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeCompletionClient
	}{
		{"api error", &fakeCompletionClient{err: errors.New("429 too many requests")}},
		{"prose instead of json", &fakeCompletionClient{content: "A pressão do paciente está 120/80."}},
		{"invalid risk color", &fakeCompletionClient{content: `{"systolic": 120, "diastolic": 80, "risk_color": "blue"}`}},
		{"missing risk color", &fakeCompletionClient{content: `{"systolic": 120, "diastolic": 80}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewOpenAIExtractorWithClient(tt.client, "gpt-4o-mini")
			_, err := e.Extract(context.Background(), "12/8")
			assert.Error(t, err)
		})
	}
}
