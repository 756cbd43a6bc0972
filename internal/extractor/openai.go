package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/risk"
)

const systemPrompt = `Você é um assistente de extração de dados vitais. Extraia do texto:
1. Pressão arterial (formato: sistólica/diastólica) - aceite variações como "12 por 8", "120x80", "12/8"
2. Temperatura corporal (em °C)
3. Sintomas mencionados (dor de cabeça, tontura, náusea, etc)

Classifique o risco da pressão arterial:
- green: PA < 140/90
- yellow: PA >= 140/90 e < 180/110
- red: PA >= 180/110 ou sintomas graves

Retorne APENAS um JSON válido:
{
  "systolic": number | null,
  "diastolic": number | null,
  "temperature": number | null,
  "risk_color": "green" | "yellow" | "red",
  "symptoms": string | null
}`

// CompletionClient is the slice of the OpenAI client the extractor needs.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIExtractor is the primary extraction path: a hosted chat-completion
// call with a fixed instruction that must return a strict JSON object.
type OpenAIExtractor struct {
	client CompletionClient
	model  string
}

// NewOpenAIExtractor builds the primary extractor for the given API key.
func NewOpenAIExtractor(apiKey, model string) *OpenAIExtractor {
	return &OpenAIExtractor{client: openai.NewClient(apiKey), model: model}
}

// NewOpenAIExtractorWithClient is used by tests to inject a fake client.
func NewOpenAIExtractorWithClient(client CompletionClient, model string) *OpenAIExtractor {
	return &OpenAIExtractor{client: client, model: model}
}

// Extract sends the message to the completion service and parses the strict
// JSON reply. A malformed or missing reply is an error; the caller falls
// back to the regex path.
func (o *OpenAIExtractor) Extract(ctx context.Context, text string) (Vitals, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return Vitals{}, err
	}
	if len(resp.Choices) == 0 {
		return Vitals{}, errors.New("completion returned no choices")
	}
	return parseReply(resp.Choices[0].Message.Content)
}

func parseReply(content string) (Vitals, error) {
	// Some models wrap the object in a markdown fence despite instructions.
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var vitals Vitals
	if err := json.Unmarshal([]byte(content), &vitals); err != nil {
		return Vitals{}, fmt.Errorf("malformed completion reply: %w", err)
	}
	switch vitals.RiskColor {
	case models.ColorGreen, models.ColorYellow, models.ColorRed:
		return floorColorAtBP(vitals), nil
	default:
		return Vitals{}, fmt.Errorf("completion reply carries invalid risk color %q", vitals.RiskColor)
	}
}

var colorRank = map[models.RiskColor]int{
	models.ColorGreen:  0,
	models.ColorYellow: 1,
	models.ColorRed:    2,
}

// floorColorAtBP keeps the stored color consistent with the reading's own
// blood pressure. The model may upgrade the color on symptom severity, but a
// reply reporting crisis-level pressure as green or yellow is corrected to
// the BP-derived color before anything is persisted.
func floorColorAtBP(vitals Vitals) Vitals {
	if vitals.Systolic == nil || vitals.Diastolic == nil {
		return vitals
	}
	floor := risk.ColorForBP(*vitals.Systolic, *vitals.Diastolic)
	if colorRank[vitals.RiskColor] < colorRank[floor] {
		vitals.RiskColor = floor
	}
	return vitals
}
