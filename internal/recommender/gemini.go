package recommender

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini asks a Gemini model for recommendations constrained to a JSON
// response schema.
type Gemini struct {
	models contentGenerator
	model  string
}

// NewGemini creates a recommender for model using apiKey.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{models: client.Models, model: model}, nil
}

var systemInstruction = &genai.Content{Parts: []*genai.Part{{Text: `
You are a disciplined equity analyst running a paper-trading portfolio.
Answer only with JSON matching the response schema.`}}}

// responseSchema mirrors Recommendations.
var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"sell_decisions": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"ticker": {Type: genai.TypeString},
					"action": {Type: genai.TypeString, Enum: []string{"SELL", "HOLD", "TRIM"}},
					"reason": {Type: genai.TypeString},
				},
				Required: []string{"ticker", "action", "reason"},
			},
		},
		"buy_recommendations": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"ticker":          {Type: genai.TypeString},
					"buy_price":       {Type: genai.TypeNumber},
					"quantity":        {Type: genai.TypeInteger},
					"stop_loss_price": {Type: genai.TypeNumber},
					"reason":          {Type: genai.TypeString},
				},
				Required: []string{"ticker", "buy_price", "quantity", "stop_loss_price", "reason"},
			},
		},
		"remaining_cash": {Type: genai.TypeNumber},
	},
	Required: []string{"sell_decisions", "buy_recommendations", "remaining_cash"},
}

// Recommend implements Recommender.
func (g *Gemini) Recommend(ctx context.Context, pc PortfolioContext) (*Recommendations, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(BuildPrompt(pc)), &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("generating recommendations: %w", err)
	}

	return ParseRecommendations(resp.Text())
}

// ParseRecommendations decodes a model response, tolerating a fenced code
// block around the JSON.
func ParseRecommendations(text string) (*Recommendations, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty recommendation response")
	}

	var recs Recommendations
	if err := json.Unmarshal([]byte(text), &recs); err != nil {
		return nil, fmt.Errorf("decoding recommendations: %w", err)
	}
	recs.Normalize()
	return &recs, nil
}
