package recommender

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCorrectStopLoss(t *testing.T) {
	tests := []struct {
		name          string
		stop, price   string
		want          string
		wantCorrected bool
	}{
		{name: "below_price_kept", stop: "42.50", price: "50", want: "42.5"},
		{name: "equal_to_price_corrected", stop: "50", price: "50", want: "42.5", wantCorrected: true},
		{name: "above_price_corrected", stop: "60", price: "33.33", want: "28.33", wantCorrected: true},
		{name: "zero_corrected", stop: "0", price: "10", want: "8.5", wantCorrected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, corrected := CorrectStopLoss(dec(tt.stop), dec(tt.price))
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
			assert.Equal(t, tt.wantCorrected, corrected)
		})
	}
}

func TestTrimQuantity(t *testing.T) {
	assert.Equal(t, "5", TrimQuantity(dec("10")).String())
	assert.Equal(t, "3", TrimQuantity(dec("7")).String())
	assert.Equal(t, "1", TrimQuantity(dec("1")).String())
	assert.Equal(t, "1", TrimQuantity(dec("0.5")).String())
}

func TestParseRecommendations(t *testing.T) {
	t.Run("valid_json", func(t *testing.T) {
		recs, err := ParseRecommendations(`{
			"sell_decisions": [
				{"ticker": "xyz", "action": "trim", "reason": "take profit"},
				{"ticker": "", "action": "SELL", "reason": "dropped"},
				{"ticker": "ABC", "action": "MAYBE", "reason": "dropped"}
			],
			"buy_recommendations": [
				{"ticker": "crwd", "buy_price": 25.5, "quantity": 10, "stop_loss_price": 21.0, "reason": "growth"},
				{"ticker": "ZERO", "buy_price": 10, "quantity": 0, "stop_loss_price": 8, "reason": "dropped"}
			],
			"remaining_cash": 4000
		}`)

		require.NoError(t, err)
		require.Len(t, recs.SellDecisions, 1)
		assert.Equal(t, "XYZ", recs.SellDecisions[0].Ticker)
		assert.Equal(t, ActionTrim, recs.SellDecisions[0].Action)
		require.Len(t, recs.BuyRecommendations, 1)
		assert.Equal(t, "CRWD", recs.BuyRecommendations[0].Ticker)
		assert.Equal(t, "25.5", recs.BuyRecommendations[0].BuyPrice.String())
	})

	t.Run("fenced_json", func(t *testing.T) {
		recs, err := ParseRecommendations("```json\n{\"sell_decisions\":[],\"buy_recommendations\":[],\"remaining_cash\":1}\n```")

		require.NoError(t, err)
		assert.Empty(t, recs.BuyRecommendations)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseRecommendations("  ")
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseRecommendations("{not json")
		assert.Error(t, err)
	})
}

type fakeGenerator struct {
	text   string
	err    error
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}}}},
	}, nil
}

func TestGemini_Recommend(t *testing.T) {
	pc := PortfolioContext{
		Date:         "2026-10-16",
		Cash:         dec("9500"),
		TotalCapital: dec("10000"),
		Holdings: []HoldingContext{{
			Ticker: "XYZ", Quantity: dec("10"), AverageCost: dec("50"), CurrentPrice: dec("51"),
			StopLoss: decimal.NewNullDecimal(dec("42.5")),
		}},
	}

	t.Run("requests_json_schema", func(t *testing.T) {
		gen := &fakeGenerator{text: `{"sell_decisions":[{"ticker":"XYZ","action":"HOLD","reason":"ok"}],"buy_recommendations":[],"remaining_cash":9500}`}
		g := &Gemini{models: gen, model: "gemini-test"}

		recs, err := g.Recommend(context.Background(), pc)

		require.NoError(t, err)
		require.Len(t, recs.SellDecisions, 1)
		assert.Equal(t, "gemini-test", gen.model)
		assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
		assert.Same(t, responseSchema, gen.config.ResponseSchema)
		assert.True(t, strings.Contains(gen.prompt, "XYZ: 10 shares"))
		assert.True(t, strings.Contains(gen.prompt, "stop loss $42.50"))
	})

	t.Run("api_error", func(t *testing.T) {
		g := &Gemini{models: &fakeGenerator{err: errors.New("quota")}, model: "m"}

		_, err := g.Recommend(context.Background(), pc)
		assert.ErrorContains(t, err, "quota")
	})
}
