package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantageProvider fetches quotes from the Alpha Vantage GLOBAL_QUOTE
// endpoint. The free tier answers throttled calls with HTTP 200 and a
// "Note" or "Information" field instead of a quote.
type AlphaVantageProvider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewAlphaVantageProvider creates a new Alpha Vantage quote provider.
func NewAlphaVantageProvider(httpClient *http.Client, apiKey string) *AlphaVantageProvider {
	return &AlphaVantageProvider{apiKey: apiKey, httpClient: httpClient, baseURL: alphaVantageBaseURL}
}

// Name returns the provider's identifier.
func (p *AlphaVantageProvider) Name() string { return "alphavantage" }

// Fetch returns the latest global quote price for symbol.
func (p *AlphaVantageProvider) Fetch(ctx context.Context, symbol string) (Quote, error) {
	if p.apiKey == "" {
		return Quote{}, newFetchError(p.Name(), symbol, ErrUnavailable, fmt.Errorf("api key not configured"))
	}

	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", p.apiKey)

	var raw map[string]any
	if err := getJSON(ctx, p.httpClient, p.Name(), symbol, p.baseURL+"?"+q.Encode(), &raw); err != nil {
		return Quote{}, err
	}

	for _, key := range []string{"Note", "Information"} {
		if msg, ok := raw[key]; ok {
			return Quote{}, newFetchError(p.Name(), symbol, ErrRateLimited, fmt.Errorf("%v", msg))
		}
	}
	if msg, ok := raw["Error Message"]; ok {
		return Quote{}, newFetchError(p.Name(), symbol, ErrInvalidSymbol, fmt.Errorf("%v", msg))
	}

	gq, ok := raw["Global Quote"].(map[string]any)
	if !ok || len(gq) == 0 {
		return Quote{}, newFetchError(p.Name(), symbol, ErrInvalidSymbol, fmt.Errorf("empty global quote"))
	}

	priceStr, _ := gq["05. price"].(string)
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return Quote{}, newFetchError(p.Name(), symbol, ErrUnavailable, fmt.Errorf("parsing price %q: %w", priceStr, err))
	}
	if err := positivePrice(p.Name(), symbol, price); err != nil {
		return Quote{}, err
	}

	return Quote{Symbol: symbol, Price: price, Timestamp: time.Now().UTC(), Source: p.Name()}, nil
}
