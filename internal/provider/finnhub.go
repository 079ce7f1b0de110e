package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

const finnhubBaseURL = "https://finnhub.io/api/v1/quote"

type finnhubQuote struct {
	Current       float64 `json:"c"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// FinnhubProvider fetches quotes from Finnhub. Finnhub reports an unknown
// symbol as an all-zero quote rather than an error status.
type FinnhubProvider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewFinnhubProvider creates a new Finnhub quote provider.
func NewFinnhubProvider(httpClient *http.Client, apiKey string) *FinnhubProvider {
	return &FinnhubProvider{apiKey: apiKey, httpClient: httpClient, baseURL: finnhubBaseURL}
}

// Name returns the provider's identifier.
func (p *FinnhubProvider) Name() string { return "finnhub" }

// Fetch returns the current price for symbol.
func (p *FinnhubProvider) Fetch(ctx context.Context, symbol string) (Quote, error) {
	if p.apiKey == "" {
		return Quote{}, newFetchError(p.Name(), symbol, ErrUnavailable, fmt.Errorf("api key not configured"))
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("token", p.apiKey)

	var resp finnhubQuote
	if err := getJSON(ctx, p.httpClient, p.Name(), symbol, p.baseURL+"?"+q.Encode(), &resp); err != nil {
		return Quote{}, err
	}

	if resp.Current == 0 && resp.PreviousClose == 0 {
		return Quote{}, newFetchError(p.Name(), symbol, ErrInvalidSymbol, fmt.Errorf("no quote data"))
	}

	price := decimal.NewFromFloat(resp.Current)
	if err := positivePrice(p.Name(), symbol, price); err != nil {
		return Quote{}, err
	}

	return Quote{Symbol: symbol, Price: price, Timestamp: time.Now().UTC(), Source: p.Name()}, nil
}
