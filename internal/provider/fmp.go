package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

const fmpBaseURL = "https://financialmodelingprep.com/api/v3/quote-short"

// FMPProvider fetches quotes from Financial Modeling Prep. The endpoint
// returns either an array of quotes or an object carrying "Error Message",
// so the body is decoded loosely and read with JSONPath.
type FMPProvider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewFMPProvider creates a new Financial Modeling Prep quote provider.
func NewFMPProvider(httpClient *http.Client, apiKey string) *FMPProvider {
	return &FMPProvider{apiKey: apiKey, httpClient: httpClient, baseURL: fmpBaseURL}
}

// Name returns the provider's identifier.
func (p *FMPProvider) Name() string { return "fmp" }

// Fetch returns the short quote price for symbol.
func (p *FMPProvider) Fetch(ctx context.Context, symbol string) (Quote, error) {
	if p.apiKey == "" {
		return Quote{}, newFetchError(p.Name(), symbol, ErrUnavailable, fmt.Errorf("api key not configured"))
	}

	u := fmt.Sprintf("%s/%s?apikey=%s", p.baseURL, url.PathEscape(symbol), url.QueryEscape(p.apiKey))

	var body any
	if err := getJSON(ctx, p.httpClient, p.Name(), symbol, u, &body); err != nil {
		return Quote{}, err
	}

	if obj, ok := body.(map[string]any); ok {
		msg, _ := jsonpath.Get(`$["Error Message"]`, obj)
		text := fmt.Sprint(msg)
		if strings.Contains(strings.ToLower(text), "limit") {
			return Quote{}, newFetchError(p.Name(), symbol, ErrRateLimited, fmt.Errorf("%s", text))
		}
		return Quote{}, newFetchError(p.Name(), symbol, ErrUnavailable, fmt.Errorf("%s", text))
	}

	if arr, ok := body.([]any); !ok || len(arr) == 0 {
		return Quote{}, newFetchError(p.Name(), symbol, ErrInvalidSymbol, fmt.Errorf("empty quote list"))
	}

	raw, err := jsonpath.Get("$[0].price", body)
	if err != nil {
		return Quote{}, newFetchError(p.Name(), symbol, ErrUnavailable, fmt.Errorf("reading price: %w", err))
	}
	value, ok := raw.(float64)
	if !ok {
		return Quote{}, newFetchError(p.Name(), symbol, ErrUnavailable, fmt.Errorf("unexpected price type %T", raw))
	}

	price := decimal.NewFromFloat(value)
	if err := positivePrice(p.Name(), symbol, price); err != nil {
		return Quote{}, err
	}

	return Quote{Symbol: symbol, Price: price, Timestamp: time.Now().UTC(), Source: p.Name()}, nil
}
