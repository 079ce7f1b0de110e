package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

const yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// yahooChartResponse is the subset of the v8 chart payload we read.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooProvider fetches quotes from the Yahoo Finance chart API.
type YahooProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewYahooProvider creates a new Yahoo Finance quote provider.
func NewYahooProvider(httpClient *http.Client) *YahooProvider {
	return &YahooProvider{httpClient: httpClient, baseURL: yahooBaseURL}
}

// Name returns the provider's identifier.
func (p *YahooProvider) Name() string { return "yahoo" }

// Fetch returns the regular market price for symbol.
func (p *YahooProvider) Fetch(ctx context.Context, symbol string) (Quote, error) {
	u := fmt.Sprintf("%s/%s?interval=1d&range=1d", p.baseURL, url.PathEscape(symbol))

	var resp yahooChartResponse
	if err := getJSON(ctx, p.httpClient, p.Name(), symbol, u, &resp); err != nil {
		return Quote{}, err
	}

	if e := resp.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return Quote{}, newFetchError(p.Name(), symbol, ErrInvalidSymbol, fmt.Errorf("%s", e.Description))
		}
		return Quote{}, newFetchError(p.Name(), symbol, ErrUnavailable, fmt.Errorf("%s: %s", e.Code, e.Description))
	}
	if len(resp.Chart.Result) == 0 {
		return Quote{}, newFetchError(p.Name(), symbol, ErrInvalidSymbol, fmt.Errorf("empty chart result"))
	}

	meta := resp.Chart.Result[0].Meta
	price := decimal.NewFromFloat(meta.RegularMarketPrice)
	if err := positivePrice(p.Name(), symbol, price); err != nil {
		return Quote{}, err
	}

	return Quote{Symbol: symbol, Price: price, Timestamp: time.Now().UTC(), Source: p.Name()}, nil
}
