package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

// latestTradeClient is the subset of *marketdata.Client used here.
type latestTradeClient interface {
	GetLatestTrade(symbol string, req marketdata.GetLatestTradeRequest) (*marketdata.Trade, error)
}

// AlpacaProvider reads the latest trade price from Alpaca market data.
type AlpacaProvider struct {
	client latestTradeClient
}

// NewAlpacaProvider creates a provider backed by the Alpaca market data API.
// An empty dataURL selects the SDK default.
func NewAlpacaProvider(apiKey, apiSecret, dataURL string) *AlpacaProvider {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaProvider{client: marketdata.NewClient(opts)}
}

// Name returns the provider's identifier.
func (p *AlpacaProvider) Name() string { return "alpaca" }

// Fetch returns the latest trade price for symbol. The SDK call does not take
// a context, so the deadline is enforced by abandoning the call.
func (p *AlpacaProvider) Fetch(ctx context.Context, symbol string) (Quote, error) {
	type result struct {
		trade *marketdata.Trade
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		trade, err := p.client.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
		ch <- result{trade: trade, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return Quote{}, newFetchError(p.Name(), symbol, ErrUnavailable, ctx.Err())
	case res = <-ch:
	}

	if res.err != nil {
		return Quote{}, newFetchError(p.Name(), symbol, classifyAlpacaError(res.err), res.err)
	}
	if res.trade == nil {
		return Quote{}, newFetchError(p.Name(), symbol, ErrInvalidSymbol, fmt.Errorf("no trades"))
	}

	price := decimal.NewFromFloat(res.trade.Price)
	if err := positivePrice(p.Name(), symbol, price); err != nil {
		return Quote{}, err
	}

	return Quote{Symbol: symbol, Price: price, Timestamp: time.Now().UTC(), Source: p.Name()}, nil
}

// classifyAlpacaError maps SDK errors by the status text they carry.
func classifyAlpacaError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
		return ErrRateLimited
	case strings.Contains(msg, "404"), strings.Contains(msg, "422"), strings.Contains(msg, "invalid symbol"), strings.Contains(msg, "not found"):
		return ErrInvalidSymbol
	default:
		return ErrUnavailable
	}
}
