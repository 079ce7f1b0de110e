package provider

import (
	"fmt"
	"net/http"

	"papertrader/internal/logger"
)

// Settings carries the credentials and ordering used to build a chain.
type Settings struct {
	Order              []string
	AlphaVantageAPIKey string
	FinnhubAPIKey      string
	FMPAPIKey          string
	AlpacaAPIKey       string
	AlpacaAPISecret    string
	AlpacaDataURL      string
}

// NewChain builds the providers named in s.Order, in that order. Providers
// whose credentials are missing are skipped with a warning. An unknown name
// is a configuration error.
func NewChain(s Settings, httpClient *http.Client) ([]Provider, error) {
	log := logger.Named("provider")
	chain := make([]Provider, 0, len(s.Order))

	for _, name := range s.Order {
		switch name {
		case "yahoo":
			chain = append(chain, NewYahooProvider(httpClient))
		case "alphavantage":
			if s.AlphaVantageAPIKey == "" {
				log.Warnw("skipping provider without credentials", "provider", name)
				continue
			}
			chain = append(chain, NewAlphaVantageProvider(httpClient, s.AlphaVantageAPIKey))
		case "finnhub":
			if s.FinnhubAPIKey == "" {
				log.Warnw("skipping provider without credentials", "provider", name)
				continue
			}
			chain = append(chain, NewFinnhubProvider(httpClient, s.FinnhubAPIKey))
		case "fmp":
			if s.FMPAPIKey == "" {
				log.Warnw("skipping provider without credentials", "provider", name)
				continue
			}
			chain = append(chain, NewFMPProvider(httpClient, s.FMPAPIKey))
		case "alpaca":
			if s.AlpacaAPIKey == "" || s.AlpacaAPISecret == "" {
				log.Warnw("skipping provider without credentials", "provider", name)
				continue
			}
			chain = append(chain, NewAlpacaProvider(s.AlpacaAPIKey, s.AlpacaAPISecret, s.AlpacaDataURL))
		default:
			return nil, fmt.Errorf("unknown quote provider %q", name)
		}
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("no quote providers available for order %v", s.Order)
	}
	return chain, nil
}
