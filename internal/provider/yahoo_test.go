package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newChartServer serves v8 chart responses. Tickers not in priceMap get a
// "Not Found" chart error with a 404 status.
func newChartServer(priceMap map[string]float64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ticker := strings.TrimPrefix(r.URL.Path, "/")
		w.Header().Set("Content-Type", "application/json")

		price, ok := priceMap[ticker]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"chart": map[string]any{
				"result": []any{
					map[string]any{"meta": map[string]any{"symbol": ticker, "currency": "USD", "regularMarketPrice": price}},
				},
				"error": nil,
			},
		})
	}))
}

func TestYahooProvider_Fetch(t *testing.T) {
	t.Run("returns_price", func(t *testing.T) {
		server := newChartServer(map[string]float64{"AAPL": 189.25})
		defer server.Close()

		p := &YahooProvider{httpClient: server.Client(), baseURL: server.URL}
		q, err := p.Fetch(context.Background(), "AAPL")

		require.NoError(t, err)
		assert.Equal(t, "AAPL", q.Symbol)
		assert.Equal(t, "189.25", q.Price.String())
		assert.Equal(t, "yahoo", q.Source)
		assert.False(t, q.Stale)
		assert.WithinDuration(t, time.Now(), q.Timestamp, 5*time.Second)
	})

	t.Run("unknown_symbol_is_invalid", func(t *testing.T) {
		server := newChartServer(map[string]float64{})
		defer server.Close()

		p := &YahooProvider{httpClient: server.Client(), baseURL: server.URL}
		_, err := p.Fetch(context.Background(), "NOPE")

		assert.ErrorIs(t, err, ErrInvalidSymbol)
	})

	t.Run("chart_error_with_200_is_invalid", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"chart":{"result":[],"error":{"code":"Not Found","description":"delisted"}}}`))
		}))
		defer server.Close()

		p := &YahooProvider{httpClient: server.Client(), baseURL: server.URL}
		_, err := p.Fetch(context.Background(), "GONE")

		assert.ErrorIs(t, err, ErrInvalidSymbol)
	})

	t.Run("rate_limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		p := &YahooProvider{httpClient: server.Client(), baseURL: server.URL}
		_, err := p.Fetch(context.Background(), "AAPL")

		assert.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("server_error_is_unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		p := &YahooProvider{httpClient: server.Client(), baseURL: server.URL}
		_, err := p.Fetch(context.Background(), "AAPL")

		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("malformed_json_is_unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}))
		defer server.Close()

		p := &YahooProvider{httpClient: server.Client(), baseURL: server.URL}
		_, err := p.Fetch(context.Background(), "AAPL")

		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("zero_price_is_unavailable", func(t *testing.T) {
		server := newChartServer(map[string]float64{"AAPL": 0})
		defer server.Close()

		p := &YahooProvider{httpClient: server.Client(), baseURL: server.URL}
		_, err := p.Fetch(context.Background(), "AAPL")

		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("context_deadline_is_unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		p := &YahooProvider{httpClient: server.Client(), baseURL: server.URL}
		_, err := p.Fetch(ctx, "AAPL")

		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestYahooProvider_Name(t *testing.T) {
	assert.Equal(t, "yahoo", NewYahooProvider(http.DefaultClient).Name())
}
