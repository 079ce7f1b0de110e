package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStaticServer(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestAlphaVantageProvider_Fetch(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantPrice string
		wantErr   error
	}{
		{
			name:      "returns_price",
			status:    http.StatusOK,
			body:      `{"Global Quote":{"01. symbol":"IBM","05. price":"172.4500","07. latest trading day":"2026-10-16"}}`,
			wantPrice: "172.45",
		},
		{
			name:    "note_is_rate_limited",
			status:  http.StatusOK,
			body:    `{"Note":"Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`,
			wantErr: ErrRateLimited,
		},
		{
			name:    "information_is_rate_limited",
			status:  http.StatusOK,
			body:    `{"Information":"We have detected your API key and our standard API rate limit is 25 requests per day."}`,
			wantErr: ErrRateLimited,
		},
		{
			name:    "empty_global_quote_is_invalid",
			status:  http.StatusOK,
			body:    `{"Global Quote":{}}`,
			wantErr: ErrInvalidSymbol,
		},
		{
			name:    "error_message_is_invalid",
			status:  http.StatusOK,
			body:    `{"Error Message":"Invalid API call."}`,
			wantErr: ErrInvalidSymbol,
		},
		{
			name:    "unparseable_price_is_unavailable",
			status:  http.StatusOK,
			body:    `{"Global Quote":{"05. price":"n/a"}}`,
			wantErr: ErrUnavailable,
		},
		{
			name:    "bad_gateway_is_unavailable",
			status:  http.StatusBadGateway,
			body:    ``,
			wantErr: ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newStaticServer(tt.status, tt.body)
			defer server.Close()

			p := &AlphaVantageProvider{apiKey: "demo", httpClient: server.Client(), baseURL: server.URL}
			q, err := p.Fetch(context.Background(), "IBM")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrice, q.Price.String())
			assert.Equal(t, "alphavantage", q.Source)
		})
	}
}

func TestAlphaVantageProvider_SendsQueryParameters(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"function": r.URL.Query().Get("function"),
			"symbol":   r.URL.Query().Get("symbol"),
			"apikey":   r.URL.Query().Get("apikey"),
		}
		_, _ = w.Write([]byte(`{"Global Quote":{"05. price":"10.00"}}`))
	}))
	defer server.Close()

	p := &AlphaVantageProvider{apiKey: "secret", httpClient: server.Client(), baseURL: server.URL}
	_, err := p.Fetch(context.Background(), "IBM")

	require.NoError(t, err)
	assert.Equal(t, "GLOBAL_QUOTE", gotQuery["function"])
	assert.Equal(t, "IBM", gotQuery["symbol"])
	assert.Equal(t, "secret", gotQuery["apikey"])
}

func TestAlphaVantageProvider_MissingKey(t *testing.T) {
	p := NewAlphaVantageProvider(http.DefaultClient, "")
	_, err := p.Fetch(context.Background(), "IBM")

	assert.ErrorIs(t, err, ErrUnavailable)
}
