package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/provider"
	"papertrader/internal/quote"
)

func setupQuoteRouter(handler *QuoteHandler) *gin.Engine {
	r := gin.New()
	r.GET("/quotes", handler.GetQuotes)
	r.GET("/quotes/:symbol", handler.GetQuote)
	return r
}

func TestQuoteHandler_GetQuote(t *testing.T) {
	t.Run("returns_200", func(t *testing.T) {
		resolver := &mockQuoteResolver{
			resolveFn: func(symbol string) (provider.Quote, error) {
				return provider.Quote{Symbol: "AAPL", Price: decimal.RequireFromString("187.5"), Source: "yahoo", Timestamp: time.Now()}, nil
			},
		}
		r := setupQuoteRouter(NewQuoteHandler(resolver))

		rec := doRequest(r, "GET", "/quotes/aapl", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["price"] != "187.5" || result["source"] != "yahoo" || result["stale"] != false {
			t.Errorf("unexpected quote %v", result)
		}
	})

	t.Run("returns_422_invalid_symbol", func(t *testing.T) {
		resolver := &mockQuoteResolver{
			resolveFn: func(string) (provider.Quote, error) {
				return provider.Quote{}, apperrors.ErrInvalidSymbol
			},
		}
		r := setupQuoteRouter(NewQuoteHandler(resolver))

		rec := doRequest(r, "GET", "/quotes/ZZZZ", "")

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_SYMBOL")
	})

	t.Run("returns_503_unavailable", func(t *testing.T) {
		resolver := &mockQuoteResolver{
			resolveFn: func(string) (provider.Quote, error) {
				return provider.Quote{}, apperrors.ErrQuoteUnavailable
			},
		}
		r := setupQuoteRouter(NewQuoteHandler(resolver))

		rec := doRequest(r, "GET", "/quotes/AAPL", "")

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}

func TestQuoteHandler_GetQuotes(t *testing.T) {
	t.Run("reports_quotes_and_errors", func(t *testing.T) {
		var got []string
		resolver := &mockQuoteResolver{
			resolveManyFn: func(symbols []string) map[string]quote.Result {
				got = symbols
				return map[string]quote.Result{
					"AAPL": {Quote: provider.Quote{Symbol: "AAPL", Price: decimal.NewFromInt(187)}},
					"MSFT": {Quote: provider.Quote{Symbol: "MSFT", Price: decimal.NewFromInt(410)}},
					"ZZZZ": {Err: apperrors.ErrInvalidSymbol},
				}
			},
		}
		r := setupQuoteRouter(NewQuoteHandler(resolver))

		rec := doRequest(r, "GET", "/quotes?symbols=msft,AAPL,,aapl,ZZZZ", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(got) != 3 || got[0] != "AAPL" || got[1] != "MSFT" || got[2] != "ZZZZ" {
			t.Errorf("expected deduplicated sorted symbols, got %v", got)
		}
		result := parseJSON(t, rec)
		if quotes := result["quotes"].([]interface{}); len(quotes) != 2 {
			t.Errorf("expected 2 quotes, got %d", len(quotes))
		}
		errs := result["errors"].(map[string]interface{})
		if errs["ZZZZ"].(map[string]interface{})["code"] != "INVALID_SYMBOL" {
			t.Errorf("expected INVALID_SYMBOL for ZZZZ, got %v", errs["ZZZZ"])
		}
	})

	t.Run("returns_400_without_symbols", func(t *testing.T) {
		r := setupQuoteRouter(NewQuoteHandler(&mockQuoteResolver{}))

		rec := doRequest(r, "GET", "/quotes?symbols=,,", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}
