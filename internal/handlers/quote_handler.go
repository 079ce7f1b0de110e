package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/provider"
	"papertrader/internal/services"
)

// maxBulkSymbols bounds a single bulk quote request.
const maxBulkSymbols = 50

// QuoteHandler serves resolved quotes.
type QuoteHandler struct {
	quotes services.QuoteResolver
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(quotes services.QuoteResolver) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// QuotesResponse is the result of a bulk quote request. Symbols that could
// not be resolved are listed under errors instead of failing the request.
type QuotesResponse struct {
	Quotes []provider.Quote       `json:"quotes"`
	Errors map[string]ErrorDetail `json:"errors,omitempty"`
}

// GetQuote handles resolving a single symbol.
// @Summary     Get quote
// @Description Resolve the current price of a symbol, from cache when fresh
// @Tags        quotes
// @Produce     json
// @Security    BearerAuth
// @Param       symbol path     string         true "Ticker"
// @Success     200    {object} provider.Quote "Resolved quote"
// @Failure     401    {object} ErrorResponse  "Unauthorized"
// @Failure     422    {object} ErrorResponse  "Invalid symbol"
// @Failure     503    {object} ErrorResponse  "Quote unavailable"
// @Router      /quotes/{symbol} [get]
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	q, err := h.quotes.Resolve(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// GetQuotes handles resolving several symbols at once.
// @Summary     Get quotes
// @Description Resolve a comma-separated list of symbols concurrently
// @Tags        quotes
// @Produce     json
// @Security    BearerAuth
// @Param       symbols query    string         true "Comma-separated tickers"
// @Success     200     {object} QuotesResponse "Resolved quotes"
// @Failure     400     {object} ErrorResponse  "Invalid input"
// @Failure     401     {object} ErrorResponse  "Unauthorized"
// @Router      /quotes [get]
func (h *QuoteHandler) GetQuotes(c *gin.Context) {
	var symbols []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(c.Query("symbols"), ",") {
		sym := provider.NormalizeSymbol(part)
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		symbols = append(symbols, sym)
	}
	if len(symbols) == 0 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "symbols is required"))
		return
	}
	if len(symbols) > maxBulkSymbols {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "too many symbols"))
		return
	}
	sort.Strings(symbols)

	results := h.quotes.ResolveMany(c.Request.Context(), symbols)
	resp := QuotesResponse{Quotes: make([]provider.Quote, 0, len(symbols))}
	for _, sym := range symbols {
		res := results[sym]
		if res.Err == nil {
			resp.Quotes = append(resp.Quotes, res.Quote)
			continue
		}
		if resp.Errors == nil {
			resp.Errors = make(map[string]ErrorDetail)
		}
		detail := ErrorDetail{Code: apperrors.ErrInternalServer.Code, Message: apperrors.ErrInternalServer.Message}
		var appErr *apperrors.AppError
		if errors.As(res.Err, &appErr) {
			detail = ErrorDetail{Code: appErr.Code, Message: appErr.Message}
		}
		resp.Errors[sym] = detail
	}
	c.JSON(http.StatusOK, resp)
}
