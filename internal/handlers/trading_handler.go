package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/models"
	"papertrader/internal/pagination"
	"papertrader/internal/services"
)

// TradingHandler handles manual trades and portfolio queries.
type TradingHandler struct {
	tradingService services.TradingServicer
}

// NewTradingHandler creates a new TradingHandler.
func NewTradingHandler(tradingService services.TradingServicer) *TradingHandler {
	return &TradingHandler{tradingService: tradingService}
}

// BuyRequest represents the request payload for a market buy.
type BuyRequest struct {
	Symbol   string       `json:"symbol" binding:"required,ticker"`
	Quantity json.Number  `json:"quantity" binding:"required,positive_decimal" swaggertype:"string"`
	StopLoss *json.Number `json:"stop_loss" binding:"omitempty,positive_decimal" swaggertype:"string"`
	Reason   string       `json:"reason" binding:"max=500"`
}

// SellRequest represents the request payload for a market sell.
type SellRequest struct {
	Symbol   string      `json:"symbol" binding:"required,ticker"`
	Quantity json.Number `json:"quantity" binding:"required,positive_decimal" swaggertype:"string"`
	Reason   string      `json:"reason" binding:"max=500"`
}

// TradeResponse is returned for an executed trade.
type TradeResponse struct {
	Transaction *models.Transaction `json:"transaction"`
	CashBalance decimal.Decimal     `json:"cash_balance" swaggertype:"string"`
	RealizedPnL *decimal.Decimal    `json:"realized_pnl,omitempty" swaggertype:"string"`
}

// TransactionQuery holds the optional filters for listing transactions.
type TransactionQuery struct {
	Symbol string `form:"symbol" binding:"omitempty,ticker"`
	Side   string `form:"side" binding:"omitempty,trade_side"`
}

// Buy handles a market buy.
// @Summary     Buy at market
// @Description Resolve the current quote for a symbol and buy at it
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body     BuyRequest    true "Buy details"
// @Success     201     {object} TradeResponse "Trade executed"
// @Failure     400     {object} ErrorResponse "Invalid input or insufficient cash"
// @Failure     401     {object} ErrorResponse "Unauthorized"
// @Failure     409     {object} ErrorResponse "Quote is stale"
// @Failure     422     {object} ErrorResponse "Invalid symbol"
// @Failure     503     {object} ErrorResponse "Quote unavailable"
// @Router      /portfolio/buy [post]
func (h *TradingHandler) Buy(c *gin.Context) {
	var req BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	qty, err := parseDecimal("quantity", req.Quantity)
	if err != nil {
		respondWithError(c, err)
		return
	}
	opts := services.TradeOptions{
		Reason:    req.Reason,
		Actor:     getOperator(c),
		IPAddress: c.ClientIP(),
	}
	if req.StopLoss != nil {
		stop, err := parseDecimal("stop_loss", *req.StopLoss)
		if err != nil {
			respondWithError(c, err)
			return
		}
		opts.StopLoss = decimal.NewNullDecimal(stop)
	}

	txn, err := h.tradingService.BuyAtMarket(c.Request.Context(), req.Symbol, qty, opts)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, TradeResponse{Transaction: txn, CashBalance: txn.CashAfter})
}

// Sell handles a market sell.
// @Summary     Sell at market
// @Description Resolve the current quote for a symbol and sell at it
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body     SellRequest   true "Sell details"
// @Success     201     {object} TradeResponse "Trade executed"
// @Failure     400     {object} ErrorResponse "Invalid input or insufficient holdings"
// @Failure     401     {object} ErrorResponse "Unauthorized"
// @Failure     409     {object} ErrorResponse "Quote is stale"
// @Failure     503     {object} ErrorResponse "Quote unavailable"
// @Router      /portfolio/sell [post]
func (h *TradingHandler) Sell(c *gin.Context) {
	var req SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	qty, err := parseDecimal("quantity", req.Quantity)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.tradingService.SellAtMarket(c.Request.Context(), req.Symbol, qty, services.TradeOptions{
		Reason:    req.Reason,
		Actor:     getOperator(c),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp := TradeResponse{Transaction: txn, CashBalance: txn.CashAfter}
	if txn.RealizedPnL.Valid {
		pnl := txn.RealizedPnL.Decimal
		resp.RealizedPnL = &pnl
	}
	c.JSON(http.StatusCreated, resp)
}

// GetPortfolio handles retrieving the valued portfolio.
// @Summary     Get portfolio
// @Description Cash, holdings valued at current quotes, unrealized P&L and stop-loss risk
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.PortfolioSummary "Portfolio summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Ledger not initialized"
// @Router      /portfolio [get]
func (h *TradingHandler) GetPortfolio(c *gin.Context) {
	summary, err := h.tradingService.GetPortfolio(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetTransactions handles listing the transaction log.
// @Summary     List transactions
// @Description Paginated transaction log, newest first by default
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Param       from_date query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "End date (RFC3339 or YYYY-MM-DD)"
// @Param       symbol    query string false "Ticker"
// @Param       side      query string false "buy or sell"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       order     query string false "asc or desc (default desc)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /portfolio/transactions [get]
func (h *TradingHandler) GetTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	var query TransactionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.TransactionFilter
	var err error
	if filter.FromDate, err = parseOptionalTime(c, "from_date"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.ToDate, err = parseOptionalTime(c, "to_date"); err != nil {
		respondWithError(c, err)
		return
	}
	if query.Symbol != "" {
		filter.Symbol = &query.Symbol
	}
	if query.Side != "" {
		side := models.TradeSide(strings.ToLower(query.Side))
		filter.Side = &side
	}

	result, err := h.tradingService.GetTransactions(c.Request.Context(), page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
