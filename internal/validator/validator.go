// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"papertrader/internal/models"
)

// tickerRegex accepts exchange tickers such as "AAPL", "BRK.B" or "RDS-A".
var tickerRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9.\-]{0,15}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("ticker", validateTicker)
		_ = v.RegisterValidation("trade_side", validateTradeSide)
		_ = v.RegisterValidation("positive_decimal", validatePositiveDecimal)
	}
}

func validateTicker(fl validator.FieldLevel) bool {
	return tickerRegex.MatchString(strings.TrimSpace(fl.Field().String()))
}

func validateTradeSide(fl validator.FieldLevel) bool {
	switch models.TradeSide(strings.ToLower(fl.Field().String())) {
	case models.TradeSideBuy, models.TradeSideSell:
		return true
	}
	return false
}

// validatePositiveDecimal checks a decimal string, e.g. a quantity that
// arrives as JSON "10.5".
func validatePositiveDecimal(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && d.IsPositive()
}
