// Package market decides whether a given day is a trading day.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
)

const dateLayout = "2006-01-02"

// Calendar reports whether the market trades on the date containing t.
type Calendar interface {
	IsTradingDay(ctx context.Context, t time.Time) (bool, error)
}

// WeekdayCalendar treats every Monday to Friday as a trading day.
type WeekdayCalendar struct {
	loc *time.Location
}

// NewWeekdayCalendar evaluates dates in loc.
func NewWeekdayCalendar(loc *time.Location) *WeekdayCalendar {
	return &WeekdayCalendar{loc: loc}
}

// IsTradingDay implements Calendar.
func (c *WeekdayCalendar) IsTradingDay(_ context.Context, t time.Time) (bool, error) {
	switch t.In(c.loc).Weekday() {
	case time.Saturday, time.Sunday:
		return false, nil
	default:
		return true, nil
	}
}

type calendarClient interface {
	GetCalendar(req alpaca.GetCalendarRequest) ([]alpaca.CalendarDay, error)
}

// AlpacaCalendar consults the Alpaca trading calendar, which knows about
// exchange holidays.
type AlpacaCalendar struct {
	client calendarClient
	loc    *time.Location
}

// NewAlpacaCalendar creates a calendar backed by the Alpaca trading API. An
// empty baseURL selects the SDK default.
func NewAlpacaCalendar(apiKey, apiSecret, baseURL string, loc *time.Location) *AlpacaCalendar {
	opts := alpaca.ClientOpts{APIKey: apiKey, APISecret: apiSecret}
	if baseURL != "" {
		opts.BaseURL = baseURL
	}
	return &AlpacaCalendar{client: alpaca.NewClient(opts), loc: loc}
}

// IsTradingDay implements Calendar.
func (c *AlpacaCalendar) IsTradingDay(ctx context.Context, t time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	day := t.In(c.loc)
	days, err := c.client.GetCalendar(alpaca.GetCalendarRequest{Start: day, End: day})
	if err != nil {
		return false, fmt.Errorf("GetCalendar: %w", err)
	}

	want := day.Format(dateLayout)
	for _, d := range days {
		if d.Date == want {
			return true, nil
		}
	}
	return false, nil
}
