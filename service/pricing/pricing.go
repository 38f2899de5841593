// Package pricing derives booking length and price from a date range.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wayddd1/VanEaseRentalSystem/service/svcerr"
)

const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Quote is a price snapshot; it is stored on the booking and never recomputed.
type Quote struct {
	TotalDays  int64           `json:"total_days"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, svcerr.New(svcerr.ErrInvalidInput, "invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// Days counts both endpoints: the same day twice is one billable day.
func Days(start, end time.Time) (int64, error) {
	s, e := Day(start), Day(end)
	if e.Before(s) {
		return 0, svcerr.New(svcerr.ErrInvalidInput, "end date must not be before start date")
	}
	return (e.Unix()-s.Unix())/secondsPerDay + 1, nil
}

// Price returns total days and rate × days rounded half-up to cents.
func Price(ratePerDay decimal.Decimal, start, end time.Time) (Quote, error) {
	if !ratePerDay.IsPositive() {
		return Quote{}, svcerr.New(svcerr.ErrInvalidInput, "rate per day must be positive")
	}
	days, err := Days(start, end)
	if err != nil {
		return Quote{}, err
	}
	total := ratePerDay.Mul(decimal.NewFromInt(days)).Round(2)
	return Quote{TotalDays: days, TotalPrice: total}, nil
}
