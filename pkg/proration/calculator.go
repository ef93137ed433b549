// Package proration turns a monthly unit price and a billing frequency into
// concrete billing periods and amounts. Everything here is pure.
package proration

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyMonthly    Frequency = "monthly"
	FrequencyQuarterly  Frequency = "quarterly"
	FrequencySemiannual Frequency = "semiannual"
	FrequencyAnnual     Frequency = "annual"
)

// MoneyPlaces is the number of decimal places every stored amount is rounded to.
const MoneyPlaces int32 = 2

var monthsByFrequency = map[Frequency]int{
	FrequencyMonthly:    1,
	FrequencyQuarterly:  3,
	FrequencySemiannual: 6,
	FrequencyAnnual:     12,
}

func (f Frequency) Validate() error {
	if _, ok := monthsByFrequency[f]; !ok {
		return fmt.Errorf("invalid billing frequency %q", string(f))
	}
	return nil
}

// MonthsIn returns the number of calendar months covered by one period.
// An unknown frequency is a programmer error and panics; validate input with
// Frequency.Validate before it reaches the calculator.
func MonthsIn(f Frequency) int {
	months, ok := monthsByFrequency[f]
	if !ok {
		panic(fmt.Sprintf("proration: unknown frequency %q", string(f)))
	}
	return months
}

// NextPeriodEnd returns the exclusive end of the period starting at
// periodStart. Months are added on the calendar and the day is clamped to
// the last day of the target month, so Jan 31 + 1 month is the last day of
// February.
func NextPeriodEnd(periodStart time.Time, f Frequency) time.Time {
	return addMonthsClamped(periodStart, MonthsIn(f), periodStart.Day())
}

// AnchoredPeriodEnd is NextPeriodEnd for chained renewals. The resulting day
// is the anchor day (normally the day of the subscription start date),
// clamped to the length of the target month. Chaining never drifts:
// Jan 31 -> Feb 29 -> Mar 31 -> Apr 30.
func AnchoredPeriodEnd(periodStart time.Time, anchorDay int, f Frequency) time.Time {
	if anchorDay < 1 || anchorDay > 31 {
		anchorDay = periodStart.Day()
	}
	return addMonthsClamped(periodStart, MonthsIn(f), anchorDay)
}

// PeriodAmount is the amount due for one period: monthly price x months,
// rounded to cents.
func PeriodAmount(monthlyUnitPrice decimal.Decimal, f Frequency) decimal.Decimal {
	months := decimal.NewFromInt(int64(MonthsIn(f)))
	return monthlyUnitPrice.Mul(months).Round(MoneyPlaces)
}

// SplitPrice divides a shared plan's total monthly price between slots,
// rounding half away from zero to cents (55.90 / 4 = 13.98).
func SplitPrice(total decimal.Decimal, slots int) (decimal.Decimal, error) {
	if slots <= 0 {
		return decimal.Zero, fmt.Errorf("slots must be positive, got %d", slots)
	}
	return total.Div(decimal.NewFromInt(int64(slots))).Round(MoneyPlaces), nil
}

func addMonthsClamped(t time.Time, months, day int) time.Time {
	y, m, _ := t.Date()
	hour, min, sec := t.Clock()

	total := int(m) - 1 + months
	newY := y + total/12
	newM := time.Month(total%12 + 1)

	if last := daysIn(newY, newM, t.Location()); day > last {
		day = last
	}

	return time.Date(newY, newM, day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
