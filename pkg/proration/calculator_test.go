package proration

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextPeriodEnd(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		freq  Frequency
		want  time.Time
	}{
		{"monthly plain", date(2024, 1, 1), FrequencyMonthly, date(2024, 2, 1)},
		{"monthly clamps to leap february", date(2024, 1, 31), FrequencyMonthly, date(2024, 2, 29)},
		{"monthly clamps to february", date(2023, 1, 31), FrequencyMonthly, date(2023, 2, 28)},
		{"monthly crosses year", date(2024, 12, 15), FrequencyMonthly, date(2025, 1, 15)},
		{"quarterly", date(2024, 11, 30), FrequencyQuarterly, date(2025, 2, 28)},
		{"semiannual", date(2024, 8, 31), FrequencySemiannual, date(2025, 2, 28)},
		{"annual leap day", date(2024, 2, 29), FrequencyAnnual, date(2025, 2, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextPeriodEnd(tt.start, tt.freq)
			if !got.Equal(tt.want) {
				t.Errorf("NextPeriodEnd(%s, %s) = %s, want %s", tt.start.Format(time.DateOnly), tt.freq, got.Format(time.DateOnly), tt.want.Format(time.DateOnly))
			}
		})
	}
}

func TestAnchoredPeriodEnd_DoesNotDrift(t *testing.T) {
	start := date(2024, 1, 31)
	want := []time.Time{
		date(2024, 2, 29),
		date(2024, 3, 31),
		date(2024, 4, 30),
		date(2024, 5, 31),
	}

	periodStart := start
	for i, expected := range want {
		end := AnchoredPeriodEnd(periodStart, start.Day(), FrequencyMonthly)
		assert.True(t, end.Equal(expected), "period %d: got %s want %s", i, end.Format(time.DateOnly), expected.Format(time.DateOnly))
		periodStart = end
	}
}

func TestAnchoredPeriodEnd_InvalidAnchorFallsBackToStartDay(t *testing.T) {
	end := AnchoredPeriodEnd(date(2024, 3, 10), 0, FrequencyMonthly)
	assert.True(t, end.Equal(date(2024, 4, 10)))
}

func TestPeriodAmount(t *testing.T) {
	tests := []struct {
		price string
		freq  Frequency
		want  string
	}{
		{"13.98", FrequencyMonthly, "13.98"},
		{"13.98", FrequencyQuarterly, "41.94"},
		{"13.98", FrequencySemiannual, "83.88"},
		{"13.98", FrequencyAnnual, "167.76"},
		{"0.10", FrequencyAnnual, "1.2"},
		{"15.00", FrequencyQuarterly, "45"},
	}

	for _, tt := range tests {
		t.Run(string(tt.freq)+"_"+tt.price, func(t *testing.T) {
			got := PeriodAmount(decimal.RequireFromString(tt.price), tt.freq)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestPeriodAmount_MatchesMonthsMultiplier(t *testing.T) {
	prices := []string{"0.01", "9.99", "13.975", "21.33", "99.90"}
	for _, p := range prices {
		price := decimal.RequireFromString(p)
		for freq := range monthsByFrequency {
			expected := price.Mul(decimal.NewFromInt(int64(MonthsIn(freq)))).Round(MoneyPlaces)
			assert.True(t, PeriodAmount(price, freq).Equal(expected), "price %s freq %s", p, freq)
		}
	}
}

func TestSplitPrice(t *testing.T) {
	got, err := SplitPrice(decimal.RequireFromString("55.90"), 4)
	require.NoError(t, err)
	assert.Equal(t, "13.98", got.StringFixed(2))

	_, err = SplitPrice(decimal.RequireFromString("55.90"), 0)
	assert.Error(t, err)
}

func TestFrequencyValidate(t *testing.T) {
	assert.NoError(t, FrequencyQuarterly.Validate())
	assert.Error(t, Frequency("weekly").Validate())
	assert.Panics(t, func() { MonthsIn(Frequency("weekly")) })
}
