package fees

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/internal/onboarding"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleData() *onboarding.Data {
	d := onboarding.NewData()
	d.AddLocation(onboarding.BusinessLocation{Name: "A", EstimatedTurnover: dec("10000")})
	d.AddLocation(onboarding.BusinessLocation{Name: "B", EstimatedTurnover: dec("5000")})
	d.SetDeviceSelection(onboarding.DeviceSelection{
		DynamicCards: []onboarding.DeviceCard{
			{
				Type:        onboarding.CardDevice,
				Name:        "Terminal",
				Count:       2,
				MonthlyFee:  dec("12.50"),
				CompanyCost: dec("8"),
				Addons: []onboarding.Addon{
					{Name: "SIM", MonthlyFee: dec("2"), IsPerDevice: true},
					{Name: "Support", MonthlyFee: dec("5")},
				},
			},
			{
				Type:       onboarding.CardService,
				Name:       "E-shop gateway",
				Count:      1,
				MonthlyFee: dec("20"),
			},
		},
	})
	return d
}

func TestMonthlyDeviceFees(t *testing.T) {
	d := sampleData()

	// 2*12.50 + 2*2 + 5 + 20
	assert.True(t, MonthlyDeviceFees(d.DeviceSelection.DynamicCards).Equal(dec("54")))
	assert.True(t, MonthlyCompanyCosts(d.DeviceSelection.DynamicCards).Equal(dec("16")))
	assert.True(t, TotalTurnover(d.BusinessLocations).Equal(dec("15000")))
}

func TestCalculate(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewCalculator(DefaultRates())
	c.now = func() time.Time { return fixed }

	f := c.Calculate(sampleData())

	// customer payments: 15000*0.0095 + 54 = 196.50
	// company costs: 15000*0.0045 + 16 = 83.50
	assert.Equal(t, "15000", f.TotalTurnover.String())
	assert.Equal(t, "54", f.MonthlyDeviceFees.String())
	assert.Equal(t, "196.5", f.CustomerPayments.String())
	assert.Equal(t, "83.5", f.CompanyCosts.String())
	assert.Equal(t, "113", f.Margin.String())
	assert.Equal(t, "0.0131", f.EffectiveRate.String())
	require.NotNil(t, f.CalculatedAt)
	assert.Equal(t, fixed, *f.CalculatedAt)
}

func TestCalculate_ZeroTurnover(t *testing.T) {
	c := NewCalculator(DefaultRates())
	d := onboarding.NewData()

	f := c.Calculate(d)

	assert.True(t, f.EffectiveRate.IsZero())
	assert.True(t, f.CustomerPayments.IsZero())
}

func TestApply_StoresOnAggregate(t *testing.T) {
	c := NewCalculator(DefaultRates())
	d := sampleData()

	f := c.Apply(d)

	assert.True(t, d.Fees.Margin.Equal(f.Margin))
	assert.NotNil(t, d.Fees.CalculatedAt)
}
