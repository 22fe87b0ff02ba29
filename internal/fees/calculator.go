// Package fees computes the merchant fee calculation shown on the calculator
// step. All arithmetic uses decimal values; money is rounded to cents and
// rates to four places.
package fees

import (
	"time"

	"github.com/shopspring/decimal"

	"merchant-onboarding/internal/onboarding"
)

// Rates are the pricing inputs of the calculation, as fractions (0.0095 = 0.95 %).
type Rates struct {
	CardRate        decimal.Decimal `json:"cardRate"`
	InterchangeRate decimal.Decimal `json:"interchangeRate"`
	SchemeFeeRate   decimal.Decimal `json:"schemeFeeRate"`
}

// DefaultRates are used when a session has no negotiated pricing.
func DefaultRates() Rates {
	return Rates{
		CardRate:        decimal.RequireFromString("0.0095"),
		InterchangeRate: decimal.RequireFromString("0.0030"),
		SchemeFeeRate:   decimal.RequireFromString("0.0015"),
	}
}

// Calculator derives onboarding.Fees from locations and selected devices.
type Calculator struct {
	rates Rates
	now   func() time.Time
}

// NewCalculator returns a calculator using rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates, now: time.Now}
}

// Rates returns the rates in use.
func (c *Calculator) Rates() Rates {
	return c.rates
}

// Calculate computes fees for the aggregate without mutating it.
func (c *Calculator) Calculate(d *onboarding.Data) onboarding.Fees {
	turnover := TotalTurnover(d.BusinessLocations)
	deviceFees := MonthlyDeviceFees(d.DeviceSelection.DynamicCards)
	deviceCosts := MonthlyCompanyCosts(d.DeviceSelection.DynamicCards)

	customerPayments := turnover.Mul(c.rates.CardRate).Add(deviceFees)
	processingCosts := turnover.Mul(c.rates.InterchangeRate.Add(c.rates.SchemeFeeRate))
	companyCosts := processingCosts.Add(deviceCosts)

	effective := decimal.Zero
	if turnover.IsPositive() {
		effective = customerPayments.Div(turnover)
	}

	now := c.now().UTC()
	return onboarding.Fees{
		CalculatedAt:      &now,
		TotalTurnover:     turnover.Round(2),
		MonthlyDeviceFees: deviceFees.Round(2),
		CustomerPayments:  customerPayments.Round(2),
		CompanyCosts:      companyCosts.Round(2),
		Margin:            customerPayments.Sub(companyCosts).Round(2),
		EffectiveRate:     effective.Round(4),
	}
}

// Apply calculates fees and stores them on the aggregate.
func (c *Calculator) Apply(d *onboarding.Data) onboarding.Fees {
	f := c.Calculate(d)
	d.SetFees(f)
	return f
}

// TotalTurnover sums the estimated monthly card turnover of all locations.
func TotalTurnover(locations []onboarding.BusinessLocation) decimal.Decimal {
	total := decimal.Zero
	for _, l := range locations {
		total = total.Add(l.EstimatedTurnover)
	}
	return total
}

// MonthlyDeviceFees is what the merchant pays per month for devices and
// services: card fee times count, plus addons (per-device addons times count).
func MonthlyDeviceFees(cards []onboarding.DeviceCard) decimal.Decimal {
	total := decimal.Zero
	for _, card := range cards {
		count := decimal.NewFromInt(int64(card.Count))
		total = total.Add(card.MonthlyFee.Mul(count))
		for _, addon := range card.Addons {
			if addon.IsPerDevice {
				total = total.Add(addon.MonthlyFee.Mul(count))
			} else {
				total = total.Add(addon.MonthlyFee)
			}
		}
	}
	return total
}

// MonthlyCompanyCosts is the provider-side cost of the selected cards.
func MonthlyCompanyCosts(cards []onboarding.DeviceCard) decimal.Decimal {
	total := decimal.Zero
	for _, card := range cards {
		total = total.Add(card.CompanyCost.Mul(decimal.NewFromInt(int64(card.Count))))
	}
	return total
}
