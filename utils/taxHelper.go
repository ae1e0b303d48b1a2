package utils

import (
	"github.com/shopspring/decimal"
)

// TaxRule computes the tax contribution of a single line. Implementations are
// keyed by line classification so jurisdiction-specific rules can plug in
// without touching the totals calculator.
type TaxRule interface {
	TaxAmount(lineTotal decimal.Decimal, classification string) decimal.Decimal
}

// FlatRateVAT applies one exclusive rate to every taxable line regardless of
// classification. Rate is a fraction, e.g. 0.12 for 12% VAT.
type FlatRateVAT struct {
	Rate decimal.Decimal
}

func (r FlatRateVAT) TaxAmount(lineTotal decimal.Decimal, classification string) decimal.Decimal {
	return lineTotal.Mul(r.Rate)
}

// DefaultTaxRule is the configured rule for the business. 12% exclusive VAT.
func DefaultTaxRule() TaxRule {
	return FlatRateVAT{Rate: decimal.NewFromFloat(0.12)}
}
