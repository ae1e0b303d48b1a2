package models

import "github.com/rgreyesph/paspro/utils"

var activeTaxRule utils.TaxRule = utils.DefaultTaxRule()

// ActiveTaxRule returns the tax rule the totals calculator applies to vatable
// lines.
func ActiveTaxRule() utils.TaxRule {
	return activeTaxRule
}

// SetTaxRule swaps the configured tax rule. Intended for wiring at startup
// and for tests; not safe to call concurrently with recomputations.
func SetTaxRule(rule utils.TaxRule) {
	if rule != nil {
		activeTaxRule = rule
	}
}
