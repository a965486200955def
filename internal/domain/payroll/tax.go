package payroll

import "math"

// TaxableFromConverted recovers taxable income from income net of tax using
// the derived conversion tiers. Non-positive input has no tax liability.
func (s Schedule) TaxableFromConverted(converted float64) float64 {
	if converted <= 0 {
		return 0
	}
	for _, tier := range s.conversion {
		if converted <= tier.Threshold {
			return (converted - tier.Subtract) / tier.Divisor
		}
	}
	// only a zero Schedule gets here; a validated one ends in an unbounded tier
	return 0
}

// AllocateTax walks the forward tiers and returns the tax owed on taxable
// income together with one bracket per tier the income reaches.
func (s Schedule) AllocateTax(taxable float64) (float64, []PITBracket) {
	brackets := []PITBracket{}
	if taxable <= 0 {
		return 0, brackets
	}

	var amount, previousLimit float64
	for _, tier := range s.tiers {
		if taxable <= previousLimit {
			break
		}
		income := math.Min(taxable, tier.Ceiling) - previousLimit
		tax := income * tier.Rate
		amount += tax
		brackets = append(brackets, PITBracket{
			Level:           tier.Level,
			IncomeInBracket: income,
			Rate:            tier.Rate,
			TaxAmount:       tax,
		})
		previousLimit = tier.Ceiling
	}
	return amount, brackets
}
