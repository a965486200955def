package payroll

const (
	DefaultSelfDeduction      = 11_000_000
	DefaultDependentDeduction = 4_400_000

	EmployeeSocialRate       = 0.08
	EmployeeHealthRate       = 0.015
	EmployeeUnemploymentRate = 0.01

	EmployerSocialRate       = 0.175
	EmployerHealthRate       = 0.03
	EmployerUnemploymentRate = 0.01

	OutcomeZeroInput = "zero_input"
	OutcomeZeroTax   = "zero_tax"
	OutcomeTaxed     = "taxed"
)

// defaultTierCeilings and defaultTierRates describe the seven-level PIT
// schedule. The top tier has no ceiling.
var (
	defaultTierCeilings = []float64{5_000_000, 10_000_000, 18_000_000, 32_000_000, 52_000_000, 80_000_000}
	defaultTierRates    = []float64{0.05, 0.10, 0.15, 0.20, 0.25, 0.30, 0.35}
)
