package payroll

type Input struct {
	NetSalary        float64 `json:"netSalary"`
	BasicSalary      float64 `json:"basicSalary"`
	NonTaxableIncome float64 `json:"nonTaxableIncome"`
	Dependents       int     `json:"dependents"`
}

type SIDetail struct {
	SocialInsurance       float64 `json:"socialInsurance"`
	HealthInsurance       float64 `json:"healthInsurance"`
	UnemploymentInsurance float64 `json:"unemploymentInsurance"`
	Total                 float64 `json:"total"`
}

type Contributions struct {
	Employee SIDetail
	Employer SIDetail
}

type PITBracket struct {
	Level           int     `json:"level"`
	IncomeInBracket float64 `json:"incomeInBracket"`
	Rate            float64 `json:"rate"`
	TaxAmount       float64 `json:"taxAmount"`
}

type PITDetail struct {
	TotalIncome               float64      `json:"totalIncome"`
	PersonalDeduction         float64      `json:"personalDeduction"`
	DependentDeduction        float64      `json:"dependentDeduction"`
	SIDeduction               float64      `json:"siDeduction"`
	NonTaxableIncomeDeduction float64      `json:"nonTaxableIncomeDeduction"`
	TaxableIncome             float64      `json:"taxableIncome"`
	PITAmount                 float64      `json:"pitAmount"`
	PITBrackets               []PITBracket `json:"pitBrackets"`
}

type Result struct {
	GrossSalary float64   `json:"grossSalary"`
	EmployeeSI  SIDetail  `json:"employeeSI"`
	PIT         PITDetail `json:"pit"`
	NetSalary   float64   `json:"netSalary"`

	EmployerSI          SIDetail `json:"employerSI"`
	TotalCompanyCost    float64  `json:"totalCompanyCost"`
	TotalPaidToGovt     float64  `json:"totalPaidToGovt"`
	TotalSIContribution float64  `json:"totalSIContribution"`
}

// RateSet holds the three statutory contribution rates paid by one side.
type RateSet struct {
	Social       float64 `json:"social"`
	Health       float64 `json:"health"`
	Unemployment float64 `json:"unemployment"`
}

func (r RateSet) Total() float64 {
	return r.Social + r.Health + r.Unemployment
}

// TaxTier is one forward bracket. Ceiling is a cumulative taxable-income
// ceiling, math.Inf(1) for the top tier.
type TaxTier struct {
	Level   int     `json:"level"`
	Ceiling float64 `json:"-"`
	Rate    float64 `json:"rate"`
}

// ConversionTier maps converted (net-of-tax) income back to taxable income
// as (converted - Subtract) / Divisor while converted <= Threshold.
type ConversionTier struct {
	Level     int     `json:"level"`
	Threshold float64 `json:"-"`
	Subtract  float64 `json:"subtract"`
	Divisor   float64 `json:"divisor"`
}
