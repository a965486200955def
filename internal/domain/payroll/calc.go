package payroll

// Calculate grosses up a target net salary under the given schedule.
// Non-positive net or basic salary yields the zero result rather than an
// error.
func Calculate(schedule Schedule, in Input) Result {
	if in.NetSalary <= 0 || in.BasicSalary <= 0 {
		return zeroResult(in.NetSalary)
	}

	contributions := schedule.ComputeSI(in.BasicSalary)
	employeeSI, employerSI := contributions.Employee, contributions.Employer

	personal := schedule.SelfDeduction()
	dependent := float64(in.Dependents) * schedule.DependentDeduction()
	converted := ConvertedIncome(schedule, in, employeeSI)

	taxable := schedule.TaxableFromConverted(converted)
	pitAmount, brackets := schedule.AllocateTax(taxable)

	gross := in.NetSalary + pitAmount + employeeSI.Total
	totalSI := employeeSI.Total + employerSI.Total

	return Result{
		GrossSalary: gross,
		EmployeeSI:  employeeSI,
		PIT: PITDetail{
			TotalIncome:               gross,
			PersonalDeduction:         personal,
			DependentDeduction:        dependent,
			SIDeduction:               employeeSI.Total,
			NonTaxableIncomeDeduction: in.NonTaxableIncome,
			TaxableIncome:             taxable,
			PITAmount:                 pitAmount,
			PITBrackets:               brackets,
		},
		NetSalary:           in.NetSalary,
		EmployerSI:          employerSI,
		TotalCompanyCost:    gross + employerSI.Total,
		TotalPaidToGovt:     totalSI + pitAmount,
		TotalSIContribution: totalSI,
	}
}

// ConvertedIncome is the net salary left after personal and dependent
// deductions, employee contributions and non-taxable income.
func ConvertedIncome(schedule Schedule, in Input, employeeSI SIDetail) float64 {
	return in.NetSalary - schedule.PersonalDeductions(in.Dependents) - employeeSI.Total - in.NonTaxableIncome
}

func zeroResult(net float64) Result {
	return Result{
		GrossSalary: net,
		PIT: PITDetail{
			TotalIncome: net,
			PITBrackets: []PITBracket{},
		},
		NetSalary:        net,
		TotalCompanyCost: net,
	}
}

// Outcome classifies a calculation for metrics and logs.
func Outcome(in Input, res Result) string {
	switch {
	case in.NetSalary <= 0 || in.BasicSalary <= 0:
		return OutcomeZeroInput
	case res.PIT.PITAmount == 0:
		return OutcomeZeroTax
	default:
		return OutcomeTaxed
	}
}

// TopBracket returns the highest level reached, 0 when no tax is due.
func (r Result) TopBracket() int {
	if len(r.PIT.PITBrackets) == 0 {
		return 0
	}
	return r.PIT.PITBrackets[len(r.PIT.PITBrackets)-1].Level
}
