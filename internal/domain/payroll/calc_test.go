package payroll

import (
	"encoding/json"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-6

func TestCalculateWorkedExample(t *testing.T) {
	schedule := DefaultSchedule()
	in := Input{NetSalary: 30_000_000, BasicSalary: 5_200_000, NonTaxableIncome: 0, Dependents: 1}

	res := Calculate(schedule, in)

	assert.InDelta(t, 15_400_000, schedule.PersonalDeductions(in.Dependents), tolerance)
	assert.InDelta(t, 546_000, res.EmployeeSI.Total, tolerance)
	assert.InDelta(t, 14_054_000, ConvertedIncome(schedule, in, res.EmployeeSI), tolerance)
	assert.InDelta(t, 15_651_764.705882353, res.PIT.TaxableIncome, tolerance)
	assert.InDelta(t, 1_597_764.705882353, res.PIT.PITAmount, tolerance)
	assert.InDelta(t, 32_143_764.705882353, res.GrossSalary, tolerance)
	assert.InDelta(t, 1_118_000, res.EmployerSI.Total, tolerance)
	assert.InDelta(t, 33_261_764.705882353, res.TotalCompanyCost, tolerance)
	assert.InDelta(t, 1_664_000, res.TotalSIContribution, tolerance)
	assert.InDelta(t, 3_261_764.705882353, res.TotalPaidToGovt, tolerance)

	assert.Equal(t, 30_000_000.0, res.NetSalary)
	assert.Equal(t, 11_000_000.0, res.PIT.PersonalDeduction)
	assert.Equal(t, 4_400_000.0, res.PIT.DependentDeduction)
	assert.InDelta(t, res.EmployeeSI.Total, res.PIT.SIDeduction, tolerance)
	assert.Equal(t, res.GrossSalary, res.PIT.TotalIncome)

	require.Len(t, res.PIT.PITBrackets, 3)
	assert.Equal(t, []int{1, 2, 3}, lo.Map(res.PIT.PITBrackets, func(b PITBracket, _ int) int { return b.Level }))
	assert.InDelta(t, 250_000, res.PIT.PITBrackets[0].TaxAmount, tolerance)
	assert.InDelta(t, 500_000, res.PIT.PITBrackets[1].TaxAmount, tolerance)
	assert.InDelta(t, 5_651_764.705882353, res.PIT.PITBrackets[2].IncomeInBracket, tolerance)
	assert.Equal(t, 3, res.TopBracket())
	assert.Equal(t, OutcomeTaxed, Outcome(in, res))
}

func TestCalculateEmployeeLines(t *testing.T) {
	res := Calculate(DefaultSchedule(), Input{NetSalary: 30_000_000, BasicSalary: 5_200_000})

	assert.InDelta(t, 416_000, res.EmployeeSI.SocialInsurance, tolerance)
	assert.InDelta(t, 78_000, res.EmployeeSI.HealthInsurance, tolerance)
	assert.InDelta(t, 52_000, res.EmployeeSI.UnemploymentInsurance, tolerance)
	assert.InDelta(t, 910_000, res.EmployerSI.SocialInsurance, tolerance)
	assert.InDelta(t, 156_000, res.EmployerSI.HealthInsurance, tolerance)
	assert.InDelta(t, 52_000, res.EmployerSI.UnemploymentInsurance, tolerance)
}

func TestCalculateInvariantsAcrossInputs(t *testing.T) {
	schedule := DefaultSchedule()
	for _, base := range []float64{1_000_000, 5_200_000, 36_000_000} {
		for _, dependents := range []int{0, 1, 3} {
			for _, nonTaxable := range []float64{0, 730_000, 5_000_000} {
				for net := 500_000.0; net <= 300_000_000; net += 1_750_000 {
					in := Input{NetSalary: net, BasicSalary: base, NonTaxableIncome: nonTaxable, Dependents: dependents}
					res := Calculate(schedule, in)

					assert.InDelta(t, net, res.GrossSalary-res.PIT.PITAmount-res.EmployeeSI.Total, tolerance)
					assert.InDelta(t, res.GrossSalary+res.EmployerSI.Total, res.TotalCompanyCost, tolerance)
					assert.InDelta(t, res.EmployeeSI.Total+res.EmployerSI.Total, res.TotalSIContribution, tolerance)
					assert.InDelta(t, res.TotalSIContribution+res.PIT.PITAmount, res.TotalPaidToGovt, tolerance)

					sum := lo.SumBy(res.PIT.PITBrackets, func(b PITBracket) float64 { return b.TaxAmount })
					assert.InDelta(t, res.PIT.PITAmount, sum, tolerance)
					for i, bracket := range res.PIT.PITBrackets {
						assert.Equal(t, i+1, bracket.Level)
					}

					si := res.EmployeeSI
					assert.InDelta(t, si.SocialInsurance+si.HealthInsurance+si.UnemploymentInsurance, si.Total, tolerance)
				}
			}
		}
	}
}

func TestCalculateMonotonicInNet(t *testing.T) {
	schedule := DefaultSchedule()
	var previous Result
	for net := 1_000_000.0; net <= 250_000_000; net += 125_000 {
		res := Calculate(schedule, Input{NetSalary: net, BasicSalary: 5_200_000, Dependents: 1})
		if net > 1_000_000 {
			assert.GreaterOrEqual(t, res.GrossSalary, previous.GrossSalary-tolerance, "net %v", net)
			assert.GreaterOrEqual(t, res.PIT.PITAmount, previous.PIT.PITAmount-tolerance, "net %v", net)
			assert.GreaterOrEqual(t, res.TotalCompanyCost, previous.TotalCompanyCost-tolerance, "net %v", net)
		}
		previous = res
	}
}

func TestCalculateDegenerateInput(t *testing.T) {
	schedule := DefaultSchedule()
	cases := []Input{
		{NetSalary: 0, BasicSalary: 5_200_000, Dependents: 1},
		{NetSalary: 30_000_000, BasicSalary: 0, Dependents: 2},
		{NetSalary: -10, BasicSalary: 5_200_000},
		{NetSalary: 30_000_000, BasicSalary: -1},
	}
	for _, in := range cases {
		res := Calculate(schedule, in)

		assert.Equal(t, in.NetSalary, res.GrossSalary)
		assert.Equal(t, in.NetSalary, res.NetSalary)
		assert.Equal(t, in.NetSalary, res.TotalCompanyCost)
		assert.Equal(t, in.NetSalary, res.PIT.TotalIncome)
		assert.Equal(t, SIDetail{}, res.EmployeeSI)
		assert.Equal(t, SIDetail{}, res.EmployerSI)
		assert.Zero(t, res.TotalPaidToGovt)
		assert.Zero(t, res.TotalSIContribution)
		assert.Zero(t, res.PIT.PersonalDeduction)
		assert.Zero(t, res.PIT.DependentDeduction)
		assert.Zero(t, res.PIT.PITAmount)
		assert.NotNil(t, res.PIT.PITBrackets)
		assert.Empty(t, res.PIT.PITBrackets)
		assert.Equal(t, OutcomeZeroInput, Outcome(in, res))
	}
}

func TestCalculateZeroTaxZone(t *testing.T) {
	schedule := DefaultSchedule()
	cases := []Input{
		{NetSalary: 10_000_000, BasicSalary: 5_200_000},
		// converted income lands exactly on zero
		{NetSalary: 11_546_000, BasicSalary: 5_200_000},
		{NetSalary: 20_000_000, BasicSalary: 5_200_000, Dependents: 2},
		{NetSalary: 25_000_000, BasicSalary: 5_200_000, NonTaxableIncome: 14_000_000},
	}
	for _, in := range cases {
		res := Calculate(schedule, in)
		require.LessOrEqual(t, ConvertedIncome(schedule, in, res.EmployeeSI), 0.0)

		assert.Zero(t, res.PIT.TaxableIncome)
		assert.Zero(t, res.PIT.PITAmount)
		assert.Empty(t, res.PIT.PITBrackets)
		assert.InDelta(t, in.NetSalary+res.EmployeeSI.Total, res.GrossSalary, tolerance)
		assert.Equal(t, OutcomeZeroTax, Outcome(in, res))
		assert.Equal(t, 0, res.TopBracket())
	}
}

func TestCalculateNonTaxableIncomeLowersTax(t *testing.T) {
	schedule := DefaultSchedule()
	without := Calculate(schedule, Input{NetSalary: 40_000_000, BasicSalary: 5_200_000})
	with := Calculate(schedule, Input{NetSalary: 40_000_000, BasicSalary: 5_200_000, NonTaxableIncome: 2_000_000})

	assert.Less(t, with.PIT.PITAmount, without.PIT.PITAmount)
	assert.Equal(t, 2_000_000.0, with.PIT.NonTaxableIncomeDeduction)
}

func TestZeroResultEncodesEmptyBrackets(t *testing.T) {
	res := Calculate(DefaultSchedule(), Input{})

	payload, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"pitBrackets":[]`)
	assert.Contains(t, string(payload), `"employeeSI":{"socialInsurance":0,`)
}
